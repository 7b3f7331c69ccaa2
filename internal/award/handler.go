package award

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal/transport"
	"github.com/awardly/compliance-engine/pkg/logger"
)

type CatalogAPI interface {
	ListAwards(ctx context.Context) ([]*Award, error)
	GetAward(ctx context.Context, id uuid.UUID) (*Award, error)
	ListLevels(ctx context.Context, awardID uuid.UUID) ([]*Level, error)
	ResolveLevelRate(ctx context.Context, awardID uuid.UUID, levelNumber int, et EmploymentType, asOf time.Time) (decimal.Decimal, error)
}

type Handler struct {
	*transport.BaseHandler
	Catalog CatalogAPI
}

func NewHandler(catalog CatalogAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Catalog:     catalog,
	}
}

func (h *Handler) ListAwards(w http.ResponseWriter, r *http.Request) {
	awards, err := h.Catalog.ListAwards(r.Context())
	if err != nil {
		h.Logger.Error("ListAwards: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	dtos := make([]*AwardDTO, 0, len(awards))
	for _, a := range awards {
		dtos = append(dtos, ToAwardDTO(a))
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"awards": dtos})
}

func (h *Handler) GetAward(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "awardID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid award id")
		return
	}

	a, err := h.Catalog.GetAward(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToAwardDTO(a))
}

func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "awardID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid award id")
		return
	}

	levels, err := h.Catalog.ListLevels(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	dtos := make([]*LevelDTO, 0, len(levels))
	for _, l := range levels {
		dtos = append(dtos, ToLevelDTO(l))
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"levels": dtos})
}

// ResolveRate answers "what should a level N casual be paid on this date",
// the same lookup the pipelines make internally.
func (h *Handler) ResolveRate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "awardID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid award id")
		return
	}

	q := r.URL.Query()
	dto := ResolveRateQueryDTO{
		EmploymentType: q.Get("employment_type"),
		AsOf:           q.Get("as_of"),
	}
	if lvl := q.Get("level_number"); lvl != "" {
		n, convErr := strconv.Atoi(lvl)
		if convErr != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid level_number")
			return
		}
		dto.LevelNumber = n
	}
	if err := dto.Validate(); err != nil {
		h.Logger.Error("ResolveRate: invalid query", "error", err)
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	asOf := time.Now()
	if dto.AsOf != "" {
		asOf, _ = time.Parse("2006-01-02", dto.AsOf)
	}
	et, _ := ParseEmploymentType(dto.EmploymentType)

	rate, err := h.Catalog.ResolveLevelRate(r.Context(), id, dto.LevelNumber, et, asOf)
	if err != nil {
		h.Logger.Error("ResolveRate: service error", "error", err, "award_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ResolvedRateDTO{
		AwardID:        id,
		LevelNumber:    dto.LevelNumber,
		EmploymentType: dto.EmploymentType,
		AsOf:           asOf.Format("2006-01-02"),
		HourlyRate:     rate,
	})
}
