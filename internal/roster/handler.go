package roster

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/transport"
	"github.com/awardly/compliance-engine/pkg/logger"
)

type ServiceAPI interface {
	IngestShifts(ctx context.Context, orgID, rosterID uuid.UUID, shifts []*Shift) error
	StartValidation(ctx context.Context, orgID, rosterID uuid.UUID, weekStart, weekEnd time.Time) (*RunResult, error)
	RetryValidation(ctx context.Context, orgID, validationID uuid.UUID) (*RunResult, error)
	GetResult(ctx context.Context, orgID, validationID uuid.UUID) (*RunResult, error)
	GetLatestResult(ctx context.Context, orgID, rosterID uuid.UUID) (*RunResult, error)
	ResolveIssue(ctx context.Context, orgID, issueID, actorID uuid.UUID, notes string) (*Issue, error)
	WaiveIssue(ctx context.Context, orgID, issueID, actorID uuid.UUID, reason string) (*Issue, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) UploadRoster(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UploadRosterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UploadRoster: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	shifts := make([]*Shift, 0, len(dto.Shifts))
	for _, s := range dto.Shifts {
		shifts = append(shifts, s.ToShift())
	}

	if err := h.Service.IngestShifts(r.Context(), orgID, dto.RosterID, shifts); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"roster_id":    dto.RosterID,
		"shifts_count": len(shifts),
	})
}

func (h *Handler) StartValidation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto StartValidationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("StartValidation: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	weekStart, weekEnd := dto.Period()
	result, err := h.Service.StartValidation(r.Context(), orgID, dto.RosterID, weekStart, weekEnd)
	if err != nil {
		h.Logger.Error("StartValidation: service error", "error", err, "roster_id", dto.RosterID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) RetryValidation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	validationID, err := uuid.Parse(chi.URLParam(r, "validationID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid validation id")
		return
	}

	result, err := h.Service.RetryValidation(r.Context(), orgID, validationID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetValidation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	validationID, err := uuid.Parse(chi.URLParam(r, "validationID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid validation id")
		return
	}

	result, err := h.Service.GetResult(r.Context(), orgID, validationID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetLatestValidation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rosterID, err := uuid.Parse(chi.URLParam(r, "rosterID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid roster id")
		return
	}

	result, err := h.Service.GetLatestResult(r.Context(), orgID, rosterID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) ResolveIssue(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	actorID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	issueID, err := uuid.Parse(chi.URLParam(r, "issueID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	var dto ResolveIssueDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	issue, err := h.Service.ResolveIssue(r.Context(), orgID, issueID, actorID, dto.Notes)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) WaiveIssue(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	actorID, ok := internal.UserIDFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	issueID, err := uuid.Parse(chi.URLParam(r, "issueID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	var dto WaiveIssueDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	issue, err := h.Service.WaiveIssue(r.Context(), orgID, issueID, actorID, dto.Reason)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, issue)
}
