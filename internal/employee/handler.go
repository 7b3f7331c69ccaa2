package employee

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/transport"
	"github.com/awardly/compliance-engine/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Employee, error)
	List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Employee, error)
	Upsert(ctx context.Context, e *Employee) error
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

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	employees, err := h.Service.List(r.Context(), orgID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	out := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		out = append(out, ToEmployeeDTO(e))
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"employees": out})
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "employeeID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	e, err := h.Service.GetByID(r.Context(), orgID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToEmployeeDTO(e))
}

func (h *Handler) UpsertEmployee(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UpsertEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpsertEmployee: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := dto.ToEmployee(orgID)
	if err := h.Service.Upsert(r.Context(), e); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToEmployeeDTO(e))
}
