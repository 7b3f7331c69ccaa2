package payroll

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
	IngestPayslips(ctx context.Context, orgID, batchID uuid.UUID, payslips []*Payslip) error
	StartValidation(ctx context.Context, orgID, batchID uuid.UUID, periodStart, periodEnd time.Time) (*RunResult, error)
	RetryValidation(ctx context.Context, orgID, validationID uuid.UUID) (*RunResult, error)
	GetResult(ctx context.Context, orgID, validationID uuid.UUID) (*RunResult, error)
	GetLatestResult(ctx context.Context, orgID, batchID uuid.UUID) (*RunResult, error)
	ResolveIssue(ctx context.Context, orgID, issueID, actorID uuid.UUID, notes string) (*Issue, error)
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

func (h *Handler) UploadPayslips(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internal.OrganizationFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto UploadPayslipsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UploadPayslips: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	payslips := make([]*Payslip, 0, len(dto.Payslips))
	for _, p := range dto.Payslips {
		payslips = append(payslips, p.ToPayslip())
	}

	if err := h.Service.IngestPayslips(r.Context(), orgID, dto.BatchID, payslips); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"batch_id":       dto.BatchID,
		"payslips_count": len(payslips),
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

	periodStart, periodEnd := dto.Period()
	result, err := h.Service.StartValidation(r.Context(), orgID, dto.BatchID, periodStart, periodEnd)
	if err != nil {
		h.Logger.Error("StartValidation: service error", "error", err, "batch_id", dto.BatchID)
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

	batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	result, err := h.Service.GetLatestResult(r.Context(), orgID, batchID)
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
