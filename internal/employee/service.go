package employee

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/awardly/compliance-engine/internal"
)

// Repository defines the data access methods for the employee directory.
type Repository interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Employee, error)
	GetByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*Employee, error)
	GetByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Employee, error)
	Upsert(ctx context.Context, e *Employee) error
}

// Service is the employee directory consumed by both validation pipelines.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetByID(ctx context.Context, orgID, id uuid.UUID) (*Employee, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

// GetByIDs returns the employees that exist; missing IDs are simply absent
// from the result. The pipelines treat an absent employee as a data quality
// finding, not an error.
func (s *Service) GetByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.GetByIDs(ctx, orgID, ids)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*Employee, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByOrganization(ctx, orgID, limit, offset)
}

// Upsert creates or updates a directory entry, e.g. from an ingested payroll
// file that carries employee rows.
func (s *Service) Upsert(ctx context.Context, e *Employee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if !e.EmploymentType.Valid() {
		s.logger.Error("rejecting employee with unknown employment type",
			"employee_id", e.ID, "employment_type", e.EmploymentType)
		return internal.NewValidationError("unknown employment type", internal.ErrCodeValidationFailed)
	}
	return s.repo.Upsert(ctx, e)
}
