package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/award"
	employeeDatamodel "github.com/awardly/compliance-engine/internal/core/datamodel/employee"
	"github.com/awardly/compliance-engine/internal/employee"
)

// EmployeeRepository implements the employee.Repository interface using GORM.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.Repository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*employee.Employee, error) {
	var row employeeDatamodel.Employee
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ? AND is_deleted = ?", id, orgID, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, err
	}
	return toDomain(&row), nil
}

func (r *EmployeeRepository) GetByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*employee.Employee, error) {
	var rows []*employeeDatamodel.Employee
	err := r.db.WithContext(ctx).
		Where("id IN ? AND organization_id = ? AND is_deleted = ?", ids, orgID, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*employee.Employee, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomain(row))
	}
	return out, nil
}

func (r *EmployeeRepository) GetByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*employee.Employee, error) {
	var rows []*employeeDatamodel.Employee
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_deleted = ?", orgID, false).
		Order("last_name ASC, first_name ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*employee.Employee, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomain(row))
	}
	return out, nil
}

func (r *EmployeeRepository) Upsert(ctx context.Context, e *employee.Employee) error {
	row := &employeeDatamodel.Employee{
		ID:              e.ID,
		OrganizationID:  e.OrganizationID,
		FirstName:       e.FirstName,
		LastName:        e.LastName,
		Email:           e.Email,
		AwardID:         e.AwardID,
		AwardLevel:      e.AwardLevel,
		EmploymentType:  e.EmploymentType.String(),
		GuaranteedHours: e.GuaranteedHours,
		HourlyRate:      e.HourlyRate,
		IsActive:        e.IsActive,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"first_name", "last_name", "email", "award_id", "award_level",
				"employment_type", "guaranteed_hours", "hourly_rate", "is_active", "updated_at",
			}),
		}).
		Create(row).Error
}

func toDomain(row *employeeDatamodel.Employee) *employee.Employee {
	return &employee.Employee{
		ID:              row.ID,
		OrganizationID:  row.OrganizationID,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Email:           row.Email,
		AwardID:         row.AwardID,
		AwardLevel:      row.AwardLevel,
		EmploymentType:  award.EmploymentType(row.EmploymentType),
		GuaranteedHours: row.GuaranteedHours,
		HourlyRate:      row.HourlyRate,
		IsActive:        row.IsActive,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
