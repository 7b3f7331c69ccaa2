package employee

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal/award"
)

// UpsertEmployeeDTO creates or updates a directory entry.
type UpsertEmployeeDTO struct {
	ID              *uuid.UUID           `json:"id,omitempty"`
	FirstName       string               `json:"first_name"`
	LastName        string               `json:"last_name"`
	Email           string               `json:"email"`
	AwardID         *uuid.UUID           `json:"award_id,omitempty"`
	AwardLevel      int                  `json:"award_level"`
	EmploymentType  award.EmploymentType `json:"employment_type"`
	GuaranteedHours *decimal.Decimal     `json:"guaranteed_hours,omitempty"`
	HourlyRate      *decimal.Decimal     `json:"hourly_rate,omitempty"`
	IsActive        bool                 `json:"is_active"`
}

func (dto UpsertEmployeeDTO) Validate() error {
	if dto.FirstName == "" || dto.LastName == "" {
		return errors.New("first_name and last_name are required")
	}
	if !dto.EmploymentType.Valid() {
		return errors.New("employment_type must be one of: FullTime, PartTime, Casual, FixedTerm")
	}
	if dto.AwardLevel < 0 {
		return errors.New("award_level cannot be negative")
	}
	return nil
}

func (dto UpsertEmployeeDTO) ToEmployee(orgID uuid.UUID) *Employee {
	e := &Employee{
		OrganizationID:  orgID,
		FirstName:       dto.FirstName,
		LastName:        dto.LastName,
		Email:           dto.Email,
		AwardID:         dto.AwardID,
		AwardLevel:      dto.AwardLevel,
		EmploymentType:  dto.EmploymentType,
		GuaranteedHours: dto.GuaranteedHours,
		HourlyRate:      dto.HourlyRate,
		IsActive:        dto.IsActive,
	}
	if dto.ID != nil {
		e.ID = *dto.ID
	}
	return e
}

// EmployeeDTO is the API view of a directory entry.
type EmployeeDTO struct {
	ID              uuid.UUID        `json:"id"`
	FullName        string           `json:"full_name"`
	Email           string           `json:"email"`
	AwardID         *uuid.UUID       `json:"award_id,omitempty"`
	AwardLevel      int              `json:"award_level"`
	EmploymentType  string           `json:"employment_type"`
	GuaranteedHours *decimal.Decimal `json:"guaranteed_hours,omitempty"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate,omitempty"`
	IsActive        bool             `json:"is_active"`
	CreatedAt       time.Time        `json:"created_at"`
}

func ToEmployeeDTO(e *Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:              e.ID,
		FullName:        e.FullName(),
		Email:           e.Email,
		AwardID:         e.AwardID,
		AwardLevel:      e.AwardLevel,
		EmploymentType:  e.EmploymentType.String(),
		GuaranteedHours: e.GuaranteedHours,
		HourlyRate:      e.HourlyRate,
		IsActive:        e.IsActive,
		CreatedAt:       e.CreatedAt,
	}
}
