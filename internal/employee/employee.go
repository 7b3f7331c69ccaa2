package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal/award"
)

// Employee is the directory entry the validation pipelines consume: who the
// person is and how they map onto the award catalog.
type Employee struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`

	AwardID        *uuid.UUID           `json:"award_id,omitempty"`
	AwardLevel     int                  `json:"award_level"`
	EmploymentType award.EmploymentType `json:"employment_type"`

	GuaranteedHours *decimal.Decimal `json:"guaranteed_hours,omitempty"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
