package payroll

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/validation"
)

// Category is the closed set of payroll compliance checks.
type Category string

const (
	CategoryPreValidation  Category = "PreValidation"
	CategoryBaseRate       Category = "BaseRate"
	CategoryPenaltyRate    Category = "PenaltyRate"
	CategoryCasualLoading  Category = "CasualLoading"
	CategorySuperannuation Category = "Superannuation"
	CategorySTPCompliance  Category = "STPCompliance"
)

// AllCategories returns every payroll check in execution order. PreValidation
// runs first: a payslip whose award mapping cannot be resolved is flagged there
// and skipped by the rate checks.
func AllCategories() []Category {
	return []Category{
		CategoryPreValidation,
		CategoryBaseRate,
		CategoryPenaltyRate,
		CategoryCasualLoading,
		CategorySuperannuation,
		CategorySTPCompliance,
	}
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown payroll check category %q", s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case CategoryPreValidation, CategoryBaseRate, CategoryPenaltyRate,
		CategoryCasualLoading, CategorySuperannuation, CategorySTPCompliance:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseClassificationLevel extracts the numeric level from a classification
// label such as "Level 3" or "Retail Employee Level 2". The trailing number
// wins so award names containing digits do not confuse it.
func ParseClassificationLevel(classification string) (int, error) {
	fields := strings.Fields(classification)
	for i := len(fields) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(fields[i]); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("no level number in classification %q", classification)
}

// Payslip is one employee's pay record in a payroll batch. Pay components are
// what the payroll system actually paid; the checks compare them to what the
// award says they should have been.
type Payslip struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"column:organization_id;type:uuid;index;not null"`
	BatchID        uuid.UUID `json:"batch_id" gorm:"column:batch_id;type:uuid;index;not null"`
	EmployeeID     uuid.UUID `json:"employee_id" gorm:"column:employee_id;type:uuid;index;not null"`

	PayPeriodStart time.Time `json:"pay_period_start" gorm:"column:pay_period_start;type:date;not null"`
	PayPeriodEnd   time.Time `json:"pay_period_end" gorm:"column:pay_period_end;type:date;not null"`
	PayDate        time.Time `json:"pay_date" gorm:"column:pay_date;type:date;not null"`

	EmployeeName   string `json:"employee_name" gorm:"column:employee_name;not null"`
	EmployeeNumber string `json:"employee_number" gorm:"column:employee_number"`

	EmploymentType string `json:"employment_type" gorm:"column:employment_type;not null"`
	AwardType      string `json:"award_type" gorm:"column:award_type;not null"`
	Classification string `json:"classification" gorm:"column:classification;not null"`

	HourlyRate decimal.Decimal `json:"hourly_rate" gorm:"column:hourly_rate;type:numeric(12,4)"`

	OrdinaryHours decimal.Decimal `json:"ordinary_hours" gorm:"column:ordinary_hours;type:numeric(10,2)"`
	OrdinaryPay   decimal.Decimal `json:"ordinary_pay" gorm:"column:ordinary_pay;type:numeric(12,2)"`

	SaturdayHours decimal.Decimal `json:"saturday_hours" gorm:"column:saturday_hours;type:numeric(10,2)"`
	SaturdayPay   decimal.Decimal `json:"saturday_pay" gorm:"column:saturday_pay;type:numeric(12,2)"`

	SundayHours decimal.Decimal `json:"sunday_hours" gorm:"column:sunday_hours;type:numeric(10,2)"`
	SundayPay   decimal.Decimal `json:"sunday_pay" gorm:"column:sunday_pay;type:numeric(12,2)"`

	PublicHolidayHours decimal.Decimal `json:"public_holiday_hours" gorm:"column:public_holiday_hours;type:numeric(10,2)"`
	PublicHolidayPay   decimal.Decimal `json:"public_holiday_pay" gorm:"column:public_holiday_pay;type:numeric(12,2)"`

	GrossPay       decimal.Decimal `json:"gross_pay" gorm:"column:gross_pay;type:numeric(12,2)"`
	Superannuation decimal.Decimal `json:"superannuation" gorm:"column:superannuation;type:numeric(12,2)"`

	IsDeleted bool       `json:"-" gorm:"column:is_deleted;default:false"`
	DeletedAt *time.Time `json:"-" gorm:"column:deleted_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Payslip) TableName() string {
	return "payslips"
}

// TotalHours is every worked hour on the payslip.
func (p *Payslip) TotalHours() decimal.Decimal {
	return p.OrdinaryHours.Add(p.SaturdayHours).Add(p.SundayHours).Add(p.PublicHolidayHours)
}

// ActualOrdinaryRate is what the employee was effectively paid per ordinary
// hour. Zero ordinary hours yields zero; the data quality of that case is
// handled separately.
func (p *Payslip) ActualOrdinaryRate() decimal.Decimal {
	if !p.OrdinaryHours.IsPositive() {
		return decimal.Zero
	}
	return p.OrdinaryPay.Div(p.OrdinaryHours)
}

// Validation is one payroll validation run over a batch's pay period.
type Validation struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"column:organization_id;type:uuid;index;not null"`
	BatchID        uuid.UUID `json:"batch_id" gorm:"column:batch_id;type:uuid;not null"`

	PayPeriodStart time.Time `json:"pay_period_start" gorm:"column:pay_period_start;type:date;not null"`
	PayPeriodEnd   time.Time `json:"pay_period_end" gorm:"column:pay_period_end;type:date;not null"`

	validation.RunState `gorm:"embedded"`

	IsDeleted bool       `json:"-" gorm:"column:is_deleted;default:false"`
	DeletedAt *time.Time `json:"-" gorm:"column:deleted_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Validation) TableName() string {
	return "payroll_validations"
}

// NewValidation creates a Pending run for a payroll batch.
func NewValidation(orgID, batchID uuid.UUID, periodStart, periodEnd time.Time, checks validation.CheckSet) (*Validation, error) {
	if periodEnd.Before(periodStart) {
		return nil, internal.NewValidationError("pay_period_end must be on or after pay_period_start", internal.ErrCodeInvalidPeriod)
	}
	return &Validation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		BatchID:        batchID,
		PayPeriodStart: periodStart,
		PayPeriodEnd:   periodEnd,
		RunState:       validation.NewRunState(checks),
	}, nil
}

// Issue is one detected payroll violation. Unlike roster issues, payroll
// issues cannot be waived: an underpayment stays on the record until the pay
// is corrected and the issue resolved.
type Issue struct {
	ID             uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"column:organization_id;type:uuid;index;not null"`
	ValidationID   uuid.UUID  `json:"validation_id" gorm:"column:validation_id;type:uuid;index;not null"`
	EmployeeID     uuid.UUID  `json:"employee_id" gorm:"column:employee_id;type:uuid;index;not null"`
	PayslipID      *uuid.UUID `json:"payslip_id,omitempty" gorm:"column:payslip_id;type:uuid"`

	Category Category            `json:"category" gorm:"column:category;not null"`
	Severity validation.Severity `json:"severity" gorm:"column:severity;not null"`

	Description         string  `json:"description" gorm:"column:description;not null"`
	DetailedExplanation *string `json:"detailed_explanation,omitempty" gorm:"column:detailed_explanation"`
	Recommendation      *string `json:"recommendation,omitempty" gorm:"column:recommendation"`

	ExpectedValue *decimal.Decimal `json:"expected_value,omitempty" gorm:"column:expected_value;type:numeric(12,4)"`
	ActualValue   *decimal.Decimal `json:"actual_value,omitempty" gorm:"column:actual_value;type:numeric(12,4)"`

	// ImpactAmount is the estimated dollar shortfall for the pay period.
	ImpactAmount *decimal.Decimal `json:"impact_amount,omitempty" gorm:"column:impact_amount;type:numeric(12,2)"`

	AffectedUnits int     `json:"affected_units" gorm:"column:affected_units"`
	UnitType      string  `json:"unit_type" gorm:"column:unit_type"`
	ContextLabel  *string `json:"context_label,omitempty" gorm:"column:context_label"`

	IsResolved      bool       `json:"is_resolved" gorm:"column:is_resolved;default:false"`
	ResolvedBy      *uuid.UUID `json:"resolved_by,omitempty" gorm:"column:resolved_by;type:uuid"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	ResolutionNotes *string    `json:"resolution_notes,omitempty" gorm:"column:resolution_notes"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Issue) TableName() string {
	return "payroll_issues"
}

// Resolve marks the issue fixed.
func (i *Issue) Resolve(actorID uuid.UUID, notes string, now time.Time) error {
	if i.IsResolved {
		return internal.ErrIssueResolved
	}
	i.IsResolved = true
	i.ResolvedBy = &actorID
	i.ResolvedAt = &now
	if notes != "" {
		i.ResolutionNotes = &notes
	}
	return nil
}
