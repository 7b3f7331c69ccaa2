package roster

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/validation"
)

// CheckType is the closed set of roster compliance checks.
type CheckType string

const (
	CheckDataQuality         CheckType = "DataQuality"
	CheckMinimumShiftHours   CheckType = "MinimumShiftHours"
	CheckMealBreak           CheckType = "MealBreak"
	CheckRestPeriod          CheckType = "RestPeriodBetweenShifts"
	CheckWeeklyHoursLimit    CheckType = "WeeklyHoursLimit"
	CheckMaxConsecutiveDays  CheckType = "MaximumConsecutiveDays"
)

// AllCheckTypes returns every roster check in execution order. DataQuality
// runs first so that structurally broken shifts are flagged before the
// substantive rules read them.
func AllCheckTypes() []CheckType {
	return []CheckType{
		CheckDataQuality,
		CheckMinimumShiftHours,
		CheckMealBreak,
		CheckRestPeriod,
		CheckWeeklyHoursLimit,
		CheckMaxConsecutiveDays,
	}
}

func ParseCheckType(s string) (CheckType, error) {
	ct := CheckType(s)
	if !ct.Valid() {
		return "", fmt.Errorf("unknown roster check type %q", s)
	}
	return ct, nil
}

func (ct CheckType) Valid() bool {
	switch ct {
	case CheckDataQuality, CheckMinimumShiftHours, CheckMealBreak,
		CheckRestPeriod, CheckWeeklyHoursLimit, CheckMaxConsecutiveDays:
		return true
	}
	return false
}

func (ct CheckType) String() string {
	return string(ct)
}

// Shift is one rostered work period. Times are local roster times; an
// overnight shift is represented by an end clock earlier than the start clock
// and ends on the following calendar day.
type Shift struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"column:organization_id;type:uuid;index;not null"`
	RosterID       uuid.UUID `json:"roster_id" gorm:"column:roster_id;type:uuid;index;not null"`
	EmployeeID     uuid.UUID `json:"employee_id" gorm:"column:employee_id;type:uuid;index;not null"`

	ShiftDate time.Time `json:"shift_date" gorm:"column:shift_date;type:date;not null"`
	StartTime time.Time `json:"start_time" gorm:"column:start_time;not null"`
	EndTime   time.Time `json:"end_time" gorm:"column:end_time;not null"`

	HasMealBreak     bool `json:"has_meal_break" gorm:"column:has_meal_break"`
	MealBreakMinutes int  `json:"meal_break_minutes" gorm:"column:meal_break_minutes"`
	HasRestBreaks    bool `json:"has_rest_breaks" gorm:"column:has_rest_breaks"`
	RestBreakMinutes int  `json:"rest_break_minutes" gorm:"column:rest_break_minutes"`

	IsPublicHoliday   bool    `json:"is_public_holiday" gorm:"column:is_public_holiday"`
	PublicHolidayName *string `json:"public_holiday_name,omitempty" gorm:"column:public_holiday_name"`
	Location          *string `json:"location,omitempty" gorm:"column:location"`

	IsDeleted bool       `json:"-" gorm:"column:is_deleted;default:false"`
	DeletedAt *time.Time `json:"-" gorm:"column:deleted_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Shift) TableName() string {
	return "shifts"
}

// StartDateTime combines the shift date with the start clock.
func (s *Shift) StartDateTime() time.Time {
	return time.Date(s.ShiftDate.Year(), s.ShiftDate.Month(), s.ShiftDate.Day(),
		s.StartTime.Hour(), s.StartTime.Minute(), 0, 0, time.UTC)
}

// EndDateTime combines the shift date with the end clock, rolling to the next
// day for overnight shifts.
func (s *Shift) EndDateTime() time.Time {
	end := time.Date(s.ShiftDate.Year(), s.ShiftDate.Month(), s.ShiftDate.Day(),
		s.EndTime.Hour(), s.EndTime.Minute(), 0, 0, time.UTC)
	if !end.After(s.StartDateTime()) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// Duration is the gross shift length in hours.
func (s *Shift) Duration() decimal.Decimal {
	minutes := s.EndDateTime().Sub(s.StartDateTime()).Minutes()
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60))
}

// TotalBreakMinutes is meal break plus rest breaks.
func (s *Shift) TotalBreakMinutes() int {
	total := 0
	if s.HasMealBreak {
		total += s.MealBreakMinutes
	}
	if s.HasRestBreaks {
		total += s.RestBreakMinutes
	}
	return total
}

// NetHours is working time excluding breaks, floored at zero.
func (s *Shift) NetHours() decimal.Decimal {
	net := s.Duration().Sub(decimal.NewFromInt(int64(s.TotalBreakMinutes())).Div(decimal.NewFromInt(60)))
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// Validation is one roster validation run. The lifecycle fields live in the
// embedded run state; this record scopes them to a roster week.
type Validation struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"column:organization_id;type:uuid;index;not null"`
	RosterID       uuid.UUID `json:"roster_id" gorm:"column:roster_id;type:uuid;not null"`

	WeekStartDate time.Time `json:"week_start_date" gorm:"column:week_start_date;type:date;not null"`
	WeekEndDate   time.Time `json:"week_end_date" gorm:"column:week_end_date;type:date;not null"`

	validation.RunState `gorm:"embedded"`

	IsDeleted bool       `json:"-" gorm:"column:is_deleted;default:false"`
	DeletedAt *time.Time `json:"-" gorm:"column:deleted_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Validation) TableName() string {
	return "roster_validations"
}

// NewValidation creates a Pending run for a roster week.
func NewValidation(orgID, rosterID uuid.UUID, weekStart, weekEnd time.Time, checks validation.CheckSet) (*Validation, error) {
	if weekEnd.Before(weekStart) {
		return nil, internal.NewValidationError("week_end_date must be on or after week_start_date", internal.ErrCodeInvalidPeriod)
	}
	return &Validation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		RosterID:       rosterID,
		WeekStartDate:  weekStart,
		WeekEndDate:    weekEnd,
		RunState:       validation.NewRunState(checks),
	}, nil
}

// Issue is one detected roster violation. Immutable after creation except for
// the resolution and waiver fields; re-running a roster writes a fresh issue
// set under a new run instead of touching these rows.
type Issue struct {
	ID             uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"column:organization_id;type:uuid;index;not null"`
	ValidationID   uuid.UUID  `json:"validation_id" gorm:"column:validation_id;type:uuid;index;not null"`
	EmployeeID     uuid.UUID  `json:"employee_id" gorm:"column:employee_id;type:uuid;index;not null"`
	ShiftID        *uuid.UUID `json:"shift_id,omitempty" gorm:"column:shift_id;type:uuid"`

	CheckType CheckType           `json:"check_type" gorm:"column:check_type;not null"`
	Severity  validation.Severity `json:"severity" gorm:"column:severity;not null"`

	Description         string  `json:"description" gorm:"column:description;not null"`
	DetailedExplanation *string `json:"detailed_explanation,omitempty" gorm:"column:detailed_explanation"`
	Recommendation      *string `json:"recommendation,omitempty" gorm:"column:recommendation"`

	ExpectedValue *decimal.Decimal `json:"expected_value,omitempty" gorm:"column:expected_value;type:numeric(12,4)"`
	ActualValue   *decimal.Decimal `json:"actual_value,omitempty" gorm:"column:actual_value;type:numeric(12,4)"`

	AffectedShiftsCount int `json:"affected_shifts_count" gorm:"column:affected_shifts_count"`

	IsResolved      bool       `json:"is_resolved" gorm:"column:is_resolved;default:false"`
	ResolvedBy      *uuid.UUID `json:"resolved_by,omitempty" gorm:"column:resolved_by;type:uuid"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" gorm:"column:resolved_at"`
	ResolutionNotes *string    `json:"resolution_notes,omitempty" gorm:"column:resolution_notes"`

	IsWaived     bool       `json:"is_waived" gorm:"column:is_waived;default:false"`
	WaivedBy     *uuid.UUID `json:"waived_by,omitempty" gorm:"column:waived_by;type:uuid"`
	WaivedAt     *time.Time `json:"waived_at,omitempty" gorm:"column:waived_at"`
	WaiverReason *string    `json:"waiver_reason,omitempty" gorm:"column:waiver_reason"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Issue) TableName() string {
	return "roster_issues"
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

// Waive accepts the issue as a known exception instead of fixing it. Critical
// issues cannot be waived, and a resolved issue needs no waiver.
func (i *Issue) Waive(actorID uuid.UUID, reason string, now time.Time) error {
	if i.IsWaived {
		return internal.ErrIssueWaived
	}
	if i.IsResolved {
		return internal.ErrIssueResolved
	}
	if i.Severity == validation.SeverityCritical {
		return internal.ErrWaiverNotAllowed
	}
	i.IsWaived = true
	i.WaivedBy = &actorID
	i.WaivedAt = &now
	if reason != "" {
		i.WaiverReason = &reason
	}
	return nil
}
