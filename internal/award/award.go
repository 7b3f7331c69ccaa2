package award

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal"
)

// Type identifies a modern award instrument. Persisted as a string; validated
// at construction, the database constraint is only a backstop.
type Type string

const (
	TypeRetail      Type = "Retail"
	TypeHospitality Type = "Hospitality"
	TypeClerks      Type = "Clerks"
)

func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown award type %q", s)
	}
	return t, nil
}

func (t Type) Valid() bool {
	switch t {
	case TypeRetail, TypeHospitality, TypeClerks:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// EmploymentType follows the Fair Work employment categories.
type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "FullTime"
	EmploymentPartTime  EmploymentType = "PartTime"
	EmploymentCasual    EmploymentType = "Casual"
	EmploymentFixedTerm EmploymentType = "FixedTerm"
)

func ParseEmploymentType(s string) (EmploymentType, error) {
	et := EmploymentType(s)
	if !et.Valid() {
		return "", fmt.Errorf("unknown employment type %q", s)
	}
	return et, nil
}

func (et EmploymentType) Valid() bool {
	switch et {
	case EmploymentFullTime, EmploymentPartTime, EmploymentCasual, EmploymentFixedTerm:
		return true
	}
	return false
}

func (et EmploymentType) IsCasual() bool {
	return et == EmploymentCasual
}

func (et EmploymentType) String() string {
	return string(et)
}

// DayType distinguishes the pay components that carry penalty rates.
type DayType string

const (
	DaySaturday      DayType = "Saturday"
	DaySunday        DayType = "Sunday"
	DayPublicHoliday DayType = "PublicHoliday"
)

// Award holds the scalar rule parameters for one award instrument. Immutable
// once referenced by a run: issues snapshot expected/actual values instead of
// joining back to the award at read time.
type Award struct {
	ID          uuid.UUID `json:"id"`
	AwardType   Type      `json:"award_type"`
	Name        string    `json:"name"`
	AwardCode   string    `json:"award_code"`
	Description *string   `json:"description,omitempty"`

	SaturdayPenaltyRate      decimal.Decimal `json:"saturday_penalty_rate"`
	SundayPenaltyRate        decimal.Decimal `json:"sunday_penalty_rate"`
	PublicHolidayPenaltyRate decimal.Decimal `json:"public_holiday_penalty_rate"`
	CasualLoadingRate        decimal.Decimal `json:"casual_loading_rate"`

	MinimumShiftHours       decimal.Decimal `json:"minimum_shift_hours"`
	MaxConsecutiveDays      int             `json:"max_consecutive_days"`
	MealBreakThresholdHours int             `json:"meal_break_threshold_hours"`
	MealBreakMinutes        int             `json:"meal_break_minutes"`
	MinimumRestPeriodHours  int             `json:"minimum_rest_period_hours"`
	ReducedRestPeriodHours  int             `json:"reduced_rest_period_hours"`
	OrdinaryWeeklyHours     int             `json:"ordinary_weekly_hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Level is a pay-rate tier under an award, versioned by effective date. Rates
// change annually (usually July 1), so multiple rows exist per
// (award, level_number) with different windows.
type Level struct {
	ID          uuid.UUID `json:"id"`
	AwardID     uuid.UUID `json:"award_id"`
	LevelNumber int       `json:"level_number"`
	LevelName   string    `json:"level_name"`

	FullTimeHourlyRate decimal.Decimal `json:"full_time_hourly_rate"`
	PartTimeHourlyRate decimal.Decimal `json:"part_time_hourly_rate"`
	CasualHourlyRate   decimal.Decimal `json:"casual_hourly_rate"`

	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	IsActive      bool       `json:"is_active"`
}

// Covers reports whether the level's validity window contains the date.
func (l *Level) Covers(asOf time.Time) bool {
	day := asOf.Truncate(24 * time.Hour)
	if day.Before(l.EffectiveFrom.Truncate(24 * time.Hour)) {
		return false
	}
	if l.EffectiveTo == nil {
		return true
	}
	return !day.After(l.EffectiveTo.Truncate(24 * time.Hour))
}

// Rate returns the hourly rate for an employment type. Fixed-term employees
// are paid on permanent rates.
func (l *Level) Rate(et EmploymentType) decimal.Decimal {
	switch et {
	case EmploymentPartTime:
		return l.PartTimeHourlyRate
	case EmploymentCasual:
		return l.CasualHourlyRate
	default:
		return l.FullTimeHourlyRate
	}
}

func (l *Level) Validate() error {
	if l.EffectiveTo != nil && l.EffectiveTo.Before(l.EffectiveFrom) {
		return internal.NewValidationError("effective_to must be on or after effective_from", internal.ErrCodeValidationFailed)
	}
	if l.LevelNumber < 1 {
		return internal.NewValidationError("level_number must be positive", internal.ErrCodeValidationFailed)
	}
	return nil
}

// RuleSet is the snapshot of award parameters handed to the check library.
// Checks read it, never the live catalog.
type RuleSet struct {
	AwardID   uuid.UUID
	AwardType Type
	AwardCode string
	Name      string

	SaturdayPenaltyRate      decimal.Decimal
	SundayPenaltyRate        decimal.Decimal
	PublicHolidayPenaltyRate decimal.Decimal
	CasualLoadingRate        decimal.Decimal

	MinimumShiftHours       decimal.Decimal
	MaxConsecutiveDays      int
	MealBreakThresholdHours int
	MealBreakMinutes        int
	MinimumRestPeriodHours  int
	ReducedRestPeriodHours  int
	OrdinaryWeeklyHours     int
}

// NewRuleSet snapshots an award row.
func NewRuleSet(a *Award) *RuleSet {
	return &RuleSet{
		AwardID:                  a.ID,
		AwardType:                a.AwardType,
		AwardCode:                a.AwardCode,
		Name:                     a.Name,
		SaturdayPenaltyRate:      a.SaturdayPenaltyRate,
		SundayPenaltyRate:        a.SundayPenaltyRate,
		PublicHolidayPenaltyRate: a.PublicHolidayPenaltyRate,
		CasualLoadingRate:        a.CasualLoadingRate,
		MinimumShiftHours:        a.MinimumShiftHours,
		MaxConsecutiveDays:       a.MaxConsecutiveDays,
		MealBreakThresholdHours:  a.MealBreakThresholdHours,
		MealBreakMinutes:         a.MealBreakMinutes,
		MinimumRestPeriodHours:   a.MinimumRestPeriodHours,
		ReducedRestPeriodHours:   a.ReducedRestPeriodHours,
		OrdinaryWeeklyHours:      a.OrdinaryWeeklyHours,
	}
}

// PenaltyMultiplier returns the multiplier applied to the permanent base rate
// for a penalty day. Casuals stack the casual loading on top of the permanent
// multiplier (e.g. Saturday 1.25 + 0.25 loading = 1.50).
func (rs *RuleSet) PenaltyMultiplier(day DayType, et EmploymentType) decimal.Decimal {
	var base decimal.Decimal
	switch day {
	case DaySaturday:
		base = rs.SaturdayPenaltyRate
	case DaySunday:
		base = rs.SundayPenaltyRate
	case DayPublicHoliday:
		base = rs.PublicHolidayPenaltyRate
	}
	if et.IsCasual() {
		return base.Add(rs.CasualLoadingRate)
	}
	return base
}

// MinShiftHours returns the minimum engagement for an employment type.
// Full-time and fixed-term employees have no minimum under the MVP awards;
// part-time and casual engagements must meet the award minimum.
func (rs *RuleSet) MinShiftHours(et EmploymentType) decimal.Decimal {
	switch et {
	case EmploymentFullTime, EmploymentFixedTerm:
		return decimal.Zero
	default:
		return rs.MinimumShiftHours
	}
}

// RequiredMealBreakMinutes returns the break a shift of the given length must
// include: none up to the threshold, the award's standard break up to nine
// hours, a full hour beyond that.
func (rs *RuleSet) RequiredMealBreakMinutes(shiftHours decimal.Decimal) int {
	threshold := decimal.NewFromInt(int64(rs.MealBreakThresholdHours))
	if shiftHours.LessThanOrEqual(threshold) {
		return 0
	}
	if shiftHours.GreaterThan(decimal.NewFromInt(9)) {
		return 60
	}
	return rs.MealBreakMinutes
}
