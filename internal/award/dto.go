package award

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AwardDTO is the API shape of one award with its currently effective levels.
type AwardDTO struct {
	ID          uuid.UUID `json:"id"`
	AwardType   string    `json:"award_type"`
	Name        string    `json:"name"`
	AwardCode   string    `json:"award_code"`
	Description *string   `json:"description,omitempty"`

	SaturdayPenaltyRate      decimal.Decimal `json:"saturday_penalty_rate"`
	SundayPenaltyRate        decimal.Decimal `json:"sunday_penalty_rate"`
	PublicHolidayPenaltyRate decimal.Decimal `json:"public_holiday_penalty_rate"`
	CasualLoadingRate        decimal.Decimal `json:"casual_loading_rate"`

	MinimumShiftHours      decimal.Decimal `json:"minimum_shift_hours"`
	MaxConsecutiveDays     int             `json:"max_consecutive_days"`
	MinimumRestPeriodHours int             `json:"minimum_rest_period_hours"`
	OrdinaryWeeklyHours    int             `json:"ordinary_weekly_hours"`
}

func ToAwardDTO(a *Award) *AwardDTO {
	return &AwardDTO{
		ID:                       a.ID,
		AwardType:                a.AwardType.String(),
		Name:                     a.Name,
		AwardCode:                a.AwardCode,
		Description:              a.Description,
		SaturdayPenaltyRate:      a.SaturdayPenaltyRate,
		SundayPenaltyRate:        a.SundayPenaltyRate,
		PublicHolidayPenaltyRate: a.PublicHolidayPenaltyRate,
		CasualLoadingRate:        a.CasualLoadingRate,
		MinimumShiftHours:        a.MinimumShiftHours,
		MaxConsecutiveDays:       a.MaxConsecutiveDays,
		MinimumRestPeriodHours:   a.MinimumRestPeriodHours,
		OrdinaryWeeklyHours:      a.OrdinaryWeeklyHours,
	}
}

type LevelDTO struct {
	ID          uuid.UUID `json:"id"`
	LevelNumber int       `json:"level_number"`
	LevelName   string    `json:"level_name"`

	FullTimeHourlyRate decimal.Decimal `json:"full_time_hourly_rate"`
	PartTimeHourlyRate decimal.Decimal `json:"part_time_hourly_rate"`
	CasualHourlyRate   decimal.Decimal `json:"casual_hourly_rate"`

	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	IsActive      bool       `json:"is_active"`
}

func ToLevelDTO(l *Level) *LevelDTO {
	return &LevelDTO{
		ID:                 l.ID,
		LevelNumber:        l.LevelNumber,
		LevelName:          l.LevelName,
		FullTimeHourlyRate: l.FullTimeHourlyRate,
		PartTimeHourlyRate: l.PartTimeHourlyRate,
		CasualHourlyRate:   l.CasualHourlyRate,
		EffectiveFrom:      l.EffectiveFrom,
		EffectiveTo:        l.EffectiveTo,
		IsActive:           l.IsActive,
	}
}

// ResolveRateQueryDTO is the request for the rate resolution endpoint.
type ResolveRateQueryDTO struct {
	LevelNumber    int    `json:"level_number"`
	EmploymentType string `json:"employment_type"`
	AsOf           string `json:"as_of"`
}

func (dto ResolveRateQueryDTO) Validate() error {
	if dto.LevelNumber < 1 {
		return errors.New("level_number must be positive")
	}
	if _, err := ParseEmploymentType(dto.EmploymentType); err != nil {
		return err
	}
	if dto.AsOf != "" {
		if _, err := time.Parse("2006-01-02", dto.AsOf); err != nil {
			return errors.New("as_of must be a date in YYYY-MM-DD format")
		}
	}
	return nil
}

type ResolvedRateDTO struct {
	AwardID        uuid.UUID       `json:"award_id"`
	LevelNumber    int             `json:"level_number"`
	EmploymentType string          `json:"employment_type"`
	AsOf           string          `json:"as_of"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
}
