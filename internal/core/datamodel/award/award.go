package award

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Award is the catalog row for one award instrument. Soft-deleted rows stay in
// place so historical runs keep their references.
type Award struct {
	ID          uuid.UUID `gorm:"primaryKey;type:uuid"`
	AwardType   string    `gorm:"column:award_type;not null"`
	Name        string    `gorm:"column:name;not null"`
	AwardCode   string    `gorm:"column:award_code;uniqueIndex;not null"`
	Description *string   `gorm:"column:description"`

	SaturdayPenaltyRate      decimal.Decimal `gorm:"column:saturday_penalty_rate;type:numeric(6,4);not null"`
	SundayPenaltyRate        decimal.Decimal `gorm:"column:sunday_penalty_rate;type:numeric(6,4);not null"`
	PublicHolidayPenaltyRate decimal.Decimal `gorm:"column:public_holiday_penalty_rate;type:numeric(6,4);not null"`
	CasualLoadingRate        decimal.Decimal `gorm:"column:casual_loading_rate;type:numeric(6,4);not null"`

	MinimumShiftHours       decimal.Decimal `gorm:"column:minimum_shift_hours;type:numeric(4,2);not null"`
	MaxConsecutiveDays      int             `gorm:"column:max_consecutive_days;not null"`
	MealBreakThresholdHours int             `gorm:"column:meal_break_threshold_hours;not null"`
	MealBreakMinutes        int             `gorm:"column:meal_break_minutes;not null"`
	MinimumRestPeriodHours  int             `gorm:"column:minimum_rest_period_hours;not null"`
	ReducedRestPeriodHours  int             `gorm:"column:reduced_rest_period_hours;not null"`
	OrdinaryWeeklyHours     int             `gorm:"column:ordinary_weekly_hours;not null"`

	IsDeleted bool       `gorm:"column:is_deleted;default:false"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Award) TableName() string {
	return "awards"
}

// AwardLevel is one effective-dated pay tier. Several rows share an
// (award_id, level_number) pair with non-overlapping windows; an open window
// has effective_to NULL.
type AwardLevel struct {
	ID          uuid.UUID `gorm:"primaryKey;type:uuid"`
	AwardID     uuid.UUID `gorm:"column:award_id;type:uuid;index;not null"`
	LevelNumber int       `gorm:"column:level_number;not null"`
	LevelName   string    `gorm:"column:level_name;not null"`

	FullTimeHourlyRate decimal.Decimal `gorm:"column:full_time_hourly_rate;type:numeric(10,4);not null"`
	PartTimeHourlyRate decimal.Decimal `gorm:"column:part_time_hourly_rate;type:numeric(10,4);not null"`
	CasualHourlyRate   decimal.Decimal `gorm:"column:casual_hourly_rate;type:numeric(10,4);not null"`

	EffectiveFrom time.Time  `gorm:"column:effective_from;type:date;not null"`
	EffectiveTo   *time.Time `gorm:"column:effective_to;type:date"`
	IsActive      bool       `gorm:"column:is_active;default:true"`

	IsDeleted bool       `gorm:"column:is_deleted;default:false"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (AwardLevel) TableName() string {
	return "award_levels"
}
