package roster

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const clockLayout = "15:04"
const dateLayout = "2006-01-02"

// ShiftDTO is one normalized shift row as uploaded. Times are clock strings
// ("09:00"); an end clock at or before the start clock means an overnight
// shift.
type ShiftDTO struct {
	EmployeeID        uuid.UUID `json:"employee_id"`
	ShiftDate         string    `json:"shift_date"`
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time"`
	HasMealBreak      bool      `json:"has_meal_break"`
	MealBreakMinutes  int       `json:"meal_break_minutes"`
	HasRestBreaks     bool      `json:"has_rest_breaks"`
	RestBreakMinutes  int       `json:"rest_break_minutes"`
	IsPublicHoliday   bool      `json:"is_public_holiday"`
	PublicHolidayName *string   `json:"public_holiday_name,omitempty"`
	Location          *string   `json:"location,omitempty"`
}

func (dto ShiftDTO) Validate() error {
	if dto.EmployeeID == uuid.Nil {
		return errors.New("employee_id is required")
	}
	if _, err := time.Parse(dateLayout, dto.ShiftDate); err != nil {
		return errors.New("shift_date must be a date in YYYY-MM-DD format")
	}
	if _, err := time.Parse(clockLayout, dto.StartTime); err != nil {
		return errors.New("start_time must be a clock time in HH:MM format")
	}
	if _, err := time.Parse(clockLayout, dto.EndTime); err != nil {
		return errors.New("end_time must be a clock time in HH:MM format")
	}
	if dto.MealBreakMinutes < 0 || dto.RestBreakMinutes < 0 {
		return errors.New("break minutes cannot be negative")
	}
	return nil
}

// ToShift converts a validated DTO; call Validate first.
func (dto ShiftDTO) ToShift() *Shift {
	shiftDate, _ := time.Parse(dateLayout, dto.ShiftDate)
	start, _ := time.Parse(clockLayout, dto.StartTime)
	end, _ := time.Parse(clockLayout, dto.EndTime)
	return &Shift{
		ID:                uuid.New(),
		EmployeeID:        dto.EmployeeID,
		ShiftDate:         shiftDate,
		StartTime:         start,
		EndTime:           end,
		HasMealBreak:      dto.HasMealBreak,
		MealBreakMinutes:  dto.MealBreakMinutes,
		HasRestBreaks:     dto.HasRestBreaks,
		RestBreakMinutes:  dto.RestBreakMinutes,
		IsPublicHoliday:   dto.IsPublicHoliday,
		PublicHolidayName: dto.PublicHolidayName,
		Location:          dto.Location,
	}
}

// UploadRosterDTO delivers a week's normalized shifts for a roster.
type UploadRosterDTO struct {
	RosterID uuid.UUID  `json:"roster_id"`
	Shifts   []ShiftDTO `json:"shifts"`
}

func (dto UploadRosterDTO) Validate() error {
	if dto.RosterID == uuid.Nil {
		return errors.New("roster_id is required")
	}
	if len(dto.Shifts) == 0 {
		return errors.New("at least one shift is required")
	}
	for i, s := range dto.Shifts {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("shift at index %d: %w", i, err)
		}
	}
	return nil
}

// StartValidationDTO requests a validation run for a roster week.
type StartValidationDTO struct {
	RosterID      uuid.UUID `json:"roster_id"`
	WeekStartDate string    `json:"week_start_date"`
	WeekEndDate   string    `json:"week_end_date"`
}

func (dto StartValidationDTO) Validate() error {
	if dto.RosterID == uuid.Nil {
		return errors.New("roster_id is required")
	}
	start, err := time.Parse(dateLayout, dto.WeekStartDate)
	if err != nil {
		return errors.New("week_start_date must be a date in YYYY-MM-DD format")
	}
	end, err := time.Parse(dateLayout, dto.WeekEndDate)
	if err != nil {
		return errors.New("week_end_date must be a date in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return errors.New("week_end_date must be on or after week_start_date")
	}
	return nil
}

func (dto StartValidationDTO) Period() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, dto.WeekStartDate)
	end, _ := time.Parse(dateLayout, dto.WeekEndDate)
	return start, end
}

// ResolveIssueDTO carries the actor's notes for resolving an issue.
type ResolveIssueDTO struct {
	Notes string `json:"notes,omitempty"`
}

// WaiveIssueDTO carries the reason for accepting an issue as an exception.
type WaiveIssueDTO struct {
	Reason string `json:"reason"`
}

func (dto WaiveIssueDTO) Validate() error {
	if dto.Reason == "" {
		return errors.New("reason is required when waiving an issue")
	}
	return nil
}
