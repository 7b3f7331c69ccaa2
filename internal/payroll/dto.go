package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// PayslipDTO is one normalized payslip row as uploaded.
type PayslipDTO struct {
	EmployeeID     uuid.UUID `json:"employee_id"`
	PayPeriodStart string    `json:"pay_period_start"`
	PayPeriodEnd   string    `json:"pay_period_end"`
	PayDate        string    `json:"pay_date"`

	EmployeeName   string `json:"employee_name"`
	EmployeeNumber string `json:"employee_number"`

	EmploymentType string `json:"employment_type"`
	AwardType      string `json:"award_type"`
	Classification string `json:"classification"`

	HourlyRate decimal.Decimal `json:"hourly_rate"`

	OrdinaryHours decimal.Decimal `json:"ordinary_hours"`
	OrdinaryPay   decimal.Decimal `json:"ordinary_pay"`

	SaturdayHours decimal.Decimal `json:"saturday_hours"`
	SaturdayPay   decimal.Decimal `json:"saturday_pay"`

	SundayHours decimal.Decimal `json:"sunday_hours"`
	SundayPay   decimal.Decimal `json:"sunday_pay"`

	PublicHolidayHours decimal.Decimal `json:"public_holiday_hours"`
	PublicHolidayPay   decimal.Decimal `json:"public_holiday_pay"`

	GrossPay       decimal.Decimal `json:"gross_pay"`
	Superannuation decimal.Decimal `json:"superannuation"`
}

func (dto PayslipDTO) Validate() error {
	if dto.EmployeeID == uuid.Nil {
		return errors.New("employee_id is required")
	}
	if dto.EmployeeName == "" {
		return errors.New("employee_name is required")
	}
	start, err := time.Parse(dateLayout, dto.PayPeriodStart)
	if err != nil {
		return errors.New("pay_period_start must be a date in YYYY-MM-DD format")
	}
	end, err := time.Parse(dateLayout, dto.PayPeriodEnd)
	if err != nil {
		return errors.New("pay_period_end must be a date in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return errors.New("pay_period_end must be on or after pay_period_start")
	}
	if _, err := time.Parse(dateLayout, dto.PayDate); err != nil {
		return errors.New("pay_date must be a date in YYYY-MM-DD format")
	}
	return nil
}

// ToPayslip converts a validated DTO; call Validate first.
func (dto PayslipDTO) ToPayslip() *Payslip {
	start, _ := time.Parse(dateLayout, dto.PayPeriodStart)
	end, _ := time.Parse(dateLayout, dto.PayPeriodEnd)
	payDate, _ := time.Parse(dateLayout, dto.PayDate)
	return &Payslip{
		ID:                 uuid.New(),
		EmployeeID:         dto.EmployeeID,
		PayPeriodStart:     start,
		PayPeriodEnd:       end,
		PayDate:            payDate,
		EmployeeName:       dto.EmployeeName,
		EmployeeNumber:     dto.EmployeeNumber,
		EmploymentType:     dto.EmploymentType,
		AwardType:          dto.AwardType,
		Classification:     dto.Classification,
		HourlyRate:         dto.HourlyRate,
		OrdinaryHours:      dto.OrdinaryHours,
		OrdinaryPay:        dto.OrdinaryPay,
		SaturdayHours:      dto.SaturdayHours,
		SaturdayPay:        dto.SaturdayPay,
		SundayHours:        dto.SundayHours,
		SundayPay:          dto.SundayPay,
		PublicHolidayHours: dto.PublicHolidayHours,
		PublicHolidayPay:   dto.PublicHolidayPay,
		GrossPay:           dto.GrossPay,
		Superannuation:     dto.Superannuation,
	}
}

// UploadPayslipsDTO delivers a batch's normalized payslips.
type UploadPayslipsDTO struct {
	BatchID  uuid.UUID    `json:"batch_id"`
	Payslips []PayslipDTO `json:"payslips"`
}

func (dto UploadPayslipsDTO) Validate() error {
	if dto.BatchID == uuid.Nil {
		return errors.New("batch_id is required")
	}
	if len(dto.Payslips) == 0 {
		return errors.New("at least one payslip is required")
	}
	for i, p := range dto.Payslips {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("payslip at index %d: %w", i, err)
		}
	}
	return nil
}

// StartValidationDTO requests a validation run for a payroll batch.
type StartValidationDTO struct {
	BatchID        uuid.UUID `json:"batch_id"`
	PayPeriodStart string    `json:"pay_period_start"`
	PayPeriodEnd   string    `json:"pay_period_end"`
}

func (dto StartValidationDTO) Validate() error {
	if dto.BatchID == uuid.Nil {
		return errors.New("batch_id is required")
	}
	start, err := time.Parse(dateLayout, dto.PayPeriodStart)
	if err != nil {
		return errors.New("pay_period_start must be a date in YYYY-MM-DD format")
	}
	end, err := time.Parse(dateLayout, dto.PayPeriodEnd)
	if err != nil {
		return errors.New("pay_period_end must be a date in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return errors.New("pay_period_end must be on or after pay_period_start")
	}
	return nil
}

func (dto StartValidationDTO) Period() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, dto.PayPeriodStart)
	end, _ := time.Parse(dateLayout, dto.PayPeriodEnd)
	return start, end
}

// ResolveIssueDTO carries the actor's notes for resolving an issue.
type ResolveIssueDTO struct {
	Notes string `json:"notes,omitempty"`
}
