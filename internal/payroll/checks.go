package payroll

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal/award"
	"github.com/awardly/compliance-engine/internal/validation"
)

// Comparison tolerances, in dollars. Rates tolerate one cent of rounding;
// whole-period pay amounts tolerate five cents.
var (
	RateTolerance = decimal.NewFromFloat(0.01)
	PayTolerance  = decimal.NewFromFloat(0.05)
)

// SuperannuationRate is the statutory superannuation guarantee.
var SuperannuationRate = decimal.NewFromFloat(0.12)

// RateSnapshot holds the catalog rates resolved for one payslip as of its pay
// period start. A payslip without a snapshot failed pre-validation and the
// rate checks skip it.
type RateSnapshot struct {
	Rules          *award.RuleSet
	EmploymentType award.EmploymentType

	// PermanentRate is the level's permanent hourly rate, the base for
	// penalty calculations even for casuals.
	PermanentRate decimal.Decimal
	// CasualRate is the level's loaded casual hourly rate.
	CasualRate decimal.Decimal
}

// CheckContext is the immutable input to every payroll check: the batch's
// payslips and the per-payslip resolved rates. Checks read it and emit
// issues; they never touch storage.
type CheckContext struct {
	ValidationID   uuid.UUID
	OrganizationID uuid.UUID
	Payslips       []*Payslip
	Rates          map[uuid.UUID]*RateSnapshot
}

func (cc *CheckContext) rates(payslipID uuid.UUID) (*RateSnapshot, bool) {
	rs, ok := cc.Rates[payslipID]
	return rs, ok
}

// CheckFunc evaluates one category over the whole batch.
type CheckFunc func(cc *CheckContext) []*Issue

// PreValidation has no check function: its issues are recorded by the
// pipeline while resolving rates, before the library runs.
var checkFuncs = map[Category]CheckFunc{
	CategoryBaseRate:       EvaluateBaseRate,
	CategoryPenaltyRate:    EvaluatePenaltyRate,
	CategoryCasualLoading:  EvaluateCasualLoading,
	CategorySuperannuation: EvaluateSuperannuation,
	CategorySTPCompliance:  EvaluateSTPCompliance,
}

// RunChecks executes every enabled check in the canonical order and collects
// the issues. One payslip tripping several checks yields one issue per
// firing; nothing is deduplicated across categories.
func RunChecks(cc *CheckContext, enabled validation.CheckSet) []*Issue {
	var issues []*Issue
	for _, cat := range AllCategories() {
		fn, ok := checkFuncs[cat]
		if !ok || !enabled.Contains(cat.String()) {
			continue
		}
		issues = append(issues, fn(cc)...)
	}
	return issues
}

func (cc *CheckContext) newIssue(p *Payslip, cat Category, sev validation.Severity, description string) *Issue {
	return &Issue{
		ID:             uuid.New(),
		OrganizationID: cc.OrganizationID,
		ValidationID:   cc.ValidationID,
		EmployeeID:     p.EmployeeID,
		PayslipID:      &p.ID,
		Category:       cat,
		Severity:       sev,
		Description:    description,
		AffectedUnits:  1,
		UnitType:       "payslip",
	}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func decPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func strPtr(s string) *string {
	return &s
}

// EvaluateBaseRate compares the effective ordinary rate (ordinary pay over
// ordinary hours) to the award's permanent minimum. Underpaying the actual
// rate is Critical with an impact estimate; a configured hourly rate below
// minimum while the paid amounts are fine is a Warning. Casuals are covered
// by the loading check instead.
func EvaluateBaseRate(cc *CheckContext) []*Issue {
	var issues []*Issue
	for _, p := range cc.Payslips {
		rs, ok := cc.rates(p.ID)
		if !ok || rs.EmploymentType.IsCasual() {
			continue
		}
		if !p.OrdinaryHours.IsPositive() {
			continue
		}

		minimum := rs.PermanentRate
		actual := p.ActualOrdinaryRate()

		if actual.LessThan(minimum.Sub(RateTolerance)) {
			impact := minimum.Sub(actual).Mul(p.OrdinaryHours)
			issue := cc.newIssue(p, CategoryBaseRate, validation.SeverityCritical,
				fmt.Sprintf("%s paid %s/hr, award minimum is %s/hr", p.EmployeeName, round2(actual), round2(minimum)))
			issue.ExpectedValue = decPtr(round2(minimum))
			issue.ActualValue = decPtr(round2(actual))
			issue.ImpactAmount = decPtr(round2(impact))
			issue.Recommendation = strPtr(fmt.Sprintf("Back-pay %s for this period and correct the ordinary rate", round2(impact)))
			issues = append(issues, issue)
			continue
		}

		if p.HourlyRate.IsPositive() && p.HourlyRate.LessThan(minimum.Sub(RateTolerance)) {
			issue := cc.newIssue(p, CategoryBaseRate, validation.SeverityWarning,
				fmt.Sprintf("Configured rate %s/hr is below the award minimum %s/hr, though paid amounts comply", round2(p.HourlyRate), round2(minimum)))
			issue.ExpectedValue = decPtr(round2(minimum))
			issue.ActualValue = decPtr(round2(p.HourlyRate))
			issue.ImpactAmount = decPtr(decimal.Zero)
			issues = append(issues, issue)
		}
	}
	return issues
}

// penaltyComponent is one penalty-bearing pay component of a payslip.
type penaltyComponent struct {
	day   award.DayType
	label string
	hours decimal.Decimal
	pay   decimal.Decimal
}

func penaltyComponents(p *Payslip) []penaltyComponent {
	return []penaltyComponent{
		{day: award.DaySaturday, label: "Saturday", hours: p.SaturdayHours, pay: p.SaturdayPay},
		{day: award.DaySunday, label: "Sunday", hours: p.SundayHours, pay: p.SundayPay},
		{day: award.DayPublicHoliday, label: "Public holiday", hours: p.PublicHolidayHours, pay: p.PublicHolidayPay},
	}
}

// EvaluatePenaltyRate checks each penalty-bearing component against the
// permanent base rate times the award multiplier. Casual multipliers stack the
// casual loading but the base stays the permanent rate.
func EvaluatePenaltyRate(cc *CheckContext) []*Issue {
	var issues []*Issue
	for _, p := range cc.Payslips {
		rs, ok := cc.rates(p.ID)
		if !ok {
			continue
		}

		for _, comp := range penaltyComponents(p) {
			if !comp.hours.IsPositive() {
				continue
			}
			multiplier := rs.Rules.PenaltyMultiplier(comp.day, rs.EmploymentType)
			expected := rs.PermanentRate.Mul(multiplier).Mul(comp.hours)
			if comp.pay.GreaterThanOrEqual(expected.Sub(PayTolerance)) {
				continue
			}

			impact := expected.Sub(comp.pay)
			issue := cc.newIssue(p, CategoryPenaltyRate, validation.SeverityError,
				fmt.Sprintf("%s pay %s is below the required %s (%s hours at %sx of %s/hr)",
					comp.label, round2(comp.pay), round2(expected), round2(comp.hours), multiplier, round2(rs.PermanentRate)))
			issue.ExpectedValue = decPtr(round2(expected))
			issue.ActualValue = decPtr(round2(comp.pay))
			issue.ImpactAmount = decPtr(round2(impact))
			issue.ContextLabel = strPtr(comp.label)
			issues = append(issues, issue)
		}
	}
	return issues
}

// EvaluateCasualLoading verifies casual employees receive the loaded casual
// rate for ordinary hours. Underpaying the actual rate is Critical; a
// configured rate below the loaded rate while paid amounts comply is a
// Warning with zero impact.
func EvaluateCasualLoading(cc *CheckContext) []*Issue {
	var issues []*Issue
	for _, p := range cc.Payslips {
		rs, ok := cc.rates(p.ID)
		if !ok || !rs.EmploymentType.IsCasual() {
			continue
		}
		if !p.OrdinaryHours.IsPositive() {
			continue
		}

		loaded := rs.CasualRate
		actual := p.ActualOrdinaryRate()

		if actual.LessThan(loaded.Sub(RateTolerance)) {
			impact := loaded.Sub(actual).Mul(p.OrdinaryHours)
			issue := cc.newIssue(p, CategoryCasualLoading, validation.SeverityCritical,
				fmt.Sprintf("Casual %s paid %s/hr, loaded casual rate is %s/hr", p.EmployeeName, round2(actual), round2(loaded)))
			issue.ExpectedValue = decPtr(round2(loaded))
			issue.ActualValue = decPtr(round2(actual))
			issue.ImpactAmount = decPtr(round2(impact))
			issue.Recommendation = strPtr("Apply the casual loading to the ordinary hourly rate")
			issues = append(issues, issue)
			continue
		}

		if p.HourlyRate.IsPositive() && p.HourlyRate.LessThan(loaded.Sub(RateTolerance)) {
			issue := cc.newIssue(p, CategoryCasualLoading, validation.SeverityWarning,
				fmt.Sprintf("Configured casual rate %s/hr is below the loaded rate %s/hr, though paid amounts comply", round2(p.HourlyRate), round2(loaded)))
			issue.ExpectedValue = decPtr(round2(loaded))
			issue.ActualValue = decPtr(round2(p.HourlyRate))
			issue.ImpactAmount = decPtr(decimal.Zero)
			issues = append(issues, issue)
		}
	}
	return issues
}

// EvaluateSuperannuation compares the superannuation contribution to the
// guarantee percentage of gross pay. A payslip with worked hours but no gross
// pay is a data problem, flagged Warning.
func EvaluateSuperannuation(cc *CheckContext) []*Issue {
	var issues []*Issue
	for _, p := range cc.Payslips {
		if _, ok := cc.rates(p.ID); !ok {
			continue
		}

		if !p.GrossPay.IsPositive() {
			if p.TotalHours().IsPositive() {
				issue := cc.newIssue(p, CategorySuperannuation, validation.SeverityWarning,
					fmt.Sprintf("%s worked %s hours but the payslip has no gross pay - superannuation cannot be verified", p.EmployeeName, round2(p.TotalHours())))
				issues = append(issues, issue)
			}
			continue
		}

		expected := p.GrossPay.Mul(SuperannuationRate)
		if p.Superannuation.GreaterThanOrEqual(expected.Sub(PayTolerance)) {
			continue
		}

		impact := expected.Sub(p.Superannuation)
		issue := cc.newIssue(p, CategorySuperannuation, validation.SeverityError,
			fmt.Sprintf("Superannuation %s is below %s%% of gross pay (%s expected)",
				round2(p.Superannuation), SuperannuationRate.Mul(decimal.NewFromInt(100)), round2(expected)))
		issue.ExpectedValue = decPtr(round2(expected))
		issue.ActualValue = decPtr(round2(p.Superannuation))
		issue.ImpactAmount = decPtr(round2(impact))
		issues = append(issues, issue)
	}
	return issues
}

// EvaluateSTPCompliance runs the structural single-touch-payroll reporting
// checks: pay date inside the pay period, no negative pay components, and an
// employee number present. All violations are Warnings; they do not need
// resolved award rates, so pre-validation failures still get them.
func EvaluateSTPCompliance(cc *CheckContext) []*Issue {
	var issues []*Issue
	for _, p := range cc.Payslips {
		if p.PayDate.Before(p.PayPeriodStart) || p.PayDate.After(p.PayPeriodEnd) {
			issues = append(issues, cc.newIssue(p, CategorySTPCompliance, validation.SeverityWarning,
				fmt.Sprintf("Pay date %s falls outside the pay period %s to %s",
					p.PayDate.Format("2006-01-02"), p.PayPeriodStart.Format("2006-01-02"), p.PayPeriodEnd.Format("2006-01-02"))))
		}

		if hasNegativeComponent(p) {
			issues = append(issues, cc.newIssue(p, CategorySTPCompliance, validation.SeverityWarning,
				"Payslip contains negative hours or pay components"))
		}

		if p.EmployeeNumber == "" {
			issues = append(issues, cc.newIssue(p, CategorySTPCompliance, validation.SeverityWarning,
				fmt.Sprintf("%s has no employee number for reporting", p.EmployeeName)))
		}
	}
	return issues
}

func hasNegativeComponent(p *Payslip) bool {
	for _, d := range []decimal.Decimal{
		p.OrdinaryHours, p.OrdinaryPay,
		p.SaturdayHours, p.SaturdayPay,
		p.SundayHours, p.SundayPay,
		p.PublicHolidayHours, p.PublicHolidayPay,
		p.GrossPay, p.Superannuation,
	} {
		if d.IsNegative() {
			return true
		}
	}
	return false
}
