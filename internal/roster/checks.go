package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal/award"
	"github.com/awardly/compliance-engine/internal/validation"
)

// EmployeeSnapshot is the slice of the employee directory a check is allowed
// to see: identity, employment type, contractual guaranteed hours, and the
// employee's resolved award rules. Rules is nil when the catalog could not
// resolve the employee's award; the pipeline has already recorded that as a
// data quality issue and the substantive checks skip the employee.
type EmployeeSnapshot struct {
	ID              uuid.UUID
	Name            string
	EmploymentType  award.EmploymentType
	GuaranteedHours *decimal.Decimal
	Rules           *award.RuleSet
}

// CheckContext is the immutable input to every roster check: the employee
// directory snapshot with per-employee rules, and the full pre-sorted shift
// set for the week. Checks read it and emit issues; they never touch storage.
type CheckContext struct {
	ValidationID   uuid.UUID
	OrganizationID uuid.UUID
	Employees      map[uuid.UUID]*EmployeeSnapshot
	Shifts         []*Shift
}

// employee returns the snapshot only when the employee is known and has
// resolved rules.
func (cc *CheckContext) employee(id uuid.UUID) (*EmployeeSnapshot, bool) {
	emp, ok := cc.Employees[id]
	if !ok || emp.Rules == nil {
		return nil, false
	}
	return emp, true
}

// CheckFunc evaluates one rule over the whole shift set. Window rules (rest
// period, weekly hours, consecutive days) need more than one shift at a time,
// so the unit of evaluation is the context, not a single shift.
type CheckFunc func(cc *CheckContext) []*Issue

var checkFuncs = map[CheckType]CheckFunc{
	CheckDataQuality:        EvaluateDataQuality,
	CheckMinimumShiftHours:  EvaluateMinimumShiftHours,
	CheckMealBreak:          EvaluateMealBreak,
	CheckRestPeriod:         EvaluateRestPeriod,
	CheckWeeklyHoursLimit:   EvaluateWeeklyHours,
	CheckMaxConsecutiveDays: EvaluateConsecutiveDays,
}

// RunChecks executes every enabled check in the canonical order and collects
// the issues. One unit tripping several checks yields one issue per firing;
// nothing is deduplicated across check types.
func RunChecks(cc *CheckContext, enabled validation.CheckSet) []*Issue {
	var issues []*Issue
	for _, ct := range AllCheckTypes() {
		if !enabled.Contains(ct.String()) {
			continue
		}
		issues = append(issues, checkFuncs[ct](cc)...)
	}
	return issues
}

func (cc *CheckContext) newIssue(employeeID uuid.UUID, shiftID *uuid.UUID, ct CheckType, sev validation.Severity, description string) *Issue {
	return &Issue{
		ID:             uuid.New(),
		OrganizationID: cc.OrganizationID,
		ValidationID:   cc.ValidationID,
		EmployeeID:     employeeID,
		ShiftID:        shiftID,
		CheckType:      ct,
		Severity:       sev,
		Description:    description,
	}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func decPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// shiftsByEmployee groups shifts per employee, each group sorted by start.
func (cc *CheckContext) shiftsByEmployee() map[uuid.UUID][]*Shift {
	byEmployee := make(map[uuid.UUID][]*Shift)
	for _, s := range cc.Shifts {
		byEmployee[s.EmployeeID] = append(byEmployee[s.EmployeeID], s)
	}
	for _, shifts := range byEmployee {
		sort.Slice(shifts, func(i, j int) bool {
			return shifts[i].StartDateTime().Before(shifts[j].StartDateTime())
		})
	}
	return byEmployee
}

// EvaluateDataQuality flags structurally broken shifts: an employee the
// directory cannot resolve (once per employee, since no other rule can run
// for them) and break minutes exceeding the shift itself.
func EvaluateDataQuality(cc *CheckContext) []*Issue {
	var issues []*Issue
	flaggedEmployees := make(map[uuid.UUID]struct{})

	for _, s := range cc.Shifts {
		if _, known := cc.Employees[s.EmployeeID]; !known {
			if _, done := flaggedEmployees[s.EmployeeID]; !done {
				flaggedEmployees[s.EmployeeID] = struct{}{}
				issues = append(issues, cc.newIssue(s.EmployeeID, &s.ID, CheckDataQuality, validation.SeverityError,
					"Employee record not found - compliance rules cannot be evaluated for this employee"))
			}
			continue
		}

		breakMinutes := s.TotalBreakMinutes()
		if breakMinutes <= 0 {
			continue
		}
		durationMinutes := s.Duration().Mul(decimal.NewFromInt(60))
		if durationMinutes.IsPositive() && decimal.NewFromInt(int64(breakMinutes)).GreaterThan(durationMinutes) {
			issue := cc.newIssue(s.EmployeeID, &s.ID, CheckDataQuality, validation.SeverityWarning,
				fmt.Sprintf("Total break minutes %d exceed shift duration of %s minutes", breakMinutes, round2(durationMinutes)))
			issue.ExpectedValue = decPtr(round2(durationMinutes))
			issue.ActualValue = decPtr(decimal.NewFromInt(int64(breakMinutes)))
			issues = append(issues, issue)
		}
	}
	return issues
}

// EvaluateMinimumShiftHours flags shifts shorter than the award minimum
// engagement for the employee's employment type.
func EvaluateMinimumShiftHours(cc *CheckContext) []*Issue {
	var issues []*Issue
	for _, s := range cc.Shifts {
		emp, ok := cc.employee(s.EmployeeID)
		if !ok {
			continue
		}
		minHours := emp.Rules.MinShiftHours(emp.EmploymentType)
		if minHours.IsZero() {
			continue
		}
		net := s.NetHours()
		if net.GreaterThanOrEqual(minHours) {
			continue
		}

		issue := cc.newIssue(s.EmployeeID, &s.ID, CheckMinimumShiftHours, validation.SeverityWarning,
			fmt.Sprintf("Shift only %s hours, minimum is %s hours", round2(net), round2(minHours)))
		issue.ExpectedValue = decPtr(round2(minHours))
		issue.ActualValue = decPtr(round2(net))
		issues = append(issues, issue)
	}
	return issues
}

// EvaluateMealBreak flags shifts over the award threshold that have no meal
// break or one shorter than the banded requirement.
func EvaluateMealBreak(cc *CheckContext) []*Issue {
	var issues []*Issue
	for _, s := range cc.Shifts {
		emp, ok := cc.employee(s.EmployeeID)
		if !ok {
			continue
		}
		required := emp.Rules.RequiredMealBreakMinutes(s.Duration())
		if required <= 0 {
			continue
		}

		if !s.HasMealBreak {
			issue := cc.newIssue(s.EmployeeID, &s.ID, CheckMealBreak, validation.SeverityError,
				fmt.Sprintf("No meal break provided for %s hour shift", round2(s.Duration())))
			issue.ExpectedValue = decPtr(decimal.NewFromInt(int64(required)))
			issue.ActualValue = decPtr(decimal.Zero)
			issues = append(issues, issue)
			continue
		}

		if s.MealBreakMinutes < required {
			issue := cc.newIssue(s.EmployeeID, &s.ID, CheckMealBreak, validation.SeverityError,
				fmt.Sprintf("Meal break only %d minutes, required %d minutes", s.MealBreakMinutes, required))
			issue.ExpectedValue = decPtr(decimal.NewFromInt(int64(required)))
			issue.ActualValue = decPtr(decimal.NewFromInt(int64(s.MealBreakMinutes)))
			issues = append(issues, issue)
		}
	}
	return issues
}

// EvaluateRestPeriod flags adjacent shift pairs with too little rest between
// them. A gap under the standard rest period is a Warning; under the reduced
// (by-agreement) period it escalates to Error.
func EvaluateRestPeriod(cc *CheckContext) []*Issue {
	var issues []*Issue
	for employeeID, shifts := range cc.shiftsByEmployee() {
		emp, ok := cc.employee(employeeID)
		if !ok {
			continue
		}
		standard := decimal.NewFromInt(int64(emp.Rules.MinimumRestPeriodHours))
		reduced := decimal.NewFromInt(int64(emp.Rules.ReducedRestPeriodHours))

		for i := 0; i+1 < len(shifts); i++ {
			gap := shifts[i+1].StartDateTime().Sub(shifts[i].EndDateTime())
			restHours := decimal.NewFromFloat(gap.Minutes()).Div(decimal.NewFromInt(60))
			if restHours.GreaterThanOrEqual(standard) {
				continue
			}

			severity := validation.SeverityWarning
			minimumAllowed := standard
			if restHours.LessThan(reduced) {
				severity = validation.SeverityError
				minimumAllowed = reduced
			}

			issue := cc.newIssue(employeeID, nil, CheckRestPeriod, severity,
				fmt.Sprintf("Only %s hours rest between shifts, minimum is %s hours", round2(restHours), minimumAllowed))
			issue.ExpectedValue = decPtr(minimumAllowed)
			issue.ActualValue = decPtr(round2(restHours))
			issue.AffectedShiftsCount = 2
			issues = append(issues, issue)
		}
	}
	return issues
}

// EvaluateWeeklyHours compares each employee's weekly net hours to the
// applicable cap. Casuals have no weekly limit. Part-timers are measured
// against their guaranteed hours, missing guaranteed hours being a data
// quality problem. Full-time over the ordinary week is informational
// (overtime classification), not a violation.
func EvaluateWeeklyHours(cc *CheckContext) []*Issue {
	var issues []*Issue
	for employeeID, shifts := range cc.shiftsByEmployee() {
		emp, ok := cc.employee(employeeID)
		if !ok {
			continue
		}
		if emp.EmploymentType.IsCasual() {
			continue
		}
		ordinary := decimal.NewFromInt(int64(emp.Rules.OrdinaryWeeklyHours))

		for _, weekShifts := range groupByWeek(shifts) {
			total := decimal.Zero
			for _, s := range weekShifts {
				total = total.Add(s.NetHours())
			}

			var threshold decimal.Decimal
			severity := validation.SeverityInfo
			description := ""

			if emp.EmploymentType == award.EmploymentPartTime {
				if emp.GuaranteedHours == nil || !emp.GuaranteedHours.IsPositive() {
					issue := cc.newIssue(employeeID, nil, CheckDataQuality, validation.SeverityWarning,
						"Part-time employee missing guaranteed hours - weekly hours limit cannot be validated")
					issue.AffectedShiftsCount = len(weekShifts)
					issues = append(issues, issue)
					continue
				}
				threshold = *emp.GuaranteedHours
				severity = validation.SeverityWarning
				description = fmt.Sprintf("Total weekly hours %s exceed guaranteed %s hours", round2(total), threshold)
			} else {
				threshold = ordinary
				description = fmt.Sprintf("Total weekly hours %s exceed %s hour limit", round2(total), threshold)
			}

			if total.LessThanOrEqual(threshold) {
				continue
			}

			issue := cc.newIssue(employeeID, nil, CheckWeeklyHoursLimit, severity, description)
			issue.ExpectedValue = decPtr(threshold)
			issue.ActualValue = decPtr(round2(total))
			issue.AffectedShiftsCount = len(weekShifts)
			issues = append(issues, issue)
		}
	}
	return issues
}

// EvaluateConsecutiveDays scans each employee's distinct shift dates for
// streaks of consecutive calendar days beyond the award maximum.
func EvaluateConsecutiveDays(cc *CheckContext) []*Issue {
	var issues []*Issue
	for employeeID, shifts := range cc.shiftsByEmployee() {
		emp, ok := cc.employee(employeeID)
		if !ok {
			continue
		}

		dates := distinctSortedDates(shifts)
		streakStart := 0
		for i := 1; i <= len(dates); i++ {
			consecutive := i < len(dates) && dates[i].Equal(dates[i-1].AddDate(0, 0, 1))
			if consecutive {
				continue
			}

			streak := i - streakStart
			if streak > emp.Rules.MaxConsecutiveDays {
				issue := cc.newIssue(employeeID, nil, CheckMaxConsecutiveDays, validation.SeverityWarning,
					fmt.Sprintf("Worked %d consecutive days, maximum is %d", streak, emp.Rules.MaxConsecutiveDays))
				issue.ExpectedValue = decPtr(decimal.NewFromInt(int64(emp.Rules.MaxConsecutiveDays)))
				issue.ActualValue = decPtr(decimal.NewFromInt(int64(streak)))
				issue.AffectedShiftsCount = streak
				issues = append(issues, issue)
			}
			streakStart = i
		}
	}
	return issues
}

// groupByWeek buckets shifts by the Monday of their calendar week.
func groupByWeek(shifts []*Shift) map[time.Time][]*Shift {
	weeks := make(map[time.Time][]*Shift)
	for _, s := range shifts {
		weeks[weekStart(s.ShiftDate)] = append(weeks[weekStart(s.ShiftDate)], s)
	}
	return weeks
}

func weekStart(date time.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	diff := (int(day.Weekday()) - int(time.Monday) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

func distinctSortedDates(shifts []*Shift) []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, s := range shifts {
		day := time.Date(s.ShiftDate.Year(), s.ShiftDate.Month(), s.ShiftDate.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := seen[day]; !ok {
			seen[day] = struct{}{}
			dates = append(dates, day)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
