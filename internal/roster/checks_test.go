package roster_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal/award"
	"github.com/awardly/compliance-engine/internal/roster"
	"github.com/awardly/compliance-engine/internal/validation"
)

func TestRoster(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Roster Validation Suite")
}

func retailRules() *award.RuleSet {
	return &award.RuleSet{
		AwardID:                  uuid.New(),
		AwardType:                award.TypeRetail,
		AwardCode:                "MA000004",
		Name:                     "General Retail Industry Award",
		SaturdayPenaltyRate:      decimal.RequireFromString("1.25"),
		SundayPenaltyRate:        decimal.RequireFromString("1.50"),
		PublicHolidayPenaltyRate: decimal.RequireFromString("2.25"),
		CasualLoadingRate:        decimal.RequireFromString("0.25"),
		MinimumShiftHours:        decimal.RequireFromString("3"),
		MaxConsecutiveDays:       6,
		MealBreakThresholdHours:  5,
		MealBreakMinutes:         30,
		MinimumRestPeriodHours:   12,
		ReducedRestPeriodHours:   10,
		OrdinaryWeeklyHours:      38,
	}
}

func snapshot(et award.EmploymentType) *roster.EmployeeSnapshot {
	return &roster.EmployeeSnapshot{
		ID:             uuid.New(),
		Name:           "Test Employee",
		EmploymentType: et,
		Rules:          retailRules(),
	}
}

func clock(hour, minute int) time.Time {
	return time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC)
}

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func shift(employeeID uuid.UUID, date time.Time, start, end time.Time) *roster.Shift {
	return &roster.Shift{
		ID:         uuid.New(),
		RosterID:   uuid.New(),
		EmployeeID: employeeID,
		ShiftDate:  date,
		StartTime:  start,
		EndTime:    end,
	}
}

var _ = Describe("Roster checks", func() {
	var cc *roster.CheckContext

	newContext := func(employees ...*roster.EmployeeSnapshot) *roster.CheckContext {
		m := make(map[uuid.UUID]*roster.EmployeeSnapshot, len(employees))
		for _, e := range employees {
			m[e.ID] = e
		}
		return &roster.CheckContext{
			ValidationID:   uuid.New(),
			OrganizationID: uuid.New(),
			Employees:      m,
		}
	}

	Describe("Shift arithmetic", func() {
		It("rolls overnight shifts into the next day", func() {
			s := shift(uuid.New(), day(2025, 8, 4), clock(22, 0), clock(7, 0))
			Expect(s.Duration().String()).To(Equal("9"))
			Expect(s.EndDateTime().Day()).To(Equal(5))
		})

		It("floors net hours at zero", func() {
			s := shift(uuid.New(), day(2025, 8, 4), clock(9, 0), clock(9, 30))
			s.HasMealBreak = true
			s.MealBreakMinutes = 60
			Expect(s.NetHours().IsZero()).To(BeTrue())
		})
	})

	Describe("EvaluateMinimumShiftHours", func() {
		It("flags a casual shift below the minimum engagement as a warning", func() {
			emp := snapshot(award.EmploymentCasual)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(11, 30))}

			issues := roster.EvaluateMinimumShiftHours(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].CheckType).To(Equal(roster.CheckMinimumShiftHours))
			Expect(issues[0].Severity).To(Equal(validation.SeverityWarning))
			Expect(issues[0].ExpectedValue.String()).To(Equal("3"))
			Expect(issues[0].ActualValue.String()).To(Equal("2.5"))
		})

		It("exempts full-time and fixed-term employees", func() {
			ft := snapshot(award.EmploymentFullTime)
			fx := snapshot(award.EmploymentFixedTerm)
			cc = newContext(ft, fx)
			cc.Shifts = []*roster.Shift{
				shift(ft.ID, day(2025, 8, 4), clock(9, 0), clock(10, 0)),
				shift(fx.ID, day(2025, 8, 4), clock(9, 0), clock(10, 0)),
			}

			Expect(roster.EvaluateMinimumShiftHours(cc)).To(BeEmpty())
		})

		It("measures net hours after breaks", func() {
			emp := snapshot(award.EmploymentPartTime)
			cc = newContext(emp)
			s := shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(12, 15))
			s.HasMealBreak = true
			s.MealBreakMinutes = 30
			cc.Shifts = []*roster.Shift{s}

			issues := roster.EvaluateMinimumShiftHours(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].ActualValue.String()).To(Equal("2.75"))
		})
	})

	Describe("EvaluateMealBreak", func() {
		It("requires no break at or below five hours", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0))}

			Expect(roster.EvaluateMealBreak(cc)).To(BeEmpty())
		})

		It("errors when a long shift has no meal break", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0))}

			issues := roster.EvaluateMealBreak(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].Severity).To(Equal(validation.SeverityError))
			Expect(issues[0].ExpectedValue.String()).To(Equal("30"))
		})

		It("errors when the break is shorter than required", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			s := shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0))
			s.HasMealBreak = true
			s.MealBreakMinutes = 20
			cc.Shifts = []*roster.Shift{s}

			issues := roster.EvaluateMealBreak(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].ActualValue.String()).To(Equal("20"))
		})

		It("requires a full hour beyond nine hours", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			s := shift(emp.ID, day(2025, 8, 4), clock(8, 0), clock(18, 0))
			s.HasMealBreak = true
			s.MealBreakMinutes = 30
			cc.Shifts = []*roster.Shift{s}

			issues := roster.EvaluateMealBreak(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].ExpectedValue.String()).To(Equal("60"))
		})
	})

	Describe("EvaluateRestPeriod", func() {
		It("warns on a gap below the standard rest period", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{
				shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(20, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(7, 0), clock(15, 0)),
			}

			issues := roster.EvaluateRestPeriod(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].Severity).To(Equal(validation.SeverityWarning))
			Expect(issues[0].ActualValue.String()).To(Equal("11"))
			Expect(issues[0].ExpectedValue.String()).To(Equal("12"))
		})

		It("escalates to an error below the reduced rest period", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{
				shift(emp.ID, day(2025, 8, 4), clock(13, 0), clock(22, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(7, 0), clock(15, 0)),
			}

			issues := roster.EvaluateRestPeriod(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].Severity).To(Equal(validation.SeverityError))
			Expect(issues[0].ActualValue.String()).To(Equal("9"))
			Expect(issues[0].ExpectedValue.String()).To(Equal("10"))
			Expect(issues[0].AffectedShiftsCount).To(Equal(2))
		})

		It("flags a 22:00 finish against a 07:00 start under a flat 10 hour standard", func() {
			emp := snapshot(award.EmploymentFullTime)
			emp.Rules.MinimumRestPeriodHours = 10
			emp.Rules.ReducedRestPeriodHours = 10
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{
				shift(emp.ID, day(2025, 8, 4), clock(14, 0), clock(22, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(7, 0), clock(15, 0)),
			}

			issues := roster.EvaluateRestPeriod(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].CheckType).To(Equal(roster.CheckRestPeriod))
			Expect(issues[0].ActualValue.String()).To(Equal("9"))
			Expect(issues[0].ExpectedValue.String()).To(Equal("10"))
		})

		It("measures rest from the true end of an overnight shift", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{
				shift(emp.ID, day(2025, 8, 4), clock(22, 0), clock(6, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(9, 0), clock(17, 0)),
			}

			issues := roster.EvaluateRestPeriod(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].ActualValue.String()).To(Equal("3"))
		})

		It("accepts a gap meeting the standard", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{
				shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(9, 0), clock(17, 0)),
			}

			Expect(roster.EvaluateRestPeriod(cc)).To(BeEmpty())
		})
	})

	Describe("EvaluateWeeklyHours", func() {
		It("reports full-time hours over the ordinary week as informational", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			for d := 4; d <= 8; d++ {
				cc.Shifts = append(cc.Shifts, shift(emp.ID, day(2025, 8, d), clock(8, 0), clock(17, 0)))
			}

			issues := roster.EvaluateWeeklyHours(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].Severity).To(Equal(validation.SeverityInfo))
			Expect(issues[0].ActualValue.String()).To(Equal("45"))
			Expect(issues[0].ExpectedValue.String()).To(Equal("38"))
		})

		It("warns when part-time hours exceed guaranteed hours", func() {
			emp := snapshot(award.EmploymentPartTime)
			guaranteed := decimal.RequireFromString("20")
			emp.GuaranteedHours = &guaranteed
			cc = newContext(emp)
			for d := 4; d <= 6; d++ {
				cc.Shifts = append(cc.Shifts, shift(emp.ID, day(2025, 8, d), clock(9, 0), clock(17, 0)))
			}

			issues := roster.EvaluateWeeklyHours(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].Severity).To(Equal(validation.SeverityWarning))
			Expect(issues[0].ActualValue.String()).To(Equal("24"))
		})

		It("flags part-timers without guaranteed hours as a data quality problem", func() {
			emp := snapshot(award.EmploymentPartTime)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0))}

			issues := roster.EvaluateWeeklyHours(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].CheckType).To(Equal(roster.CheckDataQuality))
			Expect(issues[0].Severity).To(Equal(validation.SeverityWarning))
		})

		It("never limits casuals", func() {
			emp := snapshot(award.EmploymentCasual)
			cc = newContext(emp)
			for d := 4; d <= 10; d++ {
				cc.Shifts = append(cc.Shifts, shift(emp.ID, day(2025, 8, d), clock(8, 0), clock(18, 0)))
			}

			Expect(roster.EvaluateWeeklyHours(cc)).To(BeEmpty())
		})

		It("buckets hours per calendar week", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			// Mon 2025-08-04 through Sun, then the following Monday: two buckets,
			// neither over the limit.
			cc.Shifts = []*roster.Shift{
				shift(emp.ID, day(2025, 8, 8), clock(9, 0), clock(17, 0)),
				shift(emp.ID, day(2025, 8, 11), clock(9, 0), clock(17, 0)),
			}

			Expect(roster.EvaluateWeeklyHours(cc)).To(BeEmpty())
		})
	})

	Describe("EvaluateConsecutiveDays", func() {
		It("flags a streak over the award maximum", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			for d := 4; d <= 10; d++ {
				cc.Shifts = append(cc.Shifts, shift(emp.ID, day(2025, 8, d), clock(9, 0), clock(13, 0)))
			}

			issues := roster.EvaluateConsecutiveDays(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].ActualValue.String()).To(Equal("7"))
			Expect(issues[0].ExpectedValue.String()).To(Equal("6"))
			Expect(issues[0].AffectedShiftsCount).To(Equal(7))
		})

		It("resets the streak on a day off", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			for _, d := range []int{4, 5, 6, 8, 9, 10, 11} {
				cc.Shifts = append(cc.Shifts, shift(emp.ID, day(2025, 8, d), clock(9, 0), clock(13, 0)))
			}

			Expect(roster.EvaluateConsecutiveDays(cc)).To(BeEmpty())
		})

		It("counts a date with two shifts once", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			for d := 4; d <= 9; d++ {
				cc.Shifts = append(cc.Shifts, shift(emp.ID, day(2025, 8, d), clock(9, 0), clock(12, 0)))
			}
			cc.Shifts = append(cc.Shifts, shift(emp.ID, day(2025, 8, 4), clock(14, 0), clock(17, 0)))

			Expect(roster.EvaluateConsecutiveDays(cc)).To(BeEmpty())
		})
	})

	Describe("EvaluateDataQuality", func() {
		It("flags an unknown employee once, not per shift", func() {
			cc = newContext()
			ghost := uuid.New()
			cc.Shifts = []*roster.Shift{
				shift(ghost, day(2025, 8, 4), clock(9, 0), clock(17, 0)),
				shift(ghost, day(2025, 8, 5), clock(9, 0), clock(17, 0)),
			}

			issues := roster.EvaluateDataQuality(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].Severity).To(Equal(validation.SeverityError))
			Expect(issues[0].EmployeeID).To(Equal(ghost))
		})

		It("warns when break minutes exceed the shift itself", func() {
			emp := snapshot(award.EmploymentFullTime)
			cc = newContext(emp)
			s := shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(10, 0))
			s.HasMealBreak = true
			s.MealBreakMinutes = 90
			cc.Shifts = []*roster.Shift{s}

			issues := roster.EvaluateDataQuality(cc)
			Expect(issues).To(HaveLen(1))
			Expect(issues[0].Severity).To(Equal(validation.SeverityWarning))
		})
	})

	Describe("RunChecks", func() {
		It("skips checks outside the enabled set", func() {
			emp := snapshot(award.EmploymentCasual)
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(10, 0))}

			enabled := validation.NewCheckSet(roster.CheckMealBreak.String())
			Expect(roster.RunChecks(cc, enabled)).To(BeEmpty())

			enabled = validation.NewCheckSet(roster.CheckMinimumShiftHours.String())
			Expect(roster.RunChecks(cc, enabled)).To(HaveLen(1))
		})

		It("skips substantive checks for employees without resolved rules", func() {
			emp := snapshot(award.EmploymentCasual)
			emp.Rules = nil
			cc = newContext(emp)
			cc.Shifts = []*roster.Shift{shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(10, 0))}

			enabled := validation.NewCheckSet(roster.CheckMinimumShiftHours.String(), roster.CheckMealBreak.String())
			Expect(roster.RunChecks(cc, enabled)).To(BeEmpty())
		})
	})
})
