package award_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/award"
)

func TestAwardCatalog(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Award Catalog Suite")
}

type mockAwardRepository struct {
	awards   map[uuid.UUID]*award.Award
	byType   map[award.Type]*award.Award
	levels   map[uuid.UUID][]*award.Level
	getError error
}

func newMockAwardRepository() *mockAwardRepository {
	return &mockAwardRepository{
		awards: make(map[uuid.UUID]*award.Award),
		byType: make(map[award.Type]*award.Award),
		levels: make(map[uuid.UUID][]*award.Level),
	}
}

func (m *mockAwardRepository) addAward(a *award.Award) {
	m.awards[a.ID] = a
	m.byType[a.AwardType] = a
}

func (m *mockAwardRepository) GetByID(_ context.Context, id uuid.UUID) (*award.Award, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	a, ok := m.awards[id]
	if !ok {
		return nil, internal.ErrAwardNotFound
	}
	return a, nil
}

func (m *mockAwardRepository) GetByType(_ context.Context, t award.Type) (*award.Award, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	a, ok := m.byType[t]
	if !ok {
		return nil, internal.ErrAwardNotFound
	}
	return a, nil
}

func (m *mockAwardRepository) GetAll(_ context.Context) ([]*award.Award, error) {
	out := make([]*award.Award, 0, len(m.awards))
	for _, a := range m.awards {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAwardRepository) GetLevels(_ context.Context, awardID uuid.UUID, levelNumber int) ([]*award.Level, error) {
	var out []*award.Level
	for _, l := range m.levels[awardID] {
		if l.LevelNumber == levelNumber {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockAwardRepository) GetAllLevels(_ context.Context, awardID uuid.UUID) ([]*award.Level, error) {
	return m.levels[awardID], nil
}

func date(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, mo time.Month, d int) *time.Time {
	t := date(y, mo, d)
	return &t
}

var _ = Describe("Award Catalog", func() {
	var (
		repo    *mockAwardRepository
		catalog *award.Catalog
		ctx     context.Context
		retail  *award.Award
	)

	BeforeEach(func() {
		repo = newMockAwardRepository()
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		catalog = award.NewCatalog(repo, logger)
		ctx = context.Background()

		retail = &award.Award{
			ID:                       uuid.New(),
			AwardType:                award.TypeRetail,
			Name:                     "General Retail Industry Award",
			AwardCode:                "MA000004",
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
		repo.addAward(retail)
	})

	Describe("ResolveAward", func() {
		It("returns a rule snapshot for a known award type", func() {
			rs, err := catalog.ResolveAward(ctx, award.TypeRetail, date(2025, 8, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.AwardCode).To(Equal("MA000004"))
			Expect(rs.SaturdayPenaltyRate.String()).To(Equal("1.25"))
		})

		It("rejects an unknown award type before touching the repository", func() {
			_, err := catalog.ResolveAward(ctx, award.Type("Mining"), date(2025, 8, 1))
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("propagates not-found for a missing award", func() {
			_, err := catalog.ResolveAward(ctx, award.TypeClerks, date(2025, 8, 1))
			Expect(err).To(MatchError(internal.ErrAwardNotFound))
		})
	})

	Describe("ResolveLevel", func() {
		It("picks the window containing the date", func() {
			old := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 1, LevelName: "Retail Employee Level 1",
				FullTimeHourlyRate: decimal.RequireFromString("24.73"),
				PartTimeHourlyRate: decimal.RequireFromString("24.73"),
				CasualHourlyRate:   decimal.RequireFromString("30.91"),
				EffectiveFrom:      date(2024, 7, 1),
				EffectiveTo:        datePtr(2025, 6, 30),
			}
			current := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 1, LevelName: "Retail Employee Level 1",
				FullTimeHourlyRate: decimal.RequireFromString("25.65"),
				PartTimeHourlyRate: decimal.RequireFromString("25.65"),
				CasualHourlyRate:   decimal.RequireFromString("32.06"),
				EffectiveFrom:      date(2025, 7, 1),
				IsActive:           true,
			}
			repo.levels[retail.ID] = []*award.Level{old, current}

			l, err := catalog.ResolveLevel(ctx, retail.ID, 1, date(2025, 3, 15))
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ID).To(Equal(old.ID))

			l, err = catalog.ResolveLevel(ctx, retail.ID, 1, date(2025, 7, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ID).To(Equal(current.ID))
		})

		It("treats the window as inclusive on both ends", func() {
			l1 := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 1,
				EffectiveFrom: date(2024, 7, 1), EffectiveTo: datePtr(2025, 6, 30),
			}
			repo.levels[retail.ID] = []*award.Level{l1}

			_, err := catalog.ResolveLevel(ctx, retail.ID, 1, date(2025, 6, 30))
			Expect(err).NotTo(HaveOccurred())

			_, err = catalog.ResolveLevel(ctx, retail.ID, 1, date(2025, 7, 1))
			Expect(err).To(MatchError(internal.ErrAwardLevelNotFound))
		})

		It("prefers the later effective_from when windows overlap", func() {
			older := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 2,
				EffectiveFrom: date(2024, 7, 1),
			}
			newer := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 2,
				EffectiveFrom: date(2025, 7, 1),
			}
			repo.levels[retail.ID] = []*award.Level{older, newer}

			l, err := catalog.ResolveLevel(ctx, retail.ID, 2, date(2025, 8, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ID).To(Equal(newer.ID))
		})

		It("breaks an exact effective_from tie on is_active", func() {
			inactive := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 3,
				EffectiveFrom: date(2025, 7, 1), IsActive: false,
			}
			active := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 3,
				EffectiveFrom: date(2025, 7, 1), IsActive: true,
			}
			repo.levels[retail.ID] = []*award.Level{inactive, active}

			l, err := catalog.ResolveLevel(ctx, retail.ID, 3, date(2025, 8, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ID).To(Equal(active.ID))
		})

		It("refuses to guess between truly ambiguous rows", func() {
			a := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 4,
				EffectiveFrom: date(2025, 7, 1), IsActive: true,
			}
			b := &award.Level{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 4,
				EffectiveFrom: date(2025, 7, 1), IsActive: true,
			}
			repo.levels[retail.ID] = []*award.Level{a, b}

			_, err := catalog.ResolveLevel(ctx, retail.ID, 4, date(2025, 8, 1))
			Expect(err).To(HaveOccurred())
			Expect(internal.IsDataError(err)).To(BeTrue())
		})

		It("returns not-found when no window covers the date", func() {
			repo.levels[retail.ID] = []*award.Level{{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 1,
				EffectiveFrom: date(2026, 7, 1),
			}}

			_, err := catalog.ResolveLevel(ctx, retail.ID, 1, date(2025, 8, 1))
			Expect(err).To(MatchError(internal.ErrAwardLevelNotFound))
		})
	})

	Describe("ResolveLevelRate", func() {
		BeforeEach(func() {
			repo.levels[retail.ID] = []*award.Level{{
				ID: uuid.New(), AwardID: retail.ID, LevelNumber: 1,
				FullTimeHourlyRate: decimal.RequireFromString("25.65"),
				PartTimeHourlyRate: decimal.RequireFromString("25.65"),
				CasualHourlyRate:   decimal.RequireFromString("32.06"),
				EffectiveFrom:      date(2025, 7, 1),
				IsActive:           true,
			}}
		})

		It("returns the casual rate for casuals", func() {
			rate, err := catalog.ResolveLevelRate(ctx, retail.ID, 1, award.EmploymentCasual, date(2025, 8, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(rate.String()).To(Equal("32.06"))
		})

		It("pays fixed-term employees on permanent rates", func() {
			rate, err := catalog.ResolveLevelRate(ctx, retail.ID, 1, award.EmploymentFixedTerm, date(2025, 8, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(rate.String()).To(Equal("25.65"))
		})
	})

	Describe("RuleSet", func() {
		var rs *award.RuleSet

		BeforeEach(func() {
			rs = award.NewRuleSet(retail)
		})

		It("stacks casual loading onto penalty multipliers", func() {
			Expect(rs.PenaltyMultiplier(award.DaySaturday, award.EmploymentFullTime).String()).To(Equal("1.25"))
			Expect(rs.PenaltyMultiplier(award.DaySaturday, award.EmploymentCasual).String()).To(Equal("1.5"))
			Expect(rs.PenaltyMultiplier(award.DayPublicHoliday, award.EmploymentCasual).String()).To(Equal("2.5"))
		})

		It("requires no meal break at or below the threshold", func() {
			Expect(rs.RequiredMealBreakMinutes(decimal.RequireFromString("5"))).To(Equal(0))
			Expect(rs.RequiredMealBreakMinutes(decimal.RequireFromString("4.5"))).To(Equal(0))
		})

		It("requires the standard break above the threshold", func() {
			Expect(rs.RequiredMealBreakMinutes(decimal.RequireFromString("5.5"))).To(Equal(30))
			Expect(rs.RequiredMealBreakMinutes(decimal.RequireFromString("9"))).To(Equal(30))
		})

		It("requires a full hour beyond nine hours", func() {
			Expect(rs.RequiredMealBreakMinutes(decimal.RequireFromString("9.5"))).To(Equal(60))
			Expect(rs.RequiredMealBreakMinutes(decimal.RequireFromString("11"))).To(Equal(60))
		})
	})
})
