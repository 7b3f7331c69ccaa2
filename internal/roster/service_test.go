package roster_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/award"
	"github.com/awardly/compliance-engine/internal/core/events"
	"github.com/awardly/compliance-engine/internal/employee"
	"github.com/awardly/compliance-engine/internal/roster"
	"github.com/awardly/compliance-engine/internal/validation"
)

type mockRosterRepository struct {
	shifts      map[uuid.UUID][]*roster.Shift
	validations map[uuid.UUID]*roster.Validation
	deleted     map[uuid.UUID]bool
	issues      map[uuid.UUID][]*roster.Issue

	getShiftsErr error
}

func newMockRosterRepository() *mockRosterRepository {
	return &mockRosterRepository{
		shifts:      make(map[uuid.UUID][]*roster.Shift),
		validations: make(map[uuid.UUID]*roster.Validation),
		deleted:     make(map[uuid.UUID]bool),
		issues:      make(map[uuid.UUID][]*roster.Issue),
	}
}

func (m *mockRosterRepository) GetShifts(_ context.Context, _, rosterID uuid.UUID) ([]*roster.Shift, error) {
	if m.getShiftsErr != nil {
		return nil, m.getShiftsErr
	}
	return m.shifts[rosterID], nil
}

func (m *mockRosterRepository) ReplaceShifts(_ context.Context, _, rosterID uuid.UUID, shifts []*roster.Shift) error {
	m.shifts[rosterID] = shifts
	return nil
}

func (m *mockRosterRepository) GetLiveValidation(_ context.Context, _, rosterID uuid.UUID) (*roster.Validation, error) {
	for id, v := range m.validations {
		if v.RosterID == rosterID && !m.deleted[id] {
			return v, nil
		}
	}
	return nil, nil
}

func (m *mockRosterRepository) GetValidation(_ context.Context, _, validationID uuid.UUID) (*roster.Validation, error) {
	v, ok := m.validations[validationID]
	if !ok {
		return nil, internal.ErrRunNotFound
	}
	return v, nil
}

func (m *mockRosterRepository) CreateValidation(_ context.Context, v *roster.Validation) error {
	m.validations[v.ID] = v
	return nil
}

func (m *mockRosterRepository) UpdateValidation(_ context.Context, v *roster.Validation) error {
	m.validations[v.ID] = v
	return nil
}

func (m *mockRosterRepository) SoftDeleteValidation(_ context.Context, validationID uuid.UUID, _ time.Time) error {
	m.deleted[validationID] = true
	return nil
}

func (m *mockRosterRepository) CompleteRun(_ context.Context, v *roster.Validation, issues []*roster.Issue) error {
	m.validations[v.ID] = v
	m.issues[v.ID] = issues
	return nil
}

func (m *mockRosterRepository) GetIssues(_ context.Context, _, validationID uuid.UUID) ([]*roster.Issue, error) {
	return m.issues[validationID], nil
}

func (m *mockRosterRepository) GetIssue(_ context.Context, _, issueID uuid.UUID) (*roster.Issue, error) {
	for _, list := range m.issues {
		for _, issue := range list {
			if issue.ID == issueID {
				return issue, nil
			}
		}
	}
	return nil, internal.ErrIssueNotFound
}

func (m *mockRosterRepository) UpdateIssue(_ context.Context, _ *roster.Issue) error {
	return nil
}

type mockDirectory struct {
	employees map[uuid.UUID]*employee.Employee
}

func (m *mockDirectory) GetByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]*employee.Employee, error) {
	var out []*employee.Employee
	for _, id := range ids {
		if e, ok := m.employees[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockResolver struct {
	rules map[uuid.UUID]*award.RuleSet
}

func (m *mockResolver) ResolveAwardByID(_ context.Context, id uuid.UUID) (*award.RuleSet, error) {
	rs, ok := m.rules[id]
	if !ok {
		return nil, internal.ErrAwardNotFound
	}
	return rs, nil
}

var _ = Describe("Roster validation service", func() {
	var (
		repo      *mockRosterRepository
		directory *mockDirectory
		resolver  *mockResolver
		svc       *roster.Service
		ctx       context.Context

		orgID    uuid.UUID
		rosterID uuid.UUID
		awardID  uuid.UUID
		emp      *employee.Employee

		weekStart time.Time
		weekEnd   time.Time
	)

	BeforeEach(func() {
		repo = newMockRosterRepository()
		directory = &mockDirectory{employees: make(map[uuid.UUID]*employee.Employee)}
		resolver = &mockResolver{rules: make(map[uuid.UUID]*award.RuleSet)}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		svc = roster.NewService(repo, directory, resolver, bus, logger, 30*time.Minute, time.Minute, nil)
		ctx = context.Background()

		orgID = uuid.New()
		rosterID = uuid.New()
		awardID = uuid.New()

		rules := retailRules()
		rules.AwardID = awardID
		resolver.rules[awardID] = rules

		guaranteed := decimal.RequireFromString("38")
		emp = &employee.Employee{
			ID:              uuid.New(),
			OrganizationID:  orgID,
			FirstName:       "Dana",
			LastName:        "Nguyen",
			EmploymentType:  award.EmploymentFullTime,
			AwardID:         &awardID,
			GuaranteedHours: &guaranteed,
			IsActive:        true,
		}
		directory.employees[emp.ID] = emp

		weekStart = day(2025, 8, 4)
		weekEnd = day(2025, 8, 10)
	})

	addShifts := func(shifts ...*roster.Shift) {
		Expect(svc.IngestShifts(ctx, orgID, rosterID, shifts)).To(Succeed())
	}

	Describe("StartValidation", func() {
		It("passes a compliant roster", func() {
			addShifts(
				shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(9, 0), clock(14, 0)),
			)

			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusPassed))
			Expect(result.Validation.FailureKind).To(Equal(validation.FailureNone))
			Expect(result.Validation.TotalUnits).To(Equal(2))
			Expect(result.Validation.PassedCount).To(Equal(2))
			Expect(result.Issues).To(BeEmpty())
		})

		It("still passes when only warnings fire", func() {
			// Full-time, so the 2.5 hour shift is exempt from minimum engagement;
			// use a part-timer instead.
			emp.EmploymentType = award.EmploymentPartTime
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(11, 30)))

			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusPassed))
			Expect(result.Issues).To(HaveLen(1))
			Expect(result.Issues[0].Severity).To(Equal(validation.SeverityWarning))
		})

		It("fails the run on an Error-severity issue", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)))

			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusFailed))
			Expect(result.Validation.FailureKind).To(Equal(validation.FailureCompliance))
			Expect(result.Validation.Retryable()).To(BeFalse())
			Expect(result.Issues).To(HaveLen(1))
			Expect(result.Issues[0].CheckType).To(Equal(roster.CheckMealBreak))
		})

		It("records a single data quality issue for an unmapped employee", func() {
			emp.AwardID = nil
			addShifts(
				shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(9, 0), clock(17, 0)),
			)

			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusFailed))

			var dataQuality []*roster.Issue
			for _, issue := range result.Issues {
				if issue.CheckType == roster.CheckDataQuality {
					dataQuality = append(dataQuality, issue)
				}
			}
			Expect(dataQuality).To(HaveLen(1))
		})

		It("records a data quality issue when the mapped award is gone", func() {
			missing := uuid.New()
			emp.AwardID = &missing
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0)))

			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusFailed))
			Expect(result.Issues).To(HaveLen(1))
			Expect(result.Issues[0].CheckType).To(Equal(roster.CheckDataQuality))
		})

		It("rejects a start while a run is active", func() {
			active, err := roster.NewValidation(orgID, rosterID, weekStart, weekEnd, validation.NewCheckSet())
			Expect(err).NotTo(HaveOccurred())
			Expect(active.Start(time.Now().UTC())).To(Succeed())
			Expect(repo.CreateValidation(ctx, active)).To(Succeed())

			_, err = svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).To(MatchError(internal.ErrRunAlreadyActive))
		})

		It("supersedes a terminal prior run", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0)))

			first, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())

			second, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Validation.ID).NotTo(Equal(first.Validation.ID))
			Expect(repo.deleted[first.Validation.ID]).To(BeTrue())
		})

		It("reclaims an abandoned in-progress run", func() {
			stale, err := roster.NewValidation(orgID, rosterID, weekStart, weekEnd, validation.NewCheckSet())
			Expect(err).NotTo(HaveOccurred())
			Expect(stale.Start(time.Now().UTC().Add(-2 * time.Hour))).To(Succeed())
			Expect(repo.CreateValidation(ctx, stale)).To(Succeed())

			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0)))
			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusPassed))
			Expect(repo.deleted[stale.ID]).To(BeTrue())
		})

		It("produces identical outcomes for identical input on re-run", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)))

			first, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Validation.Status).To(Equal(first.Validation.Status))
			Expect(second.Validation.TotalIssuesCount).To(Equal(first.Validation.TotalIssuesCount))
			Expect(second.Issues).To(HaveLen(len(first.Issues)))
		})

		It("never reports fewer findings when a violation is added to the input", func() {
			addShifts(
				shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(9, 0), clock(14, 0)),
			)
			first, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Validation.FailedCount).To(Equal(0))

			// Same roster plus a part-timer rostered below the minimum engagement.
			partTimer := &employee.Employee{
				ID:             uuid.New(),
				OrganizationID: orgID,
				FirstName:      "Sam",
				LastName:       "Carter",
				EmploymentType: award.EmploymentPartTime,
				AwardID:        emp.AwardID,
				IsActive:       true,
			}
			directory.employees[partTimer.ID] = partTimer
			addShifts(
				shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0)),
				shift(emp.ID, day(2025, 8, 5), clock(9, 0), clock(14, 0)),
				shift(partTimer.ID, day(2025, 8, 4), clock(9, 0), clock(11, 30)),
			)

			second, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Validation.TotalIssuesCount).To(Equal(first.Validation.TotalIssuesCount + 1))
			Expect(second.Validation.FailedCount).To(Equal(first.Validation.FailedCount + 1))
			Expect(second.Validation.PassedCount).To(Equal(first.Validation.PassedCount))
			Expect(second.Validation.Status).To(Equal(validation.StatusPassed))
		})

		It("rejects an inverted week", func() {
			_, err := svc.StartValidation(ctx, orgID, rosterID, weekEnd, weekStart)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidPeriod))
		})
	})

	Describe("execution failures", func() {
		It("marks the run Failed with the execution kind when storage dies mid-run", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0)))
			repo.getShiftsErr = errors.New("connection reset")

			_, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).To(HaveOccurred())

			live, getErr := repo.GetLiveValidation(ctx, orgID, rosterID)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(live.Status).To(Equal(validation.StatusFailed))
			Expect(live.FailureKind).To(Equal(validation.FailureExecution))
			Expect(live.Retryable()).To(BeTrue())
			Expect(*live.Notes).To(HavePrefix("ExecutionFailure: "))
			Expect(strings.Contains(*live.Notes, "connection reset")).To(BeTrue())
		})

		It("retries an execution failure as a fresh run", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(14, 0)))
			repo.getShiftsErr = errors.New("connection reset")

			_, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).To(HaveOccurred())
			failed, _ := repo.GetLiveValidation(ctx, orgID, rosterID)

			repo.getShiftsErr = nil
			result, err := svc.RetryValidation(ctx, orgID, failed.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.ID).NotTo(Equal(failed.ID))
			Expect(result.Validation.Status).To(Equal(validation.StatusPassed))
			Expect(repo.deleted[failed.ID]).To(BeTrue())
		})

		It("refuses to retry a compliance failure", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)))

			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusFailed))

			_, err = svc.RetryValidation(ctx, orgID, result.Validation.ID)
			Expect(err).To(MatchError(internal.ErrRunNotRetryable))
		})
	})

	Describe("results and issues", func() {
		It("returns the live run with its issues", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)))
			started, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())

			result, err := svc.GetLatestResult(ctx, orgID, rosterID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.ID).To(Equal(started.Validation.ID))
			Expect(result.Issues).To(HaveLen(1))
		})

		It("reports not-found when no run exists", func() {
			_, err := svc.GetLatestResult(ctx, orgID, rosterID)
			Expect(err).To(MatchError(internal.ErrRunNotFound))
		})

		It("resolves an issue once and only once", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)))
			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())

			actor := uuid.New()
			issue, err := svc.ResolveIssue(ctx, orgID, result.Issues[0].ID, actor, "roster corrected")
			Expect(err).NotTo(HaveOccurred())
			Expect(issue.IsResolved).To(BeTrue())
			Expect(issue.ResolvedBy).To(HaveValue(Equal(actor)))

			_, err = svc.ResolveIssue(ctx, orgID, result.Issues[0].ID, actor, "again")
			Expect(err).To(MatchError(internal.ErrIssueResolved))
		})

		It("waives a non-critical issue but never a critical one", func() {
			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)))
			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())

			actor := uuid.New()
			issue, err := svc.WaiveIssue(ctx, orgID, result.Issues[0].ID, actor, "one-off agreed with staff")
			Expect(err).NotTo(HaveOccurred())
			Expect(issue.IsWaived).To(BeTrue())

			critical := result.Issues[0]
			critical.IsWaived = false
			critical.Severity = validation.SeverityCritical
			_, err = svc.WaiveIssue(ctx, orgID, critical.ID, actor, "try anyway")
			Expect(err).To(MatchError(internal.ErrWaiverNotAllowed))
		})
	})

	Describe("disabled checks", func() {
		It("excludes disabled checks from the run and its record", func() {
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
			svc = roster.NewService(repo, directory, resolver, nil, logger,
				30*time.Minute, time.Minute, []string{roster.CheckMealBreak.String()})

			addShifts(shift(emp.ID, day(2025, 8, 4), clock(9, 0), clock(17, 0)))
			result, err := svc.StartValidation(ctx, orgID, rosterID, weekStart, weekEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusPassed))
			Expect(result.Issues).To(BeEmpty())

			executed := validation.ParseCheckSet(result.Validation.ExecutedChecks)
			Expect(executed.Contains(roster.CheckMealBreak.String())).To(BeFalse())
			Expect(executed.Contains(roster.CheckMinimumShiftHours.String())).To(BeTrue())
		})
	})
})
