package payroll_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/award"
	"github.com/awardly/compliance-engine/internal/core/events"
	"github.com/awardly/compliance-engine/internal/payroll"
	"github.com/awardly/compliance-engine/internal/validation"
)

type mockPayrollRepository struct {
	payslips    map[uuid.UUID][]*payroll.Payslip
	validations map[uuid.UUID]*payroll.Validation
	deleted     map[uuid.UUID]bool
	issues      map[uuid.UUID][]*payroll.Issue

	getPayslipsErr error
}

func newMockPayrollRepository() *mockPayrollRepository {
	return &mockPayrollRepository{
		payslips:    make(map[uuid.UUID][]*payroll.Payslip),
		validations: make(map[uuid.UUID]*payroll.Validation),
		deleted:     make(map[uuid.UUID]bool),
		issues:      make(map[uuid.UUID][]*payroll.Issue),
	}
}

func (m *mockPayrollRepository) GetPayslips(_ context.Context, _, batchID uuid.UUID) ([]*payroll.Payslip, error) {
	if m.getPayslipsErr != nil {
		return nil, m.getPayslipsErr
	}
	return m.payslips[batchID], nil
}

func (m *mockPayrollRepository) ReplacePayslips(_ context.Context, _, batchID uuid.UUID, payslips []*payroll.Payslip) error {
	m.payslips[batchID] = payslips
	return nil
}

func (m *mockPayrollRepository) GetLiveValidation(_ context.Context, _, batchID uuid.UUID) (*payroll.Validation, error) {
	for id, v := range m.validations {
		if v.BatchID == batchID && !m.deleted[id] {
			return v, nil
		}
	}
	return nil, nil
}

func (m *mockPayrollRepository) GetValidation(_ context.Context, _, validationID uuid.UUID) (*payroll.Validation, error) {
	v, ok := m.validations[validationID]
	if !ok {
		return nil, internal.ErrRunNotFound
	}
	return v, nil
}

func (m *mockPayrollRepository) CreateValidation(_ context.Context, v *payroll.Validation) error {
	m.validations[v.ID] = v
	return nil
}

func (m *mockPayrollRepository) UpdateValidation(_ context.Context, v *payroll.Validation) error {
	m.validations[v.ID] = v
	return nil
}

func (m *mockPayrollRepository) SoftDeleteValidation(_ context.Context, validationID uuid.UUID, _ time.Time) error {
	m.deleted[validationID] = true
	return nil
}

func (m *mockPayrollRepository) CompleteRun(_ context.Context, v *payroll.Validation, issues []*payroll.Issue) error {
	m.validations[v.ID] = v
	m.issues[v.ID] = issues
	return nil
}

func (m *mockPayrollRepository) GetIssues(_ context.Context, _, validationID uuid.UUID) ([]*payroll.Issue, error) {
	return m.issues[validationID], nil
}

func (m *mockPayrollRepository) GetIssue(_ context.Context, _, issueID uuid.UUID) (*payroll.Issue, error) {
	for _, list := range m.issues {
		for _, issue := range list {
			if issue.ID == issueID {
				return issue, nil
			}
		}
	}
	return nil, internal.ErrIssueNotFound
}

func (m *mockPayrollRepository) UpdateIssue(_ context.Context, _ *payroll.Issue) error {
	return nil
}

type mockRuleResolver struct {
	rules  *award.RuleSet
	levels map[int]*award.Level
}

func (m *mockRuleResolver) ResolveAward(_ context.Context, awardType award.Type, _ time.Time) (*award.RuleSet, error) {
	if m.rules == nil || m.rules.AwardType != awardType {
		return nil, internal.ErrAwardNotFound
	}
	return m.rules, nil
}

func (m *mockRuleResolver) ResolveLevel(_ context.Context, awardID uuid.UUID, levelNumber int, _ time.Time) (*award.Level, error) {
	level, ok := m.levels[levelNumber]
	if !ok || awardID != m.rules.AwardID {
		return nil, internal.ErrAwardLevelNotFound
	}
	return level, nil
}

var _ = Describe("Payroll validation service", func() {
	var (
		repo     *mockPayrollRepository
		resolver *mockRuleResolver
		svc      *payroll.Service
		ctx      context.Context

		orgID   uuid.UUID
		batchID uuid.UUID

		periodStart time.Time
		periodEnd   time.Time
	)

	BeforeEach(func() {
		repo = newMockPayrollRepository()

		rules := retailRules()
		resolver = &mockRuleResolver{
			rules: rules,
			levels: map[int]*award.Level{
				1: {
					ID: uuid.New(), AwardID: rules.AwardID, LevelNumber: 1, LevelName: "Level 1",
					FullTimeHourlyRate: dec(permanentRate),
					PartTimeHourlyRate: dec(permanentRate),
					CasualHourlyRate:   dec(casualRate),
					EffectiveFrom:      day(2025, 7, 1),
					IsActive:           true,
				},
			},
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		svc = payroll.NewService(repo, resolver, bus, logger, 30*time.Minute, time.Minute, nil)
		ctx = context.Background()

		orgID = uuid.New()
		batchID = uuid.New()
		periodStart = day(2025, 8, 4)
		periodEnd = day(2025, 8, 10)
	})

	addPayslips := func(payslips ...*payroll.Payslip) {
		Expect(svc.IngestPayslips(ctx, orgID, batchID, payslips)).To(Succeed())
	}

	Describe("StartValidation", func() {
		It("passes a fully compliant batch", func() {
			addPayslips(
				compliantPayslip(award.EmploymentFullTime),
				compliantPayslip(award.EmploymentCasual),
			)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusPassed))
			Expect(result.Validation.TotalUnits).To(Equal(2))
			Expect(result.Validation.PassedCount).To(Equal(2))
			Expect(result.Issues).To(BeEmpty())
		})

		It("fails on a one-cent-per-hour underpayment with exactly one issue", func() {
			p := compliantPayslip(award.EmploymentFullTime)
			p.OrdinaryPay = dec("26.53").Mul(p.OrdinaryHours)
			p.GrossPay = p.OrdinaryPay
			p.Superannuation = p.GrossPay.Mul(dec("0.12")).Round(2)
			addPayslips(p)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusFailed))
			Expect(result.Validation.FailureKind).To(Equal(validation.FailureCompliance))
			Expect(result.Issues).To(HaveLen(1))
			Expect(result.Issues[0].Category).To(Equal(payroll.CategoryBaseRate))
			Expect(result.Validation.CriticalIssuesCount).To(Equal(1))
		})

		It("records a pre-validation issue for an unknown employment type", func() {
			p := compliantPayslip(award.EmploymentFullTime)
			p.EmploymentType = "Contractor"
			addPayslips(p)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusFailed))
			Expect(result.Issues).To(HaveLen(1))
			Expect(result.Issues[0].Category).To(Equal(payroll.CategoryPreValidation))
		})

		It("records a pre-validation issue for an unparsable classification", func() {
			p := compliantPayslip(award.EmploymentFullTime)
			p.Classification = "Senior Staff"
			addPayslips(p)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Issues).To(HaveLen(1))
			Expect(result.Issues[0].Category).To(Equal(payroll.CategoryPreValidation))
		})

		It("records a pre-validation issue when no level rate is in force", func() {
			p := compliantPayslip(award.EmploymentFullTime)
			p.Classification = "Retail Employee Level 9"
			addPayslips(p)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Issues).To(HaveLen(1))
			Expect(result.Issues[0].Category).To(Equal(payroll.CategoryPreValidation))
			Expect(result.Issues[0].Severity).To(Equal(validation.SeverityError))
		})

		It("keeps checking healthy payslips when one fails pre-validation", func() {
			broken := compliantPayslip(award.EmploymentFullTime)
			broken.AwardType = "Mining"
			healthy := compliantPayslip(award.EmploymentCasual)
			addPayslips(broken, healthy)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.TotalUnits).To(Equal(2))
			Expect(result.Validation.FailedCount).To(Equal(1))
			Expect(result.Validation.PassedCount).To(Equal(1))
		})

		It("rejects a start while a run is active", func() {
			active, err := payroll.NewValidation(orgID, batchID, periodStart, periodEnd, validation.NewCheckSet())
			Expect(err).NotTo(HaveOccurred())
			Expect(active.Start(time.Now().UTC())).To(Succeed())
			Expect(repo.CreateValidation(ctx, active)).To(Succeed())

			_, err = svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).To(MatchError(internal.ErrRunAlreadyActive))
		})

		It("supersedes a terminal prior run", func() {
			addPayslips(compliantPayslip(award.EmploymentFullTime))

			first, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())

			second, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Validation.ID).NotTo(Equal(first.Validation.ID))
			Expect(repo.deleted[first.Validation.ID]).To(BeTrue())
		})

		It("rejects an inverted pay period", func() {
			_, err := svc.StartValidation(ctx, orgID, batchID, periodEnd, periodStart)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidPeriod))
		})
	})

	Describe("execution failures", func() {
		It("marks the run Failed with the execution kind when storage dies", func() {
			addPayslips(compliantPayslip(award.EmploymentFullTime))
			repo.getPayslipsErr = errors.New("connection reset")

			_, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).To(HaveOccurred())

			live, getErr := repo.GetLiveValidation(ctx, orgID, batchID)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(live.Status).To(Equal(validation.StatusFailed))
			Expect(live.FailureKind).To(Equal(validation.FailureExecution))
			Expect(live.Retryable()).To(BeTrue())
			Expect(*live.Notes).To(HavePrefix("ExecutionFailure: "))
		})

		It("retries an execution failure as a fresh run", func() {
			addPayslips(compliantPayslip(award.EmploymentFullTime))
			repo.getPayslipsErr = errors.New("connection reset")

			_, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).To(HaveOccurred())
			failed, _ := repo.GetLiveValidation(ctx, orgID, batchID)

			repo.getPayslipsErr = nil
			result, err := svc.RetryValidation(ctx, orgID, failed.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusPassed))
			Expect(repo.deleted[failed.ID]).To(BeTrue())
		})

		It("refuses to retry a compliance failure", func() {
			p := compliantPayslip(award.EmploymentFullTime)
			p.Superannuation = dec("1")
			addPayslips(p)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusFailed))

			_, err = svc.RetryValidation(ctx, orgID, result.Validation.ID)
			Expect(err).To(MatchError(internal.ErrRunNotRetryable))
		})
	})

	Describe("results and issues", func() {
		It("returns the live run for a batch", func() {
			addPayslips(compliantPayslip(award.EmploymentFullTime))
			started, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())

			result, err := svc.GetLatestResult(ctx, orgID, batchID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.ID).To(Equal(started.Validation.ID))
		})

		It("reports not-found when no run exists", func() {
			_, err := svc.GetLatestResult(ctx, orgID, batchID)
			Expect(err).To(MatchError(internal.ErrRunNotFound))
		})

		It("resolves an issue once and only once", func() {
			p := compliantPayslip(award.EmploymentFullTime)
			p.Superannuation = dec("1")
			addPayslips(p)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Issues).To(HaveLen(1))

			actor := uuid.New()
			issue, err := svc.ResolveIssue(ctx, orgID, result.Issues[0].ID, actor, "contribution corrected")
			Expect(err).NotTo(HaveOccurred())
			Expect(issue.IsResolved).To(BeTrue())

			_, err = svc.ResolveIssue(ctx, orgID, result.Issues[0].ID, actor, "again")
			Expect(err).To(MatchError(internal.ErrIssueResolved))
		})
	})

	Describe("disabled checks", func() {
		It("excludes disabled categories from the run and its record", func() {
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
			svc = payroll.NewService(repo, resolver, nil, logger,
				30*time.Minute, time.Minute, []string{payroll.CategorySuperannuation.String()})

			p := compliantPayslip(award.EmploymentFullTime)
			p.Superannuation = dec("1")
			addPayslips(p)

			result, err := svc.StartValidation(ctx, orgID, batchID, periodStart, periodEnd)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Validation.Status).To(Equal(validation.StatusPassed))
			Expect(result.Issues).To(BeEmpty())

			executed := validation.ParseCheckSet(result.Validation.ExecutedChecks)
			Expect(executed.Contains(payroll.CategorySuperannuation.String())).To(BeFalse())
			Expect(executed.Contains(payroll.CategoryBaseRate.String())).To(BeTrue())
		})
	})
})
