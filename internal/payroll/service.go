package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/award"
	"github.com/awardly/compliance-engine/internal/core/events"
	"github.com/awardly/compliance-engine/internal/validation"
)

// Repository defines the data access methods for payslips, runs and issues.
// CompleteRun must persist the run record and its issues in one transaction.
type Repository interface {
	GetPayslips(ctx context.Context, orgID, batchID uuid.UUID) ([]*Payslip, error)
	ReplacePayslips(ctx context.Context, orgID, batchID uuid.UUID, payslips []*Payslip) error

	GetLiveValidation(ctx context.Context, orgID, batchID uuid.UUID) (*Validation, error)
	GetValidation(ctx context.Context, orgID, validationID uuid.UUID) (*Validation, error)
	CreateValidation(ctx context.Context, v *Validation) error
	UpdateValidation(ctx context.Context, v *Validation) error
	SoftDeleteValidation(ctx context.Context, validationID uuid.UUID, now time.Time) error
	CompleteRun(ctx context.Context, v *Validation, issues []*Issue) error

	GetIssues(ctx context.Context, orgID, validationID uuid.UUID) ([]*Issue, error)
	GetIssue(ctx context.Context, orgID, issueID uuid.UUID) (*Issue, error)
	UpdateIssue(ctx context.Context, issue *Issue) error
}

// RuleResolver is the catalog surface the pipeline consumes. Rates are
// resolved as of the pay period start, so re-validating an old batch uses the
// rates that were in force then.
type RuleResolver interface {
	ResolveAward(ctx context.Context, awardType award.Type, asOf time.Time) (*award.RuleSet, error)
	ResolveLevel(ctx context.Context, awardID uuid.UUID, levelNumber int, asOf time.Time) (*award.Level, error)
}

// RunResult is what a finished validation exposes: the run record with its
// counts plus the full issue list, empty included.
type RunResult struct {
	Validation *Validation `json:"validation"`
	Issues     []*Issue    `json:"issues"`
}

// Service orchestrates payroll validation runs.
type Service struct {
	repo     Repository
	resolver RuleResolver
	bus      *events.EventBus
	logger   *slog.Logger

	staleRunThreshold time.Duration
	runTimeout        time.Duration
	disabledChecks    validation.CheckSet
}

func NewService(
	repo Repository,
	resolver RuleResolver,
	bus *events.EventBus,
	logger *slog.Logger,
	staleRunThreshold time.Duration,
	runTimeout time.Duration,
	disabledChecks []string,
) *Service {
	return &Service{
		repo:              repo,
		resolver:          resolver,
		bus:               bus,
		logger:            logger,
		staleRunThreshold: staleRunThreshold,
		runTimeout:        runTimeout,
		disabledChecks:    validation.NewCheckSet(disabledChecks...),
	}
}

// enabledChecks is the canonical category set minus the configured exclusions.
func (s *Service) enabledChecks() validation.CheckSet {
	var names []string
	for _, cat := range AllCategories() {
		if !s.disabledChecks.Contains(cat.String()) {
			names = append(names, cat.String())
		}
	}
	return validation.NewCheckSet(names...)
}

// IngestPayslips replaces the normalized payslip rows for a batch.
func (s *Service) IngestPayslips(ctx context.Context, orgID, batchID uuid.UUID, payslips []*Payslip) error {
	for _, p := range payslips {
		p.OrganizationID = orgID
		p.BatchID = batchID
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
	}
	if err := s.repo.ReplacePayslips(ctx, orgID, batchID, payslips); err != nil {
		s.logger.Error("failed to ingest payslips", "error", err, "batch_id", batchID)
		return err
	}
	s.logger.Info("payslips ingested", "batch_id", batchID, "count", len(payslips))
	return nil
}

// StartValidation runs a fresh validation for a payroll batch. At most one
// live run may exist per batch: an active (non-abandoned) run rejects the
// request, while a terminal or abandoned run is soft-deleted to make room.
func (s *Service) StartValidation(ctx context.Context, orgID, batchID uuid.UUID, periodStart, periodEnd time.Time) (*RunResult, error) {
	now := time.Now().UTC()

	prior, err := s.repo.GetLiveValidation(ctx, orgID, batchID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		if prior.BlocksNewRun(now, s.staleRunThreshold) {
			s.logger.Warn("validation already active for batch",
				"batch_id", batchID, "validation_id", prior.ID, "status", prior.Status)
			return nil, internal.ErrRunAlreadyActive
		}
		if prior.Abandoned(now, s.staleRunThreshold) {
			s.logger.Warn("reclaiming abandoned validation run",
				"batch_id", batchID, "validation_id", prior.ID,
				"started_at", prior.StartedAt)
		}
		if err := s.repo.SoftDeleteValidation(ctx, prior.ID, now); err != nil {
			return nil, err
		}
	}

	v, err := NewValidation(orgID, batchID, periodStart, periodEnd, s.enabledChecks())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateValidation(ctx, v); err != nil {
		return nil, err
	}

	if err := v.Start(now); err != nil {
		return nil, internal.NewInternalError("failed to start validation run", err)
	}
	if err := s.repo.UpdateValidation(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("payroll validation started",
		"validation_id", v.ID, "batch_id", batchID,
		"period_start", periodStart.Format("2006-01-02"))

	return s.execute(ctx, v)
}

// RetryValidation re-runs a batch whose previous run died from an engine
// fault. Genuine compliance failures are not retryable: retrying them would
// hide a real result.
func (s *Service) RetryValidation(ctx context.Context, orgID, validationID uuid.UUID) (*RunResult, error) {
	prior, err := s.repo.GetValidation(ctx, orgID, validationID)
	if err != nil {
		return nil, err
	}
	if !prior.Retryable() {
		return nil, internal.ErrRunNotRetryable
	}
	return s.StartValidation(ctx, orgID, prior.BatchID, prior.PayPeriodStart, prior.PayPeriodEnd)
}

// execute drives the pipeline for an InProgress run. Any panic or error inside
// marks the run Failed with the execution marker so it never sticks in
// InProgress; the caller's deadline is honored through the run timeout.
func (s *Service) execute(ctx context.Context, v *Validation) (result *RunResult, err error) {
	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during validation run: %v", r)
		}
		if err != nil {
			s.failExecution(v, err)
			result = nil
			err = internal.NewExecutionFailure("payroll validation run failed", err)
		}
	}()

	payslips, err := s.repo.GetPayslips(runCtx, v.OrganizationID, v.BatchID)
	if err != nil {
		return nil, err
	}

	cc, preIssues, err := s.buildContext(runCtx, v, payslips)
	if err != nil {
		return nil, err
	}

	issues := append(preIssues, RunChecks(cc, validation.ParseCheckSet(v.ExecutedChecks))...)

	stats := make([]validation.IssueStat, 0, len(issues))
	for _, issue := range issues {
		st := validation.IssueStat{EmployeeID: issue.EmployeeID, Severity: issue.Severity}
		if issue.PayslipID != nil {
			st.UnitID = *issue.PayslipID
			st.HasUnit = true
		}
		stats = append(stats, st)
	}

	now := time.Now().UTC()
	if err := v.Complete(validation.Tally(len(payslips), stats), now); err != nil {
		return nil, err
	}
	if err := s.repo.CompleteRun(runCtx, v, issues); err != nil {
		return nil, err
	}

	s.logger.Info("payroll validation completed",
		"validation_id", v.ID,
		"status", v.Status,
		"total_payslips", v.TotalUnits,
		"issues", v.TotalIssuesCount,
		"critical", v.CriticalIssuesCount)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewValidationCompletedEvent(
			v.ID, v.OrganizationID, "payroll", v.Status.String(),
			v.TotalIssuesCount, v.CriticalIssuesCount, v.AffectedEmployees))
	}

	return &RunResult{Validation: v, Issues: issues}, nil
}

// buildContext resolves the award rates for each payslip as of the pay period
// start. A malformed payslip or an unresolvable catalog reference becomes one
// PreValidation issue for that payslip; the run keeps going for the rest.
// Catalog results are memoized per run since a batch typically spans a
// handful of award/level combinations.
func (s *Service) buildContext(ctx context.Context, v *Validation, payslips []*Payslip) (*CheckContext, []*Issue, error) {
	cc := &CheckContext{
		ValidationID:   v.ID,
		OrganizationID: v.OrganizationID,
		Payslips:       payslips,
		Rates:          make(map[uuid.UUID]*RateSnapshot, len(payslips)),
	}

	ruleCache := make(map[award.Type]*award.RuleSet)
	levelCache := make(map[string]*award.Level)

	var preIssues []*Issue
	for _, p := range payslips {
		et, err := award.ParseEmploymentType(p.EmploymentType)
		if err != nil {
			preIssues = append(preIssues, cc.newIssue(p, CategoryPreValidation, validation.SeverityError,
				fmt.Sprintf("Unknown employment type %q for %s - rate checks skipped", p.EmploymentType, p.EmployeeName)))
			continue
		}

		levelNumber, err := ParseClassificationLevel(p.Classification)
		if err != nil {
			preIssues = append(preIssues, cc.newIssue(p, CategoryPreValidation, validation.SeverityError,
				fmt.Sprintf("Classification %q for %s has no recognizable level - rate checks skipped", p.Classification, p.EmployeeName)))
			continue
		}

		awardType, err := award.ParseType(p.AwardType)
		if err != nil {
			preIssues = append(preIssues, cc.newIssue(p, CategoryPreValidation, validation.SeverityError,
				fmt.Sprintf("Unknown award type %q for %s - rate checks skipped", p.AwardType, p.EmployeeName)))
			continue
		}

		rules, ok := ruleCache[awardType]
		if !ok {
			rules, err = s.resolver.ResolveAward(ctx, awardType, v.PayPeriodStart)
			if err != nil {
				if internal.IsDataError(err) {
					preIssues = append(preIssues, cc.newIssue(p, CategoryPreValidation, validation.SeverityError,
						fmt.Sprintf("Award %s for %s could not be resolved: %v", awardType, p.EmployeeName, err)))
					continue
				}
				return nil, nil, err
			}
			ruleCache[awardType] = rules
		}

		levelKey := fmt.Sprintf("%s/%d", rules.AwardID, levelNumber)
		level, ok := levelCache[levelKey]
		if !ok {
			level, err = s.resolver.ResolveLevel(ctx, rules.AwardID, levelNumber, v.PayPeriodStart)
			if err != nil {
				if internal.IsDataError(err) {
					preIssues = append(preIssues, cc.newIssue(p, CategoryPreValidation, validation.SeverityError,
						fmt.Sprintf("No %s level %d rates in force on %s for %s", awardType, levelNumber,
							v.PayPeriodStart.Format("2006-01-02"), p.EmployeeName)))
					continue
				}
				return nil, nil, err
			}
			levelCache[levelKey] = level
		}

		permanent := level.FullTimeHourlyRate
		if et == award.EmploymentPartTime {
			permanent = level.PartTimeHourlyRate
		}

		cc.Rates[p.ID] = &RateSnapshot{
			Rules:          rules,
			EmploymentType: et,
			PermanentRate:  permanent,
			CasualRate:     level.CasualHourlyRate,
		}
	}
	return cc, preIssues, nil
}

// failExecution stamps the execution-failure outcome on a best-effort basis.
// The update uses a fresh context so a cancelled caller cannot leave the run
// InProgress forever.
func (s *Service) failExecution(v *Validation, cause error) {
	now := time.Now().UTC()
	v.FailExecution(cause, now)

	persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if updateErr := s.repo.UpdateValidation(persistCtx, v); updateErr != nil {
		s.logger.Error("failed to persist execution failure",
			"validation_id", v.ID, "error", updateErr, "cause", cause)
	}

	s.logger.Error("payroll validation execution failure",
		"validation_id", v.ID, "batch_id", v.BatchID, "error", cause)

	if s.bus != nil {
		_ = s.bus.Publish(persistCtx, events.NewValidationFailedEvent(
			v.ID, v.OrganizationID, "payroll", cause.Error()))
	}
}

// GetResult returns a finished or in-flight run with its issues.
func (s *Service) GetResult(ctx context.Context, orgID, validationID uuid.UUID) (*RunResult, error) {
	v, err := s.repo.GetValidation(ctx, orgID, validationID)
	if err != nil {
		return nil, err
	}
	issues, err := s.repo.GetIssues(ctx, orgID, validationID)
	if err != nil {
		return nil, err
	}
	return &RunResult{Validation: v, Issues: issues}, nil
}

// GetLatestResult returns the live run for a batch, if any.
func (s *Service) GetLatestResult(ctx context.Context, orgID, batchID uuid.UUID) (*RunResult, error) {
	v, err := s.repo.GetLiveValidation(ctx, orgID, batchID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, internal.ErrRunNotFound
	}
	return s.GetResult(ctx, orgID, v.ID)
}

// ResolveIssue marks an issue fixed. Payroll issues have no waiver path.
func (s *Service) ResolveIssue(ctx context.Context, orgID, issueID, actorID uuid.UUID, notes string) (*Issue, error) {
	issue, err := s.repo.GetIssue(ctx, orgID, issueID)
	if err != nil {
		return nil, err
	}
	if err := issue.Resolve(actorID, notes, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateIssue(ctx, issue); err != nil {
		return nil, err
	}
	s.logger.Info("payroll issue resolved", "issue_id", issueID, "actor_id", actorID)
	return issue, nil
}
