package roster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/award"
	"github.com/awardly/compliance-engine/internal/core/events"
	"github.com/awardly/compliance-engine/internal/employee"
	"github.com/awardly/compliance-engine/internal/validation"
)

// Repository defines the data access methods for rosters, runs and issues.
// CompleteRun must persist the run record and its issues in one transaction.
type Repository interface {
	GetShifts(ctx context.Context, orgID, rosterID uuid.UUID) ([]*Shift, error)
	ReplaceShifts(ctx context.Context, orgID, rosterID uuid.UUID, shifts []*Shift) error

	GetLiveValidation(ctx context.Context, orgID, rosterID uuid.UUID) (*Validation, error)
	GetValidation(ctx context.Context, orgID, validationID uuid.UUID) (*Validation, error)
	CreateValidation(ctx context.Context, v *Validation) error
	UpdateValidation(ctx context.Context, v *Validation) error
	SoftDeleteValidation(ctx context.Context, validationID uuid.UUID, now time.Time) error
	CompleteRun(ctx context.Context, v *Validation, issues []*Issue) error

	GetIssues(ctx context.Context, orgID, validationID uuid.UUID) ([]*Issue, error)
	GetIssue(ctx context.Context, orgID, issueID uuid.UUID) (*Issue, error)
	UpdateIssue(ctx context.Context, issue *Issue) error
}

// EmployeeDirectory is the slice of the employee module the pipeline needs.
type EmployeeDirectory interface {
	GetByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*employee.Employee, error)
}

// RuleResolver is the catalog surface the pipeline consumes.
type RuleResolver interface {
	ResolveAwardByID(ctx context.Context, id uuid.UUID) (*award.RuleSet, error)
}

// RunResult is what a finished validation exposes: the run record with its
// counts plus the full issue list, empty included.
type RunResult struct {
	Validation *Validation `json:"validation"`
	Issues     []*Issue    `json:"issues"`
}

// Service orchestrates roster validation runs.
type Service struct {
	repo      Repository
	directory EmployeeDirectory
	resolver  RuleResolver
	bus       *events.EventBus
	logger    *slog.Logger

	staleRunThreshold time.Duration
	runTimeout        time.Duration
	disabledChecks    validation.CheckSet
}

func NewService(
	repo Repository,
	directory EmployeeDirectory,
	resolver RuleResolver,
	bus *events.EventBus,
	logger *slog.Logger,
	staleRunThreshold time.Duration,
	runTimeout time.Duration,
	disabledChecks []string,
) *Service {
	return &Service{
		repo:              repo,
		directory:         directory,
		resolver:          resolver,
		bus:               bus,
		logger:            logger,
		staleRunThreshold: staleRunThreshold,
		runTimeout:        runTimeout,
		disabledChecks:    validation.NewCheckSet(disabledChecks...),
	}
}

// enabledChecks is the canonical check set minus the configured exclusions.
func (s *Service) enabledChecks() validation.CheckSet {
	var names []string
	for _, ct := range AllCheckTypes() {
		if !s.disabledChecks.Contains(ct.String()) {
			names = append(names, ct.String())
		}
	}
	return validation.NewCheckSet(names...)
}

// IngestShifts replaces the normalized shift rows for a roster.
func (s *Service) IngestShifts(ctx context.Context, orgID, rosterID uuid.UUID, shifts []*Shift) error {
	for _, sh := range shifts {
		sh.OrganizationID = orgID
		sh.RosterID = rosterID
		if sh.ID == uuid.Nil {
			sh.ID = uuid.New()
		}
	}
	if err := s.repo.ReplaceShifts(ctx, orgID, rosterID, shifts); err != nil {
		s.logger.Error("failed to ingest shifts", "error", err, "roster_id", rosterID)
		return err
	}
	s.logger.Info("shifts ingested", "roster_id", rosterID, "count", len(shifts))
	return nil
}

// StartValidation runs a fresh validation for a roster week. At most one live
// run may exist per roster: an active (non-abandoned) run rejects the request,
// while a terminal or abandoned run is soft-deleted to make room.
func (s *Service) StartValidation(ctx context.Context, orgID, rosterID uuid.UUID, weekStart, weekEnd time.Time) (*RunResult, error) {
	now := time.Now().UTC()

	prior, err := s.repo.GetLiveValidation(ctx, orgID, rosterID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		if prior.BlocksNewRun(now, s.staleRunThreshold) {
			s.logger.Warn("validation already active for roster",
				"roster_id", rosterID, "validation_id", prior.ID, "status", prior.Status)
			return nil, internal.ErrRunAlreadyActive
		}
		if prior.Abandoned(now, s.staleRunThreshold) {
			s.logger.Warn("reclaiming abandoned validation run",
				"roster_id", rosterID, "validation_id", prior.ID,
				"started_at", prior.StartedAt)
		}
		if err := s.repo.SoftDeleteValidation(ctx, prior.ID, now); err != nil {
			return nil, err
		}
	}

	v, err := NewValidation(orgID, rosterID, weekStart, weekEnd, s.enabledChecks())
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

	s.logger.Info("roster validation started",
		"validation_id", v.ID, "roster_id", rosterID,
		"week_start", weekStart.Format("2006-01-02"))

	return s.execute(ctx, v)
}

// RetryValidation re-runs a roster whose previous run died from an engine
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
	return s.StartValidation(ctx, orgID, prior.RosterID, prior.WeekStartDate, prior.WeekEndDate)
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
			err = internal.NewExecutionFailure("roster validation run failed", err)
		}
	}()

	shifts, err := s.repo.GetShifts(runCtx, v.OrganizationID, v.RosterID)
	if err != nil {
		return nil, err
	}

	cc, catalogIssues, err := s.buildContext(runCtx, v, shifts)
	if err != nil {
		return nil, err
	}

	issues := append(catalogIssues, RunChecks(cc, validation.ParseCheckSet(v.ExecutedChecks))...)

	stats := make([]validation.IssueStat, 0, len(issues))
	for _, issue := range issues {
		st := validation.IssueStat{EmployeeID: issue.EmployeeID, Severity: issue.Severity}
		if issue.ShiftID != nil {
			st.UnitID = *issue.ShiftID
			st.HasUnit = true
		}
		stats = append(stats, st)
	}

	now := time.Now().UTC()
	if err := v.Complete(validation.Tally(len(shifts), stats), now); err != nil {
		return nil, err
	}
	if err := s.repo.CompleteRun(runCtx, v, issues); err != nil {
		return nil, err
	}

	s.logger.Info("roster validation completed",
		"validation_id", v.ID,
		"status", v.Status,
		"total_shifts", v.TotalUnits,
		"issues", v.TotalIssuesCount,
		"critical", v.CriticalIssuesCount)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewValidationCompletedEvent(
			v.ID, v.OrganizationID, "roster", v.Status.String(),
			v.TotalIssuesCount, v.CriticalIssuesCount, v.AffectedEmployees))
	}

	return &RunResult{Validation: v, Issues: issues}, nil
}

// buildContext loads the employee snapshot and resolves per-employee rules.
// A missing or unresolvable award mapping becomes one DataQuality issue for
// that employee; the run keeps going for everyone else.
func (s *Service) buildContext(ctx context.Context, v *Validation, shifts []*Shift) (*CheckContext, []*Issue, error) {
	ids := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]struct{})
	for _, sh := range shifts {
		if _, ok := seen[sh.EmployeeID]; !ok {
			seen[sh.EmployeeID] = struct{}{}
			ids = append(ids, sh.EmployeeID)
		}
	}

	emps, err := s.directory.GetByIDs(ctx, v.OrganizationID, ids)
	if err != nil {
		return nil, nil, err
	}

	cc := &CheckContext{
		ValidationID:   v.ID,
		OrganizationID: v.OrganizationID,
		Employees:      make(map[uuid.UUID]*EmployeeSnapshot, len(emps)),
		Shifts:         shifts,
	}

	var catalogIssues []*Issue
	for _, emp := range emps {
		snapshot := &EmployeeSnapshot{
			ID:              emp.ID,
			Name:            emp.FullName(),
			EmploymentType:  emp.EmploymentType,
			GuaranteedHours: emp.GuaranteedHours,
		}
		cc.Employees[emp.ID] = snapshot

		if emp.AwardID == nil {
			catalogIssues = append(catalogIssues, cc.newIssue(emp.ID, nil, CheckDataQuality, validation.SeverityError,
				fmt.Sprintf("Employee %s has no award mapping - compliance rules cannot be evaluated", emp.FullName())))
			continue
		}

		rules, resolveErr := s.resolver.ResolveAwardByID(ctx, *emp.AwardID)
		if resolveErr != nil {
			if internal.IsDataError(resolveErr) {
				catalogIssues = append(catalogIssues, cc.newIssue(emp.ID, nil, CheckDataQuality, validation.SeverityError,
					fmt.Sprintf("Award for employee %s could not be resolved: %v", emp.FullName(), resolveErr)))
				continue
			}
			return nil, nil, resolveErr
		}
		snapshot.Rules = rules
	}
	return cc, catalogIssues, nil
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

	s.logger.Error("roster validation execution failure",
		"validation_id", v.ID, "roster_id", v.RosterID, "error", cause)

	if s.bus != nil {
		_ = s.bus.Publish(persistCtx, events.NewValidationFailedEvent(
			v.ID, v.OrganizationID, "roster", cause.Error()))
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

// GetLatestResult returns the live run for a roster, if any.
func (s *Service) GetLatestResult(ctx context.Context, orgID, rosterID uuid.UUID) (*RunResult, error) {
	v, err := s.repo.GetLiveValidation(ctx, orgID, rosterID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, internal.ErrRunNotFound
	}
	return s.GetResult(ctx, orgID, v.ID)
}

// ResolveIssue marks an issue fixed.
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
	s.logger.Info("roster issue resolved", "issue_id", issueID, "actor_id", actorID)
	return issue, nil
}

// WaiveIssue accepts an issue as a known exception.
func (s *Service) WaiveIssue(ctx context.Context, orgID, issueID, actorID uuid.UUID, reason string) (*Issue, error) {
	issue, err := s.repo.GetIssue(ctx, orgID, issueID)
	if err != nil {
		return nil, err
	}
	if err := issue.Waive(actorID, reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateIssue(ctx, issue); err != nil {
		return nil, err
	}
	s.logger.Info("roster issue waived", "issue_id", issueID, "actor_id", actorID)
	return issue, nil
}
