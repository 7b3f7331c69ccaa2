package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExecutionFailurePrefix is kept in notes for compatibility with records and
// tooling that predate the failure_kind column. FailureKind is authoritative;
// nothing may branch on this prefix.
const ExecutionFailurePrefix = "ExecutionFailure: "

const maxNotesLength = 1000

// RunState is the lifecycle core shared by roster and payroll validation runs.
// Embedded in both run records.
type RunState struct {
	Status              Status      `json:"status" gorm:"column:status;not null;default:Pending"`
	FailureKind         FailureKind `json:"failure_kind" gorm:"column:failure_kind;not null;default:None"`
	TotalUnits          int         `json:"total_units" gorm:"column:total_units"`
	PassedCount         int         `json:"passed_count" gorm:"column:passed_count"`
	FailedCount         int         `json:"failed_count" gorm:"column:failed_count"`
	TotalIssuesCount    int         `json:"total_issues_count" gorm:"column:total_issues_count"`
	CriticalIssuesCount int         `json:"critical_issues_count" gorm:"column:critical_issues_count"`
	AffectedEmployees   int         `json:"affected_employees" gorm:"column:affected_employees"`
	ExecutedChecks      string      `json:"executed_checks" gorm:"column:executed_checks"`
	StartedAt           *time.Time  `json:"started_at,omitempty" gorm:"column:started_at"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty" gorm:"column:completed_at"`
	Notes               *string     `json:"notes,omitempty" gorm:"column:notes"`
}

func NewRunState(checks CheckSet) RunState {
	return RunState{
		Status:         StatusPending,
		FailureKind:    FailureNone,
		ExecutedChecks: checks.String(),
	}
}

// Start moves the run into InProgress and stamps started_at.
func (rs *RunState) Start(now time.Time) error {
	if !rs.Status.CanTransition(StatusInProgress) {
		return fmt.Errorf("cannot start run in status %s", rs.Status)
	}
	rs.Status = StatusInProgress
	rs.StartedAt = &now
	rs.CompletedAt = nil
	rs.Notes = nil
	rs.FailureKind = FailureNone
	return nil
}

// Outcome is what a pipeline reports back after evaluating every unit.
type Outcome struct {
	TotalUnits          int
	PassedCount         int
	FailedCount         int
	TotalIssuesCount    int
	CriticalIssuesCount int
	AffectedEmployees   int
	// FailingIssues counts issues of severity Error or Critical; any of these
	// makes the run Failed.
	FailingIssues int
}

// IssueStat is the per-issue summary the tally needs.
type IssueStat struct {
	UnitID     uuid.UUID
	HasUnit    bool
	EmployeeID uuid.UUID
	Severity   Severity
}

// Tally computes the run outcome from the issue list. A unit with zero issues
// is passed; critical count covers severity Critical only, while Error already
// fails the run.
func Tally(totalUnits int, stats []IssueStat) Outcome {
	unitsWithIssues := make(map[uuid.UUID]struct{})
	employees := make(map[uuid.UUID]struct{})
	out := Outcome{TotalUnits: totalUnits, TotalIssuesCount: len(stats)}

	for _, st := range stats {
		if st.HasUnit {
			unitsWithIssues[st.UnitID] = struct{}{}
		}
		if st.EmployeeID != uuid.Nil {
			employees[st.EmployeeID] = struct{}{}
		}
		if st.Severity == SeverityCritical {
			out.CriticalIssuesCount++
		}
		if st.Severity.FailsRun() {
			out.FailingIssues++
		}
	}

	out.FailedCount = len(unitsWithIssues)
	out.PassedCount = totalUnits - out.FailedCount
	out.AffectedEmployees = len(employees)
	return out
}

// Complete finishes the run from a pipeline outcome. Issues of severity Error
// or Critical fail the run; Info/Warning-only runs still pass.
func (rs *RunState) Complete(out Outcome, now time.Time) error {
	target := StatusPassed
	if out.FailingIssues > 0 {
		target = StatusFailed
	}
	if !rs.Status.CanTransition(target) {
		return fmt.Errorf("cannot complete run in status %s", rs.Status)
	}

	rs.TotalUnits = out.TotalUnits
	rs.PassedCount = out.PassedCount
	rs.FailedCount = out.FailedCount
	rs.TotalIssuesCount = out.TotalIssuesCount
	rs.CriticalIssuesCount = out.CriticalIssuesCount
	rs.AffectedEmployees = out.AffectedEmployees
	rs.Status = target
	rs.CompletedAt = &now

	if target == StatusFailed {
		rs.FailureKind = FailureCompliance
		rs.Notes = safeNotes(fmt.Sprintf("Validation failed: %d issue(s) at Error severity or above", out.FailingIssues))
	}
	return nil
}

// FailExecution marks the run Failed because the engine itself faulted, not
// because the data failed compliance. These runs are retry-eligible.
func (rs *RunState) FailExecution(cause error, now time.Time) {
	rs.Status = StatusFailed
	rs.FailureKind = FailureExecution
	rs.CompletedAt = &now

	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	rs.Notes = safeNotes(ExecutionFailurePrefix + msg)
}

// Retryable reports whether the run may be re-executed automatically. A
// genuine compliance failure must not be silently retried and hidden.
func (rs *RunState) Retryable() bool {
	return rs.Status == StatusFailed && rs.FailureKind.Retryable()
}

// Abandoned reports whether an InProgress run has gone quiet past the stale
// threshold (e.g. the process died before it could mark the run Failed).
// Abandoned runs are reclaimed rather than blocking new runs forever.
func (rs *RunState) Abandoned(now time.Time, staleAfter time.Duration) bool {
	if rs.Status != StatusInProgress || rs.StartedAt == nil {
		return false
	}
	return now.Sub(*rs.StartedAt) > staleAfter
}

// BlocksNewRun reports whether this run prevents starting another run for the
// same period right now.
func (rs *RunState) BlocksNewRun(now time.Time, staleAfter time.Duration) bool {
	return rs.Status.Active() && !rs.Abandoned(now, staleAfter)
}

func (rs *RunState) DurationSeconds() *float64 {
	if rs.StartedAt == nil || rs.CompletedAt == nil {
		return nil
	}
	d := rs.CompletedAt.Sub(*rs.StartedAt).Seconds()
	return &d
}

func safeNotes(message string) *string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > maxNotesLength {
		trimmed = trimmed[:maxNotesLength]
	}
	return &trimmed
}
