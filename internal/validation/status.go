package validation

import "fmt"

// Status is the run state machine: Pending -> InProgress -> {Passed, Failed}.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusPassed     Status = "Passed"
	StatusFailed     Status = "Failed"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown validation status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPassed, StatusFailed:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// Active reports whether a run in this status blocks starting another run for
// the same period.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusInProgress
}

// CanTransition enforces the legal state machine edges. Terminal states are
// never left; re-running a period creates a fresh run instead.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusInProgress || to == StatusFailed
	case StatusInProgress:
		return to == StatusPassed || to == StatusFailed
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// FailureKind distinguishes why a run ended Failed. The data failed compliance
// (real issues found) or the engine itself crashed mid-run. Only execution
// failures are eligible for automatic retry.
type FailureKind string

const (
	FailureNone       FailureKind = "None"
	FailureCompliance FailureKind = "Compliance"
	FailureExecution  FailureKind = "Execution"
)

func ParseFailureKind(s string) (FailureKind, error) {
	fk := FailureKind(s)
	if !fk.Valid() {
		return "", fmt.Errorf("unknown failure kind %q", s)
	}
	return fk, nil
}

func (k FailureKind) Valid() bool {
	switch k {
	case FailureNone, FailureCompliance, FailureExecution:
		return true
	}
	return false
}

func (k FailureKind) Retryable() bool {
	return k == FailureExecution
}

func (k FailureKind) String() string {
	return string(k)
}
