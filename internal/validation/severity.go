package validation

import "fmt"

// Severity classifies how serious a compliance issue is. Persisted as a string;
// the database check constraint is a backstop, construction-time validation is
// the real guard.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityError    Severity = "Error"
	SeverityCritical Severity = "Critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityError:    3,
	SeverityCritical: 4,
}

func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast reports whether s is as severe as other or more so.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// FailsRun reports whether an issue of this severity makes the run Failed.
// Info and Warning issues are recorded but do not fail the run.
func (s Severity) FailsRun() bool {
	return s.AtLeast(SeverityError)
}

func (s Severity) String() string {
	return string(s)
}
