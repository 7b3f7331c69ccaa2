package validation

import (
	"sort"
	"strings"
)

// CheckSet records which checks actually ran for a validation. Not all checks
// are always enabled, so the run must remember its own coverage. Serialized as
// a comma-separated list, e.g.
// "MealBreak,MinimumShiftHours,RestPeriodBetweenShifts".
type CheckSet struct {
	names map[string]struct{}
}

func NewCheckSet(names ...string) CheckSet {
	cs := CheckSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			cs.names[n] = struct{}{}
		}
	}
	return cs
}

// ParseCheckSet reads back the serialized form. Unknown names are kept: the
// set must round-trip records written by newer versions.
func ParseCheckSet(s string) CheckSet {
	if strings.TrimSpace(s) == "" {
		return NewCheckSet()
	}
	return NewCheckSet(strings.Split(s, ",")...)
}

func (cs CheckSet) Contains(name string) bool {
	_, ok := cs.names[name]
	return ok
}

func (cs CheckSet) Len() int {
	return len(cs.names)
}

func (cs CheckSet) Names() []string {
	out := make([]string, 0, len(cs.names))
	for n := range cs.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (cs CheckSet) String() string {
	return strings.Join(cs.Names(), ",")
}
