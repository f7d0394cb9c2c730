package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Severity is the numeric position of a warning level within the hierarchy.
// Higher values mean more severe conditions; negative values are reserved for
// sentinel levels.
type Severity int

// Severity values of the default ASAP warning hierarchy.
const (
	SeverityNoCropOrRangeland Severity = -2
	SeverityOffSeason         Severity = -1
	SeverityNoWarning         Severity = 0
	SeverityWatch             Severity = 1
	SeverityAdvisory          Severity = 2
	SeverityAlert             Severity = 3
	SeverityEmergency         Severity = 4
)

// Level is one rung of a warning scale: the canonical label, its numeric
// severity, and whether it is a sentinel. Sentinel populations count toward
// monthly totals but are excluded from cumulative threshold sums.
type Level struct {
	Label    string
	Value    Severity
	Sentinel bool
}

// Scale maps categorical warning labels to ordered severity values. Lookups
// are case-insensitive and ignore leading, trailing, and repeated whitespace.
// A Scale is immutable after construction and safe for concurrent use.
type Scale struct {
	levels  []Level
	byLabel map[string]Severity
	byValue map[Severity]Level
}

// NewScale builds a Scale from the given levels. It rejects empty level sets,
// empty labels, duplicate severity values, and labels that collide after
// normalization.
func NewScale(levels []Level) (*Scale, error) {
	if len(levels) == 0 {
		return nil, errors.New("scale requires at least one level")
	}

	s := &Scale{
		levels:  make([]Level, len(levels)),
		byLabel: make(map[string]Severity, len(levels)),
		byValue: make(map[Severity]Level, len(levels)),
	}
	copy(s.levels, levels)
	sort.Slice(s.levels, func(i, j int) bool { return s.levels[i].Value < s.levels[j].Value })

	for _, l := range s.levels {
		key := normalizeLabel(l.Label)
		if key == "" {
			return nil, fmt.Errorf("severity %d has an empty label", l.Value)
		}
		if prev, dup := s.byLabel[key]; dup {
			return nil, fmt.Errorf("labels %q and %q collide after normalization", s.byValue[prev].Label, l.Label)
		}
		if _, dup := s.byValue[l.Value]; dup {
			return nil, fmt.Errorf("duplicate severity value %d", l.Value)
		}
		s.byLabel[key] = l.Value
		s.byValue[l.Value] = l
	}
	return s, nil
}

// DefaultScale returns the seven-level ASAP warning hierarchy described in
// the package documentation.
func DefaultScale() *Scale {
	s, err := NewScale([]Level{
		{Label: "No crop or rangeland", Value: SeverityNoCropOrRangeland, Sentinel: true},
		{Label: "Off season", Value: SeverityOffSeason, Sentinel: true},
		{Label: "No warning", Value: SeverityNoWarning},
		{Label: "Watch", Value: SeverityWatch},
		{Label: "Advisory", Value: SeverityAdvisory},
		{Label: "Alert", Value: SeverityAlert},
		{Label: "Emergency", Value: SeverityEmergency},
	})
	if err != nil {
		panic(err) // the built-in level set is statically valid
	}
	return s
}

// Map resolves a warning label to its severity value. Labels absent from the
// scale return an *UnmappedLabelError.
func (s *Scale) Map(label string) (Severity, error) {
	v, ok := s.byLabel[normalizeLabel(label)]
	if !ok {
		return 0, &UnmappedLabelError{Label: label}
	}
	return v, nil
}

// Levels returns the scale's levels in ascending severity order.
func (s *Scale) Levels() []Level {
	out := make([]Level, len(s.levels))
	copy(out, s.levels)
	return out
}

// Level returns the definition for a severity value, if the scale has one.
func (s *Scale) Level(v Severity) (Level, bool) {
	l, ok := s.byValue[v]
	return l, ok
}

// normalizeLabel lowercases a label and collapses whitespace runs, so
// "  No  Warning " and "no warning" share one lookup key.
func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
