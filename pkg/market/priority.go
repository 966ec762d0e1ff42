package market

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Priority is one of the five expansion criteria a user can select.
type Priority int

const (
	PriorityEVAdoption Priority = iota
	PriorityLowTariffs
	PriorityInfrastructure
	PriorityChinaSentiment
	PriorityMarketSize
)

// AllPriorities lists every priority in display order.
var AllPriorities = []Priority{
	PriorityEVAdoption,
	PriorityLowTariffs,
	PriorityInfrastructure,
	PriorityChinaSentiment,
	PriorityMarketSize,
}

var ErrUnknownPriority = errors.New("unknown priority")

// Label is the human readable name shown in selectors.
func (p Priority) Label() string {
	switch p {
	case PriorityEVAdoption:
		return "EV Adoption"
	case PriorityLowTariffs:
		return "Low Import Tariffs"
	case PriorityInfrastructure:
		return "Strong Infrastructure"
	case PriorityChinaSentiment:
		return "Positive China Sentiment"
	case PriorityMarketSize:
		return "Market Size"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Slug is the identifier used in flags, query strings and tool arguments.
func (p Priority) Slug() string {
	return strings.ReplaceAll(strings.ToLower(p.Label()), " ", "-")
}

func (p Priority) String() string { return p.Label() }

// Attribute returns the column whose coefficient p switches on.
func (p Priority) Attribute() Attribute {
	switch p {
	case PriorityEVAdoption:
		return AttrEVAdoption
	case PriorityLowTariffs:
		return AttrTariffs
	case PriorityInfrastructure:
		return AttrChargingStations
	case PriorityChinaSentiment:
		return AttrChinaSentiment
	case PriorityMarketSize:
		return AttrMarketSize
	}
	panic(fmt.Sprintf("market: no attribute for %d", int(p)))
}

// ParsePriority accepts either the label ("Low Import Tariffs") or the slug
// ("low-import-tariffs"), case-insensitively.
func ParsePriority(s string) (Priority, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, p := range AllPriorities {
		if needle == strings.ToLower(p.Label()) || needle == p.Slug() {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPriority, s)
}

// Selection is a set of selected priorities.
type Selection map[Priority]struct{}

// NewSelection builds a set from the given priorities.
func NewSelection(ps ...Priority) Selection {
	sel := make(Selection, len(ps))
	for _, p := range ps {
		sel[p] = struct{}{}
	}
	return sel
}

// ParseSelection parses every name; the first unknown name aborts with an error.
// Empty strings are skipped so that "a,,b" style input is accepted.
func ParseSelection(names []string) (Selection, error) {
	sel := make(Selection, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		p, err := ParsePriority(n)
		if err != nil {
			return nil, err
		}
		sel[p] = struct{}{}
	}
	return sel, nil
}

// Has reports whether p is selected.
func (s Selection) Has(p Priority) bool {
	_, ok := s[p]
	return ok
}

// Ordered returns the selected priorities in display order.
func (s Selection) Ordered() []Priority {
	out := make([]Priority, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Attributes returns the columns of the selected priorities in display order.
func (s Selection) Attributes() []Attribute {
	ordered := s.Ordered()
	out := make([]Attribute, 0, len(ordered))
	for _, p := range ordered {
		out = append(out, p.Attribute())
	}
	return out
}

// Slugs returns the selected slugs in display order.
func (s Selection) Slugs() []string {
	ordered := s.Ordered()
	out := make([]string, 0, len(ordered))
	for _, p := range ordered {
		out = append(out, p.Slug())
	}
	return out
}
