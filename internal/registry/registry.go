// Package registry selects exactly one rule implementation per category.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yeren108/emt4j/internal/rules"
)

// ErrAmbiguous is returned when two eligible descriptors of one category
// share the minimum priority.
var ErrAmbiguous = errors.New("ambiguous rule selection")

// ErrUnknownLevel is returned when a priority filter names a level that no
// registered rule carries.
var ErrUnknownLevel = errors.New("unknown issue level")

// Selected is the implementation chosen for one category.
type Selected struct {
	Descriptor rules.Descriptor
	Rule       rules.Rule
}

// Selection maps each category to its selected rule. It is built once per
// run and only read afterwards, so it is safe to share across goroutines.
type Selection struct {
	byType map[string]Selected
	order  []string
}

// Select groups eligible descriptors by type and keeps the one with the
// lowest priority value in each group. A tie on that value is a
// configuration error rather than an arbitrary pick.
func Select(descs []rules.Descriptor) (*Selection, error) {
	sorted := make([]rules.Descriptor, 0, len(descs))
	for _, d := range descs {
		if d.Eligible() {
			sorted = append(sorted, d)
		}
	}
	rules.Sort(sorted)

	s := &Selection{byType: make(map[string]Selected)}
	var conflicts []string
	for i := 0; i < len(sorted); {
		best := sorted[i]
		j := i + 1
		for j < len(sorted) && sorted[j].Type == best.Type {
			if sorted[j].Priority == best.Priority {
				conflicts = append(conflicts, fmt.Sprintf("%s: %s and %s both have priority %d",
					best.Type, best.Name, sorted[j].Name, best.Priority))
			}
			j++
		}
		s.byType[best.Type] = Selected{Descriptor: best, Rule: best.New()}
		s.order = append(s.order, best.Type)
		i = j
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, strings.Join(conflicts, "; "))
	}
	return s, nil
}

// Categories returns the selected categories in sorted order.
func (s *Selection) Categories() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the selection for a category.
func (s *Selection) Get(category string) (Selected, bool) {
	sel, ok := s.byType[category]
	return sel, ok
}

// Len returns the number of selected categories.
func (s *Selection) Len() int {
	return len(s.order)
}

// Filter returns a selection restricted to categories whose level is in
// levels. An empty levels list keeps everything.
func (s *Selection) Filter(levels []string) *Selection {
	if len(levels) == 0 {
		return s
	}
	keep := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		keep[strings.ToLower(l)] = struct{}{}
	}
	out := &Selection{byType: make(map[string]Selected)}
	for _, cat := range s.order {
		sel := s.byType[cat]
		if _, ok := keep[strings.ToLower(sel.Descriptor.Level)]; ok {
			out.byType[cat] = sel
			out.order = append(out.order, cat)
		}
	}
	return out
}

// CheckLevels reports every level in levels that no eligible descriptor in
// descs carries. A filter made only of such levels would select nothing.
func CheckLevels(descs []rules.Descriptor, levels []string) error {
	known := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		if d.Eligible() {
			known[strings.ToLower(d.Level)] = struct{}{}
		}
	}
	var unknown []string
	for _, l := range levels {
		if _, ok := known[strings.ToLower(l)]; !ok {
			unknown = append(unknown, l)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLevel, strings.Join(unknown, ", "))
	}
	return nil
}
