package funnel

import (
	"fmt"
	"sort"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// StepMapping maps a step name to its position in the funnel.
type StepMapping map[string]int

// DefaultSteps returns the start -> step_1 -> step_2 -> step_3 -> confirm funnel.
func DefaultSteps() StepMapping {
	return StepMapping{
		"start":   0,
		"step_1":  1,
		"step_2":  2,
		"step_3":  3,
		"confirm": 4,
	}
}

// FromOrderNames builds a StepMapping from an order -> name table. A name
// listed under two orders is ambiguous and rejected.
func FromOrderNames(byOrder map[int]string) (StepMapping, error) {
	m := make(StepMapping, len(byOrder))
	for order, name := range byOrder {
		if prev, ok := m[name]; ok {
			return nil, fmt.Errorf("%w: step %q listed at orders %d and %d", dataset.ErrInvalidConfiguration, name, prev, order)
		}
		m[name] = order
	}
	return m, nil
}

// Validate rejects an empty mapping.
func (m StepMapping) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: step mapping is empty", dataset.ErrInvalidConfiguration)
	}
	return nil
}

// Ordered returns the step names sorted by order, then name.
func (m StepMapping) Ordered() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] == m[names[j]] {
			return names[i] < names[j]
		}
		return m[names[i]] < m[names[j]]
	})
	return names
}

// orderOf resolves the step cell of a row.
func (m StepMapping) orderOf(v dataset.Value) (int, error) {
	s, ok := v.AsText()
	if !ok {
		return 0, fmt.Errorf("%w: step %s", dataset.ErrUnmappedStepName, describe(v))
	}
	o, ok := m[s]
	if !ok {
		return 0, fmt.Errorf("%w: step %q", dataset.ErrUnmappedStepName, s)
	}
	return o, nil
}

func describe(v dataset.Value) string {
	if v.IsNull() {
		return "is null"
	}
	return fmt.Sprintf("%q is %s, not text", v.String(), v.Kind())
}
