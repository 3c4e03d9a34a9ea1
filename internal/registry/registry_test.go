package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeren108/emt4j/internal/config"
	"github.com/yeren108/emt4j/internal/model"
	"github.com/yeren108/emt4j/internal/rules"
)

type namedRule string

func (namedRule) Check(config.CheckConfig, *model.ClassSymbol) []model.Finding { return nil }

func desc(typ string, prio int, name, level string) rules.Descriptor {
	return rules.Descriptor{
		Type:     typ,
		Priority: prio,
		Level:    level,
		Name:     name,
		New:      func() rules.Rule { return namedRule(name) },
	}
}

func TestSelectLowestPriorityWins(t *testing.T) {
	t.Parallel()

	sel, err := Select([]rules.Descriptor{
		desc("A", 5, "a5", "p1"),
		desc("A", 1, "a1", "p1"),
		desc("B", 3, "b3", "p2"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, sel.Categories())
	a, ok := sel.Get("A")
	require.True(t, ok)
	assert.Equal(t, 1, a.Descriptor.Priority)
	assert.Equal(t, namedRule("a1"), a.Rule)

	b, ok := sel.Get("B")
	require.True(t, ok)
	assert.Equal(t, namedRule("b3"), b.Rule)
}

func TestSelectIndependentOfInputOrder(t *testing.T) {
	t.Parallel()

	descs := []rules.Descriptor{
		desc("touched-method", 2, "t2", "p1"),
		desc("whole-class", 0, "w0", "p1"),
		desc("touched-method", 0, "t0", "p1"),
		desc("whole-class", 9, "w9", "p1"),
	}
	first, err := Select(descs)
	require.NoError(t, err)

	reversed := make([]rules.Descriptor, len(descs))
	for i, d := range descs {
		reversed[len(descs)-1-i] = d
	}
	second, err := Select(reversed)
	require.NoError(t, err)

	for _, cat := range first.Categories() {
		x, _ := first.Get(cat)
		y, _ := second.Get(cat)
		assert.Equal(t, x.Descriptor.Name, y.Descriptor.Name, cat)
	}
}

func TestSelectTieIsAnError(t *testing.T) {
	t.Parallel()

	_, err := Select([]rules.Descriptor{
		desc("A", 1, "first", "p1"),
		desc("A", 1, "second", "p1"),
		desc("A", 4, "other", "p1"),
	})
	require.ErrorIs(t, err, ErrAmbiguous)
	assert.Contains(t, err.Error(), "first and second")

	// A tie above the minimum does not matter.
	_, err = Select([]rules.Descriptor{
		desc("A", 0, "best", "p1"),
		desc("A", 3, "x", "p1"),
		desc("A", 3, "y", "p1"),
	})
	assert.NoError(t, err)
}

func TestSelectSkipsIneligible(t *testing.T) {
	t.Parallel()

	sel, err := Select([]rules.Descriptor{
		{Type: "", Priority: 0, Name: "untyped", New: func() rules.Rule { return namedRule("x") }},
		{Type: "A", Priority: 0, Name: "no-handle"},
		desc("A", 7, "real", "p1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Len())
	a, _ := sel.Get("A")
	assert.Equal(t, "real", a.Descriptor.Name)
}

func TestFilterByLevel(t *testing.T) {
	t.Parallel()

	sel, err := Select([]rules.Descriptor{
		desc("A", 0, "a", "p1"),
		desc("B", 0, "b", "p2"),
		desc("C", 0, "c", "P3"),
	})
	require.NoError(t, err)

	assert.Same(t, sel, sel.Filter(nil))
	assert.Equal(t, []string{"A", "C"}, sel.Filter([]string{"p1", "p3"}).Categories())
	assert.Equal(t, 0, sel.Filter([]string{"p4"}).Len())
}

func TestCheckLevels(t *testing.T) {
	t.Parallel()

	descs := []rules.Descriptor{
		desc("A", 0, "a", "p1"),
		desc("B", 0, "b", "P2"),
		{Type: "C", Level: "p3", Name: "no-handle"},
	}
	require.NoError(t, CheckLevels(descs, nil))
	require.NoError(t, CheckLevels(descs, []string{"p1", "p2"}))

	err := CheckLevels(descs, []string{"p1", "p9", "p3"})
	require.ErrorIs(t, err, ErrUnknownLevel)
	assert.Contains(t, err.Error(), "p9, p3")
}
