// Package builtin holds the rule implementations shipped with emt4j. Each
// file registers its rule from init; importing the package for side effects
// makes them available to registry selection.
package builtin

import (
	"sort"

	"github.com/yeren108/emt4j/internal/model"
)

// callLines returns the lines of every call accepted by match, in call order.
func callLines(sym *model.ClassSymbol, match func(model.Method) bool) []int {
	var lines []int
	for _, m := range sym.Calls {
		if match(m) {
			lines = append(lines, sym.CallLines[m]...)
		}
	}
	return lines
}

func sortedUnique(lines []int) []int {
	if len(lines) == 0 {
		return nil
	}
	sort.Ints(lines)
	out := lines[:1]
	for _, l := range lines[1:] {
		if l != out[len(out)-1] {
			out = append(out, l)
		}
	}
	return out
}
