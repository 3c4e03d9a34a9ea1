// Package rules defines compatibility rule implementations and the static
// table they register themselves into.
package rules

import (
	"sort"
	"sync"

	"github.com/yeren108/emt4j/internal/config"
	"github.com/yeren108/emt4j/internal/model"
)

// Well-known rule categories.
const (
	WholeClass    = "whole-class"
	TouchedMethod = "touched-method"
	VersionString = "version-string"
	JVMOption     = "jvm-option"
)

// Rule checks one compiled unit. Implementations must be safe for
// concurrent use; a single instance serves every worker in a run.
type Rule interface {
	Check(cfg config.CheckConfig, sym *model.ClassSymbol) []model.Finding
}

// OptionChecker is implemented by rules that also inspect runtime option
// files.
type OptionChecker interface {
	CheckOptions(cfg config.CheckConfig, options []string) []model.Finding
}

// Descriptor associates an implementation with its category and precedence.
// Lower Priority wins. Level is the issue level its findings carry (p1..p4).
type Descriptor struct {
	Type     string
	Priority int
	Level    string
	Name     string
	New      func() Rule
}

// Eligible reports whether d can take part in selection.
func (d Descriptor) Eligible() bool {
	return d.Type != "" && d.New != nil
}

var (
	mu    sync.Mutex
	table []Descriptor
)

// Register adds d to the process-wide table. It is meant to be called from
// init functions of rule packages.
func Register(d Descriptor) {
	mu.Lock()
	defer mu.Unlock()
	table = append(table, d)
}

// Registered returns a copy of the table sorted by type, priority, then name.
func Registered() []Descriptor {
	mu.Lock()
	out := make([]Descriptor, len(table))
	copy(out, table)
	mu.Unlock()
	Sort(out)
	return out
}

// Sort orders descriptors by type, priority, then name.
func Sort(ds []Descriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Type != ds[j].Type {
			return ds[i].Type < ds[j].Type
		}
		if ds[i].Priority != ds[j].Priority {
			return ds[i].Priority < ds[j].Priority
		}
		return ds[i].Name < ds[j].Name
	})
}
