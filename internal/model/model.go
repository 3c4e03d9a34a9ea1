// Package model defines core data structures for the analysis pipeline.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// SourceKind identifies the variant of an AnalysisSource.
type SourceKind int

const (
	SingleClass SourceKind = iota + 1
	SingleArchive
	Directory
	OptionFile
	PriorAnalysisOutput
)

var kindNames = map[SourceKind]string{
	SingleClass:         "class",
	SingleArchive:       "jar",
	Directory:           "directory",
	OptionFile:          "options",
	PriorAnalysisOutput: "prior-output",
}

func (k SourceKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// SourceInformation carries identity metadata resolved from a manifest line.
// It is shared by every source produced from that line and never mutated.
type SourceInformation struct {
	Identifier   string
	IsDependency bool
	Extras       []string
}

// AnalysisSource is one unit of input.
type AnalysisSource struct {
	Kind SourceKind
	Path string
	Info *SourceInformation
}

// NeedsAnalysis reports whether the source must go through the executor.
// Prior analysis output is merged into reporting as is.
func (s AnalysisSource) NeedsAnalysis() bool {
	return s.Kind != PriorAnalysisOutput
}

// IsContainer reports whether the source holds several compiled units.
func (s AnalysisSource) IsContainer() bool {
	return s.Kind == SingleArchive || s.Kind == Directory
}

// Identity returns the manifest identifier when present, else the path.
func (s AnalysisSource) Identity() string {
	if s.Info != nil && s.Info.Identifier != "" {
		return s.Info.Identifier
	}
	return s.Path
}

// Method identifies an invoked method. Owner is a dotted type name. Desc is
// empty when the call was read from source and its descriptor is unknown.
type Method struct {
	Owner string
	Name  string
	Desc  string
}

func (m Method) String() string {
	return m.Owner + "." + m.Name + m.Desc
}

// Less orders methods by owner, then name, then descriptor.
func (m Method) Less(o Method) bool {
	if m.Owner != o.Owner {
		return m.Owner < o.Owner
	}
	if m.Name != o.Name {
		return m.Name < o.Name
	}
	return m.Desc < o.Desc
}

// ClassSymbol holds the structural facts extracted from one compiled unit.
// All slices are sorted and free of duplicates; CallLines lists call-site
// lines in the order the calls appear in the unit.
type ClassSymbol struct {
	ClassName string // internal form, e.g. com/acme/Foo
	Types     []string
	Calls     []Method
	CallLines map[Method][]int
	Constants []string
}

// HasType reports whether name (dotted form) is referenced by the unit.
func (c *ClassSymbol) HasType(name string) bool {
	i := sort.SearchStrings(c.Types, name)
	return i < len(c.Types) && c.Types[i] == name
}

// HasConstant reports whether the literal value is embedded in the unit.
func (c *ClassSymbol) HasConstant(value string) bool {
	i := sort.SearchStrings(c.Constants, value)
	return i < len(c.Constants) && c.Constants[i] == value
}

// HasCall reports whether m is invoked by the unit.
func (c *ClassSymbol) HasCall(m Method) bool {
	i := sort.Search(len(c.Calls), func(i int) bool { return !c.Calls[i].Less(m) })
	return i < len(c.Calls) && c.Calls[i] == m
}

// Validate checks that every line-mapped call is a known call and that
// every call owner is a known type.
func (c *ClassSymbol) Validate() error {
	for m := range c.CallLines {
		if !c.HasCall(m) {
			return fmt.Errorf("%s: line-mapped call %s missing from call set", c.ClassName, m)
		}
	}
	for _, m := range c.Calls {
		if !c.HasType(m.Owner) {
			return fmt.Errorf("%s: owner %s of %s missing from type set", c.ClassName, m.Owner, m)
		}
	}
	return nil
}

// DottedName converts an internal class name to its dotted form.
func DottedName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// Finding is one compatibility issue produced by a rule.
type Finding struct {
	Category string
	Level    string
	Target   string
	Message  string
	Lines    []int
}

// Record is one entry of the intermediate analysis stream.
type Record struct {
	Source    string
	Kind      SourceKind
	Info      *SourceInformation
	ClassName string
	Unit      string
	Findings  []Finding
	Err       string
}
