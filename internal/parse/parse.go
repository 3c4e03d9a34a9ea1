// Package parse extracts class symbols from Java source files using
// tree-sitter. It is a best-effort companion to the class file decoder for
// trees that ship sources without compiled output.
package parse

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/yeren108/emt4j/internal/lang"
	"github.com/yeren108/emt4j/internal/model"
)

// Extractor turns source files of one language into symbols. It is safe for
// concurrent use; parsers are pooled because a single one is not.
type Extractor struct {
	query   *sitter.Query
	parsers sync.Pool
}

// NewExtractor prepares an extractor for l.
func NewExtractor(l *lang.Language) (*Extractor, error) {
	q, err := l.GetSymbolQuery()
	if err != nil {
		return nil, err
	}
	e := &Extractor{query: q}
	e.parsers.New = func() any { return l.NewParser() }
	return e, nil
}

// Extract parses source and returns its symbol. path names the file and is
// used when the source declares no type.
func (e *Extractor) Extract(ctx context.Context, source []byte, path string) (*model.ClassSymbol, error) {
	p := e.parsers.Get().(*sitter.Parser)
	defer e.parsers.Put(p)
	return ExtractSymbol(ctx, p, e.query, source, path)
}

// javaLang lists java.lang types that rules care about and that source
// refers to without an import.
var javaLang = map[string]bool{
	"Object": true, "String": true, "System": true, "Runtime": true,
	"Thread": true, "ThreadGroup": true, "SecurityManager": true,
	"ClassLoader": true, "Class": true, "Integer": true, "Long": true,
	"Double": true, "Float": true, "Boolean": true, "Math": true,
	"StringBuilder": true, "Process": true,
}

type call struct {
	receiver *sitter.Node
	name     string
	line     int
}

type file struct {
	source   []byte
	pkg      string
	declared []string
	imports  map[string]string
	vars     map[string]string
	calls    []call
	newTypes []*sitter.Node
	strings  []string

	types map[string]struct{}
	order []model.Method
	lines map[model.Method][]int
}

// ExtractSymbol parses source with parser and collects the captures of
// query into a symbol. Calls whose receiver type cannot be resolved are
// not recorded; the descriptor of source-level calls is unknown and left
// empty.
func ExtractSymbol(ctx context.Context, parser *sitter.Parser, query *sitter.Query, source []byte, path string) (*model.ClassSymbol, error) {
	if len(source) == 0 {
		return nil, errors.New("empty source")
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	f := &file{
		source:  source,
		imports: make(map[string]string),
		vars:    make(map[string]string),
		types:   make(map[string]struct{}),
		lines:   make(map[model.Method][]int),
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)
		f.collect(query, match)
	}

	return f.symbol(path), nil
}

func (f *file) collect(query *sitter.Query, match *sitter.QueryMatch) {
	caps := make(map[string]*sitter.Node, len(match.Captures))
	for _, c := range match.Captures {
		caps[query.CaptureNameForId(c.Index)] = c.Node
	}

	switch {
	case caps["package"] != nil:
		f.pkg = lang.NodeText(caps["package"], f.source)
	case caps["import"] != nil:
		name := lang.NodeText(caps["import"], f.source)
		decl := lang.NodeText(caps["import.decl"], f.source)
		if strings.Contains(decl, "*") {
			return
		}
		if strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(decl, "import")), "static") {
			// The imported member's owner is the referenced type.
			if i := strings.LastIndexByte(name, '.'); i > 0 {
				f.types[name[:i]] = struct{}{}
			}
			return
		}
		f.imports[simpleName(name)] = name
	case caps["definition.class"] != nil:
		f.declared = append(f.declared, lang.NodeText(caps["name"], f.source))
	case caps["reference.call"] != nil:
		name := caps["name"]
		f.calls = append(f.calls, call{
			receiver: caps["receiver"],
			name:     lang.NodeText(name, f.source),
			line:     int(name.StartPoint().Row) + 1,
		})
	case caps["reference.new"] != nil:
		f.newTypes = append(f.newTypes, caps["type"])
	case caps["var"] != nil:
		if typ := f.typeName(caps["type"]); typ != "" {
			f.vars[lang.NodeText(caps["var"], f.source)] = typ
		}
	case caps["string"] != nil:
		f.strings = append(f.strings, unquote(lang.NodeText(caps["string"], f.source)))
	}
}

// typeName returns the written name of a type node, unwrapping generics and
// arrays. Primitive types yield "".
func (f *file) typeName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "type_identifier", "scoped_type_identifier":
		return lang.NodeText(n, f.source)
	case "generic_type", "array_type", "annotated_type":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if name := f.typeName(n.NamedChild(i)); name != "" {
				return name
			}
		}
	}
	return ""
}

// resolve maps a written type name to its dotted form, or "" when the name
// cannot be resolved from the file alone.
func (f *file) resolve(name string) string {
	if name == "" {
		return ""
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		if head := name[:i]; f.imports[head] != "" {
			return f.imports[head] + name[i:]
		}
		if isLower(name) {
			return name
		}
	}
	if full, ok := f.imports[name]; ok {
		return full
	}
	for _, d := range f.declared {
		if d == name {
			return f.qualify(name)
		}
	}
	if javaLang[name] {
		return "java.lang." + name
	}
	return ""
}

func (f *file) qualify(name string) string {
	if f.pkg == "" {
		return name
	}
	return f.pkg + "." + name
}

// receiverType resolves the static type of a call receiver.
func (f *file) receiverType(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	text := lang.NodeText(n, f.source)
	switch n.Type() {
	case "this":
		if len(f.declared) > 0 {
			return f.qualify(f.declared[0])
		}
	case "identifier":
		if typ, ok := f.vars[text]; ok {
			return f.resolve(typ)
		}
		return f.resolve(text)
	case "field_access", "scoped_identifier":
		if field, ok := strings.CutPrefix(text, "this."); ok {
			return f.resolve(f.vars[field])
		}
		head, _, _ := strings.Cut(text, ".")
		if _, ok := f.vars[head]; ok {
			return ""
		}
		return f.resolve(text)
	case "object_creation_expression":
		return f.resolve(f.typeName(n.ChildByFieldName("type")))
	}
	return ""
}

func (f *file) addCall(m model.Method, line int) {
	f.types[m.Owner] = struct{}{}
	if _, ok := f.lines[m]; !ok {
		f.order = append(f.order, m)
		f.lines[m] = []int{}
	}
	f.lines[m] = append(f.lines[m], line)
}

func (f *file) symbol(path string) *model.ClassSymbol {
	for _, d := range f.declared {
		f.types[f.qualify(d)] = struct{}{}
	}
	for _, full := range f.imports {
		f.types[full] = struct{}{}
	}
	for _, typ := range f.vars {
		if full := f.resolve(typ); full != "" {
			f.types[full] = struct{}{}
		}
	}
	for _, n := range f.newTypes {
		if full := f.resolve(f.typeName(n)); full != "" {
			f.types[full] = struct{}{}
		}
	}
	for _, c := range f.calls {
		if owner := f.receiverType(c.receiver); owner != "" {
			f.addCall(model.Method{Owner: owner, Name: c.name}, c.line)
		}
	}

	consts := make(map[string]struct{}, len(f.strings))
	for _, s := range f.strings {
		consts[s] = struct{}{}
	}

	calls := make([]model.Method, len(f.order))
	copy(calls, f.order)
	sort.Slice(calls, func(i, j int) bool { return calls[i].Less(calls[j]) })

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(f.declared) > 0 {
		name = f.declared[0]
	}
	if f.pkg != "" {
		name = f.pkg + "." + name
	}

	return &model.ClassSymbol{
		ClassName: strings.ReplaceAll(name, ".", "/"),
		Types:     sortedKeys(f.types),
		Calls:     calls,
		CallLines: f.lines,
		Constants: sortedKeys(consts),
	}
}

func simpleName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// isLower reports whether a dotted name starts with a lower-case segment,
// as fully qualified names do.
func isLower(name string) bool {
	return name != "" && name[0] >= 'a' && name[0] <= 'z'
}

func unquote(lit string) string {
	if len(lit) >= 2 && lit[0] == '"' && lit[len(lit)-1] == '"' {
		return lit[1 : len(lit)-1]
	}
	return lit
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
