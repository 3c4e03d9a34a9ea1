package classfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yeren108/emt4j/internal/model"
)

// Extract decodes one compiled unit into a ClassSymbol. The result depends
// only on data: sets are sorted and call lines follow bytecode order, methods
// in declaration order.
func Extract(data []byte) (*model.ClassSymbol, error) {
	cf, err := parse(data)
	if err != nil {
		return nil, err
	}

	c := newCollector()
	c.addInternal(cf.this)
	if cf.super != "" {
		c.addInternal(cf.super)
	}
	for _, name := range cf.ifaces {
		c.addInternal(name)
	}

	for i := 1; i < len(cf.pool); i++ {
		e := cf.pool[i]
		switch e.tag {
		case tagClass:
			name, err := cf.utf8(e.a)
			if err != nil {
				return nil, err
			}
			c.addInternal(name)
		case tagNameAndType:
			desc, err := cf.utf8(e.b)
			if err != nil {
				return nil, err
			}
			c.addDescriptor(desc)
		case tagMethodType:
			desc, err := cf.utf8(e.a)
			if err != nil {
				return nil, err
			}
			c.addDescriptor(desc)
		case tagString:
			s, err := cf.utf8(e.a)
			if err != nil {
				return nil, err
			}
			c.constants[s] = struct{}{}
		case tagInteger, tagFloat, tagLong, tagDouble:
			c.constants[e.str] = struct{}{}
		}
	}

	for _, f := range cf.fields {
		c.addDescriptor(f.desc)
	}
	for _, m := range cf.methods {
		c.addDescriptor(m.desc)
		for _, t := range m.catchTypes {
			c.addInternal(t)
		}
		sites, err := scanInvocations(m.code)
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", m.name, m.desc, err)
		}
		for _, site := range sites {
			owner, name, desc, err := cf.methodRef(site.ref)
			if err != nil {
				return nil, fmt.Errorf("%s%s pc %d: %w", m.name, m.desc, site.pc, err)
			}
			c.addCall(model.Method{Owner: model.DottedName(owner), Name: name, Desc: desc}, lineFor(m.lines, site.pc))
		}
	}

	return c.symbol(cf.this), nil
}

type collector struct {
	types     map[string]struct{}
	constants map[string]struct{}
	lines     map[model.Method][]int
}

func newCollector() *collector {
	return &collector{
		types:     make(map[string]struct{}),
		constants: make(map[string]struct{}),
		lines:     make(map[model.Method][]int),
	}
}

// addInternal records an internal class name, unwrapping array descriptors.
func (c *collector) addInternal(name string) {
	if strings.HasPrefix(name, "[") {
		c.addDescriptor(name)
		return
	}
	if name != "" {
		c.types[model.DottedName(name)] = struct{}{}
	}
}

// addDescriptor records every object type named in a field or method descriptor.
func (c *collector) addDescriptor(desc string) {
	for i := 0; i < len(desc); i++ {
		if desc[i] != 'L' {
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			return
		}
		c.addInternal(desc[i+1 : i+end])
		i += end
	}
}

// addCall records a call site. line is 0 when no line table covers the site,
// in which case the method is known but gets no line.
func (c *collector) addCall(m model.Method, line int) {
	c.types[m.Owner] = struct{}{}
	lines, ok := c.lines[m]
	if !ok {
		lines = []int{}
	}
	if line > 0 {
		lines = append(lines, line)
	}
	c.lines[m] = lines
}

func (c *collector) symbol(className string) *model.ClassSymbol {
	sym := &model.ClassSymbol{
		ClassName: className,
		Types:     sortedKeys(c.types),
		Constants: sortedKeys(c.constants),
		Calls:     make([]model.Method, 0, len(c.lines)),
		CallLines: c.lines,
	}
	for m := range c.lines {
		sym.Calls = append(sym.Calls, m)
	}
	sort.Slice(sym.Calls, func(i, j int) bool { return sym.Calls[i].Less(sym.Calls[j]) })
	return sym
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
