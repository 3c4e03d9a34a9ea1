// Package classtest assembles minimal class files for tests.
package classtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Call is one invocation emitted into a method body. Line 0 means the call
// gets no LineNumberTable entry.
type Call struct {
	Owner     string // internal name, e.g. java/lang/Thread
	Name      string
	Desc      string
	Line      int
	Static    bool
	Interface bool
}

type method struct {
	name, desc string
	calls      []Call
}

type field struct {
	name, desc string
}

// Builder accumulates the pieces of a class file.
type Builder struct {
	name    string
	super   string
	ifaces  []string
	major   uint16
	pool    bytes.Buffer
	slots   uint16
	index   map[string]uint16
	fields  []field
	methods []method
}

// New starts a class extending java/lang/Object at major version 52 (Java 8).
func New(internalName string) *Builder {
	return &Builder{
		name:  internalName,
		super: "java/lang/Object",
		major: 52,
		slots: 1,
		index: make(map[string]uint16),
	}
}

// Major sets the class file major version.
func (b *Builder) Major(v uint16) *Builder {
	b.major = v
	return b
}

// Super sets the superclass; empty means none.
func (b *Builder) Super(name string) *Builder {
	b.super = name
	return b
}

func (b *Builder) Implements(name string) *Builder {
	b.ifaces = append(b.ifaces, name)
	return b
}

// String adds a string literal constant.
func (b *Builder) String(s string) *Builder {
	b.stringConst(s)
	return b
}

// Int adds an integer literal constant.
func (b *Builder) Int(v int32) *Builder {
	b.intern(fmt.Sprintf("I:%d", v), 1, func(w *bytes.Buffer) {
		w.WriteByte(3)
		_ = binary.Write(w, binary.BigEndian, v)
	})
	return b
}

// Double adds a double literal constant.
func (b *Builder) Double(v float64) *Builder {
	b.intern(fmt.Sprintf("D:%v", v), 2, func(w *bytes.Buffer) {
		w.WriteByte(6)
		_ = binary.Write(w, binary.BigEndian, math.Float64bits(v))
	})
	return b
}

// Field declares a field.
func (b *Builder) Field(name, desc string) *Builder {
	b.fields = append(b.fields, field{name, desc})
	return b
}

// Method declares a method whose body performs calls in order then returns.
func (b *Builder) Method(name, desc string, calls ...Call) *Builder {
	b.methods = append(b.methods, method{name, desc, calls})
	return b
}

// Bytes renders the class file.
func (b *Builder) Bytes() []byte {
	this := b.class(b.name)
	var super uint16
	if b.super != "" {
		super = b.class(b.super)
	}
	ifaces := make([]uint16, len(b.ifaces))
	for i, n := range b.ifaces {
		ifaces[i] = b.class(n)
	}

	var body bytes.Buffer
	put := func(v any) { _ = binary.Write(&body, binary.BigEndian, v) }

	put(uint16(0x0021)) // public super
	put(this)
	put(super)
	put(uint16(len(ifaces)))
	for _, i := range ifaces {
		put(i)
	}

	put(uint16(len(b.fields)))
	for _, f := range b.fields {
		put(uint16(0x0002))
		put(b.utf8(f.name))
		put(b.utf8(f.desc))
		put(uint16(0))
	}

	put(uint16(len(b.methods)))
	for _, m := range b.methods {
		put(uint16(0x0001))
		put(b.utf8(m.name))
		put(b.utf8(m.desc))
		put(uint16(1))
		code := b.code(m)
		put(b.utf8("Code"))
		put(uint32(len(code)))
		body.Write(code)
	}
	put(uint16(0)) // class attributes

	var out bytes.Buffer
	w := func(v any) { _ = binary.Write(&out, binary.BigEndian, v) }
	w(uint32(0xCAFEBABE))
	w(uint16(0))
	w(b.major)
	w(b.slots)
	out.Write(b.pool.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

func (b *Builder) code(m method) []byte {
	var insns bytes.Buffer
	type line struct{ pc, line uint16 }
	var lines []line
	for _, c := range m.calls {
		ref := b.methodRef(c)
		pc := uint16(insns.Len())
		if c.Line > 0 {
			lines = append(lines, line{pc, uint16(c.Line)})
		}
		switch {
		case c.Interface:
			insns.WriteByte(0xb9)
			_ = binary.Write(&insns, binary.BigEndian, ref)
			insns.Write([]byte{1, 0})
		case c.Static:
			insns.WriteByte(0xb8)
			_ = binary.Write(&insns, binary.BigEndian, ref)
		default:
			insns.WriteByte(0xb6)
			_ = binary.Write(&insns, binary.BigEndian, ref)
		}
	}
	insns.WriteByte(0xb1) // return

	var attr bytes.Buffer
	put := func(v any) { _ = binary.Write(&attr, binary.BigEndian, v) }
	put(uint16(4)) // max_stack
	put(uint16(4)) // max_locals
	put(uint32(insns.Len()))
	attr.Write(insns.Bytes())
	put(uint16(0)) // exception table
	if len(lines) == 0 {
		put(uint16(0))
		return attr.Bytes()
	}
	put(uint16(1))
	put(b.utf8("LineNumberTable"))
	put(uint32(2 + 4*len(lines)))
	put(uint16(len(lines)))
	for _, l := range lines {
		put(l.pc)
		put(l.line)
	}
	return attr.Bytes()
}

func (b *Builder) intern(key string, width uint16, write func(*bytes.Buffer)) uint16 {
	if idx, ok := b.index[key]; ok {
		return idx
	}
	idx := b.slots
	write(&b.pool)
	b.slots += width
	b.index[key] = idx
	return idx
}

func (b *Builder) utf8(s string) uint16 {
	return b.intern("U:"+s, 1, func(w *bytes.Buffer) {
		w.WriteByte(1)
		_ = binary.Write(w, binary.BigEndian, uint16(len(s)))
		w.WriteString(s)
	})
}

func (b *Builder) class(name string) uint16 {
	n := b.utf8(name)
	return b.intern("C:"+name, 1, func(w *bytes.Buffer) {
		w.WriteByte(7)
		_ = binary.Write(w, binary.BigEndian, n)
	})
}

func (b *Builder) stringConst(s string) uint16 {
	n := b.utf8(s)
	return b.intern("S:"+s, 1, func(w *bytes.Buffer) {
		w.WriteByte(8)
		_ = binary.Write(w, binary.BigEndian, n)
	})
}

func (b *Builder) methodRef(c Call) uint16 {
	owner := b.class(c.Owner)
	name := b.utf8(c.Name)
	desc := b.utf8(c.Desc)
	nt := b.intern("N:"+c.Name+c.Desc, 1, func(w *bytes.Buffer) {
		w.WriteByte(12)
		_ = binary.Write(w, binary.BigEndian, name)
		_ = binary.Write(w, binary.BigEndian, desc)
	})
	tag := byte(10)
	if c.Interface {
		tag = 11
	}
	return b.intern(fmt.Sprintf("M%d:%s.%s%s", tag, c.Owner, c.Name, c.Desc), 1, func(w *bytes.Buffer) {
		w.WriteByte(tag)
		_ = binary.Write(w, binary.BigEndian, owner)
		_ = binary.Write(w, binary.BigEndian, nt)
	})
}
