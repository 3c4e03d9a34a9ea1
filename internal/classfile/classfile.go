// Package classfile decodes compiled class files into structural symbols.
package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

const magic = 0xCAFEBABE

// Supported major versions: Java 1.1 (45) through Java 25 (69).
const (
	MinMajorVersion = 45
	MaxMajorVersion = 69
)

var (
	ErrDecode             = errors.New("malformed class file")
	ErrTruncated          = fmt.Errorf("%w: truncated input", ErrDecode)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrDecode)
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

type constant struct {
	tag  byte
	a, b uint16
	str  string // Utf8 value or rendered numeric literal
}

// reader is a sticky-error big-endian cursor over class file bytes.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = ErrTruncated
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u1() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u2() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u4() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) u8() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

type member struct {
	name, desc string
	code       []byte
	lines      []lineEntry
	catchTypes []string
}

type lineEntry struct {
	pc, line uint16
}

// classFile is the subset of a decoded class file the extractor needs.
type classFile struct {
	major   uint16
	pool    []constant
	this    string
	super   string
	ifaces  []string
	fields  []member
	methods []member
}

func parse(data []byte) (*classFile, error) {
	r := &reader{buf: data}
	if r.u4() != magic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: bad magic", ErrDecode)
	}
	_ = r.u2() // minor
	cf := &classFile{major: r.u2()}
	if r.err != nil {
		return nil, r.err
	}
	if cf.major < MinMajorVersion || cf.major > MaxMajorVersion {
		return nil, fmt.Errorf("%w: major %d", ErrUnsupportedVersion, cf.major)
	}

	if err := cf.readPool(r); err != nil {
		return nil, err
	}

	_ = r.u2() // access flags
	thisIdx, superIdx := r.u2(), r.u2()
	if r.err != nil {
		return nil, r.err
	}
	var err error
	if cf.this, err = cf.className(thisIdx); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	if superIdx != 0 {
		if cf.super, err = cf.className(superIdx); err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
	}
	for n := r.u2(); n > 0; n-- {
		idx := r.u2()
		if r.err != nil {
			return nil, r.err
		}
		name, err := cf.className(idx)
		if err != nil {
			return nil, fmt.Errorf("interface: %w", err)
		}
		cf.ifaces = append(cf.ifaces, name)
	}
	if cf.fields, err = cf.readMembers(r, false); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	if cf.methods, err = cf.readMembers(r, true); err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}
	// Class-level attributes carry nothing the extractor consumes, but they
	// must still be well formed.
	cf.skipAttributes(r)
	if r.err != nil {
		return nil, r.err
	}
	return cf, nil
}

func (cf *classFile) readPool(r *reader) error {
	count := int(r.u2())
	if r.err != nil {
		return r.err
	}
	if count == 0 {
		return fmt.Errorf("%w: empty constant pool", ErrDecode)
	}
	cf.pool = make([]constant, count)
	for i := 1; i < count; i++ {
		c := constant{tag: r.u1()}
		switch c.tag {
		case tagUtf8:
			n := int(r.u2())
			c.str = string(r.take(n))
		case tagInteger:
			c.str = strconv.FormatInt(int64(int32(r.u4())), 10)
		case tagFloat:
			c.str = strconv.FormatFloat(float64(math.Float32frombits(r.u4())), 'g', -1, 32)
		case tagLong:
			c.str = strconv.FormatInt(int64(r.u8()), 10)
		case tagDouble:
			c.str = strconv.FormatFloat(math.Float64frombits(r.u8()), 'g', -1, 64)
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			c.a = r.u2()
			c.b = r.u2()
		case tagMethodHandle:
			c.a = uint16(r.u1())
			c.b = r.u2()
		default:
			if r.err != nil {
				return r.err
			}
			return fmt.Errorf("%w: unknown constant tag %d at index %d", ErrDecode, c.tag, i)
		}
		if r.err != nil {
			return r.err
		}
		cf.pool[i] = c
		if c.tag == tagLong || c.tag == tagDouble {
			i++ // 8-byte constants occupy two slots
		}
	}
	return nil
}

func (cf *classFile) entry(idx uint16, tag byte) (constant, error) {
	if idx == 0 || int(idx) >= len(cf.pool) {
		return constant{}, fmt.Errorf("%w: constant index %d out of range", ErrDecode, idx)
	}
	c := cf.pool[idx]
	if c.tag != tag {
		return constant{}, fmt.Errorf("%w: constant %d has tag %d, want %d", ErrDecode, idx, c.tag, tag)
	}
	return c, nil
}

func (cf *classFile) utf8(idx uint16) (string, error) {
	c, err := cf.entry(idx, tagUtf8)
	if err != nil {
		return "", err
	}
	return c.str, nil
}

func (cf *classFile) className(idx uint16) (string, error) {
	c, err := cf.entry(idx, tagClass)
	if err != nil {
		return "", err
	}
	return cf.utf8(c.a)
}

// methodRef resolves a Methodref or InterfaceMethodref to owner, name and descriptor.
func (cf *classFile) methodRef(idx uint16) (owner, name, desc string, err error) {
	if idx == 0 || int(idx) >= len(cf.pool) {
		return "", "", "", fmt.Errorf("%w: method ref %d out of range", ErrDecode, idx)
	}
	c := cf.pool[idx]
	if c.tag != tagMethodref && c.tag != tagInterfaceMethodref {
		return "", "", "", fmt.Errorf("%w: constant %d is not a method ref", ErrDecode, idx)
	}
	if owner, err = cf.className(c.a); err != nil {
		return "", "", "", err
	}
	nt, err := cf.entry(c.b, tagNameAndType)
	if err != nil {
		return "", "", "", err
	}
	if name, err = cf.utf8(nt.a); err != nil {
		return "", "", "", err
	}
	if desc, err = cf.utf8(nt.b); err != nil {
		return "", "", "", err
	}
	return owner, name, desc, nil
}

func (cf *classFile) readMembers(r *reader, methods bool) ([]member, error) {
	n := int(r.u2())
	out := make([]member, 0, n)
	for ; n > 0 && r.err == nil; n-- {
		_ = r.u2() // access flags
		nameIdx, descIdx := r.u2(), r.u2()
		if r.err != nil {
			return nil, r.err
		}
		var m member
		var err error
		if m.name, err = cf.utf8(nameIdx); err != nil {
			return nil, err
		}
		if m.desc, err = cf.utf8(descIdx); err != nil {
			return nil, err
		}
		for a := r.u2(); a > 0 && r.err == nil; a-- {
			attrIdx := r.u2()
			body := r.take(int(r.u4()))
			if r.err != nil {
				break
			}
			name, err := cf.utf8(attrIdx)
			if err != nil {
				return nil, err
			}
			if methods && name == "Code" {
				if err := cf.readCode(&m, body); err != nil {
					return nil, fmt.Errorf("%s%s: %w", m.name, m.desc, err)
				}
			}
		}
		out = append(out, m)
	}
	return out, r.err
}

func (cf *classFile) readCode(m *member, body []byte) error {
	r := &reader{buf: body}
	_ = r.u2() // max_stack
	_ = r.u2() // max_locals
	m.code = r.take(int(r.u4()))
	for n := r.u2(); n > 0 && r.err == nil; n-- {
		r.take(6) // start_pc, end_pc, handler_pc
		if idx := r.u2(); r.err == nil && idx != 0 {
			name, err := cf.className(idx)
			if err != nil {
				return err
			}
			m.catchTypes = append(m.catchTypes, name)
		}
	}
	for a := r.u2(); a > 0 && r.err == nil; a-- {
		attrIdx := r.u2()
		attr := r.take(int(r.u4()))
		if r.err != nil {
			break
		}
		name, err := cf.utf8(attrIdx)
		if err != nil {
			return err
		}
		if name != "LineNumberTable" {
			continue
		}
		lr := &reader{buf: attr}
		for k := lr.u2(); k > 0 && lr.err == nil; k-- {
			m.lines = append(m.lines, lineEntry{pc: lr.u2(), line: lr.u2()})
		}
		if lr.err != nil {
			return lr.err
		}
	}
	sort.SliceStable(m.lines, func(i, j int) bool { return m.lines[i].pc < m.lines[j].pc })
	return r.err
}

func (cf *classFile) skipAttributes(r *reader) {
	for a := r.u2(); a > 0 && r.err == nil; a-- {
		_ = r.u2()
		r.take(int(r.u4()))
	}
}
