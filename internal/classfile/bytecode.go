package classfile

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const (
	opTableswitch     = 0xaa
	opLookupswitch    = 0xab
	opInvokevirtual   = 0xb6
	opInvokespecial   = 0xb7
	opInvokestatic    = 0xb8
	opInvokeinterface = 0xb9
	opInvokedynamic   = 0xba
	opWide            = 0xc4
	opIinc            = 0x84
)

// opLength holds the fixed length of each opcode including its operands.
// Zero marks an opcode that is either variable-length or invalid.
var opLength [256]uint8

func init() {
	set := func(from, to int, n uint8) {
		for op := from; op <= to; op++ {
			opLength[op] = n
		}
	}
	set(0x00, 0x0f, 1) // nop .. dconst_1
	set(0x10, 0x10, 2) // bipush
	set(0x11, 0x11, 3) // sipush
	set(0x12, 0x12, 2) // ldc
	set(0x13, 0x14, 3) // ldc_w, ldc2_w
	set(0x15, 0x19, 2) // loads
	set(0x1a, 0x35, 1) // load_n, array loads
	set(0x36, 0x3a, 2) // stores
	set(0x3b, 0x83, 1) // store_n, array stores, stack, arithmetic
	set(0x84, 0x84, 3) // iinc
	set(0x85, 0x98, 1) // conversions, comparisons
	set(0x99, 0xa8, 3) // branches, goto, jsr
	set(0xa9, 0xa9, 2) // ret
	set(0xac, 0xb1, 1) // returns
	set(0xb2, 0xb8, 3) // field access, invokevirtual/special/static
	set(0xb9, 0xba, 5) // invokeinterface, invokedynamic
	set(0xbb, 0xbb, 3) // new
	set(0xbc, 0xbc, 2) // newarray
	set(0xbd, 0xbd, 3) // anewarray
	set(0xbe, 0xbf, 1) // arraylength, athrow
	set(0xc0, 0xc1, 3) // checkcast, instanceof
	set(0xc2, 0xc3, 1) // monitorenter, monitorexit
	set(0xc5, 0xc5, 4) // multianewarray
	set(0xc6, 0xc7, 3) // ifnull, ifnonnull
	set(0xc8, 0xc9, 5) // goto_w, jsr_w
	set(0xca, 0xca, 1) // breakpoint
}

// invocation is one method call site found in a code array.
type invocation struct {
	pc  int
	ref uint16
}

// scanInvocations walks a code array and returns every invokevirtual,
// invokespecial, invokestatic and invokeinterface site in pc order.
func scanInvocations(code []byte) ([]invocation, error) {
	var out []invocation
	for pc := 0; pc < len(code); {
		op := code[pc]
		n, err := instructionLength(code, pc)
		if err != nil {
			return nil, err
		}
		if pc+n > len(code) {
			return nil, fmt.Errorf("%w: instruction at pc %d overruns code", ErrDecode, pc)
		}
		switch op {
		case opInvokevirtual, opInvokespecial, opInvokestatic, opInvokeinterface:
			out = append(out, invocation{pc: pc, ref: binary.BigEndian.Uint16(code[pc+1:])})
		}
		pc += n
	}
	return out, nil
}

func instructionLength(code []byte, pc int) (int, error) {
	op := code[pc]
	switch op {
	case opTableswitch, opLookupswitch:
		base := pc + 1 + (4-(pc+1)%4)%4
		need := 8
		if op == opTableswitch {
			need = 12
		}
		if base+need > len(code) {
			return 0, fmt.Errorf("%w: switch at pc %d truncated", ErrDecode, pc)
		}
		if op == opTableswitch {
			low := int32(binary.BigEndian.Uint32(code[base+4:]))
			high := int32(binary.BigEndian.Uint32(code[base+8:]))
			if high < low {
				return 0, fmt.Errorf("%w: tableswitch at pc %d has high < low", ErrDecode, pc)
			}
			return base - pc + 12 + int(int64(high)-int64(low)+1)*4, nil
		}
		npairs := int32(binary.BigEndian.Uint32(code[base+4:]))
		if npairs < 0 {
			return 0, fmt.Errorf("%w: lookupswitch at pc %d has negative npairs", ErrDecode, pc)
		}
		return base - pc + 8 + int(npairs)*8, nil
	case opWide:
		if pc+1 >= len(code) {
			return 0, fmt.Errorf("%w: wide at pc %d truncated", ErrDecode, pc)
		}
		if code[pc+1] == opIinc {
			return 6, nil
		}
		return 4, nil
	}
	if n := opLength[op]; n != 0 {
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: invalid opcode 0x%02x at pc %d", ErrDecode, op, pc)
}

// lineFor maps a pc to its source line using a LineNumberTable.
// It returns 0 when the table has no entry covering pc.
func lineFor(table []lineEntry, pc int) int {
	i := sort.Search(len(table), func(i int) bool { return int(table[i].pc) > pc })
	if i == 0 {
		return 0
	}
	return int(table[i-1].line)
}
