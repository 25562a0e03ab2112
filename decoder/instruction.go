// Package decoder implements the streaming x86/x86-64 instruction decoder:
// a byte source adapter, a prefix decoder, an opcode resolver, and an
// operand decoder, cooperating through a per-instruction scratch buffer.
package decoder

import (
	"fmt"

	"github.com/brackenfield/x86decode/isa"
	"github.com/brackenfield/x86decode/registers"
)

// RoundingMode is an EVEX embedded-rounding control.
type RoundingMode int

const (
	RoundNearest RoundingMode = iota
	RoundDown
	RoundUp
	RoundToZero
)

func (r RoundingMode) String() string {
	switch r {
	case RoundNearest:
		return "round-nearest"
	case RoundDown:
		return "round-down"
	case RoundUp:
		return "round-up"
	case RoundToZero:
		return "round-to-zero"
	default:
		return "round-unknown"
	}
}

// MergeMode is the EVEX destination-merging behaviour under a write mask.
type MergeMode int

const (
	Merge MergeMode = iota
	Zero
)

// BroadcastMode records an EVEX memory-operand broadcast: one scalar
// element of ElementSize is broadcast N times to fill the destination.
type BroadcastMode struct {
	N           int
	ElementSize isa.OperandSize
}

// Operand is the sum type of everything a decoded instruction can name as
// an operand. It is a closed interface: operand() is unexported so no
// package outside decoder can add a variant, keeping every switch over
// Operand exhaustively checkable.
type Operand interface {
	operand()
}

// Direct is a bare register operand.
type Direct struct{ Reg registers.Reg }

func (Direct) operand() {}

// Literal8/16/32/64 are immediate operands of the given width.
type Literal8 struct{ Value uint8 }
type Literal16 struct{ Value uint16 }
type Literal32 struct{ Value uint32 }
type Literal64 struct{ Value uint64 }

func (Literal8) operand()  {}
func (Literal16) operand() {}
func (Literal32) operand() {}
func (Literal64) operand() {}

// Memory is an absolute memory reference.
type Memory struct {
	Addr    uint64
	Size    isa.OperandSize
	Segment *registers.Reg
}

func (Memory) operand() {}

// Offset is a RIP-relative reference (long mode only).
type Offset struct {
	Disp    int64
	Size    isa.OperandSize
	Segment *registers.Reg
}

func (Offset) operand() {}

// Indirect is `[base]`.
type Indirect struct {
	Base    registers.Reg
	Size    isa.OperandSize
	Segment *registers.Reg
}

func (Indirect) operand() {}

// IndirectDisplaced is `[base + disp]`.
type IndirectDisplaced struct {
	Base    registers.Reg
	Disp    int64
	Size    isa.OperandSize
	Segment *registers.Reg
}

func (IndirectDisplaced) operand() {}

// IndirectScaledIndexed is `[base + index*scale]`.
type IndirectScaledIndexed struct {
	Base    registers.Reg
	Index   registers.Reg
	Scale   isa.RegScale
	Size    isa.OperandSize
	Segment *registers.Reg
}

func (IndirectScaledIndexed) operand() {}

// IndirectScaledIndexedDisplaced is `[base + index*scale + disp]`.
type IndirectScaledIndexedDisplaced struct {
	Base    registers.Reg
	Index   registers.Reg
	Scale   isa.RegScale
	Disp    int64
	Size    isa.OperandSize
	Segment *registers.Reg
}

func (IndirectScaledIndexedDisplaced) operand() {}

// IndirectScaledDisplaced is `[index*scale + disp]` (no base register).
type IndirectScaledDisplaced struct {
	Index   registers.Reg
	Scale   isa.RegScale
	Disp    int64
	Size    isa.OperandSize
	Segment *registers.Reg
}

func (IndirectScaledDisplaced) operand() {}

// MemoryAndSegment16/32 are far pointers (`segment:offset`).
type MemoryAndSegment16 struct {
	Segment uint16
	Offset  uint16
}
type MemoryAndSegment32 struct {
	Segment uint16
	Offset  uint32
}

func (MemoryAndSegment16) operand() {}
func (MemoryAndSegment32) operand() {}

// Instruction is the decoder's output: a mnemonic, up to four operands, and
// the side-channels that do not fit the operand list (lock, mask/merge/
// broadcast/rounding/SAE).
type Instruction struct {
	Mnemonic string
	Operand1 Operand
	Operand2 Operand
	Operand3 Operand
	Operand4 Operand

	Lock         bool
	RoundingMode *RoundingMode
	MergeMode    *MergeMode
	Mask         *registers.Reg
	Broadcast    *BroadcastMode
	SAE          bool
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s(%v, %v, %v, %v)", i.Mnemonic, i.Operand1, i.Operand2, i.Operand3, i.Operand4)
}
