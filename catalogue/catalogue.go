// Package catalogue is the decoder's static opcode table: it maps a
// resolved (opcode map, opcode bytes, opcode-extension, VEX/EVEX kind,
// mode) key to the mnemonic and operand shape of the instruction that key
// names. It is deliberately kept separate from the decoder package so the
// table can grow, or be regenerated from a larger source, without touching
// the state machine that drives it.
//
// The shape of Definition/OperandSlot is grounded on the teacher
// assembler's internal/asm.Instruction/InstructionForm/OperandType trio
// (architecture/x86_64/instructions.go), turned around to face the opposite
// direction: the teacher looks up forms by mnemonic and operand types to
// encode; this looks up a definition by opcode bytes to decode.
package catalogue

import (
	"errors"

	"github.com/brackenfield/x86decode/isa"
	"github.com/brackenfield/x86decode/registers"
)

// ErrNotFound is returned when no definition matches key at all.
var ErrNotFound = errors.New("catalogue: no instruction definition for opcode")

// ErrNeedOpcodeExt is returned when a definition exists but is keyed by an
// opcode-extension field (ModR/M.reg) the caller has not supplied yet.
var ErrNeedOpcodeExt = errors.New("catalogue: definition requires an opcode extension")

// Composite identifies which multi-byte prefix family, if any, produced the
// opcode bytes in a Key. Real AVX/AVX-512 opcode identity is a (map,
// opcode, mandatory-prefix) triple, so Composite and FixedPrefix together
// generalise the decoder spec's abstract find_by_opcode(is_two_byte,
// primary, secondary, opcode_ext, mode) contract — see DESIGN.md.
type Composite int

const (
	NoComposite Composite = iota
	VEX
	EVEX
)

// Key identifies one catalogue lookup.
type Key struct {
	IsTwoByte    bool
	Primary      byte
	Secondary    byte // only meaningful when HasSecondary
	HasSecondary bool
	OpcodeExt    *byte
	Mode         isa.Mode
	Composite    Composite
	FixedPrefix  byte // 0x66/0xF2/0xF3, or 0 for "no mandatory prefix"
	// W distinguishes the small number of VEX/EVEX mnemonics (e.g.
	// KORD/KORQ) whose identity, not merely their operand width, depends
	// on the REX.W-equivalent bit. Legacy opcodes never set this.
	W bool
	// VectorLen discriminates VEX/EVEX mnemonics whose operand width (and,
	// for EVEX, whose embedded-rounding eligibility) varies with VEX.L or
	// EVEX.L'L at the same opcode byte (e.g. VADDPS xmm/ymm/zmm). Unsized
	// means "this mnemonic's identity does not depend on vector length";
	// Find falls back to the Unsized registration when no exact-length
	// entry exists, so composite opcodes that never vary by width (mask
	// instructions, etc.) don't need to be registered per length.
	VectorLen isa.OperandSize
}

// OperandEncoding says where an operand's bits come from.
type OperandEncoding int

const (
	EncModRmReg OperandEncoding = iota
	EncModRmRm
	EncVex
	EncImm
	EncOpcodeAddend
	EncFixed
	EncOffset
	EncMib
	EncFixedPostAddend
)

// OperandSlot describes one operand position of a Definition.
type OperandSlot struct {
	Encoding OperandEncoding
	RegClass registers.Class
	Size     isa.OperandSize
	// FixedReg/FixedImm are used only when Encoding == EncFixed.
	FixedReg *registers.Reg
	FixedImm *uint64
	// AddendBase is used only when Encoding == EncFixedPostAddend: the
	// addend is primary opcode byte & 0x7, same as EncOpcodeAddend, but
	// the base register/memory reference it perturbs is named here
	// instead of being derived implicitly.
	AddendBase *registers.Reg
}

// Definition is one catalogue entry: a mnemonic plus its operand shape.
type Definition struct {
	Mnemonic string
	// RequiresOpcodeExt, when true, means this definition can only be
	// distinguished from siblings sharing the same opcode bytes by the
	// ModR/M.reg field; Find returns ErrNeedOpcodeExt until the caller
	// supplies it.
	RequiresOpcodeExt bool
	Operands          [4]*OperandSlot

	// EVEXRoundingCapable/EVEXBroadcastCapable gate the §4.2 "b-bit
	// disambiguation" behaviour; BroadcastElementSize is the scalar
	// element width used to compute the 1toN broadcast factor.
	EVEXRoundingCapable  bool
	EVEXBroadcastCapable bool
	BroadcastElementSize isa.OperandSize
}

type tableKey struct {
	isTwoByte   bool
	primary     byte
	secondary   byte
	hasSecond   bool
	opcodeExt   int // -1 means "no extension in this key"
	mode        isa.Mode
	composite   Composite
	fixedPrefix byte
	w           bool
	vectorLen   isa.OperandSize
}

var table = map[tableKey]Definition{}

func register(k Key, d Definition) {
	ext := -1
	if k.OpcodeExt != nil {
		ext = int(*k.OpcodeExt)
	}
	table[tableKey{
		isTwoByte:   k.IsTwoByte,
		primary:     k.Primary,
		secondary:   k.Secondary,
		hasSecond:   k.HasSecondary,
		opcodeExt:   ext,
		mode:        k.Mode,
		composite:   k.Composite,
		fixedPrefix: k.FixedPrefix,
		w:           k.W,
		vectorLen:   k.VectorLen,
	}] = d
}

// registerAllModes is a convenience for entries whose behaviour does not
// vary across Real/Protected/Long.
func registerAllModes(k Key, d Definition) {
	for _, m := range []isa.Mode{isa.Real, isa.Protected, isa.Long} {
		k.Mode = m
		register(k, d)
	}
}

// needsExt records that a (opcode, mode) pair has at least one definition
// reachable only via an opcode extension, so Find can report
// ErrNeedOpcodeExt instead of ErrNotFound.
var needsExt = map[tableKey]bool{}

func registerNeedsExt(k Key) {
	needsExt[tableKey{
		isTwoByte:   k.IsTwoByte,
		primary:     k.Primary,
		secondary:   k.Secondary,
		hasSecond:   k.HasSecondary,
		opcodeExt:   -1,
		mode:        k.Mode,
		composite:   k.Composite,
		fixedPrefix: k.FixedPrefix,
		w:           k.W,
		vectorLen:   k.VectorLen,
	}] = true
}

// Find looks up key. If key.OpcodeExt is nil and a matching entry requires
// one, Find returns ErrNeedOpcodeExt so the caller can read ModR/M and
// retry with OpcodeExt set to modRMReg&0x7.
//
// A lookup at a specific key.VectorLen that misses falls back to the
// length-agnostic (VectorLen == isa.Unsized) registration, so mnemonics
// whose identity never varies with VEX.L/EVEX.L'L only need one entry
// while width-sensitive ones (e.g. VADDPS) can register per length.
func Find(key Key) (Definition, error) {
	ext := -1
	if key.OpcodeExt != nil {
		ext = int(*key.OpcodeExt)
	}
	tk := tableKey{
		isTwoByte:   key.IsTwoByte,
		primary:     key.Primary,
		secondary:   key.Secondary,
		hasSecond:   key.HasSecondary,
		opcodeExt:   ext,
		mode:        key.Mode,
		composite:   key.Composite,
		fixedPrefix: key.FixedPrefix,
		w:           key.W,
		vectorLen:   key.VectorLen,
	}
	if d, ok := table[tk]; ok {
		if d.RequiresOpcodeExt && ext == -1 {
			return Definition{}, ErrNeedOpcodeExt
		}
		return d, nil
	}
	if key.VectorLen != isa.Unsized {
		wildcard := tk
		wildcard.vectorLen = isa.Unsized
		if d, ok := table[wildcard]; ok {
			if d.RequiresOpcodeExt && ext == -1 {
				return Definition{}, ErrNeedOpcodeExt
			}
			return d, nil
		}
	}
	if ext == -1 {
		probe := tk
		probe.opcodeExt = -1
		if needsExt[probe] {
			return Definition{}, ErrNeedOpcodeExt
		}
		if key.VectorLen != isa.Unsized {
			probe.vectorLen = isa.Unsized
			if needsExt[probe] {
				return Definition{}, ErrNeedOpcodeExt
			}
		}
	}
	return Definition{}, ErrNotFound
}
