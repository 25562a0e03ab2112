// Package registers enumerates the x86/x86-64 register file and converts
// the (code, size, REX-present) tuples the decoder reads off the wire into
// named registers. It mirrors the shape of the teacher assembler's own
// architecture/x86_64 register table, but runs in the opposite direction:
// that table maps names to encodings for the assembler; this one maps
// encodings back to names for the decoder.
package registers

import "github.com/brackenfield/x86decode/isa"

// Class is the register file a Reg belongs to.
type Class int

const (
	GeneralPurpose Class = iota
	Segment
	Control
	Debug
	FPUStack
	MMX
	Vector // XMM/YMM/ZMM, discriminated by Reg.Size
	Mask
	Flags
)

func (c Class) String() string {
	switch c {
	case GeneralPurpose:
		return "general-purpose"
	case Segment:
		return "segment"
	case Control:
		return "control"
	case Debug:
		return "debug"
	case FPUStack:
		return "fpu-stack"
	case MMX:
		return "mmx"
	case Vector:
		return "vector"
	case Mask:
		return "mask"
	case Flags:
		return "flags"
	default:
		return "unknown"
	}
}

// Reg is a single named register. Two Regs are equal (==) iff they name the
// same physical register in the same width, so Reg is safe to use as a map
// key and to compare with go-cmp without custom options.
type Reg struct {
	Name string
	Class
	Code uint8
	Size isa.OperandSize
}

// generalNames8Legacy holds the four high-byte forms (AH/CH/DH/BH) only
// reachable when no REX prefix is present; codes 4-7 mean something else
// (SPL/BPL/SIL/DIL) once a REX prefix is present.
var generalNames8Legacy = [8]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}
var generalNames8REX = [16]string{
	"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil",
	"r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b",
}
var generalNames16 = [16]string{
	"ax", "cx", "dx", "bx", "sp", "bp", "si", "di",
	"r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w",
}
var generalNames32 = [16]string{
	"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
	"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
}
var generalNames64 = [16]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

// GeneralSized converts a register code (already extension-bit-merged, so
// 0-15) into a general-purpose Reg of the given width. hasREX distinguishes
// the legacy AH/CH/DH/BH 8-bit encodings (code 4-7, no REX) from SPL/BPL/
// SIL/DIL (code 4-7, REX present) per §3/§4.4 of the decoder spec.
func GeneralSized(code uint8, hasREX bool, size isa.OperandSize) (Reg, bool) {
	switch size {
	case isa.Size8:
		if !hasREX && code < 8 {
			return Reg{Name: generalNames8Legacy[code], Class: GeneralPurpose, Code: code, Size: size}, true
		}
		if int(code) < len(generalNames8REX) {
			return Reg{Name: generalNames8REX[code], Class: GeneralPurpose, Code: code, Size: size}, true
		}
	case isa.Size16:
		if int(code) < len(generalNames16) {
			return Reg{Name: generalNames16[code], Class: GeneralPurpose, Code: code, Size: size}, true
		}
	case isa.Size32:
		if int(code) < len(generalNames32) {
			return Reg{Name: generalNames32[code], Class: GeneralPurpose, Code: code, Size: size}, true
		}
	case isa.Size64:
		if int(code) < len(generalNames64) {
			return Reg{Name: generalNames64[code], Class: GeneralPurpose, Code: code, Size: size}, true
		}
	}
	return Reg{}, false
}

var segmentNames = [6]string{"es", "cs", "ss", "ds", "fs", "gs"}

func SegmentReg(code uint8) (Reg, bool) {
	if int(code) >= len(segmentNames) {
		return Reg{}, false
	}
	return Reg{Name: segmentNames[code], Class: Segment, Code: code, Size: isa.Size16}, true
}

func ControlReg(code uint8) (Reg, bool) {
	if code > 15 {
		return Reg{}, false
	}
	return Reg{Name: "cr" + itoa(code), Class: Control, Code: code, Size: isa.Size64}, true
}

func DebugReg(code uint8) (Reg, bool) {
	if code > 15 {
		return Reg{}, false
	}
	return Reg{Name: "dr" + itoa(code), Class: Debug, Code: code, Size: isa.Size64}, true
}

// FPUStackReg converts a three-bit ST(i) index into a Reg. i==0 names the
// top-of-stack register ("st"); i==1..7 name "st(1)".."st(7)".
func FPUStackReg(i uint8) (Reg, bool) {
	if i > 7 {
		return Reg{}, false
	}
	name := "st"
	if i != 0 {
		name = "st(" + itoa(i) + ")"
	}
	return Reg{Name: name, Class: FPUStack, Code: i, Size: isa.Size80}, true
}

func MMXReg(code uint8) (Reg, bool) {
	if code > 7 {
		return Reg{}, false
	}
	return Reg{Name: "mm" + itoa(code), Class: MMX, Code: code, Size: isa.Size64}, true
}

// VectorReg converts a code (0-31, already extension-bit-merged for EVEX)
// into an XMM/YMM/ZMM register of the requested width.
func VectorReg(code uint8, size isa.OperandSize) (Reg, bool) {
	var prefix string
	switch size {
	case isa.Size128:
		prefix = "xmm"
	case isa.Size256:
		prefix = "ymm"
	case isa.Size512:
		prefix = "zmm"
	default:
		return Reg{}, false
	}
	if code > 31 {
		return Reg{}, false
	}
	return Reg{Name: prefix + itoa(code), Class: Vector, Code: code, Size: size}, true
}

// MaskReg converts a 3-bit EVEX mask-register code into a Reg, or reports
// ok=false for K0 — per the decoder spec, K0 means "no mask" and is
// represented as a nil *Reg at the call site, not as a Reg value.
func MaskReg(code uint8) (Reg, bool) {
	if code == 0 || code > 7 {
		return Reg{}, false
	}
	return Reg{Name: "k" + itoa(code), Class: Mask, Code: code, Size: isa.Size64}, true
}

// FlagsReg names the flags register at the given width (16, 32 or 64 bits).
func FlagsReg(size isa.OperandSize) (Reg, bool) {
	switch size {
	case isa.Size16:
		return Reg{Name: "flags", Class: Flags, Code: 0, Size: size}, true
	case isa.Size32:
		return Reg{Name: "eflags", Class: Flags, Code: 0, Size: size}, true
	case isa.Size64:
		return Reg{Name: "rflags", Class: Flags, Code: 0, Size: size}, true
	default:
		return Reg{}, false
	}
}

func itoa(b uint8) string {
	if b < 10 {
		return string(rune('0' + b))
	}
	return string(rune('0'+b/10)) + string(rune('0'+b%10))
}
