package catalogue

import (
	"github.com/brackenfield/x86decode/isa"
	"github.com/brackenfield/x86decode/registers"
)

func ext(b byte) *byte { return &b }

func slot(enc OperandEncoding, class registers.Class, size isa.OperandSize) *OperandSlot {
	return &OperandSlot{Encoding: enc, RegClass: class, Size: size}
}

func fixedReg(r registers.Reg) *OperandSlot {
	return &OperandSlot{Encoding: EncFixed, FixedReg: &r, Size: r.Size}
}

// init populates the static table. This mirrors the teacher's own
// package-level var MOV/LEA/PUSH/... declarations in
// architecture/x86_64/instructions.go, but keyed for decode (opcode ->
// definition) instead of encode (mnemonic -> forms).
func init() {
	registerArithmeticGroup()
	registerMovGroup()
	registerStackGroup()
	registerIncDecGroup()
	registerGroup1()
	registerControlFlow()
	registerFPU()
	registerMask()
	registerXSAVEC()
	registerVectorSample()
	registerMisc()
}

// --- Legacy arithmetic group: ADD/OR/ADC/SBB/AND/SUB/XOR/CMP ----------------

type arithOp struct {
	name string
	base byte // opcode of the r/m8,r8 form; +1=r/m32,r32; +2=r8,r/m8; +3=r32,r/m32; +4=AL,imm8; +5=eAX,immz
}

var arithOps = []arithOp{
	{"ADD", 0x00}, {"OR", 0x08}, {"ADC", 0x10}, {"SBB", 0x18},
	{"AND", 0x20}, {"SUB", 0x28}, {"XOR", 0x30}, {"CMP", 0x38},
}

func registerArithmeticGroup() {
	for _, op := range arithOps {
		mnem := op.name
		registerAllModes(Key{Primary: op.base}, Definition{
			Mnemonic: mnem,
			Operands: [4]*OperandSlot{
				slot(EncModRmRm, registers.GeneralPurpose, isa.Size8),
				slot(EncModRmReg, registers.GeneralPurpose, isa.Size8),
			},
		})
		registerAllModes(Key{Primary: op.base + 1}, Definition{
			Mnemonic: mnem,
			Operands: [4]*OperandSlot{
				slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
				slot(EncModRmReg, registers.GeneralPurpose, isa.Unsized),
			},
		})
		registerAllModes(Key{Primary: op.base + 2}, Definition{
			Mnemonic: mnem,
			Operands: [4]*OperandSlot{
				slot(EncModRmReg, registers.GeneralPurpose, isa.Size8),
				slot(EncModRmRm, registers.GeneralPurpose, isa.Size8),
			},
		})
		registerAllModes(Key{Primary: op.base + 3}, Definition{
			Mnemonic: mnem,
			Operands: [4]*OperandSlot{
				slot(EncModRmReg, registers.GeneralPurpose, isa.Unsized),
				slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
			},
		})
	}
}

// --- Group 1: ADD/OR/ADC/SBB/AND/SUB/XOR/CMP r/m, imm (0x80/0x81/0x83) -----

var group1Mnemonics = [8]string{"ADD", "OR", "ADC", "SBB", "AND", "SUB", "XOR", "CMP"}

func registerGroup1() {
	for i, m := range group1Mnemonics {
		e := byte(i)
		registerAllModes(Key{Primary: 0x80, OpcodeExt: ext(e)}, Definition{
			Mnemonic: m,
			Operands: [4]*OperandSlot{
				slot(EncModRmRm, registers.GeneralPurpose, isa.Size8),
				slot(EncImm, registers.GeneralPurpose, isa.Size8),
			},
		})
		registerAllModes(Key{Primary: 0x81, OpcodeExt: ext(e)}, Definition{
			Mnemonic: m,
			Operands: [4]*OperandSlot{
				slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
				slot(EncImm, registers.GeneralPurpose, isa.Size32),
			},
		})
		registerAllModes(Key{Primary: 0x83, OpcodeExt: ext(e)}, Definition{
			Mnemonic: m,
			Operands: [4]*OperandSlot{
				slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
				slot(EncImm, registers.GeneralPurpose, isa.Size8),
			},
		})
	}
	registerAllModes(Key{Primary: 0x80}, Definition{RequiresOpcodeExt: true})
	registerAllModes(Key{Primary: 0x81}, Definition{RequiresOpcodeExt: true})
	registerAllModes(Key{Primary: 0x83}, Definition{RequiresOpcodeExt: true})
	registerNeedsExt(Key{Primary: 0x80, Mode: isa.Real})
	registerNeedsExt(Key{Primary: 0x80, Mode: isa.Protected})
	registerNeedsExt(Key{Primary: 0x80, Mode: isa.Long})
	registerNeedsExt(Key{Primary: 0x81, Mode: isa.Real})
	registerNeedsExt(Key{Primary: 0x81, Mode: isa.Protected})
	registerNeedsExt(Key{Primary: 0x81, Mode: isa.Long})
	registerNeedsExt(Key{Primary: 0x83, Mode: isa.Real})
	registerNeedsExt(Key{Primary: 0x83, Mode: isa.Protected})
	registerNeedsExt(Key{Primary: 0x83, Mode: isa.Long})
}

// --- MOV ---------------------------------------------------------------

func registerMovGroup() {
	registerAllModes(Key{Primary: 0x88}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			slot(EncModRmRm, registers.GeneralPurpose, isa.Size8),
			slot(EncModRmReg, registers.GeneralPurpose, isa.Size8),
		},
	})
	registerAllModes(Key{Primary: 0x89}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
			slot(EncModRmReg, registers.GeneralPurpose, isa.Unsized),
		},
	})
	registerAllModes(Key{Primary: 0x8A}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			slot(EncModRmReg, registers.GeneralPurpose, isa.Size8),
			slot(EncModRmRm, registers.GeneralPurpose, isa.Size8),
		},
	})
	registerAllModes(Key{Primary: 0x8B}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			slot(EncModRmReg, registers.GeneralPurpose, isa.Unsized),
			slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
		},
	})
	registerAllModes(Key{Primary: 0xC6, OpcodeExt: ext(0)}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			slot(EncModRmRm, registers.GeneralPurpose, isa.Size8),
			slot(EncImm, registers.GeneralPurpose, isa.Size8),
		},
	})
	registerAllModes(Key{Primary: 0xC7, OpcodeExt: ext(0)}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
			slot(EncImm, registers.GeneralPurpose, isa.Size32),
		},
	})
	registerAllModes(Key{Primary: 0xC6}, Definition{RequiresOpcodeExt: true})
	registerAllModes(Key{Primary: 0xC7}, Definition{RequiresOpcodeExt: true})
	registerNeedsExt(Key{Primary: 0xC6, Mode: isa.Real})
	registerNeedsExt(Key{Primary: 0xC6, Mode: isa.Protected})
	registerNeedsExt(Key{Primary: 0xC6, Mode: isa.Long})
	registerNeedsExt(Key{Primary: 0xC7, Mode: isa.Real})
	registerNeedsExt(Key{Primary: 0xC7, Mode: isa.Protected})
	registerNeedsExt(Key{Primary: 0xC7, Mode: isa.Long})
	for i := byte(0); i < 8; i++ {
		p := i
		registerAllModes(Key{Primary: 0xB0 + p}, Definition{
			Mnemonic: "MOV",
			Operands: [4]*OperandSlot{
				slot(EncOpcodeAddend, registers.GeneralPurpose, isa.Size8),
				slot(EncImm, registers.GeneralPurpose, isa.Size8),
			},
		})
		registerAllModes(Key{Primary: 0xB8 + p}, Definition{
			Mnemonic: "MOV",
			Operands: [4]*OperandSlot{
				slot(EncOpcodeAddend, registers.GeneralPurpose, isa.Unsized),
				slot(EncImm, registers.GeneralPurpose, isa.Unsized),
			},
		})
	}
}

// --- PUSH/POP ------------------------------------------------------------

func registerStackGroup() {
	for i := byte(0); i < 8; i++ {
		p := i
		registerAllModes(Key{Primary: 0x50 + p}, Definition{
			Mnemonic: "PUSH",
			Operands: [4]*OperandSlot{slot(EncOpcodeAddend, registers.GeneralPurpose, isa.Unsized)},
		})
		registerAllModes(Key{Primary: 0x58 + p}, Definition{
			Mnemonic: "POP",
			Operands: [4]*OperandSlot{slot(EncOpcodeAddend, registers.GeneralPurpose, isa.Unsized)},
		})
	}
}

// --- INC/DEC (0x40-0x4F single-byte form, non-long modes only) -----------

func registerIncDecGroup() {
	for i := byte(0); i < 8; i++ {
		p := i
		for _, m := range []isa.Mode{isa.Real, isa.Protected} {
			register(Key{Primary: 0x40 + p, Mode: m}, Definition{
				Mnemonic: "INC",
				Operands: [4]*OperandSlot{slot(EncOpcodeAddend, registers.GeneralPurpose, isa.Unsized)},
			})
			register(Key{Primary: 0x48 + p, Mode: m}, Definition{
				Mnemonic: "DEC",
				Operands: [4]*OperandSlot{slot(EncOpcodeAddend, registers.GeneralPurpose, isa.Unsized)},
			})
		}
	}
	// FE/FF group: INC/DEC r/m (all modes, including long, via opcode ext).
	registerAllModes(Key{Primary: 0xFE, OpcodeExt: ext(0)}, Definition{
		Mnemonic: "INC",
		Operands: [4]*OperandSlot{slot(EncModRmRm, registers.GeneralPurpose, isa.Size8)},
	})
	registerAllModes(Key{Primary: 0xFE, OpcodeExt: ext(1)}, Definition{
		Mnemonic: "DEC",
		Operands: [4]*OperandSlot{slot(EncModRmRm, registers.GeneralPurpose, isa.Size8)},
	})
	registerAllModes(Key{Primary: 0xFF, OpcodeExt: ext(0)}, Definition{
		Mnemonic: "INC",
		Operands: [4]*OperandSlot{slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized)},
	})
	registerAllModes(Key{Primary: 0xFF, OpcodeExt: ext(1)}, Definition{
		Mnemonic: "DEC",
		Operands: [4]*OperandSlot{slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized)},
	})
	registerAllModes(Key{Primary: 0xFE}, Definition{RequiresOpcodeExt: true})
	registerAllModes(Key{Primary: 0xFF}, Definition{RequiresOpcodeExt: true})
	registerNeedsExt(Key{Primary: 0xFE, Mode: isa.Real})
	registerNeedsExt(Key{Primary: 0xFE, Mode: isa.Protected})
	registerNeedsExt(Key{Primary: 0xFE, Mode: isa.Long})
	registerNeedsExt(Key{Primary: 0xFF, Mode: isa.Real})
	registerNeedsExt(Key{Primary: 0xFF, Mode: isa.Protected})
	registerNeedsExt(Key{Primary: 0xFF, Mode: isa.Long})
}

// --- Control flow: short Jcc, NOP, RET --------------------------------

var jccNames = [16]string{
	"JO", "JNO", "JB", "JAE", "JE", "JNE", "JBE", "JA",
	"JS", "JNS", "JP", "JNP", "JL", "JGE", "JLE", "JG",
}

func registerControlFlow() {
	for i := byte(0); i < 16; i++ {
		m := jccNames[i]
		registerAllModes(Key{Primary: 0x70 + i}, Definition{
			Mnemonic: m,
			Operands: [4]*OperandSlot{slot(EncImm, registers.GeneralPurpose, isa.Size8)},
		})
	}
	registerAllModes(Key{Primary: 0x90}, Definition{Mnemonic: "NOP"})
	registerAllModes(Key{Primary: 0xC3}, Definition{Mnemonic: "RET"})
	registerAllModes(Key{Primary: 0xC9}, Definition{Mnemonic: "LEAVE"})

	// MOV AL/eAX, moffs and the reverse: the one pair of legacy opcodes
	// that use the EncOffset encoding (an address-sized absolute
	// displacement, no ModR/M at all) rather than ModRmRm.
	registerAllModes(Key{Primary: 0xA0}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			fixedALReg(),
			slot(EncOffset, registers.GeneralPurpose, isa.Size8),
		},
	})
	registerAllModes(Key{Primary: 0xA1}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			fixedAXReg(),
			slot(EncOffset, registers.GeneralPurpose, isa.Unsized),
		},
	})
	registerAllModes(Key{Primary: 0xA2}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			slot(EncOffset, registers.GeneralPurpose, isa.Size8),
			fixedALReg(),
		},
	})
	registerAllModes(Key{Primary: 0xA3}, Definition{
		Mnemonic: "MOV",
		Operands: [4]*OperandSlot{
			slot(EncOffset, registers.GeneralPurpose, isa.Unsized),
			fixedAXReg(),
		},
	})
}

func fixedALReg() *OperandSlot {
	r, _ := registers.GeneralSized(0, false, isa.Size8)
	return fixedReg(r)
}

// fixedAXReg is the accumulator register (AX/EAX/RAX), sized dynamically
// at decode time the same way an Unsized ModRmRm/ModRmReg slot is — the
// decoder recognises a GeneralPurpose Fixed slot with Size Unsized as
// "resolve the accumulator at the instruction's effective operand size"
// rather than a literal constant register.
func fixedAXReg() *OperandSlot {
	r := registers.Reg{Name: "", Class: registers.GeneralPurpose, Code: 0, Size: isa.Unsized}
	return &OperandSlot{Encoding: EncFixed, FixedReg: &r, Size: isa.Unsized}
}

// --- FPU: FCMOVcc (DA /0../3) -------------------------------------------

var fcmovNames = [4]string{"FCMOVB", "FCMOVE", "FCMOVBE", "FCMOVU"}

func registerFPU() {
	st0, _ := registers.FPUStackReg(0)
	for i, m := range fcmovNames {
		e := byte(i)
		registerAllModes(Key{Primary: 0xDA, OpcodeExt: ext(e)}, Definition{
			Mnemonic: m,
			Operands: [4]*OperandSlot{
				fixedReg(st0),
				slot(EncModRmRm, registers.FPUStack, isa.Size80),
			},
		})
	}
	registerAllModes(Key{Primary: 0xDA}, Definition{RequiresOpcodeExt: true})
	registerNeedsExt(Key{Primary: 0xDA, Mode: isa.Real})
	registerNeedsExt(Key{Primary: 0xDA, Mode: isa.Protected})
	registerNeedsExt(Key{Primary: 0xDA, Mode: isa.Long})
}

// --- AVX-512 mask register instructions: KANDB/KORQ/KORD/KXNORQ/KXNORW --

func registerMask() {
	registerAllModes(Key{IsTwoByte: true, Primary: 0x41, Composite: VEX, FixedPrefix: 0x66}, Definition{
		Mnemonic: "KANDB",
		Operands: [4]*OperandSlot{
			slot(EncModRmReg, registers.Mask, isa.Size64),
			slot(EncVex, registers.Mask, isa.Size64),
			slot(EncModRmRm, registers.Mask, isa.Size64),
		},
	})
	registerAllModes(Key{IsTwoByte: true, Primary: 0x45, Composite: VEX, W: false}, Definition{
		Mnemonic: "KORD",
		Operands: [4]*OperandSlot{
			slot(EncModRmReg, registers.Mask, isa.Size64),
			slot(EncVex, registers.Mask, isa.Size64),
			slot(EncModRmRm, registers.Mask, isa.Size64),
		},
	})
	registerAllModes(Key{IsTwoByte: true, Primary: 0x45, Composite: VEX, W: true}, Definition{
		Mnemonic: "KORQ",
		Operands: [4]*OperandSlot{
			slot(EncModRmReg, registers.Mask, isa.Size64),
			slot(EncVex, registers.Mask, isa.Size64),
			slot(EncModRmRm, registers.Mask, isa.Size64),
		},
	})
	registerAllModes(Key{IsTwoByte: true, Primary: 0x46, Composite: VEX, W: false}, Definition{
		Mnemonic: "KXNORW",
		Operands: [4]*OperandSlot{
			slot(EncModRmReg, registers.Mask, isa.Size64),
			slot(EncVex, registers.Mask, isa.Size64),
			slot(EncModRmRm, registers.Mask, isa.Size64),
		},
	})
	registerAllModes(Key{IsTwoByte: true, Primary: 0x46, Composite: VEX, W: true}, Definition{
		Mnemonic: "KXNORQ",
		Operands: [4]*OperandSlot{
			slot(EncModRmReg, registers.Mask, isa.Size64),
			slot(EncVex, registers.Mask, isa.Size64),
			slot(EncModRmRm, registers.Mask, isa.Size64),
		},
	})
}

// --- XSAVEC (0F C7 /4) ---------------------------------------------------

func registerXSAVEC() {
	registerAllModes(Key{IsTwoByte: true, Primary: 0xC7, OpcodeExt: ext(4)}, Definition{
		Mnemonic: "XSAVEC",
		Operands: [4]*OperandSlot{
			slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
		},
	})
	registerAllModes(Key{IsTwoByte: true, Primary: 0xC7}, Definition{RequiresOpcodeExt: true})
	registerNeedsExt(Key{IsTwoByte: true, Primary: 0xC7, Mode: isa.Real})
	registerNeedsExt(Key{IsTwoByte: true, Primary: 0xC7, Mode: isa.Protected})
	registerNeedsExt(Key{IsTwoByte: true, Primary: 0xC7, Mode: isa.Long})
}

// --- A sample EVEX vector instruction, to exercise rounding/broadcast/SAE -

func registerVectorSample() {
	// VADDPS (EVEX.NDS.0F.W0 58 /r): xmm1{k1}{z}, xmm2, xmm3/m128/b32 (L'L=00)
	// and the ymm/zmm forms at L'L=01/10. Registered once per vector length
	// since the mnemonic's operand width (and, for the zmm form, embedded
	// rounding) depends on EVEX.L'L at the same opcode byte. Embedded
	// rounding is only meaningful at full vector width, so only the 512-bit
	// form is rounding-capable; all three are broadcast-capable.
	for _, vl := range []isa.OperandSize{isa.Size128, isa.Size256, isa.Size512} {
		registerAllModes(Key{IsTwoByte: true, Primary: 0x58, Composite: EVEX, VectorLen: vl}, Definition{
			Mnemonic: "VADDPS",
			Operands: [4]*OperandSlot{
				slot(EncModRmReg, registers.Vector, vl),
				slot(EncVex, registers.Vector, vl),
				slot(EncModRmRm, registers.Vector, vl),
			},
			EVEXRoundingCapable:  vl == isa.Size512,
			EVEXBroadcastCapable: true,
			BroadcastElementSize: isa.Size32,
		})
	}
}

// --- Misc: LEA -------------------------------------------------------------

func registerMisc() {
	registerAllModes(Key{Primary: 0x8D}, Definition{
		Mnemonic: "LEA",
		Operands: [4]*OperandSlot{
			slot(EncModRmReg, registers.GeneralPurpose, isa.Unsized),
			slot(EncModRmRm, registers.GeneralPurpose, isa.Unsized),
		},
	})
}
