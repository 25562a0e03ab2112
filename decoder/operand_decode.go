package decoder

import (
	"github.com/brackenfield/x86decode/catalogue"
	"github.com/brackenfield/x86decode/isa"
	"github.com/brackenfield/x86decode/registers"
)

// decodeOperands implements §4.4: for each slot the definition declares, in
// order, produce an Operand (or, for EncFixed, consume nothing) and
// assemble the result Instruction. It also applies the §4.2 EVEX b-bit
// disambiguation and mask/merge-mode population once every operand has
// been read (broadcast/rounding depend on the final ModR/M addressing
// mode, which is only known after the r/m operand, if any, is decoded).
func (d *Decoder) decodeOperands(buf *buffer, def catalogue.Definition) (Instruction, error) {
	inst := Instruction{Mnemonic: def.Mnemonic}
	inst.Lock = buf.prefix1 == group1Lock

	dests := [4]Operand{}
	sawMemoryOperand := false

	for i, s := range def.Operands {
		if s == nil {
			continue
		}
		op, isMemory, err := d.decodeOperand(buf, s)
		if err != nil {
			return Instruction{}, err
		}
		dests[i] = op
		if isMemory {
			sawMemoryOperand = true
		}
	}

	inst.Operand1 = dests[0]
	inst.Operand2 = dests[1]
	inst.Operand3 = dests[2]
	inst.Operand4 = dests[3]

	if buf.hasVexOrEvex() && buf.composite == compositeEVEX {
		if buf.maskReg != 0 {
			m, ok := registers.MaskReg(buf.maskReg)
			if ok {
				inst.Mask = &m
			}
		}
		mm := buf.mergeMode
		inst.MergeMode = &mm

		if buf.vexB {
			if !sawMemoryOperand && def.EVEXRoundingCapable {
				rc := 0
				if buf.vexLPrime {
					rc |= 0x2
				}
				if buf.vexL {
					rc |= 0x1
				}
				rm := RoundingMode(rc)
				inst.RoundingMode = &rm
				inst.SAE = true
			} else if sawMemoryOperand && def.EVEXBroadcastCapable {
				width := vectorWidthFromL(buf)
				elemBits := elementBits(def.BroadcastElementSize)
				if elemBits > 0 {
					n := width / elemBits
					inst.Broadcast = &BroadcastMode{N: n, ElementSize: def.BroadcastElementSize}
				}
			}
		}
	}

	return inst, nil
}

func elementBits(s isa.OperandSize) int {
	switch s {
	case isa.Size8:
		return 8
	case isa.Size16:
		return 16
	case isa.Size32:
		return 32
	case isa.Size64:
		return 64
	default:
		return 0
	}
}

// vectorLengthFromL implements §4.4's VEX/EVEX length selection: VEX.L
// (and, for EVEX, the L'L pair) select 128/256/512 for vector-class
// operand slots. VEX2/VEX3 never set vexLPrime, so this also covers the
// single-bit VEX.L case correctly.
func vectorLengthFromL(buf *buffer) isa.OperandSize {
	switch {
	case buf.vexLPrime:
		return isa.Size512
	case buf.vexL:
		return isa.Size256
	default:
		return isa.Size128
	}
}

func vectorWidthFromL(buf *buffer) int {
	switch vectorLengthFromL(buf) {
	case isa.Size512:
		return 512
	case isa.Size256:
		return 256
	default:
		return 128
	}
}

// decodeOperand decodes one operand slot. The bool result reports whether
// the operand turned out to be a memory reference (needed afterward to
// disambiguate the EVEX b-bit).
func (d *Decoder) decodeOperand(buf *buffer, s *catalogue.OperandSlot) (Operand, bool, error) {
	switch s.Encoding {
	case catalogue.EncFixed:
		if s.FixedReg != nil {
			r := *s.FixedReg
			if r.Class == registers.GeneralPurpose && r.Size == isa.Unsized {
				size := d.operandSize(buf, registers.GeneralPurpose, isa.Unsized)
				resolved, ok := registers.GeneralSized(r.Code, buf.hasREX(), size)
				if !ok {
					return nil, false, invalidInstruction("invalid fixed accumulator size")
				}
				return Direct{Reg: resolved}, false, nil
			}
			return Direct{Reg: r}, false, nil
		}
		if s.FixedImm != nil {
			return Literal64{Value: *s.FixedImm}, false, nil
		}
		return nil, false, invalidInstruction("fixed operand slot with no value")

	case catalogue.EncModRmReg:
		size := d.operandSize(buf, s.RegClass, s.Size)
		code := buf.modRMReg
		if s.RegClass == registers.Mask {
			code &= 0x7
		}
		r, ok := d.regFromCode(s.RegClass, code, size, buf.hasREX())
		if !ok {
			return nil, false, invalidInstruction("invalid ModR/M.reg register code")
		}
		return Direct{Reg: r}, false, nil

	case catalogue.EncVex:
		size := d.operandSize(buf, s.RegClass, s.Size)
		code := buf.vexOperand
		if s.RegClass == registers.Mask {
			code &= 0x7
		}
		r, ok := d.regFromCode(s.RegClass, code, size, buf.hasREX())
		if !ok {
			return nil, false, invalidInstruction("invalid VEX.vvvv register code")
		}
		return Direct{Reg: r}, false, nil

	case catalogue.EncModRmRm:
		return d.decodeModRmRm(buf, s)

	case catalogue.EncMib:
		op, isMemory, err := d.decodeModRmRm(buf, s)
		if err == nil && buf.sibValid && buf.sibIndex&0x7 != 0b100 && sibScaleOf(buf.sibScale) != isa.ScaleOne {
			return nil, false, invalidInstruction("MIB operand with index scale above one")
		}
		return op, isMemory, err

	case catalogue.EncOpcodeAddend:
		size := d.operandSize(buf, registers.GeneralPurpose, s.Size)
		code := (buf.primaryOpcode & 0x7) + buf.rmExt
		r, ok := registers.GeneralSized(code, buf.hasREX(), size)
		if !ok {
			return nil, false, invalidInstruction("invalid opcode-addend register code")
		}
		return Direct{Reg: r}, false, nil

	case catalogue.EncFixedPostAddend:
		if s.AddendBase == nil {
			return nil, false, invalidInstruction("fixed-post-addend slot with no base")
		}
		addend := buf.primaryOpcode & 0x7
		base := *s.AddendBase
		base.Code += addend
		return Direct{Reg: base}, false, nil

	case catalogue.EncImm:
		return d.decodeImmediate(s.Size)

	case catalogue.EncOffset:
		addrSize := isa.AddressSize(d.mode, buf.addressSizePrefix)
		disp, err := d.readDispSized(addrSize)
		if err != nil {
			return nil, false, err
		}
		addr := uint64(disp)
		switch addrSize {
		case isa.Size16:
			addr = uint64(uint16(disp))
		case isa.Size32:
			addr = uint64(uint32(disp))
		}
		seg := d.segmentOverride(buf)
		return Memory{Addr: addr, Size: s.Size, Segment: seg}, true, nil

	default:
		return nil, false, invalidInstruction("unsupported operand encoding")
	}
}

func (d *Decoder) decodeImmediate(size isa.OperandSize) (Operand, bool, error) {
	switch size {
	case isa.Size8:
		v, err := d.readLE(1)
		if err != nil {
			return nil, false, err
		}
		return Literal8{Value: uint8(v)}, false, nil
	case isa.Size16:
		v, err := d.readLE(2)
		if err != nil {
			return nil, false, err
		}
		return Literal16{Value: uint16(v)}, false, nil
	case isa.Size64:
		v, err := d.readLE(8)
		if err != nil {
			return nil, false, err
		}
		return Literal64{Value: v}, false, nil
	default: // Size32 and Unsized (treated as 32: immz without REX.W)
		v, err := d.readLE(4)
		if err != nil {
			return nil, false, err
		}
		return Literal32{Value: uint32(v)}, false, nil
	}
}

// regFromCode converts a fully extension-merged register code into a
// named register under class, following the §6 register contract.
func (d *Decoder) regFromCode(class registers.Class, code byte, size isa.OperandSize, hasREX bool) (registers.Reg, bool) {
	switch class {
	case registers.GeneralPurpose:
		return registers.GeneralSized(code, hasREX, size)
	case registers.Mask:
		if code&0x7 == 0 {
			// MaskReg reserves code 0 for the EVEX "no mask" field; as an
			// operand, code 0 names k0.
			return registers.Reg{Name: "k0", Class: registers.Mask, Code: 0, Size: isa.Size64}, true
		}
		return registers.MaskReg(code & 0x7)
	case registers.Vector:
		return registers.VectorReg(code, size)
	case registers.FPUStack:
		return registers.FPUStackReg(code & 0x7)
	case registers.MMX:
		return registers.MMXReg(code & 0x7)
	case registers.Segment:
		return registers.SegmentReg(code & 0x7)
	case registers.Control:
		return registers.ControlReg(code)
	case registers.Debug:
		return registers.DebugReg(code)
	case registers.Flags:
		return registers.FlagsReg(size)
	default:
		return registers.Reg{}, false
	}
}

// operandSize resolves a slot's nominal size against the current prefix
// state, per §4.4's "Operand size selection". class is the slot's register
// class: an Unsized vector-class slot takes its width from VEX.L/EVEX.L'L
// rather than from REX.W/the 0x66 prefix (those only resize GP operands).
func (d *Decoder) operandSize(buf *buffer, class registers.Class, nominal isa.OperandSize) isa.OperandSize {
	switch nominal {
	case isa.Size8, isa.Size128, isa.Size256, isa.Size512, isa.Size80:
		return nominal
	case isa.Unsized:
		if class == registers.Vector {
			return vectorLengthFromL(buf)
		}
		if buf.operandSize64 {
			return isa.Size64
		}
		default32 := d.mode != isa.Real
		if buf.operandSizePrefix {
			default32 = !default32
		}
		if default32 {
			return isa.Size32
		}
		return isa.Size16
	default:
		return nominal
	}
}

// segmentOverride returns the explicit segment-override register recorded
// by prefix2, or nil if none was present. Per the decoder spec's §4.4
// segment-selection rule, a nil Segment means "use the architectural
// default" (DS, or SS for esp/ebp-family bases) — this module records only
// deviations from that default on the operand, leaving the default
// implicit, since the base register itself already carries that
// information for any consumer that needs it.
func (d *Decoder) segmentOverride(buf *buffer) *registers.Reg {
	var code byte
	switch buf.prefix2 {
	case group2ES:
		code = 0
	case group2CS:
		code = 1
	case group2SS:
		code = 2
	case group2DS:
		code = 3
	case group2FS:
		code = 4
	case group2GS:
		code = 5
	default:
		return nil
	}
	r, ok := registers.SegmentReg(code)
	if !ok {
		return nil
	}
	return &r
}
