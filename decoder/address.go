package decoder

import (
	"github.com/brackenfield/x86decode/catalogue"
	"github.com/brackenfield/x86decode/isa"
	"github.com/brackenfield/x86decode/registers"
)

// decodeModRmRm implements the r/m half of §4.4: register-direct when
// mod==11 (or for register classes with no memory form at all, such as
// FPU-stack and mask registers), otherwise the 16-bit or 32/64-bit
// addressing sub-machine.
func (d *Decoder) decodeModRmRm(buf *buffer, s *catalogue.OperandSlot) (Operand, bool, error) {
	size := d.operandSize(buf, s.RegClass, s.Size)

	if buf.modRMMod == 0b11 || s.RegClass == registers.FPUStack || s.RegClass == registers.Mask {
		code := buf.modRMRM
		if s.RegClass == registers.Mask {
			code &= 0x7
		}
		r, ok := d.regFromCode(s.RegClass, code, size, buf.hasREX())
		if !ok {
			return nil, false, invalidInstruction("invalid ModR/M.rm register code")
		}
		return Direct{Reg: r}, false, nil
	}

	addrSize := isa.AddressSize(d.mode, buf.addressSizePrefix)
	seg := d.segmentOverride(buf)
	if addrSize == isa.Size16 {
		op, err := d.decodeMem16(buf, size, seg)
		return op, true, err
	}
	op, err := d.decodeMem3264(buf, size, seg, addrSize)
	return op, true, err
}

func reg16(code byte) registers.Reg {
	r, _ := registers.GeneralSized(code, false, isa.Size16)
	return r
}

// decodeMem16 implements §4.4's 16-bit addressing table.
func (d *Decoder) decodeMem16(buf *buffer, size isa.OperandSize, seg *registers.Reg) (Operand, error) {
	mod := buf.modRMMod
	rm := buf.modRMRM & 0x7

	var base1, base2 *registers.Reg
	switch rm {
	case 0:
		b1, b2 := reg16(3), reg16(6) // BX, SI
		base1, base2 = &b1, &b2
	case 1:
		b1, b2 := reg16(3), reg16(7) // BX, DI
		base1, base2 = &b1, &b2
	case 2:
		b1, b2 := reg16(5), reg16(6) // BP, SI
		base1, base2 = &b1, &b2
	case 3:
		b1, b2 := reg16(5), reg16(7) // BP, DI
		base1, base2 = &b1, &b2
	case 4:
		b1 := reg16(6) // SI
		base1 = &b1
	case 5:
		b1 := reg16(7) // DI
		base1 = &b1
	case 6:
		if mod != 0 {
			b1 := reg16(5) // BP
			base1 = &b1
		}
	case 7:
		b1 := reg16(3) // BX
		base1 = &b1
	}

	var dispSize isa.OperandSize
	switch {
	case mod == 0 && rm == 6:
		dispSize = isa.Size16
	case mod == 1:
		dispSize = isa.Size8
	case mod == 2:
		dispSize = isa.Size16
	}

	var disp int64
	var err error
	if dispSize != isa.Unsized {
		disp, err = d.readDispSized(dispSize)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case base1 == nil && base2 == nil:
		return Memory{Addr: uint64(uint16(disp)), Size: size, Segment: seg}, nil
	case base1 != nil && base2 != nil:
		if dispSize == isa.Unsized {
			return IndirectScaledIndexed{Base: *base1, Index: *base2, Scale: isa.ScaleOne, Size: size, Segment: seg}, nil
		}
		return IndirectScaledIndexedDisplaced{Base: *base1, Index: *base2, Scale: isa.ScaleOne, Disp: disp, Size: size, Segment: seg}, nil
	default:
		if dispSize == isa.Unsized {
			return Indirect{Base: *base1, Size: size, Segment: seg}, nil
		}
		return IndirectDisplaced{Base: *base1, Disp: disp, Size: size, Segment: seg}, nil
	}
}

// decodeMem3264 implements §4.4's 32/64-bit addressing table (the no-SIB
// branch; readModRM has already consumed a SIB byte into buf when one was
// required, and decodeSIB below is used for that branch instead).
func (d *Decoder) decodeMem3264(buf *buffer, size isa.OperandSize, seg *registers.Reg, addrSize isa.OperandSize) (Operand, error) {
	mod := buf.modRMMod
	rawRM := buf.modRMRM & 0x7

	if rawRM == 0b100 {
		return d.decodeSIB(buf, size, seg, addrSize)
	}

	if mod == 0 && rawRM == 0b101 {
		disp, err := d.readDispSized(isa.Size32)
		if err != nil {
			return nil, err
		}
		if d.mode == isa.Long {
			return Offset{Disp: disp, Size: size, Segment: seg}, nil
		}
		return Memory{Addr: uint64(uint32(disp)), Size: size, Segment: seg}, nil
	}

	base, ok := registers.GeneralSized(buf.modRMRM, buf.hasREX()||buf.hasVexOrEvex(), addrSize)
	if !ok {
		return nil, invalidInstruction("invalid ModR/M.rm base register code")
	}

	switch mod {
	case 0:
		return Indirect{Base: base, Size: size, Segment: seg}, nil
	case 1:
		disp, err := d.readDispSized(isa.Size8)
		if err != nil {
			return nil, err
		}
		return IndirectDisplaced{Base: base, Disp: disp, Size: size, Segment: seg}, nil
	default: // 2
		disp, err := d.readDispSized(isa.Size32)
		if err != nil {
			return nil, err
		}
		return IndirectDisplaced{Base: base, Disp: disp, Size: size, Segment: seg}, nil
	}
}

func sibScaleOf(raw byte) isa.RegScale {
	switch raw {
	case 0:
		return isa.ScaleOne
	case 1:
		return isa.ScaleTwo
	case 2:
		return isa.ScaleFour
	default:
		return isa.ScaleEight
	}
}

// decodeSIB implements §4.4's SIB table. mod/rawRM==0b100 having already
// selected this path; buf.sibValid is guaranteed true by readModRM.
func (d *Decoder) decodeSIB(buf *buffer, size isa.OperandSize, seg *registers.Reg, addrSize isa.OperandSize) (Operand, error) {
	mod := buf.modRMMod
	rawIndex := buf.sibIndex & 0x7
	rawBase := buf.sibBase & 0x7
	scale := sibScaleOf(buf.sibScale)
	noIndex := rawIndex == 0b100
	hasREX := buf.hasREX() || buf.hasVexOrEvex()

	if mod == 0 {
		if noIndex && rawBase == 0b101 {
			disp, err := d.readDispSized(isa.Size32)
			if err != nil {
				return nil, err
			}
			return Memory{Addr: uint64(uint32(disp)), Size: size, Segment: seg}, nil
		}
		if noIndex {
			base, ok := registers.GeneralSized(buf.sibBase, hasREX, addrSize)
			if !ok {
				return nil, invalidInstruction("invalid SIB base register code")
			}
			return Indirect{Base: base, Size: size, Segment: seg}, nil
		}
		index, ok := registers.GeneralSized(buf.sibIndex, hasREX, addrSize)
		if !ok {
			return nil, invalidInstruction("invalid SIB index register code")
		}
		if rawBase == 0b101 {
			disp, err := d.readDispSized(isa.Size32)
			if err != nil {
				return nil, err
			}
			return IndirectScaledDisplaced{Index: index, Scale: scale, Disp: disp, Size: size, Segment: seg}, nil
		}
		base, ok := registers.GeneralSized(buf.sibBase, hasREX, addrSize)
		if !ok {
			return nil, invalidInstruction("invalid SIB base register code")
		}
		return IndirectScaledIndexed{Base: base, Index: index, Scale: scale, Size: size, Segment: seg}, nil
	}

	// mod == 01 or 10: base is always present (even when rawBase==0b101,
	// which now legitimately names RBP/R13), disp8 or disp32 follows.
	dispSize := isa.Size8
	if mod == 2 {
		dispSize = isa.Size32
	}
	base, ok := registers.GeneralSized(buf.sibBase, hasREX, addrSize)
	if !ok {
		return nil, invalidInstruction("invalid SIB base register code")
	}
	disp, err := d.readDispSized(dispSize)
	if err != nil {
		return nil, err
	}
	if noIndex {
		return IndirectDisplaced{Base: base, Disp: disp, Size: size, Segment: seg}, nil
	}
	index, ok := registers.GeneralSized(buf.sibIndex, hasREX, addrSize)
	if !ok {
		return nil, invalidInstruction("invalid SIB index register code")
	}
	return IndirectScaledIndexedDisplaced{Base: base, Index: index, Scale: scale, Disp: disp, Size: size, Segment: seg}, nil
}
