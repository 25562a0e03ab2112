package decoder

import (
	"github.com/brackenfield/x86decode/catalogue"
	"github.com/brackenfield/x86decode/isa"
)

// resolveAndDecode implements §4.3 (opcode resolver) and drives §4.4
// (operand decoder) once a Definition has been found.
func (d *Decoder) resolveAndDecode(buf *buffer, opcodeByte byte) (Instruction, error) {
	if !buf.hasPrimary {
		buf.primaryOpcode = opcodeByte
		buf.hasPrimary = true
	} else {
		buf.secondaryOpcode = opcodeByte
		buf.hasSecondary = true
	}

	// Legacy three-byte opcode maps (0F 38, 0F 3A) carried without a
	// VEX/EVEX escape: consume one more byte into secondaryOpcode.
	if buf.isTwoByteOpcode && !buf.hasSecondary && !buf.hasVexOrEvex() &&
		(buf.primaryOpcode == 0x38 || buf.primaryOpcode == 0x3A) {
		b, err := d.src.Next()
		if err != nil {
			return Instruction{}, d.translateReadErr(err, true)
		}
		d.consumed++
		buf.secondaryOpcode = b
		buf.hasSecondary = true
	}

	key := d.catalogueKey(buf, nil)
	def, err := catalogue.Find(key)
	if err == catalogue.ErrNeedOpcodeExt {
		if err := d.readModRM(buf); err != nil {
			return Instruction{}, err
		}
		ext := buf.modRMReg & 0x7
		key = d.catalogueKey(buf, &ext)
		def, err = catalogue.Find(key)
	}
	if err == catalogue.ErrNotFound {
		return Instruction{}, unknownOpcode("no catalogue definition for this opcode")
	}
	if err != nil {
		return Instruction{}, unknownOpcode(err.Error())
	}

	if def.RequiresOpcodeExt && !buf.modRMValid {
		if err := d.readModRM(buf); err != nil {
			return Instruction{}, err
		}
		ext := buf.modRMReg & 0x7
		key = d.catalogueKey(buf, &ext)
		def, err = catalogue.Find(key)
		if err != nil {
			return Instruction{}, unknownOpcode("no catalogue definition for this opcode extension")
		}
	}

	needsModRM := def.RequiresOpcodeExt
	for _, s := range def.Operands {
		if s == nil {
			continue
		}
		switch s.Encoding {
		case catalogue.EncModRmReg, catalogue.EncModRmRm, catalogue.EncMib, catalogue.EncFixedPostAddend:
			needsModRM = true
		}
	}
	if needsModRM && !buf.modRMValid {
		if err := d.readModRM(buf); err != nil {
			return Instruction{}, err
		}
	}

	if d.trace != nil {
		d.trace.SetStage("operand")
	}
	return d.decodeOperands(buf, def)
}

func (d *Decoder) catalogueKey(buf *buffer, ext *byte) catalogue.Key {
	composite := catalogue.NoComposite
	// REX.W changes a legacy instruction's operand size, never its
	// mnemonic identity, so it is deliberately excluded from the key for
	// Composite==NoComposite; only the small number of VEX/EVEX mnemonics
	// whose identity genuinely depends on W (KORD/KORQ, KXNORW/KXNORQ)
	// need it in the lookup key.
	w := false
	var vecLen isa.OperandSize
	switch buf.composite {
	case compositeVEX:
		composite = catalogue.VEX
		w = buf.operandSize64
		vecLen = vectorLengthFromL(buf)
	case compositeEVEX:
		composite = catalogue.EVEX
		w = buf.operandSize64
		vecLen = vectorLengthFromL(buf)
	}
	return catalogue.Key{
		IsTwoByte:    buf.isTwoByteOpcode,
		Primary:      buf.primaryOpcode,
		Secondary:    buf.secondaryOpcode,
		HasSecondary: buf.hasSecondary,
		OpcodeExt:    ext,
		Mode:         d.mode,
		Composite:    composite,
		FixedPrefix:  buf.fixedPrefix,
		W:            w,
		VectorLen:    vecLen,
	}
}
