package decoder

import (
	"github.com/brackenfield/x86decode/isa"
)

// readPrefixes consumes legacy prefixes, REX, VEX2, VEX3, and EVEX,
// populating buf, and returns the first byte that is not itself a prefix —
// the opcode byte that ends the loop. It implements the decoder spec's
// §4.2 prefix classification table.
func (d *Decoder) readPrefixes(buf *buffer) (byte, error) {
	for {
		b, err := d.src.Next()
		if err != nil {
			return 0, d.translateReadErr(err, true)
		}
		d.consumed++

		switch {
		case b == prefixLock:
			buf.prefix1 = group1Lock
			continue
		case b == prefixRepNE:
			buf.prefix1 = group1RepNE
			continue
		case b == prefixRep:
			buf.prefix1 = group1Rep
			continue
		case b == prefixOperandSize:
			buf.operandSizePrefix = true
			continue
		case b == prefixAddressSize:
			buf.addressSizePrefix = true
			continue
		case b == prefixCS:
			buf.prefix2 = group2CS
			continue
		case b == prefixSS:
			buf.prefix2 = group2SS
			continue
		case b == prefixDS:
			buf.prefix2 = group2DS
			continue
		case b == prefixES:
			buf.prefix2 = group2ES
			continue
		case b == prefixFS:
			buf.prefix2 = group2FS
			continue
		case b == prefixGS:
			buf.prefix2 = group2GS
			continue
		case b == 0x0F && !buf.isTwoByteOpcode:
			buf.isTwoByteOpcode = true
			continue
		case d.mode == isa.Long && b >= prefixREXBase && b <= 0x4F:
			if buf.composite != compositeNone {
				return 0, invalidInstruction("REX combined with another composite prefix")
			}
			buf.composite = compositeREX
			if b&0x08 != 0 {
				buf.operandSize64 = true
			}
			if b&0x04 != 0 {
				buf.regExt = 8
			}
			if b&0x02 != 0 {
				buf.idxExt = 8
			}
			if b&0x01 != 0 {
				buf.rmExt = 8
			}
			continue
		case b == prefixVEX2:
			if buf.composite != compositeNone {
				return 0, invalidInstruction("VEX2 combined with another composite prefix")
			}
			if err := d.readVEX2(buf); err != nil {
				return 0, err
			}
			return d.nextAfterEscape(buf)
		case b == prefixVEX3:
			if buf.composite != compositeNone {
				return 0, invalidInstruction("VEX3 combined with another composite prefix")
			}
			if err := d.readVEX3(buf); err != nil {
				return 0, err
			}
			return d.nextAfterEscape(buf)
		case b == prefixEVEX:
			if buf.composite != compositeNone {
				return 0, invalidInstruction("EVEX combined with another composite prefix")
			}
			if err := d.readEVEX(buf); err != nil {
				return 0, err
			}
			return d.nextAfterEscape(buf)
		default:
			return b, nil
		}
	}
}

// nextAfterEscape reads the opcode byte that follows a VEX/EVEX escape
// sequence; unlike the legacy prefix loop, no further prefixes are legal
// here.
func (d *Decoder) nextAfterEscape(buf *buffer) (byte, error) {
	b, err := d.src.Next()
	if err != nil {
		return 0, d.translateReadErr(err, true)
	}
	d.consumed++
	return b, nil
}

// applyMapSelect applies a VEX3/EVEX map_select field to buf, matching §4.2:
// 1 = two-byte map (as if 0F), 2 = 0F 38, 3 = 0F 3A.
func (d *Decoder) applyMapSelect(buf *buffer, m byte) error {
	switch m {
	case 1:
		buf.isTwoByteOpcode = true
	case 2:
		buf.isTwoByteOpcode = true
		buf.primaryOpcode = 0x38
		buf.hasPrimary = true
	case 3:
		buf.isTwoByteOpcode = true
		buf.primaryOpcode = 0x3A
		buf.hasPrimary = true
	default:
		return invalidInstruction("invalid VEX/EVEX map_select")
	}
	return nil
}

// readVEX2 reads the one follow-on byte of a 0xC5 VEX2 prefix.
func (d *Decoder) readVEX2(buf *buffer) error {
	b, err := d.src.Next()
	if err != nil {
		return d.translateReadErr(err, true)
	}
	d.consumed++

	buf.composite = compositeVEX
	// VEX2 always implies the two-byte (0F) opcode map; see §4.2's note on
	// why this must be set even though the source this module was built
	// from omits it for VEX2 specifically.
	buf.isTwoByteOpcode = true

	r := b&0x80 != 0
	if !r && d.mode == isa.Long {
		buf.regExt = 8
	}
	// vvvv is one's-complement encoded per Intel; invert it here rather
	// than using the raw (b>>3)&0xF extraction.
	buf.vexOperand = (^(b >> 3)) & 0xF
	buf.vexL = b&0x4 != 0
	switch b & 0x3 {
	case 0x1:
		buf.operandSizePrefix = true
		buf.fixedPrefix = prefixOperandSize
	case 0x2:
		buf.fixedPrefix = prefixRep
	case 0x3:
		buf.fixedPrefix = prefixRepNE
	}
	return nil
}

// readVEX3 reads the two follow-on bytes of a 0xC4 VEX3 prefix.
func (d *Decoder) readVEX3(buf *buffer) error {
	b1, err := d.src.Next()
	if err != nil {
		return d.translateReadErr(err, true)
	}
	d.consumed++
	b2, err := d.src.Next()
	if err != nil {
		return d.translateReadErr(err, true)
	}
	d.consumed++

	buf.composite = compositeVEX

	r := b1&0x80 != 0
	x := b1&0x40 != 0
	bb := b1&0x20 != 0
	if d.mode == isa.Long {
		if !r {
			buf.regExt = 8
		}
		if !x {
			buf.idxExt = 8
		}
		if !bb {
			buf.rmExt = 8
		}
	}
	if err := d.applyMapSelect(buf, b1&0x1F); err != nil {
		return err
	}

	buf.operandSize64 = b2&0x80 != 0
	buf.vexOperand = (^(b2 >> 3)) & 0xF
	buf.vexL = b2&0x4 != 0
	switch b2 & 0x3 {
	case 0x1:
		buf.operandSizePrefix = true
		buf.fixedPrefix = prefixOperandSize
	case 0x2:
		buf.fixedPrefix = prefixRep
	case 0x3:
		buf.fixedPrefix = prefixRepNE
	}
	return nil
}

// readEVEX reads the three follow-on bytes of a 0x62 EVEX prefix.
func (d *Decoder) readEVEX(buf *buffer) error {
	b1, err := d.src.Next()
	if err != nil {
		return d.translateReadErr(err, true)
	}
	d.consumed++
	b2, err := d.src.Next()
	if err != nil {
		return d.translateReadErr(err, true)
	}
	d.consumed++
	b3, err := d.src.Next()
	if err != nil {
		return d.translateReadErr(err, true)
	}
	d.consumed++

	buf.composite = compositeEVEX

	r := b1&0x80 != 0
	x := b1&0x40 != 0
	bb := b1&0x20 != 0
	rPrime := b1&0x10 != 0
	if d.mode == isa.Long {
		if !r {
			buf.regExt = 8
		}
		if !rPrime {
			buf.regExt += 16
		}
		if !x {
			buf.idxExt = 8
		}
		if !bb {
			buf.rmExt = 8
		}
	}
	if err := d.applyMapSelect(buf, b1&0x3); err != nil {
		return err
	}

	buf.operandSize64 = b2&0x80 != 0
	vvvv := (^(b2 >> 3)) & 0xF
	switch b2 & 0x3 {
	case 0x1:
		buf.operandSizePrefix = true
		buf.fixedPrefix = prefixOperandSize
	case 0x2:
		buf.fixedPrefix = prefixRep
	case 0x3:
		buf.fixedPrefix = prefixRepNE
	}

	z := b3&0x80 != 0
	if z {
		buf.mergeMode = Zero
	} else {
		buf.mergeMode = Merge
	}
	buf.vexLPrime = b3&0x40 != 0
	buf.vexL = b3&0x20 != 0
	buf.vexB = b3&0x10 != 0
	vPrime := b3&0x08 != 0
	if !vPrime {
		vvvv |= 0x10
	}
	buf.vexOperand = vvvv
	buf.maskReg = b3 & 0x7

	return nil
}
