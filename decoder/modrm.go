package decoder

import "github.com/brackenfield/x86decode/isa"

// readModRM consumes the ModR/M byte (and the SIB byte it implies) exactly
// once per instruction; any displacement bytes are read later by the r/m
// sub-machine. It merges
// prefix-stage extension bits into the register fields before any table
// lookup, per the decoder spec's invariant that extension bits must be
// merged before semantic interpretation.
func (d *Decoder) readModRM(buf *buffer) error {
	if buf.modRMValid {
		return nil
	}
	b, err := d.src.Next()
	if err != nil {
		return d.translateReadErr(err, true)
	}
	d.consumed++

	buf.modRMMod = b >> 6
	rawReg := (b >> 3) & 0x7
	rawRM := b & 0x7
	buf.modRMReg = rawReg + buf.regExt
	buf.modRMRM = rawRM + buf.rmExt
	buf.modRMValid = true

	addrSize := isa.AddressSize(d.mode, buf.addressSizePrefix)
	if buf.modRMMod != 0b11 && addrSize != isa.Size16 && rawRM == 0b100 {
		return d.readSIB(buf)
	}
	return nil
}

func (d *Decoder) readSIB(buf *buffer) error {
	b, err := d.src.Next()
	if err != nil {
		return d.translateReadErr(err, true)
	}
	d.consumed++

	buf.sibScale = b >> 6
	rawIndex := (b >> 3) & 0x7
	rawBase := b & 0x7
	buf.sibIndex = rawIndex + buf.idxExt
	buf.sibBase = rawBase + buf.rmExt
	buf.sibValid = true
	return nil
}

// readDispSized reads a little-endian two's-complement displacement of the
// given width and sign-extends it to int64.
func (d *Decoder) readDispSized(size isa.OperandSize) (int64, error) {
	switch size {
	case isa.Size8:
		b, err := d.src.Next()
		if err != nil {
			return 0, d.translateReadErr(err, true)
		}
		d.consumed++
		return int64(int8(b)), nil
	case isa.Size16:
		v, err := d.readLE(2)
		if err != nil {
			return 0, err
		}
		return int64(int16(uint16(v))), nil
	case isa.Size32:
		v, err := d.readLE(4)
		if err != nil {
			return 0, err
		}
		return int64(int32(uint32(v))), nil
	case isa.Size64:
		v, err := d.readLE(8)
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	default:
		return 0, nil
	}
}

// readLE reads n little-endian bytes and returns them as an unsigned
// value, widened to uint64.
func (d *Decoder) readLE(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		b, err := d.src.Next()
		if err != nil {
			return 0, d.translateReadErr(err, true)
		}
		d.consumed++
		v |= uint64(b) << (8 * uint(i))
	}
	return v, nil
}
