package decoder

// Legacy prefix byte values, reused verbatim from the teacher assembler's
// architecture/x86_64/instruction_prefix.go (asm.Prefix constants), since a
// decoder and an encoder must agree on exactly which bytes these are.
const (
	prefixLock        byte = 0xF0
	prefixRepNE       byte = 0xF2
	prefixRep         byte = 0xF3
	prefixCS          byte = 0x2E
	prefixSS          byte = 0x36
	prefixDS          byte = 0x3E
	prefixES          byte = 0x26
	prefixFS          byte = 0x64
	prefixGS          byte = 0x65
	prefixOperandSize byte = 0x66
	prefixAddressSize byte = 0x67
	prefixREXBase     byte = 0x40
	prefixVEX2        byte = 0xC5
	prefixVEX3        byte = 0xC4
	prefixEVEX        byte = 0x62
)

// group1Prefix is the buffer's prefix1 slot: LOCK or a repeat prefix.
type group1Prefix int

const (
	noGroup1 group1Prefix = iota
	group1Lock
	group1RepNE
	group1Rep
)

// group2Prefix is the buffer's prefix2 slot: a segment override or a
// branch hint (the same bytes, 0x2E/0x3E, double as branch-not-taken/taken
// hints on conditional jumps; the decoder records the raw segment meaning
// and leaves hint interpretation to the consumer, matching this module's
// scope of "parseable, not disassembled").
type group2Prefix int

const (
	noGroup2 group2Prefix = iota
	group2CS
	group2SS
	group2DS
	group2ES
	group2FS
	group2GS
)

// compositeKind mirrors catalogue.Composite, but the decoder keeps its own
// copy so the prefix/opcode stages don't need to import catalogue just for
// this tag.
type compositeKind int

const (
	compositeNone compositeKind = iota
	compositeREX
	compositeVEX
	compositeEVEX
)

// buffer is the decoding scratch record described in the decoder's data
// model: a flat, stack-allocated value reinitialised at the start of every
// Read, carrying every field the prefix/opcode/operand stages need to
// agree on.
type buffer struct {
	prefix1           group1Prefix
	prefix2           group2Prefix
	operandSizePrefix bool
	addressSizePrefix bool
	isTwoByteOpcode   bool

	composite   compositeKind
	fixedPrefix byte // 0 means "none latched"

	primaryOpcode   byte
	hasPrimary      bool
	secondaryOpcode byte
	hasSecondary    bool

	modRMValid bool
	modRMMod   byte
	modRMReg   byte // extension bits already merged in (0-31)
	modRMRM    byte // extension bits already merged in (0-31), no-SIB case

	sibValid bool
	sibScale byte
	sibIndex byte // extension bits already merged in (0-31)
	sibBase  byte // extension bits already merged in (0-31)

	vexOperand byte // vvvv, already one's-complemented, already V'-extended
	vexL       bool
	vexLPrime  bool // EVEX L'L high bit (vector-length/rounding field)
	vexB       bool // EVEX b: broadcast/SAE/rounding-control indicator

	operandSize64 bool // W bit, REX or VEX/EVEX

	mergeMode MergeMode
	maskReg   byte // 0 means "no mask" (K0)

	// Extension bits latched by the prefix stage, applied to the raw
	// ModR/M/SIB fields once they're read in the opcode/operand stages.
	// Additive, not bitmasks: regExt is 0 or 8 (REX/VEX) or 0/8/16/24
	// (EVEX R+R').
	regExt byte
	idxExt byte
	rmExt  byte // also covers SIB.base
}

func (b *buffer) hasREX() bool      { return b.composite == compositeREX }
func (b *buffer) hasVexOrEvex() bool { return b.composite == compositeVEX || b.composite == compositeEVEX }
