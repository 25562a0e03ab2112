package decoder

import (
	"errors"
	"testing"

	"github.com/brackenfield/x86decode/isa"
	"github.com/brackenfield/x86decode/registers"
)

func mustDecode(t *testing.T, mode isa.Mode, data []byte) Instruction {
	t.Helper()
	d := New(NewByteSource(data), mode)
	inst, err := d.Read()
	if err != nil {
		t.Fatalf("Read(% x) returned %v", data, err)
	}
	return inst
}

func directName(t *testing.T, op Operand) string {
	t.Helper()
	d, ok := op.(Direct)
	if !ok {
		t.Fatalf("operand %#v is not Direct", op)
	}
	return d.Reg.Name
}

// --- §8 literal byte-exact vectors ------------------------------------

func TestVectorFCMOVE16Bit(t *testing.T) {
	inst := mustDecode(t, isa.Real, []byte{0xDA, 0xCF})
	if inst.Mnemonic != "FCMOVE" {
		t.Fatalf("Mnemonic = %q, want FCMOVE", inst.Mnemonic)
	}
	if directName(t, inst.Operand1) != "st" {
		t.Errorf("Operand1 = %q, want st", directName(t, inst.Operand1))
	}
	if directName(t, inst.Operand2) != "st(7)" {
		t.Errorf("Operand2 = %q, want st(7)", directName(t, inst.Operand2))
	}
}

func TestVectorFCMOVE64Bit(t *testing.T) {
	inst := mustDecode(t, isa.Long, []byte{0xDA, 0xCB})
	if inst.Mnemonic != "FCMOVE" {
		t.Fatalf("Mnemonic = %q, want FCMOVE", inst.Mnemonic)
	}
	if directName(t, inst.Operand2) != "st(3)" {
		t.Errorf("Operand2 = %q, want st(3)", directName(t, inst.Operand2))
	}
}

func TestVectorKANDB(t *testing.T) {
	inst := mustDecode(t, isa.Protected, []byte{0xC5, 0xF5, 0x41, 0xE5})
	if inst.Mnemonic != "KANDB" {
		t.Fatalf("Mnemonic = %q, want KANDB", inst.Mnemonic)
	}
	if directName(t, inst.Operand1) != "k4" || directName(t, inst.Operand2) != "k1" || directName(t, inst.Operand3) != "k5" {
		t.Errorf("operands = %v, %v, %v; want k4, k1, k5", inst.Operand1, inst.Operand2, inst.Operand3)
	}
}

func TestVectorKORQ(t *testing.T) {
	inst := mustDecode(t, isa.Protected, []byte{0xC4, 0xE1, 0xC4, 0x45, 0xFB})
	if inst.Mnemonic != "KORQ" {
		t.Fatalf("Mnemonic = %q, want KORQ", inst.Mnemonic)
	}
}

func TestVectorKXNORQ(t *testing.T) {
	inst := mustDecode(t, isa.Protected, []byte{0xC4, 0xE1, 0xD4, 0x46, 0xE4})
	if inst.Mnemonic != "KXNORQ" {
		t.Fatalf("Mnemonic = %q, want KXNORQ", inst.Mnemonic)
	}
}

func TestVectorXSAVEC64Bit(t *testing.T) {
	inst := mustDecode(t, isa.Long, []byte{0x0F, 0xC7, 0x23})
	if inst.Mnemonic != "XSAVEC" {
		t.Fatalf("Mnemonic = %q, want XSAVEC", inst.Mnemonic)
	}
	mem, ok := inst.Operand1.(Indirect)
	if !ok {
		t.Fatalf("Operand1 = %#v, want Indirect", inst.Operand1)
	}
	if mem.Base.Name != "rbx" {
		t.Errorf("Base = %q, want rbx", mem.Base.Name)
	}
}

func TestVectorXSAVEC32BitSIB(t *testing.T) {
	inst := mustDecode(t, isa.Protected, []byte{0x0F, 0xC7, 0x24, 0xD5, 0x7F, 0x93, 0x49, 0x3F})
	if inst.Mnemonic != "XSAVEC" {
		t.Fatalf("Mnemonic = %q, want XSAVEC", inst.Mnemonic)
	}
	mem, ok := inst.Operand1.(IndirectScaledDisplaced)
	if !ok {
		t.Fatalf("Operand1 = %#v, want IndirectScaledDisplaced", inst.Operand1)
	}
	if mem.Index.Name != "edx" {
		t.Errorf("Index = %q, want edx", mem.Index.Name)
	}
	if mem.Scale != isa.ScaleEight {
		t.Errorf("Scale = %v, want ScaleEight", mem.Scale)
	}
	if mem.Disp != 0x3F49937F {
		t.Errorf("Disp = %#x, want 0x3F49937F", mem.Disp)
	}
}

// --- Mode sensitivity ----------------------------------------------------

func TestModeSensitivity48_01_C0(t *testing.T) {
	inst := mustDecode(t, isa.Long, []byte{0x48, 0x01, 0xC0})
	if inst.Mnemonic != "ADD" {
		t.Fatalf("long mode: Mnemonic = %q, want ADD", inst.Mnemonic)
	}
	if directName(t, inst.Operand1) != "rax" || directName(t, inst.Operand2) != "rax" {
		t.Errorf("long mode operands = %v, %v; want rax, rax", inst.Operand1, inst.Operand2)
	}

	d := New(NewByteSource([]byte{0x48, 0x01, 0xC0}), isa.Protected)
	first, err := d.Read()
	if err != nil {
		t.Fatalf("protected mode first Read returned %v", err)
	}
	if first.Mnemonic != "DEC" || directName(t, first.Operand1) != "eax" {
		t.Fatalf("protected mode first instruction = %+v, want DEC eax", first)
	}
	second, err := d.Read()
	if err != nil {
		t.Fatalf("protected mode second Read returned %v", err)
	}
	if second.Mnemonic != "ADD" || directName(t, second.Operand1) != "eax" || directName(t, second.Operand2) != "eax" {
		t.Fatalf("protected mode second instruction = %+v, want ADD eax, eax", second)
	}
}

// --- Address-size prefix --------------------------------------------------

func TestAddressSizePrefixSwitchesTo16Bit(t *testing.T) {
	// LEA r32, [BX+SI] in protected mode with a 0x67 address-size override
	// (the operand size stays 32): ModR/M 0x00 selects the 16-bit table's rm==0 (BX+SI) combined-base form.
	inst := mustDecode(t, isa.Protected, []byte{0x67, 0x8D, 0x00})
	if inst.Mnemonic != "LEA" {
		t.Fatalf("Mnemonic = %q, want LEA", inst.Mnemonic)
	}
	mem, ok := inst.Operand2.(IndirectScaledIndexed)
	if !ok {
		t.Fatalf("Operand2 = %#v, want IndirectScaledIndexed", inst.Operand2)
	}
	if mem.Base.Name != "bx" || mem.Index.Name != "si" {
		t.Errorf("Base/Index = %q/%q, want bx/si", mem.Base.Name, mem.Index.Name)
	}
}

// --- EOS / PartialInstruction discrimination ------------------------------

func TestEndOfStreamOnEmptySource(t *testing.T) {
	d := New(NewByteSource(nil), isa.Long)
	_, err := d.Read()
	if !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("Read() on empty source = %v, want ErrEndOfStream", err)
	}
}

func TestPartialInstructionMidPrefix(t *testing.T) {
	// A lone REX byte with nothing after it: the stream ended mid-instruction,
	// not cleanly between instructions.
	d := New(NewByteSource([]byte{0x48}), isa.Long)
	_, err := d.Read()
	if !errors.Is(err, ErrPartialInstruction) {
		t.Fatalf("Read([0x48]) = %v, want ErrPartialInstruction", err)
	}
}

func TestPartialInstructionMidModRM(t *testing.T) {
	d := New(NewByteSource([]byte{0x01}), isa.Long) // ADD r/m32, r32 with no ModR/M byte
	_, err := d.Read()
	if !errors.Is(err, ErrPartialInstruction) {
		t.Fatalf("Read([0x01]) = %v, want ErrPartialInstruction", err)
	}
}

// --- Negative/error-path tests --------------------------------------------

func TestInvalidInstructionRexBeforeVex(t *testing.T) {
	d := New(NewByteSource([]byte{0x48, 0xC5, 0xF5, 0x41, 0xE5}), isa.Long)
	_, err := d.Read()
	if !errors.Is(err, ErrInvalidInstruction) {
		t.Fatalf("Read(REX, VEX2, ...) = %v, want ErrInvalidInstruction", err)
	}
}

func TestInvalidInstructionBadMapSelect(t *testing.T) {
	d := New(NewByteSource([]byte{0xC4, 0xFF, 0xFF, 0x00}), isa.Long)
	_, err := d.Read()
	if !errors.Is(err, ErrInvalidInstruction) {
		t.Fatalf("Read(VEX3 map_select=31) = %v, want ErrInvalidInstruction", err)
	}
}

func TestUnknownOpcode(t *testing.T) {
	d := New(NewByteSource([]byte{0x0F, 0xFF}), isa.Protected)
	_, err := d.Read()
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("Read(0F FF) = %v, want ErrUnknownOpcode", err)
	}
}

// --- SIB edge cases --------------------------------------------------------

func TestSIBNoIndexNoBase(t *testing.T) {
	// ModR/M=0x04 (mod=00,reg=000,rm=100->SIB), SIB=0x25 (scale=0,index=100
	// "none",base=101 "none at mod 00"): disp32-only addressing, no
	// registers at all. This holds regardless of REX.B (§4.4's "reserved
	// slot" invariant: mod==00 with SIB.base==101 always means "no base",
	// never RBP/R13) — exercised with REX.B set here to prove the raw,
	// pre-extension base field is what selects this case.
	inst := mustDecode(t, isa.Long, []byte{0x41, 0x8D, 0x04, 0x25, 0x78, 0x56, 0x34, 0x12})
	if inst.Mnemonic != "LEA" {
		t.Fatalf("Mnemonic = %q, want LEA", inst.Mnemonic)
	}
	mem, ok := inst.Operand2.(Memory)
	if !ok {
		t.Fatalf("Operand2 = %#v, want Memory", inst.Operand2)
	}
	if mem.Addr != 0x12345678 {
		t.Errorf("Addr = %#x, want 0x12345678", mem.Addr)
	}
}

func TestSIBR13AsBaseAtMod01(t *testing.T) {
	// REX.B set, ModR/M mod=01 rm=100->SIB, SIB index=100 "none" base=101:
	// at mod!=00 the base field's raw value 101 is a real register (RBP/R13
	// depending on REX.B), not the reserved "absent" slot — that reservation
	// only applies at mod==00.
	inst := mustDecode(t, isa.Long, []byte{0x41, 0x8D, 0x44, 0x25, 0x01})
	if inst.Mnemonic != "LEA" {
		t.Fatalf("Mnemonic = %q, want LEA", inst.Mnemonic)
	}
	mem, ok := inst.Operand2.(IndirectDisplaced)
	if !ok {
		t.Fatalf("Operand2 = %#v, want IndirectDisplaced", inst.Operand2)
	}
	if mem.Base.Name != "r13" {
		t.Errorf("Base = %q, want r13", mem.Base.Name)
	}
	if mem.Disp != 1 {
		t.Errorf("Disp = %d, want 1", mem.Disp)
	}
}

func TestMaskRegisterK0MeansNoMask(t *testing.T) {
	// EVEX.512.0F.W0 58 /r with aaa==000: no write mask should be recorded.
	evex := []byte{0x62, 0xF1, 0x7C, 0x48, 0x58, 0xC1}
	inst := mustDecode(t, isa.Long, evex)
	if inst.Mnemonic != "VADDPS" {
		t.Fatalf("Mnemonic = %q, want VADDPS", inst.Mnemonic)
	}
	if inst.Mask != nil {
		t.Errorf("Mask = %v, want nil (K0 means no mask)", inst.Mask)
	}
}

func TestEVEXBroadcastOnMemoryOperand(t *testing.T) {
	// Same VADDPS, but with a memory r/m and b=1: broadcast, not rounding.
	// EVEX.512.0F.W0 58 /r, ModR/M mod=00 rm=000 (register-indirect [rax]).
	evex := []byte{0x62, 0xF1, 0x7C, 0x58, 0x58, 0x00}
	inst := mustDecode(t, isa.Long, evex)
	if inst.Mnemonic != "VADDPS" {
		t.Fatalf("Mnemonic = %q, want VADDPS", inst.Mnemonic)
	}
	if inst.Broadcast == nil {
		t.Fatal("Broadcast = nil, want a BroadcastMode (b=1 on a memory operand)")
	}
	if inst.Broadcast.N != 16 {
		t.Errorf("Broadcast.N = %d, want 16 (512-bit vector / 32-bit element)", inst.Broadcast.N)
	}
	if inst.SAE {
		t.Error("SAE should not be set for a broadcast, only for embedded rounding")
	}
}

func TestEVEXRoundingOnRegisterOperand(t *testing.T) {
	// Same opcode, register-direct r/m (mod=11): b=1 now means embedded
	// rounding + SAE, not broadcast.
	evex := []byte{0x62, 0xF1, 0x7C, 0x58, 0x58, 0xC1}
	inst := mustDecode(t, isa.Long, evex)
	if !inst.SAE {
		t.Error("SAE should be set when b=1 on a register-direct operand")
	}
	if inst.RoundingMode == nil {
		t.Fatal("RoundingMode = nil, want a RoundingMode")
	}
	if inst.Broadcast != nil {
		t.Error("Broadcast should not be set alongside embedded rounding")
	}
}

func TestSegmentOverridePrefix(t *testing.T) {
	// FS: LEA eax, [rax] — the override should show up on the decoded
	// memory operand's Segment field.
	inst := mustDecode(t, isa.Long, []byte{0x64, 0x8D, 0x00})
	mem, ok := inst.Operand2.(Indirect)
	if !ok {
		t.Fatalf("Operand2 = %#v, want Indirect", inst.Operand2)
	}
	if mem.Segment == nil || mem.Segment.Class != registers.Segment || mem.Segment.Name != "fs" {
		t.Errorf("Segment = %v, want fs", mem.Segment)
	}
}

// --- §8 round-trip-shaped property --------------------------------------

func TestVADDPSVectorLengthSelection(t *testing.T) {
	// Same opcode byte (VADDPS, EVEX.0F.W0 58 /r), ModR/M mod=11 reg=0
	// rm=1 (register-direct) in every case; only EVEX byte 3's L'L pair
	// changes. The operand width must track L'L, not whichever width was
	// registered first.
	tests := []struct {
		name  string
		byte3 byte
		want  isa.OperandSize
	}{
		{"L'L=00 selects xmm", 0x08, isa.Size128},
		{"L'L=01 selects ymm", 0x28, isa.Size256},
		{"L'L=10 selects zmm", 0x48, isa.Size512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte{0x62, 0xF1, 0x7C, tt.byte3, 0x58, 0xC1}
			inst := mustDecode(t, isa.Long, data)
			if inst.Mnemonic != "VADDPS" {
				t.Fatalf("Mnemonic = %q, want VADDPS", inst.Mnemonic)
			}
			dst, ok := inst.Operand1.(Direct)
			if !ok {
				t.Fatalf("Operand1 = %#v, want Direct", inst.Operand1)
			}
			if dst.Reg.Size != tt.want {
				t.Errorf("Operand1.Reg.Size = %v, want %v", dst.Reg.Size, tt.want)
			}
			src, ok := inst.Operand3.(Direct)
			if !ok {
				t.Fatalf("Operand3 = %#v, want Direct", inst.Operand3)
			}
			if src.Reg.Size != tt.want {
				t.Errorf("Operand3.Reg.Size = %v, want %v", src.Reg.Size, tt.want)
			}
		})
	}
}

// TestRoundTripCatalogueDefinitions synthesizes bytes for a sample of
// registered catalogue entries spanning legacy, VEX and EVEX encodings and
// decodes them back, checking that the resolved mnemonic and operand count
// match what was used to pick the bytes — the §8 round-trip-shaped
// property, without needing the out-of-scope encoder direction.
func TestRoundTripCatalogueDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		mode     isa.Mode
		data     []byte
		mnemonic string
		operands int
	}{
		{"legacy ADD r/m32, r32 (ModR/M, reg-direct)", isa.Protected, []byte{0x01, 0xD8}, "ADD", 2},
		{"VEX2 KANDB (composite VEX, ModR/M)", isa.Protected, []byte{0xC5, 0xF5, 0x41, 0xE5}, "KANDB", 3},
		{"EVEX VADDPS zmm (composite EVEX, ModR/M, vvvv)", isa.Long, []byte{0x62, 0xF1, 0x7C, 0x48, 0x58, 0xC1}, "VADDPS", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := mustDecode(t, tt.mode, tt.data)
			if inst.Mnemonic != tt.mnemonic {
				t.Errorf("Mnemonic = %q, want %q", inst.Mnemonic, tt.mnemonic)
			}
			if got := countOperands(inst); got != tt.operands {
				t.Errorf("operand count = %d, want %d", got, tt.operands)
			}
		})
	}
}

func countOperands(inst Instruction) int {
	n := 0
	for _, op := range []Operand{inst.Operand1, inst.Operand2, inst.Operand3, inst.Operand4} {
		if op != nil {
			n++
		}
	}
	return n
}
