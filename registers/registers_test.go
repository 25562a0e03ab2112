package registers

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/brackenfield/x86decode/isa"
)

func TestGeneralSizedLegacy8Bit(t *testing.T) {
	// Without REX, codes 4-7 at 8-bit width name AH/CH/DH/BH.
	r, ok := GeneralSized(4, false, isa.Size8)
	if !ok {
		t.Fatal("GeneralSized(4, false, Size8) not found")
	}
	if r.Name != "ah" {
		t.Errorf("Name = %q, want \"ah\"", r.Name)
	}
}

func TestGeneralSizedRex8Bit(t *testing.T) {
	// With REX present, codes 4-7 at 8-bit width name SPL/BPL/SIL/DIL.
	r, ok := GeneralSized(4, true, isa.Size8)
	if !ok {
		t.Fatal("GeneralSized(4, true, Size8) not found")
	}
	if r.Name != "spl" {
		t.Errorf("Name = %q, want \"spl\"", r.Name)
	}
}

func TestGeneralSizedExtended(t *testing.T) {
	r, ok := GeneralSized(13, true, isa.Size64)
	if !ok {
		t.Fatal("GeneralSized(13, true, Size64) not found")
	}
	want := Reg{Name: "r13", Class: GeneralPurpose, Code: 13, Size: isa.Size64}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("GeneralSized(13, true, Size64) mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneralSizedOutOfRange(t *testing.T) {
	if _, ok := GeneralSized(16, true, isa.Size32); ok {
		t.Error("GeneralSized(16, ...) should fail, only codes 0-15 are valid")
	}
}

func TestMaskRegK0IsAbsent(t *testing.T) {
	if _, ok := MaskReg(0); ok {
		t.Error("MaskReg(0) should report ok=false: K0 means \"no mask\", not a literal register")
	}
	r, ok := MaskReg(3)
	if !ok || r.Name != "k3" {
		t.Errorf("MaskReg(3) = %+v, %v; want k3, true", r, ok)
	}
}

func TestVectorRegWidths(t *testing.T) {
	tests := []struct {
		size isa.OperandSize
		want string
	}{
		{isa.Size128, "xmm5"},
		{isa.Size256, "ymm5"},
		{isa.Size512, "zmm5"},
	}
	for _, tt := range tests {
		r, ok := VectorReg(5, tt.size)
		if !ok || r.Name != tt.want {
			t.Errorf("VectorReg(5, %v) = %+v, %v; want %q", tt.size, r, ok, tt.want)
		}
	}
	if _, ok := VectorReg(5, isa.Size64); ok {
		t.Error("VectorReg should reject a non-vector size")
	}
}

func TestFPUStackNaming(t *testing.T) {
	top, _ := FPUStackReg(0)
	if top.Name != "st" {
		t.Errorf("FPUStackReg(0).Name = %q, want \"st\"", top.Name)
	}
	second, _ := FPUStackReg(2)
	if second.Name != "st(2)" {
		t.Errorf("FPUStackReg(2).Name = %q, want \"st(2)\"", second.Name)
	}
}

func TestRegEqualityAsMapKey(t *testing.T) {
	a, _ := GeneralSized(0, true, isa.Size64)
	b, _ := GeneralSized(0, true, isa.Size64)
	m := map[Reg]bool{a: true}
	if !m[b] {
		t.Error("equal Reg values should compare equal and collide as map keys")
	}
}
