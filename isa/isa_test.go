package isa

import "testing"

func TestAddressSize(t *testing.T) {
	tests := []struct {
		mode   Mode
		prefix bool
		want   OperandSize
	}{
		{Real, false, Size16},
		{Real, true, Size32},
		{Protected, false, Size32},
		{Protected, true, Size16},
		{Long, false, Size64},
		{Long, true, Size32},
	}
	for _, tt := range tests {
		if got := AddressSize(tt.mode, tt.prefix); got != tt.want {
			t.Errorf("AddressSize(%v, %v) = %v, want %v", tt.mode, tt.prefix, got, tt.want)
		}
	}
}

func TestModeString(t *testing.T) {
	if Real.String() != "real" || Protected.String() != "protected" || Long.String() != "long" {
		t.Fatalf("unexpected Mode.String() output")
	}
}

func TestOperandSizeString(t *testing.T) {
	if Size32.String() != "32" {
		t.Errorf("Size32.String() = %q, want \"32\"", Size32.String())
	}
	if Unsized.String() != "unsized" {
		t.Errorf("Unsized.String() = %q, want \"unsized\"", Unsized.String())
	}
}
