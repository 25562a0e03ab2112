package catalogue

import (
	"errors"
	"testing"

	"github.com/brackenfield/x86decode/isa"
)

func TestFindLegacyArithmetic(t *testing.T) {
	def, err := Find(Key{Primary: 0x01, Mode: isa.Long})
	if err != nil {
		t.Fatalf("Find(ADD r/m32,r32) returned %v", err)
	}
	if def.Mnemonic != "ADD" {
		t.Errorf("Mnemonic = %q, want ADD", def.Mnemonic)
	}
}

func TestFindNeedsOpcodeExt(t *testing.T) {
	_, err := Find(Key{Primary: 0x80, Mode: isa.Protected})
	if !errors.Is(err, ErrNeedOpcodeExt) {
		t.Fatalf("Find(0x80, no ext) = %v, want ErrNeedOpcodeExt", err)
	}

	e := byte(6)
	def, err := Find(Key{Primary: 0x80, Mode: isa.Protected, OpcodeExt: &e})
	if err != nil {
		t.Fatalf("Find(0x80 /6) returned %v", err)
	}
	if def.Mnemonic != "XOR" {
		t.Errorf("Mnemonic = %q, want XOR", def.Mnemonic)
	}
}

func TestFindNotFound(t *testing.T) {
	_, err := Find(Key{Primary: 0xFF, Secondary: 0xFE, HasSecondary: true, IsTwoByte: true, Mode: isa.Long})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find(garbage) = %v, want ErrNotFound", err)
	}
}

func TestCompositeDisambiguatesSameOpcodeByte(t *testing.T) {
	// VEX.66.0F 41 names KANDB; the same two-byte opcode without the VEX
	// escape and mandatory prefix is a different (here: unregistered)
	// instruction entirely.
	def, err := Find(Key{IsTwoByte: true, Primary: 0x41, Composite: VEX, FixedPrefix: 0x66, Mode: isa.Protected})
	if err != nil {
		t.Fatalf("Find(KANDB) returned %v", err)
	}
	if def.Mnemonic != "KANDB" {
		t.Errorf("Mnemonic = %q, want KANDB", def.Mnemonic)
	}

	if _, err := Find(Key{IsTwoByte: true, Primary: 0x41, Mode: isa.Protected}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(same opcode byte, NoComposite) = %v, want ErrNotFound", err)
	}
}

func TestWFieldDisambiguatesMnemonic(t *testing.T) {
	d32, err := Find(Key{IsTwoByte: true, Primary: 0x45, Composite: VEX, Mode: isa.Protected, W: false})
	if err != nil || d32.Mnemonic != "KORD" {
		t.Fatalf("Find(KORD) = %+v, %v", d32, err)
	}
	d64, err := Find(Key{IsTwoByte: true, Primary: 0x45, Composite: VEX, Mode: isa.Protected, W: true})
	if err != nil || d64.Mnemonic != "KORQ" {
		t.Fatalf("Find(KORQ) = %+v, %v", d64, err)
	}
}

func TestModeSensitiveLookup(t *testing.T) {
	// The single-byte INC/DEC (0x40-0x4F) forms only exist outside long
	// mode, where those bytes are REX prefixes instead.
	if _, err := Find(Key{Primary: 0x48, Mode: isa.Protected}); err != nil {
		t.Errorf("Find(0x48, Protected) returned %v, want a DEC definition", err)
	}
	if _, err := Find(Key{Primary: 0x48, Mode: isa.Long}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(0x48, Long) = %v, want ErrNotFound (0x48 is REX.W in long mode)", err)
	}
}
