package ina219

import (
	"errors"
	"testing"
)

func TestAddressFromPins(t *testing.T) {
	pins := []Pin{PinGnd, PinVcc, PinSda, PinScl}

	// Table 1 of the datasheet: 0x40 plus the strap bits.
	for _, a1 := range pins {
		for _, a0 := range pins {
			addr := FromPins(a0, a1)
			want := byte(0x40) | a0.AsByte() | a1.AsByte()<<2
			if got := addr.AsByte(); got != want {
				t.Fatalf("FromPins(%v, %v) = %#02x, want %#02x", a0, a1, got, want)
			}
			g0, g1 := addr.AsPins()
			if g0 != a0 || g1 != a1 {
				t.Fatalf("AsPins(%#02x) = %v, %v, want %v, %v", addr.AsByte(), g0, g1, a0, a1)
			}
		}
	}

	if got := DefaultAddress().AsByte(); got != 0x40 {
		t.Fatalf("DefaultAddress = %#02x, want 0x40", got)
	}
	if got := FromPins(PinScl, PinScl).AsByte(); got != 0x4F {
		t.Fatalf("FromPins(SCL, SCL) = %#02x, want 0x4F", got)
	}
}

func TestAddressFromByte(t *testing.T) {
	for b := 0x40; b <= 0x4F; b++ {
		addr, err := AddressFromByte(byte(b))
		if err != nil {
			t.Fatalf("AddressFromByte(%#02x): %v", b, err)
		}
		if addr.AsByte() != byte(b) {
			t.Fatalf("AddressFromByte(%#02x).AsByte() = %#02x", b, addr.AsByte())
		}
	}

	for _, b := range []byte{0x00, 0x3F, 0x50, 0xFF} {
		_, err := AddressFromByte(b)
		var oor *AddressOutOfRangeError
		if !errors.As(err, &oor) {
			t.Fatalf("AddressFromByte(%#02x) = %v, want AddressOutOfRangeError", b, err)
		}
		if oor.Which != b {
			t.Fatalf("error carries %#02x, want %#02x", oor.Which, b)
		}
	}
}

func TestAddressFromByteMatchesPins(t *testing.T) {
	addr, err := AddressFromByte(0x45)
	if err != nil {
		t.Fatal(err)
	}
	a0, a1 := addr.AsPins()
	if a0 != PinVcc || a1 != PinVcc {
		t.Fatalf("pins of 0x45 = %v, %v, want VCC, VCC", a0, a1)
	}
}
