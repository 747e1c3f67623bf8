package ina219

import "testing"

func TestShuntVoltageDecoding(t *testing.T) {
	// Table 7 of the datasheet, ±320mV range.
	cases := []struct {
		bits  uint16
		tenUV int16
		uv    int32
		mv    int16
	}{
		{0x0000, 0, 0, 0},
		{0x7CFF, 31999, 319_990, 319},
		{0xF05F, -4001, -40_010, -40},
		{0x8300, -32000, -320_000, -320},
	}
	for _, c := range cases {
		sv, ok := ShuntVoltageFromBits(c.bits, Fsr320mv)
		if !ok {
			t.Fatalf("bits %#04x rejected in ±320mV", c.bits)
		}
		if sv.TenMicrovolts() != c.tenUV || sv.Microvolts() != c.uv || sv.Millivolts() != c.mv {
			t.Fatalf("bits %#04x = %d/%d/%d, want %d/%d/%d", c.bits,
				sv.TenMicrovolts(), sv.Microvolts(), sv.Millivolts(), c.tenUV, c.uv, c.mv)
		}
	}
}

func TestShuntVoltageRangeCheck(t *testing.T) {
	// -40.01mV: just outside ±40mV, fine one gain step up.
	if _, ok := ShuntVoltageFromBits(0xF05F, Fsr40mv); ok {
		t.Fatal("-40010µV accepted in ±40mV")
	}
	if _, ok := ShuntVoltageFromBits(0xF05F, Fsr80mv); !ok {
		t.Fatal("-40010µV rejected in ±80mV")
	}

	// Bounds are inclusive.
	if _, ok := ShuntVoltageFromBits(0xF060, Fsr40mv); !ok { // -4000 in 10µV units
		t.Fatal("-40000µV rejected in ±40mV")
	}
	if _, ok := ShuntVoltageFromBits(0x8300, Fsr320mv); !ok {
		t.Fatal("-320000µV rejected in ±320mV")
	}

	// 320.01mV exceeds even the widest range.
	if _, ok := ShuntVoltageFromBits(32001, Fsr320mv); ok {
		t.Fatal("320010µV accepted in ±320mV")
	}
}

func TestBusVoltageDecoding(t *testing.T) {
	raw := uint16(4000)<<3 | 0b10 // 16V, conversion ready
	bv, ok := BusVoltageFromBits(raw, Fsr32v)
	if !ok {
		t.Fatalf("bits %#04x rejected in 32V", raw)
	}
	if bv.Quanta4mv() != 4000 || bv.Millivolts() != 16_000 {
		t.Fatalf("quanta %d mv %d", bv.Quanta4mv(), bv.Millivolts())
	}
	if !bv.ConversionReady() || bv.MathOverflowed() {
		t.Fatalf("flags ready=%v overflow=%v", bv.ConversionReady(), bv.MathOverflowed())
	}

	// 16V sits exactly on the 16V bound.
	if _, ok := BusVoltageFromBits(raw, Fsr16v); !ok {
		t.Fatal("16000mV rejected in 16V range")
	}
	if _, ok := BusVoltageFromBits(uint16(4001)<<3, Fsr16v); ok {
		t.Fatal("16004mV accepted in 16V range")
	}
	// Saturated register exceeds even 32V.
	if _, ok := BusVoltageFromBits(0xFFF8, Fsr32v); ok {
		t.Fatal("32764mV accepted in 32V range")
	}
}

func TestBusVoltageFlags(t *testing.T) {
	bv := busVoltageFromBitsUnchecked(0b01)
	if bv.ConversionReady() || !bv.MathOverflowed() {
		t.Fatal("overflow bit misread")
	}
	bv = busVoltageFromBitsUnchecked(0b10)
	if !bv.ConversionReady() || bv.MathOverflowed() {
		t.Fatal("ready bit misread")
	}
}

func TestBusVoltageFromMillivolts(t *testing.T) {
	bv := BusVoltageFromMillivolts(16_000)
	if bv.Millivolts() != 16_000 || bv.ConversionReady() || bv.MathOverflowed() {
		t.Fatalf("roundtrip 16000mV: %d, flags %v/%v",
			bv.Millivolts(), bv.ConversionReady(), bv.MathOverflowed())
	}
	// Sub-quantum values truncate to the 4mV grid.
	if got := BusVoltageFromMillivolts(4003).Millivolts(); got != 4000 {
		t.Fatalf("4003mV = %dmV, want 4000", got)
	}
}
