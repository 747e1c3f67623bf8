package ina219

import (
	"math"
	"testing"
)

func TestIntCalibrationAgainstFloatReference(t *testing.T) {
	lsbs := []MicroAmpere{1, 2, 5, 10, 50, 100, 500, 1000, 10_000}
	shunts := []uint32{1000, 10_000, 100_000, 500_000, 1_000_000, 10_000_000}

	for _, lsb := range lsbs {
		for _, rshunt := range shunts {
			cal, ok := NewIntCalibration(lsb, rshunt)

			// Datasheet equation 1 with both factors in µ units. All three
			// operands are integers, so the float result is exact enough
			// for the floor to agree with the integer arithmetic.
			ref := 40.96e9 / (float64(lsb) * float64(rshunt))
			refOK := ref >= 2 && ref <= 0xFFFF
			if ok != refOK {
				t.Fatalf("lsb=%dµA rshunt=%dµΩ: ok=%v, reference %v (%.1f)",
					lsb, rshunt, ok, refOK, ref)
			}
			if !ok {
				continue
			}

			want := uint16(math.Floor(ref)) &^ 1
			if got := cal.AsBits(); got != want {
				t.Fatalf("lsb=%dµA rshunt=%dµΩ: bits=%d, reference %d",
					lsb, rshunt, got, want)
			}
		}
	}
}

func TestIntCalibrationKnownValue(t *testing.T) {
	// 100µA per count across 1Ω: 409 rounded down to an even register value.
	cal, ok := NewIntCalibration(100, 1_000_000)
	if !ok {
		t.Fatal("calibration rejected")
	}
	if got := cal.AsBits(); got != 408 {
		t.Fatalf("bits = %d, want 408", got)
	}
	if cal.CurrentLSB() != 100 || cal.PowerLSB() != 2000 || cal.RShuntMicroOhm() != 1_000_000 {
		t.Fatalf("lsb=%d power=%d rshunt=%d", cal.CurrentLSB(), cal.PowerLSB(), cal.RShuntMicroOhm())
	}
}

func TestIntCalibrationBounds(t *testing.T) {
	// Product too small: register would exceed 16 bits.
	if _, ok := NewIntCalibration(1, 1000); ok {
		t.Fatal("underflowing calibration accepted")
	}
	// Product too large: register would be below 2.
	if _, ok := NewIntCalibration(1_000_000, 100_000_000); ok {
		t.Fatal("overflowing calibration accepted")
	}
	if _, ok := NewIntCalibration(-1, 1_000_000); ok {
		t.Fatal("negative current LSB accepted")
	}
}

func TestIntCalibrationFromBits(t *testing.T) {
	cal, ok := IntCalibrationFromBits(408, 1_000_000)
	if !ok {
		t.Fatal("rejected")
	}
	// 40960000000/(408·1000000) rounds down to 100µA, the original LSB.
	if cal.CurrentLSB() != 100 {
		t.Fatalf("lsb = %d, want 100", cal.CurrentLSB())
	}

	if _, ok := IntCalibrationFromBits(0, 1_000_000); ok {
		t.Fatal("zero register accepted")
	}
	if _, ok := IntCalibrationFromBits(408, 0); ok {
		t.Fatal("zero shunt accepted")
	}
}

func TestCurrentAndPowerProjection(t *testing.T) {
	cal, _ := NewIntCalibration(100, 1_000_000)

	if got := cal.CurrentFromRegister(796); got != 79_600 {
		t.Fatalf("current = %dµA, want 79600", got)
	}
	// Register values are two's complement.
	if got := cal.CurrentFromRegister(CurrentRegister(0xFFFF)); got != -100 {
		t.Fatalf("current = %dµA, want -100", got)
	}
	if got := cal.PowerFromRegister(636); got != 1_272_000 {
		t.Fatalf("power = %dµW, want 1272000", got)
	}
}

func TestSimulate(t *testing.T) {
	cal, _ := NewIntCalibration(100, 1_000_000)
	bus := BusVoltageFromMillivolts(16_000)
	shunt := ShuntVoltageFrom10uv(8000) // 80mV

	// current register = 8000·408/4096 = 796, power = 796·4000/5000 = 636
	current, power, err := Simulate[MicroAmpere, MicroWatt](cal, bus, shunt)
	if err != nil {
		t.Fatal(err)
	}
	if current != 79_600 {
		t.Fatalf("current = %dµA, want 79600", current)
	}
	if power != 1_272_000 {
		t.Fatalf("power = %dµW, want 1272000", power)
	}
}

func TestSimulateUncalibrated(t *testing.T) {
	bus := BusVoltageFromMillivolts(12_000)
	shunt := ShuntVoltageFrom10uv(100)

	// Calibration register is zero, both products stay zero.
	if _, _, err := Simulate[Unitless, Unitless](UnCalibrated{}, bus, shunt); err != nil {
		t.Fatal(err)
	}
}

func TestSimulateOverflow(t *testing.T) {
	// 10µA across 100mΩ programs the maximum even register value 0xFFFE;
	// a large shunt reading then pushes the current product past 16 bits.
	cal, ok := NewIntCalibration(10, 100_000)
	if !ok {
		t.Fatal("calibration rejected")
	}
	if cal.AsBits() != 0xFFFE {
		t.Fatalf("bits = %#04x, want 0xFFFE", cal.AsBits())
	}

	bus := BusVoltageFromMillivolts(16_000)
	shunt := ShuntVoltageFrom10uv(8000)

	_, _, err := Simulate[MicroAmpere, MicroWatt](cal, bus, shunt)
	mo, isOverflow := err.(*MathOverflowError)
	if !isOverflow {
		t.Fatalf("err = %v, want MathOverflowError", err)
	}
	if mo.BusVoltage != bus || mo.ShuntVoltage != shunt {
		t.Fatal("overflow error does not carry the readings")
	}
}
