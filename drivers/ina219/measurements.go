package ina219

import "ina219-go/x/mathx"

// Measurements bundles one conversion's worth of readings. Current and
// Power are in the units chosen by the calibration in use.
type Measurements[C, P any] struct {
	BusVoltage   BusVoltage
	ShuntVoltage ShuntVoltage
	Current      C
	Power        P
}

// ShuntVoltage is the decoded differential voltage across the sense
// resistor. One register LSB is 10µV; the value is signed.
type ShuntVoltage struct {
	raw int16
}

// ShuntVoltageFromBits decodes the shunt voltage register, accepting the
// value only if it lies within the given range.
func ShuntVoltageFromBits(bits uint16, rng ShuntVoltageRange) (ShuntVoltage, bool) {
	sv := shuntVoltageFromBitsUnchecked(bits)
	max := int32(rng.MaxMillivolts()) * 100 // mV -> 10µV units
	if !mathx.Between(int32(sv.raw), -max, max) {
		return ShuntVoltage{}, false
	}
	return sv, true
}

func shuntVoltageFromBitsUnchecked(bits uint16) ShuntVoltage {
	return ShuntVoltage{raw: int16(bits)}
}

// ShuntVoltageFrom10uv builds a ShuntVoltage from a value in 10µV units.
// Intended for tests and simulations.
func ShuntVoltageFrom10uv(tenUV int16) ShuntVoltage {
	return ShuntVoltage{raw: tenUV}
}

// TenMicrovolts returns the voltage in the device's native 10µV resolution.
func (v ShuntVoltage) TenMicrovolts() int16 { return v.raw }

// Microvolts returns the voltage in µV.
func (v ShuntVoltage) Microvolts() int32 { return int32(v.raw) * 10 }

// Millivolts returns the voltage in mV, truncated towards zero.
func (v ShuntVoltage) Millivolts() int16 { return v.raw / 100 }

// BusVoltage is the raw bus voltage register word. Besides the measurement
// it carries the conversion-ready and math-overflow flags in its two
// lowest bits.
type BusVoltage struct {
	raw uint16
}

// BusVoltageFromBits decodes the bus voltage register, accepting the value
// only if the measurement lies within the given range.
func BusVoltageFromBits(bits uint16, rng BusVoltageRange) (BusVoltage, bool) {
	bv := busVoltageFromBitsUnchecked(bits)
	if bv.Millivolts() > rng.MaxMillivolts() {
		return BusVoltage{}, false
	}
	return bv, true
}

func busVoltageFromBitsUnchecked(bits uint16) BusVoltage {
	return BusVoltage{raw: bits}
}

// BusVoltageFromMillivolts builds a BusVoltage reading from a value in mV
// with both flags clear. Intended for tests and simulations.
func BusVoltageFromMillivolts(mv uint16) BusVoltage {
	return BusVoltage{raw: (mv / 4) << 3}
}

// Quanta4mv returns the measurement in the device's native 4mV resolution.
func (v BusVoltage) Quanta4mv() uint16 { return v.raw >> 3 }

// Millivolts returns the measurement in mV.
func (v BusVoltage) Millivolts() uint16 { return v.Quanta4mv() * 4 }

// ConversionReady reports whether a new conversion finished since the flag
// was last cleared. The flag is cleared by reading the power register or by
// writing an operating mode other than PowerDown or AdcOff.
func (v BusVoltage) ConversionReady() bool { return v.raw&0b10 != 0 }

// MathOverflowed reports whether the on-chip current or power calculation
// exceeded its range. Bus and shunt readings stay valid.
func (v BusVoltage) MathOverflowed() bool { return v.raw&0b01 != 0 }

// CurrentRegister is the raw current register word; its meaning depends on
// the active calibration.
type CurrentRegister uint16

// PowerRegister is the raw power register word; its meaning depends on the
// active calibration. Reading it clears the conversion-ready flag.
type PowerRegister uint16
