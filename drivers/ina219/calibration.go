package ina219

// Calibration relates the raw current and power registers to physical
// units chosen by the caller, and produces the word programmed into the
// calibration register.
type Calibration[C, P any] interface {
	// RegisterBits is the value written to the calibration register.
	RegisterBits() uint16

	// ReadsCurrent reports whether the current register is worth reading.
	// When false, CurrentFromRegister is only ever called with 0.
	ReadsCurrent() bool

	// CurrentFromRegister projects a raw current register value.
	CurrentFromRegister(reg CurrentRegister) C

	// PowerFromRegister projects a raw power register value.
	PowerFromRegister(reg PowerRegister) P
}

// Unitless is the measurement type of UnCalibrated: no physical meaning.
type Unitless struct{}

// UnCalibrated leaves the device uncalibrated. The current and power
// registers stay at zero, so current reads are suppressed entirely.
type UnCalibrated struct{}

func (UnCalibrated) RegisterBits() uint16                    { return 0 }
func (UnCalibrated) ReadsCurrent() bool                      { return false }
func (UnCalibrated) CurrentFromRegister(CurrentRegister) Unitless { return Unitless{} }
func (UnCalibrated) PowerFromRegister(PowerRegister) Unitless     { return Unitless{} }

// MicroAmpere is a current in µA.
type MicroAmpere int64

// MicroWatt is a power in µW.
type MicroWatt int64

// Datasheet equation 1 with both factors in µ units: 0.04096 * (1/µ)².
const calibrationScale uint64 = 40_960_000_000

// The calibration register is 16 bits and must be at least 2, bounding the
// product currentLSB·rShunt.
const (
	minLSBShuntProduct = calibrationScale / 0xFFFF
	maxLSBShuntProduct = calibrationScale / 2
)

// IntCalibration computes current in integer µA and power in integer µW
// from the value of the shunt resistor and a caller-chosen current LSB.
type IntCalibration struct {
	currentLSB MicroAmpere // value of one current register count, in µA
	rShuntUOhm uint32      // shunt resistance in µΩ
}

// NewIntCalibration derives a calibration from the current LSB in µA and
// the shunt resistance in µΩ. ok is false when the resulting calibration
// register would fall outside its 16-bit window.
func NewIntCalibration(currentLSB MicroAmpere, rShuntUOhm uint32) (IntCalibration, bool) {
	if currentLSB < 0 {
		return IntCalibration{}, false
	}
	product := uint64(currentLSB) * uint64(rShuntUOhm)
	if product < minLSBShuntProduct || product > maxLSBShuntProduct {
		return IntCalibration{}, false
	}
	return IntCalibration{currentLSB: currentLSB, rShuntUOhm: rShuntUOhm}, true
}

// IntCalibrationFromBits reconstructs a calibration from the register value
// and the known shunt resistance. It is a partial inverse of AsBits: the
// round-down in the register arithmetic may shift the current LSB.
func IntCalibrationFromBits(bits uint16, rShuntUOhm uint32) (IntCalibration, bool) {
	if bits == 0 || rShuntUOhm == 0 {
		return IntCalibration{}, false
	}
	lsb := calibrationScale / (uint64(bits) * uint64(rShuntUOhm))
	return NewIntCalibration(MicroAmpere(lsb), rShuntUOhm)
}

// AsBits computes the calibration register word:
// floor(scale / (currentLSB·rShunt)) with bit 0 forced to 0, as the device
// always reads it back as 0 (Figure 27 of the datasheet).
func (c IntCalibration) AsBits() uint16 {
	cal := calibrationScale / (uint64(c.currentLSB) * uint64(c.rShuntUOhm))
	return uint16(cal) &^ 1
}

// CurrentLSB returns the physical value of one current register count.
func (c IntCalibration) CurrentLSB() MicroAmpere { return c.currentLSB }

// PowerLSB returns the physical value of one power register count, fixed
// by the device at 20 times the current LSB.
func (c IntCalibration) PowerLSB() MicroWatt { return MicroWatt(20 * c.currentLSB) }

// RShuntMicroOhm returns the shunt resistance in µΩ.
func (c IntCalibration) RShuntMicroOhm() uint32 { return c.rShuntUOhm }

func (c IntCalibration) RegisterBits() uint16 { return c.AsBits() }
func (c IntCalibration) ReadsCurrent() bool   { return true }

func (c IntCalibration) CurrentFromRegister(reg CurrentRegister) MicroAmpere {
	return MicroAmpere(int64(c.currentLSB) * int64(int16(reg)))
}

func (c IntCalibration) PowerFromRegister(reg PowerRegister) MicroWatt {
	return MicroWatt(int64(c.PowerLSB()) * int64(int16(reg)))
}

// Simulate reproduces the device's on-chip arithmetic in software: from a
// bus and shunt reading it derives the current and power register values
// (current = shunt·cal/4096, power = current·bus4mv/5000) and projects
// them through the calibration. If either intermediate exceeds the 16-bit
// register range it returns a MathOverflowError carrying the unaffected
// bus and shunt readings, just as the device would raise its overflow flag.
func Simulate[C, P any](cal Calibration[C, P], bus BusVoltage, shunt ShuntVoltage) (current C, power P, err error) {
	calReg := int64(cal.RegisterBits())
	cur := int64(shunt.TenMicrovolts()) * calReg / 4096
	pow := cur * int64(bus.Quanta4mv()) / 5000

	if cur > 0xFFFF || pow > 0xFFFF {
		return current, power, &MathOverflowError{BusVoltage: bus, ShuntVoltage: shunt}
	}

	curReg := CurrentRegister(uint16(cur))
	if !cal.ReadsCurrent() {
		curReg = 0
	}
	return cal.CurrentFromRegister(curReg), cal.PowerFromRegister(PowerRegister(uint16(pow))), nil
}
