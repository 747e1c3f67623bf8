package ina219

import (
	"time"

	"ina219-go/x/mathx"
)

// Configuration register bit layout (MSB=15):
// [15]=reset [14]=reserved [13]=bus range [12:11]=shunt range
// [10:7]=bus resolution [6:3]=shunt resolution [2:0]=operating mode

const (
	resetShift      = 15
	busRangeShift   = 13
	shuntRangeShift = 11
	busResShift     = 7
	shuntResShift   = 3

	resRangeMask   = 0b1
	shuntRngMask   = 0b11
	resolutionBits = 0b1111
	modeMask       = 0b111
)

// ResetFlag selects between normal operation and a system reset. The device
// clears the bit itself once the reset is done, so it always reads back Run.
type ResetFlag uint8

const (
	Run     ResetFlag = 0
	DoReset ResetFlag = 1
)

// BusVoltageRange is the full-scale range of the bus voltage measurement.
type BusVoltageRange uint8

const (
	// Fsr16v measures up to 16V.
	Fsr16v BusVoltageRange = 0
	// Fsr32v measures up to 32V (the IC itself is limited to 26V).
	Fsr32v BusVoltageRange = 1
)

// MaxMillivolts returns the upper bound of the range in mV.
func (r BusVoltageRange) MaxMillivolts() uint16 {
	if r == Fsr16v {
		return 16_000
	}
	return 32_000
}

func (r BusVoltageRange) String() string {
	if r == Fsr16v {
		return "16V"
	}
	return "32V"
}

// ShuntVoltageRange sets the PGA gain and with it the maximum shunt voltage
// that can be measured. All ranges are symmetric around zero.
type ShuntVoltageRange uint8

const (
	Fsr40mv  ShuntVoltageRange = 0 // ±40mV, gain 1
	Fsr80mv  ShuntVoltageRange = 1 // ±80mV, gain 1/2
	Fsr160mv ShuntVoltageRange = 2 // ±160mV, gain 1/4
	Fsr320mv ShuntVoltageRange = 3 // ±320mV, gain 1/8
)

// MaxMillivolts returns the magnitude of the range bound in mV. The valid
// window is [-MaxMillivolts, MaxMillivolts].
func (r ShuntVoltageRange) MaxMillivolts() int16 {
	return 40 << (r & shuntRngMask)
}

// RangeMillivolts returns the inclusive window of valid readings in mV.
func (r ShuntVoltageRange) RangeMillivolts() (min, max int16) {
	max = r.MaxMillivolts()
	return -max, max
}

func (r ShuntVoltageRange) String() string {
	switch r {
	case Fsr40mv:
		return "±40mV"
	case Fsr80mv:
		return "±80mV"
	case Fsr160mv:
		return "±160mV"
	default:
		return "±320mV"
	}
}

// Resolution selects the sample width or averaging mode of an ADC channel.
type Resolution uint8

const (
	Res9Bit  Resolution = 0b0000 // single 9 bit sample
	Res10Bit Resolution = 0b0001 // single 10 bit sample
	Res11Bit Resolution = 0b0010 // single 11 bit sample
	Res12Bit Resolution = 0b0011 // single 12 bit sample
	Avg2     Resolution = 0b1001 // 2 averaged 12 bit samples
	Avg4     Resolution = 0b1010
	Avg8     Resolution = 0b1011
	Avg16    Resolution = 0b1100
	Avg32    Resolution = 0b1101
	Avg64    Resolution = 0b1110
	Avg128   Resolution = 0b1111
)

// resolutionFromBits decodes a 4-bit ADC field. Several patterns are
// redundant per the datasheet: the ADC3 bit is don't-care for single
// samples, and 0b1000 is another 12-bit encoding. The mapping is total.
func resolutionFromBits(bits uint16) Resolution {
	switch bits & resolutionBits {
	case 0b0000, 0b0100:
		return Res9Bit
	case 0b0001, 0b0101:
		return Res10Bit
	case 0b0010, 0b0110:
		return Res11Bit
	case 0b0011, 0b0111, 0b1000:
		return Res12Bit
	default:
		return Resolution(bits & resolutionBits)
	}
}

// ConversionTime returns how long one conversion takes at this resolution,
// per Table 5 of the datasheet.
func (r Resolution) ConversionTime() time.Duration {
	var us int64
	switch r {
	case Res9Bit:
		us = 84
	case Res10Bit:
		us = 148
	case Res11Bit:
		us = 276
	case Res12Bit:
		us = 532
	case Avg2:
		us = 1_060
	case Avg4:
		us = 2_130
	case Avg8:
		us = 4_260
	case Avg16:
		us = 8_510
	case Avg32:
		us = 17_020
	case Avg64:
		us = 34_050
	case Avg128:
		us = 68_100
	}
	return time.Duration(us) * time.Microsecond
}

// MeasuredSignals says which inputs take part in a conversion. Zero never
// occurs on the wire; the mode constructors coerce it to both signals.
type MeasuredSignals uint8

const (
	MeasureShunt       MeasuredSignals = 1
	MeasureBus         MeasuredSignals = 2
	MeasureShuntAndBus MeasuredSignals = 3
)

// OperatingMode is the 3-bit mode field. PowerDown and AdcOff are the two
// idle modes; all other values are triggered (bit 2 clear) or continuous
// (bit 2 set) conversions of the signals in the low two bits.
type OperatingMode uint8

const (
	PowerDown OperatingMode = 0b000
	AdcOff    OperatingMode = 0b100
)

// Triggered returns the mode performing a single conversion of the given
// signals each time the configuration register is written.
func Triggered(s MeasuredSignals) OperatingMode {
	if s&0b11 == 0 {
		s = MeasureShuntAndBus
	}
	return OperatingMode(s & 0b11)
}

// Continuous returns the mode converting the given signals back to back.
func Continuous(s MeasuredSignals) OperatingMode {
	if s&0b11 == 0 {
		s = MeasureShuntAndBus
	}
	return OperatingMode(0b100 | s&0b11)
}

// AsBits returns the raw 3-bit field value.
func (m OperatingMode) AsBits() uint16 { return uint16(m) & modeMask }

// IsTriggered reports whether the mode performs one-shot conversions.
func (m OperatingMode) IsTriggered() bool { return m != PowerDown && m&0b100 == 0 }

// IsContinuous reports whether the mode converts continuously.
func (m OperatingMode) IsContinuous() bool { return m != AdcOff && m&0b100 != 0 }

// Signals returns which inputs are measured. ok is false for PowerDown and
// AdcOff where no conversion happens.
func (m OperatingMode) Signals() (s MeasuredSignals, ok bool) {
	if m == PowerDown || m == AdcOff {
		return 0, false
	}
	return MeasuredSignals(m & 0b11), true
}

func operatingModeFromBits(bits uint16) OperatingMode {
	return OperatingMode(bits & modeMask)
}

// Configuration is the decoded contents of the configuration register.
type Configuration struct {
	Reset             ResetFlag
	BusVoltageRange   BusVoltageRange
	ShuntVoltageRange ShuntVoltageRange
	BusResolution     Resolution
	ShuntResolution   Resolution
	OperatingMode     OperatingMode
}

// DefaultConfiguration is the register content after power-on or reset:
// 32V bus range, ±320mV shunt range, 12-bit single samples, continuous
// conversion of both signals. Encodes to 0x399F.
func DefaultConfiguration() Configuration {
	return Configuration{
		Reset:             Run,
		BusVoltageRange:   Fsr32v,
		ShuntVoltageRange: Fsr320mv,
		BusResolution:     Res12Bit,
		ShuntResolution:   Res12Bit,
		OperatingMode:     Continuous(MeasureShuntAndBus),
	}
}

// ConfigurationFromBits decodes a register word. Every 16-bit pattern has a
// defined meaning; redundant resolution encodings collapse onto their
// canonical value and the reserved bit is ignored.
func ConfigurationFromBits(bits uint16) Configuration {
	return Configuration{
		Reset:             ResetFlag(bits >> resetShift & resRangeMask),
		BusVoltageRange:   BusVoltageRange(bits >> busRangeShift & resRangeMask),
		ShuntVoltageRange: ShuntVoltageRange(bits >> shuntRangeShift & shuntRngMask),
		BusResolution:     resolutionFromBits(bits >> busResShift),
		ShuntResolution:   resolutionFromBits(bits >> shuntResShift),
		OperatingMode:     operatingModeFromBits(bits),
	}
}

// AsBits encodes the configuration into a register word. Encoding never
// fails; Decode(Encode(c)) == c for every c.
func (c Configuration) AsBits() uint16 {
	var bits uint16
	bits |= uint16(c.Reset&resRangeMask) << resetShift
	bits |= uint16(c.BusVoltageRange&resRangeMask) << busRangeShift
	bits |= uint16(c.ShuntVoltageRange&shuntRngMask) << shuntRangeShift
	bits |= uint16(c.BusResolution&resolutionBits) << busResShift
	bits |= uint16(c.ShuntResolution&resolutionBits) << shuntResShift
	bits |= c.OperatingMode.AsBits()
	return bits
}

// ConversionTime returns how long the device needs for one full conversion
// under this configuration: the maximum of the bus and shunt conversion
// times when both are measured, otherwise that of the active signal. ok is
// false in PowerDown and AdcOff where nothing converts.
func (c Configuration) ConversionTime() (d time.Duration, ok bool) {
	signals, ok := c.OperatingMode.Signals()
	if !ok {
		return 0, false
	}
	switch signals {
	case MeasureShunt:
		return c.ShuntResolution.ConversionTime(), true
	case MeasureBus:
		return c.BusResolution.ConversionTime(), true
	default:
		return mathx.Max(c.BusResolution.ConversionTime(), c.ShuntResolution.ConversionTime()), true
	}
}
