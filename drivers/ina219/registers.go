// Package ina219 provides a host-side driver for the TI INA219 bidirectional
// current/power monitor on an I2C bus.
//
// Design notes (datasheet references):
// • I2C register protocol: write register address, then read two bytes
//   big-endian; writes are register address followed by two big-endian bytes.
// • Configuration register bit layout per Figure 19, default word 0x399F.
// • Calibration per equation 1; the lowest calibration bit always reads 0.
// • Integer-only measurement scaling (10µV shunt LSB, 4mV bus LSB, caller
//   chosen µA current LSB, power LSB = 20× current LSB).
package ina219

// Register identifies one of the six on-chip registers.
type Register uint8

const (
	RegConfiguration Register = 0x00 // R/W
	RegShuntVoltage  Register = 0x01 // R
	RegBusVoltage    Register = 0x02 // R, carries conversion-ready and overflow flags
	RegPower         Register = 0x03 // R, reading clears conversion-ready
	RegCurrent       Register = 0x04 // R
	RegCalibration   Register = 0x05 // R/W, bit 0 always 0
)

// Address returns the register pointer byte written before a read or write.
func (r Register) Address() byte { return byte(r) }

// Writable reports whether the application may write this register. The
// remaining registers are written only by the device's conversion engine.
func (r Register) Writable() bool {
	return r == RegConfiguration || r == RegCalibration
}

func (r Register) String() string {
	switch r {
	case RegConfiguration:
		return "Configuration"
	case RegShuntVoltage:
		return "ShuntVoltage"
	case RegBusVoltage:
		return "BusVoltage"
	case RegPower:
		return "Power"
	case RegCurrent:
		return "Current"
	case RegCalibration:
		return "Calibration"
	default:
		return "invalid"
	}
}
