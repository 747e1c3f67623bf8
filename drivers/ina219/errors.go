package ina219

import (
	"errors"

	"ina219-go/x/conv"
)

// Sentinel errors (TinyGo-safe; no fmt).
var (
	// ErrConfigurationNotDefault means the configuration register did not
	// return to its default value within the reset poll budget.
	ErrConfigurationNotDefault = errors.New("ina219: configuration not default after reset")
)

func itoa(n int64) string {
	var buf [20]byte
	return string(conv.Itoa(buf[:], n))
}

func utoa(n uint64) string {
	var buf [20]byte
	return string(conv.Utoa(buf[:], n))
}

// AddressOutOfRangeError reports a raw address byte outside the window
// reachable by the A0/A1 straps.
type AddressOutOfRangeError struct {
	Which byte
}

func (e *AddressOutOfRangeError) Error() string {
	return "ina219: address " + utoa(uint64(e.Which)) + " outside 64..79"
}

// InitializationError reports why bringing the device into a known state
// failed. Reason is one of the transport's errors,
// ErrConfigurationNotDefault, *RegisterNotZeroError,
// *ShuntVoltageRangeError or *BusVoltageRangeError.
//
// The bus handle passed to the constructor is not consumed; the caller can
// keep using or close it.
type InitializationError struct {
	Reason error
}

func (e *InitializationError) Error() string {
	return "ina219: initialization failed: " + e.Reason.Error()
}

func (e *InitializationError) Unwrap() error { return e.Reason }

// RegisterNotZeroError reports a register that should read zero right
// after a reset but did not.
type RegisterNotZeroError struct {
	Register Register
}

func (e *RegisterNotZeroError) Error() string {
	return "ina219: register " + e.Register.String() + " not zero after reset"
}

// ConfigurationMismatchError reports that the configuration read from the
// device differs from the one the driver last wrote. This is advisory, for
// example after an external reset; the cached configuration has already
// been updated to Read, so a retry succeeds.
type ConfigurationMismatchError struct {
	Read  Configuration
	Saved Configuration
}

func (e *ConfigurationMismatchError) Error() string {
	return "ina219: configuration read " + utoa(uint64(e.Read.AsBits())) +
		" does not match saved " + utoa(uint64(e.Saved.AsBits()))
}

// ShuntVoltageRangeError reports a shunt voltage reading outside the
// configured range. Is carries the unchecked projection of the raw value.
type ShuntVoltageRangeError struct {
	Should ShuntVoltageRange
	Is     ShuntVoltage
}

func (e *ShuntVoltageRangeError) Error() string {
	return "ina219: shunt voltage " + itoa(int64(e.Is.Microvolts())) +
		"µV outside " + e.Should.String()
}

// BusVoltageRangeError reports a bus voltage reading outside the
// configured range. Is carries the unchecked projection of the raw value.
type BusVoltageRangeError struct {
	Should BusVoltageRange
	Is     BusVoltage
}

func (e *BusVoltageRangeError) Error() string {
	return "ina219: bus voltage " + utoa(uint64(e.Is.Millivolts())) +
		"mV outside " + e.Should.String()
}

// MathOverflowError reports that the on-chip current/power calculation
// overflowed. The bus and shunt readings it carries remain valid.
type MathOverflowError struct {
	BusVoltage   BusVoltage
	ShuntVoltage ShuntVoltage
}

func (e *MathOverflowError) Error() string {
	return "ina219: math overflow at bus " + utoa(uint64(e.BusVoltage.Millivolts())) +
		"mV, shunt " + itoa(int64(e.ShuntVoltage.Microvolts())) + "µV"
}
