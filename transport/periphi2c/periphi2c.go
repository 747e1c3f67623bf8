// Package periphi2c adapts a periph.io host I²C bus to the transport
// interface the INA219 driver expects, for use on Linux SBCs and similar
// hosts with a kernel I²C device.
package periphi2c

import (
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// Bus wraps an open periph.io bus. Both transport contracts use the same
// Tx shape, so the adaption is a straight delegation.
type Bus struct {
	bus i2c.BusCloser
}

var _ drivers.I2C = (*Bus)(nil)

// Open initializes the periph host drivers and opens the named bus. The
// name is what i2creg accepts: a registered bus name, a number, or a path
// like "/dev/i2c-1". An empty name selects the first available bus.
func Open(name string) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, err
	}
	return &Bus{bus: b}, nil
}

// Tx performs a write followed by a read under one bus transaction.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return b.bus.Tx(addr, w, r)
}

// SetSpeed changes the bus clock. The INA219 supports up to 2.56MHz; most
// host adapters top out at fast mode.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

// Close releases the bus handle.
func (b *Bus) Close() error {
	return b.bus.Close()
}
