package ina219

import "context"

// The blocking driver talks to the bus through the tinygo drivers.I2C
// interface: Tx(addr, w, r) performs a write followed, when r is non-nil,
// by a repeated-start read without releasing the bus.

// Op is one step of a combined bus transaction: either a write of W or a
// read into R. Exactly one of the two is set.
type Op struct {
	W []byte
	R []byte
}

// Transactor is an optional transport capability: several operations under
// a single bus transaction, with no STOP between them. When the transport
// implements it, NextMeasurement fetches all registers in one transaction;
// otherwise it falls back to one write-read per register, at the cost of
// possible intervening traffic on a shared bus.
type Transactor interface {
	Transact(addr uint16, ops []Op) error
}

// I2CContext is the suspension-capable transport flavor. Its contract is
// identical to drivers.I2C, except that calls may block on ctx and return
// its error.
type I2CContext interface {
	Tx(ctx context.Context, addr uint16, w, r []byte) error
}

// ContextTransactor is the Transactor capability of a context transport.
type ContextTransactor interface {
	Transact(ctx context.Context, addr uint16, ops []Op) error
}
