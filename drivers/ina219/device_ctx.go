package ina219

import "context"

// ContextDevice mirrors Device over a transport whose calls take a
// context, for hosts where bus access can block on a kernel driver or a
// remote bridge. Both flavors share the register codec and validation.
type ContextDevice[C, P any] struct {
	bus      I2CContext
	addr     Address
	calib    Calibration[C, P]
	paranoid bool

	conf *Configuration

	w [3]byte
	r [2]byte
}

// NewContext opens an uncalibrated INA219 over a context transport.
func NewContext(ctx context.Context, bus I2CContext, addr Address) (*ContextDevice[Unitless, Unitless], error) {
	return NewContextCalibrated[Unitless, Unitless](ctx, bus, addr, UnCalibrated{})
}

// NewContextCalibrated opens an INA219 over a context transport, resets it,
// verifies the post-reset state and programs the given calibration.
func NewContextCalibrated[C, P any](ctx context.Context, bus I2CContext, addr Address, calib Calibration[C, P]) (*ContextDevice[C, P], error) {
	return NewContextCalibratedWith(ctx, bus, addr, calib, Options{Paranoid: true})
}

// NewContextCalibratedWith is NewContextCalibrated with explicit Options.
func NewContextCalibratedWith[C, P any](ctx context.Context, bus I2CContext, addr Address, calib Calibration[C, P], opts Options) (*ContextDevice[C, P], error) {
	d := NewContextUnchecked(bus, addr, calib)
	d.paranoid = opts.Paranoid
	if err := d.init(ctx); err != nil {
		return nil, &InitializationError{Reason: err}
	}
	return d, nil
}

// NewContextUnchecked wraps a device that is assumed to already be
// initialized and calibrated. No bus traffic is performed.
func NewContextUnchecked[C, P any](bus I2CContext, addr Address, calib Calibration[C, P]) *ContextDevice[C, P] {
	if addr == (Address{}) {
		addr = DefaultAddress()
	}
	return &ContextDevice[C, P]{bus: bus, addr: addr, calib: calib}
}

// Bus returns the transport the device talks through.
func (d *ContextDevice[C, P]) Bus() I2CContext { return d.bus }

// Destroy surrenders the bus handle. The device keeps its current state.
func (d *ContextDevice[C, P]) Destroy() I2CContext { return d.bus }

func (d *ContextDevice[C, P]) init(ctx context.Context) error {
	if err := d.Reset(ctx); err != nil {
		return err
	}

	if d.paranoid {
		for _, reg := range [...]Register{RegCalibration, RegCurrent, RegPower} {
			v, err := d.readRegister(ctx, reg)
			if err != nil {
				return err
			}
			if v != 0 {
				return &RegisterNotZeroError{Register: reg}
			}
		}
		if _, err := d.ShuntVoltage(ctx); err != nil {
			return err
		}
		if _, err := d.BusVoltage(ctx); err != nil {
			return err
		}
	}

	if bits := d.calib.RegisterBits(); bits != 0 {
		return d.writeRegister(ctx, RegCalibration, bits)
	}
	return nil
}

// Reset behaves like Device.Reset.
func (d *ContextDevice[C, P]) Reset(ctx context.Context) error {
	conf := DefaultConfiguration()
	conf.Reset = DoReset
	if err := d.SetConfiguration(ctx, conf); err != nil {
		return err
	}
	d.conf = nil

	for attempt := 0; attempt < maxResetPolls; attempt++ {
		bits, err := d.readRegister(ctx, RegConfiguration)
		if err != nil {
			return err
		}
		if ConfigurationFromBits(bits) == DefaultConfiguration() {
			if d.paranoid {
				c := DefaultConfiguration()
				d.conf = &c
			}
			return nil
		}
	}
	return ErrConfigurationNotDefault
}

// Configuration behaves like Device.Configuration.
func (d *ContextDevice[C, P]) Configuration(ctx context.Context) (Configuration, error) {
	bits, err := d.readRegister(ctx, RegConfiguration)
	if err != nil {
		return Configuration{}, err
	}
	read := ConfigurationFromBits(bits)

	if d.paranoid {
		if d.conf == nil {
			c := read
			d.conf = &c
		} else if saved := *d.conf; saved != read {
			c := read
			d.conf = &c
			return read, &ConfigurationMismatchError{Read: read, Saved: saved}
		}
	}
	return read, nil
}

// SetConfiguration behaves like Device.SetConfiguration.
func (d *ContextDevice[C, P]) SetConfiguration(ctx context.Context, conf Configuration) error {
	err := d.writeRegister(ctx, RegConfiguration, conf.AsBits())
	if d.paranoid {
		if err == nil {
			c := conf
			d.conf = &c
		} else {
			d.conf = nil
		}
	}
	return err
}

// Trigger behaves like Device.Trigger.
func (d *ContextDevice[C, P]) Trigger(ctx context.Context) error {
	conf := Configuration{}
	if d.paranoid && d.conf != nil {
		conf = *d.conf
	} else {
		var err error
		conf, err = d.Configuration(ctx)
		if err != nil {
			return err
		}
	}
	return d.SetConfiguration(ctx, conf)
}

// Calibrate replaces the calibration and writes the calibration register.
func (d *ContextDevice[C, P]) Calibrate(ctx context.Context, calib Calibration[C, P]) error {
	d.calib = calib
	return d.writeRegister(ctx, RegCalibration, calib.RegisterBits())
}

// ShuntVoltage behaves like Device.ShuntVoltage.
func (d *ContextDevice[C, P]) ShuntVoltage(ctx context.Context) (ShuntVoltage, error) {
	bits, err := d.readRegister(ctx, RegShuntVoltage)
	if err != nil {
		return ShuntVoltage{}, err
	}
	return decodeShunt(bits, activeShuntRange(d.paranoid, d.conf))
}

// BusVoltage behaves like Device.BusVoltage.
func (d *ContextDevice[C, P]) BusVoltage(ctx context.Context) (BusVoltage, error) {
	bits, err := d.readRegister(ctx, RegBusVoltage)
	if err != nil {
		return BusVoltage{}, err
	}
	return decodeBus(bits, activeBusRange(d.paranoid, d.conf))
}

// PowerRaw reads the raw power register and clears the conversion-ready
// flag.
func (d *ContextDevice[C, P]) PowerRaw(ctx context.Context) (PowerRegister, error) {
	bits, err := d.readRegister(ctx, RegPower)
	return PowerRegister(bits), err
}

// CurrentRaw reads the raw current register.
func (d *ContextDevice[C, P]) CurrentRaw(ctx context.Context) (CurrentRegister, error) {
	bits, err := d.readRegister(ctx, RegCurrent)
	return CurrentRegister(bits), err
}

// NextMeasurement behaves like Device.NextMeasurement; the combined
// transaction is used when the transport implements ContextTransactor.
func (d *ContextDevice[C, P]) NextMeasurement(ctx context.Context) (*Measurements[C, P], error) {
	regs := [...]Register{RegBusVoltage, RegPower, RegShuntVoltage, RegCurrent}
	n := 3
	if d.calib.ReadsCurrent() {
		n = 4
	}

	var vals [4]uint16
	if err := d.readMany(ctx, regs[:n], vals[:n]); err != nil {
		return nil, err
	}

	bus, err := decodeBus(vals[0], activeBusRange(d.paranoid, d.conf))
	if err != nil {
		return nil, err
	}
	if !bus.ConversionReady() {
		return nil, nil
	}

	shunt, err := decodeShunt(vals[2], activeShuntRange(d.paranoid, d.conf))
	if err != nil {
		return nil, err
	}

	if bus.MathOverflowed() {
		return nil, &MathOverflowError{BusVoltage: bus, ShuntVoltage: shunt}
	}

	var current CurrentRegister
	if n == 4 {
		current = CurrentRegister(vals[3])
	}
	return &Measurements[C, P]{
		BusVoltage:   bus,
		ShuntVoltage: shunt,
		Current:      d.calib.CurrentFromRegister(current),
		Power:        d.calib.PowerFromRegister(PowerRegister(vals[1])),
	}, nil
}

func (d *ContextDevice[C, P]) readRegister(ctx context.Context, reg Register) (uint16, error) {
	d.w[0] = reg.Address()
	if err := d.bus.Tx(ctx, uint16(d.addr.AsByte()), d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

func (d *ContextDevice[C, P]) writeRegister(ctx context.Context, reg Register, val uint16) error {
	d.w[0] = reg.Address()
	d.w[1] = byte(val >> 8)
	d.w[2] = byte(val)
	return d.bus.Tx(ctx, uint16(d.addr.AsByte()), d.w[:3], nil)
}

func (d *ContextDevice[C, P]) readMany(ctx context.Context, regs []Register, out []uint16) error {
	addr := uint16(d.addr.AsByte())

	if t, ok := d.bus.(ContextTransactor); ok {
		var ptrs [4][1]byte
		var bufs [4][2]byte
		ops := make([]Op, 0, 2*len(regs))
		for i, reg := range regs {
			ptrs[i][0] = reg.Address()
			ops = append(ops, Op{W: ptrs[i][:]}, Op{R: bufs[i][:]})
		}
		if err := t.Transact(ctx, addr, ops); err != nil {
			return err
		}
		for i := range regs {
			out[i] = uint16(bufs[i][0])<<8 | uint16(bufs[i][1])
		}
		return nil
	}

	for i, reg := range regs {
		v, err := d.readRegister(ctx, reg)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}
