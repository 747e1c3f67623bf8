package ina219

import "tinygo.org/x/drivers"

// Reset completion is polled a fixed number of times, no back-off.
const maxResetPolls = 10

// Options tune driver behaviour that is independent of the device.
type Options struct {
	// Paranoid caches the last written configuration, cross-checks reads
	// against it, interprets range fields from it, and asserts the
	// post-reset register invariants during initialization. When off, reads
	// are still validated against the widest permitted ranges.
	Paranoid bool
}

// Device is a blocking driver for one INA219. It owns the bus handle for
// its lifetime; it is not safe for concurrent use.
type Device[C, P any] struct {
	bus      drivers.I2C
	addr     Address
	calib    Calibration[C, P]
	paranoid bool

	// Last written configuration; nil when unknown. Paranoid mode only.
	conf *Configuration

	// Fixed buffers to avoid per-call heap allocations.
	w [3]byte
	r [2]byte
}

var (
	_ Calibration[Unitless, Unitless]     = UnCalibrated{}
	_ Calibration[MicroAmpere, MicroWatt] = IntCalibration{}
)

// New opens an uncalibrated INA219: it resets the device, verifies the
// post-reset state and leaves the calibration register at zero.
func New(bus drivers.I2C, addr Address) (*Device[Unitless, Unitless], error) {
	return NewCalibrated[Unitless, Unitless](bus, addr, UnCalibrated{})
}

// NewCalibrated opens an INA219, resets it, verifies the post-reset state
// and programs the given calibration.
//
// On failure the returned *InitializationError says why; the bus handle is
// left untouched and stays usable by the caller.
func NewCalibrated[C, P any](bus drivers.I2C, addr Address, calib Calibration[C, P]) (*Device[C, P], error) {
	return NewCalibratedWith(bus, addr, calib, Options{Paranoid: true})
}

// NewCalibratedWith is NewCalibrated with explicit Options.
func NewCalibratedWith[C, P any](bus drivers.I2C, addr Address, calib Calibration[C, P], opts Options) (*Device[C, P], error) {
	d := NewUnchecked(bus, addr, calib)
	d.paranoid = opts.Paranoid
	if err := d.init(); err != nil {
		return nil, &InitializationError{Reason: err}
	}
	return d, nil
}

// NewUnchecked wraps a device that is assumed to already be initialized
// and calibrated. No bus traffic is performed.
func NewUnchecked[C, P any](bus drivers.I2C, addr Address, calib Calibration[C, P]) *Device[C, P] {
	if addr == (Address{}) {
		addr = DefaultAddress()
	}
	return &Device[C, P]{bus: bus, addr: addr, calib: calib}
}

// Bus returns the transport the device talks through.
func (d *Device[C, P]) Bus() drivers.I2C { return d.bus }

// Destroy surrenders the bus handle. The device keeps its current state.
func (d *Device[C, P]) Destroy() drivers.I2C { return d.bus }

// init brings the device into a known state: reset, wait for the reset to
// finish, optionally assert the post-reset invariants, then program the
// calibration. A calibration of zero bits is skipped since zero is the
// reset value.
func (d *Device[C, P]) init() error {
	if err := d.Reset(); err != nil {
		return err
	}

	if d.paranoid {
		for _, reg := range [...]Register{RegCalibration, RegCurrent, RegPower} {
			v, err := d.readRegister(reg)
			if err != nil {
				return err
			}
			if v != 0 {
				return &RegisterNotZeroError{Register: reg}
			}
		}
		if _, err := d.ShuntVoltage(); err != nil {
			return err
		}
		if _, err := d.BusVoltage(); err != nil {
			return err
		}
	}

	if bits := d.calib.RegisterBits(); bits != 0 {
		return d.writeRegister(RegCalibration, bits)
	}
	return nil
}

// Reset writes the configuration register with the reset bit set and polls
// until the register reads back its default value. The poll budget is
// fixed; ErrConfigurationNotDefault is returned when it runs out.
func (d *Device[C, P]) Reset() error {
	conf := DefaultConfiguration()
	conf.Reset = DoReset
	if err := d.SetConfiguration(conf); err != nil {
		return err
	}
	// The reset bit is never read back; forget the cached value.
	d.conf = nil

	for attempt := 0; attempt < maxResetPolls; attempt++ {
		bits, err := d.readRegister(RegConfiguration)
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

// Configuration reads and decodes the configuration register.
//
// In paranoid mode a read that differs from the cached configuration
// returns a *ConfigurationMismatchError; the cache is updated to the read
// value first, so a retry succeeds.
func (d *Device[C, P]) Configuration() (Configuration, error) {
	bits, err := d.readRegister(RegConfiguration)
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

// SetConfiguration encodes and writes a configuration. On a transport
// failure the cached configuration is cleared: the device state is unknown.
func (d *Device[C, P]) SetConfiguration(conf Configuration) error {
	err := d.writeRegister(RegConfiguration, conf.AsBits())
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

// Trigger rewrites the current configuration. In triggered mode this
// starts a new conversion; in any other mode it is a no-op on the device.
func (d *Device[C, P]) Trigger() error {
	conf := Configuration{}
	if d.paranoid && d.conf != nil {
		conf = *d.conf
	} else {
		var err error
		conf, err = d.Configuration()
		if err != nil {
			return err
		}
	}
	return d.SetConfiguration(conf)
}

// Calibrate replaces the calibration and writes the calibration register.
func (d *Device[C, P]) Calibrate(calib Calibration[C, P]) error {
	d.calib = calib
	return d.writeRegister(RegCalibration, calib.RegisterBits())
}

// ShuntVoltage reads the last measured shunt voltage, validated against
// the active range.
func (d *Device[C, P]) ShuntVoltage() (ShuntVoltage, error) {
	bits, err := d.readRegister(RegShuntVoltage)
	if err != nil {
		return ShuntVoltage{}, err
	}
	return decodeShunt(bits, activeShuntRange(d.paranoid, d.conf))
}

// BusVoltage reads the last measured bus voltage, validated against the
// active range.
func (d *Device[C, P]) BusVoltage() (BusVoltage, error) {
	bits, err := d.readRegister(RegBusVoltage)
	if err != nil {
		return BusVoltage{}, err
	}
	return decodeBus(bits, activeBusRange(d.paranoid, d.conf))
}

// PowerRaw reads the raw power register. This clears the device's
// conversion-ready flag.
func (d *Device[C, P]) PowerRaw() (PowerRegister, error) {
	bits, err := d.readRegister(RegPower)
	return PowerRegister(bits), err
}

// CurrentRaw reads the raw current register.
func (d *Device[C, P]) CurrentRaw() (CurrentRegister, error) {
	bits, err := d.readRegister(RegCurrent)
	return CurrentRegister(bits), err
}

// NextMeasurement fetches one measurement bundle, or nil when no new
// conversion finished since the flag was last cleared.
//
// All registers are read in one transaction when the transport supports
// it, in the order bus, power, shunt, current: the power read clears the
// conversion-ready flag, so it must happen together with the bus read that
// observes the flag. The current read is skipped entirely when the
// calibration opts out.
func (d *Device[C, P]) NextMeasurement() (*Measurements[C, P], error) {
	regs := [...]Register{RegBusVoltage, RegPower, RegShuntVoltage, RegCurrent}
	n := 3
	if d.calib.ReadsCurrent() {
		n = 4
	}

	var vals [4]uint16
	if err := d.readMany(regs[:n], vals[:n]); err != nil {
		return nil, err
	}

	bus, err := decodeBus(vals[0], activeBusRange(d.paranoid, d.conf))
	if err != nil {
		return nil, err
	}
	if !bus.ConversionReady() {
		// No new data.
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

// Register protocol: pointer byte, then two data bytes big-endian.

func (d *Device[C, P]) readRegister(reg Register) (uint16, error) {
	d.w[0] = reg.Address()
	if err := d.bus.Tx(uint16(d.addr.AsByte()), d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

func (d *Device[C, P]) writeRegister(reg Register, val uint16) error {
	d.w[0] = reg.Address()
	d.w[1] = byte(val >> 8)
	d.w[2] = byte(val)
	return d.bus.Tx(uint16(d.addr.AsByte()), d.w[:3], nil)
}

func (d *Device[C, P]) readMany(regs []Register, out []uint16) error {
	addr := uint16(d.addr.AsByte())

	if t, ok := d.bus.(Transactor); ok {
		var ptrs [4][1]byte
		var bufs [4][2]byte
		ops := make([]Op, 0, 2*len(regs))
		for i, reg := range regs {
			ptrs[i][0] = reg.Address()
			ops = append(ops, Op{W: ptrs[i][:]}, Op{R: bufs[i][:]})
		}
		if err := t.Transact(addr, ops); err != nil {
			return err
		}
		for i := range regs {
			out[i] = uint16(bufs[i][0])<<8 | uint16(bufs[i][1])
		}
		return nil
	}

	for i, reg := range regs {
		v, err := d.readRegister(reg)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

// Range selection and decoding shared by both driver flavors.

func activeShuntRange(paranoid bool, conf *Configuration) ShuntVoltageRange {
	if paranoid && conf != nil {
		return conf.ShuntVoltageRange
	}
	return Fsr320mv
}

func activeBusRange(paranoid bool, conf *Configuration) BusVoltageRange {
	if paranoid && conf != nil {
		return conf.BusVoltageRange
	}
	return Fsr32v
}

func decodeShunt(bits uint16, rng ShuntVoltageRange) (ShuntVoltage, error) {
	sv, ok := ShuntVoltageFromBits(bits, rng)
	if !ok {
		return ShuntVoltage{}, &ShuntVoltageRangeError{
			Should: rng,
			Is:     shuntVoltageFromBitsUnchecked(bits),
		}
	}
	return sv, nil
}

func decodeBus(bits uint16, rng BusVoltageRange) (BusVoltage, error) {
	bv, ok := BusVoltageFromBits(bits, rng)
	if !ok {
		return BusVoltage{}, &BusVoltageRangeError{
			Should: rng,
			Is:     busVoltageFromBitsUnchecked(bits),
		}
	}
	return bv, nil
}
