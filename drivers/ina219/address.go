package ina219

// Pin names the signal an address strap pin is connected to. The values
// match the address bits contributed by that pin (table 1 of the datasheet).
type Pin uint8

const (
	PinGnd Pin = 0
	PinVcc Pin = 1
	PinSda Pin = 2
	PinScl Pin = 3
)

// AsByte returns the two address bits contributed by strapping a pin to
// this signal.
func (p Pin) AsByte() byte { return byte(p) }

func pinFromLowestBits(b byte) Pin {
	return Pin(b & 0b11)
}

func (p Pin) String() string {
	switch p {
	case PinGnd:
		return "GND"
	case PinVcc:
		return "VCC"
	case PinSda:
		return "SDA"
	case PinScl:
		return "SCL"
	default:
		return "invalid"
	}
}

// Valid 7-bit address window for the INA219.
const (
	minAddress = 0b100_0000 // A1=GND, A0=GND
	maxAddress = 0b100_1111 // A1=SCL, A0=SCL
)

// Address is a validated 7-bit bus address of an INA219.
//
// The zero value is not a usable address; construct one via FromPins,
// AddressFromByte or DefaultAddress. The Device constructors treat the zero
// value as DefaultAddress.
type Address struct {
	b byte
}

// DefaultAddress is the address with both strap pins on GND (0x40).
func DefaultAddress() Address { return FromPins(PinGnd, PinGnd) }

// FromPins builds the address selected by strapping A0 and A1.
func FromPins(a0, a1 Pin) Address {
	b := byte(minAddress)
	b |= a0.AsByte()
	b |= a1.AsByte() << 2
	return Address{b: b}
}

// AddressFromByte validates a raw 7-bit address. It fails for any byte
// outside 0x40..0x4F, the window reachable by the A0/A1 straps.
func AddressFromByte(b byte) (Address, error) {
	if b < minAddress || b > maxAddress {
		return Address{}, &AddressOutOfRangeError{Which: b}
	}
	return Address{b: b}, nil
}

// AsByte returns the 7-bit bus address.
func (a Address) AsByte() byte { return a.b }

// AsPins decomposes the address into the A0 and A1 strap signals.
func (a Address) AsPins() (a0, a1 Pin) {
	return pinFromLowestBits(a.b), pinFromLowestBits(a.b >> 2)
}
