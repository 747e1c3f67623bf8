// Probes every strap-selectable INA219 address on an I²C bus and reports
// which ones answer, with the configuration each device currently holds.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"ina219-go/drivers/ina219"
	"ina219-go/transport/periphi2c"
)

func main() {
	busName := flag.String("bus", "", "bus name, number or device path (empty: first available)")
	flag.Parse()

	bus, err := periphi2c.Open(*busName)
	if err != nil {
		log.Fatalf("open bus: %v", err)
	}
	defer bus.Close()

	found := 0
	for b := byte(0x40); b <= 0x4F; b++ {
		addr, err := ina219.AddressFromByte(b)
		if err != nil {
			log.Fatalf("address %#02x: %v", b, err)
		}

		// A plain register read; anything not answering just NAKs.
		dev := ina219.NewUnchecked(bus, addr, ina219.UnCalibrated{})
		conf, err := dev.Configuration()
		if err != nil {
			continue
		}

		a0, a1 := addr.AsPins()
		fmt.Printf("0x%02X (A0=%s A1=%s): configuration %#04x\n", b, a0, a1, conf.AsBits())
		found++
	}

	if found == 0 {
		fmt.Println("no devices found")
		os.Exit(1)
	}
}
