// Samples one INA219 continuously and prints each finished conversion.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"ina219-go/drivers/ina219"
	"ina219-go/transport/periphi2c"
)

func main() {
	busName := flag.String("bus", "", "bus name, number or device path (empty: first available)")
	addrByte := flag.Uint("addr", 0x40, "device address (0x40..0x4F)")
	shuntUOhm := flag.Uint("shunt-uohm", 100_000, "shunt resistance in µΩ")
	currentLSB := flag.Int64("current-lsb-ua", 100, "current register LSB in µA")
	flag.Parse()

	addr, err := ina219.AddressFromByte(byte(*addrByte))
	if err != nil {
		log.Fatal(err)
	}

	cal, ok := ina219.NewIntCalibration(ina219.MicroAmpere(*currentLSB), uint32(*shuntUOhm))
	if !ok {
		log.Fatalf("calibration out of range: lsb=%dµA shunt=%dµΩ", *currentLSB, *shuntUOhm)
	}

	bus, err := periphi2c.Open(*busName)
	if err != nil {
		log.Fatalf("open bus: %v", err)
	}
	defer bus.Close()

	dev, err := ina219.NewCalibrated[ina219.MicroAmpere, ina219.MicroWatt](bus, addr, cal)
	if err != nil {
		log.Fatal(err)
	}

	conf, err := dev.Configuration()
	if err != nil {
		log.Fatal(err)
	}
	wait, converting := conf.ConversionTime()
	if !converting {
		log.Fatal("device is powered down")
	}

	for {
		time.Sleep(wait)

		m, err := dev.NextMeasurement()
		if err != nil {
			log.Fatal(err)
		}
		if m == nil {
			continue
		}
		fmt.Printf("bus %5dmV  shunt %+8dµV  current %+9dµA  power %9dµW\n",
			m.BusVoltage.Millivolts(), m.ShuntVoltage.Microvolts(), m.Current, m.Power)
	}
}
