package xb

import (
	"fmt"

	"github.com/radiokit-dev/radiokit/sdrapi"
	"github.com/radiokit-dev/radiokit/sdrapi/xb/pinmap"
)

// XB200Pins are the GPIO header pins of the XB200 transverter board, named
// after the schematic silkscreen. All pins start undirected.
type XB200Pins struct {
	J7_1  Pin
	J7_2  Pin
	J7_5  Pin
	J7_6  Pin
	J13_1 Pin
	J13_2 Pin
	J16_1 Pin
	J16_2 Pin
	J16_3 Pin
	J16_4 Pin
	J16_5 Pin
	J16_6 Pin
}

// XB200 builds the pin set of an attached XB200 board from the board's
// header map.
func XB200(dev sdrapi.Device) (*XB200Pins, error) {
	board, err := pinmap.Lookup("xb200")
	if err != nil {
		return nil, err
	}
	pins := &XB200Pins{}
	for name, dst := range map[string]*Pin{
		"J7_1":  &pins.J7_1,
		"J7_2":  &pins.J7_2,
		"J7_5":  &pins.J7_5,
		"J7_6":  &pins.J7_6,
		"J13_1": &pins.J13_1,
		"J13_2": &pins.J13_2,
		"J16_1": &pins.J16_1,
		"J16_2": &pins.J16_2,
		"J16_3": &pins.J16_3,
		"J16_4": &pins.J16_4,
		"J16_5": &pins.J16_5,
		"J16_6": &pins.J16_6,
	} {
		num, ok := board.Pin(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", sdrapi.ErrUnknownPin, name)
		}
		*dst = NewPin(dev, num)
	}
	return pins, nil
}

// XB100Pins are the button headers and LEDs of the XB100 GPIO demo board.
type XB100Pins struct {
	J2_3 Pin
	J2_4 Pin
	J3_3 Pin
	J3_4 Pin
	J4_3 Pin
	J4_4 Pin

	LedD1 Pin
	LedD2 Pin
	LedD3 Pin
	LedD4 Pin
	LedD5 Pin
	LedD6 Pin
	LedD7 Pin
	LedD8 Pin
}

// XB100 builds the pin set of an attached XB100 board from the board's
// header map.
func XB100(dev sdrapi.Device) (*XB100Pins, error) {
	board, err := pinmap.Lookup("xb100")
	if err != nil {
		return nil, err
	}
	pins := &XB100Pins{}
	for name, dst := range map[string]*Pin{
		"J2_3":   &pins.J2_3,
		"J2_4":   &pins.J2_4,
		"J3_3":   &pins.J3_3,
		"J3_4":   &pins.J3_4,
		"J4_3":   &pins.J4_3,
		"J4_4":   &pins.J4_4,
		"LED_D1": &pins.LedD1,
		"LED_D2": &pins.LedD2,
		"LED_D3": &pins.LedD3,
		"LED_D4": &pins.LedD4,
		"LED_D5": &pins.LedD5,
		"LED_D6": &pins.LedD6,
		"LED_D7": &pins.LedD7,
		"LED_D8": &pins.LedD8,
	} {
		num, ok := board.Pin(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", sdrapi.ErrUnknownPin, name)
		}
		*dst = NewPin(dev, num)
	}
	return pins, nil
}
