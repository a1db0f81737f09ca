// Package board resolves the keypad's GPIO lines on the host.
package board

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sikdev/shiftkeys/internal/log"
	"github.com/sikdev/shiftkeys/shiftreg"
)

// Pins names the keypad's lines as known to gpioreg (e.g. "GPIO17").
type Pins struct {
	Latch      string        `help:"Shift register latch line (output)" default:"GPIO22" env:"SHIFTKEYS_PIN_LATCH"`
	Clock      string        `help:"Shift register clock line (output)" default:"GPIO27" env:"SHIFTKEYS_PIN_CLOCK"`
	Data       string        `help:"Shift register data line (input)" default:"GPIO17" env:"SHIFTKEYS_PIN_DATA"`
	Interrupt  string        `help:"Keypad interrupt line (input, rising edge)" default:"GPIO4" env:"SHIFTKEYS_PIN_INTERRUPT"`
	LatchPulse time.Duration `help:"Time the latch line is held high" default:"20ms" env:"SHIFTKEYS_LATCH_PULSE"`
	ClockPulse time.Duration `help:"Settle time before each data read" default:"1us" env:"SHIFTKEYS_CLOCK_PULSE"`
}

// DefaultPins are the lines used by the reference wiring on a Raspberry Pi header.
var DefaultPins = Pins{
	Latch:      "GPIO22",
	Clock:      "GPIO27",
	Data:       "GPIO17",
	Interrupt:  "GPIO4",
	LatchPulse: shiftreg.DefaultLatchPulse,
	ClockPulse: shiftreg.DefaultClockPulse,
}

// Board is the opened hardware.
type Board struct {
	Register  *shiftreg.Register
	Interrupt gpio.PinIO
}

// Lookup resolves a line by name. It is a variable so tests can register
// gpiotest pins without a host.
var Lookup = func(name string) gpio.PinIO {
	return gpioreg.ByName(name)
}

// Init loads the periph host drivers.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialise host drivers: %w", err)
	}
	return nil
}

// Open resolves p and sets up the shift register.
func Open(p Pins, raw log.RawLogger) (*Board, error) {
	lines := map[string]gpio.PinIO{}
	for role, name := range map[string]string{
		"latch":     p.Latch,
		"clock":     p.Clock,
		"data":      p.Data,
		"interrupt": p.Interrupt,
	} {
		pin := Lookup(name)
		if pin == nil {
			return nil, fmt.Errorf("unknown %s pin %q", role, name)
		}
		lines[role] = pin
	}

	reg, err := shiftreg.New(shiftreg.Config{
		Latch:      lines["latch"],
		Clock:      lines["clock"],
		Data:       lines["data"],
		LatchPulse: p.LatchPulse,
		ClockPulse: p.ClockPulse,
		Raw:        raw,
	})
	if err != nil {
		return nil, err
	}
	return &Board{Register: reg, Interrupt: lines["interrupt"]}, nil
}
