package cmd

import (
	"log/slog"
	"time"

	"github.com/sikdev/shiftkeys/internal/board"
	"github.com/sikdev/shiftkeys/internal/log"
	"github.com/sikdev/shiftkeys/keypad"
)

// Keypad holds the options shared by every command that talks to the keypad.
type Keypad struct {
	Multi       bool          `help:"Resolve combined key presses" default:"true" negatable:"" env:"SHIFTKEYS_MULTI"`
	Debounce    time.Duration `help:"Minimum time between accepted triggers" default:"250ms" env:"SHIFTKEYS_DEBOUNCE"`
	Sensitivity uint8         `help:"Delay before the second sample of a combined press, in 2ms steps" default:"30" env:"SHIFTKEYS_SENSITIVITY"`
	Pins        board.Pins    `embed:"" prefix:"pins."`
}

// openHardware is replaced in tests.
var openHardware = func(p board.Pins, raw log.RawLogger) (*board.Board, error) {
	if err := board.Init(); err != nil {
		return nil, err
	}
	return board.Open(p, raw)
}

func (k *Keypad) open(logger *slog.Logger, raw log.RawLogger) (*keypad.Driver, error) {
	b, err := openHardware(k.Pins, raw)
	if err != nil {
		return nil, err
	}
	logger.Debug("keypad lines resolved",
		"latch", k.Pins.Latch, "clock", k.Pins.Clock, "data", k.Pins.Data, "interrupt", k.Pins.Interrupt)

	return keypad.New(keypad.Options{
		Multi:       k.Multi,
		Sampler:     b.Register,
		Interrupt:   b.Interrupt,
		Debounce:    k.Debounce,
		Sensitivity: k.Sensitivity,
		Logger:      logger,
	})
}
