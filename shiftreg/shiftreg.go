// Package shiftreg reads a parallel-in/serial-out shift register (74HC165
// style) by bit-banging latch, clock and data lines.
package shiftreg

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/sikdev/shiftkeys/internal/log"
)

// Bits is the register width.
const Bits = 8

const (
	DefaultLatchPulse = 20 * time.Millisecond
	DefaultClockPulse = time.Microsecond
)

// Output is a line driven by the host. gpio.PinOut satisfies it.
type Output interface {
	Out(l gpio.Level) error
}

// Input is a line read by the host. gpio.PinIn satisfies it.
type Input interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
}

// Config wires a Register.
type Config struct {
	Latch Output
	Clock Output
	Data  Input
	// LatchPulse is how long latch is held high to capture the parallel inputs.
	LatchPulse time.Duration
	// ClockPulse is the settle time between clock low and reading data.
	ClockPulse time.Duration
	// Raw receives every sample; optional.
	Raw log.RawLogger
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Register is one shift register. It is safe for concurrent use.
type Register struct {
	cfg Config
	mu  sync.Mutex
}

// New configures the data line as input and returns a Register.
func New(cfg Config) (*Register, error) {
	if cfg.Latch == nil || cfg.Clock == nil || cfg.Data == nil {
		return nil, errors.New("shiftreg: latch, clock and data lines are required")
	}
	if cfg.LatchPulse <= 0 {
		cfg.LatchPulse = DefaultLatchPulse
	}
	if cfg.ClockPulse < 0 {
		cfg.ClockPulse = 0
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Raw == nil {
		cfg.Raw = log.NewRaw(nil)
	}
	if err := cfg.Data.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure data line: %w", err)
	}
	if err := cfg.Clock.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to configure clock line: %w", err)
	}
	if err := cfg.Latch.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure latch line: %w", err)
	}
	return &Register{cfg: cfg}, nil
}

// Sample latches the parallel inputs and shifts them out, most significant
// bit first. Bit n of the result is the register's parallel input n.
func (r *Register) Sample() (uint8, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cfg.Latch.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("latch high: %w", err)
	}
	r.cfg.Sleep(r.cfg.LatchPulse)
	if err := r.cfg.Latch.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("latch low: %w", err)
	}

	var bits uint8
	for i := Bits - 1; i >= 0; i-- {
		if err := r.cfg.Clock.Out(gpio.Low); err != nil {
			return 0, fmt.Errorf("clock low (bit %d): %w", i, err)
		}
		if r.cfg.ClockPulse > 0 {
			r.cfg.Sleep(r.cfg.ClockPulse)
		}
		if r.cfg.Data.Read() == gpio.High {
			bits |= 1 << i
		}
		if err := r.cfg.Clock.Out(gpio.High); err != nil {
			return 0, fmt.Errorf("clock high (bit %d): %w", i, err)
		}
	}
	r.cfg.Raw.Log(bits)
	return bits, nil
}
