// Package keypad implements a driver for a shift-register keypad: it samples the
// register when the interrupt line rises, debounces, resolves single or
// combined presses into a KeyEvent and dispatches it to registered handlers.
//
// Handlers are registered per specifier. A specifier is a string of key
// symbols ("u", "ud", "LR") or one of Wildcard and Default:
//
//	d, _ := keypad.New(keypad.Options{Multi: true, Sampler: reg, Interrupt: irq})
//	_ = d.On("u", func(ev keypad.KeyEvent) { ... })
//	_ = d.On("LR", func(ev keypad.KeyEvent) { ... })
//	_ = d.On(keypad.Default, func(ev keypad.KeyEvent) { ... })
//	go d.Run(ctx)
package keypad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ErrNoInterrupt is returned by Run when the driver has no interrupt line.
var ErrNoInterrupt = errors.New("keypad: no interrupt line configured")

// Sampler reads the raw key bit pattern from the hardware.
type Sampler interface {
	Sample() (uint8, error)
}

// InterruptLine is the input line raised by the keypad on a press.
// gpio.PinIn satisfies it.
type InterruptLine interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// Options configures a Driver.
type Options struct {
	// Multi allows combined presses. When false only the lowest set bit is reported.
	Multi bool
	// Sampler is required.
	Sampler Sampler
	// Interrupt is optional; without it only Read and Trigger are usable.
	Interrupt InterruptLine
	// InterruptPull is applied to Interrupt by Run. The zero value floats the line.
	InterruptPull gpio.Pull
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Sensitivity defaults to DefaultSensitivity.
	Sensitivity uint8
	Clock       Clock
	Logger      *slog.Logger
}

// Driver owns one keypad: its registry, debounce state and configuration.
type Driver struct {
	multi    bool
	sampler  Sampler
	irq      InterruptLine
	irqPull  gpio.Pull
	debounce time.Duration
	clock    Clock
	logger   *slog.Logger

	active      atomic.Bool
	sensitivity atomic.Uint32
	registry    Registry

	// cycleMu is held for a whole scan cycle; triggers arriving meanwhile are dropped.
	cycleMu     sync.Mutex
	lastTrigger time.Time
	// busMu serialises register reads between Trigger and Read.
	busMu sync.Mutex
}

// New returns an active Driver.
func New(o Options) (*Driver, error) {
	if o.Sampler == nil {
		return nil, errors.New("keypad: sampler is required")
	}
	d := &Driver{
		multi:    o.Multi,
		sampler:  o.Sampler,
		irq:      o.Interrupt,
		irqPull:  o.InterruptPull,
		debounce: o.Debounce,
		clock:    o.Clock,
		logger:   o.Logger,
	}
	if d.debounce <= 0 {
		d.debounce = DefaultDebounce
	}
	if d.clock == nil {
		d.clock = SystemClock
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sens := o.Sensitivity
	if sens == 0 {
		sens = DefaultSensitivity
	}
	d.sensitivity.Store(uint32(sens))
	d.active.Store(true)
	d.lastTrigger = d.clock.Now()
	return d, nil
}

// Enable resumes dispatch on trigger.
func (d *Driver) Enable() { d.active.Store(true) }

// Disable suppresses dispatch on trigger. Debounce timestamps are still
// updated, and a cycle already past its active check completes.
func (d *Driver) Disable() { d.active.Store(false) }

// Active reports whether dispatch is enabled.
func (d *Driver) Active() bool { return d.active.Load() }

// Multi reports whether combined presses are resolved.
func (d *Driver) Multi() bool { return d.multi }

// SetSensitivity sets the secondary sample delay in SensitivityStep units.
// Values below 1 are clamped to 1.
func (d *Driver) SetSensitivity(level uint8) {
	d.sensitivity.Store(uint32(max(level, 1)))
}

// Sensitivity returns the current sensitivity level.
func (d *Driver) Sensitivity() uint8 { return uint8(d.sensitivity.Load()) }

// SensitivityWindow returns the delay before the secondary sample.
func (d *Driver) SensitivityWindow() time.Duration {
	return time.Duration(d.sensitivity.Load()) * SensitivityStep
}

// On registers h for spec, which is a key symbol string, Wildcard or Default.
// When the registry is full the handler is not added and ErrRegistryFull is
// returned.
func (d *Driver) On(spec string, h HandlerFunc) error {
	if err := d.registry.Register(spec, h); err != nil {
		d.logger.Warn("handler not registered", "spec", spec, "error", err)
		return err
	}
	d.logger.Debug("handler registered", "spec", spec, "id", Hash(spec), "registered", d.registry.Len())
	return nil
}

// Read samples the keypad once and resolves the event without dispatching it.
func (d *Driver) Read() (KeyEvent, error) {
	bits, err := d.sample()
	if err != nil {
		return KeyEvent{}, err
	}
	return FromBits(bits, d.multi), nil
}

// Run arms the interrupt line and runs a scan cycle on each rising edge until
// ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	if d.irq == nil {
		return ErrNoInterrupt
	}
	if err := d.irq.In(d.irqPull, gpio.RisingEdge); err != nil {
		return fmt.Errorf("failed to arm interrupt line: %w", err)
	}
	d.logger.Info("keypad armed", "multi", d.multi, "debounce", d.debounce, "sensitivity", d.Sensitivity())
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if d.irq.WaitForEdge(edgePollInterval) {
			d.Trigger()
		}
	}
}

func (d *Driver) sample() (uint8, error) {
	d.busMu.Lock()
	defer d.busMu.Unlock()
	bits, err := d.sampler.Sample()
	if err != nil {
		return 0, fmt.Errorf("failed to sample keypad: %w", err)
	}
	return bits, nil
}
