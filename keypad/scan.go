package keypad

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/sikdev/shiftkeys/internal/log"
)

// State is a stage of the scan cycle.
type State int

const (
	StateIdle State = iota
	StateTriggered
	StateSampling
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateTriggered:
		return "triggered"
	case StateSampling:
		return "sampling"
	case StateResolved:
		return "resolved"
	default:
		return "idle"
	}
}

// Abort tells why a scan cycle ended without dispatch.
type Abort int

const (
	AbortNone Abort = iota
	// AbortBusy: another cycle was running.
	AbortBusy
	// AbortDebounce: the trigger came within the debounce interval.
	AbortDebounce
	// AbortLineLow: the interrupt line no longer read high.
	AbortLineLow
	// AbortInactive: the driver is disabled.
	AbortInactive
	// AbortSampleError: the register could not be read.
	AbortSampleError
	// AbortNoKey: the sample held no pressed key.
	AbortNoKey
)

func (a Abort) String() string {
	switch a {
	case AbortNone:
		return "none"
	case AbortBusy:
		return "busy"
	case AbortDebounce:
		return "debounce"
	case AbortLineLow:
		return "line-low"
	case AbortInactive:
		return "inactive"
	case AbortSampleError:
		return "sample-error"
	case AbortNoKey:
		return "no-key"
	default:
		return "unknown"
	}
}

// Cycle is the outcome of one Trigger call.
type Cycle struct {
	// State is the furthest state reached.
	State State
	Abort Abort
	// Err is set for AbortSampleError.
	Err   error
	Event KeyEvent
	// Route and Wildcard are only meaningful when Abort is AbortNone.
	Route    Route
	Wildcard bool
}

// Dispatched reports whether the cycle reached dispatch.
func (c Cycle) Dispatched() bool { return c.Abort == AbortNone }

// Trigger runs one scan cycle, as if the interrupt line had just risen:
// debounce, sample, optionally merge a delayed second sample, then dispatch.
// Triggers arriving while a cycle is running are dropped.
func (d *Driver) Trigger() Cycle {
	if !d.cycleMu.TryLock() {
		d.logger.Log(context.Background(), log.LevelTrace, "trigger dropped", "abort", AbortBusy)
		return Cycle{State: StateIdle, Abort: AbortBusy}
	}
	defer d.cycleMu.Unlock()

	c := d.cycle()
	switch {
	case c.Abort == AbortSampleError:
		d.logger.Error("scan cycle failed", "error", c.Err)
	case c.Dispatched():
		d.logger.Debug("key event", "event", c.Event, "route", c.Route, "wildcard", c.Wildcard)
	default:
		d.logger.Log(context.Background(), log.LevelTrace, "scan cycle aborted", "state", c.State, "abort", c.Abort)
	}
	return c
}

// cycle must be called with cycleMu held.
func (d *Driver) cycle() Cycle {
	now := d.clock.Now()
	if now.Sub(d.lastTrigger) <= d.debounce {
		return Cycle{State: StateIdle, Abort: AbortDebounce}
	}
	if d.irq != nil && d.irq.Read() != gpio.High {
		return Cycle{State: StateIdle, Abort: AbortLineLow}
	}
	d.lastTrigger = now

	if !d.active.Load() {
		return Cycle{State: StateTriggered, Abort: AbortInactive}
	}

	bits, err := d.sample()
	if err != nil {
		return Cycle{State: StateSampling, Abort: AbortSampleError, Err: err}
	}
	ev := FromBits(bits, d.multi)
	if ev.None() {
		return Cycle{State: StateSampling, Abort: AbortNoKey, Event: ev}
	}

	if d.multi {
		// Catch keys that went down slightly after the first one.
		d.clock.Sleep(time.Duration(d.sensitivity.Load()) * SensitivityStep)
		bits, err := d.sample()
		if err != nil {
			return Cycle{State: StateSampling, Abort: AbortSampleError, Err: err, Event: ev}
		}
		ev.Merge(FromBits(bits, true))
	}

	route, wildcard := d.registry.Dispatch(ev)
	return Cycle{State: StateResolved, Event: ev, Route: route, Wildcard: wildcard}
}
