// Package testing provides hardware doubles for the keypad: a simulated
// 74HC165 shift register and a manually stepped clock.
package testing

import (
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ShiftSim simulates a parallel-in/serial-out shift register. Latch high loads
// the parallel inputs (Keys); each rising clock edge shifts the next bit onto
// the data line, most significant bit first.
type ShiftSim struct {
	mu      sync.Mutex
	keys    uint8
	shift   uint8
	clock   gpio.Level
	latches int
	// FailLatch makes every latch write fail.
	FailLatch bool
}

// NewShiftSim returns a simulator whose parallel inputs read keys.
func NewShiftSim(keys uint8) *ShiftSim {
	return &ShiftSim{keys: keys, clock: gpio.High}
}

// SetKeys changes the parallel inputs, as if keys went down or up.
func (s *ShiftSim) SetKeys(keys uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
}

// Latches returns how many times the inputs were latched.
func (s *ShiftSim) Latches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latches
}

// Latch returns the latch line.
func (s *ShiftSim) Latch() *SimLine { return &SimLine{sim: s, role: roleLatch} }

// Clock returns the clock line.
func (s *ShiftSim) Clock() *SimLine { return &SimLine{sim: s, role: roleClock} }

// Data returns the data line.
func (s *ShiftSim) Data() *SimLine { return &SimLine{sim: s, role: roleData} }

type lineRole int

const (
	roleLatch lineRole = iota
	roleClock
	roleData
)

// SimLine is one line of a ShiftSim.
type SimLine struct {
	sim  *ShiftSim
	role lineRole
}

func (l *SimLine) Out(level gpio.Level) error {
	s := l.sim
	s.mu.Lock()
	defer s.mu.Unlock()
	switch l.role {
	case roleLatch:
		if s.FailLatch {
			return errors.New("latch line stuck")
		}
		if level == gpio.High {
			s.shift = s.keys
			s.latches++
		}
	case roleClock:
		if s.clock == gpio.Low && level == gpio.High {
			s.shift <<= 1
		}
		s.clock = level
	default:
		return errors.New("data line is an input")
	}
	return nil
}

func (l *SimLine) In(gpio.Pull, gpio.Edge) error {
	if l.role != roleData {
		return errors.New("line is an output")
	}
	return nil
}

func (l *SimLine) Read() gpio.Level {
	s := l.sim
	s.mu.Lock()
	defer s.mu.Unlock()
	return gpio.Level(s.shift&0x80 != 0)
}

// Clock is a manually advanced keypad.Clock. Sleep advances time and runs
// OnSleep, which lets tests change key state inside a sensitivity window.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	slept   []time.Duration
	OnSleep func(d time.Duration)
}

// NewClock returns a Clock starting at an arbitrary fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2021, 6, 18, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	hook := c.OnSleep
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
}

// Slept returns every duration passed to Sleep.
func (c *Clock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}
