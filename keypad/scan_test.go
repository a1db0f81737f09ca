package keypad_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	th "github.com/sikdev/shiftkeys/internal/testing"
	"github.com/sikdev/shiftkeys/keypad"
	"github.com/sikdev/shiftkeys/shiftreg"
)

type rig struct {
	sim   *th.ShiftSim
	clock *th.Clock
	irq   *gpiotest.Pin
	d     *keypad.Driver
	calls []string
}

func newRig(t *testing.T, multi bool, specs ...string) *rig {
	t.Helper()
	r := &rig{
		sim:   th.NewShiftSim(0),
		clock: th.NewClock(),
		irq:   &gpiotest.Pin{N: "IRQ", Num: 4, L: gpio.High},
	}
	reg, err := shiftreg.New(shiftreg.Config{
		Latch: r.sim.Latch(),
		Clock: r.sim.Clock(),
		Data:  r.sim.Data(),
		Sleep: func(time.Duration) {},
	})
	require.NoError(t, err)

	r.d, err = keypad.New(keypad.Options{
		Multi:     multi,
		Sampler:   reg,
		Interrupt: r.irq,
		Clock:     r.clock,
	})
	require.NoError(t, err)
	for _, spec := range specs {
		require.NoError(t, r.d.On(spec, func(keypad.KeyEvent) { r.calls = append(r.calls, spec) }))
	}
	// Construction starts the debounce window.
	r.clock.Advance(time.Second)
	return r
}

type samplerFunc func() (uint8, error)

func (f samplerFunc) Sample() (uint8, error) { return f() }

func TestTriggerDispatches(t *testing.T) {
	r := newRig(t, true, "u", keypad.Wildcard, keypad.Default)
	r.sim.SetKeys(0b0001)

	c := r.d.Trigger()
	assert.True(t, c.Dispatched())
	assert.Equal(t, keypad.StateResolved, c.State)
	assert.Equal(t, keypad.RouteSpecific, c.Route)
	assert.True(t, c.Wildcard)
	assert.Equal(t, "u", c.Event.String())
	assert.Equal(t, []string{keypad.Wildcard, "u"}, r.calls)
}

func TestTriggerDebounce(t *testing.T) {
	r := newRig(t, false, keypad.Wildcard)
	r.sim.SetKeys(0b0001)

	require.True(t, r.d.Trigger().Dispatched())

	r.clock.Advance(100 * time.Millisecond)
	c := r.d.Trigger()
	assert.Equal(t, keypad.AbortDebounce, c.Abort)
	assert.Equal(t, keypad.StateIdle, c.State)
	assert.Len(t, r.calls, 1)

	// The rejected trigger did not restart the window.
	r.clock.Advance(keypad.DefaultDebounce - 100*time.Millisecond + time.Millisecond)
	assert.True(t, r.d.Trigger().Dispatched())
	assert.Len(t, r.calls, 2)
}

func TestTriggerRightAfterConstruction(t *testing.T) {
	d, err := keypad.New(keypad.Options{
		Sampler: samplerFunc(func() (uint8, error) { return 1, nil }),
		Clock:   th.NewClock(),
	})
	require.NoError(t, err)
	assert.Equal(t, keypad.AbortDebounce, d.Trigger().Abort)
}

func TestTriggerLineLow(t *testing.T) {
	r := newRig(t, false, keypad.Wildcard)
	r.sim.SetKeys(0b0001)
	r.irq.L = gpio.Low

	c := r.d.Trigger()
	assert.Equal(t, keypad.AbortLineLow, c.Abort)
	assert.Zero(t, r.sim.Latches())

	// No timestamp was taken, so a high line right away is accepted.
	r.irq.L = gpio.High
	assert.True(t, r.d.Trigger().Dispatched())
}

func TestTriggerInactive(t *testing.T) {
	r := newRig(t, false, keypad.Wildcard)
	r.sim.SetKeys(0b0001)
	r.d.Disable()
	assert.False(t, r.d.Active())

	c := r.d.Trigger()
	assert.Equal(t, keypad.AbortInactive, c.Abort)
	assert.Equal(t, keypad.StateTriggered, c.State)
	assert.Zero(t, r.sim.Latches())
	assert.Empty(t, r.calls)

	// Disabled triggers still restart the debounce window.
	r.d.Enable()
	assert.Equal(t, keypad.AbortDebounce, r.d.Trigger().Abort)
	r.clock.Advance(keypad.DefaultDebounce + time.Millisecond)
	assert.True(t, r.d.Trigger().Dispatched())
}

func TestTriggerNoKey(t *testing.T) {
	r := newRig(t, true, keypad.Wildcard, keypad.Default)

	c := r.d.Trigger()
	assert.Equal(t, keypad.AbortNoKey, c.Abort)
	assert.True(t, c.Event.None())
	assert.Empty(t, r.calls)
	assert.Empty(t, r.clock.Slept(), "no sensitivity wait without a key")
}

func TestTriggerSampleError(t *testing.T) {
	errBus := errors.New("bus fault")
	clock := th.NewClock()
	d, err := keypad.New(keypad.Options{
		Sampler: samplerFunc(func() (uint8, error) { return 0, errBus }),
		Clock:   clock,
	})
	require.NoError(t, err)
	called := false
	require.NoError(t, d.On(keypad.Wildcard, func(keypad.KeyEvent) { called = true }))

	clock.Advance(time.Second)
	c := d.Trigger()
	assert.Equal(t, keypad.AbortSampleError, c.Abort)
	assert.ErrorIs(t, c.Err, errBus)
	assert.False(t, called)
}

func TestSensitivityWindow(t *testing.T) {
	tests := []struct {
		name       string
		first      uint8
		second     uint8
		wantKeys   string
		wantBits   uint8
		wantMulti  bool
		wantRoute  keypad.Route
		wantCalled []string
	}{
		{
			name:       "second key within window",
			first:      0b0001,
			second:     0b0101,
			wantKeys:   "ud",
			wantBits:   0b0101,
			wantMulti:  true,
			wantRoute:  keypad.RouteSpecific,
			wantCalled: []string{"ud"},
		},
		{
			name:       "first key released, second pressed",
			first:      0b0001,
			second:     0b0100,
			wantKeys:   "ud",
			wantBits:   0b0101,
			wantMulti:  true,
			wantRoute:  keypad.RouteSpecific,
			wantCalled: []string{"ud"},
		},
		{
			name:       "released before second sample",
			first:      0b0001,
			second:     0,
			wantKeys:   "u",
			wantBits:   0b0001,
			wantRoute:  keypad.RouteDefault,
			wantCalled: []string{keypad.Default},
		},
		{
			name:       "second key after window",
			first:      0b0001,
			second:     0b0001,
			wantKeys:   "u",
			wantBits:   0b0001,
			wantRoute:  keypad.RouteDefault,
			wantCalled: []string{keypad.Default},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, true, "du", keypad.Default)
			r.sim.SetKeys(tt.first)
			r.clock.OnSleep = func(time.Duration) { r.sim.SetKeys(tt.second) }

			c := r.d.Trigger()
			require.True(t, c.Dispatched())
			assert.Equal(t, tt.wantKeys, c.Event.String())
			assert.Equal(t, len(tt.wantKeys), c.Event.Count())
			assert.Equal(t, tt.wantBits, c.Event.Bits)
			assert.Equal(t, tt.wantMulti, c.Event.Multi())
			assert.Equal(t, tt.wantRoute, c.Route)
			assert.Equal(t, tt.wantCalled, r.calls)
			assert.Equal(t, []time.Duration{keypad.DefaultSensitivity * keypad.SensitivityStep}, r.clock.Slept())
			assert.Equal(t, 2, r.sim.Latches())
		})
	}
}

func TestSingleModeSkipsSecondSample(t *testing.T) {
	r := newRig(t, false, keypad.Wildcard)
	r.sim.SetKeys(0b0101)

	c := r.d.Trigger()
	require.True(t, c.Dispatched())
	assert.Equal(t, "u", c.Event.String())
	assert.Empty(t, r.clock.Slept())
	assert.Equal(t, 1, r.sim.Latches())
	assert.False(t, r.d.Multi())
}

func TestSetSensitivity(t *testing.T) {
	r := newRig(t, true, keypad.Wildcard)
	assert.Equal(t, uint8(keypad.DefaultSensitivity), r.d.Sensitivity())

	r.d.SetSensitivity(0)
	assert.Equal(t, uint8(1), r.d.Sensitivity())
	assert.Equal(t, keypad.SensitivityStep, r.d.SensitivityWindow())

	r.d.SetSensitivity(10)
	r.sim.SetKeys(0b0001)
	require.True(t, r.d.Trigger().Dispatched())
	assert.Equal(t, []time.Duration{10 * keypad.SensitivityStep}, r.clock.Slept())
}

func TestTriggerFromHandlerIsDropped(t *testing.T) {
	r := newRig(t, false)
	r.sim.SetKeys(0b0001)
	var inner keypad.Cycle
	require.NoError(t, r.d.On("u", func(keypad.KeyEvent) {
		r.clock.Advance(time.Second)
		inner = r.d.Trigger()
	}))

	require.True(t, r.d.Trigger().Dispatched())
	assert.Equal(t, keypad.AbortBusy, inner.Abort)
}

func TestHandlerMayRegister(t *testing.T) {
	r := newRig(t, false)
	r.sim.SetKeys(0b0001)
	require.NoError(t, r.d.On(keypad.Wildcard, func(keypad.KeyEvent) {
		_ = r.d.On("d", func(keypad.KeyEvent) {})
	}))
	require.True(t, r.d.Trigger().Dispatched())
}

func TestRead(t *testing.T) {
	r := newRig(t, true, keypad.Wildcard)
	r.sim.SetKeys(0b01100000)

	ev, err := r.d.Read()
	require.NoError(t, err)
	assert.Equal(t, "LR", ev.String())
	assert.Empty(t, r.calls, "Read does not dispatch")
	assert.Empty(t, r.clock.Slept())
}

func TestOnRegistryFull(t *testing.T) {
	r := newRig(t, false)
	for i := 0; i < keypad.MaxCallbacks; i++ {
		require.NoError(t, r.d.On(string(rune('A'+i)), func(keypad.KeyEvent) {}))
	}
	assert.ErrorIs(t, r.d.On("u", func(keypad.KeyEvent) {}), keypad.ErrRegistryFull)
}

func TestNewRequiresSampler(t *testing.T) {
	_, err := keypad.New(keypad.Options{})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	r := newRig(t, false)
	r.irq.EdgesChan = make(chan gpio.Level, 1)
	r.sim.SetKeys(0b1000)

	got := make(chan keypad.KeyEvent, 1)
	require.NoError(t, r.d.On("r", func(ev keypad.KeyEvent) { got <- ev }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.d.Run(ctx) }()

	r.irq.EdgesChan <- gpio.High
	select {
	case ev := <-got:
		assert.Equal(t, "r", ev.String())
	case <-time.After(2 * time.Second):
		t.Fatal("no event dispatched")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunErrors(t *testing.T) {
	d, err := keypad.New(keypad.Options{Sampler: samplerFunc(func() (uint8, error) { return 0, nil })})
	require.NoError(t, err)
	assert.ErrorIs(t, d.Run(context.Background()), keypad.ErrNoInterrupt)

	// gpiotest refuses edge detection without an edge channel.
	r := newRig(t, false)
	assert.Error(t, r.d.Run(context.Background()))
}
