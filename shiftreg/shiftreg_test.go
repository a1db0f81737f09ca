package shiftreg_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/sikdev/shiftkeys/internal/log"
	th "github.com/sikdev/shiftkeys/internal/testing"
	"github.com/sikdev/shiftkeys/shiftreg"
)

func TestSample(t *testing.T) {
	tests := []struct {
		name string
		keys uint8
	}{
		{name: "nothing pressed", keys: 0},
		{name: "lowest bit", keys: 0b00000001},
		{name: "highest bit", keys: 0b10000000},
		{name: "mixed", keys: 0b01100101},
		{name: "everything", keys: 0xff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := th.NewShiftSim(tt.keys)
			reg, err := shiftreg.New(shiftreg.Config{
				Latch: sim.Latch(),
				Clock: sim.Clock(),
				Data:  sim.Data(),
				Sleep: func(time.Duration) {},
			})
			require.NoError(t, err)

			got, err := reg.Sample()
			require.NoError(t, err)
			assert.Equal(t, tt.keys, got)
			assert.Equal(t, 1, sim.Latches())
		})
	}
}

func TestSampleFollowsInputs(t *testing.T) {
	sim := th.NewShiftSim(0b0001)
	reg, err := shiftreg.New(shiftreg.Config{Latch: sim.Latch(), Clock: sim.Clock(), Data: sim.Data(), Sleep: func(time.Duration) {}})
	require.NoError(t, err)

	first, err := reg.Sample()
	require.NoError(t, err)
	sim.SetKeys(0b1010)
	second, err := reg.Sample()
	require.NoError(t, err)

	assert.Equal(t, uint8(0b0001), first)
	assert.Equal(t, uint8(0b1010), second)
}

func TestSampleTiming(t *testing.T) {
	sim := th.NewShiftSim(0)
	var slept []time.Duration
	reg, err := shiftreg.New(shiftreg.Config{
		Latch:      sim.Latch(),
		Clock:      sim.Clock(),
		Data:       sim.Data(),
		ClockPulse: time.Microsecond,
		Sleep:      func(d time.Duration) { slept = append(slept, d) },
	})
	require.NoError(t, err)

	_, err = reg.Sample()
	require.NoError(t, err)
	require.Len(t, slept, 1+shiftreg.Bits)
	assert.Equal(t, shiftreg.DefaultLatchPulse, slept[0])
	for _, d := range slept[1:] {
		assert.Equal(t, time.Microsecond, d)
	}
}

func TestSampleRawLog(t *testing.T) {
	sim := th.NewShiftSim(0b00000101)
	var buf bytes.Buffer
	reg, err := shiftreg.New(shiftreg.Config{
		Latch: sim.Latch(),
		Clock: sim.Clock(),
		Data:  sim.Data(),
		Raw:   log.NewRaw(&buf),
		Sleep: func(time.Duration) {},
	})
	require.NoError(t, err)

	_, err = reg.Sample()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(buf.String(), "sample: 00000101 0x05 set=[0,2]\n"), buf.String())
}

func TestSampleLatchError(t *testing.T) {
	sim := th.NewShiftSim(0b1)
	reg, err := shiftreg.New(shiftreg.Config{Latch: sim.Latch(), Clock: sim.Clock(), Data: sim.Data(), Sleep: func(time.Duration) {}})
	require.NoError(t, err)

	sim.FailLatch = true
	_, err = reg.Sample()
	assert.ErrorContains(t, err, "latch high")
}

func TestNew(t *testing.T) {
	_, err := shiftreg.New(shiftreg.Config{})
	assert.Error(t, err)

	latch := &gpiotest.Pin{N: "LATCH", Num: 22, L: gpio.High}
	clock := &gpiotest.Pin{N: "CLOCK", Num: 27}
	data := &gpiotest.Pin{N: "DATA", Num: 17}
	_, err = shiftreg.New(shiftreg.Config{Latch: latch, Clock: clock, Data: data})
	require.NoError(t, err)
	assert.Equal(t, gpio.Low, latch.Read(), "latch idles low")
	assert.Equal(t, gpio.High, clock.Read(), "clock idles high")
	assert.Equal(t, gpio.Float, data.P)
}
