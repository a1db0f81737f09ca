package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger records raw shift register samples.
type RawLogger interface {
	Log(bits uint8)
}

type rawLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
}

// NewRaw creates a RawLogger writing to w. A nil w discards samples.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w, now: time.Now}
}

// Log writes one line per sample: timestamp, binary (bit 7 first), hex and
// the indices of the set bits.
func (r *rawLogger) Log(bits uint8) {
	if r.w == nil {
		return
	}
	set := make([]byte, 0, 2*8)
	for i := 0; i < 8; i++ {
		if bits&(1<<i) != 0 {
			if len(set) > 0 {
				set = append(set, ',')
			}
			set = append(set, byte('0'+i))
		}
	}
	line := fmt.Sprintf("%s sample: %08b 0x%02x set=[%s]\n",
		r.now().Format("2006/01/02 15:04:05.000"),
		bits,
		bits,
		set)

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}
