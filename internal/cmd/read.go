package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sikdev/shiftkeys/internal/log"
	"github.com/sikdev/shiftkeys/keypad"
)

// Read samples the keypad once, for polling and wiring checks.
type Read struct {
	Keypad `embed:""`
	JSON   bool `help:"Print JSON even on a terminal" env:"SHIFTKEYS_READ_JSON"`
}

// eventJSON is the JSON form printed by read.
type eventJSON struct {
	Keys  string   `json:"keys"`
	Names []string `json:"names"`
	Bits  uint8    `json:"bits"`
	Count int      `json:"count"`
	Multi bool     `json:"multi"`
	None  bool     `json:"none"`
}

// Run is called by Kong when the read command is executed.
func (r *Read) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	d, err := r.open(logger, rawLogger)
	if err != nil {
		return err
	}
	ev, err := d.Read()
	if err != nil {
		return err
	}
	asJSON := r.JSON || !term.IsTerminal(int(os.Stdout.Fd()))
	return printEvent(os.Stdout, ev, asJSON)
}

func printEvent(w io.Writer, ev keypad.KeyEvent, asJSON bool) error {
	names := make([]string, 0, ev.Count())
	for _, k := range ev.Keys() {
		names = append(names, k.Name())
	}
	if asJSON {
		return json.NewEncoder(w).Encode(eventJSON{
			Keys:  ev.String(),
			Names: names,
			Bits:  ev.Bits,
			Count: ev.Count(),
			Multi: ev.Multi(),
			None:  ev.None(),
		})
	}
	if ev.None() {
		_, err := fmt.Fprintf(w, "no key (bits %08b)\n", ev.Bits)
		return err
	}
	_, err := fmt.Fprintf(w, "%s  %s  (bits %08b, %d key(s))\n", ev.String(), strings.Join(names, "+"), ev.Bits, ev.Count())
	return err
}
