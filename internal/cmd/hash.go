package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sikdev/shiftkeys/keypad"
)

// Hash prints the handler identifier of each specifier so bindings can be
// checked for collisions before they are deployed.
type Hash struct {
	Specs []string `arg:"" name:"spec" help:"Key specifiers, e.g. u ud LR"`
}

// Run is called by Kong when the hash command is executed.
func (h *Hash) Run() error {
	return h.write(os.Stdout)
}

func (h *Hash) write(w io.Writer) error {
	for _, spec := range append([]string{keypad.Wildcard, keypad.Default}, h.Specs...) {
		if _, err := fmt.Fprintf(w, "%-8s %d\n", spec, keypad.Hash(spec)); err != nil {
			return err
		}
	}
	groups := keypad.Collisions(h.Specs...)
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "no collisions")
		return err
	}
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "collision: %s\n", strings.Join(g, ", ")); err != nil {
			return err
		}
	}
	return fmt.Errorf("%d identifier collision(s)", len(groups))
}
