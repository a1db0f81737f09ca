package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/sikdev/shiftkeys/internal/log"
	"github.com/sikdev/shiftkeys/internal/util"
	"github.com/sikdev/shiftkeys/keypad"
)

// Run watches the keypad and dispatches events until interrupted.
type Run struct {
	Keypad     `embed:""`
	Bind       map[string]string `help:"Shell command to run for a key specifier, as SPEC=COMMAND (repeatable)" mapsep:";" env:"SHIFTKEYS_BIND"`
	Default    string            `help:"Shell command to run for key events without a binding" env:"SHIFTKEYS_DEFAULT"`
	Shell      string            `help:"Shell used to run bound commands" default:"/bin/sh" env:"SHIFTKEYS_SHELL"`
	LockMemory bool              `help:"Lock process memory into RAM (needs CAP_IPC_LOCK)" env:"SHIFTKEYS_LOCK_MEMORY"`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.LockMemory {
		if err := util.LockMemory(); err != nil {
			return err
		}
		defer func() { _ = util.UnlockMemory() }()
	}

	d, err := r.open(logger, rawLogger)
	if err != nil {
		return err
	}
	if err := r.bindHandlers(ctx, d, logger, r.shellRunner(logger)); err != nil {
		return err
	}

	logger.Info("Watching keypad", "interrupt", r.Pins.Interrupt, "bindings", len(r.Bind))
	return d.Run(ctx)
}

// commandRunner starts command for an event without waiting for it.
type commandRunner func(ctx context.Context, command string, ev keypad.KeyEvent)

// bindHandlers registers the wildcard logger, one handler per binding in
// specifier order, and the default handler.
func (r *Run) bindHandlers(ctx context.Context, d *keypad.Driver, logger *slog.Logger, run commandRunner) error {
	// wildcard + default
	if n := len(r.Bind) + 2; n > keypad.MaxCallbacks {
		return fmt.Errorf("too many bindings: %d handlers needed, at most %d fit", n, keypad.MaxCallbacks)
	}

	specs := make([]string, 0, len(r.Bind))
	for spec := range r.Bind {
		specs = append(specs, spec)
	}
	slices.Sort(specs)
	for _, group := range keypad.Collisions(specs...) {
		logger.Warn("key specifiers share a handler identifier; only the first registered is reachable", "specs", group)
	}

	if err := d.On(keypad.Wildcard, func(ev keypad.KeyEvent) {
		logger.Info("key event", "event", ev)
	}); err != nil {
		return err
	}
	for _, spec := range specs {
		command := r.Bind[spec]
		if err := d.On(spec, func(ev keypad.KeyEvent) { run(ctx, command, ev) }); err != nil {
			return fmt.Errorf("failed to bind %q: %w", spec, err)
		}
	}
	return d.On(keypad.Default, func(ev keypad.KeyEvent) {
		if r.Default == "" {
			logger.Debug("no binding for key event", "keys", ev.String())
			return
		}
		run(ctx, r.Default, ev)
	})
}

func (r *Run) shellRunner(logger *slog.Logger) commandRunner {
	return func(ctx context.Context, command string, ev keypad.KeyEvent) {
		c := exec.CommandContext(ctx, r.Shell, "-c", command)
		c.Env = append(os.Environ(),
			"SHIFTKEYS_KEYS="+ev.String(),
			"SHIFTKEYS_BITS="+fmt.Sprintf("%08b", ev.Bits),
			"SHIFTKEYS_COUNT="+strconv.Itoa(ev.Count()),
		)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Start(); err != nil {
			logger.Error("failed to start bound command", "keys", ev.String(), "command", command, "error", err)
			return
		}
		go func() {
			if err := c.Wait(); err != nil {
				logger.Warn("bound command failed", "keys", ev.String(), "command", command, "error", err)
			}
		}()
	}
}
