// Package config holds the root command-line structure.
package config

import (
	"github.com/sikdev/shiftkeys/internal/cmd"
	"github.com/sikdev/shiftkeys/internal/log"
)

// CLI is the root of the kong command tree. Every field can also come from a
// JSON, YAML or TOML config file.
type CLI struct {
	Config string      `help:"Path to a config file" type:"path" env:"SHIFTKEYS_CONFIG"`
	Log    log.Options `embed:"" prefix:"log."`

	Run       cmd.Run           `cmd:"" help:"Watch the keypad and dispatch key events"`
	Read      cmd.Read          `cmd:"" help:"Sample the keypad once and print the event"`
	Hash      cmd.Hash          `cmd:"" help:"Print handler identifiers for key specifiers and report collisions"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
}
