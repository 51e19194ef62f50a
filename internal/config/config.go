// Package config loads scanner options from a TOML configuration file,
// the ambient counterpart to the command-line flags in cmd/magicscan.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Options mirrors the scanner knobs exposed on the CLI (SPEC_FULL.md §2.3).
// A command-line flag with a non-empty, true or non-zero value overrides the
// matching field; an empty, false or zero flag value leaves the file's value.
type Options struct {
	MagicFiles  []string `toml:"magic_files"`
	Include     []string `toml:"include"`
	Exclude     []string `toml:"exclude"`
	ShowInvalid bool     `toml:"show_invalid"`
	MaxOffset   int64    `toml:"max_offset"`
	Parallel    bool     `toml:"parallel"`
}

// Load decodes a TOML configuration file at path into an Options value.
func Load(path string) (*Options, error) {
	var opts Options
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return &opts, nil
}
