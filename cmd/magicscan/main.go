package main

import (
	"fmt"
	"os"

	"github.com/shirou/magicscan"
	"github.com/shirou/magicscan/internal/config"
	cli "github.com/urfave/cli/v2"
)

var (
	magicFlag = &cli.StringSliceFlag{
		Name:  "magic",
		Usage: "path to a signature file (may be repeated)",
	}
	includeFlag = &cli.StringSliceFlag{
		Name:  "include",
		Usage: "only keep rules whose title matches this regexp (may be repeated)",
	}
	excludeFlag = &cli.StringSliceFlag{
		Name:  "exclude",
		Usage: "drop rules whose title matches this regexp (may be repeated)",
	}
	showInvalidFlag = &cli.BoolFlag{
		Name:  "show-invalid",
		Usage: "include matches with an empty or non-printable description",
	}
	parallelFlag = &cli.BoolFlag{
		Name:  "parallel",
		Usage: "evaluate rules concurrently",
	}
	maxOffsetFlag = &cli.Int64Flag{
		Name:  "max-offset",
		Usage: "discard candidate offsets beyond this position (0 means no cap)",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML configuration file; merged under explicit flags",
	}
)

func main() {
	app := &cli.App{
		Name:      "magicscan",
		Usage:     "scan a byte buffer against libmagic-style signature rules",
		ArgsUsage: "file...",
		Flags: []cli.Flag{
			magicFlag,
			includeFlag,
			excludeFlag,
			showInvalidFlag,
			parallelFlag,
			maxOffsetFlag,
			configFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "magicscan: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	opts, err := buildOptions(c)
	if err != nil {
		return err
	}

	scanner, err := magicscan.NewWithOptions(*opts)
	if err != nil {
		return fmt.Errorf("loading signatures: %w", err)
	}

	if c.NArg() == 0 {
		return cli.Exit("no input files given", 1)
	}

	exitCode := 0
	for _, path := range c.Args().Slice() {
		if err := scanFile(scanner, path); err != nil {
			fmt.Fprintf(os.Stderr, "magicscan: %s: %v\n", path, err)
			exitCode = 1
		}
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

func buildOptions(c *cli.Context) (*magicscan.Options, error) {
	opts := &magicscan.Options{
		MagicFiles:  c.StringSlice("magic"),
		Include:     c.StringSlice("include"),
		Exclude:     c.StringSlice("exclude"),
		ShowInvalid: c.Bool("show-invalid"),
		Parallel:    c.Bool("parallel"),
		MaxOffset:   c.Int64("max-offset"),
	}

	if path := c.String("config"); path != "" {
		fileOpts, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if len(opts.MagicFiles) == 0 {
			opts.MagicFiles = fileOpts.MagicFiles
		}
		if len(opts.Include) == 0 {
			opts.Include = fileOpts.Include
		}
		if len(opts.Exclude) == 0 {
			opts.Exclude = fileOpts.Exclude
		}
		if !opts.ShowInvalid {
			opts.ShowInvalid = fileOpts.ShowInvalid
		}
		if !opts.Parallel {
			opts.Parallel = fileOpts.Parallel
		}
		if opts.MaxOffset == 0 {
			opts.MaxOffset = fileOpts.MaxOffset
		}
	}

	return opts, nil
}

func scanFile(scanner *magicscan.Scanner, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read: %w", err)
	}

	results := scanner.Scan(buf)
	for _, res := range results {
		fmt.Printf("%s: %#x: %s\n", path, res.Offset, res.Description)
	}
	return nil
}
