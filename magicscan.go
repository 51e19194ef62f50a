// Package magicscan provides a pure Go implementation of a libmagic-style
// signature scanner: it parses human-readable magic signature files and
// scans byte buffers for matches.
package magicscan

import (
	"fmt"
	"os"

	"github.com/shirou/magicscan/internal/rule"
	"github.com/shirou/magicscan/internal/scan"
)

// Scanner holds a parsed signature set and the options used to evaluate it.
type Scanner struct {
	parser  *rule.Parser
	options Options
}

// Options configures scanner behavior.
type Options struct {
	MagicFiles  []string // signature files to load on construction
	Include     []string // only keep rules whose title matches one of these patterns
	Exclude     []string // drop rules whose title matches any of these patterns
	ShowInvalid bool     // surface matches whose description is empty or non-printable
	Parallel    bool     // evaluate rules concurrently
	MaxOffset   int64    // 0 means no cap
	Debug       bool
}

// New creates a Scanner with no signatures loaded; call Load or Parse
// before scanning.
func New() (*Scanner, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Scanner with custom options, loading every
// path in opts.MagicFiles.
func NewWithOptions(opts Options) (*Scanner, error) {
	parser, err := rule.NewParser(opts.Include, opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("building parser: %w", err)
	}

	s := &Scanner{parser: parser, options: opts}

	for _, path := range opts.MagicFiles {
		if err := parser.LoadFile(path); err != nil {
			if opts.Debug {
				fmt.Fprintf(os.Stderr, "warning: failed to parse %s: %v\n", path, err)
			}
			return nil, err
		}
	}

	return s, nil
}

// Load parses an additional signature file into the scanner's rule set.
func (s *Scanner) Load(path string) error {
	return s.parser.LoadFile(path)
}

// Parse parses additional signature text, one rule line per slice entry,
// into the scanner's rule set.
func (s *Scanner) Parse(lines []string) error {
	return s.parser.Parse(lines)
}

// Scan evaluates every loaded rule against buf and returns the matches,
// sorted by ascending offset.
func (s *Scanner) Scan(buf []byte) []scan.Result {
	return scan.Scan(s.parser.Rules, buf, scan.Options{
		ShowInvalid: s.options.ShowInvalid,
		Parallel:    s.options.Parallel,
		MaxOffset:   s.options.MaxOffset,
	})
}

// Rules returns the scanner's loaded rule titles, confidence-sorted.
func (s *Scanner) Rules() []string {
	titles := make([]string, len(s.parser.Rules))
	for i, r := range s.parser.Rules {
		titles[i] = r.Title
	}
	return titles
}
