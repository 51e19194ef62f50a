package rule

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Parser loads signature text and assembles it into a filtered, confidence
// ordered rule set (§4.B, §4.G). New rules are appended across repeated
// Load/Parse calls and the full set is re-sorted each time, matching the
// original's behaviour of re-sorting all signatures on every parse call.
type Parser struct {
	Rules []*Rule

	includes []*regexp.Regexp
	excludes []*regexp.Regexp
}

// NewParser compiles the include/exclude filter lists (§4.G).
func NewParser(includes, excludes []string) (*Parser, error) {
	p := &Parser{}
	for _, pat := range includes {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pat, err)
		}
		p.includes = append(p.includes, re)
	}
	for _, pat := range excludes {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pat, err)
		}
		p.excludes = append(p.excludes, re)
	}
	return p, nil
}

// LoadFile parses a signature file from disk, appending to Rules.
func (p *Parser) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open signature file %s: %w", path, err)
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return fmt.Errorf("failed to read signature file %s: %w", path, err)
	}
	return p.parse(lines, path)
}

// Parse parses an in-memory sequence of signature-file lines.
func (p *Parser) Parse(lines []string) error {
	return p.parse(lines, "")
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func (p *Parser) parse(rawLines []string, file string) error {
	var current *Rule
	var currentLines []*Line

	finalize := func() {
		if current == nil {
			return
		}
		current.Lines = currentLines
		if !p.filtered(current.Title) {
			p.Rules = append(p.Rules, current)
		}
		current = nil
		currentLines = nil
	}

	for lineNo, raw := range rawLines {
		text := stripComment(raw)
		if strings.TrimSpace(text) == "" {
			continue
		}

		line, err := parseLine(text)
		if err != nil {
			return &ParseError{File: file, Line: lineNo + 1, Text: raw, Err: err}
		}

		if line.Level == 0 {
			finalize()

			pattern, err := prescreenPattern(line)
			if err != nil {
				return &ParseError{File: file, Line: lineNo + 1, Text: raw, Err: err}
			}

			current = &Rule{
				ID:               len(p.Rules),
				Title:            line.Format,
				Offset:           line.Offset,
				Confidence:       line.Size,
				PrescreenPattern: pattern,
			}
			currentLines = []*Line{line}
		} else if current != nil {
			currentLines = append(currentLines, line)
		} else {
			return &ParseError{
				File: file, Line: lineNo + 1, Text: raw,
				Err: fmt.Errorf("indented line with no preceding top-level rule"),
			}
		}
	}
	finalize()

	sort.SliceStable(p.Rules, func(i, j int) bool {
		return p.Rules[i].Confidence > p.Rules[j].Confidence
	})

	return nil
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// filtered applies the include/exclude rules of §4.G against a
// lowercased rule title.
func (p *Parser) filtered(title string) bool {
	text := strings.ToLower(title)

	matchedInclude := false
	for _, re := range p.includes {
		if matchesAtStart(re, text) {
			matchedInclude = true
			break
		}
	}
	if len(p.includes) > 0 && !matchedInclude {
		return true
	}

	for _, re := range p.excludes {
		if matchesAtStart(re, text) {
			return true
		}
	}
	return false
}

// matchesAtStart reproduces Python's re.match semantics (binwalk's
// _filtered uses include.match/exclude.match): the pattern must match
// beginning at index 0, but need not consume the whole string unless it
// ends in "$". Go's regexp.MatchString searches anywhere in the string,
// which is too permissive for unanchored patterns like "png".
func matchesAtStart(re *regexp.Regexp, text string) bool {
	loc := re.FindStringIndex(text)
	return loc != nil && loc[0] == 0
}

// prescreenPattern derives the literal byte pattern used for candidate
// discovery (§3 "Prescreen pattern", §4.C). A wildcard first line is a
// parse-time error.
func prescreenPattern(line *Line) ([]byte, error) {
	if line.Wildcard {
		return nil, fmt.Errorf("a rule's first line cannot be a wildcard")
	}

	if line.Type == String {
		return append([]byte(nil), line.ExpectedStr...), nil
	}

	v := uint64(line.ExpectedInt)
	buf := make([]byte, line.Size)
	if line.BigEndian {
		for i := 0; i < line.Size; i++ {
			buf[line.Size-1-i] = byte(v >> (8 * i))
		}
	} else {
		for i := 0; i < line.Size; i++ {
			buf[i] = byte(v >> (8 * i))
		}
	}
	return buf, nil
}
