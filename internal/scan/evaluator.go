package scan

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/magicscan/internal/rule"
)

// backspaceRun matches a character immediately followed by a literal
// backslash-b pair, e.g. the two-character sequence "X\b" in rendered
// description text (§4.E post-processing, §8 "Backspace elision").
var backspaceRun = regexp.MustCompile(`.\\b`)

// evaluate walks rule r's line tree at candidate offset O (§4.E). It
// returns ok=false when the rule does not match at all, either because a
// top-level comparison failed or because an invalid result was produced
// while show_invalid is off.
func evaluate(r *rule.Rule, buf []byte, offset int64, showInvalid bool) (Result, bool) {
	reader := func(pos int64, t byte) int64 { return readIndirect(buf, pos, t) }

	tags := newTagDefaults()
	var fragments []string
	maxLevel := 0

	for _, line := range r.Lines {
		if line.Level > maxLevel {
			continue
		}

		start := offset + line.Offset.Resolve(offset, reader)

		var datum int64
		var strDatum []byte
		isString := line.Type == rule.String

		if isString {
			strDatum = readStringDatum(buf, int(start), line, tags)
		} else {
			datum = readInt(buf, int(start), line.Size, line.Signed, line.BigEndian)
			if line.Operator != rule.OpNone {
				opval := line.Operand.Resolve(offset, reader)
				result, ok := applyOperator(datum, opval, line.Operator)
				if !ok {
					if line.Level == 0 {
						return Result{}, false
					}
					maxLevel = line.Level
					continue
				}
				datum = result
			}
		}

		if !compareLine(line, datum, strDatum, isString) {
			if line.Level == 0 {
				return Result{}, false
			}
			maxLevel = line.Level
			continue
		}

		var dateStr string
		isDate := line.Type == rule.Date
		if isDate {
			dateStr = time.Unix(datum, 0).UTC().Format("2006-01-02 15:04:05")
		}

		fragment := renderLineFormat(line.Format, datum, strDatum, isString, isDate, dateStr)
		if fragment != "" {
			fragments = append(fragments, fragment)
		}

		for _, tag := range line.Tags {
			applyTag(tags, tag, datum, strDatum, isString, isDate, dateStr)
		}

		maxLevel = line.Level + 1

		if !showInvalid {
			if inv, _ := tags["invalid"].(bool); inv {
				break
			}
		}
	}

	description := backspaceRun.ReplaceAllString(strings.Join(fragments, " "), "")

	invalid, _ := tags["invalid"].(bool)
	display := true
	if description == "" {
		display = false
		invalid = true
	}
	if !isPrintable(description) {
		invalid = true
	}
	tags["invalid"] = invalid

	if invalid && !showInvalid {
		return Result{}, false
	}

	return Result{
		ID:          r.ID,
		Offset:      offset,
		Description: description,
		Tags:        tags,
		Valid:       !invalid,
		Display:     display,
	}, true
}

func renderLineFormat(tmpl string, datum int64, strDatum []byte, isString, isDate bool, dateStr string) string {
	switch {
	case isString:
		return renderFormat(tmpl, 0, string(strDatum), true)
	case isDate:
		return renderFormat(tmpl, 0, dateStr, true)
	default:
		return renderFormat(tmpl, datum, "", false)
	}
}

func applyOperator(datum, opval int64, op rule.Operator) (int64, bool) {
	switch op {
	case rule.OpAnd:
		return datum & opval, true
	case rule.OpOr:
		return datum | opval, true
	case rule.OpMul:
		return datum * opval, true
	case rule.OpAdd:
		return datum + opval, true
	case rule.OpSub:
		return datum - opval, true
	case rule.OpDiv:
		if opval == 0 {
			return 0, false
		}
		return datum / opval, true
	default:
		return datum, true
	}
}

func compareLine(line *rule.Line, datum int64, strDatum []byte, isString bool) bool {
	if line.Wildcard {
		return true
	}
	switch line.Condition {
	case rule.Ne:
		if isString {
			return !bytes.Equal(strDatum, line.ExpectedStr)
		}
		return datum != line.ExpectedInt
	case rule.Gt:
		if isString {
			return bytes.Compare(strDatum, line.ExpectedStr) > 0
		}
		return datum > line.ExpectedInt
	case rule.Lt:
		if isString {
			return bytes.Compare(strDatum, line.ExpectedStr) < 0
		}
		return datum < line.ExpectedInt
	case rule.And:
		if isString {
			return false
		}
		return datum&line.ExpectedInt != 0
	case rule.OrBit:
		// Preserved verbatim per §9: true whenever either operand has
		// any bit set, which is trivially true in most cases.
		if isString {
			return false
		}
		return datum|line.ExpectedInt != 0
	default: // rule.Eq
		if isString {
			return bytes.Equal(strDatum, line.ExpectedStr)
		}
		return datum == line.ExpectedInt
	}
}

func readStringDatum(buf []byte, start int, line *rule.Line, tagsSoFar map[string]interface{}) []byte {
	if !line.Wildcard {
		return sliceClamped(buf, start, start+line.Size)
	}

	for _, t := range line.Tags {
		if t.Name != "string" {
			continue
		}
		if n, ok := asInt(tagsSoFar["strlen"]); ok && n > 0 {
			return sliceClamped(buf, start, start+int(n))
		}
		break
	}

	window := sliceClamped(buf, start, start+line.Size)

	// The original terminates a wildcard string at NUL or CR, splitting
	// on '\r' twice and never on '\n' (§9 open question). Preserved
	// verbatim, including the redundant second split.
	if i := bytes.IndexByte(window, 0x00); i >= 0 {
		window = window[:i]
	}
	if i := bytes.IndexByte(window, 0x0D); i >= 0 {
		window = window[:i]
	}
	if i := bytes.IndexByte(window, 0x0D); i >= 0 {
		window = window[:i]
	}
	return window
}

func sliceClamped(buf []byte, start, end int) []byte {
	if start < 0 || start >= len(buf) {
		return nil
	}
	if end > len(buf) {
		end = len(buf)
	}
	if end < start {
		return nil
	}
	return buf[start:end]
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func applyTag(tags map[string]interface{}, tag rule.Tag, datum int64, strDatum []byte, isString, isDate bool, dateStr string) {
	raw, isTemplate := tag.Value.(string)
	if isTemplate && strings.Contains(raw, "%") {
		rendered := renderLineFormat(raw, datum, strDatum, isString, isDate, dateStr)
		if v, err := strconv.ParseInt(rendered, 0, 64); err == nil {
			tags[tag.Name] = v
		} else {
			tags[tag.Name] = rendered
		}
		return
	}

	if isTemplate {
		if v, err := strconv.ParseInt(raw, 0, 64); err == nil {
			tags[tag.Name] = v
		} else {
			tags[tag.Name] = raw
		}
		return
	}

	tags[tag.Name] = tag.Value
}

// isPrintable reports whether every byte of s is in the printable ASCII
// range 0x20-0x7E (§4.E "printable guard", §8 property 8).
func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}
