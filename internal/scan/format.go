package scan

import (
	"fmt"
	"regexp"
	"strings"
)

// lengthModifier strips the C "l" length modifier (already normalized
// from "ll" to "l" at parse time) since Go's fmt verbs carry no such
// modifier, e.g. "%ld" -> "%d".
var lengthModifier = regexp.MustCompile(`%([-+0 #]*[0-9]*(?:\.[0-9]+)?)l([dxXo])`)

// directiveVerb finds the first real conversion character in a format
// string, ignoring a literal "%%".
var directiveVerb = regexp.MustCompile(`%[-+0 #]*[0-9]*(?:\.[0-9]+)?([dxXocs])`)

// renderFormat renders a printf-subset template against a single datum,
// per §4.E step 6 and the §9 design note restricting accepted directives
// to "%d %x %o %c %s %ld %lx %lo" (plus a literal "%%"). An unrecognized
// directive is a recovered FormatRenderError: the template is used
// verbatim (§7).
func renderFormat(tmpl string, datum int64, str string, isString bool) string {
	if !strings.Contains(tmpl, "%") {
		return tmpl
	}

	clean := lengthModifier.ReplaceAllString(tmpl, "%$1$2")

	m := directiveVerb.FindStringSubmatchIndex(clean)
	if m == nil {
		return strings.ReplaceAll(tmpl, "%%", "%")
	}

	verb := clean[m[2]:m[3]]
	if verb == "s" {
		if !isString {
			// A string verb against a numeric line: recovered
			// FormatRenderError, use the template verbatim.
			return tmpl
		}
		return fmt.Sprintf(clean, str)
	}

	if isString {
		// A numeric/char verb against a string line: same recovery.
		return tmpl
	}
	if verb == "c" {
		return fmt.Sprintf(clean, rune(datum))
	}
	return fmt.Sprintf(clean, datum)
}
