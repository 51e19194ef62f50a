package scan

// Result is a single match produced by the rule evaluator (§3 "Match
// result", GLOSSARY). Tags carries the well-known keys plus any custom
// tag names a rule defined.
type Result struct {
	ID          int
	Offset      int64
	Description string
	Tags        map[string]interface{}
	Valid       bool
	Display     bool
}

// newTagDefaults seeds the well-known tag keys with the defaults the
// original binwalk SignatureResult carries before any line tag overrides
// them (SPEC_FULL.md §4 "Supplemented features").
func newTagDefaults() map[string]interface{} {
	return map[string]interface{}{
		"jump":    int64(0),
		"many":    false,
		"size":    int64(0),
		"name":    nil,
		"strlen":  int64(0),
		"string":  false,
		"invalid": false,
		"extract": true,
	}
}
