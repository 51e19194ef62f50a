// Package expr parses and evaluates the indirect-offset and arithmetic
// expressions that appear in a signature line's offset and operand
// fields, e.g. "(4.l+12)" or "(6*32)".
//
// An Expr is parsed once at rule-load time into a small AST (see node.go)
// so that scanning never re-parses the source text; only the indirect
// read (if any) happens per evaluation.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a deferred expression: at most one indirect read "K.T" combined
// with a surrounding arithmetic expression.
type Expr struct {
	raw string

	hasIndirect    bool
	indirectOffset int64
	readType       byte // one of b B s S l L

	arith node // arithmetic AST; placeholderNode marks where the indirect read value goes
}

// String returns the original source text, useful for error messages.
func (e *Expr) String() string { return e.raw }

// Parse builds an Expr from raw signature-file text such as "(4.l+12)".
// It is called once per offset/operand at load time (§4.D, §9 "Deferred
// expressions").
func Parse(raw string) (*Expr, error) {
	e := &Expr{raw: raw}

	trimmed := strings.TrimSpace(raw)
	inner := trimmed
	if len(trimmed) >= 2 && trimmed[0] == '(' && trimmed[len(trimmed)-1] == ')' {
		inner = trimmed[1 : len(trimmed)-1]
	}

	if dot := strings.IndexByte(inner, '.'); dot >= 0 {
		left := inner[:dot]
		right := inner[dot+1:]

		k, err := strconv.ParseInt(left, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed indirect offset %q: %w", raw, err)
		}
		if len(right) == 0 {
			return nil, fmt.Errorf("malformed indirect offset expression %q", raw)
		}

		e.hasIndirect = true
		e.indirectOffset = k
		e.readType = right[0]

		// Rebuild the residual arithmetic text with the "K.T" fragment
		// replaced by a placeholder token, keeping everything to the
		// right of the type character (e.g. "+12").
		rest := right[1:]
		n, err := parseArith("@" + rest)
		if err != nil {
			return nil, fmt.Errorf("malformed expression %q: %w", raw, err)
		}
		e.arith = n
		return e, nil
	}

	n, err := parseArith(trimmed)
	if err != nil {
		return nil, fmt.Errorf("malformed expression %q: %w", raw, err)
	}
	e.arith = n
	return e, nil
}

// Reader abstracts the buffer read needed to resolve an indirect offset.
// Out-of-range reads yield 0 (§4.D, §7 ExpressionReadShort).
type Reader func(pos int64, readType byte) int64

// Eval resolves the expression to a signed integer relative to base O.
// Arithmetic wraps at 32-bit signed width per §4.D.
func (e *Expr) Eval(base int64, read Reader) int64 {
	var placeholder int32
	if e.hasIndirect {
		placeholder = int32(read(base+e.indirectOffset, e.readType))
	}
	return int64(e.arith.eval(placeholder))
}
