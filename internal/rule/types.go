// Package rule parses magic signature text into hierarchical rule trees
// and assembles them into an ordered, filtered rule set (spec components
// A and B: the line parser and the rule assembler).
package rule

import "github.com/shirou/magicscan/internal/expr"

// FieldType is the closed set of field types a signature line can read.
type FieldType int

const (
	Byte FieldType = iota
	Short
	Long
	Quad
	String
	Date
)

// Condition selects how a line's datum is compared against its expected
// value. The parser sets Eq, the "=" default, when a line gives no
// condition character.
type Condition byte

const (
	Eq    Condition = '='
	Ne    Condition = '!'
	Gt    Condition = '>'
	Lt    Condition = '<'
	And   Condition = '&'
	OrBit Condition = '|'
)

// Operator is the optional numeric transform applied to a datum before
// comparison. Zero means no operator.
type Operator byte

const (
	OpNone Operator = 0
	OpAnd  Operator = '&'
	OpOr   Operator = '|'
	OpMul  Operator = '*'
	OpAdd  Operator = '+'
	OpSub  Operator = '-'
	OpDiv  Operator = '/'
)

// Value is the deferred-expression sum type from §9: either an immediate
// integer known at parse time, or an Expr to be resolved against the
// buffer at scan time.
type Value struct {
	Immediate bool
	Int       int64
	Expr      *expr.Expr
}

// ImmediateValue builds a Value that is already known.
func ImmediateValue(v int64) Value { return Value{Immediate: true, Int: v} }

// Resolve returns the integer value of v, evaluating its Expr through read
// relative to base if it is deferred.
func (v Value) Resolve(base int64, read expr.Reader) int64 {
	if v.Immediate {
		return v.Int
	}
	return v.Expr.Eval(base, read)
}

// Tag is a (name, value) pair parsed out of a line's format template,
// e.g. "{size:%d}" or the boolean-valued "{invalid}".
type Tag struct {
	Name  string
	Value interface{} // string (possibly containing a %-directive) or bool(true)
}

// Line is one parsed signature-file line (§3 "Rule line").
type Line struct {
	Level int

	Offset Value

	Type      FieldType
	Signed    bool
	BigEndian bool

	Operator Operator
	Operand  Value

	Condition Condition
	Wildcard  bool // expected value was "x"

	ExpectedInt int64
	ExpectedStr []byte

	Format string // printable template, tags already stripped
	Tags   []Tag

	Size int // byte width of the read; 128 for a wildcard string window

	Raw string // original text, for error reporting
}

// Rule is an ordered set of lines whose first line has Level 0 (§3 "Rule").
type Rule struct {
	ID         int
	Title      string // lowercase-filtered against first line's Format
	Lines      []*Line
	Offset     Value // first line's offset, used to bias prescreen hits
	Confidence int   // first line's byte size

	PrescreenPattern []byte // literal byte encoding of the first line's expected value
}
