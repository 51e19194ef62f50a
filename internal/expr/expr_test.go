package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleArith(t *testing.T) {
	e, err := Parse("(6*32)")
	require.NoError(t, err)
	assert.Equal(t, int64(192), e.Eval(0, func(int64, byte) int64 { return 0 }))
}

func TestParseIndirectIdempotence(t *testing.T) {
	// §8 property 6: (K.T+0) equals reading a T-typed field at O+K.
	e, err := Parse("(4.l+0)")
	require.NoError(t, err)

	reads := map[int64]int64{4: 0xAB}
	got := e.Eval(0, func(pos int64, readType byte) int64 {
		assert.Equal(t, byte('l'), readType)
		return reads[pos]
	})
	assert.Equal(t, int64(0xAB), got)
}

func TestParseIndirectWithOffset(t *testing.T) {
	e, err := Parse("(4.l+12)")
	require.NoError(t, err)

	got := e.Eval(100, func(pos int64, readType byte) int64 {
		assert.Equal(t, int64(104), pos)
		return 256
	})
	assert.Equal(t, int64(268), got)
}

func TestParseNegative(t *testing.T) {
	e, err := Parse("(0x10-32)")
	require.NoError(t, err)
	assert.Equal(t, int64(-16), e.Eval(0, nil))
}

func TestOverflowWraps(t *testing.T) {
	e, err := Parse("(2147483647+1)")
	require.NoError(t, err)
	assert.Equal(t, int64(-2147483648), e.Eval(0, nil))
}

func TestDivisionByZeroYieldsZero(t *testing.T) {
	e, err := Parse("(10/0)")
	require.NoError(t, err)
	assert.Equal(t, int64(0), e.Eval(0, nil))
}

func TestMalformedIndirectExpression(t *testing.T) {
	_, err := Parse("(4.)")
	assert.Error(t, err)
}
