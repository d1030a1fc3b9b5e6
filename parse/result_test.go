package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultInspection(t *testing.T) {
	ok := Match(42)
	assert.True(t, ok.OK())
	assert.Equal(t, 42, ok.Value())

	v, matched := ok.Get()
	assert.True(t, matched)
	assert.Equal(t, 42, v)

	failed := Fail[int]()
	assert.False(t, failed.OK())
	assert.Equal(t, 0, failed.Value(), "a failed result holds the zero value")
}

func TestAny(t *testing.T) {
	ps := NewStringState("xy")

	r := Any(ps)
	require.True(t, r.OK())
	assert.Equal(t, byte('x'), r.Value())
	assert.Equal(t, 1, ps.Pos)

	Any(ps)
	r = Any(ps)
	assert.False(t, r.OK(), "any fails at end of input")
	assert.Equal(t, 2, ps.Pos, "failure does not advance")
}

func TestMatches(t *testing.T) {
	ps := NewStringState("ab")

	assert.False(t, Matches(ps, 'b').OK())
	assert.Equal(t, 0, ps.Pos, "failure leaves the position alone")

	r := Matches(ps, 'a')
	require.True(t, r.OK())
	assert.Equal(t, byte('a'), r.Value())
	assert.Equal(t, 1, ps.Pos)
}

func TestInRange(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		lo, hi   byte
		expected bool
	}{
		{name: "inside", input: "m", lo: 'a', hi: 'z', expected: true},
		{name: "at low bound", input: "a", lo: 'a', hi: 'z', expected: true},
		{name: "at high bound", input: "z", lo: 'a', hi: 'z', expected: true},
		{name: "below", input: "A", lo: 'a', hi: 'z', expected: false},
		{name: "above", input: "{", lo: 'a', hi: 'z', expected: false},
		// the EOF sentinel is a plain NUL byte; a range that
		// includes it matches at end of input
		{name: "NUL range at end of input", input: "", lo: 0, hi: 255, expected: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ps := NewStringState(test.input)
			r := InRange(ps, test.lo, test.hi)
			assert.Equal(t, test.expected, r.OK())
			if test.expected {
				assert.Equal(t, 1, ps.Pos)
			} else {
				assert.Equal(t, 0, ps.Pos)
			}
		})
	}
}

func TestBind(t *testing.T) {
	digit := func(ps *State) Result[byte] {
		return InRange(ps, '0', '9')
	}

	ps := NewStringState("7")
	var v byte
	require.True(t, Bind(digit, ps, &v))
	assert.Equal(t, byte('7'), v)
	assert.Equal(t, 1, ps.Pos)

	ps = NewStringState("x")
	v = 0
	assert.False(t, Bind(digit, ps, &v))
	assert.Equal(t, byte(0), v, "a failed bind leaves the target alone")
	assert.Equal(t, 0, ps.Pos)
}
