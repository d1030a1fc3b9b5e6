package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateAt(t *testing.T) {
	ps := NewStringState("abc")

	for i, want := range []byte{'a', 'b', 'c'} {
		c, err := ps.At(i)
		require.NoError(t, err)
		assert.Equal(t, want, c)
	}

	// past the end of the stream
	c, err := ps.At(3)
	require.NoError(t, err)
	assert.Equal(t, EOF, c)

	c, err = ps.At(1000)
	require.NoError(t, err)
	assert.Equal(t, EOF, c)
}

func TestStateAtIsDeterministic(t *testing.T) {
	ps := NewStringState("hello world")

	first, err := ps.At(6)
	require.NoError(t, err)

	// later reads and discards below the index must not change
	// what the index holds
	_, err = ps.At(10)
	require.NoError(t, err)
	ps.ForgetTo(3)

	again, err := ps.At(6)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestStateMaxRead(t *testing.T) {
	ps := NewStringState("abcdef")
	assert.Equal(t, 0, ps.MaxRead())

	_, err := ps.At(2)
	require.NoError(t, err)
	assert.Equal(t, 3, ps.MaxRead(), "reads exactly as much as examined")

	_, err = ps.At(1)
	require.NoError(t, err)
	assert.Equal(t, 3, ps.MaxRead(), "re-reading does not extend")
}

func TestStateRange(t *testing.T) {
	tests := []struct {
		name     string
		i, n     int
		expected string
	}{
		{name: "inside the input", i: 1, n: 3, expected: "bcd"},
		{name: "clamped at the end", i: 3, n: 10, expected: "de"},
		{name: "entirely past the end", i: 9, n: 3, expected: ""},
		{name: "empty", i: 2, n: 0, expected: ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ps := NewStringState("abcde")
			r, err := ps.Range(test.i, test.n)
			require.NoError(t, err)
			assert.Equal(t, test.expected, string(r))
		})
	}
}

func TestStateString(t *testing.T) {
	ps := NewStringState("grammar text")
	s, err := ps.String(8, 4)
	require.NoError(t, err)
	assert.Equal(t, "text", s)
}

func TestStateForgetTo(t *testing.T) {
	ps := NewStringState("one\ntwo\nthree\n")

	// pull the whole input into the window first
	_, err := ps.At(13)
	require.NoError(t, err)

	ps.ForgetTo(8) // drop "one\ntwo\n"
	assert.Equal(t, 2, ps.NewlinesDiscarded())

	// indices at or above the floor still work
	c, err := ps.At(8)
	require.NoError(t, err)
	assert.Equal(t, byte('t'), c)

	// indices below it are gone
	_, err = ps.At(3)
	var fr *ForgottenRangeError
	require.ErrorAs(t, err, &fr)
	assert.Equal(t, 3, fr.Requested)
	assert.Equal(t, 8, fr.Available)
	assert.Equal(t, 2, fr.NewlinesDiscarded)
}

func TestStateForgetToIsIdempotent(t *testing.T) {
	ps := NewStringState("a\nb\nc\n")
	_, err := ps.At(5)
	require.NoError(t, err)

	ps.ForgetTo(4)
	assert.Equal(t, 2, ps.NewlinesDiscarded())

	// at or below the floor is a no-op
	ps.ForgetTo(4)
	ps.ForgetTo(2)
	ps.ForgetTo(0)
	assert.Equal(t, 2, ps.NewlinesDiscarded())
}

func TestStateNewlineAccounting(t *testing.T) {
	// across any sequence of discards, the discarded count plus
	// the newlines still in the window must equal the newlines in
	// the stream prefix read so far
	input := "a\nbb\n\nccc\nd\n\ne\n"
	ps := NewStringState(input)
	_, err := ps.At(len(input) - 1)
	require.NoError(t, err)

	total := strings.Count(input, "\n")
	for _, k := range []int{2, 5, 6, 11, 14} {
		ps.ForgetTo(k)
		window, err := ps.String(k, len(input)-k)
		require.NoError(t, err)
		assert.Equal(t, total, ps.NewlinesDiscarded()+strings.Count(window, "\n"),
			"after ForgetTo(%d)", k)
	}
}

func TestStateForgetToThenReadForward(t *testing.T) {
	// discarding must not disturb bytes that were never read yet
	ps := NewStringState("0123456789")
	_, err := ps.At(4)
	require.NoError(t, err)

	ps.ForgetTo(3)
	c, err := ps.At(7)
	require.NoError(t, err)
	assert.Equal(t, byte('7'), c)
}
