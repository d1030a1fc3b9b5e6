package egg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egg-lang/egg/parse"
)

func evalGrammar(t *testing.T, grammar, start, input string) (bool, *parse.State, *Evaluator) {
	t.Helper()
	g := parseGrammarString(t, grammar)
	ps := parse.NewStringState(input)
	ev := NewEvaluator(g, ps)
	ok, err := ev.Eval(start)
	require.NoError(t, err)
	return ok, ps, ev
}

func TestEvalStarThenChar(t *testing.T) {
	grammar := "S = 'a'* 'b'"

	ok, ps, _ := evalGrammar(t, grammar, "S", "aaab")
	assert.True(t, ok)
	assert.Equal(t, 4, ps.Pos)

	ok, ps, _ = evalGrammar(t, grammar, "S", "aac")
	assert.False(t, ok)
	assert.Equal(t, 0, ps.Pos, "failure restores the position")
	assert.Equal(t, 3, ps.MaxRead(), "the parser examined through the offending byte")
}

func TestEvalContextSensitiveLanguage(t *testing.T) {
	// the classic PEG for a^n b^n c^n
	grammar := `
anbncn = &(A 'c') 'a'+ B !.
A = 'a' A? 'b'
B = 'b' B? 'c'
`
	tests := []struct {
		input    string
		expected bool
	}{
		{input: "abc", expected: true},
		{input: "aabbcc", expected: true},
		{input: "aaabbbccc", expected: true},
		{input: "aabbbcc", expected: false},
		{input: "aabbc", expected: false},
		{input: "abcabc", expected: false},
		{input: "", expected: false},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			ok, _, _ := evalGrammar(t, grammar, "anbncn", test.input)
			assert.Equal(t, test.expected, ok)
		})
	}
}

func TestEvalCapture(t *testing.T) {
	ok, ps, ev := evalGrammar(t,
		"num : int = < [0-9]+ > { psVal, _ = strconv.Atoi(psCapture) }",
		"num", "42")
	assert.True(t, ok)
	assert.Equal(t, 2, ps.Pos)
	assert.Equal(t, []string{"42"}, ev.Captures)
}

func TestEvalOrderedChoiceCommits(t *testing.T) {
	// both branches would match; only the first one's capture may
	// be observed
	ok, _, ev := evalGrammar(t, "S = < 'a' > | < . >", "S", "a")
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, ev.Captures)
}

func TestEvalLookaheadIsZeroWidth(t *testing.T) {
	ok, ps, _ := evalGrammar(t, "S = &'a'", "S", "abc")
	assert.True(t, ok)
	assert.Equal(t, 0, ps.Pos)

	ok, ps, _ = evalGrammar(t, "S = !'b'", "S", "abc")
	assert.True(t, ok)
	assert.Equal(t, 0, ps.Pos)
}

func TestEvalBacktrackingRestoresPosition(t *testing.T) {
	// the first branch consumes two bytes before failing; the
	// second must start from the beginning
	ok, ps, _ := evalGrammar(t, "S = 'a' 'b' 'x' | 'a' 'b' 'c'", "S", "abc")
	assert.True(t, ok)
	assert.Equal(t, 3, ps.Pos)
}

func TestEvalZeroWidthRepetitionTerminates(t *testing.T) {
	// an un-normalized loop over an empty body must still finish
	ok, ps, _ := evalGrammar(t, "S = ;* 'a'", "S", "a")
	assert.True(t, ok)
	assert.Equal(t, 1, ps.Pos)
}

func TestEvalUndefinedRule(t *testing.T) {
	g := parseGrammarString(t, "S = 'a'")
	ev := NewEvaluator(g, parse.NewStringState("a"))
	_, err := ev.Eval("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undefined rule "missing"`)
}
