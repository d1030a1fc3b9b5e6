package egg

import (
	"fmt"

	"github.com/egg-lang/egg/parse"
)

// Evaluator interprets a grammar tree directly over a parser state,
// without generating code.  Semantic actions are opaque
// target-language text and are skipped; what the evaluator reports —
// match outcome, final position and captured substrings — is exactly
// the observable surface the generated parsers share, which makes it
// the oracle the property tests compare generated semantics against.
type Evaluator struct {
	g  *Grammar
	ps *parse.State

	// Captures collects captured substrings in completion order
	Captures []string
}

// NewEvaluator creates an evaluator for g reading from ps.
func NewEvaluator(g *Grammar, ps *parse.State) *Evaluator {
	return &Evaluator{g: g, ps: ps}
}

// Eval matches the named rule at the current position.  It reports
// whether the rule matched; on failure the position is restored to
// where it was.
func (ev *Evaluator) Eval(ruleName string) (bool, error) {
	r, ok := ev.g.Lookup(ruleName)
	if !ok {
		return false, fmt.Errorf("reference to undefined rule %q", ruleName)
	}
	ps := ev.ps
	psStart := ps.Pos
	ok, err := ev.eval(r.Body)
	if err != nil {
		return false, err
	}
	if !ok {
		ps.Pos = psStart
		return false, nil
	}
	return true, nil
}

func (ev *Evaluator) eval(m Matcher) (bool, error) {
	ps := ev.ps
	switch n := m.(type) {
	case *CharMatcher:
		return parse.Matches(ps, n.C).OK(), nil

	case *StrMatcher:
		save := ps.Pos
		for i := 0; i < len(n.S); i++ {
			if !parse.Matches(ps, n.S[i]).OK() {
				ps.Pos = save
				return false, nil
			}
		}
		return true, nil

	case *RangeMatcher:
		for _, r := range n.Ranges {
			if parse.InRange(ps, r.Lo, r.Hi).OK() {
				return true, nil
			}
		}
		return false, nil

	case *RuleMatcher:
		return ev.Eval(n.Name)

	case *AnyMatcher:
		return parse.Any(ps).OK(), nil

	case *EmptyMatcher:
		return true, nil

	case *ActionMatcher:
		// actions are not executable here
		return true, nil

	case *OptMatcher:
		if _, err := ev.eval(n.M); err != nil {
			return false, err
		}
		return true, nil

	case *ManyMatcher:
		return true, ev.evalLoop(n.M)

	case *SomeMatcher:
		ok, err := ev.eval(n.M)
		if err != nil || !ok {
			return ok, err
		}
		return true, ev.evalLoop(n.M)

	case *SeqMatcher:
		save := ps.Pos
		for _, item := range n.Items {
			ok, err := ev.eval(item)
			if err != nil {
				return false, err
			}
			if !ok {
				ps.Pos = save
				return false, nil
			}
		}
		return true, nil

	case *AltMatcher:
		for _, item := range n.Items {
			ok, err := ev.eval(item)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case *LookMatcher:
		save := ps.Pos
		ok, err := ev.eval(n.M)
		ps.Pos = save
		return ok, err

	case *NotMatcher:
		save := ps.Pos
		ok, err := ev.eval(n.M)
		ps.Pos = save
		if err != nil {
			return false, err
		}
		return !ok, nil

	case *CaptMatcher:
		catch := ps.Pos
		ok, err := ev.eval(n.M)
		if err != nil || !ok {
			return ok, err
		}
		text, err := ps.String(catch, ps.Pos-catch)
		if err != nil {
			return false, err
		}
		ev.Captures = append(ev.Captures, text)
		return true, nil

	default:
		return false, fmt.Errorf("unknown matcher: %s", m)
	}
}

// evalLoop runs the greedy repetition tail, ending on failure or on
// an iteration that consumed nothing.
func (ev *Evaluator) evalLoop(m Matcher) error {
	ps := ev.ps
	for {
		save := ps.Pos
		ok, err := ev.eval(m)
		if err != nil {
			return err
		}
		if !ok || ps.Pos == save {
			return nil
		}
	}
}
