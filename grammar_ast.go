package egg

import (
	"fmt"
	"strings"
)

// Matcher is the interface shared by every node of a grammar tree.
// Concrete matchers are plain data; the normalizer and the code
// generators dispatch on the concrete type with exhaustive type
// switches.
type Matcher interface {
	// Text renders the matcher back in Egg grammar syntax
	Text() string

	// String returns a debug representation of the node
	String() string
}

// Matcher type: Char

// CharMatcher matches one byte equal to C.
type CharMatcher struct {
	C byte
}

func NewCharMatcher(c byte) *CharMatcher { return &CharMatcher{C: c} }

func (m CharMatcher) Text() string   { return "'" + escapeChar(m.C, '\'') + "'" }
func (m CharMatcher) String() string { return fmt.Sprintf("Char(%s)", escapeChar(m.C, '\'')) }

// Matcher type: Str

// StrMatcher matches S byte for byte.
type StrMatcher struct {
	S string
}

func NewStrMatcher(s string) *StrMatcher { return &StrMatcher{S: s} }

func (m StrMatcher) Text() string   { return `"` + escapeString(m.S) + `"` }
func (m StrMatcher) String() string { return fmt.Sprintf("Str(%s)", escapeString(m.S)) }

// Matcher type: Range

// CharRange is one interval of a character class.  A single
// character is the interval with Lo == Hi.
type CharRange struct {
	Lo byte
	Hi byte
}

// Single reports whether the range covers exactly one byte.
func (r CharRange) Single() bool { return r.Lo == r.Hi }

// RangeMatcher matches one byte within the union of its ranges,
// tested in insertion order.
type RangeMatcher struct {
	Ranges []CharRange
}

func NewRangeMatcher(ranges ...CharRange) *RangeMatcher {
	return &RangeMatcher{Ranges: ranges}
}

// Add appends a range, preserving insertion order.  Overlap fusion is
// the normalizer's business, not the parser's.
func (m *RangeMatcher) Add(r CharRange) {
	m.Ranges = append(m.Ranges, r)
}

func (m RangeMatcher) Text() string {
	var s strings.Builder
	s.WriteByte('[')
	for _, r := range m.Ranges {
		s.WriteString(escapeChar(r.Lo, 0))
		if !r.Single() {
			s.WriteByte('-')
			s.WriteString(escapeChar(r.Hi, 0))
		}
	}
	s.WriteByte(']')
	return s.String()
}

func (m RangeMatcher) String() string {
	parts := make([]string, len(m.Ranges))
	for i, r := range m.Ranges {
		if r.Single() {
			parts[i] = escapeChar(r.Lo, 0)
		} else {
			parts[i] = escapeChar(r.Lo, 0) + "-" + escapeChar(r.Hi, 0)
		}
	}
	return fmt.Sprintf("Range(%s)", strings.Join(parts, ", "))
}

// Matcher type: Rule

// RuleMatcher invokes a named rule, optionally binding its return
// value to Var.
type RuleMatcher struct {
	Name string

	// Var is the bind variable name; empty when the return value
	// is discarded
	Var string
}

func NewRuleMatcher(name, bindVar string) *RuleMatcher {
	return &RuleMatcher{Name: name, Var: bindVar}
}

func (m RuleMatcher) Text() string {
	if m.Var == "" {
		return m.Name
	}
	return m.Name + ":" + m.Var
}

func (m RuleMatcher) String() string {
	if m.Var == "" {
		return fmt.Sprintf("Rule(%s)", m.Name)
	}
	return fmt.Sprintf("Rule(%s:%s)", m.Name, m.Var)
}

// Matcher type: Any

// AnyMatcher matches any one byte except end of input.
type AnyMatcher struct{}

func NewAnyMatcher() *AnyMatcher { return &AnyMatcher{} }

func (m AnyMatcher) Text() string   { return "." }
func (m AnyMatcher) String() string { return "Any" }

// Matcher type: Empty

// EmptyMatcher matches without consuming input.
type EmptyMatcher struct{}

func NewEmptyMatcher() *EmptyMatcher { return &EmptyMatcher{} }

func (m EmptyMatcher) Text() string   { return ";" }
func (m EmptyMatcher) String() string { return "Empty" }

// Matcher type: Action

// ActionMatcher holds verbatim target-language code executed at its
// positional point during a successful match.  It is not a matcher in
// the parsing sense: it always succeeds and consumes nothing.
type ActionMatcher struct {
	Code string
}

func NewActionMatcher(code string) *ActionMatcher { return &ActionMatcher{Code: code} }

func (m ActionMatcher) Text() string   { return "{" + m.Code + "}" }
func (m ActionMatcher) String() string { return fmt.Sprintf("Action(%s)", m.Code) }

// Matcher type: Opt

// OptMatcher matches its child zero or one time.
type OptMatcher struct {
	M Matcher
}

func NewOptMatcher(m Matcher) *OptMatcher { return &OptMatcher{M: m} }

func (m OptMatcher) Text() string   { return groupText(m.M) + "?" }
func (m OptMatcher) String() string { return fmt.Sprintf("Opt(%s)", m.M) }

// Matcher type: Many

// ManyMatcher matches its child zero or more times, greedily.
type ManyMatcher struct {
	M Matcher
}

func NewManyMatcher(m Matcher) *ManyMatcher { return &ManyMatcher{M: m} }

func (m ManyMatcher) Text() string   { return groupText(m.M) + "*" }
func (m ManyMatcher) String() string { return fmt.Sprintf("Many(%s)", m.M) }

// Matcher type: Some

// SomeMatcher matches its child one or more times, greedily.
type SomeMatcher struct {
	M Matcher
}

func NewSomeMatcher(m Matcher) *SomeMatcher { return &SomeMatcher{M: m} }

func (m SomeMatcher) Text() string   { return groupText(m.M) + "+" }
func (m SomeMatcher) String() string { return fmt.Sprintf("Some(%s)", m.M) }

// Matcher type: Seq

// SeqMatcher matches its children in order; the first failure rolls
// the position back to the sequence entry.
type SeqMatcher struct {
	Items []Matcher
}

func NewSeqMatcher(items ...Matcher) *SeqMatcher { return &SeqMatcher{Items: items} }

func (m SeqMatcher) Text() string {
	parts := make([]string, len(m.Items))
	for i, item := range m.Items {
		if _, ok := item.(*AltMatcher); ok {
			parts[i] = "(" + item.Text() + ")"
		} else {
			parts[i] = item.Text()
		}
	}
	return strings.Join(parts, " ")
}

func (m SeqMatcher) String() string { return nodesString("Seq", m.Items) }

// Matcher type: Alt

// AltMatcher is ordered choice: children are tried in order from the
// same position and the first success commits.
type AltMatcher struct {
	Items []Matcher
}

func NewAltMatcher(items ...Matcher) *AltMatcher { return &AltMatcher{Items: items} }

func (m AltMatcher) Text() string {
	parts := make([]string, len(m.Items))
	for i, item := range m.Items {
		parts[i] = item.Text()
	}
	return strings.Join(parts, " | ")
}

func (m AltMatcher) String() string { return nodesString("Alt", m.Items) }

// Matcher type: Look

// LookMatcher is positive lookahead: zero-width, succeeds iff its
// child would.
type LookMatcher struct {
	M Matcher
}

func NewLookMatcher(m Matcher) *LookMatcher { return &LookMatcher{M: m} }

func (m LookMatcher) Text() string   { return "&" + groupText(m.M) }
func (m LookMatcher) String() string { return fmt.Sprintf("Look(%s)", m.M) }

// Matcher type: Not

// NotMatcher is negative lookahead: zero-width, succeeds iff its
// child would not.
type NotMatcher struct {
	M Matcher
}

func NewNotMatcher(m Matcher) *NotMatcher { return &NotMatcher{M: m} }

func (m NotMatcher) Text() string   { return "!" + groupText(m.M) }
func (m NotMatcher) String() string { return fmt.Sprintf("Not(%s)", m.M) }

// Matcher type: Capt

// CaptMatcher captures the substring its child consumed, exposing it
// to later siblings and actions as psCatch, psCatchLen and psCapture.
type CaptMatcher struct {
	M Matcher
}

func NewCaptMatcher(m Matcher) *CaptMatcher { return &CaptMatcher{M: m} }

func (m CaptMatcher) Text() string   { return "< " + m.M.Text() + " >" }
func (m CaptMatcher) String() string { return fmt.Sprintf("Capt(%s)", m.M) }

// Rule pairs a name and an optional return type with a matcher body.
// An empty Type means the rule returns the unit sentinel.
type Rule struct {
	Name string
	Type string
	Body Matcher
}

func NewRule(name, typ string, body Matcher) *Rule {
	return &Rule{Name: name, Type: typ, Body: body}
}

func (r Rule) Text() string {
	if r.Type == "" {
		return fmt.Sprintf("%s = %s", r.Name, r.Body.Text())
	}
	return fmt.Sprintf("%s : %s = %s", r.Name, r.Type, r.Body.Text())
}

func (r Rule) String() string { return fmt.Sprintf("Rule[%s]", r.Name) }

// Grammar is an ordered sequence of rules with a name index, plus the
// verbatim pre and post code blocks emitted around the generated
// parser.
type Grammar struct {
	Rules []*Rule
	Names map[string]*Rule
	Pre   string
	Post  string
}

func NewGrammar() *Grammar {
	return &Grammar{Names: map[string]*Rule{}}
}

// Add appends a rule and indexes it by name.  A duplicate name keeps
// the earlier rule in the ordered list but overwrites the index
// entry; generation rejects such grammars.
func (g *Grammar) Add(r *Rule) {
	g.Rules = append(g.Rules, r)
	g.Names[r.Name] = r
}

// Lookup resolves a rule by name.
func (g *Grammar) Lookup(name string) (*Rule, bool) {
	r, ok := g.Names[name]
	return r, ok
}

// Helpers

// groupText parenthesizes matchers that bind looser than the unary
// operators when rendered back to grammar syntax.
func groupText(m Matcher) string {
	switch m.(type) {
	case *SeqMatcher, *AltMatcher:
		return "(" + m.Text() + ")"
	default:
		return m.Text()
	}
}

func nodesString(name string, items []Matcher) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

var charEscapes = map[byte]string{
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\\': `\\`,
	'[':  `\[`,
	']':  `\]`,
}

// escapeChar renders c for a literal or class context; delim is the
// surrounding quote to escape, or zero for class contexts.
func escapeChar(c byte, delim byte) string {
	if esc, ok := charEscapes[c]; ok {
		return esc
	}
	if delim != 0 && c == delim {
		return `\` + string(delim)
	}
	return string(c)
}

func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		b.WriteString(escapeChar(s[i], '"'))
	}
	return b.String()
}
