package egg

import (
	"strings"

	"github.com/egg-lang/egg/parse"
)

// GrammarParser reads Egg grammar text into a Grammar tree.  It is a
// hand-written PEG parser over the same stream state and substrate
// the generated parsers use: every production saves the position on
// entry and restores it before failing, so failure is always atomic
// with respect to the read head.
type GrammarParser struct {
	ps *parse.State
}

// NewGrammarParser creates a grammar parser over the given state.
func NewGrammarParser(ps *parse.State) *GrammarParser {
	return &GrammarParser{ps: ps}
}

// State exposes the underlying stream state, which callers consult
// for the furthest read position after a failed parse.
func (p *GrammarParser) State() *parse.State {
	return p.ps
}

// Parse consumes the whole input and returns the grammar it
// describes.  The result is failed when the input is not a valid Egg
// grammar; the caller then reads State().MaxRead() for reporting.
func (p *GrammarParser) Parse() parse.Result[*Grammar] {
	return p.parseGrammar()
}

// GR: grammar <- _ action? _ (rule _)+ action? _ EOF
func (p *GrammarParser) parseGrammar() parse.Result[*Grammar] {
	ps := p.ps
	psStart := ps.Pos
	g := NewGrammar()

	p.parseSpacing()
	if pre, ok := p.parseAction().Get(); ok {
		g.Pre = pre.Code
	}

	p.parseSpacing()
	head, ok := p.parseRule().Get()
	if !ok {
		ps.Pos = psStart
		return parse.Fail[*Grammar]()
	}
	g.Add(head)
	for {
		p.parseSpacing()
		r, ok := p.parseRule().Get()
		if !ok {
			break
		}
		g.Add(r)
	}

	p.parseSpacing()
	if post, ok := p.parseAction().Get(); ok {
		g.Post = post.Code
	}

	p.parseSpacing()
	if p.peek() != parse.EOF {
		ps.Pos = psStart
		return parse.Fail[*Grammar]()
	}
	return parse.Match(g)
}

// GR: rule <- ident _ (':' typeText)? '=' _ alt
func (p *GrammarParser) parseRule() parse.Result[*Rule] {
	ps := p.ps
	psStart := ps.Pos

	name, ok := p.parseIdent().Get()
	if !ok {
		return parse.Fail[*Rule]()
	}

	p.parseSpacing()
	typ := ""
	if parse.Matches(ps, ':').OK() {
		typ = strings.TrimSpace(p.scanTypeText())
	}
	if !parse.Matches(ps, '=').OK() {
		ps.Pos = psStart
		return parse.Fail[*Rule]()
	}

	p.parseSpacing()
	body, ok := p.parseAlt().Get()
	if !ok {
		ps.Pos = psStart
		return parse.Fail[*Rule]()
	}
	return parse.Match(NewRule(name, typ, body))
}

// GR: alt <- seq (_ '|' _ seq)*
func (p *GrammarParser) parseAlt() parse.Result[Matcher] {
	ps := p.ps

	head, ok := p.parseSeq().Get()
	if !ok {
		return parse.Fail[Matcher]()
	}

	items := []Matcher{head}
	for {
		mark := ps.Pos
		p.parseSpacing()
		if !parse.Matches(ps, '|').OK() {
			ps.Pos = mark
			break
		}
		p.parseSpacing()
		branch, ok := p.parseSeq().Get()
		if !ok {
			ps.Pos = mark
			break
		}
		items = append(items, branch)
	}

	if len(items) == 1 {
		return parse.Match(head)
	}
	return parse.Match[Matcher](NewAltMatcher(items...))
}

// GR: seq <- term (_ term)*
func (p *GrammarParser) parseSeq() parse.Result[Matcher] {
	ps := p.ps

	head, ok := p.parseTerm().Get()
	if !ok {
		return parse.Fail[Matcher]()
	}

	items := []Matcher{head}
	for {
		mark := ps.Pos
		p.parseSpacing()
		gap, _ := ps.String(mark, ps.Pos-mark)
		term, ok := p.parseTerm().Get()
		if !ok {
			ps.Pos = mark
			break
		}
		// An action on its own line with nothing but spacing
		// left in the input is the grammar's post block, not a
		// term of this sequence.  A trailing action on the same
		// line stays with the rule.
		if _, isAction := term.(*ActionMatcher); isAction &&
			strings.Contains(gap, "\n") && p.eofAhead() {
			ps.Pos = mark
			break
		}
		items = append(items, term)
	}

	if len(items) == 1 {
		return parse.Match(head)
	}
	return parse.Match[Matcher](NewSeqMatcher(items...))
}

// GR: term <- ('&' _ | '!' _)? unary
func (p *GrammarParser) parseTerm() parse.Result[Matcher] {
	ps := p.ps
	psStart := ps.Pos

	prefix := byte(0)
	if parse.Matches(ps, '&').OK() {
		prefix = '&'
		p.parseSpacing()
	} else if parse.Matches(ps, '!').OK() {
		prefix = '!'
		p.parseSpacing()
	}

	expr, ok := p.parseUnary().Get()
	if !ok {
		ps.Pos = psStart
		return parse.Fail[Matcher]()
	}

	switch prefix {
	case '&':
		return parse.Match[Matcher](NewLookMatcher(expr))
	case '!':
		return parse.Match[Matcher](NewNotMatcher(expr))
	default:
		return parse.Match(expr)
	}
}

// GR: unary <- atom ('?' | '*' | '+')?
func (p *GrammarParser) parseUnary() parse.Result[Matcher] {
	ps := p.ps

	expr, ok := p.parseAtom().Get()
	if !ok {
		return parse.Fail[Matcher]()
	}

	switch {
	case parse.Matches(ps, '?').OK():
		return parse.Match[Matcher](NewOptMatcher(expr))
	case parse.Matches(ps, '*').OK():
		return parse.Match[Matcher](NewManyMatcher(expr))
	case parse.Matches(ps, '+').OK():
		return parse.Match[Matcher](NewSomeMatcher(expr))
	default:
		return parse.Match(expr)
	}
}

// GR: atom <- '(' _ alt _ ')' | capture | action | primitive
func (p *GrammarParser) parseAtom() parse.Result[Matcher] {
	ps := p.ps
	psStart := ps.Pos

	if parse.Matches(ps, '(').OK() {
		p.parseSpacing()
		expr, ok := p.parseAlt().Get()
		if ok {
			p.parseSpacing()
			if parse.Matches(ps, ')').OK() {
				return parse.Match(expr)
			}
		}
		ps.Pos = psStart
		return parse.Fail[Matcher]()
	}

	if capt, ok := p.parseCapture().Get(); ok {
		return parse.Match[Matcher](capt)
	}
	if action, ok := p.parseAction().Get(); ok {
		return parse.Match[Matcher](action)
	}
	return p.parsePrimitive()
}

// GR: capture <- '<' _ alt _ '>'
func (p *GrammarParser) parseCapture() parse.Result[*CaptMatcher] {
	ps := p.ps
	psStart := ps.Pos

	if !parse.Matches(ps, '<').OK() {
		return parse.Fail[*CaptMatcher]()
	}
	p.parseSpacing()
	expr, ok := p.parseAlt().Get()
	if !ok {
		ps.Pos = psStart
		return parse.Fail[*CaptMatcher]()
	}
	p.parseSpacing()
	if !parse.Matches(ps, '>').OK() {
		ps.Pos = psStart
		return parse.Fail[*CaptMatcher]()
	}
	return parse.Match(NewCaptMatcher(expr))
}

// GR: action <- '{' balanced '}'
//
// The action body is taken verbatim, tracking only brace depth.
// Braces inside string literals of the embedded code are not
// understood; they must balance.
func (p *GrammarParser) parseAction() parse.Result[*ActionMatcher] {
	ps := p.ps
	psStart := ps.Pos

	if !parse.Matches(ps, '{').OK() {
		return parse.Fail[*ActionMatcher]()
	}

	var code strings.Builder
	depth := 1
	for {
		c, ok := parse.Any(ps).Get()
		if !ok {
			ps.Pos = psStart
			return parse.Fail[*ActionMatcher]()
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return parse.Match(NewActionMatcher(code.String()))
			}
		}
		code.WriteByte(c)
	}
}

// GR: primitive <- rule_ref | char_lit | str_lit | char_class | '.' | ';'
func (p *GrammarParser) parsePrimitive() parse.Result[Matcher] {
	ps := p.ps

	if ref, ok := p.parseRuleRef().Get(); ok {
		return parse.Match[Matcher](ref)
	}
	if lit, ok := p.parseCharLit().Get(); ok {
		return parse.Match[Matcher](lit)
	}
	if str, ok := p.parseStrLit().Get(); ok {
		return parse.Match[Matcher](str)
	}
	if class, ok := p.parseCharClass().Get(); ok {
		return parse.Match[Matcher](class)
	}
	if parse.Matches(ps, '.').OK() {
		return parse.Match[Matcher](NewAnyMatcher())
	}
	if parse.Matches(ps, ';').OK() {
		return parse.Match[Matcher](NewEmptyMatcher())
	}
	return parse.Fail[Matcher]()
}

// GR: rule_ref <- ident !rule_header (':' ident)?
//
// A reference must not swallow the next rule's `name (: type)? =`
// header, so after the identifier the parser looks ahead for an
// optional type annotation followed by '='; seeing one fails the
// reference and ends the enclosing sequence.
func (p *GrammarParser) parseRuleRef() parse.Result[*RuleMatcher] {
	ps := p.ps
	psStart := ps.Pos

	name, ok := p.parseIdent().Get()
	if !ok {
		return parse.Fail[*RuleMatcher]()
	}

	if p.ruleHeaderAhead() {
		ps.Pos = psStart
		return parse.Fail[*RuleMatcher]()
	}

	bindVar := ""
	mark := ps.Pos
	if parse.Matches(ps, ':').OK() {
		v, ok := p.parseIdent().Get()
		if ok {
			bindVar = v
		} else {
			ps.Pos = mark
		}
	}
	return parse.Match(NewRuleMatcher(name, bindVar))
}

// ruleHeaderAhead reports whether the input after an identifier looks
// like the rest of a rule header: optional spacing, an optional
// `: type` annotation, then '='.  The position is always restored.
func (p *GrammarParser) ruleHeaderAhead() bool {
	ps := p.ps
	mark := ps.Pos
	defer func() { ps.Pos = mark }()

	p.parseSpacing()
	if parse.Matches(ps, ':').OK() {
		p.scanTypeText()
	}
	return p.peek() == '='
}

// scanTypeText consumes a run of type-expression bytes: everything up
// to the terminating '=', excluding the delimiters that can only
// belong to grammar syntax.  The '=' itself is not consumed.
func (p *GrammarParser) scanTypeText() string {
	ps := p.ps
	var text strings.Builder
	for {
		c := p.peek()
		switch c {
		case '=', '{', '}', '\'', '"', '|', ';', '#', '\n', parse.EOF:
			return text.String()
		}
		text.WriteByte(c)
		ps.Pos++
	}
}

// GR: char_lit <- "'" char "'"
func (p *GrammarParser) parseCharLit() parse.Result[*CharMatcher] {
	ps := p.ps
	psStart := ps.Pos

	if !parse.Matches(ps, '\'').OK() {
		return parse.Fail[*CharMatcher]()
	}
	c, ok := p.parseChar('\'').Get()
	if !ok || !parse.Matches(ps, '\'').OK() {
		ps.Pos = psStart
		return parse.Fail[*CharMatcher]()
	}
	return parse.Match(NewCharMatcher(c))
}

// GR: str_lit <- '"' char* '"'
func (p *GrammarParser) parseStrLit() parse.Result[*StrMatcher] {
	ps := p.ps
	psStart := ps.Pos

	if !parse.Matches(ps, '"').OK() {
		return parse.Fail[*StrMatcher]()
	}
	var s strings.Builder
	for {
		if parse.Matches(ps, '"').OK() {
			return parse.Match(NewStrMatcher(s.String()))
		}
		c, ok := p.parseChar('"').Get()
		if !ok {
			ps.Pos = psStart
			return parse.Fail[*StrMatcher]()
		}
		s.WriteByte(c)
	}
}

// GR: char_class <- '[' (char ('-' char)?)* ']'
func (p *GrammarParser) parseCharClass() parse.Result[*RangeMatcher] {
	ps := p.ps
	psStart := ps.Pos

	if !parse.Matches(ps, '[').OK() {
		return parse.Fail[*RangeMatcher]()
	}
	class := NewRangeMatcher()
	for {
		if parse.Matches(ps, ']').OK() {
			return parse.Match(class)
		}
		lo, ok := p.parseChar(']').Get()
		if !ok {
			ps.Pos = psStart
			return parse.Fail[*RangeMatcher]()
		}
		hi := lo
		mark := ps.Pos
		if parse.Matches(ps, '-').OK() {
			if h, ok := p.parseChar(']').Get(); ok {
				hi = h
			} else {
				ps.Pos = mark
			}
		}
		class.Add(CharRange{Lo: lo, Hi: hi})
	}
}

// GR: char <- escape | any byte except the active delimiter / '\\'
func (p *GrammarParser) parseChar(delim byte) parse.Result[byte] {
	ps := p.ps
	psStart := ps.Pos

	c, ok := parse.Any(ps).Get()
	if !ok || c == delim {
		ps.Pos = psStart
		return parse.Fail[byte]()
	}
	if c != '\\' {
		return parse.Match(c)
	}

	e, ok := parse.Any(ps).Get()
	if !ok {
		ps.Pos = psStart
		return parse.Fail[byte]()
	}
	switch e {
	case 'n':
		return parse.Match[byte]('\n')
	case 'r':
		return parse.Match[byte]('\r')
	case 't':
		return parse.Match[byte]('\t')
	case '\'', '"', '\\', '[', ']':
		return parse.Match(e)
	default:
		ps.Pos = psStart
		return parse.Fail[byte]()
	}
}

// GR: ident <- [A-Za-z_] [A-Za-z_0-9]*
func (p *GrammarParser) parseIdent() parse.Result[string] {
	var name strings.Builder
	c, ok := p.matchIdentStart()
	if !ok {
		return parse.Fail[string]()
	}
	name.WriteByte(c)
	for {
		c, ok := p.matchIdentCont()
		if !ok {
			return parse.Match(name.String())
		}
		name.WriteByte(c)
	}
}

func (p *GrammarParser) matchIdentStart() (byte, bool) {
	ps := p.ps
	if r := parse.InRange(ps, 'A', 'Z'); r.OK() {
		return r.Value(), true
	}
	if r := parse.InRange(ps, 'a', 'z'); r.OK() {
		return r.Value(), true
	}
	if r := parse.Matches(ps, '_'); r.OK() {
		return r.Value(), true
	}
	return 0, false
}

func (p *GrammarParser) matchIdentCont() (byte, bool) {
	if c, ok := p.matchIdentStart(); ok {
		return c, true
	}
	if r := parse.InRange(p.ps, '0', '9'); r.OK() {
		return r.Value(), true
	}
	return 0, false
}

// GR: _ <- (space | tab | newline | '#' ... newline)*
func (p *GrammarParser) parseSpacing() {
	ps := p.ps
	for {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			ps.Pos++
		case '#':
			ps.Pos++
			for {
				c := p.peek()
				if c == '\n' || c == parse.EOF {
					break
				}
				ps.Pos++
			}
		default:
			return
		}
	}
}

// eofAhead reports whether only spacing remains in the input.  The
// position is restored.
func (p *GrammarParser) eofAhead() bool {
	ps := p.ps
	mark := ps.Pos
	p.parseSpacing()
	done := p.peek() == parse.EOF
	ps.Pos = mark
	return done
}

// peek returns the byte under the read head without consuming it.
// The grammar parser never discards input, so the forgotten-range
// error cannot arise here.
func (p *GrammarParser) peek() byte {
	c, _ := p.ps.At(p.ps.Pos)
	return c
}
