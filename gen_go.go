package egg

import (
	"fmt"
	"strings"
)

// GenGoOptions configures the Go code generator.
type GenGoOptions struct {
	// PackageName names the package of the generated file.  When
	// empty the generator falls back to "parser": unlike the
	// namespace of other targets, a Go file cannot omit its
	// package clause.
	PackageName string

	// RuntimeImport is the import path of the runtime package the
	// generated parser links against.
	RuntimeImport string
}

// DefaultRuntimeImport is the canonical import path of the runtime
// the generated parsers depend on.
const DefaultRuntimeImport = "github.com/egg-lang/egg/parse"

// GenGo emits a self-contained Go source file implementing g: one
// matching function per grammar rule over the shared parse.State,
// with the grammar's pre and post blocks spliced verbatim around the
// rule functions.
//
// Generation preconditions are checked first: every rule reference
// must resolve and rule names must be unique.  Violations are
// reported instead of emitting code that cannot compile.
func GenGo(g *Grammar, opts GenGoOptions) (string, error) {
	if err := checkGrammar(g); err != nil {
		return "", err
	}
	e := &goEmitter{g: g, opts: opts, w: newOutputWriter()}
	e.emitHeader()
	for _, r := range g.Rules {
		e.emitRule(r)
	}
	e.emitTrailer()
	return e.w.output(), nil
}

// checkGrammar validates the generation preconditions: unique rule
// names and resolvable rule references.
func checkGrammar(g *Grammar) error {
	seen := map[string]bool{}
	for _, r := range g.Rules {
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule %q", r.Name)
		}
		seen[r.Name] = true
	}
	for _, r := range g.Rules {
		if err := checkRefs(g, r.Name, r.Body); err != nil {
			return err
		}
	}
	return nil
}

func checkRefs(g *Grammar, ruleName string, m Matcher) error {
	switch n := m.(type) {
	case *RuleMatcher:
		if _, ok := g.Lookup(n.Name); !ok {
			return fmt.Errorf("reference to undefined rule %q in rule %q", n.Name, ruleName)
		}
	case *OptMatcher:
		return checkRefs(g, ruleName, n.M)
	case *ManyMatcher:
		return checkRefs(g, ruleName, n.M)
	case *SomeMatcher:
		return checkRefs(g, ruleName, n.M)
	case *LookMatcher:
		return checkRefs(g, ruleName, n.M)
	case *NotMatcher:
		return checkRefs(g, ruleName, n.M)
	case *CaptMatcher:
		return checkRefs(g, ruleName, n.M)
	case *SeqMatcher:
		for _, item := range n.Items {
			if err := checkRefs(g, ruleName, item); err != nil {
				return err
			}
		}
	case *AltMatcher:
		for _, item := range n.Items {
			if err := checkRefs(g, ruleName, item); err != nil {
				return err
			}
		}
	}
	return nil
}

type goEmitter struct {
	g    *Grammar
	opts GenGoOptions
	w    *outputWriter

	// save-point counter, reset per rule
	tmp int
}

// scope tracks which generated names a statement context has already
// declared, so a second capture or bind in the same lexical scope
// assigns instead of redeclaring.
type scope struct {
	captures bool
	binds    map[string]bool
}

func newScope() *scope {
	return &scope{binds: map[string]bool{}}
}

func (e *goEmitter) emitHeader() {
	pkg := e.opts.PackageName
	if pkg == "" {
		pkg = "parser"
	}
	runtime := e.opts.RuntimeImport
	if runtime == "" {
		runtime = DefaultRuntimeImport
	}

	e.w.writel("// Code generated by egg. DO NOT EDIT.")
	e.w.writel("")
	e.w.writel("package " + pkg)
	e.w.writel("")
	e.w.writel(`import "` + runtime + `"`)
	if e.g.Pre != "" {
		e.w.writel("")
		e.w.writel(e.g.Pre)
	}
}

func (e *goEmitter) emitTrailer() {
	if e.g.Post != "" {
		e.w.writel("")
		e.w.writel(e.g.Post)
	}
}

func (e *goEmitter) emitRule(r *Rule) {
	e.tmp = 0
	typ := goType(r.Type)

	e.w.writel("")
	e.w.writel(fmt.Sprintf("func %s(ps *parse.State) parse.Result[%s] {", r.Name, typ))
	e.w.indent()
	e.w.writeil("psStart := ps.Pos")
	e.w.writeil("_ = psStart")
	e.w.writeil(fmt.Sprintf("var psVal %s", typ))

	fail := []string{
		"ps.Pos = psStart",
		fmt.Sprintf("return parse.Fail[%s]()", typ),
	}
	e.emitStmts(bodyItems(r.Body), fail, newScope())

	e.w.writeil("return parse.Match(psVal)")
	e.w.unindent()
	e.w.writel("}")
}

// bodyItems flattens a rule body into the statement items of the rule
// function, so captures and binds at the top level of the rule share
// the function scope with psStart and psVal.
func bodyItems(m Matcher) []Matcher {
	if seq, ok := m.(*SeqMatcher); ok {
		return seq.Items
	}
	return []Matcher{m}
}

// emitStmts writes the statement form of a sequence of matchers at
// the writer's current indentation.  Control falls through on
// success; fail holds the statements executed on failure (the caller
// includes the position restore).
func (e *goEmitter) emitStmts(items []Matcher, fail []string, sc *scope) {
	for _, item := range items {
		switch n := item.(type) {
		case *ActionMatcher:
			e.emitAction(n)

		case *CaptMatcher:
			decl := ":="
			if sc.captures {
				decl = "="
			}
			sc.captures = true
			e.w.writeil(fmt.Sprintf("psCatch %s ps.Pos", decl))
			e.emitTest(n.M, fail)
			e.w.writeil(fmt.Sprintf("psCatchLen %s ps.Pos - psCatch", decl))
			if decl == ":=" {
				e.w.writeil("psCapture, _ := ps.String(psCatch, psCatchLen)")
			} else {
				e.w.writeil("psCapture, _ = ps.String(psCatch, psCatchLen)")
			}
			e.w.writeil("_ = psCapture")

		case *RuleMatcher:
			if n.Var == "" {
				e.emitTest(n, fail)
				continue
			}
			if !sc.binds[n.Var] {
				sc.binds[n.Var] = true
				e.w.writeil(fmt.Sprintf("var %s %s", n.Var, goType(e.ruleType(n.Name))))
				e.w.writeil("_ = " + n.Var)
			}
			e.w.writeil(fmt.Sprintf("if !parse.Bind(%s, ps, &%s) {", n.Name, n.Var))
			e.emitFail(fail)

		default:
			e.emitTest(item, fail)
		}
	}
}

// emitAction splices verbatim action code inside a block scope at its
// positional point.
func (e *goEmitter) emitAction(n *ActionMatcher) {
	if !strings.Contains(n.Code, "\n") {
		e.w.writeil("{" + n.Code + "}")
		return
	}
	e.w.writeil("{")
	e.w.writel(n.Code)
	e.w.writeil("}")
}

// emitTest writes `if !<expr> { <fail> }` for a matcher.
func (e *goEmitter) emitTest(m Matcher, fail []string) {
	e.w.writei("if !")
	e.w.write(e.test(m))
	e.w.writel(" {")
	e.emitFail(fail)
}

func (e *goEmitter) emitFail(fail []string) {
	e.w.indent()
	for _, s := range fail {
		e.w.writeil(s)
	}
	e.w.unindent()
	e.w.writeil("}")
}

func (e *goEmitter) nextSave() string {
	e.tmp++
	return fmt.Sprintf("psSave%d", e.tmp)
}

// test compiles a matcher to a Go boolean expression.  The invariant
// every form keeps: evaluating to true means the matcher consumed its
// input; evaluating to false means the position is exactly what it
// was before evaluation.
func (e *goEmitter) test(m Matcher) string {
	switch n := m.(type) {
	case *CharMatcher:
		return fmt.Sprintf("parse.Matches(ps, %s).OK()", goByte(n.C))

	case *StrMatcher:
		return e.testStr(n)

	case *RangeMatcher:
		return e.testRange(n)

	case *RuleMatcher:
		if n.Var == "" {
			return fmt.Sprintf("%s(ps).OK()", n.Name)
		}
		// the bind variable lives in the closure scope, so a
		// bind wrapped by a suffix, prefix or choice branch
		// does not leak into the enclosing sequence
		return e.closure(func() {
			e.w.writeil(fmt.Sprintf("var %s %s", n.Var, goType(e.ruleType(n.Name))))
			e.w.writeil(fmt.Sprintf("return parse.Bind(%s, ps, &%s)", n.Name, n.Var))
		})

	case *AnyMatcher:
		return "parse.Any(ps).OK()"

	case *EmptyMatcher:
		return "true"

	case *ActionMatcher:
		return e.closure(func() {
			e.emitAction(n)
			e.w.writeil("return true")
		})

	case *OptMatcher:
		return "(" + e.test(n.M) + " || true)"

	case *ManyMatcher:
		return e.closure(func() {
			e.emitLoop(n.M)
			e.w.writeil("return true")
		})

	case *SomeMatcher:
		return e.closure(func() {
			e.emitTest(n.M, []string{"return false"})
			e.emitLoop(n.M)
			e.w.writeil("return true")
		})

	case *SeqMatcher:
		return e.closure(func() {
			sv := e.nextSave()
			e.w.writeil(sv + " := ps.Pos")
			e.w.writeil("_ = " + sv)
			e.emitStmts(n.Items, []string{"ps.Pos = " + sv, "return false"}, newScope())
			e.w.writeil("return true")
		})

	case *AltMatcher:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = e.test(item)
		}
		return "(" + strings.Join(parts, " ||\n"+e.pad(1)) + ")"

	case *LookMatcher:
		return e.closure(func() {
			sv := e.nextSave()
			e.w.writeil(sv + " := ps.Pos")
			e.w.writeil("ok := " + e.test(n.M))
			e.w.writeil("ps.Pos = " + sv)
			e.w.writeil("return ok")
		})

	case *NotMatcher:
		return e.closure(func() {
			sv := e.nextSave()
			e.w.writeil(sv + " := ps.Pos")
			e.w.writeil("ok := " + e.test(n.M))
			e.w.writeil("ps.Pos = " + sv)
			e.w.writeil("return !ok")
		})

	case *CaptMatcher:
		return e.closure(func() {
			e.w.writeil("psCatch := ps.Pos")
			e.emitTest(n.M, []string{"return false"})
			e.w.writeil("psCatchLen := ps.Pos - psCatch")
			e.w.writeil("psCapture, _ := ps.String(psCatch, psCatchLen)")
			e.w.writeil("_ = psCapture")
			e.w.writeil("return true")
		})

	default:
		panic(fmt.Sprintf("unknown matcher: %s", m))
	}
}

// testStr emits the sequential byte checks of a string literal; the
// position advances by the full length only on a complete match.
func (e *goEmitter) testStr(n *StrMatcher) string {
	switch len(n.S) {
	case 0:
		return "true"
	case 1:
		return fmt.Sprintf("parse.Matches(ps, %s).OK()", goByte(n.S[0]))
	}
	return e.closure(func() {
		sv := e.nextSave()
		e.w.writeil(sv + " := ps.Pos")
		checks := make([]string, len(n.S))
		for i := 0; i < len(n.S); i++ {
			checks[i] = fmt.Sprintf("parse.Matches(ps, %s).OK()", goByte(n.S[i]))
		}
		e.w.writei("if ")
		e.w.write(strings.Join(checks, " &&\n"+e.pad(1)))
		e.w.writel(" {")
		e.w.indent()
		e.w.writeil("return true")
		e.w.unindent()
		e.w.writeil("}")
		e.w.writeil("ps.Pos = " + sv)
		e.w.writeil("return false")
	})
}

// testRange emits the interval chain of a character class, tested in
// insertion order.
func (e *goEmitter) testRange(n *RangeMatcher) string {
	if len(n.Ranges) == 0 {
		return "false"
	}
	parts := make([]string, len(n.Ranges))
	for i, r := range n.Ranges {
		if r.Single() {
			parts[i] = fmt.Sprintf("parse.Matches(ps, %s).OK()", goByte(r.Lo))
		} else {
			parts[i] = fmt.Sprintf("parse.InRange(ps, %s, %s).OK()", goByte(r.Lo), goByte(r.Hi))
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " ||\n"+e.pad(1)) + ")"
}

// emitLoop writes the greedy repetition loop.  An iteration that
// succeeds without consuming input ends the loop, so repetition
// terminates even over zero-width bodies the normalizer did not see.
func (e *goEmitter) emitLoop(m Matcher) {
	sv := e.nextSave()
	e.w.writeil("for {")
	e.w.indent()
	e.w.writeil(sv + " := ps.Pos")
	e.w.writeil(fmt.Sprintf("if !%s || ps.Pos == %s {", e.test(m), sv))
	e.w.indent()
	e.w.writeil("break")
	e.w.unindent()
	e.w.writeil("}")
	e.w.unindent()
	e.w.writeil("}")
}

// closure renders `func() bool { ... }()` with body written by fn at
// one deeper indentation, returning it as an inline expression.
func (e *goEmitter) closure(fn func()) string {
	outer := e.w
	inner := newOutputWriter()
	inner.indentLevel = outer.indentLevel + 1

	e.w = inner
	fn()
	e.w = outer

	var b strings.Builder
	b.WriteString("func() bool {\n")
	b.WriteString(inner.output())
	b.WriteString(e.pad(0) + "}()")
	return b.String()
}

// pad returns the indentation prefix extra levels beyond the writer's
// current level, for multi-line expressions built as strings.
func (e *goEmitter) pad(extra int) string {
	return strings.Repeat("\t", e.w.indentLevel+extra)
}

// outputWriter accumulates the generated parser source.  Indentation
// is tracked as a level rather than a string so closure bodies can
// nest arbitrarily deep; it is always tabs, since the output is a Go
// file and should land the way gofmt would leave it.
type outputWriter struct {
	buffer      strings.Builder
	indentLevel int
}

func newOutputWriter() *outputWriter {
	return &outputWriter{}
}

func (o *outputWriter) indent() {
	o.indentLevel++
}

func (o *outputWriter) unindent() {
	o.indentLevel--
}

// writei writes s at the current indentation, leaving the line open.
func (o *outputWriter) writei(s string) {
	for i := 0; i < o.indentLevel; i++ {
		o.buffer.WriteByte('\t')
	}
	o.buffer.WriteString(s)
}

// writeil writes a whole line of output at the current indentation.
func (o *outputWriter) writeil(s string) {
	o.writei(s)
	o.buffer.WriteByte('\n')
}

// writel finishes the current line with s, without indenting.
func (o *outputWriter) writel(s string) {
	o.buffer.WriteString(s)
	o.buffer.WriteByte('\n')
}

func (o *outputWriter) write(s string) {
	o.buffer.WriteString(s)
}

func (o *outputWriter) output() string {
	return o.buffer.String()
}

func (e *goEmitter) ruleType(name string) string {
	if r, ok := e.g.Lookup(name); ok {
		return r.Type
	}
	return ""
}

// goType maps a rule's declared type to the generated return type;
// untyped rules return the unit sentinel.
func goType(t string) string {
	if t == "" {
		return "parse.Unit"
	}
	return t
}

// goByte renders a byte as a Go character literal.
func goByte(c byte) string {
	switch c {
	case '\n':
		return `'\n'`
	case '\r':
		return `'\r'`
	case '\t':
		return `'\t'`
	case '\'':
		return `'\''`
	case '\\':
		return `'\\'`
	}
	if c >= 0x20 && c <= 0x7e {
		return "'" + string(c) + "'"
	}
	return fmt.Sprintf(`'\x%02x'`, c)
}
