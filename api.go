package egg

import (
	"io"

	"github.com/pkg/errors"

	"github.com/egg-lang/egg/parse"
)

// CompileOptions configures a compilation run.
type CompileOptions struct {
	// Name is the grammar name; it becomes the package of the
	// generated parser.  May be empty.
	Name string

	// Normalize selects whether the grammar tree is canonicalized
	// before generation.
	Normalize bool

	// RuntimeImport overrides the import path of the runtime
	// package referenced by the generated code.
	RuntimeImport string
}

// ParseGrammar reads an Egg grammar from r.  A syntax error comes
// back as a *ParseError carrying the failure report.
func ParseGrammar(r io.Reader) (*Grammar, error) {
	p := NewGrammarParser(parse.NewState(r))
	g, ok := p.Parse().Get()
	if !ok {
		return nil, &ParseError{Report: NewReport(p.State())}
	}
	return g, nil
}

// Compile reads a grammar from r and writes the generated parser to
// w.
func Compile(r io.Reader, w io.Writer, opts CompileOptions) error {
	g, err := ParseGrammar(r)
	if err != nil {
		return err
	}
	if opts.Normalize {
		Normalize(g)
	}
	code, err := GenGo(g, GenGoOptions{
		PackageName:   opts.Name,
		RuntimeImport: opts.RuntimeImport,
	})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, code); err != nil {
		return errors.Wrap(err, "writing generated parser")
	}
	return nil
}

// Print reads a grammar from r and re-emits it in Egg syntax to w.
func Print(r io.Reader, w io.Writer, opts CompileOptions) error {
	g, err := ParseGrammar(r)
	if err != nil {
		return err
	}
	if opts.Normalize {
		Normalize(g)
	}
	if _, err := io.WriteString(w, PrintGrammar(g)); err != nil {
		return errors.Wrap(err, "writing grammar")
	}
	return nil
}
