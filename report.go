package egg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/egg-lang/egg/parse"
)

// Report locates a parse failure within its source line.  It is
// built from the furthest position the parser read before giving up.
type Report struct {
	// Pos is the furthest read position: the number of input bytes
	// the parser examined before failing
	Pos int

	// Line is the 1-based line number of the failure
	Line int

	// Col is the 0-based column of the failure within the line
	Col int

	// Text is the content of the offending line
	Text string
}

// NewReport maps the state's furthest read position to a
// human-readable location.  The backward scan for the line start is
// the one place that can step into a discarded prefix; when it does,
// the line count falls back to the newline counter the buffer kept
// while forgetting.
func NewReport(ps *parse.State) Report {
	maxRead := ps.MaxRead()

	// scan backward for the line start
	start := maxRead - 1
	if start < 0 {
		start = 0
	}
	for start > 0 {
		c, err := ps.At(start)
		var fr *parse.ForgottenRangeError
		if errors.As(err, &fr) {
			start = fr.Available
			break
		}
		if c == '\n' {
			start++
			break
		}
		start--
	}
	if start == 0 {
		if c, err := ps.At(0); err == nil && c == '\n' {
			start = 1
		}
	}

	// scan forward for the line end
	end := maxRead
	for {
		c, err := ps.At(end)
		if err != nil || c == '\n' || c == parse.EOF {
			break
		}
		end++
	}

	// count newlines up to the line start; stepping into the
	// discarded prefix substitutes the buffer's running counter
	// for the bytes that are gone
	line := 1
	for pos := start - 1; pos >= 0; pos-- {
		c, err := ps.At(pos)
		var fr *parse.ForgottenRangeError
		if errors.As(err, &fr) {
			line += fr.NewlinesDiscarded
			break
		}
		if c == '\n' {
			line++
		}
	}

	text, _ := ps.String(start, end-start)
	return Report{
		Pos:  maxRead,
		Line: line,
		Col:  maxRead - start,
		Text: text,
	}
}

// String renders the three-line failure report: the byte offset, the
// offending line, and a caret under the failure column.
func (r Report) String() string {
	label := fmt.Sprintf("line %d:   ", r.Line)
	var b strings.Builder
	fmt.Fprintf(&b, "Parse failure %d bytes into the input:\n", r.Pos)
	b.WriteString(label)
	b.WriteString(r.Text)
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", len(label)+r.Col))
	fmt.Fprintf(&b, "^-- error, column %d\n", r.Col)
	return b.String()
}

// ParseError is returned when the input is not a valid Egg grammar.
type ParseError struct {
	Report Report
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure %d bytes into the input (line %d, column %d)",
		e.Report.Pos, e.Report.Line, e.Report.Col)
}
