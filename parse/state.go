package parse

import (
	"bytes"
	"fmt"
	"io"
)

// EOF is the sentinel byte returned by At for positions past the end
// of the input stream.  Real NUL bytes in the input are not
// distinguished from the end of the stream.
const EOF byte = 0

// ForgottenRangeError is returned when the state is asked for an
// index that has already been discarded by ForgetTo.
type ForgottenRangeError struct {
	// Requested is the index that was asked for
	Requested int

	// Available is the smallest index still retained
	Available int

	// NewlinesDiscarded counts the '\n' bytes within the
	// discarded prefix, so error reporting can keep line numbers
	// right even after the buffer dropped the text they refer to
	NewlinesDiscarded int
}

func (e *ForgottenRangeError) Error() string {
	return fmt.Sprintf("forgotten range: requested %d < %d", e.Requested, e.Available)
}

// State is the stream-backed parser state shared by the grammar
// parser and by every generated parser.  It provides a random-access
// view over an input stream with forward-only retention: bytes before
// the retention floor can be discarded with ForgetTo, and any later
// access to them fails with a ForgottenRangeError.
//
// Pos is the current read head.  Matchers advance it on success and
// must leave it untouched on failure.
type State struct {
	// Pos is the current parsing location
	Pos int

	// buf holds the retained window of the stream; buf[0] is the
	// byte at stream offset off
	buf []byte

	// off is the stream offset of buf[0].  Monotonically
	// non-decreasing.
	off int

	// newlinesOff counts '\n' bytes in the discarded prefix
	newlinesOff int

	in  io.Reader
	eof bool
}

// NewState creates a parser state reading from r, positioned at the
// beginning of the stream.  The reader is borrowed, not owned.
func NewState(r io.Reader) *State {
	return &State{in: r}
}

// NewStringState creates a parser state over an in-memory input.
func NewStringState(input string) *State {
	return NewState(bytes.NewReader([]byte(input)))
}

// fill reads from the underlying stream until the window covers the
// relative index ii or the stream is exhausted.  It reads no further
// than requested: MaxRead must stay the furthest position the parser
// examined, which is what failure reporting is built on.  Callers
// wanting buffered reads hand the state a bufio.Reader.
func (s *State) fill(ii int) {
	for !s.eof && ii >= len(s.buf) {
		chunk := make([]byte, ii-len(s.buf)+1)
		n, err := s.in.Read(chunk)
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
		}
		if err != nil {
			// any read failure, io.EOF included, ends the stream
			s.eof = true
		}
	}
}

// At returns the byte at stream index i, reading more input as
// needed.  Past the end of the stream it returns the EOF sentinel.
// Indices below the retention floor fail with ForgottenRangeError;
// parsers never discard input, so only the error reporter's backward
// scan can see that error.
func (s *State) At(i int) (byte, error) {
	if i < s.off {
		return 0, s.forgotten(i)
	}
	ii := i - s.off
	if ii >= len(s.buf) {
		s.fill(ii)
		if ii >= len(s.buf) {
			return EOF, nil
		}
	}
	return s.buf[ii], nil
}

// Range returns a view of up to n bytes starting at stream index i,
// clamped to the available input.  The returned slice aliases the
// retained window and is valid only until the next call to any
// mutating method on the state.
func (s *State) Range(i, n int) ([]byte, error) {
	if i < s.off {
		return nil, s.forgotten(i)
	}
	ib := i - s.off
	ie := ib + n
	if ie > len(s.buf) {
		s.fill(ie - 1)
	}
	if ib >= len(s.buf) {
		return nil, nil
	}
	if ie > len(s.buf) {
		ie = len(s.buf)
	}
	return s.buf[ib:ie], nil
}

// String materializes Range(i, n) as a string.
func (s *State) String(i, n int) (string, error) {
	r, err := s.Range(i, n)
	if err != nil {
		return "", err
	}
	return string(r), nil
}

// ForgetTo discards all retained input before stream index i,
// folding the newlines of the dropped prefix into the running
// counter.  Indices at or below the current floor are a no-op.
func (s *State) ForgetTo(i int) {
	if i <= s.off {
		return
	}
	ii := i - s.off
	if ii > len(s.buf) {
		ii = len(s.buf)
	}
	s.newlinesOff += bytes.Count(s.buf[:ii], []byte{'\n'})
	s.buf = s.buf[ii:]
	s.off += ii
}

// MaxRead returns the stream offset one past the last byte read so
// far.  After a failed parse this is the furthest position the parser
// reached, which the error reporter turns into a line/column message.
func (s *State) MaxRead() int {
	return s.off + len(s.buf)
}

// NewlinesDiscarded returns the number of '\n' bytes dropped by
// ForgetTo calls so far.
func (s *State) NewlinesDiscarded() int {
	return s.newlinesOff
}

func (s *State) forgotten(i int) *ForgottenRangeError {
	return &ForgottenRangeError{
		Requested:         i,
		Available:         s.off,
		NewlinesDiscarded: s.newlinesOff,
	}
}
