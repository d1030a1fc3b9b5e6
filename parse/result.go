package parse

// Result wraps the outcome of a matcher: either success carrying a
// value, or failure.  The two states are inspected explicitly; a
// failed result never hands out a value silently.
type Result[T any] struct {
	value T
	ok    bool
}

// Match builds a successful result from a value.
func Match[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Fail builds a failed result.
func Fail[T any]() Result[T] {
	return Result[T]{}
}

// OK reports whether the match succeeded.
func (r Result[T]) OK() bool { return r.ok }

// Value returns the matched value.  It is the zero value of T when
// the match failed; use Get or OK when that matters.
func (r Result[T]) Value() T { return r.value }

// Get returns the matched value alongside the success flag.
func (r Result[T]) Get() (T, bool) { return r.value, r.ok }

// Unit is the return type of rules that declare none.
type Unit struct{}

// Any matches any single byte.  It fails at the end of the input and
// never advances the position on failure.
func Any(ps *State) Result[byte] {
	c, err := ps.At(ps.Pos)
	if err != nil || c == EOF {
		return Fail[byte]()
	}
	ps.Pos++
	return Match(c)
}

// Matches consumes one byte equal to c.
func Matches(ps *State, c byte) Result[byte] {
	got, err := ps.At(ps.Pos)
	if err != nil || got != c {
		return Fail[byte]()
	}
	ps.Pos++
	return Match(c)
}

// InRange consumes one byte within [lo, hi].
func InRange(ps *State, lo, hi byte) Result[byte] {
	c, err := ps.At(ps.Pos)
	if err != nil || c < lo || c > hi {
		return Fail[byte]()
	}
	ps.Pos++
	return Match(c)
}

// Bind invokes matcher and, on success, stores its value through v.
// It reports the success flag, leaving the position untouched when
// the matcher failed.
func Bind[T any](matcher func(*State) Result[T], ps *State, v *T) bool {
	res := matcher(ps)
	if val, ok := res.Get(); ok {
		*v = val
		return true
	}
	return false
}
