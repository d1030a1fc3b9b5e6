package egg

// Normalize rewrites every rule body of g into canonical form, in
// place.  The rewrite preserves PEG semantics: ordering of choice,
// greediness of repetition and failure points are unchanged, and
// semantic actions keep their exact position between their neighbors.
func Normalize(g *Grammar) {
	for _, r := range g.Rules {
		r.Body = normalize(r.Body)
	}
}

// normalize canonicalizes a matcher bottom-up, applying the rewrite
// rules at each node until fixpoint.
func normalize(m Matcher) Matcher {
	switch n := m.(type) {
	case *OptMatcher:
		n.M = normalize(n.M)
	case *ManyMatcher:
		n.M = normalize(n.M)
	case *SomeMatcher:
		n.M = normalize(n.M)
	case *LookMatcher:
		n.M = normalize(n.M)
	case *NotMatcher:
		n.M = normalize(n.M)
	case *CaptMatcher:
		n.M = normalize(n.M)
	case *SeqMatcher:
		for i, item := range n.Items {
			n.Items[i] = normalize(item)
		}
	case *AltMatcher:
		for i, item := range n.Items {
			n.Items[i] = normalize(item)
		}
	}

	for {
		next, changed := rewrite(m)
		if !changed {
			return m
		}
		m = next
	}
}

// rewrite applies one round of the canonicalization rules to a node
// whose children are already normalized.  It reports whether anything
// changed.
func rewrite(m Matcher) (Matcher, bool) {
	switch n := m.(type) {
	case *StrMatcher:
		// a zero-length literal is the empty matcher
		if n.S == "" {
			return NewEmptyMatcher(), true
		}

	case *OptMatcher:
		if isEmpty(n.M) {
			return NewEmptyMatcher(), true
		}

	case *ManyMatcher:
		if isEmpty(n.M) {
			return NewEmptyMatcher(), true
		}

	case *SomeMatcher:
		if isEmpty(n.M) {
			return NewEmptyMatcher(), true
		}

	case *LookMatcher:
		if isEmpty(n.M) {
			return NewEmptyMatcher(), true
		}

	case *NotMatcher:
		// Not(Empty) always fails; it already is the canonical
		// always-fail matcher, so no rewrite applies.

	case *SeqMatcher:
		return rewriteSeq(n)

	case *AltMatcher:
		return rewriteAlt(n)
	}
	return m, false
}

func rewriteSeq(n *SeqMatcher) (Matcher, bool) {
	changed := false

	// splice nested sequences
	items := make([]Matcher, 0, len(n.Items))
	for _, item := range n.Items {
		if sub, ok := item.(*SeqMatcher); ok {
			items = append(items, sub.Items...)
			changed = true
			continue
		}
		items = append(items, item)
	}

	// merge adjacent character atoms.  Actions and bound rule
	// references sit between their neighbors, so adjacency never
	// crosses them.
	merged := make([]Matcher, 0, len(items))
	for _, item := range items {
		if len(merged) > 0 {
			if lit, ok := mergeLiterals(merged[len(merged)-1], item); ok {
				merged[len(merged)-1] = lit
				changed = true
				continue
			}
		}
		merged = append(merged, item)
	}

	switch len(merged) {
	case 0:
		return NewEmptyMatcher(), true
	case 1:
		return merged[0], true
	}
	n.Items = merged
	return n, changed
}

func rewriteAlt(n *AltMatcher) (Matcher, bool) {
	changed := false

	// splice nested alternations
	items := make([]Matcher, 0, len(n.Items))
	for _, item := range n.Items {
		if sub, ok := item.(*AltMatcher); ok {
			items = append(items, sub.Items...)
			changed = true
			continue
		}
		items = append(items, item)
	}

	// fuse adjacent character classes and single characters; a
	// character with no fusable neighbor stays a character
	merged := make([]Matcher, 0, len(items))
	for _, item := range items {
		if len(merged) > 0 {
			left, lok := asRanges(merged[len(merged)-1])
			right, rok := asRanges(item)
			if lok && rok {
				merged[len(merged)-1] = unionRanges(NewRangeMatcher(left...), right)
				changed = true
				continue
			}
		}
		merged = append(merged, item)
	}

	if len(merged) == 1 {
		return merged[0], true
	}
	n.Items = merged
	return n, changed
}

// mergeLiterals combines two neighboring literal matchers into one
// string matcher, when both are literals.
func mergeLiterals(a, b Matcher) (Matcher, bool) {
	left, ok := literalText(a)
	if !ok {
		return nil, false
	}
	right, ok := literalText(b)
	if !ok {
		return nil, false
	}
	return NewStrMatcher(left + right), true
}

func literalText(m Matcher) (string, bool) {
	switch n := m.(type) {
	case *CharMatcher:
		return string(n.C), true
	case *StrMatcher:
		return n.S, true
	}
	return "", false
}

// asRanges views a matcher as a character-range list: a class as its
// ranges, a single character as the singleton interval.
func asRanges(m Matcher) ([]CharRange, bool) {
	switch n := m.(type) {
	case *RangeMatcher:
		return n.Ranges, true
	case *CharMatcher:
		return []CharRange{{Lo: n.C, Hi: n.C}}, true
	}
	return nil, false
}

// unionRanges extends prev with the given intervals, preserving
// insertion order and fusing neighbors that overlap or touch.
func unionRanges(prev *RangeMatcher, ranges []CharRange) *RangeMatcher {
	out := append([]CharRange{}, prev.Ranges...)
	for _, r := range ranges {
		out = append(out, r)
		for len(out) > 1 {
			a, b := out[len(out)-2], out[len(out)-1]
			if int(b.Lo) > int(a.Hi)+1 || int(b.Hi) < int(a.Lo)-1 {
				break
			}
			if b.Lo < a.Lo {
				a.Lo = b.Lo
			}
			if b.Hi > a.Hi {
				a.Hi = b.Hi
			}
			out = append(out[:len(out)-2], a)
		}
	}
	return NewRangeMatcher(out...)
}

func isEmpty(m Matcher) bool {
	_, ok := m.(*EmptyMatcher)
	return ok
}
