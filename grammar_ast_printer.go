package egg

import "strings"

// PrintGrammar re-emits a grammar in Egg syntax.  It is the dual of
// the code generators, useful for inspecting what the parser and the
// normalizer produced.
func PrintGrammar(g *Grammar) string {
	var b strings.Builder
	if g.Pre != "" {
		b.WriteString("{")
		b.WriteString(g.Pre)
		b.WriteString("}\n\n")
	}
	for _, r := range g.Rules {
		b.WriteString(r.Text())
		b.WriteString("\n")
	}
	if g.Post != "" {
		b.WriteString("\n{")
		b.WriteString(g.Post)
		b.WriteString("}\n")
	}
	return b.String()
}
