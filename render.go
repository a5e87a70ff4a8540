package equations

import (
	"slices"
	"strings"
)

// Splice is text to insert before the token at Offset in the alternating
// operand and operator tokens of an expression. Operand k is token 2k, so a
// bracket opening before operand k goes at 2k and one closing after it goes
// at 2k+1.
type Splice struct {
	Offset int
	Text   string
}

type layoutKey struct {
	structure string
	selection string
	name      string
	n         int
}

// render returns the splices that bracket n operands according to s, highest
// offset first.
func (c *Cache) render(s Structure, n int) []Splice {
	return c.renderUnary(s, Structure{}, "", n)
}

// renderUnary is like render, but the pairs in sel are opened with a call to
// the named function. sel may also contain the pair around all n operands and
// pairs around single operands, which add their own brackets.
func (c *Cache) renderUnary(s, sel Structure, name string, n int) []Splice {
	key := layoutKey{s.key, sel.key, name, n}
	if v, ok := c.get(c.layouts, key); ok {
		return v.([]Splice)
	}
	r := layout(s, sel, name, n)
	c.add(c.layouts, key, r)
	return r
}

func layout(s, sel Structure, name string, n int) []Splice {
	text := make([]string, 2*n)
	call := name + "("
	// Pairs are ordered with outer pairs first, so opens that share an offset
	// read outer to inner.
	for _, p := range s.pairs {
		if sel.Has(p) {
			text[2*p.Left] += call
		} else {
			text[2*p.Left] += "("
		}
		text[2*p.Right-1] += ")"
	}
	whole := Pair{0, n}
	if sel.Has(whole) {
		text[0] = call + text[0]
		text[2*n-1] += ")"
	}
	for _, p := range sel.pairs {
		// With one operand, the whole expression is also the single operand.
		// It is wrapped once.
		if p.Right-p.Left != 1 || p == whole {
			continue
		}
		text[2*p.Left] += call
		text[2*p.Right-1] = ")" + text[2*p.Right-1]
	}
	var r []Splice
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] != "" {
			r = append(r, Splice{Offset: i, Text: text[i]})
		}
	}
	return r
}

// splice inserts splices into tokens, which it may modify, and joins the
// result.
func splice(tokens []string, splices []Splice) string {
	for _, sp := range splices {
		tokens = slices.Insert(tokens, sp.Offset, sp.Text)
	}
	return strings.Join(tokens, "")
}
