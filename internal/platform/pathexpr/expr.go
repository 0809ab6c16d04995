package pathexpr

import (
	"fmt"
	"strings"
)

// Expr is a compiled path expression.
type Expr struct {
	raw     string
	descend bool
	steps   []step
	attr    string // terminal @attr, "" when the expression yields text
}

type step struct {
	name      string
	predAttr  string // optional [@attr='value'] predicate
	predValue string
}

// Compile parses a path expression. Supported grammar:
//
//	expr   := ('.//' | '//')? step ('/' step)* ('/' terminal)?
//	step   := name pred? | '*' pred?
//	pred   := '[@' name '=' '\'' value '\'' ']'
//	terminal := '@' name | 'text()'
func Compile(raw string) (*Expr, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("pathexpr: empty expression")
	}

	e := &Expr{raw: raw}
	switch {
	case strings.HasPrefix(s, ".//"):
		e.descend = true
		s = s[3:]
	case strings.HasPrefix(s, "//"):
		e.descend = true
		s = s[2:]
	case strings.HasPrefix(s, "./"):
		s = s[2:]
	}

	for _, part := range strings.Split(s, "/") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("pathexpr: empty step in %q", raw)
		}
		if strings.HasPrefix(part, "@") {
			e.attr = part[1:]
			if e.attr == "" {
				return nil, fmt.Errorf("pathexpr: empty attribute name in %q", raw)
			}
			continue
		}
		if part == "text()" {
			continue
		}
		st, err := parseStep(part)
		if err != nil {
			return nil, fmt.Errorf("pathexpr: %w in %q", err, raw)
		}
		e.steps = append(e.steps, st)
	}
	return e, nil
}

func parseStep(part string) (step, error) {
	st := step{name: part}
	open := strings.IndexByte(part, '[')
	if open < 0 {
		return st, nil
	}
	if !strings.HasSuffix(part, "]") {
		return st, fmt.Errorf("unterminated predicate %q", part)
	}
	pred := part[open+1 : len(part)-1]
	st.name = part[:open]
	if !strings.HasPrefix(pred, "@") {
		return st, fmt.Errorf("unsupported predicate %q", pred)
	}
	eq := strings.IndexByte(pred, '=')
	if eq < 0 {
		return st, fmt.Errorf("predicate %q has no comparison", pred)
	}
	st.predAttr = pred[1:eq]
	st.predValue = strings.Trim(pred[eq+1:], "'\"")
	return st, nil
}

// Nodes returns all element nodes matched by the expression's steps,
// in document order, relative to ctx.
func (e *Expr) Nodes(ctx *Node) []*Node {
	if ctx == nil || len(e.steps) == 0 {
		return nil
	}

	var current []*Node
	first := e.steps[0]
	if e.descend {
		for _, d := range ctx.Descendants(first.name) {
			if first.matches(d) {
				current = append(current, d)
			}
		}
	} else {
		for _, c := range ctx.Children {
			if (first.name == "*" || c.Name == first.name) && first.matches(c) {
				current = append(current, c)
			}
		}
	}

	for _, st := range e.steps[1:] {
		var next []*Node
		for _, n := range current {
			for _, c := range n.Children {
				if (st.name == "*" || c.Name == st.name) && st.matches(c) {
					next = append(next, c)
				}
			}
		}
		current = next
		if len(current) == 0 {
			break
		}
	}
	return current
}

func (st step) matches(n *Node) bool {
	if st.predAttr == "" {
		return true
	}
	return n.Attrs[st.predAttr] == st.predValue
}

// Strings evaluates the expression and returns the non-empty string values:
// the terminal attribute values, or element text when no terminal attribute
// was given.
func (e *Expr) Strings(ctx *Node) []string {
	var out []string
	for _, n := range e.Nodes(ctx) {
		var v string
		if e.attr != "" {
			v = n.Attrs[e.attr]
		} else {
			v = n.DeepText()
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// First returns the first non-empty value, or "".
func (e *Expr) First(ctx *Node) string {
	for _, n := range e.Nodes(ctx) {
		var v string
		if e.attr != "" {
			v = n.Attrs[e.attr]
		} else {
			v = n.DeepText()
		}
		if v != "" {
			return v
		}
	}
	return ""
}

// String returns the raw expression this Expr was compiled from.
func (e *Expr) String() string { return e.raw }

// Find compiles and evaluates expr against ctx. Invalid expressions yield
// nil; extraction callers treat that the same as a miss.
func Find(ctx *Node, expr string) []string {
	e, err := Compile(expr)
	if err != nil {
		return nil
	}
	return e.Strings(ctx)
}

// First compiles and evaluates expr, returning the first value or "".
func First(ctx *Node, expr string) string {
	e, err := Compile(expr)
	if err != nil {
		return ""
	}
	return e.First(ctx)
}

// FindNodes compiles and evaluates expr, returning matched element nodes.
func FindNodes(ctx *Node, expr string) []*Node {
	e, err := Compile(expr)
	if err != nil {
		return nil
	}
	return e.Nodes(ctx)
}
