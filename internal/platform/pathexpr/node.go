// Package pathexpr provides a generic XML element tree and a small
// path-expression language for pulling values out of clinical documents.
// Expressions are a simplified XPath subset: '/'-separated child steps,
// '*' wildcards, an optional leading './/' descendant search, a single
// [@attr='value'] predicate per step, and a terminal '@attr' or 'text()'.
package pathexpr

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Node is one element in a parsed document tree. Namespaces are dropped;
// only local names are kept, which is what heterogeneous country dialects
// require (the same fact arrives with and without namespace prefixes).
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
	Parent   *Node
}

// Parse reads well-formed XML into a Node tree and returns the root element.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	return decode(dec)
}

// ParseLenient reads markup that may not be well-formed XML (rendered HTML
// narratives) by enabling the decoder's HTML auto-close and entity tables.
func ParseLenient(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	return decode(dec)
}

// ParseString is Parse over a string.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// ParseStringLenient is ParseLenient over a string.
func ParseStringLenient(s string) (*Node, error) {
	return ParseLenient(strings.NewReader(s))
}

func decode(dec *xml.Decoder) (*Node, error) {
	var root *Node
	var current *Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pathexpr: decode: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{
				Name:   t.Name.Local,
				Attrs:  make(map[string]string, len(t.Attr)),
				Parent: current,
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				n.Attrs[a.Name.Local] = a.Value
			}
			if current != nil {
				current.Children = append(current.Children, n)
			}
			if root == nil {
				root = n
			}
			current = n
		case xml.EndElement:
			if current != nil {
				current = current.Parent
			}
		case xml.CharData:
			if current != nil {
				text := strings.TrimSpace(string(t))
				if text != "" {
					if current.Text != "" {
						current.Text += " "
					}
					current.Text += text
				}
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("pathexpr: no root element found")
	}
	return root, nil
}

// Attr returns the value of an attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Child returns the first direct child with the given local name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct children with the given local name.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Descendants appends, in document order, every descendant (the node
// itself excluded) matching name ('*' matches any element).
func (n *Node) Descendants(name string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if name == "*" || c.Name == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// DeepText concatenates the node's own text with all descendant text.
func (n *Node) DeepText() string {
	if n == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	if n.Text != "" {
		parts = append(parts, n.Text)
	}
	for _, c := range n.Children {
		if t := c.DeepText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
