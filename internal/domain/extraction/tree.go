package extraction

import (
	"strings"

	"github.com/clindoc/clindoc/internal/platform/pathexpr"
)

// treeSection pairs a parsed section element with its code and title.
type treeSection struct {
	Code  string
	Title string
	Node  *pathexpr.Node
}

// sectionNodes walks the parsed tree and returns every section element,
// including sections nested inside component wrappers.
func sectionNodes(tree *pathexpr.Node) []treeSection {
	if tree == nil {
		return nil
	}
	var out []treeSection
	for _, n := range tree.Descendants("section") {
		s := treeSection{Node: n}
		if c := n.Child("code"); c != nil {
			s.Code = c.Attr("code")
		}
		if t := n.Child("title"); t != nil {
			s.Title = strings.TrimSpace(t.DeepText())
		}
		out = append(out, s)
	}
	return out
}

// findSection returns the first section with the given code, or nil.
func findSection(tree *pathexpr.Node, code string) *treeSection {
	for _, s := range sectionNodes(tree) {
		if s.Code == code {
			sec := s
			return &sec
		}
	}
	return nil
}

// entryNodes returns the entry elements of a section, treating the section
// itself as a single pseudo-entry when it has none.
func entryNodes(section *pathexpr.Node) []*pathexpr.Node {
	entries := section.ChildrenNamed("entry")
	if len(entries) == 0 {
		return []*pathexpr.Node{section}
	}
	return entries
}
