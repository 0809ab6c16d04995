// Package cda models HL7 CDA clinical documents and classifies raw content
// before extraction. It is purely structural: no schema or terminology
// knowledge lives here.
package cda

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/clindoc/clindoc/internal/platform/pathexpr"
)

// ContentKind is the detected kind of raw document content.
type ContentKind string

const (
	KindStructured ContentKind = "structured-markup"
	KindRendered   ContentKind = "rendered-markup"
	KindUnknown    ContentKind = "unknown"
)

// Classify sniffs raw content for structured-markup root markers versus
// rendered-markup markers. Markup without a clinical root is treated as
// rendered so that table recovery still gets a chance to run; content that
// is not markup at all is unknown.
func Classify(content string) ContentKind {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return KindUnknown
	}
	probe := trimmed
	if len(probe) > 4096 {
		probe = probe[:4096]
	}
	if strings.Contains(probe, "<ClinicalDocument") || strings.Contains(probe, ":ClinicalDocument") {
		return KindStructured
	}
	lower := strings.ToLower(probe)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<table") ||
		strings.Contains(lower, "<div") || strings.Contains(lower, "<body") {
		return KindRendered
	}
	if strings.HasPrefix(trimmed, "<") {
		return KindRendered
	}
	return KindUnknown
}

// Hash returns the SHA-256 content hash used to key document maps.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Parse unmarshals structured-markup content into the typed document model.
func Parse(content string) (*Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("cda: document content is empty")
	}
	var doc Document
	if err := xml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("cda: parse document: %w", err)
	}
	return &doc, nil
}

// ParseTree parses content into the generic node tree that path expressions
// evaluate against. Rendered markup is parsed leniently.
func ParseTree(content string, kind ContentKind) (*pathexpr.Node, error) {
	if kind == KindStructured {
		return pathexpr.ParseString(content)
	}
	return pathexpr.ParseStringLenient(content)
}

// Sections flattens the document's section components, descending into
// nested sub-sections in document order.
func (d *Document) Sections() []*Section {
	if d == nil || d.Component == nil || d.Component.StructuredBody == nil {
		return nil
	}
	var out []*Section
	var walk func(components []SectionComponent)
	walk = func(components []SectionComponent) {
		for _, comp := range components {
			if comp.Section == nil {
				continue
			}
			out = append(out, comp.Section)
			walk(comp.Section.Components)
		}
	}
	walk(d.Component.StructuredBody.Components)
	return out
}

// Language returns the document's declared language code, e.g. "fr-FR".
func (d *Document) Language() string {
	if d == nil || d.LanguageCode == nil {
		return ""
	}
	return d.LanguageCode.Code
}

// Country returns the document's realm country code when declared.
func (d *Document) Country() string {
	if d == nil || d.RealmCode == nil {
		return ""
	}
	return strings.ToUpper(d.RealmCode.Code)
}

// BestDisplay returns the most displayable text a coded value carries:
// displayName, then originalText, then the first translation's displayName.
func (c *Code) BestDisplay() string {
	if c == nil {
		return ""
	}
	if c.DisplayName != "" {
		return c.DisplayName
	}
	if c.OriginalText != nil && strings.TrimSpace(c.OriginalText.Text) != "" {
		return strings.TrimSpace(c.OriginalText.Text)
	}
	for _, tr := range c.Translations {
		if tr.DisplayName != "" {
			return tr.DisplayName
		}
	}
	return ""
}

// BestDisplay returns the most displayable text of an observation value.
func (v *Value) BestDisplay() string {
	if v == nil {
		return ""
	}
	if v.DisplayName != "" {
		return v.DisplayName
	}
	if v.OriginalText != nil && strings.TrimSpace(v.OriginalText.Text) != "" {
		return strings.TrimSpace(v.OriginalText.Text)
	}
	for _, tr := range v.Translations {
		if tr.DisplayName != "" {
			return tr.DisplayName
		}
	}
	if strings.TrimSpace(v.Text) != "" {
		return strings.TrimSpace(v.Text)
	}
	return ""
}

// FullName joins a person name's parts, falling back to flattened text.
func (n *PersonName) FullName() string {
	if n == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	parts = append(parts, n.Prefixes...)
	parts = append(parts, n.Given...)
	parts = append(parts, n.Family...)
	joined := strings.Join(parts, " ")
	if strings.TrimSpace(joined) != "" {
		return strings.Join(strings.Fields(joined), " ")
	}
	return strings.TrimSpace(n.Text)
}

// FormatDate converts an HL7 TS value (YYYYMMDD...) to YYYY-MM-DD.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 8 {
		return s[:4] + "-" + s[4:6] + "-" + s[6:8]
	}
	return s
}

// AllRows returns a narrative table's body rows regardless of whether the
// source nested them in a tbody.
func (t *NarrativeTable) AllRows() []NarrativeRow {
	var rows []NarrativeRow
	if t.Tbody != nil {
		rows = append(rows, t.Tbody.Rows...)
	}
	rows = append(rows, t.Rows...)
	return rows
}

// HeaderRow returns the table's header labels, from thead or the first row
// that carries th cells.
func (t *NarrativeTable) HeaderRow() []string {
	if t.Thead != nil && len(t.Thead.Rows) > 0 {
		return t.Thead.Rows[0].Headers
	}
	for _, r := range t.AllRows() {
		if len(r.Headers) > 0 {
			return r.Headers
		}
	}
	return nil
}

// CellText flattens a narrative cell to its text content.
func (c *NarrativeCell) CellText() string {
	text := strings.TrimSpace(c.Text)
	sub := strings.TrimSpace(c.Sub)
	switch {
	case text != "" && sub != "":
		return text + " " + sub
	case sub != "":
		return sub
	default:
		return text
	}
}
