package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/clindoc/clindoc/internal/platform/cda"
	"github.com/clindoc/clindoc/internal/platform/pathexpr"
)

// NarrativeStrategy is the rendered-markup fallback: it reads HTML-style
// tables out of the parsed tree and turns rows into entries, keyed by the
// header row. It is the only strategy that applies to documents without a
// structured clinical body.
type NarrativeStrategy struct{}

func NewNarrativeStrategy() *NarrativeStrategy { return &NarrativeStrategy{} }

func (s *NarrativeStrategy) Name() string { return "narrative-table" }

func (s *NarrativeStrategy) Extract(ctx context.Context, doc *document) ([]Section, error) {
	if doc.Tree == nil {
		return nil, nil
	}

	var sections []Section
	for _, table := range doc.Tree.Descendants("table") {
		if nearestAncestor(table, "table") != nil {
			continue
		}
		sec := Section{Category: CategoryGeneric}
		sec.Title.Original = tableTitle(table)
		sec.Category = categoryFromTitle(sec.Title.Original)
		sec.Entries = tableEntries(table, sec.Category)
		if len(sec.Entries) > 0 {
			sections = append(sections, sec)
		}
	}

	if !hasEntries(sections) {
		return nil, nil
	}
	return sections, nil
}

// tableEntries converts table rows into entries, using the header row for
// field labels and positional labels where no header exists. Rows belonging
// to a table nested inside a cell are left to that table's own pass.
func tableEntries(table *pathexpr.Node, category Category) []Entry {
	var headers []string
	var rows []*pathexpr.Node

	for _, tr := range table.Descendants("tr") {
		if nearestAncestor(tr, "table") != table {
			continue
		}
		ths := tr.ChildrenNamed("th")
		if len(ths) > 0 && headers == nil {
			for _, th := range ths {
				headers = append(headers, strings.TrimSpace(th.DeepText()))
			}
			continue
		}
		if len(tr.ChildrenNamed("td")) > 0 {
			rows = append(rows, tr)
		}
	}

	var entries []Entry
	for _, tr := range rows {
		entry := Entry{Category: category, Fields: make(map[string]FieldValue)}
		for i, td := range tr.ChildrenNamed("td") {
			raw := strings.TrimSpace(td.DeepText())
			if raw == "" {
				continue
			}
			entry.Fields[cellLabel(headers, i)] = FieldValue{Raw: raw, Translate: true}
		}
		if !entry.Empty() {
			entries = append(entries, entry)
		}
	}
	return entries
}

// narrativeEntries converts a structured section's typed narrative block
// into entries, for sections whose machine-readable entries are missing.
func narrativeEntries(text *cda.Narrative, category Category) []Entry {
	var entries []Entry
	for _, table := range text.Tables {
		headers := table.HeaderRow()
		for _, row := range table.AllRows() {
			if len(row.Cells) == 0 {
				continue
			}
			entry := Entry{Category: category, Fields: make(map[string]FieldValue)}
			for i, cell := range row.Cells {
				raw := strings.TrimSpace(cell.CellText())
				if raw == "" {
					continue
				}
				entry.Fields[cellLabel(headers, i)] = FieldValue{Raw: raw, Translate: true}
			}
			if !entry.Empty() {
				entries = append(entries, entry)
			}
		}
	}
	for _, list := range text.Lists {
		for _, item := range list.Items {
			if item = strings.TrimSpace(item); item != "" {
				entries = append(entries, Entry{
					Category: category,
					Fields:   map[string]FieldValue{"item": {Raw: item, Translate: true}},
				})
			}
		}
	}
	return entries
}

// nearestAncestor returns the closest ancestor element with the given name,
// or nil.
func nearestAncestor(n *pathexpr.Node, name string) *pathexpr.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func cellLabel(headers []string, i int) string {
	if i < len(headers) && headers[i] != "" {
		return strings.ToLower(strings.TrimSpace(headers[i]))
	}
	return fmt.Sprintf("col_%d", i+1)
}

// tableTitle looks for a caption, then the nearest preceding heading among
// the table's siblings.
func tableTitle(table *pathexpr.Node) string {
	if c := table.Child("caption"); c != nil {
		return strings.TrimSpace(c.DeepText())
	}
	parent := table.Parent
	if parent == nil {
		return ""
	}
	title := ""
	for _, sib := range parent.Children {
		if sib == table {
			break
		}
		switch sib.Name {
		case "h1", "h2", "h3", "h4", "title", "caption":
			title = strings.TrimSpace(sib.DeepText())
		}
	}
	return title
}

// categoryFromTitle guesses a clinical category from heading keywords; the
// guess only affects grouping, never resolution.
func categoryFromTitle(title string) Category {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "allerg"):
		return CategoryAllergy
	case strings.Contains(t, "medication"), strings.Contains(t, "medicat"), strings.Contains(t, "drug"):
		return CategoryMedication
	case strings.Contains(t, "problem"), strings.Contains(t, "diagnos"), strings.Contains(t, "condition"):
		return CategoryProblem
	case strings.Contains(t, "procedure"), strings.Contains(t, "surger"):
		return CategoryProcedure
	case strings.Contains(t, "immuni"), strings.Contains(t, "vaccin"):
		return CategoryImmunization
	case strings.Contains(t, "vital"):
		return CategoryVitalSign
	case strings.Contains(t, "device"), strings.Contains(t, "implant"):
		return CategoryDevice
	default:
		return CategoryGeneric
	}
}
