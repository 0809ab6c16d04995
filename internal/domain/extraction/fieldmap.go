package extraction

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clindoc/clindoc/internal/platform/pathexpr"
	"github.com/clindoc/clindoc/internal/platform/telemetry"
	"github.com/clindoc/clindoc/internal/schema"
)

// FieldMapStrategy drives extraction from the declarative mapping schema.
// Mappings sharing a label form ordered variants; the first variant whose
// path yields a value claims the label for that entry.
type FieldMapStrategy struct {
	schema  *schema.Schema
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

func NewFieldMapStrategy(s *schema.Schema, metrics *telemetry.Metrics, logger zerolog.Logger) *FieldMapStrategy {
	return &FieldMapStrategy{schema: s, metrics: metrics, logger: logger}
}

func (s *FieldMapStrategy) Name() string { return "field-mapper" }

func (s *FieldMapStrategy) Extract(ctx context.Context, doc *document) ([]Section, error) {
	if doc.Tree == nil {
		return nil, nil
	}

	var sections []Section
	for _, ts := range sectionNodes(doc.Tree) {
		mappings := s.schema.ForSection(ts.Code, doc.Country)
		sec := Section{Code: ts.Code, Category: CategoryForSection(ts.Code)}
		sec.Title.Original = ts.Title
		if len(mappings) > 0 {
			for _, node := range entryNodes(ts.Node) {
				if entry, ok := s.mapEntry(node, sec.Category, mappings); ok {
					sec.Entries = append(sec.Entries, entry)
				}
			}
		}
		sections = append(sections, sec)
	}

	if !hasEntries(sections) {
		return nil, nil
	}
	return sections, nil
}

// mapEntry applies every mapping to one entry node. A mapping whose display
// path misses still contributes when its code path hits. Entries where no
// mapping produced a value are dropped and counted as extraction misses.
func (s *FieldMapStrategy) mapEntry(node *pathexpr.Node, category Category, mappings []schema.FieldMapping) (Entry, bool) {
	entry := Entry{Category: category, Fields: make(map[string]FieldValue)}
	for _, m := range mappings {
		fv := FieldValue{
			Raw:         pathexpr.First(node, m.Path),
			Translate:   m.Translate,
			HasValueSet: m.ValueSet,
			CodeSystem:  m.CodeSystem,
		}
		if m.CodePath != "" {
			fv.Code = pathexpr.First(node, m.CodePath)
		}
		entry.SetIfEmpty(m.Label, fv)
	}
	if entry.Empty() {
		s.metrics.Inc(telemetry.CounterFieldMiss)
		return Entry{}, false
	}
	return entry, true
}
