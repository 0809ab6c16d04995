package extraction

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clindoc/clindoc/internal/platform/docmap"
	"github.com/clindoc/clindoc/internal/platform/pathexpr"
	"github.com/clindoc/clindoc/internal/platform/telemetry"
)

// DocMapStrategy extracts using a cached or freshly derived document map.
// The cache is an optimization only: any store failure is counted and the
// map is rebuilt in memory for this pass.
type DocMapStrategy struct {
	store   docmap.Store
	builder *docmap.Builder
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

func NewDocMapStrategy(store docmap.Store, metrics *telemetry.Metrics, logger zerolog.Logger) *DocMapStrategy {
	return &DocMapStrategy{
		store:   store,
		builder: docmap.NewBuilder(),
		metrics: metrics,
		logger:  logger,
	}
}

func (s *DocMapStrategy) Name() string { return "document-map" }

func (s *DocMapStrategy) Extract(ctx context.Context, doc *document) ([]Section, error) {
	if doc.Doc == nil || doc.Tree == nil {
		return nil, nil
	}

	m := s.loadOrBuild(ctx, doc)
	if m.Empty() {
		return nil, nil
	}

	var sections []Section
	for _, sm := range m.Sections {
		if len(sm.Patterns) == 0 {
			continue
		}
		ts := findSection(doc.Tree, sm.Code)
		if ts == nil {
			continue
		}
		sec := Section{Code: sm.Code, Category: CategoryForSection(sm.Code)}
		sec.Title.Original = firstNonEmpty(ts.Title, sm.Title)
		for _, node := range entryNodes(ts.Node) {
			if entry, ok := applyPatterns(node, sec.Category, sm.Patterns); ok {
				sec.Entries = append(sec.Entries, entry)
			}
		}
		sections = append(sections, sec)
	}

	if !hasEntries(sections) {
		return nil, nil
	}
	return sections, nil
}

// loadOrBuild fetches the map for the document's content hash, deriving and
// persisting a fresh one when absent. Never returns nil.
func (s *DocMapStrategy) loadOrBuild(ctx context.Context, doc *document) *docmap.DocumentMap {
	if s.store != nil {
		m, err := s.store.Get(ctx, doc.Hash)
		switch {
		case err == nil:
			return m
		case err != docmap.ErrNotFound:
			s.metrics.Inc(telemetry.CounterCacheUnavailable)
			s.logger.Warn().Err(err).Str("hash", doc.Hash).Msg("document map store unavailable, building in memory")
			return s.builder.Build(doc.Doc, doc.Hash)
		}
	}

	built := s.builder.Build(doc.Doc, doc.Hash)
	if s.store == nil {
		return built
	}
	stored, err := s.store.PutIfAbsent(ctx, doc.Hash, built)
	if err != nil {
		s.metrics.Inc(telemetry.CounterCacheUnavailable)
		s.logger.Warn().Err(err).Str("hash", doc.Hash).Msg("document map store rejected write")
		return built
	}
	return stored
}

// applyPatterns evaluates a section's derived patterns against one entry
// node. Companion patterns (`<label>_code`, `<label>_system`, `<label>_name`)
// fold into the base label's field, so a coded element without display text
// still yields a resolvable field. Entries that match nothing are dropped.
func applyPatterns(node *pathexpr.Node, category Category, patterns map[string]string) (Entry, bool) {
	entry := Entry{Category: category, Fields: make(map[string]FieldValue)}
	for label, path := range patterns {
		if companionLabel(label) {
			continue
		}
		fv := FieldValue{Raw: pathexpr.First(node, path), Translate: true}
		if fv.Raw == "" {
			if alt, ok := patterns[label+"_name"]; ok {
				fv.Raw = pathexpr.First(node, alt)
			}
		}
		fv.Code = pathexpr.First(node, patterns[label+"_code"])
		fv.CodeSystem = pathexpr.First(node, patterns[label+"_system"])
		fv.HasValueSet = fv.Code != ""
		entry.SetIfEmpty(label, fv)
	}
	if entry.Empty() {
		return Entry{}, false
	}
	return entry, true
}

func companionLabel(label string) bool {
	return strings.HasSuffix(label, "_code") ||
		strings.HasSuffix(label, "_system") ||
		strings.HasSuffix(label, "_name")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
