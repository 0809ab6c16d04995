package extraction

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clindoc/clindoc/internal/domain/terminology"
	"github.com/clindoc/clindoc/internal/platform/cda"
	"github.com/clindoc/clindoc/internal/platform/docmap"
	"github.com/clindoc/clindoc/internal/platform/telemetry"
	"github.com/clindoc/clindoc/internal/schema"
)

// Service orchestrates the extraction pipeline: classification, the
// strategy chain, terminology resolution, and title translation. Process
// always returns a result; only an unparseable document marks it failed.
type Service struct {
	structured  []Strategy
	rendered    []Strategy
	resolver    *terminology.Resolver
	titles      *terminology.TitleTranslator
	metrics     *telemetry.Metrics
	logger      zerolog.Logger
	defaultLang string
}

// ServiceConfig wires the pipeline's collaborators. MapStore may be nil to
// run with per-request in-memory maps only.
type ServiceConfig struct {
	Schema          *schema.Schema
	MapStore        docmap.Store
	Resolver        *terminology.Resolver
	TitleTranslator *terminology.TitleTranslator
	Metrics         *telemetry.Metrics
	Logger          zerolog.Logger
	DefaultLanguage string
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Schema == nil {
		cfg.Schema = schema.Default()
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	return &Service{
		structured: []Strategy{
			NewCountryStrategy(cfg.Logger),
			NewDocMapStrategy(cfg.MapStore, cfg.Metrics, cfg.Logger),
			NewFieldMapStrategy(cfg.Schema, cfg.Metrics, cfg.Logger),
			NewGenericStrategy(),
		},
		rendered:    []Strategy{NewNarrativeStrategy()},
		resolver:    cfg.Resolver,
		titles:      cfg.TitleTranslator,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		defaultLang: cfg.DefaultLanguage,
	}
}

// Process runs one document through the pipeline.
func (s *Service) Process(ctx context.Context, req ProcessRequest) *ProcessingResult {
	result := &ProcessingResult{ID: uuid.NewString(), Sections: []Section{}}

	doc, perr := s.prepare(req)
	if perr != nil {
		s.metrics.Inc(telemetry.CounterDocsFailed)
		s.logger.Error().Str("id", result.ID).Str("kind", string(perr.Kind)).Msg(perr.Msg)
		result.Error = perr.Error()
		return result
	}

	sections, method := s.runChain(ctx, doc)
	if sections == nil {
		s.metrics.Inc(telemetry.CounterStrategyExhaust)
		sections = s.skeleton(doc)
		method = "none"
	}
	if doc.Kind == cda.KindStructured {
		s.narrativeFallback(sections, doc)
	}

	s.resolveFields(ctx, sections, doc.Language, result)
	s.translateTitles(ctx, sections, doc.Language)

	result.Success = true
	result.Method = method
	result.Sections = sections
	result.SectionCount = len(sections)
	for _, sec := range sections {
		result.EntryCount += len(sec.Entries)
		if sec.Code != "" {
			result.CodedSectionCount++
		}
	}

	s.metrics.Inc(telemetry.CounterDocsProcessed)
	if method != "none" {
		s.metrics.Inc("strategy_wins_" + method)
	}
	s.logger.Info().
		Str("id", result.ID).
		Str("method", method).
		Int("sections", result.SectionCount).
		Int("entries", result.EntryCount).
		Msg("document processed")
	return result
}

// prepare classifies and parses the input, building the immutable per-pass
// document view the strategies share.
func (s *Service) prepare(req ProcessRequest) (*document, *PipelineError) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, malformed("empty document content", nil)
	}

	kind := cda.Classify(content)
	if kind == cda.KindUnknown {
		return nil, malformed("content is not recognizable markup", nil)
	}

	doc := &document{
		Content:  content,
		Kind:     kind,
		Hash:     cda.Hash(content),
		Language: firstNonEmpty(req.Language, s.defaultLang),
		Country:  strings.ToUpper(req.Country),
	}

	tree, err := cda.ParseTree(content, kind)
	if err != nil {
		return nil, malformed("cannot parse document markup", err)
	}
	doc.Tree = tree

	if kind == cda.KindStructured {
		parsed, err := cda.Parse(content)
		if err != nil {
			return nil, malformed("cannot parse clinical document", err)
		}
		doc.Doc = parsed
		if doc.Country == "" {
			doc.Country = parsed.Country()
		}
	}
	return doc, nil
}

// runChain tries each applicable strategy in order and keeps the first
// output that carries clinical data.
func (s *Service) runChain(ctx context.Context, doc *document) ([]Section, string) {
	chain := s.structured
	if doc.Kind == cda.KindRendered {
		chain = s.rendered
	}
	for _, strat := range chain {
		sections, err := strat.Extract(ctx, doc)
		if err != nil {
			s.logger.Warn().Err(err).Str("strategy", strat.Name()).Msg("strategy failed, trying next")
			continue
		}
		if hasEntries(sections) {
			return sections, strat.Name()
		}
	}
	return nil, ""
}

// skeleton reports the document's section outline when no strategy could
// populate entries, so an empty-but-valid document still succeeds.
func (s *Service) skeleton(doc *document) []Section {
	var sections []Section
	for _, ts := range sectionNodes(doc.Tree) {
		sec := Section{Code: ts.Code, Category: CategoryForSection(ts.Code), Entries: []Entry{}}
		sec.Title.Original = ts.Title
		sections = append(sections, sec)
	}
	if sections == nil {
		sections = []Section{}
	}
	return sections
}

// narrativeFallback fills sections that ended up with no structured
// entries from their typed narrative block, when one exists.
func (s *Service) narrativeFallback(sections []Section, doc *document) {
	if doc.Doc == nil {
		return
	}
	byCode := make(map[string]*cda.Section)
	for _, cs := range doc.Doc.Sections() {
		if cs.Code != nil {
			byCode[cs.Code.Code] = cs
		}
	}
	for i := range sections {
		if len(sections[i].Entries) > 0 {
			continue
		}
		cs, ok := byCode[sections[i].Code]
		if !ok || cs.Text == nil {
			continue
		}
		sections[i].Entries = narrativeEntries(cs.Text, sections[i].Category)
	}
}

// resolveFields runs every field through the terminology resolver. A field
// with a code is resolved by code even when no display text was extracted;
// a translate-flagged field is resolved by display text; everything else
// keeps its raw value. Display is never left empty for a populated field.
func (s *Service) resolveFields(ctx context.Context, sections []Section, language string, result *ProcessingResult) {
	for si := range sections {
		for ei := range sections[si].Entries {
			entry := &sections[si].Entries[ei]
			for label, fv := range entry.Fields {
				if !fv.Populated() {
					continue
				}
				if s.resolver == nil || (!fv.HasValueSet && !fv.Translate && fv.Code == "") {
					fv.Display = firstNonEmpty(fv.Raw, fv.Code)
					entry.Fields[label] = fv
					continue
				}
				res := s.resolver.Resolve(ctx, fv.Code, fv.CodeSystem, fv.Raw, language)
				fv.Display = firstNonEmpty(res.Display, fv.Raw, fv.Code)
				if res.Matched {
					result.MedicalTermCount++
				}
				entry.Fields[label] = fv
			}
		}
	}
}

func (s *Service) translateTitles(ctx context.Context, sections []Section, language string) {
	if s.titles == nil {
		for i := range sections {
			sections[i].Title.Translated = sections[i].Title.Original
		}
		return
	}
	for i := range sections {
		sections[i].Title = s.titles.TranslateTitle(ctx, sections[i].Code, sections[i].Title.Original, language)
	}
}
