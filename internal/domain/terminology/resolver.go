package terminology

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clindoc/clindoc/internal/platform/telemetry"
)

// Resolver turns raw clinical codes into display text. It never fails: every
// rung of the resolution ladder that misses falls through to the next, and
// the last rungs are pure passthrough, so a non-empty input always yields a
// non-empty display.
type Resolver struct {
	catalogue CatalogueRepository
	logger    zerolog.Logger
	metrics   *telemetry.Metrics
}

// NewResolver creates a resolver over a catalogue. metrics may be nil.
func NewResolver(catalogue CatalogueRepository, logger zerolog.Logger, metrics *telemetry.Metrics) *Resolver {
	return &Resolver{catalogue: catalogue, logger: logger, metrics: metrics}
}

// Resolve resolves a code (with optional code system and raw display text)
// to the best available display string in the requested language.
//
// Ladder: exact (code, system) match; code match across systems; fuzzy match
// on the raw display text; the fixed table of otherwise unresolvable codes;
// raw display passthrough; code passthrough.
func (r *Resolver) Resolve(ctx context.Context, code, codeSystem, rawDisplay, language string) Resolution {
	code = strings.TrimSpace(code)
	rawDisplay = strings.TrimSpace(rawDisplay)

	if code != "" && codeSystem != "" {
		if c, err := r.catalogue.LookupConcept(ctx, code, codeSystem); err == nil {
			return r.translated(ctx, c, language, SourceExact)
		}
	}
	if code != "" {
		if c, err := r.catalogue.LookupAnySystem(ctx, code); err == nil {
			return r.translated(ctx, c, language, SourceAnySystem)
		}
	}
	if rawDisplay != "" {
		if c := r.fuzzyMatch(ctx, rawDisplay); c != nil {
			return r.translated(ctx, c, language, SourceFuzzy)
		}
	}

	r.metrics.Inc(telemetry.CounterTerminologyMiss)

	if display, ok := fixedDisplays[code]; ok {
		return Resolution{Display: display, Source: SourceFixedTable}
	}
	// Strategies that read a code attribute into the raw slot still deserve
	// the fixed table.
	if display, ok := fixedDisplays[rawDisplay]; ok {
		return Resolution{Display: display, Source: SourceFixedTable}
	}
	if rawDisplay != "" {
		return Resolution{Display: rawDisplay, Source: SourceRawDisplay}
	}
	if code != "" {
		r.logger.Debug().Str("code", code).Str("system", codeSystem).
			Msg("terminology resolution fell through to code passthrough")
		return Resolution{Display: code, Source: SourcePassthrough}
	}
	return Resolution{}
}

// translated attempts the per-language translation of a matched concept;
// an absent translation keeps the canonical display.
func (r *Resolver) translated(ctx context.Context, c *Concept, language, source string) Resolution {
	res := Resolution{Display: c.Display, Matched: true, Source: source}
	if language == "" {
		return res
	}
	display, err := r.catalogue.LookupTranslation(ctx, c.Code, c.CodeSystem, language)
	if err == nil && display != "" {
		res.Display = display
		res.Translated = true
	}
	return res
}

// fuzzyMatch looks the raw display text up in the catalogue and accepts a
// hit only when one side contains the other, to keep substring search from
// resolving to an unrelated concept.
func (r *Resolver) fuzzyMatch(ctx context.Context, rawDisplay string) *Concept {
	candidates, err := r.catalogue.SearchDisplay(ctx, rawDisplay, 5)
	if err != nil || len(candidates) == 0 {
		return nil
	}
	needle := strings.ToLower(rawDisplay)
	for _, c := range candidates {
		hay := strings.ToLower(c.Display)
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return c
		}
	}
	return nil
}

// fixedDisplays is the last-resort table of section, route, form, and
// frequency codes that no catalogue carries. It is deliberately small and
// consulted only after every catalogue rung has missed.
var fixedDisplays = map[string]string{
	// LOINC section codes
	"48765-2": "Allergies and Intolerances",
	"10160-0": "Medication Summary",
	"11450-4": "Problem List",
	"47519-4": "History of Procedures",
	"11369-6": "Immunizations",
	"8716-3":  "Vital Signs",
	"46264-8": "Medical Devices",
	"30954-2": "Results",
	"29762-2": "Social History",
	"18776-5": "Plan of Care",
	// EDQM routes
	"20053000": "Oral use",
	"20066000": "Subcutaneous use",
	"20045000": "Intravenous use",
	"20035000": "Intramuscular use",
	// EDQM dose forms
	"10219000": "Tablet",
	"10221000": "Capsule",
	"11201000": "Solution for injection",
	// Administration frequency
	"BID": "Twice a day",
	"TID": "Three times a day",
	"QD":  "Once a day",
	"PRN": "As needed",
}
