package terminology

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clindoc/clindoc/internal/platform/telemetry"
)

func testCatalogue() *MemoryCatalogue {
	cat := NewMemoryCatalogue()
	cat.AddConcept(Concept{Code: "373270004", CodeSystem: SystemSNOMED, Display: "Penicillin"})
	cat.AddConcept(Concept{Code: "1191", CodeSystem: SystemRxNorm, Display: "Aspirin"})
	cat.AddConcept(Concept{Code: "48765-2", CodeSystem: SystemLOINC, Display: "Allergies and adverse reactions"})
	cat.AddTranslation("373270004", SystemSNOMED, "fr", "Pénicilline")
	cat.AddTranslation("48765-2", SystemLOINC, "de", "Allergien und unerwünschte Reaktionen")
	return cat
}

func newTestResolver(cat CatalogueRepository) (*Resolver, *telemetry.Metrics) {
	m := telemetry.New()
	return NewResolver(cat, zerolog.Nop(), m), m
}

func TestResolve_ExactMatch(t *testing.T) {
	r, _ := newTestResolver(testCatalogue())
	res := r.Resolve(context.Background(), "373270004", SystemSNOMED, "", "")
	if !res.Matched || res.Display != "Penicillin" || res.Source != SourceExact {
		t.Errorf("unexpected resolution %+v", res)
	}
}

func TestResolve_TranslationApplied(t *testing.T) {
	r, _ := newTestResolver(testCatalogue())
	res := r.Resolve(context.Background(), "373270004", SystemSNOMED, "", "fr")
	if res.Display != "Pénicilline" || !res.Translated {
		t.Errorf("expected French translation, got %+v", res)
	}

	// No translation row: canonical display is kept, untranslated.
	res = r.Resolve(context.Background(), "373270004", SystemSNOMED, "", "it")
	if res.Display != "Penicillin" || res.Translated {
		t.Errorf("expected canonical fallback, got %+v", res)
	}
}

func TestResolve_AnySystemMatch(t *testing.T) {
	r, _ := newTestResolver(testCatalogue())
	res := r.Resolve(context.Background(), "1191", "2.16.840.1.113883.6.999", "", "")
	if !res.Matched || res.Display != "Aspirin" || res.Source != SourceAnySystem {
		t.Errorf("unexpected resolution %+v", res)
	}
}

func TestResolve_FuzzyDisplayMatch(t *testing.T) {
	r, _ := newTestResolver(testCatalogue())
	res := r.Resolve(context.Background(), "nosuchcode", "", "penicillin", "")
	if !res.Matched || res.Display != "Penicillin" || res.Source != SourceFuzzy {
		t.Errorf("unexpected resolution %+v", res)
	}
}

func TestResolve_FixedTable(t *testing.T) {
	r, m := newTestResolver(NewMemoryCatalogue())
	res := r.Resolve(context.Background(), "20053000", SystemEDQM, "", "")
	if res.Display != "Oral use" || res.Source != SourceFixedTable {
		t.Errorf("unexpected resolution %+v", res)
	}
	if m.Get(telemetry.CounterTerminologyMiss) != 1 {
		t.Error("catalogue miss must be counted")
	}
}

func TestResolve_RawDisplayFallback(t *testing.T) {
	r, _ := newTestResolver(NewMemoryCatalogue())
	res := r.Resolve(context.Background(), "xyz-1", "", "Custom substance", "")
	if res.Display != "Custom substance" || res.Source != SourceRawDisplay {
		t.Errorf("unexpected resolution %+v", res)
	}
}

func TestResolve_CodePassthrough_NeverEmpty(t *testing.T) {
	r, _ := newTestResolver(NewMemoryCatalogue())
	res := r.Resolve(context.Background(), "xyz-1", "some-system", "", "")
	if res.Display != "xyz-1" || res.Source != SourcePassthrough {
		t.Errorf("expected code passthrough, got %+v", res)
	}

	// All-empty input is the only case with an empty display.
	res = r.Resolve(context.Background(), "", "", "", "fr")
	if res.Display != "" {
		t.Errorf("expected empty resolution for empty input, got %+v", res)
	}
}

func TestResolve_NilMetricsSafe(t *testing.T) {
	r := NewResolver(NewMemoryCatalogue(), zerolog.Nop(), nil)
	res := r.Resolve(context.Background(), "abc", "", "", "")
	if res.Display != "abc" {
		t.Errorf("unexpected resolution %+v", res)
	}
}
