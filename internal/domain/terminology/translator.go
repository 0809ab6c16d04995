package terminology

import (
	"context"
	"strings"
)

// TitleTranslation pairs a section title with its resolved form.
type TitleTranslation struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// TitleTranslator resolves section titles and embedded medical terms through
// the catalogue. It intentionally holds no per-language title table; all
// translation flows through the resolver and catalogue so that display text
// stays consistent with entry-level terminology.
type TitleTranslator struct {
	resolver  *Resolver
	catalogue CatalogueRepository
}

// NewTitleTranslator creates a translator sharing the resolver's catalogue.
func NewTitleTranslator(resolver *Resolver, catalogue CatalogueRepository) *TitleTranslator {
	return &TitleTranslator{resolver: resolver, catalogue: catalogue}
}

// TranslateTitle resolves a section title in the requested language. It
// tries the section's vocabulary code first, then keyword-level translation
// of recognized clinical terms inside the title, and finally keeps the
// original unchanged.
func (t *TitleTranslator) TranslateTitle(ctx context.Context, sectionCode, originalTitle, language string) TitleTranslation {
	out := TitleTranslation{Original: originalTitle, Translated: originalTitle}

	if sectionCode != "" {
		res := t.resolver.Resolve(ctx, sectionCode, SystemLOINC, "", language)
		if res.Matched || res.Source == SourceFixedTable {
			out.Translated = res.Display
			return out
		}
	}

	if translated, ok := t.translateKeywords(ctx, originalTitle, language); ok {
		out.Translated = translated
	}
	return out
}

// translateKeywords replaces recognized clinical terms inside the title with
// their per-language catalogue translations. Returns false when no word was
// recognized.
func (t *TitleTranslator) translateKeywords(ctx context.Context, title, language string) (string, bool) {
	if strings.TrimSpace(title) == "" || language == "" {
		return title, false
	}
	words := strings.Fields(title)
	changed := false
	for i, w := range words {
		bare := strings.Trim(w, ".,;:()[]")
		if len(bare) < 4 {
			continue
		}
		concepts, err := t.catalogue.SearchDisplay(ctx, bare, 3)
		if err != nil {
			continue
		}
		for _, c := range concepts {
			if !strings.EqualFold(c.Display, bare) {
				continue
			}
			display, err := t.catalogue.LookupTranslation(ctx, c.Code, c.CodeSystem, language)
			if err == nil && display != "" {
				words[i] = strings.Replace(w, bare, display, 1)
				changed = true
			}
			break
		}
	}
	if !changed {
		return title, false
	}
	return strings.Join(words, " "), true
}
