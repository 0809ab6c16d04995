package terminology

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func newTestTranslator(cat CatalogueRepository) *TitleTranslator {
	return NewTitleTranslator(NewResolver(cat, zerolog.Nop(), nil), cat)
}

func TestTranslateTitle_BySectionCode(t *testing.T) {
	cat := testCatalogue()
	tr := newTestTranslator(cat)

	got := tr.TranslateTitle(context.Background(), "48765-2", "Alergias", "de")
	if got.Original != "Alergias" {
		t.Errorf("original must be preserved, got %q", got.Original)
	}
	if got.Translated != "Allergien und unerwünschte Reaktionen" {
		t.Errorf("expected German section title, got %q", got.Translated)
	}
}

func TestTranslateTitle_SectionCodeFixedTable(t *testing.T) {
	tr := newTestTranslator(NewMemoryCatalogue())
	got := tr.TranslateTitle(context.Background(), "10160-0", "Farmaci", "en")
	if got.Translated != "Medication Summary" {
		t.Errorf("expected fixed-table section title, got %q", got.Translated)
	}
}

func TestTranslateTitle_KeywordLevel(t *testing.T) {
	cat := NewMemoryCatalogue()
	cat.AddConcept(Concept{Code: "387517004", CodeSystem: SystemSNOMED, Display: "Paracetamol"})
	cat.AddTranslation("387517004", SystemSNOMED, "en", "Acetaminophen")
	tr := newTestTranslator(cat)

	got := tr.TranslateTitle(context.Background(), "", "Historial de Paracetamol", "en")
	if got.Translated != "Historial de Acetaminophen" {
		t.Errorf("expected keyword translation, got %q", got.Translated)
	}
}

func TestTranslateTitle_FallsBackToOriginal(t *testing.T) {
	tr := newTestTranslator(NewMemoryCatalogue())
	got := tr.TranslateTitle(context.Background(), "", "Título desconhecido", "en")
	if got.Translated != "Título desconhecido" {
		t.Errorf("expected unchanged title, got %q", got.Translated)
	}
}
