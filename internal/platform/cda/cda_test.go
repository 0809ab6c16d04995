package cda

import (
	"strings"
	"testing"
)

const minimalCDA = `<?xml version="1.0"?>
<ClinicalDocument xmlns="urn:hl7-org:v3">
  <realmCode code="PT"/>
  <code code="60591-5" codeSystem="2.16.840.1.113883.6.1"/>
  <title>Patient Summary</title>
  <languageCode code="pt-PT"/>
  <component>
    <structuredBody>
      <component>
        <section>
          <code code="48765-2" codeSystem="2.16.840.1.113883.6.1"/>
          <title>Alergias</title>
          <entry>
            <act classCode="ACT" moodCode="EVN">
              <statusCode code="active"/>
            </act>
          </entry>
        </section>
      </component>
      <component>
        <section>
          <code code="10160-0" codeSystem="2.16.840.1.113883.6.1"/>
          <title>Medicamentos</title>
          <component>
            <section>
              <code code="30954-2" codeSystem="2.16.840.1.113883.6.1"/>
              <title>Resultados</title>
            </section>
          </component>
        </section>
      </component>
    </structuredBody>
  </component>
</ClinicalDocument>`

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ContentKind
	}{
		{"structured", minimalCDA, KindStructured},
		{"structured with prefix", `<hl7:ClinicalDocument xmlns:hl7="urn:hl7-org:v3"/>`, KindStructured},
		{"rendered html", `<html><body><table><tr><td>x</td></tr></table></body></html>`, KindRendered},
		{"rendered div", `<div class="section"><h2>Allergies</h2></div>`, KindRendered},
		{"bare markup", `<record><field/></record>`, KindRendered},
		{"garbage", "not markup at all", KindUnknown},
		{"empty", "   ", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.content); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHash_DeterministicAndDistinct(t *testing.T) {
	a := Hash(minimalCDA)
	b := Hash(minimalCDA)
	if a != b {
		t.Error("identical content must hash identically")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if Hash(minimalCDA+" ") == a {
		t.Error("different content must hash differently")
	}
}

func TestParse_SectionsFlattensNested(t *testing.T) {
	doc, err := Parse(minimalCDA)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sections := doc.Sections()
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections (nested flattened), got %d", len(sections))
	}
	if sections[0].Code.Code != LOINCAllergies {
		t.Errorf("expected allergies first, got %s", sections[0].Code.Code)
	}
	if sections[2].Code.Code != LOINCResults {
		t.Errorf("expected nested results section last, got %s", sections[2].Code.Code)
	}
	if doc.Language() != "pt-PT" {
		t.Errorf("expected language pt-PT, got %q", doc.Language())
	}
	if doc.Country() != "PT" {
		t.Errorf("expected country PT, got %q", doc.Country())
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("this is not xml"); err == nil {
		t.Error("expected error for non-markup content")
	}
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestBestDisplay_FallbackOrder(t *testing.T) {
	c := &Code{DisplayName: "Penicillin"}
	if got := c.BestDisplay(); got != "Penicillin" {
		t.Errorf("expected displayName, got %q", got)
	}

	c = &Code{OriginalText: &OriginalText{Text: "  penicilina  "}}
	if got := c.BestDisplay(); got != "penicilina" {
		t.Errorf("expected trimmed originalText, got %q", got)
	}

	c = &Code{Translations: []Code{{Code: "x"}, {DisplayName: "Penicillin V"}}}
	if got := c.BestDisplay(); got != "Penicillin V" {
		t.Errorf("expected translation displayName, got %q", got)
	}

	if got := (&Code{}).BestDisplay(); got != "" {
		t.Errorf("expected empty display, got %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("20240115103000"); got != "2024-01-15" {
		t.Errorf("got %q", got)
	}
	if got := FormatDate("2024"); got != "2024" {
		t.Errorf("short values pass through, got %q", got)
	}
}

func TestParseTree_Rendered(t *testing.T) {
	root, err := ParseTree(`<div><table><tr><th>Drug</th></tr><tr><td>Aspirin</td></tr></table></div>`, KindRendered)
	if err != nil {
		t.Fatalf("parse tree failed: %v", err)
	}
	if root.Name != "div" {
		t.Errorf("expected div root, got %q", root.Name)
	}
}

func TestFullName(t *testing.T) {
	n := &PersonName{Prefixes: []string{"Dr."}, Given: []string{"Ana"}, Family: []string{"Silva"}}
	if got := n.FullName(); got != "Dr. Ana Silva" {
		t.Errorf("got %q", got)
	}
	n = &PersonName{Text: "  Flat Name  "}
	if got := n.FullName(); got != "Flat Name" {
		t.Errorf("got %q", got)
	}
}

func TestNarrativeTableHelpers(t *testing.T) {
	doc := `<ClinicalDocument xmlns="urn:hl7-org:v3"><component><structuredBody><component><section>
  <code code="10160-0"/>
  <text><table>
    <thead><tr><th>Medication</th><th>Dose</th></tr></thead>
    <tbody><tr><td>Aspirin</td><td>100 mg</td></tr></tbody>
  </table></text>
</section></component></structuredBody></component></ClinicalDocument>`
	d, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sec := d.Sections()[0]
	if sec.Text == nil || len(sec.Text.Tables) != 1 {
		t.Fatal("expected one narrative table")
	}
	tab := sec.Text.Tables[0]
	hdr := tab.HeaderRow()
	if len(hdr) != 2 || hdr[0] != "Medication" {
		t.Fatalf("unexpected header row %v", hdr)
	}
	rows := tab.AllRows()
	if len(rows) != 1 || len(rows[0].Cells) != 2 {
		t.Fatalf("unexpected rows %v", rows)
	}
	if got := rows[0].Cells[0].CellText(); !strings.Contains(got, "Aspirin") {
		t.Errorf("unexpected cell text %q", got)
	}
}
