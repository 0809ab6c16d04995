package extraction

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clindoc/clindoc/internal/domain/terminology"
	"github.com/clindoc/clindoc/internal/platform/docmap"
	"github.com/clindoc/clindoc/internal/platform/telemetry"
)

const summaryPT = `<ClinicalDocument xmlns="urn:hl7-org:v3">
  <realmCode code="PT"/>
  <languageCode code="pt-PT"/>
  <recordTarget><patientRole>
    <patient><name><given>Maria</given><family>Santos</family></name></patient>
  </patientRole></recordTarget>
  <component><structuredBody>
    <component><section>
      <code code="48765-2" codeSystem="2.16.840.1.113883.6.1"/>
      <title>Alergias</title>
      <entry><act classCode="ACT" moodCode="EVN">
        <statusCode code="active"/>
        <entryRelationship typeCode="MFST"><observation classCode="OBS" moodCode="EVN">
          <participant typeCode="CSM"><participantRole><playingEntity>
            <code code="373270004" codeSystem="2.16.840.1.113883.6.96" displayName="Penicillin"/>
          </playingEntity></participantRole></participant>
          <value code="247472004" codeSystem="2.16.840.1.113883.6.96" displayName="Urticaria"/>
        </observation></entryRelationship>
      </act></entry>
    </section></component>
    <component><section>
      <code code="10160-0" codeSystem="2.16.840.1.113883.6.1"/>
      <title>Medicamentos</title>
      <entry><substanceAdministration classCode="SBADM" moodCode="EVN">
        <statusCode code="active"/>
        <routeCode code="20053000" codeSystem="0.4.0.127.0.16.1.1.2.1"/>
        <doseQuantity value="500" unit="mg"/>
        <consumable><manufacturedProduct><manufacturedMaterial>
          <code code="723" codeSystem="2.16.840.1.113883.6.88" displayName="Amoxicillin"/>
        </manufacturedMaterial></manufacturedProduct></consumable>
      </substanceAdministration></entry>
    </section></component>
  </structuredBody></component>
</ClinicalDocument>`

const emptySectionDoc = `<ClinicalDocument xmlns="urn:hl7-org:v3">
  <realmCode code="PT"/>
  <component><structuredBody>
    <component><section>
      <code code="11450-4" codeSystem="2.16.840.1.113883.6.1"/>
      <title>Problemas</title>
    </section></component>
  </structuredBody></component>
</ClinicalDocument>`

// codeOnlyAllergyDoc carries coded elements with no displayName,
// originalText, or name anywhere; only the catalogue can name them.
const codeOnlyAllergyDoc = `<ClinicalDocument xmlns="urn:hl7-org:v3">
  <realmCode code="PT"/>
  <component><structuredBody>
    <component><section>
      <code code="48765-2" codeSystem="2.16.840.1.113883.6.1"/>
      <title>Alergias</title>
      <entry><act classCode="ACT" moodCode="EVN">
        <statusCode code="active"/>
        <entryRelationship typeCode="MFST"><observation classCode="OBS" moodCode="EVN">
          <participant typeCode="CSM"><participantRole><playingEntity>
            <code code="373270004" codeSystem="2.16.840.1.113883.6.96"/>
          </playingEntity></participantRole></participant>
          <value code="999999" codeSystem="2.16.840.1.113883.6.96"/>
        </observation></entryRelationship>
      </act></entry>
    </section></component>
  </structuredBody></component>
</ClinicalDocument>`

const renderedDoc = `<html><body>
  <h2>Allergies and adverse reactions</h2>
  <table>
    <tr><th>Agent</th><th>Reaction</th></tr>
    <tr><td>Penicillin</td><td>Hives</td></tr>
    <tr><td>Latex</td><td>Rash</td></tr>
  </table>
</body></html>`

func newTestService(t *testing.T, store docmap.Store) *Service {
	t.Helper()
	cat := terminology.NewMemoryCatalogue()
	cat.AddConcept(terminology.Concept{Code: "373270004", CodeSystem: terminology.SystemSNOMED, Display: "Penicillin"})
	cat.AddTranslation("373270004", terminology.SystemSNOMED, "en", "Penicillin")
	cat.AddConcept(terminology.Concept{Code: "723", CodeSystem: terminology.SystemRxNorm, Display: "Amoxicillin"})

	metrics := telemetry.New()
	resolver := terminology.NewResolver(cat, zerolog.Nop(), metrics)
	return NewService(ServiceConfig{
		MapStore:        store,
		Resolver:        resolver,
		TitleTranslator: terminology.NewTitleTranslator(resolver, cat),
		Metrics:         metrics,
		Logger:          zerolog.Nop(),
	})
}

func findByCategory(t *testing.T, sections []Section, cat Category) *Section {
	t.Helper()
	for i := range sections {
		if sections[i].Category == cat {
			return &sections[i]
		}
	}
	t.Fatalf("no %s section in %d sections", cat, len(sections))
	return nil
}

func TestProcess_StructuredTwoSections(t *testing.T) {
	svc := newTestService(t, docmap.NewMemoryStore())

	res := svc.Process(context.Background(), ProcessRequest{Content: summaryPT, Language: "en"})
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.SectionCount != 2 {
		t.Fatalf("sections_count = %d, want 2", res.SectionCount)
	}
	if res.CodedSectionCount != 2 {
		t.Fatalf("coded_sections_count = %d, want 2", res.CodedSectionCount)
	}
	if res.EntryCount != 2 {
		t.Fatalf("entries_count = %d, want 2", res.EntryCount)
	}
	if res.Method != "country-specific" {
		t.Fatalf("extraction method = %q, want country-specific", res.Method)
	}

	allergy := findByCategory(t, res.Sections, CategoryAllergy)
	agent := allergy.Entries[0].Fields[FieldAgent]
	if agent.Raw != "Penicillin" {
		t.Fatalf("agent raw = %q, want Penicillin", agent.Raw)
	}
	if agent.Display != "Penicillin" {
		t.Fatalf("agent display = %q, want Penicillin", agent.Display)
	}
	if allergy.Entries[0].Fields[FieldReaction].Raw != "Urticaria" {
		t.Fatalf("reaction raw = %q", allergy.Entries[0].Fields[FieldReaction].Raw)
	}

	med := findByCategory(t, res.Sections, CategoryMedication)
	if med.Entries[0].Fields[FieldName].Raw != "Amoxicillin" {
		t.Fatalf("medication name = %q", med.Entries[0].Fields[FieldName].Raw)
	}

	// A field that carried a raw value must never end up with an empty
	// display, whatever the resolution outcome was.
	for _, sec := range res.Sections {
		for _, entry := range sec.Entries {
			for label, fv := range entry.Fields {
				if fv.Raw != "" && fv.Display == "" {
					t.Errorf("field %q: raw %q resolved to empty display", label, fv.Raw)
				}
			}
		}
	}
}

func TestProcess_CodeOnlyCodedElementResolvesByCode(t *testing.T) {
	svc := newTestService(t, docmap.NewMemoryStore())

	// Both the country profile and the fallback strategies must keep an
	// entry whose coded elements carry nothing but a code pair.
	for _, country := range []string{"PT", "XX"} {
		res := svc.Process(context.Background(), ProcessRequest{Content: codeOnlyAllergyDoc, Language: "en", Country: country})
		if !res.Success {
			t.Fatalf("country %s: unexpected failure: %q", country, res.Error)
		}
		if res.EntryCount != 1 {
			t.Fatalf("country %s (method %s): entries_count = %d, want 1", country, res.Method, res.EntryCount)
		}

		allergy := findByCategory(t, res.Sections, CategoryAllergy)
		agent := allergy.Entries[0].Fields[FieldAgent]
		if agent.Code != "373270004" {
			t.Fatalf("country %s: agent code = %q", country, agent.Code)
		}
		if agent.Display != "Penicillin" {
			t.Fatalf("country %s: agent display = %q, want catalogue hit Penicillin", country, agent.Display)
		}

		// A code the catalogue does not know still surfaces as itself.
		reaction := allergy.Entries[0].Fields[FieldReaction]
		if reaction.Display != "999999" {
			t.Fatalf("country %s: unresolvable code displayed as %q, want passthrough", country, reaction.Display)
		}

		for label, fv := range allergy.Entries[0].Fields {
			if fv.Display == "" {
				t.Errorf("country %s: field %q has empty display", country, label)
			}
		}
	}
}

func TestProcess_IdempotentAcrossColdAndWarmCache(t *testing.T) {
	store := docmap.NewMemoryStore()
	svc := newTestService(t, store)
	// Unregistered country forces the document-map strategy, which is the
	// one whose warm path differs from its cold path.
	req := ProcessRequest{Content: summaryPT, Language: "en", Country: "ES"}

	first := svc.Process(context.Background(), req)
	second := svc.Process(context.Background(), req)

	if !first.Success || !second.Success {
		t.Fatalf("both passes should succeed: %v %v", first.Success, second.Success)
	}
	if first.Method != "document-map" || second.Method != "document-map" {
		t.Fatalf("methods = %q, %q, want document-map twice", first.Method, second.Method)
	}
	if store.Len() != 1 {
		t.Fatalf("store should hold one map, has %d", store.Len())
	}

	a1 := findByCategory(t, first.Sections, CategoryAllergy).Entries[0].Fields[FieldAgent].Raw
	a2 := findByCategory(t, second.Sections, CategoryAllergy).Entries[0].Fields[FieldAgent].Raw
	if a1 != a2 {
		t.Fatalf("cold/warm raw values differ: %q vs %q", a1, a2)
	}
	if first.EntryCount != second.EntryCount {
		t.Fatalf("entry counts differ: %d vs %d", first.EntryCount, second.EntryCount)
	}
}

func TestProcess_UnregisteredCountryStillSucceeds(t *testing.T) {
	svc := newTestService(t, docmap.NewMemoryStore())

	res := svc.Process(context.Background(), ProcessRequest{Content: summaryPT, Language: "en", Country: "XX"})
	if !res.Success {
		t.Fatalf("unexpected failure: %q", res.Error)
	}
	if res.EntryCount == 0 {
		t.Fatal("expected entries from a fallback strategy")
	}
	if res.Method == "country-specific" {
		t.Fatal("country strategy must not claim an unregistered country")
	}
}

func TestProcess_EmptySectionSucceedsWithZeroEntries(t *testing.T) {
	svc := newTestService(t, docmap.NewMemoryStore())

	res := svc.Process(context.Background(), ProcessRequest{Content: emptySectionDoc, Language: "en"})
	if !res.Success {
		t.Fatalf("unexpected failure: %q", res.Error)
	}
	if res.EntryCount != 0 {
		t.Fatalf("entries_count = %d, want 0", res.EntryCount)
	}
	if res.SectionCount != 1 {
		t.Fatalf("sections_count = %d, want 1", res.SectionCount)
	}
	if res.Sections[0].Code != "11450-4" {
		t.Fatalf("section code = %q", res.Sections[0].Code)
	}
}

func TestProcess_GarbageInputFails(t *testing.T) {
	svc := newTestService(t, docmap.NewMemoryStore())

	for _, content := range []string{"", "   ", "definitely not markup"} {
		res := svc.Process(context.Background(), ProcessRequest{Content: content, Language: "en"})
		if res.Success {
			t.Fatalf("content %q should fail", content)
		}
		if res.Error == "" {
			t.Fatal("failed result must carry an error description")
		}
		if !strings.Contains(res.Error, string(KindMalformedDocument)) {
			t.Fatalf("error %q should be classified as malformed", res.Error)
		}
	}
}

func TestProcess_RenderedMarkupTableFallback(t *testing.T) {
	svc := newTestService(t, docmap.NewMemoryStore())

	res := svc.Process(context.Background(), ProcessRequest{Content: renderedDoc, Language: "en"})
	if !res.Success {
		t.Fatalf("unexpected failure: %q", res.Error)
	}
	if res.Method != "narrative-table" {
		t.Fatalf("method = %q, want narrative-table", res.Method)
	}
	if res.EntryCount != 2 {
		t.Fatalf("entries_count = %d, want 2", res.EntryCount)
	}
	sec := res.Sections[0]
	if sec.Category != CategoryAllergy {
		t.Fatalf("category = %q, want %q from the heading", sec.Category, CategoryAllergy)
	}
	if got := sec.Entries[0].Fields["agent"].Raw; got != "Penicillin" {
		t.Fatalf("first row agent = %q", got)
	}
	if got := sec.Entries[1].Fields["reaction"].Raw; got != "Rash" {
		t.Fatalf("second row reaction = %q", got)
	}
}

func TestProcess_StrategiesAgreeOnRawValues(t *testing.T) {
	// The same document processed with and without its country profile must
	// surface the same clinical raw values, whatever strategy produced them.
	svc := newTestService(t, docmap.NewMemoryStore())

	viaCountry := svc.Process(context.Background(), ProcessRequest{Content: summaryPT, Language: "en", Country: "PT"})
	viaFallback := svc.Process(context.Background(), ProcessRequest{Content: summaryPT, Language: "en", Country: "XX"})

	for _, res := range []*ProcessingResult{viaCountry, viaFallback} {
		allergy := findByCategory(t, res.Sections, CategoryAllergy)
		if got := allergy.Entries[0].Fields[FieldAgent].Raw; got != "Penicillin" {
			t.Fatalf("method %q: agent raw = %q, want Penicillin", res.Method, got)
		}
	}
	if viaCountry.Method == viaFallback.Method {
		t.Fatalf("expected different strategies, both used %q", viaCountry.Method)
	}
}

func TestProcess_ResultIsNeverNilAndCarriesID(t *testing.T) {
	svc := newTestService(t, docmap.NewMemoryStore())

	ok := svc.Process(context.Background(), ProcessRequest{Content: summaryPT, Language: "en"})
	bad := svc.Process(context.Background(), ProcessRequest{Content: "nope", Language: "en"})
	for _, res := range []*ProcessingResult{ok, bad} {
		if res == nil {
			t.Fatal("Process must always return a result")
		}
		if res.ID == "" {
			t.Fatal("result must carry an identifier")
		}
	}
}

func TestProcess_NilMapStoreRunsInMemory(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.Process(context.Background(), ProcessRequest{Content: summaryPT, Language: "en", Country: "ES"})
	if !res.Success {
		t.Fatalf("unexpected failure: %q", res.Error)
	}
	if res.EntryCount == 0 {
		t.Fatal("expected entries without a persistent map store")
	}
}
