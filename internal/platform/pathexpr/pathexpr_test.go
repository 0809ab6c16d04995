package pathexpr

import (
	"testing"
)

const sampleXML = `<?xml version="1.0"?>
<ClinicalDocument xmlns="urn:hl7-org:v3">
  <languageCode code="fr-FR"/>
  <component>
    <structuredBody>
      <component>
        <section>
          <code code="48765-2" codeSystem="2.16.840.1.113883.6.1"/>
          <title>Allergies et intolerances</title>
          <entry>
            <act classCode="ACT">
              <entryRelationship typeCode="SUBJ">
                <observation>
                  <participant typeCode="CSM">
                    <participantRole>
                      <playingEntity>
                        <code code="373270004" displayName="Penicillin"/>
                        <name>Penicillin V</name>
                      </playingEntity>
                    </participantRole>
                  </participant>
                </observation>
              </entryRelationship>
            </act>
          </entry>
        </section>
      </component>
    </structuredBody>
  </component>
</ClinicalDocument>`

func TestParseBuildsTree(t *testing.T) {
	root, err := ParseString(sampleXML)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if root.Name != "ClinicalDocument" {
		t.Errorf("expected root ClinicalDocument, got %q", root.Name)
	}
	if got := root.Child("languageCode").Attr("code"); got != "fr-FR" {
		t.Errorf("expected languageCode fr-FR, got %q", got)
	}
}

func TestFirst_ChildSteps(t *testing.T) {
	root, err := ParseString(sampleXML)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := First(root, "component/structuredBody/component/section/title")
	if got != "Allergies et intolerances" {
		t.Errorf("expected section title, got %q", got)
	}
}

func TestFirst_DescendantAndAttribute(t *testing.T) {
	root, err := ParseString(sampleXML)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := First(root, ".//playingEntity/code/@displayName")
	if got != "Penicillin" {
		t.Errorf("expected Penicillin, got %q", got)
	}
}

func TestFirst_Predicate(t *testing.T) {
	root, err := ParseString(sampleXML)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := First(root, ".//entryRelationship[@typeCode='SUBJ']/observation/participant/participantRole/playingEntity/name")
	if got != "Penicillin V" {
		t.Errorf("expected Penicillin V, got %q", got)
	}
	if miss := First(root, ".//entryRelationship[@typeCode='MFST']/observation"); miss != "" {
		t.Errorf("expected no match for absent typeCode, got %q", miss)
	}
}

func TestFind_ReturnsAllMatches(t *testing.T) {
	root, err := ParseString(`<r><i v="1"/><i v="2"/><i/></r>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := Find(root, "i/@v")
	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestCompile_Invalid(t *testing.T) {
	cases := []string{"", "a//b", "a/[@x='1']y", ".//a[bad]"}
	for _, c := range cases {
		if _, err := Compile(c); err == nil {
			t.Errorf("expected compile error for %q", c)
		}
	}
}

func TestParseLenient_HTMLFragment(t *testing.T) {
	root, err := ParseStringLenient(`<div><h2>Medications</h2><table><tr><td>Aspirin<td>100mg</table></div>`)
	if err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	cells := Find(root, ".//td")
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %v", cells)
	}
	if cells[0] != "Aspirin" {
		t.Errorf("expected Aspirin, got %q", cells[0])
	}
}

func TestDeepText(t *testing.T) {
	root, err := ParseString(`<p>one <b>two</b> three</p>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	// Character data around the inner element merges onto the parent node,
	// so parent text precedes child text.
	if got := root.DeepText(); got != "one three two" {
		t.Errorf("unexpected deep text %q", got)
	}
}
