package docmap

import (
	"time"

	"github.com/clindoc/clindoc/internal/platform/cda"
)

// Builder derives a DocumentMap from a parsed document by classifying the
// entry shapes each section actually uses and synthesizing one pattern set
// per shape. It holds no state and is safe for concurrent use.
type Builder struct{}

// NewBuilder creates a map builder.
func NewBuilder() *Builder { return &Builder{} }

// Build walks the document's sections and records code, title, entry count,
// shape classification, and the pattern set for the observed shape.
func (b *Builder) Build(doc *cda.Document, contentHash string) *DocumentMap {
	m := &DocumentMap{
		ContentHash: contentHash,
		Version:     MapVersion,
		BuiltAt:     time.Now().UTC(),
	}
	for _, sec := range doc.Sections() {
		sm := SectionMap{Title: sec.Title}
		if sec.Code != nil {
			sm.Code = sec.Code.Code
		}
		sm.EntryCount = len(sec.Entries)
		sm.Shape = classifyShape(sec)
		sm.Patterns = patternsForShape(sm.Shape)
		m.Sections = append(m.Sections, sm)
	}
	return m
}

// classifyShape inspects the first well-formed entry of a section.
func classifyShape(sec *cda.Section) EntryShape {
	if len(sec.Entries) == 0 {
		return ShapeNarrativeOnly
	}
	for _, e := range sec.Entries {
		switch {
		case e.Act != nil:
			for _, rel := range e.Act.Relationships {
				if rel.Observation == nil {
					continue
				}
				if len(rel.Observation.Participants) > 0 {
					return ShapeAgentParticipant
				}
				if rel.Observation.Value != nil {
					return ShapeObservationValue
				}
			}
			return ShapeObservationValue
		case e.Observation != nil:
			if len(e.Observation.Participants) > 0 {
				return ShapeAgentParticipant
			}
			return ShapeObservationValue
		case e.SubstanceAdm != nil:
			return ShapeSubstanceAdmin
		case e.Procedure != nil:
			return ShapeProcedure
		case e.Organizer != nil:
			return ShapeOrganizerBattery
		}
	}
	return ShapeUnknown
}

// patternsForShape returns the path-expression pattern set replayed against
// each entry node at extraction time. Labels are the pipeline's canonical
// field labels; a `<label>_code` / `<label>_system` companion carries the
// code pair of the same element, and `<label>_name` is an alternate display
// path. Companions are folded into the base label's field at replay.
func patternsForShape(shape EntryShape) map[string]string {
	switch shape {
	case ShapeAgentParticipant:
		return map[string]string{
			"agent":           ".//participant/participantRole/playingEntity/code/@displayName",
			"agent_code":      ".//participant/participantRole/playingEntity/code/@code",
			"agent_system":    ".//participant/participantRole/playingEntity/code/@codeSystem",
			"agent_name":      ".//participant/participantRole/playingEntity/name",
			"reaction":        ".//entryRelationship[@typeCode='MFST']/observation/value/@displayName",
			"reaction_code":   ".//entryRelationship[@typeCode='MFST']/observation/value/@code",
			"reaction_system": ".//entryRelationship[@typeCode='MFST']/observation/value/@codeSystem",
			"severity":        ".//entryRelationship[@typeCode='SUBJ']/observation/value/@displayName",
			"status":          "act/statusCode/@code",
			"onset":           ".//effectiveTime/low/@value",
		}
	case ShapeObservationValue:
		return map[string]string{
			"name":        ".//observation/value/@displayName",
			"name_code":   ".//observation/value/@code",
			"name_system": ".//observation/value/@codeSystem",
			"status":      ".//statusCode/@code",
			"onset":       ".//effectiveTime/low/@value",
		}
	case ShapeSubstanceAdmin:
		return map[string]string{
			"name":        ".//manufacturedMaterial/code/@displayName",
			"name_code":   ".//manufacturedMaterial/code/@code",
			"name_system": ".//manufacturedMaterial/code/@codeSystem",
			"brand":       ".//manufacturedMaterial/name",
			"dose":        ".//doseQuantity/@value",
			"dose_unit":   ".//doseQuantity/@unit",
			"route":       ".//routeCode/@code",
			"status":      ".//statusCode/@code",
		}
	case ShapeProcedure:
		return map[string]string{
			"name":        "procedure/code/@displayName",
			"name_code":   "procedure/code/@code",
			"name_system": "procedure/code/@codeSystem",
			"status":      "procedure/statusCode/@code",
			"date":        "procedure/effectiveTime/low/@value",
		}
	case ShapeOrganizerBattery:
		return map[string]string{
			"name":        ".//component/observation/code/@displayName",
			"name_code":   ".//component/observation/code/@code",
			"name_system": ".//component/observation/code/@codeSystem",
			"value":       ".//component/observation/value/@value",
			"unit":        ".//component/observation/value/@unit",
		}
	default:
		return nil
	}
}
