package schema

import "github.com/clindoc/clindoc/internal/platform/cda"

// Default returns the compiled-in mapping table. Paths are evaluated
// relative to an entry node; multiple mappings may share a label, in which
// case they act as ordered variants and the first non-empty value wins.
func Default() *Schema {
	s := &Schema{
		version: "2024.2",
		groups:  make(map[string]map[string][]FieldMapping),
	}

	s.put(cda.LOINCAllergies, "", []FieldMapping{
		{Label: "agent", Path: ".//participant/participantRole/playingEntity/code/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDSNOMED,
			CodePath: ".//participant/participantRole/playingEntity/code/@code"},
		{Label: "agent", Path: ".//participant/participantRole/playingEntity/name", Translate: true},
		{Label: "reaction", Path: ".//entryRelationship[@typeCode='MFST']/observation/value/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDSNOMED,
			CodePath: ".//entryRelationship[@typeCode='MFST']/observation/value/@code"},
		{Label: "severity", Path: ".//entryRelationship[@typeCode='SUBJ']/observation/value/@displayName", Translate: true},
		{Label: "status", Path: "act/statusCode/@code", Translate: true},
		{Label: "onset", Path: ".//effectiveTime/low/@value"},
	})

	s.put(cda.LOINCMedications, "", []FieldMapping{
		{Label: "name", Path: ".//manufacturedMaterial/code/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDRxNorm,
			CodePath: ".//manufacturedMaterial/code/@code"},
		{Label: "name", Path: ".//manufacturedMaterial/name", Translate: true},
		{Label: "dose", Path: ".//doseQuantity/@value"},
		{Label: "dose_unit", Path: ".//doseQuantity/@unit"},
		{Label: "route", Path: ".//routeCode/@code", ValueSet: true, Translate: true, CodeSystem: cda.OIDEDQM},
		{Label: "status", Path: ".//substanceAdministration/statusCode/@code", Translate: true},
		{Label: "start", Path: ".//effectiveTime/low/@value"},
		{Label: "end", Path: ".//effectiveTime/high/@value"},
	})

	s.put(cda.LOINCProblems, "", []FieldMapping{
		{Label: "problem", Path: ".//observation/value/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDSNOMED,
			CodePath: ".//observation/value/@code"},
		{Label: "problem", Path: ".//observation/text", Translate: true},
		{Label: "status", Path: ".//statusCode/@code", Translate: true},
		{Label: "onset", Path: ".//effectiveTime/low/@value"},
	})

	s.put(cda.LOINCProcedures, "", []FieldMapping{
		{Label: "procedure", Path: "procedure/code/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDSNOMED,
			CodePath: "procedure/code/@code"},
		{Label: "status", Path: "procedure/statusCode/@code", Translate: true},
		{Label: "date", Path: "procedure/effectiveTime/low/@value"},
	})

	s.put(cda.LOINCImmunizations, "", []FieldMapping{
		{Label: "vaccine", Path: ".//manufacturedMaterial/code/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDSNOMED,
			CodePath: ".//manufacturedMaterial/code/@code"},
		{Label: "date", Path: ".//effectiveTime/@value"},
		{Label: "status", Path: ".//statusCode/@code", Translate: true},
	})

	s.put(cda.LOINCVitalSigns, "", []FieldMapping{
		{Label: "sign", Path: ".//component/observation/code/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDLOINC,
			CodePath: ".//component/observation/code/@code"},
		{Label: "value", Path: ".//component/observation/value/@value"},
		{Label: "unit", Path: ".//component/observation/value/@unit"},
		{Label: "date", Path: ".//effectiveTime/@value"},
	})

	s.put(cda.LOINCDevices, "", []FieldMapping{
		{Label: "device", Path: ".//participant/participantRole/playingDevice/code/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDSNOMED,
			CodePath: ".//participant/participantRole/playingDevice/code/@code"},
		{Label: "date", Path: ".//effectiveTime/@value"},
	})

	// Portuguese summaries nest the allergy agent one level deeper and code
	// the reaction on the outer observation.
	s.put(cda.LOINCAllergies, "PT", []FieldMapping{
		{Label: "agent", Path: ".//observation/participant/participantRole/playingEntity/code/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDSNOMED,
			CodePath: ".//observation/participant/participantRole/playingEntity/code/@code"},
		{Label: "agent", Path: ".//observation/participant/participantRole/playingEntity/code/originalText", Translate: true},
		{Label: "reaction", Path: ".//observation/value/@displayName",
			ValueSet: true, Translate: true, CodeSystem: cda.OIDSNOMED,
			CodePath: ".//observation/value/@code"},
		{Label: "status", Path: "act/statusCode/@code", Translate: true},
		{Label: "onset", Path: ".//effectiveTime/low/@value"},
	})

	return s
}
