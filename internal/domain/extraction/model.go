package extraction

import (
	"github.com/clindoc/clindoc/internal/domain/terminology"
	"github.com/clindoc/clindoc/internal/platform/cda"
	"github.com/clindoc/clindoc/internal/platform/pathexpr"
)

// Category is the clinical category of a section.
type Category string

const (
	CategoryAllergy      Category = "allergy"
	CategoryMedication   Category = "medication"
	CategoryProblem      Category = "problem"
	CategoryProcedure    Category = "procedure"
	CategoryImmunization Category = "immunization"
	CategoryVitalSign    Category = "vital-sign"
	CategoryDevice       Category = "device"
	CategoryGeneric      Category = "generic"
)

// CategoryForSection maps a LOINC section code to its clinical category.
func CategoryForSection(code string) Category {
	switch code {
	case cda.LOINCAllergies:
		return CategoryAllergy
	case cda.LOINCMedications:
		return CategoryMedication
	case cda.LOINCProblems:
		return CategoryProblem
	case cda.LOINCProcedures:
		return CategoryProcedure
	case cda.LOINCImmunizations:
		return CategoryImmunization
	case cda.LOINCVitalSigns:
		return CategoryVitalSign
	case cda.LOINCDevices:
		return CategoryDevice
	default:
		return CategoryGeneric
	}
}

// FieldValue is one extracted field of an entry. Display never stays empty
// when Raw is non-empty: resolution misses fall back to the raw value.
type FieldValue struct {
	Raw         string `json:"raw"`
	Display     string `json:"display"`
	Code        string `json:"code,omitempty"`
	CodeSystem  string `json:"code_system,omitempty"`
	Translate   bool   `json:"requires_translation,omitempty"`
	HasValueSet bool   `json:"has_value_set,omitempty"`
}

// Entry is one discrete clinical fact. Field labels are unique per entry.
type Entry struct {
	Category Category              `json:"category"`
	Fields   map[string]FieldValue `json:"fields"`
}

// Populated reports whether the field carries anything resolvable: raw
// display text, or a bare code the catalogue can look up.
func (v FieldValue) Populated() bool {
	return v.Raw != "" || v.Code != ""
}

// SetIfEmpty stores a field value unless the label is already populated,
// which lets ordered mapping variants act as fallbacks for one another.
// Values with neither raw text nor a code are ignored.
func (e *Entry) SetIfEmpty(label string, v FieldValue) {
	if !v.Populated() {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string]FieldValue)
	}
	if existing, ok := e.Fields[label]; ok && existing.Populated() {
		return
	}
	e.Fields[label] = v
}

// Field returns the raw value of a labeled field, or "".
func (e *Entry) Field(label string) string {
	return e.Fields[label].Raw
}

// Empty reports whether the entry carries no populated fields.
func (e *Entry) Empty() bool {
	for _, v := range e.Fields {
		if v.Populated() {
			return false
		}
	}
	return true
}

// Section is a titled, coded grouping of entries. Sections are created once
// per extraction pass and never mutated after assembly.
type Section struct {
	Code     string                       `json:"code,omitempty"`
	Category Category                     `json:"category"`
	Title    terminology.TitleTranslation `json:"title"`
	Entries  []Entry                      `json:"entries"`
}

// ProcessingResult is the sole externally visible output of the pipeline.
// It is always returned, never an exception; only a root-level parse
// failure sets Success to false.
type ProcessingResult struct {
	ID                string    `json:"id"`
	Success           bool      `json:"success"`
	Sections          []Section `json:"sections"`
	SectionCount      int       `json:"sections_count"`
	EntryCount        int       `json:"entries_count"`
	MedicalTermCount  int       `json:"medical_terms_count"`
	CodedSectionCount int       `json:"coded_sections_count"`
	Method            string    `json:"extraction_method,omitempty"`
	Error             string    `json:"error,omitempty"`
}

// ProcessRequest is the pipeline input.
type ProcessRequest struct {
	Content        string `json:"content"`
	Language       string `json:"language"`
	Country        string `json:"country,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
}

// document bundles everything the strategies need about one classified
// document. Immutable once built.
type document struct {
	Content  string
	Kind     cda.ContentKind
	Hash     string
	Doc      *cda.Document // nil for rendered markup
	Tree     *pathexpr.Node
	Language string
	Country  string
}

// Canonical field labels shared by strategies, schema defaults, and
// document-map patterns.
const (
	FieldAgent    = "agent"
	FieldReaction = "reaction"
	FieldSeverity = "severity"
	FieldName     = "name"
	FieldProblem  = "problem"
	FieldStatus   = "status"
	FieldDose     = "dose"
	FieldDoseUnit = "dose_unit"
	FieldRoute    = "route"
	FieldOnset    = "onset"
	FieldVaccine  = "vaccine"
)
