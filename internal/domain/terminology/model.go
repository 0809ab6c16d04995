package terminology

// Concept is one entry of the terminology catalogue: a clinical code with
// its canonical display text.
type Concept struct {
	Code       string `db:"code" json:"code"`
	CodeSystem string `db:"code_system" json:"code_system"`
	SystemName string `db:"system_name" json:"system_name,omitempty"`
	Display    string `db:"display" json:"display"`
}

// Translation is a per-language display text for a concept.
type Translation struct {
	Code       string `db:"code" json:"code"`
	CodeSystem string `db:"code_system" json:"code_system"`
	Language   string `db:"language" json:"language"`
	Display    string `db:"display" json:"display"`
}

// Resolution is the outcome of resolving a raw code through the catalogue.
type Resolution struct {
	Display    string `json:"display"`
	Matched    bool   `json:"matched"`    // a catalogue concept was found
	Translated bool   `json:"translated"` // the display is in the requested language
	Source     string `json:"source"`     // which rung of the ladder produced the display
}

// Resolution sources, in ladder order.
const (
	SourceExact       = "exact"
	SourceAnySystem   = "any-system"
	SourceFuzzy       = "fuzzy"
	SourceFixedTable  = "fixed-table"
	SourceRawDisplay  = "raw-display"
	SourcePassthrough = "passthrough"
)

// Code system OIDs the pipeline resolves against.
const (
	SystemLOINC  = "2.16.840.1.113883.6.1"
	SystemSNOMED = "2.16.840.1.113883.6.96"
	SystemRxNorm = "2.16.840.1.113883.6.88"
	SystemICD10  = "2.16.840.1.113883.6.90"
	SystemATC    = "2.16.840.1.113883.6.73"
	SystemEDQM   = "0.4.0.127.0.16.1.1.2.1"
)

// SystemNames maps code system OIDs to their conventional names.
var SystemNames = map[string]string{
	SystemLOINC:  "LOINC",
	SystemSNOMED: "SNOMED CT",
	SystemRxNorm: "RxNorm",
	SystemICD10:  "ICD-10",
	SystemATC:    "ATC",
	SystemEDQM:   "EDQM",
}
