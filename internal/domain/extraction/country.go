package extraction

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clindoc/clindoc/internal/platform/cda"
	"github.com/clindoc/clindoc/internal/platform/pathexpr"
)

// pathVariant is one known layout for a national document family. Variants
// are tried in order per entry; the first whose required field yields a
// value wins, and entries missing the required field are dropped.
type pathVariant struct {
	required string
	fields   map[string]string
}

type countryProfile struct {
	allergies   []pathVariant
	medications []pathVariant
	problems    []pathVariant
}

// countryProfiles holds the registered national layouts. Unregistered
// countries simply skip this strategy; they never fail the pipeline.
var countryProfiles = map[string]countryProfile{
	"PT": {
		allergies: []pathVariant{
			{required: FieldAgent, fields: map[string]string{
				FieldAgent:    ".//observation/participant/participantRole/playingEntity/code/@displayName",
				FieldReaction: ".//observation/value/@displayName",
				FieldStatus:   "act/statusCode/@code",
				FieldOnset:    ".//effectiveTime/low/@value",
			}},
			{required: FieldAgent, fields: map[string]string{
				FieldAgent:    ".//observation/participant/participantRole/playingEntity/code/originalText",
				FieldReaction: ".//observation/value/originalText",
				FieldStatus:   "act/statusCode/@code",
			}},
		},
		medications: []pathVariant{
			{required: FieldName, fields: map[string]string{
				FieldName:     ".//manufacturedMaterial/code/@displayName",
				FieldDose:     ".//doseQuantity/@value",
				FieldDoseUnit: ".//doseQuantity/@unit",
				FieldRoute:    ".//routeCode/@code",
			}},
			{required: FieldName, fields: map[string]string{
				FieldName:  ".//manufacturedMaterial/name",
				FieldRoute: ".//routeCode/@code",
			}},
		},
		problems: []pathVariant{
			{required: FieldProblem, fields: map[string]string{
				FieldProblem: ".//observation/value/@displayName",
				FieldStatus:  ".//observation/statusCode/@code",
				FieldOnset:   ".//effectiveTime/low/@value",
			}},
		},
	},
	"FR": {
		allergies: []pathVariant{
			{required: FieldAgent, fields: map[string]string{
				FieldAgent:    ".//participant/participantRole/playingEntity/code/@displayName",
				FieldReaction: ".//entryRelationship[@typeCode='MFST']/observation/value/@displayName",
				FieldSeverity: ".//entryRelationship[@typeCode='SUBJ']/observation/value/@displayName",
			}},
		},
		medications: []pathVariant{
			{required: FieldName, fields: map[string]string{
				FieldName:     ".//manufacturedMaterial/code/@displayName",
				FieldDose:     ".//doseQuantity/@value",
				FieldDoseUnit: ".//doseQuantity/@unit",
				FieldRoute:    ".//routeCode/@displayName",
			}},
		},
		problems: []pathVariant{
			{required: FieldProblem, fields: map[string]string{
				FieldProblem: ".//observation/value/@displayName",
				FieldOnset:   ".//observation/effectiveTime/low/@value",
			}},
		},
	},
	"IT": {
		allergies: []pathVariant{
			{required: FieldAgent, fields: map[string]string{
				FieldAgent:    ".//participant/participantRole/playingEntity/code/@displayName",
				FieldReaction: ".//entryRelationship/observation/value/@displayName",
			}},
			{required: FieldAgent, fields: map[string]string{
				FieldAgent: ".//participant/participantRole/playingEntity/code/originalText",
			}},
		},
		medications: []pathVariant{
			{required: FieldName, fields: map[string]string{
				FieldName:  ".//manufacturedMaterial/code/@displayName",
				FieldRoute: ".//routeCode/@code",
			}},
		},
		problems: []pathVariant{
			{required: FieldProblem, fields: map[string]string{
				FieldProblem: ".//observation/value/@displayName",
				FieldStatus:  ".//statusCode/@code",
			}},
		},
	},
	"GR": {
		allergies: []pathVariant{
			{required: FieldAgent, fields: map[string]string{
				FieldAgent:    ".//participant/participantRole/playingEntity/code/@displayName",
				FieldReaction: ".//entryRelationship/observation/value/@displayName",
				FieldOnset:    ".//effectiveTime/low/@value",
			}},
		},
		medications: []pathVariant{
			{required: FieldName, fields: map[string]string{
				FieldName:     ".//manufacturedMaterial/code/@displayName",
				FieldDose:     ".//doseQuantity/@value",
				FieldDoseUnit: ".//doseQuantity/@unit",
			}},
			{required: FieldName, fields: map[string]string{
				FieldName: ".//manufacturedMaterial/name",
			}},
		},
		problems: []pathVariant{
			{required: FieldProblem, fields: map[string]string{
				FieldProblem: ".//observation/value/@displayName",
			}},
		},
	},
	"CZ": {
		allergies: []pathVariant{
			{required: FieldAgent, fields: map[string]string{
				FieldAgent:    ".//participant/participantRole/playingEntity/code/@displayName",
				FieldReaction: ".//entryRelationship[@typeCode='MFST']/observation/value/@displayName",
				FieldStatus:   "act/statusCode/@code",
			}},
		},
		medications: []pathVariant{
			{required: FieldName, fields: map[string]string{
				FieldName:     ".//manufacturedMaterial/code/@displayName",
				FieldDose:     ".//doseQuantity/@value",
				FieldDoseUnit: ".//doseQuantity/@unit",
				FieldRoute:    ".//routeCode/@code",
			}},
		},
		problems: []pathVariant{
			{required: FieldProblem, fields: map[string]string{
				FieldProblem: ".//observation/value/@displayName",
				FieldOnset:   ".//effectiveTime/low/@value",
			}},
		},
	},
}

// CountryStrategy extracts using hand-tuned path variants registered per
// country. It only covers the three high-value section families; anything
// it cannot populate falls through to the next strategy.
type CountryStrategy struct {
	logger zerolog.Logger
}

func NewCountryStrategy(logger zerolog.Logger) *CountryStrategy {
	return &CountryStrategy{logger: logger}
}

func (s *CountryStrategy) Name() string { return "country-specific" }

// Registered reports whether a country has a profile.
func Registered(country string) bool {
	_, ok := countryProfiles[country]
	return ok
}

func (s *CountryStrategy) Extract(ctx context.Context, doc *document) ([]Section, error) {
	profile, ok := countryProfiles[doc.Country]
	if !ok || doc.Tree == nil {
		return nil, nil
	}

	var sections []Section
	for _, target := range []struct {
		code     string
		category Category
		variants []pathVariant
	}{
		{cda.LOINCAllergies, CategoryAllergy, profile.allergies},
		{cda.LOINCMedications, CategoryMedication, profile.medications},
		{cda.LOINCProblems, CategoryProblem, profile.problems},
	} {
		ts := findSection(doc.Tree, target.code)
		if ts == nil || len(target.variants) == 0 {
			continue
		}
		sec := Section{Code: ts.Code, Category: target.category}
		sec.Title.Original = ts.Title
		for _, node := range entryNodes(ts.Node) {
			if entry, ok := extractVariants(node, target.category, target.variants); ok {
				sec.Entries = append(sec.Entries, entry)
			}
		}
		sections = append(sections, sec)
	}

	if !hasEntries(sections) {
		s.logger.Debug().Str("country", doc.Country).Msg("country profile matched no entries")
		return nil, nil
	}
	return sections, nil
}

// extractVariants tries each layout variant against one entry node and
// keeps the first whose required field is present. A coded element whose
// display is absent still satisfies the variant through its code.
func extractVariants(node *pathexpr.Node, category Category, variants []pathVariant) (Entry, bool) {
	for _, v := range variants {
		if !variantField(node, v.fields[v.required]).Populated() {
			continue
		}
		entry := Entry{Category: category, Fields: make(map[string]FieldValue)}
		for label, path := range v.fields {
			entry.SetIfEmpty(label, variantField(node, path))
		}
		return entry, true
	}
	return Entry{}, false
}

// variantField evaluates one display path and, for displayName paths, the
// sibling code pair of the same coded element, so entries carrying only a
// bare code still extract and resolve through the catalogue.
func variantField(node *pathexpr.Node, path string) FieldValue {
	fv := FieldValue{Raw: pathexpr.First(node, path), Translate: true}
	if base, ok := strings.CutSuffix(path, "/@displayName"); ok {
		fv.Code = pathexpr.First(node, base+"/@code")
		fv.CodeSystem = pathexpr.First(node, base+"/@codeSystem")
		fv.HasValueSet = fv.Code != ""
	}
	return fv
}
