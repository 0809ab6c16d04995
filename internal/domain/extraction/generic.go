package extraction

import (
	"context"
	"strings"

	"github.com/clindoc/clindoc/internal/platform/cda"
)

// GenericStrategy is the last structured-markup resort: it walks the typed
// document model statement by statement with no schema or country
// knowledge, pulling whatever coded or textual content each statement
// carries.
type GenericStrategy struct{}

func NewGenericStrategy() *GenericStrategy { return &GenericStrategy{} }

func (s *GenericStrategy) Name() string { return "generic-structural" }

func (s *GenericStrategy) Extract(ctx context.Context, doc *document) ([]Section, error) {
	if doc.Doc == nil {
		return nil, nil
	}

	var sections []Section
	for _, cs := range doc.Doc.Sections() {
		sec := Section{Category: CategoryGeneric}
		if cs.Code != nil {
			sec.Code = cs.Code.Code
			sec.Category = CategoryForSection(cs.Code.Code)
		}
		sec.Title.Original = cs.Title
		for _, e := range cs.Entries {
			if entry, ok := genericEntry(&e, sec.Category); ok {
				sec.Entries = append(sec.Entries, entry)
			}
		}
		if len(sec.Entries) == 0 && cs.Text != nil {
			sec.Entries = append(sec.Entries, narrativeEntries(cs.Text, sec.Category)...)
		}
		sections = append(sections, sec)
	}

	if !hasEntries(sections) {
		return nil, nil
	}
	return sections, nil
}

// genericEntry flattens one clinical statement into labeled fields based on
// its statement kind alone.
func genericEntry(e *cda.Entry, category Category) (Entry, bool) {
	entry := Entry{Category: category, Fields: make(map[string]FieldValue)}

	switch {
	case e.Act != nil:
		genericAct(e.Act, &entry)
	case e.Observation != nil:
		genericObservation(e.Observation, &entry)
	case e.SubstanceAdm != nil:
		genericSubstanceAdm(e.SubstanceAdm, &entry)
	case e.Procedure != nil:
		p := e.Procedure
		entry.SetIfEmpty("procedure", codeField(p.Code))
		if p.StatusCode != nil {
			entry.SetIfEmpty(FieldStatus, FieldValue{Raw: p.StatusCode.Code, Translate: true})
		}
		if p.EffectiveTime != nil && p.EffectiveTime.Low != nil {
			entry.SetIfEmpty("date", FieldValue{Raw: cda.FormatDate(p.EffectiveTime.Low.Value)})
		}
	case e.Organizer != nil:
		for _, oc := range e.Organizer.Components {
			if oc.Observation != nil {
				genericObservation(oc.Observation, &entry)
				break
			}
		}
	case e.Supply != nil && e.Supply.Product != nil:
		if mp := e.Supply.Product.ManufacturedProduct; mp != nil && mp.Material != nil {
			entry.SetIfEmpty(FieldName, materialField(mp.Material))
		}
	}

	if entry.Empty() {
		return Entry{}, false
	}
	return entry, true
}

func genericAct(act *cda.Act, entry *Entry) {
	if act.StatusCode != nil {
		entry.SetIfEmpty(FieldStatus, FieldValue{Raw: act.StatusCode.Code, Translate: true})
	}
	if act.EffectiveTime != nil && act.EffectiveTime.Low != nil {
		entry.SetIfEmpty(FieldOnset, FieldValue{Raw: cda.FormatDate(act.EffectiveTime.Low.Value)})
	}
	for _, rel := range act.Relationships {
		if rel.Observation != nil {
			genericObservation(rel.Observation, entry)
		}
		if rel.SubstanceAdm != nil {
			genericSubstanceAdm(rel.SubstanceAdm, entry)
		}
	}
}

func genericObservation(obs *cda.Observation, entry *Entry) {
	for _, p := range obs.Participants {
		if p.Role != nil && p.Role.Entity != nil {
			ent := p.Role.Entity
			fv := codeField(ent.Code)
			if fv.Raw == "" && ent.Name != "" {
				fv = FieldValue{Raw: strings.TrimSpace(ent.Name), Translate: true}
			}
			entry.SetIfEmpty(FieldAgent, fv)
		}
	}
	if obs.Value != nil {
		label := FieldProblem
		if _, ok := entry.Fields[FieldAgent]; ok {
			label = FieldReaction
		}
		entry.SetIfEmpty(label, valueField(obs.Value))
	}
	if obs.StatusCode != nil {
		entry.SetIfEmpty(FieldStatus, FieldValue{Raw: obs.StatusCode.Code, Translate: true})
	}
	if obs.EffectiveTime != nil && obs.EffectiveTime.Low != nil {
		entry.SetIfEmpty(FieldOnset, FieldValue{Raw: cda.FormatDate(obs.EffectiveTime.Low.Value)})
	}
	for _, rel := range obs.Relationships {
		if rel.Observation != nil && rel.Observation.Value != nil {
			label := FieldReaction
			if rel.TypeCode == "SUBJ" {
				label = FieldSeverity
			}
			entry.SetIfEmpty(label, valueField(rel.Observation.Value))
		}
	}
}

func genericSubstanceAdm(sa *cda.SubstanceAdministration, entry *Entry) {
	if sa.Consumable != nil && sa.Consumable.ManufacturedProduct != nil {
		if mat := sa.Consumable.ManufacturedProduct.Material; mat != nil {
			entry.SetIfEmpty(FieldName, materialField(mat))
		}
	}
	if sa.DoseQuantity != nil {
		entry.SetIfEmpty(FieldDose, FieldValue{Raw: sa.DoseQuantity.Value})
		entry.SetIfEmpty(FieldDoseUnit, FieldValue{Raw: sa.DoseQuantity.Unit})
	}
	if sa.RouteCode != nil {
		entry.SetIfEmpty(FieldRoute, FieldValue{
			Raw:         sa.RouteCode.BestDisplay(),
			Code:        sa.RouteCode.Code,
			CodeSystem:  sa.RouteCode.CodeSystem,
			Translate:   true,
			HasValueSet: true,
		})
	}
	if sa.StatusCode != nil {
		entry.SetIfEmpty(FieldStatus, FieldValue{Raw: sa.StatusCode.Code, Translate: true})
	}
	for _, t := range sa.EffectiveTimes {
		if t.Low != nil {
			entry.SetIfEmpty("start", FieldValue{Raw: cda.FormatDate(t.Low.Value)})
		}
		if t.High != nil {
			entry.SetIfEmpty("end", FieldValue{Raw: cda.FormatDate(t.High.Value)})
		}
	}
}

// codeField builds a field from a coded element, preferring displayable
// text and keeping the code pair for catalogue resolution.
func codeField(c *cda.Code) FieldValue {
	if c == nil {
		return FieldValue{}
	}
	return FieldValue{
		Raw:         c.BestDisplay(),
		Code:        c.Code,
		CodeSystem:  c.CodeSystem,
		Translate:   true,
		HasValueSet: c.Code != "",
	}
}

func valueField(v *cda.Value) FieldValue {
	if v == nil {
		return FieldValue{}
	}
	fv := FieldValue{
		Raw:         v.BestDisplay(),
		Code:        v.Code,
		CodeSystem:  v.CodeSystem,
		Translate:   true,
		HasValueSet: v.Code != "",
	}
	if fv.Raw == "" && v.Value != "" {
		fv.Raw = strings.TrimSpace(v.Value + " " + v.Unit)
		fv.Translate = false
		fv.HasValueSet = false
	}
	return fv
}

func materialField(m *cda.Material) FieldValue {
	fv := codeField(m.Code)
	if fv.Raw == "" && m.Name != "" {
		fv = FieldValue{Raw: strings.TrimSpace(m.Name), Translate: true}
	}
	return fv
}
