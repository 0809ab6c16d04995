// Package header extracts administrative data from the clinical document
// header: the patient, the people and organizations responsible for the
// document, and the patient's contacts. Header extraction is best-effort
// and never fails; absent elements simply stay empty.
package header

import (
	"strings"

	"github.com/clindoc/clindoc/internal/platform/cda"
)

// Person is a named person with optional contact details.
type Person struct {
	Name    string   `json:"name,omitempty"`
	Role    string   `json:"role,omitempty"`
	Phones  []string `json:"phones,omitempty"`
	Emails  []string `json:"emails,omitempty"`
	Address string   `json:"address,omitempty"`
}

// Organization is a named organization with optional contact details.
type Organization struct {
	Name    string   `json:"name,omitempty"`
	Phones  []string `json:"phones,omitempty"`
	Address string   `json:"address,omitempty"`
}

// Patient is the document subject.
type Patient struct {
	Name      string `json:"name,omitempty"`
	Gender    string `json:"gender,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	Language  string `json:"language,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Administrative is the extracted header block.
type Administrative struct {
	Patient            *Patient      `json:"patient,omitempty"`
	Authors            []Person      `json:"authors,omitempty"`
	AuthoringDevice    string        `json:"authoring_device,omitempty"`
	Custodian          *Organization `json:"custodian,omitempty"`
	LegalAuthenticator *Person       `json:"legal_authenticator,omitempty"`
	Guardians          []Person      `json:"guardians,omitempty"`
	Contacts           []Person      `json:"contacts,omitempty"`
	DocumentDate       string        `json:"document_date,omitempty"`
}

// Extract pulls the administrative block out of a parsed document.
func Extract(doc *cda.Document) *Administrative {
	if doc == nil {
		return &Administrative{}
	}
	admin := &Administrative{}

	if doc.EffectiveTime != nil {
		admin.DocumentDate = cda.FormatDate(doc.EffectiveTime.Value)
	}

	if rt := doc.RecordTarget; rt != nil && rt.PatientRole != nil {
		admin.Patient = extractPatient(rt.PatientRole)
		if rt.PatientRole.Patient != nil {
			for _, g := range rt.PatientRole.Patient.Guardians {
				if p := extractGuardian(&g); p.Name != "" || len(p.Phones) > 0 {
					admin.Guardians = append(admin.Guardians, p)
				}
			}
		}
	}

	for _, a := range doc.Authors {
		aa := a.AssignedAuthor
		if aa == nil {
			continue
		}
		if aa.Device != nil && aa.Device.SoftwareName != "" {
			admin.AuthoringDevice = strings.TrimSpace(aa.Device.SoftwareName)
		}
		p := Person{Phones: telecomValues(aa.Telecoms, "tel"), Emails: telecomValues(aa.Telecoms, "mailto")}
		if aa.AssignedPerson != nil && len(aa.AssignedPerson.Names) > 0 {
			p.Name = aa.AssignedPerson.Names[0].FullName()
		}
		if aa.Code != nil {
			p.Role = aa.Code.BestDisplay()
		}
		if p.Name != "" || len(p.Phones) > 0 {
			admin.Authors = append(admin.Authors, p)
		}
	}

	if c := doc.Custodian; c != nil && c.AssignedCustodian != nil && c.AssignedCustodian.Organization != nil {
		admin.Custodian = extractOrganization(c.AssignedCustodian.Organization)
	}

	if la := doc.LegalAuth; la != nil && la.AssignedEntity != nil {
		ae := la.AssignedEntity
		p := Person{Phones: telecomValues(ae.Telecoms, "tel")}
		if ae.AssignedPerson != nil && len(ae.AssignedPerson.Names) > 0 {
			p.Name = ae.AssignedPerson.Names[0].FullName()
		}
		if ae.Organization != nil && len(ae.Organization.Names) > 0 {
			p.Role = ae.Organization.Names[0]
		}
		if p.Name != "" {
			admin.LegalAuthenticator = &p
		}
	}

	for _, part := range doc.Participants {
		ent := part.AssociatedEnt
		if ent == nil {
			continue
		}
		p := Person{
			Phones: telecomValues(ent.Telecoms, "tel"),
			Emails: telecomValues(ent.Telecoms, "mailto"),
		}
		if ent.AssociatedPerson != nil && len(ent.AssociatedPerson.Names) > 0 {
			p.Name = ent.AssociatedPerson.Names[0].FullName()
		}
		if ent.Code != nil {
			p.Role = ent.Code.BestDisplay()
		}
		if len(ent.Addrs) > 0 {
			p.Address = formatAddress(&ent.Addrs[0])
		}
		if p.Name != "" || len(p.Phones) > 0 {
			admin.Contacts = append(admin.Contacts, p)
		}
	}

	return admin
}

func extractPatient(role *cda.PatientRole) *Patient {
	p := &Patient{}
	if len(role.Addrs) > 0 {
		p.Address = formatAddress(&role.Addrs[0])
	}
	pat := role.Patient
	if pat == nil {
		return p
	}
	if len(pat.Names) > 0 {
		p.Name = pat.Names[0].FullName()
	}
	if pat.Gender != nil {
		p.Gender = firstNonEmpty(pat.Gender.DisplayName, pat.Gender.Code)
	}
	if pat.BirthTime != nil {
		p.BirthDate = cda.FormatDate(pat.BirthTime.Value)
	}
	if pat.Language != nil && pat.Language.LanguageCode != nil {
		p.Language = pat.Language.LanguageCode.Code
	}
	return p
}

func extractGuardian(g *cda.Guardian) Person {
	p := Person{Phones: telecomValues(g.Telecoms, "tel"), Emails: telecomValues(g.Telecoms, "mailto")}
	if g.GuardianPerson != nil && len(g.GuardianPerson.Names) > 0 {
		p.Name = g.GuardianPerson.Names[0].FullName()
	}
	if g.Code != nil {
		p.Role = g.Code.BestDisplay()
	}
	if len(g.Addrs) > 0 {
		p.Address = formatAddress(&g.Addrs[0])
	}
	return p
}

func extractOrganization(org *cda.Organization) *Organization {
	o := &Organization{Phones: telecomValues(org.Telecoms, "tel")}
	if len(org.Names) > 0 {
		o.Name = strings.TrimSpace(org.Names[0])
	}
	if len(org.Addrs) > 0 {
		o.Address = formatAddress(&org.Addrs[0])
	}
	return o
}

// telecomValues filters telecom entries by scheme and strips the prefix.
func telecomValues(telecoms []cda.Telecom, scheme string) []string {
	var out []string
	for _, t := range telecoms {
		v := strings.TrimSpace(t.Value)
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, scheme+":") {
			out = append(out, strings.TrimPrefix(v, scheme+":"))
		}
	}
	return out
}

func formatAddress(a *cda.Address) string {
	var parts []string
	for _, s := range a.Streets {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	for _, s := range []string{a.City, a.State, a.PostalCode, a.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
