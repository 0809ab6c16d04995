package cda

import "encoding/xml"

// HL7 CDA namespaces, LOINC section codes, and code system OIDs used by the
// extraction pipeline.
const (
	Namespace    = "urn:hl7-org:v3"
	XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

	// LOINC codes for section identification
	LOINCAllergies     = "48765-2"
	LOINCMedications   = "10160-0"
	LOINCProblems      = "11450-4"
	LOINCProcedures    = "47519-4"
	LOINCResults       = "30954-2"
	LOINCVitalSigns    = "8716-3"
	LOINCImmunizations = "11369-6"
	LOINCDevices       = "46264-8"
	LOINCSocialHistory = "29762-2"
	LOINCPlanOfCare    = "18776-5"

	// Code system OIDs
	OIDLOINC  = "2.16.840.1.113883.6.1"
	OIDSNOMED = "2.16.840.1.113883.6.96"
	OIDRxNorm = "2.16.840.1.113883.6.88"
	OIDICD10  = "2.16.840.1.113883.6.90"
	OIDATC    = "2.16.840.1.113883.6.73"
	OIDEDQM   = "0.4.0.127.0.16.1.1.2.1"
	OIDUCUM   = "2.16.840.1.113883.6.8"
)

// Document is the root element of a CDA R2 clinical document.
type Document struct {
	XMLName         xml.Name      `xml:"ClinicalDocument"`
	RealmCode       *Code         `xml:"realmCode"`
	TemplateIDs     []InstanceID  `xml:"templateId"`
	ID              *InstanceID   `xml:"id"`
	Code            *Code         `xml:"code"`
	Title           string        `xml:"title"`
	EffectiveTime   *TimeValue    `xml:"effectiveTime"`
	Confidentiality *Code         `xml:"confidentialityCode"`
	LanguageCode    *Code         `xml:"languageCode"`
	RecordTarget    *RecordTarget `xml:"recordTarget"`
	Authors         []Author      `xml:"author"`
	Custodian       *Custodian    `xml:"custodian"`
	LegalAuth       *LegalAuth    `xml:"legalAuthenticator"`
	Participants    []HeaderPart  `xml:"participant"`
	Component       *Component    `xml:"component"`
}

// InstanceID is an HL7 II identifier.
type InstanceID struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr"`
}

// Code is an HL7 coded value. OriginalText and Translations carry the
// alternates that country dialects hide displayable text in.
type Code struct {
	Code           string        `xml:"code,attr"`
	CodeSystem     string        `xml:"codeSystem,attr"`
	CodeSystemName string        `xml:"codeSystemName,attr"`
	DisplayName    string        `xml:"displayName,attr"`
	NullFlavor     string        `xml:"nullFlavor,attr"`
	OriginalText   *OriginalText `xml:"originalText"`
	Translations   []Code        `xml:"translation"`
}

// OriginalText is free text (or a reference into the narrative) behind a code.
type OriginalText struct {
	Text      string     `xml:",chardata"`
	Reference *Reference `xml:"reference"`
}

// Reference points into the section narrative by ID.
type Reference struct {
	Value string `xml:"value,attr"`
}

// TimeValue is a point-in-time HL7 TS value.
type TimeValue struct {
	Value string `xml:"value,attr"`
}

// TimeRange is an HL7 IVL_TS interval.
type TimeRange struct {
	Value string     `xml:"value,attr"`
	Low   *TimeValue `xml:"low"`
	High  *TimeValue `xml:"high"`
}

// RecordTarget holds the patient in the document header.
type RecordTarget struct {
	PatientRole *PatientRole `xml:"patientRole"`
}

// PatientRole contains patient identifiers, contacts, and demographics.
type PatientRole struct {
	IDs      []InstanceID `xml:"id"`
	Addrs    []Address    `xml:"addr"`
	Telecoms []Telecom    `xml:"telecom"`
	Patient  *Patient     `xml:"patient"`
}

// Patient carries demographics and guardians.
type Patient struct {
	Names     []PersonName `xml:"name"`
	Gender    *Code        `xml:"administrativeGenderCode"`
	BirthTime *TimeValue   `xml:"birthTime"`
	Guardians []Guardian   `xml:"guardian"`
	Language  *LangComm    `xml:"languageCommunication"`
}

// Guardian is a patient guardian in the header.
type Guardian struct {
	Code           *Code     `xml:"code"`
	Addrs          []Address `xml:"addr"`
	Telecoms       []Telecom `xml:"telecom"`
	GuardianPerson *Person   `xml:"guardianPerson"`
}

// LangComm is the patient's language of communication.
type LangComm struct {
	LanguageCode *Code `xml:"languageCode"`
}

// PersonName is an HL7 PN name.
type PersonName struct {
	Given    []string `xml:"given"`
	Family   []string `xml:"family"`
	Prefixes []string `xml:"prefix"`
	Text     string   `xml:",chardata"`
}

// Person wraps a person name.
type Person struct {
	Names []PersonName `xml:"name"`
}

// Address is an HL7 AD postal address.
type Address struct {
	Use        string   `xml:"use,attr"`
	Streets    []string `xml:"streetAddressLine"`
	City       string   `xml:"city"`
	State      string   `xml:"state"`
	PostalCode string   `xml:"postalCode"`
	Country    string   `xml:"country"`
}

// Telecom is an HL7 TEL contact point.
type Telecom struct {
	Use   string `xml:"use,attr"`
	Value string `xml:"value,attr"`
}

// Author is a document author in the header.
type Author struct {
	Time           *TimeValue      `xml:"time"`
	AssignedAuthor *AssignedAuthor `xml:"assignedAuthor"`
}

// AssignedAuthor identifies the authoring person, device, or organization.
type AssignedAuthor struct {
	IDs            []InstanceID  `xml:"id"`
	Code           *Code         `xml:"code"`
	Telecoms       []Telecom     `xml:"telecom"`
	AssignedPerson *Person       `xml:"assignedPerson"`
	Device         *Device       `xml:"assignedAuthoringDevice"`
	Organization   *Organization `xml:"representedOrganization"`
}

// Device identifies an authoring device.
type Device struct {
	SoftwareName string `xml:"softwareName"`
}

// Organization is a healthcare organization in the header.
type Organization struct {
	IDs      []InstanceID `xml:"id"`
	Names    []string     `xml:"name"`
	Telecoms []Telecom    `xml:"telecom"`
	Addrs    []Address    `xml:"addr"`
}

// Custodian holds the custodian organization.
type Custodian struct {
	AssignedCustodian *AssignedCustodian `xml:"assignedCustodian"`
}

// AssignedCustodian contains the custodian organization.
type AssignedCustodian struct {
	Organization *Organization `xml:"representedCustodianOrganization"`
}

// LegalAuth is the legal authenticator of the document.
type LegalAuth struct {
	Time           *TimeValue      `xml:"time"`
	AssignedEntity *AssignedEntity `xml:"assignedEntity"`
}

// AssignedEntity identifies a person acting in a role.
type AssignedEntity struct {
	IDs            []InstanceID  `xml:"id"`
	Addrs          []Address     `xml:"addr"`
	Telecoms       []Telecom     `xml:"telecom"`
	AssignedPerson *Person       `xml:"assignedPerson"`
	Organization   *Organization `xml:"representedOrganization"`
}

// HeaderPart is a header-level participant (e.g. emergency contact).
type HeaderPart struct {
	TypeCode      string         `xml:"typeCode,attr"`
	AssociatedEnt *AssociatedEnt `xml:"associatedEntity"`
}

// AssociatedEnt is the entity behind a header participant.
type AssociatedEnt struct {
	ClassCode        string    `xml:"classCode,attr"`
	Code             *Code     `xml:"code"`
	Addrs            []Address `xml:"addr"`
	Telecoms         []Telecom `xml:"telecom"`
	AssociatedPerson *Person   `xml:"associatedPerson"`
}

// Component wraps the document body.
type Component struct {
	StructuredBody *StructuredBody `xml:"structuredBody"`
}

// StructuredBody holds the document sections.
type StructuredBody struct {
	Components []SectionComponent `xml:"component"`
}

// SectionComponent wraps a single section.
type SectionComponent struct {
	Section *Section `xml:"section"`
}

// Section is a coded grouping of clinical facts.
type Section struct {
	ID          string             `xml:"ID,attr"`
	TemplateIDs []InstanceID       `xml:"templateId"`
	Code        *Code              `xml:"code"`
	Title       string             `xml:"title"`
	Text        *Narrative         `xml:"text"`
	Entries     []Entry            `xml:"entry"`
	Components  []SectionComponent `xml:"component"` // nested sub-sections
}

// Narrative is the rendered-markup block of a section.
type Narrative struct {
	Tables  []NarrativeTable `xml:"table"`
	Lists   []NarrativeList  `xml:"list"`
	Content string           `xml:",innerxml"`
}

// NarrativeTable is a narrative HTML-style table.
type NarrativeTable struct {
	Thead *NarrativeRows `xml:"thead"`
	Tbody *NarrativeRows `xml:"tbody"`
	Rows  []NarrativeRow `xml:"tr"`
}

// NarrativeRows groups rows in a thead or tbody.
type NarrativeRows struct {
	Rows []NarrativeRow `xml:"tr"`
}

// NarrativeRow is one table row.
type NarrativeRow struct {
	Headers []string        `xml:"th"`
	Cells   []NarrativeCell `xml:"td"`
}

// NarrativeCell is one table cell; nested content is flattened to text.
type NarrativeCell struct {
	Text string `xml:",chardata"`
	Sub  string `xml:"content"`
}

// NarrativeList is a narrative list block.
type NarrativeList struct {
	Items []string `xml:"item"`
}

// Entry is one discrete clinical statement inside a section.
type Entry struct {
	TypeCode     string                   `xml:"typeCode,attr"`
	Act          *Act                     `xml:"act"`
	Observation  *Observation             `xml:"observation"`
	SubstanceAdm *SubstanceAdministration `xml:"substanceAdministration"`
	Procedure    *Procedure               `xml:"procedure"`
	Organizer    *Organizer               `xml:"organizer"`
	Supply       *Supply                  `xml:"supply"`
}

// Act is a CDA act wrapper, the usual outer shell for allergies and problems.
type Act struct {
	ClassCode     string              `xml:"classCode,attr"`
	MoodCode      string              `xml:"moodCode,attr"`
	IDs           []InstanceID        `xml:"id"`
	Code          *Code               `xml:"code"`
	Text          *OriginalText       `xml:"text"`
	StatusCode    *Code               `xml:"statusCode"`
	EffectiveTime *TimeRange          `xml:"effectiveTime"`
	Relationships []EntryRelationship `xml:"entryRelationship"`
}

// EntryRelationship links nested clinical statements.
type EntryRelationship struct {
	TypeCode     string                   `xml:"typeCode,attr"`
	Observation  *Observation             `xml:"observation"`
	Act          *Act                     `xml:"act"`
	SubstanceAdm *SubstanceAdministration `xml:"substanceAdministration"`
	Supply       *Supply                  `xml:"supply"`
}

// Observation is a CDA observation.
type Observation struct {
	ClassCode      string              `xml:"classCode,attr"`
	MoodCode       string              `xml:"moodCode,attr"`
	IDs            []InstanceID        `xml:"id"`
	Code           *Code               `xml:"code"`
	Text           *OriginalText       `xml:"text"`
	StatusCode     *Code               `xml:"statusCode"`
	EffectiveTime  *TimeRange          `xml:"effectiveTime"`
	Value          *Value              `xml:"value"`
	Interpretation *Code               `xml:"interpretationCode"`
	Participants   []Participant       `xml:"participant"`
	Relationships  []EntryRelationship `xml:"entryRelationship"`
}

// Value is a typed observation value.
type Value struct {
	Type         string        `xml:"type,attr"`
	Value        string        `xml:"value,attr"`
	Unit         string        `xml:"unit,attr"`
	Code         string        `xml:"code,attr"`
	CodeSystem   string        `xml:"codeSystem,attr"`
	DisplayName  string        `xml:"displayName,attr"`
	NullFlavor   string        `xml:"nullFlavor,attr"`
	Text         string        `xml:",chardata"`
	OriginalText *OriginalText `xml:"originalText"`
	Translations []Code        `xml:"translation"`
}

// Procedure is a CDA procedure statement.
type Procedure struct {
	ClassCode     string              `xml:"classCode,attr"`
	MoodCode      string              `xml:"moodCode,attr"`
	IDs           []InstanceID        `xml:"id"`
	Code          *Code               `xml:"code"`
	Text          *OriginalText       `xml:"text"`
	StatusCode    *Code               `xml:"statusCode"`
	EffectiveTime *TimeRange          `xml:"effectiveTime"`
	TargetSites   []Code              `xml:"targetSiteCode"`
	Relationships []EntryRelationship `xml:"entryRelationship"`
}

// Participant is an entry-level participant, e.g. an allergy agent.
type Participant struct {
	TypeCode string           `xml:"typeCode,attr"`
	Role     *ParticipantRole `xml:"participantRole"`
}

// ParticipantRole wraps the playing entity.
type ParticipantRole struct {
	ClassCode string         `xml:"classCode,attr"`
	Entity    *PlayingEntity `xml:"playingEntity"`
}

// PlayingEntity is the material or entity participating in an entry.
type PlayingEntity struct {
	ClassCode string `xml:"classCode,attr"`
	Code      *Code  `xml:"code"`
	Name      string `xml:"name"`
}

// SubstanceAdministration is a medication or immunization statement.
type SubstanceAdministration struct {
	ClassCode      string              `xml:"classCode,attr"`
	MoodCode       string              `xml:"moodCode,attr"`
	IDs            []InstanceID        `xml:"id"`
	Text           *OriginalText       `xml:"text"`
	StatusCode     *Code               `xml:"statusCode"`
	EffectiveTimes []TimeRange         `xml:"effectiveTime"`
	RouteCode      *Code               `xml:"routeCode"`
	DoseQuantity   *Quantity           `xml:"doseQuantity"`
	RateQuantity   *Quantity           `xml:"rateQuantity"`
	Consumable     *Consumable         `xml:"consumable"`
	Relationships  []EntryRelationship `xml:"entryRelationship"`
}

// Quantity is an HL7 PQ physical quantity.
type Quantity struct {
	Value string    `xml:"value,attr"`
	Unit  string    `xml:"unit,attr"`
	Low   *Quantity `xml:"low"`
	High  *Quantity `xml:"high"`
}

// Consumable wraps the manufactured product of an administration.
type Consumable struct {
	ManufacturedProduct *ManufacturedProduct `xml:"manufacturedProduct"`
}

// ManufacturedProduct holds the medication material.
type ManufacturedProduct struct {
	Material     *Material     `xml:"manufacturedMaterial"`
	Organization *Organization `xml:"manufacturerOrganization"`
}

// Material is the medication material with its code and name.
type Material struct {
	Code *Code  `xml:"code"`
	Name string `xml:"name"`
}

// Supply is a supply/dispense statement.
type Supply struct {
	ClassCode  string      `xml:"classCode,attr"`
	MoodCode   string      `xml:"moodCode,attr"`
	Quantity   *Quantity   `xml:"quantity"`
	Product    *Consumable `xml:"product"`
	StatusCode *Code       `xml:"statusCode"`
}

// Organizer groups related observations (lab panels, vital sign batteries).
type Organizer struct {
	ClassCode     string               `xml:"classCode,attr"`
	MoodCode      string               `xml:"moodCode,attr"`
	Code          *Code                `xml:"code"`
	StatusCode    *Code                `xml:"statusCode"`
	EffectiveTime *TimeRange           `xml:"effectiveTime"`
	Components    []OrganizerComponent `xml:"component"`
}

// OrganizerComponent wraps an observation inside an organizer.
type OrganizerComponent struct {
	Observation *Observation `xml:"observation"`
}
