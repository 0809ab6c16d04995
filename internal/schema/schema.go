// Package schema holds the declarative field mapping table: per clinical
// section code (and optionally per country), which fields to extract, the
// path expression locating each one, and whether the value needs terminology
// resolution or translation. The schema is loaded once at startup and is
// immutable afterwards, so concurrent readers need no synchronization.
package schema

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FieldMapping describes one extractable field of a section entry.
type FieldMapping struct {
	Label      string `mapstructure:"label" json:"label"`
	Path       string `mapstructure:"path" json:"path"`
	Translate  bool   `mapstructure:"translate" json:"translate"`
	ValueSet   bool   `mapstructure:"value_set" json:"value_set"`
	CodeSystem string `mapstructure:"code_system" json:"code_system,omitempty"`
	CodePath   string `mapstructure:"code_path" json:"code_path,omitempty"`
}

// group is one schema group in the YAML file model.
type group struct {
	Section  string         `mapstructure:"section"`
	Country  string         `mapstructure:"country"`
	Mappings []FieldMapping `mapstructure:"mappings"`
}

type fileModel struct {
	Version string  `mapstructure:"version"`
	Groups  []group `mapstructure:"groups"`
}

// Schema is the loaded, read-only mapping table.
type Schema struct {
	version string
	// section code -> country ("" = generic) -> mappings
	groups map[string]map[string][]FieldMapping
}

// Version returns the schema version string.
func (s *Schema) Version() string { return s.version }

// ForSection returns the mappings for a section code, preferring a
// country-specific group and falling back to the generic group. The returned
// slice is a copy; callers cannot mutate the schema.
func (s *Schema) ForSection(sectionCode, country string) []FieldMapping {
	byCountry, ok := s.groups[sectionCode]
	if !ok {
		return nil
	}
	if country != "" {
		if m, ok := byCountry[strings.ToUpper(country)]; ok {
			return append([]FieldMapping(nil), m...)
		}
	}
	return append([]FieldMapping(nil), byCountry[""]...)
}

// SectionCodes returns every section code the schema knows about.
func (s *Schema) SectionCodes() []string {
	out := make([]string, 0, len(s.groups))
	for code := range s.groups {
		out = append(out, code)
	}
	return out
}

// Load builds the schema from the compiled-in defaults, overlaid with the
// groups of an optional YAML file. A group in the file replaces the default
// group with the same (section, country) key.
func Load(path string) (*Schema, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	var fm fileModel
	if err := v.Unmarshal(&fm); err != nil {
		return nil, fmt.Errorf("schema: unmarshal %s: %w", path, err)
	}
	if fm.Version != "" {
		s.version = fm.Version
	}
	for _, g := range fm.Groups {
		if g.Section == "" {
			return nil, fmt.Errorf("schema: group without section code in %s", path)
		}
		for _, m := range g.Mappings {
			if m.Label == "" || m.Path == "" {
				return nil, fmt.Errorf("schema: mapping in section %s needs label and path", g.Section)
			}
		}
		s.put(g.Section, g.Country, g.Mappings)
	}
	return s, nil
}

func (s *Schema) put(section, country string, mappings []FieldMapping) {
	if s.groups[section] == nil {
		s.groups[section] = make(map[string][]FieldMapping)
	}
	s.groups[section][strings.ToUpper(country)] = mappings
}
