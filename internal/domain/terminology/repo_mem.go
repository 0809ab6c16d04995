package terminology

import (
	"context"
	"strings"
	"sync"
)

// MemoryCatalogue is an in-memory CatalogueRepository for development and
// tests. Concepts and translations are loaded up front; reads take an
// RLock only to allow loading in test setup.
type MemoryCatalogue struct {
	mu           sync.RWMutex
	concepts     map[string]*Concept // "system|code"
	byCode       map[string][]*Concept
	translations map[string]string // "system|code|lang"
}

// NewMemoryCatalogue creates an empty catalogue.
func NewMemoryCatalogue() *MemoryCatalogue {
	return &MemoryCatalogue{
		concepts:     make(map[string]*Concept),
		byCode:       make(map[string][]*Concept),
		translations: make(map[string]string),
	}
}

// AddConcept registers a concept.
func (m *MemoryCatalogue) AddConcept(c Concept) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := c
	m.concepts[c.CodeSystem+"|"+c.Code] = &stored
	m.byCode[c.Code] = append(m.byCode[c.Code], &stored)
}

// AddTranslation registers a per-language display for a concept.
func (m *MemoryCatalogue) AddTranslation(code, codeSystem, language, display string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[codeSystem+"|"+code+"|"+strings.ToLower(language)] = display
}

// LookupConcept implements CatalogueRepository.
func (m *MemoryCatalogue) LookupConcept(_ context.Context, code, codeSystem string) (*Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.concepts[codeSystem+"|"+code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrConceptNotFound
}

// LookupAnySystem implements CatalogueRepository.
func (m *MemoryCatalogue) LookupAnySystem(_ context.Context, code string) (*Concept, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if list := m.byCode[code]; len(list) > 0 {
		cp := *list[0]
		return &cp, nil
	}
	return nil, ErrConceptNotFound
}

// SearchDisplay implements CatalogueRepository with case-insensitive
// substring matching.
func (m *MemoryCatalogue) SearchDisplay(_ context.Context, query string, limit int) ([]*Concept, error) {
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Concept
	for _, c := range m.concepts {
		if strings.Contains(strings.ToLower(c.Display), q) {
			cp := *c
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// LookupTranslation implements CatalogueRepository.
func (m *MemoryCatalogue) LookupTranslation(_ context.Context, code, codeSystem, language string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.translations[codeSystem+"|"+code+"|"+strings.ToLower(language)]; ok {
		return d, nil
	}
	return "", ErrConceptNotFound
}
