package terminology

import (
	"context"
	"errors"
)

// ErrConceptNotFound is returned by catalogue lookups with no match.
var ErrConceptNotFound = errors.New("terminology: concept not found")

// CatalogueRepository is the read-only contract a concept catalogue must
// satisfy. The pipeline never writes to the catalogue.
type CatalogueRepository interface {
	// LookupConcept finds a concept by exact code and code system.
	LookupConcept(ctx context.Context, code, codeSystem string) (*Concept, error)

	// LookupAnySystem finds a concept by code across all code systems.
	LookupAnySystem(ctx context.Context, code string) (*Concept, error)

	// SearchDisplay finds concepts whose display text matches the query.
	SearchDisplay(ctx context.Context, query string, limit int) ([]*Concept, error)

	// LookupTranslation returns the display text of a concept in the given
	// language, or ErrConceptNotFound when no translation exists.
	LookupTranslation(ctx context.Context, code, codeSystem, language string) (string, error)
}
