package terminology

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGCatalogue is a CatalogueRepository over Postgres reference tables:
//
//	reference_concept(code, code_system, system_name, display)
//	concept_translation(code, code_system, language, display)
type PGCatalogue struct {
	pool *pgxpool.Pool
}

// NewPGCatalogue creates a catalogue over an existing pool.
func NewPGCatalogue(pool *pgxpool.Pool) *PGCatalogue {
	return &PGCatalogue{pool: pool}
}

// NewPGPool dials Postgres with the given connection limits.
func NewPGPool(ctx context.Context, url string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("terminology: parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("terminology: connect: %w", err)
	}
	return pool, nil
}

// LookupConcept implements CatalogueRepository.
func (r *PGCatalogue) LookupConcept(ctx context.Context, code, codeSystem string) (*Concept, error) {
	var c Concept
	err := r.pool.QueryRow(ctx,
		`SELECT code, code_system, COALESCE(system_name,''), display
		 FROM reference_concept WHERE code = $1 AND code_system = $2`,
		code, codeSystem).
		Scan(&c.Code, &c.CodeSystem, &c.SystemName, &c.Display)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConceptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("terminology: lookup concept: %w", err)
	}
	return &c, nil
}

// LookupAnySystem implements CatalogueRepository.
func (r *PGCatalogue) LookupAnySystem(ctx context.Context, code string) (*Concept, error) {
	var c Concept
	err := r.pool.QueryRow(ctx,
		`SELECT code, code_system, COALESCE(system_name,''), display
		 FROM reference_concept WHERE code = $1
		 ORDER BY code_system LIMIT 1`, code).
		Scan(&c.Code, &c.CodeSystem, &c.SystemName, &c.Display)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConceptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("terminology: lookup any system: %w", err)
	}
	return &c, nil
}

// SearchDisplay implements CatalogueRepository.
func (r *PGCatalogue) SearchDisplay(ctx context.Context, query string, limit int) ([]*Concept, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT code, code_system, COALESCE(system_name,''), display
		 FROM reference_concept WHERE display ILIKE $1
		 ORDER BY display LIMIT $2`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("terminology: search display: %w", err)
	}
	defer rows.Close()
	var out []*Concept
	for rows.Next() {
		var c Concept
		if err := rows.Scan(&c.Code, &c.CodeSystem, &c.SystemName, &c.Display); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// LookupTranslation implements CatalogueRepository.
func (r *PGCatalogue) LookupTranslation(ctx context.Context, code, codeSystem, language string) (string, error) {
	var display string
	err := r.pool.QueryRow(ctx,
		`SELECT display FROM concept_translation
		 WHERE code = $1 AND code_system = $2 AND LOWER(language) = LOWER($3)`,
		code, codeSystem, language).
		Scan(&display)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrConceptNotFound
	}
	if err != nil {
		return "", fmt.Errorf("terminology: lookup translation: %w", err)
	}
	return display, nil
}
