// Package docmap derives and caches document-tailored extraction patterns.
// A DocumentMap records, per section of one concrete document, the entry
// shape that was actually observed and a set of path-expression patterns
// synthesized for that shape, keyed by the document's content hash so that
// repeat processing of identical content skips re-derivation.
package docmap

import (
	"context"
	"errors"
	"time"
)

// MapVersion is the current DocumentMap schema version. Maps persisted with
// a different version are treated as absent and rebuilt.
const MapVersion = 2

// EntryShape classifies how a section encodes its entries.
type EntryShape string

const (
	ShapeAgentParticipant EntryShape = "agent-participant" // nested observation with participant
	ShapeObservationValue EntryShape = "observation-value" // coded fact carried in observation value
	ShapeSubstanceAdmin   EntryShape = "substance-admin"   // plain substance administration
	ShapeProcedure        EntryShape = "procedure"
	ShapeOrganizerBattery EntryShape = "organizer-battery"
	ShapeNarrativeOnly    EntryShape = "narrative-only"
	ShapeUnknown          EntryShape = "unknown"
)

// SectionMap is the derived metadata and patterns for one section.
type SectionMap struct {
	Code       string            `json:"code"`
	Title      string            `json:"title"`
	EntryCount int               `json:"entry_count"`
	Shape      EntryShape        `json:"shape"`
	Patterns   map[string]string `json:"patterns"` // field label -> path expression relative to an entry node
}

// DocumentMap is the full derived map for one document's content.
type DocumentMap struct {
	ContentHash string       `json:"content_hash"`
	Version     int          `json:"version"`
	BuiltAt     time.Time    `json:"built_at"`
	Sections    []SectionMap `json:"sections"`
}

// Empty reports whether the map carries no usable extraction patterns.
func (m *DocumentMap) Empty() bool {
	if m == nil {
		return true
	}
	for _, s := range m.Sections {
		if len(s.Patterns) > 0 {
			return false
		}
	}
	return true
}

// ErrNotFound is returned by Store.Get when no map exists for a hash.
var ErrNotFound = errors.New("docmap: map not found")

// Store persists document maps keyed by content hash. Implementations must
// serialize writes per key; concurrent reads of stored maps are safe.
type Store interface {
	// Get returns the map for a content hash, or ErrNotFound.
	Get(ctx context.Context, hash string) (*DocumentMap, error)

	// PutIfAbsent stores the map unless one already exists for the hash,
	// and returns the map that is now stored (the existing one wins).
	PutIfAbsent(ctx context.Context, hash string, m *DocumentMap) (*DocumentMap, error)
}
