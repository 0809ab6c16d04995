package docmap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clindoc/clindoc/internal/platform/cda"
)

const allergyDoc = `<?xml version="1.0"?>
<ClinicalDocument xmlns="urn:hl7-org:v3">
  <component><structuredBody>
    <component><section>
      <code code="48765-2" codeSystem="2.16.840.1.113883.6.1"/>
      <title>Allergies</title>
      <entry>
        <act classCode="ACT" moodCode="EVN">
          <statusCode code="active"/>
          <entryRelationship typeCode="SUBJ">
            <observation classCode="OBS" moodCode="EVN">
              <participant typeCode="CSM">
                <participantRole><playingEntity>
                  <code code="373270004" codeSystem="2.16.840.1.113883.6.96" displayName="Penicillin"/>
                </playingEntity></participantRole>
              </participant>
            </observation>
          </entryRelationship>
        </act>
      </entry>
    </section></component>
    <component><section>
      <code code="10160-0" codeSystem="2.16.840.1.113883.6.1"/>
      <title>Medications</title>
      <entry>
        <substanceAdministration classCode="SBADM" moodCode="EVN">
          <statusCode code="active"/>
          <consumable><manufacturedProduct><manufacturedMaterial>
            <code code="1191" codeSystem="2.16.840.1.113883.6.88" displayName="Aspirin"/>
          </manufacturedMaterial></manufacturedProduct></consumable>
        </substanceAdministration>
      </entry>
    </section></component>
    <component><section>
      <code code="18776-5" codeSystem="2.16.840.1.113883.6.1"/>
      <title>Plan</title>
    </section></component>
  </structuredBody></component>
</ClinicalDocument>`

func buildTestMap(t *testing.T) *DocumentMap {
	t.Helper()
	doc, err := cda.Parse(allergyDoc)
	require.NoError(t, err)
	return NewBuilder().Build(doc, cda.Hash(allergyDoc))
}

func TestBuilder_ClassifiesShapes(t *testing.T) {
	m := buildTestMap(t)
	require.Len(t, m.Sections, 3)

	assert.Equal(t, "48765-2", m.Sections[0].Code)
	assert.Equal(t, ShapeAgentParticipant, m.Sections[0].Shape)
	assert.Equal(t, 1, m.Sections[0].EntryCount)
	assert.Contains(t, m.Sections[0].Patterns, "agent")

	assert.Equal(t, ShapeSubstanceAdmin, m.Sections[1].Shape)
	assert.Contains(t, m.Sections[1].Patterns, "name")

	assert.Equal(t, ShapeNarrativeOnly, m.Sections[2].Shape)
	assert.Empty(t, m.Sections[2].Patterns)
	assert.Equal(t, 0, m.Sections[2].EntryCount)
}

func TestBuilder_Idempotent(t *testing.T) {
	a := buildTestMap(t)
	b := buildTestMap(t)
	require.Equal(t, a.ContentHash, b.ContentHash)
	require.Equal(t, len(a.Sections), len(b.Sections))
	for i := range a.Sections {
		assert.Equal(t, a.Sections[i].Shape, b.Sections[i].Shape)
		assert.Equal(t, a.Sections[i].Patterns, b.Sections[i].Patterns)
	}
}

func TestMemoryStore_PutIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := buildTestMap(t)

	_, err := store.Get(ctx, m.ContentHash)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := store.PutIfAbsent(ctx, m.ContentHash, m)
	require.NoError(t, err)
	assert.Same(t, m, stored)

	// A second writer loses; the first map stays.
	other := buildTestMap(t)
	other.BuiltAt = time.Now().Add(time.Hour)
	stored, err = store.PutIfAbsent(ctx, m.ContentHash, other)
	require.NoError(t, err)
	assert.Same(t, m, stored)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_StaleVersionTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := buildTestMap(t)
	m.Version = MapVersion + 1
	_, err := store.PutIfAbsent(ctx, m.ContentHash, m)
	require.NoError(t, err)

	_, err = store.Get(ctx, m.ContentHash)
	assert.ErrorIs(t, err, ErrNotFound)

	fresh := buildTestMap(t)
	stored, err := store.PutIfAbsent(ctx, fresh.ContentHash, fresh)
	require.NoError(t, err)
	assert.Equal(t, MapVersion, stored.Version)
}

func TestMemoryStore_ConcurrentWritersOneWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := buildTestMap(t)

	candidates := make([]*DocumentMap, 16)
	for i := range candidates {
		candidates[i] = buildTestMap(t)
	}

	var wg sync.WaitGroup
	results := make([]*DocumentMap, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, err := store.PutIfAbsent(ctx, m.ContentHash, candidates[i])
			assert.NoError(t, err)
			results[i] = stored
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Same(t, results[0], r, "all writers must observe the same stored map")
	}
	assert.Equal(t, 1, store.Len())
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(t.TempDir() + "/maps.db")
	require.NoError(t, err)
	defer store.Close()

	m := buildTestMap(t)
	_, err = store.Get(ctx, m.ContentHash)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := store.PutIfAbsent(ctx, m.ContentHash, m)
	require.NoError(t, err)
	assert.Equal(t, m.ContentHash, stored.ContentHash)

	got, err := store.Get(ctx, m.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, len(m.Sections), len(got.Sections))
	assert.Equal(t, m.Sections[0].Patterns, got.Sections[0].Patterns)

	// Second put keeps the original.
	other := buildTestMap(t)
	other.BuiltAt = other.BuiltAt.Add(time.Hour)
	stored, err = store.PutIfAbsent(ctx, m.ContentHash, other)
	require.NoError(t, err)
	assert.Equal(t, m.BuiltAt.Unix(), stored.BuiltAt.Unix())
}
