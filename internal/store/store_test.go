package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/repository/memory"
)

type seqIDs struct{ n int }

func (s *seqIDs) Next() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

func newTestStore(t *testing.T, backend *memory.Store) *Store {
	t.Helper()
	s, err := New(context.Background(), backend, &seqIDs{}, nil)
	require.NoError(t, err)
	return s
}

func TestUpdateCommitsAndPersists(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := newTestStore(t, backend)

	err := s.Update(ctx, func(tx *Tx) error {
		_, err := tx.AppendEvent(models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 4})
		return err
	})
	require.NoError(t, err)

	raw, err := backend.Load(ctx, KeyChickenHistory)
	require.NoError(t, err)
	var stored []models.LedgerEvent
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "id-1", stored[0].ID)
	assert.Equal(t, int64(1), stored[0].Seq)

	// Untouched collections are not written.
	raw, err = backend.Load(ctx, KeyAnimals)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestUpdateErrorDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx *Tx) error {
		tx.AddAnimals(models.IndividualAnimal{Type: models.SpeciesRabbit, Breed: "Rex", Number: 1})
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(func(v *View) error {
		assert.Empty(t, v.Animals())
		return nil
	}))
}

func TestUpdatePersistFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := newTestStore(t, backend)
	backend.FailOn = map[string]error{KeyBreeding: errors.New("disk full")}

	err := s.Update(ctx, func(tx *Tx) error {
		tx.AddAnimals(models.IndividualAnimal{Type: models.SpeciesRabbit, Breed: "Rex", Number: 1})
		tx.PutBreedingRecord(models.BreedingRecord{BuckID: "b", DoeID: "d"})
		return nil
	})
	require.Error(t, err)

	require.NoError(t, s.View(func(v *View) error {
		assert.Empty(t, v.Animals())
		assert.Empty(t, v.BreedingRecords())
		return nil
	}))
	raw, _ := backend.Load(ctx, KeyAnimals)
	assert.Nil(t, raw, "batch save must be all-or-nothing")
}

func TestViewReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		tx.PutBreedingRecord(models.BreedingRecord{ID: "r1", Attempts: []models.Attempt{{ID: "a1"}}})
		return nil
	}))

	require.NoError(t, s.View(func(v *View) error {
		recs := v.BreedingRecords()
		recs[0].Attempts[0].ID = "mutated"
		return nil
	}))
	require.NoError(t, s.View(func(v *View) error {
		rec, ok := v.BreedingRecord("r1")
		require.True(t, ok)
		assert.Equal(t, "a1", rec.Attempts[0].ID)
		return nil
	}))
}

func TestReloadRestoresStateAndSequence(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := newTestStore(t, backend)
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		for i := 0; i < 3; i++ {
			if _, err := tx.AppendEvent(models.SpeciesDuck, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 1}); err != nil {
				return err
			}
		}
		tx.AddGroup(models.Group{Name: "Pond", Type: models.SpeciesDuck})
		return nil
	}))

	reloaded, err := New(ctx, backend, &seqIDs{n: 100}, nil)
	require.NoError(t, err)
	require.NoError(t, reloaded.Update(ctx, func(tx *Tx) error {
		e, err := tx.AppendEvent(models.SpeciesDuck, models.LedgerEvent{Date: "2024-01-02", Type: models.EventDeath, Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(4), e.Seq)
		assert.Len(t, tx.Groups(), 1)
		return nil
	}))
}

func TestLoadBackfillsMissingSequences(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	require.NoError(t, backend.Save(ctx, KeyChickenHistory, []byte(`[
		{"id":"a","date":"2024-01-01","type":"acquired","quantity":5},
		{"id":"b","date":"2024-01-01","type":"sold","quantity":2}
	]`)))

	s := newTestStore(t, backend)
	require.NoError(t, s.View(func(v *View) error {
		events := v.Events(models.SpeciesChicken)
		require.Len(t, events, 2)
		assert.Equal(t, int64(1), events[0].Seq)
		assert.Equal(t, int64(2), events[1].Seq)
		return nil
	}))
}

func TestAppendEventRejectsRabbits(t *testing.T) {
	s := newTestStore(t, memory.New())
	err := s.Update(context.Background(), func(tx *Tx) error {
		_, err := tx.AppendEvent(models.SpeciesRabbit, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 1})
		return err
	})
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestRemoveMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t, memory.New())
	err := s.Update(context.Background(), func(tx *Tx) error {
		return tx.RemoveBreedingRecord("nope")
	})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestMigrateLegacyRunsOnce(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	require.NoError(t, backend.Save(ctx, KeyLegacyChickens, []byte(`[
		{"id":"c1","breed":"Sussex","dateAcquired":"2023-05-01","quantity":3,"status":"active"},
		{"id":"c2","breed":"Silkie","dateAcquired":"2023-05-01","quantity":2,"status":"sold"}
	]`)))
	require.NoError(t, backend.Save(ctx, KeyLegacyRabbits, []byte(`[
		{"id":"r1","breed":"Rex","gender":"doe","dateAcquired":"2023-06-01","quantity":1,"status":"active"}
	]`)))

	s := newTestStore(t, backend)
	n, err := s.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = s.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.View(func(v *View) error {
		animals := v.Animals()
		require.Len(t, animals, 4)
		assert.Equal(t, []int{1, 2, 3}, []int{animals[0].Number, animals[1].Number, animals[2].Number})
		assert.Equal(t, models.SexFemale, animals[3].Sex)
		assert.True(t, v.Flag(FlagMigrationV2))
		return nil
	}))

	// The flag survives a reload.
	reloaded := newTestStore(t, backend)
	n, err = reloaded.MigrateLegacy(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrateLegacyWithoutLegacyData(t *testing.T) {
	s := newTestStore(t, memory.New())
	n, err := s.MigrateLegacy(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// keyByKey hides memory.Store's SaveBatch so saves go one key at a time.
type keyByKey struct {
	inner  *memory.Store
	writes []string
}

func (k *keyByKey) Load(ctx context.Context, key string) ([]byte, error) {
	return k.inner.Load(ctx, key)
}

func (k *keyByKey) Save(ctx context.Context, key string, payload []byte) error {
	if err := k.inner.Save(ctx, key, payload); err != nil {
		return err
	}
	k.writes = append(k.writes, key)
	return nil
}

func (k *keyByKey) Close(ctx context.Context) error { return k.inner.Close(ctx) }

func TestKeyByKeyPersistWritesBreedingBeforeAnimals(t *testing.T) {
	ctx := context.Background()
	backend := &keyByKey{inner: memory.New()}
	s, err := New(ctx, backend, &seqIDs{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		tx.AddAnimals(models.IndividualAnimal{Type: models.SpeciesRabbit, Breed: "Rex", Number: 1})
		tx.PutBreedingRecord(models.BreedingRecord{BuckID: "b", DoeID: "d"})
		tx.SetFlag(FlagMigrationV2)
		return nil
	}))
	assert.Equal(t, []string{KeyBreeding, KeyAnimals, FlagMigrationV2}, backend.writes)

	// A failure on the second key keeps the first write and the old live state.
	backend.writes = nil
	backend.inner.FailOn = map[string]error{KeyAnimals: errors.New("disk full")}
	err = s.Update(ctx, func(tx *Tx) error {
		tx.AddAnimals(models.IndividualAnimal{Type: models.SpeciesRabbit, Breed: "Rex", Number: 2})
		tx.PutBreedingRecord(models.BreedingRecord{ID: "r2", BuckID: "b", DoeID: "d"})
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, []string{KeyBreeding}, backend.writes)

	require.NoError(t, s.View(func(v *View) error {
		assert.Len(t, v.Animals(), 1)
		assert.Len(t, v.BreedingRecords(), 1)
		return nil
	}))
	raw, err := backend.Load(ctx, KeyBreeding)
	require.NoError(t, err)
	var stored []models.BreedingRecord
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored, 2)
}

func TestHusbandryCollectionsReload(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := newTestStore(t, backend)
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		tx.PutHealthRecord(models.HealthRecord{AnimalID: "a1", Date: "2024-03-01", Issue: "snuffles"})
		tx.AddWeightRecord(models.WeightRecord{AnimalID: "a1", Date: "2024-03-01", Weight: 3.2})
		tx.PutBreedingPlan(models.BreedingPlan{BuckID: "b", DoeID: "d", PlannedDate: "2024-04-01", ExpectedTraits: []string{"rex coat"}, Status: models.PlanPlanned})
		return nil
	}))

	reloaded, err := New(ctx, backend, &seqIDs{n: 100}, nil)
	require.NoError(t, err)
	require.NoError(t, reloaded.View(func(v *View) error {
		require.Len(t, v.HealthRecords(), 1)
		assert.Equal(t, "snuffles", v.HealthRecords()[0].Issue)
		require.Len(t, v.WeightRecords(), 1)
		assert.Equal(t, 3.2, v.WeightRecords()[0].Weight)
		plans := v.BreedingPlans()
		require.Len(t, plans, 1)
		assert.Equal(t, []string{"rex coat"}, plans[0].ExpectedTraits)
		return nil
	}))
}
