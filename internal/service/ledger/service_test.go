package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/repository/memory"
	"github.com/mamadbah2/homestead/internal/store"
)

type counterIDs struct{ n int }

func (c *counterIDs) Next() string {
	c.n++
	return fmt.Sprintf("id-%d", c.n)
}

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.New(context.Background(), memory.New(), &counterIDs{}, nil)
	require.NoError(t, err)
	svc := NewService(st, models.DefaultEventTypes(), nil).
		WithClock(func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) })
	return svc, st
}

func TestAppendAndCount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for _, e := range scenarioLog() {
		e.ID, e.Seq = "", 0
		_, _, err := svc.Append(ctx, models.SpeciesChicken, e, AppendOptions{})
		require.NoError(t, err)
	}

	n, err := svc.CountOnDate(models.SpeciesChicken, "2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = svc.CountOnDate(models.SpeciesDuck, "2024-01-07")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.CountOnDate(models.SpeciesRabbit, "2024-01-07")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestAppendRejectsInvalidEvents(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	cases := map[string]models.LedgerEvent{
		"zero quantity":  {Date: "2024-01-01", Type: models.EventAcquired, Quantity: 0},
		"bad date":       {Date: "Jan 1", Type: models.EventAcquired, Quantity: 1},
		"unknown type":   {Date: "2024-01-01", Type: "gifted", Quantity: 1},
		"breeds sum":     {Date: "2024-01-01", Type: models.EventAcquired, Quantity: 5, Breeds: []models.BreedEntry{{Breed: "Sussex", Hens: 4}}},
		"unknown group":  {Date: "2024-01-01", Type: models.EventAcquired, Quantity: 1, GroupID: "nope"},
		"bad sex":        {Date: "2024-01-01", Type: models.EventAcquired, Quantity: 1, Sex: "X"},
		"negative count": {Date: "2024-01-01", Type: models.EventAcquired, Quantity: 1, Breeds: []models.BreedEntry{{Breed: "Sussex", Hens: 2, Chicks: -1}}},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Append(ctx, models.SpeciesChicken, e, AppendOptions{TrackIndividuals: true})
			require.ErrorIs(t, err, models.ErrValidation)
		})
	}

	require.NoError(t, st.View(func(v *store.View) error {
		assert.Empty(t, v.Events(models.SpeciesChicken))
		assert.Empty(t, v.Animals())
		return nil
	}))
}

func TestAppendRejectsGroupOfOtherSpecies(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)
	require.NoError(t, st.Update(ctx, func(tx *store.Tx) error {
		tx.AddGroup(models.Group{ID: "pond", Name: "Pond", Type: models.SpeciesDuck})
		return nil
	}))

	_, _, err := svc.Append(ctx, models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 1, GroupID: "pond"}, AppendOptions{})
	require.ErrorIs(t, err, models.ErrValidation)

	_, _, err = svc.Append(ctx, models.SpeciesDuck, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 1, GroupID: "pond"}, AppendOptions{})
	require.NoError(t, err)
}

func TestAppendTracksIndividuals(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	require.NoError(t, st.Update(ctx, func(tx *store.Tx) error {
		tx.AddAnimals(models.IndividualAnimal{Type: models.SpeciesChicken, Breed: "Sussex", Number: 4, Status: models.StatusAlive})
		return nil
	}))

	e, created, err := svc.Append(ctx, models.SpeciesChicken, models.LedgerEvent{
		Date: "2024-01-03", Type: models.EventAcquired, Quantity: 5,
		Breeds: []models.BreedEntry{
			{Breed: "Sussex", Roosters: 1, Hens: 2},
			{Breed: "Silkie", Chicks: 2},
		},
	}, AppendOptions{TrackIndividuals: true})
	require.NoError(t, err)
	require.Len(t, created, 5)

	assert.Equal(t, models.SexMale, created[0].Sex)
	assert.Equal(t, models.StageMature, created[0].Stage)
	assert.Equal(t, 5, created[0].Number)
	assert.Equal(t, []int{6, 7}, []int{created[1].Number, created[2].Number})
	assert.Equal(t, models.SexFemale, created[2].Sex)
	assert.Equal(t, models.Sex(""), created[3].Sex)
	assert.Equal(t, models.StageChick, created[3].Stage)
	assert.Equal(t, 1, created[3].Number)
	for _, a := range created {
		assert.Equal(t, e.ID, a.EventID)
		assert.Equal(t, models.Date("2024-01-03"), a.DateAdded)
	}
}

func TestAppendNonAcquisitionCreatesNoIndividuals(t *testing.T) {
	svc, _ := newService(t)
	_, created, err := svc.Append(context.Background(), models.SpeciesDuck,
		models.LedgerEvent{Date: "2024-01-01", Type: models.EventDeath, Quantity: 2}, AppendOptions{TrackIndividuals: true})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestDeleteAcquisitionCascades(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	keep, _, err := svc.Append(ctx, models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 2, Breed: "Sussex"}, AppendOptions{TrackIndividuals: true})
	require.NoError(t, err)
	drop, _, err := svc.Append(ctx, models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-02", Type: models.EventAcquired, Quantity: 3, Breed: "Sussex"}, AppendOptions{TrackIndividuals: true})
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, models.SpeciesChicken, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	require.NoError(t, st.View(func(v *store.View) error {
		animals := v.Animals()
		require.Len(t, animals, 2)
		for _, a := range animals {
			assert.Equal(t, keep.ID, a.EventID)
		}
		return nil
	}))

	_, err = svc.Delete(ctx, models.SpeciesChicken, drop.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestEditKeepsSequence(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, _, err := svc.Append(ctx, models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 2}, AppendOptions{})
	require.NoError(t, err)
	_, _, err = svc.Append(ctx, models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-01", Type: models.EventSold, Quantity: 2}, AppendOptions{})
	require.NoError(t, err)

	first.Quantity = 6
	edited, err := svc.Edit(ctx, models.SpeciesChicken, first)
	require.NoError(t, err)
	assert.Equal(t, first.Seq, edited.Seq)

	n, err := svc.CountOnDate(models.SpeciesChicken, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = svc.Edit(ctx, models.SpeciesChicken, models.LedgerEvent{ID: "missing", Date: "2024-01-01", Type: models.EventSold, Quantity: 1})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestServiceBreedBreakdownFallback(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, _, err := svc.Append(ctx, models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 6, Breed: "Brahma"}, AppendOptions{})
	require.NoError(t, err)
	_, _, err = svc.Append(ctx, models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 2, Breed: "Sussex"}, AppendOptions{TrackIndividuals: true})
	require.NoError(t, err)

	rows, warnings := svc.BreedBreakdown(models.SpeciesChicken, svc.Today())
	require.Len(t, rows, 2)
	assert.Equal(t, models.BreedCount{Breed: "Brahma", Count: 6, Source: models.SourceHistory}, rows[0])
	assert.Equal(t, models.BreedCount{Breed: "Sussex", Count: 2, Source: models.SourceRegistry}, rows[1])
	require.Len(t, warnings, 1)
}
