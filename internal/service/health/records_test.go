package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/repository/memory"
	"github.com/mamadbah2/homestead/internal/store"
)

func newRecordsService(t *testing.T) (*Service, models.IndividualAnimal) {
	t.Helper()
	ctx := context.Background()
	st, err := store.New(ctx, memory.New(), &counterIDs{}, nil)
	require.NoError(t, err)
	var rabbit models.IndividualAnimal
	require.NoError(t, st.Update(ctx, func(tx *store.Tx) error {
		rabbit = tx.AddAnimals(models.IndividualAnimal{Type: models.SpeciesRabbit, Breed: "Rex", Number: 1, Status: models.StatusAlive})[0]
		return nil
	}))
	svc := NewService(st, nil).WithClock(func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) })
	return svc, rabbit
}

func TestHealthRecordsAndActiveIssues(t *testing.T) {
	ctx := context.Background()
	svc, rabbit := newRecordsService(t)

	snuffles, err := svc.AddRecord(ctx, models.HealthRecord{AnimalID: rabbit.ID, Date: "2024-02-01", Issue: "snuffles", Cost: 12.5})
	require.NoError(t, err)
	_, err = svc.AddRecord(ctx, models.HealthRecord{AnimalID: rabbit.ID, Date: "2024-03-01", Issue: "sore hock"})
	require.NoError(t, err)

	_, err = svc.AddRecord(ctx, models.HealthRecord{AnimalID: "ghost", Date: "2024-03-01", Issue: "x"})
	require.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.AddRecord(ctx, models.HealthRecord{AnimalID: rabbit.ID, Date: "2024-03-01"})
	require.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.AddRecord(ctx, models.HealthRecord{AnimalID: rabbit.ID, Date: "2024-03-01", Issue: "x", Cost: -1})
	require.ErrorIs(t, err, models.ErrValidation)

	records := svc.Records(rabbit.ID)
	require.Len(t, records, 2)
	assert.Equal(t, "sore hock", records[0].Issue, "newest first")
	assert.Len(t, svc.ActiveIssues(rabbit.ID), 2)

	resolved, treatment := true, "antibiotics"
	got, err := svc.UpdateRecord(ctx, snuffles.ID, RecordPatch{Resolved: &resolved, Treatment: &treatment})
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Equal(t, 12.5, got.Cost)

	active := svc.ActiveIssues("")
	require.Len(t, active, 1)
	assert.Equal(t, "sore hock", active[0].Issue)

	_, err = svc.UpdateRecord(ctx, "missing", RecordPatch{Resolved: &resolved})
	require.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, svc.DeleteRecord(ctx, snuffles.ID))
	require.ErrorIs(t, svc.DeleteRecord(ctx, snuffles.ID), models.ErrNotFound)
	assert.Len(t, svc.Records(""), 1)
}

func TestWeightHistory(t *testing.T) {
	ctx := context.Background()
	svc, rabbit := newRecordsService(t)

	for _, w := range []models.WeightRecord{
		{AnimalID: rabbit.ID, Date: "2024-01-01", Weight: 2.1},
		{AnimalID: rabbit.ID, Date: "2024-03-01", Weight: 3.4},
		{AnimalID: rabbit.ID, Date: "2024-02-01", Weight: 2.9},
	} {
		_, err := svc.AddWeight(ctx, w)
		require.NoError(t, err)
	}
	_, err := svc.AddWeight(ctx, models.WeightRecord{AnimalID: rabbit.ID, Date: "2024-03-02", Weight: 0})
	require.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.AddWeight(ctx, models.WeightRecord{AnimalID: "ghost", Date: "2024-03-02", Weight: 1})
	require.ErrorIs(t, err, models.ErrValidation)

	history := svc.WeightHistory(rabbit.ID)
	require.Len(t, history, 3)
	assert.Equal(t, []models.Date{"2024-03-01", "2024-02-01", "2024-01-01"},
		[]models.Date{history[0].Date, history[1].Date, history[2].Date})
	assert.Empty(t, svc.WeightHistory("other"))

	require.NoError(t, svc.DeleteWeight(ctx, history[0].ID))
	require.ErrorIs(t, svc.DeleteWeight(ctx, history[0].ID), models.ErrNotFound)
	assert.Len(t, svc.WeightHistory(rabbit.ID), 2)
}
