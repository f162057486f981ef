package eggs

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

func newService(t *testing.T) *Service {
	t.Helper()
	st, err := store.New(context.Background(), memory.New(), &counterIDs{}, nil)
	require.NoError(t, err)
	return NewService(st, nil).WithClock(func() time.Time { return time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC) })
}

func TestAddMergesSameDate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first, warnings, err := svc.Add(ctx, models.EggProduction{Date: "2024-03-09", Count: 10, Laid: models.Int(12), Sold: models.Int(4), Notes: "morning"})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	merged, _, err := svc.Add(ctx, models.EggProduction{Date: "2024-03-09", Count: 14, Broken: models.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 14, merged.Count)
	assert.Equal(t, 12, models.IntValue(merged.Laid))
	assert.Equal(t, 4, models.IntValue(merged.Sold))
	assert.Equal(t, 1, models.IntValue(merged.Broken))
	assert.Equal(t, "morning", merged.Notes)

	assert.Len(t, svc.List("", ""), 1)
	assert.Equal(t, 14, svc.CollectedOn("2024-03-09"))
	assert.Zero(t, svc.CollectedOn("2024-03-08"))
}

func TestWarningsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	e, warnings, err := svc.Add(ctx, models.EggProduction{Date: "2024-03-10", Count: 5, Laid: models.Int(5), Sold: models.Int(4), Donated: models.Int(2)})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarnEggsOverLaid, warnings[0].Code)
	assert.Equal(t, "2024-03-10", warnings[0].Subject)
	assert.NotEmpty(t, e.ID)
	assert.Len(t, svc.Warnings(), 1)

	// Without a laid figure there is nothing to compare against.
	assert.Empty(t, Warnings([]models.EggProduction{{Date: "2024-03-10", Sold: models.Int(9)}}))
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	a, _, err := svc.Add(ctx, models.EggProduction{Date: "2024-03-08", Count: 3})
	require.NoError(t, err)
	_, _, err = svc.Add(ctx, models.EggProduction{Date: "2024-03-09", Count: 4})
	require.NoError(t, err)

	got, _, err := svc.Update(ctx, a.ID, models.EggProduction{Date: "2024-03-07", Count: 6})
	require.NoError(t, err)
	assert.Equal(t, models.Date("2024-03-07"), got.Date)

	_, _, err = svc.Update(ctx, a.ID, models.EggProduction{Date: "2024-03-09", Count: 6})
	require.ErrorIs(t, err, models.ErrValidation)
	_, _, err = svc.Update(ctx, "missing", models.EggProduction{Date: "2024-03-01", Count: 1})
	require.ErrorIs(t, err, models.ErrNotFound)
	_, _, err = svc.Add(ctx, models.EggProduction{Date: "2024-03-01", Count: -1})
	require.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, svc.Delete(ctx, a.ID))
	require.ErrorIs(t, svc.Delete(ctx, a.ID), models.ErrNotFound)

	list := svc.List("2024-03-01", "2024-03-31")
	require.Len(t, list, 1)
	assert.Equal(t, models.Date("2024-03-09"), list[0].Date)
}

func TestMissingLogDays(t *testing.T) {
	entries := []models.EggProduction{
		{Date: "2024-03-01"},
		{Date: "2024-03-03"},
		{Date: "2024-03-08"},
	}

	got := MissingLogDays(entries, "2024-03-10", DefaultMissingLimit)
	assert.Equal(t, []models.Date{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-09", "2024-03-10"}, got[1:])
	assert.Equal(t, models.Date("2024-03-02"), got[0])

	got = MissingLogDays(entries, "2024-03-10", 3)
	assert.Equal(t, []models.Date{"2024-03-07", "2024-03-09", "2024-03-10"}, got)

	assert.Nil(t, MissingLogDays(nil, "2024-03-10", DefaultMissingLimit))
	// The first logged day itself is never reported.
	assert.Empty(t, MissingLogDays([]models.EggProduction{{Date: "2024-03-10"}}, "2024-03-10", DefaultMissingLimit))
}
