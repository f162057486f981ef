package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/service/registry"
)

type stubLedger struct {
	totals map[models.Species]int
}

func (s stubLedger) CountOnDate(sp models.Species, _ models.Date) (int, error) {
	return s.totals[sp], nil
}

func (s stubLedger) SexBreakdownOnDate(sp models.Species, _ models.Date) (models.SexCounts, error) {
	return models.SexCounts{Male: 1, Hens: s.totals[sp] - 1}, nil
}

func (s stubLedger) StageBreakdownOnDate(models.Species, models.Date) (models.StageCounts, error) {
	return models.StageCounts{}, nil
}

func (s stubLedger) BreedBreakdown(sp models.Species, _ models.Date) ([]models.BreedCount, []models.Warning) {
	if sp != models.SpeciesChicken {
		return nil, nil
	}
	return []models.BreedCount{{Breed: "Sussex", Count: 8, Source: models.SourceHistory}},
		[]models.Warning{{Code: models.WarnBreedHistoryFallback, Subject: "Sussex", Message: "Sussex counted from history"}}
}

type stubRegistry struct{ rabbits int }

func (s stubRegistry) List(f registry.Filter) []models.IndividualAnimal {
	if f.Type != models.SpeciesRabbit {
		return nil
	}
	return make([]models.IndividualAnimal, s.rabbits)
}

func (stubRegistry) HeadCounts(models.Species) models.HeadCounts { return models.HeadCounts{} }

type stubBreeding []models.BreedingRecord

func (s stubBreeding) List() []models.BreedingRecord { return s }

type stubVaccinations []models.Vaccination

func (s stubVaccinations) List(string) []models.Vaccination { return s }

type stubEggs []models.EggProduction

func (s stubEggs) List(_, to models.Date) []models.EggProduction {
	var out []models.EggProduction
	for _, e := range s {
		if !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out
}

func newService() *Service {
	return NewService(
		stubLedger{totals: map[models.Species]int{models.SpeciesChicken: 8, models.SpeciesDuck: 3}},
		stubRegistry{rabbits: 4},
		stubBreeding{
			{ID: "b1", DoeID: "doe-1", Status: models.BreedingBred, ExpectedKindlingDate: "2024-03-12"},
			{ID: "b2", DoeID: "doe-2", Status: models.BreedingKindled, ExpectedKindlingDate: "2024-03-01"},
			{ID: "b3", DoeID: "doe-3", Status: models.BreedingFailed, ExpectedKindlingDate: "2024-03-11"},
		},
		stubVaccinations{{ID: "v1", AnimalID: "doe-1", Vaccine: "RHDV2", NextDue: "2024-03-30"}},
		stubEggs{
			{Date: "2024-03-10", Count: 11, Laid: models.Int(2), Sold: models.Int(3)},
			{Date: "2024-03-08", Count: 9},
		},
		DefaultOptions(),
		nil,
	).WithClock(func() time.Time { return time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC) })
}

func TestBuild(t *testing.T) {
	svc := newService()

	got, err := svc.Build(context.Background(), "2024-03-10")
	require.NoError(t, err)

	require.Len(t, got.Flocks, 2)
	assert.Equal(t, models.SpeciesChicken, got.Flocks[0].Species)
	assert.Equal(t, 8, got.Flocks[0].Total)
	assert.Equal(t, 3, got.Flocks[1].Total)
	assert.Equal(t, 4, got.Rabbits)
	assert.Equal(t, 2, got.ActiveBreedings)
	require.Len(t, got.UpcomingKindlings, 1)
	assert.Equal(t, "b1", got.UpcomingKindlings[0].ID)
	assert.Len(t, got.DueVaccinations, 1)
	assert.Equal(t, 11, got.EggsCollected)
	assert.Equal(t, []models.Date{"2024-03-09"}, got.MissingEggDays)

	codes := map[models.WarningCode]int{}
	for _, w := range got.Warnings {
		codes[w.Code]++
	}
	assert.Equal(t, map[models.WarningCode]int{models.WarnBreedHistoryFallback: 1, models.WarnEggsOverLaid: 1}, codes)
	assert.Equal(t, time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC), got.CreatedAt)
}

func TestBuildPastDate(t *testing.T) {
	got, err := newService().Build(context.Background(), "2024-03-09")
	require.NoError(t, err)
	assert.Zero(t, got.EggsCollected)
	assert.Equal(t, []models.Date{"2024-03-09"}, got.MissingEggDays)
}

func TestBuildRejectsBadDate(t *testing.T) {
	_, err := newService().Build(context.Background(), "yesterday")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestDigestAndRow(t *testing.T) {
	summary, err := newService().Build(context.Background(), "2024-03-10")
	require.NoError(t, err)

	text := Digest(summary)
	assert.Contains(t, text, "Farm summary 2024-03-10")
	assert.Contains(t, text, "Chicken: 8 (1 male, 7 hens, 0 chicks)")
	assert.Contains(t, text, "- doe doe-1 on 2024-03-12")
	assert.Contains(t, text, "- RHDV2 for doe-1 on 2024-03-30")
	assert.Contains(t, text, "Egg log missing: 2024-03-09")

	row := SheetRow(summary)
	assert.Len(t, row, 12)
	assert.Equal(t, "2024-03-10", row[0])
	assert.Equal(t, 8, row[1])
	assert.Equal(t, 3, row[3])
	assert.Equal(t, 11, row[9])
}
