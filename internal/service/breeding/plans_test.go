package breeding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/store"
)

func TestPlanLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	plan, warnings, err := f.svc.AddPlan(ctx, PlanInput{
		BuckID: f.buck.ID, DoeID: f.doe.ID, PlannedDate: "2024-04-01", Goals: "larger litters",
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, models.PlanPlanned, plan.Status)
	assert.Equal(t, []string{}, plan.ExpectedTraits)

	later, _, err := f.svc.AddPlan(ctx, PlanInput{BuckID: f.buck.ID, DoeID: f.doe.ID, PlannedDate: "2024-05-01"})
	require.NoError(t, err)

	notes := "move to hutch 3"
	updated, err := f.svc.UpdatePlan(ctx, plan.ID, PlanPatch{Notes: &notes, ExpectedTraits: []string{"broken coat"}})
	require.NoError(t, err)
	assert.Equal(t, "move to hutch 3", updated.Notes)
	assert.Equal(t, []string{"broken coat"}, updated.ExpectedTraits)
	assert.Equal(t, "larger litters", updated.Goals)

	done, record, _, err := f.svc.CompletePlan(ctx, plan.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.PlanCompleted, done.Status)
	assert.Equal(t, record.ID, done.BreedingID)
	assert.Equal(t, models.Date("2024-03-10"), record.BreedingDate)
	assert.Equal(t, models.BreedingBred, record.Status)
	stored, err := f.svc.Get(record.ID)
	require.NoError(t, err)
	assert.Equal(t, "move to hutch 3", stored.Notes)

	_, err = f.svc.CancelPlan(ctx, plan.ID)
	require.ErrorIs(t, err, models.ErrValidation, "completed plans are closed")
	_, _, _, err = f.svc.CompletePlan(ctx, plan.ID, "")
	require.ErrorIs(t, err, models.ErrValidation)

	cancelled, err := f.svc.CancelPlan(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanCancelled, cancelled.Status)

	assert.Len(t, f.svc.Plans(""), 2)
	assert.Len(t, f.svc.Plans(models.PlanCancelled), 1)
	assert.Empty(t, f.svc.Plans(models.PlanPlanned))

	require.NoError(t, f.svc.DeletePlan(ctx, later.ID))
	require.ErrorIs(t, f.svc.DeletePlan(ctx, later.ID), models.ErrNotFound)
	_, err = f.svc.Plan(later.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddPlanChecksPair(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.svc.AddPlan(ctx, PlanInput{BuckID: f.doe.ID, DoeID: f.buck.ID, PlannedDate: "2024-04-01"})
	require.ErrorIs(t, err, models.ErrValidation)
	_, _, err = f.svc.AddPlan(ctx, PlanInput{BuckID: f.buck.ID, DoeID: "ghost", PlannedDate: "2024-04-01"})
	require.ErrorIs(t, err, models.ErrValidation)
	_, _, err = f.svc.AddPlan(ctx, PlanInput{BuckID: f.buck.ID, DoeID: f.doe.ID, PlannedDate: "April"})
	require.ErrorIs(t, err, models.ErrValidation)

	brother := f.addRabbit(t, models.IndividualAnimal{Breed: "Rex", Number: 5, Sex: models.SexMale, ParentBuckID: "sire", ParentDoeID: "dam"})
	sister := f.addRabbit(t, models.IndividualAnimal{Breed: "Rex", Number: 6, Sex: models.SexFemale, ParentBuckID: "sire", ParentDoeID: "dam"})
	_, warnings, err := f.svc.AddPlan(ctx, PlanInput{BuckID: brother.ID, DoeID: sister.ID, PlannedDate: "2024-04-01"})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarnInbreedingRisk, warnings[0].Code)
}

func TestCompletePlanFailsWhenParentGone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	plan, _, err := f.svc.AddPlan(ctx, PlanInput{BuckID: f.buck.ID, DoeID: f.doe.ID, PlannedDate: "2024-04-01"})
	require.NoError(t, err)
	require.NoError(t, f.store.Update(ctx, func(tx *store.Tx) error {
		doe, _ := tx.Animal(f.doe.ID)
		doe.Status = models.StatusDead
		return tx.ReplaceAnimal(doe)
	}))

	_, _, _, err = f.svc.CompletePlan(ctx, plan.ID, "2024-04-01")
	require.ErrorIs(t, err, models.ErrValidation)

	still, err := f.svc.Plan(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPlanned, still.Status)
	assert.Empty(t, f.svc.List())
}
