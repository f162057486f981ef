package breeding

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/store"
)

// PlanInput schedules a future pairing.
type PlanInput struct {
	BuckID         string      `json:"buckId" validate:"required"`
	DoeID          string      `json:"doeId" validate:"required"`
	PlannedDate    models.Date `json:"plannedDate" validate:"required,isodate"`
	Goals          string      `json:"goals,omitempty"`
	ExpectedTraits []string    `json:"expectedTraits,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

// AddPlan records a planned pairing. The pair is checked the same way Create
// checks it.
func (s *Service) AddPlan(ctx context.Context, in PlanInput) (models.BreedingPlan, []models.Warning, error) {
	if err := models.Validate(in); err != nil {
		return models.BreedingPlan{}, nil, err
	}
	traits := in.ExpectedTraits
	if traits == nil {
		traits = []string{}
	}
	var (
		out      models.BreedingPlan
		warnings []models.Warning
	)
	err := s.store.Do(ctx, "breeding.add_plan", func(tx *store.Tx) error {
		var err error
		if warnings, err = checkPair(tx, in.BuckID, in.DoeID); err != nil {
			return err
		}
		out = tx.PutBreedingPlan(models.BreedingPlan{
			BuckID:         in.BuckID,
			DoeID:          in.DoeID,
			PlannedDate:    in.PlannedDate,
			Goals:          in.Goals,
			ExpectedTraits: traits,
			Status:         models.PlanPlanned,
			Notes:          in.Notes,
		})
		return nil
	})
	if err != nil {
		return models.BreedingPlan{}, nil, fmt.Errorf("add breeding plan: %w", err)
	}
	s.logPairWarnings(warnings)
	return out, warnings, nil
}

func (s *Service) Plan(id string) (models.BreedingPlan, error) {
	var (
		p  models.BreedingPlan
		ok bool
	)
	_ = s.store.View(func(v *store.View) error {
		p, ok = v.BreedingPlan(id)
		return nil
	})
	if !ok {
		return models.BreedingPlan{}, models.NotFoundError{Entity: "breeding plan", ID: id}
	}
	return p, nil
}

// Plans lists plans soonest first. An empty status lists every plan.
func (s *Service) Plans(status models.PlanStatus) []models.BreedingPlan {
	var out []models.BreedingPlan
	_ = s.store.View(func(v *store.View) error {
		for _, p := range v.BreedingPlans() {
			if status == "" || p.Status == status {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlannedDate < out[j].PlannedDate })
	return out
}

// PlanPatch edits a planned pairing. Nil fields are left alone.
type PlanPatch struct {
	PlannedDate    *models.Date `json:"plannedDate,omitempty" validate:"omitempty,isodate"`
	Goals          *string      `json:"goals,omitempty"`
	ExpectedTraits []string     `json:"expectedTraits,omitempty"`
	Notes          *string      `json:"notes,omitempty"`
}

// UpdatePlan applies p to a plan that is still planned.
func (s *Service) UpdatePlan(ctx context.Context, id string, p PlanPatch) (models.BreedingPlan, error) {
	if err := models.Validate(p); err != nil {
		return models.BreedingPlan{}, err
	}
	out, err := s.mutatePlan(ctx, "breeding.update_plan", id, func(_ *store.Tx, plan *models.BreedingPlan) error {
		if p.PlannedDate != nil {
			plan.PlannedDate = *p.PlannedDate
		}
		if p.Goals != nil {
			plan.Goals = *p.Goals
		}
		if p.ExpectedTraits != nil {
			plan.ExpectedTraits = p.ExpectedTraits
		}
		if p.Notes != nil {
			plan.Notes = *p.Notes
		}
		return nil
	})
	if err != nil {
		return models.BreedingPlan{}, fmt.Errorf("update breeding plan: %w", err)
	}
	return out, nil
}

// CancelPlan marks a planned pairing cancelled.
func (s *Service) CancelPlan(ctx context.Context, id string) (models.BreedingPlan, error) {
	out, err := s.mutatePlan(ctx, "breeding.cancel_plan", id, func(_ *store.Tx, plan *models.BreedingPlan) error {
		plan.Status = models.PlanCancelled
		return nil
	})
	if err != nil {
		return models.BreedingPlan{}, fmt.Errorf("cancel breeding plan: %w", err)
	}
	return out, nil
}

// CompletePlan carries the plan out: a breeding record dated breedingDate, or
// today when empty, is created for the planned pair and the plan is marked
// completed with a link to it. Both are committed together.
func (s *Service) CompletePlan(ctx context.Context, id string, breedingDate models.Date) (models.BreedingPlan, models.BreedingRecord, []models.Warning, error) {
	if breedingDate == "" {
		breedingDate = s.today()
	}
	if !breedingDate.Valid() {
		return models.BreedingPlan{}, models.BreedingRecord{}, nil, models.Invalid("breedingDate", "%q is not a YYYY-MM-DD date", breedingDate)
	}
	var (
		record   models.BreedingRecord
		warnings []models.Warning
	)
	plan, err := s.mutatePlan(ctx, "breeding.complete_plan", id, func(tx *store.Tx, plan *models.BreedingPlan) error {
		var err error
		record, warnings, err = createRecord(tx, CreateInput{
			BuckID:       plan.BuckID,
			DoeID:        plan.DoeID,
			BreedingDate: breedingDate,
			Notes:        plan.Notes,
		})
		if err != nil {
			return err
		}
		plan.Status = models.PlanCompleted
		plan.BreedingID = record.ID
		return nil
	})
	if err != nil {
		return models.BreedingPlan{}, models.BreedingRecord{}, nil, fmt.Errorf("complete breeding plan: %w", err)
	}
	s.logPairWarnings(warnings)
	s.logger.Info("breeding plan completed", zap.String("plan_id", plan.ID), zap.String("breeding_id", record.ID))
	return plan, record, warnings, nil
}

func (s *Service) DeletePlan(ctx context.Context, id string) error {
	err := s.store.Do(ctx, "breeding.delete_plan", func(tx *store.Tx) error {
		return tx.RemoveBreedingPlan(id)
	})
	if err != nil {
		return fmt.Errorf("delete breeding plan: %w", err)
	}
	return nil
}

// mutatePlan loads a planned pairing, applies fn and stores the result. Plans
// that are completed or cancelled are rejected.
func (s *Service) mutatePlan(ctx context.Context, op, id string, fn func(*store.Tx, *models.BreedingPlan) error) (models.BreedingPlan, error) {
	var out models.BreedingPlan
	err := s.store.Do(ctx, op, func(tx *store.Tx) error {
		p, ok := tx.BreedingPlan(id)
		if !ok {
			return models.NotFoundError{Entity: "breeding plan", ID: id}
		}
		if p.Status != models.PlanPlanned {
			return models.Invalid("status", "breeding plan %s is %s", id, p.Status)
		}
		if err := fn(tx, &p); err != nil {
			return err
		}
		out = tx.PutBreedingPlan(p)
		return nil
	})
	return out, err
}
