// Package health keeps vaccinations, health records and weighings, and answers
// booster reminders.
package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/store"
)

// DefaultDueHorizonDays is how far ahead DueVaccinations looks.
const DefaultDueHorizonDays = 30

// DueVaccinations returns vaccinations whose next due date is within
// [today, today+horizonDays], soonest first. Records without a due date are skipped.
func DueVaccinations(vaccinations []models.Vaccination, today models.Date, horizonDays int) []models.Vaccination {
	until := today.AddDays(horizonDays)
	var out []models.Vaccination
	for _, v := range vaccinations {
		if v.NextDue != "" && v.NextDue.Between(today, until) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextDue < out[j].NextDue })
	return out
}

type Service struct {
	store  *store.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewService(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, now: time.Now, logger: logger}
}

// WithClock overrides the clock used for "today". Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Add records a vaccination for an existing animal.
func (s *Service) Add(ctx context.Context, v models.Vaccination) (models.Vaccination, error) {
	v.ID = ""
	if err := models.Validate(v); err != nil {
		return models.Vaccination{}, err
	}
	if v.NextDue != "" && v.NextDue.Before(v.Date) {
		return models.Vaccination{}, models.Invalid("nextDue", "next due date %s is before %s", v.NextDue, v.Date)
	}
	var out models.Vaccination
	err := s.store.Do(ctx, "health.add_vaccination", func(tx *store.Tx) error {
		if _, ok := tx.Animal(v.AnimalID); !ok {
			return models.Invalid("animalId", "animal %q does not exist", v.AnimalID)
		}
		out = tx.AddVaccination(v)
		return nil
	})
	if err != nil {
		return models.Vaccination{}, fmt.Errorf("add vaccination: %w", err)
	}
	s.logger.Debug("vaccination recorded", zap.String("id", out.ID), zap.String("animal_id", out.AnimalID))
	return out, nil
}

// List returns vaccinations, optionally for one animal, newest first.
func (s *Service) List(animalID string) []models.Vaccination {
	var out []models.Vaccination
	_ = s.store.View(func(v *store.View) error {
		for _, x := range v.Vaccinations() {
			if animalID == "" || x.AnimalID == animalID {
				out = append(out, x)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Do(ctx, "health.delete_vaccination", func(tx *store.Tx) error {
		return tx.RemoveVaccination(id)
	})
	if err != nil {
		return fmt.Errorf("delete vaccination: %w", err)
	}
	return nil
}

// Due lists boosters falling due within horizonDays of today.
func (s *Service) Due(horizonDays int) []models.Vaccination {
	return DueVaccinations(s.List(""), models.DateOf(s.now()), horizonDays)
}
