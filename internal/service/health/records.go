package health

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/store"
)

// AddRecord logs an illness or injury for an existing animal.
func (s *Service) AddRecord(ctx context.Context, h models.HealthRecord) (models.HealthRecord, error) {
	h.ID = ""
	if err := models.Validate(h); err != nil {
		return models.HealthRecord{}, err
	}
	var out models.HealthRecord
	err := s.store.Do(ctx, "health.add_record", func(tx *store.Tx) error {
		if _, ok := tx.Animal(h.AnimalID); !ok {
			return models.Invalid("animalId", "animal %q does not exist", h.AnimalID)
		}
		out = tx.PutHealthRecord(h)
		return nil
	})
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("add health record: %w", err)
	}
	s.logger.Debug("health record added", zap.String("id", out.ID), zap.String("animal_id", out.AnimalID))
	return out, nil
}

// RecordPatch edits a health record. Nil fields are left alone.
type RecordPatch struct {
	Treatment    *string  `json:"treatment,omitempty"`
	Veterinarian *string  `json:"veterinarian,omitempty"`
	Cost         *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Resolved     *bool    `json:"resolved,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

func (s *Service) UpdateRecord(ctx context.Context, id string, p RecordPatch) (models.HealthRecord, error) {
	if err := models.Validate(p); err != nil {
		return models.HealthRecord{}, err
	}
	var out models.HealthRecord
	err := s.store.Do(ctx, "health.update_record", func(tx *store.Tx) error {
		h, ok := tx.HealthRecord(id)
		if !ok {
			return models.NotFoundError{Entity: "health record", ID: id}
		}
		if p.Treatment != nil {
			h.Treatment = *p.Treatment
		}
		if p.Veterinarian != nil {
			h.Veterinarian = *p.Veterinarian
		}
		if p.Cost != nil {
			h.Cost = *p.Cost
		}
		if p.Resolved != nil {
			h.Resolved = *p.Resolved
		}
		if p.Notes != nil {
			h.Notes = *p.Notes
		}
		out = tx.PutHealthRecord(h)
		return nil
	})
	if err != nil {
		return models.HealthRecord{}, fmt.Errorf("update health record: %w", err)
	}
	return out, nil
}

func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	err := s.store.Do(ctx, "health.delete_record", func(tx *store.Tx) error {
		return tx.RemoveHealthRecord(id)
	})
	if err != nil {
		return fmt.Errorf("delete health record: %w", err)
	}
	return nil
}

// Records returns health records, optionally for one animal, newest first.
func (s *Service) Records(animalID string) []models.HealthRecord {
	var out []models.HealthRecord
	_ = s.store.View(func(v *store.View) error {
		for _, h := range v.HealthRecords() {
			if animalID == "" || h.AnimalID == animalID {
				out = append(out, h)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// ActiveIssues returns the unresolved records, optionally for one animal.
func (s *Service) ActiveIssues(animalID string) []models.HealthRecord {
	var out []models.HealthRecord
	for _, h := range s.Records(animalID) {
		if !h.Resolved {
			out = append(out, h)
		}
	}
	return out
}

// AddWeight logs a weighing for an existing animal.
func (s *Service) AddWeight(ctx context.Context, w models.WeightRecord) (models.WeightRecord, error) {
	w.ID = ""
	if err := models.Validate(w); err != nil {
		return models.WeightRecord{}, err
	}
	var out models.WeightRecord
	err := s.store.Do(ctx, "health.add_weight", func(tx *store.Tx) error {
		if _, ok := tx.Animal(w.AnimalID); !ok {
			return models.Invalid("animalId", "animal %q does not exist", w.AnimalID)
		}
		out = tx.AddWeightRecord(w)
		return nil
	})
	if err != nil {
		return models.WeightRecord{}, fmt.Errorf("add weight: %w", err)
	}
	return out, nil
}

func (s *Service) DeleteWeight(ctx context.Context, id string) error {
	err := s.store.Do(ctx, "health.delete_weight", func(tx *store.Tx) error {
		return tx.RemoveWeightRecord(id)
	})
	if err != nil {
		return fmt.Errorf("delete weight: %w", err)
	}
	return nil
}

// WeightHistory returns an animal's weighings, newest first.
func (s *Service) WeightHistory(animalID string) []models.WeightRecord {
	var out []models.WeightRecord
	_ = s.store.View(func(v *store.View) error {
		for _, w := range v.WeightRecords() {
			if w.AnimalID == animalID {
				out = append(out, w)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
