package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
)

// legacyFlock is a pre-registry row that stored a head count per breed.
type legacyFlock struct {
	Breed        string `json:"breed"`
	DateAcquired string `json:"dateAcquired"`
	Quantity     int    `json:"quantity"`
	Status       string `json:"status"`
	Gender       string `json:"gender,omitempty"`
	ParentBuckID string `json:"parentBuckId,omitempty"`
	ParentDoeID  string `json:"parentDoeId,omitempty"`
}

// MigrateLegacy converts legacy per-breed flock rows into individual animals,
// once. The FlagMigrationV2 marker is persisted in the same transaction, so a
// second call is a no-op. Only rows with status "active" are converted.
func (s *Store) MigrateLegacy(ctx context.Context) (int, error) {
	var done bool
	_ = s.View(func(v *View) error {
		done = v.Flag(FlagMigrationV2)
		return nil
	})
	if done {
		return 0, nil
	}

	chickens, err := s.loadLegacy(ctx, KeyLegacyChickens)
	if err != nil {
		return 0, err
	}
	rabbits, err := s.loadLegacy(ctx, KeyLegacyRabbits)
	if err != nil {
		return 0, err
	}
	if chickens == nil && rabbits == nil {
		return 0, nil
	}

	created := 0
	err = s.Update(ctx, func(tx *Tx) error {
		if tx.Flag(FlagMigrationV2) {
			return nil
		}
		next := make(map[string]int)
		for _, a := range tx.Animals() {
			k := string(a.Type) + "\x00" + a.Breed
			next[k] = max(next[k], a.Number)
		}

		var batch []models.IndividualAnimal
		convert := func(sp models.Species, rows []legacyFlock) {
			for _, row := range rows {
				if row.Status != "active" {
					continue
				}
				k := string(sp) + "\x00" + row.Breed
				for i := 0; i < row.Quantity; i++ {
					next[k]++
					batch = append(batch, models.IndividualAnimal{
						Type:         sp,
						Breed:        row.Breed,
						Number:       next[k],
						Sex:          legacySex(row.Gender),
						DateAdded:    models.Date(row.DateAcquired),
						Status:       models.StatusAlive,
						ParentBuckID: row.ParentBuckID,
						ParentDoeID:  row.ParentDoeID,
					})
				}
			}
		}
		convert(models.SpeciesChicken, chickens)
		convert(models.SpeciesRabbit, rabbits)

		created = len(tx.AddAnimals(batch...))
		tx.SetFlag(FlagMigrationV2)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("migrate legacy flocks: %w", err)
	}

	s.logger.Info("legacy flocks migrated", zap.Int("animals_created", created))
	return created, nil
}

func (s *Store) loadLegacy(ctx context.Context, key string) ([]legacyFlock, error) {
	payload, err := s.backend.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	var rows []legacyFlock
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return rows, nil
}

func legacySex(gender string) models.Sex {
	switch gender {
	case "buck":
		return models.SexMale
	case "doe":
		return models.SexFemale
	}
	return ""
}
