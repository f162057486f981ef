package registry

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/service/ledger"
	"github.com/mamadbah2/homestead/internal/store"
)

// Service manages individual animal identities and their reconciliation with
// the event logs.
type Service struct {
	store  *store.Store
	agg    ledger.Aggregator
	now    func() time.Time
	logger *zap.Logger
}

// NewService builds a registry over st. agg is used to read history counts
// during backfill.
func NewService(st *store.Store, agg ledger.Aggregator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, agg: agg, now: time.Now, logger: logger}
}

// WithClock overrides the clock used for "today". Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() models.Date { return models.DateOf(s.now()) }

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Type      models.Species
	Breed     string
	AliveOnly bool
}

func (f Filter) match(a models.IndividualAnimal) bool {
	return (f.Type == "" || a.Type == f.Type) &&
		(f.Breed == "" || a.Breed == f.Breed) &&
		(!f.AliveOnly || a.Alive())
}

// List returns matching animals ordered by type, breed and number.
func (s *Service) List(f Filter) []models.IndividualAnimal {
	var out []models.IndividualAnimal
	_ = s.store.View(func(v *store.View) error {
		for _, a := range v.Animals() {
			if f.match(a) {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].Breed != out[j].Breed {
			return out[i].Breed < out[j].Breed
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// Get returns one animal.
func (s *Service) Get(id string) (models.IndividualAnimal, error) {
	var (
		a  models.IndividualAnimal
		ok bool
	)
	_ = s.store.View(func(v *store.View) error {
		a, ok = v.Animal(id)
		return nil
	})
	if !ok {
		return models.IndividualAnimal{}, models.NotFoundError{Entity: "animal", ID: id}
	}
	return a, nil
}

// NextNumber is the number the next (species, breed) animal would receive.
func (s *Service) NextNumber(sp models.Species, breed string) int {
	n := 1
	_ = s.store.View(func(v *store.View) error {
		n = models.NextNumber(v.Animals(), sp, breed)
		return nil
	})
	return n
}

// BatchInput describes AddBatch.
type BatchInput struct {
	Type      models.Species `json:"type" validate:"required,oneof=chicken duck rabbit"`
	Breed     string         `json:"breed" validate:"required"`
	Count     int            `json:"count" validate:"gt=0"`
	DateAdded models.Date    `json:"dateAdded" validate:"required,isodate"`
	Sex       models.Sex     `json:"sex,omitempty" validate:"omitempty,oneof=M F"`
	Stage     models.Stage   `json:"stage,omitempty" validate:"omitempty,oneof=chick mature"`
	GroupID   string         `json:"groupId,omitempty"`
	// RecordEvent also appends the matching acquired event for ledger species
	// and links the new animals to it.
	RecordEvent bool `json:"recordEvent,omitempty"`
}

// AddBatch creates Count alive animals numbered consecutively from NextNumber.
func (s *Service) AddBatch(ctx context.Context, in BatchInput) ([]models.IndividualAnimal, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	var created []models.IndividualAnimal
	err := s.store.Do(ctx, "registry.add_batch", func(tx *store.Tx) error {
		if err := tx.RequireGroup(in.GroupID, in.Type); err != nil {
			return err
		}
		var eventID string
		if in.RecordEvent && in.Type.HasLedger() {
			e, err := tx.AppendEvent(in.Type, models.LedgerEvent{
				Date:     in.DateAdded,
				Type:     models.EventAcquired,
				Quantity: in.Count,
				Breed:    in.Breed,
				Sex:      in.Sex,
				Stage:    in.Stage,
				GroupID:  in.GroupID,
			})
			if err != nil {
				return err
			}
			eventID = e.ID
		}

		start := models.NextNumber(tx.Animals(), in.Type, in.Breed)
		batch := make([]models.IndividualAnimal, in.Count)
		for i := range batch {
			batch[i] = models.IndividualAnimal{
				Type:      in.Type,
				Breed:     in.Breed,
				Number:    start + i,
				Sex:       in.Sex,
				Stage:     in.Stage,
				GroupID:   in.GroupID,
				DateAdded: in.DateAdded,
				Status:    models.StatusAlive,
				EventID:   eventID,
			}
		}
		created = tx.AddAnimals(batch...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add %s batch: %w", in.Type, err)
	}
	s.logger.Debug("animals added",
		zap.String("type", string(in.Type)),
		zap.String("breed", in.Breed),
		zap.Int("count", len(created)))
	return created, nil
}

// DeathInput describes how an animal left the flock.
type DeathInput struct {
	Date   models.Date         `json:"date" validate:"required,isodate"`
	Cause  models.AnimalStatus `json:"cause" validate:"required,oneof=dead consumed"`
	Reason string              `json:"reason,omitempty"`
}

// MarkDeath flags an animal dead or consumed. It does not touch the event log;
// use RecordLoss to keep both in step.
func (s *Service) MarkDeath(ctx context.Context, id string, in DeathInput) (models.IndividualAnimal, error) {
	if err := models.Validate(in); err != nil {
		return models.IndividualAnimal{}, err
	}
	var out models.IndividualAnimal
	err := s.store.Do(ctx, "registry.mark_death", func(tx *store.Tx) error {
		var err error
		out, err = markDeath(tx, id, in)
		return err
	})
	if err != nil {
		return models.IndividualAnimal{}, fmt.Errorf("mark death: %w", err)
	}
	s.logger.Debug("animal marked", zap.String("id", id), zap.String("status", string(out.Status)))
	return out, nil
}

// RecordLoss marks the animal and appends the matching death or consumed event
// in one transaction. Rabbits have no log, so only the mark applies.
func (s *Service) RecordLoss(ctx context.Context, id string, in DeathInput) (models.IndividualAnimal, *models.LedgerEvent, error) {
	if err := models.Validate(in); err != nil {
		return models.IndividualAnimal{}, nil, err
	}
	var (
		out   models.IndividualAnimal
		event *models.LedgerEvent
	)
	err := s.store.Do(ctx, "registry.record_loss", func(tx *store.Tx) error {
		var err error
		out, err = markDeath(tx, id, in)
		if err != nil || !out.Type.HasLedger() {
			return err
		}
		typ := models.EventDeath
		if in.Cause == models.StatusConsumed {
			typ = models.EventConsumed
		}
		e, err := tx.AppendEvent(out.Type, models.LedgerEvent{
			Date:     in.Date,
			Type:     typ,
			Quantity: 1,
			Breed:    out.Breed,
			Sex:      out.Sex,
			Stage:    out.Stage,
			GroupID:  out.GroupID,
			Notes:    in.Reason,
		})
		if err != nil {
			return err
		}
		event = &e
		return nil
	})
	if err != nil {
		return models.IndividualAnimal{}, nil, fmt.Errorf("record loss: %w", err)
	}
	return out, event, nil
}

func markDeath(tx *store.Tx, id string, in DeathInput) (models.IndividualAnimal, error) {
	a, ok := tx.Animal(id)
	if !ok {
		return models.IndividualAnimal{}, models.NotFoundError{Entity: "animal", ID: id}
	}
	if !a.Alive() {
		return models.IndividualAnimal{}, models.Invalid("status", "animal %s is already %s", id, a.Status)
	}
	a.Status = in.Cause
	a.DeathDate = in.Date
	a.DeathReason = in.Reason
	return a, tx.ReplaceAnimal(a)
}

// Backfill materializes individuals for a breed known only from history: when
// no animal of (species, breed) exists and replay up to today is positive, that
// many alive animals are created, numbered from 1 and dated today. It is a no-op
// once any animal of the breed exists, so repeated calls are safe.
func (s *Service) Backfill(ctx context.Context, sp models.Species, breed string) ([]models.IndividualAnimal, error) {
	if !sp.HasLedger() {
		return nil, models.Invalid("type", "%s has no event history to backfill from", sp)
	}
	if breed == "" {
		return nil, models.Invalid("breed", "breed is required")
	}
	today := s.today()
	var created []models.IndividualAnimal
	err := s.store.Do(ctx, "registry.backfill", func(tx *store.Tx) error {
		for _, a := range tx.Animals() {
			if a.Type == sp && models.BreedOrUnknown(a.Breed) == breed {
				return nil
			}
		}
		n := s.agg.BreedCountOnDate(tx.Events(sp), breed, today)
		batch := make([]models.IndividualAnimal, n)
		for i := range batch {
			batch[i] = models.IndividualAnimal{
				Type:      sp,
				Breed:     breed,
				Number:    i + 1,
				DateAdded: today,
				Status:    models.StatusAlive,
			}
		}
		created = tx.AddAnimals(batch...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("backfill %s %s: %w", sp, breed, err)
	}
	if len(created) > 0 {
		s.logger.Info("individuals backfilled from history",
			zap.String("type", string(sp)),
			zap.String("breed", breed),
			zap.Int("count", len(created)))
	}
	return created, nil
}

// Remove deletes an animal. When it came from an acquired event, that event
// shrinks by one head and is deleted once empty.
func (s *Service) Remove(ctx context.Context, id string) error {
	err := s.store.Do(ctx, "registry.remove", func(tx *store.Tx) error {
		a, ok := tx.Animal(id)
		if !ok {
			return models.NotFoundError{Entity: "animal", ID: id}
		}
		tx.RemoveAnimals(func(x models.IndividualAnimal) bool { return x.ID == id })
		if a.EventID == "" || !a.Type.HasLedger() {
			return nil
		}
		e, ok := tx.Event(a.Type, a.EventID)
		if !ok || e.Type != models.EventAcquired {
			return nil
		}
		if e.Quantity <= 1 {
			_, err := tx.RemoveEvent(a.Type, e.ID)
			return err
		}
		e.Quantity--
		e.Breeds = dropHead(e.Breeds, a)
		return tx.ReplaceEvent(a.Type, e)
	})
	if err != nil {
		return fmt.Errorf("remove animal: %w", err)
	}
	s.logger.Debug("animal removed", zap.String("id", id))
	return nil
}

// dropHead takes one head matching a out of the breed entries so they keep
// summing to the event quantity.
func dropHead(entries []models.BreedEntry, a models.IndividualAnimal) []models.BreedEntry {
	if len(entries) == 0 {
		return entries
	}
	idx := -1
	for i, b := range entries {
		if b.Breed == a.Breed && b.Total() > 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, b := range entries {
			if b.Total() > 0 {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return entries
	}
	b := &entries[idx]
	switch {
	case a.Stage == models.StageChick && b.Chicks > 0:
		b.Chicks--
	case a.Sex == models.SexMale && b.Roosters > 0:
		b.Roosters--
	case a.Sex == models.SexFemale && b.Hens > 0:
		b.Hens--
	case b.Chicks > 0:
		b.Chicks--
	case b.Hens > 0:
		b.Hens--
	default:
		b.Roosters--
	}
	if b.Total() == 0 {
		entries = append(entries[:idx], entries[idx+1:]...)
	}
	return entries
}

// MatureInput describes a batch of chicks reaching maturity.
type MatureInput struct {
	AnimalIDs   []string `json:"animalIds" validate:"required,min=1"`
	MaleCount   int      `json:"maleCount" validate:"gte=0"`
	FemaleCount int      `json:"femaleCount" validate:"gte=0"`
	TargetBreed string   `json:"targetBreed,omitempty"`
}

// Mature converts the first MaleCount+FemaleCount listed animals to the mature
// stage, assigning males first. For ledger species the move is logged as a
// matured event out of the chick stage and a mature acquisition, so the total
// population is unchanged. Animals moved to TargetBreed take its next free
// numbers.
func (s *Service) Mature(ctx context.Context, in MatureInput) ([]models.IndividualAnimal, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	total := in.MaleCount + in.FemaleCount
	if total == 0 {
		return nil, models.Invalid("maleCount", "at least one animal must mature")
	}
	if total > len(in.AnimalIDs) {
		return nil, models.Invalid("animalIds", "%d animals listed, %d requested", len(in.AnimalIDs), total)
	}

	today := s.today()
	var matured []models.IndividualAnimal
	err := s.store.Do(ctx, "registry.mature", func(tx *store.Tx) error {
		var sp models.Species
		chicks := map[string]int{}
		mature := map[string]*models.BreedEntry{}
		var order []string
		numbers := map[string]int{}

		for i, id := range in.AnimalIDs[:total] {
			a, ok := tx.Animal(id)
			if !ok {
				return models.NotFoundError{Entity: "animal", ID: id}
			}
			if !a.Alive() {
				return models.Invalid("animalIds", "animal %s is %s", id, a.Status)
			}
			if a.Stage == models.StageMature {
				return models.Invalid("animalIds", "animal %s is already mature", id)
			}
			if sp == "" {
				sp = a.Type
			} else if a.Type != sp {
				return models.Invalid("animalIds", "animals of different species cannot mature together")
			}
			chicks[a.Breed]++

			a.Stage = models.StageMature
			a.Sex = models.SexFemale
			if i < in.MaleCount {
				a.Sex = models.SexMale
			}
			if in.TargetBreed != "" && in.TargetBreed != a.Breed {
				// Renumber within the target breed.
				if _, ok := numbers[in.TargetBreed]; !ok {
					numbers[in.TargetBreed] = models.NextNumber(tx.Animals(), a.Type, in.TargetBreed)
				}
				a.Breed = in.TargetBreed
				a.Number = numbers[in.TargetBreed]
				numbers[in.TargetBreed]++
			}
			if err := tx.ReplaceAnimal(a); err != nil {
				return err
			}
			matured = append(matured, a)

			entry, ok := mature[a.Breed]
			if !ok {
				entry = &models.BreedEntry{Breed: a.Breed}
				mature[a.Breed] = entry
				order = append(order, a.Breed)
			}
			if a.Sex == models.SexMale {
				entry.Roosters++
			} else {
				entry.Hens++
			}
		}

		if !sp.HasLedger() {
			return nil
		}
		lost := make([]models.BreedEntry, 0, len(chicks))
		for _, b := range sortedKeys(chicks) {
			lost = append(lost, models.BreedEntry{Breed: b, Chicks: chicks[b]})
		}
		gained := make([]models.BreedEntry, 0, len(order))
		for _, b := range order {
			gained = append(gained, *mature[b])
		}
		if _, err := tx.AppendEvent(sp, models.LedgerEvent{
			Date: today, Type: models.EventMatured, Quantity: total, Stage: models.StageChick,
			Breeds: lost, Notes: "Matured out of chick stage",
		}); err != nil {
			return err
		}
		_, err := tx.AppendEvent(sp, models.LedgerEvent{
			Date: today, Type: models.EventAcquired, Quantity: total, Stage: models.StageMature,
			Breeds: gained, Notes: "Matured from chicks",
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("mature animals: %w", err)
	}
	s.logger.Debug("animals matured", zap.Int("count", len(matured)))
	return matured, nil
}

// HeadCounts splits live individuals of a species into mature roosters, mature
// hens and chicks. Animals without a stage count as mature.
func (s *Service) HeadCounts(sp models.Species) models.HeadCounts {
	var out models.HeadCounts
	for _, a := range s.List(Filter{Type: sp, AliveOnly: true}) {
		switch {
		case a.Stage == models.StageChick:
			out.Chicks++
		case a.Sex == models.SexMale:
			out.Roosters++
		case a.Sex == models.SexFemale:
			out.Hens++
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
