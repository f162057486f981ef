package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/store"
)

// Service owns the per-species event logs and is the single place that merges
// registry and history counts.
type Service struct {
	store  *store.Store
	agg    Aggregator
	now    func() time.Time
	logger *zap.Logger
}

// NewService builds a ledger service over st using the given event types.
func NewService(st *store.Store, types models.EventTypes, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  st,
		agg:    NewAggregator(types),
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the clock used for "today". Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Aggregator exposes the pure replay functions bound to this service's types.
func (s *Service) Aggregator() Aggregator { return s.agg }

// Today is the current calendar day.
func (s *Service) Today() models.Date { return models.DateOf(s.now()) }

// AppendOptions tunes Append.
type AppendOptions struct {
	// TrackIndividuals creates one registry row per head of an acquired event.
	TrackIndividuals bool
}

// Append validates e and adds it to the species log. With TrackIndividuals an
// acquisition also materializes its animals, linked back through EventID, in
// the same transaction.
func (s *Service) Append(ctx context.Context, sp models.Species, e models.LedgerEvent, opts AppendOptions) (models.LedgerEvent, []models.IndividualAnimal, error) {
	var (
		stored  models.LedgerEvent
		created []models.IndividualAnimal
	)
	err := s.store.Do(ctx, "ledger.append", func(tx *store.Tx) error {
		e.ID = ""
		if err := s.validate(&tx.View, sp, e); err != nil {
			return err
		}
		var err error
		stored, err = tx.AppendEvent(sp, e)
		if err != nil {
			return err
		}
		if opts.TrackIndividuals && stored.Type == models.EventAcquired {
			created = tx.AddAnimals(IndividualsFor(tx.Animals(), sp, stored)...)
		}
		return nil
	})
	if err != nil {
		return models.LedgerEvent{}, nil, fmt.Errorf("append %s event: %w", sp, err)
	}

	s.logger.Debug("ledger event appended",
		zap.String("species", string(sp)),
		zap.String("id", stored.ID),
		zap.String("type", string(stored.Type)),
		zap.Int("quantity", stored.Quantity),
		zap.Int("individuals", len(created)))
	return stored, created, nil
}

// Edit replaces the event with e.ID. Linked individuals are left as they are.
func (s *Service) Edit(ctx context.Context, sp models.Species, e models.LedgerEvent) (models.LedgerEvent, error) {
	var stored models.LedgerEvent
	err := s.store.Do(ctx, "ledger.edit", func(tx *store.Tx) error {
		if _, ok := tx.Event(sp, e.ID); !ok {
			return models.NotFoundError{Entity: "event", ID: e.ID}
		}
		if err := s.validate(&tx.View, sp, e); err != nil {
			return err
		}
		if err := tx.ReplaceEvent(sp, e); err != nil {
			return err
		}
		stored, _ = tx.Event(sp, e.ID)
		return nil
	})
	if err != nil {
		return models.LedgerEvent{}, fmt.Errorf("edit %s event: %w", sp, err)
	}
	s.logger.Debug("ledger event edited", zap.String("species", string(sp)), zap.String("id", stored.ID))
	return stored, nil
}

// Delete removes an event. Deleting an acquisition also deletes the individuals
// it created.
func (s *Service) Delete(ctx context.Context, sp models.Species, id string) (int, error) {
	removed := 0
	err := s.store.Do(ctx, "ledger.delete", func(tx *store.Tx) error {
		e, err := tx.RemoveEvent(sp, id)
		if err != nil {
			return err
		}
		if e.Type == models.EventAcquired {
			removed = len(tx.RemoveAnimals(func(a models.IndividualAnimal) bool {
				return a.Type == sp && a.EventID == id
			}))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete %s event: %w", sp, err)
	}
	s.logger.Debug("ledger event deleted",
		zap.String("species", string(sp)),
		zap.String("id", id),
		zap.Int("individuals_removed", removed))
	return removed, nil
}

// Events returns the species log ordered by date then insertion sequence.
func (s *Service) Events(sp models.Species) ([]models.LedgerEvent, error) {
	if !sp.HasLedger() {
		return nil, models.Invalid("species", "%s has no event log", sp)
	}
	var out []models.LedgerEvent
	_ = s.store.View(func(v *store.View) error {
		out = replay(v.Events(sp), models.Date("9999-12-31"))
		return nil
	})
	return out, nil
}

// CountOnDate is the species population as of date.
func (s *Service) CountOnDate(sp models.Species, date models.Date) (int, error) {
	events, err := s.Events(sp)
	if err != nil {
		return 0, err
	}
	return s.agg.CountOnDate(events, date), nil
}

func (s *Service) SexBreakdownOnDate(sp models.Species, date models.Date) (models.SexCounts, error) {
	events, err := s.Events(sp)
	if err != nil {
		return models.SexCounts{}, err
	}
	return s.agg.SexBreakdownOnDate(events, date), nil
}

func (s *Service) StageBreakdownOnDate(sp models.Species, date models.Date) (models.StageCounts, error) {
	events, err := s.Events(sp)
	if err != nil {
		return models.StageCounts{}, err
	}
	return s.agg.StageBreakdownOnDate(events, date), nil
}

// BreedBreakdown is the authoritative per-breed count: live registry rows when
// present, event replay as of asOf otherwise. Rabbits have no log, so their
// breakdown is registry-only.
func (s *Service) BreedBreakdown(sp models.Species, asOf models.Date) ([]models.BreedCount, []models.Warning) {
	var (
		animals []models.IndividualAnimal
		events  []models.LedgerEvent
	)
	_ = s.store.View(func(v *store.View) error {
		animals = v.Animals()
		events = v.Events(sp)
		return nil
	})
	rows, warnings := s.agg.BreedBreakdown(animals, events, sp, asOf)
	for _, w := range warnings {
		s.logger.Warn("breed count from history", zap.String("species", string(sp)), zap.String("breed", w.Subject))
	}
	return rows, warnings
}

// BreedCountOnDate replays only breed's heads.
func (s *Service) BreedCountOnDate(sp models.Species, breed string, date models.Date) (int, error) {
	events, err := s.Events(sp)
	if err != nil {
		return 0, err
	}
	return s.agg.BreedCountOnDate(events, breed, date), nil
}

func (s *Service) validate(v *store.View, sp models.Species, e models.LedgerEvent) error {
	if !sp.HasLedger() {
		return models.Invalid("species", "%s has no event log", sp)
	}
	if err := models.Validate(e); err != nil {
		return err
	}
	if !s.agg.types.Known(e.Type) {
		return models.Invalid("type", "unknown event type %q", e.Type)
	}
	if len(e.Breeds) > 0 && e.BreedTotal() != e.Quantity {
		return models.Invalid("breeds", "breed entries sum to %d, quantity is %d", e.BreedTotal(), e.Quantity)
	}
	return v.RequireGroup(e.GroupID, sp)
}

// IndividualsFor builds the registry rows for an acquisition, numbered after
// the existing animals. Roosters become mature males, hens mature females and
// chicks unsexed chicks. A single-breed event yields Quantity rows carrying its
// own breed, sex and stage.
func IndividualsFor(existing []models.IndividualAnimal, sp models.Species, e models.LedgerEvent) []models.IndividualAnimal {
	next := make(map[string]int)
	number := func(breed string) int {
		if _, ok := next[breed]; !ok {
			next[breed] = models.NextNumber(existing, sp, breed)
		}
		n := next[breed]
		next[breed]++
		return n
	}
	row := func(breed string, sex models.Sex, stage models.Stage) models.IndividualAnimal {
		return models.IndividualAnimal{
			Type:      sp,
			Breed:     breed,
			Number:    number(breed),
			Sex:       sex,
			Stage:     stage,
			GroupID:   e.GroupID,
			DateAdded: e.Date,
			Status:    models.StatusAlive,
			EventID:   e.ID,
		}
	}

	var out []models.IndividualAnimal
	if len(e.Breeds) == 0 {
		breed := models.BreedOrUnknown(e.Breed)
		for i := 0; i < e.Quantity; i++ {
			out = append(out, row(breed, e.Sex, e.Stage))
		}
		return out
	}
	for _, b := range e.Breeds {
		for i := 0; i < b.Roosters; i++ {
			out = append(out, row(b.Breed, models.SexMale, models.StageMature))
		}
		for i := 0; i < b.Hens; i++ {
			out = append(out, row(b.Breed, models.SexFemale, models.StageMature))
		}
		for i := 0; i < b.Chicks; i++ {
			out = append(out, row(b.Breed, "", models.StageChick))
		}
	}
	return out
}
