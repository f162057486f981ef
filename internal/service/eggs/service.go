// Package eggs keeps the daily egg production log.
package eggs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/store"
)

// DefaultMissingLimit caps how many unlogged days are reported.
const DefaultMissingLimit = 7

// Warnings flags entries where sold plus donated eggs exceed the laid count.
// Entries without a laid figure are not checked.
func Warnings(entries []models.EggProduction) []models.Warning {
	var out []models.Warning
	for _, e := range entries {
		if e.Laid == nil {
			continue
		}
		gone := models.IntValue(e.Sold) + models.IntValue(e.Donated)
		if gone > *e.Laid {
			out = append(out, models.Warning{
				Code:    models.WarnEggsOverLaid,
				Subject: string(e.Date),
				Message: fmt.Sprintf("%d sold or donated but only %d laid", gone, *e.Laid),
			})
		}
	}
	return out
}

// MissingLogDays lists days after the first logged day, up to and including
// today, that have no entry. Only the most recent limit days are returned,
// oldest first.
func MissingLogDays(entries []models.EggProduction, today models.Date, limit int) []models.Date {
	if len(entries) == 0 || limit <= 0 {
		return nil
	}
	logged := make(map[models.Date]struct{}, len(entries))
	first := entries[0].Date
	for _, e := range entries {
		logged[e.Date] = struct{}{}
		if e.Date < first {
			first = e.Date
		}
	}
	var out []models.Date
	for d := today; d.After(first) && len(out) < limit; d = d.AddDays(-1) {
		if _, ok := logged[d]; !ok {
			out = append(out, d)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
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

// Add logs a day of production. A second entry for the same date is merged
// into the first: Count is replaced and the other fields are only overwritten
// when given.
func (s *Service) Add(ctx context.Context, in models.EggProduction) (models.EggProduction, []models.Warning, error) {
	in.ID = ""
	if err := models.Validate(in); err != nil {
		return models.EggProduction{}, nil, err
	}
	var out models.EggProduction
	err := s.store.Do(ctx, "eggs.add", func(tx *store.Tx) error {
		for _, e := range tx.EggProduction() {
			if e.Date == in.Date {
				out = tx.PutEggProduction(merge(e, in))
				return nil
			}
		}
		out = tx.PutEggProduction(in)
		return nil
	})
	if err != nil {
		return models.EggProduction{}, nil, fmt.Errorf("add egg production: %w", err)
	}
	return out, s.warn(out), nil
}

func merge(e, in models.EggProduction) models.EggProduction {
	e.Count = in.Count
	if in.Laid != nil {
		e.Laid = in.Laid
	}
	if in.Sold != nil {
		e.Sold = in.Sold
	}
	if in.Broken != nil {
		e.Broken = in.Broken
	}
	if in.Donated != nil {
		e.Donated = in.Donated
	}
	if in.Notes != "" {
		e.Notes = in.Notes
	}
	return e
}

// Update replaces the entry with the given id. Moving it onto a date that
// already has another entry is rejected.
func (s *Service) Update(ctx context.Context, id string, in models.EggProduction) (models.EggProduction, []models.Warning, error) {
	in.ID = id
	if err := models.Validate(in); err != nil {
		return models.EggProduction{}, nil, err
	}
	var out models.EggProduction
	err := s.store.Do(ctx, "eggs.update", func(tx *store.Tx) error {
		found := false
		for _, e := range tx.EggProduction() {
			if e.ID == id {
				found = true
			} else if e.Date == in.Date {
				return models.Invalid("date", "%s already has an entry", in.Date)
			}
		}
		if !found {
			return models.NotFoundError{Entity: "egg production", ID: id}
		}
		out = tx.PutEggProduction(in)
		return nil
	})
	if err != nil {
		return models.EggProduction{}, nil, fmt.Errorf("update egg production: %w", err)
	}
	return out, s.warn(out), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Do(ctx, "eggs.delete", func(tx *store.Tx) error {
		return tx.RemoveEggProduction(id)
	})
	if err != nil {
		return fmt.Errorf("delete egg production: %w", err)
	}
	return nil
}

// List returns entries between from and to inclusive, newest first. Empty
// bounds are open.
func (s *Service) List(from, to models.Date) []models.EggProduction {
	var out []models.EggProduction
	_ = s.store.View(func(v *store.View) error {
		for _, e := range v.EggProduction() {
			if (from == "" || !e.Date.Before(from)) && (to == "" || !e.Date.After(to)) {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Warnings checks every stored entry.
func (s *Service) Warnings() []models.Warning {
	return Warnings(s.List("", ""))
}

// MissingDays reports recent days with no entry.
func (s *Service) MissingDays(limit int) []models.Date {
	return MissingLogDays(s.List("", ""), models.DateOf(s.now()), limit)
}

// CollectedOn is the count logged for one day, 0 when nothing was logged.
func (s *Service) CollectedOn(d models.Date) int {
	if entries := s.List(d, d); len(entries) > 0 {
		return entries[0].Count
	}
	return 0
}

func (s *Service) warn(e models.EggProduction) []models.Warning {
	w := Warnings([]models.EggProduction{e})
	for _, x := range w {
		s.logger.Warn("egg production inconsistent", zap.String("date", x.Subject), zap.String("detail", x.Message))
	}
	return w
}
