package ledger

import (
	"fmt"
	"sort"

	"github.com/mamadbah2/homestead/internal/domain/models"
)

// Aggregator replays event logs to answer point-in-time questions. It holds no
// state besides the event type registry, so every call rescans its input.
type Aggregator struct {
	types models.EventTypes
}

// NewAggregator builds an Aggregator for the given event types.
func NewAggregator(types models.EventTypes) Aggregator {
	return Aggregator{types: types}
}

// DefaultAggregator knows only the built-in event types.
func DefaultAggregator() Aggregator {
	return NewAggregator(models.DefaultEventTypes())
}

// Types returns the registry used for polarity lookups.
func (a Aggregator) Types() models.EventTypes { return a.types }

// replay returns the events dated on or before cutoff, ordered by date then by
// insertion sequence. The input slice is not modified.
func replay(events []models.LedgerEvent, cutoff models.Date) []models.LedgerEvent {
	out := make([]models.LedgerEvent, 0, len(events))
	for _, e := range events {
		if e.Date.After(cutoff) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// CountOnDate is the population as of date, inclusive. The running total may
// dip below zero mid-walk; only the final value is clamped.
func (a Aggregator) CountOnDate(events []models.LedgerEvent, date models.Date) int {
	total := 0
	for _, e := range replay(events, date) {
		p, ok := a.types.Polarity(e.Type)
		if !ok {
			continue
		}
		total += p.Sign() * e.Quantity
	}
	return max(total, 0)
}

// SexBreakdownOnDate tracks males and hens from events carrying a sex tag.
// Each counter is clamped at every subtraction.
func (a Aggregator) SexBreakdownOnDate(events []models.LedgerEvent, date models.Date) models.SexCounts {
	var out models.SexCounts
	for _, e := range replay(events, date) {
		p, ok := a.types.Polarity(e.Type)
		if !ok {
			continue
		}
		switch e.Sex {
		case models.SexMale:
			out.Male = step(out.Male, p, e.Quantity)
		case models.SexFemale:
			out.Hens = step(out.Hens, p, e.Quantity)
		}
	}
	return out
}

// StageBreakdownOnDate tracks chicks and mature birds with the same per-event
// clamp as the sex walk. A mixed acquisition without a stage tag is split by its
// sub-entries: roosters and hens are mature, chicks are chicks.
func (a Aggregator) StageBreakdownOnDate(events []models.LedgerEvent, date models.Date) models.StageCounts {
	var out models.StageCounts
	for _, e := range replay(events, date) {
		p, ok := a.types.Polarity(e.Type)
		if !ok {
			continue
		}
		switch {
		case e.Stage == models.StageChick:
			out.Chicks = step(out.Chicks, p, e.Quantity)
		case e.Stage == models.StageMature:
			out.Mature = step(out.Mature, p, e.Quantity)
		case len(e.Breeds) > 0:
			var chicks, mature int
			for _, b := range e.Breeds {
				chicks += b.Chicks
				mature += b.Roosters + b.Hens
			}
			out.Chicks = step(out.Chicks, p, chicks)
			out.Mature = step(out.Mature, p, mature)
		}
	}
	return out
}

// BreedCountOnDate replays only the heads attributed to breed. Sub-entries of a
// mixed event take precedence over its top-level breed.
func (a Aggregator) BreedCountOnDate(events []models.LedgerEvent, breed string, date models.Date) int {
	total := 0
	for _, e := range replay(events, date) {
		p, ok := a.types.Polarity(e.Type)
		if !ok {
			continue
		}
		total += p.Sign() * headsOfBreed(e, breed)
	}
	return max(total, 0)
}

// BreedsInLog lists every breed named by the events, in first-seen order. Heads
// recorded without a breed are listed as models.UnknownBreed.
func BreedsInLog(events []models.LedgerEvent) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(b string) {
		b = models.BreedOrUnknown(b)
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	for _, e := range events {
		if len(e.Breeds) > 0 {
			for _, b := range e.Breeds {
				add(b.Breed)
			}
			continue
		}
		add(e.Breed)
	}
	return out
}

// BreedBreakdown merges live registry counts with history replay. Once a breed
// has any registry record of the species, dead or alive, the registry is
// authoritative for it. A breed the registry has never seen falls back to
// history and yields a warning. Counts for the same breed are never summed.
// Rows are ordered by count descending, then breed name.
func (a Aggregator) BreedBreakdown(individuals []models.IndividualAnimal, events []models.LedgerEvent, species models.Species, asOf models.Date) ([]models.BreedCount, []models.Warning) {
	known := make(map[string]bool)
	live := make(map[string]int)
	for _, an := range individuals {
		if an.Type != species {
			continue
		}
		breed := models.BreedOrUnknown(an.Breed)
		known[breed] = true
		if an.Alive() {
			live[breed]++
		}
	}

	rows := make([]models.BreedCount, 0, len(live))
	for breed, n := range live {
		rows = append(rows, models.BreedCount{Breed: breed, Count: n, Source: models.SourceRegistry})
	}

	var warnings []models.Warning
	for _, breed := range BreedsInLog(events) {
		if known[breed] {
			continue
		}
		n := a.BreedCountOnDate(events, breed, asOf)
		if n <= 0 {
			continue
		}
		rows = append(rows, models.BreedCount{Breed: breed, Count: n, Source: models.SourceHistory})
		warnings = append(warnings, models.Warning{
			Code:    models.WarnBreedHistoryFallback,
			Subject: breed,
			Message: fmt.Sprintf("%s %s has no tracked individuals; count taken from event history", species, breed),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Breed < rows[j].Breed
	})
	return rows, warnings
}

// headsOfBreed counts the heads of e attributed to breed. An empty breed on the
// event or a sub-entry counts as models.UnknownBreed.
func headsOfBreed(e models.LedgerEvent, breed string) int {
	if len(e.Breeds) == 0 {
		if models.BreedOrUnknown(e.Breed) == breed {
			return e.Quantity
		}
		return 0
	}
	n := 0
	for _, b := range e.Breeds {
		if models.BreedOrUnknown(b.Breed) == breed {
			n += b.Total()
		}
	}
	return n
}

func step(counter int, p models.Polarity, qty int) int {
	if p == models.PolaritySubtract {
		return max(0, counter-qty)
	}
	return counter + qty
}

// CountOnDate replays events with the built-in event types.
func CountOnDate(events []models.LedgerEvent, date models.Date) int {
	return DefaultAggregator().CountOnDate(events, date)
}

// SexBreakdownOnDate replays events with the built-in event types.
func SexBreakdownOnDate(events []models.LedgerEvent, date models.Date) models.SexCounts {
	return DefaultAggregator().SexBreakdownOnDate(events, date)
}
