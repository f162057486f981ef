package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Species identifies an animal population. Chickens and ducks keep an event log;
// rabbits are tracked only through the individual registry.
type Species string

const (
	SpeciesChicken Species = "chicken"
	SpeciesDuck    Species = "duck"
	SpeciesRabbit  Species = "rabbit"
)

// LedgerSpecies lists the species that own an event log.
var LedgerSpecies = []Species{SpeciesChicken, SpeciesDuck}

// ParseSpecies accepts a known species name.
func ParseSpecies(s string) (Species, error) {
	switch sp := Species(strings.ToLower(strings.TrimSpace(s))); sp {
	case SpeciesChicken, SpeciesDuck, SpeciesRabbit:
		return sp, nil
	}
	return "", Invalid("species", "unknown species %q", s)
}

// HasLedger reports whether the species keeps an event log.
func (s Species) HasLedger() bool {
	return s == SpeciesChicken || s == SpeciesDuck
}

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

type Stage string

const (
	StageChick  Stage = "chick"
	StageMature Stage = "mature"
)

// EventType names a ledger event kind. The built-in set can be extended with
// custom types registered in EventTypes.
type EventType string

const (
	EventAcquired EventType = "acquired"
	EventDeath    EventType = "death"
	EventSold     EventType = "sold"
	EventConsumed EventType = "consumed"
	// EventMatured moves heads out of the chick stage. It is always paired with
	// a mature-stage acquisition of the same size, so totals are unchanged.
	EventMatured EventType = "matured"
)

// Polarity is the direction an event type moves the population.
type Polarity string

const (
	PolarityAdd      Polarity = "add"
	PolaritySubtract Polarity = "subtract"
)

// Sign returns +1 or -1.
func (p Polarity) Sign() int {
	if p == PolaritySubtract {
		return -1
	}
	return 1
}

// EventTypes maps every known event type to its polarity. The zero value knows
// nothing; use DefaultEventTypes.
type EventTypes struct {
	polarity map[EventType]Polarity
}

// DefaultEventTypes returns the built-in set.
func DefaultEventTypes() EventTypes {
	return EventTypes{polarity: map[EventType]Polarity{
		EventAcquired: PolarityAdd,
		EventDeath:    PolaritySubtract,
		EventSold:     PolaritySubtract,
		EventConsumed: PolaritySubtract,
		EventMatured:  PolaritySubtract,
	}}
}

// With returns a copy of r that also knows name. Built-in types cannot be redefined.
func (r EventTypes) With(name EventType, p Polarity) (EventTypes, error) {
	name = EventType(strings.ToLower(strings.TrimSpace(string(name))))
	if name == "" {
		return r, Invalid("type", "event type name is required")
	}
	if p != PolarityAdd && p != PolaritySubtract {
		return r, Invalid("polarity", "unknown polarity %q", p)
	}
	if _, builtin := DefaultEventTypes().polarity[name]; builtin {
		return r, Invalid("type", "%q is a built-in event type", name)
	}
	next := make(map[EventType]Polarity, len(r.polarity)+1)
	for k, v := range r.polarity {
		next[k] = v
	}
	next[name] = p
	return EventTypes{polarity: next}, nil
}

// Polarity looks up the direction of t.
func (r EventTypes) Polarity(t EventType) (Polarity, bool) {
	p, ok := r.polarity[t]
	return p, ok
}

// Known reports whether t is registered.
func (r EventTypes) Known(t EventType) bool {
	_, ok := r.polarity[t]
	return ok
}

// Names lists registered types in alphabetical order.
func (r EventTypes) Names() []EventType {
	out := make([]EventType, 0, len(r.polarity))
	for k := range r.polarity {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseEventTypes extends the defaults with a comma separated list of
// name:polarity pairs, e.g. "hatched:add,predator:subtract".
func ParseEventTypes(raw string) (EventTypes, error) {
	types := DefaultEventTypes()
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, pol, ok := strings.Cut(part, ":")
		if !ok {
			return types, fmt.Errorf("custom event type %q: expected name:polarity", part)
		}
		var err error
		types, err = types.With(EventType(name), Polarity(strings.ToLower(strings.TrimSpace(pol))))
		if err != nil {
			return types, fmt.Errorf("custom event type %q: %w", part, err)
		}
	}
	return types, nil
}

// BreedEntry is one line of a mixed acquisition.
type BreedEntry struct {
	Breed    string           `json:"breed" bson:"breed" validate:"required"`
	Roosters int              `json:"roosters" bson:"roosters" validate:"gte=0"`
	Hens     int              `json:"hens" bson:"hens" validate:"gte=0"`
	Chicks   int              `json:"chicks" bson:"chicks" validate:"gte=0"`
	Cost     *decimal.Decimal `json:"cost,omitempty" bson:"cost,omitempty"`
	Notes    string           `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Total is the head count of the entry.
func (b BreedEntry) Total() int {
	return b.Roosters + b.Hens + b.Chicks
}

// LedgerEvent is a dated, typed change to a species population. Quantity is
// always positive; the type's polarity decides the direction.
type LedgerEvent struct {
	ID       string           `json:"id" bson:"id"`
	Seq      int64            `json:"seq" bson:"seq"`
	Date     Date             `json:"date" bson:"date" validate:"required,isodate"`
	Type     EventType        `json:"type" bson:"type" validate:"required"`
	Quantity int              `json:"quantity" bson:"quantity" validate:"gt=0"`
	Breed    string           `json:"breed,omitempty" bson:"breed,omitempty"`
	Sex      Sex              `json:"sex,omitempty" bson:"sex,omitempty" validate:"omitempty,oneof=M F"`
	Stage    Stage            `json:"stage,omitempty" bson:"stage,omitempty" validate:"omitempty,oneof=chick mature"`
	GroupID  string           `json:"groupId,omitempty" bson:"group_id,omitempty"`
	Cost     *decimal.Decimal `json:"cost,omitempty" bson:"cost,omitempty"`
	Notes    string           `json:"notes,omitempty" bson:"notes,omitempty"`
	Breeds   []BreedEntry     `json:"breeds,omitempty" bson:"breeds,omitempty" validate:"omitempty,dive"`
}

// BreedTotal sums the sub-entries of a mixed acquisition.
func (e LedgerEvent) BreedTotal() int {
	total := 0
	for _, b := range e.Breeds {
		total += b.Total()
	}
	return total
}

// Clone returns a copy that shares no slices with e.
func (e LedgerEvent) Clone() LedgerEvent {
	if e.Breeds != nil {
		e.Breeds = append([]BreedEntry(nil), e.Breeds...)
	}
	return e
}
