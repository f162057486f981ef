package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/mamadbah2/homestead/internal/domain/models"
)

// Collection keys. They match the keys the mobile app persisted, so an exported
// device store can be loaded as-is.
const (
	KeyChickenHistory = "livestock_chicken_history"
	KeyDuckHistory    = "livestock_duck_history"
	KeyAnimals        = "livestock_animals"
	KeyBreeding       = "livestock_breeding_records"
	KeyBreedingPlans  = "livestock_breeding_plans"
	KeyVaccinations   = "livestock_vaccinations"
	KeyHealthRecords  = "livestock_health_records"
	KeyWeightRecords  = "livestock_weight_records"
	KeyEggProduction  = "livestock_egg_production"
	KeyGroups         = "livestock_groups"

	KeyLegacyChickens = "livestock_chickens"
	KeyLegacyRabbits  = "livestock_rabbits"
	FlagMigrationV2   = "livestock_migration_v2"
)

// historyKey maps a ledger species to its event log key.
func historyKey(s models.Species) (string, bool) {
	switch s {
	case models.SpeciesChicken:
		return KeyChickenHistory, true
	case models.SpeciesDuck:
		return KeyDuckHistory, true
	}
	return "", false
}

// collectionKeys is the fixed persist order for non-batch backends. Breeding
// records are written before animals, so a failure between the two can leave a
// weaned litter without kits but never kits whose litter can be completed again.
var collectionKeys = []string{
	KeyChickenHistory,
	KeyDuckHistory,
	KeyBreeding,
	KeyBreedingPlans,
	KeyAnimals,
	KeyVaccinations,
	KeyHealthRecords,
	KeyWeightRecords,
	KeyEggProduction,
	KeyGroups,
}

// persistOrder lists the dirty keys in collectionKeys order, then any flags
// sorted by name.
func persistOrder(dirty map[string]struct{}) []string {
	keys := make([]string, 0, len(dirty))
	for _, k := range collectionKeys {
		if _, ok := dirty[k]; ok {
			keys = append(keys, k)
		}
	}
	var flags []string
	for k := range dirty {
		if !slices.Contains(collectionKeys, k) {
			flags = append(flags, k)
		}
	}
	sort.Strings(flags)
	return append(keys, flags...)
}

type state struct {
	events       map[models.Species][]models.LedgerEvent
	seq          map[models.Species]int64
	animals      []models.IndividualAnimal
	breeding     []models.BreedingRecord
	plans        []models.BreedingPlan
	vaccinations []models.Vaccination
	health       []models.HealthRecord
	weights      []models.WeightRecord
	eggs         []models.EggProduction
	groups       []models.Group
	flags        map[string]bool
}

func newState() state {
	return state{
		events: make(map[models.Species][]models.LedgerEvent),
		seq:    make(map[models.Species]int64),
		flags:  make(map[string]bool),
	}
}

func (s state) clone() state {
	out := state{
		events:       make(map[models.Species][]models.LedgerEvent, len(s.events)),
		seq:          make(map[models.Species]int64, len(s.seq)),
		animals:      append([]models.IndividualAnimal(nil), s.animals...),
		vaccinations: append([]models.Vaccination(nil), s.vaccinations...),
		health:       append([]models.HealthRecord(nil), s.health...),
		weights:      append([]models.WeightRecord(nil), s.weights...),
		groups:       append([]models.Group(nil), s.groups...),
		flags:        make(map[string]bool, len(s.flags)),
	}
	for sp, events := range s.events {
		out.events[sp] = cloneEvents(events)
	}
	for sp, n := range s.seq {
		out.seq[sp] = n
	}
	out.breeding = make([]models.BreedingRecord, len(s.breeding))
	for i, r := range s.breeding {
		out.breeding[i] = r.Clone()
	}
	out.plans = make([]models.BreedingPlan, len(s.plans))
	for i, p := range s.plans {
		out.plans[i] = p.Clone()
	}
	out.eggs = make([]models.EggProduction, len(s.eggs))
	for i, e := range s.eggs {
		out.eggs[i] = e.Clone()
	}
	for k, v := range s.flags {
		out.flags[k] = v
	}
	return out
}

func cloneEvents(events []models.LedgerEvent) []models.LedgerEvent {
	out := make([]models.LedgerEvent, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}

// encode marshals the collection stored under key.
func (s state) encode(key string) ([]byte, error) {
	var v any
	switch key {
	case KeyChickenHistory:
		v = nonNil(s.events[models.SpeciesChicken])
	case KeyDuckHistory:
		v = nonNil(s.events[models.SpeciesDuck])
	case KeyAnimals:
		v = nonNil(s.animals)
	case KeyBreeding:
		v = nonNil(s.breeding)
	case KeyBreedingPlans:
		v = nonNil(s.plans)
	case KeyVaccinations:
		v = nonNil(s.vaccinations)
	case KeyHealthRecords:
		v = nonNil(s.health)
	case KeyWeightRecords:
		v = nonNil(s.weights)
	case KeyEggProduction:
		v = nonNil(s.eggs)
	case KeyGroups:
		v = nonNil(s.groups)
	default:
		if s.flags[key] {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	}
	return json.Marshal(v)
}

// decode fills the collection stored under key from payload. A nil payload
// leaves the collection empty.
func (s *state) decode(key string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var err error
	switch key {
	case KeyChickenHistory:
		err = s.decodeEvents(models.SpeciesChicken, payload)
	case KeyDuckHistory:
		err = s.decodeEvents(models.SpeciesDuck, payload)
	case KeyAnimals:
		err = json.Unmarshal(payload, &s.animals)
	case KeyBreeding:
		err = json.Unmarshal(payload, &s.breeding)
	case KeyBreedingPlans:
		err = json.Unmarshal(payload, &s.plans)
	case KeyVaccinations:
		err = json.Unmarshal(payload, &s.vaccinations)
	case KeyHealthRecords:
		err = json.Unmarshal(payload, &s.health)
	case KeyWeightRecords:
		err = json.Unmarshal(payload, &s.weights)
	case KeyEggProduction:
		err = json.Unmarshal(payload, &s.eggs)
	case KeyGroups:
		err = json.Unmarshal(payload, &s.groups)
	default:
		var flag bool
		err = json.Unmarshal(payload, &flag)
		s.flags[key] = flag
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// decodeEvents loads a log and backfills insertion sequence numbers for rows
// written before sequences existed, keeping their stored order.
func (s *state) decodeEvents(sp models.Species, payload []byte) error {
	var events []models.LedgerEvent
	if err := json.Unmarshal(payload, &events); err != nil {
		return err
	}
	var top int64
	for _, e := range events {
		top = max(top, e.Seq)
	}
	for i := range events {
		if events[i].Seq == 0 {
			top++
			events[i].Seq = top
		}
	}
	s.events[sp] = events
	s.seq[sp] = top
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
