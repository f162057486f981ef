package store

import (
	"slices"

	"github.com/mamadbah2/homestead/internal/domain/models"
)

// View is read access to ledger state. Every getter returns copies, so callers
// may keep or modify the results freely.
type View struct {
	st *state
}

// Events returns the log of a species in insertion order.
func (v *View) Events(sp models.Species) []models.LedgerEvent {
	return cloneEvents(v.st.events[sp])
}

func (v *View) Event(sp models.Species, id string) (models.LedgerEvent, bool) {
	for _, e := range v.st.events[sp] {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return models.LedgerEvent{}, false
}

func (v *View) Animals() []models.IndividualAnimal {
	return slices.Clone(v.st.animals)
}

func (v *View) Animal(id string) (models.IndividualAnimal, bool) {
	for _, a := range v.st.animals {
		if a.ID == id {
			return a, true
		}
	}
	return models.IndividualAnimal{}, false
}

func (v *View) BreedingRecords() []models.BreedingRecord {
	out := make([]models.BreedingRecord, len(v.st.breeding))
	for i, r := range v.st.breeding {
		out[i] = r.Clone()
	}
	return out
}

func (v *View) BreedingRecord(id string) (models.BreedingRecord, bool) {
	for _, r := range v.st.breeding {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return models.BreedingRecord{}, false
}

func (v *View) BreedingPlans() []models.BreedingPlan {
	out := make([]models.BreedingPlan, len(v.st.plans))
	for i, p := range v.st.plans {
		out[i] = p.Clone()
	}
	return out
}

func (v *View) BreedingPlan(id string) (models.BreedingPlan, bool) {
	for _, p := range v.st.plans {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.BreedingPlan{}, false
}

func (v *View) Vaccinations() []models.Vaccination {
	return slices.Clone(v.st.vaccinations)
}

func (v *View) HealthRecords() []models.HealthRecord {
	return slices.Clone(v.st.health)
}

func (v *View) HealthRecord(id string) (models.HealthRecord, bool) {
	for _, h := range v.st.health {
		if h.ID == id {
			return h, true
		}
	}
	return models.HealthRecord{}, false
}

func (v *View) WeightRecords() []models.WeightRecord {
	return slices.Clone(v.st.weights)
}

func (v *View) EggProduction() []models.EggProduction {
	out := make([]models.EggProduction, len(v.st.eggs))
	for i, e := range v.st.eggs {
		out[i] = e.Clone()
	}
	return out
}

func (v *View) Groups() []models.Group {
	return slices.Clone(v.st.groups)
}

func (v *View) Group(id string) (models.Group, bool) {
	for _, g := range v.st.groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}

func (v *View) Flag(key string) bool { return v.st.flags[key] }

// Tx mutates a private copy of the state. Nothing it does is visible to other
// readers until Store.Update commits it.
type Tx struct {
	View
	newID func() string
	dirty map[string]struct{}
}

// NewID returns a fresh opaque id.
func (tx *Tx) NewID() string { return tx.newID() }

func (tx *Tx) touch(key string) { tx.dirty[key] = struct{}{} }

// AppendEvent adds e to the species log, assigning an id when missing and the
// next insertion sequence.
func (tx *Tx) AppendEvent(sp models.Species, e models.LedgerEvent) (models.LedgerEvent, error) {
	key, ok := historyKey(sp)
	if !ok {
		return models.LedgerEvent{}, models.Invalid("species", "%s has no event log", sp)
	}
	if e.ID == "" {
		e.ID = tx.newID()
	}
	tx.st.seq[sp]++
	e.Seq = tx.st.seq[sp]
	e = e.Clone()
	tx.st.events[sp] = append(tx.st.events[sp], e)
	tx.touch(key)
	return e.Clone(), nil
}

// ReplaceEvent overwrites the event with the same id. Its sequence is kept.
func (tx *Tx) ReplaceEvent(sp models.Species, e models.LedgerEvent) error {
	key, _ := historyKey(sp)
	events := tx.st.events[sp]
	for i := range events {
		if events[i].ID == e.ID {
			e.Seq = events[i].Seq
			events[i] = e.Clone()
			tx.touch(key)
			return nil
		}
	}
	return models.NotFoundError{Entity: "event", ID: e.ID}
}

func (tx *Tx) RemoveEvent(sp models.Species, id string) (models.LedgerEvent, error) {
	key, _ := historyKey(sp)
	events := tx.st.events[sp]
	for i, e := range events {
		if e.ID == id {
			tx.st.events[sp] = slices.Delete(events, i, i+1)
			tx.touch(key)
			return e, nil
		}
	}
	return models.LedgerEvent{}, models.NotFoundError{Entity: "event", ID: id}
}

// AddAnimals appends animals, assigning ids where missing, and returns them as stored.
func (tx *Tx) AddAnimals(animals ...models.IndividualAnimal) []models.IndividualAnimal {
	if len(animals) == 0 {
		return nil
	}
	out := make([]models.IndividualAnimal, len(animals))
	for i, a := range animals {
		if a.ID == "" {
			a.ID = tx.newID()
		}
		out[i] = a
	}
	tx.st.animals = append(tx.st.animals, out...)
	tx.touch(KeyAnimals)
	return slices.Clone(out)
}

func (tx *Tx) ReplaceAnimal(a models.IndividualAnimal) error {
	for i := range tx.st.animals {
		if tx.st.animals[i].ID == a.ID {
			tx.st.animals[i] = a
			tx.touch(KeyAnimals)
			return nil
		}
	}
	return models.NotFoundError{Entity: "animal", ID: a.ID}
}

// RemoveAnimals deletes every animal matching pred and returns them.
func (tx *Tx) RemoveAnimals(pred func(models.IndividualAnimal) bool) []models.IndividualAnimal {
	var removed []models.IndividualAnimal
	kept := tx.st.animals[:0:0]
	for _, a := range tx.st.animals {
		if pred(a) {
			removed = append(removed, a)
			continue
		}
		kept = append(kept, a)
	}
	if len(removed) > 0 {
		tx.st.animals = kept
		tx.touch(KeyAnimals)
	}
	return removed
}

// PutBreedingRecord inserts r or replaces the record with the same id.
func (tx *Tx) PutBreedingRecord(r models.BreedingRecord) models.BreedingRecord {
	if r.ID == "" {
		r.ID = tx.newID()
	}
	r = r.Clone()
	tx.touch(KeyBreeding)
	for i := range tx.st.breeding {
		if tx.st.breeding[i].ID == r.ID {
			tx.st.breeding[i] = r
			return r.Clone()
		}
	}
	tx.st.breeding = append(tx.st.breeding, r)
	return r.Clone()
}

func (tx *Tx) RemoveBreedingRecord(id string) error {
	for i, r := range tx.st.breeding {
		if r.ID == id {
			tx.st.breeding = slices.Delete(tx.st.breeding, i, i+1)
			tx.touch(KeyBreeding)
			return nil
		}
	}
	return models.NotFoundError{Entity: "breeding record", ID: id}
}

// PutBreedingPlan inserts p or replaces the plan with the same id.
func (tx *Tx) PutBreedingPlan(p models.BreedingPlan) models.BreedingPlan {
	if p.ID == "" {
		p.ID = tx.newID()
	}
	p = p.Clone()
	tx.touch(KeyBreedingPlans)
	for i := range tx.st.plans {
		if tx.st.plans[i].ID == p.ID {
			tx.st.plans[i] = p
			return p.Clone()
		}
	}
	tx.st.plans = append(tx.st.plans, p)
	return p.Clone()
}

func (tx *Tx) RemoveBreedingPlan(id string) error {
	for i, p := range tx.st.plans {
		if p.ID == id {
			tx.st.plans = slices.Delete(tx.st.plans, i, i+1)
			tx.touch(KeyBreedingPlans)
			return nil
		}
	}
	return models.NotFoundError{Entity: "breeding plan", ID: id}
}

func (tx *Tx) AddVaccination(v models.Vaccination) models.Vaccination {
	if v.ID == "" {
		v.ID = tx.newID()
	}
	tx.st.vaccinations = append(tx.st.vaccinations, v)
	tx.touch(KeyVaccinations)
	return v
}

func (tx *Tx) RemoveVaccination(id string) error {
	for i, v := range tx.st.vaccinations {
		if v.ID == id {
			tx.st.vaccinations = slices.Delete(tx.st.vaccinations, i, i+1)
			tx.touch(KeyVaccinations)
			return nil
		}
	}
	return models.NotFoundError{Entity: "vaccination", ID: id}
}

// PutHealthRecord inserts h or replaces the record with the same id.
func (tx *Tx) PutHealthRecord(h models.HealthRecord) models.HealthRecord {
	if h.ID == "" {
		h.ID = tx.newID()
	}
	tx.touch(KeyHealthRecords)
	for i := range tx.st.health {
		if tx.st.health[i].ID == h.ID {
			tx.st.health[i] = h
			return h
		}
	}
	tx.st.health = append(tx.st.health, h)
	return h
}

func (tx *Tx) RemoveHealthRecord(id string) error {
	for i, h := range tx.st.health {
		if h.ID == id {
			tx.st.health = slices.Delete(tx.st.health, i, i+1)
			tx.touch(KeyHealthRecords)
			return nil
		}
	}
	return models.NotFoundError{Entity: "health record", ID: id}
}

func (tx *Tx) AddWeightRecord(w models.WeightRecord) models.WeightRecord {
	if w.ID == "" {
		w.ID = tx.newID()
	}
	tx.st.weights = append(tx.st.weights, w)
	tx.touch(KeyWeightRecords)
	return w
}

func (tx *Tx) RemoveWeightRecord(id string) error {
	for i, w := range tx.st.weights {
		if w.ID == id {
			tx.st.weights = slices.Delete(tx.st.weights, i, i+1)
			tx.touch(KeyWeightRecords)
			return nil
		}
	}
	return models.NotFoundError{Entity: "weight record", ID: id}
}

// PutEggProduction inserts e or replaces the entry with the same id.
func (tx *Tx) PutEggProduction(e models.EggProduction) models.EggProduction {
	if e.ID == "" {
		e.ID = tx.newID()
	}
	e = e.Clone()
	tx.touch(KeyEggProduction)
	for i := range tx.st.eggs {
		if tx.st.eggs[i].ID == e.ID {
			tx.st.eggs[i] = e
			return e.Clone()
		}
	}
	tx.st.eggs = append(tx.st.eggs, e)
	return e.Clone()
}

func (tx *Tx) RemoveEggProduction(id string) error {
	for i, e := range tx.st.eggs {
		if e.ID == id {
			tx.st.eggs = slices.Delete(tx.st.eggs, i, i+1)
			tx.touch(KeyEggProduction)
			return nil
		}
	}
	return models.NotFoundError{Entity: "egg production", ID: id}
}

func (tx *Tx) AddGroup(g models.Group) models.Group {
	if g.ID == "" {
		g.ID = tx.newID()
	}
	tx.st.groups = append(tx.st.groups, g)
	tx.touch(KeyGroups)
	return g
}

func (tx *Tx) RemoveGroup(id string) error {
	for i, g := range tx.st.groups {
		if g.ID == id {
			tx.st.groups = slices.Delete(tx.st.groups, i, i+1)
			tx.touch(KeyGroups)
			return nil
		}
	}
	return models.NotFoundError{Entity: "group", ID: id}
}

// SetFlag records a persisted boolean such as a migration marker.
func (tx *Tx) SetFlag(key string) {
	tx.st.flags[key] = true
	tx.touch(key)
}

// RequireGroup checks that groupID, when set, names a group of the given species.
func (v *View) RequireGroup(groupID string, sp models.Species) error {
	if groupID == "" {
		return nil
	}
	g, ok := v.Group(groupID)
	if !ok {
		return models.Invalid("groupId", "group %q does not exist", groupID)
	}
	if g.Type != sp {
		return models.Invalid("groupId", "group %q holds %s, not %s", groupID, g.Type, sp)
	}
	return nil
}
