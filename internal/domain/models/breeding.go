package models

import "slices"

// GestationDays is the fixed rabbit gestation used for kindling dates.
const GestationDays = 31

type BreedingStatus string

const (
	BreedingBred      BreedingStatus = "bred"
	BreedingConfirmed BreedingStatus = "confirmed"
	BreedingKindled   BreedingStatus = "kindled"
	BreedingWeaned    BreedingStatus = "weaned"
	BreedingFailed    BreedingStatus = "failed"
)

// Known reports whether s is one of the lifecycle statuses.
func (s BreedingStatus) Known() bool {
	switch s {
	case BreedingBred, BreedingConfirmed, BreedingKindled, BreedingWeaned, BreedingFailed:
		return true
	}
	return false
}

// Terminal reports whether s ends the lifecycle. Terminal records stay editable.
func (s BreedingStatus) Terminal() bool {
	return s == BreedingWeaned || s == BreedingFailed
}

type AttemptOutcome string

const (
	OutcomeFalloff    AttemptOutcome = "falloff"
	OutcomeMissed     AttemptOutcome = "missed"
	OutcomeSuccessful AttemptOutcome = "successful"
)

func (o AttemptOutcome) Known() bool {
	return o == OutcomeFalloff || o == OutcomeMissed || o == OutcomeSuccessful
}

// Attempt is one logged mating within a breeding record.
type Attempt struct {
	ID      string         `json:"id" bson:"id"`
	Date    Date           `json:"date" bson:"date"`
	Outcome AttemptOutcome `json:"outcome" bson:"outcome"`
}

// BreedingRecord tracks a buck/doe pairing from mating to weaning.
type BreedingRecord struct {
	ID                       string         `json:"id" bson:"id"`
	BuckID                   string         `json:"buckId" bson:"buck_id"`
	DoeID                    string         `json:"doeId" bson:"doe_id"`
	BreedingDate             Date           `json:"breedingDate" bson:"breeding_date"`
	ExpectedKindlingDate     Date           `json:"expectedKindlingDate" bson:"expected_kindling_date"`
	Status                   BreedingStatus `json:"status" bson:"status"`
	ActualKindlingDate       Date           `json:"actualKindlingDate,omitempty" bson:"actual_kindling_date,omitempty"`
	WeaningDate              Date           `json:"weaningDate,omitempty" bson:"weaning_date,omitempty"`
	LitterSize               *int           `json:"litterSize,omitempty" bson:"litter_size,omitempty"`
	MaleCount                *int           `json:"maleCount,omitempty" bson:"male_count,omitempty"`
	FemaleCount              *int           `json:"femaleCount,omitempty" bson:"female_count,omitempty"`
	HarvestCount             *int           `json:"harvestCount,omitempty" bson:"harvest_count,omitempty"`
	SaleCount                *int           `json:"saleCount,omitempty" bson:"sale_count,omitempty"`
	RetainedForBreedingCount *int           `json:"retainedForBreedingCount,omitempty" bson:"retained_for_breeding_count,omitempty"`
	WeanedCount              *int           `json:"weanedCount,omitempty" bson:"weaned_count,omitempty"`
	FalloffCount             int            `json:"falloffCount" bson:"falloff_count"`
	Attempts                 []Attempt      `json:"attempts" bson:"attempts"`
	Notes                    string         `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Clone returns a deep copy of r.
func (r BreedingRecord) Clone() BreedingRecord {
	r.Attempts = append([]Attempt(nil), r.Attempts...)
	r.LitterSize = cloneInt(r.LitterSize)
	r.MaleCount = cloneInt(r.MaleCount)
	r.FemaleCount = cloneInt(r.FemaleCount)
	r.HarvestCount = cloneInt(r.HarvestCount)
	r.SaleCount = cloneInt(r.SaleCount)
	r.RetainedForBreedingCount = cloneInt(r.RetainedForBreedingCount)
	r.WeanedCount = cloneInt(r.WeanedCount)
	return r
}

type PlanStatus string

const (
	PlanPlanned   PlanStatus = "planned"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// BreedingPlan is a pairing intended for a future date. Completing it starts a
// breeding record, whose id is kept in BreedingID.
type BreedingPlan struct {
	ID             string     `json:"id" bson:"id"`
	BuckID         string     `json:"buckId" bson:"buck_id"`
	DoeID          string     `json:"doeId" bson:"doe_id"`
	PlannedDate    Date       `json:"plannedDate" bson:"planned_date"`
	Goals          string     `json:"goals,omitempty" bson:"goals,omitempty"`
	ExpectedTraits []string   `json:"expectedTraits" bson:"expected_traits"`
	Status         PlanStatus `json:"status" bson:"status"`
	BreedingID     string     `json:"breedingId,omitempty" bson:"breeding_id,omitempty"`
	Notes          string     `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Clone returns a deep copy of p.
func (p BreedingPlan) Clone() BreedingPlan {
	p.ExpectedTraits = slices.Clone(p.ExpectedTraits)
	return p
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// IntValue dereferences p, treating nil as zero.
func IntValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
