package models

type AnimalStatus string

const (
	StatusAlive    AnimalStatus = "alive"
	StatusDead     AnimalStatus = "dead"
	StatusConsumed AnimalStatus = "consumed"
)

// Disposition records what a weaned kit was set aside for.
type Disposition string

const (
	DispositionRetained Disposition = "retained"
	DispositionSale     Disposition = "sale"
	DispositionHarvest  Disposition = "harvest"
)

// IndividualAnimal is an identity row in the registry. Number is unique within
// (Type, Breed) and assigned as max+1.
type IndividualAnimal struct {
	ID           string       `json:"id" bson:"id"`
	Type         Species      `json:"type" bson:"type"`
	Breed        string       `json:"breed" bson:"breed"`
	Number       int          `json:"number" bson:"number"`
	Name         string       `json:"name,omitempty" bson:"name,omitempty"`
	Sex          Sex          `json:"sex,omitempty" bson:"sex,omitempty"`
	Stage        Stage        `json:"stage,omitempty" bson:"stage,omitempty"`
	GroupID      string       `json:"groupId,omitempty" bson:"group_id,omitempty"`
	DateAdded    Date         `json:"dateAdded" bson:"date_added"`
	Status       AnimalStatus `json:"status" bson:"status"`
	DeathDate    Date         `json:"deathDate,omitempty" bson:"death_date,omitempty"`
	DeathReason  string       `json:"deathReason,omitempty" bson:"death_reason,omitempty"`
	Notes        string       `json:"notes,omitempty" bson:"notes,omitempty"`
	EventID      string       `json:"eventId,omitempty" bson:"event_id,omitempty"`
	ParentBuckID string       `json:"parentBuckId,omitempty" bson:"parent_buck_id,omitempty"`
	ParentDoeID  string       `json:"parentDoeId,omitempty" bson:"parent_doe_id,omitempty"`
	BreedingID   string       `json:"breedingId,omitempty" bson:"breeding_id,omitempty"`
	Disposition  Disposition  `json:"disposition,omitempty" bson:"disposition,omitempty"`
}

func (a IndividualAnimal) Alive() bool { return a.Status == StatusAlive }

// UnknownBreed names animals recorded without a breed.
const UnknownBreed = "Unknown"

// BreedOrUnknown maps an empty breed to UnknownBreed.
func BreedOrUnknown(breed string) string {
	if breed == "" {
		return UnknownBreed
	}
	return breed
}

// Group is a named logical grouping that events and animals may reference.
type Group struct {
	ID          string  `json:"id" bson:"id"`
	Name        string  `json:"name" bson:"name" validate:"required"`
	Type        Species `json:"type" bson:"type" validate:"required,oneof=chicken duck rabbit"`
	DateCreated Date    `json:"dateCreated" bson:"date_created"`
	Notes       string  `json:"notes,omitempty" bson:"notes,omitempty"`
}

// NextNumber is 1 for an empty (species, breed) and max+1 otherwise. Numbers
// freed by deletion are not reused while a higher number exists.
func NextNumber(animals []IndividualAnimal, species Species, breed string) int {
	top := 0
	for _, a := range animals {
		if a.Type == species && a.Breed == breed {
			top = max(top, a.Number)
		}
	}
	return top + 1
}
