package models

// Vaccination is a dose given to an animal, with an optional booster due date.
type Vaccination struct {
	ID           string `json:"id" bson:"id"`
	AnimalID     string `json:"animalId" bson:"animal_id" validate:"required"`
	Vaccine      string `json:"vaccine" bson:"vaccine" validate:"required"`
	Date         Date   `json:"date" bson:"date" validate:"required,isodate"`
	NextDue      Date   `json:"nextDue,omitempty" bson:"next_due,omitempty" validate:"omitempty,isodate"`
	Veterinarian string `json:"veterinarian,omitempty" bson:"veterinarian,omitempty"`
	Notes        string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// HealthRecord is an illness or injury logged against an animal. It stays an
// active issue until Resolved is set.
type HealthRecord struct {
	ID           string  `json:"id" bson:"id"`
	AnimalID     string  `json:"animalId" bson:"animal_id" validate:"required"`
	Date         Date    `json:"date" bson:"date" validate:"required,isodate"`
	Issue        string  `json:"issue" bson:"issue" validate:"required"`
	Treatment    string  `json:"treatment,omitempty" bson:"treatment,omitempty"`
	Veterinarian string  `json:"veterinarian,omitempty" bson:"veterinarian,omitempty"`
	Cost         float64 `json:"cost,omitempty" bson:"cost,omitempty" validate:"gte=0"`
	Resolved     bool    `json:"resolved" bson:"resolved"`
	Notes        string  `json:"notes,omitempty" bson:"notes,omitempty"`
}

// WeightRecord is one weighing of an animal, in kilograms.
type WeightRecord struct {
	ID       string  `json:"id" bson:"id"`
	AnimalID string  `json:"animalId" bson:"animal_id" validate:"required"`
	Date     Date    `json:"date" bson:"date" validate:"required,isodate"`
	Weight   float64 `json:"weight" bson:"weight" validate:"gt=0"`
	Notes    string  `json:"notes,omitempty" bson:"notes,omitempty"`
}

// EggProduction is one day of egg output. Count is the collected total; the
// optional breakdown fields are only checked for consistency.
type EggProduction struct {
	ID      string `json:"id" bson:"id"`
	Date    Date   `json:"date" bson:"date" validate:"required,isodate"`
	Count   int    `json:"count" bson:"count" validate:"gte=0"`
	Laid    *int   `json:"laid,omitempty" bson:"laid,omitempty" validate:"omitempty,gte=0"`
	Sold    *int   `json:"sold,omitempty" bson:"sold,omitempty" validate:"omitempty,gte=0"`
	Broken  *int   `json:"broken,omitempty" bson:"broken,omitempty" validate:"omitempty,gte=0"`
	Donated *int   `json:"donated,omitempty" bson:"donated,omitempty" validate:"omitempty,gte=0"`
	Notes   string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Clone returns a copy that shares no pointers with e.
func (e EggProduction) Clone() EggProduction {
	e.Laid = cloneInt(e.Laid)
	e.Sold = cloneInt(e.Sold)
	e.Broken = cloneInt(e.Broken)
	e.Donated = cloneInt(e.Donated)
	return e
}
