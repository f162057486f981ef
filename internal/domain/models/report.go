package models

import "time"

// BreedCountSource tells whether a breed count came from live individuals or
// from replaying the event log.
type BreedCountSource string

const (
	SourceRegistry BreedCountSource = "registry"
	SourceHistory  BreedCountSource = "history"
)

// BreedCount is one row of a breed breakdown.
type BreedCount struct {
	Breed  string           `bson:"breed" json:"breed"`
	Count  int              `bson:"count" json:"count"`
	Source BreedCountSource `bson:"source" json:"source"`
}

// SexCounts is the male/hen split of a population.
type SexCounts struct {
	Male int `bson:"male" json:"male"`
	Hens int `bson:"hens" json:"hens"`
}

// StageCounts is the chick/mature split of a population.
type StageCounts struct {
	Chicks int `bson:"chicks" json:"chicks"`
	Mature int `bson:"mature" json:"mature"`
}

// HeadCounts splits live individuals into mature roosters, mature hens and chicks.
type HeadCounts struct {
	Roosters int `bson:"roosters" json:"roosters"`
	Hens     int `bson:"hens" json:"hens"`
	Chicks   int `bson:"chicks" json:"chicks"`
}

// FlockSummary is the point-in-time state of one species.
type FlockSummary struct {
	Species     Species      `bson:"species" json:"species"`
	Total       int          `bson:"total" json:"total"`
	Sex         SexCounts    `bson:"sex" json:"sex"`
	Stages      StageCounts  `bson:"stages" json:"stages"`
	Breeds      []BreedCount `bson:"breeds" json:"breeds"`
	Individuals HeadCounts   `bson:"individuals" json:"individuals"`
}

// DailySummary is the dashboard snapshot archived once per day.
type DailySummary struct {
	Date              Date             `bson:"date" json:"date"`
	Flocks            []FlockSummary   `bson:"flocks" json:"flocks"`
	Rabbits           int              `bson:"rabbits" json:"rabbits"`
	ActiveBreedings   int              `bson:"active_breedings" json:"activeBreedings"`
	UpcomingKindlings []BreedingRecord `bson:"upcoming_kindlings" json:"upcomingKindlings"`
	DueVaccinations   []Vaccination    `bson:"due_vaccinations" json:"dueVaccinations"`
	EggsCollected     int              `bson:"eggs_collected" json:"eggsCollected"`
	MissingEggDays    []Date           `bson:"missing_egg_days" json:"missingEggDays"`
	Warnings          []Warning        `bson:"warnings" json:"warnings"`
	CreatedAt         time.Time        `bson:"created_at" json:"createdAt"`
}
