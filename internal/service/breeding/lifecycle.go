package breeding

import (
	"sort"

	"github.com/mamadbah2/homestead/internal/domain/models"
)

// DefaultKindlingHorizonDays is how far ahead UpcomingKindlings looks.
const DefaultKindlingHorizonDays = 7

// ExpectedKindlingDate is breedingDate plus the fixed gestation.
func ExpectedKindlingDate(breedingDate models.Date) models.Date {
	return breedingDate.AddDays(models.GestationDays)
}

// FalloffCount counts falloff attempts.
func FalloffCount(attempts []models.Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.Outcome == models.OutcomeFalloff {
			n++
		}
	}
	return n
}

// Allocation is the number of kits of each sex set aside for one disposition.
type Allocation struct {
	Disposition models.Disposition `json:"disposition"`
	Males       int                `json:"males"`
	Females     int                `json:"females"`
}

// Allocate splits males and females across dispositions in the fixed order
// retained, sale, harvest. Each disposition takes males first, then females,
// until its quota is met or both sexes run out. No disposition exceeds its
// quota and no sex count goes negative.
func Allocate(males, females, retained, sale, harvest int) []Allocation {
	quotas := []struct {
		d models.Disposition
		q int
	}{
		{models.DispositionRetained, retained},
		{models.DispositionSale, sale},
		{models.DispositionHarvest, harvest},
	}
	out := make([]Allocation, 0, len(quotas))
	for _, dq := range quotas {
		q := max(dq.q, 0)
		m := min(males, q)
		males -= m
		q -= m
		f := min(females, q)
		females -= f
		out = append(out, Allocation{Disposition: dq.d, Males: m, Females: f})
	}
	return out
}

// UpcomingKindlings returns bred or confirmed records whose expected kindling
// date falls in [today, today+horizonDays], soonest first.
func UpcomingKindlings(records []models.BreedingRecord, today models.Date, horizonDays int) []models.BreedingRecord {
	until := today.AddDays(horizonDays)
	var out []models.BreedingRecord
	for _, r := range records {
		if r.Status != models.BreedingBred && r.Status != models.BreedingConfirmed {
			continue
		}
		if r.ExpectedKindlingDate.Between(today, until) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpectedKindlingDate < out[j].ExpectedKindlingDate
	})
	return out
}

// Active reports whether a record is still in progress.
func Active(r models.BreedingRecord) bool {
	switch r.Status {
	case models.BreedingBred, models.BreedingConfirmed, models.BreedingKindled:
		return true
	}
	return false
}

// InbreedingRisk reports whether buck and doe share a parent or one is the
// other's parent.
func InbreedingRisk(buck, doe models.IndividualAnimal) bool {
	switch {
	case buck.ParentBuckID != "" && buck.ParentBuckID == doe.ParentBuckID:
		return true
	case buck.ParentDoeID != "" && buck.ParentDoeID == doe.ParentDoeID:
		return true
	case buck.ID != "" && buck.ID == doe.ParentBuckID:
		return true
	case doe.ID != "" && doe.ID == buck.ParentDoeID:
		return true
	}
	return false
}

// DispositionWarnings flags records whose dispositions exceed the litter.
func DispositionWarnings(r models.BreedingRecord) []models.Warning {
	litter := models.IntValue(r.LitterSize)
	if litter <= 0 {
		return nil
	}
	sum := models.IntValue(r.HarvestCount) + models.IntValue(r.SaleCount) + models.IntValue(r.RetainedForBreedingCount)
	if sum <= litter {
		return nil
	}
	return []models.Warning{{
		Code:    models.WarnLitterOverAllocated,
		Subject: r.ID,
		Message: "harvest, sale and retained counts exceed the litter size",
	}}
}
