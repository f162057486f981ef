package breeding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/store"
)

// ErrAlreadyWeaned is returned when a litter is completed twice.
var ErrAlreadyWeaned = errors.New("breeding already weaned")

// Service drives rabbit breeding records through their lifecycle.
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

func (s *Service) today() models.Date { return models.DateOf(s.now()) }

// CreateInput starts a new pairing.
type CreateInput struct {
	BuckID       string      `json:"buckId" validate:"required"`
	DoeID        string      `json:"doeId" validate:"required"`
	BreedingDate models.Date `json:"breedingDate" validate:"required,isodate"`
	Notes        string      `json:"notes,omitempty"`
}

// Create records a mating in status bred. Buck and doe must be live rabbits of
// compatible sex. Related parents do not block creation but come back as a warning.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.BreedingRecord, []models.Warning, error) {
	if err := models.Validate(in); err != nil {
		return models.BreedingRecord{}, nil, err
	}
	var (
		out      models.BreedingRecord
		warnings []models.Warning
	)
	err := s.store.Do(ctx, "breeding.create", func(tx *store.Tx) error {
		var err error
		out, warnings, err = createRecord(tx, in)
		return err
	})
	if err != nil {
		return models.BreedingRecord{}, nil, fmt.Errorf("create breeding: %w", err)
	}
	s.logPairWarnings(warnings)
	return out, warnings, nil
}

func createRecord(tx *store.Tx, in CreateInput) (models.BreedingRecord, []models.Warning, error) {
	warnings, err := checkPair(tx, in.BuckID, in.DoeID)
	if err != nil {
		return models.BreedingRecord{}, nil, err
	}
	r := tx.PutBreedingRecord(models.BreedingRecord{
		BuckID:               in.BuckID,
		DoeID:                in.DoeID,
		BreedingDate:         in.BreedingDate,
		ExpectedKindlingDate: ExpectedKindlingDate(in.BreedingDate),
		Status:               models.BreedingBred,
		Attempts:             []models.Attempt{},
		Notes:                in.Notes,
	})
	return r, warnings, nil
}

// checkPair requires a live buck and doe that are different rabbits. A related
// pair is allowed and reported as a warning.
func checkPair(tx *store.Tx, buckID, doeID string) ([]models.Warning, error) {
	buck, err := parent(tx, "buckId", buckID, models.SexFemale)
	if err != nil {
		return nil, err
	}
	doe, err := parent(tx, "doeId", doeID, models.SexMale)
	if err != nil {
		return nil, err
	}
	if buck.ID == doe.ID {
		return nil, models.Invalid("doeId", "buck and doe must be different animals")
	}
	if !InbreedingRisk(buck, doe) {
		return nil, nil
	}
	return []models.Warning{{
		Code:    models.WarnInbreedingRisk,
		Subject: buck.ID + "/" + doe.ID,
		Message: "buck and doe are closely related",
	}}, nil
}

func (s *Service) logPairWarnings(warnings []models.Warning) {
	for _, w := range warnings {
		s.logger.Warn("breeding pair flagged", zap.String("code", string(w.Code)), zap.String("subject", w.Subject))
	}
}

func parent(tx *store.Tx, field, id string, wrongSex models.Sex) (models.IndividualAnimal, error) {
	a, ok := tx.Animal(id)
	if !ok {
		return models.IndividualAnimal{}, models.Invalid(field, "rabbit %q does not exist", id)
	}
	if a.Type != models.SpeciesRabbit {
		return models.IndividualAnimal{}, models.Invalid(field, "animal %s is a %s, not a rabbit", id, a.Type)
	}
	if !a.Alive() {
		return models.IndividualAnimal{}, models.Invalid(field, "rabbit %s is %s", id, a.Status)
	}
	if a.Sex == wrongSex {
		return models.IndividualAnimal{}, models.Invalid(field, "rabbit %s has sex %s", id, a.Sex)
	}
	return a, nil
}

func (s *Service) Get(id string) (models.BreedingRecord, error) {
	var (
		r  models.BreedingRecord
		ok bool
	)
	_ = s.store.View(func(v *store.View) error {
		r, ok = v.BreedingRecord(id)
		return nil
	})
	if !ok {
		return models.BreedingRecord{}, models.NotFoundError{Entity: "breeding record", ID: id}
	}
	return r, nil
}

// List returns all records, most recent breeding date first.
func (s *Service) List() []models.BreedingRecord {
	var out []models.BreedingRecord
	_ = s.store.View(func(v *store.View) error {
		out = v.BreedingRecords()
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].BreedingDate > out[j].BreedingDate })
	return out
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Do(ctx, "breeding.delete", func(tx *store.Tx) error {
		return tx.RemoveBreedingRecord(id)
	})
	if err != nil {
		return fmt.Errorf("delete breeding: %w", err)
	}
	return nil
}

// Patch edits a record. Nil fields are left alone.
type Patch struct {
	BreedingDate             *models.Date `json:"breedingDate,omitempty" validate:"omitempty,isodate"`
	ActualKindlingDate       *models.Date `json:"actualKindlingDate,omitempty" validate:"omitempty,isodate"`
	LitterSize               *int         `json:"litterSize,omitempty" validate:"omitempty,gte=0"`
	MaleCount                *int         `json:"maleCount,omitempty" validate:"omitempty,gte=0"`
	FemaleCount              *int         `json:"femaleCount,omitempty" validate:"omitempty,gte=0"`
	HarvestCount             *int         `json:"harvestCount,omitempty" validate:"omitempty,gte=0"`
	SaleCount                *int         `json:"saleCount,omitempty" validate:"omitempty,gte=0"`
	RetainedForBreedingCount *int         `json:"retainedForBreedingCount,omitempty" validate:"omitempty,gte=0"`
	Notes                    *string      `json:"notes,omitempty"`
}

// Update applies p. A new breeding date moves the expected kindling date with
// it. Dispositions exceeding the litter are kept and reported as a warning.
func (s *Service) Update(ctx context.Context, id string, p Patch) (models.BreedingRecord, []models.Warning, error) {
	if err := models.Validate(p); err != nil {
		return models.BreedingRecord{}, nil, err
	}
	out, err := s.mutate(ctx, "breeding.update", id, func(r *models.BreedingRecord) error {
		if p.BreedingDate != nil {
			r.BreedingDate = *p.BreedingDate
			r.ExpectedKindlingDate = ExpectedKindlingDate(r.BreedingDate)
		}
		if p.ActualKindlingDate != nil {
			r.ActualKindlingDate = *p.ActualKindlingDate
		}
		setInt(&r.LitterSize, p.LitterSize)
		setInt(&r.MaleCount, p.MaleCount)
		setInt(&r.FemaleCount, p.FemaleCount)
		setInt(&r.HarvestCount, p.HarvestCount)
		setInt(&r.SaleCount, p.SaleCount)
		setInt(&r.RetainedForBreedingCount, p.RetainedForBreedingCount)
		if p.Notes != nil {
			r.Notes = *p.Notes
		}
		return nil
	})
	if err != nil {
		return models.BreedingRecord{}, nil, fmt.Errorf("update breeding: %w", err)
	}
	warnings := DispositionWarnings(out)
	for _, w := range warnings {
		s.logger.Warn("breeding record inconsistent", zap.String("id", id), zap.String("code", string(w.Code)))
	}
	return out, warnings, nil
}

func setInt(dst **int, v *int) {
	if v != nil {
		*dst = models.Int(*v)
	}
}

// SetStatus overwrites the status. Any known status may follow any other.
func (s *Service) SetStatus(ctx context.Context, id string, status models.BreedingStatus) (models.BreedingRecord, error) {
	if !status.Known() {
		return models.BreedingRecord{}, models.Invalid("status", "unknown breeding status %q", status)
	}
	out, err := s.mutate(ctx, "breeding.set_status", id, func(r *models.BreedingRecord) error {
		r.Status = status
		return nil
	})
	if err != nil {
		return models.BreedingRecord{}, fmt.Errorf("set breeding status: %w", err)
	}
	return out, nil
}

// AddAttempt logs a mating attempt dated today.
func (s *Service) AddAttempt(ctx context.Context, id string, outcome models.AttemptOutcome) (models.BreedingRecord, error) {
	if !outcome.Known() {
		return models.BreedingRecord{}, models.Invalid("outcome", "unknown attempt outcome %q", outcome)
	}
	today := s.today()
	out, err := s.mutate(ctx, "breeding.add_attempt", id, func(r *models.BreedingRecord) error {
		r.Attempts = append(r.Attempts, models.Attempt{Date: today, Outcome: outcome})
		r.FalloffCount = FalloffCount(r.Attempts)
		return nil
	})
	if err != nil {
		return models.BreedingRecord{}, fmt.Errorf("add attempt: %w", err)
	}
	return out, nil
}

// RemoveLastAttempt drops the newest attempt. A record without attempts is
// returned unchanged.
func (s *Service) RemoveLastAttempt(ctx context.Context, id string) (models.BreedingRecord, error) {
	out, err := s.mutate(ctx, "breeding.remove_attempt", id, func(r *models.BreedingRecord) error {
		if len(r.Attempts) == 0 {
			return nil
		}
		r.Attempts = r.Attempts[:len(r.Attempts)-1]
		r.FalloffCount = FalloffCount(r.Attempts)
		return nil
	})
	if err != nil {
		return models.BreedingRecord{}, fmt.Errorf("remove attempt: %w", err)
	}
	return out, nil
}

// mutate loads id, applies fn and stores the result. Attempt ids are filled in
// here so fn does not need the transaction.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(*models.BreedingRecord) error) (models.BreedingRecord, error) {
	var out models.BreedingRecord
	err := s.store.Do(ctx, op, func(tx *store.Tx) error {
		r, ok := tx.BreedingRecord(id)
		if !ok {
			return models.NotFoundError{Entity: "breeding record", ID: id}
		}
		if err := fn(&r); err != nil {
			return err
		}
		for i := range r.Attempts {
			if r.Attempts[i].ID == "" {
				r.Attempts[i].ID = tx.NewID()
			}
		}
		out = tx.PutBreedingRecord(r)
		return nil
	})
	return out, err
}

// CompleteInput closes a litter.
type CompleteInput struct {
	LitterSize               int `json:"litterSize" validate:"gte=0"`
	MaleCount                int `json:"maleCount" validate:"gte=0"`
	FemaleCount              int `json:"femaleCount" validate:"gte=0"`
	HarvestCount             int `json:"harvestCount" validate:"gte=0"`
	SaleCount                int `json:"saleCount" validate:"gte=0"`
	RetainedForBreedingCount int `json:"retainedForBreedingCount" validate:"gte=0"`
}

func (in CompleteInput) dispositions() int {
	return in.HarvestCount + in.SaleCount + in.RetainedForBreedingCount
}

// Complete marks the record weaned today and creates one rabbit per allocated
// kit. The record update and every kit are committed together or not at all.
func (s *Service) Complete(ctx context.Context, id string, in CompleteInput) (models.BreedingRecord, []models.IndividualAnimal, error) {
	if err := models.Validate(in); err != nil {
		return models.BreedingRecord{}, nil, err
	}
	if in.LitterSize > 0 && in.dispositions() > in.LitterSize {
		return models.BreedingRecord{}, nil, models.Invalid("litterSize",
			"harvest, sale and retained counts (%d) exceed litter size %d", in.dispositions(), in.LitterSize)
	}
	// Zero litter size means it was not recorded, so nothing clamps the count.
	weaned := in.dispositions()
	if in.LitterSize > 0 {
		weaned = min(weaned, in.LitterSize)
	}

	today := s.today()
	var (
		out  models.BreedingRecord
		kits []models.IndividualAnimal
	)
	err := s.store.Do(ctx, "breeding.complete", func(tx *store.Tx) error {
		r, ok := tx.BreedingRecord(id)
		if !ok {
			return models.NotFoundError{Entity: "breeding record", ID: id}
		}
		if r.WeaningDate != "" {
			return fmt.Errorf("%w: %s on %s", ErrAlreadyWeaned, id, r.WeaningDate)
		}
		r.ActualKindlingDate = today
		r.WeaningDate = today
		r.Status = models.BreedingWeaned
		r.LitterSize = models.Int(in.LitterSize)
		r.MaleCount = models.Int(in.MaleCount)
		r.FemaleCount = models.Int(in.FemaleCount)
		r.HarvestCount = models.Int(in.HarvestCount)
		r.SaleCount = models.Int(in.SaleCount)
		r.RetainedForBreedingCount = models.Int(in.RetainedForBreedingCount)
		r.WeanedCount = models.Int(weaned)
		out = tx.PutBreedingRecord(r)

		breed := kitBreed(tx, r)
		next := models.NextNumber(tx.Animals(), models.SpeciesRabbit, breed)
		var batch []models.IndividualAnimal
		for _, al := range Allocate(in.MaleCount, in.FemaleCount, in.RetainedForBreedingCount, in.SaleCount, in.HarvestCount) {
			for _, sc := range []struct {
				sex models.Sex
				n   int
			}{{models.SexMale, al.Males}, {models.SexFemale, al.Females}} {
				for range sc.n {
					batch = append(batch, models.IndividualAnimal{
						Type:         models.SpeciesRabbit,
						Breed:        breed,
						Number:       next,
						Sex:          sc.sex,
						DateAdded:    today,
						Status:       models.StatusAlive,
						ParentBuckID: r.BuckID,
						ParentDoeID:  r.DoeID,
						BreedingID:   r.ID,
						Disposition:  al.Disposition,
					})
					next++
				}
			}
		}
		kits = tx.AddAnimals(batch...)
		return nil
	})
	if err != nil {
		return models.BreedingRecord{}, nil, fmt.Errorf("complete breeding: %w", err)
	}
	s.logger.Info("litter weaned",
		zap.String("id", id),
		zap.Int("litter_size", in.LitterSize),
		zap.Int("kits", len(kits)))
	return out, kits, nil
}

// kitBreed inherits the dam's breed, then the sire's.
func kitBreed(v *store.Tx, r models.BreedingRecord) string {
	if doe, ok := v.Animal(r.DoeID); ok && doe.Breed != "" {
		return doe.Breed
	}
	if buck, ok := v.Animal(r.BuckID); ok && buck.Breed != "" {
		return buck.Breed
	}
	return models.UnknownBreed
}

// UpcomingKindlings lists pregnancies due within horizonDays of today.
func (s *Service) UpcomingKindlings(horizonDays int) []models.BreedingRecord {
	return UpcomingKindlings(s.List(), s.today(), horizonDays)
}

// ActiveBreedings lists records that are bred, confirmed or kindled.
func (s *Service) ActiveBreedings() []models.BreedingRecord {
	var out []models.BreedingRecord
	for _, r := range s.List() {
		if Active(r) {
			out = append(out, r)
		}
	}
	return out
}

// History lists every record in which the rabbit was buck or doe.
func (s *Service) History(rabbitID string) []models.BreedingRecord {
	var out []models.BreedingRecord
	for _, r := range s.List() {
		if r.BuckID == rabbitID || r.DoeID == rabbitID {
			out = append(out, r)
		}
	}
	return out
}

// Lineage is a rabbit with its recorded parents and offspring.
type Lineage struct {
	Animal    models.IndividualAnimal   `json:"animal"`
	Sire      *models.IndividualAnimal  `json:"sire,omitempty"`
	Dam       *models.IndividualAnimal  `json:"dam,omitempty"`
	Offspring []models.IndividualAnimal `json:"offspring"`
}

func (s *Service) Lineage(id string) (Lineage, error) {
	var (
		out Lineage
		ok  bool
	)
	_ = s.store.View(func(v *store.View) error {
		out.Animal, ok = v.Animal(id)
		if !ok {
			return nil
		}
		if a, found := v.Animal(out.Animal.ParentBuckID); found {
			out.Sire = &a
		}
		if a, found := v.Animal(out.Animal.ParentDoeID); found {
			out.Dam = &a
		}
		out.Offspring = []models.IndividualAnimal{}
		for _, a := range v.Animals() {
			if a.ParentBuckID == id || a.ParentDoeID == id {
				out.Offspring = append(out.Offspring, a)
			}
		}
		return nil
	})
	if !ok {
		return Lineage{}, models.NotFoundError{Entity: "animal", ID: id}
	}
	return out, nil
}

// PairRisk loads both rabbits and reports whether pairing them is inbreeding.
func (s *Service) PairRisk(buckID, doeID string) (bool, error) {
	var buck, doe models.IndividualAnimal
	var okBuck, okDoe bool
	_ = s.store.View(func(v *store.View) error {
		buck, okBuck = v.Animal(buckID)
		doe, okDoe = v.Animal(doeID)
		return nil
	})
	if !okBuck {
		return false, models.NotFoundError{Entity: "animal", ID: buckID}
	}
	if !okDoe {
		return false, models.NotFoundError{Entity: "animal", ID: doeID}
	}
	return InbreedingRisk(buck, doe), nil
}
