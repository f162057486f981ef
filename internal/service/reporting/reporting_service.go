package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/service/breeding"
	"github.com/mamadbah2/homestead/internal/service/eggs"
	"github.com/mamadbah2/homestead/internal/service/health"
	"github.com/mamadbah2/homestead/internal/service/registry"
)

// DashboardRange is where SheetRow values are appended.
const DashboardRange = "Dashboard!A:L"

// Ledger is the per-species aggregate surface the dashboard reads.
type Ledger interface {
	CountOnDate(sp models.Species, date models.Date) (int, error)
	SexBreakdownOnDate(sp models.Species, date models.Date) (models.SexCounts, error)
	StageBreakdownOnDate(sp models.Species, date models.Date) (models.StageCounts, error)
	BreedBreakdown(sp models.Species, asOf models.Date) ([]models.BreedCount, []models.Warning)
}

type Registry interface {
	List(f registry.Filter) []models.IndividualAnimal
	HeadCounts(sp models.Species) models.HeadCounts
}

type Breeding interface {
	List() []models.BreedingRecord
}

type Vaccinations interface {
	List(animalID string) []models.Vaccination
}

type EggLog interface {
	List(from, to models.Date) []models.EggProduction
}

// Options sets the look-ahead windows used in the summary.
type Options struct {
	KindlingHorizonDays    int
	VaccinationHorizonDays int
	MissingEggLimit        int
}

// DefaultOptions uses the standard 7 and 30 day windows.
func DefaultOptions() Options {
	return Options{
		KindlingHorizonDays:    breeding.DefaultKindlingHorizonDays,
		VaccinationHorizonDays: health.DefaultDueHorizonDays,
		MissingEggLimit:        eggs.DefaultMissingLimit,
	}
}

// Service assembles the daily dashboard from the livestock services.
type Service struct {
	ledger   Ledger
	registry Registry
	breeding Breeding
	vaccs    Vaccinations
	eggs     EggLog
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(l Ledger, r Registry, b Breeding, v Vaccinations, e EggLog, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: l, registry: r, breeding: b, vaccs: v, eggs: e, opts: opts, now: time.Now, logger: logger}
}

// WithClock overrides the clock stamped into CreatedAt. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Today is the current date on the service clock.
func (s *Service) Today() models.Date { return models.DateOf(s.now()) }

// Build computes the dashboard as of date. Everything is recomputed from the
// stored collections; nothing is cached between calls.
func (s *Service) Build(ctx context.Context, date models.Date) (models.DailySummary, error) {
	if !date.Valid() {
		return models.DailySummary{}, models.Invalid("date", "expected YYYY-MM-DD, got %q", date)
	}
	if err := ctx.Err(); err != nil {
		return models.DailySummary{}, err
	}

	summary := models.DailySummary{Date: date, CreatedAt: s.now().UTC()}
	for _, sp := range models.LedgerSpecies {
		flock, warnings, err := s.flock(sp, date)
		if err != nil {
			return models.DailySummary{}, fmt.Errorf("summarize %s: %w", sp, err)
		}
		summary.Flocks = append(summary.Flocks, flock)
		summary.Warnings = append(summary.Warnings, warnings...)
	}
	summary.Rabbits = len(s.registry.List(registry.Filter{Type: models.SpeciesRabbit, AliveOnly: true}))

	records := s.breeding.List()
	for _, r := range records {
		if breeding.Active(r) {
			summary.ActiveBreedings++
		}
		summary.Warnings = append(summary.Warnings, breeding.DispositionWarnings(r)...)
	}
	summary.UpcomingKindlings = breeding.UpcomingKindlings(records, date, s.opts.KindlingHorizonDays)
	summary.DueVaccinations = health.DueVaccinations(s.vaccs.List(""), date, s.opts.VaccinationHorizonDays)

	log := s.eggs.List("", date)
	if len(log) > 0 && log[0].Date == date {
		summary.EggsCollected = log[0].Count
	}
	summary.MissingEggDays = eggs.MissingLogDays(log, date, s.opts.MissingEggLimit)
	summary.Warnings = append(summary.Warnings, eggs.Warnings(log)...)

	s.logger.Debug("dashboard built",
		zap.String("date", string(date)),
		zap.Int("warnings", len(summary.Warnings)))
	return summary, nil
}

func (s *Service) flock(sp models.Species, date models.Date) (models.FlockSummary, []models.Warning, error) {
	total, err := s.ledger.CountOnDate(sp, date)
	if err != nil {
		return models.FlockSummary{}, nil, err
	}
	sex, err := s.ledger.SexBreakdownOnDate(sp, date)
	if err != nil {
		return models.FlockSummary{}, nil, err
	}
	stages, err := s.ledger.StageBreakdownOnDate(sp, date)
	if err != nil {
		return models.FlockSummary{}, nil, err
	}
	breeds, warnings := s.ledger.BreedBreakdown(sp, date)
	return models.FlockSummary{
		Species:     sp,
		Total:       total,
		Sex:         sex,
		Stages:      stages,
		Breeds:      breeds,
		Individuals: s.registry.HeadCounts(sp),
	}, warnings, nil
}

// Digest renders a summary as a short plain-text message.
func Digest(d models.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Farm summary %s\n", d.Date)
	for _, f := range d.Flocks {
		fmt.Fprintf(&b, "%s: %d (%d male, %d hens, %d chicks)\n",
			title(string(f.Species)), f.Total, f.Sex.Male, f.Sex.Hens, f.Stages.Chicks)
	}
	fmt.Fprintf(&b, "Rabbits: %d, %d active breedings\n", d.Rabbits, d.ActiveBreedings)
	fmt.Fprintf(&b, "Eggs collected: %d\n", d.EggsCollected)

	if len(d.UpcomingKindlings) > 0 {
		b.WriteString("Kindlings due:\n")
		for _, r := range d.UpcomingKindlings {
			fmt.Fprintf(&b, "- doe %s on %s\n", r.DoeID, r.ExpectedKindlingDate)
		}
	}
	if len(d.DueVaccinations) > 0 {
		b.WriteString("Vaccinations due:\n")
		for _, v := range d.DueVaccinations {
			fmt.Fprintf(&b, "- %s for %s on %s\n", v.Vaccine, v.AnimalID, v.NextDue)
		}
	}
	if len(d.MissingEggDays) > 0 {
		days := make([]string, len(d.MissingEggDays))
		for i, m := range d.MissingEggDays {
			days[i] = string(m)
		}
		fmt.Fprintf(&b, "Egg log missing: %s\n", strings.Join(days, ", "))
	}
	if len(d.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range d.Warnings {
			fmt.Fprintf(&b, "- %s\n", w.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// SheetRow flattens a summary into one dashboard spreadsheet row.
func SheetRow(d models.DailySummary) []interface{} {
	row := []interface{}{string(d.Date)}
	for _, sp := range models.LedgerSpecies {
		var f models.FlockSummary
		for _, x := range d.Flocks {
			if x.Species == sp {
				f = x
			}
		}
		row = append(row, f.Total, f.Stages.Chicks)
	}
	return append(row,
		d.Rabbits,
		d.ActiveBreedings,
		len(d.UpcomingKindlings),
		len(d.DueVaccinations),
		d.EggsCollected,
		len(d.MissingEggDays),
		len(d.Warnings),
	)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
