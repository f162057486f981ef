package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/repository/mongodb"
	"github.com/mamadbah2/homestead/internal/repository/sheets"
	"github.com/mamadbah2/homestead/internal/service/reporting"
	"github.com/mamadbah2/homestead/pkg/clients/whatsapp"
)

// Dashboard builds the daily summary.
type Dashboard interface {
	Today() models.Date
	Build(ctx context.Context, date models.Date) (models.DailySummary, error)
}

// Options wires the optional outputs. Nil outputs are skipped.
type Options struct {
	CronSchedule string
	Location     *time.Location
	Notifier     whatsapp.Client
	RecipientID  string
	Sheet        sheets.Repository
	Archive      mongodb.SummaryArchive
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	dashboard Dashboard
	opts      Options
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(dashboard Dashboard, opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(opts.Location))

	return &Scheduler{
		cron:      c,
		dashboard: dashboard,
		opts:      opts,
		logger:    logger,
	}
}

// Start registers the daily job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("schedule", s.opts.CronSchedule),
		zap.String("location", s.opts.Location.String()))

	if _, err := s.cron.AddFunc(s.opts.CronSchedule, s.runDaily); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
		return
	}
	s.logger.Info("daily report completed")
}

// RunOnce builds today's summary and publishes it to every configured output.
// One failing output does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	summary, err := s.dashboard.Build(ctx, s.dashboard.Today())
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}

	var errs []error
	if s.opts.Archive != nil {
		if err := s.opts.Archive.SaveDailySummary(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("archive summary: %w", err))
		}
	}
	if s.opts.Sheet != nil {
		if err := s.writeRow(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("export summary: %w", err))
		}
	}
	if s.opts.Notifier != nil && s.opts.RecipientID != "" {
		if err := s.sendDigest(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("send digest: %w", err))
		}
	}
	return errors.Join(errs...)
}

// writeRow appends the summary row unless the sheet already has one for the date.
func (s *Scheduler) writeRow(ctx context.Context, summary models.DailySummary) error {
	wrote, err := sheets.AppendUnique(ctx, s.opts.Sheet, reporting.DashboardRange, reporting.SheetRow(summary))
	if err != nil {
		return err
	}
	if !wrote {
		s.logger.Debug("dashboard row already present", zap.String("date", string(summary.Date)))
	}
	return nil
}

// sendDigest delivers the digest, split into as many messages as it needs.
func (s *Scheduler) sendDigest(ctx context.Context, summary models.DailySummary) error {
	parts := whatsapp.Split(reporting.Digest(summary), whatsapp.MaxTextLength)
	for i, part := range parts {
		req := whatsapp.SendTextMessageRequest{To: s.opts.RecipientID, Body: part}
		if _, err := s.opts.Notifier.SendTextMessage(ctx, req); err != nil {
			return fmt.Errorf("part %d of %d: %w", i+1, len(parts), err)
		}
	}
	s.logger.Info("digest sent", zap.String("date", string(summary.Date)), zap.Int("messages", len(parts)))
	return nil
}
