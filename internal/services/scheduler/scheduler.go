package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/models"
)

// SourceRunner executes one synchronization pass for a source
type SourceRunner interface {
	Run(ctx context.Context, source *models.SourceDefinition) (*models.Report, error)
}

// Scheduler handles periodic synchronization runs
type Scheduler struct {
	runner  SourceRunner
	sources []models.SourceDefinition
	cron    *cron.Cron
	mu      sync.Mutex // Serializes runs; an overdue tick waits, never overlaps
	logger  arbor.ILogger
}

// NewScheduler creates a new synchronization scheduler
func NewScheduler(runner SourceRunner, sources []models.SourceDefinition, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		sources: sources,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
	}
}

// Start begins scheduled synchronization
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: every 6 hours
		schedule = "0 0 */6 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.RunAll()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Int("sources", len(s.sources)).
		Msg("Synchronization scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Synchronization scheduler stopped")
}

// RunAll synchronizes every source sequentially. Source failures are logged
// and the remaining sources continue. Timeouts live on the individual network
// calls inside the pipeline; the run as a whole carries no deadline.
func (s *Scheduler) RunAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()

	s.logger.Info().Int("sources", len(s.sources)).Msg("Starting scheduled synchronization")

	for i := range s.sources {
		source := &s.sources[i]

		rep, err := s.runner.Run(ctx, source)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("source", source.Name).
				Msg("Scheduled synchronization failed")
			continue
		}

		s.logger.Info().
			Str("source", source.Name).
			Int("chunks", rep.Totals.TotalChunks).
			Int("vectors_written", rep.Totals.VectorsWritten).
			Msg("Scheduled synchronization completed")
	}
}
