package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// showEntry is one show's cron registration
type showEntry struct {
	showID      string
	workspaceID string
	cronSpec    string
	timezone    string
	cronID      cron.EntryID
}

// Service owns the per-show cron table. Entries are recomputed from
// Show records on a periodic sync tick rather than held as an
// untracked in-memory registry, so edits to a show's schedule take
// effect without a restart.
type Service struct {
	pipeline interfaces.PipelineService
	shows    interfaces.ShowStorage
	cron     *cron.Cron
	logger   arbor.ILogger

	syncInterval time.Duration
	mu           sync.Mutex
	entries      map[string]*showEntry
	ticker       *time.Ticker
	done         chan struct{}
	running      bool
}

// NewService creates a new show scheduler
func NewService(pipeline interfaces.PipelineService, shows interfaces.ShowStorage, config *common.SchedulerConfig, logger arbor.ILogger) interfaces.SchedulerService {
	return &Service{
		pipeline:     pipeline,
		shows:        shows,
		cron:         cron.New(),
		logger:       logger,
		syncInterval: common.ParseDurationOr(config.SyncInterval, time.Minute),
		entries:      make(map[string]*showEntry),
		done:         make(chan struct{}),
	}
}

// Start runs an initial sync, starts the cron runner, and launches the
// periodic sync loop
func (s *Service) Start() error {
	if err := s.Sync(context.Background()); err != nil {
		s.logger.Warn().Err(err).Msg("Initial schedule sync failed")
	}

	s.cron.Start()
	s.ticker = time.NewTicker(s.syncInterval)
	s.running = true

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				if err := s.Sync(context.Background()); err != nil {
					s.logger.Warn().Err(err).Msg("Schedule sync failed")
				}
			}
		}
	}()

	s.logger.Info().Dur("sync_interval", s.syncInterval).Msg("Show scheduler started")
	return nil
}

// Stop halts the sync loop and the cron runner
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}
	s.running = false

	close(s.done)
	if s.ticker != nil {
		s.ticker.Stop()
	}
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info().Msg("Show scheduler stopped")
	return nil
}

// Sync recomputes the cron table from current Show records: new
// schedules are registered, changed ones re-registered, and entries for
// deleted or disabled schedules removed.
func (s *Service) Sync(ctx context.Context) error {
	shows, err := s.shows.GetAllShows(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(shows))
	for _, show := range shows {
		sched := show.Schedule
		if sched == nil || !sched.Enabled || sched.CronSpec == "" {
			continue
		}
		seen[show.ID] = true

		existing, ok := s.entries[show.ID]
		if ok && existing.cronSpec == sched.CronSpec && existing.timezone == sched.Timezone {
			continue // Unchanged
		}
		if ok {
			s.cron.Remove(existing.cronID)
			delete(s.entries, show.ID)
		}

		if err := s.register(show, sched); err != nil {
			s.logger.Warn().Err(err).
				Str("show_id", show.ID).
				Str("cron_spec", sched.CronSpec).
				Msg("Failed to register show schedule")
		}
	}

	// Drop entries whose show no longer schedules generation
	for showID, entry := range s.entries {
		if !seen[showID] {
			s.cron.Remove(entry.cronID)
			delete(s.entries, showID)
			s.logger.Debug().Str("show_id", showID).Msg("Show schedule removed")
		}
	}

	return nil
}

// register must be called with s.mu held
func (s *Service) register(show *models.Show, sched *models.ShowSchedule) error {
	spec := sched.CronSpec
	if sched.Timezone != "" {
		spec = "CRON_TZ=" + sched.Timezone + " " + spec
	}

	showID := show.ID
	workspaceID := show.WorkspaceID
	cronID, err := s.cron.AddFunc(spec, func() {
		s.trigger(showID, workspaceID)
	})
	if err != nil {
		return err
	}

	s.entries[show.ID] = &showEntry{
		showID:      show.ID,
		workspaceID: show.WorkspaceID,
		cronSpec:    sched.CronSpec,
		timezone:    sched.Timezone,
		cronID:      cronID,
	}

	s.logger.Info().
		Str("show_id", show.ID).
		Str("cron_spec", sched.CronSpec).
		Str("timezone", sched.Timezone).
		Msg("Show schedule registered")
	return nil
}

// trigger calls the same generation contract a manual request uses.
// Errors are logged and absorbed so one show's failure never halts the
// scheduler.
func (s *Service) trigger(showID, workspaceID string) {
	s.logger.Info().Str("show_id", showID).Msg("Scheduled episode generation triggered")

	episode, err := s.pipeline.Generate(context.Background(), workspaceID, showID, "scheduler", nil)
	if err != nil {
		s.logger.Error().Err(err).Str("show_id", showID).Msg("Scheduled generation failed")
		return
	}

	s.logger.Info().
		Str("show_id", showID).
		Str("episode_id", episode.ID).
		Int("number", episode.Number).
		Msg("Scheduled generation complete")
}

// Entries returns the current cron table for observability
func (s *Service) Entries() []interfaces.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]interfaces.ScheduleEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		nextFire := ""
		if e := s.cron.Entry(entry.cronID); e.ID != 0 && !e.Next.IsZero() {
			nextFire = e.Next.Format(time.RFC3339)
		}
		result = append(result, interfaces.ScheduleEntry{
			ShowID:   entry.showID,
			CronSpec: entry.cronSpec,
			Timezone: entry.timezone,
			NextFire: nextFire,
		})
	}
	return result
}
