package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/models"
)

// Dispatcher is the queue consumer. Each worker claims one message at a
// time, marks the episode/job running, assembles the full payload, and
// hands it to the external render service. It never renders itself;
// terminal state arrives later through callbacks.
type Dispatcher struct {
	storage  interfaces.StorageManager
	queue    interfaces.RenderQueue
	client   *Client
	notifier interfaces.NotifierService
	logger   arbor.ILogger
	config   *common.Config

	pollInterval time.Duration
	concurrency  int
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewDispatcher creates a new render dispatcher
func NewDispatcher(
	storage interfaces.StorageManager,
	queue interfaces.RenderQueue,
	client *Client,
	notifier interfaces.NotifierService,
	config *common.Config,
	logger arbor.ILogger,
) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	concurrency := config.Queue.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Dispatcher{
		storage:      storage,
		queue:        queue,
		client:       client,
		notifier:     notifier,
		logger:       logger,
		config:       config,
		pollInterval: common.ParseDurationOr(config.Queue.PollInterval, time.Second),
		concurrency:  concurrency,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the worker goroutines
func (d *Dispatcher) Start() error {
	d.logger.Info().
		Int("concurrency", d.concurrency).
		Dur("poll_interval", d.pollInterval).
		Msg("Starting render dispatcher")

	for i := 0; i < d.concurrency; i++ {
		go d.worker(i)
	}
	return nil
}

// Stop signals all workers to exit
func (d *Dispatcher) Stop() error {
	d.logger.Info().Msg("Stopping render dispatcher")
	d.cancel()
	return nil
}

func (d *Dispatcher) worker(workerID int) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Debug().Int("worker_id", workerID).Msg("Dispatcher worker stopped")
			return

		case <-ticker.C:
			if err := d.processNext(workerID); err != nil {
				if errors.Is(err, models.ErrNoMessage) {
					continue
				}
				d.logger.Warn().Err(err).Int("worker_id", workerID).Msg("Error processing render message")
			}
		}
	}
}

// processNext claims and dispatches one message. A dispatch failure is
// nacked so the queue's backoff and attempt limit apply.
func (d *Dispatcher) processNext(workerID int) error {
	entry, ack, nack, err := d.queue.Receive(d.ctx)
	if err != nil {
		return err
	}

	d.logger.Debug().
		Str("queue_job_id", entry.ID).
		Str("episode_id", entry.Message.EpisodeID).
		Int("attempt", entry.Attempts).
		Int("worker_id", workerID).
		Msg("Claimed render message")

	if err := d.Process(d.ctx, entry); err != nil {
		if nackErr := nack(); nackErr != nil {
			d.logger.Warn().Err(nackErr).Str("queue_job_id", entry.ID).Msg("Failed to nack render message")
		}
		return err
	}

	if err := ack(); err != nil {
		d.logger.Warn().Err(err).Str("queue_job_id", entry.ID).Msg("Failed to ack render message")
	}
	return nil
}

// Process dispatches one claimed queue entry to the render service.
// Exported so a re-queue path or test can drive it directly.
func (d *Dispatcher) Process(ctx context.Context, entry *interfaces.QueueEntry) error {
	msg := entry.Message

	episode, err := d.storage.Episodes().GetEpisode(ctx, msg.EpisodeID)
	if err != nil {
		return err
	}

	// Match by queue job id first, then fall back to the latest job for
	// the episode. The fallback covers retry/regeneration paths where a
	// message was enqueued before its job row existed.
	job, err := d.storage.RenderJobs().GetRenderJobByQueueJobID(ctx, entry.ID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		job, err = d.storage.RenderJobs().GetLatestRenderJobForEpisode(ctx, msg.EpisodeID)
		if err != nil {
			return err
		}
	}

	now := time.Now()
	episode.Status = models.EpisodeStatusRendering
	episode.RenderStartedAt = &now
	if err := d.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
		return err
	}

	job.Status = models.RenderJobStatusRunning
	job.QueueJobID = entry.ID
	if err := d.storage.RenderJobs().StoreRenderJob(ctx, job); err != nil {
		return err
	}

	req, err := d.buildRequest(ctx, episode, job, entry.ID)
	if err != nil {
		d.failDispatch(ctx, episode, job, err)
		return err
	}

	if err := d.client.Dispatch(ctx, req); err != nil {
		d.failDispatch(ctx, episode, job, err)
		return err
	}

	d.logger.Info().
		Str("episode_id", episode.ID).
		Str("render_job_id", job.ID).
		Msg("Render dispatched, awaiting callbacks")

	return nil
}

// buildRequest reloads the show and assembles the full render payload.
// Pure assembly: safe to recompute on every delivery attempt.
func (d *Dispatcher) buildRequest(ctx context.Context, episode *models.Episode, job *models.RenderJob, queueJobID string) (*DispatchRequest, error) {
	if d.config.Render.CallbackURL == "" {
		return nil, common.Errorf(common.ErrUpstreamRender, "render callback URL is not configured")
	}

	show, err := d.storage.Shows().GetShow(ctx, episode.ShowID)
	if err != nil {
		return nil, err
	}

	return &DispatchRequest{
		EpisodeID:      episode.ID,
		QueueJobID:     queueJobID,
		ShowName:       show.Name,
		EpisodeNum:     episode.Number,
		Title:          episode.Title,
		Script:         episode.Script,
		Moral:          episode.Moral,
		Storyboard:     job.RenderSettings.Storyboard,
		Characters:     BuildCharacterBundles(show),
		Settings:       job.RenderSettings,
		CallbackURL:    d.config.Render.CallbackURL + "/api/callbacks/render",
		CallbackSecret: d.config.Render.CallbackSecret,
	}, nil
}

// failDispatch records a transport/setup failure on both records and
// the ledger. The error itself still propagates so queue backoff
// applies; bookkeeping errors here are logged, not returned.
func (d *Dispatcher) failDispatch(ctx context.Context, episode *models.Episode, job *models.RenderJob, cause error) {
	episode.Status = models.EpisodeStatusRenderFailed
	if err := d.storage.Episodes().StoreEpisode(ctx, episode); err != nil {
		d.logger.Error().Err(err).Str("episode_id", episode.ID).Msg("Failed to mark episode render_failed")
	}

	job.Status = models.RenderJobStatusFailed
	job.Error = cause.Error()
	if err := d.storage.RenderJobs().StoreRenderJob(ctx, job); err != nil {
		d.logger.Error().Err(err).Str("render_job_id", job.ID).Msg("Failed to mark render job failed")
	}

	logEntry := &models.PipelineLog{
		EpisodeID: episode.ID,
		Event:     models.LogEventRenderFailed,
		Message:   fmt.Sprintf("Render dispatch failed: %s", cause.Error()),
	}
	if err := d.storage.PipelineLogs().AppendLog(ctx, logEntry); err != nil {
		d.logger.Warn().Err(err).Str("episode_id", episode.ID).Msg("Failed to append dispatch failure log")
	}

	d.notifier.RenderFailed(ctx, episode, cause.Error())
}
