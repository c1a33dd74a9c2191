package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
	"github.com/showforge/showforge/internal/handlers"
	"github.com/showforge/showforge/internal/interfaces"
	"github.com/showforge/showforge/internal/queue"
	"github.com/showforge/showforge/internal/services/events"
	"github.com/showforge/showforge/internal/services/generator"
	"github.com/showforge/showforge/internal/services/notify"
	"github.com/showforge/showforge/internal/services/pipeline"
	"github.com/showforge/showforge/internal/services/render"
	"github.com/showforge/showforge/internal/services/scheduler"
	"github.com/showforge/showforge/internal/services/storyboard"
	storagebadger "github.com/showforge/showforge/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	db             *storagebadger.BadgerDB
	StorageManager interfaces.StorageManager

	EventService     interfaces.EventService
	RenderQueue      interfaces.RenderQueue
	Generator        interfaces.ContentGenerator
	Reconciler       *storyboard.Reconciler
	Notifier         interfaces.NotifierService
	Pipeline         interfaces.PipelineService
	RenderClient     *render.Client
	RenderDispatcher *render.Dispatcher
	SchedulerService interfaces.SchedulerService

	EpisodeHandler  *handlers.EpisodeHandler
	SceneHandler    *handlers.SceneHandler
	JobHandler      *handlers.JobHandler
	CallbackHandler *handlers.CallbackHandler
	StatusHandler   *handlers.StatusHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("environment", cfg.Environment).
		Str("llm_provider", app.Generator.ProviderName()).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger) and loads show
// seed files
func (a *App) initDatabase() error {
	db, err := storagebadger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.db = db
	a.StorageManager = storagebadger.NewManagerWithDB(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	if err := storagebadger.LoadShowsFromFiles(context.Background(),
		a.StorageManager.Workspaces(), a.StorageManager.Shows(),
		a.Config.Shows.Dir, a.Logger); err != nil {
		// Seed files are optional, startup continues without them
		a.Logger.Warn().Err(err).Msg("Failed to load show seed files")
	}

	return nil
}

// initServices initializes all business services in dependency order
func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)

	renderQueue, err := queue.NewBadgerQueue(a.db.Store().Badger(), queue.Options{
		QueueName:         a.Config.Queue.QueueName,
		VisibilityTimeout: common.ParseDurationOr(a.Config.Queue.VisibilityTimeout, 0),
		MaxReceive:        a.Config.Queue.MaxReceive,
		RetryBackoff:      common.ParseDurationOr(a.Config.Queue.RetryBackoff, 0),
		MaxHistory:        a.Config.Queue.MaxHistory,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create render queue: %w", err)
	}
	a.RenderQueue = renderQueue

	gen, err := generator.NewContentGenerator(context.Background(), a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create content generator: %w", err)
	}
	a.Generator = gen

	a.Reconciler = storyboard.NewReconciler(a.StorageManager.Scenes(), a.StorageManager.RenderJobs(), a.Logger)
	a.Notifier = notify.NewService(a.StorageManager.Workspaces(), a.EventService, a.Logger)

	a.Pipeline = pipeline.NewService(
		a.StorageManager,
		a.Generator,
		a.Reconciler,
		a.RenderQueue,
		a.EventService,
		a.Notifier,
		a.Logger,
	)

	a.RenderClient = render.NewClient(&a.Config.Render, a.Logger)
	a.RenderDispatcher = render.NewDispatcher(
		a.StorageManager,
		a.RenderQueue,
		a.RenderClient,
		a.Notifier,
		a.Config,
		a.Logger,
	)

	if a.Config.Scheduler.Enabled {
		a.SchedulerService = scheduler.NewService(a.Pipeline, a.StorageManager.Shows(), &a.Config.Scheduler, a.Logger)
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.EpisodeHandler = handlers.NewEpisodeHandler(a.StorageManager, a.Pipeline, a.EventService, a.Config.Render.AutoPublish, a.Logger)
	a.SceneHandler = handlers.NewSceneHandler(a.StorageManager, a.Reconciler, a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.StorageManager, a.RenderQueue, a.EventService, a.Logger)
	a.CallbackHandler = handlers.NewCallbackHandler(a.StorageManager, a.EventService, a.Notifier, a.Config.Render.CallbackSecret, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.Config, a.SchedulerService, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger)
}

// Start launches background services
func (a *App) Start() error {
	if err := a.RenderDispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start render dispatcher: %w", err)
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	return nil
}

// Close shuts down all components in reverse dependency order
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.RenderDispatcher != nil {
		if err := a.RenderDispatcher.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop render dispatcher")
		}
	}

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.RenderQueue != nil {
		if err := a.RenderQueue.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close render queue")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}

	return nil
}
