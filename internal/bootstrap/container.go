package bootstrap

import (
	"context"
	"net/http"
	"sync"

	chclient "athena/internal/adapters/clickhouse"
	"athena/internal/adapters/config"
	"athena/internal/adapters/kafka"
	pgclient "athena/internal/adapters/postgres"
	redisclient "athena/internal/adapters/redis"
	"athena/internal/domain/content"
	"athena/internal/domain/embedding"
	"athena/internal/domain/ledger"
	"athena/internal/domain/quota"
	"athena/internal/domain/user"
	"athena/internal/events"
	chrepo "athena/internal/repository/clickhouse"
	consistencysvc "athena/internal/services/consistency"
	pausesvc "athena/internal/services/pause"
	quotasvc "athena/internal/services/quota"
	"athena/internal/workers"
	"athena/pkg/errors"
	"athena/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure layer
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	// External adapters
	KafkaProducer *kafka.Producer
	Publisher     *events.Publisher

	// Domain layer
	Repos    *Repositories
	Services *Services

	// Background processing
	WorkerScheduler *workers.Scheduler
	MetricsServer   *http.Server

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	User       user.Repository
	Content    content.Repository
	Pause      content.PauseRepository
	Embedding  embedding.Store
	Window     quota.WindowRepository
	RequestLog *chrepo.RequestLogRepository // ledger.Repository with batch lifecycle
}

// Services groups all domain services
type Services struct {
	Quota       *quotasvc.Service
	Pause       *pausesvc.Service
	Consistency *consistencysvc.Service
}

// Ledger returns the request ledger as its domain interface
func (r *Repositories) Ledger() ledger.Repository {
	return r.RequestLog
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:     &Repositories{},
		Services:  &Services{},
		Lifecycle: NewLifecycle(),
		WG:        &sync.WaitGroup{},
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitAdapters()
	c.MustInitRepositories()
	c.MustInitServices()
	c.MustInitBackground()
}

// Start starts all background components
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	// Ledger batch writer first so nothing records into a dead buffer
	c.Repos.RequestLog.Start(c.Context)

	if err := c.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		c.Log.Infow("Metrics endpoint listening", "addr", c.Config.Metrics.Addr)
		if err := c.MetricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.Log.Errorf("Metrics server failed: %v", err)
			c.Cancel()
		}
	}()

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.MetricsServer,
		c.WorkerScheduler,
		c.Repos.RequestLog,
		c.KafkaProducer,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
