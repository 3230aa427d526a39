package bootstrap

import (
	"net/http"

	chclient "athena/internal/adapters/clickhouse"
	"athena/internal/adapters/config"
	errnoop "athena/internal/adapters/errors/noop"
	"athena/internal/adapters/errors/sentry"
	"athena/internal/adapters/kafka"
	pgclient "athena/internal/adapters/postgres"
	redisclient "athena/internal/adapters/redis"
	"athena/internal/domain/quota"
	"athena/internal/events"
	"athena/internal/metrics"
	chrepo "athena/internal/repository/clickhouse"
	pgrepo "athena/internal/repository/postgres"
	redisrepo "athena/internal/repository/redis"
	consistencysvc "athena/internal/services/consistency"
	pausesvc "athena/internal/services/pause"
	quotasvc "athena/internal/services/quota"
	"athena/internal/workers"
	"athena/pkg/errors"
	"athena/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure initializes data stores (Postgres, ClickHouse, Redis)
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	c.Log.Info("Connecting to ClickHouse...")
	c.CH, err = chclient.NewClient(c.Config.ClickHouse)
	if err != nil {
		c.Log.Fatalf("failed to connect clickhouse: %v", err)
	}
	c.Log.Info("✓ ClickHouse connected")

	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}
	c.Log.Info("✓ Redis connected")
}

// ========================================
// Phase 3: External Adapters
// ========================================

// MustInitAdapters initializes Kafka and the event publisher
func (c *Container) MustInitAdapters() {
	c.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	c.Publisher = events.NewPublisher(c.KafkaProducer)
}

// ========================================
// Phase 4: Domain Layer - Repositories
// ========================================

// MustInitRepositories initializes all domain repositories
func (c *Container) MustInitRepositories() {
	c.Repos.User = pgrepo.NewUserRepository(c.PG.DB())
	c.Repos.Content = pgrepo.NewContentRepository(c.PG.DB())
	c.Repos.Pause = pgrepo.NewPausedContentRepository(c.PG.DB())
	c.Repos.Embedding = pgrepo.NewEmbeddingRepository(c.PG.DB())
	c.Repos.Window = redisrepo.NewUsageWindowRepository(c.Redis.Client())
	c.Repos.RequestLog = chrepo.NewRequestLogRepository(c.CH.Conn())

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 5: Domain Layer - Services
// ========================================

// MustInitServices initializes all domain services
func (c *Container) MustInitServices() {
	c.Services.Quota = quotasvc.NewService(
		c.Repos.Window,
		c.Repos.User,
		c.Repos.Ledger(),
		c.Publisher,
		quota.DefaultTierLimits(),
		c.Config.Quota.Providers,
		c.Config.Quota.WeekLength,
		c.Log,
	)

	c.Services.Pause = pausesvc.NewService(
		c.Repos.Content,
		c.Repos.Pause,
		c.Publisher,
		c.Log,
	)

	c.Services.Consistency = consistencysvc.NewService(
		c.Repos.Content,
		c.Repos.Embedding,
		c.Log,
	)

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Background Processing
// ========================================

// MustInitBackground initializes the worker scheduler and metrics endpoint
func (c *Container) MustInitBackground() {
	c.WorkerScheduler = workers.NewScheduler()

	c.WorkerScheduler.RegisterWorker(workers.NewReconciliationWorker(
		c.Repos.User,
		c.Services.Consistency,
		c.Config.Workers.ReconciliationInterval,
		c.Config.Workers.ReconciliationScanLimit,
		c.Config.Workers.ReconciliationEnabled,
	))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	c.MetricsServer = &http.Server{
		Addr:    c.Config.Metrics.Addr,
		Handler: mux,
	}

	c.Log.Info("✓ Background components initialized")
}

// provideErrorTracker creates the error tracker based on config
func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled, using noop tracker")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry, using noop tracker: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Sentry error tracking initialized")
	return tracker
}

// provideKafkaProducer creates the Kafka producer, or nil when disabled
func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		log.Info("Kafka disabled, events will not be published")
		return nil
	}

	log.Infow("✓ Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
	return kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
}
