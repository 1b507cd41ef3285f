package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	chclient "meridian/internal/adapters/clickhouse"
	"meridian/internal/adapters/config"
	"meridian/internal/adapters/embeddings"
	"meridian/internal/adapters/kafka"
	pgclient "meridian/internal/adapters/postgres"
	redisclient "meridian/internal/adapters/redis"
	"meridian/internal/agents"
	"meridian/internal/events"
	mlsentiment "meridian/internal/ml/sentiment"
	"meridian/internal/pipeline"
	chrepo "meridian/internal/repository/clickhouse"
	pgrepo "meridian/internal/repository/postgres"
	redisrepo "meridian/internal/repository/redis"
	"meridian/internal/services/analysis"
	"meridian/internal/services/assessment"
	"meridian/internal/workers"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// Container holds all application dependencies, initialized in phases.
// Each MustInit* method panics on failure so a broken deployment dies
// at startup rather than limping along half-wired.
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	// Repositories
	Repos struct {
		Catalog    *pgrepo.CatalogRepository
		Reviews    *pgrepo.ReviewRepository
		Embeddings *pgrepo.EmbeddingRepository
		Sales      *chrepo.SalesRepository
		Jobs       *redisrepo.JobStore
	}

	// External adapters
	Adapters struct {
		KafkaProducer *kafka.Producer

		// EmbeddingProvider is nil when no OpenAI key is configured.
		EmbeddingProvider embeddings.Provider

		// ONNXClassifier is non-nil only when a sentiment model path is
		// configured; kept here so its session is released on shutdown.
		ONNXClassifier *mlsentiment.Classifier
	}

	// Domain services
	Services struct {
		ProductAssessor *assessment.ProductAssessor
		ReviewAssessor  *assessment.ReviewAssessor
		ReportCache     *analysis.ReportCache
		Events          *events.Publisher
		Pipeline        *pipeline.Service
	}

	// Business logic
	Business struct {
		AgentRegistry *agents.Registry
	}

	// Application layer
	Application struct {
		MetricsServer *http.Server
	}

	// Background processing
	Background struct {
		WorkerScheduler *workers.Scheduler
	}

	Lifecycle *Lifecycle
	WG        *sync.WaitGroup

	Context context.Context
	Cancel  context.CancelFunc
}

// NewContainer creates an empty container with its own root context
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		Lifecycle: NewLifecycle(),
		WG:        &sync.WaitGroup{},
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit initializes all components in dependency order.
// Panics on any failure.
func (c *Container) MustInit() *Container {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitBusiness()
	c.MustInitApplication()
	c.MustInitBackground()

	c.Log.Info("✓ Container fully initialized")
	return c
}

// Start launches background components: the worker scheduler and the
// metrics server. Blocks only for startup errors, not for completion.
func (c *Container) Start() error {
	if c.Background.WorkerScheduler != nil {
		if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
			return errors.Wrap(err, "start worker scheduler")
		}
	}

	if c.Application.MetricsServer != nil {
		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			c.Log.Infof("Metrics server listening on %s", c.Application.MetricsServer.Addr)
			if err := c.Application.MetricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				c.Log.Error("Metrics server failed", "error", err)
				c.Cancel()
			}
		}()
	}

	c.Log.Info("✓ Application started")
	return nil
}

// Shutdown performs graceful shutdown of all components
func (c *Container) Shutdown() {
	c.Log.Info("Shutting down...")

	// Stop accepting new work
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.MetricsServer,
		c.Background.WorkerScheduler,
		c.Adapters.KafkaProducer,
		c.Adapters.ONNXClassifier,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}

// Health reports the state of every infrastructure dependency.
// Used by the /health endpoint on the metrics server.
func (c *Container) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := make(map[string]string, 3)
	checks := []struct {
		name  string
		check func(context.Context) error
	}{
		{"postgres", c.PG.Health},
		{"clickhouse", c.CH.Health},
		{"redis", c.Redis.Health},
	}
	for _, ch := range checks {
		if err := ch.check(ctx); err != nil {
			status[ch.name] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			status[ch.name] = "ok"
		}
	}
	return status
}
