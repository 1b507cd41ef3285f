package bootstrap

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"meridian/internal/adapters/ai"
	chclient "meridian/internal/adapters/clickhouse"
	"meridian/internal/adapters/config"
	"meridian/internal/adapters/embeddings"
	errnoop "meridian/internal/adapters/errors/noop"
	"meridian/internal/adapters/errors/sentry"
	"meridian/internal/adapters/kafka"
	pgclient "meridian/internal/adapters/postgres"
	redisclient "meridian/internal/adapters/redis"
	"meridian/internal/agents"
	"meridian/internal/clustering"
	"meridian/internal/events"
	"meridian/internal/metrics"
	mlsentiment "meridian/internal/ml/sentiment"
	"meridian/internal/pipeline"
	chrepo "meridian/internal/repository/clickhouse"
	pgrepo "meridian/internal/repository/postgres"
	redisrepo "meridian/internal/repository/redis"
	"meridian/internal/services/analysis"
	"meridian/internal/services/assessment"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
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
// Phase 3: Domain Layer - Repositories
// ========================================

// MustInitRepositories initializes all domain repositories
func (c *Container) MustInitRepositories() {
	c.Repos.Catalog = pgrepo.NewCatalogRepository(c.PG.DB())
	c.Repos.Reviews = pgrepo.NewReviewRepository(c.PG.DB())
	c.Repos.Embeddings = pgrepo.NewEmbeddingRepository(c.PG.DB())
	c.Repos.Sales = chrepo.NewSalesRepository(c.CH.Conn())
	c.Repos.Jobs = redisrepo.NewJobStore(c.Redis.Client())

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes external adapters (Kafka, Embeddings)
func (c *Container) MustInitAdapters() {
	c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)

	// Embeddings are optional; without a key the sentiment agent falls
	// back to keyword clustering.
	if c.Config.AI.OpenAIKey != "" {
		provider, err := embeddings.NewOpenAIProvider(
			c.Config.AI.OpenAIKey,
			c.Config.AI.EmbeddingModel,
			30*time.Second,
		)
		if err != nil {
			c.Log.Fatalf("failed to create embedding provider: %v", err)
		}
		c.Adapters.EmbeddingProvider = embeddings.NewCachedProvider(provider, c.Repos.Embeddings)
		c.Log.Infof("✓ Embedding provider initialized: %s (%d dimensions)",
			provider.Name(), provider.Dimensions())
	} else {
		c.Log.Info("OpenAI key not configured, embeddings disabled")
	}
}

// ========================================
// Phase 5: Domain Services
// ========================================

// MustInitServices initializes assessors, cache, and event publishing
func (c *Container) MustInitServices() {
	assessCfg := assessment.Config{
		ProductFreshnessWindow: c.Config.Quality.ProductFreshnessWindow,
		ReviewFreshnessWindow:  c.Config.Quality.ReviewFreshnessWindow,
		PriceOutlierZScore:     c.Config.Quality.PriceOutlierZScore,
		PriceOutlierHighZScore: c.Config.Quality.PriceOutlierHighZScore,
		OutOfStockRateLimit:    c.Config.Quality.OutOfStockRateLimit,
	}
	c.Services.ProductAssessor = assessment.NewProductAssessor(assessCfg)
	c.Services.ReviewAssessor = assessment.NewReviewAssessor(assessCfg)

	c.Services.ReportCache = analysis.NewReportCache(analysis.CacheConfig{
		Enabled:  c.Config.Pipeline.CacheEnabled,
		TTLQuick: c.Config.Pipeline.CacheTTLQuick,
		TTLDeep:  c.Config.Pipeline.CacheTTLDeep,
	}, c.Redis)

	c.Services.Events = events.NewPublisher(c.Adapters.KafkaProducer)

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Business Logic
// ========================================

// MustInitBusiness initializes the domain agents and the pipeline
func (c *Container) MustInitBusiness() {
	classifier := c.provideClassifier()
	clusterer := c.provideClusterer()

	registry := agents.NewRegistry()
	registry.Register(agents.NewPricingAgent(agents.PricingConfig{
		PriceChangeAlertPct:  c.Config.Pricing.PriceChangeAlertPct,
		MaxDiscountPct:       c.Config.Pricing.MaxDiscountPct,
		MinMappingConfidence: c.Config.Pricing.MinMappingConfidence,
	}))
	registry.Register(agents.NewSentimentAgent(agents.SentimentConfig{
		MaxTextLen: c.Config.Pipeline.ClassifierMaxTextLen,
	}, classifier, clusterer))
	registry.Register(agents.NewForecastAgent(agents.DefaultForecastConfig()))
	c.Business.AgentRegistry = registry

	c.Services.Pipeline = pipeline.NewService(
		pipeline.NewRouter(),
		pipeline.NewEngine(pipeline.EngineConfig{
			QuickTaskTimeout: c.Config.Pipeline.QuickTaskTimeout,
			DeepTaskTimeout:  c.Config.Pipeline.DeepTaskTimeout,
		}),
		pipeline.NewExecutor(registry),
		pipeline.NewSynthesizer(),
		c.Repos.Catalog,
		c.Repos.Reviews,
		c.Repos.Sales,
		c.Services.ProductAssessor,
		c.Services.ReviewAssessor,
		pipeline.Options{
			Cache:  c.Services.ReportCache,
			Jobs:   c.Repos.Jobs,
			Events: c.Services.Events,
		},
	)

	c.Log.With("agents", len(registry.List())).Info("✓ Business logic initialized")
}

// ========================================
// Phase 7: Application Layer
// ========================================

// MustInitApplication initializes metrics and the operational HTTP endpoint
func (c *Container) MustInitApplication() {
	metrics.Init()
	collector := metrics.NewCustomCollector(c.Log, c.PG.DB(), c.CH.Conn(), c.Redis.Client())
	metrics.RegisterCustomCollector(collector)

	if c.Config.Metrics.Enabled {
		c.Application.MetricsServer = provideMetricsServer(c)
	}

	c.Log.Info("✓ Application layer initialized")
}

// ========================================
// Phase 8: Background Processing
// ========================================

// MustInitBackground initializes background workers
func (c *Container) MustInitBackground() {
	c.Background.WorkerScheduler = provideWorkers(c)
	c.Log.Info("✓ Background processing initialized")
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Info("Initializing Kafka producer...")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, using default localhost:9092")
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Async:   false,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

// provideClassifier picks the review sentiment classifier: the ONNX model
// when one is configured, the lexicon fallback otherwise. Either way it is
// wrapped with the rate limiter so large review batches cannot saturate
// the backend.
func (c *Container) provideClassifier() ai.Classifier {
	var inner ai.Classifier

	if path := c.Config.AI.SentimentModelPath; path != "" {
		onnx, err := mlsentiment.NewClassifier(path)
		if err != nil {
			c.Log.Warnf("Failed to load ONNX sentiment model, using lexicon classifier: %v", err)
		} else {
			c.Adapters.ONNXClassifier = onnx
			inner = onnx
			c.Log.Infof("✓ ONNX sentiment classifier loaded from %s", path)
		}
	}
	if inner == nil {
		inner = ai.NewLexiconClassifier()
		c.Log.Info("✓ Lexicon sentiment classifier initialized")
	}

	burst := int(c.Config.AI.RateLimit)
	return ai.NewRateLimitedClassifier(inner, c.Config.AI.RateLimit, burst)
}

// provideClusterer picks the review topic clusterer: embeddings-backed
// when a provider is available, keyword-based otherwise.
func (c *Container) provideClusterer() clustering.Service {
	if c.Adapters.EmbeddingProvider != nil {
		c.Log.Info("✓ Embedding clusterer initialized")
		return clustering.NewEmbeddingClusterer(c.Adapters.EmbeddingProvider)
	}
	c.Log.Info("✓ Keyword clusterer initialized")
	return clustering.NewKeywordClusterer()
}

func provideMetricsServer(c *Container) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := c.Health(r.Context())
		code := http.StatusOK
		for _, v := range status {
			if v != "ok" {
				code = http.StatusServiceUnavailable
				break
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", c.Config.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
