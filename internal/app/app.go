package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Oldhoon/accessible-journeys/internal/capability"
	"github.com/Oldhoon/accessible-journeys/internal/config"
	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/emergency"
	"github.com/Oldhoon/accessible-journeys/internal/event"
	handler "github.com/Oldhoon/accessible-journeys/internal/handler/http"
	"github.com/Oldhoon/accessible-journeys/internal/repository/postgres"
	"github.com/Oldhoon/accessible-journeys/internal/repository/redis"
	"github.com/Oldhoon/accessible-journeys/internal/sender"
	mocksender "github.com/Oldhoon/accessible-journeys/internal/sender/mock"
	"github.com/Oldhoon/accessible-journeys/internal/sender/webhook"
	"github.com/Oldhoon/accessible-journeys/internal/service"
	"github.com/Oldhoon/accessible-journeys/migrations"
	"github.com/Oldhoon/accessible-journeys/pkg/database"
	"github.com/Oldhoon/accessible-journeys/pkg/health"
	"github.com/Oldhoon/accessible-journeys/pkg/httpclient"
	pkgkafka "github.com/Oldhoon/accessible-journeys/pkg/kafka"
	"github.com/Oldhoon/accessible-journeys/pkg/middleware"
	"github.com/Oldhoon/accessible-journeys/pkg/tracing"
)

const (
	serviceName       = "accessible-journeys"
	idempotencyPrefix = "accessjourneys:events"
	idempotencyTTL    = 24 * time.Hour
	rateLimiterTTL    = 10 * time.Minute
)

// App wires together all dependencies and runs the accessible-journeys service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	emergency      *service.EmergencyService
	limiterCancel  context.CancelFunc
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis for the summary cache and consumer idempotency.
	redisCfg := database.DefaultRedisConfig()
	redisCfg.Host = cfg.RedisHost
	redisCfg.Port = cfg.RedisPort
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB
	redisClient, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", redisCfg.Addr()))

	// Initialize Kafka producer and dead-letter producer.
	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	locationRepo := postgres.NewLocationRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	alertRepo := postgres.NewAlertRepository(pool)
	contactRepo := postgres.NewContactRepository(pool)
	summaryCache := redis.NewSummaryCache(redisClient)
	eventProducer := event.NewProducer(kafkaProducer, logger)

	caps := capability.Snapshot(capability.FromFlags(cfg.CapabilityVibration, cfg.CapabilityGeolocation))
	logger.Info("device capabilities",
		slog.Bool("vibration", caps.Vibration),
		slog.Bool("geolocation", caps.Geolocation),
	)

	locationService := service.NewLocationService(locationRepo, reportRepo, summaryCache, cfg.SummaryCacheTTL, logger)
	reportService := service.NewReportService(reportRepo, locationService, eventProducer, logger)
	contactService := service.NewContactService(contactRepo, logger)
	emergencyService := service.NewEmergencyService(emergency.SessionConfig{
		Countdown:    cfg.CountdownSeconds,
		TickInterval: cfg.TickInterval,
		AlertTimeout: cfg.AlertTimeout,
	}, emergency.RealClock(), alertRepo, eventProducer, caps, logger)

	// Kafka event consumers fan alerts out to emergency contacts.
	consumerHandler := event.NewConsumerHandler(contactRepo, alertRepo, newSenders(cfg, logger), logger)
	store := pkgkafka.NewRedisIdempotencyStore(redisClient, idempotencyPrefix, idempotencyTTL)
	consumers := event.NewConsumers(cfg.KafkaBrokers, consumerHandler, store, dlq, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return kafkaProducer.Ping(ctx)
	})

	// The limiter's janitor outlives NewApp's setup context.
	limiterCtx, limiterCancel := context.WithCancel(context.Background())
	limiter := middleware.NewRateLimiter(limiterCtx, cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimiterTTL, logger)

	var tokens middleware.TokenValidator
	if cfg.JWTSecret != "" {
		tokens = middleware.HS256Validator([]byte(cfg.JWTSecret))
		logger.Info("bearer token authentication enabled")
	}

	// HTTP router.
	router := handler.NewRouter(handler.Services{
		Locations: locationService,
		Reports:   reportService,
		Emergency: emergencyService,
		Contacts:  contactService,
	}, healthHandler, handler.RouterOptions{
		Tokens:       tokens,
		RateLimiter:  limiter,
		CORS:         middleware.DefaultCORSConfig(),
		PprofCIDRs:   cfg.PprofAllowedCIDRs,
		Capabilities: caps,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       kafkaProducer,
		dlq:            dlq,
		consumers:      consumers,
		emergency:      emergencyService,
		limiterCancel:  limiterCancel,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newSenders maps each contact channel to a sender. The webhook channel posts
// to the configured gateway when one is set and is mocked otherwise.
func newSenders(cfg *config.Config, logger *slog.Logger) map[string]sender.Sender {
	senders := map[string]sender.Sender{
		domain.ContactChannelSMS:     mocksender.NewMockSender(domain.ContactChannelSMS, logger),
		domain.ContactChannelPush:    mocksender.NewMockSender(domain.ContactChannelPush, logger),
		domain.ContactChannelWebhook: mocksender.NewMockSender(domain.ContactChannelWebhook, logger),
	}
	if cfg.AlertWebhookURL != "" {
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("alert-webhook"),
			logger,
		)
		senders[domain.ContactChannelWebhook] = webhook.New(client, cfg.AlertWebhookURL, domain.ContactChannelWebhook, logger)
		logger.Info("alert webhook sender enabled")
	}
	return senders
}

// Run starts the HTTP server, the Kafka consumers and the session sweeper,
// then blocks until the context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, consumer := range a.consumers {
		c := consumer
		g.Go(func() error {
			if err := c.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		a.sweepSessions(gctx)
		return nil
	})

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	})

	return g.Wait()
}

func (a *App) sweepSessions(ctx context.Context) {
	if a.cfg.SessionSweepPeriod <= 0 {
		return
	}
	ticker := time.NewTicker(a.cfg.SessionSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.emergency.SweepSessions(); n > 0 {
				a.logger.Debug("idle emergency sessions swept", slog.Int("count", n))
			}
		}
	}
}

// Shutdown gracefully stops all components in order: HTTP server, emergency
// countdowns, tracer, Kafka, Redis and finally PostgreSQL.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.emergency.Close()
	a.limiterCancel()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if err := a.dlq.Close(); err != nil {
		a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
