package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"lessonforge/internal/api/v1/handler"
	"lessonforge/internal/config"
	"lessonforge/internal/metrics"
	"lessonforge/internal/middleware"
	"lessonforge/internal/pgmq"
	"lessonforge/internal/pubsub"
	"lessonforge/internal/repository"
	"lessonforge/internal/service"
	"lessonforge/internal/supabase"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Dependencies are the fully built services the HTTP layer serves.
type Dependencies struct {
	Lessons       service.LessonService
	Doubts        service.DoubtService
	Auth          service.AuthService
	Billing       service.BillingService
	TokenVerifier middleware.TokenVerifier
	Metrics       *metrics.Metrics
	AllowedOrigin string
}

// NewHandler mounts every route on a fresh mux and wraps it in CORS and
// request logging.
func NewHandler(deps Dependencies, logger zerolog.Logger) http.Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	authMiddleware := middleware.AuthMiddleware(deps.TokenVerifier, logger)

	mux := http.NewServeMux()
	handler.NewLessonHandler(deps.Lessons, deps.Doubts, validate, logger).RegisterRoutes(mux, authMiddleware)
	handler.NewAuthHandler(deps.Auth, validate, logger).RegisterRoutes(mux)
	handler.NewBillingHandler(deps.Billing).RegisterRoutes(mux)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{deps.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, deps.Metrics)(c.Handler(mux))
}

// App is the assembled server handler plus the resources main must release.
type App struct {
	Handler   http.Handler
	pool      *pgxpool.Pool
	publisher pubsub.Publisher
}

func (a *App) Close() {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// New connects to every backend described by cfg and builds the handler.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("Database connection successful")

	var publisher pubsub.Publisher = pubsub.NoopPublisher{}
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID, cfg.LessonEventsTopic, cfg.GCPCredentialsFile)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating pub/sub publisher: %w", err)
		}
		publisher = p
	} else if cfg.LessonEventsQueue != "" {
		queue := pgmq.New(pool)
		if err := queue.CreateQueue(ctx, cfg.LessonEventsQueue); err != nil {
			pool.Close()
			return nil, err
		}
		publisher = pgmq.NewPublisher(queue, cfg.LessonEventsQueue)
		logger.Info().Str("queue", cfg.LessonEventsQueue).Msg("Publishing lesson events to pgmq")
	} else {
		logger.Info().Msg("No event sink configured, lesson events will not be published")
	}

	m := metrics.New()
	supabaseClient := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, logger)

	var verifier middleware.TokenVerifier = supabaseClient
	if cfg.SupabaseJWTSecret != "" {
		verifier = supabase.NewJWTVerifier(cfg.SupabaseJWTSecret)
	}

	text := service.NewOpenAITextGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger)
	policy := service.PollPolicy{MaxAttempts: cfg.VideoPollMaxAttempts, Interval: cfg.VideoPollInterval()}

	lessons := service.NewLessonService(service.LessonDeps{
		Lessons:         repository.NewLessonRepo(pool),
		Entitlements:    service.NewRevenueCatService(cfg.RevenueCatBaseURL, cfg.RevenueCatAPIKey),
		Text:            text,
		Videos:          service.NewTavusVideoGenerator(cfg.TavusBaseURL, cfg.TavusAPIKey, cfg.TavusReplicaID, policy, logger),
		Images:          service.NewHuggingFaceImageGenerator(cfg.HuggingFaceBaseURL, cfg.HuggingFaceImageModel, cfg.HuggingFaceAPIKey, logger),
		Publisher:       publisher,
		Metrics:         m,
		FreeLessonLimit: cfg.FreeLessonLimit,
	}, logger)

	h := NewHandler(Dependencies{
		Lessons:       lessons,
		Doubts:        service.NewDoubtService(text, logger),
		Auth:          service.NewAuthService(supabaseClient, logger),
		Billing:       service.NewBillingService(cfg.CheckoutBaseURL, cfg.StripeWebhookSecret, logger),
		TokenVerifier: verifier,
		Metrics:       m,
		AllowedOrigin: cfg.AllowedOrigin,
	}, logger)

	return &App{Handler: h, pool: pool, publisher: publisher}, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(normalizeDSN(cfg.DBConnectionString, cfg.IsDevelopment()))
	if err != nil {
		return nil, fmt.Errorf("parsing database connection string: %w", err)
	}
	// Transaction poolers such as pgbouncer reject server-side prepared statements.
	if !cfg.IsDevelopment() {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// normalizeDSN disables SSL for local development unless the DSN says otherwise.
func normalizeDSN(dsn string, development bool) string {
	if !development || strings.Contains(dsn, "sslmode") {
		return dsn
	}
	separator := " "
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		separator = "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
	}
	return dsn + separator + "sslmode=disable"
}
