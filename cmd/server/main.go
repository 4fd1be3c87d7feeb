package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogueapp "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/application/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/shared"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/cache"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/config"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/logger"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/mail"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/media"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/metrics"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/persistence"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/printing"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/scheduler"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/settings"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/storage"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/telemetry"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/handler"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/middleware"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			e-catalogue API
//	@version		1.0
//	@description	Generates product catalogue PDFs and shares them by email.
//	@BasePath		/api/v1

func main() {
	envFile := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.FromAppConfig(cfg.App.Env, cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := logProvider.Bridge(baseLog, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting e-catalogue",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("env_file", envFile),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Catalog database
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := telemetry.RegisterDBTracing(db.DB,
		telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.Driver), log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	locale, err := language.Parse(cfg.Catalogue.Locale)
	if err != nil {
		log.Warn("Invalid catalogue locale, using en-US", zap.String("locale", cfg.Catalogue.Locale), zap.Error(err))
		locale = language.AmericanEnglish
	}
	source := persistence.NewGormCatalogSource(db.DB,
		persistence.WithPriceLocale(locale, cfg.Catalogue.Currency))

	// Settings
	store, err := settings.NewViperStore(cfg.Catalogue.SettingsPath, settings.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to load catalogue settings", zap.Error(err))
	}
	if cfg.Catalogue.WatchSettings {
		if err := store.Watch(); err != nil {
			log.Warn("Settings hot reload unavailable", zap.Error(err))
		}
	}

	// Images
	imageOpts := []media.Option{media.WithLogger(log)}
	if cfg.Storage.Enabled {
		objects, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		imageOpts = append(imageOpts, media.WithObjectSource(objects))
		log.Info("Object storage enabled", zap.String("bucket", objects.Bucket()))
	}
	images := media.NewImageResolver(cfg.Images, imageOpts...)

	// Rendering
	templates, err := printing.NewTemplateEngine()
	if err != nil {
		log.Fatal("Failed to parse catalogue templates", zap.Error(err))
	}
	renderer, err := newRenderer(cfg.Renderer, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer renderer.Close()

	spool := printing.NewAttachmentSpool(&printing.AttachmentSpoolConfig{
		BaseDir: cfg.Renderer.SpoolDir,
		Logger:  log,
	})

	jobs := scheduler.NewScheduler(log)
	if err := jobs.Add(scheduler.Job{
		Name:       "spool-sweep",
		Interval:   cfg.Renderer.SpoolSweepEvery,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			removed, err := spool.CleanupOlderThan(ctx, cfg.Renderer.SpoolRetention)
			if removed > 0 {
				log.Info("Stale attachments removed", zap.Int("count", removed))
			}
			return err
		},
	}); err != nil {
		log.Fatal("Failed to schedule spool sweep", zap.Error(err))
	}

	// Mail
	mailer, err := newMailer(ctx, &cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	// Redis is shared by share idempotency and the redis rate limiter
	var redisClient *redis.Client
	if cfg.Idempotency.Backend == "redis" || cfg.HTTP.RateLimitBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).
		CreateStore(cfg.Idempotency.Backend)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer idempotencyStore.Close()

	registry := metrics.NewRegistry()

	service := catalogueapp.NewCatalogueService(
		store, source, images, templates, renderer, mailer, spool, log,
		catalogueapp.WithMetrics(registry.Catalogue),
		catalogueapp.WithIdempotency(idempotencyStore, shared.IdempotencyConfig{
			Enabled: cfg.Idempotency.Enabled,
			TTL:     cfg.Idempotency.TTL,
		}),
		catalogueapp.WithRenderTimeout(cfg.Renderer.Timeout),
	)

	// HTTP
	mode := gin.DebugMode
	if cfg.App.Env == "production" {
		mode = gin.ReleaseMode
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	tracing := middleware.DefaultTracingConfig()
	tracing.ServiceName = cfg.Telemetry.ServiceName
	tracing.Enabled = tracerProvider.IsEnabled()
	tracing.TracerProvider = tracerProvider.Provider()

	engine, err := router.NewEngine(router.EngineConfig{
		Mode:           mode,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           cors,
		Security:       middleware.DefaultSecurityConfig(),
		MaxBodyBytes:   cfg.HTTP.MaxBodySize,
		Tracing:        tracing,
		Metrics:        registry,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	healthOpts := []handler.SystemOption{
		handler.WithHealthCheck("database", func(ctx context.Context) error {
			return db.DB.WithContext(ctx).Exec("SELECT 1").Error
		}),
	}
	if redisClient != nil {
		healthOpts = append(healthOpts, handler.WithHealthCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, healthOpts...)
	engine.GET(router.HealthPath, systemHandler.Health)
	engine.GET("/api/v1/ping", systemHandler.Ping)

	var shareMiddleware []gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		limiter := newRateLimiter(cfg.HTTP, redisClient)
		if stopper, ok := limiter.(interface{ Stop() }); ok {
			defer stopper.Stop()
		}
		shareMiddleware = append(shareMiddleware, middleware.RateLimit(limiter, log))
	}

	catalogueHandler := handler.NewCatalogueHandler(service, log)
	router.NewRouter(engine).
		Register(handler.CatalogueRoutes(catalogueHandler, shareMiddleware...)).
		Setup()

	if err := jobs.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Warn("Log provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newRenderer builds the configured HTML-to-PDF engine
func newRenderer(cfg config.RendererConfig, log *zap.Logger) (printing.PDFRenderer, error) {
	if cfg.Engine == "wkhtmltopdf" {
		return printing.NewWkhtmltopdfRenderer(&printing.WkhtmltopdfConfig{
			BinaryPath:     cfg.WkhtmltopdfPath,
			DefaultTimeout: cfg.Timeout,
			Logger:         log,
		})
	}
	return printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout:  cfg.Timeout,
		RemoteURL:       cfg.ChromeRemoteURL,
		NoSandbox:       cfg.NoSandbox,
		PrintBackground: true,
		Logger:          log,
	})
}

// newMailer returns the SES transport, or the logging one in development
func newMailer(ctx context.Context, cfg *config.MailConfig, log *zap.Logger) (catalogueapp.Mailer, error) {
	if cfg.Driver != "ses" {
		log.Warn("Mail driver is log, emails will not be delivered")
		return mail.NewLogMailer(log), nil
	}
	client, err := mail.NewSESClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return mail.NewSESMailer(client, cfg, log), nil
}

// newRateLimiter returns the share limiter for the configured backend
func newRateLimiter(cfg config.HTTPConfig, client *redis.Client) middleware.Limiter {
	if cfg.RateLimitBackend == "redis" && client != nil {
		return middleware.NewRedisRateLimiter(client, "", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	return middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
}
