package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/config"
	"github.com/kailas-cloud/lostfound/internal/db"
	dbPostgres "github.com/kailas-cloud/lostfound/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/lostfound/internal/db/redis"
	"github.com/kailas-cloud/lostfound/internal/domain"
	logpkg "github.com/kailas-cloud/lostfound/internal/logger"
	"github.com/kailas-cloud/lostfound/internal/metrics"
	budgetrepo "github.com/kailas-cloud/lostfound/internal/repository/budget"
	imagerepo "github.com/kailas-cloud/lostfound/internal/repository/image"
	itemrepo "github.com/kailas-cloud/lostfound/internal/repository/item"
	pgrepo "github.com/kailas-cloud/lostfound/internal/repository/postgres"
	"github.com/kailas-cloud/lostfound/internal/repository/scorecache"
	userrepo "github.com/kailas-cloud/lostfound/internal/repository/user"
	chiTransport "github.com/kailas-cloud/lostfound/internal/transport/chi"
	openaiVision "github.com/kailas-cloud/lostfound/internal/transport/openai"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	"github.com/kailas-cloud/lostfound/internal/usecase/imagesearch"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
	usageuc "github.com/kailas-cloud/lostfound/internal/usecase/usage"
	useruc "github.com/kailas-cloud/lostfound/internal/usecase/user"
	"github.com/kailas-cloud/lostfound/internal/usecase/vision"
	"github.com/kailas-cloud/lostfound/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lostfound API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_driver", cfg.Catalog.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register vision and search metrics explicitly (no init())
	metrics.RegisterVisionMetrics()
	metrics.RegisterSearchMetrics()

	cat, err := buildCatalog(ctx, cfg, store, readiness)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer cat.close()
	logger.Info("Catalog ready", zap.String("driver", cfg.Catalog.Driver))

	images := imagerepo.NewStore(store, cfg.Storage.PublicBaseURL)

	// Single BudgetTracker shared by the comparator chain and the usage service.
	var budget *vision.BudgetTracker
	budgetCfg := cfg.Vision.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := vision.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = vision.BudgetActionReject
		}
		budget = vision.NewBudgetTracker(
			budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		// Connect persistence store; loads current counters from the DB.
		budget.WithStore(ctx, budgetrepo.New(store, 0, 0))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker vision.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	base := openaiVision.NewComparator(&openaiVision.Config{
		APIKey:      cfg.Vision.APIKey,
		BaseURL:     cfg.Vision.BaseURL,
		Model:       cfg.Vision.Model,
		MaxTokens:   cfg.Vision.MaxTokens,
		ImageDetail: cfg.Vision.ImageDetail,
		Logger:      logger,
	})
	if cfg.Vision.APIKey == "" {
		logger.Warn("vision.api_key is empty; image search will fall back to conventional search")
	}
	comparator := buildComparator(base, cfg.Vision, store, images, budgetChecker, logger)
	logger.Info("Vision comparator created",
		zap.String("model", base.Model()),
		zap.Int("batch_size", cfg.Vision.BatchSize),
		zap.Bool("inline_local_images", cfg.Vision.InlineLocalImages),
	)

	// Use case services
	userSvc := useruc.New(cat.users)
	itemSvc := itemuc.New(cat.items, images, userSvc)
	searchSvc := imagesearch.New(cat.items, comparator, logger).WithBatchSize(cfg.Vision.BatchSize)

	// Usage service reads from the shared BudgetTracker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	healthSvc := healthuc.New(store, base).WithCatalog(cat.pinger)

	server := chiTransport.NewServer(itemSvc, userSvc, searchSvc, images, usageSvc, healthSvc, logger).
		WithMaxImageBytes(cfg.Storage.MaxImageBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
				Code:    chiTransport.ErrorResponseCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// itemCatalog is what both catalog drivers provide for items.
type itemCatalog interface {
	itemuc.Repository
	imagesearch.Catalog
}

// catalog holds the item and user repositories of the configured driver.
type catalog struct {
	items  itemCatalog
	users  useruc.Repository
	pinger healthuc.DBPinger
	close  func()
}

func buildCatalog(ctx context.Context, cfg config.Config, store db.Store, readiness time.Duration) (catalog, error) {
	switch cfg.Catalog.Driver {
	case config.CatalogPostgres:
		pg, err := dbPostgres.NewStore(ctx, dbPostgres.Config{
			DSN:      cfg.Catalog.PostgresDSN,
			MaxConns: cfg.Catalog.MaxConns,
		})
		if err != nil {
			return catalog{}, fmt.Errorf("create postgres store: %w", err)
		}
		if err := pg.WaitForReady(ctx, readiness); err != nil {
			pg.Close()
			return catalog{}, fmt.Errorf("postgres not ready: %w", err)
		}
		if cfg.Catalog.MigrateOnStart {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return catalog{}, fmt.Errorf("migrate: %w", err)
			}
		}
		return catalog{
			items:  pgrepo.NewItemRepo(pg),
			users:  pgrepo.NewUserRepo(pg),
			pinger: pg,
			close:  pg.Close,
		}, nil

	default:
		items := itemrepo.New(store)
		if err := items.EnsureIndex(ctx); err != nil {
			return catalog{}, fmt.Errorf("ensure item index: %w", err)
		}
		return catalog{
			items:  items,
			users:  userrepo.New(store),
			pinger: items,
			close:  func() {},
		}, nil
	}
}

// buildComparator assembles the decorator chain: OpenAI -> Inlining -> Cached -> Instrumented.
// The cache sits outside the inliner so its keys use short image URLs, not data URIs.
func buildComparator(
	base domain.Comparator,
	cfg config.VisionConfig,
	store db.Store,
	images *imagerepo.Store,
	budget vision.BudgetChecker,
	logger *zap.Logger,
) domain.Comparator {
	comparator := base

	// Provider cannot fetch images served from a private campus network.
	if cfg.InlineLocalImages {
		comparator = vision.NewInliningComparator(comparator, images)
	}

	if cfg.CacheTTLSec > 0 {
		comparator = scorecache.New(
			comparator, store, time.Duration(cfg.CacheTTLSec)*time.Second, metrics.VisionCacheTotal, logger,
		)
	}

	// Instrumented (budget + request usage), outermost so cache hits cost nothing.
	return vision.NewInstrumentedComparator(comparator, cfg.Model, budget, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			if userID := r.Header.Get(chiTransport.UserIDHeader); userID != "" {
				reqLogger = reqLogger.With(zap.String("user_id", userID))
			}
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
				zap.String("vision_tokens", ww.Header().Get("X-Vision-Tokens")),
			)
		})
	}
}
