package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/rumormill/internal/api/handlers"
	mw "github.com/Harshitk-cp/rumormill/internal/api/middleware"
	"github.com/Harshitk-cp/rumormill/internal/buildconfig"
	"github.com/Harshitk-cp/rumormill/internal/config"
	"github.com/Harshitk-cp/rumormill/internal/domain"
	"github.com/Harshitk-cp/rumormill/internal/embedding"
	"github.com/Harshitk-cp/rumormill/internal/service"
	"github.com/Harshitk-cp/rumormill/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Sweeper      *service.SweeperService
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	identityStore := store.NewIdentityStore(db)
	rumorStore := store.NewRumorStore(db)
	voteStore := store.NewVoteStore(db)
	correlationStore := store.NewCorrelationStore(db)
	tombstoneStore := store.NewTombstoneStore(db)
	sweepStateStore := store.NewSweepStateStore(db)
	contentStore := store.NewContentStore(db)
	eventStore := store.NewEventStore(db)

	// External clients via provider factory
	embeddingProvider := config.EmbeddingProvider()
	embeddingClient, err := embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
	} else {
		logger.Info("embedding client initialized", zap.String("provider", embeddingProvider))
	}

	// One mutex serializes every state-changing operation across services,
	// keeping confidence arithmetic single-writer.
	stateMu := &sync.Mutex{}

	// Services
	identitySvc := service.NewIdentityService(identityStore, eventStore, config.OracleCommitment(), logger, stateMu)
	rumorSvc := service.NewRumorService(rumorStore, tombstoneStore, contentStore, embeddingClient, identitySvc, eventStore, logger, stateMu)
	votingSvc := service.NewVotingService(voteStore, identitySvc, rumorSvc, eventStore, logger, stateMu)
	verifySvc := service.NewVerificationService(voteStore, tombstoneStore, rumorSvc, identitySvc, logger, stateMu)
	correlSvc := service.NewCorrelationService(correlationStore, rumorStore, identityStore, rumorSvc, eventStore, logger, stateMu)
	rumorSvc.SetCorrelationDeactivator(correlSvc)
	sweeperSvc := service.NewSweeperService(rumorStore, sweepStateStore, rumorSvc, correlSvc, eventStore, logger, stateMu)
	sweeperSvc.SetInterval(config.SweepInterval())
	sweeperSvc.SetBatchSize(config.SweepBatchSize())

	// Handlers
	identityHandler := handlers.NewIdentityHandler(identitySvc)
	rumorHandler := handlers.NewRumorHandler(rumorSvc, correlSvc)
	voteHandler := handlers.NewVoteHandler(votingSvc)
	verificationHandler := handlers.NewVerificationHandler(verifySvc)
	correlationHandler := handlers.NewCorrelationHandler(correlSvc)
	sweepHandler := handlers.NewSweepHandler(sweeperSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Sweeper:   sweeperSvc,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Registration (no auth, bootstrap endpoint)
	r.Post("/v1/identities", identityHandler.Register)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.AccessKeyAuth(identityStore))

		// Identities
		r.Get("/identities/me", identityHandler.Me)
		r.Route("/identities/{id}", func(r chi.Router) {
			r.Get("/", identityHandler.GetByID)
			r.Get("/weight", identityHandler.Weight)
		})

		// Rumors
		r.Route("/rumors", func(r chi.Router) {
			r.Post("/", rumorHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rumorHandler.GetByID)
				r.Delete("/", rumorHandler.Delete)
				r.Get("/content", rumorHandler.Content)
				r.Get("/related", rumorHandler.Related)
				r.Get("/suggestions", rumorHandler.Suggestions)

				// Votes
				r.Post("/votes", voteHandler.Cast)
				r.Get("/votes", voteHandler.List)
				r.Get("/tally", voteHandler.Tally)

				// Verification
				r.Post("/verify", verificationHandler.Verify)
				r.Get("/verify/preview", verificationHandler.Preview)
				r.Post("/boost", correlationHandler.Boost)
			})
		})

		// Correlations (oracle batch)
		r.Post("/correlations", correlationHandler.Add)

		// Verification batches and the lock sweep
		r.Post("/verifications", verificationHandler.BatchVerify)
		r.Post("/sweep", sweepHandler.Trigger)
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that manage no lifecycle.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.IdentityStore    = (*store.IdentityStore)(nil)
	_ domain.RumorStore       = (*store.RumorStore)(nil)
	_ domain.VoteStore        = (*store.VoteStore)(nil)
	_ domain.CorrelationStore = (*store.CorrelationStore)(nil)
	_ domain.TombstoneStore   = (*store.TombstoneStore)(nil)
	_ domain.SweepStateStore  = (*store.SweepStateStore)(nil)
	_ domain.ContentStore     = (*store.ContentStore)(nil)
	_ domain.EventSink        = (*store.EventStore)(nil)
	_ domain.EmbeddingClient  = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient  = (*embedding.MockClient)(nil)
)
