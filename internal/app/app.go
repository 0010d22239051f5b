package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/campus-sports/livematch/external/livefixtures"
	"github.com/campus-sports/livematch/internal/config"
	"github.com/campus-sports/livematch/internal/domain/lineup"
	"github.com/campus-sports/livematch/internal/infrastructure/repository/memory"
	"github.com/campus-sports/livematch/internal/interfaces/httpapi"
	"github.com/campus-sports/livematch/internal/interfaces/ws"
	idgen "github.com/campus-sports/livematch/internal/platform/id"
	"github.com/campus-sports/livematch/internal/platform/logging"
	"github.com/campus-sports/livematch/internal/platform/resilience"
	"github.com/campus-sports/livematch/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, error) {
	store := newStore(cfg, logger)

	rules := lineup.Rules{MaxBench: cfg.MaxBench}
	matchSvc := usecase.NewLiveMatchService(store, rules, idgen.NewRandomGenerator(), logger)
	reconcileSvc := usecase.NewReconcileService(matchSvc, cfg.ReconcileWorkers, logger)

	hub := ws.NewHub(logger)
	matchSvc.SetBroadcaster(hub)
	feed := ws.NewHandler(hub, matchSvc, logger)

	handler := httpapi.NewHandler(matchSvc, reconcileSvc, logger)
	router := httpapi.NewRouter(
		handler,
		logger,
		cfg.CORSAllowedOrigins,
		cfg.AdminAPIToken,
		cfg.InternalJobToken,
	)

	// The feed bypasses the REST middleware chain: otelhttp's response
	// wrapper does not expose http.Hijacker, which the upgrade needs.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/fixtures/{fixtureID}", feed.ServeFixtureFeed)
	mux.Handle("/", router)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// newStore picks the real backend client or the seeded in-memory store for
// local development.
func newStore(cfg config.Config, logger *slog.Logger) usecase.LiveFixtureStore {
	if !cfg.LiveAPIEnabled {
		logger.Info("live fixtures backend disabled, using in-memory store")
		return memory.NewLiveFixtureStore(memory.SeedDocuments())
	}

	return livefixtures.NewClient(livefixtures.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.LiveAPITimeout},
		BaseURL:    cfg.LiveAPIBaseURL,
		Token:      cfg.LiveAPIToken,
		Timeout:    cfg.LiveAPITimeout,
		MaxRetries: cfg.LiveAPIMaxRetries,
		Logger:     logging.NewJSON(cfg.LogLevel),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.LiveAPICircuitEnabled,
			FailureThreshold: cfg.LiveAPICircuitFailures,
			OpenTimeout:      cfg.LiveAPICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.LiveAPICircuitHalfOpenReq,
		},
	})
}
