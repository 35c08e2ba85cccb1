package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/songsmith-backend/internal/adapter/provider/deepinfra"
	"github.com/heartmarshall/songsmith-backend/internal/adapter/provider/perplexity"
	"github.com/heartmarshall/songsmith-backend/internal/config"
	"github.com/heartmarshall/songsmith-backend/internal/metrics"
	"github.com/heartmarshall/songsmith-backend/internal/service/rhyme"
	"github.com/heartmarshall/songsmith-backend/internal/transport/middleware"
	"github.com/heartmarshall/songsmith-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, initializes
// the logger, wires the upstream clients, the rhyme engine and the HTTP
// server, and serves until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("addr", cfg.Server.Addr()),
	)

	handler, cleanup, err := newHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// newHandler builds the full HTTP handler: routes, middleware and every
// dependency behind them. cleanup stops background work and must be called
// once the server is down.
func newHandler(cfg *config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	completion, err := deepinfra.NewClient(cfg.DeepInfra, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("create deepinfra client: %w", err)
	}
	research, err := perplexity.NewClient(cfg.Perplexity, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("create perplexity client: %w", err)
	}

	rhymes := rhyme.NewService(logger, research, completion, cfg.Rhymes, m)

	health := rest.NewHealthHandler(rhymes, BuildVersion())
	ai := rest.NewAIHandler(rhymes, logger)

	prefix := cfg.Server.NormalizedPrefix()

	aiMux := http.NewServeMux()
	ai.Register(aiMux, "")
	if prefix != "" {
		ai.Register(aiMux, prefix)
	}

	var limit middleware.Middleware
	cleanup := func() {}
	if cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(cfg.RateLimit, logger)
		limit = rl.Limit()
		cleanup = rl.Stop
	}
	aiHandler := middleware.Chain(limit)(aiMux)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("/ai/", aiHandler)
	if prefix != "" {
		mux.HandleFunc("GET "+prefix+"/live", health.Live)
		mux.HandleFunc("GET "+prefix+"/health", health.Health)
		mux.Handle(prefix+"/ai/", aiHandler)
	}
	if m != nil {
		mux.Handle("GET "+cfg.Metrics.Path, m.Handler())
	}

	// Metrics must stay innermost: it reads the pattern the muxes set on the
	// request it passes down.
	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(m),
	)(mux)

	logger.Info("http routes registered",
		slog.String("api_prefix", prefix),
		slog.Bool("rate_limit", cfg.RateLimit.Enabled),
		slog.Bool("metrics", m != nil),
	)

	return handler, cleanup, nil
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully,
// waiting at most shutdownTimeout for in-flight requests.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server", slog.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("http server stopped")
	return nil
}
