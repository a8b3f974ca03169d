package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/proctor/internal/adapters/http/api"
	"github.com/okian/proctor/internal/adapters/llm"
	"github.com/okian/proctor/internal/adapters/repository"
	app "github.com/okian/proctor/internal/app"
	"github.com/okian/proctor/internal/config"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	logger.SetLevelString(cfg.LogLevel)

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		os.Stderr.WriteString("failed to build service: " + err.Error() + "\n")
		return
	}
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc).Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildService assembles the store, collaborators and tuning from config.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithIdleThreshold(time.Duration(cfg.IdleThresholdMS) * time.Millisecond),
		app.WithRetryBackoff(time.Duration(cfg.RetryBackoffMS) * time.Millisecond),
		app.WithExcerptMaxLen(cfg.ExcerptMaxLen),
		app.WithSnippetMaxCount(cfg.SnippetMaxCount),
		app.WithSynthesisTimeout(time.Duration(cfg.SynthesisTimeoutMS) * time.Millisecond),
		app.WithQuestionTimeout(time.Duration(cfg.QuestionTimeoutMS) * time.Millisecond),
		app.WithScorerOptions(scorerOptions(cfg)...),
	}

	if cfg.SQLitePath != "" {
		store, err := repository.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "using sqlite store", logger.String("path", cfg.SQLitePath))
		opts = append(opts, app.WithStore(store))
	}

	if cfg.LLMAPIKey != "" {
		client := llm.New(cfg.LLMAPIKey,
			llm.WithBaseURL(cfg.LLMBaseURL),
			llm.WithModel(cfg.LLMModel),
			llm.WithMaxTokens(cfg.LLMMaxTokens),
			llm.WithLogger(log.Named("llm")),
		)
		opts = append(opts,
			app.WithQuestionService(client),
			app.WithSynthesizer(client),
		)
		log.Info(ctx, "llm collaborators enabled", logger.String("model", cfg.LLMModel))
	} else {
		log.Info(ctx, "no llm api key; using rule-based fallback only")
	}

	return app.New(opts...), nil
}

func scorerOptions(cfg *config.Config) []insights.Option {
	var opts []insights.Option
	if len(cfg.DimensionWeights) > 0 {
		opts = append(opts, insights.WithDimensionWeights(cfg.DimensionWeights))
	}
	if len(cfg.HireCutpoints) > 0 {
		strong, okS := cfg.HireCutpoints["strong_hire"]
		hire, okH := cfg.HireCutpoints["hire"]
		maybe, okM := cfg.HireCutpoints["maybe"]
		if okS && okH && okM {
			opts = append(opts, insights.WithHireCutpoints(strong, hire, maybe))
		}
	}
	return opts
}
