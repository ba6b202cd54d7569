package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sirenfeed/siren/internal/app"
	"github.com/sirenfeed/siren/internal/classify"
	"github.com/sirenfeed/siren/internal/config"
	"github.com/sirenfeed/siren/internal/extract"
	"github.com/sirenfeed/siren/internal/feed"
	"github.com/sirenfeed/siren/internal/filter"
	"github.com/sirenfeed/siren/internal/logger"
	"github.com/sirenfeed/siren/internal/metrics"
	"github.com/sirenfeed/siren/internal/notify"
	"github.com/sirenfeed/siren/internal/pipeline"
	"github.com/sirenfeed/siren/internal/ratelimit"
	"github.com/sirenfeed/siren/internal/retry"
	"github.com/sirenfeed/siren/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger.Init()
	log := logger.For("main")

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration invalid", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *storage.Store
	err = retry.WithRetry(ctx, retry.Config{MaxAttempts: 5, Delay: 2 * time.Second, Backoff: true}, func() error {
		var oerr error
		store, oerr = storage.Open(cfg.DatabaseURL, logger.For("storage"))
		return oerr
	})
	if err != nil {
		log.Error("database unavailable", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	classifier, cleanup, err := buildClassifier(ctx, cfg)
	if err != nil {
		log.Error("classifier setup failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	feedURLs, err := feed.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		log.Error("feeds config unreadable", "path", cfg.FeedsConfigPath, "err", err)
		os.Exit(1)
	}

	httpClient := extract.NewHTTPClient(cfg.RequestTimeout)
	extractLog := logger.For("extract")
	contentChain := extract.NewContentChain(extractLog,
		extract.NewReadabilityStrategy(httpClient),
		extract.NewArticleBodyStrategy(httpClient),
		extract.NewPageTextStrategy(httpClient),
	)
	titleChain := extract.NewTitleChain(extractLog,
		extract.NewReadabilityTitleStrategy(httpClient),
		extract.NewTitleTagStrategy(httpClient),
	)

	var budget pipeline.Budget
	if cfg.DailyLLMBudget > 0 {
		budget = ratelimit.NewBudget(cfg.DailyLLMBudget, logger.For("ratelimit"))
	}

	pipe := pipeline.New(
		filter.NewDupChecker(store),
		filter.DefaultBlocklist(),
		titleChain,
		contentChain,
		classifier,
		budget,
		metrics.Global,
		logger.For("pipeline"),
	)

	fetcher := feed.NewFetcher(feedURLs, cfg.MaxBatch, logger.For("feed"))

	var notifier app.Notifier
	if n := notify.New(cfg.TelegramToken, cfg.TelegramChatID, logger.For("notify")); n != nil {
		notifier = n
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer(ctx, store)
	}

	a := app.New(fetcher, pipe, store, notifier, metrics.Global, logger.For("app"), app.Options{
		PollInterval:   cfg.PollInterval,
		FailureBackoff: cfg.FailureBackoff,
		RetentionDays:  cfg.RetentionDays,
	})

	log.Info("starting", "provider", cfg.LLMProvider, "feeds", len(feedURLs),
		"poll_interval", cfg.PollInterval)

	if err := a.Run(ctx); err != nil && err != context.Canceled {
		log.Error("run failed", "err", err)
		os.Exit(1)
	}
	log.Info("shut down")
}

func buildClassifier(ctx context.Context, cfg *config.Config) (classify.Classifier, func(), error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := classify.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		client := classify.NewOpenAIClient(cfg.OpenAIEndpoint, cfg.OpenAIModel, cfg.OpenAIKey, 60*time.Second)
		return client, func() {}, nil
	}
}

func startMonitoringServer(ctx context.Context, store *storage.Store) {
	log := logger.For("monitoring")

	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthHandler(w, r, store)
	})
	mux.HandleFunc("/metrics", metricsHandler)

	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("monitoring server listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("monitoring server failed", "err", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request, store *storage.Store) {
	status := "ok"
	code := http.StatusOK

	dbCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	dbErr := store.HealthCheck(dbCtx)

	if dbErr != nil || !metrics.Global.Healthy() {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	stats := metrics.Global.GetStats()
	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}
	if dbErr != nil {
		response["database"] = dbErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
