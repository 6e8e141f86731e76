package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"serp-comparator/internal/comparison"
	"serp-comparator/internal/intent"
	"serp-comparator/internal/location"
	"serp-comparator/internal/presets"
	"serp-comparator/internal/prompts"
	"serp-comparator/internal/serp"
	"serp-comparator/internal/web"
	"serp-comparator/pkg/circuit"
	"serp-comparator/pkg/config"
	"serp-comparator/pkg/health"
	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
	"serp-comparator/pkg/monitoring"
)

func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogConfig())
	if err != nil {
		logger = logging.NewWriterLogger(os.Stderr, logging.DefaultLogConfig())
		logger.Warn("file logging unavailable, using stderr", logging.String("error", err.Error()))
	}
	defer logger.Close()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", err)
	}
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}
	logger.Info("configuration loaded", logging.Any("config", cfg.Summary()))

	m := metrics.Default
	monitoring.EnableProfiling(cfg.ProfilingEnabled)

	// SERP provider
	serpBreaker := circuit.New(circuit.DefaultConfig("serp"), logger, m)
	provider := serp.NewValueSERPClient(serp.Config{
		APIKey:  cfg.ValueSERPAPIKey,
		BaseURL: cfg.ValueSERPBaseURL,
		Timeout: cfg.SerpTimeout,
	}, serpBreaker, m, logger)

	// Intent classifier, disabled without a key
	intentBreaker := circuit.New(circuit.DefaultConfig("intent"), logger, m)
	var classifier intent.Classifier = intent.Noop{}
	var llm *intent.LLMClassifier
	if cfg.GeminiAPIKey != "" {
		pm, err := prompts.NewManagerWithOverrides(cfg.PromptDir)
		if err != nil {
			logger.Fatal("failed to load prompt templates", err, logging.String("dir", cfg.PromptDir))
		}
		llm = intent.NewLLMClassifier(intent.Config{
			APIKey:      cfg.GeminiAPIKey,
			BaseURL:     cfg.IntentBaseURL,
			Model:       cfg.IntentModel,
			Timeout:     cfg.IntentTimeout,
			Temperature: cfg.IntentTemperature,
			MaxTokens:   cfg.IntentMaxTokens,
		}, pm, intentBreaker, m, logger)
		classifier = llm
	}

	// Location resolver
	var resolver location.Resolver = location.PassThrough{}
	if cfg.GoogleMapsAPIKey != "" {
		g, err := location.NewGeocodingResolver(cfg.GoogleMapsAPIKey, cfg.SerpTimeout, logger)
		if err != nil {
			logger.Warn("geocoding disabled", logging.String("error", err.Error()))
		} else {
			resolver = g
		}
	}

	countryPresets, err := presets.Load(cfg.SearchPresetsPath)
	if err != nil {
		logger.Fatal("failed to load search presets", err, logging.String("path", cfg.SearchPresetsPath))
	}

	svc := comparison.NewService(provider, classifier, resolver, m, logger, cfg.CompareConcurrency)

	hm := health.NewHealthManager(health.DefaultHealthConfig(), logger)
	hm.RegisterChecker(health.CredentialChecker("valueserp", cfg.ValueSERPAPIKey != "", "VALUESERP_API_KEY missing"))
	hm.RegisterChecker(health.CredentialChecker("intent_llm", cfg.GeminiAPIKey != "", "GEMINI_API_KEY missing, intent analysis disabled"))
	hm.RegisterChecker(health.CredentialChecker("geocoding", cfg.GoogleMapsAPIKey != "", "GOOGLE_MAPS_API_KEY missing, locations sent as typed"))
	hm.RegisterChecker(health.BreakerChecker(serpBreaker))
	hm.RegisterChecker(health.BreakerChecker(intentBreaker))

	renderer, err := web.NewRenderer(Templates(), cfg.BasePath)
	if err != nil {
		logger.Fatal("failed to parse templates", err)
	}

	var recent *monitoring.Recent
	if cfg.MetricsEnabled {
		recent = monitoring.NewRecent(512)
	}

	handler := web.NewRouter(web.Deps{
		Comparer:      svc,
		Presets:       countryPresets,
		Renderer:      renderer,
		Static:        Static(),
		Health:        hm.Handler(),
		Logger:        logger,
		Metrics:       m,
		Recent:        recent,
		MaxKeywords:   cfg.MaxKeywords,
		IntentEnabled: llm != nil,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var adminServer *http.Server
	if cfg.ProfilingEnabled || cfg.MetricsEnabled {
		mux := http.NewServeMux()
		if cfg.ProfilingEnabled {
			monitoring.RegisterPprof(mux)
		}
		if cfg.MetricsEnabled {
			mux.Handle(cfg.MetricsPath, m.Handler())
			if cfg.MetricsPath != "/metrics.json" {
				mux.Handle("/metrics.json", monitoring.StatsHandler(recent))
			}
		}
		if llm != nil {
			mux.HandleFunc("/usage.json", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(llm.Usage().Stats())
			})
		}
		adminServer = &http.Server{Addr: ":" + cfg.ProfilingPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logger.Info("admin server (pprof/metrics) starting", logging.String("port", cfg.ProfilingPort))
			if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin HTTP server error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting",
			logging.String("port", cfg.Port),
			logging.String("base_path", renderer.BasePath()),
			logging.String("env", strings.ToLower(cfg.Env)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("received shutdown signal, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}
	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin HTTP server shutdown error", err)
		}
	}
	logger.Info("application shutdown complete")
}
