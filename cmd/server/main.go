package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"flashgen/internal/api"
	"flashgen/internal/config"
	"flashgen/internal/logger"
	"flashgen/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger := logger.Setup(cfg.LogLevel)

	defaultProvider, err := services.ParseProvider(cfg.DefaultProvider)
	if err != nil {
		appLogger.Warn("unknown default provider, using openai", "configured", cfg.DefaultProvider)
		defaultProvider = services.ProviderOpenAI
	}

	generator := services.NewGenerator(services.GeneratorConfig{
		OpenAIBaseURL:     cfg.OpenAIBaseURL,
		AnthropicBaseURL:  cfg.AnthropicBaseURL,
		PerplexityBaseURL: cfg.PerplexityBaseURL,
		GeminiBaseURL:     cfg.GeminiBaseURL,
		RequestTimeout:    cfg.RequestTimeout,
		Logger:            appLogger,
	})

	server := api.NewServer(api.Options{
		Generator:       generator,
		PDF:             services.NewPDFService(cfg.UploadDir),
		Credentials:     cfg.Credential,
		DefaultProvider: defaultProvider,
		Logger:          appLogger,
	})

	appLogger.Info("listening", slog.String("addr", ":"+cfg.Port), slog.String("default_provider", string(defaultProvider)))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLogger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
