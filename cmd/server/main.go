package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/dctmfoo/HitchensRhetoricTransform/internal/app"
	"github.com/dctmfoo/HitchensRhetoricTransform/internal/config"
	"github.com/dctmfoo/HitchensRhetoricTransform/internal/server"
	"github.com/dctmfoo/HitchensRhetoricTransform/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	tokenTTL, err := config.ParseDuration(cfg.TokenTTL, 24*time.Hour)
	if err != nil {
		log.Fatalf("failed to parse token TTL: %v", err)
	}
	sessionTTL, err := config.ParseDuration(cfg.SessionTTL, 24*time.Hour)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	generationTimeout, err := config.ParseDuration(cfg.GenerationTimeout, 60*time.Second)
	if err != nil {
		log.Fatalf("failed to parse generation timeout: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:       cfg.DatabaseURL,
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		TokenSecret:       cfg.TokenSecret,
		TokenTTL:          tokenTTL,
		SessionTTL:        sessionTTL,
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		OpenAIBaseURL:     cfg.OpenAIBaseURL,
		OpenAIModel:       cfg.OpenAIModel,
		GeminiAPIKey:      cfg.GeminiAPIKey,
		GeminiModel:       cfg.GeminiModel,
		OllamaBaseURL:     cfg.OllamaBaseURL,
		OllamaModel:       cfg.OllamaModel,
		DefaultProvider:   cfg.DefaultProvider,
		GenerationTimeout: generationTimeout,
		PersonasFile:      cfg.PersonasFile,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer := server.New(server.Config{
		App:        appCore,
		StaticDir:  cfg.StaticDir,
		SessionTTL: sessionTTL,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
