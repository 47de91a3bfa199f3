package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abdullah-assistant/assistant/internal/bot"
	"github.com/abdullah-assistant/assistant/internal/config"
	"github.com/abdullah-assistant/assistant/internal/dialogue"
	"github.com/abdullah-assistant/assistant/internal/host"
	"github.com/abdullah-assistant/assistant/internal/logging"
	"github.com/abdullah-assistant/assistant/internal/session"
	"github.com/abdullah-assistant/assistant/internal/speech"
	"github.com/abdullah-assistant/assistant/internal/store"
	"github.com/abdullah-assistant/assistant/internal/web"
	"github.com/abdullah-assistant/assistant/internal/whatsapp"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := openStore(cfg)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer db.Close()

	engine := dialogue.NewEngine(dialogue.WithName(cfg.AssistantName))
	sessionMgr := session.NewManager()
	h := host.New(engine, db, sessionMgr, logger,
		host.WithTypingDelay(cfg.TypingDelay),
		host.WithRateLimit(cfg.RateLimitPerMinute),
	)

	// Periodic cleanup of idle per-conversation locks and limiters
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			h.Cleanup(cfg.SessionMaxIdle)
		}
	}()

	var transcriber speech.Transcriber
	if cfg.SpeechEnabled() {
		gt, err := speech.NewGoogleTranscriber(context.Background(), cfg.SpeechCredentialsFile, cfg.SpeechLanguage, logger)
		if err != nil {
			// Voice input is optional; text chat keeps working without it.
			logger.Error("speech input disabled", zap.Error(err))
		} else {
			defer gt.Close()
			transcriber = gt
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	web.NewHandler(h, transcriber, logger).Routes(r)

	if cfg.WhatsAppEnabled() {
		waClient := whatsapp.NewClient(cfg.WAAPIURL, cfg.WAPhoneNumberID, cfg.WAAccessToken)
		botHandler := bot.NewHandler(waClient, h, logger)
		webhookHandler := whatsapp.NewWebhookHandler(cfg.WAVerifyToken, cfg.WAAppSecret, botHandler.HandleMessage, logger)

		r.Get("/webhook", webhookHandler.HandleVerify)
		r.Post("/webhook", webhookHandler.HandleIncoming)
		logger.Info("whatsapp channel enabled", zap.Bool("verify_token_generated", cfg.WAVerifyTokenGenerated))
		if cfg.WAVerifyTokenGenerated {
			logger.Warn("WA_VERIFY_TOKEN is unset; webhook verification will fail until it is configured")
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store),
			zap.Bool("speech_input", transcriber != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
		return
	}
	logger.Info("stopped")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store == "memory" {
		return store.NewMemoryStore(), nil
	}
	return store.NewBoltStore(filepath.Join(cfg.DataDir, "assistant.db"))
}
