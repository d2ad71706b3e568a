package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brightmind-edu/tutor-journey-service/internal/agent"
	"github.com/brightmind-edu/tutor-journey-service/internal/auth"
	"github.com/brightmind-edu/tutor-journey-service/internal/cache"
	"github.com/brightmind-edu/tutor-journey-service/internal/config"
	"github.com/brightmind-edu/tutor-journey-service/internal/handlers"
	"github.com/brightmind-edu/tutor-journey-service/internal/repositories"
	"github.com/brightmind-edu/tutor-journey-service/internal/reports"
	"github.com/brightmind-edu/tutor-journey-service/internal/services"
	"github.com/brightmind-edu/tutor-journey-service/internal/utils"
	"github.com/brightmind-edu/tutor-journey-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	slogger := newSlogger(cfg)
	log := utils.NewSlogLogger(slogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := repositories.AutoMigrate(db); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		log.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	// Outbound identity for agent calls and inbound token verification share
	// the same source: casdoor when configured, a static dev identity
	// otherwise.
	var provider auth.Provider
	var verifier auth.Verifier
	if cfg.AuthConfigured() {
		verifier = auth.NewCasdoorVerifier(auth.CasdoorConfig{
			Endpoint:     cfg.AuthEndpoint,
			ClientID:     cfg.AuthClientID,
			ClientSecret: cfg.AuthClientSecret,
			Certificate:  cfg.AuthCertificate,
			Organization: cfg.AuthOrganization,
			Application:  cfg.AuthApplication,
		})
		provider = auth.NewStaticProvider(cfg.DevStudentID, cfg.DevToken)
	} else {
		static := auth.NewStaticProvider(cfg.DevStudentID, cfg.DevToken)
		provider = static
		verifier = static
		log.Warn("Auth not configured, using static development identity")
	}

	agentClient := agent.NewHTTPClient(cfg.AgentEndpointURL, provider, log)

	contentCache := cache.NewContentCache(cache.NewRedisCache(redisClient, log))
	resultsRepo := repositories.NewResultsRepository(db)

	manager := services.NewJourneyManager(services.ManagerDeps{
		Agent:           agentClient,
		Publisher:       publisher,
		Results:         resultsRepo,
		Content:         contentCache,
		Logger:          log,
		PrefetchTimeout: secondsFromEnv(cfg.PrefetchTimeoutSecs, 120),
	})
	exporter := reports.NewExporter(resultsRepo)
	validator := utils.NewValidator()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestLogger(log))

	handlerManager := handlers.NewHandlerManager(manager, exporter, verifier, validator, log)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

func newSlogger(cfg *config.Config) *slog.Logger {
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func secondsFromEnv(value string, fallback int) time.Duration {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
