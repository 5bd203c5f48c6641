package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astromirror/quiz-service/internal/cache"
	"github.com/astromirror/quiz-service/internal/config"
	"github.com/astromirror/quiz-service/internal/events"
	"github.com/astromirror/quiz-service/internal/handlers"
	"github.com/astromirror/quiz-service/internal/quizdata"
	"github.com/astromirror/quiz-service/internal/repositories"
	"github.com/astromirror/quiz-service/internal/repositories/memory"
	pgstore "github.com/astromirror/quiz-service/internal/repositories/postgres"
	"github.com/astromirror/quiz-service/internal/services"
	"github.com/astromirror/quiz-service/internal/utils"
	"github.com/astromirror/quiz-service/internal/validator"
	"github.com/astromirror/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	v := validator.New()

	// The quiz definition must parse and validate before serving traffic.
	loader := quizdata.NewLoader(cfg.QuizDataPath, v, slogger)
	if _, err := loader.Load(); err != nil {
		logger.Error("Quiz definition rejected", "path", cfg.QuizDataPath, "error", err)
		os.Exit(1)
	}

	repo, err := buildRepository(cfg)
	if err != nil {
		logger.Error("Failed to initialize session storage", "store", cfg.SessionStore, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	cacheService := buildCache(cfg, slogger, logger)
	publisher := buildPublisher(cfg, slogger, logger)
	if publisher != nil {
		defer publisher.Close()
	}

	quizService := services.NewQuizService(repo, loader, cacheService, publisher, slogger, v)
	exportService := services.NewExportService(repo, slogger)

	router := gin.New()
	router.Use(utils.LoggerMiddleware(logger), gin.Recovery())
	handlers.NewHandlerManager(quizService, exportService, v, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runCleanupSweep(ctx, quizService, cfg.CleanupEvery, logger)

	go func() {
		logger.Info("Quiz service listening",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"session_store", cfg.SessionStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

func buildRepository(cfg *config.Config) (repositories.Repository, error) {
	switch cfg.SessionStore {
	case "postgres":
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return pgstore.NewRepository(db, cfg.SessionTTL), nil
	default:
		return memory.NewStore(memory.WithTTL(cfg.SessionTTL)), nil
	}
}

func buildCache(cfg *config.Config, slogger *slog.Logger, logger utils.Logger) cache.CacheService {
	if cfg.RedisURL == "" {
		return cache.NoopCache{}
	}
	client, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, result caching disabled", "error", err)
		return cache.NoopCache{}
	}
	return cache.NewRedisCache(client, slogger)
}

func buildPublisher(cfg *config.Config, slogger *slog.Logger, logger utils.Logger) events.EventPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}
	publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.KafkaTopic,
		Logger:       slogger,
	})
	if err != nil {
		logger.Warn("Kafka unavailable, event publishing disabled", "error", err)
		return nil
	}
	return publisher
}

func runCleanupSweep(ctx context.Context, quizService services.QuizService, every time.Duration, logger utils.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := quizService.CleanupExpired(ctx); err != nil {
				logger.Warn("Session cleanup sweep failed", "error", err)
			}
		}
	}
}
