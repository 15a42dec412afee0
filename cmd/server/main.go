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

	"github.com/SAP-F-2025/marking-service/internal/cache"
	"github.com/SAP-F-2025/marking-service/internal/config"
	"github.com/SAP-F-2025/marking-service/internal/grader"
	"github.com/SAP-F-2025/marking-service/internal/grading"
	"github.com/SAP-F-2025/marking-service/internal/handlers"
	"github.com/SAP-F-2025/marking-service/internal/metrics"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/marking-service/internal/services"
	"github.com/SAP-F-2025/marking-service/internal/utils"
	"github.com/SAP-F-2025/marking-service/internal/validator"
	"github.com/SAP-F-2025/marking-service/pkg"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewDefaultLogger()
	if !cfg.IsProduction() {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	if err := run(cfg, logger, slogger); err != nil {
		logger.Error("Marking service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger, slogger *slog.Logger) error {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&models.MarkingScheme{},
		&models.QuestionSpec{},
		&models.GradingBatch{},
		&models.GradingTask{},
		&models.Answer{},
	); err != nil {
		return err
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		return err
	}

	metrics.RegisterMetrics()

	engine := grading.NewEngine(
		grader.NewHTTPGrader(cfg.GraderURL, cfg.GraderTimeout, logger),
		publisher,
		logger,
		grading.Config{Timeout: cfg.GraderTimeout, Concurrency: cfg.GradingConcurrency},
	)

	serviceManager := services.NewServiceManager(services.Dependencies{
		DB:             db,
		Repo:           postgres.NewRepository(db),
		Redis:          redisClient,
		Cache:          cache.NewRedisCache(redisClient, logger),
		Engine:         engine,
		Publisher:      publisher,
		Validator:      validator.New(),
		Logger:         slogger,
		ReportCacheTTL: cfg.ReportCacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serviceManager.Initialize(ctx); err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestID(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))
	handlers.NewHandlerManager(serviceManager, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Marking service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down marking service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
