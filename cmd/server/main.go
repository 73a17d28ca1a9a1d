package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/donellmccoy/lod-tracker/internal/api"
	"github.com/donellmccoy/lod-tracker/internal/application/port"
	"github.com/donellmccoy/lod-tracker/internal/application/service"
	"github.com/donellmccoy/lod-tracker/internal/config"
	"github.com/donellmccoy/lod-tracker/internal/domain/rules"
	"github.com/donellmccoy/lod-tracker/internal/domain/validation"
	"github.com/donellmccoy/lod-tracker/internal/infrastructure/notify"
	"github.com/donellmccoy/lod-tracker/internal/infrastructure/persistence/repository"
	"github.com/donellmccoy/lod-tracker/internal/metrics"
	"github.com/donellmccoy/lod-tracker/internal/report"
	"github.com/donellmccoy/lod-tracker/pkg/database"
	"github.com/donellmccoy/lod-tracker/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting LOD case tracker",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories and transaction manager
	caseRepo := repository.NewCaseRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	txManager := repository.NewTxManager(db.DB, logger)

	// Notifier: webhook when configured, log-only otherwise
	var notifier port.Notifier
	if cfg.Notifier.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(notify.Config{
			WebhookURL: cfg.Notifier.WebhookURL,
			Timeout:    cfg.Notifier.Timeout,
		}, logger)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	collector := metrics.NewCollector()
	if err := collector.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	evaluator := rules.NewEvaluator(rules.Config{
		LegalSeverityThreshold: cfg.Rules.LegalSeverityThreshold,
		LegalCostThreshold:     cfg.Rules.LegalCostThreshold,
		WingSeverityThreshold:  cfg.Rules.WingSeverityThreshold,
		WingCostThreshold:      cfg.Rules.WingCostThreshold,
		AppealWindowDays:       cfg.Rules.AppealWindowDays,
		DeathAppealWindowDays:  cfg.Rules.DeathAppealWindowDays,
	})
	validator := validation.NewValidator(evaluator)

	caseService := service.NewCaseService(
		caseRepo, historyRepo, txManager, notifier,
		evaluator, validator, logger,
		service.WithMetrics(collector),
	)

	exporter := report.NewExporter(logger)
	handler := api.NewHandler(caseService, exporter, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), loggingMiddleware(logger))
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
