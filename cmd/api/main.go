package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/finance-ledger/internal/auth"
	"github.com/Dan9191/finance-ledger/internal/config"
	"github.com/Dan9191/finance-ledger/internal/events"
	"github.com/Dan9191/finance-ledger/internal/handler"
	"github.com/Dan9191/finance-ledger/internal/middleware"
	"github.com/Dan9191/finance-ledger/internal/repository"
	"github.com/Dan9191/finance-ledger/internal/service"
	"github.com/Dan9191/finance-ledger/internal/utils/email"
	"github.com/Dan9191/finance-ledger/internal/worker"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	// Initialize logger
	logger := newLogger(os.Getenv("LOG_LEVEL"))

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger = newLogger(cfg.LogLevel)

	// Initialize database
	repo, err := repository.Open(cfg.DBDriver, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	// Initialize layers
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	svc := service.NewService(repo, tokens, publisher, logger, cfg)
	h := handler.NewHandler(svc, repo, logger)
	r := handler.NewRouter(h, middleware.AuthMiddleware(svc, logger), middleware.RequestLogger(logger))

	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	// Start server
	g.Go(func() error {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("Shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	if cfg.ReconcileSchedule != "" {
		var alerter worker.Alerter
		if cfg.AlertsEnabled() {
			alerter = email.NewSender(cfg, logger)
		}
		reconciler, err := worker.NewReconciler(svc, alerter, cfg.ReconcileSchedule, logger)
		if err != nil {
			logger.Fatalf("Failed to schedule reconciliation: %v", err)
		}
		g.Go(func() error { return reconciler.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Errorf("Exited with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Stopped")
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// newPublisher connects to the broker when AMQP_URL is set. A broker that is
// down at startup only disables events; the ledger keeps serving.
func newPublisher(cfg *config.Config, logger *logrus.Logger) (events.Publisher, func()) {
	if cfg.AMQPURL == "" {
		return events.Noop{}, func() {}
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		logger.Warnf("Ledger events disabled: %v", err)
		return events.Noop{}, func() {}
	}
	logger.Infof("Publishing ledger events to exchange %s", cfg.AMQPExchange)
	return pub, func() { pub.Close() }
}
