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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"cuentas/internal/bus"
	"cuentas/internal/config"
	"cuentas/internal/core"
	apphttp "cuentas/internal/http"
	applog "cuentas/internal/log"
	"cuentas/internal/service"
	"cuentas/internal/session"
	"cuentas/internal/stats"
	"cuentas/internal/store"
	"cuentas/internal/store/memory"
	"cuentas/internal/store/sqlite"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	sessions := session.NewProvider(cfg.SessionToken)
	sess, err := sessions.Establish(context.Background())
	if err != nil {
		logger.Error("Session establishment failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Session established", "session_id", sess.ID, "anonymous", sess.Anonymous)

	var (
		recordStore store.RecordStore
		sqliteRepo  *sqlite.Repository
		busClient   *bus.Client
	)

	switch cfg.DataBackend {
	case "sqlite":
		if cfg.AMQPURL != "" {
			busClient, err = bus.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
			if err != nil {
				logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
				os.Exit(1)
			}
			defer busClient.Close()
			logger.Info("Change broadcast enabled", "exchange", cfg.AMQPExchange, "client_id", busClient.ClientID())
		} else {
			logger.Info("Change broadcast disabled - no AMQP_URL provided")
		}

		sqliteRepo, err = sqlite.NewRepository(cfg.SQLiteDBPath, busClient)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		recordStore = sqliteRepo
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		recordStore = memory.New()
		logger.Info("Initialized memory backend")
	}

	ledger := service.NewLedger(recordStore, sessions, stats.Params{
		GoalTarget:    cfg.GoalTarget,
		InitialStock:  cfg.InitialStock,
		StockCategory: cfg.StockCategory,
	}, core.Taxonomy{
		IncomeCategories:  cfg.IncomeCategories,
		ExpenseCategories: cfg.ExpenseCategories,
		PaymentMethods:    cfg.PaymentMethods,
	})
	defer ledger.Close()

	srv := apphttp.NewServer(":"+cfg.Port, ledger, cfg.MonthNames)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("Starting cuentas server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if sqliteRepo != nil {
		group.Go(func() error {
			if err := sqliteRepo.RunEventFeed(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
