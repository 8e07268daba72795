package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"treasury-desk-go/internal/api"
	"treasury-desk-go/internal/common"
	"treasury-desk-go/internal/config"
	"treasury-desk-go/internal/preview"
	"treasury-desk-go/internal/rates"
	"treasury-desk-go/internal/seed"
	"treasury-desk-go/internal/store"
	"treasury-desk-go/internal/workflow"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	zap.L().Info("Starting treasury desk service")

	table := rates.Default()
	if cfg.RatesFile != "" {
		table, err = rates.Load(cfg.RatesFile)
		if err != nil {
			zap.L().Fatal("Failed to load rate table", zap.Error(err))
		}
		zap.L().Info("Loaded rate table", zap.String("file", cfg.RatesFile))
	}

	checker, err := workflow.CheckerFromConfig(cfg.Compliance)
	if err != nil {
		zap.L().Fatal("Failed to build compliance policy", zap.Error(err))
	}
	zap.L().Info("Compliance policy selected", zap.String("mode", cfg.Compliance.Mode))

	st := store.New()
	if cfg.SeedDemo {
		if err := seed.Demo(st); err != nil {
			zap.L().Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	calc := preview.NewCalculator(table, nil)
	manager := workflow.NewManager(cfg.Workflow, checker, nil)
	defer manager.Close()

	janitor, err := workflow.StartJanitor(manager, cfg.Workflow.SessionSweepEvery)
	if err != nil {
		zap.L().Fatal("Failed to start session janitor", zap.Error(err))
	}
	defer janitor.Stop()

	router := mux.NewRouter()
	service := api.NewService(st, calc, manager, cfg.Workflow)
	service.RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zap.L().Info("Server listening", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zap.L().Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Graceful shutdown failed", zap.Error(err))
	}

	zap.L().Info("Shutdown complete")
}
