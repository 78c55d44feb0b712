package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"keyword-volume/internal/config"
	"keyword-volume/internal/handler"
	"keyword-volume/internal/service"
	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/metrics"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", os.Getenv("KV_CONFIG"), "Configuration file path (optional)")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := app.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func (app *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.NewManager().Load(app.configPath)
	if err != nil {
		return err
	}
	if app.debug {
		cfg.Logger.Level = "debug"
	}
	logger.SetGlobalLogger(logger.New(cfg.Logger))
	log := logger.GetLogger().WithField("component", "server")

	metrics.Init(prometheus.DefaultRegisterer)

	svc, closeStore, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	server := handler.NewApp(svc)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	errChan := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Starting keyword-volume server")
		errChan <- server.Listen(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	if err := server.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Warn("Graceful shutdown failed")
	}
	log.Info("Server stopped")
	return nil
}
