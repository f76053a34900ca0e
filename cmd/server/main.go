package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sultan1coder/BUS-ROUTE-sub000/config"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/fleetapi"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/service"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.ServiceName)

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	fleet := fleetapi.NewClient(cfg.FleetAPIURL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	speedCfg := service.DefaultSpeedConfig()
	speedCfg.DefaultLimit = cfg.SpeedLimit

	mod, err := tracking.Build(db, amqpConn, mqttClient, fleet, fleet, fleet, registry, logger, tracking.Options{
		CacheTTL:      cfg.CacheTTL,
		Speed:         speedCfg,
		RetentionDays: cfg.RetentionDays,
	})
	if err != nil {
		log.Fatalf("tracking module: %v", err)
	}

	if err := mod.StartSubscribers(); err != nil {
		log.Fatalf("start subscribers: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// retention runs out-of-band from ingestion on its own ticker
	go runCleanup(ctx, mod, cfg.CleanupInterval)

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	mod.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}()

	logger.Info("listening", "port", cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	logger.Info("shutdown complete")
}

func runCleanup(ctx context.Context, mod *tracking.Module, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := mod.StatsSvc.CleanupOldData(ctx, mod.RetentionDays); err != nil {
				log.Printf("retention cleanup: %v", err)
			}
		}
	}
}
