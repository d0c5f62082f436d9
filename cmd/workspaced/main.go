package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jatinkumarweb/agentDB9-sub010/internal/api"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/binder"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/observability"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/orchestrator"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/reconciler"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/registry"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/runtime"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/store"
	"github.com/jatinkumarweb/agentDB9-sub010/internal/volumes"
)

func main() {
	var cfg api.Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	var rcfg reconciler.Config
	if err := envconfig.Process("", &rcfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, _ := observability.NewLogger(cfg.LogLevel)
	defer log.Sync()

	// Replace global logger
	zap.ReplaceGlobals(log)

	reg := prometheus.DefaultRegisterer
	observability.RegisterAll(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	engine, err := runtime.NewDocker(cfg.DockerHost, cfg.EngineTimeout, cfg.CopyTimeout, cfg.UtilityImage)
	if err != nil {
		log.Fatal("container engine connect failed", zap.Error(err))
	}
	defer engine.Close()

	queries := store.New(pool)
	wsRegistry := registry.New(pool, log)
	volumeMgr := volumes.New(engine, queries, log)
	orch := orchestrator.New(queries, engine, volumeMgr, orchestrator.Config{
		StopGrace: cfg.StopGrace,
		Network:   cfg.Network,
		MountPath: cfg.MountPath,
	}, log)
	projectBinder := binder.New(queries, orch, log)

	rec := reconciler.New(queries, engine, orch, volumeMgr, rcfg, log)
	scheduler := reconciler.NewScheduler(log)
	rec.RegisterJobs(scheduler)
	go scheduler.Run(ctx)

	// Main API server
	apiHandler := api.NewAPI(pool, wsRegistry, orch, volumeMgr, projectBinder, scheduler, log)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      apiHandler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: mux,
	}

	go func() {
		log.Info("metrics server starting", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("API server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("API server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down API server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	log.Info("API server stopped")
}
