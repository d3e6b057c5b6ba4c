package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/nyasuto/mond/internal/adapter/grpc"
	"github.com/nyasuto/mond/internal/adapter/httpapi"
	"github.com/nyasuto/mond/internal/app"
	"github.com/nyasuto/mond/internal/config"
	"github.com/nyasuto/mond/internal/logger"
	"github.com/nyasuto/mond/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "Path to the config file (defaults to ./mond.yaml when present)")
	flag.Parse()

	// 1. Load configuration and logger
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 2. Open the store (migrations included) and wire services
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	// 3. Scheduled collectors
	var sched *scheduler.Scheduler
	if cfg.Collector.Schedule != "" {
		plan, err := a.CollectorPlan()
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid collector configuration")
		}
		sched = scheduler.New(ctx, log)
		if err := sched.AddJob(cfg.Collector.Schedule, &scheduler.CollectorJob{Service: a.Collector, Plan: plan}); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Collector.Schedule).Msg("Failed to schedule collector")
		}
		sched.Start()
	}

	// 4. gRPC server with logging and auth interceptors
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logger.Component(log, "grpc")),
			grpcadapter.AuthInterceptor(cfg.Server.APIToken),
		),
	)
	grpcadapter.RegisterReportServiceServer(grpcServer, grpcadapter.NewServer(a.Entry, a.Reports, a.Market))

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Server.GRPCAddr).Msg("Failed to listen")
	}
	go func() {
		log.Info().Str("addr", cfg.Server.GRPCAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC server stopped with error")
			stop()
		}
	}()

	// 5. HTTP server for reports and CSV exports
	httpServer := httpapi.New(httpapi.Config{
		Addr:        cfg.Server.HTTPAddr,
		APIToken:    cfg.Server.APIToken,
		CORSOrigins: cfg.Server.CORSOrigins,
		Log:         log,
		Reports:     a.Reports,
		Market:      a.Market,
		DB:          a.DB,
	})
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped with error")
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	waitForShutdown(log, grpcServer, httpServer, sched)
}

// waitForShutdown stops the servers and the scheduler after a termination signal
func waitForShutdown(log zerolog.Logger, grpcServer *grpclib.Server, httpServer *httpapi.Server, sched *scheduler.Scheduler) {
	log.Info().Msg("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	grpcServer.GracefulStop()
	log.Info().Msg("gRPC server stopped")

	if sched != nil {
		sched.Stop()
	}
}
