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

	"parking-core/internal/config"
	"parking-core/internal/logging"
	"parking-core/internal/parking"
	"parking-core/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	logging.Init(cfg.LogLevel, cfg.IsDevelopment())
	log := logging.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := newTelemetry(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}

	lot, err := newLot(cfg, telemetryProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create parking lot")
	}

	log.Info().
		Int("slots", cfg.Slots).
		Str("mode", cfg.Mode).
		Bool("telemetry", cfg.OTel.Enabled).
		Msg("parking lot ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.Mode {
	case "cli":
		runCLI(ctx, cancel, lot, telemetryProvider, sigChan)
	case "server":
		runServer(ctx, cancel, cfg, lot, telemetryProvider, sigChan)
	case "both":
		runBoth(ctx, cancel, cfg, lot, telemetryProvider, sigChan)
	}

	shutdownTelemetry(telemetryProvider)
}

func newTelemetry(ctx context.Context, cfg *config.Config) (*parking.TelemetryProvider, error) {
	if !cfg.OTel.Enabled {
		return parking.NewLocalTelemetryProvider(cfg.OTel.ServiceName, nil, nil), nil
	}
	return parking.NewTelemetryProvider(ctx, cfg.OTel.ServiceName, cfg.OTel.Endpoint)
}

func newLot(cfg *config.Config, telemetryProvider *parking.TelemetryProvider) (*parking.InstrumentedLot, error) {
	lot, err := parking.NewLot(cfg.Slots, parking.RateTable{
		parking.Car:   cfg.Rates.Car,
		parking.Bike:  cfg.Rates.Bike,
		parking.Truck: cfg.Rates.Truck,
	})
	if err != nil {
		return nil, err
	}
	return parking.NewInstrumentedLot(lot, telemetryProvider)
}

func runCLI(ctx context.Context, cancel context.CancelFunc, lot *parking.InstrumentedLot, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		logging.Info(ctx).Msg("shutting down...")
		cancel()
	}()

	shell := parking.NewShell(lot, telemetryProvider, os.Stdin, os.Stdout)
	shell.Run(ctx)
}

func runServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, lot *parking.InstrumentedLot, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	srv := server.NewServer(cfg.Port, lot, telemetryProvider, cfg.OTel.ServiceName)
	logging.Info(ctx).Str("url", srv.GetAddress()).Msg("parking API available")

	go func() {
		<-sigChan
		logging.Info(ctx).Msg("received shutdown signal")
		shutdownServer(srv)
		cancel()
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error(ctx).Err(err).Msg("server error")
	}
}

func runBoth(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, lot *parking.InstrumentedLot, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	srv := server.NewServer(cfg.Port, lot, telemetryProvider, cfg.OTel.ServiceName)
	logging.Info(ctx).Str("url", srv.GetAddress()).Msg("parking API available")

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		shell := parking.NewShell(lot, telemetryProvider, os.Stdin, os.Stdout)
		shell.Run(ctx)
		close(cliDone)
	}()

	go func() {
		<-sigChan
		logging.Info(ctx).Msg("received shutdown signal")
		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx).Err(err).Msg("server error")
		}
	case <-cliDone:
		logging.Info(ctx).Msg("CLI exited")
	case <-ctx.Done():
		logging.Info(ctx).Msg("context cancelled")
	}

	shutdownServer(srv)
}

func shutdownServer(srv *server.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx).Err(err).Msg("server shutdown error")
	}
}

func shutdownTelemetry(telemetryProvider *parking.TelemetryProvider) {
	logging.Info(context.Background()).Msg("shutting down telemetry")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx).Err(err).Msg("error shutting down telemetry")
	}
}
