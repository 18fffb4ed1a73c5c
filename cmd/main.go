/*
Package main is the entry point for the Virtual Campus server.

It loads configuration, initializes the global logger, loads the zone
catalog, opens the persistent campus room and serves the HTTP and WebSocket
endpoints until SIGINT or SIGTERM, then shuts down gracefully.
*/
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

	"github.com/SharmaG-28/Virtual-Campus/internal/app/campus"
	"github.com/SharmaG-28/Virtual-Campus/internal/app/zonestore"
	"github.com/SharmaG-28/Virtual-Campus/internal/configs"
	"github.com/SharmaG-28/Virtual-Campus/internal/handler"
	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(logx.Options{Development: cfg.IsDevelopment(), Level: cfg.LogLevel})
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("room", cfg.RoomName).
		Dur("patch_interval", cfg.PatchInterval).
		Int("max_clients", cfg.MaxClients).
		Bool("zone_db", cfg.DatabaseDSN != "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadCtx, cancelLoad := context.WithTimeout(ctx, 15*time.Second)
	zones, err := zonestore.Load(loadCtx, cfg.DatabaseDSN)
	cancelLoad()
	if err != nil {
		logx.Fatal(err, "Failed to load zone catalog")
	}
	logx.Info("Zone catalog loaded", "zones", len(zones))

	manager := campus.NewManager()
	if _, err := manager.Open(campus.RoomOptions{
		Name:          cfg.RoomName,
		Zones:         zones,
		MaxClients:    cfg.MaxClients,
		PatchInterval: cfg.PatchInterval,
		SpawnWidth:    cfg.SpawnWidth,
		SpawnHeight:   cfg.SpawnHeight,
	}); err != nil {
		logx.Fatal(err, "Failed to open campus room", "room", cfg.RoomName)
	}

	router := handler.Router(ctx, &handler.AppDeps{Manager: manager, Config: cfg})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Virtual Campus server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Hijacked WebSocket connections are not tracked by Shutdown; stopping
	// the rooms closes them.
	manager.Shutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
