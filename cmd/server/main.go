// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the legislative media portal server.
//
// The server exposes the REST API used by the portal frontend and runs the
// background work: the Pub/Sub listener that ingests new session videos and
// the periodic relationship backfill.
//
// Startup:
//  1. Load the TOML configuration and set up logging and telemetry.
//  2. Create the cloud clients and services.
//  3. Attach the ingestion workflow to its listener and start the link timer.
//  4. Serve HTTP until SIGINT or SIGTERM, then shut down gracefully.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/legislative-media-portal/internal/api"
	"github.com/jaycherian/legislative-media-portal/internal/app"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
	"github.com/jaycherian/legislative-media-portal/internal/telemetry"
)

const defaultListenAddress = ":8080"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := app.GetConfig("local")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	closeLog, err := telemetry.SetupLogging(config.Telemetry)
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer closeLog()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("failed to setup OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	state, err := app.NewState(ctx, config)
	if err != nil {
		slog.Error("failed to initialise state", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := state.Close(); err != nil {
			slog.Error("failed to close state", "error", err)
		}
	}()

	if err := SetupListeners(ctx, state); err != nil {
		slog.Error("failed to start listeners", "error", err)
		os.Exit(1)
	}
	StartLinkTimer(ctx, state)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(&api.Server{
		Media:       state.Media,
		Uploads:     state.Uploads,
		ServiceName: config.Application.Name,
		Version:     config.Application.Version,
		StreamTTL:   services.DefaultSignedURLExpiry,
	})

	addr := config.Application.ListenAddress
	if addr == "" {
		addr = defaultListenAddress
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("server ready", "address", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	cancel()
	slog.Info("server exiting")
}
