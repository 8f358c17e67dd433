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

	"github.com/sheetshop/catalog/pkg/api"
	"github.com/sheetshop/catalog/pkg/cache"
	"github.com/sheetshop/catalog/pkg/config"
	"github.com/sheetshop/catalog/pkg/logging"
	"github.com/sheetshop/catalog/pkg/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx := context.Background()

	source, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   cfg.SpreadsheetID,
		ReadRange:       cfg.SheetRange,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	manager, err := cache.NewManager(cache.Config{
		Source:          source,
		DiskPath:        cfg.CacheFile,
		InvalidateToken: cfg.InvalidateToken,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache manager")
	}

	// Warm the cache so the first request doesn't pay fetch latency.
	// Best effort: reads fall through to a lazy fetch either way.
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if _, err := manager.GetProducts(warmCtx); err != nil {
		logger.Warn().Err(err).Msg("Cache warm-up failed, serving lazily")
	}
	cancel()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.New(manager, source, cfg.AdminToken).Routes(),
	}

	idle := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Shutdown failed")
		}
		close(idle)
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("sheet", cfg.SheetRange).
		Msg("Starting catalog server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	<-idle
}
