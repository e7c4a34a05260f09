package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/spirebridge/spirebots/cmd/spirebots/shared"
	"github.com/spirebridge/spirebots/internal/replay"
)

type ReplayCmd struct {
	Fixtures string        `arg:"" help:"Fixture file recorded with the record command"`
	Listen   string        `default:"127.0.0.1:8080" help:"Address to serve the bridge API on"`
	Interval time.Duration `default:"500ms" help:"Delay between successive snapshots"`
	LogLevel string        `default:"info" help:"Log level (debug|info|warn|error)"`
	LogJSON  bool          `help:"Output JSON logs instead of console format"`
}

func (c *ReplayCmd) Run() error {
	var logger zerolog.Logger
	if c.LogJSON {
		logger = shared.SetupStructuredLogger(c.LogLevel)
	} else {
		logger = shared.SetupLogger(c.LogLevel)
	}

	fixtures, err := replay.Load(c.Fixtures)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		return fmt.Errorf("no usable fixtures in %s", c.Fixtures)
	}

	bridge := replay.NewBridge(fixtures, logger)
	server := &http.Server{
		Addr:    c.Listen,
		Handler: bridge,
	}

	logger.Info().
		Str("listen", c.Listen).
		Int("fixtures", len(fixtures)).
		Dur("interval", c.Interval).
		Msg("Serving recorded bridge")

	ctx := shared.SetupSignalHandler(logger)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		// First snapshot is available immediately, the rest are paced
		bridge.Advance()

		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			if _, ok := bridge.Advance(); !ok {
				// Keep serving the final snapshot until interrupted
				logger.Info().Msg("All fixtures served, holding last state")
				return nil
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Shutting down replay bridge...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
