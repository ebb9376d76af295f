package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bunkasai/festival/internal/prefs"
	"github.com/bunkasai/festival/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the festival site with live pages",
	Long: `Starts the festival HTTP server. Pages are rendered per visitor and kept
live over a websocket; the JSON API exposes preferences, the countdown,
the assistant and the gallery listing.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "override server.port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	if _, err := os.Stat(cfg.Site.Dir); err != nil {
		return fmt.Errorf("site directory %s: %w", cfg.Site.Dir, err)
	}

	backend, database, err := prefs.Open(cfg.Prefs)
	if err != nil {
		return fmt.Errorf("opening preference store: %w", err)
	}
	defer backend.Close()

	responder, err := newResponder(cfg)
	if err != nil {
		return err
	}

	listing := newListing(cfg)
	if listing != nil && cfg.Gallery.Refresh != "" {
		if err := listing.Schedule(cfg.Gallery.Refresh); err != nil {
			return err
		}
		defer listing.Stop()
	}

	srv := server.New(cfg, server.Deps{
		Prefs:     backend,
		DB:        database,
		Responder: responder,
		Listing:   listing,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if listing != nil {
		g.Go(func() error {
			warmCtx, cancel := context.WithTimeout(gctx, cfg.Gallery.Timeout)
			defer cancel()
			if err := listing.Refresh(warmCtx); err == nil {
				log.Info().Int("items", len(listing.Snapshot())).Msg("gallery listing loaded")
			}
			return nil
		})
	}
	return g.Wait()
}
