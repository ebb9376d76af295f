package cmd

import (
	"fmt"

	"github.com/bunkasai/festival/internal/chat"
	"github.com/bunkasai/festival/internal/config"
	"github.com/bunkasai/festival/internal/gallery"
	"github.com/bunkasai/festival/internal/logging"
)

// loadConfig loads, validates and applies the logging configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `festival init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	if err := logging.Init(cfg.Log, verbose); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newListing wraps the configured listing source in a shared cache. It
// returns nil when no gallery URL is configured.
func newListing(cfg *config.Config) *gallery.Cache {
	g := cfg.Gallery
	if g.URL == "" {
		return nil
	}
	var src gallery.Source
	switch g.Source {
	case config.ListingIndex:
		src = gallery.NewIndexSource(g.URL, g.Timeout)
	default:
		src = gallery.NewGitHubSource(g.URL, g.Token, g.Timeout)
	}
	return gallery.NewCache(src, g.ReloadInterval, g.Timeout)
}

// listingSource returns c as a Source, keeping a nil cache a nil interface.
func listingSource(c *gallery.Cache) gallery.Source {
	if c == nil {
		return nil
	}
	return c
}

func newResponder(cfg *config.Config) (*chat.Responder, error) {
	r, err := chat.NewResponder(cfg.Chat.Responses)
	if err != nil {
		return nil, fmt.Errorf("loading chat responses: %w", err)
	}
	return r, nil
}
