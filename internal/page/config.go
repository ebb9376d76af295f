package page

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bunkasai/festival/internal/chat"
	"github.com/bunkasai/festival/internal/config"
	"github.com/bunkasai/festival/internal/countdown"
	"github.com/bunkasai/festival/internal/gallery"
	"github.com/bunkasai/festival/internal/locale"
	"github.com/bunkasai/festival/internal/prefs"
)

// Config is the per-page setup.
type Config struct {
	ID             string
	Name           string
	Template       []byte
	AcceptLanguage string

	DefaultLang        locale.Lang
	LightTheme         string
	DarkTheme          string
	FadeDelay          time.Duration
	Backgrounds        []string
	BackgroundInterval time.Duration
	CountdownTarget    time.Time
	Messages           countdown.Messages
	GalleryView        gallery.ViewMode
	SlideInterval      time.Duration
}

// Deps are the collaborators shared between pages.
type Deps struct {
	Prefs     *prefs.Store
	Responder *chat.Responder
	Listing   gallery.Source
	Clock     clockwork.Clock
	Shuffle   gallery.Shuffler
}

// FromConfig derives a page Config from the application configuration.
func FromConfig(cfg *config.Config, name string, template []byte) (Config, error) {
	target, err := cfg.CountdownTarget()
	if err != nil {
		return Config{}, err
	}
	mode, err := gallery.ParseViewMode(cfg.Gallery.DefaultView)
	if err != nil {
		return Config{}, err
	}
	lang, err := locale.Parse(cfg.Site.DefaultLang)
	if err != nil {
		return Config{}, fmt.Errorf("site.default_lang: %w", err)
	}
	return Config{
		Name:               name,
		Template:           template,
		DefaultLang:        lang,
		LightTheme:         cfg.Theme.Light,
		DarkTheme:          cfg.Theme.Dark,
		FadeDelay:          cfg.Nav.FadeDelay,
		Backgrounds:        cfg.Background.Images,
		BackgroundInterval: cfg.Background.Interval,
		CountdownTarget:    target,
		Messages: countdown.Messages{
			RemainingJP:  cfg.Countdown.RemainingJP,
			RemainingEN:  cfg.Countdown.RemainingEN,
			InProgressJP: cfg.Countdown.InProgressJP,
			InProgressEN: cfg.Countdown.InProgressEN,
		},
		GalleryView:   mode,
		SlideInterval: cfg.Gallery.SlideInterval,
	}, nil
}
