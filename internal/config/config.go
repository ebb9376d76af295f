package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: FESTIVAL_SERVER__PORT -> server.port.
const EnvPrefix = "FESTIVAL_"

// countdownLayout is the accepted format of countdown.target.
const countdownLayout = "2006-01-02T15:04:05"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FESTIVAL_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.ApplyDefaults()

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validBackends = map[PrefsBackend]bool{
	PrefsMemory: true,
	PrefsSQLite: true,
	PrefsBolt:   true,
}

var validListings = map[ListingKind]bool{
	ListingGitHub: true,
	ListingIndex:  true,
}

var validViews = map[string]bool{
	"grid":  true,
	"list":  true,
	"slide": true,
}

var validLangs = map[string]bool{
	"jp": true,
	"en": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Site.Dir == "" {
		return fmt.Errorf("site.dir is required")
	}
	if !validLangs[c.Site.DefaultLang] {
		return fmt.Errorf("invalid site.default_lang %q: must be jp or en", c.Site.DefaultLang)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ChatPerMinute < 0 {
		return fmt.Errorf("server.chat_per_minute must be non-negative")
	}

	if !validBackends[c.Prefs.Backend] {
		return fmt.Errorf("invalid prefs.backend %q: must be one of memory, sqlite, bolt", c.Prefs.Backend)
	}
	if c.Prefs.Backend != PrefsMemory && c.Prefs.Path == "" {
		return fmt.Errorf("prefs.path is required for the %s backend", c.Prefs.Backend)
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}

	if c.Theme.Light == "" || c.Theme.Dark == "" {
		return fmt.Errorf("theme.light and theme.dark are both required")
	}

	if c.Nav.FadeDelay < 0 {
		return fmt.Errorf("nav.fade_delay must be non-negative")
	}
	if c.Background.Interval <= 0 {
		return fmt.Errorf("background.interval must be positive")
	}

	if _, err := c.CountdownTarget(); err != nil {
		return err
	}

	if !validListings[c.Gallery.Source] {
		return fmt.Errorf("invalid gallery.source %q: must be github or index", c.Gallery.Source)
	}
	if !validViews[c.Gallery.DefaultView] {
		return fmt.Errorf("invalid gallery.default_view %q: must be one of grid, list, slide", c.Gallery.DefaultView)
	}
	if c.Gallery.Timeout <= 0 || c.Gallery.ReloadInterval <= 0 {
		return fmt.Errorf("gallery.timeout and gallery.reload_interval must be positive")
	}
	if c.Gallery.SlideInterval <= 0 {
		return fmt.Errorf("gallery.slide_interval must be positive")
	}
	if c.Gallery.Refresh != "" {
		if _, err := cron.ParseStandard(c.Gallery.Refresh); err != nil {
			return fmt.Errorf("invalid gallery.refresh %q: %w", c.Gallery.Refresh, err)
		}
	}

	for lang, table := range c.Chat.Responses {
		if !validLangs[lang] {
			return fmt.Errorf("chat.responses: unknown language %q", lang)
		}
		if _, ok := table["default"]; !ok {
			return fmt.Errorf("chat.responses.%s: missing default entry", lang)
		}
	}

	return nil
}

// CountdownTarget parses countdown.target in countdown.timezone.
func (c *Config) CountdownTarget() (time.Time, error) {
	loc := time.Local
	if c.Countdown.Timezone != "" {
		l, err := time.LoadLocation(c.Countdown.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid countdown.timezone %q: %w", c.Countdown.Timezone, err)
		}
		loc = l
	}
	t, err := time.ParseInLocation(countdownLayout, c.Countdown.Target, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid countdown.target %q: %w", c.Countdown.Target, err)
	}
	return t, nil
}
