package config

import "time"

// PrefsBackend selects where visitor preferences are persisted.
type PrefsBackend string

const (
	PrefsMemory PrefsBackend = "memory"
	PrefsSQLite PrefsBackend = "sqlite"
	PrefsBolt   PrefsBackend = "bolt"
)

// ListingKind selects the shape of the gallery listing source.
type ListingKind string

const (
	// ListingGitHub is a repository-contents JSON API with tag and video support.
	ListingGitHub ListingKind = "github"
	// ListingIndex is a plain HTML directory index, images only.
	ListingIndex ListingKind = "index"
)

// Config is the top-level festival configuration, corresponding to festival.yml.
type Config struct {
	Site       SiteConfig       `yaml:"site" koanf:"site"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
	Prefs      PrefsConfig      `yaml:"prefs" koanf:"prefs"`
	Log        LogConfig        `yaml:"log" koanf:"log"`
	Theme      ThemeConfig      `yaml:"theme" koanf:"theme"`
	Nav        NavConfig        `yaml:"nav" koanf:"nav"`
	Background BackgroundConfig `yaml:"background" koanf:"background"`
	Countdown  CountdownConfig  `yaml:"countdown" koanf:"countdown"`
	Gallery    GalleryConfig    `yaml:"gallery" koanf:"gallery"`
	Chat       ChatConfig       `yaml:"chat" koanf:"chat"`
}

// SiteConfig describes the page sources and the static export.
type SiteConfig struct {
	Dir         string   `yaml:"dir" koanf:"dir"`
	OutputDir   string   `yaml:"output_dir" koanf:"output_dir"`
	Include     []string `yaml:"include" koanf:"include"`
	Exclude     []string `yaml:"exclude" koanf:"exclude"`
	ContentDir  string   `yaml:"content_dir" koanf:"content_dir"`
	Layout      string   `yaml:"layout" koanf:"layout"`
	DefaultLang string   `yaml:"default_lang" koanf:"default_lang"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `yaml:"port" koanf:"port"`
	AllowAllOrigins   bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	ChatPerMinute     int           `yaml:"chat_per_minute" koanf:"chat_per_minute"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" koanf:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" koanf:"read_header_timeout"`
}

// PrefsConfig selects the preference backend.
type PrefsConfig struct {
	Backend PrefsBackend `yaml:"backend" koanf:"backend"`
	Path    string       `yaml:"path" koanf:"path"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level   string `yaml:"level" koanf:"level"`
	File    string `yaml:"file" koanf:"file"`
	Console bool   `yaml:"console" koanf:"console"`
}

// ThemeConfig names the two stylesheets.
type ThemeConfig struct {
	Light string `yaml:"light" koanf:"light"`
	Dark  string `yaml:"dark" koanf:"dark"`
}

// NavConfig controls the page-exit animation.
type NavConfig struct {
	FadeDelay time.Duration `yaml:"fade_delay" koanf:"fade_delay"`
}

// BackgroundConfig is the rotating backdrop.
type BackgroundConfig struct {
	Images   []string      `yaml:"images" koanf:"images"`
	Interval time.Duration `yaml:"interval" koanf:"interval"`
}

// CountdownConfig is the event countdown. The remaining_* formats take
// the placeholders {d} {h} {m} {s}.
type CountdownConfig struct {
	Target       string `yaml:"target" koanf:"target"`
	Timezone     string `yaml:"timezone" koanf:"timezone"`
	RemainingJP  string `yaml:"remaining_jp" koanf:"remaining_jp"`
	RemainingEN  string `yaml:"remaining_en" koanf:"remaining_en"`
	InProgressJP string `yaml:"in_progress_jp" koanf:"in_progress_jp"`
	InProgressEN string `yaml:"in_progress_en" koanf:"in_progress_en"`
}

// GalleryConfig configures the listing source and lightbox.
type GalleryConfig struct {
	Source  ListingKind   `yaml:"source" koanf:"source"`
	URL     string        `yaml:"url" koanf:"url"`
	Token   string        `yaml:"token" koanf:"token"`
	Refresh string        `yaml:"refresh" koanf:"refresh"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`

	// ReloadInterval is the minimum spacing of on-demand refreshes.
	ReloadInterval time.Duration `yaml:"reload_interval" koanf:"reload_interval"`
	DefaultView    string        `yaml:"default_view" koanf:"default_view"`
	SlideInterval  time.Duration `yaml:"slide_interval" koanf:"slide_interval"`
}

// ChatConfig holds one canned-response table per language. Each table
// must contain a "default" entry.
type ChatConfig struct {
	Responses map[string]map[string]string `yaml:"responses" koanf:"responses"`
}
