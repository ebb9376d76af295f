package config

import "time"

// DefaultExcludes are glob patterns never treated as pages.
var DefaultExcludes = []string{
	"**/partials/**",
	"**/_*.html",
}

// DefaultBackgrounds are the rotating backdrop images.
var DefaultBackgrounds = []string{
	"img/bg1.jpg",
	"img/bg2.jpg",
	"img/bg3.jpg",
}

// DefaultResponses are the festival assistant's canned replies.
var DefaultResponses = map[string]map[string]string{
	"jp": {
		"こんにちは":  "こんにちは！文化祭2026について何を知りたいですか？",
		"いつ":     "文化祭は 2026年9月20日 に開催予定です！",
		"場所":     "文化祭は学校のメインキャンパスで開催されます。",
		"時間":     "午前9時〜午後4時の予定です。",
		"アクセス":   "最寄り駅から徒歩10分です。",
		"入場料":    "入場は無料です！",
		"企画":     "クラス企画、ステージ企画、展示、飲食などがあります。",
		"default": "ご質問ありがとうございます！文化祭について知りたいことを入力してみてください。",
	},
	"en": {
		"hello":   "Hello! How can I help you with Bunkasai 2026?",
		"when":    "The festival will be held on September 20, 2026!",
		"where":   "It will take place at the main school campus.",
		"time":    "It is scheduled from 9:00 AM to 4:00 PM.",
		"access":  "It's a 10-minute walk from the nearest station.",
		"fee":     "Admission is free!",
		"events":  "There will be class events, stage shows, exhibitions, and food stalls.",
		"default": "Ask me anything about the festival!",
	},
}

// DefaultConfig returns a Config populated with sensible defaults.
// List and map fields are filled by ApplyDefaults after loading so that
// a configured list replaces the default instead of merging into it.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Dir:         "site",
			OutputDir:   "dist",
			ContentDir:  "content",
			Layout:      "page.html",
			DefaultLang: "jp",
		},
		Server: ServerConfig{
			Port:              8080,
			ChatPerMinute:     60,
			ShutdownTimeout:   10 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Prefs: PrefsConfig{
			Backend: PrefsSQLite,
			Path:    "data/festival.db",
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Theme: ThemeConfig{
			Light: "css/style.css",
			Dark:  "css/dark.css",
		},
		Nav: NavConfig{
			FadeDelay: 300 * time.Millisecond,
		},
		Background: BackgroundConfig{
			Interval: 8 * time.Second,
		},
		Countdown: CountdownConfig{
			Target:       "2026-09-20T09:00:00",
			Timezone:     "Asia/Tokyo",
			RemainingJP:  "文化祭まで：{d}日 {h}時間 {m}分 {s}秒",
			RemainingEN:  "Until festival: {d}d {h}h {m}m {s}s",
			InProgressJP: "文化祭開催中！",
			InProgressEN: "Festival is happening now!",
		},
		Gallery: GalleryConfig{
			Source:         ListingGitHub,
			Refresh:        "*/10 * * * *",
			Timeout:        15 * time.Second,
			ReloadInterval: 30 * time.Second,
			DefaultView:    "grid",
			SlideInterval:  3 * time.Second,
		},
	}
}

// ApplyDefaults fills list and map fields left empty by the loaded
// configuration.
func (c *Config) ApplyDefaults() {
	if len(c.Site.Include) == 0 {
		c.Site.Include = []string{"**/*.html"}
	}
	if len(c.Site.Exclude) == 0 {
		c.Site.Exclude = DefaultExcludes
	}
	if len(c.Background.Images) == 0 {
		c.Background.Images = DefaultBackgrounds
	}
	if len(c.Chat.Responses) == 0 {
		c.Chat.Responses = DefaultResponses
	}
}
