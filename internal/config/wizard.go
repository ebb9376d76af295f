package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultPath is the configuration file written by the wizard.
const DefaultPath = "festival.yml"

// detectSiteDir returns the first conventional site directory that exists.
func detectSiteDir() string {
	for _, dir := range []string{"site", "public", "www", "docs"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "site"
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to festival! Let's configure your site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Site directory.
	dirPrompt := promptui.Prompt{
		Label:   "Directory containing the site's HTML pages",
		Default: detectSiteDir(),
	}
	dir, err := dirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site dir: %w", err)
	}
	cfg.Site.Dir = dir

	// 2. Default language for the static export.
	langPrompt := promptui.Select{
		Label: "Default language",
		Items: []string{"jp", "en"},
	}
	_, lang, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("language selection: %w", err)
	}
	cfg.Site.DefaultLang = lang

	// 3. Gallery listing source.
	sourcePrompt := promptui.Select{
		Label: "Gallery listing source",
		Items: []string{
			"github: repository contents API (tags and videos)",
			"index: plain directory index (images only)",
		},
	}
	sourceIdx, _, err := sourcePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("listing selection: %w", err)
	}
	cfg.Gallery.Source = []ListingKind{ListingGitHub, ListingIndex}[sourceIdx]

	urlDefault := "https://api.github.com/repos/OWNER/REPO/contents/gallery"
	if cfg.Gallery.Source == ListingIndex {
		urlDefault = "https://example.com/gallery/"
	}
	urlPrompt := promptui.Prompt{
		Label:   "Listing URL",
		Default: urlDefault,
		Validate: func(s string) error {
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
				return fmt.Errorf("must be an http(s) URL")
			}
			return nil
		},
	}
	cfg.Gallery.URL, err = urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("listing url: %w", err)
	}

	// 4. Preference storage.
	backendPrompt := promptui.Select{
		Label: "Where to keep visitor preferences",
		Items: []string{"sqlite", "bolt", "memory"},
	}
	_, backend, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend selection: %w", err)
	}
	cfg.Prefs.Backend = PrefsBackend(backend)
	if cfg.Prefs.Backend == PrefsBolt {
		cfg.Prefs.Path = "data/prefs.bolt"
	}

	// 5. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 6. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra page exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	cfg.Site.Exclude = append(append([]string(nil), DefaultExcludes...), splitAndTrim(excludeStr)...)

	cfg.ApplyDefaults()

	if cfg.Gallery.Source == ListingGitHub && os.Getenv(EnvPrefix+"GALLERY__TOKEN") == "" {
		fmt.Printf("\nNote: set %sGALLERY__TOKEN to raise the GitHub API rate limit.\n", EnvPrefix)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
