// Package prefs persists the per-visitor language and dark-mode flags.
package prefs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bunkasai/festival/internal/logging"
)

// Preference keys.
const (
	KeyLang     = "lang"
	KeyDarkMode = "darkmode"
)

// Dark-mode flag values.
const (
	On  = "on"
	Off = "off"
)

// KV is a string key-value capability scoped to one visitor.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Backend hands out per-visitor KV scopes.
type Backend interface {
	Scope(visitorID string) KV
	Close() error
}

// Store reads and writes the two preference flags over a KV.
type Store struct {
	kv  KV
	log zerolog.Logger
}

// NewStore wraps kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv, log: logging.Component("prefs")}
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("reading preference")
		return "", false
	}
	return v, ok
}

// Lang returns the stored language, if any.
func (s *Store) Lang(ctx context.Context) (string, bool) {
	return s.get(ctx, KeyLang)
}

// SetLang persists the language.
func (s *Store) SetLang(ctx context.Context, lang string) error {
	return s.kv.Set(ctx, KeyLang, lang)
}

// DarkMode reports whether the dark-mode flag is "on". Unset counts as off.
func (s *Store) DarkMode(ctx context.Context) bool {
	v, _ := s.get(ctx, KeyDarkMode)
	return v == On
}

// SetDarkMode persists the dark-mode flag as "on" or "off".
func (s *Store) SetDarkMode(ctx context.Context, on bool) error {
	v := Off
	if on {
		v = On
	}
	return s.kv.Set(ctx, KeyDarkMode, v)
}
