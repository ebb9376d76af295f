package prefs

import (
	"fmt"

	"github.com/bunkasai/festival/internal/config"
	"github.com/bunkasai/festival/internal/db"
)

// Open creates the backend selected by cfg. The SQLite backend returns
// the opened database so callers can share it.
func Open(cfg config.PrefsConfig) (Backend, *db.DB, error) {
	switch cfg.Backend {
	case config.PrefsMemory:
		return NewMemory(), nil, nil
	case config.PrefsSQLite:
		database, err := db.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLite(database), database, nil
	case config.PrefsBolt:
		b, err := OpenBolt(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown prefs backend %q", cfg.Backend)
	}
}
