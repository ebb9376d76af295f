// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/bunkasai/festival/internal/config"
)

// Init points the global logger at the console and, when cfg.File is set,
// a size-rotated log file. verbose forces debug level.
func Init(cfg config.LogConfig, verbose bool, extra ...io.Writer) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    5,
			MaxBackups: 3,
		})
	}
	writers = append(writers, extra...)
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	return nil
}

// Component returns a child of the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
