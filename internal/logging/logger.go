// Package logging builds the slog logger used across healthdash. Records are
// written by zerolog; pretty console output is opt-in.
package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"

	"github.com/hazz-dev/healthdash/internal/config"
)

// New returns a slog.Logger writing to out at the configured level.
func New(cfg config.LoggingConfig, out io.Writer) (*slog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	base := zerolog.New(out).
		With().
		Timestamp().
		Logger().
		Level(level)

	return Slog(base, level), nil
}

// Slog adapts a zerolog logger to the slog API.
func Slog(base zerolog.Logger, level zerolog.Level) *slog.Logger {
	translated := slog.LevelDebug
	for sl, zl := range slogzerolog.LogLevels {
		if zl == level {
			translated = sl
			break
		}
	}
	return slog.New(slogzerolog.Option{
		Level:  translated,
		Logger: &base,
	}.NewZerologHandler())
}

