package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Environment string // dev, prod, test
	LogFile     string // optional file path for logs
}

// Init configures the global zerolog logger.  Development environments
// get a human readable console writer; everything else writes JSON.
// When LogFile is set every line is also appended to that file.  The
// returned closer releases the file and is safe to call when no file is
// open.
func Init(cfg Config) (func() error, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if isDev(cfg.Environment) {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	closer := func() error { return nil }
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, err
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file.Close
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
	return closer, nil
}

func isDev(env string) bool {
	switch env {
	case "dev", "development", "local":
		return true
	}
	return false
}

type contextKey struct{}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &log.Logger
}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}
