// Package logtrace configures the global zerolog logger and carries request ids
// through contexts.
package logtrace

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type requestIdKey struct{}

// InitLogger sets up the global logger on stderr with Unix timestamps. An empty or
// unknown level means info. Loggers taken from a context without one fall back to
// the global logger.
func InitLogger(level string) {
	initLogger(os.Stderr, level)
}

func initLogger(w io.Writer, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

// WithRequestId returns a context carrying id.
func WithRequestId(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIdKey{}, id)
}

// RequestIdFromContext extracts the request ID from the context.
func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, _ := ctx.Value(requestIdKey{}).(string)
	return r
}
