package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func New(env, level string) zerolog.Logger {
	var out io.Writer = os.Stderr
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return newWithWriter(out, level)
}

func newWithWriter(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "complaint-service").Logger()
}
