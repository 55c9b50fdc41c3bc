package logger

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. format is "json" or "console".
func New(level, format string) (zerolog.Logger, error) {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(out io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var l zerolog.Logger
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		l = zerolog.New(out)
	case "console", "":
		l = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	default:
		return zerolog.Logger{}, errors.New("unsupported log format")
	}

	return l.With().Timestamp().Logger().Level(lvl), nil
}
