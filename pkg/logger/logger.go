package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/rs/zerolog"
)

type Config struct {
	Level      string `yaml:"level" json:"level" default:"info"`
	Format     string `yaml:"format" json:"format" default:"console"` // json or console
	Output     string `yaml:"output" json:"output" default:"stderr"`  // stdout, stderr, or file path
	TimeFormat string `yaml:"time_format" json:"time_format" default:"2006-01-02T15:04:05Z07:00"`
}

// New builds a zerolog logger. The returned closer releases a log file and
// is a no-op for the standard streams.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	if err := defaults.Set(&cfg); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("logger defaults: %w", err)
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level: %w", err)
	}

	var (
		output io.Writer
		closer io.Closer = nopCloser{}
	)
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("could not open log file: %w", err)
		}
		output, closer = file, file
	}

	switch cfg.Format {
	case "console":
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	case "json":
	default:
		_ = closer.Close()
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	l := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
	return l, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
