package config

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ngtmpls/pkg/debug"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ConsoleWriter returns where the local log goes: LogFile as JSON lines when
// set, otherwise a human readable stream on stderr.
func (c *Config) ConsoleWriter(stderr io.Writer) (io.Writer, io.Closer, error) {
	if c.LogFile == "" {
		return zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05.000"}, nopCloser{}, nil
	}

	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.Errorf("opening log file: %w", err)
	}
	return f, f, nil
}

// NewLogger builds the process logger on top of ConsoleWriter.
func (c *Config) NewLogger(stderr io.Writer) (zerolog.Logger, io.Writer, io.Closer, error) {
	console, _, err := c.Levels()
	if err != nil {
		return zerolog.Nop(), nil, nil, err
	}

	w, closer, err := c.ConsoleWriter(stderr)
	if err != nil {
		return zerolog.Nop(), nil, nil, err
	}

	logger := zerolog.New(w).
		Level(console).
		Hook(debug.TimeHook{}).
		Hook(debug.CallerHook{WithColor: c.LogFile == ""})

	return logger, w, closer, nil
}

// Setup loads the config relative to the working directory and returns ctx
// carrying the process logger. The closer releases the log file, if any.
func Setup(ctx context.Context, flags *pflag.FlagSet, configFile string) (context.Context, *Config, io.Closer, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return ctx, nil, nil, errors.Errorf("getting working directory: %w", err)
	}

	cfg, err := Load(flags, configFile, cwd)
	if err != nil {
		return ctx, nil, nil, errors.Errorf("loading config: %w", err)
	}

	logger, _, closer, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return ctx, nil, nil, errors.Errorf("creating logger: %w", err)
	}

	return logger.WithContext(ctx), cfg, closer, nil
}
