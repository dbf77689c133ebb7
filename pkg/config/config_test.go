package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/config"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(flagSet(t), "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, config.Defaults(), *cfg)
	assert.Equal(t, component.ScanOptions{SourceDir: "src", Extension: "ts"}, cfg.ScanOptions())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ngtmpls.yaml"), []byte("source-dir: lib\nextension: mts\nwatch: true\n"), 0o644))

	t.Setenv("NGTMPLS_EXTENSION", "cts")
	t.Setenv("NGTMPLS_WATCH_DELAY", "1s")

	cfg, err := config.Load(flagSet(t, "--log-level=debug", "--extension=ts"), "", dir)
	require.NoError(t, err)

	assert.Equal(t, "lib", cfg.SourceDir, "from file")
	assert.True(t, cfg.Watch, "from file")
	assert.Equal(t, time.Second, cfg.WatchDelay, "from env")
	assert.Equal(t, "ts", cfg.Extension, "flag beats env and file")
	assert.Equal(t, "debug", cfg.LogLevel, "from flag")
}

func TestLoadExplicitFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("forward-level: error\n"), 0o644))

	cfg, err := config.Load(nil, file, "")
	require.NoError(t, err)

	_, forward, err := cfg.Levels()
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, forward)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(nil, filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)

	t.Setenv("NGTMPLS_LOG_LEVEL", "loud")
	_, err = config.Load(nil, "", "")
	require.Error(t, err)
}

func TestNewLoggerToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ngtmpls.log")

	cfg := config.Defaults()
	cfg.LogFile = file
	cfg.LogLevel = "warn"

	logger, _, closer, err := cfg.NewLogger(os.Stderr)
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"message":"kept"`)
	assert.Contains(t, string(data), "config_test.go:")
}
