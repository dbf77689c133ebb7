// Package config resolves server settings from flags, NGTMPLS_* environment
// variables and an optional .ngtmpls.yaml file, in that order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ngtmpls/pkg/component"
	"github.com/walteh/ngtmpls/pkg/watcher"
)

const EnvPrefix = "NGTMPLS"

type Config struct {
	SourceDir string `mapstructure:"source-dir"`
	Extension string `mapstructure:"extension"`
	// Watch starts a file watcher over the source directory.
	Watch      bool          `mapstructure:"watch"`
	WatchDelay time.Duration `mapstructure:"watch-delay"`
	LogLevel   string        `mapstructure:"log-level"`
	// LogFile receives the console log; empty means stderr.
	LogFile string `mapstructure:"log-file"`
	// ForwardLevel is the lowest level mirrored to the editor.
	ForwardLevel string `mapstructure:"forward-level"`
}

func Defaults() Config {
	return Config{
		SourceDir:    component.DefaultSourceDir,
		Extension:    component.DefaultExtension,
		WatchDelay:   watcher.DefaultDelay,
		LogLevel:     "info",
		ForwardLevel: "warn",
	}
}

// RegisterFlags adds the config flags, with their defaults, to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Defaults()
	flags.String("source-dir", d.SourceDir, "directory under the workspace root holding component sources")
	flags.String("extension", d.Extension, "component source file extension")
	flags.Bool("watch", d.Watch, "re-index sources when they change on disk")
	flags.Duration("watch-delay", d.WatchDelay, "debounce delay for file watching")
	flags.String("log-level", d.LogLevel, "console log level (trace, debug, info, warn, error)")
	flags.String("log-file", d.LogFile, "write the console log to this file instead of stderr")
	flags.String("forward-level", d.ForwardLevel, "lowest log level mirrored to the editor")
}

// Load merges defaults, the config file, environment and flags. configFile
// may be empty, in which case .ngtmpls.yaml in dir is used if present.
func Load(flags *pflag.FlagSet, configFile, dir string) (*Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("source-dir", d.SourceDir)
	v.SetDefault("extension", d.Extension)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("watch-delay", d.WatchDelay)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("forward-level", d.ForwardLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.Errorf("binding flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Errorf("reading %s: %w", configFile, err)
		}
	} else if dir != "" {
		v.SetConfigName(".ngtmpls")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Errorf("reading config in %s: %w", dir, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Errorf("decoding config: %w", err)
	}

	if _, _, err := cfg.Levels(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Levels parses the console and forward log levels.
func (c *Config) Levels() (console, forward zerolog.Level, err error) {
	console, err = zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, 0, errors.Errorf("log-level %q: %w", c.LogLevel, err)
	}
	forward, err = zerolog.ParseLevel(c.ForwardLevel)
	if err != nil {
		return 0, 0, errors.Errorf("forward-level %q: %w", c.ForwardLevel, err)
	}
	return console, forward, nil
}

func (c *Config) ScanOptions() component.ScanOptions {
	return component.ScanOptions{SourceDir: c.SourceDir, Extension: c.Extension}
}
