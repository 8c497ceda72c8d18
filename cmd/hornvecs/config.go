package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/hornvecs/internal/logger"
)

const (
	envConfig    = "HORNVECS_CONFIG"
	envLogLevel  = "HORNVECS_LOG_LEVEL"
	envLogFormat = "HORNVECS_LOG_FORMAT"
)

// Config represents the hornvecs configuration file
// (~/.config/hornvecs/config.yaml).
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// NoLineEdit disables the interactive line editor of nn.
	NoLineEdit *bool `yaml:"no_line_edit"`
}

func configPath() string {
	if p := os.Getenv(envConfig); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, programName, "config.yaml")
}

// loadConfig reads the config file at path. A missing file yields a zero
// Config and no error.
func loadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) lineEditEnabled() bool {
	return c.NoLineEdit == nil || !*c.NoLineEdit
}

// newLogger builds the diagnostic logger. Environment variables take
// precedence over the config file.
func newLogger(cfg Config, w io.Writer) logger.Logger {
	level := cfg.LogLevel
	if v := os.Getenv(envLogLevel); v != "" {
		level = v
	}
	format := cfg.LogFormat
	if v := os.Getenv(envLogFormat); v != "" {
		format = v
	}
	if format == "" {
		format = "pretty"
	}
	color := false
	if f, ok := w.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		color = isTerminal(f)
	}
	return logger.Setup(format, logger.ParseLevel(level, slog.LevelWarn), w, color)
}
