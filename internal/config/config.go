// Package config loads habitchart's process configuration from a YAML file,
// optional .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const appDir = "habitchart"

// Environment overrides, applied after the config file.
const (
	EnvDatabase  = "HABITCHART_DB"
	EnvExportDir = "HABITCHART_EXPORT_DIR"
	EnvLogLevel  = "HABITCHART_LOG_LEVEL"
	EnvLogFile   = "HABITCHART_LOG_FILE"
)

// Config holds all habitchart configuration.
type Config struct {
	DatabasePath string `yaml:"database_path"`
	// ExportDir receives files written from the TUI export picker.
	ExportDir string `yaml:"export_dir"`
	// StartDir is where the file picker opens.
	StartDir string `yaml:"start_dir"`

	Log   LogConfig   `yaml:"log"`
	Chart ChartConfig `yaml:"chart"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty means stderr
}

type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Dir returns ~/.config/habitchart.
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, appDir), nil
}

// DefaultPath returns ~/.config/habitchart/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the configuration used when no file or environment overrides it.
func Default() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home dir: %w", err)
	}
	return Config{
		DatabasePath: filepath.Join(dir, "habitchart.db"),
		ExportDir:    home,
		StartDir:     home,
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "habitchart.log"),
		},
		Chart: ChartConfig{Width: 100, Height: 20},
	}, nil
}

// Load reads the YAML file at path over the defaults, then .env files, then
// the environment. A missing config file or .env file is not an error.
func Load(path string, envFiles ...string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	cfg.applyEnv()

	cfg.DatabasePath = expandHome(cfg.DatabasePath)
	cfg.ExportDir = expandHome(cfg.ExportDir)
	cfg.StartDir = expandHome(cfg.StartDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv(EnvExportDir); v != "" {
		c.ExportDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		c.Log.File = v
	}
}

func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("config: database_path is empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("config: chart size must be positive, got %dx%d", c.Chart.Width, c.Chart.Height)
	}
	return nil
}

// Save writes the config as YAML, creating the directory if needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
