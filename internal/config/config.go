package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the dashboard settings.
type Config struct {
	Server         string
	ReconnectDelay time.Duration
	SearchDebounce time.Duration
	LogFile        string
	LogLevel       string
	OutputsPrefix  string
}

const (
	defaultConfigPath     = "~/.config/squadboard/config.toml"
	defaultServer         = "127.0.0.1:8000"
	defaultReconnectDelay = 3 * time.Second
	defaultSearchDebounce = 350 * time.Millisecond
	defaultLogFile        = "~/.local/state/squadboard/squadboard.log"
	defaultLogLevel       = "info"
	defaultOutputsPrefix  = "/outputs/"

	envServer   = "SQUADBOARD_SERVER"
	envLogLevel = "SQUADBOARD_LOG_LEVEL"
	envLogFile  = "SQUADBOARD_LOG_FILE"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:         defaultServer,
		ReconnectDelay: defaultReconnectDelay,
		SearchDebounce: defaultSearchDebounce,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		OutputsPrefix:  defaultOutputsPrefix,
	}
}

// Load reads the config file at path (the default location when empty),
// then applies environment overrides. A .env file in the working directory
// is loaded first without replacing variables already set. A missing
// config file yields defaults.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		if err := parse(file, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func parse(r io.Reader, cfg *Config) error {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Server         string `toml:"server"`
		ReconnectDelay string `toml:"reconnect_delay"`
		SearchDebounce string `toml:"search_debounce"`
		LogFile        string `toml:"log_file"`
		LogLevel       string `toml:"log_level"`
		OutputsPrefix  string `toml:"outputs_prefix"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.Server); v != "" {
		cfg.Server = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.OutputsPrefix); v != "" {
		cfg.OutputsPrefix = v
	}
	if cfg.ReconnectDelay, err = parseDuration("reconnect_delay", raw.ReconnectDelay, cfg.ReconnectDelay); err != nil {
		return err
	}
	if cfg.SearchDebounce, err = parseDuration("search_debounce", raw.SearchDebounce, cfg.SearchDebounce); err != nil {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envServer)); v != "" {
		cfg.Server = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(envLogFile)); v != "" {
		cfg.LogFile = mustExpand(v)
	}
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %s: must be positive", key)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
