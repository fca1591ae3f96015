package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/nyxguard/internal/monitor"
	"github.com/raysh454/nyxguard/internal/reputation"
	"github.com/raysh454/nyxguard/internal/scanner"
	"github.com/raysh454/nyxguard/internal/server"
	"github.com/raysh454/nyxguard/internal/store"
	"github.com/raysh454/nyxguard/internal/webclient"
)

// DefaultConfigFile is read when no config path is given and it exists.
const DefaultConfigFile = "nyxguard.yaml"

const envPrefix = "NYXGUARD_"

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config aggregates the configuration of every component.
type Config struct {
	Log        LogConfig         `yaml:"log"`
	Store      store.Config      `yaml:"store"`
	WebClient  webclient.Config  `yaml:"webclient"`
	Reputation reputation.Config `yaml:"reputation"`
	Monitor    monitor.Config    `yaml:"monitor"`
	Scanner    scanner.Config    `yaml:"scanner"`
	Server     server.Config     `yaml:"server"`
}

// DefaultConfig returns a Config populated with each component's defaults.
func DefaultConfig() *Config {
	return &Config{
		Log:        LogConfig{Level: "info"},
		Store:      store.DefaultConfig(),
		WebClient:  webclient.DefaultConfig(),
		Reputation: reputation.DefaultConfig(),
		Monitor:    monitor.DefaultConfig(),
		Scanner:    scanner.DefaultConfig(),
		Server:     server.DefaultConfig(),
	}
}

// LoadConfig layers configuration sources, later ones winning: defaults,
// the YAML file at path (or DefaultConfigFile if present), a .env file in
// the working directory, then NYXGUARD_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides cfg from environment variables read through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	dur := func(name string, dst *time.Duration) {
		v, ok := lookup(envPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = d
	}
	boolean := func(name string, dst *bool) {
		v, ok := lookup(envPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			return
		}
		*dst = b
	}

	str("LISTEN_ADDR", &cfg.Server.ListenAddr)
	str("ALLOWED_ORIGIN", &cfg.Server.AllowedOrigin)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("STORE_PATH", &cfg.Store.Path)
	str("STORE_DSN", &cfg.Store.DSN)
	str("REDIS_URL", &cfg.Reputation.RedisURL)
	str("REPUTATION_BASE_URL", &cfg.Reputation.BaseURL)
	dur("REPUTATION_MIN_INTERVAL", &cfg.Reputation.MinRequestInterval)
	var client string
	str("WEBCLIENT", &client)
	if client != "" {
		cfg.WebClient.Client = webclient.Client(strings.ToLower(client))
	}
	boolean("WEBCLIENT_HEADLESS", &cfg.WebClient.Headless)
	str("LOG_LEVEL", &cfg.Log.Level)
	boolean("LOG_PRETTY", &cfg.Log.Pretty)

	return errors.Join(errs...)
}
