package config

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
)

// DefaultPath is the config file read when --config is not given
const DefaultPath = "fruitbid.yaml"

// Config is the full application configuration
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Server      ServerConfig      `yaml:"server"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Log         LogConfig         `yaml:"log"`
}

// StoreConfig selects and locates the lot and bid store
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite3, sqlite or memory
	Path   string `yaml:"path"`
	Seed   bool   `yaml:"seed"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MarketplaceConfig struct {
	TopBids int `yaml:"top_bids"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: "sqlite3",
			Path:   "fruitbid.db",
			Seed:   true,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			SessionTTL:      12 * time.Hour,
			ShutdownTimeout: 5 * time.Second,
		},
		Marketplace: MarketplaceConfig{TopBids: 3},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (missing file means defaults), then .env, then the environment
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv exports variables from the given files without overriding ones already set.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: failed to load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("FRUITBID_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("FRUITBID_DB_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = listenAddr(v)
	}
	if v := os.Getenv("FRUITBID_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FRUITBID_SEED"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: FRUITBID_SEED: %w", err)
		}
		c.Store.Seed = seed
	}
	if v := os.Getenv("FRUITBID_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: FRUITBID_SESSION_TTL: %w", err)
		}
		c.Server.SessionTTL = ttl
	}
	return nil
}

// listenAddr turns a bare port number into ":port"; anything else is used as given
func listenAddr(v string) string {
	if _, err := strconv.ParseUint(v, 10, 16); err == nil {
		return ":" + v
	}
	return v
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite3", "sqlite":
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("config: store.path is required for sqlite drivers")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Server.SessionTTL <= 0 {
		return errors.New("config: server.session_ttl must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("config: server.shutdown_timeout must be positive")
	}
	if c.Marketplace.TopBids <= 0 {
		return errors.New("config: marketplace.top_bids must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}
