package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port          string `yaml:"port"`
		SessionSecret string `yaml:"sessionSecret"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
		Path   string `yaml:"path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Questions struct {
		CacheTTL string `yaml:"cacheTTL"`
	} `yaml:"questions"`
	Presence struct {
		TTL       string `yaml:"ttl"`
		Heartbeat string `yaml:"heartbeat"`
	} `yaml:"presence"`
	Mentor struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"mentor"`
}

// DefaultSessionSecret signs cookies when nothing else is configured.
const DefaultSessionSecret = "starguide-dev-secret"

// ErrPlaceholderSecret is returned by Validate for a Postgres deployment
// still using a sample session secret.
var ErrPlaceholderSecret = errors.New("session secret is a placeholder; set " + EnvSessionSecret)

var placeholderSecrets = map[string]bool{DefaultSessionSecret: true, "change-me": true, "": true}

// Environment overrides, applied after the YAML file.
const (
	EnvDatabaseURL   = "STARGUIDE_DATABASE_URL"
	EnvRedisAddr     = "STARGUIDE_REDIS_ADDR"
	EnvSessionSecret = "STARGUIDE_SESSION_SECRET"
	EnvOpenAIKey     = "OPENAI_API_KEY"
)

// Default is the configuration used when no file exists: SQLite on disk,
// in-process caches and presence.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.SessionSecret = DefaultSessionSecret
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = "starguide.db"
	cfg.Redis.TTL = "10m"
	cfg.Questions.CacheTTL = "10m"
	cfg.Presence.TTL = "90s"
	cfg.Presence.Heartbeat = "30s"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped; existing variables win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Database.URL = v
		cfg.Database.Driver = DriverPostgres
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv(EnvSessionSecret); v != "" {
		cfg.Server.SessionSecret = v
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" && cfg.Mentor.APIKey == "" {
		cfg.Mentor.APIKey = v
	}
}

// PlaceholderSecret reports whether the session secret is a sample value.
func (c Config) PlaceholderSecret() bool {
	return placeholderSecrets[c.Server.SessionSecret]
}

// Validate rejects settings that are only safe for local use. A placeholder
// secret is tolerated on SQLite.
func (c Config) Validate() error {
	if c.Database.Driver == DriverPostgres && c.PlaceholderSecret() {
		return ErrPlaceholderSecret
	}
	return nil
}

// DSN is the data source for the configured driver.
func (c Config) DSN() string {
	if c.Database.Driver == DriverPostgres {
		return c.Database.URL
	}
	return c.Database.Path
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
