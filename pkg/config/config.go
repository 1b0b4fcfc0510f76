package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config - runtime settings, environment (and .env) first, flags override
type Config struct {
	ProjectID          string
	TopicPrefix        string
	SubscriptionPrefix string
	StoreDriver        string
	StoreDSN           string
	HTTPAddr           string
	LogFormat          string
	LogLevel           string
	ExportDir          string
}

// Load - reads .env files (missing ones are fine), the environment and the command line.
// Callers may register their own flags on fs before calling Load.
func Load(fs *flag.FlagSet, args []string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("cannot load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	fs.StringVar(&cfg.ProjectID, "project", env("PUBSUB_PROJECT", "test-project"), "GCP Project ID")
	fs.StringVar(&cfg.TopicPrefix, "topic-prefix", env("STATION_TOPIC_PREFIX", "scanner-"), "Pub/Sub topic prefix of scanner stations")
	fs.StringVar(&cfg.SubscriptionPrefix, "subscription-prefix", env("SUBSCRIPTION_PREFIX", "omniscan-"), "Pub/Sub subscription name prefix")
	fs.StringVar(&cfg.StoreDriver, "store", env("STORE_DRIVER", "sqlite"), "Storage driver: sqlite, mysql or memory")
	fs.StringVar(&cfg.StoreDSN, "dsn", env("STORE_DSN", "omniscan.db"), "Storage data source name")
	fs.StringVar(&cfg.HTTPAddr, "addr", env("HTTP_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.LogFormat, "log-format", env("LOG_FORMAT", "text"), "Log format: text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", env("LOG_LEVEL", "info"), "Log level")
	fs.StringVar(&cfg.ExportDir, "export-dir", env("EXPORT_DIR", "."), "Directory CSV exports are written to")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate - rejects settings no component can work with
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite", "mysql", "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StoreDriver)
	}
	if c.StoreDriver != "memory" && c.StoreDSN == "" {
		return fmt.Errorf("storage driver %s needs a DSN", c.StoreDriver)
	}
	if c.TopicPrefix == "" {
		return fmt.Errorf("station topic prefix must not be empty")
	}
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
