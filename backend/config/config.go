package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	DriverScylla = "scylla"
	DriverSQLite = "sqlite"

	ListenAddr = "0.0.0.0:8080"

	defaultScyllaURI  = "127.0.0.1:9042"
	defaultSQLitePath = "./database.db"
)

type Config struct {
	ScyllaURI  string
	Driver     string
	SQLitePath string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when it exists; variables already
// set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		ScyllaURI:  lookupEnv("scylla_uri", defaultScyllaURI),
		Driver:     getenv("DB_DRIVER", DriverScylla),
		SQLitePath: getenv("SQLITE_PATH", defaultSQLitePath),
	}

	switch cfg.Driver {
	case DriverScylla, DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}
	return cfg, nil
}

// lookupEnv returns the value of key whenever it is set, even if empty.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// getenv treats an empty value as unset.
func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
