// Package config defines the explicit configuration model for the pipeline.
// Values are passed into stages rather than read from ambient globals, so the
// core stays testable without environment setup. A config can be decoded from
// a JSON file and selectively overridden from the environment; precedence is
// flag > environment > file > defaults, resolved by the caller.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config is the top-level pipeline configuration.
type Config struct {
	// Rows is the synthetic dataset size for generation.
	Rows int `json:"rows"`

	// Format names the file encoding: csv, json, or parquet.
	Format string `json:"format"`

	// DataDir is where generated dataset files are written.
	DataDir string `json:"data_dir"`

	// BatchSize bounds rows per load batch; zero means the loader default.
	BatchSize int `json:"batch_size"`

	// Seed seeds the generator; zero means time-derived.
	Seed int64 `json:"seed"`

	// Backend selects the storage backend kind (postgres, sqlite, mysql).
	Backend string `json:"backend"`

	// Database addresses the relational store.
	Database Database `json:"database"`
}

// Database holds the relational store connection parts.
type Database struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// Default returns the configuration used when nothing is specified: a local
// Postgres on its default port and a 10k-row CSV dataset.
func Default() Config {
	return Config{
		Rows:    10000,
		Format:  "csv",
		DataDir: "data/raw",
		Backend: "postgres",
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			Name:     "orchestrator_test",
			User:     "postgres",
			Password: "postgres",
		},
	}
}

// Load decodes a JSON config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overrides cfg from the process environment. Recognized variables:
// DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD, ETL_BACKEND, ETL_DATA_DIR.
func FromEnv(cfg Config) Config {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = p
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ETL_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("ETL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	return cfg
}

// DSN renders the connection string for the configured backend kind.
func (c Config) DSN() string {
	switch c.Backend {
	case "mysql":
		return c.Database.MySQLDSN()
	case "sqlite":
		// Name is interpreted as a file path for SQLite.
		return c.Database.Name
	default:
		return c.Database.PostgresDSN()
	}
}

// PostgresDSN renders a postgres:// URL with credentials escaped.
func (d Database) PostgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	return u.String()
}

// MySQLDSN renders a go-sql-driver DSN. parseTime keeps DATETIME scans as
// time.Time.
func (d Database) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", d.User, d.Password, d.Host, d.Port, d.Name)
}
