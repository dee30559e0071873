package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file at the project root.
const FileName = "luca.yaml"

// Config represents the top-level luca.yaml configuration.
type Config struct {
	User    UserConfig    `yaml:"user"`
	Storage StorageConfig `yaml:"storage"`
	Import  ImportConfig  `yaml:"import"`
	Rules   RulesConfig   `yaml:"rules"`
	Log     LogConfig     `yaml:"log"`
	Git     GitConfig     `yaml:"git"`
	Server  ServerConfig  `yaml:"server"`
}

// UserConfig identifies whose ledger this project holds.
type UserConfig struct {
	ID string `yaml:"id"`
}

// StorageConfig selects the SQL backend. Driver "none" keeps the ledger
// local only.
type StorageConfig struct {
	Driver    string        `yaml:"driver"` // sqlite, postgres or none
	DSN       string        `yaml:"dsn"`    // file path for sqlite, relative to the project root
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ImportConfig locates bank exports waiting to be imported.
type ImportConfig struct {
	Dir string `yaml:"dir"`
}

// RulesConfig points at an optional categorization rule file.
type RulesConfig struct {
	File string `yaml:"file,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads a luca.yaml file from disk. Missing fields take their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(userID string) *Config {
	return &Config{
		User: UserConfig{ID: userID},
		Storage: StorageConfig{
			Driver:    "sqlite",
			DSN:       "data/luca.db",
			BatchSize: 500,
			Timeout:   10 * time.Second,
		},
		Import: ImportConfig{Dir: "import"},
		Log:    LogConfig{Level: "info"},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Luca",
			AuthorEmail: "luca@localhost",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
		}
	case "none":
	default:
		return fmt.Errorf("storage.driver must be sqlite, postgres or none, got %q", c.Storage.Driver)
	}
	if c.Storage.BatchSize < 0 {
		return fmt.Errorf("storage.batch_size must not be negative")
	}
	if c.Storage.Timeout < 0 {
		return fmt.Errorf("storage.timeout must not be negative")
	}
	return nil
}

// Path resolves p against the project root unless it is absolute.
func Path(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
