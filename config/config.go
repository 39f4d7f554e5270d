package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"studentdb/logger"
)

type Config struct {
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Log     logger.Config `yaml:"log" toml:"log"`
}

type StorageConfig struct {
	Dir         string `yaml:"dir" toml:"dir"`                 // directory holding the database files
	Name        string `yaml:"name" toml:"name"`               // database name, files are <name>.dat/.ix1/.ix2
	Order       int    `yaml:"order" toml:"order"`             // B-tree order of both indexes
	Compression string `yaml:"compression" toml:"compression"` // none, snappy or lz4
	SyncWrites  bool   `yaml:"sync_writes" toml:"sync_writes"`
}

// searched in order when Load is called without a path
var defaultPaths = []string{"studentdb.yaml", "configs/studentdb.yaml", "studentdb.toml"}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Dir:         "data",
			Name:        "student1",
			Order:       3,
			Compression: "none",
		},
		Log: logger.Config{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads a YAML or TOML file (chosen by extension) over the defaults.
// With an empty path the default locations are tried and, if none exists,
// the defaults are returned.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				return load(cfg, p)
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}
	return load(cfg, configPath)
}

func load(cfg *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data"
	}
	if cfg.Storage.Name == "" {
		cfg.Storage.Name = "student1"
	}
	if cfg.Storage.Order < 3 {
		cfg.Storage.Order = 3
	}
	if cfg.Storage.Compression == "" {
		cfg.Storage.Compression = "none"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 10
	}
}
