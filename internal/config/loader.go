package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"eventcore/internal/common/fsutil"
	"eventcore/internal/errs"
	"eventcore/internal/index"
)

// Environment overrides, applied after the file and before flags.
const (
	EnvIndex    = "EVENTCORE_INDEX"
	EnvLogLevel = "EVENTCORE_LOG_LEVEL"
)

// Config holds runtime parameters for eventctl and embedding programs.
// Zero values mean "unspecified" and are replaced by Defaults.
type Config struct {
	IndexPath    string   `json:"index_path" yaml:"index_path" toml:"index_path"`
	IndexFormat  string   `json:"index_format" yaml:"index_format" toml:"index_format"`
	Locations    []string `json:"locations" yaml:"locations" toml:"locations"`
	Strict       bool     `json:"strict" yaml:"strict" toml:"strict"`
	LogLevel     string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	LogFile      string   `json:"log_file" yaml:"log_file" toml:"log_file"`
	LogMaxSizeMB int      `json:"log_max_size_mb" yaml:"log_max_size_mb" toml:"log_max_size_mb"`
	MetricsFile  string   `json:"metrics_file" yaml:"metrics_file" toml:"metrics_file"`
}

func Defaults() Config {
	return Config{
		IndexPath:    "var/listener-index.json",
		LogLevel:     "info",
		LogFormat:    "console",
		LogMaxSizeMB: 10,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults fills every unspecified field from Defaults.
func (c Config) WithDefaults() Config {
	d := Defaults()
	if c.IndexPath == "" {
		c.IndexPath = d.IndexPath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = d.LogMaxSizeMB
	}
	return c
}

// ApplyEnv overrides fields from the environment. getenv is usually os.Getenv.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if v := getenv(EnvIndex); v != "" {
		c.IndexPath = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return c
}

// Resolve loads path (when set), then applies defaults and the environment.
func Resolve(path string) (Config, error) {
	var cfg Config
	if path != "" {
		p, err := fsutil.ExpandHome(path)
		if err == nil {
			cfg, err = Load(p)
		}
		if err != nil {
			return cfg, errs.Config("config load", path, err)
		}
	}
	cfg = cfg.ApplyEnv(os.Getenv).WithDefaults()
	for _, p := range []*string{&cfg.IndexPath, &cfg.LogFile, &cfg.MetricsFile} {
		expanded, err := fsutil.ExpandHome(*p)
		if err != nil {
			return cfg, errs.Config("config", *p, err)
		}
		*p = expanded
	}
	return cfg, cfg.Validate()
}

// Format returns the index artifact format, explicit or guessed from the path.
func (c Config) Format() (index.Format, error) {
	if c.IndexFormat == "" {
		return index.FormatFromPath(c.IndexPath), nil
	}
	return index.ParseFormat(c.IndexFormat)
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := c.Format(); err != nil {
		return errs.Config("config", "index_format", err)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return errs.Config("config", "log_level", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return errs.Configf("config", "log_format", "want console or json, got %q", c.LogFormat)
	}
	if c.LogMaxSizeMB < 0 {
		return errs.Configf("config", "log_max_size_mb", "must not be negative")
	}
	return nil
}
