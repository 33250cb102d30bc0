package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory.
const FileName = "binview.toml"

// EnvPrefix prefixes environment overrides, e.g. BINVIEW_PORT=9090.
const EnvPrefix = "BINVIEW_"

// Config holds all configuration for the application
type Config struct {
	Backend     string        `koanf:"backend"`     // analysis backend base URL
	ResultsDir  string        `koanf:"results-dir"` // offline results instead of the backend
	WebMode     bool          `koanf:"web"`
	Port        int           `koanf:"port"`
	Watch       bool          `koanf:"watch"`
	OpenBrowser bool          `koanf:"open"`
	Verbosity   string        `koanf:"verbosity"`
	VerboseCnt  int           `koanf:"verbose"`
	LogJSON     bool          `koanf:"log-json"`
	Timeout     time.Duration `koanf:"timeout"`
	Retries     int           `koanf:"retries"`

	// Report mode
	Module     string `koanf:"module"`
	Collection string `koanf:"collection"`
	OID        string `koanf:"oid"`
	Select     string `koanf:"select"`
	File       string `koanf:"file"`   // read one result file instead of retrieving
	Export     string `koanf:"export"` // write the drawn graph as SVG
}

// Defaults are the lowest-priority values.
func Defaults() map[string]any {
	return map[string]any{
		"backend":     "http://localhost:8000/api",
		"results-dir": "",
		"web":         false,
		"port":        8080,
		"watch":       false,
		"open":        true,
		"verbosity":   "",
		"verbose":     0,
		"log-json":    false,
		"timeout":     "30s",
		"retries":     2,
		"module":      "call_graph",
		"collection":  "",
		"oid":         "",
		"select":      "",
		"file":        "",
		"export":      "",
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(f, FileName)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider(path), toml.Parser())

	// 3. Environment Variables
	// BINVIEW_RESULTS_DIR maps to results-dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Retries < 0 {
		return fmt.Errorf("invalid retries %d", c.Retries)
	}
	if c.Watch && c.ResultsDir == "" {
		return fmt.Errorf("--watch needs --results-dir")
	}
	return nil
}

// Offline reports whether results come from a directory instead of the backend.
func (c *Config) Offline() bool {
	return c.ResultsDir != ""
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]any
}

func makeMapProvider(m map[string]any) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]any, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
