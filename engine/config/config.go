package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-io/engine/core"
)

// Duration decodes TOML strings such as "5s" or "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type LoaderConfig struct {
	// Relative local keys are read from here. Empty means the working directory.
	BaseDir string `toml:"base_dir"`
	// When set, local keys are fetched over the network relative to this URL
	// instead of being read from disk.
	BaseURL     string `toml:"base_url"`
	DiskWorkers int    `toml:"disk_workers"`
}

type NetworkConfig struct {
	Enabled        bool     `toml:"enabled"`
	ConnPerHost    int      `toml:"conn_per_host"`
	ConnectTimeout Duration `toml:"connect_timeout"`
	RequestTimeout Duration `toml:"request_timeout"`
	UserAgent      string   `toml:"user_agent"`
	// Reject HTML bodies served for non-HTML keys, as many servers answer
	// missing files with an HTML page and a 200.
	SniffHTML     bool   `toml:"sniff_html"`
	DefaultScheme string `toml:"default_scheme"`
}

type Config struct {
	LogLevel string        `toml:"log_level"`
	Loader   LoaderConfig  `toml:"loader"`
	Network  NetworkConfig `toml:"network"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Loader: LoaderConfig{
			DiskWorkers: 4,
		},
		Network: NetworkConfig{
			Enabled:        true,
			ConnPerHost:    8,
			ConnectTimeout: Duration(5 * time.Second),
			RequestTimeout: Duration(30 * time.Second),
			UserAgent:      core.UserAgent,
			SniffHTML:      true,
			DefaultScheme:  "https",
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, fmt.Errorf("config: %s", sme.String())
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if c.Loader.DiskWorkers < 1 {
		return fmt.Errorf("config: loader.disk_workers must be at least 1, got %d", c.Loader.DiskWorkers)
	}
	if c.Loader.BaseURL != "" {
		u, err := url.Parse(c.Loader.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: loader.base_url must be an absolute url, got %q", c.Loader.BaseURL)
		}
		if !c.Network.Enabled {
			return errors.New("config: loader.base_url needs network.enabled")
		}
	}
	if c.Network.ConnPerHost < 1 {
		return fmt.Errorf("config: network.conn_per_host must be at least 1, got %d", c.Network.ConnPerHost)
	}
	if c.Network.ConnectTimeout < 0 || c.Network.RequestTimeout < 0 {
		return errors.New("config: network timeouts must not be negative")
	}
	switch c.Network.DefaultScheme {
	case "http", "https":
	default:
		return fmt.Errorf("config: network.default_scheme must be http or https, got %q", c.Network.DefaultScheme)
	}
	return nil
}
