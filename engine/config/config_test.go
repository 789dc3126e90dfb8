package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level = "debug"

[loader]
base_dir = "assets"
disk_workers = 2

[network]
conn_per_host = 3
request_timeout = "1m30s"
default_scheme = "http"
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Loader.BaseDir != "assets" || cfg.Loader.DiskWorkers != 2 {
		t.Fatalf("loader %+v", cfg.Loader)
	}
	if cfg.Network.ConnPerHost != 3 || time.Duration(cfg.Network.RequestTimeout) != 90*time.Second {
		t.Fatalf("network %+v", cfg.Network)
	}
	// untouched keys keep their defaults
	if !cfg.Network.Enabled || time.Duration(cfg.Network.ConnectTimeout) != 5*time.Second {
		t.Fatalf("defaults lost: %+v", cfg.Network)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[loader]\nbase_dri = \"typo\"\n"))
	if err == nil || !strings.Contains(err.Error(), "base_dri") {
		t.Fatalf("unknown key not reported: %v", err)
	}
}

func TestParseBadDuration(t *testing.T) {
	if _, err := Parse([]byte("[network]\nconnect_timeout = \"soon\"\n")); err == nil {
		t.Fatalf("bad duration accepted")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"log level":     func(c *Config) { c.LogLevel = "loud" },
		"workers":       func(c *Config) { c.Loader.DiskWorkers = 0 },
		"relative base": func(c *Config) { c.Loader.BaseURL = "assets/" },
		"base offline": func(c *Config) {
			c.Loader.BaseURL = "https://cdn.example.com/assets/"
			c.Network.Enabled = false
		},
		"conn per host": func(c *Config) { c.Network.ConnPerHost = 0 },
		"timeout":       func(c *Config) { c.Network.RequestTimeout = Duration(-time.Second) },
		"scheme":        func(c *Config) { c.Network.DefaultScheme = "ftp" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: invalid config accepted", name)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anima-io.toml")
	if err := os.WriteFile(path, []byte("[loader]\nbase_url = \"https://cdn.example.com/game/\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Loader.BaseURL != "https://cdn.example.com/game/" {
		t.Fatalf("base url %q", cfg.Loader.BaseURL)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("250ms")); err != nil {
		t.Fatal(err)
	}
	b, _ := d.MarshalText()
	if string(b) != "250ms" {
		t.Fatalf("marshal %s", b)
	}
}
