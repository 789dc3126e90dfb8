package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(ConfigEnv, "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFetchWithCache(t *testing.T) {
	dir := t.TempDir()
	for name, data := range map[string]string{"a.bin": "abcd", "b.bin": "efgh"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cache := filepath.Join(t.TempDir(), "assets.snap")

	out, err := runCLI(t, "fetch", "--log-level", "error", "--base-dir", dir, "--cache", cache, "a.bin")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "1 assets (1 new), 1 fetches") {
		t.Fatalf("first run:\n%s", out)
	}

	out, err = runCLI(t, "fetch", "--log-level", "error", "--base-dir", dir, "--cache", cache, "--decode", "a.bin", "b.bin")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2 assets (1 new), 1 fetches") {
		t.Fatalf("second run did not reuse the cache:\n%s", out)
	}
	if !strings.Contains(out, "decoded b.bin as *loaders.BinaryData") {
		t.Fatalf("decode output missing:\n%s", out)
	}
}

func TestFetchCorruptCache(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "assets.snap")
	if err := os.WriteFile(cache, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "fetch", "--log-level", "error", "--cache", cache, "a.bin"); err == nil {
		t.Fatalf("corrupt cache accepted")
	}
}

func TestFetchBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anima-io.toml")
	if err := os.WriteFile(path, []byte("[loader]\ndisk_workers = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "fetch", "--config", path, "a.bin"); err == nil {
		t.Fatalf("invalid config accepted")
	}
}
