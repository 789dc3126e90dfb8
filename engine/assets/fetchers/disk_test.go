package fetchers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
	"github.com/spaghettifunk/anima-io/engine/systems"
)

func newJobs(t *testing.T) *systems.JobSystem {
	js, err := systems.NewJobSystem(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { js.Shutdown() })
	return js
}

func TestDiskFetch(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "models"), 0o755)
	os.WriteFile(filepath.Join(dir, "models", "car.obj"), []byte("obj"), 0o644)
	abs := filepath.Join(dir, "abs.txt")
	os.WriteFile(abs, []byte("abs"), 0o644)

	m := core.NewMetrics()
	d := NewDisk(dir, newJobs(t), m)
	keys := []assets.AssetKey{"models/car.obj", assets.NewKey(abs)}
	for i := 0; i < 10; i++ {
		keys = append(keys, assets.AssetKey("models/car.obj"))
	}
	store, err := d.Fetch(context.Background(), keys[:2])
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := store.Get("models/car.obj"); string(b) != "obj" {
		t.Fatalf("got %q", b)
	}
	if b, _ := store.Get(assets.NewKey(abs)); string(b) != "abs" {
		t.Fatalf("got %q", b)
	}
	if m.BytesFetched() != 6 {
		t.Fatalf("bytes %d", m.BytesFetched())
	}

	// more keys than workers and queue slots
	if _, err := d.Fetch(context.Background(), keys); err != nil {
		t.Fatal(err)
	}
}

func TestDiskFetchReportsFirstMissingKey(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("ok"), 0o644)
	d := NewDisk(dir, newJobs(t), nil)

	_, err := d.Fetch(context.Background(), []assets.AssetKey{"ok.txt", "first.txt", "second.txt"})
	var fe *core.FetchError
	if !errors.As(err, &fe) || fe.Key != "first.txt" || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want FetchError for first.txt, got %v", err)
	}
}

func TestDiskFetchAfterJobSystemShutdown(t *testing.T) {
	js, err := systems.NewJobSystem(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	js.Shutdown()

	d := NewDisk(t.TempDir(), js, nil)
	_, err = d.Fetch(context.Background(), []assets.AssetKey{"a.bin", "b.bin"})
	var fe *core.FetchError
	if !errors.As(err, &fe) || fe.Key != "a.bin" || !errors.Is(err, systems.ErrJobSystemClosed) {
		t.Fatalf("want FetchError for a.bin wrapping ErrJobSystemClosed, got %v", err)
	}
}
