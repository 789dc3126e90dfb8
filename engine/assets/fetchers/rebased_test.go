package fetchers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

func TestRebasedFetch(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	r, err := NewRebased(srv.URL+"/game/index.html", NewNetwork(NetworkOptions{}))
	if err != nil {
		t.Fatal(err)
	}

	store, err := r.Fetch(context.Background(), []assets.AssetKey{"textures/a.png"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.Get("textures/a.png")
	if err != nil || string(b) != "ok /game/textures/a.png" {
		t.Fatalf("got %q %v", b, err)
	}
}

func TestRebasedNeedsAbsoluteBase(t *testing.T) {
	_, err := NewRebased("game/", NewNetwork(NetworkOptions{}))
	var pe *core.URLParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want URLParseError, got %v", err)
	}
}

func TestRebasedSameURLUnderTwoKeys(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	r, err := NewRebased(srv.URL+"/", NewNetwork(NetworkOptions{}))
	if err != nil {
		t.Fatal(err)
	}

	store, err := r.Fetch(context.Background(), []assets.AssetKey{"a.bin", "/a.bin"})
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []assets.AssetKey{"a.bin", "/a.bin"} {
		if !store.Has(k) {
			t.Fatalf("%s missing from %s", k, store)
		}
		if b, _ := store.Get(k); string(b) != "ok /a.bin" {
			t.Fatalf("%s: got %q", k, b)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("fetched the shared url %d times", n)
	}
}
