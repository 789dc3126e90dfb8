package assets

import (
	"errors"
	"strings"
	"testing"

	"github.com/zeebo/blake3"

	"github.com/spaghettifunk/anima-io/engine/core"
)

func TestStoreJpegAlias(t *testing.T) {
	s := NewRawAssetStore()
	s.Insert("assets/photo.jpeg", []byte("a"))
	s.Insert("img/other.jpg", []byte("b"))

	if b, err := s.Get("photo.jpg"); err != nil || string(b) != "a" {
		t.Fatalf("photo.jpg: %q %v", b, err)
	}
	if b, err := s.Get("other.jpeg"); err != nil || string(b) != "b" {
		t.Fatalf("other.jpeg: %q %v", b, err)
	}
	if b, err := s.Get("https://site/assets/photo.jpeg"); err == nil {
		t.Fatalf("a longer key must not match a shorter stored key, got %q", b)
	}
}

func TestStoreNotLoaded(t *testing.T) {
	s := NewRawAssetStore()
	s.Insert("a.png", []byte("a"))
	_, err := s.Get("missing.png")
	var nl *core.NotLoadedError
	if !errors.As(err, &nl) || nl.Key != "missing.png" {
		t.Fatalf("want NotLoadedError, got %v", err)
	}
}

func TestStoreAmbiguous(t *testing.T) {
	s := NewRawAssetStore()
	s.Insert("y/tex.png", []byte("y"))
	s.Insert("x/tex.png", []byte("x"))

	_, err := s.Get("tex.png")
	var amb *core.AmbiguousKeyError
	if !errors.As(err, &amb) {
		t.Fatalf("want AmbiguousKeyError, got %v", err)
	}
	if strings.Join(amb.Candidates, ",") != "x/tex.png,y/tex.png" {
		t.Fatalf("candidates %v", amb.Candidates)
	}

	// an exact spelling always wins
	s.Insert("tex.png", []byte("root"))
	if b, err := s.Get("tex.png"); err != nil || string(b) != "root" {
		t.Fatalf("exact: %q %v", b, err)
	}
}

func TestStoreMergeRemove(t *testing.T) {
	a := NewRawAssetStore()
	a.Insert("a", []byte("1"))
	b := NewRawAssetStore()
	b.Insert("b", []byte("2"))
	b.Insert("a", []byte("3"))

	a.Merge(b)
	if b.Len() != 0 {
		t.Fatalf("merged store should be empty, has %d", b.Len())
	}
	if got := a.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("keys %v", got)
	}
	if v, _ := a.Get("a"); string(v) != "3" {
		t.Fatalf("merge should replace, got %q", v)
	}

	v, err := a.Remove("b")
	if err != nil || string(v) != "2" || a.Has("b") {
		t.Fatalf("remove: %q %v", v, err)
	}
	if _, err := a.Remove("b"); err == nil {
		t.Fatalf("second remove should fail")
	}
}

func TestStoreDigest(t *testing.T) {
	s := NewRawAssetStore()
	s.Insert("k", []byte("hello"))
	got, err := s.Digest("k")
	if err != nil {
		t.Fatal(err)
	}
	if got != blake3.Sum256([]byte("hello")) {
		t.Fatalf("digest mismatch")
	}
}
