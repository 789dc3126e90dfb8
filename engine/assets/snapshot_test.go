package assets

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/spaghettifunk/anima-io/engine/core"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewRawAssetStore()
	s.Insert("models/car.obj", []byte("v 0 0 0\n"))
	s.Insert("https://cdn/x.bin", []byte{0, 1, 2, 3})
	s.Insert("empty.txt", []byte{})

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, s); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 {
		t.Fatalf("writing must not drain the store")
	}

	got, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 3 {
		t.Fatalf("read %s", got)
	}
	for k, want := range s.All() {
		b, err := got.Get(k)
		if err != nil || !bytes.Equal(b, want) {
			t.Fatalf("%s: %q %v", k, b, err)
		}
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	_, err := ReadSnapshot(bytes.NewReader([]byte("definitely not a snapshot")))
	if err == nil {
		t.Fatalf("garbage accepted")
	}
}

func TestSnapshotDigestMismatch(t *testing.T) {
	snap := snapshot{
		Version: snapshotVersion,
		Entries: []snapshotEntry{{Key: "a", Digest: make([]byte, 32), Data: []byte("tampered")}},
	}
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := snapshotEncMode.NewEncoder(zw).Encode(snap); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	if _, err := ReadSnapshot(&buf); !errors.Is(err, core.ErrSnapshotCorrupt) {
		t.Fatalf("want ErrSnapshotCorrupt, got %v", err)
	}
}
