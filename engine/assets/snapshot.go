package assets

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/spaghettifunk/anima-io/engine/core"
)

const snapshotVersion = 1

// snapshot is the on-disk form of a store. Entries are sorted by key so the
// same store always encodes to the same bytes.
type snapshot struct {
	Version int             `cbor:"version"`
	Entries []snapshotEntry `cbor:"entries"`
}

type snapshotEntry struct {
	Key    string `cbor:"key"`
	Digest []byte `cbor:"digest"`
	Data   []byte `cbor:"data"`
}

var snapshotEncMode cbor.EncMode

func init() {
	var err error
	snapshotEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("assets: CBOR encoder initialization failed: " + err.Error())
	}
}

// WriteSnapshot writes every entry of store to w as zstd compressed CBOR.
// The store is not modified.
func WriteSnapshot(w io.Writer, store *RawAssetStore) error {
	snap := snapshot{Version: snapshotVersion}
	for _, k := range store.Keys() {
		data := store.assets[k]
		sum := blake3.Sum256(data)
		snap.Entries = append(snap.Entries, snapshotEntry{
			Key:    string(k),
			Digest: sum[:],
			Data:   data,
		})
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := snapshotEncMode.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return zw.Close()
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot. Every entry is
// checked against its digest.
func ReadSnapshot(r io.Reader) (*RawAssetStore, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var snap snapshot
	if err := cbor.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSnapshotCorrupt, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", core.ErrSnapshotCorrupt, snap.Version)
	}

	store := NewRawAssetStore()
	for _, e := range snap.Entries {
		sum := blake3.Sum256(e.Data)
		if !bytes.Equal(sum[:], e.Digest) {
			return nil, fmt.Errorf("%w: digest mismatch for %s", core.ErrSnapshotCorrupt, truncateKey(AssetKey(e.Key)))
		}
		if e.Data == nil {
			e.Data = []byte{}
		}
		store.Insert(AssetKey(e.Key), e.Data)
	}
	return store, nil
}
