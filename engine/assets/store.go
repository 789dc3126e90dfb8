package assets

import (
	"fmt"
	"iter"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// RawAssetStore maps keys to the raw bytes fetched for them. The store owns
// every buffer it holds. It is not safe for concurrent mutation; a store
// belongs to the load operation (or caller) that created it.
type RawAssetStore struct {
	assets map[AssetKey][]byte
}

func NewRawAssetStore() *RawAssetStore {
	return &RawAssetStore{assets: make(map[AssetKey][]byte)}
}

// Insert stores bytes under key, replacing any previous entry.
func (s *RawAssetStore) Insert(key AssetKey, bytes []byte) {
	s.assets[key] = bytes
}

// Has reports whether key is stored under exactly this spelling.
func (s *RawAssetStore) Has(key AssetKey) bool {
	_, ok := s.assets[key]
	return ok
}

// Get returns the bytes for key without copying them. The key may be an
// alias of the stored key, see Match.
func (s *RawAssetStore) Get(key AssetKey) ([]byte, error) {
	k, err := s.Match(key)
	if err != nil {
		return nil, err
	}
	return s.assets[k], nil
}

// Remove takes ownership of the bytes for key away from the store.
func (s *RawAssetStore) Remove(key AssetKey) ([]byte, error) {
	k, err := s.Match(key)
	if err != nil {
		return nil, err
	}
	b := s.assets[k]
	delete(s.assets, k)
	return b, nil
}

// Merge moves every entry of other into s. other is empty afterwards.
func (s *RawAssetStore) Merge(other *RawAssetStore) *RawAssetStore {
	if other == nil || other == s {
		return s
	}
	for k, v := range other.assets {
		s.assets[k] = v
	}
	clear(other.assets)
	return s
}

// All yields every entry in unspecified order.
func (s *RawAssetStore) All() iter.Seq2[AssetKey, []byte] {
	return func(yield func(AssetKey, []byte) bool) {
		for k, v := range s.assets {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Keys returns the stored keys in sorted order.
func (s *RawAssetStore) Keys() []AssetKey {
	keys := maps.Keys(s.assets)
	slices.Sort(keys)
	return keys
}

func (s *RawAssetStore) Len() int {
	return len(s.assets)
}

// Digest returns the blake3-256 sum of the bytes stored for key.
func (s *RawAssetStore) Digest(key AssetKey) ([32]byte, error) {
	b, err := s.Get(key)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(b), nil
}

func (s *RawAssetStore) String() string {
	var sb strings.Builder
	sb.WriteString("RawAssetStore{")
	for i, k := range s.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %d bytes", truncateKey(k), len(s.assets[k]))
	}
	sb.WriteString("}")
	return sb.String()
}

func truncateKey(k AssetKey) string {
	const max = 64
	if len(k) <= max {
		return string(k)
	}
	return string(k[:max]) + "..."
}
