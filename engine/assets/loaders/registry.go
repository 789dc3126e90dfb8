package loaders

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

// Format knows one family of file formats: which other assets its content
// references and how to turn its bytes into a typed value.
type Format interface {
	Type() ResourceType
	// Extensions are lower case and include the dot.
	Extensions() []string
	// MediaTypes select the format for data URIs.
	MediaTypes() []string
	// Dependencies lists the assets referenced by data, the content stored
	// under key. Relative references are resolved with key.Join.
	Dependencies(key assets.AssetKey, data []byte) ([]assets.AssetKey, error)
	// Deserialize decodes key. The store holds the key and everything
	// Dependencies reported for it.
	Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error)
}

// Registry dispatches to formats by extension, or by media type for data
// URIs. It is the dependency scanner used by the loader.
type Registry struct {
	byExt       map[string]Format
	byMediaType map[string]Format
}

func NewRegistry(formats ...Format) *Registry {
	r := &Registry{
		byExt:       make(map[string]Format),
		byMediaType: make(map[string]Format),
	}
	for _, f := range formats {
		r.Register(f)
	}
	return r
}

// DefaultRegistry knows every format shipped with the engine.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&ImageFormat{},
		&ModelFormat{},
		&MTLFormat{},
		&MaterialFormat{},
		&GLTFFormat{},
		&BitmapFontFormat{},
		&SystemFontFormat{},
		&ShaderFormat{},
		&BinaryFormat{},
	)
}

// Register adds f, replacing earlier formats claiming the same extensions.
func (r *Registry) Register(f Format) {
	for _, ext := range f.Extensions() {
		r.byExt[strings.ToLower(ext)] = f
	}
	for _, mt := range f.MediaTypes() {
		r.byMediaType[strings.ToLower(mt)] = f
	}
}

// Lookup returns the format responsible for key.
func (r *Registry) Lookup(key assets.AssetKey) (Format, bool) {
	if key.Kind() == assets.KindDataURI {
		f, ok := r.byMediaType[mediaType(key)]
		return f, ok
	}
	f, ok := r.byExt[key.Ext()]
	return f, ok
}

// Dependencies never fails: unknown formats and unreadable content simply
// have no dependencies. Decoding errors surface later from Deserialize.
func (r *Registry) Dependencies(key assets.AssetKey, store *assets.RawAssetStore) []assets.AssetKey {
	f, ok := r.Lookup(key)
	if !ok || !store.Has(key) {
		return nil
	}
	data, err := store.Get(key)
	if err != nil {
		return nil
	}
	deps, err := f.Dependencies(key, data)
	if err != nil {
		core.LogDebug("ignoring dependencies of %s: %s", key.Ext(), err)
		return nil
	}
	return deps
}

// Deserialize decodes key from store with the matching format. key may be
// an alias of the stored key.
func (r *Registry) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	k, err := store.Match(key)
	if err != nil {
		return nil, err
	}
	f, ok := r.Lookup(k)
	if !ok {
		f, ok = r.Lookup(key)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, key)
	}
	return f.Deserialize(k, store)
}

// Deserialize decodes key and asserts the result is a T.
func Deserialize[T any](r *Registry, key assets.AssetKey, store *assets.RawAssetStore) (T, error) {
	var zero T
	v, err := r.Deserialize(key, store)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s decodes to %T, not %T", key, v, zero)
	}
	return t, nil
}

// mediaType reads "type/subtype" from the header of a data URI without
// decoding its payload.
func mediaType(key assets.AssetKey) string {
	meta, _, ok := strings.Cut(strings.TrimPrefix(string(key), "data:"), ",")
	if !ok {
		return ""
	}
	mt, _, _ := strings.Cut(meta, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// lines splits text content, tolerating \r\n endings.
func lines(data []byte) []string {
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
}
