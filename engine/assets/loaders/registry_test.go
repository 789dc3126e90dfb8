package loaders

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

func storeOf(entries map[assets.AssetKey]string) *assets.RawAssetStore {
	s := assets.NewRawAssetStore()
	for k, v := range entries {
		s.Insert(k, []byte(v))
	}
	return s
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()
	cases := map[assets.AssetKey]ResourceType{
		"a/B.PNG":                          ResourceTypeImage,
		"https://h/scene.glb?x=1":          ResourceTypeScene,
		"data:model/gltf+json;base64,e30=": ResourceTypeScene,
		"m.obj":                            ResourceTypeMesh,
		"m.mtl":                            ResourceTypeMaterial,
		"shaders/x.shadercfg":              ResourceTypeShader,
		"x.spv":                            ResourceTypeBinary,
	}
	for k, want := range cases {
		f, ok := r.Lookup(k)
		if !ok || f.Type() != want {
			t.Fatalf("%s: lookup %v %v", k, ok, f)
		}
	}
	if _, ok := r.Lookup("readme.md"); ok {
		t.Fatalf("unknown extension matched")
	}
}

func TestRegistryUnsupported(t *testing.T) {
	r := DefaultRegistry()
	s := storeOf(map[assets.AssetKey]string{"notes.md": "# hi"})
	if deps := r.Dependencies("notes.md", s); deps != nil {
		t.Fatalf("deps %v", deps)
	}
	if _, err := r.Deserialize("notes.md", s); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
	var nl *core.NotLoadedError
	if _, err := r.Deserialize("absent.png", s); !errors.As(err, &nl) {
		t.Fatalf("want NotLoadedError, got %v", err)
	}
}

func TestDeserializeGeneric(t *testing.T) {
	r := DefaultRegistry()
	s := storeOf(map[assets.AssetKey]string{"shader.spv": "\x03\x02\x23\x07\x00\x00"})

	bin, err := Deserialize[*BinaryData](r, "shader.spv", s)
	if err != nil {
		t.Fatal(err)
	}
	if len(bin.Bytes) != 6 || len(bin.Words) != 1 || bin.Words[0] != 0x07230203 {
		t.Fatalf("binary %+v", bin)
	}
	if _, err := Deserialize[*ImageData](r, "shader.spv", s); err == nil {
		t.Fatalf("type mismatch not reported")
	}
}
