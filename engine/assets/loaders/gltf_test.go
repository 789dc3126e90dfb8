package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

const inlineBuffer = "data:application/octet-stream;base64,AAECAw=="

const triangleGLTF = `{
  // written by hand
  "asset": {"version": "2.0", "generator": "test"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "root", "mesh": 0, "translation": [1, 2, 3]}],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}],
  "materials": [{"name": "paint"}],
  "buffers": [
    {"uri": "tri%20data.bin", "byteLength": 6},
    {"uri": "` + inlineBuffer + `", "byteLength": 4}
  ],
  "images": [{"uri": "tex.png"}, {"bufferView": 0, "mimeType": "image/png"}]
}`

func TestGLTFDependencies(t *testing.T) {
	deps, err := (&GLTFFormat{}).Dependencies("scenes/tri.gltf", []byte(triangleGLTF))
	if err != nil {
		t.Fatal(err)
	}
	want := []assets.AssetKey{"scenes/tri data.bin", inlineBuffer, "scenes/tex.png"}
	if len(deps) != len(want) {
		t.Fatalf("deps %v", deps)
	}
	for i := range want {
		if deps[i] != want[i] {
			t.Fatalf("dep %d: got %s, want %s", i, deps[i], want[i])
		}
	}
}

func TestGLTFDeserialize(t *testing.T) {
	r := DefaultRegistry()
	s := storeOf(map[assets.AssetKey]string{
		"scenes/tri.gltf":     triangleGLTF,
		"scenes/tri data.bin": "\x01\x02\x03\x04\x05\x06",
		inlineBuffer:          "\x00\x01\x02\x03",
		"scenes/tex.png":      "png",
	})

	scene, err := Deserialize[*SceneData](r, "scenes/tri.gltf", s)
	if err != nil {
		t.Fatal(err)
	}
	if scene.Generator != "test" || len(scene.Buffers) != 2 {
		t.Fatalf("scene %+v", scene)
	}
	if len(scene.Buffers[0]) != 8 || scene.Buffers[0][5] != 6 || scene.Buffers[0][6] != 0 {
		t.Fatalf("buffer 0 not padded: %v", scene.Buffers[0])
	}
	if n := scene.Nodes[0]; n.Mesh != 0 || n.Matrix[12] != 1 || n.Matrix[14] != 3 || n.Matrix[15] != 1 {
		t.Fatalf("node %+v", n)
	}
	if p := scene.Meshes[0].Primitives[0]; p.Indices != -1 || p.Material != 0 || p.Attributes["POSITION"] != 0 {
		t.Fatalf("primitive %+v", p)
	}
	if scene.Images[0].Key != "scenes/tex.png" || scene.Images[1].BufferView != 0 {
		t.Fatalf("images %+v", scene.Images)
	}
}

func TestGLTFBufferErrors(t *testing.T) {
	r := DefaultRegistry()
	s := storeOf(map[assets.AssetKey]string{"scenes/tri.gltf": triangleGLTF})
	if _, err := r.Deserialize("scenes/tri.gltf", s); !errors.Is(err, core.ErrMissingData) {
		t.Fatalf("want ErrMissingData, got %v", err)
	}

	s.Insert("scenes/tri data.bin", []byte{1, 2, 3})
	s.Insert(inlineBuffer, []byte{0, 1, 2, 3})
	if _, err := r.Deserialize("scenes/tri.gltf", s); !errors.Is(err, core.ErrCorruptData) {
		t.Fatalf("want ErrCorruptData for a short buffer, got %v", err)
	}
}

func glb(json string, bin []byte) []byte {
	for len(json)%4 != 0 {
		json += " "
	}
	var body bytes.Buffer
	chunk := func(typ uint32, data []byte) {
		binary.Write(&body, binary.LittleEndian, uint32(len(data)))
		binary.Write(&body, binary.LittleEndian, typ)
		body.Write(data)
	}
	chunk(glbChunkJSON, []byte(json))
	if bin != nil {
		chunk(glbChunkBIN, bin)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, uint32(glbMagic))
	binary.Write(&out, binary.LittleEndian, uint32(2))
	binary.Write(&out, binary.LittleEndian, uint32(glbHeaderLen+body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestGLB(t *testing.T) {
	r := DefaultRegistry()
	doc := `{"asset":{"version":"2.0"},"buffers":[{"byteLength":4}]}`
	s := assets.NewRawAssetStore()
	s.Insert("box.glb", glb(doc, []byte{9, 9, 9, 9}))
	s.Insert("empty.glb", glb(doc, nil))

	if deps := r.Dependencies("box.glb", s); len(deps) != 0 {
		t.Fatalf("deps %v", deps)
	}
	scene, err := Deserialize[*SceneData](r, "box.glb", s)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(scene.Buffers[0], []byte{9, 9, 9, 9}) {
		t.Fatalf("buffer %v", scene.Buffers[0])
	}
	if _, err := r.Deserialize("empty.glb", s); !errors.Is(err, core.ErrMissingData) {
		t.Fatalf("want ErrMissingData without a binary chunk, got %v", err)
	}
}

func TestGLTFCorrupt(t *testing.T) {
	r := DefaultRegistry()
	s := storeOf(map[assets.AssetKey]string{
		"a.gltf": "not json",
		"b.glb":  "glTF\x02\x00\x00\x00\xff\xff\x00\x00",
	})
	for _, k := range []assets.AssetKey{"a.gltf", "b.glb"} {
		if deps := r.Dependencies(k, s); deps != nil {
			t.Fatalf("%s: deps %v", k, deps)
		}
		if _, err := r.Deserialize(k, s); !errors.Is(err, core.ErrCorruptData) {
			t.Fatalf("%s: want ErrCorruptData, got %v", k, err)
		}
	}
}
