package loaders

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

const (
	glbMagic     = 0x46546C67 // "glTF"
	glbChunkJSON = 0x4E4F534A
	glbChunkBIN  = 0x004E4942
	glbHeaderLen = 12
)

var errNotGLB = errors.New("not a binary glTF container")

type gltfDocument struct {
	Asset struct {
		Version   string `json:"version"`
		Generator string `json:"generator"`
	} `json:"asset"`
	Scene  *int `json:"scene"`
	Scenes []struct {
		Name  string `json:"name"`
		Nodes []int  `json:"nodes"`
	} `json:"scenes"`
	Nodes []struct {
		Name        string    `json:"name"`
		Mesh        *int      `json:"mesh"`
		Children    []int     `json:"children"`
		Matrix      []float32 `json:"matrix"`
		Translation []float32 `json:"translation"`
		Rotation    []float32 `json:"rotation"`
		Scale       []float32 `json:"scale"`
	} `json:"nodes"`
	Meshes []struct {
		Name       string `json:"name"`
		Primitives []struct {
			Attributes map[string]int `json:"attributes"`
			Indices    *int           `json:"indices"`
			Material   *int           `json:"material"`
		} `json:"primitives"`
	} `json:"meshes"`
	Materials []struct {
		Name string `json:"name"`
	} `json:"materials"`
	Buffers []struct {
		URI        string `json:"uri"`
		ByteLength int    `json:"byteLength"`
	} `json:"buffers"`
	Images []struct {
		URI        string `json:"uri"`
		MimeType   string `json:"mimeType"`
		BufferView *int   `json:"bufferView"`
	} `json:"images"`
	Animations []struct {
		Name string `json:"name"`
	} `json:"animations"`
}

/** @brief A mesh primitive, referring to accessors by index. */
type Primitive struct {
	Attributes map[string]int
	Indices    int
	Material   int
}

type Mesh struct {
	Name       string
	Primitives []Primitive
}

type Node struct {
	Name     string
	Mesh     int
	Children []int
	/** @brief Column-major local transform, identity when the node has none. */
	Matrix [16]float32
}

/** @brief An image of a scene, either a store key or a slice of a buffer view. */
type SceneImage struct {
	Key        assets.AssetKey
	MimeType   string
	BufferView int
}

/** @brief A parsed glTF 2.0 document with every buffer resolved. */
type SceneData struct {
	Name       string
	Generator  string
	Scene      int
	Scenes     [][]int
	Nodes      []Node
	Meshes     []Mesh
	Materials  []string
	Animations []string
	Images     []SceneImage
	/** @brief Buffer contents, each padded to a multiple of 4 bytes. */
	Buffers [][]byte
}

// GLTFFormat reads glTF 2.0 scenes, both the JSON form and the GLB binary
// container.
type GLTFFormat struct{}

func (f *GLTFFormat) Type() ResourceType { return ResourceTypeScene }

func (f *GLTFFormat) Extensions() []string { return []string{".gltf", ".glb"} }

func (f *GLTFFormat) MediaTypes() []string {
	return []string{"model/gltf+json", "model/gltf-binary"}
}

func (f *GLTFFormat) Dependencies(key assets.AssetKey, data []byte) ([]assets.AssetKey, error) {
	doc, _, err := parseGLTF(data)
	if err != nil {
		return nil, err
	}
	var deps []assets.AssetKey
	for _, b := range doc.Buffers {
		if b.URI != "" {
			deps = append(deps, gltfRef(key, b.URI))
		}
	}
	for _, img := range doc.Images {
		if img.URI != "" {
			deps = append(deps, gltfRef(key, img.URI))
		}
	}
	return deps, nil
}

func (f *GLTFFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	doc, blob, err := parseGLTF(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptData, key, err)
	}

	scene := &SceneData{
		Name:      string(key),
		Generator: doc.Asset.Generator,
	}
	if doc.Scene != nil {
		scene.Scene = *doc.Scene
	}

	for i, b := range doc.Buffers {
		var buf []byte
		if b.URI == "" {
			// only the first buffer may live in the GLB binary chunk
			if blob == nil {
				return nil, fmt.Errorf("%w: %s: buffer %d has no uri and no binary chunk", core.ErrMissingData, key, i)
			}
			buf, blob = blob, nil
		} else {
			dep := gltfRef(key, b.URI)
			buf, err = store.Get(dep)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: buffer %s: %v", core.ErrMissingData, key, dep, err)
			}
		}
		if len(buf) < b.ByteLength {
			return nil, fmt.Errorf("%w: %s: buffer %d holds %d bytes, %d declared", core.ErrCorruptData, key, i, len(buf), b.ByteLength)
		}
		scene.Buffers = append(scene.Buffers, padded(buf))
	}

	for _, s := range doc.Scenes {
		scene.Scenes = append(scene.Scenes, s.Nodes)
	}
	for _, n := range doc.Nodes {
		node := Node{Name: n.Name, Mesh: -1, Children: n.Children, Matrix: identity()}
		if n.Mesh != nil {
			node.Mesh = *n.Mesh
		}
		if len(n.Matrix) == 16 {
			copy(node.Matrix[:], n.Matrix)
		} else if len(n.Translation) == 3 {
			node.Matrix[12], node.Matrix[13], node.Matrix[14] = n.Translation[0], n.Translation[1], n.Translation[2]
		}
		scene.Nodes = append(scene.Nodes, node)
	}
	for _, m := range doc.Meshes {
		mesh := Mesh{Name: m.Name}
		for _, p := range m.Primitives {
			prim := Primitive{Attributes: p.Attributes, Indices: -1, Material: -1}
			if p.Indices != nil {
				prim.Indices = *p.Indices
			}
			if p.Material != nil {
				prim.Material = *p.Material
			}
			mesh.Primitives = append(mesh.Primitives, prim)
		}
		scene.Meshes = append(scene.Meshes, mesh)
	}
	for _, m := range doc.Materials {
		scene.Materials = append(scene.Materials, m.Name)
	}
	for _, a := range doc.Animations {
		scene.Animations = append(scene.Animations, a.Name)
	}
	for _, img := range doc.Images {
		si := SceneImage{MimeType: img.MimeType, BufferView: -1}
		if img.URI != "" {
			si.Key = gltfRef(key, img.URI)
		} else if img.BufferView != nil {
			si.BufferView = *img.BufferView
		}
		scene.Images = append(scene.Images, si)
	}
	return scene, nil
}

// parseGLTF accepts either form. For GLB content the binary chunk, if
// present, is returned alongside the document.
func parseGLTF(data []byte) (*gltfDocument, []byte, error) {
	var blob []byte
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic {
		var err error
		data, blob, err = splitGLB(data)
		if err != nil {
			return nil, nil, err
		}
	}
	// comments become whitespace
	js := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(js) == 0 || js[0] != '{' {
		return nil, nil, errors.New("not a glTF json document")
	}
	doc := &gltfDocument{}
	if err := json.Unmarshal(js, doc); err != nil {
		return nil, nil, err
	}
	return doc, blob, nil
}

func splitGLB(data []byte) ([]byte, []byte, error) {
	if len(data) < glbHeaderLen {
		return nil, nil, errNotGLB
	}
	total := int(binary.LittleEndian.Uint32(data[8:]))
	if total > len(data) {
		return nil, nil, fmt.Errorf("container declares %d bytes, holds %d", total, len(data))
	}

	var jsonChunk, binChunk []byte
	for off := glbHeaderLen; off+8 <= total; {
		size := int(binary.LittleEndian.Uint32(data[off:]))
		typ := binary.LittleEndian.Uint32(data[off+4:])
		start, end := off+8, off+8+size
		if size < 0 || end > total {
			return nil, nil, fmt.Errorf("chunk at %d overruns the container", off)
		}
		switch typ {
		case glbChunkJSON:
			if jsonChunk == nil {
				jsonChunk = data[start:end]
			}
		case glbChunkBIN:
			if binChunk == nil {
				binChunk = data[start:end]
			}
		}
		off = end
	}
	if jsonChunk == nil {
		return nil, nil, errors.New("container has no json chunk")
	}
	return jsonChunk, binChunk, nil
}

// gltfRef resolves a uri found in a glTF document. Relative uris are
// percent-encoded, data uris are used verbatim.
func gltfRef(key assets.AssetKey, uri string) assets.AssetKey {
	if strings.HasPrefix(uri, "data:") {
		return assets.AssetKey(uri)
	}
	if !strings.Contains(uri, "://") {
		if u, err := url.PathUnescape(uri); err == nil {
			uri = u
		}
	}
	return key.Join(uri)
}

func padded(b []byte) []byte {
	if len(b)%4 == 0 {
		return b
	}
	out := make([]byte, len(b)+4-len(b)%4)
	copy(out, b)
	return out
}

func identity() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
