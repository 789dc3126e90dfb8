package loaders

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

var errNotText = errors.New("content is not utf-8 text")

/** @brief One corner of a face: 1-based indices into the vertex arrays, 0 when absent. */
type FaceVertex struct {
	Position int
	TexCoord int
	Normal   int
}

type Face struct {
	Vertices []FaceVertex
	Material string
	Group    string
}

/** @brief A parsed Wavefront OBJ model together with its resolved materials. */
type ModelData struct {
	Name      string
	Positions []Vec4
	TexCoords []Vec4
	Normals   []Vec4
	Faces     []Face
	Groups    []string
	/** @brief Material libraries named by mtllib, as store keys. */
	MaterialLibraries []assets.AssetKey
	/** @brief Every material from the libraries, by name. */
	Materials map[string]*MaterialConfig
}

// ModelFormat reads Wavefront OBJ files.
type ModelFormat struct{}

func (f *ModelFormat) Type() ResourceType { return ResourceTypeMesh }

func (f *ModelFormat) Extensions() []string { return []string{".obj"} }

func (f *ModelFormat) MediaTypes() []string { return []string{"model/obj"} }

func (f *ModelFormat) Dependencies(key assets.AssetKey, data []byte) ([]assets.AssetKey, error) {
	if !utf8.Valid(data) {
		return nil, errNotText
	}
	var deps []assets.AssetKey
	for _, line := range lines(data) {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "mtllib" {
			continue
		}
		for _, lib := range fields[1:] {
			deps = append(deps, key.Join(lib))
		}
	}
	return deps, nil
}

func (f *ModelFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptData, key, errNotText)
	}

	model := &ModelData{
		Name:      string(key),
		Materials: make(map[string]*MaterialConfig),
	}
	var material, group string
	for n, line := range lines(data) {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v", "vt", "vn":
			v, err := parseVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", core.ErrCorruptData, key, n+1, err)
			}
			switch fields[0] {
			case "v":
				model.Positions = append(model.Positions, v)
			case "vt":
				model.TexCoords = append(model.TexCoords, v)
			case "vn":
				model.Normals = append(model.Normals, v)
			}
		case "f":
			face, err := parseFace(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", core.ErrCorruptData, key, n+1, err)
			}
			face.Material = material
			face.Group = group
			model.Faces = append(model.Faces, face)
		case "o", "g":
			if len(fields) > 1 {
				group = strings.Join(fields[1:], " ")
				model.Groups = append(model.Groups, group)
			}
		case "usemtl":
			if len(fields) > 1 {
				material = fields[1]
			}
		case "mtllib":
			for _, lib := range fields[1:] {
				model.MaterialLibraries = append(model.MaterialLibraries, key.Join(lib))
			}
		}
	}

	mtl := &MTLFormat{}
	for _, lib := range model.MaterialLibraries {
		v, err := mtl.Deserialize(lib, store)
		if err != nil {
			return nil, fmt.Errorf("%w: material library %s of %s: %v", core.ErrMissingData, lib, key, err)
		}
		for _, m := range v.([]*MaterialConfig) {
			model.Materials[m.Name] = m
		}
	}
	return model, nil
}

func parseVec(fields []string) (Vec4, error) {
	var v Vec4
	if len(fields) < 2 {
		return v, fmt.Errorf("expected at least 2 components, got %d", len(fields))
	}
	dst := []*float32{&v.X, &v.Y, &v.Z, &v.W}
	for i, s := range fields {
		if i >= len(dst) {
			break
		}
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return v, err
		}
		*dst[i] = float32(f)
	}
	return v, nil
}

func parseFace(fields []string) (Face, error) {
	var face Face
	if len(fields) < 3 {
		return face, fmt.Errorf("face needs at least 3 vertices, got %d", len(fields))
	}
	for _, field := range fields {
		parts := strings.Split(field, "/")
		var fv FaceVertex
		dst := []*int{&fv.Position, &fv.TexCoord, &fv.Normal}
		for i, p := range parts {
			if i >= len(dst) || p == "" {
				continue
			}
			idx, err := strconv.Atoi(p)
			if err != nil {
				return face, err
			}
			*dst[i] = idx
		}
		if fv.Position == 0 {
			return face, fmt.Errorf("vertex %q has no position", field)
		}
		face.Vertices = append(face.Vertices, fv)
	}
	return face, nil
}
