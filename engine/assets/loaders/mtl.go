package loaders

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

// mtlMaps are the texture map directives of a Wavefront material library.
var mtlMaps = map[string]bool{
	"map_Ka":   true,
	"map_Kd":   true,
	"map_Ks":   true,
	"map_Ns":   true,
	"map_d":    true,
	"map_bump": true,
	"map_Bump": true,
	"bump":     true,
	"disp":     true,
	"decal":    true,
	"norm":     true,
}

// MTLFormat reads Wavefront material libraries.
type MTLFormat struct{}

func (f *MTLFormat) Type() ResourceType { return ResourceTypeMaterial }

func (f *MTLFormat) Extensions() []string { return []string{".mtl"} }

func (f *MTLFormat) MediaTypes() []string { return []string{"model/mtl"} }

func (f *MTLFormat) Dependencies(key assets.AssetKey, data []byte) ([]assets.AssetKey, error) {
	if !utf8.Valid(data) {
		return nil, errNotText
	}
	var deps []assets.AssetKey
	for _, line := range lines(data) {
		fields := strings.Fields(line)
		if len(fields) < 2 || !mtlMaps[fields[0]] {
			continue
		}
		// options such as "-bm 0.5" come before the file name
		deps = append(deps, key.Join(fields[len(fields)-1]))
	}
	return deps, nil
}

func (f *MTLFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptData, key, errNotText)
	}

	var (
		materials []*MaterialConfig
		current   *MaterialConfig
	)
	for n, line := range lines(data) {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: %s line %d: newmtl without a name", core.ErrCorruptData, key, n+1)
			}
			current = &MaterialConfig{
				Name:          fields[1],
				DiffuseColour: Vec4{X: 1, Y: 1, Z: 1, W: 1},
				ExtraMaps:     make(map[string]string),
			}
			materials = append(materials, current)
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case fields[0] == "Kd" && len(fields) >= 4:
			v, err := parseVec(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", core.ErrCorruptData, key, n+1, err)
			}
			current.DiffuseColour.X, current.DiffuseColour.Y, current.DiffuseColour.Z = v.X, v.Y, v.Z
		case fields[0] == "d" && len(fields) >= 2:
			d, err := strconv.ParseFloat(fields[1], 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", core.ErrCorruptData, key, n+1, err)
			}
			current.DiffuseColour.W = float32(d)
		case fields[0] == "Ns" && len(fields) >= 2:
			ns, err := strconv.ParseFloat(fields[1], 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", core.ErrCorruptData, key, n+1, err)
			}
			current.Shininess = float32(ns)
		case mtlMaps[fields[0]] && len(fields) >= 2:
			ref := string(key.Join(fields[len(fields)-1]))
			switch fields[0] {
			case "map_Kd":
				current.DiffuseMapName = ref
			case "map_Ks":
				current.SpecularMapName = ref
			case "map_Ka":
				current.AmbientMapName = ref
			case "norm", "bump", "map_bump", "map_Bump":
				current.NormalMapName = ref
			default:
				current.ExtraMaps[fields[0]] = ref
			}
		}
	}
	return materials, nil
}
