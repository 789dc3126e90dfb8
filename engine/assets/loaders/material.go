package loaders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

/** @brief Material configuration, read from .amt or .mtl files. */
type MaterialConfig struct {
	Name          string
	ShaderName    string
	AutoRelease   bool
	DiffuseColour Vec4
	Shininess     float32
	/** @brief Texture maps as store keys, empty when unused. */
	DiffuseMapName  string
	SpecularMapName string
	NormalMapName   string
	AmbientMapName  string
	/** @brief Any other texture map found in the file, by directive. */
	ExtraMaps map[string]string
}

// MaterialFormat reads the engine's own key=value material files (.amt).
type MaterialFormat struct{}

func (f *MaterialFormat) Type() ResourceType { return ResourceTypeMaterial }

func (f *MaterialFormat) Extensions() []string { return []string{".amt"} }

func (f *MaterialFormat) MediaTypes() []string { return nil }

func (f *MaterialFormat) Dependencies(key assets.AssetKey, data []byte) ([]assets.AssetKey, error) {
	var deps []assets.AssetKey
	for _, line := range lines(data) {
		k, v, ok := keyValue(line)
		if !ok || v == "" {
			continue
		}
		switch k {
		case "diffuse_map_name", "specular_map_name", "normal_map_name":
			deps = append(deps, key.Join(v))
		}
	}
	return deps, nil
}

func (f *MaterialFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	m, err := parseAMT(key, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptData, key, err)
	}
	for _, dep := range []string{m.DiffuseMapName, m.SpecularMapName, m.NormalMapName} {
		if dep == "" {
			continue
		}
		if _, err := store.Get(assets.AssetKey(dep)); err != nil {
			return nil, fmt.Errorf("%w: texture %s of %s", core.ErrMissingData, dep, key)
		}
	}
	return m, nil
}

func keyValue(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	// Skip comments and empty lines
	if strings.HasPrefix(line, "#") || line == "" {
		return "", "", false
	}
	// Split key-value pairs by the first "=" sign
	k, v, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(k), strings.TrimSpace(v), true
}

func parseAMT(key assets.AssetKey, data []byte) (*MaterialConfig, error) {
	materialConfig := &MaterialConfig{}

	for _, line := range lines(data) {
		k, value, ok := keyValue(line)
		if !ok {
			if l := strings.TrimSpace(line); l != "" && !strings.HasPrefix(l, "#") {
				core.LogWarn("Skipping invalid line: %s", l)
			}
			continue
		}

		// Parse each field based on the key
		switch k {
		case "version":
		case "name":
			materialConfig.Name = value
		case "shader":
			materialConfig.ShaderName = value
		case "diffuse_colour":
			colourValues := strings.Fields(value)
			if len(colourValues) != 4 {
				return nil, fmt.Errorf("invalid diffuse_colour, expected 4 values: %s", line)
			}
			dst := []*float32{
				&materialConfig.DiffuseColour.X,
				&materialConfig.DiffuseColour.Y,
				&materialConfig.DiffuseColour.Z,
				&materialConfig.DiffuseColour.W,
			}
			for i, v := range colourValues {
				f, err := strconv.ParseFloat(v, 32)
				if err != nil {
					return nil, fmt.Errorf("invalid diffuse_colour value: %s", v)
				}
				*dst[i] = float32(f)
			}
		case "shininess":
			shininess, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid shininess value: %s", value)
			}
			materialConfig.Shininess = float32(shininess)
		case "diffuse_map_name":
			materialConfig.DiffuseMapName = joinRef(key, value)
		case "specular_map_name":
			materialConfig.SpecularMapName = joinRef(key, value)
		case "normal_map_name":
			materialConfig.NormalMapName = joinRef(key, value)
		case "autorelease":
			autoRelease, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("invalid autorelease value: %s", value)
			}
			materialConfig.AutoRelease = autoRelease
		default:
			core.LogWarn("Unknown key '%s' found in %s. Skipping...", k, key)
		}
	}
	// Perform validation
	if err := validateMaterial(materialConfig); err != nil {
		return nil, err
	}
	return materialConfig, nil
}

func joinRef(key assets.AssetKey, ref string) string {
	if ref == "" {
		return ""
	}
	return string(key.Join(ref))
}

func validateMaterial(material *MaterialConfig) error {
	if material.Name == "" {
		return fmt.Errorf("material name is required")
	}

	if material.ShaderName == "" {
		return fmt.Errorf("shader name is required")
	}

	// Check that DiffuseColour values are within [0.0, 1.0] range
	if !isValidVec4(material.DiffuseColour) {
		return fmt.Errorf("diffuse_colour values must be between 0.0 and 1.0")
	}

	// Check shininess for a non-negative value
	if material.Shininess < 0 {
		return fmt.Errorf("shininess must be a non-negative value")
	}

	return nil
}

// Helper function to validate Vec4 fields (must be between 0.0 and 1.0)
func isValidVec4(v Vec4) bool {
	return inRange(v.X) && inRange(v.Y) && inRange(v.Z) && inRange(v.W)
}

// Check if a float32 value is within [0.0, 1.0]
func inRange(value float32) bool {
	return value >= 0.0 && value <= 1.0
}
