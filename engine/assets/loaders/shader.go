package loaders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

type ShaderAttribute struct {
	Type string
	Name string
}

type ShaderUniform struct {
	Type string
	/** @brief 0 global, 1 instance, 2 local. */
	Scope uint8
	Name  string
}

/**
 * @brief Configuration for a shader, set to the properties found in a
 * .shadercfg file, with the SPIR-V code of every stage loaded.
 */
type ShaderConfig struct {
	Name           string
	RenderpassName string
	/** @brief The face cull mode, "back" if not supplied. */
	CullMode   string
	Attributes []ShaderAttribute
	Uniforms   []ShaderUniform
	/** @brief The stage names. Must align with StageFiles. */
	Stages []string
	/** @brief The stage files as store keys, one per stage. */
	StageFiles []assets.AssetKey
	/** @brief The SPIR-V words of every stage, in stage order. */
	StageCode [][]uint32
}

type ShaderFormat struct{}

func (f *ShaderFormat) Type() ResourceType { return ResourceTypeShader }

func (f *ShaderFormat) Extensions() []string { return []string{".shadercfg"} }

func (f *ShaderFormat) MediaTypes() []string { return nil }

func (f *ShaderFormat) Dependencies(key assets.AssetKey, data []byte) ([]assets.AssetKey, error) {
	var deps []assets.AssetKey
	for _, line := range lines(data) {
		k, v, ok := keyValue(line)
		if !ok || k != "stagefiles" {
			continue
		}
		for _, file := range splitList(v) {
			deps = append(deps, key.Join(file))
		}
	}
	return deps, nil
}

func (f *ShaderFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	cfg, err := parseShaderConfig(key, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptData, key, err)
	}
	for _, stage := range cfg.StageFiles {
		code, err := store.Get(stage)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: stage %s: %v", core.ErrMissingData, key, stage, err)
		}
		if len(code)%4 != 0 {
			return nil, fmt.Errorf("%w: %s: stage %s is %d bytes, not whole words", core.ErrCorruptData, key, stage, len(code))
		}
		cfg.StageCode = append(cfg.StageCode, bytesToBytecode(code))
	}
	return cfg, nil
}

func parseShaderConfig(key assets.AssetKey, data []byte) (*ShaderConfig, error) {
	cfg := &ShaderConfig{CullMode: "back"}
	for _, line := range lines(data) {
		k, v, ok := keyValue(line)
		if !ok {
			continue
		}
		switch k {
		case "version", "use_instance", "use_local", "depth_test", "depth_write":
		case "name":
			cfg.Name = v
		case "renderpass":
			cfg.RenderpassName = v
		case "cull_mode":
			switch v {
			case "none", "front", "back", "front_and_back":
				cfg.CullMode = v
			default:
				return nil, fmt.Errorf("invalid cull_mode: %s", v)
			}
		case "stages":
			cfg.Stages = splitList(v)
		case "stagefiles":
			for _, file := range splitList(v) {
				cfg.StageFiles = append(cfg.StageFiles, key.Join(file))
			}
		case "attribute":
			fields := splitList(v)
			if len(fields) != 2 {
				return nil, fmt.Errorf("invalid attribute, expected type,name: %s", v)
			}
			cfg.Attributes = append(cfg.Attributes, ShaderAttribute{Type: fields[0], Name: fields[1]})
		case "uniform":
			fields := splitList(v)
			if len(fields) != 3 {
				return nil, fmt.Errorf("invalid uniform, expected type,scope,name: %s", v)
			}
			scope, err := strconv.ParseUint(fields[1], 10, 8)
			if err != nil || scope > 2 {
				return nil, fmt.Errorf("invalid uniform scope: %s", fields[1])
			}
			cfg.Uniforms = append(cfg.Uniforms, ShaderUniform{Type: fields[0], Scope: uint8(scope), Name: fields[2]})
		default:
			core.LogWarn("Unknown key '%s' found in %s. Skipping...", k, key)
		}
	}

	if cfg.Name == "" {
		return nil, fmt.Errorf("shader name is required")
	}
	if len(cfg.Stages) != len(cfg.StageFiles) {
		return nil, fmt.Errorf("%d stages but %d stage files", len(cfg.Stages), len(cfg.StageFiles))
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
