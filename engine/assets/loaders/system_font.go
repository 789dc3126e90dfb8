package loaders

import (
	"fmt"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

type SystemFontFace struct {
	Name string
	/** @brief Index of the face inside the collection, -1 when no face has this family name. */
	Index int
}

/** @brief A .fontcfg file with its TrueType/OpenType collection parsed. */
type SystemFontData struct {
	/** @brief The font file as a store key. */
	File       assets.AssetKey
	Collection *sfnt.Collection
	Faces      []SystemFontFace
	/** @brief Family names of every font in the collection, by index. */
	Families []string
}

// SystemFontFormat reads .fontcfg files: a file= line naming a font
// collection followed by face= lines.
type SystemFontFormat struct{}

func (f *SystemFontFormat) Type() ResourceType { return ResourceTypeSystemFont }

func (f *SystemFontFormat) Extensions() []string { return []string{".fontcfg"} }

func (f *SystemFontFormat) MediaTypes() []string { return nil }

func (f *SystemFontFormat) Dependencies(key assets.AssetKey, data []byte) ([]assets.AssetKey, error) {
	var deps []assets.AssetKey
	for _, line := range lines(data) {
		k, v, ok := keyValue(line)
		if ok && k == "file" && v != "" {
			deps = append(deps, key.Join(v))
		}
	}
	return deps, nil
}

func (f *SystemFontFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}

	rd := &SystemFontData{}
	var names []string
	for _, line := range lines(data) {
		k, v, ok := keyValue(line)
		if !ok {
			continue
		}
		// Parse the file and face keys
		switch k {
		case "file":
			if rd.File != "" {
				return nil, fmt.Errorf("%w: %s: more than one file", core.ErrCorruptData, key)
			}
			rd.File = key.Join(v)
		case "face":
			names = append(names, v)
		}
	}
	if rd.File == "" {
		return nil, fmt.Errorf("%w: %s: no font file", core.ErrCorruptData, key)
	}

	fontBytes, err := store.Get(rd.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: font file %s: %v", core.ErrMissingData, key, rd.File, err)
	}
	c, err := opentype.ParseCollection(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptData, rd.File, err)
	}
	rd.Collection = c

	for i := 0; i < c.NumFonts(); i++ {
		font, err := c.Font(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: font %d: %v", core.ErrCorruptData, rd.File, i, err)
		}
		family, err := font.Name(nil, sfnt.NameIDFamily)
		if err != nil {
			family = ""
		}
		rd.Families = append(rd.Families, family)
	}
	for _, name := range names {
		face := SystemFontFace{Name: name, Index: -1}
		for i, family := range rd.Families {
			if family == name {
				face.Index = i
				break
			}
		}
		if face.Index < 0 {
			core.LogWarn("face '%s' not found in %s", name, rd.File)
		}
		rd.Faces = append(rd.Faces, face)
	}
	return rd, nil
}
