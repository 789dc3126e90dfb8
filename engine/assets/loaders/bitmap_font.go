package loaders

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fzipp/bmfont"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

type BitmapFontPage struct {
	ID int8
	/** @brief The file name as written in the descriptor. */
	File string
	/** @brief The store key holding the page image. */
	Key assets.AssetKey
}

/** @brief An AngelCode bitmap font: metrics, glyphs sorted by codepoint, and its atlas pages. */
type BitmapFontData struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     []FontGlyph
	Kernings   []FontKerning
	Pages      []BitmapFontPage
}

// BitmapFontFormat reads AngelCode .fnt descriptors in text form.
type BitmapFontFormat struct{}

func (f *BitmapFontFormat) Type() ResourceType { return ResourceTypeBitmapFont }

func (f *BitmapFontFormat) Extensions() []string { return []string{".fnt"} }

func (f *BitmapFontFormat) MediaTypes() []string { return nil }

func (f *BitmapFontFormat) Dependencies(key assets.AssetKey, data []byte) ([]assets.AssetKey, error) {
	files, err := pageFiles(data)
	if err != nil {
		return nil, err
	}
	deps := make([]assets.AssetKey, 0, len(files))
	for _, file := range files {
		deps = append(deps, key.Join(file))
	}
	return deps, nil
}

func (f *BitmapFontFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	files, err := pageFiles(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptData, key, err)
	}

	// the descriptor and its pages are laid out in a scratch directory so
	// page sheets resolve the way they do next to the descriptor on disk
	dir, err := os.MkdirTemp("", "anima-io-fnt-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	pageKeys := make(map[string]assets.AssetKey, len(files))
	for _, file := range files {
		rel := path.Clean(filepath.ToSlash(file))
		if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
			return nil, fmt.Errorf("%w: %s: page %q escapes the font directory", core.ErrCorruptData, key, file)
		}
		dep := key.Join(file)
		page, err := store.Get(dep)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: page %s: %v", core.ErrMissingData, key, dep, err)
		}
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(dst, page, 0o644); err != nil {
			return nil, err
		}
		pageKeys[file] = dep
	}
	descriptor := filepath.Join(dir, "font.fnt")
	if err := os.WriteFile(descriptor, data, 0o644); err != nil {
		return nil, err
	}

	font, err := bmfont.Load(descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptData, key, err)
	}

	out := &BitmapFontData{
		Face:       font.Descriptor.Info.Face,
		Size:       uint32(font.Descriptor.Info.Size),
		LineHeight: int32(font.Descriptor.Common.LineHeight),
		Baseline:   int32(font.Descriptor.Common.Base),
		AtlasSizeX: int32(font.Descriptor.Common.ScaleW),
		AtlasSizeY: int32(font.Descriptor.Common.ScaleH),
		Glyphs:     make([]FontGlyph, 0, len(font.Descriptor.Chars)),
		Kernings:   make([]FontKerning, 0, len(font.Descriptor.Kerning)),
		Pages:      make([]BitmapFontPage, 0, len(font.Descriptor.Pages)),
	}
	for _, p := range font.Descriptor.Pages {
		out.Pages = append(out.Pages, BitmapFontPage{
			ID:   int8(p.ID),
			File: p.File,
			Key:  pageKeys[p.File],
		})
	}
	for _, g := range font.Descriptor.Chars {
		out.Glyphs = append(out.Glyphs, FontGlyph{
			Codepoint: int32(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}
	for p, k := range font.Descriptor.Kerning {
		out.Kernings = append(out.Kernings, FontKerning{
			Codepoint0: int32(p.First),
			Codepoint1: int32(p.Second),
			Amount:     int16(k.Amount),
		})
	}

	slices.SortFunc(out.Pages, func(a, b BitmapFontPage) int { return int(a.ID) - int(b.ID) })
	slices.SortFunc(out.Glyphs, func(a, b FontGlyph) int { return int(a.Codepoint) - int(b.Codepoint) })
	slices.SortFunc(out.Kernings, func(a, b FontKerning) int {
		if a.Codepoint0 != b.Codepoint0 {
			return int(a.Codepoint0) - int(b.Codepoint0)
		}
		return int(a.Codepoint1) - int(b.Codepoint1)
	})
	return out, nil
}

// pageFiles reads the file attribute of every "page" line.
func pageFiles(data []byte) ([]string, error) {
	var files []string
	seen := false
	for _, line := range lines(data) {
		line = strings.TrimSpace(line)
		tag, rest, _ := strings.Cut(line, " ")
		switch tag {
		case "info", "common", "chars", "char", "kernings", "kerning":
			seen = true
		case "page":
			seen = true
			file, ok := attribute(rest, "file")
			if !ok || file == "" {
				return nil, fmt.Errorf("page without a file: %q", line)
			}
			files = append(files, file)
		}
	}
	if !seen {
		return nil, errors.New("not an AngelCode font descriptor")
	}
	return files, nil
}

// attribute returns the value of name in a line of key=value pairs. Values
// may be quoted and contain spaces.
func attribute(s, name string) (string, bool) {
	for s != "" {
		s = strings.TrimLeft(s, " \t")
		k, rest, ok := strings.Cut(s, "=")
		if !ok {
			return "", false
		}
		var v string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				return "", false
			}
			v, s = rest[1:end+1], rest[end+2:]
		} else {
			v, s, _ = strings.Cut(rest, " ")
		}
		if strings.TrimSpace(k) == name {
			return v, true
		}
	}
	return "", false
}
