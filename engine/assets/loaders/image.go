package loaders

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

/** @brief Decoded image pixels, always 8 bit RGBA. */
type ImageData struct {
	/** @brief The name of the image, the key it was decoded from. */
	Name string
	/** @brief The codec that decoded the image (png, jpeg, ...). */
	Codec        string
	ChannelCount uint8
	Width        uint32
	Height       uint32
	/** @brief Width * Height * ChannelCount bytes, rows top to bottom unless flipped. */
	Pixels []uint8
}

type ImageFormat struct {
	// FlipY stores rows bottom to top, as GPU texture uploads expect.
	FlipY bool
}

func (f *ImageFormat) Type() ResourceType { return ResourceTypeImage }

func (f *ImageFormat) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

func (f *ImageFormat) MediaTypes() []string {
	return []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff", "image/webp"}
}

// Images never reference other assets.
func (f *ImageFormat) Dependencies(assets.AssetKey, []byte) ([]assets.AssetKey, error) {
	return nil, nil
}

func (f *ImageFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	img, codec, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image %s: %v", core.ErrCorruptData, key, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	if f.FlipY {
		flipRows(rgba.Pix, rgba.Stride, bounds.Dy())
	}

	return &ImageData{
		Name:         string(key),
		Codec:        codec,
		ChannelCount: 4,
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		Pixels:       rgba.Pix,
	}, nil
}

func flipRows(pix []uint8, stride, height int) {
	tmp := make([]uint8, stride)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
