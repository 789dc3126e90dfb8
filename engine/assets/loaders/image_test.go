package loaders

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageDeserialize(t *testing.T) {
	s := assets.NewRawAssetStore()
	s.Insert("textures/red.png", encodePNG(t))

	v, err := (&ImageFormat{}).Deserialize("textures/red.png", s)
	if err != nil {
		t.Fatal(err)
	}
	img := v.(*ImageData)
	if img.Codec != "png" || img.Width != 2 || img.Height != 2 || len(img.Pixels) != 16 {
		t.Fatalf("image %+v", img)
	}
	if img.Pixels[0] != 255 || img.Pixels[2] != 0 {
		t.Fatalf("top left pixel %v", img.Pixels[:4])
	}

	v, err = (&ImageFormat{FlipY: true}).Deserialize("textures/red.png", s)
	if err != nil {
		t.Fatal(err)
	}
	flipped := v.(*ImageData)
	if flipped.Pixels[0] != 0 || flipped.Pixels[2] != 255 {
		t.Fatalf("flipped top left pixel %v", flipped.Pixels[:4])
	}
}

func TestImageCorrupt(t *testing.T) {
	r := DefaultRegistry()
	s := storeOf(map[assets.AssetKey]string{"bad.png": "definitely not a png"})
	if deps := r.Dependencies("bad.png", s); len(deps) != 0 {
		t.Fatalf("deps %v", deps)
	}
	if _, err := r.Deserialize("bad.png", s); !errors.Is(err, core.ErrCorruptData) {
		t.Fatalf("want ErrCorruptData, got %v", err)
	}
}

func TestImageDataURI(t *testing.T) {
	r := DefaultRegistry()
	key := assets.AssetKey("data:image/png;base64,AAAA")
	s := assets.NewRawAssetStore()
	s.Insert(key, encodePNG(t))

	img, err := Deserialize[*ImageData](r, key, s)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 2 {
		t.Fatalf("image %+v", img)
	}
}
