package loaders

import (
	"github.com/spaghettifunk/anima-io/engine/assets"
)

/** @brief Raw file contents, also viewed as little-endian 32 bit words. */
type BinaryData struct {
	Name  string
	Bytes []byte
	/** @brief Trailing bytes that do not fill a word are dropped. */
	Words []uint32
}

// BinaryFormat serves opaque buffers and SPIR-V modules.
type BinaryFormat struct{}

func (f *BinaryFormat) Type() ResourceType { return ResourceTypeBinary }

func (f *BinaryFormat) Extensions() []string { return []string{".bin", ".spv"} }

func (f *BinaryFormat) MediaTypes() []string { return []string{"application/octet-stream"} }

func (f *BinaryFormat) Dependencies(assets.AssetKey, []byte) ([]assets.AssetKey, error) {
	return nil, nil
}

func (f *BinaryFormat) Deserialize(key assets.AssetKey, store *assets.RawAssetStore) (any, error) {
	data, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	return &BinaryData{
		Name:  string(key),
		Bytes: data,
		Words: bytesToBytecode(data),
	}, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	return byteCode
}
