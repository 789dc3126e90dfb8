package fetchers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

// Rebased serves local paths from a web location instead of a disk, the
// way a hosted runtime resolves them against its document URL. Assets are
// stored under the key that was asked for, not the URL they came from.
type Rebased struct {
	base    *url.URL
	network *Network
}

// NewRebased resolves local paths against baseURL. A base without a
// trailing slash is treated as a document and its parent directory is used.
func NewRebased(baseURL string, network *Network) (*Rebased, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &core.URLParseError{Key: baseURL, Err: err}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &core.URLParseError{Key: baseURL, Err: fmt.Errorf("base url must be absolute")}
	}
	return &Rebased{base: base, network: network}, nil
}

func (r *Rebased) Fetch(ctx context.Context, keys []assets.AssetKey) (*assets.RawAssetStore, error) {
	remote := make([]assets.AssetKey, 0, len(keys))
	// several spellings of a path may resolve to the same url
	origin := make(map[assets.AssetKey][]assets.AssetKey, len(keys))
	for _, k := range keys {
		ref, err := url.Parse(string(k))
		if err != nil {
			return nil, &core.URLParseError{Key: string(k), Err: err}
		}
		rk := assets.AssetKey(r.base.ResolveReference(ref).String())
		if _, ok := origin[rk]; !ok {
			remote = append(remote, rk)
		}
		origin[rk] = append(origin[rk], k)
	}

	fragment, err := r.network.Fetch(ctx, remote)
	if err != nil {
		return nil, err
	}
	out := assets.NewRawAssetStore()
	for rk, data := range fragment.All() {
		for i, k := range origin[rk] {
			if i > 0 {
				data = append([]byte(nil), data...)
			}
			out.Insert(k, data)
		}
	}
	return out, nil
}
