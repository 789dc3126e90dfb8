package assets

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-io/engine/core"
)

// Match resolves key to the spelling it is stored under.
//
// An exact match wins. Otherwise the key is turned into a probe and every
// stored key containing the probe is a candidate; this tolerates base path
// and scheme prefixes. A trailing ".jpeg" or ".jpg" is cut back to ".jp"
// so the two spellings of the extension find each other. More than one
// candidate is an AmbiguousKeyError.
func (s *RawAssetStore) Match(key AssetKey) (AssetKey, error) {
	if _, ok := s.assets[key]; ok {
		return key, nil
	}
	probe := aliasProbe(string(key))
	if probe == "" {
		return "", &core.NotLoadedError{Key: string(key)}
	}

	var candidates []AssetKey
	for k := range s.assets {
		if strings.Contains(string(k), probe) {
			candidates = append(candidates, k)
		}
	}
	switch len(candidates) {
	case 0:
		return "", &core.NotLoadedError{Key: string(key)}
	case 1:
		return candidates[0], nil
	}

	slices.Sort(candidates)
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = truncateKey(c)
	}
	return "", &core.AmbiguousKeyError{Key: string(key), Candidates: names}
}

func aliasProbe(p string) string {
	switch {
	case strings.HasSuffix(p, ".jpeg"):
		return p[:len(p)-2]
	case strings.HasSuffix(p, ".jpg"):
		return p[:len(p)-1]
	}
	return p
}
