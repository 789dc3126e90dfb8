package assets

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// AssetKey identifies a blob of bytes: a local path, an absolute URL or an
// inline data URI.
type AssetKey string

type Kind uint8

const (
	KindLocalPath Kind = iota
	KindAbsoluteURL
	KindDataURI
)

func (k Kind) String() string {
	switch k {
	case KindLocalPath:
		return "path"
	case KindAbsoluteURL:
		return "url"
	case KindDataURI:
		return "data"
	default:
		return "unknown"
	}
}

// NewKey normalizes s. Local paths use forward slashes and are cleaned;
// URLs and data URIs are kept as given.
func NewKey(s string) AssetKey {
	s = strings.TrimSpace(s)
	switch classify(s) {
	case KindDataURI, KindAbsoluteURL:
		return AssetKey(s)
	}
	if s == "" {
		return ""
	}
	return AssetKey(path.Clean(filepath.ToSlash(s)))
}

func Keys(s ...string) []AssetKey {
	keys := make([]AssetKey, 0, len(s))
	for _, k := range s {
		keys = append(keys, NewKey(k))
	}
	return keys
}

func (k AssetKey) String() string {
	return string(k)
}

func (k AssetKey) Kind() Kind {
	return classify(string(k))
}

// Ext returns the lower-cased extension including the dot. Data URIs have
// none; for URLs the query and fragment are ignored.
func (k AssetKey) Ext() string {
	switch k.Kind() {
	case KindDataURI:
		return ""
	case KindAbsoluteURL:
		if u, err := url.Parse(string(k)); err == nil {
			return strings.ToLower(path.Ext(u.Path))
		}
	}
	return strings.ToLower(path.Ext(string(k)))
}

// Join resolves ref, found inside the content of k, into a key. Data URIs
// and absolute URLs stand on their own; relative references are taken
// relative to the directory holding k.
func (k AssetKey) Join(ref string) AssetKey {
	ref = strings.TrimSpace(ref)
	switch classify(ref) {
	case KindDataURI, KindAbsoluteURL:
		return AssetKey(ref)
	}
	switch k.Kind() {
	case KindAbsoluteURL:
		base, err := url.Parse(string(k))
		if err != nil {
			break
		}
		rel, err := url.Parse(ref)
		if err != nil {
			break
		}
		return AssetKey(base.ResolveReference(rel).String())
	case KindDataURI:
		return NewKey(ref)
	}
	if path.IsAbs(filepath.ToSlash(ref)) {
		return NewKey(ref)
	}
	return NewKey(path.Join(path.Dir(string(k)), filepath.ToSlash(ref)))
}

func classify(s string) Kind {
	if strings.HasPrefix(s, "data:") {
		return KindDataURI
	}
	if i := strings.Index(s, "://"); i > 0 {
		return KindAbsoluteURL
	}
	if strings.HasPrefix(s, "//") {
		return KindAbsoluteURL
	}
	return KindLocalPath
}

// Batch is one fetch round's keys partitioned by source.
type Batch struct {
	Local  []AssetKey
	Remote []AssetKey
	Inline []AssetKey
}

func (b Batch) Len() int {
	return len(b.Local) + len(b.Remote) + len(b.Inline)
}

// Classify partitions keys by kind, dropping duplicates and empty keys.
func Classify(keys []AssetKey) Batch {
	var b Batch
	seen := make(map[AssetKey]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		switch k.Kind() {
		case KindDataURI:
			b.Inline = append(b.Inline, k)
		case KindAbsoluteURL:
			b.Remote = append(b.Remote, k)
		default:
			b.Local = append(b.Local, k)
		}
	}
	return b
}
