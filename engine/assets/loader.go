package assets

import (
	"context"
	"sync"

	"github.com/spaghettifunk/anima-io/engine/core"
)

// Fetcher retrieves the bytes for a set of keys of one source kind. It
// returns a fragment holding every key or the first error it saw.
type Fetcher interface {
	Fetch(ctx context.Context, keys []AssetKey) (*RawAssetStore, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, keys []AssetKey) (*RawAssetStore, error)

func (f FetcherFunc) Fetch(ctx context.Context, keys []AssetKey) (*RawAssetStore, error) {
	return f(ctx, keys)
}

// DependencyScanner reports which other assets the content stored under key
// references. It must not fail: unreadable content has no dependencies.
type DependencyScanner interface {
	Dependencies(key AssetKey, store *RawAssetStore) []AssetKey
}

// Sources selects one fetcher per source kind. A nil fetcher means the
// capability is missing and any key of that kind fails the load.
type Sources struct {
	Local  Fetcher
	Remote Fetcher
	Inline Fetcher
}

type Loader struct {
	sources Sources
	scanner DependencyScanner
	metrics *core.Metrics
}

type LoaderOption func(*Loader)

func WithMetrics(m *core.Metrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = m
	}
}

// NewLoader builds a loader. scanner may be nil, in which case only the
// requested keys are fetched.
func NewLoader(sources Sources, scanner DependencyScanner, opts ...LoaderOption) *Loader {
	l := &Loader{
		sources: sources,
		scanner: scanner,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

type fetchResult struct {
	store *RawAssetStore
	err   error
}

// fetchRound runs every fetcher needed for keys concurrently and waits for
// all of them. Disk and data URI failures take precedence over network
// failures; on any failure nothing fetched in the round is kept.
func (l *Loader) fetchRound(ctx context.Context, keys []AssetKey) (*RawAssetStore, error) {
	batch := Classify(keys)

	var (
		wg                    sync.WaitGroup
		local, inline, remote fetchResult
	)
	run := func(f Fetcher, feature string, keys []AssetKey, out *fetchResult) {
		if len(keys) == 0 {
			return
		}
		if f == nil {
			out.err = &core.CapabilityError{Feature: feature}
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.store, out.err = f.Fetch(ctx, keys)
		}()
	}
	run(l.sources.Local, "disk", batch.Local, &local)
	run(l.sources.Inline, "data-url", batch.Inline, &inline)
	run(l.sources.Remote, "network", batch.Remote, &remote)
	wg.Wait()

	round := NewRawAssetStore()
	for _, r := range []fetchResult{local, inline, remote} {
		if r.err != nil {
			return nil, r.err
		}
		round.Merge(r.store)
	}
	return round, nil
}
