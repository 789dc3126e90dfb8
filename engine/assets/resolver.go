package assets

import (
	"context"

	"github.com/spaghettifunk/anima-io/engine/core"
)

// Load fetches keys and, transitively, everything their content references.
// On error no store is returned.
func (l *Loader) Load(ctx context.Context, keys ...AssetKey) (*RawAssetStore, error) {
	return l.resolve(ctx, NewRawAssetStore(), keys, false)
}

// LoadInto is Load accumulating into an existing store. Keys already in
// store are not fetched again. store is only modified when the whole load
// succeeds.
func (l *Loader) LoadInto(ctx context.Context, store *RawAssetStore, keys ...AssetKey) (*RawAssetStore, error) {
	if store == nil {
		store = NewRawAssetStore()
	}
	return l.resolve(ctx, store, keys, false)
}

// Refresh fetches keys again even when store holds them, then resolves any
// dependency the new content introduces.
func (l *Loader) Refresh(ctx context.Context, store *RawAssetStore, keys ...AssetKey) (*RawAssetStore, error) {
	if store == nil {
		store = NewRawAssetStore()
	}
	return l.resolve(ctx, store, keys, true)
}

func (l *Loader) resolve(ctx context.Context, store *RawAssetStore, keys []AssetKey, force bool) (*RawAssetStore, error) {
	id := core.NewLoadID()
	working := NewRawAssetStore()
	present := func(k AssetKey) bool {
		return working.Has(k) || store.Has(k)
	}

	var pending []AssetKey
	seen := make(map[AssetKey]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if !force && store.Has(k) {
			continue
		}
		pending = append(pending, k)
	}

	clock := core.NewClock()
	round := 0
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		round++
		clock.Start()
		fragment, err := l.fetchRound(ctx, pending)
		clock.Stop()
		if err != nil {
			core.LogError("load %s: round %d failed: %s", id.Short(), round, err)
			return nil, err
		}
		l.metrics.RoundCompleted(clock.Elapsed())

		fetched := fragment.Keys()
		working.Merge(fragment)
		pending = l.discover(working, fetched, present)
		core.LogDebug("load %s: round %d fetched %d assets in %s, %d new dependencies",
			id.Short(), round, len(fetched), clock.Elapsed(), len(pending))
	}

	store.Merge(working)
	if clock.Laps() > 0 {
		core.LogDebug("load %s: converged after %d rounds in %s, store holds %d assets",
			id.Short(), clock.Laps(), clock.Total(), store.Len())
	}
	return store, nil
}

// discover collects the dependencies of the freshly fetched keys that are
// not loaded yet. A key referenced twice is returned once.
func (l *Loader) discover(store *RawAssetStore, fetched []AssetKey, present func(AssetKey) bool) []AssetKey {
	if l.scanner == nil {
		return nil
	}
	var next []AssetKey
	seen := make(map[AssetKey]struct{})
	for _, k := range fetched {
		for _, dep := range l.dependencies(k, store) {
			if dep == "" || present(dep) {
				continue
			}
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			next = append(next, dep)
		}
	}
	return next
}

func (l *Loader) dependencies(key AssetKey, store *RawAssetStore) (deps []AssetKey) {
	defer func() {
		if r := recover(); r != nil {
			core.LogWarn("dependency scan of %s panicked: %v", truncateKey(key), r)
			deps = nil
		}
	}()
	return l.scanner.Dependencies(key, store)
}
