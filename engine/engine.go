package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/assets/fetchers"
	"github.com/spaghettifunk/anima-io/engine/assets/loaders"
	"github.com/spaghettifunk/anima-io/engine/config"
	"github.com/spaghettifunk/anima-io/engine/core"
	"github.com/spaghettifunk/anima-io/engine/systems"
)

type Stage uint8

var ErrNotInitialized = errors.New("engine is not initialized")

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine completed boot process and is ready to be used
	EngineStageInitialized
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

// Engine wires the asset loader to its fetchers and the format registry
// according to a Config.
type Engine struct {
	mutex        sync.Mutex
	currentStage Stage
	config       *config.Config

	jobSystem    *systems.JobSystem
	metrics      *core.Metrics
	network      *fetchers.Network
	registry     *loaders.Registry
	loader       *assets.Loader
	assetManager *assets.AssetManager
}

func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	js, err := systems.NewJobSystem(cfg.Loader.DiskWorkers, cfg.Loader.DiskWorkers*4)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	e := &Engine{
		config:    cfg,
		jobSystem: js,
		metrics:   core.NewMetrics(),
		registry:  loaders.DefaultRegistry(),
	}

	var sources assets.Sources
	if cfg.Network.Enabled {
		e.network = fetchers.NewNetwork(fetchers.NetworkOptions{
			Client: fetchers.NewHTTPClient(
				time.Duration(cfg.Network.ConnectTimeout),
				time.Duration(cfg.Network.RequestTimeout),
			),
			Throttle:      fetchers.NewHostThrottle(cfg.Network.ConnPerHost, e.metrics),
			UserAgent:     cfg.Network.UserAgent,
			DefaultScheme: cfg.Network.DefaultScheme,
			SniffHTML:     cfg.Network.SniffHTML,
			Metrics:       e.metrics,
		})
		sources.Remote = e.network
	}

	if cfg.Loader.BaseURL != "" {
		rebased, err := fetchers.NewRebased(cfg.Loader.BaseURL, e.network)
		if err != nil {
			js.Shutdown()
			return nil, err
		}
		sources.Local = rebased
	} else {
		sources.Local = fetchers.NewDisk(cfg.Loader.BaseDir, js, e.metrics)
	}
	sources.Inline = fetchers.NewDataURI(e.metrics)

	e.loader = assets.NewLoader(sources, e.registry, assets.WithMetrics(e.metrics))
	e.currentStage = EngineStageInitialized
	core.LogDebug("engine %s initialized: network=%t base_dir=%q base_url=%q",
		core.Version, cfg.Network.Enabled, cfg.Loader.BaseDir, cfg.Loader.BaseURL)
	return e, nil
}

func (e *Engine) Stage() Stage {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.currentStage
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) Loader() *assets.Loader {
	return e.loader
}

func (e *Engine) Registry() *loaders.Registry {
	return e.registry
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

// Load fetches keys and everything they reference into a new store.
func (e *Engine) Load(ctx context.Context, keys ...string) (*assets.RawAssetStore, error) {
	if e.Stage() != EngineStageInitialized {
		return nil, ErrNotInitialized
	}
	return e.loader.Load(ctx, assets.Keys(keys...)...)
}

// LoadInto accumulates keys into store, leaving it untouched on error.
func (e *Engine) LoadInto(ctx context.Context, store *assets.RawAssetStore, keys ...string) (*assets.RawAssetStore, error) {
	if e.Stage() != EngineStageInitialized {
		return nil, ErrNotInitialized
	}
	return e.loader.LoadInto(ctx, store, assets.Keys(keys...)...)
}

func (e *Engine) Deserialize(key string, store *assets.RawAssetStore) (any, error) {
	return e.registry.Deserialize(assets.NewKey(key), store)
}

// Watch returns the engine's asset manager, creating it on first use. Local
// keys loaded through it are reloaded when their files change.
func (e *Engine) Watch() (*assets.AssetManager, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.currentStage != EngineStageInitialized {
		return nil, ErrNotInitialized
	}
	if e.assetManager != nil {
		return e.assetManager, nil
	}
	if e.config.Loader.BaseURL != "" {
		return nil, &core.CapabilityError{Feature: "watch"}
	}
	am, err := assets.NewAssetManager(e.loader, e.config.Loader.BaseDir)
	if err != nil {
		return nil, err
	}
	e.assetManager = am
	return am, nil
}

func (e *Engine) Shutdown() error {
	e.mutex.Lock()
	if e.currentStage != EngineStageInitialized {
		e.mutex.Unlock()
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	am := e.assetManager
	e.mutex.Unlock()

	var err error
	if am != nil {
		err = am.Close()
	}
	e.jobSystem.Shutdown()

	e.mutex.Lock()
	e.currentStage = EngineStageShutdown
	e.mutex.Unlock()
	return err
}
