package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-io/engine/containers"
	"github.com/spaghettifunk/anima-io/engine/core"
)

const (
	eventBufferSize  = 16
	eventBacklogSize = 256
	flushInterval    = 100 * time.Millisecond
)

// Event reports a reload triggered by a change on disk.
type Event struct {
	Key AssetKey
	Op  fsnotify.Op
	// Err is set when the reload failed; the previous bytes are kept.
	Err error
}

// AssetManager keeps a store up to date with the files it was loaded from.
// Every local key is watched and fetched again when its file is written.
type AssetManager struct {
	loader  *Loader
	baseDir string

	mutex sync.RWMutex
	store *RawAssetStore
	// absolute file path -> key
	watched map[string]AssetKey
	dirs    map[string]struct{}

	fsnotify *fsnotify.Watcher
	events   chan Event
	// events the consumer has not taken yet, oldest first
	backlog   *containers.RingQueue[Event]
	backlogMu sync.Mutex
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	isClosed  bool
}

// NewAssetManager starts watching immediately. Relative local keys are
// resolved against baseDir, the working directory when empty.
func NewAssetManager(loader *Loader, baseDir string) (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if baseDir == "" {
		if baseDir, err = os.Getwd(); err != nil {
			fsWatch.Close()
			return nil, err
		}
	}

	am := &AssetManager{
		loader:   loader,
		baseDir:  baseDir,
		store:    NewRawAssetStore(),
		watched:  make(map[string]AssetKey),
		dirs:     make(map[string]struct{}),
		fsnotify: fsWatch,
		events:   make(chan Event, eventBufferSize),
		backlog:  containers.NewRingQueue[Event](eventBacklogSize),
		done:     make(chan struct{}),
	}
	am.wg.Add(1)
	go am.start()
	return am, nil
}

// Load resolves keys into the managed store and watches every local file
// the store now holds. Readers block until the load completes.
func (am *AssetManager) Load(ctx context.Context, keys ...AssetKey) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	if _, err := am.loader.LoadInto(ctx, am.store, keys...); err != nil {
		return err
	}
	for k := range am.store.All() {
		if err := am.watch(k); err != nil {
			core.LogWarn("not watching %s: %s", k, err)
		}
	}
	return nil
}

// Get returns a copy of the bytes stored for key or one of its aliases.
func (am *AssetManager) Get(key AssetKey) ([]byte, error) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	b, err := am.store.Get(key)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Take removes key from the managed store and stops reloading it.
func (am *AssetManager) Take(key AssetKey) ([]byte, error) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	k, err := am.store.Match(key)
	if err != nil {
		return nil, err
	}
	for p, wk := range am.watched {
		if wk == k {
			delete(am.watched, p)
		}
	}
	return am.store.Remove(k)
}

func (am *AssetManager) Keys() []AssetKey {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.store.Keys()
}

// Events delivers one event per reload. It is closed by Close.
func (am *AssetManager) Events() <-chan Event {
	return am.events
}

func (am *AssetManager) Close() error {
	var err error
	am.closeOnce.Do(func() {
		// done first, it cancels a reload in flight
		close(am.done)
		am.mutex.Lock()
		am.isClosed = true
		am.mutex.Unlock()

		am.wg.Wait()
		err = am.fsnotify.Close()
		close(am.events)
	})
	return err
}

// watch adds the directory of a local key to the watch list. Must be
// called with the lock held.
func (am *AssetManager) watch(k AssetKey) error {
	if k.Kind() != KindLocalPath {
		return nil
	}
	p := filepath.FromSlash(string(k))
	if !filepath.IsAbs(p) {
		p = filepath.Join(am.baseDir, p)
	}
	p = filepath.Clean(p)
	if _, ok := am.watched[p]; ok {
		return nil
	}
	dir := filepath.Dir(p)
	if _, ok := am.dirs[dir]; !ok {
		if err := am.fsnotify.Add(dir); err != nil {
			return err
		}
		am.dirs[dir] = struct{}{}
	}
	am.watched[p] = k
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			am.backlogMu.Lock()
			am.flush()
			am.backlogMu.Unlock()

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleFileEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

// Handle the creation or modification of a watched file
func (am *AssetManager) handleFileEvent(e fsnotify.Event) {
	am.mutex.Lock()
	key, ok := am.watched[filepath.Clean(e.Name)]
	if !ok || am.isClosed {
		am.mutex.Unlock()
		return
	}

	var err error
	switch {
	case e.Op&(fsnotify.Create|fsnotify.Write) != 0:
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-am.done:
				cancel()
			case <-ctx.Done():
			}
		}()
		_, err = am.loader.Refresh(ctx, am.store, key)
		cancel()
		if err == nil {
			for k := range am.store.All() {
				if werr := am.watch(k); werr != nil {
					core.LogWarn("not watching %s: %s", k, werr)
				}
			}
			core.LogInfo("reloaded %s", key)
		} else {
			core.LogError("reloading %s: %s", key, err)
		}
	case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// keep the last good bytes, a save often replaces the file
		core.LogDebug("%s went away, keeping the loaded bytes", key)
	default:
		am.mutex.Unlock()
		return
	}
	am.mutex.Unlock()

	am.publish(Event{Key: key, Op: e.Op, Err: err})
}

// publish queues ev behind any undelivered events. When the backlog is
// full the oldest event is dropped.
func (am *AssetManager) publish(ev Event) {
	am.backlogMu.Lock()
	defer am.backlogMu.Unlock()

	if am.backlog.IsFull() {
		dropped, _ := am.backlog.Dequeue()
		core.LogWarn("event backlog full, dropping reload event for %s", dropped.Key)
	}
	_ = am.backlog.Enqueue(ev)
	am.flush()
}

// flush hands queued events to the channel until it is full. Must be
// called with backlogMu held.
func (am *AssetManager) flush() {
	for !am.backlog.IsEmpty() {
		ev, _ := am.backlog.Peek()
		select {
		case am.events <- ev:
			_, _ = am.backlog.Dequeue()
		default:
			return
		}
	}
}
