package fetchers

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
	"github.com/spaghettifunk/anima-io/engine/systems"
)

// Disk reads local paths, one job per file on a shared worker pool. Relative
// keys are resolved against baseDir.
type Disk struct {
	baseDir string
	jobs    *systems.JobSystem
	metrics *core.Metrics
}

// NewDisk requires a running job system; it is not shut down by Disk.
func NewDisk(baseDir string, jobs *systems.JobSystem, metrics *core.Metrics) *Disk {
	return &Disk{
		baseDir: baseDir,
		jobs:    jobs,
		metrics: metrics,
	}
}

// Fetch waits for every read before returning. When reads fail the error
// of the earliest failing key in keys is returned.
func (d *Disk) Fetch(_ context.Context, keys []assets.AssetKey) (*assets.RawAssetStore, error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		out  = assets.NewRawAssetStore()
		errs = make([]error, len(keys))
	)
	for i, k := range keys {
		var data []byte
		wg.Add(1)
		err := d.jobs.Submit(systems.Job{
			Run: func() error {
				b, err := os.ReadFile(d.resolve(k))
				if err != nil {
					return err
				}
				data = b
				return nil
			},
			OnSuccess: func() {
				d.metrics.FetchCompleted(string(k), len(data))
				mu.Lock()
				out.Insert(k, data)
				mu.Unlock()
			},
			OnFailure: func(err error) {
				errs[i] = &core.FetchError{Key: string(k), Err: err}
			},
			OnDone: wg.Done,
		})
		if err != nil {
			errs[i] = &core.FetchError{Key: string(k), Err: err}
			wg.Done()
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Disk) resolve(k assets.AssetKey) string {
	p := filepath.FromSlash(string(k))
	if filepath.IsAbs(p) || d.baseDir == "" {
		return p
	}
	return filepath.Join(d.baseDir, p)
}
