package fetchers

import (
	"context"
	"sync"

	"github.com/spaghettifunk/anima-io/engine/core"
)

// DefaultConnPerHost bounds in-flight requests to one host.
const DefaultConnPerHost = 8

// HostThrottle caps concurrent requests per host. Semaphores are created
// lazily the first time a host is seen. One throttle may be shared by
// several network fetchers to apply the cap across load operations.
type HostThrottle struct {
	mu      sync.Mutex
	limit   int
	hosts   map[string]chan struct{}
	metrics *core.Metrics
}

// NewHostThrottle builds a throttle allowing limit requests per host; a
// limit below one selects DefaultConnPerHost. metrics may be nil.
func NewHostThrottle(limit int, metrics *core.Metrics) *HostThrottle {
	if limit < 1 {
		limit = DefaultConnPerHost
	}
	return &HostThrottle{
		limit:   limit,
		hosts:   make(map[string]chan struct{}),
		metrics: metrics,
	}
}

func (t *HostThrottle) Limit() int {
	return t.limit
}

// Acquire blocks until a slot for host is free or ctx is done. The returned
// release func must be called once the response body has been consumed; it
// is safe to call more than once.
func (t *HostThrottle) Acquire(ctx context.Context, host string) (func(), error) {
	sem := t.semaphore(host)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	t.metrics.HostAcquired(host)

	var once sync.Once
	return func() {
		once.Do(func() {
			t.metrics.HostReleased(host)
			<-sem
		})
	}, nil
}

func (t *HostThrottle) semaphore(host string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	sem, ok := t.hosts[host]
	if !ok {
		sem = make(chan struct{}, t.limit)
		t.hosts[host] = sem
	}
	return sem
}
