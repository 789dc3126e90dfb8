package core

import (
	"sync"
	"time"
)

// Metrics collects counters from the loader and its fetchers. All methods
// are safe for concurrent use and are no-ops on a nil receiver, so
// components can be built without instrumentation.
type Metrics struct {
	mu sync.Mutex

	rounds       int
	roundTime    time.Duration
	fetches      map[string]int
	bytesFetched int64
	inFlight     map[string]int
	peak         map[string]int
}

func NewMetrics() *Metrics {
	return &Metrics{
		fetches:  make(map[string]int),
		inFlight: make(map[string]int),
		peak:     make(map[string]int),
	}
}

func (m *Metrics) RoundCompleted(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds++
	m.roundTime += elapsed
}

func (m *Metrics) FetchCompleted(key string, size int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[key]++
	m.bytesFetched += int64(size)
}

func (m *Metrics) HostAcquired(host string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight[host]++
	if m.inFlight[host] > m.peak[host] {
		m.peak[host] = m.inFlight[host]
	}
}

func (m *Metrics) HostReleased(host string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight[host]--
}

func (m *Metrics) Rounds() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rounds
}

// RoundTime is the accumulated wall time of all completed rounds.
func (m *Metrics) RoundTime() time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roundTime
}

// Fetches returns how many times key was fetched from its source.
func (m *Metrics) Fetches(key string) int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[key]
}

func (m *Metrics) TotalFetches() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.fetches {
		total += n
	}
	return total
}

func (m *Metrics) BytesFetched() int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytesFetched
}

// PeakInFlight is the highest number of simultaneous requests observed
// against host.
func (m *Metrics) PeakInFlight(host string) int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak[host]
}
