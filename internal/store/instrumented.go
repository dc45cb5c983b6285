package store

import (
	"sync/atomic"
	"time"

	"github.com/heysubinoy/rpkv/pkg/kv"
)

// Metrics holds timing statistics for store operations.
// Uses atomic operations for thread-safe updates without locks.
type Metrics struct {
	GetCount  atomic.Uint64
	PutCount  atomic.Uint64
	GetErrors atomic.Uint64
	PutErrors atomic.Uint64
	GetMisses atomic.Uint64

	// Cumulative latencies in nanoseconds
	GetLatencyNs atomic.Uint64
	PutLatencyNs atomic.Uint64
}

// InstrumentedStore wraps any kv.Store implementation with timing metrics.
type InstrumentedStore struct {
	store   kv.Store
	metrics *Metrics
}

// Compile-time check to ensure InstrumentedStore implements kv.Store.
var _ kv.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps a store with instrumentation.
func NewInstrumentedStore(store kv.Store) *InstrumentedStore {
	return &InstrumentedStore{
		store:   store,
		metrics: &Metrics{},
	}
}

// Get delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Get(key string) (string, bool, error) {
	start := time.Now()
	value, found, err := s.store.Get(key)
	elapsed := time.Since(start).Nanoseconds()

	s.metrics.GetCount.Add(1)
	s.metrics.GetLatencyNs.Add(uint64(elapsed))
	switch {
	case err != nil:
		s.metrics.GetErrors.Add(1)
	case !found:
		s.metrics.GetMisses.Add(1)
	}

	return value, found, err
}

// Put delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Put(key, value string) error {
	start := time.Now()
	err := s.store.Put(key, value)
	elapsed := time.Since(start).Nanoseconds()

	s.metrics.PutCount.Add(1)
	s.metrics.PutLatencyNs.Add(uint64(elapsed))
	if err != nil {
		s.metrics.PutErrors.Add(1)
	}

	return err
}

// Path is not timed; it never touches storage.
func (s *InstrumentedStore) Path() string {
	return s.store.Path()
}

// GetMetrics returns a snapshot of current metrics.
func (s *InstrumentedStore) GetMetrics() MetricsSnapshot {
	getCount := s.metrics.GetCount.Load()
	putCount := s.metrics.PutCount.Load()

	return MetricsSnapshot{
		GetCount:      getCount,
		PutCount:      putCount,
		GetErrors:     s.metrics.GetErrors.Load(),
		PutErrors:     s.metrics.PutErrors.Load(),
		GetMisses:     s.metrics.GetMisses.Load(),
		GetAvgLatency: s.avgLatency(s.metrics.GetLatencyNs.Load(), getCount),
		PutAvgLatency: s.avgLatency(s.metrics.PutLatencyNs.Load(), putCount),
	}
}

// ResetMetrics clears all metrics counters.
func (s *InstrumentedStore) ResetMetrics() {
	s.metrics.GetCount.Store(0)
	s.metrics.PutCount.Store(0)
	s.metrics.GetErrors.Store(0)
	s.metrics.PutErrors.Store(0)
	s.metrics.GetMisses.Store(0)
	s.metrics.GetLatencyNs.Store(0)
	s.metrics.PutLatencyNs.Store(0)
}

func (s *InstrumentedStore) avgLatency(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	GetCount      uint64
	PutCount      uint64
	GetErrors     uint64
	PutErrors     uint64
	GetMisses     uint64
	GetAvgLatency time.Duration
	PutAvgLatency time.Duration
}
