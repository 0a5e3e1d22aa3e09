// Package storage fronts the skip list core with the KeyValueHolder surface
// the ports consume. A Store is one skip list plus a bloom negative-lookup
// filter and operation metrics; Sharded distributes keys over several stores.
package storage

import (
	"cmp"
	"flag"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/momu/skipdb/pkg/skiplist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	maxLevelFlag = flag.Int("skiplist_max_level", 16,
		"Ceiling on skip list node level indexes; around log2 of the expected key count.")
	filterKeysFlag = flag.Int("negative_filter_keys", 1_000_000,
		"Expected key count used to size the negative lookup filter; 0 disables the filter.")
)

var (
	opsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skipdb_store_ops_total",
		Help: "The total number of store operations, by operation name.",
	}, []string{"op"})
	keysMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "skipdb_store_keys",
		Help: "The number of keys currently held, summed over all stores.",
	})
	filterSkipsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skipdb_negative_filter_skips_total",
		Help: "The number of lookups answered by the negative filter without touching the list.",
	})
)

// Store serves key-value pairs from a single skip list instance.
type Store struct { // Implements KeyValueHolder.
	// mux keeps the filter and the list in step; the list additionally
	// serializes its own operations on its instance mutex.
	mux    sync.RWMutex
	list   *skiplist.SkipList[string, string]
	filter *bloom.BloomFilter // Never yields false negatives; nil when disabled.
}

var _ KeyValueHolder = (*Store)(nil)

// NewStore is the constructor for Store. The skip list ceiling and the
// negative filter size come from flags.
func NewStore() *Store {
	var filter *bloom.BloomFilter
	if *filterKeysFlag > 0 {
		filter = bloom.NewWithEstimates(uint(*filterKeysFlag), 0.01 /*fpRate*/)
	}
	return &Store{
		list:   skiplist.New[string, string](cmp.Compare, skiplist.WithMaxLevel(*maxLevelFlag)),
		filter: filter,
	}
}

// missesFilter reports that `key` was never written to this store. Deleted
// keys stay in the filter, so passing it only means "maybe present"; a pass
// costs one list lookup, never correctness. Callers must hold the mutex.
func (s *Store) missesFilter(key string) bool {
	if s.filter == nil || s.filter.TestString(key) {
		return false
	}
	filterSkipsMetric.Inc()
	return true
}

// Get looks up the given `key` and returns its value or an error if not found.
func (s *Store) Get(key string) (string, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	opsMetric.WithLabelValues("get").Inc()
	if s.missesFilter(key) {
		return "", ErrKeyNotFound
	}
	return s.list.Get(key)
}

// Contains reports whether `key` is present.
func (s *Store) Contains(key string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	opsMetric.WithLabelValues("contains").Inc()
	if s.missesFilter(key) {
		return false
	}
	return s.list.Contains(key)
}

// Set inserts or updates the value for the given `key`.
func (s *Store) Set(key, value string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	opsMetric.WithLabelValues("set").Inc()
	if s.filter != nil {
		s.filter.AddString(key)
	}
	updated, err := s.list.Set(key, value)
	if err == nil && !updated {
		keysMetric.Inc()
	}
	return err
}

// Delete removes `key` or returns ErrKeyNotFound.
func (s *Store) Delete(key string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	opsMetric.WithLabelValues("delete").Inc()
	if s.missesFilter(key) {
		return ErrKeyNotFound
	}
	err := s.list.Delete(key)
	if err == nil {
		keysMetric.Dec()
	}
	return err
}

// Len returns the number of keys currently held.
func (s *Store) Len() int {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.list.Len()
}

// Close tears the underlying list down. The store must not be used afterwards.
func (s *Store) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	keysMetric.Sub(float64(s.list.Len()))
	return s.list.Close()
}
