// Package skiplist implements the ordered in-memory container backing skipdb.
//
// A skip list maintains multiple forward-pointer layers over a sorted linked
// list. Each inserted key is promoted to higher levels by repeated fair coin
// flips, forming express lanes that let searches skip over large ranges.
// Operations start at the highest populated level and descend whenever
// advancing would overshoot the target key.
//
// Properties
// - Expected time complexity for Get/Set/Delete: O(log n)
// - Space complexity: O(n)
// - Probabilistic balancing with promotion probability 1/2
// - One mutex per list instance; every public operation is serialized
package skiplist

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/momu/skipdb/pkg/utils"
)

var (
	// ErrKeyNotFound is returned when a looked-up key is absent.
	ErrKeyNotFound = errors.New("key was not found")
	// ErrClosed is returned by operations invoked after Close.
	ErrClosed = errors.New("skip list is closed")

	errNotInitialized = errors.New("skip list not initialized")
)

// defaultMaxLevel is the default ceiling on node level indexes.
const defaultMaxLevel = 16

// promotionP is the chance of promoting a node one more level up.
const promotionP = 0.5

// node holds one key-value pair. forwards[i] is the next node at level i or
// nil; its length is the node's highest level index plus one.
type node[K any, V any] struct {
	key      K
	value    V
	forwards []*node[K, V]
}

// SkipList is a probabilistically balanced ordered map. Keys are ordered by
// the three-way compare function given at construction. The whole structure
// (head sentinel, level count, element count, node graph) is guarded by a
// single instance mutex, so the public surface is strictly serializable:
// concurrent callers observe a total order of whole operations and never a
// partially spliced node.
type SkipList[K any, V any] struct {
	mux      sync.Mutex
	compare  utils.CompareFn[K]
	head     *node[K, V] // Sentinel; occupies every level and stores no pair.
	level    int         // Highest level index currently holding at least one node.
	maxLevel int
	length   int
	rnd      *rand.Rand // Instance-private so seeded lists are reproducible.
	closed   bool
}

type options struct {
	maxLevel int
	seed     int64
	seeded   bool
}

// Option configures a SkipList at construction time.
type Option func(*options)

// WithMaxLevel sets the ceiling on node level indexes; nodes occupy levels
// 0..maxLevel. A ceiling around log2 of the expected element count works well.
func WithMaxLevel(maxLevel int) Option {
	return func(o *options) { o.maxLevel = maxLevel }
}

// WithSeed pins the instance random source, making node levels (and thus the
// whole list shape) reproducible across runs.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// New creates an empty skip list ordered by `compare`.
// Defaults: maxLevel=16, seeded from the wall clock.
func New[K any, V any](compare utils.CompareFn[K], opts ...Option) *SkipList[K, V] {
	conf := options{maxLevel: defaultMaxLevel}
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.maxLevel < 0 {
		utils.RaiseInvariant("skiplist", "negative_max_level",
			"Got a negative max level, falling back to the default.", "maxLevel", conf.maxLevel)
		conf.maxLevel = defaultMaxLevel
	}
	if !conf.seeded {
		conf.seed = time.Now().UnixNano()
	}
	return &SkipList[K, V]{
		compare:  compare,
		head:     &node[K, V]{forwards: make([]*node[K, V], conf.maxLevel+1)},
		maxLevel: conf.maxLevel,
		rnd:      rand.New(rand.NewSource(conf.seed)),
	}
}

// randomLevel draws a level for a new node: start at zero and climb while a
// fair coin lands heads, capped at maxLevel. P(level = k) is 2^-(k+1) with
// the tail folded into maxLevel.
func (s *SkipList[K, V]) randomLevel() int {
	lvl := 0
	for lvl < s.maxLevel && s.rnd.Float64() < promotionP {
		lvl++
	}
	return lvl
}

// findPredecessors returns, per level, the last node whose key is strictly
// less than `key` (the head sentinel when none qualifies). Indexes above the
// current max active level stay nil until Set raises the level. Callers must
// hold the mutex.
func (s *SkipList[K, V]) findPredecessors(key K) []*node[K, V] {
	predecessors := make([]*node[K, V], s.maxLevel+1)
	n := s.head
	for lvl := s.level; lvl >= 0; lvl-- {
		for next := n.forwards[lvl]; next != nil && s.compare(next.key, key) < 0; next = n.forwards[lvl] {
			n = next
		}
		predecessors[lvl] = n
	}
	return predecessors
}

// candidate returns the level-0 successor of `pred` when its key matches
// `key` exactly, nil otherwise.
func (s *SkipList[K, V]) candidate(pred *node[K, V], key K) *node[K, V] {
	if next := pred.forwards[0]; next != nil && s.compare(next.key, key) == 0 {
		return next
	}
	return nil
}

// Get returns the value for key or ErrKeyNotFound if the key is absent.
func (s *SkipList[K, V]) Get(key K) (V, error) {
	var zero V
	if s == nil || s.head == nil || s.compare == nil {
		return zero, errNotInitialized
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return zero, ErrClosed
	}
	if n := s.candidate(s.findPredecessors(key)[0], key); n != nil {
		return n.value, nil
	}
	return zero, ErrKeyNotFound
}

// Contains reports whether key is present. A closed list contains nothing.
func (s *SkipList[K, V]) Contains(key K) bool {
	if s == nil || s.head == nil || s.compare == nil {
		return false
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return false
	}
	return s.candidate(s.findPredecessors(key)[0], key) != nil
}

// Set inserts a new key/value or overwrites an existing one in place.
// It records the immediate predecessors per level during the search, then
// either updates the matched node (no new node, no level change, count
// unchanged) or splices in a new node of random level. The returned bool is
// true when an existing key was updated.
func (s *SkipList[K, V]) Set(key K, value V) (bool, error) {
	if s == nil || s.head == nil || s.compare == nil {
		return false, errNotInitialized
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	predecessors := s.findPredecessors(key)
	if existing := s.candidate(predecessors[0], key); existing != nil {
		existing.value = value
		return true, nil
	}
	lvl := s.randomLevel()
	if lvl > s.level {
		// No node exists above the old max level, so the head sentinel is the
		// only valid predecessor up there.
		for i := s.level + 1; i <= lvl; i++ {
			predecessors[i] = s.head
		}
		s.level = lvl
	}
	newNode := &node[K, V]{key: key, value: value, forwards: make([]*node[K, V], lvl+1)}
	for i := 0; i <= lvl; i++ {
		// Read the old forward pointer before overwriting it; the reverse
		// order would corrupt the chain.
		newNode.forwards[i] = predecessors[i].forwards[i]
		predecessors[i].forwards[i] = newNode
	}
	s.length++
	return false, nil
}

// Delete removes key from the list or returns ErrKeyNotFound. It rewires the
// per-level predecessors to skip the target node, then trims empty top
// levels.
func (s *SkipList[K, V]) Delete(key K) error {
	if s == nil || s.head == nil || s.compare == nil {
		return errNotInitialized
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return ErrClosed
	}
	predecessors := s.findPredecessors(key)
	target := s.candidate(predecessors[0], key)
	if target == nil {
		return ErrKeyNotFound
	}
	for i := 0; i <= s.level; i++ {
		// Levels above the target's own level never point at it, so this
		// check correctly no-ops there.
		if predecessors[i].forwards[i] == target {
			predecessors[i].forwards[i] = target.forwards[i]
		}
	}
	for s.level > 0 && s.head.forwards[s.level] == nil {
		s.level--
	}
	s.length--
	return nil
}

// Len returns the number of stored key-value pairs in O(1).
func (s *SkipList[K, V]) Len() int {
	if s == nil || s.head == nil {
		return 0
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.length
}

// Empty reports whether the list holds no pairs.
func (s *SkipList[K, V]) Empty() bool {
	return s.Len() == 0
}

// Close tears down the node chain and marks the list unusable; subsequent
// operations return ErrClosed. The chain is severed iteratively so the call
// stack never grows with the element count. Close is idempotent.
func (s *SkipList[K, V]) Close() error {
	if s == nil || s.head == nil {
		return nil
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return nil
	}
	for n := s.head.forwards[0]; n != nil; {
		next := n.forwards[0]
		clear(n.forwards)
		n = next
	}
	clear(s.head.forwards)
	s.level = 0
	s.length = 0
	s.closed = true
	return nil
}
