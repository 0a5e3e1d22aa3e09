// This module implements store sharding which distributes keys uniformly
// across independent Store instances. Since every store serializes its
// operations on its own skip list mutex, sharding distributes the locks:
// goroutines working on different keys mostly land on different shards and
// don't block each other. Each shard keeps the usual per-instance locking,
// sharding only routes keys before any lock is taken.

package storage

import (
	"errors"
	"flag"

	"github.com/cespare/xxhash/v2"
	"github.com/momu/skipdb/pkg/utils"
)

var shardCountFlag = flag.Int("store_shards", 1,
	"Number of independent store shards keys are distributed over.")

// Sharded routes each key to one of several stores by key hash.
type Sharded struct { // Implements KeyValueHolder.
	shards []*Store
}

var _ KeyValueHolder = (*Sharded)(nil)

// NewSharded is the constructor for Sharded with `shardCount` underlying stores.
func NewSharded(shardCount int) *Sharded {
	if shardCount <= 0 {
		utils.RaiseInvariant("storage", "non_positive_shard_count",
			"Invalid shard count has been given to the sharded store.", "shardCount", shardCount)
		shardCount = 1
	}
	sharded := &Sharded{shards: make([]*Store, shardCount)}
	for i := 0; i < shardCount; i++ {
		sharded.shards[i] = NewStore()
	}
	return sharded
}

// New builds the store configured by flags: a single Store, or a Sharded
// router when -store_shards is above one.
func New() KeyValueHolder {
	if *shardCountFlag > 1 {
		return NewSharded(*shardCountFlag)
	}
	return NewStore()
}

// shard returns the store responsible for `key`. The mapping is stable for
// the lifetime of the Sharded instance.
func (s *Sharded) shard(key string) *Store {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

func (s *Sharded) Get(key string) (string, error) {
	return s.shard(key).Get(key)
}

func (s *Sharded) Contains(key string) bool {
	return s.shard(key).Contains(key)
}

func (s *Sharded) Set(key, value string) error {
	return s.shard(key).Set(key, value)
}

func (s *Sharded) Delete(key string) error {
	return s.shard(key).Delete(key)
}

// Len sums the key counts of all shards.
func (s *Sharded) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Len()
	}
	return total
}

// Close closes every shard and joins their errors.
func (s *Sharded) Close() error {
	var errs []error
	for _, shard := range s.shards {
		errs = append(errs, shard.Close())
	}
	return errors.Join(errs...)
}
