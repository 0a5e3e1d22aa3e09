package storage

import "github.com/momu/skipdb/pkg/skiplist"

// ErrKeyNotFound is re-exported from the core so port code doesn't have to
// import the skiplist package just to classify lookup misses.
var ErrKeyNotFound = skiplist.ErrKeyNotFound

// KeyValueHolder is the storage surface skipdb ports speak to.
type KeyValueHolder interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Contains(key string) bool
	Delete(key string) error
	Len() int
	Close() error
}
