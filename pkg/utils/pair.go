package utils

// Pair couples a key with its value.
type Pair[K any, V any] struct {
	Key   K
	Value V
}
