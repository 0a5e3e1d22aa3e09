package skiplist

import (
	"bytes"
	"cmp"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkipList_EmptyGet(t *testing.T) {
	skipList := New[int, string](cmp.Compare)
	_, err := skipList.Get(42)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.True(t, skipList.Empty())
}

// assertHasKey checks the given `skipList` contains the given `key` corresponding to given `expectedVal`.
func assertHasKey[K any, V any](t *testing.T, skipList *SkipList[K, V], key K, expectedVal any) {
	t.Helper()
	gotValue, err := skipList.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, expectedVal, gotValue)
	assert.True(t, skipList.Contains(key))
}

// setNewKey puts the given `key` and `value` into the `skipList` and asserts that the key was not present before.
func setNewKey[K any, V any](t *testing.T, skipList *SkipList[K, V], key K, value V) {
	t.Helper()
	updated, err := skipList.Set(key, value)
	assert.Falsef(t, updated, "Expected key %s to be new.", fmt.Sprint(key))
	assert.NoError(t, err)
}

// updateExistingKey updates the `key` with `value` and asserts that the key was present before.
func updateExistingKey[K any, V any](t *testing.T, skipList *SkipList[K, V], key K, value V) {
	t.Helper()
	updated, err := skipList.Set(key, value)
	assert.Truef(t, updated, "Expected key %s to already exist.", fmt.Sprint(key))
	assert.NoError(t, err)
}

func TestSkipList_SetAndGet_Simple(t *testing.T) {
	skipList := New[int, string](cmp.Compare)
	setNewKey(t, skipList, 2, "two")
	setNewKey(t, skipList, 1, "one")
	setNewKey(t, skipList, 3, "three")

	assertHasKey(t, skipList, 1, "one")
	assertHasKey(t, skipList, 2, "two")
	assertHasKey(t, skipList, 3, "three")
	assert.Equal(t, 3, skipList.Len())
}

func TestSkipList_UpdateValue(t *testing.T) {
	skipList := New[int, string](cmp.Compare)
	setNewKey(t, skipList, 10, "ten")
	updateExistingKey(t, skipList, 10, "TEN")
	assertHasKey(t, skipList, 10, "TEN")
	// Updating in place must not duplicate the key.
	assert.Equal(t, 1, skipList.Len())
}

func TestSkipList_Delete(t *testing.T) {
	skipList := New[int, string](cmp.Compare)
	// Deleting a missing key returns ErrKeyNotFound.
	assert.ErrorIs(t, skipList.Delete(7), ErrKeyNotFound)

	// Insert some and delete one.
	for _, testCase := range []struct {
		k int
		v string
	}{{k: 1, v: "a"}, {k: 2, v: "b"}, {k: 3, v: "c"}} {
		setNewKey(t, skipList, testCase.k, testCase.v)
	}
	assert.NoError(t, skipList.Delete(2))
	assert.Equal(t, 2, skipList.Len())
	_, err := skipList.Get(2)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.False(t, skipList.Contains(2))
	// Deleting again should return ErrKeyNotFound.
	assert.ErrorIs(t, skipList.Delete(2), ErrKeyNotFound)
	// Other keys remain.
	assertHasKey(t, skipList, 1, "a")
	assertHasKey(t, skipList, 3, "c")
}

func TestSkipList_StringKeys(t *testing.T) {
	skipList := New[string, int](cmp.Compare)
	setNewKey(t, skipList, "alpha", 1)
	setNewKey(t, skipList, "beta", 2)
	setNewKey(t, skipList, "gamma", 3)
	assertHasKey(t, skipList, "beta", 2)
}

func TestSkipList_BytesKeys(t *testing.T) {
	skipList := New[[]byte, []byte](bytes.Compare)
	setNewKey(t, skipList, []byte("k1"), []byte("v1"))
	setNewKey(t, skipList, []byte("k2"), []byte("v2"))
	assertHasKey(t, skipList, []byte("k1"), []byte("v1"))
	assert.NoError(t, skipList.Delete([]byte("k2")))
	assert.False(t, skipList.Contains([]byte("k2")))
}

func TestSkipList_BulkInsertAndGet(t *testing.T) {
	skipList := New[int, string](cmp.Compare)
	const samples = 200
	for i := 0; i < samples; i++ {
		setNewKey(t, skipList, i, fmt.Sprintf("val-%d", i))
	}
	assert.Equal(t, samples, skipList.Len())
	for i := 0; i < samples; i++ {
		gotValue, err := skipList.Get(i)
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("val-%d", i), gotValue)
	}
}

func TestSkipList_Scenario(t *testing.T) {
	skipList := New[int, string](cmp.Compare, WithMaxLevel(4), WithSeed(7))
	setNewKey(t, skipList, 3, "c")
	setNewKey(t, skipList, 1, "a")
	setNewKey(t, skipList, 2, "b")

	assertHasKey(t, skipList, 2, "b")
	assert.Equal(t, 3, skipList.Len())

	assert.NoError(t, skipList.Delete(1))
	assert.Equal(t, 2, skipList.Len())
	_, err := skipList.Get(1)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, skipList.Delete(1), ErrKeyNotFound)
}

func TestSkipList_Close(t *testing.T) {
	skipList := New[int, string](cmp.Compare, WithSeed(11))
	for i := 0; i < 100; i++ {
		setNewKey(t, skipList, i, fmt.Sprint(i))
	}
	assert.NoError(t, skipList.Close())

	// The torn-down list refuses every operation.
	_, err := skipList.Get(1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = skipList.Set(1, "one")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, skipList.Delete(1), ErrClosed)
	assert.False(t, skipList.Contains(1))
	assert.Equal(t, 0, skipList.Len())

	// Closing twice is a no-op.
	assert.NoError(t, skipList.Close())
}

func TestSkipList_SeededShapeIsReproducible(t *testing.T) {
	buildList := func() *SkipList[int, int] {
		skipList := New[int, int](cmp.Compare, WithMaxLevel(8), WithSeed(1234))
		for i := 0; i < 500; i++ {
			_, err := skipList.Set(i*3%500, i)
			assert.NoError(t, err)
		}
		return skipList
	}
	first, second := buildList(), buildList()
	assert.Equal(t, first.level, second.level)
	assert.Equal(t, first.Len(), second.Len())

	// Same seed and same insert order must give every node the same height.
	a, b := first.head.forwards[0], second.head.forwards[0]
	for a != nil && b != nil {
		assert.Equal(t, a.key, b.key)
		assert.Equal(t, len(a.forwards), len(b.forwards))
		a, b = a.forwards[0], b.forwards[0]
	}
	assert.Nil(t, a)
	assert.Nil(t, b)
}

func TestSkipList_RandomLevelStaysInBounds(t *testing.T) {
	skipList := New[int, int](cmp.Compare, WithMaxLevel(4), WithSeed(99))
	for i := 0; i < 10_000; i++ {
		lvl := skipList.randomLevel()
		assert.GreaterOrEqual(t, lvl, 0)
		assert.LessOrEqual(t, lvl, 4)
	}
}
