// Package cow provides a persistent map published through a single atomic
// pointer. Readers always see a complete snapshot; writers compute the next
// map from the current one and compare-and-swap, retrying if another writer
// got there first.
package cow

import (
	"sync/atomic"

	"github.com/benbjohnson/immutable"
)

// Map is a copy-on-write map safe for concurrent use without locks.
type Map[K, V any] struct {
	ptr atomic.Pointer[immutable.Map[K, V]]
}

// NewMap returns an empty Map. A nil hasher selects the default hasher for
// built-in key types.
func NewMap[K, V any](hasher immutable.Hasher[K]) *Map[K, V] {
	m := &Map[K, V]{}
	m.ptr.Store(immutable.NewMap[K, V](hasher))
	return m
}

// Snapshot returns the current map. The result never changes.
func (m *Map[K, V]) Snapshot() *immutable.Map[K, V] {
	return m.ptr.Load()
}

// Get looks up key in the current snapshot.
func (m *Map[K, V]) Get(key K) (V, bool) {
	return m.ptr.Load().Get(key)
}

// Len returns the number of entries in the current snapshot.
func (m *Map[K, V]) Len() int {
	return m.ptr.Load().Len()
}

// Values returns the values of the current snapshot in iteration order.
func (m *Map[K, V]) Values() []V {
	snap := m.ptr.Load()
	out := make([]V, 0, snap.Len())
	itr := snap.Iterator()
	for !itr.Done() {
		_, v, _ := itr.Next()
		out = append(out, v)
	}
	return out
}

// Swap applies fn to the current snapshot and publishes the result. fn may be
// called several times and must not have side effects. Returning cur unchanged
// publishes nothing. Swap returns the snapshot fn was applied to on the
// successful attempt, together with the published one.
func (m *Map[K, V]) Swap(fn func(cur *immutable.Map[K, V]) *immutable.Map[K, V]) (prev, next *immutable.Map[K, V]) {
	for {
		cur := m.ptr.Load()
		next := fn(cur)
		if next == cur || m.ptr.CompareAndSwap(cur, next) {
			return cur, next
		}
	}
}
