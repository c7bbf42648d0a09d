/*
Package sync provides a typed map that is split into individually
locked parts, so ranks and RPC handlers that touch different keys do
not block each other. For other synchronization primitives, please use
the standard library.
*/
package sync

import (
	"runtime"
	"sync"
)

// A Hasher has a hash value, which Map uses to pick the split of a key.
type Hasher interface {
	Hash() uint64
}

// A Key is a comparable Hasher.
type Key interface {
	comparable
	Hasher
}

type split[K Key, V any] struct {
	sync.RWMutex
	entries map[K]V
}

/*
A Map is a parallel map that consists of several split maps that are
individually locked.

The zero Map is not valid; use NewMap.
*/
type Map[K Key, V any] struct {
	splits []split[K, V]
}

/*
NewMap returns a map with size splits.

If size is <= 0, runtime.GOMAXPROCS(0) is used instead.
*/
func NewMap[K Key, V any](size int) *Map[K, V] {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	splits := make([]split[K, V], size)
	for i := range splits {
		splits[i].entries = make(map[K]V)
	}
	return &Map[K, V]{splits}
}

func (m *Map[K, V]) split(key K) *split[K, V] {
	return &m.splits[key.Hash()%uint64(len(m.splits))]
}

/*
LoadOrCompute returns the existing value for the key if present.
Otherwise, it calls compute, and then stores and returns the computed
value. The loaded result is true if the value was loaded, false if
stored.

compute runs without any lock of m held, so it may be called by several
goroutines for the same key. Only one of the computed values is stored,
and all of them return that one.
*/
func (m *Map[K, V]) LoadOrCompute(key K, compute func() V) (actual V, loaded bool) {
	s := m.split(key)
	s.RLock()
	actual, loaded = s.entries[key]
	s.RUnlock()
	if loaded {
		return
	}
	value := compute()
	s.Lock()
	defer s.Unlock()
	if actual, loaded = s.entries[key]; !loaded {
		actual = value
		s.entries[key] = value
	}
	return
}
