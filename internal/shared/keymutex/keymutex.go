// Package keymutex provides string-keyed mutual exclusion backed by a fixed
// number of shards. Two goroutines locking the same key always serialize;
// goroutines locking different keys only contend when their keys hash to the
// same shard.
package keymutex

import (
	"hash/fnv"
	"sync"
)

const defaultShards = 64

// KeyMutex is a sharded mutex map. The zero value is not usable; create
// instances with New.
type KeyMutex struct {
	shards []sync.Mutex
}

// New creates a KeyMutex with the given shard count. Counts below 1 fall back
// to the default.
func New(shards int) *KeyMutex {
	if shards < 1 {
		shards = defaultShards
	}
	return &KeyMutex{shards: make([]sync.Mutex, shards)}
}

// Lock acquires the mutex shard for the given key.
func (m *KeyMutex) Lock(key string) {
	m.shards[m.index(key)].Lock()
}

// Unlock releases the mutex shard for the given key.
func (m *KeyMutex) Unlock(key string) {
	m.shards[m.index(key)].Unlock()
}

func (m *KeyMutex) index(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % uint32(len(m.shards))
}
