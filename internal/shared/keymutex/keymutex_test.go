package keymutex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	m := New(8)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("shared")
			defer m.Unlock("shared")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyMutex_DifferentKeysIndependent(t *testing.T) {
	m := New(64)

	// Holding one key must not block a key on another shard.
	m.Lock("alpha")
	defer m.Unlock("alpha")

	done := make(chan struct{})
	go func() {
		// Probe keys until one lands on a different shard than "alpha".
		keys := []string{"beta", "gamma", "delta", "omega", "epsilon"}
		for _, key := range keys {
			if m.index(key) != m.index("alpha") {
				m.Lock(key)
				m.Unlock(key)
				break
			}
		}
		close(done)
	}()

	<-done
}

func TestNew_ShardFallback(t *testing.T) {
	m := New(0)
	assert.Len(t, m.shards, defaultShards)
}
