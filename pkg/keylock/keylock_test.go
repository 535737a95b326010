package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializesPerKey(t *testing.T) {
	locks := New()

	var mu sync.Mutex
	counters := map[string]int{}
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				locks.Lock(key)
				defer locks.Unlock(key)
				mu.Lock()
				counters[key]++
				mu.Unlock()
			}(key)
		}
	}
	wg.Wait()

	assert.Equal(t, 50, counters["a"])
	assert.Equal(t, 50, counters["b"])
}

func TestReleasesEntries(t *testing.T) {
	locks := New()

	locks.Lock("k")
	locks.Unlock("k")

	// a released key can be locked again immediately
	locks.Lock("k")
	locks.Unlock("k")
}
