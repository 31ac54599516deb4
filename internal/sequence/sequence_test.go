package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStartsAtOne(t *testing.T) {
	s := New()
	assert.Equal(t, uint64(0), s.Current())
	assert.Equal(t, uint64(1), s.Next())
	assert.Equal(t, uint64(2), s.Next())
	assert.Equal(t, uint64(2), s.Current())
}

func TestNextConcurrentUniqueness(t *testing.T) {
	s := New()
	const goroutines, perGoroutine = 8, 200

	var mu sync.Mutex
	seen := make(map[uint64]struct{}, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				n := s.Next()
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine, "no duplicate ids under contention")
	assert.Equal(t, uint64(goroutines*perGoroutine), s.Current())
}

func TestTxHashFormat(t *testing.T) {
	assert.Equal(t, "0x"+"000000000000000000000000000000000000000000000000000000000000002a", TxHash(42))
	assert.Len(t, TxHash(1), 66)
}

func TestContractAddressFormat(t *testing.T) {
	assert.Equal(t, "0x"+"000000000000000000000000000000000000002a", ContractAddress(42))
	assert.Len(t, ContractAddress(1), 42)
}
