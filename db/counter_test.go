package db

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// memCounterStore serializes allocations per store the way Firestore's
// transaction retry does per document: each allocation sees a committed
// lastSequence and commits its increment before the next one reads.
type memCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{counters: make(map[string]int64)}
}

func (s *memCounterStore) allocate(dateKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nextSequence(memCounterTxn{store: s}, dateKey)
}

type memCounterTxn struct {
	store *memCounterStore
}

func (t memCounterTxn) LastSequence(dateKey string) (int64, error) {
	return t.store.counters[dateKey], nil
}

func (t memCounterTxn) SetLastSequence(dateKey string, sequence int64) error {
	t.store.counters[dateKey] = sequence
	return nil
}

func TestNextSequenceStartsAtOne(t *testing.T) {
	store := newMemCounterStore()

	seq, err := store.allocate("20250315")
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq)
}

func TestNextSequenceBackToBack(t *testing.T) {
	store := newMemCounterStore()

	first, err := store.allocate("20250315")
	require.NoError(t, err)
	second, err := store.allocate("20250315")
	require.NoError(t, err)

	assert.EqualValues(t, 1, first)
	assert.EqualValues(t, 2, second)
	assert.NotEqual(t, first, second)
}

func TestNextSequenceIndependentPerDay(t *testing.T) {
	store := newMemCounterStore()

	_, err := store.allocate("20250315")
	require.NoError(t, err)
	_, err = store.allocate("20250315")
	require.NoError(t, err)

	seq, err := store.allocate("20250316")
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq, "a new day starts its own series")
}

// Concurrent allocations on one dateKey must yield exactly {1..N}: no
// duplicates, no gaps.
func TestNextSequenceConcurrentAllocations(t *testing.T) {
	const n = 64

	store := newMemCounterStore()
	results := make(chan int64, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			seq, err := store.allocate("20250315")
			if err != nil {
				return err
			}
			results <- seq
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var allocated []int64
	for seq := range results {
		allocated = append(allocated, seq)
	}
	require.Len(t, allocated, n)

	sort.Slice(allocated, func(i, j int) bool { return allocated[i] < allocated[j] })
	for i, seq := range allocated {
		assert.EqualValues(t, i+1, seq)
	}
	assert.EqualValues(t, n, store.counters["20250315"])
}

func TestCounterValue(t *testing.T) {
	assert.EqualValues(t, 7, counterValue(map[string]interface{}{"lastSequence": int64(7)}))
	assert.EqualValues(t, 7, counterValue(map[string]interface{}{"lastSequence": float64(7)}))
	assert.EqualValues(t, 0, counterValue(map[string]interface{}{}))
	assert.EqualValues(t, 0, counterValue(map[string]interface{}{"lastSequence": "7"}))
}
