package player

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueueSequential(t *testing.T) {
	ids := []int64{1, 2, 3}

	queue, pos := BuildQueue(ids, false, 2, nil)

	assert.Equal(t, []int64{1, 2, 3}, queue)
	assert.Equal(t, 1, pos)
}

func TestBuildQueueSequentialAnchorAbsent(t *testing.T) {
	queue, pos := BuildQueue([]int64{1, 2, 3}, false, 99, nil)

	assert.Equal(t, []int64{1, 2, 3}, queue)
	assert.Equal(t, 0, pos)
}

func TestBuildQueueSequentialNoAnchor(t *testing.T) {
	_, pos := BuildQueue([]int64{5, 6, 7}, false, 0, nil)
	assert.Equal(t, 0, pos)
}

func TestBuildQueueShuffleAnchorsToFront(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	rng := rand.New(rand.NewSource(42))

	queue, pos := BuildQueue(ids, true, 5, rng)

	require.Len(t, queue, len(ids))
	assert.Equal(t, 0, pos)
	assert.Equal(t, int64(5), queue[0])
	assert.ElementsMatch(t, ids, queue)
}

func TestBuildQueueShuffleWithoutAnchor(t *testing.T) {
	ids := []int64{1, 2, 3, 4}
	rng := rand.New(rand.NewSource(7))

	queue, pos := BuildQueue(ids, true, 0, rng)

	assert.Equal(t, 0, pos)
	assert.ElementsMatch(t, ids, queue)
}

func TestBuildQueueShuffleAnchorAbsent(t *testing.T) {
	ids := []int64{1, 2, 3, 4}
	rng := rand.New(rand.NewSource(7))

	queue, pos := BuildQueue(ids, true, 99, rng)

	assert.Equal(t, 0, pos)
	assert.ElementsMatch(t, ids, queue)
}

func TestBuildQueueDoesNotMutateInput(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5}
	original := append([]int64(nil), ids...)
	rng := rand.New(rand.NewSource(1))

	BuildQueue(ids, true, 3, rng)

	assert.Equal(t, original, ids)
}

func TestBuildQueueShufflePermutes(t *testing.T) {
	// With a large list and a fixed seed the shuffled order should differ
	// from the source order (the identity permutation is astronomically
	// unlikely and deterministic under the seed).
	ids := make([]int64, 100)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	rng := rand.New(rand.NewSource(99))

	queue, _ := BuildQueue(ids, true, 0, rng)

	assert.NotEqual(t, ids, queue)
	assert.ElementsMatch(t, ids, queue)
}
