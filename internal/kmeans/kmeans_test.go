package kmeans

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two tight clusters around the x and y axes
var clustered = []float32{
	1, 0,
	0.99, 0.14,
	0.98, -0.2,
	0, 1,
	0.1, 0.995,
	-0.15, 0.989,
}

func TestTrain(t *testing.T) {
	ctx := context.Background()

	centroids, assignments, err := Train(ctx, clustered, 2, Config{K: 2, MaxIter: 50, Seed: 7})
	require.NoError(t, err)
	require.Len(t, centroids, 4)
	require.Len(t, assignments, 6)

	assert.Equal(t, assignments[0], assignments[1])
	assert.Equal(t, assignments[0], assignments[2])
	assert.Equal(t, assignments[3], assignments[4])
	assert.Equal(t, assignments[3], assignments[5])
	assert.NotEqual(t, assignments[0], assignments[3])

	p1 := Nearest([]float32{1, 0.05}, centroids, 2)
	p2 := Nearest([]float32{0.05, 1}, centroids, 2)
	assert.NotEqual(t, p1, p2)
}

func TestTrainDeterministic(t *testing.T) {
	ctx := context.Background()

	c1, a1, err := Train(ctx, clustered, 2, Config{K: 2, Seed: 11, Workers: 1})
	require.NoError(t, err)
	c2, a2, err := Train(ctx, clustered, 2, Config{K: 2, Seed: 11, Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, c1, c2)
	assert.Equal(t, a1, a2)
}

func TestTrainFewerVectorsThanK(t *testing.T) {
	centroids, assignments, err := Train(context.Background(), []float32{1, 0}, 2, Config{K: 5, Seed: 1})
	require.NoError(t, err)
	assert.Len(t, centroids, 2)
	assert.Equal(t, []int{0}, assignments)
}

func TestTrainEmpty(t *testing.T) {
	centroids, assignments, err := Train(context.Background(), nil, 2, Config{K: 3})
	require.NoError(t, err)
	assert.Nil(t, centroids)
	assert.Nil(t, assignments)
}

func TestTrainAssignmentsMatchCentroids(t *testing.T) {
	// Spread-out rows so a single iteration cannot converge.
	vectors := []float32{
		1, 0,
		0.8, 0.6,
		0.6, 0.8,
		0, 1,
		-0.6, 0.8,
		-1, 0,
		0.6, -0.8,
		0, -1,
	}

	for _, maxIter := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("MaxIter%d", maxIter), func(t *testing.T) {
			centroids, assignments, err := Train(context.Background(), vectors, 2, Config{K: 3, MaxIter: maxIter, Seed: 3})
			require.NoError(t, err)
			require.Len(t, assignments, 8)

			for i, a := range assignments {
				assert.Equal(t, Nearest(vectors[i*2:(i+1)*2], centroids, 2), a, "row %d", i)
			}
		})
	}
}

func TestTrainCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Train(ctx, clustered, 2, Config{K: 2, Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClosest(t *testing.T) {
	centroids := []float32{
		1, 0,
		0, 1,
		-1, 0,
	}
	assert.Equal(t, []int{1, 0}, Closest([]float32{0.2, 0.9}, centroids, 2, 2))
	assert.Equal(t, []int{1, 0, 2}, Closest([]float32{0.2, 0.9}, centroids, 2, 10))
	// ties resolve to lower index
	assert.Equal(t, []int{0, 1}, Closest([]float32{1, 1}, centroids, 2, 2))
}
