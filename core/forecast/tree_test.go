package forecast

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"
)

func separableDataset() (*mat.Dense, []float64) {
	// One feature: values below 5 are positive.
	data := []float64{1, 2, 3, 4, 6, 7, 8, 9}
	y := []float64{1, 1, 1, 1, 0, 0, 0, 0}
	return mat.NewDense(len(data), 1, data), y
}

func TestBuildTree_SeparableData(t *testing.T) {
	X, y := separableDataset()
	idx := []int{0, 1, 2, 3, 4, 5, 6, 7}
	tree := buildTree(X, y, idx, 0, 4, 1)

	assert.Equal(t, 1.0, tree.predict([]float64{2}))
	assert.Equal(t, 0.0, tree.predict([]float64{8}))
}

func TestBuildTree_PureNodeIsLeaf(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := []float64{1, 1, 1}
	tree := buildTree(X, y, []int{0, 1, 2}, 0, 4, 1)
	require.True(t, tree.leaf)
	assert.Equal(t, 1.0, tree.prob)
}

func TestBuildTree_DepthLimit(t *testing.T) {
	X, y := separableDataset()
	tree := buildTree(X, y, []int{0, 1, 2, 3, 4, 5, 6, 7}, 0, 0, 1)
	require.True(t, tree.leaf)
	assert.Equal(t, 0.5, tree.prob)
}

func TestTrainBagging_ProbabilityBounds(t *testing.T) {
	X, y := separableDataset()
	rng := rand.New(rand.NewSource(42))
	ensemble := trainBagging(X, y, 20, 4, 1, rng)

	low := ensemble.predictProb([]float64{1})
	high := ensemble.predictProb([]float64{9})
	assert.Greater(t, low, 0.5, "clearly positive input")
	assert.Less(t, high, 0.5, "clearly negative input")
	for _, p := range []float64{low, high} {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestTrainBagging_Deterministic(t *testing.T) {
	X, y := separableDataset()
	a := trainBagging(X, y, 10, 4, 1, rand.New(rand.NewSource(7)))
	b := trainBagging(X, y, 10, 4, 1, rand.New(rand.NewSource(7)))
	assert.Equal(t, a.predictProb([]float64{3}), b.predictProb([]float64{3}))
}
