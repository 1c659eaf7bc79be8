package forecast

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// treeNode is one node of a binary CART classification tree. Leaves
// carry the positive-class fraction of their training rows.
type treeNode struct {
	feature int
	thresh  float64
	left    *treeNode
	right   *treeNode
	leaf    bool
	prob    float64
}

// buildTree grows a tree on the rows of X selected by idx, splitting
// greedily on Gini impurity until the node is pure, too small, or the
// depth budget is exhausted.
func buildTree(X *mat.Dense, y []float64, idx []int, depth, maxDepth, minLeaf int) *treeNode {
	pos := 0
	for _, i := range idx {
		if y[i] == 1 {
			pos++
		}
	}
	prob := float64(pos) / float64(len(idx))
	if depth >= maxDepth || len(idx) < 2*minLeaf || pos == 0 || pos == len(idx) {
		return &treeNode{leaf: true, prob: prob}
	}

	feature, thresh, ok := bestSplit(X, y, idx, minLeaf)
	if !ok {
		return &treeNode{leaf: true, prob: prob}
	}

	var left, right []int
	for _, i := range idx {
		if X.At(i, feature) < thresh {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature: feature,
		thresh:  thresh,
		left:    buildTree(X, y, left, depth+1, maxDepth, minLeaf),
		right:   buildTree(X, y, right, depth+1, maxDepth, minLeaf),
	}
}

// bestSplit scans every feature and the midpoints between consecutive
// distinct values for the split with the lowest weighted Gini impurity.
func bestSplit(X *mat.Dense, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	_, cols := X.Dims()
	bestGini := 1.0
	bestFeature, bestThresh := -1, 0.0

	vals := make([]float64, 0, len(idx))
	for f := 0; f < cols; f++ {
		vals = vals[:0]
		for _, i := range idx {
			vals = append(vals, X.At(i, f))
		}
		sort.Float64s(vals)
		for v := 1; v < len(vals); v++ {
			if vals[v] == vals[v-1] {
				continue
			}
			thresh := (vals[v] + vals[v-1]) / 2
			g, ok := splitGini(X, y, idx, f, thresh, minLeaf)
			if ok && g < bestGini {
				bestGini = g
				bestFeature = f
				bestThresh = thresh
			}
		}
	}
	return bestFeature, bestThresh, bestFeature >= 0
}

func splitGini(X *mat.Dense, y []float64, idx []int, feature int, thresh float64, minLeaf int) (float64, bool) {
	var nl, nr, posL, posR int
	for _, i := range idx {
		if X.At(i, feature) < thresh {
			nl++
			if y[i] == 1 {
				posL++
			}
		} else {
			nr++
			if y[i] == 1 {
				posR++
			}
		}
	}
	if nl < minLeaf || nr < minLeaf {
		return 0, false
	}
	gini := func(n, pos int) float64 {
		p := float64(pos) / float64(n)
		return 2 * p * (1 - p)
	}
	total := float64(nl + nr)
	return float64(nl)/total*gini(nl, posL) + float64(nr)/total*gini(nr, posR), true
}

// predict walks the tree for one feature row.
func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] < n.thresh {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prob
}

// baggedTrees is an ensemble of trees trained on bootstrap samples.
type baggedTrees struct {
	trees []*treeNode
}

// trainBagging fits estimators trees, each on a bootstrap sample of the
// rows of X.
func trainBagging(X *mat.Dense, y []float64, estimators, maxDepth, minLeaf int, rng *rand.Rand) *baggedTrees {
	rows, _ := X.Dims()
	trees := make([]*treeNode, estimators)
	for t := range trees {
		sample := make([]int, rows)
		for i := range sample {
			sample[i] = rng.Intn(rows)
		}
		trees[t] = buildTree(X, y, sample, 0, maxDepth, minLeaf)
	}
	return &baggedTrees{trees: trees}
}

// predictProb averages the leaf probabilities across the ensemble.
func (b *baggedTrees) predictProb(row []float64) float64 {
	sum := 0.0
	for _, t := range b.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(b.trees))
}
