// Package tree implements a CART regression tree. Splits minimize the
// weighted sum of squared errors of the two children (variance reduction).
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/metrics"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
)

// Node is a single tree node. Leaf nodes carry the mean target of the
// training samples that reached them. Fields are exported for gob.
type Node struct {
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
	Value     float64
	NSamples  int
	Leaf      bool
}

// DecisionTreeRegressor is a CART regression tree.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	// Hyperparameters.
	MaxDepth        int   // -1 means unlimited
	MinSamplesSplit int   // minimum samples required to attempt a split
	MinSamplesLeaf  int   // minimum samples in each child
	MaxFeatures     int   // features sampled per split; 0 means all
	Seed            int64 // feature-sampling seed, only used when MaxFeatures > 0

	Root      *Node
	NFeatures int
}

// NewDecisionTreeRegressor creates a tree with unlimited depth.
func NewDecisionTreeRegressor() *DecisionTreeRegressor {
	return &DecisionTreeRegressor{
		MaxDepth:        -1,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

// WithMaxDepth limits tree depth.
func (t *DecisionTreeRegressor) WithMaxDepth(d int) *DecisionTreeRegressor {
	t.MaxDepth = d
	return t
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func (t *DecisionTreeRegressor) WithMinSamplesSplit(n int) *DecisionTreeRegressor {
	t.MinSamplesSplit = n
	return t
}

// WithMinSamplesLeaf sets the minimum child size.
func (t *DecisionTreeRegressor) WithMinSamplesLeaf(n int) *DecisionTreeRegressor {
	t.MinSamplesLeaf = n
	return t
}

// WithMaxFeatures enables per-split feature subsampling, as used inside a
// random forest.
func (t *DecisionTreeRegressor) WithMaxFeatures(n int) *DecisionTreeRegressor {
	t.MaxFeatures = n
	return t
}

// WithSeed sets the feature-sampling seed.
func (t *DecisionTreeRegressor) WithSeed(seed int64) *DecisionTreeRegressor {
	t.Seed = seed
	return t
}

// Fit grows the tree on X and the column vector y.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}
	if t.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", t.MinSamplesSplit)
	}
	if t.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", t.MinSamplesLeaf)
	}

	t.NFeatures = c

	// Work on dense copies; tree growth reorders index slices heavily.
	features := make([][]float64, r)
	targets := make([]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		features[i] = row
		targets[i] = y.At(i, 0)
	}

	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}

	g := &grower{
		features: features,
		targets:  targets,
		params:   t,
		rng:      rand.New(rand.NewPCG(uint64(t.Seed), uint64(t.Seed))),
	}
	t.Root = g.build(idx, 0)

	t.SetFitted()
	return nil
}

// grower holds the shared state of one Fit call.
type grower struct {
	features [][]float64
	targets  []float64
	params   *DecisionTreeRegressor
	rng      *rand.Rand
}

func (g *grower) build(idx []int, depth int) *Node {
	node := &Node{NSamples: len(idx), Value: g.mean(idx)}

	if len(idx) < g.params.MinSamplesSplit ||
		(g.params.MaxDepth >= 0 && depth >= g.params.MaxDepth) ||
		g.pure(idx) {
		node.Leaf = true
		return node
	}

	feature, threshold, ok := g.bestSplit(idx)
	if !ok {
		node.Leaf = true
		return node
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if g.features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = g.build(left, depth+1)
	node.Right = g.build(right, depth+1)
	return node
}

// bestSplit scans candidate features for the threshold minimizing the summed
// SSE of the children. Prefix sums over the sorted column give each
// candidate in O(1).
func (g *grower) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	nFeatures := g.params.NFeatures
	candidates := g.candidateFeatures(nFeatures)

	bestSSE := math.Inf(1)
	minLeaf := g.params.MinSamplesLeaf

	sorted := make([]int, len(idx))
	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool {
			return g.features[sorted[a]][f] < g.features[sorted[b]][f]
		})

		var sumLeft, sqLeft float64
		var sumRight, sqRight float64
		for _, i := range sorted {
			v := g.targets[i]
			sumRight += v
			sqRight += v * v
		}

		n := len(sorted)
		for pos := 0; pos < n-1; pos++ {
			v := g.targets[sorted[pos]]
			sumLeft += v
			sqLeft += v * v
			sumRight -= v
			sqRight -= v * v

			// Can only split between distinct feature values.
			cur := g.features[sorted[pos]][f]
			next := g.features[sorted[pos+1]][f]
			if cur == next {
				continue
			}

			nLeft := pos + 1
			nRight := n - nLeft
			if nLeft < minLeaf || nRight < minLeaf {
				continue
			}

			sse := (sqLeft - sumLeft*sumLeft/float64(nLeft)) +
				(sqRight - sumRight*sumRight/float64(nRight))
			if sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// candidateFeatures returns all feature indices, or a random subset when
// MaxFeatures is set.
func (g *grower) candidateFeatures(nFeatures int) []int {
	all := make([]int, nFeatures)
	for i := range all {
		all[i] = i
	}
	k := g.params.MaxFeatures
	if k <= 0 || k >= nFeatures {
		return all
	}
	g.rng.Shuffle(nFeatures, func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:k]
}

func (g *grower) mean(idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += g.targets[i]
	}
	return sum / float64(len(idx))
}

func (g *grower) pure(idx []int) bool {
	first := g.targets[idx[0]]
	for _, i := range idx[1:] {
		if g.targets[i] != first {
			return false
		}
	}
	return true
}

// Predict traverses the tree for each row of X.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", t.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		node := t.Root
		for !node.Leaf {
			if X.At(i, node.Feature) <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		predictions.Set(i, 0, node.Value)
	}
	return predictions, nil
}

// Score returns the coefficient of determination R² on X, y.
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !t.IsFitted() {
		return 0, errors.NewNotFittedError("DecisionTreeRegressor", "Score")
	}
	yPred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := metrics.ColumnVec(y)
	if err != nil {
		return 0, err
	}
	pv, err := metrics.ColumnVec(yPred)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yTrue, pv)
}

// Depth returns the depth of the fitted tree, 0 for a lone leaf.
func (t *DecisionTreeRegressor) Depth() int {
	return depth(t.Root)
}

func depth(n *Node) int {
	if n == nil || n.Leaf {
		return 0
	}
	l := depth(n.Left)
	r := depth(n.Right)
	if l > r {
		return l + 1
	}
	return r + 1
}

// GetParams returns the model's hyperparameters.
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         t.MaxDepth,
		"min_samples_split": t.MinSamplesSplit,
		"min_samples_leaf":  t.MinSamplesLeaf,
		"max_features":      t.MaxFeatures,
		"seed":              t.Seed,
	}
}

// Save writes the fitted model to path.
func (t *DecisionTreeRegressor) Save(path string) error {
	if !t.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeRegressor", "Save")
	}
	return model.SaveModel(t, path)
}

// Load reads a model previously written by Save.
func (t *DecisionTreeRegressor) Load(path string) error {
	return model.LoadModel(t, path)
}
