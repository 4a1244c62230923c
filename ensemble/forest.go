// Package ensemble implements a random forest regressor: bootstrap-sampled
// CART trees with per-split feature subsampling, predictions averaged.
package ensemble

import (
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/metrics"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"github.com/YuminosukeSato/wildfire/pkg/log"
	"github.com/YuminosukeSato/wildfire/tree"
)

// RandomForestRegressor averages NEstimators bootstrap-trained trees.
type RandomForestRegressor struct {
	model.BaseEstimator

	// Hyperparameters.
	NEstimators int
	MaxDepth    int // -1 means unlimited, passed to each tree
	MinSamplesLeaf int
	// MaxFeatures is the per-split feature sample size. 0 selects
	// max(1, n_features/3), the usual regression default.
	MaxFeatures int
	Seed        int64

	Trees     []*tree.DecisionTreeRegressor
	NFeatures int
}

// NewRandomForestRegressor creates a forest with 100 trees.
func NewRandomForestRegressor() *RandomForestRegressor {
	return &RandomForestRegressor{
		NEstimators:    100,
		MaxDepth:       -1,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// WithNEstimators sets the number of trees.
func (f *RandomForestRegressor) WithNEstimators(n int) *RandomForestRegressor {
	f.NEstimators = n
	return f
}

// WithMaxDepth limits the depth of each tree.
func (f *RandomForestRegressor) WithMaxDepth(d int) *RandomForestRegressor {
	f.MaxDepth = d
	return f
}

// WithMaxFeatures sets the per-split feature sample size.
func (f *RandomForestRegressor) WithMaxFeatures(n int) *RandomForestRegressor {
	f.MaxFeatures = n
	return f
}

// WithSeed sets the bootstrap seed.
func (f *RandomForestRegressor) WithSeed(seed int64) *RandomForestRegressor {
	f.Seed = seed
	return f
}

// Fit trains the trees on bootstrap resamples of X, y. Trees are fitted
// concurrently; each tree's randomness derives from Seed and its index, so a
// fixed seed gives the same forest regardless of scheduling.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	n, c := X.Dims()
	ry, cy := y.Dims()
	if n == 0 || c == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != n {
		return errors.NewDimensionError("RandomForestRegressor.Fit", n, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("RandomForestRegressor.Fit", "y must be a column vector")
	}
	if f.NEstimators <= 0 {
		return errors.NewValidationError("n_estimators", "must be positive", f.NEstimators)
	}

	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = c / 3
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	f.NFeatures = c
	f.Trees = make([]*tree.DecisionTreeRegressor, f.NEstimators)

	logger := log.With().Str("model", "RandomForestRegressor").Logger()
	logger.Debug().Int("n_estimators", f.NEstimators).Int("n_samples", n).
		Int("max_features", maxFeatures).Msg("growing forest")

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for t := 0; t < f.NEstimators; t++ {
		g.Go(func() error {
			treeSeed := f.Seed + int64(t)
			rng := rand.New(rand.NewPCG(uint64(treeSeed), uint64(treeSeed)))

			// Bootstrap: n draws with replacement.
			bx := mat.NewDense(n, c, nil)
			by := mat.NewDense(n, 1, nil)
			for i := 0; i < n; i++ {
				src := rng.IntN(n)
				for j := 0; j < c; j++ {
					bx.Set(i, j, X.At(src, j))
				}
				by.Set(i, 0, y.At(src, 0))
			}

			dt := tree.NewDecisionTreeRegressor().
				WithMaxDepth(f.MaxDepth).
				WithMinSamplesLeaf(f.MinSamplesLeaf).
				WithMaxFeatures(maxFeatures).
				WithSeed(treeSeed)
			if err := dt.Fit(bx, by); err != nil {
				return errors.Wrapf(err, "tree %d failed", t)
			}
			f.Trees[t] = dt
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	f.SetFitted()
	return nil
}

// Predict averages the predictions of all trees.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != f.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", f.NFeatures, c, 1)
	}

	sum := make([]float64, r)
	for _, dt := range f.Trees {
		pred, err := dt.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < r; i++ {
			sum[i] += pred.At(i, 0)
		}
	}

	predictions := mat.NewDense(r, 1, nil)
	inv := 1.0 / float64(len(f.Trees))
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, sum[i]*inv)
	}
	return predictions, nil
}

// Score returns the coefficient of determination R² on X, y.
func (f *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !f.IsFitted() {
		return 0, errors.NewNotFittedError("RandomForestRegressor", "Score")
	}
	yPred, err := f.Predict(X)
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

// FeatureImportances returns, per feature, the fraction of splits across the
// forest that used it. A cheap proxy for impurity-based importances.
func (f *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "FeatureImportances")
	}

	counts := make([]float64, f.NFeatures)
	total := 0.0
	for _, dt := range f.Trees {
		countSplits(dt.Root, counts, &total)
	}
	if total == 0 {
		return counts, nil
	}
	for i := range counts {
		counts[i] /= total
	}
	return counts, nil
}

func countSplits(n *tree.Node, counts []float64, total *float64) {
	if n == nil || n.Leaf {
		return
	}
	counts[n.Feature]++
	*total++
	countSplits(n.Left, counts, total)
	countSplits(n.Right, counts, total)
}

// GetParams returns the model's hyperparameters.
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     f.NEstimators,
		"max_depth":        f.MaxDepth,
		"min_samples_leaf": f.MinSamplesLeaf,
		"max_features":     f.MaxFeatures,
		"seed":             f.Seed,
	}
}

// Save writes the fitted model to path.
func (f *RandomForestRegressor) Save(path string) error {
	if !f.IsFitted() {
		return errors.NewNotFittedError("RandomForestRegressor", "Save")
	}
	return model.SaveModel(f, path)
}

// Load reads a model previously written by Save.
func (f *RandomForestRegressor) Load(path string) error {
	return model.LoadModel(f, path)
}
