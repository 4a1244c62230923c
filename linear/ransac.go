package linear

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
)

// RANSACRegressor fits a linear model robust to outliers. Each trial fits the
// base model on a random minimal sample, counts inliers within
// ResidualThreshold, and keeps the trial with the largest consensus set. The
// final model is refitted on those inliers.
//
// With zero ResidualThreshold the threshold defaults to the median absolute
// deviation of y, matching the scikit-learn behaviour.
type RANSACRegressor struct {
	model.BaseEstimator

	Base *Regression

	MinSamples        int     // samples drawn per trial; 0 means n_features+1
	ResidualThreshold float64 // inlier cutoff on |y - ŷ|
	MaxTrials         int
	Seed              int64

	InlierMask []bool // consensus set of the winning trial, per training row
	NFeatures  int
}

// NewRANSACRegressor creates a RANSACRegressor with default settings.
func NewRANSACRegressor() *RANSACRegressor {
	return &RANSACRegressor{
		Base:      NewRegression(),
		MaxTrials: 100,
		Seed:      42,
	}
}

// WithMaxTrials sets the number of random trials.
func (r *RANSACRegressor) WithMaxTrials(n int) *RANSACRegressor {
	r.MaxTrials = n
	return r
}

// WithResidualThreshold sets the inlier cutoff.
func (r *RANSACRegressor) WithResidualThreshold(t float64) *RANSACRegressor {
	r.ResidualThreshold = t
	return r
}

// WithSeed sets the sampling seed.
func (r *RANSACRegressor) WithSeed(seed int64) *RANSACRegressor {
	r.Seed = seed
	return r
}

// Fit runs the RANSAC loop and refits the base model on the winning inliers.
func (r *RANSACRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RANSACRegressor.Fit")

	n, c := X.Dims()
	ry, cy := y.Dims()
	if n == 0 || c == 0 {
		return errors.NewModelError("RANSACRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != n {
		return errors.NewDimensionError("RANSACRegressor.Fit", n, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("RANSACRegressor.Fit", "y must be a column vector")
	}
	if r.MaxTrials <= 0 {
		return errors.NewValidationError("max_trials", "must be positive", r.MaxTrials)
	}

	minSamples := r.MinSamples
	if minSamples <= 0 {
		minSamples = c + 1
	}
	if minSamples > n {
		return errors.NewValidationError("min_samples", "exceeds number of samples", minSamples)
	}

	threshold := r.ResidualThreshold
	if threshold <= 0 {
		threshold = medianAbsoluteDeviation(y)
	}

	r.NFeatures = c
	rng := rand.New(rand.NewPCG(uint64(r.Seed), uint64(r.Seed)))

	bestInliers := -1
	var bestMask []bool

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	for trial := 0; trial < r.MaxTrials; trial++ {
		rng.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
		sample := indices[:minSamples]

		trialModel := NewRegression()
		sx, sy := subset(X, y, sample)
		if err := trialModel.Fit(sx, sy); err != nil {
			// Degenerate sample (e.g. singular design); try the next draw.
			continue
		}

		pred, err := trialModel.Predict(X)
		if err != nil {
			continue
		}

		mask := make([]bool, n)
		inliers := 0
		for i := 0; i < n; i++ {
			if math.Abs(y.At(i, 0)-pred.At(i, 0)) <= threshold {
				mask[i] = true
				inliers++
			}
		}

		if inliers > bestInliers {
			bestInliers = inliers
			bestMask = mask
		}
	}

	if bestInliers < minSamples {
		return errors.NewModelError("RANSACRegressor.Fit", "no consensus set found",
			errors.Newf("best trial had %d inliers, need at least %d", bestInliers, minSamples))
	}

	inlierIdx := make([]int, 0, bestInliers)
	for i, in := range bestMask {
		if in {
			inlierIdx = append(inlierIdx, i)
		}
	}

	ix, iy := subset(X, y, inlierIdx)
	if r.Base == nil {
		r.Base = NewRegression()
	}
	if err := r.Base.Fit(ix, iy); err != nil {
		return errors.Wrap(err, "final refit on inliers failed")
	}

	r.InlierMask = bestMask
	r.SetFitted()
	return nil
}

// Predict delegates to the refitted base model.
func (r *RANSACRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("RANSACRegressor", "Predict")
	}
	return r.Base.Predict(X)
}

// Score returns R² of the refitted base model on X, y.
func (r *RANSACRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !r.IsFitted() {
		return 0, errors.NewNotFittedError("RANSACRegressor", "Score")
	}
	return r.Base.Score(X, y)
}

// GetParams returns the model's hyperparameters.
func (r *RANSACRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"min_samples":        r.MinSamples,
		"residual_threshold": r.ResidualThreshold,
		"max_trials":         r.MaxTrials,
		"seed":               r.Seed,
	}
}

// Save writes the fitted model to path.
func (r *RANSACRegressor) Save(path string) error {
	if !r.IsFitted() {
		return errors.NewNotFittedError("RANSACRegressor", "Save")
	}
	return model.SaveModel(r, path)
}

// Load reads a model previously written by Save.
func (r *RANSACRegressor) Load(path string) error {
	return model.LoadModel(r, path)
}

// subset copies the chosen rows of X and y into fresh matrices.
func subset(X, y mat.Matrix, idx []int) (mat.Matrix, mat.Matrix) {
	_, c := X.Dims()
	sx := mat.NewDense(len(idx), c, nil)
	sy := mat.NewDense(len(idx), 1, nil)
	for i, row := range idx {
		for j := 0; j < c; j++ {
			sx.Set(i, j, X.At(row, j))
		}
		sy.Set(i, 0, y.At(row, 0))
	}
	return sx, sy
}

// medianAbsoluteDeviation computes MAD(y) = median(|y - median(y)|).
func medianAbsoluteDeviation(y mat.Matrix) float64 {
	n, _ := y.Dims()
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = y.At(i, 0)
	}
	med := median(vals)

	dev := make([]float64, n)
	for i, v := range vals {
		dev[i] = math.Abs(v - med)
	}
	return median(dev)
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
