package linear

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
)

// SGDRegressor is a linear model fitted by stochastic gradient descent on the
// squared loss with L2 regularization. Inputs should be standardized first;
// unscaled features make the default learning rate diverge.
type SGDRegressor struct {
	model.BaseEstimator

	Weights   []float64
	Intercept float64
	NFeatures int

	// Hyperparameters.
	Alpha        float64 // L2 regularization strength
	LearningRate float64 // initial step size (eta0)
	MaxIter      int     // full passes over the data
	Tol          float64 // stop when the loss improvement falls below Tol
	Seed         int64   // shuffle seed, fixed for reproducible runs

	epoch int
}

// NewSGDRegressor creates an SGDRegressor with scikit-learn's defaults.
func NewSGDRegressor() *SGDRegressor {
	return &SGDRegressor{
		Alpha:        1e-4,
		LearningRate: 0.01,
		MaxIter:      1000,
		Tol:          1e-3,
		Seed:         42,
	}
}

// WithAlpha sets the L2 regularization strength.
func (s *SGDRegressor) WithAlpha(a float64) *SGDRegressor {
	s.Alpha = a
	return s
}

// WithLearningRate sets the initial step size.
func (s *SGDRegressor) WithLearningRate(lr float64) *SGDRegressor {
	s.LearningRate = lr
	return s
}

// WithMaxIter sets the number of epochs.
func (s *SGDRegressor) WithMaxIter(n int) *SGDRegressor {
	s.MaxIter = n
	return s
}

// WithSeed sets the shuffle seed.
func (s *SGDRegressor) WithSeed(seed int64) *SGDRegressor {
	s.Seed = seed
	return s
}

// Fit trains the model from scratch with MaxIter shuffled epochs. It emits a
// ConvergenceWarning when the loss is still improving at the last epoch.
func (s *SGDRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "SGDRegressor.Fit")

	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SGDRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("SGDRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("SGDRegressor.Fit", "y must be a column vector")
	}
	if s.MaxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", s.MaxIter)
	}
	if s.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", s.LearningRate)
	}

	s.NFeatures = c
	s.Weights = make([]float64, c)
	s.Intercept = 0
	s.epoch = 0

	rng := rand.New(rand.NewPCG(uint64(s.Seed), uint64(s.Seed)))
	order := make([]int, r)
	for i := range order {
		order[i] = i
	}

	prevLoss := math.Inf(1)
	converged := false

	for epoch := 0; epoch < s.MaxIter; epoch++ {
		rng.Shuffle(r, func(i, j int) { order[i], order[j] = order[j], order[i] })
		s.runEpoch(X, y, order)

		loss := s.meanSquaredLoss(X, y)
		if prevLoss-loss < s.Tol {
			converged = true
			break
		}
		prevLoss = loss
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("SGDRegressor", s.MaxIter, ""))
	}

	s.SetFitted()
	return nil
}

// PartialFit runs a single unshuffled pass over the given samples, fitting
// lazily on first call. It lets callers stream batches at the cost of losing
// the convergence check.
func (s *SGDRegressor) PartialFit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "SGDRegressor.PartialFit")

	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SGDRegressor.PartialFit", "empty data", errors.ErrEmptyData)
	}
	if ry != r || cy != 1 {
		return errors.NewDimensionError("SGDRegressor.PartialFit", r, ry, 0)
	}

	if s.Weights == nil {
		s.NFeatures = c
		s.Weights = make([]float64, c)
	} else if c != s.NFeatures {
		return errors.NewDimensionError("SGDRegressor.PartialFit", s.NFeatures, c, 1)
	}

	order := make([]int, r)
	for i := range order {
		order[i] = i
	}
	s.runEpoch(X, y, order)

	s.SetFitted()
	return nil
}

// runEpoch applies one SGD update per sample with an inverse-scaling step
// size eta = eta0 / (1 + alpha * eta0 * t).
func (s *SGDRegressor) runEpoch(X, y mat.Matrix, order []int) {
	for _, i := range order {
		s.epoch++
		eta := s.LearningRate / (1 + s.Alpha*s.LearningRate*float64(s.epoch))

		pred := s.Intercept
		for j := 0; j < s.NFeatures; j++ {
			pred += X.At(i, j) * s.Weights[j]
		}
		residual := pred - y.At(i, 0)

		for j := 0; j < s.NFeatures; j++ {
			grad := residual*X.At(i, j) + s.Alpha*s.Weights[j]
			s.Weights[j] -= eta * grad
		}
		s.Intercept -= eta * residual
	}
}

func (s *SGDRegressor) meanSquaredLoss(X, y mat.Matrix) float64 {
	r, _ := X.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		pred := s.Intercept
		for j := 0; j < s.NFeatures; j++ {
			pred += X.At(i, j) * s.Weights[j]
		}
		diff := pred - y.At(i, 0)
		sum += diff * diff
	}
	return sum / float64(r)
}

// Predict returns ŷ = Xw + b as an n×1 matrix.
func (s *SGDRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SGDRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("SGDRegressor.Predict", s.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := s.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * s.Weights[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// Score returns the coefficient of determination R² on X, y.
func (s *SGDRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !s.IsFitted() {
		return 0, errors.NewNotFittedError("SGDRegressor", "Score")
	}
	yPred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return rSquared(y, yPred)
}

// GetParams returns the model's hyperparameters.
func (s *SGDRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         s.Alpha,
		"learning_rate": s.LearningRate,
		"max_iter":      s.MaxIter,
		"tol":           s.Tol,
		"seed":          s.Seed,
	}
}

// Save writes the fitted model to path.
func (s *SGDRegressor) Save(path string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError("SGDRegressor", "Save")
	}
	return model.SaveModel(s, path)
}

// Load reads a model previously written by Save.
func (s *SGDRegressor) Load(path string) error {
	return model.LoadModel(s, path)
}
