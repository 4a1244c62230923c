package svm

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/metrics"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
)

// SVR is an epsilon-insensitive support vector regressor. The dual
// coefficients are fitted by seeded online subgradient updates: residuals
// inside the epsilon tube leave the model untouched, larger ones bump the
// coefficient of the offending sample. After fitting, samples with
// non-negligible coefficients are kept as support vectors.
//
// Standardize features first; the RBF kernel assumes comparable scales.
type SVR struct {
	model.BaseEstimator

	// Hyperparameters.
	Kernel       Kernel
	Epsilon      float64 // half-width of the no-penalty tube
	Lambda       float64 // regularization (decay) strength
	LearningRate float64
	Epochs       int
	Seed         int64

	// Fitted state.
	SupportVectors [][]float64
	Coefficients   []float64
	Intercept      float64
	NFeatures      int
}

// NewSVR creates an SVR with an RBF kernel (gamma chosen at fit time when
// zero) and scikit-learn-like defaults.
func NewSVR() *SVR {
	return &SVR{
		Kernel:       &RBFKernel{},
		Epsilon:      0.1,
		Lambda:       1e-4,
		LearningRate: 0.1,
		Epochs:       50,
		Seed:         42,
	}
}

// WithKernel sets the kernel.
func (s *SVR) WithKernel(k Kernel) *SVR {
	s.Kernel = k
	return s
}

// WithEpsilon sets the tube half-width.
func (s *SVR) WithEpsilon(eps float64) *SVR {
	s.Epsilon = eps
	return s
}

// WithEpochs sets the number of training passes.
func (s *SVR) WithEpochs(n int) *SVR {
	s.Epochs = n
	return s
}

// WithSeed sets the shuffle seed.
func (s *SVR) WithSeed(seed int64) *SVR {
	s.Seed = seed
	return s
}

// Fit trains the dual coefficients on X and the column vector y.
func (s *SVR) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "SVR.Fit")

	n, c := X.Dims()
	ry, cy := y.Dims()
	if n == 0 || c == 0 {
		return errors.NewModelError("SVR.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != n {
		return errors.NewDimensionError("SVR.Fit", n, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("SVR.Fit", "y must be a column vector")
	}
	if s.Epsilon < 0 {
		return errors.NewValidationError("epsilon", "must be non-negative", s.Epsilon)
	}
	if s.Epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", s.Epochs)
	}
	if s.Kernel == nil {
		return errors.NewValidationError("kernel", "must not be nil", nil)
	}
	if rbf, ok := s.Kernel.(*RBFKernel); ok && rbf.Gamma == 0 {
		rbf.Gamma = 1.0 / float64(c) // sklearn's "scale"-style fallback
	}

	s.NFeatures = c

	rows := make([][]float64, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		rows[i] = row
		targets[i] = y.At(i, 0)
	}

	// Precompute the kernel matrix; the dataset is small by design.
	K := make([][]float64, n)
	for i := 0; i < n; i++ {
		K[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			v := s.Kernel.Compute(rows[i], rows[j])
			K[i][j] = v
			K[j][i] = v
		}
	}

	alpha := make([]float64, n)
	b := 0.0

	rng := rand.New(rand.NewPCG(uint64(s.Seed), uint64(s.Seed)))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < s.Epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		eta := s.LearningRate / (1 + float64(epoch)*s.LearningRate)

		for _, i := range order {
			f := b
			for j := 0; j < n; j++ {
				if alpha[j] != 0 {
					f += alpha[j] * K[j][i]
				}
			}

			residual := targets[i] - f
			if math.Abs(residual) <= s.Epsilon {
				continue
			}

			step := eta
			if residual < 0 {
				step = -eta
			}
			alpha[i] += step
			b += step

			// Regularization decay keeps coefficients bounded.
			if s.Lambda > 0 {
				decay := 1 - eta*s.Lambda
				for j := 0; j < n; j++ {
					alpha[j] *= decay
				}
			}
		}
	}

	// Compress to support vectors.
	const tol = 1e-8
	s.SupportVectors = s.SupportVectors[:0]
	s.Coefficients = s.Coefficients[:0]
	for i := 0; i < n; i++ {
		if math.Abs(alpha[i]) > tol {
			s.SupportVectors = append(s.SupportVectors, rows[i])
			s.Coefficients = append(s.Coefficients, alpha[i])
		}
	}
	s.Intercept = b

	s.SetFitted()
	return nil
}

// NSupportVectors returns the number of retained support vectors.
func (s *SVR) NSupportVectors() int {
	return len(s.SupportVectors)
}

// Predict evaluates f(x) = Σ αᵢ K(svᵢ, x) + b for each row of X.
func (s *SVR) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SVR", "Predict")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("SVR.Predict", s.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = X.At(i, j)
		}
		f := s.Intercept
		for k, sv := range s.SupportVectors {
			f += s.Coefficients[k] * s.Kernel.Compute(sv, row)
		}
		predictions.Set(i, 0, f)
	}
	return predictions, nil
}

// Score returns the coefficient of determination R² on X, y.
func (s *SVR) Score(X, y mat.Matrix) (float64, error) {
	if !s.IsFitted() {
		return 0, errors.NewNotFittedError("SVR", "Score")
	}
	yPred, err := s.Predict(X)
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

// GetParams returns the model's hyperparameters.
func (s *SVR) GetParams() map[string]interface{} {
	kernel := "nil"
	if s.Kernel != nil {
		kernel = s.Kernel.Name()
	}
	return map[string]interface{}{
		"kernel":        kernel,
		"epsilon":       s.Epsilon,
		"lambda":        s.Lambda,
		"learning_rate": s.LearningRate,
		"epochs":        s.Epochs,
		"seed":          s.Seed,
	}
}

// Save writes the fitted model to path.
func (s *SVR) Save(path string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError("SVR", "Save")
	}
	return model.SaveModel(s, path)
}

// Load reads a model previously written by Save.
func (s *SVR) Load(path string) error {
	return model.LoadModel(s, path)
}
