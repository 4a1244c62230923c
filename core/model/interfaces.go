package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that can be trained on a feature matrix X and a target
// column vector y.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor produces predictions for new samples. The returned matrix has one
// column and one row per input sample.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer computes the coefficient of determination R² of the prediction.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor is the contract every wildfire regression model satisfies.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// IncrementalLearner is implemented by models trained by stochastic updates,
// allowing additional passes over new data after the initial Fit.
type IncrementalLearner interface {
	PartialFit(X, y mat.Matrix) error
}

// Transformer is a fit/transform data preprocessor.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter exposes hyperparameters for logging and run records.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// Persistable is a model that can be saved to and loaded from a file.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
