package modelselection

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/metrics"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"github.com/YuminosukeSato/wildfire/pkg/log"
)

// Scoring selects the per-fold metric computed by CrossValidate.
type Scoring string

const (
	ScoringRMSE Scoring = "rmse"
	ScoringMSE  Scoring = "mse"
	ScoringMAE  Scoring = "mae"
	ScoringR2   Scoring = "r2"
)

// Loss reports whether lower values of the scoring are better.
func (s Scoring) Loss() bool { return s != ScoringR2 }

// CVResult holds per-fold scores from a cross-validation run.
type CVResult struct {
	Scores  []float64
	Scoring Scoring
}

// Mean returns the average fold score.
func (r *CVResult) Mean() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range r.Scores {
		sum += s
	}
	return sum / float64(len(r.Scores))
}

// Std returns the sample standard deviation of the fold scores.
func (r *CVResult) Std() float64 {
	if len(r.Scores) <= 1 {
		return 0
	}
	mean := r.Mean()
	var sumSq float64
	for _, s := range r.Scores {
		d := s - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(r.Scores)-1))
}

// CrossValidate fits a fresh model per fold and scores it on that fold's test
// set. The factory must return an unfitted estimator each call; folds run
// concurrently, so fold models never share state.
func CrossValidate(factory func() model.Regressor, X, y mat.Matrix, splitter Splitter, scoring Scoring) (*CVResult, error) {
	if factory == nil {
		return nil, errors.NewValidationError("factory", "must not be nil", nil)
	}
	folds, err := splitter.Split(X, y)
	if err != nil {
		return nil, err
	}

	result := &CVResult{
		Scores:  make([]float64, len(folds)),
		Scoring: scoring,
	}

	logger := log.With().Str("component", "cross_validate").Logger()
	logger.Debug().Int("n_folds", len(folds)).Str("scoring", string(scoring)).Msg("starting cross-validation")

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for f, fold := range folds {
		g.Go(func() error {
			trainX, trainY := subset(X, y, fold.TrainIndices)
			testX, testY := subset(X, y, fold.TestIndices)

			est := factory()
			if err := est.Fit(trainX, trainY); err != nil {
				return errors.Wrapf(err, "fold %d fit failed", f)
			}
			pred, err := est.Predict(testX)
			if err != nil {
				return errors.Wrapf(err, "fold %d predict failed", f)
			}

			score, err := score(testY, pred, scoring)
			if err != nil {
				return errors.Wrapf(err, "fold %d scoring failed", f)
			}
			result.Scores[f] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug().Float64("mean", result.Mean()).Float64("std", result.Std()).Msg("cross-validation done")
	return result, nil
}

func score(yTrue, yPred mat.Matrix, scoring Scoring) (float64, error) {
	tv, err := metrics.ColumnVec(yTrue)
	if err != nil {
		return 0, err
	}
	pv, err := metrics.ColumnVec(yPred)
	if err != nil {
		return 0, err
	}

	switch scoring {
	case ScoringRMSE, "":
		return metrics.RMSE(tv, pv)
	case ScoringMSE:
		return metrics.MSE(tv, pv)
	case ScoringMAE:
		return metrics.MAE(tv, pv)
	case ScoringR2:
		return metrics.R2Score(tv, pv)
	default:
		return 0, errors.NewValueError("CrossValidate", "unknown scoring '"+string(scoring)+"'")
	}
}
