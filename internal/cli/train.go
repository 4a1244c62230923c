package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/internal/config"
	"github.com/YuminosukeSato/wildfire/internal/report"
	"github.com/YuminosukeSato/wildfire/internal/store"
	"github.com/YuminosukeSato/wildfire/metrics"
	"github.com/YuminosukeSato/wildfire/modelselection"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"github.com/YuminosukeSato/wildfire/pkg/log"
)

func newTrainCmd(cfg **config.Config) *cobra.Command {
	var noPlot bool

	cmd := &cobra.Command{
		Use:   "train <model>",
		Short: "Cross-validate a model, fit it on the full dataset and save it",
		Long: "Cross-validates the named model, fits it on the full dataset, saves the " +
			"fitted model under the configured model directory and records the run.\n\n" +
			"Models: " + strings.Join(modelNames(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.Context(), *cfg, args[0], !noPlot)
		},
	}
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip the predicted-vs-actual plot")
	return cmd
}

func runTrain(ctx context.Context, cfg *config.Config, name string, plotScatter bool) error {
	est, err := newModel(name, cfg.Models, cfg.Seed)
	if err != nil {
		return err
	}

	X, y, _, scaler, err := loadData(cfg)
	if err != nil {
		return err
	}

	cv, err := modelselection.CrossValidate(func() model.Regressor {
		m, _ := newModel(name, cfg.Models, cfg.Seed)
		return m
	}, X, y, modelselection.NewKFold(cfg.CVFolds, cfg.Seed), modelselection.ScoringRMSE)
	if err != nil {
		return errors.Wrapf(err, "cross-validate %s", name)
	}

	holdout, err := holdoutRMSE(cfg, name, X, y)
	if err != nil {
		return err
	}
	log.Info().Str("model", name).Float64("holdout_rmse", holdout).Msg("holdout evaluated")

	if err := est.Fit(X, y); err != nil {
		return errors.Wrapf(err, "fit %s", name)
	}

	if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
		return errors.Wrapf(err, "create model dir %s", cfg.ModelDir)
	}
	modelPath := filepath.Join(cfg.ModelDir, name+".gob")
	if err := est.Save(modelPath); err != nil {
		return errors.Wrapf(err, "save %s", name)
	}
	if scaler != nil {
		if err := model.SaveModel(scaler, scalerPath(cfg, name)); err != nil {
			return errors.Wrap(err, "save scaler")
		}
	}

	if err := recordRun(ctx, cfg, name, cv); err != nil {
		return err
	}

	if plotScatter {
		pred, err := est.Predict(X)
		if err != nil {
			return err
		}
		plotPath := filepath.Join(cfg.ReportDir, name+"_scatter.png")
		if err := report.SaveScatter(y, pred, name, plotPath); err != nil {
			return err
		}
		log.Info().Str("path", plotPath).Msg("scatter plot written")
	}

	fmt.Printf("%s: CV RMSE %.4f (+/- %.4f), holdout RMSE %.4f, model saved to %s\n",
		name, cv.Mean(), cv.Std(), holdout, modelPath)
	return nil
}

// holdoutRMSE fits a fresh model on 80% of the data and scores it on the
// held-out 20%. A single train/test check alongside the fold scores.
func holdoutRMSE(cfg *config.Config, name string, X, y mat.Matrix) (float64, error) {
	n, _ := X.Dims()
	testSize := n / 5
	if testSize < 1 {
		testSize = 1
	}
	trainX, trainY, testX, testY, err := modelselection.TrainTestSplit(X, y, testSize, cfg.Seed)
	if err != nil {
		return 0, err
	}

	m, err := newModel(name, cfg.Models, cfg.Seed)
	if err != nil {
		return 0, err
	}
	if err := m.Fit(trainX, trainY); err != nil {
		return 0, errors.Wrapf(err, "fit %s on holdout split", name)
	}
	pred, err := m.Predict(testX)
	if err != nil {
		return 0, err
	}
	return metrics.RMSEMatrix(testY, pred)
}

func scalerPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.ModelDir, name+".scaler.gob")
}

// recordRun appends the cross-validation summary to the runs database.
func recordRun(ctx context.Context, cfg *config.Config, name string, cv *modelselection.CVResult) error {
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = s.InsertRun(ctx, &store.Run{
		Model:     name,
		Scoring:   string(cv.Scoring),
		MeanScore: cv.Mean(),
		StdScore:  cv.Std(),
		CVFolds:   cfg.CVFolds,
		Seed:      cfg.Seed,
		LogTarget: cfg.LogTarget,
	})
	return err
}
