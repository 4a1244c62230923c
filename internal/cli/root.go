// Package cli implements the wildfire command line: training, comparing and
// querying burned-area regression models.
package cli

import (
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/dataset"
	"github.com/YuminosukeSato/wildfire/ensemble"
	"github.com/YuminosukeSato/wildfire/internal/config"
	"github.com/YuminosukeSato/wildfire/linear"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"github.com/YuminosukeSato/wildfire/pkg/log"
	"github.com/YuminosukeSato/wildfire/preprocessing"
	"github.com/YuminosukeSato/wildfire/svm"
	"github.com/YuminosukeSato/wildfire/tree"
)

// trainable is what the CLI needs from a model: the estimator contract plus
// file persistence.
type trainable interface {
	model.Regressor
	model.Persistable
}

// modelNames lists the registry keys in display order.
func modelNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var registry = map[string]func(p config.ModelParams, seed int64) trainable{
	"linear": func(_ config.ModelParams, _ int64) trainable {
		return linear.NewRegression()
	},
	"tree": func(p config.ModelParams, seed int64) trainable {
		return tree.NewDecisionTreeRegressor().WithMaxDepth(p.TreeMaxDepth).WithSeed(seed)
	},
	"random_forest": func(p config.ModelParams, seed int64) trainable {
		return ensemble.NewRandomForestRegressor().
			WithNEstimators(p.ForestTrees).WithMaxDepth(p.TreeMaxDepth).WithSeed(seed)
	},
	"sgd": func(p config.ModelParams, seed int64) trainable {
		return linear.NewSGDRegressor().WithAlpha(p.SGDAlpha).WithMaxIter(p.SGDMaxIter).WithSeed(seed)
	},
	"ransac": func(p config.ModelParams, seed int64) trainable {
		return linear.NewRANSACRegressor().WithMaxTrials(p.RANSACTrials).WithSeed(seed)
	},
	"svr": func(p config.ModelParams, seed int64) trainable {
		return svm.NewSVR().WithEpsilon(p.SVREpsilon).WithEpochs(p.SVREpochs).WithSeed(seed)
	},
}

// newModel builds an unfitted model from its registry name.
func newModel(name string, p config.ModelParams, seed int64) (trainable, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.NewValueError("cli.newModel", "unknown model '"+name+"'")
	}
	return factory(p, seed), nil
}

// loadData reads the configured CSV and assembles the training matrices,
// standardizing features when the config asks for it. The returned scaler is
// nil when standardization is off.
func loadData(cfg *config.Config) (X, y mat.Matrix, ds *dataset.Dataset, scaler *preprocessing.StandardScaler, err error) {
	ds, err = dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	X, err = ds.Features()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	y, err = ds.Target(cfg.LogTarget)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if cfg.Standardize {
		scaler = preprocessing.NewStandardScaler()
		X, err = scaler.FitTransform(X)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}

	log.Info().Int("rows", ds.Len()).Bool("log_target", cfg.LogTarget).
		Bool("standardize", cfg.Standardize).Msg("dataset loaded")
	return X, y, ds, scaler, nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var (
		configDir string
		logLevel  string
		jsonLog   bool
		cfg       *config.Config
	)

	cmd := &cobra.Command{
		Use:           "wildfire",
		Short:         "Train and compare burned-area regression models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			log.Setup(logLevel, jsonLog, os.Stderr)
			var err error
			cfg, err = config.ReadOrCreate(configDir)
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding wildfire.yaml")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "emit JSON logs instead of console output")

	cmd.AddCommand(
		newTrainCmd(&cfg),
		newCompareCmd(&cfg),
		newPredictCmd(&cfg),
		newHistoryCmd(&cfg),
	)
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
