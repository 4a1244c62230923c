package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/dataset"
	"github.com/YuminosukeSato/wildfire/internal/config"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"github.com/YuminosukeSato/wildfire/preprocessing"
)

func newPredictCmd(cfg **config.Config) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "predict <model>",
		Short: "Predict burned areas with a previously trained model",
		Long: "Loads the named model from the configured model directory and prints a " +
			"predicted burned area, in hectares, for every row of the input CSV.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPredict(*cfg, args[0], input)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "CSV file to predict on (defaults to the configured dataset)")
	return cmd
}

func runPredict(cfg *config.Config, name, input string) error {
	est, err := newModel(name, cfg.Models, cfg.Seed)
	if err != nil {
		return err
	}
	modelPath := filepath.Join(cfg.ModelDir, name+".gob")
	if err := est.Load(modelPath); err != nil {
		return errors.Wrapf(err, "load %s (run 'wildfire train %s' first)", modelPath, name)
	}

	if input == "" {
		input = cfg.DataPath
	}
	ds, err := dataset.Load(input)
	if err != nil {
		return err
	}
	ds.LogTarget = cfg.LogTarget

	X, err := ds.Features()
	if err != nil {
		return err
	}

	// The scaler saved at train time reproduces the training-time feature
	// distribution; without it predictions would see unscaled inputs.
	if cfg.Standardize {
		scaler := preprocessing.NewStandardScaler()
		if err := model.LoadModel(scaler, scalerPath(cfg, name)); err != nil {
			return errors.Wrap(err, "load scaler")
		}
		X, err = scaler.Transform(X)
		if err != nil {
			return err
		}
	}

	pred, err := est.Predict(X)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tMONTH\tDAY\tPREDICTED AREA (ha)")
	r, _ := pred.Dims()
	for i := 0; i < r; i++ {
		rec := ds.Records[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\n", i, rec.Month, rec.Day, ds.InverseTarget(pred.At(i, 0)))
	}
	return w.Flush()
}
