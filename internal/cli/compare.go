package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/internal/config"
	"github.com/YuminosukeSato/wildfire/internal/report"
	"github.com/YuminosukeSato/wildfire/modelselection"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"github.com/YuminosukeSato/wildfire/pkg/log"
)

func newCompareCmd(cfg **config.Config) *cobra.Command {
	var noPlot bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Cross-validate every model and rank them by mean RMSE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd.Context(), *cfg, !noPlot)
		},
	}
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip the comparison bar chart")
	return cmd
}

func runCompare(ctx context.Context, cfg *config.Config, plotBars bool) error {
	X, y, _, _, err := loadData(cfg)
	if err != nil {
		return err
	}

	splitter := modelselection.NewKFold(cfg.CVFolds, cfg.Seed)
	scores := make([]report.ModelScore, 0, len(registry))

	for _, name := range modelNames() {
		cv, err := modelselection.CrossValidate(func() model.Regressor {
			m, _ := newModel(name, cfg.Models, cfg.Seed)
			return m
		}, X, y, splitter, modelselection.ScoringRMSE)
		if err != nil {
			return errors.Wrapf(err, "cross-validate %s", name)
		}

		scores = append(scores, report.ModelScore{Name: name, Mean: cv.Mean(), Std: cv.Std()})
		if err := recordRun(ctx, cfg, name, cv); err != nil {
			return err
		}
		log.Debug().Str("model", name).Float64("rmse", cv.Mean()).Msg("model scored")
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Mean < best.Mean {
			best = s
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tMEAN RMSE\tSTD")
	for _, s := range scores {
		marker := ""
		if s.Name == best.Name {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%.4f\t%.4f\n", s.Name, marker, s.Mean, s.Std)
	}
	w.Flush()
	fmt.Printf("\nbest model: %s (mean RMSE %.4f)\n", best.Name, best.Mean)

	if plotBars {
		plotPath := filepath.Join(cfg.ReportDir, "comparison.png")
		if err := report.SaveComparison(scores, "rmse", plotPath); err != nil {
			return err
		}
		log.Info().Str("path", plotPath).Msg("comparison chart written")
	}
	return nil
}
