package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/wildfire/internal/config"
	"github.com/YuminosukeSato/wildfire/internal/store"
)

func newHistoryCmd(cfg **config.Config) *cobra.Command {
	var (
		modelFilter string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded cross-validation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := store.Open((*cfg).DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), modelFilter, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded yet")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWHEN\tMODEL\tSCORING\tMEAN\tSTD\tFOLDS\tSEED")
			for _, r := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.4f\t%.4f\t%d\t%d\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Model, r.Scoring,
					r.MeanScore, r.StdScore, r.CVFolds, r.Seed)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&modelFilter, "model", "", "only show runs for this model")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show (0 for all)")
	return cmd
}
