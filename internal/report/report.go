// Package report renders comparison plots for scored models.
package report

import (
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/wildfire/pkg/errors"
)

const dirMode = 0o755

// ModelScore is one model's cross-validation summary, as plotted by
// SaveComparison.
type ModelScore struct {
	Name string
	Mean float64
	Std  float64
}

// SaveScatter writes a predicted-vs-actual scatter plot to path. The dashed
// identity line marks perfect predictions.
func SaveScatter(yTrue, yPred mat.Matrix, title, path string) error {
	n, c := yTrue.Dims()
	pn, pc := yPred.Dims()
	if c != 1 || pc != 1 {
		return errors.NewValueError("report.SaveScatter", "inputs must be column vectors")
	}
	if pn != n {
		return errors.NewDimensionError("report.SaveScatter", n, pn, 0)
	}
	if n == 0 {
		return errors.NewModelError("report.SaveScatter", "empty data", errors.ErrEmptyData)
	}

	pts := make(plotter.XYs, n)
	lo, hi := yTrue.At(0, 0), yTrue.At(0, 0)
	for i := 0; i < n; i++ {
		yt, yp := yTrue.At(i, 0), yPred.At(i, 0)
		pts[i].X, pts[i].Y = yt, yp
		if yt < lo {
			lo = yt
		}
		if yt > hi {
			hi = yt
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "build scatter")
	}
	p.Add(scatter)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "build identity line")
	}
	identity.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(identity)

	return save(p, path)
}

// SaveComparison writes a bar chart of per-model mean scores to path.
func SaveComparison(scores []ModelScore, scoring, path string) error {
	if len(scores) == 0 {
		return errors.NewModelError("report.SaveComparison", "no scores", errors.ErrEmptyData)
	}

	values := make(plotter.Values, len(scores))
	names := make([]string, len(scores))
	for i, s := range scores {
		values[i] = s.Mean
		names[i] = s.Name
	}

	p := plot.New()
	p.Title.Text = "model comparison (" + scoring + ")"
	p.Y.Label.Text = scoring

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return errors.Wrap(err, "build bar chart")
	}
	p.Add(bars)
	p.NominalX(names...)

	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return errors.Wrapf(err, "create report dir %s", dir)
		}
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
