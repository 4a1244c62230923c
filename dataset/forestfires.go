// Package dataset loads the UCI forest-fires table and turns it into the
// feature matrix and target vector the regressors consume.
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"github.com/YuminosukeSato/wildfire/preprocessing"
)

// Months and Days are the fixed categorical vocabularies of the forest-fires
// table, in the column order the one-hot encoding uses. Encoding against the
// full vocabulary keeps the feature width stable even when a split happens to
// miss a month.
var (
	Months = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	Days   = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
)

// NumericColumns names the numeric feature columns, in matrix order. The
// one-hot month and day blocks follow them.
var NumericColumns = []string{"X", "Y", "FFMC", "DMC", "DC", "ISI", "temp", "RH", "wind", "rain"}

// Record is one row of the forest-fires table.
type Record struct {
	X, Y       float64 // park grid coordinates
	Month, Day string
	FFMC       float64
	DMC        float64
	DC         float64
	ISI        float64
	Temp       float64
	RH         float64
	Wind       float64
	Rain       float64
	Area       float64 // burned area in hectares
}

// Dataset holds the parsed rows plus the derived matrices.
type Dataset struct {
	Records []Record

	// LogTarget records whether Y holds log1p(area) instead of raw area.
	LogTarget bool
}

// Load reads a forest-fires CSV file from path. The file must carry the
// standard 13-column header.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Read parses forest-fires CSV rows from r.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read dataset header")
	}
	if len(header) != 13 {
		return nil, errors.NewValueError("dataset.Read",
			"expected 13 columns, got "+strconv.Itoa(len(header)))
	}

	ds := &Dataset{}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read dataset row %d", line)
		}
		line++

		rec, err := parseRecord(row)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset row %d", line)
		}
		ds.Records = append(ds.Records, rec)
	}

	if len(ds.Records) == 0 {
		return nil, errors.NewModelError("dataset.Read", "no data rows", errors.ErrEmptyData)
	}
	return ds, nil
}

func parseRecord(row []string) (Record, error) {
	var rec Record
	if len(row) != 13 {
		return rec, errors.NewValueError("dataset.parseRecord",
			"expected 13 fields, got "+strconv.Itoa(len(row)))
	}

	nums := make([]float64, 13)
	for i, s := range row {
		if i == 2 || i == 3 { // month, day
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return rec, errors.Wrapf(err, "parse field %d (%q)", i, s)
		}
		nums[i] = v
	}

	rec = Record{
		X: nums[0], Y: nums[1],
		Month: row[2], Day: row[3],
		FFMC: nums[4], DMC: nums[5], DC: nums[6], ISI: nums[7],
		Temp: nums[8], RH: nums[9], Wind: nums[10], Rain: nums[11],
		Area: nums[12],
	}
	return rec, nil
}

// NumFeatures is the width of the assembled feature matrix: the numeric
// columns plus the one-hot month and day blocks.
func NumFeatures() int {
	return len(NumericColumns) + len(Months) + len(Days)
}

// FeatureNames returns the column names of the assembled matrix, in order.
func FeatureNames() []string {
	names := make([]string, 0, NumFeatures())
	names = append(names, NumericColumns...)
	for _, m := range Months {
		names = append(names, "month_"+m)
	}
	for _, d := range Days {
		names = append(names, "day_"+d)
	}
	return names
}

// Features assembles the n×NumFeatures() matrix: numeric columns followed by
// the one-hot encodings of month and day against their full vocabularies.
func (d *Dataset) Features() (mat.Matrix, error) {
	n := len(d.Records)
	if n == 0 {
		return nil, errors.NewModelError("Dataset.Features", "empty dataset", errors.ErrEmptyData)
	}

	months := make([]string, n)
	days := make([]string, n)
	for i, r := range d.Records {
		months[i] = r.Month
		days[i] = r.Day
	}

	mb, err := preprocessing.NewFixedLabelBinarizer(Months)
	if err != nil {
		return nil, err
	}
	monthCols, err := mb.Transform(months)
	if err != nil {
		return nil, err
	}

	db, err := preprocessing.NewFixedLabelBinarizer(Days)
	if err != nil {
		return nil, err
	}
	dayCols, err := db.Transform(days)
	if err != nil {
		return nil, err
	}

	nn := len(NumericColumns)
	out := mat.NewDense(n, NumFeatures(), nil)
	for i, r := range d.Records {
		out.Set(i, 0, r.X)
		out.Set(i, 1, r.Y)
		out.Set(i, 2, r.FFMC)
		out.Set(i, 3, r.DMC)
		out.Set(i, 4, r.DC)
		out.Set(i, 5, r.ISI)
		out.Set(i, 6, r.Temp)
		out.Set(i, 7, r.RH)
		out.Set(i, 8, r.Wind)
		out.Set(i, 9, r.Rain)
		for j := 0; j < len(Months); j++ {
			out.Set(i, nn+j, monthCols.At(i, j))
		}
		for j := 0; j < len(Days); j++ {
			out.Set(i, nn+len(Months)+j, dayCols.At(i, j))
		}
	}
	return out, nil
}

// Target returns the burned-area column vector. When logTransform is set, the
// values are log1p(area), which tames the heavy right tail of the raw areas;
// report predictions back through InverseTarget.
func (d *Dataset) Target(logTransform bool) (mat.Matrix, error) {
	n := len(d.Records)
	if n == 0 {
		return nil, errors.NewModelError("Dataset.Target", "empty dataset", errors.ErrEmptyData)
	}

	d.LogTarget = logTransform
	y := mat.NewDense(n, 1, nil)
	for i, r := range d.Records {
		v := r.Area
		if logTransform {
			v = math.Log1p(v)
		}
		y.Set(i, 0, v)
	}
	return y, nil
}

// InverseTarget maps predictions back to hectares, applying expm1 when the
// target was log-transformed.
func (d *Dataset) InverseTarget(v float64) float64 {
	if d.LogTarget {
		return math.Expm1(v)
	}
	return v
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Records) }
