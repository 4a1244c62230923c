package tree

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTreeFitsStepFunction(t *testing.T) {
	// Two plateaus split at x = 0.5; one split should recover them exactly.
	X := mat.NewDense(8, 1, []float64{0.1, 0.2, 0.3, 0.4, 0.6, 0.7, 0.8, 0.9})
	y := mat.NewDense(8, 1, []float64{1, 1, 1, 1, 5, 5, 5, 5})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if dt.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1 for a single step", dt.Depth())
	}

	pred, err := dt.Predict(mat.NewDense(2, 1, []float64{0.25, 0.75}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) != 1 || pred.At(1, 0) != 5 {
		t.Errorf("predictions = [%v, %v], want [1, 5]", pred.At(0, 0), pred.At(1, 0))
	}
}

func TestTreeOverfitsTrainingData(t *testing.T) {
	// An unconstrained tree memorizes distinct samples: train R² = 1.
	n := 30
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i*i%7))
		y.Set(i, 0, math.Sin(float64(i)))
	}

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(score-1.0) > 1e-12 {
		t.Errorf("train R² = %v, want exactly 1 for an unconstrained tree", score)
	}
}

func TestTreeMaxDepthLimitsGrowth(t *testing.T) {
	n := 64
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i))
	}

	dt := NewDecisionTreeRegressor().WithMaxDepth(3)
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if d := dt.Depth(); d > 3 {
		t.Errorf("Depth() = %d, want <= 3", d)
	}
}

func TestTreeMinSamplesLeaf(t *testing.T) {
	X := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 10, 10, 10, 10, 10})

	dt := NewDecisionTreeRegressor().WithMinSamplesLeaf(5)
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Only the balanced 5/5 split is legal.
	if dt.Root.Leaf {
		t.Fatal("expected one split")
	}
	if dt.Root.Left.NSamples != 5 || dt.Root.Right.NSamples != 5 {
		t.Errorf("children sizes = %d/%d, want 5/5",
			dt.Root.Left.NSamples, dt.Root.Right.NSamples)
	}
}

func TestTreeConstantTarget(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{3, 3, 3, 3, 3})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !dt.Root.Leaf {
		t.Error("pure node was split")
	}
	if dt.Root.Value != 3 {
		t.Errorf("leaf value = %v, want 3", dt.Root.Value)
	}
}

func TestTreeValidation(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	if err := NewDecisionTreeRegressor().Fit(&mat.Dense{}, &mat.Dense{}); err == nil {
		t.Error("Fit() accepted empty data")
	}
	if err := NewDecisionTreeRegressor().WithMinSamplesSplit(1).Fit(X, y); err == nil {
		t.Error("Fit() accepted min_samples_split < 2")
	}
	if err := NewDecisionTreeRegressor().Fit(X, mat.NewDense(2, 1, nil)); err == nil {
		t.Error("Fit() accepted row mismatch")
	}

	dt := NewDecisionTreeRegressor()
	if _, err := dt.Predict(X); err == nil {
		t.Error("Predict() on unfitted tree did not error")
	}
}

func TestTreeSaveLoad(t *testing.T) {
	X := mat.NewDense(8, 1, []float64{0.1, 0.2, 0.3, 0.4, 0.6, 0.7, 0.8, 0.9})
	y := mat.NewDense(8, 1, []float64{1, 1, 1, 1, 5, 5, 5, 5})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "tree.gob")
	if err := dt.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := NewDecisionTreeRegressor()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want, _ := dt.Predict(X)
	got, err := loaded.Predict(X)
	if err != nil {
		t.Fatalf("Predict() after Load error = %v", err)
	}
	if !mat.EqualApprox(want, got, 0) {
		t.Error("loaded tree predicts differently")
	}
}
