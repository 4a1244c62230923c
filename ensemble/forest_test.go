package ensemble

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// sinData samples y = sin(x) on [0, 5], the classic forest smoke test.
func sinData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n) * 5
		X.Set(i, 0, x)
		y.Set(i, 0, math.Sin(x))
	}
	return X, y
}

func TestForestFitsSin(t *testing.T) {
	X, y := sinData(200)

	rf := NewRandomForestRegressor().WithNEstimators(30).WithSeed(42)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.95 {
		t.Errorf("train R² = %v, want > 0.95", score)
	}
}

func TestForestBeatsSingleNoisyTree(t *testing.T) {
	// Averaged bootstrap trees should interpolate sin smoothly enough that
	// held-out error stays small.
	X, y := sinData(200)

	rf := NewRandomForestRegressor().WithNEstimators(50).WithSeed(1)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	test := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		test.Set(i, 0, float64(i)/20*5+0.07) // off-grid points
	}
	pred, err := rf.Predict(test)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	var maxErr float64
	for i := 0; i < 20; i++ {
		e := math.Abs(pred.At(i, 0) - math.Sin(test.At(i, 0)))
		if e > maxErr {
			maxErr = e
		}
	}
	if maxErr > 0.3 {
		t.Errorf("max held-out error = %v, want < 0.3", maxErr)
	}
}

func TestForestReproducible(t *testing.T) {
	X, y := sinData(100)

	a := NewRandomForestRegressor().WithNEstimators(10).WithSeed(5)
	b := NewRandomForestRegressor().WithNEstimators(10).WithSeed(5)
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pa, _ := a.Predict(X)
	pb, _ := b.Predict(X)
	if !mat.EqualApprox(pa, pb, 0) {
		t.Error("identically seeded forests predict differently")
	}
}

func TestForestFeatureImportances(t *testing.T) {
	// Feature 0 fully determines y; feature 1 is constant noise.
	n := 100
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, 1.0)
		y.Set(i, 0, float64(i)*2)
	}

	rf := NewRandomForestRegressor().WithNEstimators(10).WithMaxFeatures(2).WithSeed(3)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	imp, err := rf.FeatureImportances()
	if err != nil {
		t.Fatalf("FeatureImportances() error = %v", err)
	}
	if imp[0] != 1.0 || imp[1] != 0.0 {
		t.Errorf("importances = %v, want [1, 0]", imp)
	}
}

func TestForestValidation(t *testing.T) {
	X, y := sinData(10)

	if err := NewRandomForestRegressor().WithNEstimators(0).Fit(X, y); err == nil {
		t.Error("Fit() accepted n_estimators=0")
	}
	if err := NewRandomForestRegressor().Fit(&mat.Dense{}, &mat.Dense{}); err == nil {
		t.Error("Fit() accepted empty data")
	}

	rf := NewRandomForestRegressor()
	if _, err := rf.Predict(X); err == nil {
		t.Error("Predict() on unfitted forest did not error")
	}
}

func TestForestSaveLoad(t *testing.T) {
	X, y := sinData(50)

	rf := NewRandomForestRegressor().WithNEstimators(5).WithSeed(11)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "forest.gob")
	if err := rf.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := NewRandomForestRegressor()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want, _ := rf.Predict(X)
	got, err := loaded.Predict(X)
	if err != nil {
		t.Fatalf("Predict() after Load error = %v", err)
	}
	if !mat.EqualApprox(want, got, 0) {
		t.Error("loaded forest predicts differently")
	}
}
