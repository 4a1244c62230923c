package svm

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKernels(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{3, -1}

	lin := &LinearKernel{}
	if got := lin.Compute(a, b); got != 1 {
		t.Errorf("linear kernel = %v, want 1", got)
	}
	if got := lin.Compute(a, a); got != 5 {
		t.Errorf("linear kernel self = %v, want 5", got)
	}

	rbf := &RBFKernel{Gamma: 0.5}
	if got := rbf.Compute(a, a); got != 1 {
		t.Errorf("rbf kernel self = %v, want 1", got)
	}
	want := math.Exp(-0.5 * (4 + 9))
	if got := rbf.Compute(a, b); math.Abs(got-want) > 1e-12 {
		t.Errorf("rbf kernel = %v, want %v", got, want)
	}
}

func TestSVRLinearKernelLine(t *testing.T) {
	// y = 2x on [-1, 1].
	n := 40
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i)/float64(n)*2 - 1
		X.Set(i, 0, x)
		y.Set(i, 0, 2*x)
	}

	svr := NewSVR().WithKernel(&LinearKernel{}).WithEpsilon(0.05).WithEpochs(100)
	if err := svr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := svr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.95 {
		t.Errorf("R² = %v, want > 0.95", score)
	}
}

func TestSVRRBFFitsSin(t *testing.T) {
	n := 80
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n) * 4
		X.Set(i, 0, x)
		y.Set(i, 0, math.Sin(x))
	}

	svr := NewSVR().WithKernel(&RBFKernel{Gamma: 2.0}).WithEpsilon(0.05).WithEpochs(200)
	if err := svr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := svr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.9 {
		t.Errorf("R² = %v, want > 0.9 on sin", score)
	}
	if svr.NSupportVectors() == 0 {
		t.Error("no support vectors retained")
	}
}

func TestSVRTubeIgnoresSmallResiduals(t *testing.T) {
	// With a tube wider than the target spread, nothing leaves the tube
	// after the first corrections and most coefficients stay zero.
	n := 20
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, 0.01*float64(i%2))
	}

	svr := NewSVR().WithKernel(&LinearKernel{}).WithEpsilon(10.0).WithEpochs(20)
	if err := svr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if svr.NSupportVectors() != 0 {
		t.Errorf("support vectors = %d, want 0 when all residuals are inside the tube", svr.NSupportVectors())
	}
}

func TestSVRReproducible(t *testing.T) {
	n := 30
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i)/10)
		y.Set(i, 0, math.Cos(float64(i)/10))
	}

	a := NewSVR().WithSeed(9).WithEpochs(30)
	b := NewSVR().WithSeed(9).WithEpochs(30)
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pa, _ := a.Predict(X)
	pb, _ := b.Predict(X)
	if !mat.EqualApprox(pa, pb, 0) {
		t.Error("identically seeded SVR runs predict differently")
	}
}

func TestSVRValidation(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 2, 3})

	if err := NewSVR().WithEpsilon(-1).Fit(X, y); err == nil {
		t.Error("Fit() accepted negative epsilon")
	}
	if err := NewSVR().WithEpochs(0).Fit(X, y); err == nil {
		t.Error("Fit() accepted zero epochs")
	}
	if err := NewSVR().WithKernel(nil).Fit(X, y); err == nil {
		t.Error("Fit() accepted nil kernel")
	}

	svr := NewSVR()
	if _, err := svr.Predict(X); err == nil {
		t.Error("Predict() on unfitted SVR did not error")
	}
}

func TestSVRSaveLoad(t *testing.T) {
	n := 30
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i)/10)
		y.Set(i, 0, math.Sin(float64(i)/10))
	}

	svr := NewSVR().WithKernel(&RBFKernel{Gamma: 1.0}).WithEpochs(50)
	if err := svr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "svr.gob")
	if err := svr.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := NewSVR()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want, _ := svr.Predict(X)
	got, err := loaded.Predict(X)
	if err != nil {
		t.Fatalf("Predict() after Load error = %v", err)
	}
	if !mat.EqualApprox(want, got, 1e-12) {
		t.Error("loaded SVR predicts differently")
	}
}
