package preprocessing

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

var months = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

func TestFixedLabelBinarizerStableWidth(t *testing.T) {
	b, err := NewFixedLabelBinarizer(months)
	if err != nil {
		t.Fatalf("NewFixedLabelBinarizer() error = %v", err)
	}

	// A batch containing only two distinct months still encodes to 12 columns.
	out, err := b.Transform([]string{"aug", "sep", "aug"})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	r, c := out.Dims()
	if r != 3 || c != 12 {
		t.Fatalf("dims = %dx%d, want 3x12", r, c)
	}

	wantHot := map[int]int{0: 7, 1: 8, 2: 7} // row -> vocabulary index
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := 0.0
			if wantHot[i] == j {
				want = 1.0
			}
			if got := out.At(i, j); got != want {
				t.Errorf("out[%d][%d] = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestFixedLabelBinarizerRowSums(t *testing.T) {
	b, err := NewFixedLabelBinarizer([]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"})
	if err != nil {
		t.Fatalf("NewFixedLabelBinarizer() error = %v", err)
	}

	out, err := b.Transform([]string{"fri", "sun", "mon", "mon"})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	r, c := out.Dims()
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += out.At(i, j)
		}
		if sum != 1.0 {
			t.Errorf("row %d sum = %v, want exactly one hot column", i, sum)
		}
	}
}

func TestFixedLabelBinarizerUnknownLabel(t *testing.T) {
	b, err := NewFixedLabelBinarizer([]string{"a", "b"})
	if err != nil {
		t.Fatalf("NewFixedLabelBinarizer() error = %v", err)
	}

	if _, err := b.Transform([]string{"a", "zzz"}); err == nil {
		t.Error("Transform() accepted a label outside the vocabulary")
	}
}

func TestFixedLabelBinarizerValidation(t *testing.T) {
	if _, err := NewFixedLabelBinarizer(nil); err == nil {
		t.Error("empty vocabulary accepted")
	}
	if _, err := NewFixedLabelBinarizer([]string{"x", "x"}); err == nil {
		t.Error("duplicate vocabulary accepted")
	}

	b, err := NewFixedLabelBinarizer([]string{"x"})
	if err != nil {
		t.Fatalf("NewFixedLabelBinarizer() error = %v", err)
	}
	if _, err := b.Transform(nil); err == nil {
		t.Error("empty batch accepted")
	}
}

func TestFixedLabelBinarizerFitTransform(t *testing.T) {
	b, err := NewFixedLabelBinarizer([]string{"low", "high"})
	if err != nil {
		t.Fatalf("NewFixedLabelBinarizer() error = %v", err)
	}

	out, err := b.FitTransform([]string{"high", "low"})
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	want := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	if !mat.EqualApprox(out, want, 0) {
		t.Errorf("FitTransform() = %v, want %v", mat.Formatted(out), mat.Formatted(want))
	}
}
