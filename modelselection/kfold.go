// Package modelselection provides k-fold splitting, train/test splitting and
// cross-validation for regressors.
package modelselection

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/wildfire/pkg/errors"
)

// Splitter yields train/test index folds over a dataset.
type Splitter interface {
	Split(X, y mat.Matrix) ([]Fold, error)
	NumSplits() int
}

// Fold is one train/test partition.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits samples into NSplits contiguous folds, optionally shuffling
// first. The seed is always explicit so repeated runs score the same folds.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int64
}

// NewKFold creates a shuffled k-fold splitter with the given seed.
func NewKFold(nSplits int, seed int64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: true, Seed: seed}
}

// NumSplits returns the number of folds.
func (kf *KFold) NumSplits() int { return kf.NSplits }

// Split partitions the rows of X into folds. Each sample lands in exactly one
// test set.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	n, _ := X.Dims()
	if n < kf.NSplits {
		return nil, errors.NewValidationError("n_splits",
			"cannot exceed the number of samples", kf.NSplits)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		rng := rand.New(rand.NewPCG(uint64(kf.Seed), uint64(kf.Seed)))
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	start := 0
	for f := 0; f < kf.NSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}

		test := make([]int, size)
		copy(test, indices[start:start+size])

		train := make([]int, 0, n-size)
		train = append(train, indices[:start]...)
		train = append(train, indices[start+size:]...)

		folds[f] = Fold{TrainIndices: train, TestIndices: test}
		start += size
	}
	return folds, nil
}

// TrainTestSplit partitions X, y into a shuffled train set and a test set of
// testSize rows.
func TrainTestSplit(X, y mat.Matrix, testSize int, seed int64) (trainX, trainY, testX, testY mat.Matrix, err error) {
	n, _ := X.Dims()
	if testSize <= 0 || testSize >= n {
		return nil, nil, nil, nil, errors.NewValidationError("test_size",
			"must be between 1 and n_samples-1", testSize)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	testX, testY = subset(X, y, indices[:testSize])
	trainX, trainY = subset(X, y, indices[testSize:])
	return trainX, trainY, testX, testY, nil
}

// subset copies the given rows of X, y into fresh matrices. Indices are
// sorted so row order is stable across shuffles.
func subset(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	_, xc := X.Dims()
	_, yc := y.Dims()
	xs := mat.NewDense(len(sorted), xc, nil)
	ys := mat.NewDense(len(sorted), yc, nil)
	for i, idx := range sorted {
		for j := 0; j < xc; j++ {
			xs.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yc; j++ {
			ys.Set(i, j, y.At(idx, j))
		}
	}
	return xs, ys
}
