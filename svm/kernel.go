// Package svm implements epsilon-insensitive support vector regression with
// pluggable kernels.
package svm

import (
	"encoding/gob"
	"math"
)

// Kernel computes the similarity of two feature vectors.
type Kernel interface {
	Compute(a, b []float64) float64
	Name() string
}

func init() {
	// Concrete kernels travel through the gob-encoded model file.
	gob.Register(&LinearKernel{})
	gob.Register(&RBFKernel{})
}

// LinearKernel is the plain dot product.
type LinearKernel struct{}

// Compute returns a·b.
func (k *LinearKernel) Compute(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Name returns "linear".
func (k *LinearKernel) Name() string { return "linear" }

// RBFKernel is the Gaussian kernel exp(-gamma * |a-b|²).
type RBFKernel struct {
	Gamma float64
}

// Compute returns exp(-gamma * |a-b|²).
func (k *RBFKernel) Compute(a, b []float64) float64 {
	var sq float64
	for i := range a {
		d := a[i] - b[i]
		sq += d * d
	}
	return math.Exp(-k.Gamma * sq)
}

// Name returns "rbf".
func (k *RBFKernel) Name() string { return "rbf" }
