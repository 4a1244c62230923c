// Package wildfire trains and compares regression models that predict the
// burned area of forest fires from the UCI forest-fires dataset.
//
// The library follows a scikit-learn-like estimator contract: every model
// implements Fit, Predict and Score over gonum matrices, reports errors
// through structured error types, and persists to disk with gob.
//
// # Models
//
//   - linear: ordinary least squares via the normal equations
//   - tree: a CART regression tree
//   - ensemble: a random forest of bootstrap-trained trees
//   - linear.SGDRegressor: stochastic gradient descent with L2 regularization
//   - linear.RANSACRegressor: robust regression by random sample consensus
//   - svm: epsilon-insensitive support vector regression
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/wildfire/linear"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//	    y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})
//
//	    lr := linear.NewRegression()
//	    if err := lr.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, _ := lr.Predict(mat.NewDense(1, 1, []float64{5}))
//	    fmt.Println(pred.At(0, 0)) // 10
//	}
//
// Model quality is compared with k-fold cross-validation on RMSE; see the
// modelselection package. The wildfire CLI under cmd/wildfire wires the
// dataset loading, preprocessing, training and run history together.
//
// All randomness is seeded. Two runs with the same seed produce the same
// folds, the same bootstrap samples and the same scores.
package wildfire
