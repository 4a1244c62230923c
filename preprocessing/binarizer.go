package preprocessing

import (
	"github.com/YuminosukeSato/wildfire/core/model"
	"github.com/YuminosukeSato/wildfire/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FixedLabelBinarizer one-hot encodes a categorical string column against a
// vocabulary fixed at construction time. The output always has exactly
// len(Classes) columns, no matter which labels appear in a given batch, so a
// model fitted on one split never sees a different width at predict time.
//
// Fit is a no-op kept for the transformer contract; the vocabulary is the
// whole fitted state.
type FixedLabelBinarizer struct {
	model.BaseEstimator

	// Classes is the fixed vocabulary, in output column order.
	Classes []string

	index map[string]int
}

// NewFixedLabelBinarizer creates a binarizer over the given vocabulary.
func NewFixedLabelBinarizer(classes []string) (*FixedLabelBinarizer, error) {
	if len(classes) == 0 {
		return nil, errors.NewValidationError("classes", "vocabulary must not be empty", classes)
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, errors.NewValidationError("classes", "duplicate label in vocabulary", c)
		}
		index[c] = i
	}

	b := &FixedLabelBinarizer{Classes: classes, index: index}
	b.SetFitted()
	return b, nil
}

// Fit satisfies the transformer contract and returns immediately; the
// vocabulary was supplied at construction.
func (b *FixedLabelBinarizer) Fit(_ []string) error {
	b.SetFitted()
	return nil
}

// Transform encodes labels into an n×len(Classes) one-hot matrix. A label
// outside the vocabulary is an error rather than a silently dropped column.
func (b *FixedLabelBinarizer) Transform(labels []string) (mat.Matrix, error) {
	if !b.IsFitted() {
		return nil, errors.NewNotFittedError("FixedLabelBinarizer", "Transform")
	}
	if len(labels) == 0 {
		return nil, errors.NewModelError("FixedLabelBinarizer.Transform", "empty data", errors.ErrEmptyData)
	}
	if b.index == nil {
		b.rebuildIndex()
	}

	out := mat.NewDense(len(labels), len(b.Classes), nil)
	for i, label := range labels {
		j, ok := b.index[label]
		if !ok {
			return nil, errors.NewValueError("FixedLabelBinarizer.Transform",
				"label '"+label+"' is not in the fixed vocabulary")
		}
		out.Set(i, j, 1.0)
	}
	return out, nil
}

// FitTransform runs Fit then Transform.
func (b *FixedLabelBinarizer) FitTransform(labels []string) (mat.Matrix, error) {
	if err := b.Fit(labels); err != nil {
		return nil, err
	}
	return b.Transform(labels)
}

// NumClasses returns the fixed output width.
func (b *FixedLabelBinarizer) NumClasses() int {
	return len(b.Classes)
}

// rebuildIndex restores the lookup map after gob decoding, which only
// round-trips exported fields.
func (b *FixedLabelBinarizer) rebuildIndex() {
	b.index = make(map[string]int, len(b.Classes))
	for i, c := range b.Classes {
		b.index[c] = i
	}
}
