package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/wildfire/pkg/errors"
)

// SaveModel writes a model to path using gob encoding. The model must be a
// struct (or pointer to one) whose exported fields fully describe the fitted
// state; loading the file back yields a model that predicts identically.
func SaveModel(model interface{}, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create model file %s", path)
	}
	defer file.Close()

	return SaveModelToWriter(model, file)
}

// LoadModel reads a model previously written by SaveModel into the pointer
// passed as model.
func LoadModel(model interface{}, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open model file %s", path)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter gob-encodes a model to w.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader gob-decodes a model from r.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
