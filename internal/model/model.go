// Package model consumes the pre-trained diamond price regression model.
// The model itself is opaque: it is either an exported artifact evaluated
// in-process or a remote inference server.
package model

import (
	"context"
	"errors"
)

// Column names of the training frame. Records must carry exactly these.
const (
	ColumnCaratWeight = "Carat Weight"
	ColumnCut         = "Cut"
	ColumnColor       = "Color"
	ColumnClarity     = "Clarity"
	ColumnPolish      = "Polish"
	ColumnSymmetry    = "Symmetry"
	ColumnReport      = "Report"
)

// Columns lists the feature columns in training-frame order.
var Columns = []string{
	ColumnCaratWeight,
	ColumnCut,
	ColumnColor,
	ColumnClarity,
	ColumnPolish,
	ColumnSymmetry,
	ColumnReport,
}

// ErrUnknownLevel is returned when a categorical value was never seen in training.
var ErrUnknownLevel = errors.New("unknown categorical level")

// Record is one row of the tabular input the model was trained on.
type Record struct {
	CaratWeight float64 `json:"Carat Weight"`
	Cut         string  `json:"Cut"`
	Color       string  `json:"Color"`
	Clarity     string  `json:"Clarity"`
	Polish      string  `json:"Polish"`
	Symmetry    string  `json:"Symmetry"`
	Report      string  `json:"Report"`
}

// Categorical returns the categorical columns of the record keyed by column name.
func (r Record) Categorical() map[string]string {
	return map[string]string{
		ColumnCut:      r.Cut,
		ColumnColor:    r.Color,
		ColumnClarity:  r.Clarity,
		ColumnPolish:   r.Polish,
		ColumnSymmetry: r.Symmetry,
		ColumnReport:   r.Report,
	}
}

// Row is one row of model output.
type Row struct {
	Record
	PredictionLabel float64 `json:"prediction_label"`
}

// Predictor runs the model over a frame of records and returns one output
// row per input record, in order.
type Predictor interface {
	Predict(ctx context.Context, records []Record) ([]Row, error)
	Name() string
}
