// Package pricing implements the price estimation page: it validates the
// seven diamond attributes, builds the one-row record the regression model
// expects and rounds the model's answer for display.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/ziadkadry99/diamond-desk/internal/model"
)

// ErrNoModel is returned when no price model is loaded.
var ErrNoModel = errors.New("price model not loaded")

// Request holds the form inputs. Empty strings and a nil CaratWeight mean
// the attribute was not provided.
type Request struct {
	CaratWeight *float64 `json:"carat_weight,omitempty"`
	Cut         string   `json:"cut,omitempty"`
	Color       string   `json:"color,omitempty"`
	Clarity     string   `json:"clarity,omitempty"`
	Polish      string   `json:"polish,omitempty"`
	Symmetry    string   `json:"symmetry,omitempty"`
	Report      string   `json:"report,omitempty"`
}

// Warning tells the user which attribute blocks the estimate.
type Warning struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// missingMessages are shown when an attribute was left empty.
var missingMessages = map[Field]string{
	FieldCaratWeight: "Please enter the Weight in carats before calculating the price.",
	FieldCut:         "Please select the Cut before calculating the price.",
	FieldColor:       "Please select the Color of the diamond before calculating the price.",
	FieldClarity:     "Please select the Clarity grade of the diamond before calculating the price.",
	FieldPolish:      "Please select the Polish of the diamond before calculating the price.",
	FieldSymmetry:    "Please select the Symmetry of the diamond before calculating the price.",
	FieldReport:      "Please select the organisation that graded the diamond.",
}

// Validate returns one warning per missing or invalid attribute, in form
// order. An empty result means the request can be sent to the model.
func (r Request) Validate() []Warning {
	var warnings []Warning

	if r.CaratWeight == nil {
		warnings = append(warnings, missing(FieldCaratWeight))
	} else if w := *r.CaratWeight; math.IsNaN(w) || w < MinCaratWeight || w > MaxCaratWeight {
		warnings = append(warnings, Warning{
			Field:   FieldCaratWeight,
			Message: fmt.Sprintf("Weight must be between %.2f and %.2f carats.", MinCaratWeight, MaxCaratWeight),
		})
	}

	choices := []struct {
		field Field
		value string
		opts  []Option
	}{
		{FieldCut, r.Cut, CutOptions},
		{FieldColor, r.Color, ColorOptions},
		{FieldClarity, r.Clarity, ClarityOptions},
		{FieldPolish, r.Polish, PolishOptions},
		{FieldSymmetry, r.Symmetry, SymmetryOptions},
		{FieldReport, r.Report, ReportOptions},
	}
	for _, c := range choices {
		switch {
		case c.value == "":
			warnings = append(warnings, missing(c.field))
		case !validOption(c.opts, c.value):
			warnings = append(warnings, Warning{
				Field:   c.field,
				Message: fmt.Sprintf("%q is not a valid %s.", c.value, strings.ToLower(Spec(c.field).Label)),
			})
		}
	}

	return warnings
}

func missing(f Field) Warning {
	return Warning{Field: f, Message: missingMessages[f]}
}

// Record converts a validated request into the model's input row.
func (r Request) Record() model.Record {
	var weight float64
	if r.CaratWeight != nil {
		weight = *r.CaratWeight
	}
	return model.Record{
		CaratWeight: weight,
		Cut:         r.Cut,
		Color:       r.Color,
		Clarity:     r.Clarity,
		Polish:      r.Polish,
		Symmetry:    r.Symmetry,
		Report:      r.Report,
	}
}

// Estimate is the outcome of one form submission. Either Warnings is
// non-empty or Price holds the rounded prediction.
type Estimate struct {
	Price    float64   `json:"price"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// OK reports whether a price was computed.
func (e *Estimate) OK() bool {
	return len(e.Warnings) == 0
}

// Estimator turns form submissions into price estimates.
type Estimator struct {
	predictor model.Predictor
}

// NewEstimator creates an estimator backed by the given predictor, which
// may be nil when no model could be loaded.
func NewEstimator(predictor model.Predictor) *Estimator {
	return &Estimator{predictor: predictor}
}

// ModelName returns the name of the backing model, or "" if none is loaded.
func (e *Estimator) ModelName() string {
	if e.predictor == nil {
		return ""
	}
	return e.predictor.Name()
}

// Estimate validates req and, only if every attribute is present and valid,
// runs the model once over the single-row record. Model failures are
// returned unchanged apart from wrapping; there is no retry.
func (e *Estimator) Estimate(ctx context.Context, req Request) (*Estimate, error) {
	if warnings := req.Validate(); len(warnings) > 0 {
		return &Estimate{Warnings: warnings}, nil
	}
	if e.predictor == nil {
		return nil, ErrNoModel
	}

	rows, err := e.predictor.Predict(ctx, []model.Record{req.Record()})
	if err != nil {
		return nil, fmt.Errorf("predicting price: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("predicting price: model returned no rows")
	}

	return &Estimate{Price: Round2(rows[0].PredictionLabel)}, nil
}

// Round2 rounds to 2 decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseForm builds a Request from submitted form values. Blank values stay
// unset so Validate can report them; an unparsable weight is also treated
// as missing.
func ParseForm(form url.Values) Request {
	req := Request{
		Cut:      strings.TrimSpace(form.Get(string(FieldCut))),
		Color:    strings.TrimSpace(form.Get(string(FieldColor))),
		Clarity:  strings.TrimSpace(form.Get(string(FieldClarity))),
		Polish:   strings.TrimSpace(form.Get(string(FieldPolish))),
		Symmetry: strings.TrimSpace(form.Get(string(FieldSymmetry))),
		Report:   strings.TrimSpace(form.Get(string(FieldReport))),
	}
	if s := strings.TrimSpace(form.Get(string(FieldCaratWeight))); s != "" {
		if w, err := strconv.ParseFloat(s, 64); err == nil {
			req.CaratWeight = &w
		}
	}
	return req
}
