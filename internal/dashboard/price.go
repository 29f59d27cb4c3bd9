package dashboard

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

type priceField struct {
	pricing.FieldSpec
	Value string
}

type pricePage struct {
	ModelName string
	Fields    []priceField
	MinCarat  float64
	MaxCarat  float64
	CaratStep float64
	Estimate  *pricing.Estimate
	Error     string
}

func newPricePage(modelName string, req pricing.Request) pricePage {
	values := map[pricing.Field]string{
		pricing.FieldCut:      req.Cut,
		pricing.FieldColor:    req.Color,
		pricing.FieldClarity:  req.Clarity,
		pricing.FieldPolish:   req.Polish,
		pricing.FieldSymmetry: req.Symmetry,
		pricing.FieldReport:   req.Report,
	}
	if req.CaratWeight != nil {
		values[pricing.FieldCaratWeight] = formatWeight(*req.CaratWeight)
	}

	fields := make([]priceField, 0, len(pricing.FieldSpecs))
	for _, spec := range pricing.FieldSpecs {
		fields = append(fields, priceField{FieldSpec: spec, Value: values[spec.Field]})
	}

	return pricePage{
		ModelName: modelName,
		Fields:    fields,
		MinCarat:  pricing.MinCaratWeight,
		MaxCarat:  pricing.MaxCaratWeight,
		CaratStep: pricing.CaratWeightStep,
	}
}

func (d *Dashboard) handlePricePage(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "price.html", newPricePage(d.estimator.ModelName(), pricing.Request{}))
}

func (d *Dashboard) handlePriceSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	req := pricing.ParseForm(r.PostForm)
	page := newPricePage(d.estimator.ModelName(), req)

	est, err := d.estimate(r, req)
	if err != nil {
		page.Error = err.Error()
		render(w, statusFor(err), "price.html", page)
		return
	}

	page.Estimate = est
	render(w, http.StatusOK, "price.html", page)
}

func (d *Dashboard) handlePriceAPI(w http.ResponseWriter, r *http.Request) {
	var req pricing.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	est, err := d.estimate(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if !est.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, est)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (d *Dashboard) handlePriceOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pricing.FieldSpecs)
}

// estimate runs the estimator and records the outcome in the ledger.
func (d *Dashboard) estimate(r *http.Request, req pricing.Request) (*pricing.Estimate, error) {
	ctx := r.Context()

	est, err := d.estimator.Estimate(ctx, req)
	switch {
	case err != nil:
		d.recorder.PredictionFailed(ctx, err)
	case !est.OK():
		d.recorder.PredictionRejected(ctx, est.Warnings)
	default:
		d.recorder.PredictionMade(ctx, est.Price)
	}
	return est, err
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
