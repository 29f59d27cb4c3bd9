package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPPredictor sends records to a model-serving endpoint. The request body
// is {"dataframe_records": [...]} and the response is a JSON array of rows,
// each carrying a prediction_label.
type HTTPPredictor struct {
	endpoint string
	client   *http.Client
}

// NewHTTPPredictor creates a predictor for the given endpoint. A zero
// timeout leaves the client without a deadline.
func NewHTTPPredictor(endpoint string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *HTTPPredictor) Name() string {
	return p.endpoint
}

type predictRequest struct {
	Records []Record `json:"dataframe_records"`
}

func (p *HTTPPredictor) Predict(ctx context.Context, records []Record) ([]Row, error) {
	body, err := json.Marshal(predictRequest{Records: records})
	if err != nil {
		return nil, fmt.Errorf("marshalling records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling inference endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading inference response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var rows []Row
	if err := json.Unmarshal(respBody, &rows); err != nil {
		return nil, fmt.Errorf("parsing inference response: %w", err)
	}
	if len(rows) != len(records) {
		return nil, fmt.Errorf("inference endpoint returned %d rows for %d records", len(rows), len(records))
	}
	return rows, nil
}
