package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// artifactExtensions are tried in order when an artifact is loaded by name.
var artifactExtensions = []string{".yaml", ".yml", ".json"}

// LinearModel is an exported regression pipeline: an intercept, one
// coefficient per numeric column and one weight per categorical level
// (one-hot encoded during training, so unseen levels are rejected).
type LinearModel struct {
	ModelName   string                        `yaml:"name" json:"name"`
	Target      string                        `yaml:"target" json:"target"`
	Intercept   float64                       `yaml:"intercept" json:"intercept"`
	Numeric     map[string]float64            `yaml:"numeric" json:"numeric"`
	Categorical map[string]map[string]float64 `yaml:"categorical" json:"categorical"`
	// LogTarget means the model was fit on log(target).
	LogTarget bool `yaml:"log_target" json:"log_target"`
}

// LoadArtifact loads a model by name or path. If path has no recognised
// extension, path+".yaml", path+".yml" and path+".json" are tried in order.
func LoadArtifact(path string) (*LinearModel, error) {
	resolved, err := resolveArtifact(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}

	var m LinearModel
	if strings.EqualFold(filepath.Ext(resolved), ".json") {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing model artifact %s: %w", resolved, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", resolved, err)
	}
	if m.ModelName == "" {
		m.ModelName = strings.TrimSuffix(filepath.Base(resolved), filepath.Ext(resolved))
	}
	return &m, nil
}

func resolveArtifact(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range artifactExtensions {
		if ext == known {
			return path, nil
		}
	}
	for _, candidate := range artifactExtensions {
		if _, err := os.Stat(path + candidate); err == nil {
			return path + candidate, nil
		}
	}
	return "", fmt.Errorf("model artifact %s not found (tried %s)", path, strings.Join(artifactExtensions, ", "))
}

func (m *LinearModel) validate() error {
	if _, ok := m.Numeric[ColumnCaratWeight]; !ok {
		return fmt.Errorf("missing numeric coefficient for %q", ColumnCaratWeight)
	}
	for _, col := range Columns[1:] {
		if len(m.Categorical[col]) == 0 {
			return fmt.Errorf("missing categorical weights for %q", col)
		}
	}
	return nil
}

func (m *LinearModel) Name() string {
	return m.ModelName
}

// Predict scores each record. The context is unused because scoring is
// purely in-process.
func (m *LinearModel) Predict(_ context.Context, records []Record) ([]Row, error) {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		label, err := m.score(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, Row{Record: rec, PredictionLabel: label})
	}
	return rows, nil
}

func (m *LinearModel) score(rec Record) (float64, error) {
	y := m.Intercept + m.Numeric[ColumnCaratWeight]*rec.CaratWeight

	var errs []error
	cats := rec.Categorical()
	for _, col := range Columns[1:] {
		w, ok := m.Categorical[col][cats[col]]
		if !ok {
			errs = append(errs, fmt.Errorf("%w %q for column %q", ErrUnknownLevel, cats[col], col))
			continue
		}
		y += w
	}
	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}

	if m.LogTarget {
		y = math.Exp(y)
	}
	return y, nil
}
