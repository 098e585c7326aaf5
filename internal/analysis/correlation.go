// Package analysis implements the workbench routines: correlation assessment,
// covariate control and missing-value exploration.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"workbench/internal/frame"
	"workbench/internal/stats"
)

var ErrUnknownField = errors.New("unknown field")

// DefaultDigits is the rounding applied to correlation results.
const DefaultDigits = 4

// CorrelationOptions tunes AssessCorrelation.
type CorrelationOptions struct {
	Digits int
}

// Coefficient is one method's result for a feature. NaN marks an undefined value.
type Coefficient struct {
	Method stats.Method `json:"method"`
	R      float64      `json:"r"`
	P      float64      `json:"p"`
}

func (c Coefficient) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Method stats.Method `json:"method"`
		R      *float64     `json:"r"`
		P      *float64     `json:"p"`
	}{c.Method, nullable(c.R), nullable(c.P)})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// CorrelationRow holds every requested coefficient for one feature.
type CorrelationRow struct {
	Feature      string        `json:"feature"`
	N            int           `json:"n"`
	Coefficients []Coefficient `json:"coefficients"`
}

// CorrelationTable holds the results for one scale.
type CorrelationTable struct {
	Scale   string           `json:"scale"`
	Field   string           `json:"field_name"`
	Methods []stats.Method   `json:"methods"`
	Rows    []CorrelationRow `json:"rows"`
}

// Header returns the tabular column names: feature, n, then r/p per method.
func (t CorrelationTable) Header() []string {
	h := []string{"feature", "n"}
	for _, m := range t.Methods {
		h = append(h, fmt.Sprintf("r (%s)", m), fmt.Sprintf("p (%s)", m))
	}
	return h
}

// AssessCorrelation correlates every feature column with the field named by
// each setting, using only observations present in both. Clinical rows are
// matched to features by index label.
func AssessCorrelation(features, clinical *frame.Frame, settings []Setting, opts CorrelationOptions) ([]CorrelationTable, error) {
	settings, err := NormalizeSettings(settings)
	if err != nil {
		return nil, err
	}
	if opts.Digits <= 0 {
		opts.Digits = DefaultDigits
	}

	aligned, err := features.Align(clinical)
	if err != nil {
		return nil, err
	}

	tables := make([]CorrelationTable, 0, len(settings))
	for _, setting := range settings {
		scale, err := aligned.Column(setting.FieldName)
		if err != nil {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownField, setting.FieldName, clinical.Name)
		}
		methods := setting.methods()

		table := CorrelationTable{
			Scale:   setting.Scale,
			Field:   setting.FieldName,
			Methods: methods,
			Rows:    make([]CorrelationRow, 0, features.Width()),
		}
		for _, feat := range features.Columns {
			values, _ := features.Column(feat)
			xs, ys := stats.PairwiseComplete(values, scale)

			row := CorrelationRow{Feature: feat, N: len(xs)}
			for _, m := range methods {
				res, err := stats.Correlate(xs, ys, m)
				if errors.Is(err, stats.ErrInsufficientData) {
					res = stats.Result{R: math.NaN(), P: math.NaN()}
				} else if err != nil {
					return nil, fmt.Errorf("feature %q, scale %q: %w", feat, setting.Scale, err)
				}
				row.Coefficients = append(row.Coefficients, Coefficient{
					Method: m,
					R:      stats.Round(res.R, opts.Digits),
					P:      stats.Round(res.P, opts.Digits),
				})
			}
			table.Rows = append(table.Rows, row)
		}
		tables = append(tables, table)
	}
	return tables, nil
}
