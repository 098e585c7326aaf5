package analysis

import (
	"errors"
	"fmt"

	"workbench/internal/frame"
	"workbench/internal/stats"
)

var (
	ErrNotFitted     = errors.New("covariate controller is not fitted")
	ErrShapeMismatch = errors.New("row count does not match the fitted covariates")
)

// CovariateModel summarizes the regression fitted for one feature.
type CovariateModel struct {
	Feature      string             `json:"feature"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	RSquared     *float64           `json:"r_squared"`
}

// CovariateController removes the linear effect of covariates from features.
//
// Fit regresses every feature on the covariates (feature = f(covariates),
// with intercept). Transform replaces each feature by the residuals of its
// model, evaluated on the covariates captured at Fit time. With Inline set,
// Transform modifies the frame it is given instead of a copy.
type CovariateController struct {
	Inline bool

	models     map[string]*stats.OLS
	covariates *frame.Frame
	matrix     [][]float64
}

// Fit fits one model per feature column. Covariate rows are matched to
// features by index label.
func (c *CovariateController) Fit(features, covariates *frame.Frame) error {
	aligned, err := features.Align(covariates)
	if err != nil {
		return err
	}
	if aligned.HasMissing() {
		return fmt.Errorf("covariates %q: %w", covariates.Name, stats.ErrMissingValues)
	}
	X, err := aligned.Matrix(aligned.Columns...)
	if err != nil {
		return err
	}

	models := make(map[string]*stats.OLS, features.Width())
	for _, feat := range features.Columns {
		y, _ := features.Column(feat)
		m, err := stats.FitOLS(X, y)
		if err != nil {
			return fmt.Errorf("fit %q: %w", feat, err)
		}
		models[feat] = m
	}

	c.models = models
	c.covariates = aligned
	c.matrix = X
	return nil
}

// Transform returns the features with the fitted covariate effect removed.
func (c *CovariateController) Transform(features *frame.Frame) (*frame.Frame, error) {
	if c.models == nil {
		return nil, ErrNotFitted
	}
	if features.Rows() != len(c.matrix) {
		return nil, fmt.Errorf("%w: %d rows, fitted on %d", ErrShapeMismatch, features.Rows(), len(c.matrix))
	}

	// Every prediction is computed before the first column changes, so an
	// inline Transform that fails leaves the frame untouched.
	preds := make(map[string][]float64, features.Width())
	for _, feat := range features.Columns {
		m, ok := c.models[feat]
		if !ok {
			return nil, fmt.Errorf("%w: no model fitted for %q", ErrUnknownField, feat)
		}
		pred, err := m.Predict(c.matrix)
		if err != nil {
			return nil, fmt.Errorf("predict %q: %w", feat, err)
		}
		preds[feat] = pred
	}

	out := features
	if !c.Inline {
		out = features.Clone()
	}
	for _, feat := range out.Columns {
		values, _ := out.Column(feat)
		for i, p := range preds[feat] {
			values[i] -= p
		}
		if err := out.SetColumn(feat, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FitTransform runs Fit followed by Transform on the same features.
func (c *CovariateController) FitTransform(features, covariates *frame.Frame) (*frame.Frame, error) {
	if err := c.Fit(features, covariates); err != nil {
		return nil, err
	}
	return c.Transform(features)
}

// Models returns the fitted model summaries in feature order.
func (c *CovariateController) Models(featureOrder []string) []CovariateModel {
	out := make([]CovariateModel, 0, len(c.models))
	for _, feat := range featureOrder {
		m, ok := c.models[feat]
		if !ok {
			continue
		}
		coef := make(map[string]float64, len(c.covariates.Columns))
		for i, v := range m.Coefficients() {
			coef[c.covariates.Columns[i]] = v
		}
		out = append(out, CovariateModel{
			Feature:      feat,
			Intercept:    m.Intercept(),
			Coefficients: coef,
			RSquared:     nullable(m.RSquared()),
		})
	}
	return out
}
