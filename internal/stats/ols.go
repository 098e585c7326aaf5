package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrSingular      = errors.New("design matrix is rank deficient")
	ErrMissingValues = errors.New("input contains missing values")
	ErrNoRegressors  = errors.New("at least one regressor is required")
)

// OLS is an ordinary least squares model with intercept.
type OLS struct {
	intercept float64
	coef      []float64
	rSquared  float64
}

// FitOLS fits y = b0 + X*b. X is row-major: one row per observation.
func FitOLS(X [][]float64, y []float64) (*OLS, error) {
	n := len(y)
	if len(X) != n {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrLengthMismatch, len(X), n)
	}
	if n == 0 {
		return nil, ErrInsufficientData
	}
	k := len(X[0])
	if k == 0 {
		return nil, ErrNoRegressors
	}
	if n < k+1 {
		return nil, fmt.Errorf("%w: %d observations for %d parameters", ErrSingular, n, k+1)
	}

	design := mat.NewDense(n, k+1, nil)
	for i, row := range X {
		if len(row) != k {
			return nil, fmt.Errorf("%w: row %d has %d regressors, want %d", ErrLengthMismatch, i, len(row), k)
		}
		design.Set(i, 0, 1)
		for j, v := range row {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("%w: regressor row %d", ErrMissingValues, i)
			}
			design.Set(i, j+1, v)
		}
	}
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: target row %d", ErrMissingValues, i)
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	if cond := qr.Cond(); math.IsInf(cond, 1) || cond > 1e12 {
		return nil, ErrSingular
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	m := &OLS{
		intercept: beta.AtVec(0),
		coef:      make([]float64, k),
	}
	for j := 0; j < k; j++ {
		m.coef[j] = beta.AtVec(j + 1)
	}

	fitted := make([]float64, n)
	for i, row := range X {
		fitted[i] = m.predictRow(row)
	}
	m.rSquared = stat.RSquaredFrom(fitted, y, nil)
	return m, nil
}

func (m *OLS) predictRow(row []float64) float64 {
	v := m.intercept
	for j, x := range row {
		v += m.coef[j] * x
	}
	return v
}

// Predict returns the fitted value for every row of X.
func (m *OLS) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.coef) {
			return nil, fmt.Errorf("%w: row %d has %d regressors, want %d", ErrLengthMismatch, i, len(row), len(m.coef))
		}
		out[i] = m.predictRow(row)
	}
	return out, nil
}

func (m *OLS) Intercept() float64 { return m.intercept }

// Coefficients returns a copy of the slope coefficients in regressor order.
func (m *OLS) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}

func (m *OLS) RSquared() float64 { return m.rSquared }
