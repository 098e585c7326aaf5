// Package stats implements the correlation coefficients and linear models used
// by the workbench analyses.
package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrUnsupportedMethod = errors.New("unsupported correlation method")
	ErrLengthMismatch    = errors.New("samples have different lengths")
	ErrInsufficientData  = errors.New("at least 2 observations are required")
)

// Method names a correlation coefficient.
type Method string

const (
	Pearson  Method = "pearson"
	Spearman Method = "spearman"
	Kendall  Method = "kendall"
)

// Methods lists the supported methods in their canonical order.
var Methods = []Method{Pearson, Spearman, Kendall}

// ParseMethod resolves a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: pearson, spearman, kendall)", ErrUnsupportedMethod, s)
}

// Result holds a correlation coefficient and its two-sided p-value.
type Result struct {
	R float64
	P float64
}

// Correlate computes the coefficient m between x and y. Constant samples
// produce NaN for both values.
func Correlate(x, y []float64, m Method) (Result, error) {
	if len(x) != len(y) {
		return Result{}, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(x), len(y))
	}
	if len(x) < 2 {
		return Result{}, ErrInsufficientData
	}

	switch m {
	case Pearson:
		return pearson(x, y), nil
	case Spearman:
		return pearson(Rank(x), Rank(y)), nil
	case Kendall:
		return kendall(x, y), nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, m)
	}
}

func pearson(x, y []float64) Result {
	if isConstant(x) || isConstant(y) {
		return Result{R: math.NaN(), P: math.NaN()}
	}
	r := stat.Correlation(x, y, nil)
	// Guard against rounding drifting outside [-1, 1].
	r = math.Max(-1, math.Min(1, r))
	return Result{R: r, P: tTestP(r, len(x))}
}

// tTestP is the two-sided p-value of r under H0: rho = 0, using Student's t
// with n-2 degrees of freedom.
func tTestP(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 {
		return 1
	}
	if math.Abs(r) == 1 {
		return 0
	}
	t := r * math.Sqrt(df/((1-r)*(1+r)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Min(1, p)
}

func isConstant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

// PairwiseComplete drops the observations where either sample is NaN.
func PairwiseComplete(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
