package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// exactKendallMax is the largest sample size for which the exact null
// distribution is used when neither sample has ties.
const exactKendallMax = 33

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// kendall computes tau-b and its two-sided p-value.
func kendall(x, y []float64) Result {
	n := len(x)
	var con, dis int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := sign(x[i]-x[j]) * sign(y[i]-y[j])
			switch {
			case s > 0:
				con++
			case s < 0:
				dis++
			}
		}
	}

	xt := tieGroups(x)
	yt := tieGroups(y)
	xTie, x0, x1 := tieSums(xt)
	yTie, y0, y1 := tieSums(yt)

	total := float64(n*(n-1)) / 2
	denom := math.Sqrt((total - xTie) * (total - yTie))
	if denom == 0 {
		return Result{R: math.NaN(), P: math.NaN()}
	}
	s := float64(con - dis)
	tau := math.Max(-1, math.Min(1, s/denom))

	if len(xt) == 0 && len(yt) == 0 && (n <= exactKendallMax || min(dis, int(total)-dis) <= 1) {
		return Result{R: tau, P: kendallExactP(n, min(dis, int(total)-dis))}
	}

	m := float64(n * (n - 1))
	variance := (m*float64(2*n+5)-x1-y1)/18 + 2*xTie*yTie/m
	if n > 2 {
		variance += x0 * y0 / (9 * m * float64(n-2))
	}
	z := s / math.Sqrt(variance)
	p := 2 * distuv.UnitNormal.Survival(math.Abs(z))
	return Result{R: tau, P: math.Min(1, p)}
}

// tieSums returns sum t(t-1)/2, sum t(t-1)(t-2) and sum t(t-1)(2t+5) over tie groups.
func tieSums(groups []int) (pairs, cubic, variance float64) {
	for _, g := range groups {
		t := float64(g)
		pairs += t * (t - 1) / 2
		cubic += t * (t - 1) * (t - 2)
		variance += t * (t - 1) * (2*t + 5)
	}
	return pairs, cubic, variance
}

// kendallExactP returns 2*P(D <= c) where D is the number of discordant pairs
// of a uniformly random permutation of n elements, capped at 1.
func kendallExactP(n, c int) float64 {
	if n <= 2 {
		return 1
	}
	// counts[k] = number of permutations of size j with k inversions, k <= c.
	counts := make([]float64, c+1)
	counts[0] = 1
	for j := 2; j <= n; j++ {
		next := make([]float64, c+1)
		var window float64
		for k := 0; k <= c; k++ {
			window += counts[k]
			if k-j >= 0 {
				window -= counts[k-j]
			}
			next[k] = window
		}
		counts = next
	}

	var cum float64
	for _, v := range counts {
		cum += v
	}
	// n! via lgamma to stay finite for n up to exactKendallMax and beyond.
	lf, _ := math.Lgamma(float64(n + 1))
	p := 2 * math.Exp(math.Log(cum)-lf)
	return math.Min(1, p)
}
