package sim

import (
	"errors"
	"math"

	"github.com/rustyeddy/stocksim/market"
)

const (
	// MinCloses is the smallest sanitized series Estimate will fit.
	MinCloses = 20
	// MinReturns is the smallest number of log returns Estimate will fit.
	MinReturns = 10

	alpha = 0.05
	gamma = 0.05
	beta  = 0.90

	maxStationary = 0.99
	omegaFloor    = 1e-6
	varianceFloor = 1e-8
)

// ErrInsufficientData is returned when a close series is too short to fit.
// Callers are expected to fall back to a random walk.
var ErrInsufficientData = errors.New("sim: insufficient price data")

// Model is a GJR-GARCH(1,1) fit of one close series. It is derived on every
// call and never retained between days.
type Model struct {
	MeanLogReturn   float64 `json:"mu"`
	Alpha           float64 `json:"alpha"`
	Beta            float64 `json:"beta"`
	Gamma           float64 `json:"gamma"`
	Omega           float64 `json:"omega"`
	CurrentVariance float64 `json:"h"`
	LastResidual    float64 `json:"eps"`
	Observations    int     `json:"closesLen"`
}

// StationaryFactor is alpha + beta + gamma/2, capped below one.
func (m Model) StationaryFactor() float64 {
	return math.Min(m.Alpha+m.Beta+0.5*m.Gamma, maxStationary)
}

// LogReturns computes ln(p[i]/p[i-1]) over consecutive valid pairs.
func LogReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 || math.IsNaN(prev) || math.IsNaN(cur) || math.IsInf(prev, 0) || math.IsInf(cur, 0) {
			continue
		}
		r := math.Log(cur / prev)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Estimate fits the model to a close series. Invalid closes are dropped
// first; the structural coefficients are fixed and only the mean, the
// unconditional variance and the last shock come from the data.
func Estimate(closes []float64) (Model, error) {
	clean := market.SanitizeFloats(closes)
	if len(clean) < MinCloses {
		return Model{}, ErrInsufficientData
	}

	returns := LogReturns(clean)
	n := len(returns)
	if n < MinReturns {
		return Model{}, ErrInsufficientData
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mu := sum / float64(n)

	var acc float64
	for _, r := range returns {
		d := r - mu
		acc += d * d
	}
	variance := acc / math.Max(1, float64(n-1))

	m := Model{
		MeanLogReturn: mu,
		Alpha:         alpha,
		Beta:          beta,
		Gamma:         gamma,
		LastResidual:  returns[n-1] - mu,
		Observations:  len(clean),
	}

	omega := variance * (1 - m.StationaryFactor())
	if math.IsNaN(omega) || math.IsInf(omega, 0) || omega <= 0 {
		omega = omegaFloor
	}
	m.Omega = omega

	if math.IsNaN(variance) || math.IsInf(variance, 0) {
		variance = 0
	}
	m.CurrentVariance = math.Max(variance, varianceFloor)

	return m, nil
}

// NextVariance is the one-step conditional variance forecast. Negative
// shocks carry the extra gamma term.
func (m Model) NextVariance() float64 {
	eps2 := m.LastResidual * m.LastResidual
	var leverage float64
	if m.LastResidual < 0 {
		leverage = 1
	}
	h := m.Omega + m.Alpha*eps2 + m.Gamma*leverage*eps2 + m.Beta*m.CurrentVariance
	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		h = varianceFloor
	}
	return h
}
