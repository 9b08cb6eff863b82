package sim

import (
	"errors"
	"math"
	"strings"
)

// Mode is the directional drift bias applied on top of the fitted model.
type Mode string

const (
	Neutral  Mode = "neutral"
	Positive Mode = "positive"
	Negative Mode = "negative"
)

const driftScale = 0.3

// ErrInvalidPrice is returned when the current price is not a positive finite number.
var ErrInvalidPrice = errors.New("sim: invalid current price")

// ParseMode normalises a user supplied mode. Unknown values are neutral.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pos", "positive", "bull", "byczy":
		return Positive
	case "neg", "negative", "bear", "niedzwiedzi":
		return Negative
	}
	return Neutral
}

// DriftBias returns the additive return skew for a given volatility.
func (m Mode) DriftBias(vol float64) float64 {
	switch m {
	case Positive:
		return driftScale * vol
	case Negative:
		return -driftScale * vol
	}
	return 0
}

// Diagnostics exposes the intermediate values of one simulated step.
type Diagnostics struct {
	Mode             Mode    `json:"mode"`
	MeanLogReturn    float64 `json:"mu"`
	DriftBias        float64 `json:"driftBias"`
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	Gamma            float64 `json:"gamma"`
	Omega            float64 `json:"omega"`
	PrevVariance     float64 `json:"hPrev"`
	NextVariance     float64 `json:"hNext"`
	PrevResidual     float64 `json:"epsPrev"`
	Z                float64 `json:"z"`
	Return           float64 `json:"ret"`
	StationaryFactor float64 `json:"stationaryFactor"`
	Observations     int     `json:"closesLen"`
	HeldPrice        bool    `json:"heldPrice,omitempty"`
}

// Result is one simulated forward price.
type Result struct {
	NextPrice   float64     `json:"nextPrice"`
	Diagnostics Diagnostics `json:"debug"`
}

// SimulateNext draws one return from the model and applies it to current.
// The returned price is always positive and finite: a degenerate draw
// holds the current price.
func SimulateNext(m Model, current float64, mode Mode, src Source) Result {
	hNext := m.NextVariance()
	vol := math.Sqrt(hNext)
	drift := mode.DriftBias(vol)

	z := Gaussian(src)
	ret := m.MeanLogReturn + drift + vol*z
	next := current * math.Exp(ret)

	d := Diagnostics{
		Mode:             mode,
		MeanLogReturn:    m.MeanLogReturn,
		DriftBias:        drift,
		Alpha:            m.Alpha,
		Beta:             m.Beta,
		Gamma:            m.Gamma,
		Omega:            m.Omega,
		PrevVariance:     m.CurrentVariance,
		NextVariance:     hNext,
		PrevResidual:     m.LastResidual,
		Z:                z,
		Return:           ret,
		StationaryFactor: m.StationaryFactor(),
		Observations:     m.Observations,
	}

	if math.IsNaN(next) || math.IsInf(next, 0) || next <= 0 {
		next = current
		d.HeldPrice = true
	}
	return Result{NextPrice: next, Diagnostics: d}
}

// NextFromCloses fits closes and simulates one step from current.
func NextFromCloses(closes []float64, current float64, mode Mode, src Source) (Result, error) {
	if math.IsNaN(current) || math.IsInf(current, 0) || current <= 0 {
		return Result{}, ErrInvalidPrice
	}
	m, err := Estimate(closes)
	if err != nil {
		return Result{}, err
	}
	return SimulateNext(m, current, mode, src), nil
}

// RandomWalk moves current by a uniform step of at most ±1%. It is the
// fallback when no model can be fitted.
func RandomWalk(current float64, src Source) float64 {
	drift := (src.Float64() - 0.5) * 0.02
	next := current * (1 + drift)
	if math.IsNaN(next) || math.IsInf(next, 0) || next <= 0 {
		return current
	}
	return next
}
