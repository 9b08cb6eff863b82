package game

import (
	"errors"

	"github.com/rustyeddy/stocksim/sim"
)

// Quote is the input to one symbol's next-price computation.
type Quote struct {
	Symbol  string
	Closes  []float64
	Current float64
}

// Pricer produces the next simulated price for one symbol. Implementations
// must be safe for concurrent use; each call gets its own Source.
type Pricer interface {
	Next(q Quote, mode sim.Mode, src sim.Source) (float64, error)
}

// PricerFunc adapts a function to Pricer.
type PricerFunc func(q Quote, mode sim.Mode, src sim.Source) (float64, error)

func (f PricerFunc) Next(q Quote, mode sim.Mode, src sim.Source) (float64, error) {
	return f(q, mode, src)
}

// GJRPricer fits a GJR-GARCH model to the symbol's closes. Symbols with too
// little history get a small random walk instead.
type GJRPricer struct{}

func (GJRPricer) Next(q Quote, mode sim.Mode, src sim.Source) (float64, error) {
	res, err := sim.NextFromCloses(q.Closes, q.Current, mode, src)
	if errors.Is(err, sim.ErrInsufficientData) {
		return sim.RandomWalk(q.Current, src), nil
	}
	if err != nil {
		return 0, err
	}
	return res.NextPrice, nil
}
