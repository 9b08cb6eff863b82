package portfolio

import (
	"math"
	"sort"
)

// TotalValue is cash plus every holding marked at its current price.
// Holdings without a usable price contribute nothing.
func TotalValue(cash float64, positions Positions, prices map[string]float64) float64 {
	total := cash
	for sym, qty := range positions {
		p, ok := prices[sym]
		if !ok || p == 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		total += float64(qty) * p
	}
	return total
}

// DistinctHoldings counts symbols with a positive share count.
func DistinctHoldings(positions Positions) int {
	n := 0
	for _, qty := range positions {
		if qty > 0 {
			n++
		}
	}
	return n
}

// TotalShares sums every position.
func TotalShares(positions Positions) int {
	n := 0
	for _, qty := range positions {
		n += qty
	}
	return n
}

// SymbolStats is the replayed state of one symbol.
type SymbolStats struct {
	Position   int     `json:"position"`
	CostBasis  float64 `json:"costBasis"`
	AvgCost    float64 `json:"avgBuyPrice"`
	HasAvg     bool    `json:"hasAvg"`
	RealizedPL float64 `json:"realizedPnl"`
}

// UnrealizedPL marks the open position at price.
func (s SymbolStats) UnrealizedPL(price float64) float64 {
	if !s.HasAvg {
		return 0
	}
	return float64(s.Position) * (price - s.AvgCost)
}

// BuildSymbolStats replays a trade ledger in ascending ID order.
//
// A BUY adds quantity and qty*price of cost basis. A SELL realises
// closed*(price-avg) against the average cost at that moment and removes
// the proportional cost basis. A SELL with no prior position is skipped.
// The fold is pure, so replaying the same ledger always yields the same
// result.
func BuildSymbolStats(trades []Trade) map[string]SymbolStats {
	sorted := make([]Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	stats := make(map[string]SymbolStats)
	for _, t := range sorted {
		e := stats[t.Symbol]

		switch t.Side {
		case Buy:
			e.Position += t.Quantity
			e.CostBasis += float64(t.Quantity) * t.Price
		case Sell:
			if e.Position <= 0 {
				continue
			}
			avg := e.CostBasis / float64(e.Position)
			closed := t.Quantity
			if closed > e.Position {
				closed = e.Position
			}
			e.RealizedPL += float64(closed) * (t.Price - avg)
			e.CostBasis -= avg * float64(closed)
			e.Position -= closed
		}

		stats[t.Symbol] = e
	}

	for sym, e := range stats {
		if e.Position > 0 {
			e.AvgCost = e.CostBasis / float64(e.Position)
			e.HasAvg = true
		} else {
			e.AvgCost = 0
			e.HasAvg = false
		}
		stats[sym] = e
	}
	return stats
}
