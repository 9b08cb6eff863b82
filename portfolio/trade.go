package portfolio

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Positions maps a symbol to the number of shares held.
type Positions map[string]int

// Clone returns an independent copy.
func (p Positions) Clone() Positions {
	out := make(Positions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Trade is one executed order. Trades are appended to a ledger and never
// modified afterwards.
type Trade struct {
	ID             int       `json:"id"`
	Symbol         string    `json:"symbol"`
	Side           Side      `json:"side"`
	Quantity       int       `json:"qty"`
	Price          float64   `json:"price"`
	Value          float64   `json:"value"`
	CashAfter      float64   `json:"cashAfter"`
	PositionsAfter Positions `json:"positionsAfter"`
	Day            int       `json:"day"`
	PanicSell      bool      `json:"panicSell,omitempty"`
}
