package market

// PricePoint is one simulated close for a symbol on a game day.
type PricePoint struct {
	Day   int     `json:"day"`
	Price float64 `json:"price"`
}
