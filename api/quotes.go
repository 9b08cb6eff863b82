package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/quotes"
	"github.com/rustyeddy/stocksim/sim"
)

type quoteHistoryRequest struct {
	Symbol string `query:"symbol" validate:"required"`
}

type quoteHistoryResponse struct {
	Symbol string       `json:"symbol"`
	Rows   []quotes.Row `json:"rows"`
}

type nextPriceRequest struct {
	Symbol       string  `json:"symbol" validate:"required"`
	CurrentPrice float64 `json:"currentPrice" validate:"gt=0"`
	Mode         string  `json:"mode" default:"neutral"`
	Closes       []any   `json:"closes,omitempty"` // numbers, numeric strings or {"close": x} objects
}

type nextPriceResponse struct {
	Symbol    string           `json:"symbol"`
	NextPrice float64          `json:"nextPrice"`
	Fallback  bool             `json:"fallback,omitempty"`
	Debug     *sim.Diagnostics `json:"debug,omitempty"`
}

func (h *Handler) quoteHistory(c echo.Context) error {
	var req quoteHistoryRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}
	sym := market.NormalizeSymbol(req.Symbol)

	rows, hit, err := h.Quotes.Rows(c.Request().Context(), sym)
	if err != nil {
		return h.failure(c, upstream(err))
	}
	if hit {
		c.Response().Header().Set("X-Cache", "HIT")
	} else {
		c.Response().Header().Set("X-Cache", "MISS")
	}
	return success(c, quoteHistoryResponse{Symbol: sym, Rows: rows})
}

// nextPrice simulates one step for a single symbol outside any session.
// Closes sent with the request replace the fetched history. Without usable
// history the price takes a small random walk.
func (h *Handler) nextPrice(c echo.Context) error {
	var req nextPriceRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}
	sym := market.NormalizeSymbol(req.Symbol)
	src := h.source()

	var closes []float64
	if len(req.Closes) > 0 {
		closes = market.Sanitize(req.Closes)
	} else if rows, _, err := h.Quotes.Rows(c.Request().Context(), sym); err != nil {
		h.Logger.Warn().Err(err).Str("symbol", sym).Msg("next price without history")
	} else {
		closes = quotes.Closes(rows)
	}

	res, err := sim.NextFromCloses(closes, req.CurrentPrice, sim.ParseMode(req.Mode), src)
	switch {
	case errors.Is(err, sim.ErrInsufficientData):
		return success(c, nextPriceResponse{
			Symbol:    sym,
			NextPrice: sim.RandomWalk(req.CurrentPrice, src),
			Fallback:  true,
		})
	case err != nil:
		return h.failure(c, badRequest(err.Error()))
	}
	return success(c, nextPriceResponse{Symbol: sym, NextPrice: res.NextPrice, Debug: &res.Diagnostics})
}

func upstream(err error) *APIError {
	if errors.Is(err, quotes.ErrEmptyHistory) {
		return &APIError{Code: "ERR_EMPTY_HISTORY", Message: "no history for symbol", Status: http.StatusNotFound, Err: err}
	}
	return &APIError{Code: "ERR_UPSTREAM", Message: "history provider failed", Status: http.StatusBadGateway, Err: err}
}
