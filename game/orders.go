package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/portfolio"
)

// ensurePlayingLocked rejects trading outside the playing status.
func (s *Session) ensurePlayingLocked(op string) error {
	switch {
	case s.status.Terminal():
		return reject(op, ErrFinished, "the game is over, reset to play again")
	case s.status != StatusPlaying:
		return reject(op, ErrNotPlaying, "start the game before trading")
	}
	return nil
}

func (s *Session) priceLocked(op, sym string) (float64, error) {
	p, ok := s.prices[sym]
	if !ok || !(p > 0) {
		return 0, reject(op, ErrNoPrice, fmt.Sprintf("no current price for %s", sym))
	}
	return p, nil
}

func (s *Session) rejected(err error) error {
	var re *RejectError
	if errors.As(err, &re) {
		s.observer.OrderRejected(re.Op)
		s.log.Debug().Str("op", re.Op).Str("reason", re.Reason).Msg("rejected")
	}
	return err
}

// appendTradeLocked records a trade against the already updated cash and
// positions.
func (s *Session) appendTradeLocked(sym string, side portfolio.Side, qty int, price float64, panicSell bool) portfolio.Trade {
	t := portfolio.Trade{
		ID:             len(s.trades) + 1,
		Symbol:         sym,
		Side:           side,
		Quantity:       qty,
		Price:          price,
		Value:          price * float64(qty),
		CashAfter:      s.cash,
		PositionsAfter: s.positions.Clone(),
		Day:            s.day,
		PanicSell:      panicSell,
	}
	s.trades = append(s.trades, t)
	s.observer.TradeExecuted(side, panicSell)
	s.log.Info().
		Str("symbol", sym).
		Str("side", string(side)).
		Int("qty", qty).
		Float64("price", price).
		Float64("cash", s.cash).
		Msg("trade")
	return t
}

// Buy purchases qty shares at the current price.
func (s *Session) Buy(ctx context.Context, symbol string, qty int) (portfolio.Trade, error) {
	sym := market.NormalizeSymbol(symbol)

	s.mu.Lock()
	if err := s.ensurePlayingLocked("buy"); err != nil {
		s.mu.Unlock()
		return portfolio.Trade{}, s.rejected(err)
	}
	if qty <= 0 {
		s.mu.Unlock()
		return portfolio.Trade{}, s.rejected(reject("buy", ErrInvalidQuantity, "enter a positive whole number of shares"))
	}
	price, err := s.priceLocked("buy", sym)
	if err != nil {
		s.mu.Unlock()
		return portfolio.Trade{}, s.rejected(err)
	}
	cost := price * float64(qty)
	if cost > s.cash {
		s.mu.Unlock()
		return portfolio.Trade{}, s.rejected(reject("buy", ErrInsufficientCash,
			fmt.Sprintf("not enough cash: need %.2f, have %.2f", cost, s.cash)))
	}

	s.cash -= cost
	s.positions[sym] += qty
	t := s.appendTradeLocked(sym, portfolio.Buy, qty, price, false)
	s.message = fmt.Sprintf("Bought %d %s at %.2f.", qty, sym, price)
	res := s.checkLocked()
	s.mu.Unlock()

	s.emit(ctx, res)
	return t, nil
}

// Sell sells qty shares at the current price.
func (s *Session) Sell(ctx context.Context, symbol string, qty int) (portfolio.Trade, error) {
	sym := market.NormalizeSymbol(symbol)

	s.mu.Lock()
	t, res, err := s.sellLocked("sell", sym, qty)
	s.mu.Unlock()
	if err != nil {
		return t, s.rejected(err)
	}

	s.emit(ctx, res)
	return t, nil
}

// SellAll sells the whole position in one symbol.
func (s *Session) SellAll(ctx context.Context, symbol string) (portfolio.Trade, error) {
	sym := market.NormalizeSymbol(symbol)

	s.mu.Lock()
	if err := s.ensurePlayingLocked("sell_all"); err != nil {
		s.mu.Unlock()
		return portfolio.Trade{}, s.rejected(err)
	}
	pos := s.positions[sym]
	if pos <= 0 {
		s.mu.Unlock()
		return portfolio.Trade{}, s.rejected(reject("sell_all", ErrNothingToSell, fmt.Sprintf("you hold no %s", sym)))
	}
	t, res, err := s.sellLocked("sell_all", sym, pos)
	s.mu.Unlock()
	if err != nil {
		return t, s.rejected(err)
	}

	s.emit(ctx, res)
	return t, nil
}

func (s *Session) sellLocked(op, sym string, qty int) (portfolio.Trade, *Result, error) {
	if err := s.ensurePlayingLocked(op); err != nil {
		return portfolio.Trade{}, nil, err
	}
	if qty <= 0 {
		return portfolio.Trade{}, nil, reject(op, ErrInvalidQuantity, "enter a positive whole number of shares")
	}
	if held := s.positions[sym]; qty > held {
		return portfolio.Trade{}, nil, reject(op, ErrInsufficientShares,
			fmt.Sprintf("you hold %d %s, cannot sell %d", held, sym, qty))
	}
	price, err := s.priceLocked(op, sym)
	if err != nil {
		return portfolio.Trade{}, nil, err
	}

	s.cash += price * float64(qty)
	s.positions[sym] -= qty
	if s.positions[sym] == 0 {
		delete(s.positions, sym)
	}
	t := s.appendTradeLocked(sym, portfolio.Sell, qty, price, false)
	s.message = fmt.Sprintf("Sold %d %s at %.2f.", qty, sym, price)
	return t, s.checkLocked(), nil
}

// PanicSell liquidates every priced position in one action. Symbols with
// no usable price are skipped.
func (s *Session) PanicSell(ctx context.Context) ([]portfolio.Trade, error) {
	s.mu.Lock()
	if err := s.ensurePlayingLocked("panic_sell"); err != nil {
		s.mu.Unlock()
		return nil, s.rejected(err)
	}

	var (
		proceeds float64
		trades   []portfolio.Trade
	)
	for _, sym := range market.SortedKeys(s.positions) {
		qty := s.positions[sym]
		price, ok := s.prices[sym]
		if qty <= 0 || !ok || !(price > 0) {
			continue
		}
		s.cash += price * float64(qty)
		proceeds += price * float64(qty)
		delete(s.positions, sym)
		trades = append(trades, s.appendTradeLocked(sym, portfolio.Sell, qty, price, true))
	}
	if len(trades) == 0 {
		s.mu.Unlock()
		return nil, s.rejected(reject("panic_sell", ErrNothingToSell, "no priced positions to sell"))
	}
	s.panicSells++
	s.message = fmt.Sprintf("Panic sell: %d positions closed for %.2f.", len(trades), proceeds)
	res := s.checkLocked()
	s.mu.Unlock()

	s.emit(ctx, res)
	return trades, nil
}
