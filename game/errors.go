package game

import "errors"

var (
	ErrNotPlaying         = errors.New("game has not started")
	ErrFinished           = errors.New("game is over")
	ErrAlreadyStarted     = errors.New("game has already started")
	ErrInvalidQuantity    = errors.New("quantity must be a positive whole number")
	ErrNoPrice            = errors.New("no current price for symbol")
	ErrInsufficientCash   = errors.New("not enough cash")
	ErrInsufficientShares = errors.New("not enough shares")
	ErrNothingToSell      = errors.New("nothing to sell")
	ErrNoPrices           = errors.New("no prices loaded")
	ErrInvalidConfig      = errors.New("invalid game configuration")
	ErrUnknownDifficulty  = errors.New("unknown difficulty")
	ErrNoProgress         = errors.New("nothing to abandon")
)

// RejectError is a soft failure: the operation was refused and the session
// was left untouched. Reason is meant for the player.
type RejectError struct {
	Op     string
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	return e.Op + ": " + e.Reason
}

func (e *RejectError) Unwrap() error { return e.Err }

func reject(op string, err error, reason string) *RejectError {
	return &RejectError{Op: op, Reason: reason, Err: err}
}
