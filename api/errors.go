package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/journal"
)

// APIError is an error with an HTTP status and a stable code.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newError(status int, code, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: status}
}

func badRequest(message string) *APIError {
	return newError(http.StatusBadRequest, "ERR_BAD_REQUEST", message)
}

func notFound(message string) *APIError {
	return newError(http.StatusNotFound, "ERR_NOT_FOUND", message)
}

func unavailable(message string) *APIError {
	return newError(http.StatusServiceUnavailable, "ERR_UNAVAILABLE", message)
}

// rejectCodes maps the sentinel behind a refused game operation to its code.
var rejectCodes = []struct {
	err  error
	code string
}{
	{game.ErrNotPlaying, "ERR_NOT_PLAYING"},
	{game.ErrFinished, "ERR_FINISHED"},
	{game.ErrAlreadyStarted, "ERR_ALREADY_STARTED"},
	{game.ErrInvalidQuantity, "ERR_INVALID_QUANTITY"},
	{game.ErrNoPrice, "ERR_NO_PRICE"},
	{game.ErrInsufficientCash, "ERR_INSUFFICIENT_CASH"},
	{game.ErrInsufficientShares, "ERR_INSUFFICIENT_SHARES"},
	{game.ErrNothingToSell, "ERR_NOTHING_TO_SELL"},
	{game.ErrNoPrices, "ERR_NO_PRICES"},
	{game.ErrNoProgress, "ERR_NO_PROGRESS"},
	{game.ErrInvalidConfig, "ERR_INVALID_CONFIG"},
	{game.ErrUnknownDifficulty, "ERR_UNKNOWN_DIFFICULTY"},
}

func rejectCode(err error) string {
	for _, rc := range rejectCodes {
		if errors.Is(err, rc.err) {
			return rc.code
		}
	}
	return "ERR_REJECTED"
}

// toAPIError classifies err for the response envelope.
func toAPIError(err error) *APIError {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae
	}

	var re *game.RejectError
	if errors.As(err, &re) {
		return &APIError{
			Code:    rejectCode(re),
			Message: re.Reason,
			Status:  http.StatusUnprocessableEntity,
			Err:     err,
		}
	}

	switch {
	case errors.Is(err, game.ErrUnknownDifficulty), errors.Is(err, game.ErrInvalidConfig):
		return &APIError{Code: rejectCode(err), Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	case errors.Is(err, game.ErrNoPrices):
		return &APIError{Code: "ERR_NO_PRICES", Message: "no price history is available", Status: http.StatusServiceUnavailable, Err: err}
	case errors.Is(err, journal.ErrNotFound):
		return &APIError{Code: "ERR_NOT_FOUND", Message: "game not found", Status: http.StatusNotFound, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Code: "ERR_TIMEOUT", Message: "request timed out", Status: http.StatusGatewayTimeout, Err: err}
	}
	return &APIError{Code: "ERR_INTERNAL", Message: "something went wrong", Status: http.StatusInternalServerError, Err: err}
}
