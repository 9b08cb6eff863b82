package journal

import (
	"context"

	"github.com/rustyeddy/stocksim/game"
)

type recorder struct {
	j Journal
}

// NewRecorder lets a session write its result straight to j.
func NewRecorder(j Journal) game.Recorder {
	return recorder{j: j}
}

func (r recorder) RecordResult(ctx context.Context, res game.Result) error {
	return r.j.RecordGame(ctx, FromResult(res))
}
