package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/metrics"
	"github.com/rustyeddy/stocksim/quotes"
	"github.com/rustyeddy/stocksim/sim"
)

// HistoryRows serves a symbol's daily history and reports cache hits.
type HistoryRows interface {
	Rows(ctx context.Context, symbol string) ([]quotes.Row, bool, error)
}

// Handler serves the game, history and quote routes.
type Handler struct {
	Sessions          *game.Registry
	Loader            *game.Loader
	Quotes            HistoryRows
	Journal           journal.Store // nil disables the history routes
	Recorder          game.Recorder
	Metrics           *metrics.Recorder
	Difficulties      []game.Difficulty
	DefaultDifficulty string
	Symbols           []string
	Tuning            sim.Tuning
	NewSource         func() sim.Source
	Logger            zerolog.Logger
}

// RegisterRoutes mounts every route under /api.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	g.GET("/difficulties", h.listDifficulties)

	games := g.Group("/games")
	games.POST("", h.createGame)
	games.GET("/:id", h.getGame)
	games.DELETE("/:id", h.deleteGame)
	games.POST("/:id/start", h.startGame)
	games.POST("/:id/reset", h.resetGame)
	games.POST("/:id/orders", h.placeOrder)
	games.POST("/:id/sell-all", h.sellAll)
	games.POST("/:id/panic-sell", h.panicSell)
	games.POST("/:id/next-day", h.nextDay)
	games.POST("/:id/abandon", h.abandonGame)
	games.POST("/:id/mode", h.setMode)
	games.POST("/:id/custom", h.applyCustom)
	games.GET("/:id/stats", h.gameStats)

	g.POST("/game/next-price", h.nextPrice)

	g.GET("/history", h.listHistory)
	g.GET("/history/:id", h.getHistory)

	g.GET("/quotes/history", h.quoteHistory)
}

func (h *Handler) listDifficulties(c echo.Context) error {
	return list(c, h.Difficulties, len(h.Difficulties))
}

func (h *Handler) observer() game.Observer {
	if h.Metrics == nil {
		return nil
	}
	return h.Metrics
}

func (h *Handler) source() sim.Source {
	if h.NewSource == nil {
		return sim.NewEntropySource()
	}
	return h.NewSource()
}

func (h *Handler) session(c echo.Context) (*game.Session, error) {
	s, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		return nil, notFound("game not found")
	}
	return s, nil
}

func (h *Handler) liveSessionsChanged() {
	if h.Metrics != nil {
		h.Metrics.SetLiveSessions(h.Sessions.Len())
	}
}

// SweepSessions evicts stale games every interval until ctx is done.
func (h *Handler) SweepSessions(ctx context.Context, every time.Duration) {
	h.Sessions.Run(ctx, every, func(ids []string) {
		h.Logger.Info().Strs("ids", ids).Int("live", h.Sessions.Len()).Msg("sessions evicted")
		h.liveSessionsChanged()
	})
}

func noJournal() *APIError {
	return newError(http.StatusServiceUnavailable, "ERR_UNAVAILABLE", "game history is not configured")
}
