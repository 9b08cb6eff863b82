package api

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/portfolio"
)

type createGameRequest struct {
	Player       string  `json:"player" validate:"max=64"`
	Difficulty   string  `json:"difficulty"`
	Mode         string  `json:"mode" default:"neutral"`
	StartCapital float64 `json:"startCapital" validate:"required_if=Difficulty custom,omitempty,gt=0"`
	Target       float64 `json:"target" validate:"required_if=Difficulty custom,omitempty,gtfield=StartCapital"`
	Start        bool    `json:"start"`
}

type orderRequest struct {
	Symbol   string `json:"symbol" validate:"required"`
	Side     string `json:"side" validate:"required,oneof=buy sell BUY SELL"`
	Quantity int    `json:"quantity"`
}

type symbolRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type resetRequest struct {
	Difficulty string `json:"difficulty"`
}

type customRequest struct {
	StartCapital float64 `json:"startCapital" validate:"gt=0"`
	Target       float64 `json:"target" validate:"gtfield=StartCapital"`
}

func (h *Handler) createGame(c echo.Context) error {
	var req createGameRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}
	mode, err := game.ParseSimMode(req.Mode)
	if err != nil {
		return h.failure(c, badRequest(err.Error()))
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = h.DefaultDifficulty
	}
	custom := difficulty == game.CustomDifficulty
	if custom {
		// Built at the default tier, then switched once prices are in.
		difficulty = h.DefaultDifficulty
	}

	tuning := h.Tuning
	s, err := game.NewSession(game.Options{
		Player:       strings.TrimSpace(req.Player),
		Difficulty:   difficulty,
		Difficulties: h.Difficulties,
		Mode:         mode,
		Tuning:       &tuning,
		Source:       h.source(),
		Recorder:     h.Recorder,
		Observer:     h.observer(),
		Logger:       h.Logger,
	})
	if err != nil {
		return h.failure(c, err)
	}

	rep := h.Loader.Load(c.Request().Context(), h.Symbols)
	if err := s.LoadHistories(rep.Histories); err != nil {
		return h.failure(c, err)
	}

	switch {
	case custom:
		err = s.ApplyCustom(req.StartCapital, req.Target)
	case req.Start:
		err = s.Start()
	}
	if err != nil {
		return h.failure(c, err)
	}

	h.Sessions.Add(s)
	h.liveSessionsChanged()
	return created(c, s.Snapshot())
}

func (h *Handler) getGame(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	return success(c, s.Snapshot())
}

func (h *Handler) deleteGame(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	if _, err := s.Abandon(c.Request().Context()); err != nil &&
		!errors.Is(err, game.ErrNoProgress) && !errors.Is(err, game.ErrFinished) {
		return h.failure(c, err)
	}
	h.Sessions.Remove(s.ID())
	h.liveSessionsChanged()
	return success(c, s.Summary())
}

func (h *Handler) startGame(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	if err := s.Start(); err != nil {
		return h.failure(c, err)
	}
	return success(c, s.Snapshot())
}

func (h *Handler) resetGame(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	var req resetRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}
	if err := s.Reset(req.Difficulty); err != nil {
		return h.failure(c, err)
	}
	return success(c, s.Snapshot())
}

func (h *Handler) placeOrder(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	var req orderRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}

	ctx := c.Request().Context()
	var tr portfolio.Trade
	if portfolio.Side(strings.ToUpper(req.Side)) == portfolio.Buy {
		tr, err = s.Buy(ctx, req.Symbol, req.Quantity)
	} else {
		tr, err = s.Sell(ctx, req.Symbol, req.Quantity)
	}
	if err != nil {
		return h.failure(c, err)
	}
	return success(c, tradeResponse{Trade: tr, State: s.Snapshot()})
}

type tradeResponse struct {
	Trade portfolio.Trade `json:"trade"`
	State game.State      `json:"state"`
}

type panicSellResponse struct {
	Trades []portfolio.Trade `json:"trades"`
	State  game.State        `json:"state"`
}

func (h *Handler) sellAll(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	var req symbolRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}
	tr, err := s.SellAll(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.failure(c, err)
	}
	return success(c, tradeResponse{Trade: tr, State: s.Snapshot()})
}

func (h *Handler) panicSell(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	trades, err := s.PanicSell(c.Request().Context())
	if err != nil {
		return h.failure(c, err)
	}
	return success(c, panicSellResponse{Trades: trades, State: s.Snapshot()})
}

func (h *Handler) nextDay(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	rep, err := s.AdvanceDay(c.Request().Context())
	if err != nil {
		return h.failure(c, err)
	}
	return success(c, rep)
}

func (h *Handler) abandonGame(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	sum, err := s.Abandon(c.Request().Context())
	if err != nil {
		return h.failure(c, err)
	}
	return success(c, sum)
}

func (h *Handler) setMode(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	var req modeRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}
	mode, err := game.ParseSimMode(req.Mode)
	if err != nil {
		return h.failure(c, badRequest(err.Error()))
	}
	s.SetMode(mode)
	return success(c, s.Snapshot())
}

func (h *Handler) applyCustom(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	var req customRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}
	if err := s.ApplyCustom(req.StartCapital, req.Target); err != nil {
		return h.failure(c, err)
	}
	return success(c, s.Snapshot())
}

func (h *Handler) gameStats(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.failure(c, err)
	}
	return success(c, s.Stats())
}
