package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/pkg/id"
)

type listHistoryRequest struct {
	Player string `query:"player" validate:"max=64"`
	Limit  int    `query:"limit" default:"10" validate:"gte=0"`
}

func (h *Handler) listHistory(c echo.Context) error {
	if h.Journal == nil {
		return h.failure(c, noJournal())
	}
	var req listHistoryRequest
	if err := readRequest(c, &req); err != nil {
		return h.failure(c, err)
	}
	games, err := h.Journal.ListGames(c.Request().Context(), strings.TrimSpace(req.Player), journal.ClampLimit(req.Limit))
	if err != nil {
		return h.failure(c, err)
	}
	return list(c, games, len(games))
}

func (h *Handler) getHistory(c echo.Context) error {
	if h.Journal == nil {
		return h.failure(c, noJournal())
	}
	gid := c.Param("id")
	if !id.Valid(gid) {
		return h.failure(c, badRequest("invalid game id"))
	}
	g, err := h.Journal.GetGame(c.Request().Context(), gid)
	if err != nil {
		return h.failure(c, err)
	}
	return success(c, g)
}
