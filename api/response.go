package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope of every API reply.
type Response struct {
	OK    bool      `json:"ok"`
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// ListData is a page of rows.
type ListData struct {
	Rows  any `json:"rows"`
	Total int `json:"total"`
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Response{OK: true, Data: data})
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Response{OK: true, Data: data})
}

func list(c echo.Context, rows any, total int) error {
	return success(c, ListData{Rows: rows, Total: total})
}

// failure writes err in the envelope. Server errors are logged, the rest
// are expected outcomes of user input.
func (h *Handler) failure(c echo.Context, err error) error {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		h.Logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.JSON(ae.Status, Response{OK: false, Error: ae})
}
