package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/portfolio"
)

var _ game.Observer = (*Recorder)(nil)

func TestRecorderCounts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.GameStarted("normal")
	r.GameStarted("normal")
	r.GameEnded(game.StatusWon, 21)
	r.DayAdvanced(3, 1)
	r.DayAdvanced(0, 0)
	r.TradeExecuted(portfolio.Sell, true)
	r.OrderRejected("buy")
	r.SetLiveSessions(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.gamesStarted.WithLabelValues("normal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.gamesEnded.WithLabelValues("won")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.daysAdvanced))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.eventsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.degraded))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.trades.WithLabelValues("SELL", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejections.WithLabelValues("buy")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.liveSessions))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	r := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(r.Middleware())
	e.GET("/api/games/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/"+id, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/games/:id", "GET", "204")))
}
