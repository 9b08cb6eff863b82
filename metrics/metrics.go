package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/portfolio"
)

// Recorder exports game activity to Prometheus. It implements game.Observer.
type Recorder struct {
	gamesStarted  *prometheus.CounterVec
	gamesEnded    *prometheus.CounterVec
	finalPnL      prometheus.Histogram
	daysAdvanced  prometheus.Counter
	eventsTotal   prometheus.Counter
	degraded      prometheus.Counter
	trades        *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	liveSessions  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		gamesStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksim_games_started_total",
				Help: "Games moved to playing, by difficulty",
			},
			[]string{"difficulty"},
		),
		gamesEnded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksim_games_ended_total",
				Help: "Games that reached a terminal status",
			},
			[]string{"status"},
		),
		finalPnL: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stocksim_game_pnl_percent",
				Help:    "Profit or loss of finished games in percent of start capital",
				Buckets: []float64{-100, -50, -20, -10, -5, 0, 5, 10, 20, 50, 100, 200},
			},
		),
		daysAdvanced: f.NewCounter(prometheus.CounterOpts{
			Name: "stocksim_days_advanced_total",
			Help: "Simulated trading days",
		}),
		eventsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "stocksim_market_events_total",
			Help: "Random market events applied to prices",
		}),
		degraded: f.NewCounter(prometheus.CounterOpts{
			Name: "stocksim_degraded_prices_total",
			Help: "Symbol updates that kept the previous price",
		}),
		trades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksim_trades_total",
				Help: "Executed trades",
			},
			[]string{"side", "panic"},
		),
		rejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksim_rejections_total",
				Help: "Refused operations",
			},
			[]string{"op"},
		),
		liveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "stocksim_live_sessions",
			Help: "Sessions held in memory",
		}),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksim_http_requests_total",
				Help: "HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDurations: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocksim_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
	}
}

func (r *Recorder) GameStarted(difficulty string) {
	r.gamesStarted.WithLabelValues(difficulty).Inc()
}

func (r *Recorder) GameEnded(status game.Status, pnlPct float64) {
	r.gamesEnded.WithLabelValues(string(status)).Inc()
	r.finalPnL.Observe(pnlPct)
}

func (r *Recorder) DayAdvanced(events, degraded int) {
	r.daysAdvanced.Inc()
	r.eventsTotal.Add(float64(events))
	r.degraded.Add(float64(degraded))
}

func (r *Recorder) TradeExecuted(side portfolio.Side, panic bool) {
	r.trades.WithLabelValues(string(side), strconv.FormatBool(panic)).Inc()
}

func (r *Recorder) OrderRejected(op string) {
	r.rejections.WithLabelValues(op).Inc()
}

// SetLiveSessions reports the registry size.
func (r *Recorder) SetLiveSessions(n int) {
	r.liveSessions.Set(float64(n))
}

// Middleware records request counts and latency by route template.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			r.httpRequests.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			r.httpDurations.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
