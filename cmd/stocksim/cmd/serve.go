package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/api"
	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game REST API",
	Long: `Serve the game over HTTP.

Each created game loads the daily history of the configured universe
through the day-keyed quote cache and is kept in memory until deleted
or evicted by the sessions retention settings. Finished games are written
to the configured journal.

Example:
  stocksim serve -c stocksim.yaml --addr :8080`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	cfg := e.cfg

	j, err := e.openJournal()
	if err != nil {
		return err
	}
	store, _ := j.(journal.Store)

	provider, err := e.provider(ctx)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	retention, sweepEvery, err := cfg.Sessions.Retention()
	if err != nil {
		return fmt.Errorf("sessions: %w", err)
	}

	h := &api.Handler{
		Sessions: game.NewRegistry(game.WithRetention(retention)),
		Loader: &game.Loader{
			Source:  provider,
			Workers: cfg.Game.LoadWorkers,
			Logger:  e.log,
		},
		Quotes:            provider,
		Journal:           store,
		Recorder:          journal.NewRecorder(j),
		Metrics:           rec,
		Difficulties:      cfg.Game.Difficulties,
		DefaultDifficulty: cfg.Game.DefaultDifficulty,
		Symbols:           cfg.Game.Universe(),
		Tuning:            cfg.Events,
		NewSource:         cfg.Game.Source,
		Logger:            e.log,
	}

	read, write, err := cfg.Server.Timeouts()
	if err != nil {
		return fmt.Errorf("server timeouts: %w", err)
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := api.NewServer(h, api.ServerConfig{
		Addr:         addr,
		ReadTimeout:  read,
		WriteTimeout: write,
		MetricsPath:  cfg.Server.MetricsPath,
		Gatherer:     reg,
		CORS:         true,
	})
	go h.SweepSessions(ctx, sweepEvery)
	return srv.Run(ctx)
}
