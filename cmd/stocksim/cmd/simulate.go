package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/game"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/market"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a headless game from the command line",
	Long: `Simulate loads the configured universe, places the opening orders and
advances the market day by day until the game is won, lost or the day limit
is reached. A game still running at the limit is abandoned and recorded.

Examples:
  stocksim simulate --buy pko:100 --buy cdr:20 --days 30
  stocksim simulate -d hard -m positive_events --seed 7 --panic-below -15`,
	RunE: runSimulate,
}

var (
	simDifficulty string
	simMode       string
	simDays       int
	simSeed       int64
	simBuys       []string
	simPlayer     string
	simPanicBelow float64
	simRecord     bool
	simQuiet      bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simDifficulty, "difficulty", "d", "", "difficulty id (defaults to game.default_difficulty)")
	simulateCmd.Flags().StringVarP(&simMode, "mode", "m", "neutral", "sim mode (neutral, positive, negative, positive_events, negative_events)")
	simulateCmd.Flags().IntVarP(&simDays, "days", "n", 20, "maximum number of days to advance")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed (overrides game.seed, 0 keeps the config)")
	simulateCmd.Flags().StringSliceVarP(&simBuys, "buy", "b", nil, "opening order as symbol:quantity (repeatable)")
	simulateCmd.Flags().StringVarP(&simPlayer, "player", "p", "cli", "player name recorded with the result")
	simulateCmd.Flags().Float64Var(&simPanicBelow, "panic-below", 0, "panic sell when P/L falls below this percent (0 disables)")
	simulateCmd.Flags().BoolVar(&simRecord, "record", true, "write the result to the journal")
	simulateCmd.Flags().BoolVarP(&simQuiet, "quiet", "q", false, "print only the summary")
}

type order struct {
	symbol string
	qty    int
}

func parseOrders(specs []string) ([]order, error) {
	out := make([]order, 0, len(specs))
	for _, s := range specs {
		sym, q, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("order %q: want symbol:quantity", s)
		}
		qty, err := strconv.Atoi(q)
		if err != nil {
			return nil, fmt.Errorf("order %q: %w", s, err)
		}
		out = append(out, order{symbol: market.NormalizeSymbol(sym), qty: qty})
	}
	return out, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	orders, err := parseOrders(simBuys)
	if err != nil {
		return err
	}
	mode, err := game.ParseSimMode(simMode)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	cfg := e.cfg
	if simSeed != 0 {
		cfg.Game.Seed = simSeed
	}
	difficulty := simDifficulty
	if difficulty == "" {
		difficulty = cfg.Game.DefaultDifficulty
	}

	var rec game.Recorder
	if simRecord {
		j, err := e.openJournal()
		if err != nil {
			return err
		}
		rec = journal.NewRecorder(j)
	}

	provider, err := e.provider(ctx)
	if err != nil {
		return err
	}
	loader := &game.Loader{Source: provider, Workers: cfg.Game.LoadWorkers, Logger: e.log}

	s, err := game.NewSession(game.Options{
		Player:       simPlayer,
		Difficulty:   difficulty,
		Difficulties: cfg.Game.Difficulties,
		Mode:         mode,
		Tuning:       &cfg.Events,
		Source:       cfg.Game.Source(),
		Recorder:     rec,
		Logger:       e.log,
	})
	if err != nil {
		return err
	}

	rep := loader.Load(ctx, cfg.Game.Universe())
	if err := s.LoadHistories(rep.Histories); err != nil {
		return fmt.Errorf("load histories: %w", err)
	}
	if err := s.Start(); err != nil {
		return err
	}

	st := s.Snapshot()
	fmt.Printf("Game %s (%s, %s): capital %.2f, target %.2f, %d symbols\n",
		st.ID, st.Difficulty.Label, st.Mode, st.InitialCapital, st.Target, len(st.Prices))
	if len(rep.Failed) > 0 {
		fmt.Printf("  no history for: %s\n", strings.Join(market.SortedKeys(rep.Failed), ", "))
	}

	for _, o := range orders {
		tr, err := s.Buy(ctx, o.symbol, o.qty)
		if err != nil {
			fmt.Printf("  order %s x%d refused: %v\n", o.symbol, o.qty, err)
			continue
		}
		fmt.Printf("  bought %d %s at %.2f\n", tr.Quantity, tr.Symbol, tr.Price)
	}

	if err := playDays(ctx, s); err != nil {
		return err
	}

	sum := s.Summary()
	if sum.Status == game.StatusPlaying {
		if sum, err = s.Abandon(ctx); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Printf("Result: %s after %d days\n", sum.Status, sum.DaysPlayed)
	fmt.Printf("  Final value: %.2f (P/L %.2f, %.2f%%)\n", sum.FinalValue, sum.PnL, sum.PnLPct)
	fmt.Printf("  Trades: %d, panic sells: %d\n", sum.TradeCount, sum.PanicSellCount)
	return nil
}

func playDays(ctx context.Context, s *game.Session) error {
	for range simDays {
		rep, err := s.AdvanceDay(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if !simQuiet {
			fmt.Println(s.Snapshot().Message)
		}
		if rep.Status.Terminal() {
			return nil
		}

		if simPanicBelow < 0 && s.Summary().PnLPct < simPanicBelow {
			trades, err := s.PanicSell(ctx)
			if err == nil {
				fmt.Printf("  panic sold %d positions\n", len(trades))
			}
		}
	}
	return nil
}
