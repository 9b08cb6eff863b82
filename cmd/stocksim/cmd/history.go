package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query finished games",
	Long: `Query finished games from the SQLite history journal.

Subcommands:
  list  - List the latest games, optionally for one player
  show  - Print one game with its full replay payload

Examples:
  stocksim history list --player ann --limit 20
  stocksim history show 01J9Z3K1V8W4Q2N6R5T7Y0XABC`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the latest games",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <game-id>",
	Short: "Print one game as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var (
	historyPlayer string
	historyLimit  int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyListCmd.Flags().StringVarP(&historyPlayer, "player", "p", "", "only games of this player")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "l", journal.DefaultListLimit, "number of games (max 50)")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	games, err := store.ListGames(cmd.Context(), historyPlayer, historyLimit)
	if err != nil {
		return fmt.Errorf("query games: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPLAYER\tSTATUS\tDIFFICULTY\tDAYS\tFINAL\tP/L %\tFINISHED")
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%.2f\t%s\n",
			g.ID, g.Player, g.Status, g.Difficulty, g.DaysPlayed, g.FinalValue, g.PnLPct,
			g.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	g, err := store.GetGame(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get game: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}
