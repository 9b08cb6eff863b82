package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/config"
)

func TestParseOrders(t *testing.T) {
	got, err := parseOrders([]string{"PKO:100", " cdr :5"})
	require.NoError(t, err)
	assert.Equal(t, []order{{"pko", 100}, {"cdr", 5}}, got)

	_, err = parseOrders([]string{"pko"})
	assert.Error(t, err)
	_, err = parseOrders([]string{"pko:ten"})
	assert.Error(t, err)
}

func TestConfigInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocksim.yaml")

	rootCmd.SetArgs([]string{"config", "init", "-o", path})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"config", "validate", "-f", path})
	require.NoError(t, rootCmd.Execute())

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	want := config.Default()
	assert.Equal(t, want.Game.Difficulties, cfg.Game.Difficulties)
	assert.Equal(t, want.Journal, cfg.Journal)
	assert.Equal(t, want.Server, cfg.Server)
}

func TestOpenStoreNeedsSQLite(t *testing.T) {
	e := &env{cfg: config.Default()}
	e.cfg.Journal = config.JournalConfig{Type: "csv", File: filepath.Join(t.TempDir(), "games.csv")}
	_, err := e.openStore()
	assert.ErrorContains(t, err, "sqlite")

	e.cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(t.TempDir(), "games.db")}
	store, err := e.openStore()
	require.NoError(t, err)
	assert.NotNil(t, store)
	require.NoError(t, e.Close())
}
