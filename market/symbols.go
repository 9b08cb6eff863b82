// market/symbols.go
package market

import (
	"sort"
	"strings"
)

// SymbolMeta describes one equity in the game universe.
type SymbolMeta struct {
	Symbol string
	Name   string
}

// Label is the display form used in logs and the day log, e.g. "PKO Bank Polski – PKO".
func (m SymbolMeta) Label() string {
	return m.Name + " – " + strings.ToUpper(m.Symbol)
}

// Symbols is the fixed universe of Warsaw Stock Exchange equities the game trades.
var Symbols = []SymbolMeta{
	{Symbol: "ale", Name: "Allegro.eu"},
	{Symbol: "alr", Name: "Alior Bank"},
	{Symbol: "acp", Name: "Asseco Poland"},
	{Symbol: "lwb", Name: "Lubelski Węgiel Bogdanka"},
	{Symbol: "bdx", Name: "Budimex"},
	{Symbol: "ccc", Name: "CCC"},
	{Symbol: "cdr", Name: "CD Projekt"},
	{Symbol: "cps", Name: "Cyfrowy Polsat (Polsat Plus)"},
	{Symbol: "dnp", Name: "Dino Polska"},
	{Symbol: "ena", Name: "Enea"},
	{Symbol: "eur", Name: "Eurocash"},
	{Symbol: "att", Name: "Grupa Azoty"},
	{Symbol: "kty", Name: "Grupa Kęty"},
	{Symbol: "jsw", Name: "Jastrzębska Spółka Węglowa"},
	{Symbol: "kgh", Name: "KGHM Polska Miedź"},
	{Symbol: "kru", Name: "Kruk"},
	{Symbol: "lpp", Name: "LPP"},
	{Symbol: "mbk", Name: "mBank"},
	{Symbol: "mil", Name: "Bank Millennium"},
	{Symbol: "opl", Name: "Orange Polska"},
	{Symbol: "peo", Name: "Bank Pekao"},
	{Symbol: "pco", Name: "Pepco Group"},
	{Symbol: "pge", Name: "PGE Polska Grupa Energetyczna"},
	{Symbol: "pkn", Name: "PKN Orlen"},
	{Symbol: "pko", Name: "PKO Bank Polski"},
	{Symbol: "pzu", Name: "PZU"},
	{Symbol: "spl", Name: "Santander Bank Polska"},
	{Symbol: "tpe", Name: "Tauron Polska Energia"},
	{Symbol: "ten", Name: "Ten Square Games"},
	{Symbol: "xtb", Name: "XTB"},
}

var symbolIndex = func() map[string]SymbolMeta {
	m := make(map[string]SymbolMeta, len(Symbols))
	for _, s := range Symbols {
		m[s.Symbol] = s
	}
	return m
}()

// NormalizeSymbol trims and lowercases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup returns the metadata for a ticker in the universe.
func Lookup(symbol string) (SymbolMeta, bool) {
	m, ok := symbolIndex[NormalizeSymbol(symbol)]
	return m, ok
}

// Tickers returns the universe tickers in their declared order.
func Tickers() []string {
	out := make([]string, 0, len(Symbols))
	for _, s := range Symbols {
		out = append(out, s.Symbol)
	}
	return out
}

// SortedKeys returns the keys of a symbol-keyed map in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
