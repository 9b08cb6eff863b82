package quotes

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

// DefaultBaseURL is Stooq's daily CSV download endpoint.
const DefaultBaseURL = "https://stooq.com/q/d/l/"

// ErrEmptyHistory is returned when the provider has no rows for a symbol.
var ErrEmptyHistory = errors.New("quotes: empty history")

// Row is one daily session.
type Row struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (r Row) ClosePrice() (float64, bool) {
	return r.Close, r.Close > 0
}

// Closes extracts the usable closing prices, oldest first.
func Closes(rows []Row) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if c, ok := r.ClosePrice(); ok {
			out = append(out, c)
		}
	}
	return market.SanitizeFloats(out)
}

// Client downloads daily history from Stooq.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: "Mozilla/5.0 (stocksim/1.0)",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// History fetches the full daily history of symbol.
func (c *Client) History(ctx context.Context, symbol string) ([]Row, error) {
	sym := market.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	params := url.Values{}
	params.Set("s", sym)
	params.Set("i", "d")
	apiURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stooq error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	rows, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sym, err)
	}
	return rows, nil
}

// ParseCSV reads a Stooq daily CSV. Columns are matched by header name;
// rows without a valid close are skipped.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyHistory
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	closeIdx, ok := col["close"]
	if !ok {
		// Stooq answers unknown tickers with a plain "No data" line.
		return nil, ErrEmptyHistory
	}

	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	num := func(rec []string, name string) float64 {
		n, _ := market.ToNumber(cell(rec, name))
		return n
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if closeIdx >= len(rec) {
			continue
		}
		c, ok := market.ToNumber(rec[closeIdx])
		if !ok || c <= 0 {
			continue
		}
		rows = append(rows, Row{
			Date:   cell(rec, "date"),
			Open:   num(rec, "open"),
			High:   num(rec, "high"),
			Low:    num(rec, "low"),
			Close:  c,
			Volume: num(rec, "volume"),
		})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyHistory
	}
	return rows, nil
}
