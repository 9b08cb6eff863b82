package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2024-01-02,100,102,99,101.5,1200
2024-01-03,101.5,103,101,102,900
2024-01-04,,,,,
2024-01-05,102,104,101,103.25,1500
`

func TestNewClient(t *testing.T) {
	client := NewClient("", 0)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)

	client = NewClient("http://example.test/", 5*time.Second)
	assert.Equal(t, "http://example.test/", client.baseURL)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
}

func TestHistory_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pko", r.URL.Query().Get("s"))
		assert.Equal(t, "d", r.URL.Query().Get("i"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	rows, err := client.History(context.Background(), " PKO ")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2024-01-02", rows[0].Date)
	assert.Equal(t, 102.0, rows[0].High)
	assert.Equal(t, 1200.0, rows[0].Volume)
	assert.Equal(t, []float64{101.5, 102, 103.25}, Closes(rows))
}

func TestHistory_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		errMsg  string
	}{
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", errMsg: "status 502"},
		{name: "no data", status: http.StatusOK, body: "No data", wantErr: ErrEmptyHistory},
		{name: "header only", status: http.StatusOK, body: "Date,Open,High,Low,Close,Volume\n", wantErr: ErrEmptyHistory},
		{name: "empty body", status: http.StatusOK, body: "", wantErr: ErrEmptyHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, time.Second).History(context.Background(), "pko")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}

	_, err := NewClient("http://127.0.0.1:1", time.Second).History(context.Background(), "")
	assert.Error(t, err)
}

func TestParseCSVCommaDecimals(t *testing.T) {
	in := "Data;ignored\n"
	_, err := ParseCSV(strings.NewReader(in))
	assert.ErrorIs(t, err, ErrEmptyHistory)

	rows, err := ParseCSV(strings.NewReader("date,close\n2024-02-01,\"12,5\"\n2024-02-02,-1\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 12.5, rows[0].Close)
}
