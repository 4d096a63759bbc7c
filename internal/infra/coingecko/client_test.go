package coingecko_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NastyaGoryachaya/crypto-converter/internal/config"
	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/infra/coingecko"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *coingecko.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return coingecko.NewClient(config.CoinGeckoConfig{
		BaseURL:   srv.URL + "/api/v3",
		APIKey:    "demo-key",
		Timeout:   2 * time.Second,
		UserAgent: "converter-test",
	})
}

func TestFetchRate_Success(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "converter-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":65000}}`))
	})

	rate, err := client.FetchRate(context.Background(), domain.Bitcoin, domain.USD)
	require.NoError(t, err)
	assert.Equal(t, 65000.0, rate)
}

func TestFetchRate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-2xx", status: http.StatusTooManyRequests, body: `{"status":{"error_code":429}}`},
		{name: "malformed", status: http.StatusOK, body: `{"bitcoin":`},
		{name: "missing crypto", status: http.StatusOK, body: `{"ethereum":{"usd":3000}}`},
		{name: "missing currency", status: http.StatusOK, body: `{"bitcoin":{"eur":60000}}`},
		{name: "wrong type", status: http.StatusOK, body: `{"bitcoin":{"usd":"65000"}}`},
		{name: "null price", status: http.StatusOK, body: `{"bitcoin":{"usd":null}}`},
		{name: "null crypto", status: http.StatusOK, body: `{"bitcoin":null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.FetchRate(context.Background(), domain.Bitcoin, domain.USD)
			require.Error(t, err)
			assert.True(t, errors.Is(err, coingecko.ErrRateFetch))
			assert.False(t, errors.Is(err, coingecko.ErrHistoryFetch))
		})
	}
}

func TestFetchRate_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := coingecko.NewClient(config.CoinGeckoConfig{BaseURL: srv.URL, Timeout: time.Second})

	_, err := client.FetchRate(context.Background(), domain.Dogecoin, domain.INR)
	assert.ErrorIs(t, err, coingecko.ErrRateFetch)
}

func TestFetchHistory_Success(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/coins/ethereum/market_chart", r.URL.Path)
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`{"prices":[[1700000000000,60000],[1700086400000,61000.5]],"market_caps":[],"total_volumes":[]}`))
	})

	got, err := client.FetchHistory(context.Background(), domain.Ethereum, domain.EUR)
	require.NoError(t, err)
	assert.Equal(t, domain.HistoricalSeries{
		{Timestamp: 1700000000000, Price: 60000},
		{Timestamp: 1700086400000, Price: 61000.5},
	}, got)
}

func TestFetchHistory_EmptyPrices(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[]}`))
	})

	got, err := client.FetchHistory(context.Background(), domain.Litecoin, domain.GBP)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchHistory_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "missing prices", status: http.StatusOK, body: `{"market_caps":[]}`},
		{name: "bad point", status: http.StatusOK, body: `{"prices":[[1700000000000]]}`},
		{name: "null price in point", status: http.StatusOK, body: `{"prices":[[1700000000000,null]]}`},
		{name: "null timestamp in point", status: http.StatusOK, body: `{"prices":[[1700000000000,60000],[null,5]]}`},
		{name: "null prices", status: http.StatusOK, body: `{"prices":null}`},
		{name: "not json", status: http.StatusOK, body: `<html></html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.FetchHistory(context.Background(), domain.Bitcoin, domain.USD)
			assert.ErrorIs(t, err, coingecko.ErrHistoryFetch)
		})
	}
}
