package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/NastyaGoryachaya/crypto-converter/internal/config"
	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
)

// HistoryDays — окно графика, фиксированное
const HistoryDays = 7

var (
	ErrRateFetch    = errors.New("rate fetch failed")
	ErrHistoryFetch = errors.New("history fetch failed")
)

type Client struct {
	cfg        config.CoinGeckoConfig
	httpClient *http.Client
}

// priceResponse — ответ /simple/price: {"bitcoin":{"usd":65000}}.
// Указатели отличают null от нуля.
type priceResponse map[string]map[string]*float64

// marketChartResponse — ответ /coins/{id}/market_chart, нам нужны только prices
type marketChartResponse struct {
	Prices *[][]*float64 `json:"prices"`
}

// NewClient - Создаёт нового клиента для работы с API CoinGecko.
func NewClient(cfg config.CoinGeckoConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchRate — текущая цена одной монеты в выбранной валюте
func (c *Client) FetchRate(ctx context.Context, crypto domain.CryptoID, currency domain.CurrencyCode) (float64, error) {
	q := url.Values{}
	q.Set("ids", crypto.String())
	q.Set("vs_currencies", currency.String())

	var data priceResponse
	if err := c.getJSON(ctx, q, &data, "simple", "price"); err != nil {
		return 0, fmt.Errorf("%w: %s/%s: %w", ErrRateFetch, crypto, currency, err)
	}

	price := data[crypto.String()][currency.String()]
	if price == nil {
		return 0, fmt.Errorf("%w: %s/%s: price field missing", ErrRateFetch, crypto, currency)
	}
	return *price, nil
}

// FetchHistory — цены за последние HistoryDays дней, как их отдаёт API
func (c *Client) FetchHistory(ctx context.Context, crypto domain.CryptoID, currency domain.CurrencyCode) (domain.HistoricalSeries, error) {
	q := url.Values{}
	q.Set("vs_currency", currency.String())
	q.Set("days", strconv.Itoa(HistoryDays))

	var data marketChartResponse
	if err := c.getJSON(ctx, q, &data, "coins", crypto.String(), "market_chart"); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrHistoryFetch, crypto, currency, err)
	}
	if data.Prices == nil {
		return nil, fmt.Errorf("%w: %s/%s: prices field missing", ErrHistoryFetch, crypto, currency)
	}

	out := make(domain.HistoricalSeries, 0, len(*data.Prices))
	for i, p := range *data.Prices {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: %s/%s: point %d has %d values", ErrHistoryFetch, crypto, currency, i, len(p))
		}
		if p[0] == nil || p[1] == nil {
			return nil, fmt.Errorf("%w: %s/%s: point %d has null value", ErrHistoryFetch, crypto, currency, i)
		}
		out = append(out, domain.PricePoint{Timestamp: int64(*p[0]), Price: *p[1]})
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, q url.Values, dst any, path ...string) error {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath(path...)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	ua := c.cfg.UserAgent
	if ua == "" {
		ua = "crypto-converter/1.0"
	}
	req.Header.Set("User-Agent", ua)
	if c.cfg.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request failed: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
