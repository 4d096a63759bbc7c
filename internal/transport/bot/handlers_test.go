package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
	"github.com/NastyaGoryachaya/crypto-converter/internal/session"
	"github.com/NastyaGoryachaya/crypto-converter/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	mu    sync.Mutex
	rates map[domain.Selection]float64
}

func (s *stubAPI) FetchRate(_ context.Context, c domain.CryptoID, cur domain.CurrencyCode) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rates[domain.Selection{Crypto: c, Currency: cur}]
	if !ok {
		return 0, errors.New("no rate")
	}
	return r, nil
}

func (s *stubAPI) FetchHistory(context.Context, domain.CryptoID, domain.CurrencyCode) (domain.HistoricalSeries, error) {
	return domain.HistoricalSeries{
		{Timestamp: 1700000000000, Price: 60000},
		{Timestamp: 1700003600000, Price: 60500},
		{Timestamp: 1700086400000, Price: 61000},
	}, nil
}

func newTestBot(t *testing.T) (*Bot, *session.Store) {
	t.Helper()
	api := &stubAPI{rates: map[domain.Selection]float64{
		{Crypto: domain.Bitcoin, Currency: domain.USD}:  20000,
		{Crypto: domain.Ethereum, Currency: domain.EUR}: 3000,
	}}
	store := session.NewStore(context.Background(),
		converter.Deps{Rates: api, History: api, Logger: logger.Discard()},
		time.Hour, nil, logger.Discard())
	t.Cleanup(store.Close)
	return newBot(Config{ReplyTimeout: 2 * time.Second}, store, logger.Discard()), store
}

func TestStart_CancelledContextSkipsPolling(t *testing.T) {
	b, _ := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// у тестового бота нет telebot-клиента: вызов Start или Stop запаниковал бы
		b.Start(ctx)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return for a cancelled context")
	}
}

func TestParseConvertArgs(t *testing.T) {
	p, err := parseConvertArgs([]string{"2.5", "Ethereum", "EUR"})
	require.NoError(t, err)
	require.NotNil(t, p.Amount)
	assert.Equal(t, "2.5", *p.Amount)
	assert.Equal(t, domain.Ethereum, *p.Crypto)
	assert.Equal(t, domain.EUR, *p.Currency)

	p, err = parseConvertArgs([]string{"inr", "10"})
	require.NoError(t, err)
	assert.Nil(t, p.Crypto)
	assert.Equal(t, domain.INR, *p.Currency)
	assert.Equal(t, "10", *p.Amount)

	p, err = parseConvertArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, converter.Patch{}, p)

	_, err = parseConvertArgs([]string{"2", "solana"})
	assert.ErrorIs(t, err, ErrBadArgs)
}

func TestRender_ConvertPerChat(t *testing.T) {
	b, store := newTestBot(t)
	ctx := context.Background()

	p, err := parseConvertArgs([]string{"2.5"})
	require.NoError(t, err)
	assert.Equal(t, "2.5 BITCOIN = 50000.00 USD\nКурс: 20000.00 USD", b.render(ctx, 1, p, false))

	p, err = parseConvertArgs([]string{"ethereum", "eur"})
	require.NoError(t, err)
	assert.Equal(t, "2.5 ETHEREUM = 7500.00 EUR\nКурс: 3000.00 EUR", b.render(ctx, 1, p, false))

	// другой чат — свой виджет со значениями по умолчанию
	assert.Equal(t, "1 BITCOIN = 20000.00 USD\nКурс: 20000.00 USD", b.render(ctx, 2, converter.Patch{}, false))
	assert.Equal(t, 2, store.Len())
}

func TestRender_Chart(t *testing.T) {
	b, _ := newTestBot(t)

	out := b.render(context.Background(), 7, converter.Patch{}, true)
	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{converter.ChartTitle, "11/14/2023: 60500.00", "11/15/2023: 61000.00"}, lines)
}

func TestTranslateBotError(t *testing.T) {
	assert.Contains(t, translateBotError(domain.ErrUnknownCrypto), "Монета не поддерживается")
	assert.Contains(t, translateBotError(domain.ErrUnknownCurrency), "Валюта не поддерживается")
	assert.Contains(t, translateBotError(ErrBadArgs), "/convert")
	assert.Contains(t, translateBotError(errors.New("x")), "Внутренняя ошибка")
}

func TestWidgetID(t *testing.T) {
	assert.Equal(t, "tg:-100500", widgetID(-100500))
}
