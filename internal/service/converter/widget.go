package converter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
)

// Виджет конвертера: состояние ввода, курс и история для выбранной пары.
// Любая смена монеты или валюты запускает два запроса параллельно;
// смена суммы только пересчитывает представление.

const (
	kindRate    = "rate"
	kindHistory = "history"
)

//go:generate mockgen -source=widget.go -destination=mocks/mocks.go -package=mocks

type RateFetcher interface {
	FetchRate(ctx context.Context, crypto domain.CryptoID, currency domain.CurrencyCode) (float64, error)
}

type HistoryFetcher interface {
	FetchHistory(ctx context.Context, crypto domain.CryptoID, currency domain.CurrencyCode) (domain.HistoricalSeries, error)
}

// Observer — метрики запросов
type Observer interface {
	FetchDone(kind string, took time.Duration, err error)
	StaleDiscarded(kind string)
}

type Deps struct {
	Rates    RateFetcher
	History  HistoryFetcher
	Observer Observer
	Logger   *slog.Logger
}

// Patch — частичное обновление ввода; nil-поля не меняются
type Patch struct {
	Amount   *string
	Crypto   *domain.CryptoID
	Currency *domain.CurrencyCode
}

type Widget struct {
	rates   RateFetcher
	history HistoryFetcher
	obs     Observer
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   domain.State
	gen     uint64 // растёт при каждой смене пары; ответы с чужим поколением выбрасываются
	pending int
	idle    chan struct{}
	subs    map[uint64]chan domain.State
	nextSub uint64
	closed  bool
}

// New — монтирует виджет с состоянием по умолчанию (1 bitcoin -> usd)
func New(ctx context.Context, deps Deps) *Widget {
	return NewWithInput(ctx, deps, domain.DefaultInput())
}

// NewWithInput — монтирует виджет с заданным вводом и сразу запрашивает курс и историю
func NewWithInput(ctx context.Context, deps Deps, in domain.ConversionInput) *Widget {
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	wctx, cancel := context.WithCancel(ctx)

	w := &Widget{
		rates:   deps.Rates,
		history: deps.History,
		obs:     deps.Observer,
		logger:  deps.Logger,
		ctx:     wctx,
		cancel:  cancel,
		state:   domain.NewState(in),
		subs:    make(map[uint64]chan domain.State),
	}

	w.mu.Lock()
	w.gen++
	tag := w.gen
	w.beginFetchLocked()
	w.mu.Unlock()

	w.refresh(tag, in.Selection())
	return w
}

// Snapshot — текущее состояние
func (w *Widget) Snapshot() domain.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Widget) SetAmount(amount string) domain.State {
	return w.Apply(Patch{Amount: &amount})
}

func (w *Widget) SetCrypto(c domain.CryptoID) domain.State {
	return w.Apply(Patch{Crypto: &c})
}

func (w *Widget) SetCurrency(c domain.CurrencyCode) domain.State {
	return w.Apply(Patch{Currency: &c})
}

// Apply — применяет изменения ввода одним обновлением. Если поменялась пара,
// запускается ровно одна пара запросов.
func (w *Widget) Apply(p Patch) domain.State {
	w.mu.Lock()
	if w.closed {
		st := w.state
		w.mu.Unlock()
		return st
	}

	prev := w.state.Input
	next := prev
	if p.Amount != nil {
		next = next.WithAmount(*p.Amount)
	}
	if p.Crypto != nil {
		next = next.WithCrypto(*p.Crypto)
	}
	if p.Currency != nil {
		next = next.WithCurrency(*p.Currency)
	}
	w.state = w.state.WithInput(next)

	changed := next.Selection() != prev.Selection()
	var tag uint64
	if changed {
		w.gen++
		tag = w.gen
		w.beginFetchLocked()
	}
	st := w.state
	w.publishLocked(st)
	w.mu.Unlock()

	if changed {
		w.logger.Debug("selection changed",
			slog.String("crypto", next.Crypto.String()),
			slog.String("currency", next.Currency.String()),
			slog.Uint64("generation", tag),
		)
		w.refresh(tag, next.Selection())
	}
	return st
}

// Subscribe — канал, в который приходит каждое новое состояние.
// Буфер на одно значение: медленный читатель видит только последнее.
func (w *Widget) Subscribe() (<-chan domain.State, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch := make(chan domain.State, 1)
	if w.closed {
		close(ch)
		return ch, func() {}
	}
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if c, ok := w.subs[id]; ok {
				delete(w.subs, id)
				close(c)
			}
		})
	}
}

// Wait — ждёт завершения всех запросов, запущенных на момент вызова и после него
func (w *Widget) Wait(ctx context.Context) error {
	w.mu.Lock()
	if w.pending == 0 {
		w.mu.Unlock()
		return nil
	}
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close — размонтирует виджет. Запросы в полёте отменяются, подписчики закрываются.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
	w.mu.Unlock()
	w.cancel()
}

func (w *Widget) refresh(tag uint64, sel domain.Selection) {
	go func() {
		defer w.endFetch()

		var g errgroup.Group
		g.Go(func() error {
			w.loadRate(tag, sel)
			return nil
		})
		g.Go(func() error {
			w.loadHistory(tag, sel)
			return nil
		})
		_ = g.Wait()
	}()
}

func (w *Widget) loadRate(tag uint64, sel domain.Selection) {
	start := time.Now()
	rate, err := w.rates.FetchRate(w.ctx, sel.Crypto, sel.Currency)
	w.obs.FetchDone(kindRate, time.Since(start), err)
	if err != nil {
		w.logFetchError(kindRate, sel, err)
		return
	}
	w.applyResult(tag, kindRate, func(s domain.State) domain.State {
		return s.WithRate(rate)
	})
}

func (w *Widget) loadHistory(tag uint64, sel domain.Selection) {
	start := time.Now()
	series, err := w.history.FetchHistory(w.ctx, sel.Crypto, sel.Currency)
	w.obs.FetchDone(kindHistory, time.Since(start), err)
	if err != nil {
		w.logFetchError(kindHistory, sel, err)
		return
	}
	w.applyResult(tag, kindHistory, func(s domain.State) domain.State {
		return s.WithHistory(series)
	})
}

func (w *Widget) applyResult(tag uint64, kind string, update func(domain.State) domain.State) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if tag != w.gen {
		w.logger.Debug("stale response discarded",
			slog.String("kind", kind),
			slog.Uint64("generation", tag),
			slog.Uint64("current", w.gen),
		)
		w.obs.StaleDiscarded(kind)
		return
	}
	w.state = update(w.state)
	w.publishLocked(w.state)
}

// Ошибки запросов не показываются пользователю: только лог, состояние остаётся прежним
func (w *Widget) logFetchError(kind string, sel domain.Selection, err error) {
	if w.ctx.Err() != nil {
		w.logger.Debug("fetch aborted: widget closed", slog.String("kind", kind))
		return
	}
	w.logger.Warn("fetch failed",
		slog.String("kind", kind),
		slog.String("crypto", sel.Crypto.String()),
		slog.String("currency", sel.Currency.String()),
		slog.String("error", err.Error()),
	)
}

func (w *Widget) beginFetchLocked() {
	if w.pending == 0 {
		w.idle = make(chan struct{})
	}
	w.pending++
}

func (w *Widget) endFetch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending--
	if w.pending == 0 {
		close(w.idle)
	}
}

func (w *Widget) publishLocked(st domain.State) {
	for _, ch := range w.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

type noopObserver struct{}

func (noopObserver) FetchDone(string, time.Duration, error) {}
func (noopObserver) StaleDiscarded(string)                  {}
