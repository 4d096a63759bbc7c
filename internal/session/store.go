package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
)

var ErrNotFound = errors.New("widget not found")

// Gauge — учёт смонтированных виджетов
type Gauge interface {
	WidgetMounted()
	WidgetUnmounted()
}

type entry struct {
	widget   *converter.Widget
	lastSeen time.Time
}

// Store — смонтированные виджеты по id сессии. Только в памяти:
// по истечении TTL без обращений виджет размонтируется.
type Store struct {
	ctx    context.Context
	deps   converter.Deps
	ttl    time.Duration
	gauge  Gauge
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	items map[string]*entry
}

func NewStore(ctx context.Context, deps converter.Deps, ttl time.Duration, gauge Gauge, logger *slog.Logger) *Store {
	return &Store{
		ctx:    ctx,
		deps:   deps,
		ttl:    ttl,
		gauge:  gauge,
		logger: logger,
		now:    time.Now,
		items:  make(map[string]*entry),
	}
}

// Mount — новый виджет под случайным id
func (s *Store) Mount(in domain.ConversionInput) (string, *converter.Widget) {
	id := uuid.NewString()
	w := converter.NewWithInput(s.ctx, s.deps, in)

	s.mu.Lock()
	s.items[id] = &entry{widget: w, lastSeen: s.now()}
	s.mu.Unlock()

	s.mounted(id)
	return id, w
}

// GetOrMount — виджет с заданным id; если его нет, монтирует с вводом по умолчанию
func (s *Store) GetOrMount(id string) *converter.Widget {
	s.mu.Lock()
	if e, ok := s.items[id]; ok {
		e.lastSeen = s.now()
		s.mu.Unlock()
		return e.widget
	}
	w := converter.New(s.ctx, s.deps)
	s.items[id] = &entry{widget: w, lastSeen: s.now()}
	s.mu.Unlock()

	s.mounted(id)
	return w
}

func (s *Store) Get(id string) (*converter.Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = s.now()
	return e.widget, nil
}

// Touch — продлевает жизнь сессии (например, пока открыт websocket)
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[id]; ok {
		e.lastSeen = s.now()
	}
}

func (s *Store) Unmount(id string) error {
	s.mu.Lock()
	e, ok := s.items[id]
	if ok {
		delete(s.items, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.unmounted(id, e.widget)
	return nil
}

// Sweep — размонтирует виджеты, к которым не обращались дольше TTL
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	expired := make(map[string]*converter.Widget)

	s.mu.Lock()
	for id, e := range s.items {
		if now.Sub(e.lastSeen) > s.ttl {
			expired[id] = e.widget
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for id, w := range expired {
		s.unmounted(id, w)
	}
	return len(expired)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close — размонтирует все виджеты (остановка приложения)
func (s *Store) Close() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*entry)
	s.mu.Unlock()

	for id, e := range items {
		s.unmounted(id, e.widget)
	}
}

func (s *Store) mounted(id string) {
	if s.gauge != nil {
		s.gauge.WidgetMounted()
	}
	s.logger.Debug("widget mounted", slog.String("id", id))
}

func (s *Store) unmounted(id string, w *converter.Widget) {
	w.Close()
	if s.gauge != nil {
		s.gauge.WidgetUnmounted()
	}
	s.logger.Debug("widget unmounted", slog.String("id", id))
}
