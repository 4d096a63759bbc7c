package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper — хранилище сессий, которое умеет выбрасывать устаревшие виджеты
type Sweeper interface {
	Sweep(now time.Time) int
}

type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler — конструктор планировщика очистки неактивных виджетов
func NewScheduler(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Start — запускает периодическую очистку до остановки контекста
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("session sweeper disabled")
		return
	}
	s.logger.Info("session sweeper started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.runOnce(now)
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		}
	}
}

// runOnce — одна итерация: размонтировать просроченные виджеты
func (s *Scheduler) runOnce(now time.Time) {
	evicted := s.sweeper.Sweep(now)
	if evicted > 0 {
		s.logger.Info("tick: widgets evicted", slog.Int("count", evicted))
		return
	}
	s.logger.Debug("tick: nothing to evict")
}
