package bot

import (
	"context"
	"log/slog"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
)

// Config — конфигурация бота
type Config struct {
	Token           string
	LongPollTimeout time.Duration
	ReplyTimeout    time.Duration
	Location        *time.Location
}

// Widgets — у каждого чата свой виджет
type Widgets interface {
	GetOrMount(id string) *converter.Widget
}

// Bot — Telegram-интерфейс к виджету конвертера
type Bot struct {
	bot          *telebot.Bot
	widgets      Widgets
	location     *time.Location
	replyTimeout time.Duration
	logger       *slog.Logger
}

// New создаёт бота и регистрирует команды
func New(cfg Config, widgets Widgets, logger *slog.Logger) (*Bot, error) {
	if cfg.LongPollTimeout <= 0 {
		cfg.LongPollTimeout = 10 * time.Second
	}

	b, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Token,
		Poller: &telebot.LongPoller{Timeout: cfg.LongPollTimeout},
	})
	if err != nil {
		return nil, err
	}

	bot := newBot(cfg, widgets, logger)
	bot.bot = b

	// маршруты команд
	b.Handle("/start", bot.handleStart)
	b.Handle("/convert", bot.handleConvert)
	b.Handle("/amount", bot.handleAmount)
	b.Handle("/crypto", bot.handleCrypto)
	b.Handle("/currency", bot.handleCurrency)
	b.Handle("/chart", bot.handleChart)
	return bot, nil
}

func newBot(cfg Config, widgets Widgets, logger *slog.Logger) *Bot {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = 10 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Bot{
		widgets:      widgets,
		location:     cfg.Location,
		replyTimeout: cfg.ReplyTimeout,
		logger:       logger.With(slog.String("component", "bot")),
	}
}

// Start запускает long polling; блокируется до остановки контекста.
// Если контекст уже отменён, поллер не запускается.
func (b *Bot) Start(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.bot.Start()
}
