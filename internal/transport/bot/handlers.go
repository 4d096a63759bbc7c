package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"gopkg.in/telebot.v4"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/pkg/botfmt"
	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
)

var ErrBadArgs = errors.New("bad arguments")

// handleStart — отправляет справку по доступным командам бота
func (b *Bot) handleStart(c telebot.Context) error {
	return c.Send("Привет! Доступные команды:\n" +
		"/convert [сумма] [монета] [валюта] - пересчитать, например /convert 2.5 ethereum eur\n" +
		"/amount {сумма} - изменить сумму\n" +
		"/crypto {монета} - bitcoin, ethereum, dogecoin, litecoin\n" +
		"/currency {валюта} - usd, eur, gbp, inr\n" +
		"/chart - цена за последние 7 дней")
}

// handleConvert — без аргументов показывает текущий результат, с аргументами меняет ввод
func (b *Bot) handleConvert(c telebot.Context) error {
	patch, err := parseConvertArgs(c.Args())
	if err != nil {
		return c.Send(translateBotError(err))
	}
	return b.reply(c, patch, false)
}

func (b *Bot) handleAmount(c telebot.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Укажи сумму: /amount 2.5")
	}
	return b.reply(c, converter.Patch{Amount: &args[0]}, false)
}

func (b *Bot) handleCrypto(c telebot.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Укажи монету: /crypto ethereum")
	}
	id, err := domain.ParseCryptoID(args[0])
	if err != nil {
		return c.Send(translateBotError(err))
	}
	return b.reply(c, converter.Patch{Crypto: &id}, false)
}

func (b *Bot) handleCurrency(c telebot.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Укажи валюту: /currency eur")
	}
	code, err := domain.ParseCurrencyCode(args[0])
	if err != nil {
		return c.Send(translateBotError(err))
	}
	return b.reply(c, converter.Patch{Currency: &code}, false)
}

func (b *Bot) handleChart(c telebot.Context) error {
	return b.reply(c, converter.Patch{}, true)
}

func (b *Bot) reply(c telebot.Context, patch converter.Patch, chart bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.replyTimeout)
	defer cancel()

	text := b.render(ctx, c.Chat().ID, patch, chart)
	if err := c.Send(text); err != nil {
		b.logger.Error("send failed",
			slog.Int64("chat_id", c.Chat().ID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// render — применяет изменения к виджету чата, ждёт запросы и форматирует ответ.
// Если CoinGecko не успел ответить, показываем то, что есть.
func (b *Bot) render(ctx context.Context, chatID int64, patch converter.Patch, chart bool) string {
	w := b.widgets.GetOrMount(widgetID(chatID))
	w.Apply(patch)
	if err := w.Wait(ctx); err != nil {
		b.logger.Warn("reply without fresh data",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}

	v := converter.Present(w.Snapshot(), converter.ResolveLocale("", b.location))
	if chart {
		return botfmt.FormatChart(v.Chart)
	}
	return botfmt.FormatView(v)
}

// parseConvertArgs — аргументы в любом порядке: монета и валюта узнаются по списку,
// остальное считается суммой
func parseConvertArgs(args []string) (converter.Patch, error) {
	var p converter.Patch
	for _, a := range args {
		if id, err := domain.ParseCryptoID(a); err == nil {
			p.Crypto = &id
			continue
		}
		if code, err := domain.ParseCurrencyCode(a); err == nil {
			p.Currency = &code
			continue
		}
		if p.Amount != nil {
			return converter.Patch{}, fmt.Errorf("%w: unexpected %q", ErrBadArgs, a)
		}
		amount := a
		p.Amount = &amount
	}
	return p, nil
}

func widgetID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}
