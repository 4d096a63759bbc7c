package bot

import (
	"errors"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/ports/errcode"
)

func codeOf(err error) errcode.Code {
	switch {
	case errors.Is(err, domain.ErrUnknownCrypto):
		return errcode.UnknownCrypto
	case errors.Is(err, domain.ErrUnknownCurrency):
		return errcode.UnknownCurrency
	case errors.Is(err, ErrBadArgs):
		return errcode.BadRequest
	default:
		return errcode.Internal
	}
}

func translateBotError(err error) string {
	switch codeOf(err) {
	case errcode.UnknownCrypto:
		return "Монета не поддерживается. Доступны: bitcoin, ethereum, dogecoin, litecoin"
	case errcode.UnknownCurrency:
		return "Валюта не поддерживается. Доступны: usd, eur, gbp, inr"
	case errcode.BadRequest:
		return "Не понял аргументы. Пример: /convert 2.5 ethereum eur"
	default:
		return "Внутренняя ошибка сервиса, попробуйте позже"
	}
}
