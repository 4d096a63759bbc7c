package httptransport

import (
	"errors"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/ports/errcode"
	"github.com/NastyaGoryachaya/crypto-converter/internal/session"
)

var ErrBadRequest = errors.New("bad request")

func FromServiceError(err error) errcode.Code {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return errcode.NotFoundWidget
	case errors.Is(err, domain.ErrUnknownCrypto):
		return errcode.UnknownCrypto
	case errors.Is(err, domain.ErrUnknownCurrency):
		return errcode.UnknownCurrency
	case errors.Is(err, ErrBadRequest):
		return errcode.BadRequest
	default:
		return errcode.Internal
	}
}
