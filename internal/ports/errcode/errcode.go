package errcode

type Code string

const (
	NotFoundWidget Code = "WIDGET_NOT_FOUND"

	UnknownCrypto   Code = "UNKNOWN_CRYPTO"
	UnknownCurrency Code = "UNKNOWN_CURRENCY"

	BadRequest Code = "BAD_REQUEST"
	Internal   Code = "INTERNAL_ERROR"
)
