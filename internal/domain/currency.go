package domain

import (
	"errors"
	"strings"
)

var (
	ErrUnknownCrypto   = errors.New("unknown crypto")
	ErrUnknownCurrency = errors.New("unknown currency")
)

// CryptoID — идентификатор монеты в терминах CoinGecko (bitcoin, ethereum, ...)
type CryptoID string

const (
	Bitcoin  CryptoID = "bitcoin"
	Ethereum CryptoID = "ethereum"
	Dogecoin CryptoID = "dogecoin"
	Litecoin CryptoID = "litecoin"
)

// CurrencyCode — фиатная валюта, в которой считается цена
type CurrencyCode string

const (
	USD CurrencyCode = "usd"
	EUR CurrencyCode = "eur"
	GBP CurrencyCode = "gbp"
	INR CurrencyCode = "inr"
)

// Порядок важен: в таком виде списки показываются в селекторах
var (
	Cryptos    = []CryptoID{Bitcoin, Ethereum, Dogecoin, Litecoin}
	Currencies = []CurrencyCode{USD, EUR, GBP, INR}
)

// ParseCryptoID — приводит пользовательский ввод к одному из поддерживаемых CryptoID
func ParseCryptoID(s string) (CryptoID, error) {
	id := CryptoID(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range Cryptos {
		if c == id {
			return c, nil
		}
	}
	return "", ErrUnknownCrypto
}

// ParseCurrencyCode — приводит пользовательский ввод к одной из поддерживаемых валют
func ParseCurrencyCode(s string) (CurrencyCode, error) {
	code := CurrencyCode(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range Currencies {
		if c == code {
			return c, nil
		}
	}
	return "", ErrUnknownCurrency
}

func (c CryptoID) String() string     { return string(c) }
func (c CurrencyCode) String() string { return string(c) }
