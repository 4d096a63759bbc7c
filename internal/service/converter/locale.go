package converter

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
)

// Locale — как показывать даты на графике
type Locale struct {
	Tag        language.Tag
	DateLayout string
	Location   *time.Location
}

type dateFormat struct {
	tag    language.Tag
	layout string
}

// первый элемент — значение по умолчанию для матчера
var dateFormats = []dateFormat{
	{tag: language.AmericanEnglish, layout: "1/2/2006"},
	{tag: language.BritishEnglish, layout: "02/01/2006"},
	{tag: language.MustParse("en-IN"), layout: "2/1/2006"},
	{tag: language.German, layout: "2.1.2006"},
	{tag: language.French, layout: "02/01/2006"},
	{tag: language.Russian, layout: "02.01.2006"},
}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(dateFormats))
	for _, f := range dateFormats {
		tags = append(tags, f.tag)
	}
	return language.NewMatcher(tags)
}()

// ResolveLocale — подбирает формат даты по заголовку Accept-Language
func ResolveLocale(acceptLanguage string, loc *time.Location) Locale {
	if loc == nil {
		loc = time.UTC
	}
	_, idx := language.MatchStrings(localeMatcher, acceptLanguage)
	f := dateFormats[idx]
	return Locale{Tag: f.tag, DateLayout: f.layout, Location: loc}
}

// DefaultLocale — en-US в UTC
func DefaultLocale() Locale {
	return ResolveLocale("", time.UTC)
}

func (l Locale) FormatDate(t time.Time) string {
	loc := l.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := l.DateLayout
	if layout == "" {
		layout = dateFormats[0].layout
	}
	return t.In(loc).Format(layout)
}

// Option — пункт селектора
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type OptionSet struct {
	Cryptos    []Option `json:"cryptos"`
	Currencies []Option `json:"currencies"`
}

// DisplayLabel — подпись монеты или валюты для пользователя: "bitcoin" -> "BITCOIN".
// Caser не потокобезопасен, поэтому создаётся на каждый вызов.
func DisplayLabel(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Options — списки монет и валют с подписями в верхнем регистре
func Options() OptionSet {
	out := OptionSet{
		Cryptos:    make([]Option, 0, len(domain.Cryptos)),
		Currencies: make([]Option, 0, len(domain.Currencies)),
	}
	for _, c := range domain.Cryptos {
		out.Cryptos = append(out.Cryptos, Option{Value: c.String(), Label: DisplayLabel(c.String())})
	}
	for _, c := range domain.Currencies {
		out.Currencies = append(out.Currencies, Option{Value: c.String(), Label: DisplayLabel(c.String())})
	}
	return out
}
