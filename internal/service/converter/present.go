package converter

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
)

const (
	ChartTitle = "Price Fluctuation (Last 7 Days)"
	ChartLabel = "Price"
)

// View — то, что показывается пользователю. Пересчитывается на каждый рендер.
type View struct {
	Amount    string              `json:"amount"`
	Crypto    domain.CryptoID     `json:"crypto"`
	Currency  domain.CurrencyCode `json:"currency"`
	Rate      float64             `json:"rate"`
	Converted string              `json:"converted"`
	Summary   string              `json:"summary"`
	Chart     *Chart              `json:"chart,omitempty"`
}

// Chart — данные для линейного графика; подписи и значения идут парами
type Chart struct {
	Title  string    `json:"title"`
	Label  string    `json:"label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Present — чистое отображение состояния в представление
func Present(s domain.State, loc Locale) View {
	amount := ParseAmount(s.Input.Amount)
	converted := amount * s.Rate
	if converted == 0 {
		converted = 0 // без "-0.00"
	}

	v := View{
		Amount:    s.Input.Amount,
		Crypto:    s.Input.Crypto,
		Currency:  s.Input.Currency,
		Rate:      s.Rate,
		Converted: humanPrice(converted),
	}
	v.Summary = fmt.Sprintf("%s %s = %s %s",
		strconv.FormatFloat(amount, 'f', -1, 64),
		DisplayLabel(s.Input.Crypto.String()),
		v.Converted,
		DisplayLabel(s.Input.Currency.String()),
	)

	if len(s.History) > 0 {
		v.Chart = &Chart{
			Title:  ChartTitle,
			Label:  ChartLabel,
			Labels: make([]string, 0, len(s.History)),
			Values: make([]float64, 0, len(s.History)),
		}
		for _, p := range s.History {
			v.Chart.Labels = append(v.Chart.Labels, loc.FormatDate(time.UnixMilli(p.Timestamp)))
			v.Chart.Values = append(v.Chart.Values, p.Price)
		}
	}
	return v
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount — число из начала строки ("12abc" -> 12); если числа нет, 0.
func ParseAmount(s string) float64 {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// humanPrice — форматирование числа с двумя знаками после запятой.
func humanPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
