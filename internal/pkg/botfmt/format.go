package botfmt

import (
	"fmt"
	"strings"

	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
)

// FormatView — ответ на /convert и смену параметров
func FormatView(v converter.View) string {
	return fmt.Sprintf("%s\nКурс: %s %s",
		v.Summary,
		humanPrice(v.Rate),
		converter.DisplayLabel(v.Currency.String()),
	)
}

// FormatChart — график текстом: последняя цена за каждый день
func FormatChart(c *converter.Chart) string {
	if c == nil || len(c.Labels) == 0 {
		return "Нет данных за последние 7 дней"
	}

	var bld strings.Builder
	bld.WriteString(c.Title)
	for i := 0; i < len(c.Labels); i++ {
		// несколько точек в один день — берём последнюю
		if i+1 < len(c.Labels) && c.Labels[i+1] == c.Labels[i] {
			continue
		}
		fmt.Fprintf(&bld, "\n%s: %s", c.Labels[i], humanPrice(c.Values[i]))
	}
	return bld.String()
}

// humanPrice — форматирование числа с двумя знаками после запятой.
func humanPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
