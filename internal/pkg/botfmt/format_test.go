package botfmt

import (
	"testing"

	"github.com/NastyaGoryachaya/crypto-converter/internal/domain"
	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
	"github.com/stretchr/testify/assert"
)

func TestFormatView(t *testing.T) {
	v := converter.View{
		Currency: domain.USD,
		Rate:     20000,
		Summary:  "2.5 BITCOIN = 50000.00 USD",
	}
	assert.Equal(t, "2.5 BITCOIN = 50000.00 USD\nКурс: 20000.00 USD", FormatView(v))
}

func TestFormatView_CurrencyLabel(t *testing.T) {
	v := converter.View{Currency: domain.INR, Rate: 1.5, Summary: "1 LITECOIN = 1.50 INR"}
	assert.Equal(t, "1 LITECOIN = 1.50 INR\nКурс: 1.50 "+converter.DisplayLabel("inr"), FormatView(v))
}

func TestFormatChart_DailyCloses(t *testing.T) {
	c := &converter.Chart{
		Title:  converter.ChartTitle,
		Labels: []string{"11/14/2023", "11/14/2023", "11/15/2023", "11/16/2023", "11/16/2023"},
		Values: []float64{1, 2, 3, 4, 5.5},
	}
	want := converter.ChartTitle +
		"\n11/14/2023: 2.00" +
		"\n11/15/2023: 3.00" +
		"\n11/16/2023: 5.50"
	assert.Equal(t, want, FormatChart(c))
}

func TestFormatChart_Empty(t *testing.T) {
	assert.Equal(t, "Нет данных за последние 7 дней", FormatChart(nil))
}
