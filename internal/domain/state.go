package domain

// ConversionInput — то, что выбрал пользователь. Значение неизменяемое:
// сеттеры возвращают новую копию.
type ConversionInput struct {
	Amount   string       `json:"amount"`
	Crypto   CryptoID     `json:"crypto"`
	Currency CurrencyCode `json:"currency"`
}

// Selection — пара, для которой запрашиваются курс и история
type Selection struct {
	Crypto   CryptoID
	Currency CurrencyCode
}

// DefaultInput — состояние при монтировании виджета: 1 BTC в USD
func DefaultInput() ConversionInput {
	return ConversionInput{Amount: "1", Crypto: Bitcoin, Currency: USD}
}

func (in ConversionInput) WithAmount(amount string) ConversionInput {
	in.Amount = amount
	return in
}

func (in ConversionInput) WithCrypto(c CryptoID) ConversionInput {
	in.Crypto = c
	return in
}

func (in ConversionInput) WithCurrency(c CurrencyCode) ConversionInput {
	in.Currency = c
	return in
}

func (in ConversionInput) Selection() Selection {
	return Selection{Crypto: in.Crypto, Currency: in.Currency}
}

// PricePoint — одна точка исторического ряда
type PricePoint struct {
	Timestamp int64   `json:"timestamp"` // unix ms
	Price     float64 `json:"price"`
}

// HistoricalSeries — цены за последние 7 дней в хронологическом порядке
type HistoricalSeries []PricePoint

// State — полный снимок виджета. Rate и History заменяются целиком.
type State struct {
	Input   ConversionInput
	Rate    float64
	History HistoricalSeries
}

func NewState(in ConversionInput) State {
	return State{Input: in}
}

func (s State) WithInput(in ConversionInput) State {
	s.Input = in
	return s
}

func (s State) WithRate(rate float64) State {
	s.Rate = rate
	return s
}

func (s State) WithHistory(h HistoricalSeries) State {
	s.History = h
	return s
}
