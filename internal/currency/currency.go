// Package currency пересчитывает суммы из базовой валюты магазина в валюты отображения и форматирует их.
package currency

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Code содержит ISO-код валюты.
type Code string

// Base задаёт валюту, в которой хранятся все суммы.
const Base Code = "MAD"

// Currency описывает курс и правила отображения валюты.
type Currency struct {
	Code        Code
	Rate        decimal.Decimal
	Decimals    int32
	Symbol      string
	SymbolFirst bool
}

var defaultTable = map[Code]Currency{
	"MAD": {Code: "MAD", Rate: decimal.NewFromInt(1), Decimals: 2, Symbol: "DH"},
	"EUR": {Code: "EUR", Rate: decimal.RequireFromString("0.092"), Decimals: 2, Symbol: "€", SymbolFirst: true},
	"USD": {Code: "USD", Rate: decimal.RequireFromString("0.10"), Decimals: 2, Symbol: "$", SymbolFirst: true},
	"GBP": {Code: "GBP", Rate: decimal.RequireFromString("0.079"), Decimals: 2, Symbol: "£", SymbolFirst: true},
	"SAR": {Code: "SAR", Rate: decimal.RequireFromString("0.375"), Decimals: 2, Symbol: "SAR"},
	"AED": {Code: "AED", Rate: decimal.RequireFromString("0.367"), Decimals: 2, Symbol: "AED"},
	"KWD": {Code: "KWD", Rate: decimal.RequireFromString("0.0307"), Decimals: 3, Symbol: "KWD"},
	"TND": {Code: "TND", Rate: decimal.RequireFromString("0.31"), Decimals: 3, Symbol: "DT"},
	"XOF": {Code: "XOF", Rate: decimal.RequireFromString("60.4"), Decimals: 0, Symbol: "CFA"},
}

// Supported возвращает отсортированный список поддерживаемых валют.
func Supported() []Code {
	codes := make([]Code, 0, len(defaultTable))
	for c := range defaultTable {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Parse нормализует код валюты и сообщает, известен ли он.
func Parse(s string) (Code, bool) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := defaultTable[c]
	return c, ok
}

// Option настраивает Converter.
type Option func(*Converter)

// WithFallbackHook задаёт функцию, вызываемую при обращении к неизвестной валюте.
func WithFallbackHook(fn func(Code)) Option {
	return func(c *Converter) {
		c.onFallback = fn
	}
}

// WithTable подменяет таблицу курсов.
func WithTable(table map[Code]Currency) Option {
	return func(c *Converter) {
		c.table = table
	}
}

// Converter пересчитывает суммы по фиксированной таблице курсов.
// Валюта администратора неизменяема: для другой валюты используйте WithAdmin.
type Converter struct {
	table      map[Code]Currency
	admin      Code
	onFallback func(Code)
}

// NewConverter создаёт конвертер с указанной валютой отображения для администратора.
func NewConverter(admin Code, opts ...Option) *Converter {
	c := &Converter{
		table: defaultTable,
		admin: admin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAdmin возвращает копию конвертера с другой валютой администратора.
func (c *Converter) WithAdmin(admin Code) *Converter {
	cp := *c
	cp.admin = admin
	return &cp
}

// Admin возвращает текущую валюту отображения администратора.
func (c *Converter) Admin() Code {
	return c.admin
}

// Lookup возвращает описание валюты. Для неизвестного кода возвращается
// описание с курсом 1 и признаком ok = false.
func (c *Converter) Lookup(code Code) (Currency, bool) {
	cur, ok := c.table[code]
	if ok {
		return cur, true
	}
	if c.onFallback != nil {
		c.onFallback(code)
	}
	return Currency{Code: code, Rate: decimal.NewFromInt(1), Decimals: 2, Symbol: string(code)}, false
}

// Convert переводит сумму из базовой валюты в target.
func (c *Converter) Convert(amount decimal.Decimal, target Code) decimal.Decimal {
	cur, _ := c.Lookup(target)
	return amount.Mul(cur.Rate)
}

// ToBase переводит сумму из валюты from обратно в базовую.
func (c *Converter) ToBase(amount decimal.Decimal, from Code) decimal.Decimal {
	cur, _ := c.Lookup(from)
	if cur.Rate.IsZero() {
		return amount
	}
	return amount.Div(cur.Rate)
}

// ConvertToAdmin переводит сумму из валюты from в валюту администратора.
func (c *Converter) ConvertToAdmin(amount decimal.Decimal, from Code) decimal.Decimal {
	if from == c.admin {
		return amount
	}
	return c.Convert(c.ToBase(amount, from), c.admin)
}

// FromBaseToAdmin переводит хранимую сумму в валюту администратора.
func (c *Converter) FromBaseToAdmin(amount decimal.Decimal) decimal.Decimal {
	return c.Convert(amount, c.admin)
}

// Format форматирует сумму, уже выраженную в валюте code.
func (c *Converter) Format(amount decimal.Decimal, code Code) string {
	cur, _ := c.Lookup(code)

	rounded := amount.Round(cur.Decimals)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	p := message.NewPrinter(language.English)
	digits := p.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(int(cur.Decimals))))

	if cur.SymbolFirst {
		return sign + cur.Symbol + digits
	}
	return sign + digits + " " + cur.Symbol
}

// FormatAdmin переводит хранимую сумму в валюту администратора и форматирует её.
func (c *Converter) FormatAdmin(amount decimal.Decimal) string {
	return c.Format(c.FromBaseToAdmin(amount), c.admin)
}
