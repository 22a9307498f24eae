package segment

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/beauty-storefront/internal/model"
)

var vipSpendThreshold = decimal.NewFromInt(vipTotalSpent)

// Weights задаёт коэффициенты и потолки слагаемых оценки покупателя.
// Каждое слагаемое ограничивается своим потолком до суммирования.
type Weights struct {
	OrderCountFactor float64
	OrderCountCap    float64
	SpendFactor      float64
	SpendCap         float64
	RecencyMax       float64
	AOVFactor        float64
	AOVCap           float64
}

// DefaultWeights содержит веса, на которых построены все существующие оценки.
// Изменение любого значения меняет оценку всех покупателей.
var DefaultWeights = Weights{
	OrderCountFactor: 10,
	OrderCountCap:    30,
	SpendFactor:      0.01,
	SpendCap:         30,
	RecencyMax:       20,
	AOVFactor:        0.05,
	AOVCap:           20,
}

const maxScore = 100

// Score вычисляет оценку покупателя в диапазоне [0, 100] с весами по умолчанию.
func Score(c model.Customer, now time.Time) int {
	return DefaultWeights.Score(c, now)
}

// Score вычисляет оценку покупателя в диапазоне [0, 100].
func (w Weights) Score(c model.Customer, now time.Time) int {
	sum := w.orderTerm(c.OrderCount) +
		w.spendTerm(c.TotalSpent) +
		w.recencyTerm(c, now) +
		w.aovTerm(c.AvgOrderValue)

	return int(math.Round(clamp(sum, 0, maxScore)))
}

func (w Weights) orderTerm(orderCount int) float64 {
	return clamp(float64(orderCount)*w.OrderCountFactor, 0, w.OrderCountCap)
}

func (w Weights) spendTerm(totalSpent decimal.Decimal) float64 {
	return clamp(totalSpent.InexactFloat64()*w.SpendFactor, 0, w.SpendCap)
}

func (w Weights) aovTerm(avg decimal.Decimal) float64 {
	return clamp(avg.InexactFloat64()*w.AOVFactor, 0, w.AOVCap)
}

func (w Weights) recencyTerm(c model.Customer, now time.Time) float64 {
	days, ok := DaysSinceLastOrder(c, now)
	if !ok {
		return 0
	}
	switch {
	case days < 7:
		return w.RecencyMax
	case days < 30:
		return w.RecencyMax * 0.7
	case days < 60:
		return w.RecencyMax * 0.3
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
