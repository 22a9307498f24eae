// Package segment классифицирует покупателей по сегментам и вычисляет их оценку.
//
// Сегмент и оценка не хранятся: они пересчитываются при каждом чтении
// из поведенческих полей покупателя и момента now, переданного вызывающей стороной.
package segment

import (
	"math"
	"time"

	"github.com/mmeshcher/beauty-storefront/internal/model"
)

// Segment описывает сегмент покупателя.
type Segment string

const (
	SegmentNew       Segment = "NEW"
	SegmentReturning Segment = "RETURNING"
	SegmentVIP       Segment = "VIP"
	SegmentAtRisk    Segment = "AT_RISK"
	SegmentInactive  Segment = "INACTIVE"
)

// All перечисляет сегменты в порядке отображения.
var All = []Segment{SegmentNew, SegmentReturning, SegmentVIP, SegmentAtRisk, SegmentInactive}

// Пороги сегментации.
const (
	inactiveAfterDays = 90
	atRiskAfterDays   = 60
	vipOrderCount     = 5
	vipTotalSpent     = 2000
	returningOrders   = 2
)

// DaysSinceLastOrder возвращает число полных суток с последнего заказа.
// ok == false, если заказов не было.
func DaysSinceLastOrder(c model.Customer, now time.Time) (int, bool) {
	if c.LastOrderDate == nil || c.LastOrderDate.IsZero() {
		return 0, false
	}
	days := math.Floor(now.Sub(*c.LastOrderDate).Hours() / 24)
	return int(days), true
}

// Calculate определяет сегмент покупателя. Давность заказа важнее суммы:
// ушедший покупатель остаётся INACTIVE независимо от потраченного.
func Calculate(c model.Customer, now time.Time) Segment {
	days, ok := DaysSinceLastOrder(c, now)
	if !ok || days > inactiveAfterDays {
		return SegmentInactive
	}
	if days > atRiskAfterDays {
		return SegmentAtRisk
	}
	if c.OrderCount >= vipOrderCount || c.TotalSpent.GreaterThanOrEqual(vipSpendThreshold) {
		return SegmentVIP
	}
	if c.OrderCount >= returningOrders {
		return SegmentReturning
	}
	return SegmentNew
}

// Profile объединяет производные характеристики покупателя.
type Profile struct {
	Segment            Segment `json:"segment"`
	Score              int     `json:"score"`
	DaysSinceLastOrder *int    `json:"daysSinceLastOrder,omitempty"`
}

// Evaluate вычисляет сегмент и оценку с весами по умолчанию.
func Evaluate(c model.Customer, now time.Time) Profile {
	p := Profile{
		Segment: Calculate(c, now),
		Score:   DefaultWeights.Score(c, now),
	}
	if days, ok := DaysSinceLastOrder(c, now); ok {
		p.DaysSinceLastOrder = &days
	}
	return p
}
