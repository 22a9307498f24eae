package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/segment"
)

// KPI сравнивает показатель текущего периода с предыдущим.
type KPI struct {
	Current   decimal.Decimal `json:"current"`
	Previous  decimal.Decimal `json:"previous"`
	ChangePct float64         `json:"changePct"`
}

func newKPI(cur, prev decimal.Decimal) KPI {
	return KPI{Current: cur, Previous: prev, ChangePct: PercentChange(cur, prev)}
}

// KPIs содержит показатели для карточек панели.
type KPIs struct {
	Revenue       KPI `json:"revenue"`
	Orders        KPI `json:"orders"`
	AvgOrderValue KPI `json:"avgOrderValue"`
	ItemsSold     KPI `json:"itemsSold"`
}

// PercentChange возвращает изменение cur относительно prev в процентах.
// Без данных за предыдущий период изменение равно нулю.
func PercentChange(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		return 0
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}

type totals struct {
	revenue decimal.Decimal
	orders  int64
	items   int64
}

func (t totals) avg() decimal.Decimal {
	if t.orders == 0 {
		return decimal.Zero
	}
	return t.revenue.Div(decimal.NewFromInt(t.orders)).Round(2)
}

func sum(orders []model.Order, w Window, conv Converter) totals {
	t := totals{revenue: decimal.Zero}
	for _, o := range orders {
		if !w.Contains(o.CreatedAt) {
			continue
		}
		t.orders++
		t.revenue = t.revenue.Add(conv.FromBaseToAdmin(o.Total))
		for _, item := range o.Items {
			t.items += int64(item.Quantity)
		}
	}
	return t
}

// KPIDeltas сравнивает окно w с предыдущим окном той же длины.
func KPIDeltas(orders []model.Order, w Window, conv Converter) KPIs {
	cur := sum(orders, w, conv)
	prev := sum(orders, w.Previous(), conv)

	return KPIs{
		Revenue:       newKPI(cur.revenue, prev.revenue),
		Orders:        newKPI(decimal.NewFromInt(cur.orders), decimal.NewFromInt(prev.orders)),
		AvgOrderValue: newKPI(cur.avg(), prev.avg()),
		ItemsSold:     newKPI(decimal.NewFromInt(cur.items), decimal.NewFromInt(prev.items)),
	}
}

// SegmentCount содержит число покупателей в сегменте.
type SegmentCount struct {
	Segment segment.Segment `json:"segment"`
	Count   int             `json:"count"`
}

// SegmentBreakdown считает покупателей по сегментам. Все сегменты присутствуют в результате.
func SegmentBreakdown(customers []model.Customer, now time.Time) []SegmentCount {
	counts := make(map[segment.Segment]int, len(segment.All))
	for _, c := range customers {
		counts[segment.Calculate(c, now)]++
	}

	out := make([]SegmentCount, len(segment.All))
	for i, s := range segment.All {
		out[i] = SegmentCount{Segment: s, Count: counts[s]}
	}
	return out
}
