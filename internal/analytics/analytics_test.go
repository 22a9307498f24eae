package analytics

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/beauty-storefront/internal/currency"
	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/segment"
)

var (
	now  = time.Date(2025, time.March, 15, 15, 0, 0, 0, time.UTC)
	conv = currency.NewConverter(currency.Base)
)

func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

func order(id string, created time.Time, total int64, city string, items ...model.LineItem) model.Order {
	return model.Order{
		ID:        id,
		Status:    model.OrderStatusPending,
		Total:     decimal.NewFromInt(total),
		CreatedAt: created,
		Shipping:  model.Shipping{City: city},
		Items:     items,
	}
}

func item(name, category string, price int64, qty int) model.LineItem {
	return model.LineItem{Name: name, Category: category, Price: decimal.NewFromInt(price), Quantity: qty}
}

func TestWindow(t *testing.T) {
	w := NewWindow(now, 7, time.UTC)

	assert.Equal(t, at(9, 0), w.Start())
	assert.Equal(t, at(16, 0), w.Until())
	assert.True(t, w.Contains(at(9, 0)))
	assert.True(t, w.Contains(time.Date(2025, time.March, 15, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(at(16, 0)))
	assert.False(t, w.Contains(time.Date(2025, time.March, 8, 23, 59, 59, 0, time.UTC)))

	prev := w.Previous()
	assert.Equal(t, at(2, 0), prev.Start())
	assert.Equal(t, at(9, 0), prev.Until())
}

func TestWindowAcrossMidnightClockChange(t *testing.T) {
	// в Сантьяго 6 сентября 2026 года часы переводятся с 00:00 на 01:00
	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	w := NewWindow(time.Date(2026, time.September, 12, 18, 0, 0, 0, loc), 14, loc)
	assert.Equal(t, time.Date(2026, time.August, 30, 0, 0, 0, 0, loc), w.Start())
	assert.Equal(t, time.Date(2026, time.September, 13, 0, 0, 0, 0, loc), w.Until())

	orders := []model.Order{
		order("first", time.Date(2026, time.August, 30, 0, 0, 0, 0, loc), 10, "Santiago"),
		order("short-day", time.Date(2026, time.September, 6, 1, 30, 0, 0, loc), 20, "Santiago"),
		order("after", time.Date(2026, time.September, 8, 12, 0, 0, 0, loc), 30, "Santiago"),
		order("last", time.Date(2026, time.September, 12, 23, 59, 0, 0, loc), 40, "Santiago"),
		order("next", time.Date(2026, time.September, 13, 0, 0, 0, 0, loc), 50, "Santiago"),
	}

	got := DailySeries(orders, w, conv)
	require.Len(t, got, 14)
	for i, p := range got {
		want := time.Date(2026, time.August, 30+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		assert.Equal(t, want, p.Date, "bucket %d", i)
	}

	counts := map[string]int{}
	for _, p := range got {
		if p.OrderCount > 0 {
			counts[p.Date] = p.OrderCount
		}
	}
	assert.Equal(t, map[string]int{
		"2026-08-30": 1,
		"2026-09-06": 1,
		"2026-09-08": 1,
		"2026-09-12": 1,
	}, counts)

	short := NewWindow(time.Date(2026, time.September, 6, 12, 0, 0, 0, loc), 1, loc)
	firstInstant := time.Date(2026, time.September, 6, 1, 0, 0, 0, loc)
	assert.Equal(t, 6, short.Start().In(loc).Day())
	assert.False(t, short.Start().After(firstInstant))
	assert.True(t, short.Contains(firstInstant))
	assert.False(t, short.Contains(firstInstant.Add(-time.Second)))
}

func TestSeriesWithUnnormalizedWindow(t *testing.T) {
	w := Window{End: now, Days: -1}

	require.Len(t, DailySeries(nil, w, conv), 1)
	assert.Equal(t, 1, BuildDashboard(nil, nil, w, conv, Options{}).Days)
	assert.Equal(t, 28, Span(w, 4).Days)
}

func TestDailySeriesZeroFilled(t *testing.T) {
	for _, days := range []int{1, 7, 30} {
		got := DailySeries(nil, NewWindow(now, days, time.UTC), conv)
		require.Len(t, got, days)
		for _, p := range got {
			assert.Zero(t, p.OrderCount)
			assert.True(t, p.Revenue.IsZero())
		}
	}
}

func TestDailySeries(t *testing.T) {
	orders := []model.Order{
		order("a", at(15, 10), 100, "Rabat"),
		order("b", at(15, 22), 50, "Rabat"),
		order("c", at(9, 0), 30, "Rabat"),
		order("old", at(8, 23), 999, "Rabat"),
		order("future", at(16, 1), 999, "Rabat"),
	}

	got := DailySeries(orders, NewWindow(now, 7, time.UTC), conv)
	require.Len(t, got, 7)

	assert.Equal(t, "2025-03-09", got[0].Date)
	assert.Equal(t, "Sun", got[0].DayLabel)
	assert.Equal(t, 1, got[0].OrderCount)
	assert.True(t, decimal.NewFromInt(30).Equal(got[0].Revenue))

	assert.Equal(t, "2025-03-15", got[6].Date)
	assert.Equal(t, 2, got[6].OrderCount)
	assert.True(t, decimal.NewFromInt(150).Equal(got[6].Revenue))

	for _, p := range got[1:6] {
		assert.Zero(t, p.OrderCount)
	}
}

func TestDailySeriesConvertsToAdminCurrency(t *testing.T) {
	orders := []model.Order{order("a", at(15, 10), 100, "Rabat")}
	got := DailySeries(orders, NewWindow(now, 1, time.UTC), conv.WithAdmin("EUR"))
	require.Len(t, got, 1)
	assert.True(t, decimal.RequireFromString("9.2").Equal(got[0].Revenue), "revenue = %s", got[0].Revenue)
}

func TestDailySeriesUsesWindowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	// 23:30 UTC 14 марта по местному времени уже 15 марта
	orders := []model.Order{order("a", time.Date(2025, time.March, 14, 23, 30, 0, 0, time.UTC), 10, "Rabat")}

	got := DailySeries(orders, NewWindow(now, 2, loc), conv)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].OrderCount)
	assert.Equal(t, 1, got[1].OrderCount)
}

func TestWeeklySeries(t *testing.T) {
	orders := []model.Order{
		order("a", at(15, 10), 100, "Rabat"),
		order("b", at(9, 10), 20, "Rabat"),
		order("c", at(8, 10), 5, "Rabat"),
		order("d", at(1, 10), 7, "Rabat"),
	}

	got := WeeklySeries(orders, NewWindow(now, 7, time.UTC), 3, conv)
	require.Len(t, got, 3)

	assert.Equal(t, "2025-02-23", got[0].WeekStart)
	assert.Equal(t, 1, got[0].OrderCount)
	assert.True(t, decimal.NewFromInt(7).Equal(got[0].Revenue))
	assert.Equal(t, "2025-03-02", got[1].WeekStart)
	assert.Equal(t, 1, got[1].OrderCount)
	assert.True(t, decimal.NewFromInt(5).Equal(got[1].Revenue))
	assert.Equal(t, "2025-03-09", got[2].WeekStart)
	assert.Equal(t, 2, got[2].OrderCount)
	assert.True(t, decimal.NewFromInt(120).Equal(got[2].Revenue))
}

func TestHourlyDistribution(t *testing.T) {
	orders := []model.Order{
		order("a", at(15, 9), 10, "Rabat"),
		order("b", at(14, 9), 15, "Rabat"),
		order("c", at(10, 21), 5, "Rabat"),
		order("old", at(1, 9), 100, "Rabat"),
	}

	got := HourlyDistribution(orders, NewWindow(now, 7, time.UTC), conv)
	require.Len(t, got, 24)
	assert.Equal(t, "09:00", got[9].Label)
	assert.Equal(t, 2, got[9].OrderCount)
	assert.True(t, decimal.NewFromInt(25).Equal(got[9].Revenue))
	assert.Equal(t, 1, got[21].OrderCount)

	empty := HourlyDistribution(nil, NewWindow(now, 7, time.UTC), conv)
	require.Len(t, empty, 24)
	assert.Equal(t, 0, empty[0].Hour)
	assert.Equal(t, 23, empty[23].Hour)
}

func TestCategorySales(t *testing.T) {
	orders := []model.Order{
		order("a", at(14, 10), 0, "Rabat",
			item("Serum", "skincare", 100, 3),    // 300
			item("Lipstick", "Maquillage", 50, 5), // 250 makeup
			item("Shampoo", "haircare", 40, 5),    // 200
			item("Perfume", "fragrance", 150, 1),  // 150
		),
		order("b", at(13, 10), 0, "Rabat",
			item("Polish", "nails", 20, 6),     // 120
			item("Brush", "tools", 10, 3),      // 30
			item("Gift", "", 25, 1),            // 25 other
			item("Lip gloss", "makeup", 10, 1), // +10 makeup
			item("Candle", "home", 10, 1),      // 10
		),
		order("old", at(1, 10), 0, "Rabat", item("Serum", "skincare", 1000, 1)),
	}

	got := CategorySales(orders, NewWindow(now, 7, time.UTC), conv)
	require.Len(t, got, 6)

	wantOrder := []string{"skincare", "makeup", "haircare", "fragrance", "nails", "other"}
	for i, want := range wantOrder {
		assert.Equal(t, want, got[i].Category, "rank %d", i)
		assert.Equal(t, Palette[i], got[i].Color)
	}

	assert.True(t, decimal.NewFromInt(260).Equal(got[1].Value), "makeup aliases must merge, got %s", got[1].Value)
	// tools 30 + other 25 + home 10
	assert.True(t, decimal.NewFromInt(65).Equal(got[5].Value), "other = %s", got[5].Value)
	assert.InDelta(t, 27.4, got[0].Percentage, 0.05)
}

func TestCategorySalesWithoutRemainder(t *testing.T) {
	orders := []model.Order{
		order("a", at(14, 10), 0, "Rabat", item("Serum", "skincare", 100, 1), item("Gift", "", 5, 1)),
	}
	got := CategorySales(orders, NewWindow(now, 7, time.UTC), conv)
	require.Len(t, got, 2)
	assert.Equal(t, "skincare", got[0].Category)
	assert.Equal(t, "other", got[1].Category)

	assert.Empty(t, CategorySales(nil, NewWindow(now, 7, time.UTC), conv))
}

func TestCategorySalesResortsAfterMergingOther(t *testing.T) {
	orders := []model.Order{
		order("a", at(14, 10), 0, "Rabat",
			item("A", "a", 100, 1),
			item("B", "b", 90, 1),
			item("C", "c", 80, 1),
			item("D", "d", 70, 1),
			item("Gift", "", 60, 1),
			item("F", "f", 50, 1),
			item("G", "g", 50, 1),
		),
	}

	got := CategorySales(orders, NewWindow(now, 7, time.UTC), conv)
	require.Len(t, got, 5)

	wantOrder := []string{"other", "a", "b", "c", "d"}
	for i, want := range wantOrder {
		assert.Equal(t, want, got[i].Category, "rank %d", i)
		assert.Equal(t, Palette[i], got[i].Color)
	}
	assert.True(t, decimal.NewFromInt(160).Equal(got[0].Value), "other = %s", got[0].Value)
}

func TestCityDistribution(t *testing.T) {
	orders := []model.Order{
		order("1", at(10, 10), 100, "Casablanca"),
		order("2", at(11, 10), 100, "Rabat"),
		order("3", at(12, 10), 100, "Casablanca"),
		order("4", at(13, 10), 100, "casablanca"),
		order("5", at(14, 10), 100, "Casablanca "),
	}

	got := CityDistribution(orders, NewWindow(now, 7, time.UTC), conv)
	require.Len(t, got, 2)
	assert.Equal(t, CityStat{City: "Casablanca", OrderCount: 4, Revenue: got[0].Revenue}, got[0])
	assert.True(t, decimal.NewFromInt(400).Equal(got[0].Revenue))
	assert.Equal(t, "Rabat", got[1].City)
	assert.Equal(t, 1, got[1].OrderCount)
}

func TestCityDistributionTopTen(t *testing.T) {
	cities := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	var orders []model.Order
	for i, c := range cities {
		for n := 0; n <= i; n++ {
			orders = append(orders, order(c, at(12, 10), 1, c))
		}
	}
	orders = append(orders, order("none", at(12, 10), 1, ""))

	got := CityDistribution(orders, NewWindow(now, 7, time.UTC), conv)
	require.Len(t, got, 10)
	assert.Equal(t, "L", got[0].City)
	assert.Equal(t, 12, got[0].OrderCount)
	assert.Equal(t, "C", got[9].City)
}

func TestTopProducts(t *testing.T) {
	orders := []model.Order{
		order("a", at(14, 10), 0, "Rabat",
			model.LineItem{ProductID: "p1", Name: "Rose Serum", Price: decimal.NewFromInt(100), Quantity: 2},
			model.LineItem{Name: "Clay Mask", Price: decimal.NewFromInt(40), Quantity: 1},
		),
		order("b", at(13, 10), 0, "Rabat",
			model.LineItem{Name: "rose serum", Price: decimal.NewFromInt(100), Quantity: 2},
			model.LineItem{ProductID: "p9", Price: decimal.NewFromInt(5), Quantity: 3},
			model.LineItem{Name: "Clay Mask", Price: decimal.NewFromInt(40), Quantity: 2},
		),
	}

	got := TopProducts(orders, NewWindow(now, 7, time.UTC), conv, 2)
	require.Len(t, got, 2)

	assert.Equal(t, "Rose Serum", got[0].Name)
	assert.Equal(t, "p1", got[0].ProductID)
	assert.Equal(t, 4, got[0].Quantity)
	assert.True(t, decimal.NewFromInt(400).Equal(got[0].Revenue))

	// p9 и Clay Mask продали по 3 штуки, выше выручка у маски
	assert.Equal(t, "Clay Mask", got[1].Name)

	all := TopProducts(orders, NewWindow(now, 7, time.UTC), conv, 10)
	require.Len(t, all, 3)
	assert.Equal(t, "p9", all[2].Name)
}

func TestKPIDeltas(t *testing.T) {
	orders := []model.Order{
		order("cur1", at(14, 10), 150, "Rabat", item("x", "", 10, 2)),
		order("cur2", at(10, 10), 50, "Rabat", item("x", "", 10, 1)),
		order("prev", at(5, 10), 100, "Rabat", item("x", "", 10, 1)),
	}

	got := KPIDeltas(orders, NewWindow(now, 7, time.UTC), conv)

	assert.True(t, decimal.NewFromInt(200).Equal(got.Revenue.Current))
	assert.True(t, decimal.NewFromInt(100).Equal(got.Revenue.Previous))
	assert.Equal(t, 100.0, got.Revenue.ChangePct)
	assert.Equal(t, 100.0, got.Orders.ChangePct)
	assert.Equal(t, 0.0, got.AvgOrderValue.ChangePct)
	assert.Equal(t, 200.0, got.ItemsSold.ChangePct)
}

func TestKPIDeltasWithoutPreviousData(t *testing.T) {
	orders := []model.Order{order("cur", at(14, 10), 150, "Rabat")}

	got := KPIDeltas(orders, NewWindow(now, 7, time.UTC), conv)
	assert.Equal(t, 0.0, got.Revenue.ChangePct)
	assert.Equal(t, 0.0, got.Orders.ChangePct)
	assert.Equal(t, 0.0, got.AvgOrderValue.ChangePct)

	empty := KPIDeltas(nil, NewWindow(now, 7, time.UTC), conv)
	assert.Equal(t, 0.0, empty.Revenue.ChangePct)
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, -50.0, PercentChange(decimal.NewFromInt(50), decimal.NewFromInt(100)))
	assert.Equal(t, 33.3, PercentChange(decimal.NewFromInt(4), decimal.NewFromInt(3)))
	assert.Equal(t, 0.0, PercentChange(decimal.NewFromInt(4), decimal.Zero))
}

func TestSegmentBreakdown(t *testing.T) {
	recent := now.Add(-48 * time.Hour)
	old := now.Add(-100 * 24 * time.Hour)
	customers := []model.Customer{
		{OrderCount: 1, LastOrderDate: &recent},
		{OrderCount: 7, LastOrderDate: &recent},
		{OrderCount: 7, LastOrderDate: &old},
		{},
	}

	got := SegmentBreakdown(customers, now)
	require.Len(t, got, len(segment.All))

	counts := map[segment.Segment]int{}
	for _, c := range got {
		counts[c.Segment] = c.Count
	}
	assert.Equal(t, 1, counts[segment.SegmentNew])
	assert.Equal(t, 1, counts[segment.SegmentVIP])
	assert.Equal(t, 2, counts[segment.SegmentInactive])
	assert.Equal(t, 0, counts[segment.SegmentAtRisk])
}

func TestBuildDashboardIsDeterministic(t *testing.T) {
	orders := []model.Order{
		order("1", at(10, 10), 100, "Casablanca", item("A", "skincare", 10, 1), item("B", "makeup", 10, 1)),
		order("2", at(11, 12), 80, "Rabat", item("C", "nails", 10, 1), item("D", "tools", 10, 1)),
		order("3", at(12, 14), 60, "Fes", item("E", "fragrance", 10, 1), item("F", "haircare", 10, 1)),
		order("4", at(13, 16), 40, "Tanger", item("G", "bodycare", 10, 1)),
	}
	w := NewWindow(now, 7, time.UTC)

	first, err := json.Marshal(BuildDashboard(orders, nil, w, conv, Options{}))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(BuildDashboard(orders, nil, w, conv, Options{}))
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}

	d := BuildDashboard(orders, nil, w, conv, Options{})
	assert.Equal(t, "2025-03-09", d.From)
	assert.Equal(t, "2025-03-15", d.To)
	assert.Len(t, d.Daily, 7)
	assert.Len(t, d.Weekly, DefaultWeeks)
	assert.Len(t, d.Hourly, 24)
	assert.Len(t, d.TopProducts, DefaultTopProducts)
}

func TestSpan(t *testing.T) {
	w := NewWindow(now, 7, time.UTC)
	assert.Equal(t, 28, Span(w, 4).Days)
	assert.Equal(t, 60, Span(NewWindow(now, 30, time.UTC), 4).Days)
}
