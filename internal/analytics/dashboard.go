package analytics

import (
	"github.com/mmeshcher/beauty-storefront/internal/model"
)

// DefaultTopProducts задаёт размер списка лидеров продаж по умолчанию.
const DefaultTopProducts = 5

// DefaultWeeks задаёт длину недельного ряда по умолчанию.
const DefaultWeeks = 4

// Options настраивает сборку панели.
type Options struct {
	TopProducts int
	Weeks       int
}

// Dashboard содержит данные панели администратора за окно.
type Dashboard struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Days        int             `json:"days"`
	KPIs        KPIs            `json:"kpis"`
	Daily       []DailyPoint    `json:"daily"`
	Weekly      []WeeklyPoint   `json:"weekly"`
	Hourly      []HourlyPoint   `json:"hourly"`
	Categories  []CategorySlice `json:"categories"`
	Cities      []CityStat      `json:"cities"`
	TopProducts []ProductStat   `json:"topProducts"`
	Segments    []SegmentCount  `json:"segments"`
}

// BuildDashboard собирает все агрегаты панели. Для определения сегментов
// покупателей используется конец окна.
func BuildDashboard(orders []model.Order, customers []model.Customer, w Window, conv Converter, opts Options) Dashboard {
	if opts.TopProducts <= 0 {
		opts.TopProducts = DefaultTopProducts
	}
	if opts.Weeks <= 0 {
		opts.Weeks = DefaultWeeks
	}

	return Dashboard{
		From:        w.day(0).Format("2006-01-02"),
		To:          w.day(w.days() - 1).Format("2006-01-02"),
		Days:        w.days(),
		KPIs:        KPIDeltas(orders, w, conv),
		Daily:       DailySeries(orders, w, conv),
		Weekly:      WeeklySeries(orders, w, opts.Weeks, conv),
		Hourly:      HourlyDistribution(orders, w, conv),
		Categories:  CategorySales(orders, w, conv),
		Cities:      CityDistribution(orders, w, conv),
		TopProducts: TopProducts(orders, w, conv, opts.TopProducts),
		Segments:    SegmentBreakdown(customers, w.End),
	}
}

// Span возвращает окно, покрывающее все данные, которые нужны BuildDashboard:
// текущий и предыдущий периоды и недельный ряд.
func Span(w Window, weeks int) Window {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	days := w.days() * 2
	if weeks*7 > days {
		days = weeks * 7
	}
	return Window{End: w.End, Days: days, Location: w.loc()}
}
