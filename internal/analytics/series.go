package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/beauty-storefront/internal/model"
)

// Converter переводит хранимые суммы в валюту отображения администратора.
type Converter interface {
	FromBaseToAdmin(amount decimal.Decimal) decimal.Decimal
}

// DailyPoint описывает сутки временного ряда.
type DailyPoint struct {
	Date       string          `json:"date"`
	DayLabel   string          `json:"dayLabel"`
	OrderCount int             `json:"orderCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// DailySeries раскладывает заказы окна по календарным суткам даты создания.
// Длина результата равна w.Days (не меньше одних суток), пустые сутки заполняются нулями.
func DailySeries(orders []model.Order, w Window, conv Converter) []DailyPoint {
	points := make([]DailyPoint, w.days())
	for i := range points {
		day := w.day(i)
		points[i] = DailyPoint{
			Date:     day.Format("2006-01-02"),
			DayLabel: day.Format("Mon"),
			Revenue:  decimal.Zero,
		}
	}

	for _, o := range orders {
		idx := w.dayIndex(o.CreatedAt)
		if idx < 0 {
			continue
		}
		points[idx].OrderCount++
		points[idx].Revenue = points[idx].Revenue.Add(conv.FromBaseToAdmin(o.Total))
	}

	return points
}

// WeeklyPoint описывает неделю временного ряда.
type WeeklyPoint struct {
	WeekStart  string          `json:"weekStart"`
	Label      string          `json:"label"`
	OrderCount int             `json:"orderCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// WeeklySeries строит ряд из weeks семидневных интервалов, последний из которых
// заканчивается последними сутками окна w. Длина окна w игнорируется.
func WeeklySeries(orders []model.Order, w Window, weeks int, conv Converter) []WeeklyPoint {
	if weeks < 1 {
		weeks = 1
	}
	daily := DailySeries(orders, Window{End: w.End, Days: weeks * 7, Location: w.loc()}, conv)

	points := make([]WeeklyPoint, weeks)
	for i := range points {
		days := daily[i*7 : (i+1)*7]
		p := WeeklyPoint{
			WeekStart: days[0].Date,
			Label:     fmt.Sprintf("W%d", i+1),
			Revenue:   decimal.Zero,
		}
		for _, d := range days {
			p.OrderCount += d.OrderCount
			p.Revenue = p.Revenue.Add(d.Revenue)
		}
		points[i] = p
	}
	return points
}

// HourlyPoint описывает час суток в распределении заказов.
type HourlyPoint struct {
	Hour       int             `json:"hour"`
	Label      string          `json:"label"`
	OrderCount int             `json:"orderCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// HourlyDistribution раскладывает заказы окна по 24 часам суток в часовом поясе окна.
func HourlyDistribution(orders []model.Order, w Window, conv Converter) []HourlyPoint {
	points := make([]HourlyPoint, 24)
	for h := range points {
		points[h] = HourlyPoint{
			Hour:    h,
			Label:   fmt.Sprintf("%02d:00", h),
			Revenue: decimal.Zero,
		}
	}

	for _, o := range orders {
		if !w.Contains(o.CreatedAt) {
			continue
		}
		h := o.CreatedAt.In(w.loc()).Hour()
		points[h].OrderCount++
		points[h].Revenue = points[h].Revenue.Add(conv.FromBaseToAdmin(o.Total))
	}

	return points
}
