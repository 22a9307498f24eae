package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/beauty-storefront/internal/catalog"
	"github.com/mmeshcher/beauty-storefront/internal/model"
)

const (
	topCategories = 5
	topCities     = 10

	otherCategory = "other"
	unknownCity   = "Unknown"
)

// Palette задаёт цвета секторов по рангу категории.
var Palette = []string{"#E91E63", "#9C27B0", "#FF9800", "#4CAF50", "#2196F3", "#9E9E9E"}

// CategorySlice описывает сектор распределения продаж по категориям.
type CategorySlice struct {
	Category   string          `json:"category"`
	Label      string          `json:"label"`
	Value      decimal.Decimal `json:"value"`
	Percentage float64         `json:"percentage"`
	Color      string          `json:"color"`
}

type bucket struct {
	key   string
	label string
	first int
	count int
	qty   int
	value decimal.Decimal
	extra string
}

type accumulator struct {
	byKey map[string]*bucket
	order []*bucket
}

func newAccumulator() *accumulator {
	return &accumulator{byKey: make(map[string]*bucket)}
}

func (a *accumulator) get(key, label string) *bucket {
	b, ok := a.byKey[key]
	if !ok {
		b = &bucket{key: key, label: label, first: len(a.order), value: decimal.Zero}
		a.byKey[key] = b
		a.order = append(a.order, b)
	}
	return b
}

func categoryKey(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return otherCategory, "Other"
	}
	if c, ok := catalog.Lookup(raw); ok {
		return c.ID, c.Label
	}
	return strings.ToLower(raw), raw
}

// CategorySales суммирует price × quantity позиций заказов окна по категориям.
// Пять крупнейших категорий выводятся явно, остаток сворачивается в "other".
func CategorySales(orders []model.Order, w Window, conv Converter) []CategorySlice {
	acc := newAccumulator()
	total := decimal.Zero

	for _, o := range orders {
		if !w.Contains(o.CreatedAt) {
			continue
		}
		for _, item := range o.Items {
			key, label := categoryKey(item.Category)
			v := conv.FromBaseToAdmin(item.Subtotal())
			b := acc.get(key, label)
			b.value = b.value.Add(v)
			total = total.Add(v)
		}
	}

	buckets := acc.order
	sortBuckets(buckets)

	var head []*bucket
	remainder := decimal.Zero
	hasRemainder := false
	for i, b := range buckets {
		if i < topCategories {
			head = append(head, b)
			continue
		}
		remainder = remainder.Add(b.value)
		hasRemainder = true
	}

	if hasRemainder {
		merged := false
		for _, b := range head {
			if b.key == otherCategory {
				b.value = b.value.Add(remainder)
				merged = true
				break
			}
		}
		if merged {
			// остаток мог поднять "other" выше явных категорий
			sortBuckets(head)
		} else {
			head = append(head, &bucket{key: otherCategory, label: "Other", value: remainder})
		}
	}

	out := make([]CategorySlice, len(head))
	for i, b := range head {
		out[i] = CategorySlice{
			Category:   b.key,
			Label:      b.label,
			Value:      b.value,
			Percentage: share(b.value, total),
			Color:      Palette[i%len(Palette)],
		}
	}
	return out
}

// sortBuckets упорядочивает по убыванию суммы, при равенстве по первому появлению.
func sortBuckets(buckets []*bucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		if c := buckets[i].value.Cmp(buckets[j].value); c != 0 {
			return c > 0
		}
		return buckets[i].first < buckets[j].first
	})
}

func share(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}

// CityStat содержит заказы и выручку по городу доставки.
type CityStat struct {
	City       string          `json:"city"`
	OrderCount int             `json:"orderCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// CityDistribution группирует заказы окна по городу доставки без учёта регистра.
// Отображается написание, встреченное первым. Возвращается не более десяти городов.
func CityDistribution(orders []model.Order, w Window, conv Converter) []CityStat {
	acc := newAccumulator()

	for _, o := range orders {
		if !w.Contains(o.CreatedAt) {
			continue
		}
		city := strings.TrimSpace(o.Shipping.City)
		if city == "" {
			city = unknownCity
		}
		b := acc.get(strings.ToLower(city), city)
		b.count++
		b.value = b.value.Add(conv.FromBaseToAdmin(o.Total))
	}

	buckets := acc.order
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].first < buckets[j].first
	})
	if len(buckets) > topCities {
		buckets = buckets[:topCities]
	}

	out := make([]CityStat, len(buckets))
	for i, b := range buckets {
		out[i] = CityStat{City: b.label, OrderCount: b.count, Revenue: b.value}
	}
	return out
}

// ProductStat содержит продажи товара.
type ProductStat struct {
	ProductID string          `json:"productId,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// TopProducts группирует позиции заказов окна по названию товара
// (по идентификатору, если названия нет) и возвращает n самых продаваемых по количеству.
func TopProducts(orders []model.Order, w Window, conv Converter, n int) []ProductStat {
	acc := newAccumulator()

	for _, o := range orders {
		if !w.Contains(o.CreatedAt) {
			continue
		}
		for _, item := range o.Items {
			name := strings.TrimSpace(item.Name)
			key := strings.ToLower(name)
			if key == "" {
				key = "#" + item.ProductID
				name = item.ProductID
			}
			b := acc.get(key, name)
			if b.extra == "" {
				b.extra = item.ProductID
			}
			b.qty += item.Quantity
			b.value = b.value.Add(conv.FromBaseToAdmin(item.Subtotal()))
		}
	}

	buckets := acc.order
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].qty != buckets[j].qty {
			return buckets[i].qty > buckets[j].qty
		}
		if c := buckets[i].value.Cmp(buckets[j].value); c != 0 {
			return c > 0
		}
		return buckets[i].first < buckets[j].first
	})
	if n >= 0 && len(buckets) > n {
		buckets = buckets[:n]
	}

	out := make([]ProductStat, len(buckets))
	for i, b := range buckets {
		out[i] = ProductStat{ProductID: b.extra, Name: b.label, Quantity: b.qty, Revenue: b.value}
	}
	return out
}
