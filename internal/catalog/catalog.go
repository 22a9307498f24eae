// Package catalog приводит категории товаров к каноническому справочнику
// и вычисляет отображаемый статус товара по остатку.
package catalog

import (
	"strings"

	"github.com/mmeshcher/beauty-storefront/internal/model"
)

// Category описывает категорию справочника.
type Category struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Aliases []string `json:"-"`
}

// Method описывает, каким способом определена категория.
type Method string

const (
	MethodExact    Method = "exact"
	MethodKeyword  Method = "keyword"
	MethodFallback Method = "fallback"
)

// Resolution содержит результат нормализации категории.
type Resolution struct {
	Category Category `json:"category"`
	Method   Method   `json:"method"`
}

// Fallback сообщает, что категорию не удалось сопоставить со справочником.
func (r Resolution) Fallback() bool {
	return r.Method == MethodFallback
}

var taxonomy = []Category{
	{ID: "skincare", Label: "Skincare", Aliases: []string{"skin care", "skin-care", "soins visage", "soin visage", "face"}},
	{ID: "makeup", Label: "Makeup", Aliases: []string{"make-up", "make up", "maquillage", "cosmetics"}},
	{ID: "haircare", Label: "Hair care", Aliases: []string{"hair", "hair care", "cheveux", "soins cheveux"}},
	{ID: "fragrance", Label: "Fragrance", Aliases: []string{"perfume", "perfumes", "parfum", "parfums", "fragrances"}},
	{ID: "bodycare", Label: "Body care", Aliases: []string{"body", "body care", "soins corps", "bath & body"}},
	{ID: "nails", Label: "Nails", Aliases: []string{"nail", "ongles", "manicure"}},
	{ID: "tools", Label: "Tools & accessories", Aliases: []string{"accessories", "accessoires", "brushes"}},
}

// placeholders содержит значения, которые не несут информации о категории.
var placeholders = map[string]bool{
	"":              true,
	"uncategorized": true,
	"uncategorised": true,
	"general":       true,
	"misc":          true,
	"none":          true,
	"null":          true,
	"non classé":    true,
}

// keywords проверяются по порядку, побеждает первое совпадение.
// Уходовые термины стоят раньше декоративных: "eye cream" относится к уходу,
// а "body cream" к уходу за телом.
var keywords = []struct {
	keyword  string
	category string
}{
	{"parfum", "fragrance"},
	{"perfume", "fragrance"},
	{"eau de", "fragrance"},
	{"cologne", "fragrance"},
	{"nail", "nails"},
	{"vernis", "nails"},
	{"shampoo", "haircare"},
	{"shampoing", "haircare"},
	{"conditioner", "haircare"},
	{"hair", "haircare"},
	{"body", "bodycare"},
	{"lotion", "bodycare"},
	{"soap", "bodycare"},
	{"savon", "bodycare"},
	{"shower", "bodycare"},
	{"serum", "skincare"},
	{"sérum", "skincare"},
	{"cream", "skincare"},
	{"crème", "skincare"},
	{"moisturizer", "skincare"},
	{"cleanser", "skincare"},
	{"toner", "skincare"},
	{"spf", "skincare"},
	{"sunscreen", "skincare"},
	{"mask", "skincare"},
	{"mascara", "makeup"},
	{"lipstick", "makeup"},
	{"gloss", "makeup"},
	{"foundation", "makeup"},
	{"concealer", "makeup"},
	{"blush", "makeup"},
	{"eyeliner", "makeup"},
	{"eyeshadow", "makeup"},
	{"palette", "makeup"},
	{"lip", "makeup"},
	{"eye", "makeup"},
	{"brush", "tools"},
	{"sponge", "tools"},
}

var byKey = buildIndex()

func buildIndex() map[string]Category {
	idx := make(map[string]Category)
	for _, c := range taxonomy {
		idx[c.ID] = c
		for _, a := range c.Aliases {
			idx[a] = c
		}
	}
	return idx
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Categories возвращает канонический справочник.
func Categories() []Category {
	out := make([]Category, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Lookup ищет категорию по идентификатору или псевдониму.
func Lookup(raw string) (Category, bool) {
	c, ok := byKey[key(raw)]
	return c, ok
}

// Normalize определяет каноническую категорию товара: точное совпадение поля категории,
// затем ключевые слова в названии, затем синтетическая категория из исходной строки.
func Normalize(p model.Product) Resolution {
	raw := key(p.Category)

	if !placeholders[raw] {
		if c, ok := byKey[raw]; ok {
			return Resolution{Category: c, Method: MethodExact}
		}
	}

	name := strings.ToLower(p.Name)
	for _, kw := range keywords {
		if strings.Contains(name, kw.keyword) {
			return Resolution{Category: byKey[kw.category], Method: MethodKeyword}
		}
	}

	return Resolution{
		Category: Category{ID: p.Category, Label: p.Category},
		Method:   MethodFallback,
	}
}

// DeriveStatus вычисляет статус товара по остатку. Остаток важнее сохранённого статуса.
func DeriveStatus(p model.Product) model.ProductStatus {
	switch {
	case p.Stock <= 0:
		return model.ProductStatusOutOfStock
	case p.Stock <= p.LowStockThreshold:
		return model.ProductStatusLowStock
	case p.Published:
		return model.ProductStatusActive
	default:
		return model.ProductStatusDraft
	}
}
