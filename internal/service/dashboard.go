package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mmeshcher/beauty-storefront/internal/analytics"
	"github.com/mmeshcher/beauty-storefront/internal/catalog"
	"github.com/mmeshcher/beauty-storefront/internal/currency"
	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/segment"
)

// DashboardView содержит панель администратора в выбранной валюте.
type DashboardView struct {
	Currency         currency.Code `json:"currency"`
	RevenueFormatted string        `json:"revenueFormatted"`
	analytics.Dashboard
}

// Dashboard собирает панель за последние days суток. days == 0 означает длину
// окна из конфигурации, currencyCode == "" означает сохранённую валюту отображения.
func (s *Service) Dashboard(ctx context.Context, days int, currencyCode string) (*DashboardView, error) {
	if days == 0 {
		days = s.windowDays
	}
	if days < 0 || days > MaxWindowDays {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidWindow, days)
	}

	conv, err := s.converter(ctx, currencyCode)
	if err != nil {
		return nil, err
	}

	w := analytics.NewWindow(s.now(), days, s.loc)
	span := analytics.Span(w, analytics.DefaultWeeks)

	orders, err := s.repo.ListOrdersBetween(ctx, span.Start(), w.Until())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	dash := analytics.BuildDashboard(orders, customers, w, conv, analytics.Options{})

	return &DashboardView{
		Currency:         conv.Admin(),
		RevenueFormatted: conv.Format(dash.KPIs.Revenue.Current, conv.Admin()),
		Dashboard:        dash,
	}, nil
}

// CustomerView дополняет покупателя сегментом и оценкой.
type CustomerView struct {
	model.Customer
	segment.Profile
	TotalSpentFormatted string `json:"totalSpentFormatted"`
}

// Customers возвращает покупателей с сегментом и оценкой, по убыванию оценки.
func (s *Service) Customers(ctx context.Context) ([]CustomerView, error) {
	conv, err := s.converter(ctx, "")
	if err != nil {
		return nil, err
	}

	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	now := s.now()
	views := make([]CustomerView, len(customers))
	for i, c := range customers {
		views[i] = CustomerView{
			Customer:            c,
			Profile:             segment.Evaluate(c, now),
			TotalSpentFormatted: conv.FormatAdmin(c.TotalSpent),
		}
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Score > views[j].Score })

	return views, nil
}

// ProductView дополняет товар канонической категорией и вычисленным статусом.
type ProductView struct {
	model.Product
	CanonicalCategory catalog.Category    `json:"canonicalCategory"`
	CategoryMethod    catalog.Method      `json:"categoryMethod"`
	Status            model.ProductStatus `json:"status"`
	PriceFormatted    string              `json:"priceFormatted"`
}

// Products возвращает каталог с нормализованными категориями.
func (s *Service) Products(ctx context.Context) ([]ProductView, error) {
	conv, err := s.converter(ctx, "")
	if err != nil {
		return nil, err
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	views := make([]ProductView, len(products))
	for i, p := range products {
		res := catalog.Normalize(p)
		if res.Fallback() {
			s.logger.Warn("product category not recognised",
				zap.String("product", p.ID),
				zap.String("category", p.Category),
			)
		}
		views[i] = ProductView{
			Product:           p,
			CanonicalCategory: res.Category,
			CategoryMethod:    res.Method,
			Status:            catalog.DeriveStatus(p),
			PriceFormatted:    conv.FormatAdmin(p.Price),
		}
	}

	return views, nil
}
