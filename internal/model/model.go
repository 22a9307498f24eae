// Package model содержит канонические доменные сущности витрины.
//
// Все денежные поля хранятся в базовой валюте магазина. Записи попадают сюда
// только через пакет normalize, поэтому устаревшие варианты полей сюда не доходят.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// LineItem описывает позицию заказа.
type LineItem struct {
	ProductID string          `json:"productId,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category,omitempty"`
}

// Subtotal возвращает price × quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Shipping содержит данные доставки и получателя.
type Shipping struct {
	City  string `json:"city"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
}

// StatusChange описывает запись истории статусов заказа.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
}

// Order описывает заказ покупателя.
type Order struct {
	ID            string          `json:"id"`
	Status        OrderStatus     `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Items         []LineItem      `json:"items"`
	Shipping      Shipping        `json:"shipping"`
	CreatedAt     time.Time       `json:"createdAt"`
	StatusHistory []StatusChange  `json:"statusHistory"`
}

// Customer содержит поведенческие поля покупателя.
type Customer struct {
	ID            string          `json:"id"`
	Name          string          `json:"name,omitempty"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	City          string          `json:"city,omitempty"`
	OrderCount    int             `json:"orderCount"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	LastOrderDate *time.Time      `json:"lastOrderDate,omitempty"`
	AvgOrderValue decimal.Decimal `json:"avgOrderValue"`
	Notes         string          `json:"notes,omitempty"`
}

// CouponType описывает тип скидки купона.
type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFixed        CouponType = "fixed"
	CouponTypeFreeShipping CouponType = "free_shipping"
)

// Coupon описывает промокод и его ограничения.
// Value == nil означает, что в документе нет значения скидки.
type Coupon struct {
	ID          string           `json:"id"`
	Code        string           `json:"code"`
	Type        CouponType       `json:"type"`
	Value       *decimal.Decimal `json:"value,omitempty"`
	MinOrder    decimal.Decimal  `json:"minOrder"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	UsageLimit  *int             `json:"usageLimit,omitempty"`
	UsageCount  int              `json:"usageCount"`
	Expiry      *time.Time       `json:"expiry,omitempty"`
	IsActive    bool             `json:"isActive"`
}

// ProductStatus описывает отображаемый статус товара.
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "ACTIVE"
	ProductStatusDraft      ProductStatus = "DRAFT"
	ProductStatusLowStock   ProductStatus = "LOW_STOCK"
	ProductStatusOutOfStock ProductStatus = "OUT_OF_STOCK"
)

// DefaultLowStockThreshold применяется, если порог не задан в документе.
const DefaultLowStockThreshold = 5

// Image описывает изображение товара.
type Image struct {
	Src string `json:"src"`
}

// Product описывает товар каталога.
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	Category          string          `json:"category"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Published         bool            `json:"published"`
	StoredStatus      ProductStatus   `json:"storedStatus,omitempty"`
	Images            []Image         `json:"images"`
}
