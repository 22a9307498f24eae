// Package coupon проверяет промокоды и рассчитывает размер скидки.
package coupon

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/beauty-storefront/internal/model"
)

// Reason описывает машинно-читаемую причину отказа.
type Reason string

const (
	ReasonNotFound     Reason = "not_found"
	ReasonInvalid      Reason = "invalid_coupon"
	ReasonExpired      Reason = "expired"
	ReasonExhausted    Reason = "exhausted"
	ReasonMinimumOrder Reason = "minimum_order_not_met"
)

// Result содержит результат проверки промокода.
type Result struct {
	Valid        bool            `json:"valid"`
	Code         string          `json:"code"`
	Reason       Reason          `json:"reason,omitempty"`
	Message      string          `json:"message,omitempty"`
	Discount     decimal.Decimal `json:"discountAmount"`
	FreeShipping bool            `json:"freeShipping,omitempty"`
}

func reject(code string, reason Reason, msg string) Result {
	return Result{Code: code, Reason: reason, Message: msg, Discount: decimal.Zero}
}

// NormalizeCode приводит код к каноническому виду.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Find ищет купон по коду без учёта регистра.
func Find(code string, coupons []model.Coupon) *model.Coupon {
	want := NormalizeCode(code)
	for i := range coupons {
		if NormalizeCode(coupons[i].Code) == want {
			return &coupons[i]
		}
	}
	return nil
}

// Validate проверяет купон для корзины на сумму cartTotal.
// Проверки выполняются в фиксированном порядке до первой неудачи:
// существование и активность, корректность, срок действия, лимит использований, минимальная сумма.
func Validate(code string, cartTotal decimal.Decimal, c *model.Coupon, now time.Time) Result {
	normalized := NormalizeCode(code)

	if c == nil || !c.IsActive || NormalizeCode(c.Code) != normalized {
		return reject(normalized, ReasonNotFound, "coupon code not found or inactive")
	}

	if msg, ok := checkShape(c); !ok {
		return reject(normalized, ReasonInvalid, msg)
	}

	if c.Expiry != nil && now.After(*c.Expiry) {
		return reject(normalized, ReasonExpired, "coupon has expired")
	}

	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return reject(normalized, ReasonExhausted, "coupon usage limit reached")
	}

	if cartTotal.LessThan(c.MinOrder) {
		return reject(normalized, ReasonMinimumOrder,
			fmt.Sprintf("minimum order not met: order must be at least %s", c.MinOrder.StringFixed(2)))
	}

	res := Result{
		Valid:    true,
		Code:     normalized,
		Discount: Discount(cartTotal, c),
	}
	if c.Type == model.CouponTypeFreeShipping {
		res.FreeShipping = true
	}
	return res
}

func checkShape(c *model.Coupon) (string, bool) {
	switch c.Type {
	case model.CouponTypePercentage, model.CouponTypeFixed:
		if c.Value == nil {
			return "coupon has no discount value", false
		}
		if c.Value.IsNegative() {
			return "coupon discount value is negative", false
		}
	case model.CouponTypeFreeShipping:
	default:
		return fmt.Sprintf("unknown coupon type %q", c.Type), false
	}
	return "", true
}

// Discount вычисляет скидку на товары корзины. Скидка бесплатной доставки
// относится к стоимости доставки и здесь равна нулю. Результат не превышает cartTotal.
func Discount(cartTotal decimal.Decimal, c *model.Coupon) decimal.Decimal {
	var discount decimal.Decimal

	switch c.Type {
	case model.CouponTypePercentage:
		if c.Value == nil {
			return decimal.Zero
		}
		discount = cartTotal.Mul(*c.Value).Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
	case model.CouponTypeFixed:
		if c.Value == nil {
			return decimal.Zero
		}
		discount = *c.Value
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(cartTotal) {
		discount = cartTotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}
