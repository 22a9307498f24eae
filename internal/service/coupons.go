package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/beauty-storefront/internal/coupon"
	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/repository"
)

func (s *Service) findCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	candidates, err := s.repo.ListCouponsByCode(ctx, coupon.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return coupon.Find(code, candidates), nil
}

// ValidateCoupon проверяет промокод для корзины на сумму cartTotal в базовой валюте.
// Отказ по бизнес-правилам возвращается в Result, а не как ошибка.
func (s *Service) ValidateCoupon(ctx context.Context, code string, cartTotal decimal.Decimal) (coupon.Result, error) {
	if cartTotal.IsNegative() {
		return coupon.Result{}, fmt.Errorf("%w: cart total %s", ErrInvalidAmount, cartTotal)
	}

	c, err := s.findCoupon(ctx, code)
	if err != nil {
		return coupon.Result{}, err
	}
	return coupon.Validate(code, cartTotal, c, s.now()), nil
}

// RedeemCoupon проверяет промокод и засчитывает одно использование.
// Если параллельное погашение исчерпало лимит, возвращается отказ exhausted.
func (s *Service) RedeemCoupon(ctx context.Context, code string, cartTotal decimal.Decimal) (coupon.Result, error) {
	if cartTotal.IsNegative() {
		return coupon.Result{}, fmt.Errorf("%w: cart total %s", ErrInvalidAmount, cartTotal)
	}

	c, err := s.findCoupon(ctx, code)
	if err != nil {
		return coupon.Result{}, err
	}

	res := coupon.Validate(code, cartTotal, c, s.now())
	if !res.Valid {
		return res, nil
	}

	updated, err := s.repo.RedeemCoupon(ctx, c.ID)
	switch {
	case errors.Is(err, repository.ErrCouponExhausted):
		return coupon.Result{
			Code:     res.Code,
			Reason:   coupon.ReasonExhausted,
			Message:  "coupon usage limit reached",
			Discount: decimal.Zero,
		}, nil
	case errors.Is(err, repository.ErrNotFound):
		return coupon.Validate(code, cartTotal, nil, s.now()), nil
	case err != nil:
		return coupon.Result{}, fmt.Errorf("redeem coupon: %w", err)
	}

	s.logger.Info("coupon redeemed",
		zap.String("code", updated.Code),
		zap.Int("usageCount", updated.UsageCount),
		zap.String("discount", res.Discount.String()),
	)
	return res, nil
}
