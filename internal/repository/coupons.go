package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/normalize"
)

const (
	couponCodeExpr  = `UPPER(BTRIM(COALESCE(data->>'code', data->>'couponCode')))`
	usageCountExpr  = `COALESCE(COALESCE(data->>'usageCount', data->>'usedCount', data->>'usage_count')::numeric, 0)::int`
	usageLimitExpr  = `COALESCE(data->>'usageLimit', data->>'maxUses', data->>'usage_limit')::numeric::int`
	redeemCouponSQL = `UPDATE documents
		SET data = jsonb_set(data, '{usageCount}', to_jsonb(` + usageCountExpr + ` + 1)),
		    updated_at = NOW()
		WHERE collection = $1 AND id = $2
		  AND (` + usageLimitExpr + ` IS NULL OR ` + usageCountExpr + ` < ` + usageLimitExpr + `)
		RETURNING data`
)

// ListCouponsByCode возвращает купоны, код которых совпадает с code без учёта
// регистра и пробелов по краям.
func (r *PostgresRepository) ListCouponsByCode(ctx context.Context, code string) ([]model.Coupon, error) {
	return listDecoded(ctx, r, CollectionCoupons, normalize.DecodeCoupon,
		`SELECT id, data FROM documents
		 WHERE collection = $1 AND `+couponCodeExpr+` = UPPER(BTRIM($2))
		 ORDER BY id`,
		CollectionCoupons, code,
	)
}

// RedeemCoupon атомарно увеличивает счётчик использований купона, если лимит
// ещё не исчерпан, и возвращает обновлённый купон. Проверка лимита и
// увеличение счётчика выполняются одним UPDATE, поэтому параллельные погашения
// не превышают лимит.
func (r *PostgresRepository) RedeemCoupon(ctx context.Context, id string) (model.Coupon, error) {
	var data []byte
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx, redeemCouponSQL, CollectionCoupons, id).Scan(&data)
	})
	if err == nil {
		return normalize.DecodeCoupon(id, data)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Coupon{}, fmt.Errorf("redeem coupon: %w", err)
	}

	if _, err := r.getData(ctx, CollectionCoupons, id); err != nil {
		return model.Coupon{}, err
	}
	return model.Coupon{}, ErrCouponExhausted
}
