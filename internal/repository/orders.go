package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/normalize"
)

// UpdateOrderStatus записывает статус и историю заказа next, если текущий
// статус документа равен expected. Строка блокируется до конца транзакции.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, expected model.OrderStatus, next model.Order) error {
	history, err := json.Marshal(next.StatusHistory)
	if err != nil {
		return fmt.Errorf("encode status history: %w", err)
	}

	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var data []byte
		err = tx.QueryRow(ctx,
			`SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
			CollectionOrders, next.ID,
		).Scan(&data)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock order for update: %w", err)
		}

		current, err := normalize.DecodeOrder(next.ID, data)
		if err != nil {
			return err
		}
		if current.Status != expected {
			return fmt.Errorf("%w: expected %s, found %s", ErrStatusConflict, expected, current.Status)
		}

		_, err = tx.Exec(ctx,
			`UPDATE documents
			 SET data = jsonb_set(jsonb_set(data, '{status}', to_jsonb($3::text)), '{statusHistory}', $4::jsonb),
			     updated_at = NOW()
			 WHERE collection = $1 AND id = $2`,
			CollectionOrders, next.ID, string(next.Status), string(history),
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
