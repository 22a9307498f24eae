package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/normalize"
)

// Document описывает документ хранилища в исходном виде.
// CreatedAt заполняется для заказов и используется для выборки по окну.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	CreatedAt  *time.Time
}

// UpsertDocument сохраняет документ, заменяя существующий с тем же идентификатором.
func (r *PostgresRepository) UpsertDocument(ctx context.Context, doc Document) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO documents (collection, id, data, created_at, updated_at)
			 VALUES ($1, $2, $3::jsonb, $4, NOW())
			 ON CONFLICT (collection, id) DO UPDATE
			 SET data = EXCLUDED.data, created_at = EXCLUDED.created_at, updated_at = NOW()`,
			doc.Collection, doc.ID, string(doc.Data), doc.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert %s/%s: %w", doc.Collection, doc.ID, err)
		}
		return nil
	})
}

// DeleteDocument безвозвратно удаляет документ.
func (r *PostgresRepository) DeleteDocument(ctx context.Context, collection, id string) error {
	var affected int64
	err := r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM documents WHERE collection = $1 AND id = $2`,
			collection, id,
		)
		if err != nil {
			return fmt.Errorf("delete %s/%s: %w", collection, id, err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func listDecoded[T any](
	ctx context.Context,
	r *PostgresRepository,
	collection string,
	decode func(string, []byte) (T, error),
	query string,
	args ...any,
) ([]T, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	defer rows.Close()

	res := make([]T, 0)
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}

		v, err := decode(id, data)
		if err != nil {
			r.skip(collection, id, err)
			continue
		}
		res = append(res, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListOrdersBetween возвращает заказы, созданные в интервале [from, until).
func (r *PostgresRepository) ListOrdersBetween(ctx context.Context, from, until time.Time) ([]model.Order, error) {
	return listDecoded(ctx, r, CollectionOrders, normalize.DecodeOrder,
		`SELECT id, data FROM documents
		 WHERE collection = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at, id`,
		CollectionOrders, from, until,
	)
}

// ListCustomers возвращает всех покупателей.
func (r *PostgresRepository) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return listDecoded(ctx, r, CollectionCustomers, normalize.DecodeCustomer,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY id`,
		CollectionCustomers,
	)
}

// ListProducts возвращает все товары.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	return listDecoded(ctx, r, CollectionProducts, normalize.DecodeProduct,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY id`,
		CollectionProducts,
	)
}

func (r *PostgresRepository) getData(ctx context.Context, collection, id string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return data, nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (model.Order, error) {
	data, err := r.getData(ctx, CollectionOrders, id)
	if err != nil {
		return model.Order{}, err
	}
	return normalize.DecodeOrder(id, data)
}
