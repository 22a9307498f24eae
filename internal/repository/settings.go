package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetSetting возвращает значение настройки. Для отсутствующей настройки возвращается ErrNotFound.
func (r *PostgresRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting сохраняет значение настройки.
func (r *PostgresRepository) SetSetting(ctx context.Context, key, value string) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("set setting %s: %w", key, err)
		}
		return nil
	})
}

// GetSyncToken возвращает позицию ленты изменений коллекции.
// Пустая строка означает, что синхронизация ещё не выполнялась.
func (r *PostgresRepository) GetSyncToken(ctx context.Context, collection string) (string, error) {
	var token string
	err := r.pool.QueryRow(ctx, `SELECT token FROM sync_cursors WHERE collection = $1`, collection).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get sync token %s: %w", collection, err)
	}
	return token, nil
}

// SetSyncToken сохраняет позицию ленты изменений коллекции.
func (r *PostgresRepository) SetSyncToken(ctx context.Context, collection, token string) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO sync_cursors (collection, token, updated_at) VALUES ($1, $2, NOW())
			 ON CONFLICT (collection) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()`,
			collection, token,
		)
		if err != nil {
			return fmt.Errorf("set sync token %s: %w", collection, err)
		}
		return nil
	})
}
