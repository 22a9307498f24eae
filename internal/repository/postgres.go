// Package repository содержит зеркало документного хранилища в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrNotFound возвращается, если документ не найден.
	ErrNotFound = errors.New("document not found")
	// ErrCouponExhausted возвращается, если лимит использований купона исчерпан.
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	// ErrStatusConflict возвращается, если статус заказа изменился с момента чтения.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// Коллекции документного хранилища.
const (
	CollectionOrders    = "orders"
	CollectionCustomers = "customers"
	CollectionCoupons   = "coupons"
	CollectionProducts  = "products"
)

// Collections перечисляет зеркалируемые коллекции.
var Collections = []string{CollectionOrders, CollectionCustomers, CollectionCoupons, CollectionProducts}

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// MalformedHook вызывается для документа, который не удалось нормализовать при чтении списка.
type MalformedHook func(collection, id string, err error)

// Option настраивает репозиторий.
type Option func(*PostgresRepository)

// WithMalformedHook задаёт обработчик пропущенных документов.
func WithMalformedHook(fn MalformedHook) Option {
	return func(r *PostgresRepository) {
		r.onMalformed = fn
	}
}

// PostgresRepository предоставляет доступ к зеркалу документов в PostgreSQL.
type PostgresRepository struct {
	pool        *pgxpool.Pool
	onMalformed MalformedHook
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string, opts ...Option) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil || !isRetryable(err) || i == len(retryDelays) {
			return err
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}

	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

func (r *PostgresRepository) skip(collection, id string, err error) {
	if r.onMalformed != nil {
		r.onMalformed(collection, id, err)
	}
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
