// Package service связывает хранилище документов с расчётным ядром витрины:
// чтение, нормализация, расчёт и запись результата.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/beauty-storefront/internal/currency"
	"github.com/mmeshcher/beauty-storefront/internal/docsource"
	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/repository"
)

var (
	// ErrUnsupportedCurrency возвращается для кода валюты вне таблицы курсов.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	// ErrInvalidWindow возвращается для недопустимой длины окна панели.
	ErrInvalidWindow = errors.New("invalid dashboard window")
	// ErrInvalidAmount возвращается для отрицательной суммы корзины.
	ErrInvalidAmount = errors.New("invalid amount")
)

// MaxWindowDays ограничивает длину окна панели.
const MaxWindowDays = 365

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	UpsertDocument(ctx context.Context, doc repository.Document) error
	DeleteDocument(ctx context.Context, collection, id string) error
	ListOrdersBetween(ctx context.Context, from, until time.Time) ([]model.Order, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, expected model.OrderStatus, next model.Order) error
	ListCouponsByCode(ctx context.Context, code string) ([]model.Coupon, error)
	RedeemCoupon(ctx context.Context, id string) (model.Coupon, error)
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetSyncToken(ctx context.Context, collection string) (string, error)
	SetSyncToken(ctx context.Context, collection, token string) error
}

// Source описывает ленту изменений внешнего документного хранилища.
type Source interface {
	FetchChanges(ctx context.Context, collection, since string) (*docsource.ChangeSet, time.Duration, error)
}

// Settings содержит параметры сервиса из конфигурации.
type Settings struct {
	AdminCurrency currency.Code
	WindowDays    int
	Location      *time.Location
	SyncInterval  time.Duration
}

// Service содержит бизнес-логику витрины.
type Service struct {
	repo   Repository
	source Source
	logger *zap.Logger
	conv   *currency.Converter
	now    func() time.Time

	loc          *time.Location
	windowDays   int
	syncInterval time.Duration
}

// NewService создаёт сервис. source может быть nil, тогда синхронизация не запускается.
func NewService(repo Repository, source Source, logger *zap.Logger, cfg Settings) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 30 * time.Second
	}
	if _, ok := currency.Parse(string(cfg.AdminCurrency)); !ok {
		cfg.AdminCurrency = currency.Base
	}

	s := &Service{
		repo:         repo,
		source:       source,
		logger:       logger,
		now:          time.Now,
		loc:          cfg.Location,
		windowDays:   cfg.WindowDays,
		syncInterval: cfg.SyncInterval,
	}
	s.conv = currency.NewConverter(cfg.AdminCurrency, currency.WithFallbackHook(func(code currency.Code) {
		s.logger.Warn("unknown currency, falling back to base rate", zap.String("currency", string(code)))
	}))

	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}
