package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/beauty-storefront/internal/currency"
	"github.com/mmeshcher/beauty-storefront/internal/repository"
)

const displayCurrencyKey = "displayCurrency"

// DisplayCurrency возвращает сохранённую валюту отображения.
// Без сохранённого значения используется валюта из конфигурации.
func (s *Service) DisplayCurrency(ctx context.Context) (currency.Code, error) {
	raw, err := s.repo.GetSetting(ctx, displayCurrencyKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.conv.Admin(), nil
		}
		return "", err
	}

	code, ok := currency.Parse(raw)
	if !ok {
		s.logger.Warn("stored display currency is not supported", zap.String("currency", raw))
		return s.conv.Admin(), nil
	}
	return code, nil
}

// SetDisplayCurrency сохраняет валюту отображения.
func (s *Service) SetDisplayCurrency(ctx context.Context, raw string) (currency.Code, error) {
	code, ok := currency.Parse(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, raw)
	}
	if err := s.repo.SetSetting(ctx, displayCurrencyKey, string(code)); err != nil {
		return "", err
	}

	s.logger.Info("display currency updated", zap.String("currency", string(code)))
	return code, nil
}

// converter возвращает конвертер для запроса. Явно заданная валюта имеет
// приоритет над сохранённой, настройка читается при каждом запросе.
func (s *Service) converter(ctx context.Context, override string) (*currency.Converter, error) {
	if override != "" {
		code, ok := currency.Parse(override)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, override)
		}
		return s.conv.WithAdmin(code), nil
	}

	code, err := s.DisplayCurrency(ctx)
	if err != nil {
		return nil, err
	}
	return s.conv.WithAdmin(code), nil
}
