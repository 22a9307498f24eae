package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/repository"
	"github.com/mmeshcher/beauty-storefront/internal/status"
)

// Timeline описывает шкалу прогресса заказа.
type Timeline struct {
	OrderID   string               `json:"orderId"`
	Status    model.OrderStatus    `json:"status"`
	Label     string               `json:"label"`
	CanCancel bool                 `json:"canCancel"`
	Closed    bool                 `json:"closed"`
	Steps     []status.Step        `json:"steps"`
	History   []model.StatusChange `json:"history"`
}

// Timeline возвращает шкалу прогресса и историю статусов заказа.
func (s *Service) Timeline(ctx context.Context, id string) (*Timeline, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	t := &Timeline{
		OrderID: o.ID,
		Status:  o.Status,
		Closed:  status.IsAbsorbing(o.Status),
		Steps:   status.Flow(o.Status),
		History: o.StatusHistory,
	}
	if def, ok := status.Lookup(o.Status); ok {
		t.Label = def.Label
		t.CanCancel = def.CanCancel
	}
	if t.History == nil {
		t.History = []model.StatusChange{}
	}
	return t, nil
}

func (s *Service) transition(
	ctx context.Context,
	id, action string,
	apply func(model.Order) (model.Order, error),
) (model.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, err
	}

	next, err := apply(o)
	if err != nil {
		return model.Order{}, err
	}

	if err := s.repo.UpdateOrderStatus(ctx, o.Status, next); err != nil {
		return model.Order{}, fmt.Errorf("%s order %s: %w", action, id, err)
	}

	s.logger.Info("order status changed",
		zap.String("order", id),
		zap.String("action", action),
		zap.String("from", string(o.Status)),
		zap.String("to", string(next.Status)),
	)
	return next, nil
}

// AdvanceOrder переводит заказ в следующий статус.
func (s *Service) AdvanceOrder(ctx context.Context, id string) (model.Order, error) {
	return s.transition(ctx, id, "advance", func(o model.Order) (model.Order, error) {
		return status.Advance(o, s.now())
	})
}

// CancelOrder отменяет заказ с указанной причиной.
func (s *Service) CancelOrder(ctx context.Context, id, reason string) (model.Order, error) {
	return s.transition(ctx, id, "cancel", func(o model.Order) (model.Order, error) {
		return status.Cancel(o, reason, s.now())
	})
}

// RefundOrder оформляет возврат по заказу.
func (s *Service) RefundOrder(ctx context.Context, id, note string) (model.Order, error) {
	return s.transition(ctx, id, "refund", func(o model.Order) (model.Order, error) {
		return status.Refund(o, note, s.now())
	})
}

// DeleteOrder безвозвратно удаляет заказ.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.DeleteDocument(ctx, repository.CollectionOrders, id); err != nil {
		return err
	}
	s.logger.Warn("order deleted", zap.String("order", id))
	return nil
}
