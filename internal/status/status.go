// Package status описывает жизненный цикл заказа: допустимые переходы,
// возможность отмены и данные для отображения шкалы прогресса.
package status

import (
	"errors"
	"fmt"
	"time"

	"github.com/mmeshcher/beauty-storefront/internal/model"
)

// Definition описывает статус заказа для отображения и переходов.
type Definition struct {
	Status    model.OrderStatus `json:"status"`
	Label     string            `json:"label"`
	Color     string            `json:"color"`
	Icon      string            `json:"icon"`
	Next      model.OrderStatus `json:"nextStatus,omitempty"`
	CanCancel bool              `json:"canCancel"`
}

// HasNext сообщает, есть ли у статуса переход вперёд.
func (d Definition) HasNext() bool {
	return d.Next != ""
}

// flow задаёт линейную последовательность нетерминальных статусов.
var flow = []Definition{
	{Status: model.OrderStatusPending, Label: "Pending", Color: "warning", Icon: "clock", Next: model.OrderStatusConfirmed, CanCancel: true},
	{Status: model.OrderStatusConfirmed, Label: "Confirmed", Color: "info", Icon: "check-circle", Next: model.OrderStatusProcessing, CanCancel: true},
	{Status: model.OrderStatusProcessing, Label: "Processing", Color: "primary", Icon: "package", Next: model.OrderStatusShipped, CanCancel: true},
	{Status: model.OrderStatusShipped, Label: "Shipped", Color: "secondary", Icon: "truck", Next: model.OrderStatusOutForDelivery},
	{Status: model.OrderStatusOutForDelivery, Label: "Out for delivery", Color: "accent", Icon: "map-pin", Next: model.OrderStatusDelivered},
	{Status: model.OrderStatusDelivered, Label: "Delivered", Color: "success", Icon: "home"},
}

var absorbing = []Definition{
	{Status: model.OrderStatusCancelled, Label: "Cancelled", Color: "danger", Icon: "x-circle"},
	{Status: model.OrderStatusRefunded, Label: "Refunded", Color: "muted", Icon: "rotate-ccw"},
}

var (
	// ErrUnknownStatus возвращается для статуса вне таблицы.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrTerminal возвращается при попытке продвинуть заказ без следующего статуса.
	ErrTerminal = errors.New("order status has no next step")
	// ErrNotCancellable возвращается, если заказ уже нельзя отменить.
	ErrNotCancellable = errors.New("order can no longer be cancelled")
	// ErrAlreadyClosed возвращается для заказов в поглощающем статусе.
	ErrAlreadyClosed = errors.New("order is already cancelled or refunded")
)

// TransitionError описывает отклонённый переход.
type TransitionError struct {
	From   model.OrderStatus
	Action string
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s from %q: %v", e.Action, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Lookup возвращает описание статуса.
func Lookup(s model.OrderStatus) (Definition, bool) {
	for _, d := range flow {
		if d.Status == s {
			return d, true
		}
	}
	for _, d := range absorbing {
		if d.Status == s {
			return d, true
		}
	}
	return Definition{}, false
}

// IsAbsorbing сообщает, является ли статус отменой или возвратом.
func IsAbsorbing(s model.OrderStatus) bool {
	return s == model.OrderStatusCancelled || s == model.OrderStatusRefunded
}

// Advance переводит заказ в следующий статус и дописывает запись в историю.
// Исходный заказ не изменяется.
func Advance(o model.Order, now time.Time) (model.Order, error) {
	def, ok := Lookup(o.Status)
	if !ok {
		return o, &TransitionError{From: o.Status, Action: "advance", Err: ErrUnknownStatus}
	}
	if !def.HasNext() {
		return o, &TransitionError{From: o.Status, Action: "advance", Err: ErrTerminal}
	}
	return withStatus(o, def.Next, now, ""), nil
}

// Cancel отменяет заказ с указанной причиной. Отмена доступна только до отправки.
func Cancel(o model.Order, reason string, now time.Time) (model.Order, error) {
	def, ok := Lookup(o.Status)
	if !ok {
		return o, &TransitionError{From: o.Status, Action: "cancel", Err: ErrUnknownStatus}
	}
	if !def.CanCancel {
		return o, &TransitionError{From: o.Status, Action: "cancel", Err: ErrNotCancellable}
	}
	return withStatus(o, model.OrderStatusCancelled, now, reason), nil
}

// Refund оформляет возврат по заказу из любого статуса, кроме отмены и возврата.
func Refund(o model.Order, note string, now time.Time) (model.Order, error) {
	if _, ok := Lookup(o.Status); !ok {
		return o, &TransitionError{From: o.Status, Action: "refund", Err: ErrUnknownStatus}
	}
	if IsAbsorbing(o.Status) {
		return o, &TransitionError{From: o.Status, Action: "refund", Err: ErrAlreadyClosed}
	}
	return withStatus(o, model.OrderStatusRefunded, now, note), nil
}

func withStatus(o model.Order, next model.OrderStatus, now time.Time, note string) model.Order {
	history := make([]model.StatusChange, len(o.StatusHistory), len(o.StatusHistory)+1)
	copy(history, o.StatusHistory)
	history = append(history, model.StatusChange{Status: next, Timestamp: now, Note: note})

	o.Status = next
	o.StatusHistory = history
	return o
}

// Step описывает этап шкалы прогресса заказа.
type Step struct {
	Definition
	IsCompleted bool `json:"isCompleted"`
	IsCurrent   bool `json:"isCurrent"`
	IsUpcoming  bool `json:"isUpcoming"`
}

// Flow возвращает шесть нетерминальных статусов с отметками относительно current.
// Для отменённых, возвращённых и неизвестных статусов все этапы считаются предстоящими.
func Flow(current model.OrderStatus) []Step {
	idx := -1
	for i, d := range flow {
		if d.Status == current {
			idx = i
			break
		}
	}

	steps := make([]Step, len(flow))
	for i, d := range flow {
		steps[i] = Step{Definition: d}
		switch {
		case idx < 0:
			steps[i].IsUpcoming = true
		case i < idx:
			steps[i].IsCompleted = true
		case i == idx:
			steps[i].IsCurrent = true
		default:
			steps[i].IsUpcoming = true
		}
	}
	return steps
}
