// Package handler содержит HTTP-обработчики API витрины и панели администратора.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/beauty-storefront/internal/coupon"
	"github.com/mmeshcher/beauty-storefront/internal/currency"
	"github.com/mmeshcher/beauty-storefront/internal/model"
	"github.com/mmeshcher/beauty-storefront/internal/normalize"
	"github.com/mmeshcher/beauty-storefront/internal/repository"
	"github.com/mmeshcher/beauty-storefront/internal/service"
	"github.com/mmeshcher/beauty-storefront/internal/status"
	"github.com/mmeshcher/beauty-storefront/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Dashboard(ctx context.Context, days int, currencyCode string) (*service.DashboardView, error)
	Customers(ctx context.Context) ([]service.CustomerView, error)
	Products(ctx context.Context) ([]service.ProductView, error)
	ValidateCoupon(ctx context.Context, code string, cartTotal decimal.Decimal) (coupon.Result, error)
	RedeemCoupon(ctx context.Context, code string, cartTotal decimal.Decimal) (coupon.Result, error)
	Timeline(ctx context.Context, id string) (*service.Timeline, error)
	AdvanceOrder(ctx context.Context, id string) (model.Order, error)
	CancelOrder(ctx context.Context, id, reason string) (model.Order, error)
	RefundOrder(ctx context.Context, id, note string) (model.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	DisplayCurrency(ctx context.Context) (currency.Code, error)
	SetDisplayCurrency(ctx context.Context, raw string) (currency.Code, error)
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, code int) {
	writeJSON(w, code, errorResponse{Error: http.StatusText(code)})
}

// writeError переводит ошибку сервиса в HTTP-ответ. Неклассифицированные ошибки журналируются.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	var terr *status.TransitionError

	switch {
	case errors.As(err, &terr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: terr.Error(), Reason: terr.Err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		writeStatus(w, http.StatusNotFound)
	case errors.Is(err, repository.ErrStatusConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUnsupportedCurrency),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, normalize.ErrMalformed):
		h.logger.Warn(op+" malformed document", append(fields, zap.Error(err))...)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		writeStatus(w, http.StatusInternalServerError)
	}
}

// decodeOptional разбирает тело запроса; пустое тело допускается.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Dashboard возвращает агрегаты панели администратора.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeStatus(w, http.StatusBadRequest)
			return
		}
		days = n
	}

	view, err := h.service.Dashboard(r.Context(), days, r.URL.Query().Get("currency"))
	if err != nil {
		h.writeError(w, "dashboard", err, zap.Int("days", days))
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Customers возвращает покупателей с сегментами и оценками.
func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Customers(r.Context())
	if err != nil {
		h.writeError(w, "list customers", err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// Products возвращает каталог с каноническими категориями и статусами.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Products(r.Context())
	if err != nil {
		h.writeError(w, "list products", err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

type couponRequest struct {
	Code      string          `json:"code"`
	CartTotal decimal.Decimal `json:"cartTotal"`
}

func (h *Handler) decodeCoupon(w http.ResponseWriter, r *http.Request) (couponRequest, bool) {
	var req couponRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return req, false
	}

	return req, true
}

// unknownCode отвечает отказом not_found на код, который не может существовать в каталоге.
func unknownCode(req couponRequest) (coupon.Result, bool) {
	if validation.IsValidCouponCode(req.Code) {
		return coupon.Result{}, false
	}
	return coupon.Validate(req.Code, req.CartTotal, nil, time.Now()), true
}

// ValidateCoupon проверяет промокод для корзины. Отказ возвращается со статусом 200 и valid = false.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCoupon(w, r)
	if !ok {
		return
	}

	if res, ok := unknownCode(req); ok {
		writeJSON(w, http.StatusOK, res)
		return
	}

	res, err := h.service.ValidateCoupon(r.Context(), req.Code, req.CartTotal)
	if err != nil {
		h.writeError(w, "validate coupon", err, zap.String("code", req.Code))
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// RedeemCoupon засчитывает использование промокода при оформлении заказа.
func (h *Handler) RedeemCoupon(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCoupon(w, r)
	if !ok {
		return
	}

	if res, ok := unknownCode(req); ok {
		writeJSON(w, http.StatusConflict, res)
		return
	}

	res, err := h.service.RedeemCoupon(r.Context(), req.Code, req.CartTotal)
	if err != nil {
		h.writeError(w, "redeem coupon", err, zap.String("code", req.Code))
		return
	}

	if !res.Valid {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func orderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validation.IsValidDocumentID(id) {
		writeStatus(w, http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// Timeline возвращает шкалу прогресса заказа.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	tl, err := h.service.Timeline(r.Context(), id)
	if err != nil {
		h.writeError(w, "order timeline", err, zap.String("order", id))
		return
	}

	writeJSON(w, http.StatusOK, tl)
}

// AdvanceOrder переводит заказ в следующий статус.
func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	o, err := h.service.AdvanceOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, "advance order", err, zap.String("order", id))
		return
	}

	writeJSON(w, http.StatusOK, o)
}

type noteRequest struct {
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

func (n noteRequest) text() string {
	if n.Reason != "" {
		return n.Reason
	}
	return n.Note
}

// CancelOrder отменяет заказ.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeOptional(r, &req); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	o, err := h.service.CancelOrder(r.Context(), id, req.text())
	if err != nil {
		h.writeError(w, "cancel order", err, zap.String("order", id))
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// RefundOrder оформляет возврат по заказу.
func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeOptional(r, &req); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	o, err := h.service.RefundOrder(r.Context(), id, req.text())
	if err != nil {
		h.writeError(w, "refund order", err, zap.String("order", id))
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// DeleteOrder безвозвратно удаляет заказ.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.writeError(w, "delete order", err, zap.String("order", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type currencyResponse struct {
	Currency  currency.Code   `json:"currency"`
	Supported []currency.Code `json:"supported"`
}

// GetDisplayCurrency возвращает валюту отображения панели.
func (h *Handler) GetDisplayCurrency(w http.ResponseWriter, r *http.Request) {
	code, err := h.service.DisplayCurrency(r.Context())
	if err != nil {
		h.writeError(w, "get display currency", err)
		return
	}

	writeJSON(w, http.StatusOK, currencyResponse{Currency: code, Supported: currency.Supported()})
}

type currencyRequest struct {
	Currency string `json:"currency"`
}

// SetDisplayCurrency сохраняет валюту отображения панели.
func (h *Handler) SetDisplayCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Currency == "" {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	code, err := h.service.SetDisplayCurrency(r.Context(), req.Currency)
	if err != nil {
		h.writeError(w, "set display currency", err, zap.String("currency", req.Currency))
		return
	}

	writeJSON(w, http.StatusOK, currencyResponse{Currency: code, Supported: currency.Supported()})
}
