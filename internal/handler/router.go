package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/beauty-storefront/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/coupons/validate", h.ValidateCoupon)
		r.Post("/coupons/redeem", h.RedeemCoupon)
		r.Get("/orders/{id}/timeline", h.Timeline)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/dashboard", h.Dashboard)
			r.Get("/customers", h.Customers)
			r.Get("/products", h.Products)

			r.Route("/orders/{id}", func(r chi.Router) {
				r.Post("/advance", h.AdvanceOrder)
				r.Post("/cancel", h.CancelOrder)
				r.Post("/refund", h.RefundOrder)
				r.Delete("/", h.DeleteOrder)
			})

			r.Get("/settings/currency", h.GetDisplayCurrency)
			r.Put("/settings/currency", h.SetDisplayCurrency)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
