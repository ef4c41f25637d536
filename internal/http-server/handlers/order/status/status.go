// Package status реализует чтение статуса одного заказа.
// Витрина опрашивает эту ручку со страницы "спасибо за заказ".
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/NEOdinok/servisex-payments/internal/clients/retailcrm"
	"github.com/NEOdinok/servisex-payments/internal/models"
	resp "github.com/NEOdinok/servisex-payments/lib/api/response"
	"github.com/NEOdinok/servisex-payments/lib/logger/sl"
)

type Response struct {
	Status string `json:"status"`
}

// OrderGetter читает один заказ из CRM.
type OrderGetter interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

func New(log *slog.Logger, crm OrderGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.order.status.New"

		log := log.With(
			slog.String("fn", fn),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		orderID := r.URL.Query().Get("id")
		if orderID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Order ID is required"))

			return
		}

		order, err := crm.GetOrder(r.Context(), orderID)
		if errors.Is(err, retailcrm.ErrOrderNotFound) {
			log.Info("order not found", slog.String("order_id", orderID))

			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, resp.Error("Order not found"))

			return
		}
		if err != nil {
			log.Error("failed to get order", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Failed fetching order status"))

			return
		}

		render.JSON(w, r, Response{Status: order.Status})
	}
}
