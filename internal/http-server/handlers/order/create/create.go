// Package create реализует создание заказа в CRM.
// Тело заказа формирует витрина; обработчик его не интерпретирует
// и проксирует ответ CRM как есть.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	resp "github.com/NEOdinok/servisex-payments/lib/api/response"
	"github.com/NEOdinok/servisex-payments/lib/logger/sl"
)

type Request struct {
	Order json.RawMessage `json:"order"`
}

// OrderCreator создает заказ в CRM.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order json.RawMessage) (json.RawMessage, error)
}

func New(log *slog.Logger, crm OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.order.create.New"

		log := log.With(
			slog.String("fn", fn),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode json body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Invalid JSON"))

			return
		}

		if len(req.Order) == 0 {
			log.Error("missing order data")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Missing order data"))

			return
		}

		raw, err := crm.CreateOrder(r.Context(), req.Order)
		if err != nil {
			log.Error("failed to create order", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Failed to create order"))

			return
		}

		log.Info("order created")

		render.JSON(w, r, raw)
	}
}
