// Package get реализует чтение заказов из CRM по списку идентификаторов.
package get

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/NEOdinok/servisex-payments/internal/models"
	resp "github.com/NEOdinok/servisex-payments/lib/api/response"
	"github.com/NEOdinok/servisex-payments/lib/logger/sl"
)

// OrdersGetter читает заказы из CRM.
type OrdersGetter interface {
	GetOrders(ctx context.Context, ids []string) (*models.OrdersResponse, error)
}

func New(log *slog.Logger, crm OrdersGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.order.get.New"

		log := log.With(
			slog.String("fn", fn),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ids := r.URL.Query().Get("ids")
		if ids == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Order IDs are required"))

			return
		}

		ordersResp, err := crm.GetOrders(r.Context(), strings.Split(ids, ","))
		if err != nil {
			log.Error("failed to get orders", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Failed fetching data"))

			return
		}

		render.JSON(w, r, ordersResp)
	}
}
