// Package get реализует чтение каталога товаров из CRM.
// Без параметра ids отдается весь каталог, с ним - выборка по товарам.
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

// ProductsGetter читает каталог из CRM.
type ProductsGetter interface {
	GetProducts(ctx context.Context, ids []string) (*models.ProductsResponse, error)
}

func New(log *slog.Logger, crm ProductsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.product.get.New"

		log := log.With(
			slog.String("fn", fn),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var ids []string
		if raw := r.URL.Query().Get("ids"); raw != "" {
			ids = strings.Split(raw, ",")
		}

		productsResp, err := crm.GetProducts(r.Context(), ids)
		if err != nil {
			log.Error("failed to get products", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Failed fetching data"))

			return
		}

		render.JSON(w, r, productsResp)
	}
}
