// Package create реализует создание удержанного платежа в шлюзе.
// Платеж создается с capture=false: списание произойдет только после
// того, как webhook подтвердит наличие товара.
package create

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/NEOdinok/servisex-payments/internal/clients/yookassa"
	"github.com/NEOdinok/servisex-payments/internal/models"
	resp "github.com/NEOdinok/servisex-payments/lib/api/response"
	"github.com/NEOdinok/servisex-payments/lib/logger/sl"
)

type Request struct {
	Value       float64  `json:"value" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Metadata    Metadata `json:"metadata"`
}

type Metadata struct {
	OrderID string `json:"orderId" validate:"required"`
	Email   string `json:"email"`
	Items   []Item `json:"items"`
}

type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// PaymentCreator создает платеж в шлюзе и возвращает его ответ как есть.
type PaymentCreator interface {
	CreatePayment(ctx context.Context, payment yookassa.CreatePaymentRequest) (json.RawMessage, error)
}

// New возвращает обработчик создания платежа. siteURL нужен для
// return_url, на который шлюз вернет покупателя после оплаты.
func New(log *slog.Logger, gateway PaymentCreator, siteURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.payment.create.New"

		log := log.With(
			slog.String("fn", fn),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode json body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Value and description are required"))

			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		receiptItems := make([]yookassa.ReceiptItem, 0, len(req.Metadata.Items))
		for _, item := range req.Metadata.Items {
			receiptItems = append(receiptItems, yookassa.ReceiptItem{
				Description: item.Name,
				Quantity:    item.Quantity,
				Amount: models.Amount{
					Value:    fmt.Sprintf("%.2f", item.Price),
					Currency: "RUB",
				},
				VatCode:        1,
				PaymentMode:    "full_prepayment",
				PaymentSubject: "commodity",
				Measure:        "piece",
			})
		}

		payment := yookassa.CreatePaymentRequest{
			Amount: models.Amount{
				Value:    fmt.Sprintf("%.2f", req.Value),
				Currency: "RUB",
			},
			Capture: false,
			Confirmation: yookassa.Confirmation{
				Type:      "redirect",
				ReturnURL: fmt.Sprintf("%s/thanks?orderId=%s", siteURL, req.Metadata.OrderID),
			},
			Description: req.Description,
			Metadata: map[string]any{
				"orderId": req.Metadata.OrderID,
			},
			Receipt: &yookassa.Receipt{
				Customer:      yookassa.ReceiptCustomer{Email: req.Metadata.Email},
				TaxSystemCode: 2,
				Items:         receiptItems,
			},
		}

		raw, err := gateway.CreatePayment(r.Context(), payment)
		if err != nil {
			log.Error("failed to create payment", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Failed to create payment"))

			return
		}

		log.Info("payment created", slog.String("order_id", req.Metadata.OrderID))

		render.JSON(w, r, raw)
	}
}
