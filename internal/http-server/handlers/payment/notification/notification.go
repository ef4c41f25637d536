// Package notification реализует webhook платежного шлюза.
// Порядок строгий: сначала проверка источника по списку доверенных
// сетей, потом разбор и валидация тела, и только затем обработка
// с побочными эффектами. Недоверенный источник получает 403
// до каких-либо внешних вызовов.
package notification

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/NEOdinok/servisex-payments/internal/models"
	resp "github.com/NEOdinok/servisex-payments/lib/api/response"
	"github.com/NEOdinok/servisex-payments/lib/iprange"
	"github.com/NEOdinok/servisex-payments/lib/logger/sl"
)

// Processor обрабатывает разобранное уведомление.
type Processor interface {
	Process(ctx context.Context, n models.PaymentNotification) error
}

// New возвращает обработчик POST-запросов webhook'а.
func New(log *slog.Logger, allowList iprange.AllowList, processor Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.payment.notification.New"

		log := log.With(
			slog.String("fn", fn),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ip := sourceIP(r)

		if !allowList.ContainsString(ip) {
			log.Warn("notification from untrusted address", slog.String("ip", ip))

			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.Error("Forbidden: Invalid IP address"))

			return
		}

		log.Info("notification source validated", slog.String("ip", ip))

		var notification models.PaymentNotification

		if err := render.DecodeJSON(r.Body, &notification); err != nil {
			log.Error("failed to decode json body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := validator.New().Struct(notification); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid notification", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		log.Info("notification received",
			slog.String("event", notification.Event),
			slog.String("payment_id", notification.Object.ID),
		)

		// Начатая обработка идет до конца: разрыв соединения со шлюзом
		// не должен оборвать ее на полпути между внешними вызовами.
		ctx := context.WithoutCancel(r.Context())

		if err := processor.Process(ctx, notification); err != nil {
			log.Error("failed to process notification", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Failed to process notification"))

			return
		}

		render.JSON(w, r, resp.OK("Notification processed successfully"))
	}
}

// sourceIP достает адрес источника из заголовков прокси:
// первый адрес X-Forwarded-For, затем Client-Ip.
func sourceIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}

	return r.Header.Get("Client-Ip")
}
