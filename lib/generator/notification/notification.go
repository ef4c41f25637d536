// Package notificationGen генерирует случайные, но структурно валидные
// уведомления платежного шлюза. Это основной инструмент локальной
// отладки webhook'а: эмулирует поток событий, включая неизвестные
// типы, которые обработчик должен молча подтверждать.
// Для создания фейковых данных используется библиотека `gofakeit`.
package notificationGen

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/NEOdinok/servisex-payments/internal/models"
	"github.com/brianvoe/gofakeit/v7"
)

// События с перекосом в сторону осмысленных: изредка проскакивают
// события, которые обработчик игнорирует.
var events = []string{
	string(models.EventWaitingForCapture),
	string(models.EventWaitingForCapture),
	string(models.EventWaitingForCapture),
	string(models.EventSucceeded),
	string(models.EventSucceeded),
	string(models.EventCanceled),
	"refund.succeeded",
}

// GenerateNotification создает уведомление со случайным платежом
// и заказом.
//
// Возвращает:
//   - `string`: идентификатор платежа, удобен для логов отправителя.
//   - `[]byte`: JSON-представление уведомления.
func GenerateNotification() (string, []byte) {
	paymentID := gofakeit.UUID()

	notification := models.PaymentNotification{
		Event: gofakeit.RandomString(events),
		Object: models.PaymentObject{
			ID: paymentID,
			Amount: models.Amount{
				Value:    fmt.Sprintf("%.2f", gofakeit.Price(500, 20000)),
				Currency: "RUB",
			},
			Metadata: models.PaymentMetadata{
				OrderID: strconv.Itoa(gofakeit.Number(1, 9999)),
			},
			Status: "waiting_for_capture",
		},
	}

	jsonData, err := json.Marshal(notification)
	if err != nil {
		// В данном контексте (генератор) просто выводим ошибку в консоль.
		fmt.Println("Error marshaling to JSON:", err)
		return "", nil
	}

	return paymentID, jsonData
}
