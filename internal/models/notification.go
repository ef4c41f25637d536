package models

// Event - это тип события, которое платежный шлюз присылает в webhook.
// Осмысленных событий три, все остальные строки сворачиваются
// в EventUnhandled на этапе разбора.
type Event string

const (
	EventWaitingForCapture Event = "payment.waiting_for_capture"
	EventSucceeded         Event = "payment.succeeded"
	EventCanceled          Event = "payment.canceled"
	EventUnhandled         Event = "unhandled"
)

// ParseEvent сопоставляет строку из тела уведомления с известным событием.
// Неизвестная строка не является ошибкой: шлюз не должен ретраить
// корректное по форме уведомление, поэтому возвращается EventUnhandled.
func ParseEvent(s string) Event {
	switch Event(s) {
	case EventWaitingForCapture, EventSucceeded, EventCanceled:
		return Event(s)
	default:
		return EventUnhandled
	}
}

// Amount - денежная сумма в формате шлюза: десятичная строка плюс код валюты.
// Значение не пересчитывается и не парсится в число: при подтверждении
// платежа в шлюз уходит ровно та сумма, что пришла в уведомлении.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// PaymentNotification - входящее уведомление о смене статуса платежа.
// Уведомление нигде не сохраняется: обработка полностью stateless.
type PaymentNotification struct {
	Event  string        `json:"event" validate:"required"`
	Object PaymentObject `json:"object" validate:"required"`
}

// PaymentObject описывает сам платеж внутри уведомления.
// В metadata шлюз возвращает orderId, который магазин положил туда
// при создании платежа - это единственная связь платежа с заказом в CRM.
type PaymentObject struct {
	ID       string          `json:"id" validate:"required"`
	Amount   Amount          `json:"amount"`
	Metadata PaymentMetadata `json:"metadata"`
	Status   string          `json:"status,omitempty"`
}

type PaymentMetadata struct {
	OrderID string `json:"orderId" validate:"required"`
}
