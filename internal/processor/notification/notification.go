// Package notification содержит оркестрацию обработки уведомления
// платежного шлюза: сверку позиций заказа с остатками и двухфазный
// исход - подтверждение платежа или его отмену с пометкой заказа.
//
// Обработка stateless и строго последовательная: каждый шаг зависит
// от результата предыдущего. Внутренних ретраев нет - повторную
// доставку обеспечивает сам шлюз, поэтому при любом сбое ошибка
// просто поднимается наверх.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NEOdinok/servisex-payments/internal/availability"
	"github.com/NEOdinok/servisex-payments/internal/clients/telegram"
	"github.com/NEOdinok/servisex-payments/internal/models"
	"github.com/NEOdinok/servisex-payments/lib/logger/sl"
)

// CRM - операции с заказами и остатками, нужные обработчику.
type CRM interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetStock(ctx context.Context) (map[int]int, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status string) error
}

// Gateway - команды платежному шлюзу.
type Gateway interface {
	CapturePayment(ctx context.Context, paymentID string, amount models.Amount) error
	CancelPayment(ctx context.Context, paymentID string) error
}

// Notifier - отправка сводки заказа в чат магазина.
type Notifier interface {
	SendOrderDetails(ctx context.Context, details telegram.OrderDetails, status string) error
}

// Guard отсечет повторную доставку того же события по тому же платежу.
// nil-guard выключает защиту: поведение тогда совпадает с исходным,
// где параллельные доставки не координируются.
type Guard interface {
	Acquire(ctx context.Context, paymentID string, event models.Event) (bool, error)
	Release(ctx context.Context, paymentID string, event models.Event) error
}

type Processor struct {
	crm      CRM
	gateway  Gateway
	notifier Notifier
	guard    Guard
	log      *slog.Logger
}

// New собирает обработчик. notifier и guard могут быть nil:
// первый выключает уведомления в чат, второй - защиту от дублей.
func New(crm CRM, gateway Gateway, notifier Notifier, guard Guard, log *slog.Logger) *Processor {
	return &Processor{
		crm:      crm,
		gateway:  gateway,
		notifier: notifier,
		guard:    guard,
		log:      log,
	}
}

// Process обрабатывает одно уведомление. Возвращает nil для всех
// событий, не требующих действий (payment.canceled, неизвестные),
// и ошибку при сбое любого внешнего вызова на пути принятия решения
// или на пути действий. Компенсаций нет: если после успешного capture
// упало обновление статуса, системы остаются рассогласованными
// до внешней сверки.
func (p *Processor) Process(ctx context.Context, n models.PaymentNotification) error {
	const fn = "processor.notification.Process"

	event := models.ParseEvent(n.Event)
	paymentID := n.Object.ID
	orderID := n.Object.Metadata.OrderID

	log := p.log.With(
		slog.String("fn", fn),
		slog.String("event", string(event)),
		slog.String("payment_id", paymentID),
		slog.String("order_id", orderID),
	)

	switch event {
	case models.EventWaitingForCapture, models.EventSucceeded:
	case models.EventCanceled:
		log.Info("payment canceled by the gateway, nothing to do")
		return nil
	default:
		log.Info("unhandled event, acknowledging without action")
		return nil
	}

	if p.guard != nil {
		acquired, err := p.guard.Acquire(ctx, paymentID, event)
		if err != nil {
			// Недоступность guard'а не должна ронять webhook:
			// продолжаем без защиты от дублей.
			log.Warn("idempotency guard unavailable, proceeding without it", sl.Err(err))
		} else if !acquired {
			log.Info("duplicate delivery, already processed or in flight")
			return nil
		}
	}

	var err error

	switch event {
	case models.EventWaitingForCapture:
		err = p.processWaitingForCapture(ctx, log, n)
	case models.EventSucceeded:
		err = p.processSucceeded(ctx, log, orderID)
	}

	if err != nil && p.guard != nil {
		// Отпускаем ключ, чтобы повторная доставка шлюза
		// смогла обработаться заново.
		if releaseErr := p.guard.Release(ctx, paymentID, event); releaseErr != nil {
			log.Warn("can't release idempotency key", sl.Err(releaseErr))
		}
	}

	return err
}

// processWaitingForCapture сверяет позиции заказа со свежим снимком
// остатков и выбирает одну из двух веток: отмена платежа со статусом
// no-product либо подтверждение на сумму из уведомления со статусом
// availability-confirmed.
func (p *Processor) processWaitingForCapture(ctx context.Context, log *slog.Logger, n models.PaymentNotification) error {
	const fn = "processor.notification.processWaitingForCapture"

	paymentID := n.Object.ID
	orderID := n.Object.Metadata.OrderID

	order, err := p.crm.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%s: can't get order: %v", fn, err)
	}

	stock, err := p.crm.GetStock(ctx)
	if err != nil {
		return fmt.Errorf("%s: can't get stock: %v", fn, err)
	}

	outOfStock := availability.Unavailable(order.Items, stock)

	if len(outOfStock) > 0 {
		log.Info("some items are out of stock, canceling payment", slog.Any("offer_ids", outOfStock))

		if err := p.gateway.CancelPayment(ctx, paymentID); err != nil {
			return fmt.Errorf("%s: can't cancel payment: %v", fn, err)
		}

		if err := p.crm.UpdateOrderStatus(ctx, orderID, models.OrderStatusNoProduct); err != nil {
			return fmt.Errorf("%s: can't update order status: %v", fn, err)
		}

		log.Info("payment canceled, order marked as no-product")

		return nil
	}

	log.Info("all items in stock, capturing payment")

	if err := p.gateway.CapturePayment(ctx, paymentID, n.Object.Amount); err != nil {
		return fmt.Errorf("%s: can't capture payment: %v", fn, err)
	}

	if err := p.crm.UpdateOrderStatus(ctx, orderID, models.OrderStatusAvailabilityConfirmed); err != nil {
		return fmt.Errorf("%s: can't update order status: %v", fn, err)
	}

	log.Info("payment captured, availability confirmed")

	return nil
}

// processSucceeded помечает заказ оплаченным и best-effort отправляет
// сводку в чат. Сбой отправки логируется и не влияет на результат.
func (p *Processor) processSucceeded(ctx context.Context, log *slog.Logger, orderID string) error {
	const fn = "processor.notification.processSucceeded"

	order, err := p.crm.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%s: can't get order: %v", fn, err)
	}

	if err := p.crm.UpdateOrderStatus(ctx, orderID, models.OrderStatusPaid); err != nil {
		return fmt.Errorf("%s: can't update order status: %v", fn, err)
	}

	log.Info("order marked as paid")

	if p.notifier == nil {
		return nil
	}

	details := telegram.OrderDetails{
		Name:            order.FirstName + " " + order.LastName,
		Email:           order.Email,
		Phone:           order.Phone,
		Address:         order.Delivery.Address.Text,
		Delivery:        order.Delivery.Code,
		ProductsPrice:   order.Summ,
		DeliveryPrice:   order.Delivery.Cost,
		TotalPrice:      order.Summ + order.Delivery.Cost,
		CustomerComment: order.CustomerComment,
	}

	if err := p.notifier.SendOrderDetails(ctx, details, models.OrderStatusPaid); err != nil {
		log.Error("can't send order details, ignoring", sl.Err(err))
	}

	return nil
}
