package notification

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEOdinok/servisex-payments/internal/clients/telegram"
	"github.com/NEOdinok/servisex-payments/internal/models"
)

type fakeCRM struct {
	order *models.Order
	stock map[int]int

	getOrderErr error
	getStockErr error
	updateErr   error

	getOrderCalls int
	getStockCalls int
	updateCalls   int
	statuses      []string
}

func (f *fakeCRM) GetOrder(_ context.Context, _ string) (*models.Order, error) {
	f.getOrderCalls++
	if f.getOrderErr != nil {
		return nil, f.getOrderErr
	}
	return f.order, nil
}

func (f *fakeCRM) GetStock(_ context.Context) (map[int]int, error) {
	f.getStockCalls++
	if f.getStockErr != nil {
		return nil, f.getStockErr
	}
	return f.stock, nil
}

func (f *fakeCRM) UpdateOrderStatus(_ context.Context, _ string, status string) error {
	f.updateCalls++
	f.statuses = append(f.statuses, status)
	return f.updateErr
}

type fakeGateway struct {
	captureErr error
	cancelErr  error

	captureCalls   int
	cancelCalls    int
	capturedAmount models.Amount
}

func (f *fakeGateway) CapturePayment(_ context.Context, _ string, amount models.Amount) error {
	f.captureCalls++
	f.capturedAmount = amount
	return f.captureErr
}

func (f *fakeGateway) CancelPayment(_ context.Context, _ string) error {
	f.cancelCalls++
	return f.cancelErr
}

type fakeNotifier struct {
	err error

	calls   int
	details telegram.OrderDetails
}

func (f *fakeNotifier) SendOrderDetails(_ context.Context, details telegram.OrderDetails, _ string) error {
	f.calls++
	f.details = details
	return f.err
}

type fakeGuard struct {
	acquireErr error

	held         map[string]bool
	acquireCalls int
	releaseCalls int
}

func (f *fakeGuard) key(paymentID string, event models.Event) string {
	return paymentID + ":" + string(event)
}

func (f *fakeGuard) Acquire(_ context.Context, paymentID string, event models.Event) (bool, error) {
	f.acquireCalls++
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[f.key(paymentID, event)] {
		return false, nil
	}
	f.held[f.key(paymentID, event)] = true
	return true, nil
}

func (f *fakeGuard) Release(_ context.Context, paymentID string, event models.Event) error {
	f.releaseCalls++
	delete(f.held, f.key(paymentID, event))
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func notificationFor(event string) models.PaymentNotification {
	return models.PaymentNotification{
		Event: event,
		Object: models.PaymentObject{
			ID: "payment-1",
			Amount: models.Amount{
				Value:    "4500.00",
				Currency: "RUB",
			},
			Metadata: models.PaymentMetadata{OrderID: "42"},
		},
	}
}

func orderWithOffer(offerID int) *models.Order {
	return &models.Order{
		ID:        42,
		FirstName: "Гоша",
		LastName:  "Мартынович",
		Phone:     "+79990000000",
		Email:     "gosha@example.com",
		Summ:      4000,
		Delivery: models.Delivery{
			Code: "cdek",
			Cost: 500,
			Address: models.DeliveryAddress{
				Text: "Москва, ул. Пушкина, 1",
			},
		},
		Items: []models.OrderItem{
			{Quantity: 2, Offer: models.Offer{ID: offerID}},
		},
	}
}

func TestProcess_WaitingForCapture_OutOfStock(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5), stock: map[int]int{5: 0}}
	gateway := &fakeGateway{}

	proc := New(crm, gateway, nil, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventWaitingForCapture)))
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.cancelCalls)
	assert.Equal(t, 0, gateway.captureCalls)
	assert.Equal(t, []string{models.OrderStatusNoProduct}, crm.statuses)
}

func TestProcess_WaitingForCapture_AllInStock(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5), stock: map[int]int{5: 3}}
	gateway := &fakeGateway{}

	proc := New(crm, gateway, nil, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventWaitingForCapture)))
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.captureCalls)
	assert.Equal(t, 0, gateway.cancelCalls)
	// Сумма подтверждения берется из уведомления, не пересчитывается.
	assert.Equal(t, models.Amount{Value: "4500.00", Currency: "RUB"}, gateway.capturedAmount)
	assert.Equal(t, []string{models.OrderStatusAvailabilityConfirmed}, crm.statuses)
}

func TestProcess_Succeeded(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5)}
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}

	proc := New(crm, gateway, notifier, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventSucceeded)))
	require.NoError(t, err)

	assert.Equal(t, []string{models.OrderStatusPaid}, crm.statuses)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "Гоша Мартынович", notifier.details.Name)
	assert.Equal(t, 4500.0, notifier.details.TotalPrice)
	assert.Equal(t, 0, gateway.captureCalls)
	assert.Equal(t, 0, gateway.cancelCalls)
}

func TestProcess_Succeeded_NotifierFailureIgnored(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5)}
	notifier := &fakeNotifier{err: errors.New("telegram is down")}

	proc := New(crm, &fakeGateway{}, notifier, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventSucceeded)))
	require.NoError(t, err)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, []string{models.OrderStatusPaid}, crm.statuses)
}

func TestProcess_Succeeded_StatusUpdateFailure(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5), updateErr: errors.New("crm is down")}
	notifier := &fakeNotifier{}

	proc := New(crm, &fakeGateway{}, notifier, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventSucceeded)))
	require.Error(t, err)

	assert.Equal(t, 0, notifier.calls)
}

func TestProcess_Canceled_NoCalls(t *testing.T) {
	crm := &fakeCRM{}
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}

	proc := New(crm, gateway, notifier, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventCanceled)))
	require.NoError(t, err)

	assert.Equal(t, 0, crm.getOrderCalls)
	assert.Equal(t, 0, crm.getStockCalls)
	assert.Equal(t, 0, crm.updateCalls)
	assert.Equal(t, 0, gateway.captureCalls)
	assert.Equal(t, 0, gateway.cancelCalls)
	assert.Equal(t, 0, notifier.calls)
}

func TestProcess_UnknownEvent_NoCalls(t *testing.T) {
	crm := &fakeCRM{}
	gateway := &fakeGateway{}

	proc := New(crm, gateway, nil, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor("refund.succeeded"))
	require.NoError(t, err)

	assert.Equal(t, 0, crm.getOrderCalls)
	assert.Equal(t, 0, gateway.captureCalls)
	assert.Equal(t, 0, gateway.cancelCalls)
}

func TestProcess_StatusUpdateFailsAfterCapture(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5), stock: map[int]int{5: 3}, updateErr: errors.New("crm is down")}
	gateway := &fakeGateway{}

	proc := New(crm, gateway, nil, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventWaitingForCapture)))
	require.Error(t, err)

	// Ровно один capture, без ретраев: повторную доставку делает шлюз.
	assert.Equal(t, 1, gateway.captureCalls)
	assert.Equal(t, 1, crm.updateCalls)
}

func TestProcess_DecisionPathFailure_NoMutations(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5), getStockErr: errors.New("crm is down")}
	gateway := &fakeGateway{}

	proc := New(crm, gateway, nil, nil, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventWaitingForCapture)))
	require.Error(t, err)

	assert.Equal(t, 0, gateway.captureCalls)
	assert.Equal(t, 0, gateway.cancelCalls)
	assert.Equal(t, 0, crm.updateCalls)
}

func TestProcess_DuplicateDelivery_Skipped(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5), stock: map[int]int{5: 3}}
	gateway := &fakeGateway{}
	guard := &fakeGuard{}

	proc := New(crm, gateway, nil, guard, discardLogger())

	n := notificationFor(string(models.EventWaitingForCapture))

	require.NoError(t, proc.Process(context.Background(), n))
	require.NoError(t, proc.Process(context.Background(), n))

	assert.Equal(t, 2, guard.acquireCalls)
	assert.Equal(t, 1, gateway.captureCalls)
	assert.Equal(t, 1, crm.updateCalls)
}

func TestProcess_GuardReleasedOnFailure(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5), stock: map[int]int{5: 3}}
	gateway := &fakeGateway{captureErr: errors.New("gateway is down")}
	guard := &fakeGuard{}

	proc := New(crm, gateway, nil, guard, discardLogger())

	n := notificationFor(string(models.EventWaitingForCapture))

	require.Error(t, proc.Process(context.Background(), n))

	assert.Equal(t, 1, guard.releaseCalls)

	// После освобождения ключа повторная доставка проходит.
	gateway.captureErr = nil
	require.NoError(t, proc.Process(context.Background(), n))
	assert.Equal(t, 2, gateway.captureCalls)
}

func TestProcess_GuardUnavailable_ProcessingContinues(t *testing.T) {
	crm := &fakeCRM{order: orderWithOffer(5), stock: map[int]int{5: 3}}
	gateway := &fakeGateway{}
	guard := &fakeGuard{acquireErr: errors.New("redis is down")}

	proc := New(crm, gateway, nil, guard, discardLogger())

	err := proc.Process(context.Background(), notificationFor(string(models.EventWaitingForCapture)))
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.captureCalls)
}
