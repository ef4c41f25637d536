package notification

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEOdinok/servisex-payments/internal/models"
	"github.com/NEOdinok/servisex-payments/lib/iprange"
)

type fakeProcessor struct {
	err error

	calls int
	last  models.PaymentNotification
}

func (f *fakeProcessor) Process(_ context.Context, n models.PaymentNotification) error {
	f.calls++
	f.last = n
	return f.err
}

const validBody = `{
	"event": "payment.waiting_for_capture",
	"object": {
		"id": "2e8b3a7f-000f-5000-9000-145f6df21d6f",
		"amount": {"value": "4500.00", "currency": "RUB"},
		"metadata": {"orderId": "42"}
	}
}`

func newHandler(t *testing.T, proc *fakeProcessor) http.HandlerFunc {
	t.Helper()

	allowList, err := iprange.Parse([]string{"185.71.76.0/27", "77.75.156.11"})
	require.NoError(t, err)

	return New(slog.New(slog.DiscardHandler), allowList, proc)
}

func doRequest(handler http.HandlerFunc, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/notifications", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func TestHandler_UntrustedIP(t *testing.T) {
	proc := &fakeProcessor{}
	handler := newHandler(t, proc)

	rr := doRequest(handler, validBody, map[string]string{"X-Forwarded-For": "10.0.0.1"})

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "Forbidden: Invalid IP address")
	// До проверки источника никакой обработки не происходит.
	assert.Equal(t, 0, proc.calls)
}

func TestHandler_MissingIP(t *testing.T) {
	proc := &fakeProcessor{}
	handler := newHandler(t, proc)

	rr := doRequest(handler, validBody, nil)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 0, proc.calls)
}

func TestHandler_TrustedIP_OK(t *testing.T) {
	proc := &fakeProcessor{}
	handler := newHandler(t, proc)

	rr := doRequest(handler, validBody, map[string]string{"X-Forwarded-For": "185.71.76.10"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Notification processed successfully")
	require.Equal(t, 1, proc.calls)
	assert.Equal(t, "payment.waiting_for_capture", proc.last.Event)
	assert.Equal(t, "42", proc.last.Object.Metadata.OrderID)
}

func TestHandler_ForwardedForList(t *testing.T) {
	proc := &fakeProcessor{}
	handler := newHandler(t, proc)

	// Учитывается только первый адрес списка - адрес клиента.
	rr := doRequest(handler, validBody, map[string]string{"X-Forwarded-For": "77.75.156.11, 192.168.0.1"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, proc.calls)
}

func TestHandler_ClientIPFallback(t *testing.T) {
	proc := &fakeProcessor{}
	handler := newHandler(t, proc)

	rr := doRequest(handler, validBody, map[string]string{"Client-Ip": "77.75.156.11"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, proc.calls)
}

func TestHandler_MalformedBody(t *testing.T) {
	proc := &fakeProcessor{}
	handler := newHandler(t, proc)

	rr := doRequest(handler, "{not json", map[string]string{"X-Forwarded-For": "77.75.156.11"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, proc.calls)
}

func TestHandler_MissingPaymentID(t *testing.T) {
	proc := &fakeProcessor{}
	handler := newHandler(t, proc)

	body := `{"event": "payment.succeeded", "object": {"metadata": {"orderId": "42"}}}`

	rr := doRequest(handler, body, map[string]string{"X-Forwarded-For": "77.75.156.11"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, proc.calls)
}

func TestHandler_ProcessorFailure(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("upstream is down")}
	handler := newHandler(t, proc)

	rr := doRequest(handler, validBody, map[string]string{"X-Forwarded-For": "77.75.156.11"})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to process notification")
}
