// Package yookassa реализует клиента платежного шлюза YooKassa:
// подтверждение и отмена удержанного платежа, создание нового платежа.
// Каждый вызов авторизуется basic auth парой shopId:secretKey и несет
// свежий Idempotence-Key - ключ никогда не переиспользуется, даже между
// capture и cancel по одному и тому же платежу.
package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/NEOdinok/servisex-payments/internal/config"
	"github.com/NEOdinok/servisex-payments/internal/models"
	"github.com/google/uuid"
)

// TrustedNetworks - задокументированные сети, из которых шлюз
// присылает уведомления. Список воспроизводится дословно:
// это граница доверия webhook'а.
var TrustedNetworks = []string{
	"185.71.76.0/27",
	"185.71.77.0/27",
	"77.75.153.0/25",
	"77.75.156.11",
	"77.75.156.35",
	"77.75.154.128/25",
	"2a02:5180::/32",
}

// Client - HTTP-клиент шлюза.
type Client struct {
	baseURL    string
	shopID     string
	secretKey  string
	httpClient *http.Client
}

// New создает клиента шлюза. Учетные данные приходят из конфигурации
// один раз на старте процесса.
func New(cfg config.YooKassa, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		shopID:     cfg.ShopID,
		secretKey:  cfg.SecretKey,
		httpClient: httpClient,
	}
}

type captureRequest struct {
	Amount models.Amount `json:"amount"`
}

// CapturePayment подтверждает удержанный платеж на указанную сумму.
// Сумма берется из уведомления шлюза и не пересчитывается.
func (c *Client) CapturePayment(ctx context.Context, paymentID string, amount models.Amount) error {
	const fn = "clients.yookassa.CapturePayment"

	body, err := json.Marshal(captureRequest{Amount: amount})
	if err != nil {
		return fmt.Errorf("%s: can't marshal body: %v", fn, err)
	}

	endpoint := fmt.Sprintf("%s/payments/%s/capture", c.baseURL, paymentID)

	if _, err := c.post(ctx, endpoint, body); err != nil {
		return fmt.Errorf("%s: %v", fn, err)
	}

	return nil
}

// CancelPayment снимает удержание с платежа без списания средств.
func (c *Client) CancelPayment(ctx context.Context, paymentID string) error {
	const fn = "clients.yookassa.CancelPayment"

	endpoint := fmt.Sprintf("%s/payments/%s/cancel", c.baseURL, paymentID)

	if _, err := c.post(ctx, endpoint, []byte("{}")); err != nil {
		return fmt.Errorf("%s: %v", fn, err)
	}

	return nil
}

// CreatePaymentRequest описывает новый платеж с двухфазным списанием:
// средства удерживаются (capture=false), подтверждение происходит
// после проверки наличия товара в webhook'е.
type CreatePaymentRequest struct {
	Amount       models.Amount  `json:"amount"`
	Capture      bool           `json:"capture"`
	Confirmation Confirmation   `json:"confirmation"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata"`
	Receipt      *Receipt       `json:"receipt,omitempty"`
}

type Confirmation struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url"`
}

type Receipt struct {
	Customer      ReceiptCustomer `json:"customer"`
	TaxSystemCode int             `json:"tax_system_code"`
	Items         []ReceiptItem   `json:"items"`
}

type ReceiptCustomer struct {
	Email string `json:"email"`
}

type ReceiptItem struct {
	Description    string        `json:"description"`
	Quantity       int           `json:"quantity"`
	Amount         models.Amount `json:"amount"`
	VatCode        int           `json:"vat_code"`
	PaymentMode    string        `json:"payment_mode"`
	PaymentSubject string        `json:"payment_subject"`
	Measure        string        `json:"measure"`
}

// CreatePayment создает удержанный платеж и возвращает ответ шлюза
// как есть - витрине нужен confirmation_url из него.
func (c *Client) CreatePayment(ctx context.Context, payment CreatePaymentRequest) (json.RawMessage, error) {
	const fn = "clients.yookassa.CreatePayment"

	body, err := json.Marshal(payment)
	if err != nil {
		return nil, fmt.Errorf("%s: can't marshal body: %v", fn, err)
	}

	raw, err := c.post(ctx, c.baseURL+"/payments", body)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", fn, err)
	}

	return raw, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("can't create request: %v", err)
	}

	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	// Свежий ключ на каждый вызов: шлюз дедуплицирует только
	// повтор того же самого запроса, не логически новые вызовы.
	req.Header.Set("Idempotence-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("can't read response: %v", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	return raw, nil
}
