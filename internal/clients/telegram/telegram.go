// Package telegram отправляет сводку оплаченного заказа в чат магазина.
// Отправка best-effort: сбой здесь логируется вызывающей стороной
// и не влияет на результат обработки уведомления.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/NEOdinok/servisex-payments/internal/config"
)

// OrderDetails - данные заказа для сообщения в чат.
type OrderDetails struct {
	Name            string
	Email           string
	Phone           string
	Address         string
	Delivery        string
	ProductsPrice   float64
	DeliveryPrice   float64
	TotalPrice      float64
	CustomerComment string
}

// Client - клиент Bot API. Пустой токен выключает отправку.
type Client struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
}

func New(cfg config.Telegram, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		chatID:     cfg.ChatID,
		httpClient: httpClient,
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// SendOrderDetails форматирует сводку заказа и отправляет ее
// методом sendMessage.
func (c *Client) SendOrderDetails(ctx context.Context, details OrderDetails, status string) error {
	const fn = "clients.telegram.SendOrderDetails"

	if c.token == "" {
		return fmt.Errorf("%s: bot token is not configured", fn)
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID: c.chatID,
		Text:   formatOrderDetails(details, status),
	})
	if err != nil {
		return fmt.Errorf("%s: can't marshal body: %v", fn, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: can't create request: %v", fn, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %v", fn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: unexpected status %d: %s", fn, resp.StatusCode, respBody)
	}

	return nil
}

func formatOrderDetails(details OrderDetails, status string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Заказ %s\n\n", status))
	sb.WriteString(fmt.Sprintf("Имя: %s\n", details.Name))
	sb.WriteString(fmt.Sprintf("Телефон: %s\n", details.Phone))
	sb.WriteString(fmt.Sprintf("Почта: %s\n", details.Email))
	sb.WriteString(fmt.Sprintf("Доставка: %s\n", details.Delivery))
	sb.WriteString(fmt.Sprintf("Адрес: %s\n", details.Address))
	sb.WriteString(fmt.Sprintf("Товары: %.2f\n", details.ProductsPrice))
	sb.WriteString(fmt.Sprintf("Доставка: %.2f\n", details.DeliveryPrice))
	sb.WriteString(fmt.Sprintf("Итого: %.2f\n", details.TotalPrice))

	if details.CustomerComment != "" {
		sb.WriteString(fmt.Sprintf("\nКомментарий: %s\n", details.CustomerComment))
	}

	return sb.String()
}
