// Package retailcrm реализует клиента CRM, в которой живут заказы
// и остатки товаров. Клиент покрывает только те методы API v5,
// которые нужны сервису: чтение заказов, чтение каталога с остатками,
// смена статуса заказа и создание заказа.
package retailcrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/NEOdinok/servisex-payments/internal/config"
	"github.com/NEOdinok/servisex-payments/internal/models"
)

var (
	// ErrOrderNotFound возвращается, когда CRM не знает заказа
	// с запрошенным идентификатором.
	ErrOrderNotFound = errors.New("order not found")
)

// Client - HTTP-клиент RetailCRM. API-ключ передается query-параметром
// apiKey в каждом запросе, как того требует API v5.
type Client struct {
	baseURL    string
	apiKey     string
	site       string
	httpClient *http.Client
}

// New создает клиента CRM. httpClient задает таймаут на каждый вызов;
// клиент не ретраит запросы - повторная доставка целиком на совести
// вызывающей стороны.
func New(cfg config.RetailCRM, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		site:       cfg.Site,
		httpClient: httpClient,
	}
}

// GetOrders возвращает заказы по списку идентификаторов
// через фильтр filter[ids][] списочного endpoint'а.
func (c *Client) GetOrders(ctx context.Context, ids []string) (*models.OrdersResponse, error) {
	const fn = "clients.retailcrm.GetOrders"

	query := url.Values{}
	query.Set("apiKey", c.apiKey)
	for _, id := range ids {
		query.Add("filter[ids][]", id)
	}

	var ordersResp models.OrdersResponse
	if err := c.getJSON(ctx, "/orders", query, &ordersResp); err != nil {
		return nil, fmt.Errorf("%s: %v", fn, err)
	}

	return &ordersResp, nil
}

// GetOrder возвращает один заказ по идентификатору.
// Если CRM ответила успешно, но заказа в ответе нет,
// возвращается ErrOrderNotFound.
func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	const fn = "clients.retailcrm.GetOrder"

	ordersResp, err := c.GetOrders(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	if !ordersResp.Success || len(ordersResp.Orders) == 0 {
		return nil, fmt.Errorf("%s: %w: id %s", fn, ErrOrderNotFound, id)
	}

	return &ordersResp.Orders[0], nil
}

// GetProducts возвращает каталог товаров с вложенными вариантами.
// Опциональный список ids сужает выборку через filter[ids][].
func (c *Client) GetProducts(ctx context.Context, ids []string) (*models.ProductsResponse, error) {
	const fn = "clients.retailcrm.GetProducts"

	query := url.Values{}
	query.Set("apiKey", c.apiKey)
	for _, id := range ids {
		query.Add("filter[ids][]", id)
	}

	var productsResp models.ProductsResponse
	if err := c.getJSON(ctx, "/store/products", query, &productsResp); err != nil {
		return nil, fmt.Errorf("%s: %v", fn, err)
	}

	return &productsResp, nil
}

// GetStock собирает свежий снимок остатков: отображение id варианта
// в доступное количество. Снимок валиден только в рамках одной
// обработки уведомления и никогда не кэшируется.
func (c *Client) GetStock(ctx context.Context) (map[int]int, error) {
	productsResp, err := c.GetProducts(ctx, nil)
	if err != nil {
		return nil, err
	}

	stock := make(map[int]int)
	for _, product := range productsResp.Products {
		for _, offer := range product.Offers {
			stock[offer.ID] = offer.Quantity
		}
	}

	return stock, nil
}

// UpdateOrderStatus безусловно перезаписывает статус заказа.
// CRM принимает изменение urlencoded-формой: by=id и order
// с JSON-телом изменяемых полей.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	const fn = "clients.retailcrm.UpdateOrderStatus"

	orderJSON, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return fmt.Errorf("%s: can't marshal order patch: %v", fn, err)
	}

	form := url.Values{}
	form.Set("by", "id")
	form.Set("order", string(orderJSON))

	endpoint := fmt.Sprintf("%s/orders/%s/edit?apiKey=%s", c.baseURL, url.PathEscape(orderID), url.QueryEscape(c.apiKey))

	if err := c.postForm(ctx, endpoint, form); err != nil {
		return fmt.Errorf("%s: %v", fn, err)
	}

	return nil
}

// CreateOrder создает заказ в CRM. Тело заказа передается как есть:
// структуру формирует витрина, клиент ее не интерпретирует.
func (c *Client) CreateOrder(ctx context.Context, order json.RawMessage) (json.RawMessage, error) {
	const fn = "clients.retailcrm.CreateOrder"

	form := url.Values{}
	form.Set("site", c.site)
	form.Set("order", string(order))

	endpoint := fmt.Sprintf("%s/orders/create?apiKey=%s", c.baseURL, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: can't create request: %v", fn, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %v", fn, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: can't read response: %v", fn, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s: unexpected status %d: %s", fn, resp.StatusCode, body)
	}

	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("can't create request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("can't decode response: %v", err)
	}

	return nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("can't create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	return nil
}
