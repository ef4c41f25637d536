// Package models описывает доменные структуры: заказы и товары CRM,
// уведомления платежного шлюза и статусы, которыми обработчик
// управляет в жизненном цикле заказа.
package models

// Статусы заказа в CRM, которые выставляет обработчик уведомлений.
// Статус принадлежит CRM; здесь он только перезаписывается.
const (
	OrderStatusNoProduct             = "no-product"
	OrderStatusAvailabilityConfirmed = "availability-confirmed"
	OrderStatusPaid                  = "paid"
)

// Order - заказ, каким его возвращает CRM. Здесь перечислены только
// поля, нужные обработчику уведомлений и проксирующим ручкам;
// остальное CRM отдает, но мы его не разбираем.
type Order struct {
	ID              int         `json:"id"`
	Number          string      `json:"number,omitempty"`
	Status          string      `json:"status,omitempty"`
	Summ            float64     `json:"summ"`
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	Phone           string      `json:"phone"`
	Email           string      `json:"email,omitempty"`
	CustomerComment string      `json:"customerComment,omitempty"`
	Delivery        Delivery    `json:"delivery"`
	Items           []OrderItem `json:"items"`
}

// Delivery - блок доставки заказа.
type Delivery struct {
	Code    string          `json:"code,omitempty"`
	Cost    float64         `json:"cost"`
	Address DeliveryAddress `json:"address"`
}

type DeliveryAddress struct {
	Text string `json:"text,omitempty"`
}

// OrderItem - позиция заказа. Количество относится к позиции,
// offer указывает на конкретный вариант товара.
type OrderItem struct {
	Quantity int   `json:"quantity"`
	Offer    Offer `json:"offer"`
}

// Offer - конкретный вариант товара (размер/цвет) с собственным
// остатком на складе. В позициях заказа CRM присылает offer без
// количества, в каталоге товаров - с актуальным остатком.
type Offer struct {
	ID       int    `json:"id"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

// Product - товар каталога с вложенными вариантами.
type Product struct {
	ID     int     `json:"id"`
	Name   string  `json:"name,omitempty"`
	Offers []Offer `json:"offers"`
}

// OrdersResponse - ответ CRM на запрос списка заказов.
type OrdersResponse struct {
	Success bool    `json:"success"`
	Orders  []Order `json:"orders"`
}

// ProductsResponse - ответ CRM на запрос каталога товаров.
type ProductsResponse struct {
	Success  bool      `json:"success"`
	Products []Product `json:"products"`
}
