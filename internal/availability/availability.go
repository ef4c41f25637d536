// Package availability решает, какие позиции заказа недоступны
// по текущему снимку остатков. Чистая функция без состояния:
// обе стороны сравнения приходят извне, пустой результат означает,
// что весь заказ в наличии.
package availability

import "github.com/NEOdinok/servisex-payments/internal/models"

// Unavailable возвращает id вариантов товара из позиций заказа,
// которых нет в снимке остатков или остаток которых равен нулю.
// Количество в позиции заказа намеренно не сравнивается с остатком:
// любой ненулевой остаток считается наличием.
// Каждый id попадает в результат не больше одного раза.
func Unavailable(items []models.OrderItem, stock map[int]int) []int {
	var outOfStock []int

	seen := make(map[int]struct{}, len(items))

	for _, item := range items {
		offerID := item.Offer.ID

		if _, ok := seen[offerID]; ok {
			continue
		}
		seen[offerID] = struct{}{}

		quantity, ok := stock[offerID]
		if !ok || quantity == 0 {
			outOfStock = append(outOfStock, offerID)
		}
	}

	return outOfStock
}
