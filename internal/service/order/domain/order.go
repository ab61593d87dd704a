// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vernont/internal/pkg/apperr"
	cartdomain "vernont/internal/service/cart/domain"
)

// Order 是订单聚合的根实体，由已完成的购物车快照而来：
// 行项目在创建时复制价格/数量/标题，之后永远不会用实时价格重算。
type Order struct {
	ID         string
	CartID     string
	CustomerID string
	Email      string
	Currency   string
	Status     Status

	Items []OrderLineItem

	Subtotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	ShippingTotal decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal

	CanceledAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderLineItem 是创建时刻的购物车行快照，弱引用来源行。
type OrderLineItem struct {
	ID             string
	OrderID        string
	CartLineItemID string
	VariantID      string
	Title          string
	Quantity       int
	UnitPrice      decimal.Decimal
	TaxRate        decimal.Decimal
}

// NewOrderFromCart 由购物车快照出一个 PENDING 订单。
func NewOrderFromCart(cart *cartdomain.Cart) *Order {
	now := time.Now()
	order := &Order{
		ID:            uuid.NewString(),
		CartID:        cart.ID,
		CustomerID:    cart.CustomerID,
		Email:         cart.Email,
		Currency:      cart.Currency,
		Status:        StatusPending,
		Subtotal:      cart.Subtotal,
		TaxTotal:      cart.TaxTotal,
		ShippingTotal: cart.ShippingTotal,
		DiscountTotal: cart.DiscountTotal,
		Total:         cart.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, item := range cart.LiveItems() {
		order.Items = append(order.Items, OrderLineItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			CartLineItemID: item.ID,
			VariantID:      item.VariantID,
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TaxRate:        item.TaxRate,
		})
	}
	return order
}

// Cancel 将订单转入终态 CANCELED，只允许从 PENDING 取消。重复取消是幂等的。
func (o *Order) Cancel() error {
	if o.Status == StatusCanceled {
		return nil
	}
	if o.Status != StatusPending {
		return apperr.IllegalStatef("order %s cannot be canceled from status %s", o.ID, o.Status)
	}
	now := time.Now()
	o.Status = StatusCanceled
	o.CanceledAt = &now
	o.UpdatedAt = now
	return nil
}

// IsCanceled 判断订单是否处于取消终态。
func (o *Order) IsCanceled() bool {
	return o.Status == StatusCanceled
}
