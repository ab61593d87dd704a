// internal/service/order/domain/order_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "vernont/internal/service/cart/domain"
)

func TestNewOrderFromCartSnapshotsLiveItems(t *testing.T) {
	cart := cartdomain.NewCart("cust-1", "GBP")
	cart.Email = "shopper@example.com"
	price := decimal.RequireFromString("10.00")
	cart.AddItem("variant-1", "Tee", 3, price, decimal.Zero)
	deleted := cart.AddItem("variant-2", "Mug", 1, decimal.RequireFromString("5.00"), decimal.Zero)
	cart.RemoveItem(deleted.ID)
	cart.RecalculateTotals()

	order := NewOrderFromCart(cart)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, cart.ID, order.CartID)
	assert.Equal(t, "shopper@example.com", order.Email)
	assert.Equal(t, StatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("30.00")))

	// 软删除的行不进入快照
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "variant-1", item.VariantID)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(price))
	assert.Equal(t, order.ID, item.OrderID)
}

func TestOrderCancelFromPending(t *testing.T) {
	cart := cartdomain.NewCart("cust-1", "GBP")
	order := NewOrderFromCart(cart)

	require.NoError(t, order.Cancel())
	assert.True(t, order.IsCanceled())
	assert.NotNil(t, order.CanceledAt)

	// 重复取消是幂等的
	require.NoError(t, order.Cancel())
}

func TestOrderCancelFromCompletedIsRejected(t *testing.T) {
	cart := cartdomain.NewCart("cust-1", "GBP")
	order := NewOrderFromCart(cart)
	order.Status = StatusCompleted

	assert.Error(t, order.Cancel())
}
