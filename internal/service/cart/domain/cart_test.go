// internal/service/cart/domain/cart_test.go
package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vernont/internal/pkg/apperr"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineItemDerivedAmounts(t *testing.T) {
	item := LineItem{Quantity: 3, UnitPrice: dec("10.00"), TaxRate: dec("0.20")}

	assert.True(t, item.Subtotal().Equal(dec("30.00")))
	assert.True(t, item.TaxAmount().Equal(dec("6.00")))
	assert.True(t, item.Total().Equal(dec("36.00")))
}

func TestCartRecalculateTotals(t *testing.T) {
	cart := NewCart("cust-1", "GBP")
	cart.AddItem("variant-1", "Tee", 3, dec("10.00"), decimal.Zero)
	cart.AddItem("variant-2", "Mug", 1, dec("5.50"), dec("0.20"))
	cart.ShippingTotal = dec("4.00")
	cart.DiscountTotal = dec("2.00")

	cart.RecalculateTotals()

	assert.True(t, cart.Subtotal.Equal(dec("35.50")))
	assert.True(t, cart.TaxTotal.Equal(dec("1.10")))
	// subtotal + tax + shipping - discount
	assert.True(t, cart.Total.Equal(dec("38.60")))
}

func TestCartRecalculateTotalsIsIdempotent(t *testing.T) {
	cart := NewCart("cust-1", "GBP")
	cart.AddItem("variant-1", "Tee", 2, dec("9.99"), dec("0.20"))

	cart.RecalculateTotals()
	first := cart.Total
	cart.RecalculateTotals()
	cart.RecalculateTotals()

	assert.True(t, cart.Total.Equal(first))
}

func TestCartRecalculateSkipsDeletedItems(t *testing.T) {
	cart := NewCart("cust-1", "GBP")
	cart.AddItem("variant-1", "Tee", 1, dec("10.00"), decimal.Zero)
	drop := cart.AddItem("variant-2", "Mug", 1, dec("5.00"), decimal.Zero)

	cart.RemoveItem(drop.ID)
	cart.RecalculateTotals()

	assert.True(t, cart.Subtotal.Equal(dec("10.00")))
	assert.Len(t, cart.LiveItems(), 1)
	assert.False(t, cart.IsEmpty())
}

func TestCartFindItemByVariantIgnoresDeleted(t *testing.T) {
	cart := NewCart("cust-1", "GBP")
	item := cart.AddItem("variant-1", "Tee", 1, dec("10.00"), decimal.Zero)
	cart.RemoveItem(item.ID)

	assert.Nil(t, cart.FindItemByVariant("variant-1"))
	assert.Nil(t, cart.FindItem(item.ID))
}

func TestCartRemoveItemIsIdempotent(t *testing.T) {
	cart := NewCart("cust-1", "GBP")
	item := cart.AddItem("variant-1", "Tee", 1, dec("10.00"), decimal.Zero)

	cart.RemoveItem(item.ID)
	deletedAt := cart.Items[0].DeletedAt
	cart.RemoveItem(item.ID)
	assert.Same(t, deletedAt, cart.Items[0].DeletedAt)
}

func TestCartCompleteOnlyOnce(t *testing.T) {
	cart := NewCart("cust-1", "GBP")

	require.NoError(t, cart.Complete())
	require.NotNil(t, cart.CompletedAt)

	err := cart.Complete()
	require.Error(t, err)
	var illegal *apperr.IllegalStateError
	assert.True(t, errors.As(err, &illegal))
}

func TestCompletedCartRejectsMutations(t *testing.T) {
	cart := NewCart("cust-1", "GBP")
	require.NoError(t, cart.Complete())

	err := cart.EnsureOpen()
	require.Error(t, err)
	var illegal *apperr.IllegalStateError
	assert.True(t, errors.As(err, &illegal))
}

func TestCartClearCompleted(t *testing.T) {
	cart := NewCart("cust-1", "GBP")
	require.NoError(t, cart.Complete())

	cart.ClearCompleted()
	assert.Nil(t, cart.CompletedAt)
	require.NoError(t, cart.EnsureOpen())
}

func TestCartLockKey(t *testing.T) {
	assert.Equal(t, "cart:abc", LockKey("abc"))
}
