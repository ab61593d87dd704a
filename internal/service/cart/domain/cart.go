// internal/service/cart/domain/cart.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vernont/internal/pkg/apperr"
)

// Cart 是购物车聚合的根实体，按值持有行项目；
// 行项目只通过 CartID 弱引用购物车，不持有反向指针。
// 所有 total 字段都是 items + 购物车级调整项的纯函数，
// 任何变更之后必须通过 RecalculateTotals 重算，禁止增量修补缓存值。
type Cart struct {
	ID              string
	CustomerID      string
	Email           string
	Currency        string
	ShippingMethodID string

	// TaxRate 是购物车所属税区的税率，由外部税务协作方在创建时解析，
	// 新增行项目时快照到行上。
	TaxRate decimal.Decimal

	Items []LineItem

	// 购物车级调整项
	ShippingTotal decimal.Decimal
	DiscountTotal decimal.Decimal

	// 派生合计，仅由 RecalculateTotals 写入
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal

	// CompletedAt 只会被设置一次，设置后购物车进入终态（不可变）
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineItem 是购物车中的一行。Total 等价格字段都由 UnitPrice/Quantity/TaxRate 派生。
type LineItem struct {
	ID        string
	CartID    string
	VariantID string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	// TaxRate 是税率（如 0.20 表示 20%）。
	TaxRate   decimal.Decimal
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Subtotal 返回该行的税前小计。
func (li *LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// TaxAmount 返回该行的税额。
func (li *LineItem) TaxAmount() decimal.Decimal {
	return li.Subtotal().Mul(li.TaxRate)
}

// Total 返回该行的含税合计。
func (li *LineItem) Total() decimal.Decimal {
	return li.Subtotal().Add(li.TaxAmount())
}

func (li *LineItem) IsDeleted() bool {
	return li.DeletedAt != nil
}

func NewCart(customerID, currency string) *Cart {
	now := time.Now()
	return &Cart{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Currency:   currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// EnsureOpen 校验购物车仍可变更；已完成的购物车禁止任何行项目变更。
func (c *Cart) EnsureOpen() error {
	if c.CompletedAt != nil {
		return apperr.IllegalStatef("cart %s is already completed", c.ID)
	}
	return nil
}

// LiveItems 返回未被软删除的行项目。
func (c *Cart) LiveItems() []*LineItem {
	items := make([]*LineItem, 0, len(c.Items))
	for i := range c.Items {
		if !c.Items[i].IsDeleted() {
			items = append(items, &c.Items[i])
		}
	}
	return items
}

// IsEmpty 判断购物车是否没有任何有效行项目。
func (c *Cart) IsEmpty() bool {
	return len(c.LiveItems()) == 0
}

// FindItemByVariant 按变体查找未删除的行项目，用于 merge-by-variant。
func (c *Cart) FindItemByVariant(variantID string) *LineItem {
	for i := range c.Items {
		if !c.Items[i].IsDeleted() && c.Items[i].VariantID == variantID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItem 按 ID 查找未删除的行项目。
func (c *Cart) FindItem(lineItemID string) *LineItem {
	for i := range c.Items {
		if !c.Items[i].IsDeleted() && c.Items[i].ID == lineItemID {
			return &c.Items[i]
		}
	}
	return nil
}

// AddItem 追加一个新行项目并返回它。合并逻辑由调用方（saga）决定。
func (c *Cart) AddItem(variantID, title string, quantity int, unitPrice, taxRate decimal.Decimal) *LineItem {
	item := LineItem{
		ID:        uuid.NewString(),
		CartID:    c.ID,
		VariantID: variantID,
		Title:     title,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		TaxRate:   taxRate,
		CreatedAt: time.Now(),
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = time.Now()
	return &c.Items[len(c.Items)-1]
}

// RemoveItem 软删除一个行项目。
func (c *Cart) RemoveItem(lineItemID string) {
	for i := range c.Items {
		if c.Items[i].ID == lineItemID && !c.Items[i].IsDeleted() {
			now := time.Now()
			c.Items[i].DeletedAt = &now
			c.UpdatedAt = now
			return
		}
	}
}

// RecalculateTotals 从行项目和购物车级调整项重算所有合计。
// 幂等：对未变更的购物车重复调用产生完全相同的结果。
func (c *Cart) RecalculateTotals() {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, item := range c.LiveItems() {
		subtotal = subtotal.Add(item.Subtotal())
		taxTotal = taxTotal.Add(item.TaxAmount())
	}
	c.Subtotal = subtotal
	c.TaxTotal = taxTotal
	c.Total = subtotal.Add(taxTotal).Add(c.ShippingTotal).Sub(c.DiscountTotal)
	c.UpdatedAt = time.Now()
}

// Complete 将购物车转入终态。completed 检查必须发生在拿到 cart 锁之后，
// 它是"一个购物车只能完成一次"的唯一强制点。
func (c *Cart) Complete() error {
	if err := c.EnsureOpen(); err != nil {
		return err
	}
	now := time.Now()
	c.CompletedAt = &now
	c.UpdatedAt = now
	return nil
}

// ClearCompleted 撤销 Complete，仅用于完成流程失败后的补偿。
func (c *Cart) ClearCompleted() {
	c.CompletedAt = nil
	c.UpdatedAt = time.Now()
}
