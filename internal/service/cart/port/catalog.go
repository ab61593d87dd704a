// internal/service/cart/port/catalog.go
package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// Variant 是商品目录暴露给 saga 的变体视图：价格、库存条目、库存策略。
// 目录本身（CRUD、搜索）是外部协作方，这里只消费它的查询契约。
type Variant struct {
	ID    string
	Title string
	SKU   string
	// InventoryItemID 关联库存账本中的条目；ManageInventory 为 false 时可为空。
	InventoryItemID string
	ManageInventory bool
	AllowBackorder  bool
	// Prices 按币种给出单价。
	Prices map[string]decimal.Decimal
}

// PriceFor 解析指定币种的单价。
func (v *Variant) PriceFor(currency string) (decimal.Decimal, bool) {
	price, ok := v.Prices[currency]
	return price, ok
}

// Catalog 是商品目录的出站端口。
type Catalog interface {
	// FindVariant 按 ID 查找变体，不存在时返回 *apperr.NotFoundError。
	FindVariant(ctx context.Context, id string) (*Variant, error)
}
