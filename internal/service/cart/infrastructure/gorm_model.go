// internal/service/cart/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartModel 对应数据库中的 cart 表
type CartModel struct {
	ID               string `gorm:"primaryKey;size:36"`
	CustomerID       string `gorm:"index"`
	Email            string
	Currency         string          `gorm:"size:3;not null"`
	ShippingMethodID string
	TaxRate          decimal.Decimal `gorm:"type:decimal(6,4);default:0"`
	ShippingTotal    decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	DiscountTotal    decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	TaxTotal         decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Total            decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// 关联关系
	Items []CartLineItemModel `gorm:"foreignKey:CartID"`
}

// TableName 指定 GORM 应该使用的表名
func (CartModel) TableName() string {
	return "cart"
}

// CartLineItemModel 对应数据库中的 cart_line_item 表。
// 软删除由领域层显式管理 DeletedAt，不用 gorm.DeletedAt：
// 仓储加载时需要带出已删除的行，补偿逻辑可能要撤销删除。
type CartLineItemModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	CartID    string `gorm:"index;not null"`
	VariantID string `gorm:"index;not null"`
	Title     string
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(6,4);default:0"`
	CreatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

// TableName 指定 GORM 应该使用的表名
func (CartLineItemModel) TableName() string {
	return "cart_line_item"
}
