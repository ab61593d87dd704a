// internal/service/order/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应数据库中的 commerce_order 表
type OrderModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	CartID        string `gorm:"index;not null"`
	CustomerID    string `gorm:"index"`
	Email         string
	Currency      string          `gorm:"size:3;not null"`
	Status        string          `gorm:"size:16;not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	TaxTotal      decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	ShippingTotal decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	CanceledAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// 关联关系
	Items []OrderLineItemModel `gorm:"foreignKey:OrderID"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "commerce_order"
}

// OrderLineItemModel 对应数据库中的 order_line_item 表
type OrderLineItemModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	OrderID        string `gorm:"index;not null"`
	CartLineItemID string `gorm:"index"`
	VariantID      string `gorm:"index;not null"`
	Title          string
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(6,4);default:0"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderLineItemModel) TableName() string {
	return "order_line_item"
}

// PaymentModel 对应数据库中的 payment 表
type PaymentModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	CartID    string `gorm:"index;not null"`
	OrderID   string `gorm:"index"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency  string          `gorm:"size:3;not null"`
	Status    string          `gorm:"size:16;not null;default:'PENDING'"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions []PaymentSessionModel `gorm:"foreignKey:PaymentID"`
}

// TableName 指定 GORM 应该使用的表名
func (PaymentModel) TableName() string {
	return "payment"
}

// PaymentSessionModel 对应数据库中的 payment_session 表。
// Data 以 JSON 存渠道返回的不透明数据。
type PaymentSessionModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	PaymentID string `gorm:"index;not null"`
	Provider  string `gorm:"size:32;not null"`
	Status    string `gorm:"size:16;not null;default:'PENDING'"`
	Data      string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定 GORM 应该使用的表名
func (PaymentSessionModel) TableName() string {
	return "payment_session"
}
