// internal/service/cart/infrastructure/gorm_catalog.go
package infrastructure

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/cart/port"
)

// VariantModel 对应数据库中的 product_variant 表。
// 目录的写侧（CRUD、搜索）不归这里管，这张表只作为查询视图被读取。
type VariantModel struct {
	ID              string `gorm:"primaryKey;size:36"`
	Title           string
	SKU             string `gorm:"column:sku;uniqueIndex"`
	InventoryItemID string `gorm:"index"`
	ManageInventory bool   `gorm:"default:true"`
	AllowBackorder  bool   `gorm:"default:false"`

	Prices []VariantPriceModel `gorm:"foreignKey:VariantID"`
}

// TableName 指定 GORM 应该使用的表名
func (VariantModel) TableName() string {
	return "product_variant"
}

// VariantPriceModel 对应数据库中的 variant_price 表
type VariantPriceModel struct {
	ID        string          `gorm:"primaryKey;size:36"`
	VariantID string          `gorm:"index;not null"`
	Currency  string          `gorm:"size:3;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName 指定 GORM 应该使用的表名
func (VariantPriceModel) TableName() string {
	return "variant_price"
}

// GormCatalog 是 Catalog 端口的 GORM 实现
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) FindVariant(ctx context.Context, id string) (*port.Variant, error) {
	var model VariantModel
	err := c.db.WithContext(ctx).
		Preload("Prices").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("variant", id)
		}
		return nil, err
	}

	variant := &port.Variant{
		ID:              model.ID,
		Title:           model.Title,
		SKU:             model.SKU,
		InventoryItemID: model.InventoryItemID,
		ManageInventory: model.ManageInventory,
		AllowBackorder:  model.AllowBackorder,
		Prices:          make(map[string]decimal.Decimal, len(model.Prices)),
	}
	for _, price := range model.Prices {
		variant.Prices[price.Currency] = price.Amount
	}
	return variant, nil
}
