// internal/service/inventory/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// InventoryLevelModel 对应数据库中的 inventory_level 表
type InventoryLevelModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	ItemID     string `gorm:"index:idx_level_item_location,priority:1;not null"`
	LocationID string `gorm:"index:idx_level_item_location,priority:2;not null"`
	Priority   int    `gorm:"default:0"`
	Stocked    int    `gorm:"not null"`
	Reserved   int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// TableName 指定 GORM 应该使用的表名
func (InventoryLevelModel) TableName() string {
	return "inventory_level"
}

// InventoryReservationModel 对应数据库中的 inventory_reservation 表
type InventoryReservationModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	LevelID    string `gorm:"index;not null"`
	LineItemID string `gorm:"index;not null"`
	OrderID    string `gorm:"index"`
	Quantity   int    `gorm:"not null"`
	Status     string `gorm:"size:16;not null;default:'ACTIVE'"`
	CreatedAt  time.Time
	ReleasedAt *time.Time
}

// TableName 指定 GORM 应该使用的表名
func (InventoryReservationModel) TableName() string {
	return "inventory_reservation"
}
