// internal/service/cart/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/cart/domain"
)

// GormCartRepository 是 CartRepository 的 GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByID 加载购物车及其全部行项目（含软删除的行）。
func (r *GormCartRepository) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	var model CartModel
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("cart", id)
		}
		return nil, err
	}
	return ToDomainCart(&model), nil
}

// Save 在一个事务里保存购物车本体和所有行项目。
func (r *GormCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	model := ToCartModel(cart)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := model.Items
		model.Items = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		for i := range items {
			if err := tx.Save(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
