// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := ToOrderModel(order)
	// 订单头与行项目在同一事务里落库，行快照创建后不可变，Save 即 upsert
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, err
	}
	return ToDomainOrder(&model), nil
}

// GormPaymentRepository 是 PaymentRepository 的 GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	model := ToPaymentModel(payment)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sessions").Save(model).Error; err != nil {
			return err
		}
		for i := range model.Sessions {
			if err := tx.Save(&model.Sessions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	var model PaymentModel
	err := r.db.WithContext(ctx).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment", id)
		}
		return nil, err
	}
	return ToDomainPayment(&model), nil
}

func (r *GormPaymentRepository) FindByCart(ctx context.Context, cartID string) (*domain.Payment, error) {
	var model PaymentModel
	err := r.db.WithContext(ctx).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("cart_id = ?", cartID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment for cart", cartID)
		}
		return nil, err
	}
	return ToDomainPayment(&model), nil
}
