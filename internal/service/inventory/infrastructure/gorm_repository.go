// internal/service/inventory/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/inventory/domain"
)

// GormLevelRepository 是 LevelRepository 的 GORM 实现
type GormLevelRepository struct {
	db *gorm.DB
}

func NewGormLevelRepository(db *gorm.DB) *GormLevelRepository {
	return &GormLevelRepository{db: db}
}

func (r *GormLevelRepository) FindByID(ctx context.Context, id string) (*domain.Level, error) {
	var model InventoryLevelModel
	err := dbFrom(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inventory level", id)
		}
		return nil, err
	}
	return ToDomainLevel(&model), nil
}

// FindByIDForUpdate 对该行加排他锁，让 check-then-reserve 在行级别原子化。
func (r *GormLevelRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Level, error) {
	var model InventoryLevelModel
	err := dbFrom(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inventory level", id)
		}
		return nil, err
	}
	return ToDomainLevel(&model), nil
}

func (r *GormLevelRepository) FindByItem(ctx context.Context, itemID string) ([]*domain.Level, error) {
	var models []InventoryLevelModel
	err := dbFrom(ctx, r.db).
		Where("item_id = ?", itemID).
		Order("priority ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	levels := make([]*domain.Level, 0, len(models))
	for i := range models {
		levels = append(levels, ToDomainLevel(&models[i]))
	}
	return levels, nil
}

func (r *GormLevelRepository) Save(ctx context.Context, level *domain.Level) error {
	return dbFrom(ctx, r.db).Save(ToLevelModel(level)).Error
}

// GormReservationRepository 是 ReservationRepository 的 GORM 实现
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) Save(ctx context.Context, reservation *domain.Reservation) error {
	return dbFrom(ctx, r.db).Save(ToReservationModel(reservation)).Error
}

func (r *GormReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var model InventoryReservationModel
	err := dbFrom(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inventory reservation", id)
		}
		return nil, err
	}
	return ToDomainReservation(&model), nil
}

func (r *GormReservationRepository) FindActiveByLineItem(ctx context.Context, lineItemID string) ([]*domain.Reservation, error) {
	return r.findActive(ctx, "line_item_id = ?", lineItemID)
}

func (r *GormReservationRepository) FindActiveByLevelAndLineItem(ctx context.Context, levelID, lineItemID string) ([]*domain.Reservation, error) {
	return r.findActive(ctx, "level_id = ? AND line_item_id = ?", levelID, lineItemID)
}

func (r *GormReservationRepository) findActive(ctx context.Context, query string, args ...interface{}) ([]*domain.Reservation, error) {
	var models []InventoryReservationModel
	err := dbFrom(ctx, r.db).
		Where(query, args...).
		Where("status = ?", string(domain.ReservationActive)).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	reservations := make([]*domain.Reservation, 0, len(models))
	for i := range models {
		reservations = append(reservations, ToDomainReservation(&models[i]))
	}
	return reservations, nil
}
