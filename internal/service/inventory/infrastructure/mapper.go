// internal/service/inventory/infrastructure/mapper.go
package infrastructure

import (
	"gorm.io/gorm"

	"vernont/internal/service/inventory/domain"
)

// ToDomainLevel 将数据库模型转换为领域模型
func ToDomainLevel(m *InventoryLevelModel) *domain.Level {
	level := &domain.Level{
		ID:         m.ID,
		ItemID:     m.ItemID,
		LocationID: m.LocationID,
		Priority:   m.Priority,
		Stocked:    m.Stocked,
		Reserved:   m.Reserved,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		level.DeletedAt = &t
	}
	return level
}

// ToLevelModel 将领域模型转换为数据库模型
func ToLevelModel(l *domain.Level) *InventoryLevelModel {
	m := &InventoryLevelModel{
		ID:         l.ID,
		ItemID:     l.ItemID,
		LocationID: l.LocationID,
		Priority:   l.Priority,
		Stocked:    l.Stocked,
		Reserved:   l.Reserved,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
	if l.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *l.DeletedAt, Valid: true}
	}
	return m
}

// ToDomainReservation 将数据库模型转换为领域模型
func ToDomainReservation(m *InventoryReservationModel) *domain.Reservation {
	return &domain.Reservation{
		ID:         m.ID,
		LevelID:    m.LevelID,
		LineItemID: m.LineItemID,
		OrderID:    m.OrderID,
		Quantity:   m.Quantity,
		Status:     domain.ReservationStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		ReleasedAt: m.ReleasedAt,
	}
}

// ToReservationModel 将领域模型转换为数据库模型
func ToReservationModel(r *domain.Reservation) *InventoryReservationModel {
	return &InventoryReservationModel{
		ID:         r.ID,
		LevelID:    r.LevelID,
		LineItemID: r.LineItemID,
		OrderID:    r.OrderID,
		Quantity:   r.Quantity,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		ReleasedAt: r.ReleasedAt,
	}
}
