// internal/service/inventory/domain/level.go
package domain

import (
	"time"

	"vernont/internal/pkg/apperr"
)

// Level 是库存账本的核心聚合：一个 (库存条目, 库位) 对应一行。
// 不变式：0 ≤ Reserved ≤ Stocked 在任何时刻都成立，
// 只允许通过 Reserve / ReleaseReservation 变更，禁止直接赋值字段。
type Level struct {
	ID         string
	ItemID     string
	LocationID string
	// Priority 决定多库位分配时的先后顺序，数值小的先分配。
	Priority int
	Stocked  int
	Reserved int

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Available 是派生量，永远等于 Stocked - Reserved。
func (l *Level) Available() int {
	return l.Stocked - l.Reserved
}

// Reserve 占用 quantity 个单位。可用量不足时返回 InsufficientInventoryError，
// 账本保持原样。
func (l *Level) Reserve(quantity int) error {
	if quantity <= 0 {
		return apperr.Validationf("reserve quantity must be positive, got %d", quantity)
	}
	if l.Available() < quantity {
		return &apperr.InsufficientInventoryError{
			ItemID:    l.ItemID,
			Requested: quantity,
			Available: l.Available(),
		}
	}
	l.Reserved += quantity
	l.UpdatedAt = time.Now()
	return nil
}

// ReleaseReservation 归还至多 quantity 个单位，
// 实际归还量被钳制在当前 Reserved 以内，返回实际归还量。
// 钳制而不是报错：调用方记账出错时也绝不能把 Reserved 打成负数。
func (l *Level) ReleaseReservation(quantity int) int {
	if quantity <= 0 {
		return 0
	}
	released := quantity
	if released > l.Reserved {
		released = l.Reserved
	}
	l.Reserved -= released
	l.UpdatedAt = time.Now()
	return released
}

// IsDeleted 判断库位是否已被软删除。
func (l *Level) IsDeleted() bool {
	return l.DeletedAt != nil
}
