// internal/service/inventory/domain/reservation.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus 定义了预留记录的生命周期状态。
type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "ACTIVE"
	ReservationReleased ReservationStatus = "RELEASED"
)

// Reservation 代表某个购物车/订单行项目在一个库存 Level 上的占用。
// RELEASED 是终态，只有在回滚"释放"这一步骤时才允许通过 UndoRelease 复活。
type Reservation struct {
	ID         string
	LevelID    string
	LineItemID string
	// OrderID 可选，订单创建后预留会被挂到订单上。
	OrderID  string
	Quantity int
	Status   ReservationStatus

	CreatedAt  time.Time
	ReleasedAt *time.Time
}

func NewReservation(levelID, lineItemID, orderID string, quantity int) *Reservation {
	return &Reservation{
		ID:         uuid.NewString(),
		LevelID:    levelID,
		LineItemID: lineItemID,
		OrderID:    orderID,
		Quantity:   quantity,
		Status:     ReservationActive,
		CreatedAt:  time.Now(),
	}
}

// IsActive 判断预留是否仍然持有库存。
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationActive
}

// Consume 从预留中扣减至多 quantity 个单位，返回实际扣减量。
// 扣到 0 时整条预留转入 RELEASED；否则仅减少 Quantity（部分消耗）。
func (r *Reservation) Consume(quantity int) int {
	if !r.IsActive() || quantity <= 0 {
		return 0
	}
	consumed := quantity
	if consumed >= r.Quantity {
		consumed = r.Quantity
		r.Release()
		return consumed
	}
	r.Quantity -= consumed
	return consumed
}

// Release 将预留整体转入终态 RELEASED。幂等。
func (r *Reservation) Release() {
	if r.Status == ReservationReleased {
		return
	}
	now := time.Now()
	r.Status = ReservationReleased
	r.ReleasedAt = &now
}

// UndoRelease 撤销一次释放，仅用于回滚"释放"步骤本身。
func (r *Reservation) UndoRelease() {
	if r.Status != ReservationReleased {
		return
	}
	r.Status = ReservationActive
	r.ReleasedAt = nil
}
