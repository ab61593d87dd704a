// internal/service/inventory/domain/repository.go
package domain

import "context"

// LevelRepository 定义了库存 Level 的持久化接口，由基础设施层实现。
type LevelRepository interface {
	// FindByID 按 ID 查找一个库位，不存在时返回 *apperr.NotFoundError。
	FindByID(ctx context.Context, id string) (*Level, error)

	// FindByIDForUpdate 与 FindByID 相同，但要求实现对该行加排他锁，
	// 使 check-then-reserve 在持久层成为原子操作。
	FindByIDForUpdate(ctx context.Context, id string) (*Level, error)

	// FindByItem 返回某库存条目下所有未删除的 Level，按 Priority 升序。
	FindByItem(ctx context.Context, itemID string) ([]*Level, error)

	Save(ctx context.Context, level *Level) error
}

// ReservationRepository 定义了预留记录的持久化接口。
type ReservationRepository interface {
	Save(ctx context.Context, reservation *Reservation) error

	// FindByID 按 ID 查找预留（含已释放的），不存在时返回 *apperr.NotFoundError。
	FindByID(ctx context.Context, id string) (*Reservation, error)

	// FindActiveByLineItem 返回某行项目当前所有 ACTIVE 预留。
	FindActiveByLineItem(ctx context.Context, lineItemID string) ([]*Reservation, error)

	// FindActiveByLevelAndLineItem 返回某 (库位, 行项目) 对上的 ACTIVE 预留。
	FindActiveByLevelAndLineItem(ctx context.Context, levelID, lineItemID string) ([]*Reservation, error)
}

// Transactor 把一个函数包进数据库事务里执行，
// 回调里的 ctx 携带事务句柄，仓储实现据此复用同一个事务。
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
