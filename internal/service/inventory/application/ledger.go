// internal/service/inventory/application/ledger.go
package application

import (
	"context"

	"github.com/rs/zerolog/log"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/inventory/domain"
)

// ReleaseTrace 记录一次释放对单条预留的影响，供"撤销释放"补偿使用。
type ReleaseTrace struct {
	ReservationID string
	LevelID       string
	LineItemID    string
	Quantity      int
	// FullyReleased 表示整条预留被转入 RELEASED（而不是部分消耗）。
	FullyReleased bool
}

// ReleaseResult 汇总一次释放的实际效果。
type ReleaseResult struct {
	// Released 是实际归还量，可能小于请求量（按实际持有封顶）。
	Released int
	Traces   []ReleaseTrace
}

// Ledger 是库存账本服务，reserve/release 是并发 saga 唯一允许的库存变更入口。
// 每个方法自身就是一个事务单元，check-then-act 依赖仓储的行锁保证原子性。
type Ledger struct {
	tx           domain.Transactor
	levels       domain.LevelRepository
	reservations domain.ReservationRepository
}

func NewLedger(tx domain.Transactor, levels domain.LevelRepository, reservations domain.ReservationRepository) *Ledger {
	return &Ledger{tx: tx, levels: levels, reservations: reservations}
}

// Reserve 在指定库位上为某行项目占用 quantity 个单位。
// 可用量不足时返回 InsufficientInventoryError，不留下任何变更。
func (l *Ledger) Reserve(ctx context.Context, levelID, lineItemID, orderID string, quantity int) (*domain.Reservation, error) {
	var reservation *domain.Reservation
	err := l.tx.InTx(ctx, func(ctx context.Context) error {
		level, err := l.levels.FindByIDForUpdate(ctx, levelID)
		if err != nil {
			return err
		}
		if err := level.Reserve(quantity); err != nil {
			return err
		}
		reservation = domain.NewReservation(level.ID, lineItemID, orderID, quantity)
		if err := l.levels.Save(ctx, level); err != nil {
			return err
		}
		return l.reservations.Save(ctx, reservation)
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// Release 归还某 (库位, 行项目) 对上的预留，至多 quantity 个单位。
// 实际归还量 = min(请求量, 该行项目持有量, 库位 Reserved)。
// "按实际持有封顶"是账本的硬性策略：调用方记账错误不能制造负的
// Reserved 或凭空的可用量。预留记录会被部分消耗（数量减少但不释放）。
func (l *Ledger) Release(ctx context.Context, levelID, lineItemID string, quantity int) (ReleaseResult, error) {
	var result ReleaseResult
	err := l.tx.InTx(ctx, func(ctx context.Context) error {
		level, err := l.levels.FindByIDForUpdate(ctx, levelID)
		if err != nil {
			return err
		}
		active, err := l.reservations.FindActiveByLevelAndLineItem(ctx, level.ID, lineItemID)
		if err != nil {
			return err
		}

		held := 0
		for _, r := range active {
			held += r.Quantity
		}

		toRelease := quantity
		if toRelease > held {
			toRelease = held
		}
		if toRelease > level.Reserved {
			toRelease = level.Reserved
		}

		remaining := toRelease
		for _, r := range active {
			if remaining == 0 {
				break
			}
			consumed := r.Consume(remaining)
			remaining -= consumed
			if consumed > 0 {
				result.Traces = append(result.Traces, ReleaseTrace{
					ReservationID: r.ID,
					LevelID:       r.LevelID,
					LineItemID:    r.LineItemID,
					Quantity:      consumed,
					FullyReleased: !r.IsActive(),
				})
			}
			if err := l.reservations.Save(ctx, r); err != nil {
				return err
			}
		}

		result.Released = level.ReleaseReservation(toRelease)
		if err := l.levels.Save(ctx, level); err != nil {
			return err
		}

		if result.Released < quantity {
			// 静默钳制是约定的契约；打一条告警让短释放可被发现
			log.Warn().
				Str("level_id", levelID).
				Str("line_item_id", lineItemID).
				Int("requested", quantity).
				Int("released", result.Released).
				Msg("release clamped to actually held quantity")
		}
		return nil
	})
	if err != nil {
		return ReleaseResult{}, err
	}
	return result, nil
}

// UndoRelease 撤销一次释放：被整条释放的预留恢复 ACTIVE（清空 ReleasedAt），
// 被部分消耗的预留恢复数量，库位的 Reserved 重新加回。
// 只应在回滚"释放"步骤时调用；并发销售可能已经占走这部分可用量，
// 此时撤销失败只记告警，补偿是尽力而为的。
func (l *Ledger) UndoRelease(ctx context.Context, traces []ReleaseTrace) error {
	for _, trace := range traces {
		err := l.tx.InTx(ctx, func(ctx context.Context) error {
			level, err := l.levels.FindByIDForUpdate(ctx, trace.LevelID)
			if err != nil {
				return err
			}
			if err := level.Reserve(trace.Quantity); err != nil {
				return err
			}
			reservation, err := l.reservations.FindByID(ctx, trace.ReservationID)
			if err != nil {
				return err
			}
			if trace.FullyReleased {
				reservation.UndoRelease()
			} else {
				reservation.Quantity += trace.Quantity
			}
			if err := l.levels.Save(ctx, level); err != nil {
				return err
			}
			return l.reservations.Save(ctx, reservation)
		})
		if err != nil {
			log.Warn().
				Err(err).
				Str("reservation_id", trace.ReservationID).
				Int("quantity", trace.Quantity).
				Msg("failed to undo reservation release")
			return err
		}
	}
	return nil
}

// ReleaseForLineItem 释放某行项目在所有库位上的预留，至多 quantity 个单位，
// 逐库位应用与 Release 相同的封顶策略。
func (l *Ledger) ReleaseForLineItem(ctx context.Context, lineItemID string, quantity int) (ReleaseResult, error) {
	active, err := l.reservations.FindActiveByLineItem(ctx, lineItemID)
	if err != nil {
		return ReleaseResult{}, err
	}

	var result ReleaseResult
	remaining := quantity
	seen := make(map[string]bool)
	for _, r := range active {
		if remaining == 0 {
			break
		}
		// 同一库位的预留在一次 Release 里整体处理，跳过重复库位
		if seen[r.LevelID] {
			continue
		}
		seen[r.LevelID] = true
		partial, err := l.Release(ctx, r.LevelID, lineItemID, remaining)
		if err != nil {
			return result, err
		}
		result.Released += partial.Released
		result.Traces = append(result.Traces, partial.Traces...)
		remaining -= partial.Released
	}
	return result, nil
}

// ReleaseAllForLineItem 释放某行项目的全部预留（删除行项目时使用）。
func (l *Ledger) ReleaseAllForLineItem(ctx context.Context, lineItemID string) (ReleaseResult, error) {
	active, err := l.reservations.FindActiveByLineItem(ctx, lineItemID)
	if err != nil {
		return ReleaseResult{}, err
	}
	total := 0
	for _, r := range active {
		total += r.Quantity
	}
	if total == 0 {
		return ReleaseResult{}, nil
	}
	return l.ReleaseForLineItem(ctx, lineItemID, total)
}

// AllocateAcrossLocations 为某库存条目占用 quantity 个单位，
// 单个库位不够时按 Priority 顺序拆分到多个库位。
// 全部库位加起来仍不够时整体失败：本次循环里已经创建的预留会先被
// 就地回滚，再返回 InsufficientInventoryError，不依赖上层的补偿栈。
func (l *Ledger) AllocateAcrossLocations(ctx context.Context, itemID, lineItemID, orderID string, quantity int) ([]*domain.Reservation, error) {
	levels, err := l.levels.FindByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var created []*domain.Reservation
	allocated := 0
	remaining := quantity

	for _, level := range levels {
		if remaining == 0 {
			break
		}
		take := remaining
		if avail := level.Available(); take > avail {
			take = avail
		}
		if take <= 0 {
			continue
		}
		reservation, err := l.Reserve(ctx, level.ID, lineItemID, orderID, take)
		if err != nil {
			// 并发下 Available 可能在读取后变小，回滚已建预留后向上抛
			l.RollbackReservations(ctx, created)
			return nil, err
		}
		created = append(created, reservation)
		allocated += take
		remaining -= take
	}

	if remaining > 0 {
		l.RollbackReservations(ctx, created)
		return nil, &apperr.InsufficientInventoryError{
			ItemID:    itemID,
			Requested: quantity,
			Available: allocated,
		}
	}
	return created, nil
}

// RollbackReservations 释放一组刚创建的预留，分配失败和 saga 补偿共用。
func (l *Ledger) RollbackReservations(ctx context.Context, created []*domain.Reservation) {
	for _, r := range created {
		if _, err := l.Release(ctx, r.LevelID, r.LineItemID, r.Quantity); err != nil {
			log.Warn().
				Err(err).
				Str("reservation_id", r.ID).
				Msg("failed to roll back reservation")
		}
	}
}
