// internal/service/cart/application/update_line_item.go
package application

import (
	"context"
	"fmt"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/cart/domain"
	"vernont/internal/service/cart/port"
	inventory "vernont/internal/service/inventory/application"
	"vernont/internal/workflow"
)

// UpdateLineItemInput 是 UpdateLineItem saga 的输入。
type UpdateLineItemInput struct {
	CartID     string
	LineItemID string
	// Quantity 是目标数量；≤ 0 按删除处理。
	Quantity int
}

// UpdateLineItem 修改行项目数量，按差量维护库存预留：
// 增量预留正差（库存不足且不允许 backorder 时整步失败，不留部分预留），
// 负差按实际持有封顶释放。
type UpdateLineItem struct {
	engine  *workflow.Engine
	carts   domain.CartRepository
	catalog port.Catalog
	ledger  *inventory.Ledger
}

func NewUpdateLineItem(engine *workflow.Engine, carts domain.CartRepository, catalog port.Catalog, ledger *inventory.Ledger) *UpdateLineItem {
	return &UpdateLineItem{engine: engine, carts: carts, catalog: catalog, ledger: ledger}
}

type updateLineItemState struct {
	cart *domain.Cart
	item *domain.LineItem
}

func (s *UpdateLineItem) Execute(ctx context.Context, input UpdateLineItemInput) (*domain.Cart, error) {
	// 目标数量 ≤ 0 等价于删除该行
	if input.Quantity <= 0 {
		remove := &RemoveLineItem{engine: s.engine, carts: s.carts, ledger: s.ledger}
		return remove.Execute(ctx, RemoveLineItemInput{CartID: input.CartID, LineItemID: input.LineItemID})
	}

	st := &updateLineItemState{}
	steps := []workflow.Step{
		workflow.NewStep("load-cart", func(ctx context.Context, run *workflow.Run) error {
			cart, err := s.carts.FindByID(ctx, input.CartID)
			if err != nil {
				return err
			}
			st.cart = cart
			return nil
		}),
		workflow.NewStep("validate-cart", func(ctx context.Context, run *workflow.Run) error {
			if err := st.cart.EnsureOpen(); err != nil {
				return err
			}
			item := st.cart.FindItem(input.LineItemID)
			if item == nil {
				return apperr.NotFound("cart line item", input.LineItemID)
			}
			st.item = item
			return nil
		}),
		workflow.NewStep("adjust-reservations", func(ctx context.Context, run *workflow.Run) error {
			delta := input.Quantity - st.item.Quantity
			switch {
			case delta > 0:
				return s.reserveDelta(ctx, run, st, delta)
			case delta < 0:
				return s.releaseDelta(ctx, run, st, -delta)
			default:
				return nil
			}
		}),
		workflow.NewStep("apply-quantity", func(ctx context.Context, run *workflow.Run) error {
			st.item.Quantity = input.Quantity
			return nil
		}),
		workflow.NewStep("recalculate-totals", func(ctx context.Context, run *workflow.Run) error {
			st.cart.RecalculateTotals()
			return nil
		}),
		workflow.NewStep("save-cart", func(ctx context.Context, run *workflow.Run) error {
			return s.carts.Save(ctx, st.cart)
		}),
	}

	if err := s.engine.Run(ctx, "update-line-item", domain.LockKey(input.CartID), steps); err != nil {
		return nil, err
	}
	return st.cart, nil
}

// reserveDelta 为正差量建立预留。预留是事务外的已提交副作用，
// 必须立刻注册补偿，后续步骤失败时归还。
func (s *UpdateLineItem) reserveDelta(ctx context.Context, run *workflow.Run, st *updateLineItemState, delta int) error {
	variant, err := s.catalog.FindVariant(ctx, st.item.VariantID)
	if err != nil {
		return err
	}
	if !variant.ManageInventory || variant.AllowBackorder {
		return nil
	}

	created, err := s.ledger.AllocateAcrossLocations(ctx, variant.InventoryItemID, st.item.ID, "", delta)
	if err != nil {
		return err
	}
	run.PushCompensation("adjust-reservations",
		fmt.Sprintf("release %d reservation(s) for line item %s", len(created), st.item.ID),
		func(ctx context.Context) error {
			s.ledger.RollbackReservations(ctx, created)
			return nil
		})
	return nil
}

// releaseDelta 归还负差量，封顶到实际持有；
// 补偿是显式的"撤销释放"，被释放的预留恢复 ACTIVE。
func (s *UpdateLineItem) releaseDelta(ctx context.Context, run *workflow.Run, st *updateLineItemState, delta int) error {
	result, err := s.ledger.ReleaseForLineItem(ctx, st.item.ID, delta)
	if err != nil {
		return err
	}
	if result.Released == 0 {
		return nil
	}
	traces := result.Traces
	run.PushCompensation("adjust-reservations",
		fmt.Sprintf("undo release of %d unit(s) for line item %s", result.Released, st.item.ID),
		func(ctx context.Context) error {
			return s.ledger.UndoRelease(ctx, traces)
		})
	return nil
}
