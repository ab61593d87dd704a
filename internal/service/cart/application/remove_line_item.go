// internal/service/cart/application/remove_line_item.go
package application

import (
	"context"
	"fmt"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/cart/domain"
	inventory "vernont/internal/service/inventory/application"
	"vernont/internal/workflow"
)

// RemoveLineItemInput 是 RemoveLineItem saga 的输入。
type RemoveLineItemInput struct {
	CartID     string
	LineItemID string
}

// RemoveLineItem 删除行项目：先释放该行的全部预留，再软删除，最后重算合计。
type RemoveLineItem struct {
	engine *workflow.Engine
	carts  domain.CartRepository
	ledger *inventory.Ledger
}

func NewRemoveLineItem(engine *workflow.Engine, carts domain.CartRepository, ledger *inventory.Ledger) *RemoveLineItem {
	return &RemoveLineItem{engine: engine, carts: carts, ledger: ledger}
}

type removeLineItemState struct {
	cart *domain.Cart
	item *domain.LineItem
}

func (s *RemoveLineItem) Execute(ctx context.Context, input RemoveLineItemInput) (*domain.Cart, error) {
	st := &removeLineItemState{}
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
		workflow.NewStep("release-reservations", func(ctx context.Context, run *workflow.Run) error {
			result, err := s.ledger.ReleaseAllForLineItem(ctx, st.item.ID)
			if err != nil {
				return err
			}
			if result.Released == 0 {
				return nil
			}
			traces := result.Traces
			run.PushCompensation("release-reservations",
				fmt.Sprintf("undo release of %d unit(s) for line item %s", result.Released, st.item.ID),
				func(ctx context.Context) error {
					return s.ledger.UndoRelease(ctx, traces)
				})
			return nil
		}),
		workflow.NewStep("remove-line-item", func(ctx context.Context, run *workflow.Run) error {
			st.cart.RemoveItem(st.item.ID)
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

	if err := s.engine.Run(ctx, "remove-line-item", domain.LockKey(input.CartID), steps); err != nil {
		return nil, err
	}
	return st.cart, nil
}
