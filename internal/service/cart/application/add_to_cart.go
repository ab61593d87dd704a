// internal/service/cart/application/add_to_cart.go

// Package application 实现购物车的变更 saga（增、改、删行项目）。
// 每个 saga 都在 cart:<id> 锁下通过 workflow 引擎执行，
// 并以"从行项目整体重算合计"收尾，绝不增量修补缓存的 total 字段。
package application

import (
	"context"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/cart/domain"
	"vernont/internal/service/cart/port"
	"vernont/internal/workflow"
)

// AddToCartInput 是 AddToCart saga 的输入。
type AddToCartInput struct {
	CartID    string
	VariantID string
	Quantity  int
}

// AddToCart 向购物车添加行项目：同变体已存在时合并数量而不是新插一行，
// 并校验该变体在购物车币种下有可解析的价格。
type AddToCart struct {
	engine  *workflow.Engine
	carts   domain.CartRepository
	catalog port.Catalog
}

func NewAddToCart(engine *workflow.Engine, carts domain.CartRepository, catalog port.Catalog) *AddToCart {
	return &AddToCart{engine: engine, carts: carts, catalog: catalog}
}

// addToCartState 在步骤之间显式传递类型化的状态。
type addToCartState struct {
	cart    *domain.Cart
	variant *port.Variant
}

func (s *AddToCart) Execute(ctx context.Context, input AddToCartInput) (*domain.Cart, error) {
	if input.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be positive, got %d", input.Quantity)
	}

	st := &addToCartState{}
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
			return st.cart.EnsureOpen()
		}),
		workflow.NewStep("resolve-variant", func(ctx context.Context, run *workflow.Run) error {
			variant, err := s.catalog.FindVariant(ctx, input.VariantID)
			if err != nil {
				return err
			}
			if _, ok := variant.PriceFor(st.cart.Currency); !ok {
				return apperr.Validationf("variant %s has no price for currency %s", variant.ID, st.cart.Currency)
			}
			st.variant = variant
			return nil
		}),
		workflow.NewStep("upsert-line-item", func(ctx context.Context, run *workflow.Run) error {
			price, _ := st.variant.PriceFor(st.cart.Currency)
			if existing := st.cart.FindItemByVariant(input.VariantID); existing != nil {
				existing.Quantity += input.Quantity
				return nil
			}
			st.cart.AddItem(st.variant.ID, st.variant.Title, input.Quantity, price, st.cart.TaxRate)
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

	if err := s.engine.Run(ctx, "add-to-cart", domain.LockKey(input.CartID), steps); err != nil {
		return nil, err
	}
	return st.cart, nil
}
