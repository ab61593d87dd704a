// internal/service/order/application/saga/complete_cart.go

// Package saga 实现订单侧的业务 saga。
// CompleteCart 是整个系统语义最重的流程：
// OPEN → (锁) → VALIDATED → INVENTORY_RESERVED → PAYMENT_AUTHORIZED
// → ORDER_CREATED → COMPLETED，任一步失败都回退到 OPEN（锁除外）。
package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"vernont/internal/pkg/apperr"
	cartdomain "vernont/internal/service/cart/domain"
	cartport "vernont/internal/service/cart/port"
	inventory "vernont/internal/service/inventory/application"
	invdomain "vernont/internal/service/inventory/domain"
	"vernont/internal/service/order/domain"
	"vernont/internal/service/order/port"
	"vernont/internal/workflow"
)

// CompleteCart 把一个打开的购物车结算成订单。
type CompleteCart struct {
	engine   *workflow.Engine
	carts    cartdomain.CartRepository
	orders   domain.OrderRepository
	payments domain.PaymentRepository
	catalog  cartport.Catalog
	ledger   *inventory.Ledger
	gateway  port.PaymentGateway
	events   port.EventPublisher
}

func NewCompleteCart(
	engine *workflow.Engine,
	carts cartdomain.CartRepository,
	orders domain.OrderRepository,
	payments domain.PaymentRepository,
	catalog cartport.Catalog,
	ledger *inventory.Ledger,
	gateway port.PaymentGateway,
	events port.EventPublisher,
) *CompleteCart {
	return &CompleteCart{
		engine:   engine,
		carts:    carts,
		orders:   orders,
		payments: payments,
		catalog:  catalog,
		ledger:   ledger,
		gateway:  gateway,
		events:   events,
	}
}

// completeCartState 在步骤之间显式传递类型化的状态，
// 补偿所需的一切（订单、预留）都记在这里。
type completeCartState struct {
	cart         *cartdomain.Cart
	payment      *domain.Payment
	order        *domain.Order
	reservations []*invdomain.Reservation
}

// Execute 运行 CompleteCart saga，成功时返回创建的订单。
func (s *CompleteCart) Execute(ctx context.Context, cartID string) (*domain.Order, error) {
	st := &completeCartState{}
	steps := []workflow.Step{
		workflow.NewStep("load-cart", s.loadCart(cartID, st)),
		workflow.NewStep("validate-cart", s.validateCart(st)),
		workflow.NewStep("validate-payment", s.validatePayment(st)),
		workflow.NewStep("create-order", s.createOrder(st)),
		workflow.NewStep("reserve-inventory", s.reserveInventory(st)),
		workflow.NewStep("authorize-payment", s.authorizePayment(st)),
		workflow.NewStep("complete-cart", s.completeCart(st)),
		workflow.NewStep("link-order-to-payment", s.linkOrderToPayment(st)),
	}

	err := s.engine.Run(ctx, "complete-cart", cartdomain.LockKey(cartID), steps)
	if err != nil {
		s.publish(ctx, domain.EventCartCompletionFailed, cartID, domain.CartCompletionFailed{
			CartID:   cartID,
			Reason:   err.Error(),
			FailedAt: time.Now(),
		})
		return nil, err
	}

	s.publish(ctx, domain.EventOrderPlaced, st.order.ID, domain.OrderPlaced{
		OrderID:  st.order.ID,
		CartID:   cartID,
		Total:    st.order.Total,
		Currency: st.order.Currency,
		PlacedAt: time.Now(),
	})
	return st.order, nil
}

func (s *CompleteCart) loadCart(cartID string, st *completeCartState) func(context.Context, *workflow.Run) error {
	return func(ctx context.Context, run *workflow.Run) error {
		cart, err := s.carts.FindByID(ctx, cartID)
		if err != nil {
			return err
		}
		st.cart = cart
		return nil
	}
}

// validateCart 的 completed 检查发生在拿到 cart 锁之后，
// 这是"一个购物车只能完成一次"的唯一强制点，关闭并发重复结账的竞态。
func (s *CompleteCart) validateCart(st *completeCartState) func(context.Context, *workflow.Run) error {
	return func(ctx context.Context, run *workflow.Run) error {
		if err := st.cart.EnsureOpen(); err != nil {
			return err
		}
		if st.cart.IsEmpty() {
			return apperr.Validationf("cart %s is empty", st.cart.ID)
		}
		if st.cart.ShippingMethodID == "" {
			return apperr.Validationf("cart %s has no shipping method", st.cart.ID)
		}
		if st.cart.Email == "" {
			return apperr.Validationf("cart %s has no email", st.cart.ID)
		}
		return nil
	}
}

func (s *CompleteCart) validatePayment(st *completeCartState) func(context.Context, *workflow.Run) error {
	return func(ctx context.Context, run *workflow.Run) error {
		payment, err := s.payments.FindByCart(ctx, st.cart.ID)
		if err != nil {
			return err
		}
		if payment.IsCanceled() {
			return apperr.IllegalStatef("payment %s for cart %s is canceled", payment.ID, st.cart.ID)
		}
		st.payment = payment
		return nil
	}
}

// createOrder 把购物车快照成 PENDING 订单。订单行在持久层提交后即可见，
// 补偿：把订单标记为 CANCELED。
func (s *CompleteCart) createOrder(st *completeCartState) func(context.Context, *workflow.Run) error {
	return func(ctx context.Context, run *workflow.Run) error {
		order := domain.NewOrderFromCart(st.cart)
		if err := s.orders.Save(ctx, order); err != nil {
			return err
		}
		st.order = order

		run.PushCompensation("create-order",
			fmt.Sprintf("cancel order %s", order.ID),
			func(ctx context.Context) error {
				if err := order.Cancel(); err != nil {
					return err
				}
				return s.orders.Save(ctx, order)
			})
		return nil
	}
}

// reserveInventory 为每个跟踪库存的订单行建立预留，单库位不足时按优先级
// 跨库位拆分。任一行分配失败时，账本已经把该行自己的部分预留就地回滚，
// 这里只需再补偿掉之前已完成的行，两层回滚互相独立。
func (s *CompleteCart) reserveInventory(st *completeCartState) func(context.Context, *workflow.Run) error {
	return func(ctx context.Context, run *workflow.Run) error {
		for i := range st.order.Items {
			item := &st.order.Items[i]
			variant, err := s.catalog.FindVariant(ctx, item.VariantID)
			if err != nil {
				s.releaseState(ctx, st)
				return err
			}
			if !variant.ManageInventory {
				continue
			}
			created, err := s.ledger.AllocateAcrossLocations(ctx, variant.InventoryItemID, item.ID, st.order.ID, item.Quantity)
			if err != nil {
				// 本步骤内先前各行的预留必须先回滚再向上抛，
				// 不依赖 saga 级补偿栈（它只覆盖"后续步骤失败"）
				s.releaseState(ctx, st)
				return err
			}
			st.reservations = append(st.reservations, created...)
		}

		if len(st.reservations) > 0 {
			run.PushCompensation("reserve-inventory",
				fmt.Sprintf("release %d reservation(s) for order %s", len(st.reservations), st.order.ID),
				func(ctx context.Context) error {
					s.ledger.RollbackReservations(ctx, st.reservations)
					return nil
				})
		}
		return nil
	}
}

func (s *CompleteCart) releaseState(ctx context.Context, st *completeCartState) {
	if len(st.reservations) == 0 {
		return
	}
	s.ledger.RollbackReservations(ctx, st.reservations)
	st.reservations = nil
}

// authorizePayment 调用渠道授权并推进支付状态机。
// 补偿：渠道侧作废授权，支付转入 CANCELED。
func (s *CompleteCart) authorizePayment(st *completeCartState) func(context.Context, *workflow.Run) error {
	return func(ctx context.Context, run *workflow.Run) error {
		session := st.payment.ActiveSession()
		if session == nil {
			return apperr.IllegalStatef("payment %s has no active session", st.payment.ID)
		}
		providerData, err := s.gateway.Authorize(ctx, session, st.payment.Amount, st.payment.Currency)
		if err != nil {
			return err
		}

		// 渠道已经扣住授权，补偿必须在任何后续失败前注册，
		// 否则状态机或落库失败会留下未作废的渠道授权。
		payment := st.payment
		run.PushCompensation("authorize-payment",
			fmt.Sprintf("void authorization and cancel payment %s", payment.ID),
			func(ctx context.Context) error {
				if err := s.gateway.Void(ctx, session); err != nil {
					log.Warn().Err(err).Str("payment_id", payment.ID).
						Msg("failed to void authorization at provider")
				}
				if err := payment.Cancel(); err != nil {
					return err
				}
				return s.payments.Save(ctx, payment)
			})

		if err := st.payment.MarkAuthorized(providerData); err != nil {
			return err
		}
		return s.payments.Save(ctx, st.payment)
	}
}

// completeCart 设置 completedAt，购物车进入终态。补偿：清掉 completedAt。
func (s *CompleteCart) completeCart(st *completeCartState) func(context.Context, *workflow.Run) error {
	return func(ctx context.Context, run *workflow.Run) error {
		if err := st.cart.Complete(); err != nil {
			return err
		}
		if err := s.carts.Save(ctx, st.cart); err != nil {
			return err
		}

		cart := st.cart
		run.PushCompensation("complete-cart",
			fmt.Sprintf("clear completedAt on cart %s", cart.ID),
			func(ctx context.Context) error {
				cart.ClearCompleted()
				return s.carts.Save(ctx, cart)
			})
		return nil
	}
}

func (s *CompleteCart) linkOrderToPayment(st *completeCartState) func(context.Context, *workflow.Run) error {
	return func(ctx context.Context, run *workflow.Run) error {
		st.payment.LinkOrder(st.order.ID)
		return s.payments.Save(ctx, st.payment)
	}
}

func (s *CompleteCart) publish(ctx context.Context, eventType, correlationID string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, correlationID, payload); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
