// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error

	// FindByID 根据 ID 查找订单，不存在时返回 *apperr.NotFoundError。
	FindByID(ctx context.Context, id string) (*Order, error)
}

// PaymentRepository 定义了支付聚合的持久化接口。
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error

	FindByID(ctx context.Context, id string) (*Payment, error)

	// FindByCart 查找挂在某购物车上的支付，不存在时返回 *apperr.NotFoundError。
	FindByCart(ctx context.Context, cartID string) (*Payment, error)
}
