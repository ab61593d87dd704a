// internal/service/cart/domain/repository.go
package domain

import "context"

// CartRepository 定义了购物车聚合的持久化接口，由基础设施层实现。
type CartRepository interface {
	// FindByID 加载购物车及其全部行项目（含软删除的行），
	// 不存在时返回 *apperr.NotFoundError。
	FindByID(ctx context.Context, id string) (*Cart, error)

	// Save 保存购物车聚合（购物车本体和所有行项目）。
	Save(ctx context.Context, cart *Cart) error
}
