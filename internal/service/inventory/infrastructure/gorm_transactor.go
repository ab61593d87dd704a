// internal/service/inventory/infrastructure/gorm_transactor.go
package infrastructure

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactor 把一个函数包进 GORM 事务执行，
// 事务句柄通过 context 传给同一次调用链上的仓储。
type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// 已经在事务里时直接复用，避免嵌套事务
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom 取出当前事务句柄；不在事务里时退回到裸连接。
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
