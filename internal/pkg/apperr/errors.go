// internal/pkg/apperr/errors.go
package apperr

import (
	"fmt"
	"time"
)

// NotFoundError 表示请求的实体不存在，属于调用方错误，不可重试。
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NotFound 构造一个 NotFoundError。
func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError 表示输入不满足业务规则，不可重试。
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IllegalStateError 表示聚合当前状态不允许该操作，
// 例如对已完成的购物车再次执行 complete。
type IllegalStateError struct {
	Msg string
}

func (e *IllegalStateError) Error() string { return e.Msg }

func IllegalStatef(format string, args ...interface{}) *IllegalStateError {
	return &IllegalStateError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientInventoryError 携带请求量与实际可用量，
// 调用方可以带着更小的数量或 backorder 标记重试。
type InsufficientInventoryError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

// Shortfall 返回缺口数量。
func (e *InsufficientInventoryError) Shortfall() int {
	return e.Requested - e.Available
}

// LockTimeoutError 表示在限定等待时间内没有抢到分布式锁，属于瞬时竞争，可重试。
type LockTimeoutError struct {
	Key  string
	Wait time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("timed out acquiring lock %q after %s", e.Key, e.Wait)
}

// PaymentProviderError 包装支付渠道返回的失败，是否可重试由渠道语义决定。
type PaymentProviderError struct {
	Provider string
	Err      error
}

func (e *PaymentProviderError) Error() string {
	return fmt.Sprintf("payment provider %s: %v", e.Provider, e.Err)
}

func (e *PaymentProviderError) Unwrap() error { return e.Err }
