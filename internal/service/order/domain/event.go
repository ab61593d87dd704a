// internal/service/order/domain/event.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 事件类型常量，写入事件信封的 EventType 字段。
const (
	EventOrderPlaced          = "order.placed"
	EventCartCompletionFailed = "cart.completion_failed"
)

// OrderPlaced 在 CompleteCart saga 成功提交后发布。
// 发布是 fire-and-forget，不在事务/补偿保证之内。
type OrderPlaced struct {
	OrderID  string          `json:"orderId"`
	CartID   string          `json:"cartId"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
	PlacedAt time.Time       `json:"placedAt"`
}

// CartCompletionFailed 在 saga 回滚完成后发布，供告警/分析消费。
type CartCompletionFailed struct {
	CartID   string    `json:"cartId"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failedAt"`
}
