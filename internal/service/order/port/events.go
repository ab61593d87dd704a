// internal/service/order/port/events.go
package port

import "context"

// EventPublisher 是领域事件的出站端口，saga 提交后 fire-and-forget。
// 发布失败只记日志，绝不触发回滚。
type EventPublisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload interface{}) error
}
