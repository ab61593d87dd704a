// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending   Status = "PENDING"   // 订单已创建，等待履约
	StatusCompleted Status = "COMPLETED" // 已履约完成
	StatusCanceled  Status = "CANCELED"  // 已取消（终态）
)
