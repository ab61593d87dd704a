// internal/service/order/port/payment_gateway.go
package port

import (
	"context"

	"github.com/shopspring/decimal"

	"vernont/internal/service/order/domain"
)

// PaymentGateway 是支付渠道的出站端口。引擎用同一个契约对待所有渠道，
// 渠道各自的请求/响应报文完全是适配器的事情。
// 失败以 *apperr.PaymentProviderError 返回。
type PaymentGateway interface {
	// Authorize 请求授权，成功时返回渠道的不透明数据（授权号等）。
	Authorize(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal, currency string) (map[string]string, error)

	// Capture 请求捕获已授权的金额，返回实际捕获金额。
	Capture(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal, currency string) (decimal.Decimal, error)

	// Void 作废一笔未捕获的授权。
	Void(ctx context.Context, session *domain.PaymentSession) error

	// Refund 退还已捕获的金额。
	Refund(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal) error
}
