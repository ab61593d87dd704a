// internal/service/order/infrastructure/manual_gateway.go
package infrastructure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vernont/internal/service/order/domain"
)

// ManualProvider 是内置的手工支付渠道名。
const ManualProvider = "manual"

// ManualGateway 是不对接任何外部渠道的支付实现：授权/捕获/作废/退款一律成功。
// 用于货到付款、线下转账这类由运营人工对账的场景。
type ManualGateway struct{}

func NewManualGateway() *ManualGateway {
	return &ManualGateway{}
}

func (g *ManualGateway) Authorize(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal, currency string) (map[string]string, error) {
	return map[string]string{
		"authorization_id": uuid.NewString(),
		"authorized_at":    time.Now().Format(time.RFC3339),
	}, nil
}

func (g *ManualGateway) Capture(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	return amount, nil
}

func (g *ManualGateway) Void(ctx context.Context, session *domain.PaymentSession) error {
	return nil
}

func (g *ManualGateway) Refund(ctx context.Context, session *domain.PaymentSession, amount decimal.Decimal) error {
	return nil
}
