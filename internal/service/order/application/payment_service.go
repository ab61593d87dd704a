// internal/service/order/application/payment_service.go
package application

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"vernont/internal/pkg/apperr"
	"vernont/internal/service/order/domain"
	"vernont/internal/service/order/port"
)

// PaymentService 承担 saga 之外的支付操作（捕获、退款）。
type PaymentService struct {
	payments domain.PaymentRepository
	gateway  port.PaymentGateway
}

func NewPaymentService(payments domain.PaymentRepository, gateway port.PaymentGateway) *PaymentService {
	return &PaymentService{payments: payments, gateway: gateway}
}

// Capture 捕获一笔已授权的支付。
// Payment.Status 是幂等保护：已经 CAPTURED 的支付直接返回，不再打渠道。
func (s *PaymentService) Capture(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.SessionCaptured {
		log.Info().Str("payment_id", paymentID).Msg("payment already captured, skipping")
		return payment, nil
	}

	session := payment.ActiveSession()
	if session == nil {
		return nil, apperr.IllegalStatef("payment %s has no active session", payment.ID)
	}
	captured, err := s.gateway.Capture(ctx, session, payment.Amount, payment.Currency)
	if err != nil {
		return nil, err
	}
	if err := payment.MarkCaptured(); err != nil {
		return nil, err
	}
	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, err
	}

	log.Info().
		Str("payment_id", paymentID).
		Str("captured_amount", captured.String()).
		Msg("payment captured")
	return payment, nil
}

// Refund 对已捕获的支付发起退款，金额由调用方给出（部分退款允许）。
func (s *PaymentService) Refund(ctx context.Context, paymentID string, amount decimal.Decimal) error {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status != domain.SessionCaptured {
		return apperr.IllegalStatef("payment %s cannot be refunded from status %s", payment.ID, payment.Status)
	}
	return s.gateway.Refund(ctx, payment.ActiveSession(), amount)
}
