// internal/service/order/domain/payment.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"vernont/internal/pkg/apperr"
)

// SessionStatus 定义了支付会话的状态机：
// PENDING → AUTHORIZED → CAPTURED，或 PENDING → ERROR，
// 任意非终态在补偿时可以转入 CANCELED。
type SessionStatus string

const (
	SessionPending    SessionStatus = "PENDING"
	SessionAuthorized SessionStatus = "AUTHORIZED"
	SessionCaptured   SessionStatus = "CAPTURED"
	SessionError      SessionStatus = "ERROR"
	SessionCanceled   SessionStatus = "CANCELED"
)

// PaymentSession 是某支付渠道上的一次会话。
type PaymentSession struct {
	ID        string
	PaymentID string
	Provider  string
	Status    SessionStatus
	// Data 存放渠道返回的不透明数据（授权号等）。
	Data      map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment 聚合一个或多个渠道会话；Payment 自身的 Status 镜像活跃会话的状态，
// 是"是否已授权/已捕获"的唯一事实来源（幂等保护）。
type Payment struct {
	ID       string
	CartID   string
	OrderID  string
	Amount   decimal.Decimal
	Currency string
	Status   SessionStatus

	Sessions []PaymentSession

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveSession 返回当前活跃（非终态错误/取消）的会话；约定取最后一个非取消会话。
func (p *Payment) ActiveSession() *PaymentSession {
	for i := len(p.Sessions) - 1; i >= 0; i-- {
		if p.Sessions[i].Status != SessionCanceled && p.Sessions[i].Status != SessionError {
			return &p.Sessions[i]
		}
	}
	return nil
}

// IsCanceled 判断支付是否已整体取消。
func (p *Payment) IsCanceled() bool {
	return p.Status == SessionCanceled
}

// MarkAuthorized 将支付转入 AUTHORIZED。只能从 PENDING 发起：
// 这个守卫就是授权的幂等保护，重复授权请求在这里被拒绝。
func (p *Payment) MarkAuthorized(providerData map[string]string) error {
	if p.Status != SessionPending {
		return apperr.IllegalStatef("payment %s cannot be authorized from status %s", p.ID, p.Status)
	}
	session := p.ActiveSession()
	if session == nil {
		return apperr.IllegalStatef("payment %s has no active session", p.ID)
	}
	now := time.Now()
	session.Status = SessionAuthorized
	session.UpdatedAt = now
	if providerData != nil {
		if session.Data == nil {
			session.Data = make(map[string]string, len(providerData))
		}
		for k, v := range providerData {
			session.Data[k] = v
		}
	}
	p.Status = SessionAuthorized
	p.UpdatedAt = now
	return nil
}

// MarkCaptured 将支付转入 CAPTURED，只能从 AUTHORIZED 发起。
func (p *Payment) MarkCaptured() error {
	if p.Status != SessionAuthorized {
		return apperr.IllegalStatef("payment %s cannot be captured from status %s", p.ID, p.Status)
	}
	session := p.ActiveSession()
	if session == nil {
		return apperr.IllegalStatef("payment %s has no active session", p.ID)
	}
	now := time.Now()
	session.Status = SessionCaptured
	session.UpdatedAt = now
	p.Status = SessionCaptured
	p.UpdatedAt = now
	return nil
}

// Cancel 在补偿时把任意非终态转入 CANCELED。已捕获的支付不能取消，只能退款。
func (p *Payment) Cancel() error {
	if p.Status == SessionCanceled {
		return nil
	}
	if p.Status == SessionCaptured {
		return apperr.IllegalStatef("payment %s is captured, refund instead of cancel", p.ID)
	}
	now := time.Now()
	if session := p.ActiveSession(); session != nil {
		session.Status = SessionCanceled
		session.UpdatedAt = now
	}
	p.Status = SessionCanceled
	p.UpdatedAt = now
	return nil
}

// ReopenPending 撤销一次授权补偿后的取消，把支付恢复到 PENDING。
// 仅用于回滚场景，正常业务不允许离开 CANCELED。
func (p *Payment) ReopenPending() {
	now := time.Now()
	if session := p.lastSession(); session != nil {
		session.Status = SessionPending
		session.UpdatedAt = now
	}
	p.Status = SessionPending
	p.UpdatedAt = now
}

func (p *Payment) lastSession() *PaymentSession {
	if len(p.Sessions) == 0 {
		return nil
	}
	return &p.Sessions[len(p.Sessions)-1]
}

// LinkOrder 把支付挂到订单上（saga 的最后一步）。
func (p *Payment) LinkOrder(orderID string) {
	p.OrderID = orderID
	p.UpdatedAt = time.Now()
}
