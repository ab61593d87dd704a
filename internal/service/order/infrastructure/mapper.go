// internal/service/order/infrastructure/mapper.go
package infrastructure

import (
	"encoding/json"

	"vernont/internal/service/order/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(m *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:            m.ID,
		CartID:        m.CartID,
		CustomerID:    m.CustomerID,
		Email:         m.Email,
		Currency:      m.Currency,
		Status:        domain.Status(m.Status),
		Subtotal:      m.Subtotal,
		TaxTotal:      m.TaxTotal,
		ShippingTotal: m.ShippingTotal,
		DiscountTotal: m.DiscountTotal,
		Total:         m.Total,
		CanceledAt:    m.CanceledAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for i := range m.Items {
		item := &m.Items[i]
		order.Items = append(order.Items, domain.OrderLineItem{
			ID:             item.ID,
			OrderID:        item.OrderID,
			CartLineItemID: item.CartLineItemID,
			VariantID:      item.VariantID,
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TaxRate:        item.TaxRate,
		})
	}
	return order
}

// ToOrderModel 将领域模型转换为数据库模型
func ToOrderModel(o *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:            o.ID,
		CartID:        o.CartID,
		CustomerID:    o.CustomerID,
		Email:         o.Email,
		Currency:      o.Currency,
		Status:        string(o.Status),
		Subtotal:      o.Subtotal,
		TaxTotal:      o.TaxTotal,
		ShippingTotal: o.ShippingTotal,
		DiscountTotal: o.DiscountTotal,
		Total:         o.Total,
		CanceledAt:    o.CanceledAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for i := range o.Items {
		item := &o.Items[i]
		model.Items = append(model.Items, OrderLineItemModel{
			ID:             item.ID,
			OrderID:        item.OrderID,
			CartLineItemID: item.CartLineItemID,
			VariantID:      item.VariantID,
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TaxRate:        item.TaxRate,
		})
	}
	return model
}

// ToDomainPayment 将数据库模型转换为领域模型
func ToDomainPayment(m *PaymentModel) *domain.Payment {
	payment := &domain.Payment{
		ID:        m.ID,
		CartID:    m.CartID,
		OrderID:   m.OrderID,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Status:    domain.SessionStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for i := range m.Sessions {
		sm := &m.Sessions[i]
		session := domain.PaymentSession{
			ID:        sm.ID,
			PaymentID: sm.PaymentID,
			Provider:  sm.Provider,
			Status:    domain.SessionStatus(sm.Status),
			CreatedAt: sm.CreatedAt,
			UpdatedAt: sm.UpdatedAt,
		}
		if sm.Data != "" {
			// 数据损坏时保留空 map，不让一条脏记录拖垮整个支付读取
			_ = json.Unmarshal([]byte(sm.Data), &session.Data)
		}
		payment.Sessions = append(payment.Sessions, session)
	}
	return payment
}

// ToPaymentModel 将领域模型转换为数据库模型
func ToPaymentModel(p *domain.Payment) *PaymentModel {
	model := &PaymentModel{
		ID:        p.ID,
		CartID:    p.CartID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for i := range p.Sessions {
		session := &p.Sessions[i]
		data := ""
		if len(session.Data) > 0 {
			if raw, err := json.Marshal(session.Data); err == nil {
				data = string(raw)
			}
		}
		model.Sessions = append(model.Sessions, PaymentSessionModel{
			ID:        session.ID,
			PaymentID: session.PaymentID,
			Provider:  session.Provider,
			Status:    string(session.Status),
			Data:      data,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return model
}
