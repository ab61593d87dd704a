// internal/service/cart/infrastructure/mapper.go
package infrastructure

import (
	"vernont/internal/service/cart/domain"
)

// ToDomainCart 将数据库模型转换为领域模型
func ToDomainCart(m *CartModel) *domain.Cart {
	cart := &domain.Cart{
		ID:               m.ID,
		CustomerID:       m.CustomerID,
		Email:            m.Email,
		Currency:         m.Currency,
		ShippingMethodID: m.ShippingMethodID,
		TaxRate:          m.TaxRate,
		ShippingTotal:    m.ShippingTotal,
		DiscountTotal:    m.DiscountTotal,
		Subtotal:         m.Subtotal,
		TaxTotal:         m.TaxTotal,
		Total:            m.Total,
		CompletedAt:      m.CompletedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	cart.Items = make([]domain.LineItem, 0, len(m.Items))
	for i := range m.Items {
		cart.Items = append(cart.Items, toDomainLineItem(&m.Items[i]))
	}
	return cart
}

func toDomainLineItem(m *CartLineItemModel) domain.LineItem {
	return domain.LineItem{
		ID:        m.ID,
		CartID:    m.CartID,
		VariantID: m.VariantID,
		Title:     m.Title,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		TaxRate:   m.TaxRate,
		CreatedAt: m.CreatedAt,
		DeletedAt: m.DeletedAt,
	}
}

// ToCartModel 将领域模型转换为数据库模型
func ToCartModel(c *domain.Cart) *CartModel {
	model := &CartModel{
		ID:               c.ID,
		CustomerID:       c.CustomerID,
		Email:            c.Email,
		Currency:         c.Currency,
		ShippingMethodID: c.ShippingMethodID,
		TaxRate:          c.TaxRate,
		ShippingTotal:    c.ShippingTotal,
		DiscountTotal:    c.DiscountTotal,
		Subtotal:         c.Subtotal,
		TaxTotal:         c.TaxTotal,
		Total:            c.Total,
		CompletedAt:      c.CompletedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	model.Items = make([]CartLineItemModel, 0, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		model.Items = append(model.Items, CartLineItemModel{
			ID:        item.ID,
			CartID:    item.CartID,
			VariantID: item.VariantID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
			CreatedAt: item.CreatedAt,
			DeletedAt: item.DeletedAt,
		})
	}
	return model
}
