package services

import (
	"encoding/json"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
)

func CreateMockOrder(id string, status domain.OrderStatus, total float64) *domain.Order {
	return &domain.Order{
		OrderID: id,
		Customer: domain.Customer{
			Name:  TestCustomerName,
			Phone: TestCustomerPhone,
		},
		Items: []domain.Item{
			{ID: "x1", Name: "Burger", Quantity: 2, UnitPrice: 15},
		},
		Total:        total,
		DeliveryType: domain.DeliveryPickup,
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func CreateMockPayment(id, status, externalReference string) *infra.Payment {
	return &infra.Payment{
		ID:                json.Number(id),
		Status:            status,
		ExternalReference: externalReference,
		TransactionAmount: TestOrderTotal,
		PaymentTypeID:     "pix",
	}
}

const (
	TestOrderID       = "ORD1"
	TestPaymentID     = "123"
	TestOrderTotal    = float64(30)
	TestCustomerName  = "Ana"
	TestCustomerPhone = "11999999999"
)
