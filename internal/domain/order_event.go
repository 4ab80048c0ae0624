package domain

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderPaid          = "order.paid"
	EventOrderPaymentFailed = "order.payment_failed"
)

type OrderCreatedEvent struct {
	OrderID      string       `json:"orderId"`
	Total        float64      `json:"total"`
	DeliveryType DeliveryType `json:"deliveryType"`
	PaymentType  string       `json:"paymentType"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type OrderPaymentEvent struct {
	OrderID   string      `json:"orderId"`
	PaymentID string      `json:"paymentId"`
	Status    OrderStatus `json:"status"`
	Method    string      `json:"method"`
	Value     float64     `json:"value"`
}
