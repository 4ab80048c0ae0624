package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusAwaitingPayment OrderStatus = "AGUARDANDO_PAGAMENTO"
	StatusAwaitingPrep    OrderStatus = "AGUARDANDO_PREPARO"
	StatusPendingPayment  OrderStatus = "PENDENTE_PAGAMENTO"
	StatusPaid            OrderStatus = "PAGO"
	StatusPaymentFailed   OrderStatus = "PAGAMENTO_FALHOU"
)

type DeliveryType string

const (
	DeliveryCourier DeliveryType = "ENTREGA"
	DeliveryPickup  DeliveryType = "RETIRADA"
)

const (
	PaymentTypePayLater = "PAGAR_DEPOIS"
	PaymentTypePayNowMP = "PAGAR_AGORA_MP"

	ProviderMercadoPago = "MERCADO_PAGO"
)

type Customer struct {
	Name    string `json:"name" firestore:"name"`
	Phone   string `json:"phone" firestore:"phone"`
	Address string `json:"address,omitempty" firestore:"address,omitempty"`
	CEP     string `json:"cep,omitempty" firestore:"cep,omitempty"`
}

type Item struct {
	ID        string  `json:"id" firestore:"id"`
	Name      string  `json:"name" firestore:"name"`
	Quantity  int64   `json:"quantity" firestore:"quantity"`
	UnitPrice float64 `json:"unit_price" firestore:"unit_price"`
}

// PaymentInfo is attached to an order once a gateway webhook resolves.
type PaymentInfo struct {
	PaymentID string  `json:"paymentId" firestore:"paymentId"`
	Provider  string  `json:"provider" firestore:"provider"`
	Status    string  `json:"status" firestore:"status"`
	Method    string  `json:"method" firestore:"method"`
	Value     float64 `json:"value" firestore:"value"`
}

// PreferenceRef records the gateway-side preference created for an order.
type PreferenceRef struct {
	PreferenceID string `json:"preferenceId" firestore:"preferenceId"`
	InitPoint    string `json:"init_point" firestore:"init_point"`
}

type Order struct {
	OrderID      string         `json:"orderId" firestore:"orderId"`
	Customer     Customer       `json:"customer" firestore:"customer"`
	Items        []Item         `json:"items" firestore:"items"`
	Total        float64        `json:"total" firestore:"total"`
	DeliveryType DeliveryType   `json:"deliveryType" firestore:"deliveryType"`
	PaymentType  string         `json:"paymentType" firestore:"paymentType"`
	Status       OrderStatus    `json:"status" firestore:"status"`
	Source       string         `json:"source,omitempty" firestore:"source,omitempty"`
	Payment      *PaymentInfo   `json:"payment,omitempty" firestore:"payment,omitempty"`
	MP           *PreferenceRef `json:"mp,omitempty" firestore:"mp,omitempty"`
	CreatedAt    time.Time      `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" firestore:"updatedAt"`
}

// NormalizeDeliveryType defaults absent or unknown values to pickup.
func NormalizeDeliveryType(s string) DeliveryType {
	switch DeliveryType(s) {
	case DeliveryCourier, DeliveryPickup:
		return DeliveryType(s)
	}
	return DeliveryPickup
}

// StatusForGateway maps a gateway payment status to the order status it
// should transition to. The second return is false for statuses that do not
// trigger a transition (e.g. "in_process", "pending").
func StatusForGateway(paymentStatus string) (OrderStatus, bool) {
	switch paymentStatus {
	case "approved":
		return StatusPaid, true
	case "rejected", "cancelled":
		return StatusPaymentFailed, true
	}
	return "", false
}

var paidTokens = []string{"PAGO", "PAID", "APPROVED"}

// IsPaidStatus reports whether a stored status reads as paid. Matching is a
// case-insensitive substring scan over the order status, falling back to the
// payment status when the order status is empty, kept wire-compatible with
// the historical behavior of the status endpoint.
func IsPaidStatus(status, paymentStatus string) bool {
	raw := strings.ToUpper(strings.TrimSpace(status))
	if raw == "" {
		raw = strings.ToUpper(strings.TrimSpace(paymentStatus))
	}
	for _, token := range paidTokens {
		if strings.Contains(raw, token) {
			return true
		}
	}
	return false
}
