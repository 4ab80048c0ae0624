package http

import (
	"encoding/json"

	"checkout-service/internal/domain"
)

type CustomerPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	CEP     string `json:"cep"`
}

type ItemPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type SubmitOrderRequest struct {
	OrderID      string          `json:"orderId"`
	Customer     CustomerPayload `json:"customer"`
	Items        []ItemPayload   `json:"items"`
	Total        float64         `json:"total"`
	DeliveryType string          `json:"deliveryType"`
	PaymentType  string          `json:"paymentType"`
}

type CreatePreferenceRequest struct {
	OrderID      string          `json:"orderId"`
	Customer     CustomerPayload `json:"customer"`
	Items        []ItemPayload   `json:"items"`
	Total        float64         `json:"total"`
	DeliveryType string          `json:"deliveryType"`
	SuccessURL   string          `json:"successUrl"`
	FailureURL   string          `json:"failureUrl"`
	PendingURL   string          `json:"pendingUrl"`
}

type CreatePreferenceResponse struct {
	OK               bool   `json:"ok"`
	OrderID          string `json:"orderId"`
	InitPoint        string `json:"init_point"`
	PreferenceID     string `json:"preference_id"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

// WebhookBody is the newer notification shape; the legacy shape arrives as
// query parameters instead.
type WebhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

func (c CustomerPayload) toDomain() domain.Customer {
	return domain.Customer{
		Name:    c.Name,
		Phone:   c.Phone,
		Address: c.Address,
		CEP:     c.CEP,
	}
}

func toDomainItems(items []ItemPayload) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		out = append(out, domain.Item{
			ID:        it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return out
}
