package infra

import "context"

type PaymentClientInterface interface {
	CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

var _ PaymentClientInterface = (*MercadoPagoClient)(nil)
