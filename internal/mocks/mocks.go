package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockPaymentClient struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrGet(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, payment *domain.PaymentInfo) error {
	args := m.Called(ctx, orderID, status, payment)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) NewID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockOrderRepository) MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error) {
	args := m.Called(ctx, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UnmarkPaymentProcessed(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func (m *MockPaymentClient) CreatePreference(ctx context.Context, req *infra.PreferenceRequest) (*infra.Preference, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.Preference), args.Error(1)
}

func (m *MockPaymentClient) GetPayment(ctx context.Context, paymentID string) (*infra.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.Payment), args.Error(1)
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	args := m.Called(ctx, routingKey, data)
	return args.Error(0)
}
