package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMercadoPagoClient_CreatePreference(t *testing.T) {
	var gotAuth string
	var gotBody PreferenceRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"id":                 "pref-1",
			"init_point":         "https://mp.example/init",
			"sandbox_init_point": "https://sandbox.mp.example/init",
		})
	}))
	defer srv.Close()

	client := NewMercadoPagoClient(srv.URL, "test-token", 2*time.Second)

	pref, err := client.CreatePreference(context.Background(), &PreferenceRequest{
		Items:             []PreferenceItem{{ID: "ORD1", Title: "Pedido ORD1", Quantity: 1, CurrencyID: "BRL", UnitPrice: 30}},
		ExternalReference: "ORD1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://mp.example/init", pref.InitPoint)
	assert.Equal(t, "https://sandbox.mp.example/init", pref.SandboxInitPoint)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "ORD1", gotBody.ExternalReference)
}

func TestMercadoPagoClient_GetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/123", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 123,
			"status": "approved",
			"external_reference": "ORD1",
			"metadata": {"order_id": "ORD1"},
			"transaction_amount": 30,
			"payment_type_id": "pix"
		}`))
	}))
	defer srv.Close()

	client := NewMercadoPagoClient(srv.URL, "test-token", 2*time.Second)

	payment, err := client.GetPayment(context.Background(), "123")

	assert.NoError(t, err)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "ORD1", payment.OrderID())
	assert.Equal(t, float64(30), payment.TransactionAmount)
	assert.Equal(t, "pix", payment.PaymentTypeID)
}

func TestMercadoPagoClient_TokenMissing(t *testing.T) {
	client := NewMercadoPagoClient("https://api.mercadopago.com", "", 2*time.Second)

	_, err := client.CreatePreference(context.Background(), &PreferenceRequest{})
	assert.ErrorIs(t, err, ErrAccessTokenMissing)

	_, err = client.GetPayment(context.Background(), "123")
	assert.ErrorIs(t, err, ErrAccessTokenMissing)
}

func TestMercadoPagoClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewMercadoPagoClient(srv.URL, "bad-token", 2*time.Second)

	_, err := client.GetPayment(context.Background(), "123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestPayment_OrderID(t *testing.T) {
	tests := []struct {
		name     string
		payment  Payment
		expected string
	}{
		{
			name:     "gateway-cased metadata key",
			payment:  Payment{Metadata: map[string]interface{}{"order_id": "META1"}, ExternalReference: "EXT1"},
			expected: "META1",
		},
		{
			name:     "original metadata key",
			payment:  Payment{Metadata: map[string]interface{}{"orderId": "META2"}, ExternalReference: "EXT1"},
			expected: "META2",
		},
		{
			name:     "external reference fallback",
			payment:  Payment{ExternalReference: "EXT1"},
			expected: "EXT1",
		},
		{
			name:     "nothing resolves",
			payment:  Payment{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.payment.OrderID())
		})
	}
}
