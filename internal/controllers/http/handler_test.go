package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
	"checkout-service/internal/mocks"
	"checkout-service/internal/services"
)

func setupRouter(repo *mocks.MockOrderRepository, client *mocks.MockPaymentClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := services.NewOrderService(repo, client, nil, "https://backend.example")
	r := gin.New()
	NewHandler(s).RegisterRoutes(r)
	return r
}

func doRequest(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestWebhook_NoPaymentID(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	client := new(mocks.MockPaymentClient)
	r := setupRouter(repo, client)

	w := doRequest(r, http.MethodPost, "/webhook", `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	client.AssertNotCalled(t, "GetPayment", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_BodyPayload(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	client := new(mocks.MockPaymentClient)
	client.On("GetPayment", mock.Anything, "123").
		Return(&infra.Payment{ID: "123", Status: "in_process", ExternalReference: "ORD1"}, nil)
	r := setupRouter(repo, client)

	w := doRequest(r, http.MethodPost, "/webhook", `{"type":"payment","data":{"id":"123"}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	client.AssertExpectations(t)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhook_NumericPaymentID(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	client := new(mocks.MockPaymentClient)
	client.On("GetPayment", mock.Anything, "456").
		Return(&infra.Payment{ID: "456", Status: "in_process"}, nil)
	r := setupRouter(repo, client)

	w := doRequest(r, http.MethodPost, "/webhook", `{"type":"payment","data":{"id":456}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	client.AssertExpectations(t)
}

func TestWebhook_LegacyQueryParams(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	client := new(mocks.MockPaymentClient)
	client.On("GetPayment", mock.Anything, "789").
		Return(&infra.Payment{ID: "789", Status: "in_process"}, nil)
	r := setupRouter(repo, client)

	w := doRequest(r, http.MethodGet, "/webhook?topic=payment&id=789", "")

	assert.Equal(t, http.StatusOK, w.Code)
	client.AssertExpectations(t)
}

func TestWebhook_GatewayFailure(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	client := new(mocks.MockPaymentClient)
	client.On("GetPayment", mock.Anything, "123").
		Return(nil, assert.AnError)
	r := setupRouter(repo, client)

	w := doRequest(r, http.MethodPost, "/webhook", `{"type":"payment","data":{"id":"123"}}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatus_MissingOrderID(t *testing.T) {
	r := setupRouter(new(mocks.MockOrderRepository), new(mocks.MockPaymentClient))

	w := doRequest(r, http.MethodGet, "/status", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatus_NotFound(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, nil)
	r := setupRouter(repo, new(mocks.MockPaymentClient))

	w := doRequest(r, http.MethodGet, "/status?orderId=missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatus_Paid(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("FindByID", mock.Anything, "ORD1").Return(&domain.Order{
		OrderID:     "ORD1",
		Status:      domain.StatusPaid,
		PaymentType: domain.PaymentTypePayNowMP,
	}, nil)
	r := setupRouter(repo, new(mocks.MockPaymentClient))

	w := doRequest(r, http.MethodGet, "/status?orderId=ORD1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["isPaid"])
	assert.Equal(t, "PAGO", body["status"])
}

func TestCreatePreference_MalformedJSON(t *testing.T) {
	r := setupRouter(new(mocks.MockOrderRepository), new(mocks.MockPaymentClient))

	w := doRequest(r, http.MethodPost, "/preference", `{"items":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePreference_ValidationError(t *testing.T) {
	r := setupRouter(new(mocks.MockOrderRepository), new(mocks.MockPaymentClient))

	w := doRequest(r, http.MethodPost, "/preference", `{"items":[],"total":30}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["error"])
}

func TestCreatePreference_Success(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	client := new(mocks.MockPaymentClient)

	repo.On("NewID").Return("ORD1")
	client.On("CreatePreference", mock.Anything, mock.Anything).
		Return(&infra.Preference{ID: "pref-1", InitPoint: "https://mp.example/init"}, nil)
	repo.On("CreateOrGet", mock.Anything, mock.Anything).
		Return(&domain.Order{OrderID: "ORD1", Status: domain.StatusPendingPayment}, nil)

	r := setupRouter(repo, client)

	payload := `{
		"customer": {"name": "Ana", "phone": "11999999999"},
		"items": [{"id": "x1", "name": "Burger", "quantity": 2, "unit_price": 15}],
		"total": 30,
		"successUrl": "https://s",
		"failureUrl": "https://f"
	}`
	w := doRequest(r, http.MethodPost, "/preference", payload)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "ORD1", body["orderId"])
	assert.Equal(t, "https://mp.example/init", body["init_point"])
	assert.Equal(t, "pref-1", body["preference_id"])
}

func TestCreatePreference_TokenMissing(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	client := new(mocks.MockPaymentClient)
	repo.On("NewID").Return("ORD1")
	client.On("CreatePreference", mock.Anything, mock.Anything).
		Return(nil, infra.ErrAccessTokenMissing)

	r := setupRouter(repo, client)

	payload := `{
		"customer": {"name": "Ana", "phone": "11999999999"},
		"items": [{"id": "x1", "name": "Burger", "quantity": 2, "unit_price": 15}],
		"total": 30,
		"successUrl": "https://s",
		"failureUrl": "https://f"
	}`
	w := doRequest(r, http.MethodPost, "/preference", payload)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "MP_ACCESS_TOKEN")
}

func TestSubmitOrder_Success(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("CreateOrGet", mock.Anything, mock.Anything).
		Return(&domain.Order{
			OrderID:     "ORD1",
			Status:      domain.StatusAwaitingPrep,
			PaymentType: domain.PaymentTypePayLater,
			Total:       30,
		}, nil)

	r := setupRouter(repo, new(mocks.MockPaymentClient))

	payload := `{
		"customer": {"name": "Ana", "phone": "11999999999"},
		"items": [{"id": "x1", "name": "Burger", "quantity": 2, "unit_price": 15}],
		"total": 30
	}`
	w := doRequest(r, http.MethodPost, "/orders", payload)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	order := body["order"].(map[string]interface{})
	assert.Equal(t, "AGUARDANDO_PREPARO", order["status"])
}

func TestGetOrders_List(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("List", mock.Anything, 0).Return([]domain.Order{
		{OrderID: "ORD1", Status: domain.StatusPaid},
		{OrderID: "ORD2", Status: domain.StatusAwaitingPrep},
	}, nil)

	r := setupRouter(repo, new(mocks.MockPaymentClient))

	w := doRequest(r, http.MethodGet, "/orders", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Len(t, body["orders"], 2)
}

func TestGetOrders_ByID(t *testing.T) {
	repo := new(mocks.MockOrderRepository)
	repo.On("FindByID", mock.Anything, "ORD1").
		Return(&domain.Order{OrderID: "ORD1", Status: domain.StatusPaid}, nil)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	r := setupRouter(repo, new(mocks.MockPaymentClient))

	w := doRequest(r, http.MethodGet, "/orders?id=ORD1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/orders?id=missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrders_StoreUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := services.NewOrderService(nil, new(mocks.MockPaymentClient), nil, "")
	r := gin.New()
	NewHandler(s).RegisterRoutes(r)

	w := doRequest(r, http.MethodGet, "/orders", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
