package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
	"checkout-service/internal/logging"
	"checkout-service/internal/services"
)

type Handler struct {
	service *services.OrderService
}

func NewHandler(s *services.OrderService) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/preference", h.CreatePreference)
	r.POST("/webhook", h.Webhook)
	r.GET("/webhook", h.Webhook)
	r.GET("/orders", h.GetOrders)
	r.POST("/orders", h.SubmitOrder)
	r.GET("/status", h.GetStatus)
}

func (h *Handler) CreatePreference(c *gin.Context) {
	var req CreatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreatePreference(c.Request.Context(), services.PreferenceInput{
		OrderInput: services.OrderInput{
			OrderID:      req.OrderID,
			Customer:     req.Customer.toDomain(),
			Items:        toDomainItems(req.Items),
			Total:        req.Total,
			DeliveryType: req.DeliveryType,
		},
		SuccessURL:  req.SuccessURL,
		FailureURL:  req.FailureURL,
		PendingURL:  req.PendingURL,
		RequestHost: c.Request.Host,
	})
	if err != nil {
		respondError(c, "erro ao criar preferência de pagamento", err)
		return
	}

	c.JSON(http.StatusOK, CreatePreferenceResponse{
		OK:               true,
		OrderID:          result.OrderID,
		InitPoint:        result.InitPoint,
		PreferenceID:     result.PreferenceID,
		SandboxInitPoint: result.SandboxInitPoint,
	})
}

// Webhook accepts gateway payment notifications in both known shapes: the
// JSON body {type:"payment",data:{id}} and the legacy topic/id query pair.
// Deliveries that carry no resolvable payment id are answered 200 so the
// gateway stops redelivering them.
func (h *Handler) Webhook(c *gin.Context) {
	paymentID := ""

	if c.Request.Method == http.MethodPost {
		var body WebhookBody
		if err := c.ShouldBindJSON(&body); err == nil {
			if body.Type == "payment" && body.Data.ID.String() != "" {
				paymentID = body.Data.ID.String()
			}
		}
	}

	if paymentID == "" {
		topic := c.Query("topic")
		if topic == "" {
			topic = c.Query("type")
		}
		if topic == "payment" {
			paymentID = c.Query("id")
		}
	}

	if paymentID == "" {
		logging.LogInfo("webhook without payment id", logrus.Fields{
			"method": c.Request.Method,
			"query":  c.Request.URL.RawQuery,
		})
		c.String(http.StatusOK, "ok")
		return
	}

	if err := h.service.ProcessPaymentWebhook(c.Request.Context(), paymentID); err != nil {
		logging.LogError("webhook processing failed", err, logrus.Fields{"paymentId": paymentID})
		// 5xx tells the gateway to redeliver.
		c.String(http.StatusInternalServerError, "erro interno no webhook")
		return
	}

	c.String(http.StatusOK, "webhook processado")
}

func (h *Handler) SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.SubmitOrder(c.Request.Context(), services.OrderInput{
		OrderID:      req.OrderID,
		Customer:     req.Customer.toDomain(),
		Items:        toDomainItems(req.Items),
		Total:        req.Total,
		DeliveryType: req.DeliveryType,
		PaymentType:  req.PaymentType,
	})
	if err != nil {
		respondError(c, "erro interno em /orders", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "order": order})
}

func (h *Handler) GetOrders(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		order, err := h.service.GetOrder(ctx, id)
		if err != nil {
			respondError(c, "erro interno em /orders", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "order": order})
		return
	}

	orders, err := h.service.ListOrders(ctx, 0)
	if err != nil {
		respondError(c, "erro interno em /orders", err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "orders": orders})
}

func (h *Handler) GetStatus(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "parâmetro orderId obrigatório"})
		return
	}

	result, err := h.service.GetOrderStatus(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, "erro interno ao consultar status do pedido", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"orderId":     result.OrderID,
		"isPaid":      result.IsPaid,
		"status":      result.Status,
		"paymentType": result.PaymentType,
		"order":       result.Order,
	})
}

func respondError(c *gin.Context, message string, err error) {
	var vErr *services.ValidationError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "pedido não encontrado"})
	case errors.Is(err, infra.ErrAccessTokenMissing):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "MP_ACCESS_TOKEN não configurado no backend"})
	case errors.Is(err, services.ErrStoreUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "firestore não inicializado, verifique as variáveis de ambiente"})
	default:
		logging.LogError(message, err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "detail": err.Error()})
	}
}
