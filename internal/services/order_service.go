package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"checkout-service/internal/domain"
	"checkout-service/internal/infra"
	rabbit "checkout-service/internal/infra/rabbitmq"
	"checkout-service/internal/logging"
	"checkout-service/internal/repository"
)

const (
	statusCachePrefix = "order:status:"
	statusCacheTTL    = 10 * time.Second

	defaultSource = "SITE"
	currencyID    = "BRL"
)

type OrderService struct {
	repo           repository.OrderRepository
	payClient      infra.PaymentClientInterface
	publisher      rabbit.PublisherInterface
	redisClient    *redis.Client
	backendBaseURL string
}

func NewOrderService(r repository.OrderRepository, p infra.PaymentClientInterface, pub rabbit.PublisherInterface, backendBaseURL string) *OrderService {
	return &OrderService{
		repo:           r,
		payClient:      p,
		publisher:      pub,
		backendBaseURL: backendBaseURL,
	}
}

func (s *OrderService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

type OrderInput struct {
	OrderID      string
	Customer     domain.Customer
	Items        []domain.Item
	Total        float64
	DeliveryType string
	PaymentType  string
}

type PreferenceInput struct {
	OrderInput
	SuccessURL  string
	FailureURL  string
	PendingURL  string
	RequestHost string
}

type PreferenceResult struct {
	OrderID          string
	InitPoint        string
	PreferenceID     string
	SandboxInitPoint string
}

type StatusResult struct {
	OrderID     string        `json:"orderId"`
	IsPaid      bool          `json:"isPaid"`
	Status      string        `json:"status"`
	PaymentType string        `json:"paymentType,omitempty"`
	Order       *domain.Order `json:"order"`
}

// SubmitOrder persists a counter-payment order (pay on pickup/delivery) in
// the awaiting-preparation state.
func (s *OrderService) SubmitOrder(ctx context.Context, in OrderInput) (*domain.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, ErrStoreUnavailable
	}

	paymentType := in.PaymentType
	if paymentType == "" {
		paymentType = domain.PaymentTypePayLater
	}

	order := &domain.Order{
		OrderID:      in.OrderID,
		Customer:     in.Customer,
		Items:        in.Items,
		Total:        in.Total,
		DeliveryType: domain.NormalizeDeliveryType(in.DeliveryType),
		PaymentType:  paymentType,
		Status:       domain.StatusAwaitingPrep,
		Source:       defaultSource,
	}

	saved, err := s.repo.CreateOrGet(ctx, order)
	if err != nil {
		return nil, err
	}

	s.invalidateStatusCache(ctx, saved.OrderID)
	go s.publishOrderCreated(context.Background(), saved)

	return saved, nil
}

// CreatePreference creates a gateway checkout preference for an order and
// persists the order in the pending-payment state with the preference ref
// attached. The returned init point is where the payer gets redirected.
func (s *OrderService) CreatePreference(ctx context.Context, in PreferenceInput) (*PreferenceResult, error) {
	if err := validateOrderInput(in.OrderInput); err != nil {
		return nil, err
	}
	if in.SuccessURL == "" || in.FailureURL == "" {
		return nil, invalidf("successUrl e failureUrl são obrigatórios")
	}
	if s.repo == nil {
		return nil, ErrStoreUnavailable
	}

	orderID := in.OrderID
	if orderID == "" {
		orderID = s.repo.NewID()
	}

	prefReq := &infra.PreferenceRequest{
		// The gateway gets one aggregated line carrying the order total;
		// the full item breakdown lives on the stored order.
		Items: []infra.PreferenceItem{{
			ID:         orderID,
			Title:      fmt.Sprintf("Pedido %s", orderID),
			Quantity:   1,
			CurrencyID: currencyID,
			UnitPrice:  in.Total,
		}},
		ExternalReference: orderID,
		Metadata:          map[string]interface{}{"orderId": orderID},
		BackURLs: infra.BackURLs{
			Success: withOutcome(in.SuccessURL, orderID, "success"),
			Failure: withOutcome(in.FailureURL, orderID, "failure"),
			Pending: withOutcome(in.PendingURL, orderID, "pending"),
		},
		AutoReturn:      "approved",
		NotificationURL: s.notificationURL(in.RequestHost),
		Payer:           buildPayer(in.Customer),
	}

	pref, err := s.payClient.CreatePreference(ctx, prefReq)
	if err != nil {
		if errors.Is(err, infra.ErrAccessTokenMissing) {
			return nil, err
		}
		return nil, &GatewayError{Op: "create preference", Err: err}
	}
	if pref.InitPoint == "" {
		return nil, &GatewayError{Op: "create preference", Err: errors.New("response carries no init_point")}
	}

	order := &domain.Order{
		OrderID:      orderID,
		Customer:     in.Customer,
		Items:        in.Items,
		Total:        in.Total,
		DeliveryType: domain.NormalizeDeliveryType(in.DeliveryType),
		PaymentType:  domain.PaymentTypePayNowMP,
		Status:       domain.StatusPendingPayment,
		Source:       defaultSource,
		MP: &domain.PreferenceRef{
			PreferenceID: pref.ID,
			InitPoint:    pref.InitPoint,
		},
	}

	saved, err := s.repo.CreateOrGet(ctx, order)
	if err != nil {
		return nil, err
	}

	s.invalidateStatusCache(ctx, saved.OrderID)
	go s.publishOrderCreated(context.Background(), saved)

	return &PreferenceResult{
		OrderID:          saved.OrderID,
		InitPoint:        pref.InitPoint,
		PreferenceID:     pref.ID,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

// ProcessPaymentWebhook resolves a notified payment against the gateway and
// applies the matching order transition. A nil return with no store write is
// the normal outcome for payments that carry no order reference or whose
// status maps to no transition.
func (s *OrderService) ProcessPaymentWebhook(ctx context.Context, paymentID string) error {
	payment, err := s.payClient.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, infra.ErrAccessTokenMissing) {
			return err
		}
		return &GatewayError{Op: "get payment", Err: err}
	}

	orderID := payment.OrderID()

	logging.LogInfo("payment notification received", logrus.Fields{
		"paymentId": paymentID,
		"status":    payment.Status,
		"orderId":   orderID,
		"method":    payment.PaymentTypeID,
		"value":     payment.TransactionAmount,
	})

	if orderID == "" {
		logging.LogWarn("payment carries no order reference, skipping", logrus.Fields{
			"paymentId": paymentID,
		})
		return nil
	}

	next, ok := domain.StatusForGateway(payment.Status)
	if !ok {
		logging.LogInfo("payment status triggers no transition, ignoring", logrus.Fields{
			"paymentId": paymentID,
			"status":    payment.Status,
		})
		return nil
	}

	if s.repo == nil {
		return ErrStoreUnavailable
	}

	already, err := s.repo.MarkPaymentProcessed(ctx, paymentID)
	if err != nil {
		// Dedupe is best effort; the status write itself is idempotent for
		// identical inputs.
		logging.LogError("payment dedupe check failed", err, logrus.Fields{"paymentId": paymentID})
	} else if already {
		logging.LogInfo("duplicate payment delivery, skipping", logrus.Fields{
			"paymentId": paymentID,
			"orderId":   orderID,
		})
		return nil
	}

	info := &domain.PaymentInfo{
		PaymentID: paymentID,
		Provider:  domain.ProviderMercadoPago,
		Status:    payment.Status,
		Method:    payment.PaymentTypeID,
		Value:     payment.TransactionAmount,
	}

	if err := s.UpdateOrderStatus(ctx, orderID, next, info); err != nil {
		if unmarkErr := s.repo.UnmarkPaymentProcessed(ctx, paymentID); unmarkErr != nil {
			logging.LogError("failed to roll back payment dedupe mark", unmarkErr, logrus.Fields{
				"paymentId": paymentID,
			})
		}
		return err
	}

	go s.publishPaymentEvent(context.Background(), orderID, next, info)
	return nil
}

// UpdateOrderStatus merge-writes a status transition. An empty orderID is a
// silent no-op, matching the store contract.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, payment *domain.PaymentInfo) error {
	if orderID == "" {
		logging.LogDebug("status update with empty order id ignored", nil)
		return nil
	}
	if s.repo == nil {
		return ErrStoreUnavailable
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status, payment); err != nil {
		return err
	}
	s.invalidateStatusCache(ctx, orderID)
	return nil
}

// GetOrderStatus reads one order and derives the paid flag. Results are
// cached briefly since the storefront polls this while the payer is on the
// gateway page.
func (s *OrderService) GetOrderStatus(ctx context.Context, orderID string) (*StatusResult, error) {
	if orderID == "" {
		return nil, invalidf("orderId é obrigatório")
	}
	if s.repo == nil {
		return nil, ErrStoreUnavailable
	}

	cacheKey := statusCachePrefix + orderID
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var result StatusResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return &result, nil
			}
		}
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	paymentStatus := ""
	if order.Payment != nil {
		paymentStatus = order.Payment.Status
	}

	result := &StatusResult{
		OrderID:     order.OrderID,
		IsPaid:      domain.IsPaidStatus(string(order.Status), paymentStatus),
		Status:      string(order.Status),
		PaymentType: order.PaymentType,
		Order:       order,
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(result); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, statusCacheTTL)
		}
	}
	return result, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if s.repo == nil {
		return nil, ErrStoreUnavailable
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if s.repo == nil {
		return nil, ErrStoreUnavailable
	}
	return s.repo.List(ctx, limit)
}

func validateOrderInput(in OrderInput) error {
	if len(in.Items) == 0 {
		return invalidf("itens do pedido são obrigatórios")
	}
	if in.Customer.Name == "" || in.Customer.Phone == "" {
		return invalidf("dados do cliente são obrigatórios (customer.name, customer.phone)")
	}
	if in.Total <= 0 {
		return invalidf("total do pedido inválido")
	}
	return nil
}

func (s *OrderService) notificationURL(requestHost string) string {
	base := strings.TrimRight(s.backendBaseURL, "/")
	if base == "" && requestHost != "" {
		base = "https://" + requestHost
	}
	if base == "" {
		return ""
	}
	return base + "/webhook"
}

// withOutcome tags a redirect URL with the order and outcome so the
// storefront can resume the right order when the payer comes back.
func withOutcome(rawURL, orderID, outcome string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("orderId", orderID)
	q.Set("status", outcome)
	u.RawQuery = q.Encode()
	return u.String()
}

// buildPayer shapes the gateway payer object. The gateway wants the phone as
// a number, so anything non-numeric is stripped and an empty result omits
// the phone entirely.
func buildPayer(c domain.Customer) *infra.Payer {
	payer := &infra.Payer{
		Name: c.Name,
		Address: infra.Address{
			StreetName: c.Address,
			ZipCode:    c.CEP,
		},
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, c.Phone)
	if digits != "" {
		if number, err := strconv.ParseInt(digits, 10, 64); err == nil {
			payer.Phone = &infra.Phone{Number: number}
		}
	}
	return payer
}

func (s *OrderService) invalidateStatusCache(ctx context.Context, orderID string) {
	if s.redisClient == nil || orderID == "" {
		return
	}
	s.redisClient.Del(ctx, statusCachePrefix+orderID)
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}

	evt := domain.OrderCreatedEvent{
		OrderID:      order.OrderID,
		Total:        order.Total,
		DeliveryType: order.DeliveryType,
		PaymentType:  order.PaymentType,
		CreatedAt:    order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, domain.EventOrderCreated, evt); err != nil {
		logging.LogError("failed to publish order.created", err, logrus.Fields{"orderId": order.OrderID})
	}
}

func (s *OrderService) publishPaymentEvent(ctx context.Context, orderID string, status domain.OrderStatus, info *domain.PaymentInfo) {
	if s.publisher == nil {
		return
	}

	pattern := domain.EventOrderPaid
	if status == domain.StatusPaymentFailed {
		pattern = domain.EventOrderPaymentFailed
	}

	evt := domain.OrderPaymentEvent{
		OrderID:   orderID,
		PaymentID: info.PaymentID,
		Status:    status,
		Method:    info.Method,
		Value:     info.Value,
	}
	if err := s.publisher.Publish(ctx, pattern, evt); err != nil {
		logging.LogError("failed to publish payment event", err, logrus.Fields{
			"orderId": orderID,
			"pattern": pattern,
		})
	}
}
