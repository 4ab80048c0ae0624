package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"
)

const (
	ordersCollection   = "orders"
	paymentsCollection = "processed_payments"

	defaultListLimit = 50
)

type orderRepo struct {
	client *firestore.Client
}

func NewOrderRepository(client *firestore.Client) repository.OrderRepository {
	return &orderRepo{client: client}
}

func (r *orderRepo) CreateOrGet(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	col := r.client.Collection(ordersCollection)

	var ref *firestore.DocumentRef
	if order.OrderID != "" {
		ref = col.Doc(order.OrderID)
	} else {
		ref = col.NewDoc()
	}
	order.OrderID = ref.ID

	if order.Status == "" {
		order.Status = domain.StatusAwaitingPayment
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		payload := orderPayload(order)
		if snap != nil && snap.Exists() {
			// createdAt is set once; later merges must not regress it.
			if _, err := snap.DataAt("createdAt"); err == nil {
				delete(payload, "createdAt")
			}
		}
		return tx.Set(ref, payload, firestore.MergeAll)
	})
	if err != nil {
		return nil, fmt.Errorf("create order %s: %w", order.OrderID, err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read back order %s: %w", order.OrderID, err)
	}

	var saved domain.Order
	if err := snap.DataTo(&saved); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", order.OrderID, err)
	}
	saved.OrderID = ref.ID
	return &saved, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID string, orderStatus domain.OrderStatus, payment *domain.PaymentInfo) error {
	if orderID == "" {
		// Historical quirk kept on purpose: callers pass through webhook
		// payloads that may not resolve to an order.
		return nil
	}

	update := map[string]interface{}{
		"status":    string(orderStatus),
		"updatedAt": firestore.ServerTimestamp,
	}
	if payment != nil {
		update["payment"] = payment
	}

	_, err := r.client.Collection(ordersCollection).Doc(orderID).Set(ctx, update, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("update order %s status: %w", orderID, err)
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	snap, err := r.client.Collection(ordersCollection).Doc(orderID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}

	var o domain.Order
	if err := snap.DataTo(&o); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	o.OrderID = snap.Ref.ID
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	iter := r.client.Collection(ordersCollection).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var out []domain.Order
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}

		var o domain.Order
		if err := snap.DataTo(&o); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
		}
		o.OrderID = snap.Ref.ID
		out = append(out, o)
	}
	return out, nil
}

func (r *orderRepo) NewID() string {
	return r.client.Collection(ordersCollection).NewDoc().ID
}

func (r *orderRepo) MarkPaymentProcessed(ctx context.Context, paymentID string) (bool, error) {
	ref := r.client.Collection(paymentsCollection).Doc(paymentID)
	_, err := ref.Create(ctx, map[string]interface{}{
		"processedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return true, nil
		}
		return false, fmt.Errorf("mark payment %s processed: %w", paymentID, err)
	}
	return false, nil
}

func (r *orderRepo) UnmarkPaymentProcessed(ctx context.Context, paymentID string) error {
	_, err := r.client.Collection(paymentsCollection).Doc(paymentID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("unmark payment %s: %w", paymentID, err)
	}
	return nil
}

// orderPayload builds the merge-write document, including only the fields
// the caller supplied so an existing document keeps everything else.
func orderPayload(o *domain.Order) map[string]interface{} {
	p := map[string]interface{}{
		"orderId":   o.OrderID,
		"status":    string(o.Status),
		"createdAt": firestore.ServerTimestamp,
		"updatedAt": firestore.ServerTimestamp,
	}
	if o.Customer != (domain.Customer{}) {
		p["customer"] = o.Customer
	}
	if len(o.Items) > 0 {
		p["items"] = o.Items
	}
	if o.Total > 0 {
		p["total"] = o.Total
	}
	if o.DeliveryType != "" {
		p["deliveryType"] = string(o.DeliveryType)
	}
	if o.PaymentType != "" {
		p["paymentType"] = o.PaymentType
	}
	if o.Source != "" {
		p["source"] = o.Source
	}
	if o.Payment != nil {
		p["payment"] = o.Payment
	}
	if o.MP != nil {
		p["mp"] = o.MP
	}
	if !o.CreatedAt.IsZero() {
		p["createdAt"] = o.CreatedAt
	}
	return p
}
