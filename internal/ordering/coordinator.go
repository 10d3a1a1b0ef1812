package ordering

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fioreria/internal/models"
)

// Store is the persistence collaborator. The three inserts are independent
// writes without a shared transaction; the coordinator owns the ordering
// and partial-failure policy between them.
type Store interface {
	InsertOrder(ctx context.Context, order models.Order) (models.Order, error)
	InsertOrderItem(ctx context.Context, item models.OrderItem) error
	InsertNotification(ctx context.Context, notification models.OrderNotification) error
}

// OrphanedOrderError reports the partial-failure state where the order was
// persisted but its line item was not. The order id is kept for manual
// reconciliation; no automatic rollback is attempted.
type OrphanedOrderError struct {
	OrderID     string
	OrderNumber string
	Err         error
}

func (e *OrphanedOrderError) Error() string {
	return fmt.Sprintf("order %s (%s) persisted without line items: %v", e.OrderID, e.OrderNumber, e.Err)
}

func (e *OrphanedOrderError) Unwrap() error { return e.Err }

// Coordinator creates the order aggregate. It is not idempotent: every call
// produces a new order, and callers must guard against duplicate
// submissions themselves.
type Coordinator struct {
	store   Store
	country string
}

func NewCoordinator(store Store, country string) *Coordinator {
	if country == "" {
		country = "Italy"
	}
	return &Coordinator{store: store, country: country}
}

// GenerateOrderNumber builds a display-grade order number from the low
// timestamp digits plus a zero-padded random suffix. Collisions are
// accepted as negligible; the unique index catches the rest.
func GenerateOrderNumber(now time.Time) string {
	timestamp := strconv.FormatInt(now.UnixMilli(), 10)
	if len(timestamp) > 6 {
		timestamp = timestamp[len(timestamp)-6:]
	}
	return fmt.Sprintf("ORD-%s%03d", timestamp, rand.Intn(1000))
}

// CreateOrder persists the order and then its line item. The draft is
// snapshotted: contact fields, the free-text address and the product name
// and price are copied as-is, so later product edits never touch history.
func (co *Coordinator) CreateOrder(ctx context.Context, draft Draft, product models.Product, total float64, status string, userID *primitive.ObjectID) (models.Order, error) {
	address := models.Address{
		Street:  draft.DeliveryAddress,
		Country: co.country,
	}

	order := models.Order{
		OrderNumber:     GenerateOrderNumber(time.Now()),
		UserID:          userID,
		CustomerName:    draft.CustomerName,
		CustomerEmail:   draft.CustomerEmail,
		CustomerPhone:   draft.CustomerPhone,
		TotalAmount:     total,
		Status:          status,
		PaymentStatus:   models.PaymentStatusPending,
		BillingAddress:  address,
		ShippingAddress: address,
		Notes: fmt.Sprintf("Product Order - %s\nQuantity: %d\nSpecial Requests: %s\nDelivery Date: %s",
			product.Name, draft.Quantity, draft.SpecialRequests, draft.DeliveryDate),
		CreatedAt: time.Now(),
	}

	saved, err := co.store.InsertOrder(ctx, order)
	if err != nil {
		return models.Order{}, fmt.Errorf("insert order: %w", err)
	}

	item := models.OrderItem{
		OrderID:     saved.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    draft.Quantity,
		Price:       product.Price,
	}
	if err := co.store.InsertOrderItem(ctx, item); err != nil {
		log.Printf("[ORDER] [ERROR] order %s (%s) left without line items, needs reconciliation: %v",
			saved.ID.Hex(), saved.OrderNumber, err)
		return models.Order{}, &OrphanedOrderError{
			OrderID:     saved.ID.Hex(),
			OrderNumber: saved.OrderNumber,
			Err:         err,
		}
	}

	log.Printf("[ORDER] [INFO] order %s created with status %s", saved.OrderNumber, status)
	return saved, nil
}

// CreateNotification records a staff follow-up marker for a pay-later order.
func (co *Coordinator) CreateNotification(ctx context.Context, orderID primitive.ObjectID) error {
	return co.store.InsertNotification(ctx, models.OrderNotification{
		OrderID:          orderID,
		NotificationType: models.NotificationNewOrder,
		IsRead:           false,
		CreatedAt:        time.Now(),
	})
}
