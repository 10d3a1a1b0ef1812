package ordering

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fioreria/internal/models"
)

type memStore struct {
	mu            sync.Mutex
	orders        []models.Order
	items         []models.OrderItem
	notifications []models.OrderNotification

	failOrder        error
	failItem         error
	failNotification error
	orderHook        func()
}

func (s *memStore) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	if s.orderHook != nil {
		s.orderHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOrder != nil {
		return models.Order{}, s.failOrder
	}
	order.ID = primitive.NewObjectID()
	s.orders = append(s.orders, order)
	return order, nil
}

func (s *memStore) InsertOrderItem(ctx context.Context, item models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failItem != nil {
		return s.failItem
	}
	s.items = append(s.items, item)
	return nil
}

func (s *memStore) InsertNotification(ctx context.Context, notification models.OrderNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNotification != nil {
		return s.failNotification
	}
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *memStore) counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders), len(s.items), len(s.notifications)
}

func testProduct() models.Product {
	return models.Product{
		ID:          primitive.NewObjectID(),
		Name:        "Bouquet Primavera",
		Price:       29.90,
		Description: "Tulipani e ranuncoli di stagione",
		ImagePath:   "/public/bouquet-primavera.jpg",
		IsActive:    true,
	}
}

func testDraft() Draft {
	return Draft{
		CustomerName:    "Maria Rossi",
		CustomerEmail:   "maria.rossi@example.com",
		CustomerPhone:   "+39 333 1234567",
		Quantity:        2,
		SpecialRequests: "Nastro rosso",
		DeliveryDate:    "2026-09-05",
		DeliveryAddress: "Via Garibaldi 42, Milano",
	}
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{9}$`)

func TestCreateOrderPersistsOrderAndItem(t *testing.T) {
	store := &memStore{}
	coordinator := NewCoordinator(store, "Italy")
	product := testProduct()
	draft := testDraft()

	order, err := coordinator.CreateOrder(context.Background(), draft, product, 64.80, models.OrderStatusPending, nil)
	require.NoError(t, err)

	require.Len(t, store.orders, 1)
	require.Len(t, store.items, 1)

	assert.True(t, orderNumberPattern.MatchString(order.OrderNumber), "order number %q", order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 64.80, order.TotalAmount)
	assert.Equal(t, draft.CustomerName, order.CustomerName)
	assert.Equal(t, draft.CustomerEmail, order.CustomerEmail)

	assert.Equal(t, draft.DeliveryAddress, order.ShippingAddress.Street)
	assert.Equal(t, "Italy", order.ShippingAddress.Country)
	assert.Empty(t, order.ShippingAddress.City)
	assert.Empty(t, order.ShippingAddress.PostalCode)
	assert.Equal(t, order.ShippingAddress, order.BillingAddress)

	assert.True(t, strings.Contains(order.Notes, product.Name))
	assert.True(t, strings.Contains(order.Notes, "Quantity: 2"))

	item := store.items[0]
	assert.Equal(t, order.ID, item.OrderID)
	assert.Equal(t, product.ID, item.ProductID)
	assert.Equal(t, product.Name, item.ProductName)
	assert.Equal(t, product.Price, item.Price)
	assert.Equal(t, draft.Quantity, item.Quantity)
}

func TestCreateOrderItemFailureReportsOrphanedOrder(t *testing.T) {
	store := &memStore{failItem: errors.New("write failed")}
	coordinator := NewCoordinator(store, "Italy")

	_, err := coordinator.CreateOrder(context.Background(), testDraft(), testProduct(), 64.80, models.OrderStatusPending, nil)
	require.Error(t, err)

	var orphan *OrphanedOrderError
	require.ErrorAs(t, err, &orphan)
	assert.NotEmpty(t, orphan.OrderID)
	assert.NotEmpty(t, orphan.OrderNumber)

	orders, items, _ := store.counts()
	assert.Equal(t, 1, orders, "the order stays behind for reconciliation")
	assert.Equal(t, 0, items)
}

func TestCreateOrderInsertFailureLeavesNothingBehind(t *testing.T) {
	store := &memStore{failOrder: errors.New("db down")}
	coordinator := NewCoordinator(store, "Italy")

	_, err := coordinator.CreateOrder(context.Background(), testDraft(), testProduct(), 64.80, models.OrderStatusPending, nil)
	require.Error(t, err)

	var orphan *OrphanedOrderError
	assert.False(t, errors.As(err, &orphan), "total failure is not a partial failure")

	orders, items, _ := store.counts()
	assert.Equal(t, 0, orders)
	assert.Equal(t, 0, items)
}

func TestCreateNotificationRecordsFollowUp(t *testing.T) {
	store := &memStore{}
	coordinator := NewCoordinator(store, "Italy")
	orderID := primitive.NewObjectID()

	require.NoError(t, coordinator.CreateNotification(context.Background(), orderID))

	require.Len(t, store.notifications, 1)
	notification := store.notifications[0]
	assert.Equal(t, orderID, notification.OrderID)
	assert.Equal(t, models.NotificationNewOrder, notification.NotificationType)
	assert.False(t, notification.IsRead)
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.Now()
	for i := 0; i < 50; i++ {
		number := GenerateOrderNumber(now)
		require.True(t, orderNumberPattern.MatchString(number), "order number %q", number)
	}
}
