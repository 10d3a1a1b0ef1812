package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses produced by this service. Later transitions (paid,
// confirmed, cancelled) belong to the fulfillment side and are never
// written here.
const (
	OrderStatusPaymentPending = "payment_pending"
	OrderStatusPending        = "pending"

	PaymentStatusPending = "pending"
)

// NotificationNewOrder flags staff that a pay-later order needs manual
// follow-up.
const NotificationNewOrder = "new_order"

// Address is a billing/shipping snapshot. The order form collects a single
// free-text address line, so city and postal code stay blank and only the
// country is defaulted.
type Address struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// Order is the persisted order document. It is created exactly once per
// accepted submission and never mutated afterwards by this service.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderNumber     string              `bson:"orderNumber" json:"orderNumber"`
	UserID          *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	CustomerName    string              `bson:"customerName" json:"customerName"`
	CustomerEmail   string              `bson:"customerEmail" json:"customerEmail"`
	CustomerPhone   string              `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	TotalAmount     float64             `bson:"totalAmount" json:"totalAmount"`
	Status          string              `bson:"status" json:"status"`
	PaymentStatus   string              `bson:"paymentStatus" json:"paymentStatus"`
	BillingAddress  Address             `bson:"billingAddress" json:"billingAddress"`
	ShippingAddress Address             `bson:"shippingAddress" json:"shippingAddress"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
}

// OrderItem is a line item stored as its own document, with the product
// name and unit price denormalized at submission time.
type OrderItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID     primitive.ObjectID `bson:"orderId" json:"orderId"`
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName" json:"productName"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Price       float64            `bson:"price" json:"price"`
}

// OrderNotification alerts staff about an order requiring attention.
type OrderNotification struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID          primitive.ObjectID `bson:"orderId" json:"orderId"`
	NotificationType string             `bson:"notificationType" json:"notificationType"`
	IsRead           bool               `bson:"isRead" json:"isRead"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}
