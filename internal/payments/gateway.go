package payments

import "context"

// CheckoutItem is a line item handed to the payment gateway.
type CheckoutItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Image       string  `json:"image,omitempty"`
	Description string  `json:"description,omitempty"`
}

// CustomerInfo is the contact block attached to a charge.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Checkout describes one payment attempt. OnCreateOrder must persist the
// order and return its id; the gateway calls it before charging so the
// payment is always associated with an existing order. If it fails, no
// charge may be attempted.
type Checkout struct {
	Items         []CheckoutItem
	Customer      CustomerInfo
	OnCreateOrder func(ctx context.Context) (orderID string, err error)
}

// Gateway is the external payment collaborator. Card handling lives
// entirely on its side; this service only owns the contract around it.
type Gateway interface {
	StartCheckout(ctx context.Context, checkout Checkout) error
}

// GatewayError is a charge-side failure reported by the payment
// collaborator, as opposed to a failure creating the order beforehand.
// Its message reaches the user verbatim.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string { return e.Err.Error() }

func (e *GatewayError) Unwrap() error { return e.Err }
