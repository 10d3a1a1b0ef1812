package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPGateway dispatches charges to the payment service. Order creation
// happens before the charge request is sent; once dispatched the call is
// not cancellable, so callers must guard against re-dispatch instead.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chargeRequest struct {
	OrderID  string         `json:"orderId"`
	Items    []CheckoutItem `json:"items"`
	Customer CustomerInfo   `json:"customer"`
}

type chargeResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (g *HTTPGateway) StartCheckout(ctx context.Context, checkout Checkout) error {
	if checkout.OnCreateOrder == nil {
		return errors.New("checkout requires an order-creation callback")
	}

	orderID, err := checkout.OnCreateOrder(ctx)
	if err != nil {
		// No order, no charge.
		return fmt.Errorf("order creation failed: %w", err)
	}

	payload, err := json.Marshal(chargeRequest{
		OrderID:  orderID,
		Items:    checkout.Items,
		Customer: checkout.Customer,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		// Gateway error text is surfaced to the user verbatim.
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return &GatewayError{Err: errors.New(msg)}
		}
		return &GatewayError{Err: fmt.Errorf("payment gateway returned status %d", resp.StatusCode)}
	}

	var result chargeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return &GatewayError{Err: err}
	}
	if result.Error != "" {
		return &GatewayError{Err: errors.New(result.Error)}
	}
	return nil
}
