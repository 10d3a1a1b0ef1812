package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ZoneResult mirrors the zone service response. DeliveryFee is meaningful
// only when the address is valid and within the delivery zone.
type ZoneResult struct {
	IsValid       bool    `json:"isValid"`
	IsWithinZone  bool    `json:"isWithinZone"`
	Error         string  `json:"error,omitempty"`
	EstimatedTime string  `json:"estimatedTime,omitempty"`
	DeliveryFee   float64 `json:"deliveryFee,omitempty"`
}

// Deliverable reports whether the address can actually be served.
func (r ZoneResult) Deliverable() bool {
	return r.IsValid && r.IsWithinZone
}

// Client validates a delivery address against the zone service. The order
// value is passed along because the service may waive the fee above a
// free-delivery threshold.
type Client interface {
	ValidateDeliveryAddress(ctx context.Context, address string, orderValue float64) (ZoneResult, error)
}

// HTTPClient talks to the external zone service. The service may be slow or
// down; no retry is attempted here.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) ValidateDeliveryAddress(ctx context.Context, address string, orderValue float64) (ZoneResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"address":    address,
		"orderValue": orderValue,
	})
	if err != nil {
		return ZoneResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate", bytes.NewReader(payload))
	if err != nil {
		return ZoneResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ZoneResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ZoneResult{}, fmt.Errorf("zone service returned status %d", resp.StatusCode)
	}

	var result ZoneResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ZoneResult{}, err
	}
	return result, nil
}
