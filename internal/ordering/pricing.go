package ordering

import "fioreria/internal/shipping"

// PriceQuote breaks a price down for display and for the order total.
type PriceQuote struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

// Quote computes the current price. The delivery fee counts only while the
// stored validation result is valid and within the delivery zone; any other
// state prices as pickup-equivalent (fee 0). Pure function, recomputed on
// every quantity or validation change.
func Quote(unitPrice float64, quantity int, zone *shipping.ZoneResult) PriceQuote {
	if quantity < 1 {
		quantity = 1
	}
	subtotal := unitPrice * float64(quantity)

	fee := 0.0
	if zone != nil && zone.Deliverable() {
		fee = zone.DeliveryFee
	}

	return PriceQuote{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal + fee,
	}
}
