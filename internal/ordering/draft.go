package ordering

import "strings"

// Draft is the transient order form owned by a single ordering session.
// It is a value type: transitions return a new draft instead of mutating
// shared state.
type Draft struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	Quantity        int    `json:"quantity"`
	SpecialRequests string `json:"specialRequests"`
	DeliveryDate    string `json:"deliveryDate"`
	DeliveryAddress string `json:"deliveryAddress"`
}

func NewDraft() Draft {
	return Draft{Quantity: 1}
}

// DraftUpdate carries partial form input; nil fields are left untouched.
type DraftUpdate struct {
	CustomerName    *string
	CustomerEmail   *string
	CustomerPhone   *string
	Quantity        *int
	SpecialRequests *string
	DeliveryDate    *string
	DeliveryAddress *string
}

// Apply returns the draft with the update folded in. Quantity never drops
// below 1.
func (d Draft) Apply(update DraftUpdate) Draft {
	if update.CustomerName != nil {
		d.CustomerName = *update.CustomerName
	}
	if update.CustomerEmail != nil {
		d.CustomerEmail = *update.CustomerEmail
	}
	if update.CustomerPhone != nil {
		d.CustomerPhone = *update.CustomerPhone
	}
	if update.Quantity != nil {
		d.Quantity = *update.Quantity
		if d.Quantity < 1 {
			d.Quantity = 1
		}
	}
	if update.SpecialRequests != nil {
		d.SpecialRequests = *update.SpecialRequests
	}
	if update.DeliveryDate != nil {
		d.DeliveryDate = *update.DeliveryDate
	}
	if update.DeliveryAddress != nil {
		d.DeliveryAddress = *update.DeliveryAddress
	}
	return d
}

// MissingFields lists the required fields still blank, for user guidance.
func (d Draft) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(d.CustomerName) == "" {
		missing = append(missing, "customerName")
	}
	if strings.TrimSpace(d.CustomerEmail) == "" {
		missing = append(missing, "customerEmail")
	}
	if strings.TrimSpace(d.DeliveryAddress) == "" {
		missing = append(missing, "deliveryAddress")
	}
	return missing
}
