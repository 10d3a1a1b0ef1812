package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fioreria/internal/models"
	"fioreria/internal/notify"
	"fioreria/internal/payments"
	"fioreria/internal/shipping"
)

// ErrSubmissionInProgress is returned while a previous submission is still
// outstanding. The caller disables its trigger rather than retrying.
var ErrSubmissionInProgress = errors.New("submission already in progress")

// GateError explains why neither payment branch is reachable yet: required
// fields are missing, or the delivery address is not validated in-zone.
type GateError struct {
	MissingFields []string
	AddressReason string
}

func (e *GateError) Error() string {
	if len(e.MissingFields) > 0 {
		return "missing required fields: " + strings.Join(e.MissingFields, ", ")
	}
	return e.AddressReason
}

// Session owns one customer's ordering flow for one product: the draft, the
// address validator, and the two payment branches. It is the single writer
// of the draft; the validator is the single writer of the zone result.
type Session struct {
	product     models.Product
	coordinator *Coordinator
	gateway     payments.Gateway
	notifier    notify.Notifier
	validator   *shipping.Validator

	mu         sync.Mutex
	draft      Draft
	submitting bool
}

func NewSession(product models.Product, coordinator *Coordinator, gateway payments.Gateway, notifier notify.Notifier, validator *shipping.Validator) *Session {
	return &Session{
		product:     product,
		coordinator: coordinator,
		gateway:     gateway,
		notifier:    notifier,
		validator:   validator,
		draft:       NewDraft(),
	}
}

func (s *Session) Product() models.Product {
	return s.product
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Update folds form input into the draft. A changed delivery address feeds
// the debounced validator, which clears the stale verdict immediately and
// schedules a fresh validation against the pre-fee subtotal.
func (s *Session) Update(update DraftUpdate) Draft {
	s.mu.Lock()
	previous := s.draft
	s.draft = s.draft.Apply(update)
	draft := s.draft
	s.mu.Unlock()

	if update.DeliveryAddress != nil && draft.DeliveryAddress != previous.DeliveryAddress {
		s.validator.Input(draft.DeliveryAddress, s.product.Price*float64(draft.Quantity))
	}
	return draft
}

// ValidateAddress is the manual validation trigger. Unlike the automatic
// debounced path, its outcome is surfaced to the user either way.
func (s *Session) ValidateAddress(ctx context.Context) (shipping.ZoneResult, bool) {
	s.mu.Lock()
	address := s.draft.DeliveryAddress
	quantity := s.draft.Quantity
	s.mu.Unlock()

	if strings.TrimSpace(address) == "" {
		s.notifier.Error("Indirizzo Richiesto", "Inserisci un indirizzo di consegna per continuare.")
		return shipping.ZoneResult{}, false
	}

	result, err := s.validator.ValidateNow(ctx, address, s.product.Price*float64(quantity))
	if err != nil {
		s.notifier.Error("Errore Validazione", "Impossibile validare l'indirizzo. Riprova.")
		return result, false
	}
	if !result.Deliverable() {
		message := result.Error
		if message == "" {
			message = "Non possiamo consegnare a questo indirizzo."
		}
		s.notifier.Error("Consegna Non Disponibile", message)
		return result, false
	}

	s.notifier.Success("Indirizzo Validato", "Consegna disponibile - "+result.EstimatedTime)
	return result, true
}

// Quote prices the current draft against the current validation result.
func (s *Session) Quote() PriceQuote {
	s.mu.Lock()
	quantity := s.draft.Quantity
	s.mu.Unlock()

	var zone *shipping.ZoneResult
	if result, ok := s.validator.Result(); ok {
		zone = &result
	}
	return Quote(s.product.Price, quantity, zone)
}

// Gate reports whether a payment branch is reachable. A nil return means
// the precondition gate holds.
func (s *Session) Gate() error {
	_, _, err := s.gate()
	return err
}

func (s *Session) gate() (Draft, shipping.ZoneResult, error) {
	s.mu.Lock()
	draft := s.draft
	s.mu.Unlock()

	if missing := draft.MissingFields(); len(missing) > 0 {
		return Draft{}, shipping.ZoneResult{}, &GateError{MissingFields: missing}
	}

	result, ok := s.validator.Result()
	if !ok {
		return Draft{}, shipping.ZoneResult{}, &GateError{AddressReason: "delivery address has not been validated"}
	}
	if !result.Deliverable() {
		return Draft{}, shipping.ZoneResult{}, &GateError{AddressReason: "delivery address is outside the delivery zone"}
	}
	return draft, result, nil
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionInProgress
	}
	s.submitting = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

func (s *Session) resetDraft() {
	s.mu.Lock()
	s.draft = NewDraft()
	s.mu.Unlock()
}

// PayLater creates the order directly in pending status, flags staff for
// manual follow-up and clears the draft. The in-progress guard is released
// whatever the outcome, so the control never stays disabled.
func (s *Session) PayLater(ctx context.Context, userID *primitive.ObjectID) (models.Order, error) {
	if err := s.begin(); err != nil {
		return models.Order{}, err
	}
	defer s.end()

	draft, zone, err := s.gate()
	if err != nil {
		return models.Order{}, err
	}

	total := Quote(s.product.Price, draft.Quantity, &zone).Total
	order, err := s.coordinator.CreateOrder(ctx, draft, s.product, total, models.OrderStatusPending, userID)
	if err != nil {
		s.notifier.Error("Errore nell'invio dell'ordine", "Riprova o contattaci direttamente.")
		return models.Order{}, err
	}

	if err := s.coordinator.CreateNotification(ctx, order.ID); err != nil {
		s.notifier.Error("Errore nell'invio dell'ordine", "Riprova o contattaci direttamente.")
		return models.Order{}, fmt.Errorf("order notification: %w", err)
	}

	s.notifier.Success("Ordine Inviato con Successo!",
		fmt.Sprintf("Il tuo ordine #%s è stato ricevuto. Ti contatteremo presto per confermare i dettagli.", order.OrderNumber))
	s.resetDraft()
	return order, nil
}

// PayNow hands the attempt to the payment gateway. The gateway obtains the
// order id through the callback before charging; a failed callback aborts
// the charge. Gateway errors pass through verbatim and keep the draft so
// the user can correct and retry.
func (s *Session) PayNow(ctx context.Context, userID *primitive.ObjectID) (models.Order, error) {
	if err := s.begin(); err != nil {
		return models.Order{}, err
	}
	defer s.end()

	draft, zone, err := s.gate()
	if err != nil {
		return models.Order{}, err
	}

	total := Quote(s.product.Price, draft.Quantity, &zone).Total

	var order models.Order
	checkout := payments.Checkout{
		Items: []payments.CheckoutItem{{
			ID:          s.product.ID.Hex(),
			Name:        s.product.Name,
			Price:       s.product.Price,
			Quantity:    draft.Quantity,
			Image:       s.product.ImagePath,
			Description: s.product.Description,
		}},
		Customer: payments.CustomerInfo{
			Name:  draft.CustomerName,
			Email: draft.CustomerEmail,
			Phone: draft.CustomerPhone,
		},
		OnCreateOrder: func(ctx context.Context) (string, error) {
			created, err := s.coordinator.CreateOrder(ctx, draft, s.product, total, models.OrderStatusPaymentPending, userID)
			if err != nil {
				return "", err
			}
			order = created
			return created.ID.Hex(), nil
		},
	}

	if err := s.gateway.StartCheckout(ctx, checkout); err != nil {
		s.notifier.Error("Errore nel Pagamento", err.Error())
		return models.Order{}, err
	}

	s.notifier.Success("Ordine Completato!", "Il pagamento è stato elaborato con successo.")
	s.resetDraft()
	return order, nil
}

// Close tears the session down, cancelling any pending debounced
// validation so it cannot fire into a discarded flow.
func (s *Session) Close() {
	s.validator.Close()
}
