package ordering

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fioreria/internal/payments"
	"fioreria/internal/shipping"
)

type stubZone struct {
	mu     sync.Mutex
	calls  int
	result shipping.ZoneResult
	err    error
}

func (z *stubZone) ValidateDeliveryAddress(ctx context.Context, address string, orderValue float64) (shipping.ZoneResult, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.calls++
	return z.result, z.err
}

func (z *stubZone) callCount() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.calls
}

type stubGateway struct {
	charges     int
	failCharge  error
	lastOrderID string
}

func (g *stubGateway) StartCheckout(ctx context.Context, checkout payments.Checkout) error {
	orderID, err := checkout.OnCreateOrder(ctx)
	if err != nil {
		return fmt.Errorf("order creation failed: %w", err)
	}
	g.lastOrderID = orderID
	if g.failCharge != nil {
		return &payments.GatewayError{Err: g.failCharge}
	}
	g.charges++
	return nil
}

type notifyEntry struct {
	level       string
	title       string
	description string
}

type recordingNotifier struct {
	mu      sync.Mutex
	entries []notifyEntry
}

func (n *recordingNotifier) Success(title, description string) { n.record("success", title, description) }
func (n *recordingNotifier) Error(title, description string)   { n.record("error", title, description) }
func (n *recordingNotifier) Info(title, description string)    { n.record("info", title, description) }

func (n *recordingNotifier) record(level, title, description string) {
	n.mu.Lock()
	n.entries = append(n.entries, notifyEntry{level, title, description})
	n.mu.Unlock()
}

func (n *recordingNotifier) last() (notifyEntry, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.entries) == 0 {
		return notifyEntry{}, false
	}
	return n.entries[len(n.entries)-1], true
}

func deliverableZone() *stubZone {
	return &stubZone{result: shipping.ZoneResult{
		IsValid:       true,
		IsWithinZone:  true,
		EstimatedTime: "30-45 minuti",
		DeliveryFee:   5.00,
	}}
}

func newTestSession(t *testing.T, store Store, gateway payments.Gateway, zone shipping.Client) (*Session, *recordingNotifier) {
	t.Helper()
	// A long quiet period keeps the debounce timer out of these tests;
	// results are produced through the manual ValidateAddress path.
	validator := shipping.NewValidator(zone, time.Minute, 0)
	notifier := &recordingNotifier{}
	session := NewSession(testProduct(), NewCoordinator(store, "Italy"), gateway, notifier, validator)
	t.Cleanup(session.Close)
	return session, notifier
}

func ptr[T any](v T) *T { return &v }

func fillDraft(session *Session) {
	draft := testDraft()
	session.Update(DraftUpdate{
		CustomerName:    ptr(draft.CustomerName),
		CustomerEmail:   ptr(draft.CustomerEmail),
		CustomerPhone:   ptr(draft.CustomerPhone),
		Quantity:        ptr(draft.Quantity),
		SpecialRequests: ptr(draft.SpecialRequests),
		DeliveryDate:    ptr(draft.DeliveryDate),
		DeliveryAddress: ptr(draft.DeliveryAddress),
	})
}

func TestGateReportsMissingFields(t *testing.T) {
	store := &memStore{}
	session, _ := newTestSession(t, store, &stubGateway{}, deliverableZone())

	err := session.Gate()
	var gateErr *GateError
	require.ErrorAs(t, err, &gateErr)
	assert.ElementsMatch(t, []string{"customerName", "customerEmail", "deliveryAddress"}, gateErr.MissingFields)

	_, err = session.PayLater(context.Background(), nil)
	require.ErrorAs(t, err, &gateErr)

	orders, items, notifications := store.counts()
	assert.Zero(t, orders+items+notifications, "nothing may be persisted before the gate passes")
}

func TestGateRequiresValidatedAddress(t *testing.T) {
	store := &memStore{}
	session, _ := newTestSession(t, store, &stubGateway{}, deliverableZone())
	fillDraft(session)

	// Fields are complete but no validation has resolved yet.
	_, err := session.PayLater(context.Background(), nil)
	var gateErr *GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Empty(t, gateErr.MissingFields)
	assert.Contains(t, gateErr.Error(), "not been validated")

	orders, _, _ := store.counts()
	assert.Zero(t, orders)
}

func TestGateRejectsOutOfZoneAddress(t *testing.T) {
	store := &memStore{}
	zone := &stubZone{result: shipping.ZoneResult{IsValid: true, IsWithinZone: false, Error: "Fuori zona"}}
	session, notifier := newTestSession(t, store, &stubGateway{}, zone)
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	assert.False(t, deliverable)
	entry, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "Consegna Non Disponibile", entry.title)
	assert.Equal(t, "Fuori zona", entry.description)

	_, err := session.PayLater(context.Background(), nil)
	var gateErr *GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Contains(t, gateErr.Error(), "outside the delivery zone")

	orders, _, _ := store.counts()
	assert.Zero(t, orders)
}

func TestPayLaterCreatesOrderItemAndNotification(t *testing.T) {
	store := &memStore{}
	session, notifier := newTestSession(t, store, &stubGateway{}, deliverableZone())
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	require.True(t, deliverable)

	order, err := session.PayLater(context.Background(), nil)
	require.NoError(t, err)

	orders, items, notifications := store.counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, items)
	assert.Equal(t, 1, notifications)

	assert.Equal(t, "pending", order.Status)
	assert.InDelta(t, 29.90*2+5.00, order.TotalAmount, 1e-9)

	entry, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "success", entry.level)
	assert.Contains(t, entry.description, order.OrderNumber)

	assert.Equal(t, NewDraft(), session.Draft(), "draft is cleared on success")
}

func TestPayLaterReleasesGuardAfterFailure(t *testing.T) {
	store := &memStore{failOrder: errors.New("db down")}
	session, _ := newTestSession(t, store, &stubGateway{}, deliverableZone())
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	require.True(t, deliverable)

	_, err := session.PayLater(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, testDraft(), session.Draft(), "draft survives a failed submission")

	// The in-progress guard must be released, so a retry goes through.
	store.mu.Lock()
	store.failOrder = nil
	store.mu.Unlock()

	_, err = session.PayLater(context.Background(), nil)
	require.NoError(t, err)
}

func TestPayLaterNotificationFailureIsSurfacedAndRetryable(t *testing.T) {
	store := &memStore{failNotification: errors.New("write failed")}
	session, notifier := newTestSession(t, store, &stubGateway{}, deliverableZone())
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	require.True(t, deliverable)

	_, err := session.PayLater(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order notification")

	entry, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "error", entry.level)
	assert.Equal(t, "Errore nell'invio dell'ordine", entry.title)

	assert.Equal(t, testDraft(), session.Draft(), "draft survives the failed submission")

	// The guard must be released so the user can retry once the store
	// recovers. Retrying produces a new order by contract.
	store.mu.Lock()
	store.failNotification = nil
	store.mu.Unlock()

	_, err = session.PayLater(context.Background(), nil)
	require.NoError(t, err)

	_, _, notifications := store.counts()
	assert.Equal(t, 1, notifications)
}

func TestPayLaterBlocksConcurrentSubmission(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store := &memStore{orderHook: func() {
		once.Do(func() { close(entered) })
		<-release
	}}
	session, _ := newTestSession(t, store, &stubGateway{}, deliverableZone())
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	require.True(t, deliverable)

	done := make(chan error, 1)
	go func() {
		_, err := session.PayLater(context.Background(), nil)
		done <- err
	}()

	<-entered
	_, err := session.PayLater(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(release)
	require.NoError(t, <-done)

	orders, _, _ := store.counts()
	assert.Equal(t, 1, orders, "the duplicate click must not create a second order")
}

func TestPayNowChargesAfterOrderCreation(t *testing.T) {
	store := &memStore{}
	gateway := &stubGateway{}
	session, _ := newTestSession(t, store, gateway, deliverableZone())
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	require.True(t, deliverable)

	order, err := session.PayNow(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, gateway.charges)
	assert.Equal(t, order.ID.Hex(), gateway.lastOrderID, "the charge is tied to the created order")
	assert.Equal(t, "payment_pending", order.Status)

	orders, items, notifications := store.counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, items)
	assert.Zero(t, notifications, "pay-now orders need no staff follow-up")

	assert.Equal(t, NewDraft(), session.Draft())
}

func TestPayNowOrderFailureAbortsCharge(t *testing.T) {
	store := &memStore{failOrder: errors.New("db down")}
	gateway := &stubGateway{}
	session, _ := newTestSession(t, store, gateway, deliverableZone())
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	require.True(t, deliverable)

	_, err := session.PayNow(context.Background(), nil)
	require.Error(t, err)

	assert.Zero(t, gateway.charges, "no charge may be attempted without an order")
	assert.Equal(t, testDraft(), session.Draft(), "draft survives the failed attempt")
}

func TestPayNowGatewayErrorKeepsDraft(t *testing.T) {
	store := &memStore{}
	gateway := &stubGateway{failCharge: errors.New("card declined")}
	session, notifier := newTestSession(t, store, gateway, deliverableZone())
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	require.True(t, deliverable)

	_, err := session.PayNow(context.Background(), nil)
	require.EqualError(t, err, "card declined")

	var gatewayErr *payments.GatewayError
	assert.ErrorAs(t, err, &gatewayErr, "charge failures keep their gateway identity")

	entry, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "Errore nel Pagamento", entry.title)
	assert.Equal(t, "card declined", entry.description)

	// The order was created exactly once inside the callback; retrying the
	// payment is the caller's move, not ours.
	orders, items, _ := store.counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, items)
	assert.Equal(t, testDraft(), session.Draft())
}

func TestValidateAddressRequiresText(t *testing.T) {
	zone := deliverableZone()
	session, notifier := newTestSession(t, &memStore{}, &stubGateway{}, zone)

	_, deliverable := session.ValidateAddress(context.Background())
	assert.False(t, deliverable)
	assert.Zero(t, zone.callCount(), "the collaborator is not called for a blank address")

	entry, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "Indirizzo Richiesto", entry.title)
}

func TestValidateAddressCollaboratorFailure(t *testing.T) {
	zone := &stubZone{err: errors.New("timeout")}
	session, notifier := newTestSession(t, &memStore{}, &stubGateway{}, zone)
	fillDraft(session)

	_, deliverable := session.ValidateAddress(context.Background())
	assert.False(t, deliverable)

	entry, ok := notifier.last()
	require.True(t, ok)
	assert.Equal(t, "Errore Validazione", entry.title)
}
