package shipping

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// DefaultQuietPeriod is how long the address field must be stable
	// before an automatic validation fires.
	DefaultQuietPeriod = time.Second
	// DefaultMinAddressLength is the trimmed length a value must exceed
	// before automatic validation is worth attempting.
	DefaultMinAddressLength = 10

	validationTimeout = 15 * time.Second
)

// ErrValidatorClosed is returned when validation is requested after the
// ordering session has been torn down.
var ErrValidatorClosed = errors.New("address validator closed")

// Validator holds the latest zone-validation result for an address field.
//
// Input debounces: at most one scheduled validation exists at a time, and
// each new input cancels and replaces it. Every input bumps a generation
// counter; a response whose generation is no longer current is discarded,
// so the stored result always belongs to the most recently initiated
// validation, even when an older call resolves later.
type Validator struct {
	client Client
	quiet  time.Duration
	minLen int

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	result *ZoneResult
	closed bool
}

func NewValidator(client Client, quiet time.Duration, minLen int) *Validator {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if minLen <= 0 {
		minLen = DefaultMinAddressLength
	}
	return &Validator{client: client, quiet: quiet, minLen: minLen}
}

// Input records a new address value. The previously stored result is
// cleared immediately (the verdict for old text must not linger over new
// text) and a validation is scheduled after the quiet period, unless the
// trimmed value is too short to be a real address.
func (v *Validator) Input(address string, subtotal float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}

	v.gen++
	v.result = nil
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}

	trimmed := strings.TrimSpace(address)
	if utf8.RuneCountInString(trimmed) <= v.minLen {
		return
	}

	gen := v.gen
	v.timer = time.AfterFunc(v.quiet, func() {
		v.validate(gen, trimmed, subtotal)
	})
}

func (v *Validator) validate(gen uint64, address string, subtotal float64) {
	ctx, cancel := context.WithTimeout(context.Background(), validationTimeout)
	defer cancel()

	result, err := v.client.ValidateDeliveryAddress(ctx, address, subtotal)
	if err != nil {
		// Non-fatal: the user can retry by editing the address.
		log.Printf("[SHIPPING] [WARN] address validation failed: %v", err)
		result = ZoneResult{Error: "Impossibile validare l'indirizzo. Riprova."}
	}
	v.store(gen, result)
}

func (v *Validator) store(gen uint64, result ZoneResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || gen != v.gen {
		// Stale: newer input superseded this call while it was in flight.
		return
	}
	v.result = &result
}

// ValidateNow validates immediately, bypassing the debounce. It supersedes
// any pending scheduled validation and any in-flight call.
func (v *Validator) ValidateNow(ctx context.Context, address string, subtotal float64) (ZoneResult, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ZoneResult{}, ErrValidatorClosed
	}
	v.gen++
	gen := v.gen
	v.result = nil
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.mu.Unlock()

	result, err := v.client.ValidateDeliveryAddress(ctx, strings.TrimSpace(address), subtotal)
	if err != nil {
		failed := ZoneResult{Error: "Impossibile validare l'indirizzo. Riprova."}
		v.store(gen, failed)
		return failed, err
	}
	v.store(gen, result)
	return result, nil
}

// Result returns the latest non-stale validation result, if any. ok is
// false while the address is unknown: untouched, too short, edited since
// the last verdict, or still being validated.
func (v *Validator) Result() (ZoneResult, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.result == nil {
		return ZoneResult{}, false
	}
	return *v.result, true
}

// Close cancels any pending scheduled validation and ignores everything
// after it. Must be called when the ordering session goes away, otherwise
// the timer would fire into discarded state.
func (v *Validator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.result = nil
}
