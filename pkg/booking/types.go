package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UserID identifies a reservation owner.
type UserID struct {
	value string
}

// ReservationID identifies a reservation.
type ReservationID struct {
	value string
}

// PrestationID identifies a catalog offering.
type PrestationID struct {
	value string
}

// ReservationStatus defines the reservation lifecycle.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusPaid      ReservationStatus = "paid"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Payment event types understood by the reconciler.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// NewReservationID validates and normalizes a reservation id.
func NewReservationID(raw string) (ReservationID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ReservationID{}, fmt.Errorf("%w: empty value", ErrInvalidReservationID)
	}
	if strings.Contains(trimmed, metadataDelimiter) {
		return ReservationID{}, fmt.Errorf("%w: contains %q", ErrInvalidReservationID, metadataDelimiter)
	}
	return ReservationID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id ReservationID) String() string {
	return id.value
}

// NewPrestationID validates and normalizes a prestation id.
func NewPrestationID(raw string) (PrestationID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PrestationID{}, fmt.Errorf("%w: empty value", ErrInvalidPrestationID)
	}
	return PrestationID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id PrestationID) String() string {
	return id.value
}

// ParseReservationStatus validates a persisted status value.
func ParseReservationStatus(raw string) (ReservationStatus, error) {
	switch status := ReservationStatus(strings.TrimSpace(raw)); status {
	case ReservationStatusPending, ReservationStatusPaid, ReservationStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// String returns the persisted representation.
func (status ReservationStatus) String() string {
	return string(status)
}

// IsTerminal reports whether no further transition is allowed.
func (status ReservationStatus) IsTerminal() bool {
	return status == ReservationStatusPaid || status == ReservationStatusCancelled
}

// Entry is one reserved slot, snapshotted at reservation time.
type Entry struct {
	PrestationID PrestationID
	Name         string
	Price        decimal.Decimal
	Date         time.Time
}

// Reservation is a stored reservation record.
type Reservation struct {
	ID               ReservationID
	UserID           UserID
	Entries          []Entry
	Status           ReservationStatus
	PaymentSessionID string
	CreatedAt        time.Time
	PaidAt           *time.Time
}

// CartItem is a client-submitted reservation line, validated before use.
type CartItem struct {
	PrestationID string
	Name         string
	Price        decimal.Decimal
	Date         string
}

// Offering is the catalog view needed to reserve and bill a prestation.
type Offering struct {
	ID          PrestationID
	Name        string
	Description string
	Price       decimal.Decimal
	Slug        string
}

// ReservationFilter narrows ListReservations. Zero values match everything.
type ReservationFilter struct {
	UserID *UserID
	Status *ReservationStatus
}

// StatusTransition describes one filtered bulk update.
type StatusTransition struct {
	IDs              []ReservationID
	From             ReservationStatus
	To               ReservationStatus
	PaymentSessionID string
	At               time.Time
}

// LineItem is one billed entry of a checkout session.
type LineItem struct {
	Name            string
	Description     string
	UnitAmountMinor int64
	Quantity        int64
}

// CheckoutRequest asks the gateway for a hosted checkout session.
type CheckoutRequest struct {
	LineItems  []LineItem
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutSession is the gateway-owned session created for a checkout.
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentEvent is a verified gateway event.
type PaymentEvent struct {
	ID        string
	Type      string
	SessionID string
	Paid      bool
	Metadata  map[string]string
}

// ConfirmationResult summarizes how a payment event was applied.
type ConfirmationResult struct {
	EventID   string
	EventType string
	Handled   bool
	Requested int
	Updated   []ReservationID
}

// Store persists reservations.
type Store interface {
	InsertReservation(ctx context.Context, reservation Reservation) error
	FindByIDs(ctx context.Context, ids []ReservationID) ([]Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	// BulkSetStatus applies the transition to rows currently in From and returns the ids that changed.
	BulkSetStatus(ctx context.Context, transition StatusTransition) ([]ReservationID, error)
}

// Catalog resolves offerings. Missing offerings are reported with ErrNotFound.
type Catalog interface {
	FindByID(ctx context.Context, id PrestationID) (Offering, error)
	FindBySlug(ctx context.Context, slug string) (Offering, error)
}

// Gateway creates checkout sessions and verifies signed payment events.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, request CheckoutRequest) (CheckoutSession, error)
	VerifyEvent(payload []byte, signature string) (PaymentEvent, error)
}

// Notifier announces reservations that became paid.
type Notifier interface {
	NotifyReservationPaid(ctx context.Context, reservation Reservation) error
}

// Metrics receives workflow counters.
type Metrics interface {
	ReservationCreated(entries int)
	CheckoutSessionCreated(lineItems int)
	CheckoutSessionFailed()
	ConfirmationProcessed(outcome string)
	ReservationsTransitioned(to ReservationStatus, count int)
}

// Confirmation outcomes reported to Metrics.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "failed"
)
