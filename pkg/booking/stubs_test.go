package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

type stubStore struct {
	mu           sync.Mutex
	reservations map[ReservationID]Reservation
	order        []ReservationID
	insertErr    error
	findErr      error
	transitErr   error
	transitions  []StatusTransition
}

func newStubStore() *stubStore {
	return &stubStore{reservations: make(map[ReservationID]Reservation)}
}

func (store *stubStore) InsertReservation(_ context.Context, reservation Reservation) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.insertErr != nil {
		return store.insertErr
	}
	if _, exists := store.reservations[reservation.ID]; exists {
		return fmt.Errorf("duplicate reservation %s", reservation.ID)
	}
	store.reservations[reservation.ID] = reservation
	store.order = append(store.order, reservation.ID)
	return nil
}

func (store *stubStore) FindByIDs(_ context.Context, ids []ReservationID) ([]Reservation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.findErr != nil {
		return nil, store.findErr
	}
	var found []Reservation
	for _, id := range ids {
		if reservation, ok := store.reservations[id]; ok {
			found = append(found, reservation)
		}
	}
	return found, nil
}

func (store *stubStore) ListReservations(_ context.Context, filter ReservationFilter) ([]Reservation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var listed []Reservation
	for index := len(store.order) - 1; index >= 0; index-- {
		reservation := store.reservations[store.order[index]]
		if filter.UserID != nil && reservation.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && reservation.Status != *filter.Status {
			continue
		}
		listed = append(listed, reservation)
	}
	return listed, nil
}

func (store *stubStore) BulkSetStatus(_ context.Context, transition StatusTransition) ([]ReservationID, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.transitErr != nil {
		return nil, store.transitErr
	}
	store.transitions = append(store.transitions, transition)
	var changed []ReservationID
	for _, id := range transition.IDs {
		reservation, ok := store.reservations[id]
		if !ok || reservation.Status != transition.From {
			continue
		}
		reservation.Status = transition.To
		if transition.PaymentSessionID != "" {
			reservation.PaymentSessionID = transition.PaymentSessionID
		}
		if transition.To == ReservationStatusPaid {
			paidAt := transition.At
			reservation.PaidAt = &paidAt
		}
		store.reservations[id] = reservation
		changed = append(changed, id)
	}
	return changed, nil
}

func (store *stubStore) mustReservation(test *testing.T, id ReservationID) Reservation {
	test.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	reservation, ok := store.reservations[id]
	if !ok {
		test.Fatalf("reservation %s not stored", id)
	}
	return reservation
}

func (store *stubStore) statuses() map[ReservationID]ReservationStatus {
	store.mu.Lock()
	defer store.mu.Unlock()
	statuses := make(map[ReservationID]ReservationStatus, len(store.reservations))
	for id, reservation := range store.reservations {
		statuses[id] = reservation.Status
	}
	return statuses
}

type stubCatalog struct {
	offerings map[PrestationID]Offering
	err      error
	lookups   int
}

func newStubCatalog(offerings ...Offering) *stubCatalog {
	catalog := &stubCatalog{offerings: make(map[PrestationID]Offering)}
	for _, offering := range offerings {
		catalog.offerings[offering.ID] = offering
	}
	return catalog
}

func (catalog *stubCatalog) FindByID(_ context.Context, id PrestationID) (Offering, error) {
	catalog.lookups++
	if catalog.err != nil {
		return Offering{}, catalog.err
	}
	offering, ok := catalog.offerings[id]
	if !ok {
		return Offering{}, fmt.Errorf("%w: prestation %s", ErrNotFound, id)
	}
	return offering, nil
}

func (catalog *stubCatalog) FindBySlug(_ context.Context, slug string) (Offering, error) {
	for _, offering := range catalog.offerings {
		if offering.Slug == slug {
			return offering, nil
		}
	}
	return Offering{}, fmt.Errorf("%w: slug %s", ErrNotFound, slug)
}

const testSignature = "t=1,v1=valid"

type fakeEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	SessionID string            `json:"sessionId"`
	Paid      bool              `json:"paid"`
	Metadata  map[string]string `json:"metadata"`
}

type fakeGateway struct {
	mu         sync.Mutex
	requests   []CheckoutRequest
	sessionErr error
	parsed     int
}

func (gateway *fakeGateway) CreateCheckoutSession(ctx context.Context, request CheckoutRequest) (CheckoutSession, error) {
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return CheckoutSession{}, errors.New("gateway call without deadline")
	}
	gateway.requests = append(gateway.requests, request)
	if gateway.sessionErr != nil {
		return CheckoutSession{}, gateway.sessionErr
	}
	sessionID := fmt.Sprintf("cs_test_%d", len(gateway.requests))
	return CheckoutSession{ID: sessionID, URL: "https://checkout.example/" + sessionID}, nil
}

func (gateway *fakeGateway) VerifyEvent(payload []byte, signature string) (PaymentEvent, error) {
	if signature != testSignature {
		return PaymentEvent{}, fmt.Errorf("%w: signature mismatch", ErrAuthenticationFailed)
	}
	gateway.mu.Lock()
	gateway.parsed++
	gateway.mu.Unlock()
	var event fakeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return PaymentEvent{}, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
	}
	return PaymentEvent{ID: event.ID, Type: event.Type, SessionID: event.SessionID, Paid: event.Paid, Metadata: event.Metadata}, nil
}

func (gateway *fakeGateway) lastRequest(test *testing.T) CheckoutRequest {
	test.Helper()
	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	if len(gateway.requests) == 0 {
		test.Fatalf("expected a checkout request")
	}
	return gateway.requests[len(gateway.requests)-1]
}

type recorderLogger struct {
	mu      sync.Mutex
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.entries = append(logger.entries, entry)
}

func (logger *recorderLogger) byOperation(operation string) []OperationLog {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	var matched []OperationLog
	for _, entry := range logger.entries {
		if entry.Operation == operation {
			matched = append(matched, entry)
		}
	}
	return matched
}

type recorderNotifier struct {
	mu       sync.Mutex
	notified []ReservationID
	undated  int
	err      error
}

func (notifier *recorderNotifier) NotifyReservationPaid(ctx context.Context, reservation Reservation) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		notifier.undated++
	}
	notifier.notified = append(notifier.notified, reservation.ID)
	return notifier.err
}

type recorderMetrics struct {
	mu           sync.Mutex
	created      int
	sessions     int
	failures     int
	outcomes     map[string]int
	transitioned map[ReservationStatus]int
}

func newRecorderMetrics() *recorderMetrics {
	return &recorderMetrics{outcomes: make(map[string]int), transitioned: make(map[ReservationStatus]int)}
}

func (metrics *recorderMetrics) ReservationCreated(int) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.created++
}

func (metrics *recorderMetrics) CheckoutSessionCreated(int) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.sessions++
}

func (metrics *recorderMetrics) CheckoutSessionFailed() {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.failures++
}

func (metrics *recorderMetrics) ConfirmationProcessed(outcome string) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.outcomes[outcome]++
}

func (metrics *recorderMetrics) ReservationsTransitioned(to ReservationStatus, count int) {
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	metrics.transitioned[to] += count
}

type serviceFixture struct {
	store    *stubStore
	catalog  *stubCatalog
	gateway  *fakeGateway
	logger   *recorderLogger
	notifier *recorderNotifier
	metrics  *recorderMetrics
	service  *Service
}

func newServiceFixture(test *testing.T, options ...ServiceOption) *serviceFixture {
	test.Helper()
	fixture := &serviceFixture{
		store: newStubStore(),
		catalog: newStubCatalog(
			Offering{ID: mustPrestationID(test, "P1"), Name: "Coaching", Description: "One hour", Price: decimal.NewFromInt(3), Slug: "coaching"},
			Offering{ID: mustPrestationID(test, "P2"), Name: "Massage", Description: "Recovery", Price: decimal.RequireFromString("2.345"), Slug: "massage"},
		),
		gateway:  &fakeGateway{},
		logger:   &recorderLogger{},
		notifier: &recorderNotifier{},
		metrics:  newRecorderMetrics(),
	}
	baseOptions := []ServiceOption{
		WithOperationLogger(fixture.logger),
		WithNotifier(fixture.notifier),
		WithMetrics(fixture.metrics),
		WithCheckoutURLs("https://client.example/Success", "https://client.example/Cancel"),
	}
	service, err := NewService(fixture.store, fixture.catalog, fixture.gateway, func() time.Time { return fixedNow }, append(baseOptions, options...)...)
	if err != nil {
		test.Fatalf("service init failed: %v", err)
	}
	fixture.service = service
	return fixture
}

func (fixture *serviceFixture) mustReserve(test *testing.T, userID UserID, items ...CartItem) ReservationID {
	test.Helper()
	reservationID, err := fixture.service.CreateReservation(context.Background(), userID, items)
	if err != nil {
		test.Fatalf("create reservation: %v", err)
	}
	return reservationID
}

func mustUserID(test *testing.T, raw string) UserID {
	test.Helper()
	id, err := NewUserID(raw)
	if err != nil {
		test.Fatalf("user id: %v", err)
	}
	return id
}

func mustReservationID(test *testing.T, raw string) ReservationID {
	test.Helper()
	id, err := NewReservationID(raw)
	if err != nil {
		test.Fatalf("reservation id: %v", err)
	}
	return id
}

func mustPrestationID(test *testing.T, raw string) PrestationID {
	test.Helper()
	id, err := NewPrestationID(raw)
	if err != nil {
		test.Fatalf("prestation id: %v", err)
	}
	return id
}

func cartItem(prestationID string, name string, price string, date string) CartItem {
	return CartItem{PrestationID: prestationID, Name: name, Price: decimal.RequireFromString(price), Date: date}
}

func completedEventPayload(test *testing.T, eventID string, sessionID string, reservationIDs string) []byte {
	test.Helper()
	payload, err := json.Marshal(fakeEvent{
		ID:        eventID,
		Type:      EventCheckoutCompleted,
		SessionID: sessionID,
		Paid:      true,
		Metadata:  map[string]string{MetadataKeyReservationIDs: reservationIDs},
	})
	if err != nil {
		test.Fatalf("marshal event: %v", err)
	}
	return payload
}

func sortedIDs(ids []ReservationID) []string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	sort.Strings(values)
	return values
}
