package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultGatewayTimeout = 10 * time.Second
	defaultNotifyTimeout  = 3 * time.Second
)

// Service reconciles reservations with hosted checkout payments.
type Service struct {
	store          Store
	catalog        Catalog
	gateway        Gateway
	nowFn          func() time.Time
	newID          func() string
	logger         OperationLogger
	notifier       Notifier
	metrics        Metrics
	successURL     string
	cancelURL      string
	currency       string
	validatePrices bool
	priceTolerance decimal.Decimal
	gatewayTimeout time.Duration
	notifyTimeout  time.Duration
}

// NewService wires a Service.
func NewService(store Store, catalog Catalog, gateway Gateway, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog dependency is nil", ErrInvalidServiceConfig)
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: gateway dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{
		store:          store,
		catalog:        catalog,
		gateway:        gateway,
		nowFn:          now,
		newID:          uuid.NewString,
		metrics:        noopMetrics{},
		currency:       defaultCurrency,
		validatePrices: true,
		priceTolerance: decimal.Zero,
		gatewayTimeout: defaultGatewayTimeout,
		notifyTimeout:  defaultNotifyTimeout,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	if service.metrics == nil {
		service.metrics = noopMetrics{}
	}
	return service, nil
}

// CreateReservation snapshots a cart into a new pending reservation.
func (service *Service) CreateReservation(ctx context.Context, userID UserID, items []CartItem) (ReservationID, error) {
	reservationID, operationError := service.createReservation(ctx, userID, items)
	logEntry := OperationLog{
		Operation: operationCreateReservation,
		UserID:    userID,
		Error:     operationError,
	}
	if operationError == nil {
		logEntry.ReservationIDs = []ReservationID{reservationID}
		service.metrics.ReservationCreated(len(items))
	}
	service.logOperation(ctx, logEntry)
	return reservationID, operationError
}

func (service *Service) createReservation(ctx context.Context, userID UserID, items []CartItem) (ReservationID, error) {
	if userID.String() == "" {
		return ReservationID{}, WrapError(operationCreateReservation, subjectCart, codeInvalid, ErrInvalidUserID)
	}
	if len(items) == 0 {
		return ReservationID{}, WrapError(operationCreateReservation, subjectCart, codeInvalid, fmt.Errorf("%w: cart is empty", ErrInvalidInput))
	}
	offerings := make(map[PrestationID]Offering)
	entries := make([]Entry, 0, len(items))
	for index, item := range items {
		entry, err := service.buildEntry(ctx, offerings, index, item)
		if err != nil {
			return ReservationID{}, err
		}
		entries = append(entries, entry)
	}
	reservationID, err := NewReservationID(service.newID())
	if err != nil {
		return ReservationID{}, WrapError(operationCreateReservation, subjectReservation, codeInvalid, err)
	}
	reservation := Reservation{
		ID:        reservationID,
		UserID:    userID,
		Entries:   entries,
		Status:    ReservationStatusPending,
		CreatedAt: service.nowFn().UTC(),
	}
	if err := service.store.InsertReservation(ctx, reservation); err != nil {
		return ReservationID{}, persistenceError(operationCreateReservation, subjectReservation, codeInsert, err)
	}
	return reservationID, nil
}

func (service *Service) buildEntry(ctx context.Context, offerings map[PrestationID]Offering, index int, item CartItem) (Entry, error) {
	invalid := func(reason error) error {
		return WrapError(operationCreateReservation, subjectCart, codeInvalid, fmt.Errorf("%w: item %d: %w", ErrInvalidInput, index, reason))
	}
	prestationID, err := NewPrestationID(item.PrestationID)
	if err != nil {
		return Entry{}, invalid(err)
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return Entry{}, invalid(errors.New("empty name"))
	}
	if !item.Price.IsPositive() {
		return Entry{}, invalid(fmt.Errorf("non-positive price %s", item.Price.String()))
	}
	date, err := parseEntryDate(item.Date)
	if err != nil {
		return Entry{}, invalid(err)
	}
	if service.validatePrices {
		offering, err := service.lookupOffering(ctx, offerings, prestationID)
		switch {
		case errors.Is(err, ErrNotFound):
			return Entry{}, invalid(fmt.Errorf("%w: %s", ErrUnknownPrestation, prestationID.String()))
		case err != nil:
			return Entry{}, persistenceError(operationCreateReservation, subjectCatalog, codeLookup, err)
		}
		if item.Price.Sub(offering.Price).Abs().GreaterThan(service.priceTolerance) {
			return Entry{}, invalid(fmt.Errorf("%w: got %s, catalog %s", ErrPriceMismatch, item.Price.String(), offering.Price.String()))
		}
	}
	return Entry{
		PrestationID: prestationID,
		Name:         name,
		Price:        item.Price,
		Date:         date,
	}, nil
}

// CreatePaymentSession opens a hosted checkout session billing the pending reservations among ids.
func (service *Service) CreatePaymentSession(ctx context.Context, ids []ReservationID) (CheckoutSession, error) {
	session, billed, operationError := service.createPaymentSession(ctx, ids)
	service.logOperation(ctx, OperationLog{
		Operation:      operationCreateSession,
		ReservationIDs: billed,
		Error:          operationError,
	})
	return session, operationError
}

// CreateUserPaymentSession bills the caller's pending reservations among ids. Ids owned by another user are
// rejected as not found; unknown ids are left to the core, which fails only when none resolve.
func (service *Service) CreateUserPaymentSession(ctx context.Context, userID UserID, ids []ReservationID) (CheckoutSession, error) {
	session, billed, operationError := service.createUserPaymentSession(ctx, userID, ids)
	service.logOperation(ctx, OperationLog{
		Operation:      operationCreateSession,
		UserID:         userID,
		ReservationIDs: billed,
		Error:          operationError,
	})
	return session, operationError
}

func (service *Service) createUserPaymentSession(ctx context.Context, userID UserID, ids []ReservationID) (CheckoutSession, []ReservationID, error) {
	if userID.String() == "" {
		return CheckoutSession{}, nil, WrapError(operationCreateSession, subjectReservation, codeInvalid, ErrInvalidUserID)
	}
	requested := uniqueReservationIDs(ids)
	if len(requested) > 0 {
		reservations, err := service.store.FindByIDs(ctx, requested)
		if err != nil {
			return CheckoutSession{}, nil, persistenceError(operationCreateSession, subjectReservation, codeLookup, err)
		}
		for _, reservation := range reservations {
			if reservation.UserID != userID {
				return CheckoutSession{}, nil, WrapError(operationCreateSession, subjectReservation, codeMissing, fmt.Errorf("%w: reservation %s", ErrNotFound, reservation.ID.String()))
			}
		}
	}
	return service.createPaymentSession(ctx, requested)
}

func (service *Service) createPaymentSession(ctx context.Context, ids []ReservationID) (CheckoutSession, []ReservationID, error) {
	requested := uniqueReservationIDs(ids)
	if len(requested) == 0 {
		return CheckoutSession{}, nil, WrapError(operationCreateSession, subjectReservation, codeInvalid, fmt.Errorf("%w: no reservation ids", ErrInvalidInput))
	}
	reservations, err := service.store.FindByIDs(ctx, requested)
	if err != nil {
		return CheckoutSession{}, nil, persistenceError(operationCreateSession, subjectReservation, codeLookup, err)
	}
	if len(reservations) == 0 {
		return CheckoutSession{}, nil, WrapError(operationCreateSession, subjectReservation, codeMissing, fmt.Errorf("%w: no reservation matches", ErrNotFound))
	}
	byID := make(map[ReservationID]Reservation, len(reservations))
	for _, reservation := range reservations {
		byID[reservation.ID] = reservation
	}

	offerings := make(map[PrestationID]Offering)
	var billed []ReservationID
	var lineItems []LineItem
	for _, id := range requested {
		reservation, found := byID[id]
		if !found || reservation.Status != ReservationStatusPending {
			continue
		}
		for _, entry := range reservation.Entries {
			lineItem, err := service.buildLineItem(ctx, offerings, entry)
			if err != nil {
				return CheckoutSession{}, nil, err
			}
			lineItems = append(lineItems, lineItem)
		}
		billed = append(billed, id)
	}
	if len(billed) == 0 {
		return CheckoutSession{}, nil, WrapError(operationCreateSession, subjectReservation, codeFinalized, fmt.Errorf("%w: %w", ErrInvalidInput, ErrReservationsFinalized))
	}

	request := CheckoutRequest{
		LineItems:  lineItems,
		Currency:   service.currency,
		SuccessURL: service.successURL,
		CancelURL:  service.cancelURL,
		Metadata: map[string]string{
			MetadataKeyReservationIDs: EncodeReservationIDs(billed),
		},
	}
	gatewayContext, cancel := context.WithTimeout(ctx, service.gatewayTimeout)
	defer cancel()
	session, err := service.gateway.CreateCheckoutSession(gatewayContext, request)
	if err != nil {
		service.metrics.CheckoutSessionFailed()
		return CheckoutSession{}, billed, WrapError(operationCreateSession, subjectGateway, codeSession, fmt.Errorf("%w: %w", ErrGateway, err))
	}
	service.metrics.CheckoutSessionCreated(len(lineItems))
	return session, billed, nil
}

func (service *Service) buildLineItem(ctx context.Context, offerings map[PrestationID]Offering, entry Entry) (LineItem, error) {
	name := entry.Name
	description := ""
	price := entry.Price
	offering, err := service.lookupOffering(ctx, offerings, entry.PrestationID)
	switch {
	case err == nil:
		name = offering.Name
		description = offering.Description
		price = offering.Price
	case !errors.Is(err, ErrNotFound):
		return LineItem{}, persistenceError(operationCreateSession, subjectCatalog, codeLookup, err)
	}
	amount, err := ToMinorUnits(price)
	if err != nil {
		return LineItem{}, WrapError(operationCreateSession, subjectCatalog, codeInvalid, err)
	}
	if !entry.Date.IsZero() {
		dated := entry.Date.Format(dateLayout)
		if description == "" {
			description = dated
		} else {
			description = description + " (" + dated + ")"
		}
	}
	return LineItem{
		Name:            name,
		Description:     description,
		UnitAmountMinor: amount,
		Quantity:        1,
	}, nil
}

// HandlePaymentConfirmation verifies a signed gateway event and marks the referenced reservations paid.
func (service *Service) HandlePaymentConfirmation(ctx context.Context, payload []byte, signature string) (ConfirmationResult, error) {
	result, outcome, operationError := service.handlePaymentConfirmation(ctx, payload, signature)
	service.metrics.ConfirmationProcessed(outcome)
	logEntry := OperationLog{
		Operation:      operationConfirmPayment,
		ReservationIDs: result.Updated,
		EventID:        result.EventID,
		Updated:        len(result.Updated),
		Error:          operationError,
	}
	switch outcome {
	case OutcomeIgnored:
		logEntry.Status = operationStatusIgnored
	case OutcomeDuplicate:
		logEntry.Status = operationStatusNoop
	}
	service.logOperation(ctx, logEntry)
	if len(result.Updated) > 0 {
		service.metrics.ReservationsTransitioned(ReservationStatusPaid, len(result.Updated))
		service.notifyPaid(ctx, result.Updated)
	}
	return result, operationError
}

func (service *Service) handlePaymentConfirmation(ctx context.Context, payload []byte, signature string) (ConfirmationResult, string, error) {
	if strings.TrimSpace(signature) == "" {
		return ConfirmationResult{}, OutcomeRejected, WrapError(operationConfirmPayment, subjectEvent, codeSignature, fmt.Errorf("%w: missing signature", ErrAuthenticationFailed))
	}
	event, err := service.gateway.VerifyEvent(payload, signature)
	if err != nil {
		if errors.Is(err, ErrMalformedMetadata) {
			return ConfirmationResult{}, OutcomeMalformed, WrapError(operationConfirmPayment, subjectEvent, codeParse, err)
		}
		if !errors.Is(err, ErrAuthenticationFailed) {
			err = fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return ConfirmationResult{}, OutcomeRejected, WrapError(operationConfirmPayment, subjectEvent, codeSignature, err)
	}
	result := ConfirmationResult{EventID: event.ID, EventType: event.Type}
	if !isCompletionEvent(event.Type) || !event.Paid {
		return result, OutcomeIgnored, nil
	}
	result.Handled = true
	ids, err := DecodeReservationIDs(event.Metadata[MetadataKeyReservationIDs])
	if err != nil {
		return result, OutcomeMalformed, WrapError(operationConfirmPayment, subjectMetadata, codeParse, err)
	}
	result.Requested = len(ids)
	updated, err := service.store.BulkSetStatus(ctx, StatusTransition{
		IDs:              ids,
		From:             ReservationStatusPending,
		To:               ReservationStatusPaid,
		PaymentSessionID: event.SessionID,
		At:               service.nowFn().UTC(),
	})
	if err != nil {
		return result, OutcomeFailed, persistenceError(operationConfirmPayment, subjectReservation, codeTransit, err)
	}
	result.Updated = updated
	if len(updated) == 0 {
		return result, OutcomeDuplicate, nil
	}
	return result, OutcomeApplied, nil
}

func (service *Service) notifyPaid(ctx context.Context, ids []ReservationID) {
	if service.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, service.notifyTimeout)
	defer cancel()
	reservations, err := service.store.FindByIDs(ctx, ids)
	if err != nil {
		service.logOperation(ctx, OperationLog{
			Operation:      operationNotify,
			ReservationIDs: ids,
			Error:          persistenceError(operationNotify, subjectReservation, codeLookup, err),
		})
		return
	}
	for _, reservation := range reservations {
		notifyError := service.notifier.NotifyReservationPaid(ctx, reservation)
		service.logOperation(ctx, OperationLog{
			Operation:      operationNotify,
			UserID:         reservation.UserID,
			ReservationIDs: []ReservationID{reservation.ID},
			Error:          notifyError,
		})
	}
}

func (service *Service) lookupOffering(ctx context.Context, offerings map[PrestationID]Offering, id PrestationID) (Offering, error) {
	if offering, cached := offerings[id]; cached {
		return offering, nil
	}
	offering, err := service.catalog.FindByID(ctx, id)
	if err != nil {
		return Offering{}, err
	}
	offerings[id] = offering
	return offering, nil
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func isCompletionEvent(eventType string) bool {
	return eventType == EventCheckoutCompleted || eventType == EventAsyncPaymentSucceeded
}

func parseEntryDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if date, err := time.Parse(dateLayout, trimmed); err == nil {
		return date, nil
	}
	if instant, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return instant.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func persistenceError(operation string, subject string, code string, err error) error {
	return WrapError(operation, subject, code, fmt.Errorf("%w: %w", ErrPersistence, err))
}

type noopMetrics struct{}

func (noopMetrics) ReservationCreated(int) {}
func (noopMetrics) CheckoutSessionCreated(int) {}
func (noopMetrics) CheckoutSessionFailed() {}
func (noopMetrics) ConfirmationProcessed(string) {}
func (noopMetrics) ReservationsTransitioned(ReservationStatus, int) {}
