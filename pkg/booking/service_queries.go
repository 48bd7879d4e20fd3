package booking

import (
	"context"
	"fmt"
)

// GetReservation returns a reservation owned by userID.
func (service *Service) GetReservation(ctx context.Context, userID UserID, id ReservationID) (Reservation, error) {
	reservations, err := service.store.FindByIDs(ctx, []ReservationID{id})
	if err != nil {
		return Reservation{}, persistenceError(operationQuery, subjectReservation, codeLookup, err)
	}
	for _, reservation := range reservations {
		if reservation.ID == id && reservation.UserID == userID {
			return reservation, nil
		}
	}
	return Reservation{}, WrapError(operationQuery, subjectReservation, codeMissing, fmt.Errorf("%w: reservation %s", ErrNotFound, id.String()))
}

// ListUserReservations returns the reservations of userID, optionally restricted to one status.
func (service *Service) ListUserReservations(ctx context.Context, userID UserID, status *ReservationStatus) ([]Reservation, error) {
	if userID.String() == "" {
		return nil, WrapError(operationQuery, subjectReservation, codeInvalid, ErrInvalidUserID)
	}
	reservations, err := service.store.ListReservations(ctx, ReservationFilter{UserID: &userID, Status: status})
	if err != nil {
		return nil, persistenceError(operationQuery, subjectReservation, codeLookup, err)
	}
	return reservations, nil
}

// ListReservations returns every reservation, newest first.
func (service *Service) ListReservations(ctx context.Context) ([]Reservation, error) {
	reservations, err := service.store.ListReservations(ctx, ReservationFilter{})
	if err != nil {
		return nil, persistenceError(operationQuery, subjectReservation, codeLookup, err)
	}
	return reservations, nil
}

// CancelReservation moves a pending reservation to cancelled.
func (service *Service) CancelReservation(ctx context.Context, id ReservationID) error {
	operationError := service.cancelReservation(ctx, id)
	service.logOperation(ctx, OperationLog{
		Operation:      operationCancelReservation,
		ReservationIDs: []ReservationID{id},
		Error:          operationError,
	})
	if operationError == nil {
		service.metrics.ReservationsTransitioned(ReservationStatusCancelled, 1)
	}
	return operationError
}

func (service *Service) cancelReservation(ctx context.Context, id ReservationID) error {
	reservations, err := service.store.FindByIDs(ctx, []ReservationID{id})
	if err != nil {
		return persistenceError(operationCancelReservation, subjectReservation, codeLookup, err)
	}
	if len(reservations) == 0 {
		return WrapError(operationCancelReservation, subjectReservation, codeMissing, fmt.Errorf("%w: reservation %s", ErrNotFound, id.String()))
	}
	if reservations[0].Status.IsTerminal() {
		return WrapError(operationCancelReservation, subjectReservation, codeTransit, fmt.Errorf("%w: reservation is %s", ErrInvalidTransition, reservations[0].Status))
	}
	updated, err := service.store.BulkSetStatus(ctx, StatusTransition{
		IDs:  []ReservationID{id},
		From: ReservationStatusPending,
		To:   ReservationStatusCancelled,
		At:   service.nowFn().UTC(),
	})
	if err != nil {
		return persistenceError(operationCancelReservation, subjectReservation, codeTransit, err)
	}
	if len(updated) == 0 {
		return WrapError(operationCancelReservation, subjectReservation, codeTransit, fmt.Errorf("%w: reservation left pending concurrently", ErrInvalidTransition))
	}
	return nil
}
