package gormstore

import (
	"context"
	"fmt"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsertReservation stores a reservation with its entries.
func (store *Store) InsertReservation(ctx context.Context, reservation booking.Reservation) error {
	model := Reservation{
		ID:        reservation.ID.String(),
		UserID:    reservation.UserID.String(),
		Status:    reservation.Status.String(),
		PaidAt:    reservation.PaidAt,
		CreatedAt: reservation.CreatedAt,
		UpdatedAt: reservation.CreatedAt,
		Entries:   make([]ReservationEntry, 0, len(reservation.Entries)),
	}
	if reservation.PaymentSessionID != "" {
		sessionID := reservation.PaymentSessionID
		model.PaymentSessionID = &sessionID
	}
	for position, entry := range reservation.Entries {
		model.Entries = append(model.Entries, ReservationEntry{
			Position:     position,
			PrestationID: entry.PrestationID.String(),
			Name:         entry.Name,
			Price:        entry.Price,
			Date:         entry.Date,
		})
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return wrapStoreError(errorSubjectReservation, errorCodeDuplicate, err)
	}
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeInsert, err)
	}
	return nil
}

// FindByIDs loads the reservations among ids, in request order. Unknown ids are skipped.
func (store *Store) FindByIDs(ctx context.Context, ids []booking.ReservationID) ([]booking.Reservation, error) {
	rawIDs := reservationIDStrings(ids)
	if len(rawIDs) == 0 {
		return nil, nil
	}
	var rows []Reservation
	err := store.db.WithContext(ctx).
		Preload("Entries", orderEntries).
		Where("id IN ?", rawIDs).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
	}
	byID := make(map[string]Reservation, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	reservations := make([]booking.Reservation, 0, len(rows))
	for _, rawID := range rawIDs {
		row, found := byID[rawID]
		if !found {
			continue
		}
		reservation, err := mapReservation(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

// ListReservations returns matching reservations, newest first.
func (store *Store) ListReservations(ctx context.Context, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	query := store.db.WithContext(ctx).Preload("Entries", orderEntries)
	if filter.UserID != nil {
		query = query.Where("user_id = ?", filter.UserID.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	var rows []Reservation
	if err := query.Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	reservations := make([]booking.Reservation, 0, len(rows))
	for _, row := range rows {
		reservation, err := mapReservation(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

// BulkSetStatus locks the rows still in transition.From, updates them in one statement, and
// returns their ids.
func (store *Store) BulkSetStatus(ctx context.Context, transition booking.StatusTransition) ([]booking.ReservationID, error) {
	rawIDs := reservationIDStrings(transition.IDs)
	if len(rawIDs) == 0 {
		return nil, nil
	}
	var changed []string
	err := store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		err := transaction.Model(&Reservation{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND status = ?", rawIDs, transition.From.String()).
			Pluck("id", &changed).Error
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		updates := map[string]any{
			"status":     transition.To.String(),
			"updated_at": transition.At,
		}
		if transition.PaymentSessionID != "" {
			updates["payment_session_id"] = transition.PaymentSessionID
		}
		if transition.To == booking.ReservationStatusPaid {
			updates["paid_at"] = transition.At
		}
		result := transaction.Model(&Reservation{}).
			Where("id IN ? AND status = ?", changed, transition.From.String()).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(changed)) {
			return fmt.Errorf("updated %d of %d locked reservations", result.RowsAffected, len(changed))
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeUpdateStatus, err)
	}
	updated := make([]booking.ReservationID, 0, len(changed))
	for _, rawID := range changed {
		id, err := booking.NewReservationID(rawID)
		if err != nil {
			return nil, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
		}
		updated = append(updated, id)
	}
	return updated, nil
}

func orderEntries(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func reservationIDStrings(ids []booking.ReservationID) []string {
	rawIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id.String()) {
			rawIDs = append(rawIDs, id.String())
		}
	}
	return rawIDs
}

func mapReservation(row Reservation) (booking.Reservation, error) {
	id, err := booking.NewReservationID(row.ID)
	if err != nil {
		return booking.Reservation{}, err
	}
	userID, err := booking.NewUserID(row.UserID)
	if err != nil {
		return booking.Reservation{}, err
	}
	status, err := booking.ParseReservationStatus(row.Status)
	if err != nil {
		return booking.Reservation{}, err
	}
	entries := make([]booking.Entry, 0, len(row.Entries))
	for _, entryRow := range row.Entries {
		prestationID, err := booking.NewPrestationID(entryRow.PrestationID)
		if err != nil {
			return booking.Reservation{}, err
		}
		entries = append(entries, booking.Entry{
			PrestationID: prestationID,
			Name:         entryRow.Name,
			Price:        entryRow.Price,
			Date:         entryRow.Date.UTC(),
		})
	}
	reservation := booking.Reservation{
		ID:        id,
		UserID:    userID,
		Entries:   entries,
		Status:    status,
		CreatedAt: row.CreatedAt.UTC(),
	}
	if row.PaymentSessionID != nil {
		reservation.PaymentSessionID = *row.PaymentSessionID
	}
	if row.PaidAt != nil {
		paidAt := row.PaidAt.UTC()
		reservation.PaidAt = &paidAt
	}
	return reservation, nil
}
