package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolationCode   = "23505"
	errorOperationStore     = "store"
	errorSubjectEntry       = "entry"
	errorSubjectReservation = "reservation"
	errorSubjectTransaction = "transaction"
	errorCodeBegin          = "begin"
	errorCodeCommit         = "commit"
	errorCodeDuplicate      = "duplicate"
	errorCodeGet            = "get"
	errorCodeInsert         = "insert"
	errorCodeInvalid        = "invalid"
	errorCodeList           = "list"
	errorCodeUpdateStatus   = "update_status"

	sqlInsertReservation = `
		insert into reservations(id, user_id, status, payment_session_id, paid_at, created_at, updated_at)
		values ($1, $2, $3, nullif($4, ''), $5, $6, $6)
	`

	sqlInsertEntry = `
		insert into reservation_entries(reservation_id, position, prestation_id, name, price, date)
		values ($1, $2, $3, $4, $5::numeric, $6)
	`

	sqlSelectReservations = `
		select id::text, user_id, status, coalesce(payment_session_id, ''), paid_at, created_at
		from reservations
		where id = any($1::uuid[])
	`

	sqlListReservations = `
		select id::text, user_id, status, coalesce(payment_session_id, ''), paid_at, created_at
		from reservations
		where ($1::text = '' or user_id = $1::text) and ($2::text = '' or status = $2::text)
		order by created_at desc, id
	`

	sqlSelectEntries = `
		select reservation_id::text, prestation_id, name, price::text, date
		from reservation_entries
		where reservation_id = any($1::uuid[])
		order by reservation_id, position
	`

	sqlBulkSetStatus = `
		update reservations
		set status = $3::text,
			payment_session_id = coalesce(nullif($4::text, ''), payment_session_id),
			paid_at = case when $3::text = 'paid' then $5::timestamptz else paid_at end,
			updated_at = $5::timestamptz
		where id = any($1::uuid[]) and status = $2::text
		returning id::text
	`
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store implements booking.Store using a pgx connection pool. It expects the schema created by
// the gorm migration.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks database connectivity.
func (store *Store) Ping(ctx context.Context) error {
	return store.pool.Ping(ctx)
}

// InsertReservation stores a reservation and its entries in one transaction.
func (store *Store) InsertReservation(ctx context.Context, reservation booking.Reservation) error {
	return store.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, sqlInsertReservation,
			reservation.ID.String(),
			reservation.UserID.String(),
			reservation.Status.String(),
			reservation.PaymentSessionID,
			reservation.PaidAt,
			reservation.CreatedAt,
		)
		if isUniqueViolation(err) {
			return wrapStoreError(errorSubjectReservation, errorCodeDuplicate, err)
		}
		if err != nil {
			return wrapStoreError(errorSubjectReservation, errorCodeInsert, err)
		}
		batch := &pgx.Batch{}
		for position, entry := range reservation.Entries {
			batch.Queue(sqlInsertEntry,
				reservation.ID.String(),
				position,
				entry.PrestationID.String(),
				entry.Name,
				entry.Price.String(),
				entry.Date,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return wrapStoreError(errorSubjectEntry, errorCodeInsert, err)
		}
		return nil
	})
}

// FindByIDs loads the reservations among ids, in request order. Unknown ids are skipped.
func (store *Store) FindByIDs(ctx context.Context, ids []booking.ReservationID) ([]booking.Reservation, error) {
	rawIDs := reservationIDStrings(ids)
	if len(rawIDs) == 0 {
		return nil, nil
	}
	loaded, err := loadReservations(ctx, store.pool, sqlSelectReservations, rawIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]booking.Reservation, len(loaded))
	for _, reservation := range loaded {
		byID[reservation.ID.String()] = reservation
	}
	reservations := make([]booking.Reservation, 0, len(loaded))
	for _, rawID := range rawIDs {
		if reservation, found := byID[rawID]; found {
			reservations = append(reservations, reservation)
		}
	}
	return reservations, nil
}

// ListReservations returns matching reservations, newest first.
func (store *Store) ListReservations(ctx context.Context, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	userFilter := ""
	if filter.UserID != nil {
		userFilter = filter.UserID.String()
	}
	statusFilter := ""
	if filter.Status != nil {
		statusFilter = filter.Status.String()
	}
	return loadReservations(ctx, store.pool, sqlListReservations, userFilter, statusFilter)
}

// BulkSetStatus applies the transition in a single filtered update and returns the changed ids.
func (store *Store) BulkSetStatus(ctx context.Context, transition booking.StatusTransition) ([]booking.ReservationID, error) {
	rawIDs := reservationIDStrings(transition.IDs)
	if len(rawIDs) == 0 {
		return nil, nil
	}
	rows, err := store.pool.Query(ctx, sqlBulkSetStatus,
		rawIDs,
		transition.From.String(),
		transition.To.String(),
		transition.PaymentSessionID,
		transition.At,
	)
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeUpdateStatus, err)
	}
	changed, err := pgx.CollectRows(rows, pgx.RowTo[string])
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

func (store *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

type reservationRow struct {
	id               string
	userID           string
	status           string
	paymentSessionID string
	paidAt           *time.Time
	createdAt        time.Time
}

func loadReservations(ctx context.Context, db querier, query string, args ...any) ([]booking.Reservation, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	var headers []reservationRow
	for rows.Next() {
		var row reservationRow
		if err := rows.Scan(&row.id, &row.userID, &row.status, &row.paymentSessionID, &row.paidAt, &row.createdAt); err != nil {
			rows.Close()
			return nil, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
		}
		headers = append(headers, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	if len(headers) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(headers))
	for _, header := range headers {
		ids = append(ids, header.id)
	}
	entries, err := loadEntries(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	reservations := make([]booking.Reservation, 0, len(headers))
	for _, header := range headers {
		reservation, err := mapReservation(header, entries[header.id])
		if err != nil {
			return nil, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

func loadEntries(ctx context.Context, db querier, reservationIDs []string) (map[string][]booking.Entry, error) {
	rows, err := db.Query(ctx, sqlSelectEntries, reservationIDs)
	if err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	defer rows.Close()
	entries := make(map[string][]booking.Entry, len(reservationIDs))
	for rows.Next() {
		var (
			reservationID string
			prestationID  string
			name          string
			priceText     string
			date          time.Time
		)
		if err := rows.Scan(&reservationID, &prestationID, &name, &priceText, &date); err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeGet, err)
		}
		parsedPrestationID, err := booking.NewPrestationID(prestationID)
		if err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
		}
		price, err := decimal.NewFromString(priceText)
		if err != nil {
			return nil, wrapStoreError(errorSubjectEntry, errorCodeInvalid, err)
		}
		entries[reservationID] = append(entries[reservationID], booking.Entry{
			PrestationID: parsedPrestationID,
			Name:         name,
			Price:        price,
			Date:         date.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectEntry, errorCodeList, err)
	}
	return entries, nil
}

func mapReservation(row reservationRow, entries []booking.Entry) (booking.Reservation, error) {
	id, err := booking.NewReservationID(row.id)
	if err != nil {
		return booking.Reservation{}, err
	}
	userID, err := booking.NewUserID(row.userID)
	if err != nil {
		return booking.Reservation{}, err
	}
	status, err := booking.ParseReservationStatus(row.status)
	if err != nil {
		return booking.Reservation{}, err
	}
	if len(entries) == 0 {
		return booking.Reservation{}, fmt.Errorf("reservation %s has no entries", row.id)
	}
	reservation := booking.Reservation{
		ID:               id,
		UserID:           userID,
		Entries:          entries,
		Status:           status,
		PaymentSessionID: row.paymentSessionID,
		CreatedAt:        row.createdAt.UTC(),
	}
	if row.paidAt != nil {
		paidAt := row.paidAt.UTC()
		reservation.PaidAt = &paidAt
	}
	return reservation, nil
}

func reservationIDStrings(ids []booking.ReservationID) []string {
	rawIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id.String()); err == nil {
			rawIDs = append(rawIDs, id.String())
		}
	}
	return rawIDs
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return err != nil && errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode
}
