package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	signatureHeader = "Stripe-Signature"
	dateLayout      = "2006-01-02"
)

type cartItemRequest struct {
	PrestationID string          `json:"prestationId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Date         string          `json:"date"`
}

type createReservationRequest struct {
	Prestations []cartItemRequest `json:"prestations"`
}

type checkoutRequest struct {
	ReservationIDs []string `json:"reservationIds"`
}

type entryPayload struct {
	PrestationID string `json:"prestationId"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Date         string `json:"date"`
}

type reservationPayload struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Status           string         `json:"status"`
	PaymentSessionID string         `json:"paymentSessionId,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	PaidAt           *time.Time     `json:"paidAt,omitempty"`
	Prestations      []entryPayload `json:"prestations"`
}

func (handler *httpHandler) handleCreateReservation(ctx *gin.Context) {
	userID, ok := sessionUser(ctx)
	if !ok {
		return
	}
	var request createReservationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	items := make([]booking.CartItem, 0, len(request.Prestations))
	for _, item := range request.Prestations {
		items = append(items, booking.CartItem{
			PrestationID: item.PrestationID,
			Name:         item.Name,
			Price:        item.Price,
			Date:         item.Date,
		})
	}
	reservationID, err := handler.bookings.CreateReservation(ctx.Request.Context(), userID, items)
	if err != nil {
		handler.respondError(ctx, "create_reservation", err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"reservationId": reservationID.String()})
}

func (handler *httpHandler) handleListUserReservations(ctx *gin.Context) {
	handler.listUserReservations(ctx, nil)
}

func (handler *httpHandler) handleListPaidReservations(ctx *gin.Context) {
	paid := booking.ReservationStatusPaid
	handler.listUserReservations(ctx, &paid)
}

func (handler *httpHandler) listUserReservations(ctx *gin.Context, status *booking.ReservationStatus) {
	userID, ok := sessionUser(ctx)
	if !ok {
		return
	}
	reservations, err := handler.bookings.ListUserReservations(ctx.Request.Context(), userID, status)
	if err != nil {
		handler.respondError(ctx, "list_user_reservations", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservations": toReservationPayloads(reservations)})
}

func (handler *httpHandler) handleGetReservation(ctx *gin.Context) {
	userID, ok := sessionUser(ctx)
	if !ok {
		return
	}
	reservationID, err := booking.NewReservationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, "get_reservation", err)
		return
	}
	reservation, err := handler.bookings.GetReservation(ctx.Request.Context(), userID, reservationID)
	if err != nil {
		handler.respondError(ctx, "get_reservation", err)
		return
	}
	ctx.JSON(http.StatusOK, toReservationPayload(reservation))
}

// handleCreateCheckoutSession only bills reservations owned by the caller.
func (handler *httpHandler) handleCreateCheckoutSession(ctx *gin.Context) {
	userID, ok := sessionUser(ctx)
	if !ok {
		return
	}
	var request checkoutRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	if len(request.ReservationIDs) == 0 {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidInput, "reservationIds is required"))
		return
	}
	ids := make([]booking.ReservationID, 0, len(request.ReservationIDs))
	for _, raw := range request.ReservationIDs {
		reservationID, err := booking.NewReservationID(raw)
		if err != nil {
			handler.respondError(ctx, "create_payment_session", err)
			return
		}
		ids = append(ids, reservationID)
	}
	session, err := handler.bookings.CreateUserPaymentSession(ctx.Request.Context(), userID, ids)
	if err != nil {
		handler.respondError(ctx, "create_payment_session", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"url": session.URL, "sessionId": session.ID})
}

// handleWebhook verifies the signature over the untouched request body.
func (handler *httpHandler) handleWebhook(ctx *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, handler.webhookMaxBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			ctx.JSON(http.StatusRequestEntityTooLarge, errorResponse(errorCodeInvalidPayload, "payload too large"))
			return
		}
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "unreadable body"))
		return
	}
	result, err := handler.bookings.HandlePaymentConfirmation(ctx.Request.Context(), body, ctx.GetHeader(signatureHeader))
	if err != nil {
		if errors.Is(err, booking.ErrMalformedMetadata) {
			handler.logger.Warn("payment event acknowledged without reservations", zap.String("event_id", result.EventID), zap.Error(err))
			ctx.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
			return
		}
		handler.respondError(ctx, "confirm_payment", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"received": true,
		"handled":  result.Handled,
		"updated":  len(result.Updated),
	})
}

func (handler *httpHandler) handleListReservations(ctx *gin.Context) {
	reservations, err := handler.bookings.ListReservations(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, "list_reservations", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservations": toReservationPayloads(reservations)})
}

func (handler *httpHandler) handleCancelReservation(ctx *gin.Context) {
	reservationID, err := booking.NewReservationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, "cancel_reservation", err)
		return
	}
	if err := handler.bookings.CancelReservation(ctx.Request.Context(), reservationID); err != nil {
		handler.respondError(ctx, "cancel_reservation", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": reservationID.String(), "status": booking.ReservationStatusCancelled.String()})
}

func toReservationPayloads(reservations []booking.Reservation) []reservationPayload {
	payloads := make([]reservationPayload, 0, len(reservations))
	for _, reservation := range reservations {
		payloads = append(payloads, toReservationPayload(reservation))
	}
	return payloads
}

func toReservationPayload(reservation booking.Reservation) reservationPayload {
	entries := make([]entryPayload, 0, len(reservation.Entries))
	for _, entry := range reservation.Entries {
		entries = append(entries, entryPayload{
			PrestationID: entry.PrestationID.String(),
			Name:         entry.Name,
			Price:        entry.Price.StringFixed(2),
			Date:         entry.Date.UTC().Format(dateLayout),
		})
	}
	return reservationPayload{
		ID:               reservation.ID.String(),
		UserID:           reservation.UserID.String(),
		Status:           reservation.Status.String(),
		PaymentSessionID: reservation.PaymentSessionID,
		CreatedAt:        reservation.CreatedAt,
		PaidAt:           reservation.PaidAt,
		Prestations:      entries,
	}
}
