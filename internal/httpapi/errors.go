package httpapi

import (
	"errors"
	"net/http"

	"github.com/MarkoPoloResearchLab/prestations/internal/accounts"
	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/MarkoPoloResearchLab/prestations/pkg/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	errorCodeInvalidPayload    = "invalid_payload"
	errorCodeInvalidInput      = "invalid_input"
	errorCodeNotFound          = "not_found"
	errorCodeUnauthorized      = "unauthorized"
	errorCodeForbidden         = "forbidden"
	errorCodeInvalidSignature  = "invalid_signature"
	errorCodeGateway           = "gateway_error"
	errorCodeInvalidTransition = "invalid_transition"
	errorCodeConflict          = "conflict"
	errorCodePersistence       = "persistence_error"
	errorCodeInternal          = "internal_error"
	internalErrorMessage       = "internal error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorResponse(code string, message string) gin.H {
	return gin.H{"error": errorBody{Code: code, Message: message}}
}

// statusForError maps domain errors onto an HTTP status and error code.
func statusForError(err error) (int, string) {
	if errors.Is(err, catalog.ErrDuplicateSlug) || errors.Is(err, accounts.ErrDuplicateUser) {
		return http.StatusConflict, errorCodeConflict
	}
	switch booking.Classify(err) {
	case booking.ErrAuthenticationFailed:
		return http.StatusBadRequest, errorCodeInvalidSignature
	case booking.ErrMalformedMetadata:
		return http.StatusOK, errorCodeInvalidInput
	case booking.ErrNotFound:
		return http.StatusNotFound, errorCodeNotFound
	case booking.ErrInvalidTransition:
		return http.StatusConflict, errorCodeInvalidTransition
	case booking.ErrGateway:
		return http.StatusBadGateway, errorCodeGateway
	case booking.ErrPersistence:
		return http.StatusInternalServerError, errorCodePersistence
	case booking.ErrInvalidInput:
		return http.StatusBadRequest, errorCodeInvalidInput
	default:
		return http.StatusInternalServerError, errorCodeInternal
	}
}

func (handler *httpHandler) respondError(ctx *gin.Context, operation string, err error) {
	status, code := statusForError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		handler.logger.Error("request failed", zap.String("operation", operation), zap.String("path", ctx.FullPath()), zap.Error(err))
		message = internalErrorMessage
	}
	if status == http.StatusBadGateway {
		message = "payment gateway unavailable"
	}
	ctx.JSON(status, errorResponse(code, message))
}
