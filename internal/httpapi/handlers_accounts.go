package httpapi

import (
	"net/http"

	"github.com/MarkoPoloResearchLab/prestations/internal/accounts"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (handler *httpHandler) handleSignup(ctx *gin.Context) {
	var request signupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	user, err := handler.accounts.Register(ctx.Request.Context(), accounts.RegisterInput{
		Username: request.Username,
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		handler.respondError(ctx, "signup", err)
		return
	}
	ctx.JSON(http.StatusCreated, user)
}

func (handler *httpHandler) handleProfile(ctx *gin.Context) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeUnauthorized, "missing session"))
		return
	}
	user, err := handler.accounts.Profile(ctx.Request.Context(), claims.GetUserID())
	if err != nil {
		handler.respondError(ctx, "profile", err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (handler *httpHandler) handleListUsers(ctx *gin.Context) {
	users, err := handler.accounts.List(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, "list_users", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"users": users})
}
