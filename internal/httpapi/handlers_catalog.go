package httpapi

import (
	"net/http"

	"github.com/MarkoPoloResearchLab/prestations/pkg/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type prestationRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	AvailableDays []string        `json:"availableDays"`
}

func (request prestationRequest) input() catalog.Input {
	return catalog.Input{
		Name:          request.Name,
		Description:   request.Description,
		Price:         request.Price,
		AvailableDays: request.AvailableDays,
	}
}

func (handler *httpHandler) handleListPrestations(ctx *gin.Context) {
	prestations, err := handler.catalog.List(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, "list_prestations", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"prestations": prestations})
}

func (handler *httpHandler) handleGetPrestation(ctx *gin.Context) {
	prestation, err := handler.catalog.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, "get_prestation", err)
		return
	}
	ctx.JSON(http.StatusOK, prestation)
}

func (handler *httpHandler) handleGetPrestationByName(ctx *gin.Context) {
	prestation, err := handler.catalog.GetBySlug(ctx.Request.Context(), ctx.Param("name"))
	if err != nil {
		handler.respondError(ctx, "get_prestation", err)
		return
	}
	ctx.JSON(http.StatusOK, prestation)
}

func (handler *httpHandler) handleCreatePrestation(ctx *gin.Context) {
	var request prestationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	prestation, err := handler.catalog.Create(ctx.Request.Context(), request.input())
	if err != nil {
		handler.respondError(ctx, "create_prestation", err)
		return
	}
	ctx.JSON(http.StatusCreated, prestation)
}

func (handler *httpHandler) handleUpdatePrestation(ctx *gin.Context) {
	var request prestationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return
	}
	prestation, err := handler.catalog.Update(ctx.Request.Context(), ctx.Param("id"), request.input())
	if err != nil {
		handler.respondError(ctx, "update_prestation", err)
		return
	}
	ctx.JSON(http.StatusOK, prestation)
}

func (handler *httpHandler) handleDeletePrestation(ctx *gin.Context) {
	if err := handler.catalog.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		handler.respondError(ctx, "delete_prestation", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
