package venues

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"concertticket/internal/ledger"
	"concertticket/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) GetVenue(ctx *gin.Context) {
	var uri VenueURI
	if err := ctx.ShouldBindUri(&uri); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid venue id", nil, response.ValidationErrors(err))
		return
	}

	venue, err := c.service.GetVenue(ctx.Request.Context(), uri.VenueID)
	if err != nil {
		c.respondError(ctx, err, "Failed to get venue")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Venue retrieved successfully", venue, nil)
}

func (c *Controller) GetReceipt(ctx *gin.Context) {
	var uri ReceiptURI
	if err := ctx.ShouldBindUri(&uri); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid receipt path", nil, response.ValidationErrors(err))
		return
	}
	buyer := ledger.MustParsePubkey(uri.Buyer)

	receipt, err := c.service.GetReceipt(ctx.Request.Context(), uri.VenueID, buyer)
	if err != nil {
		c.respondError(ctx, err, "Failed to get receipt")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Receipt retrieved successfully", receipt, nil)
}

func (c *Controller) respondError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrVenueNotFound), errors.Is(err, ErrReceiptNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, message, nil, err.Error())
	case errors.Is(err, ledger.ErrMaxSeedLengthExceeded), errors.Is(err, ledger.ErrInvalidSeeds):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, message, nil, err.Error())
	default:
		_ = ctx.Error(err)
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, message, nil, err.Error())
	}
}
