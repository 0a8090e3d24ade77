package operator

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"concertticket/internal/ledger"
	"concertticket/internal/shared/utils/response"
	"concertticket/internal/shared/validation"
	applogger "concertticket/pkg/logger"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validation.New(),
	}
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, response.ValidationErrors(err))
		return
	}

	resp, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			applogger.GetDefault().LogAuthFailure(ctx.Request.Context(), "invalid operator key", ctx.ClientIP())
			response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid operator key", nil, nil)
		case errors.Is(err, ErrOperatorDisabled):
			response.RespondJSON(ctx, "error", http.StatusForbidden, "Operator login is disabled", nil, nil)
		default:
			_ = ctx.Error(err)
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to log in", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", resp, nil)
}

func (c *Controller) Faucet(ctx *gin.Context) {
	var req FaucetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, response.ValidationErrors(err))
		return
	}

	resp, record, err := c.service.Faucet(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrAmountTooLarge):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Amount exceeds the faucet limit", nil, err.Error())
		case record != nil:
			detail := &response.ProgramErrorDetail{Message: err.Error()}
			if code, ok := ledger.ErrorCodeOf(err); ok {
				detail.Code = code
			}
			response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Faucet transaction failed", record, detail)
		default:
			_ = ctx.Error(err)
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Faucet failed", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Tokens minted successfully", resp, nil)
}

func (c *Controller) FaucetInfo(ctx *gin.Context) {
	response.RespondJSON(ctx, "success", http.StatusOK, "Faucet retrieved successfully", c.service.Info(), nil)
}
