package transactions

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"concertticket/internal/ledger"
	"concertticket/internal/shared/utils/response"
	"concertticket/internal/token"
	"concertticket/internal/venues"
	"concertticket/pkg/codec"
)

const (
	MIMECBOR = "application/cbor"

	maxTransactionBytes = 64 << 10
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Submit accepts a signed transaction as JSON or as CBOR
// (Content-Type: application/cbor).
func (c *Controller) Submit(ctx *gin.Context) {
	tx, err := bindTransaction(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid transaction", nil, err.Error())
		return
	}

	record, err := c.service.Submit(ctx.Request.Context(), tx)
	if err != nil {
		c.respondSubmitError(ctx, tx, record, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Transaction executed successfully",
		SubmitResponse{Signature: record.Signature, Record: record}, nil)
}

func bindTransaction(ctx *gin.Context) (*ledger.Transaction, error) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxTransactionBytes)

	var tx ledger.Transaction
	if ctx.ContentType() == MIMECBOR {
		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			return nil, err
		}
		if err := codec.Unmarshal(body, &tx); err != nil {
			return nil, err
		}
		return &tx, nil
	}
	if err := ctx.ShouldBindJSON(&tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Controller) respondSubmitError(ctx *gin.Context, tx *ledger.Transaction, record *ledger.TransactionRecord, err error) {
	detail := programErrorDetail(err)

	// The transaction ran and was recorded as failed.
	if record != nil {
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Transaction failed",
			SubmitResponse{Signature: record.Signature, Record: record}, detail)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrAlreadyProcessed), errors.Is(err, ledger.ErrStaleAccount):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidSignature),
		errors.Is(err, ledger.ErrMissingSignature),
		errors.Is(err, ledger.ErrEmptyTransaction),
		errors.Is(err, ledger.ErrUnknownProgram):
		status = http.StatusBadRequest
	default:
		_ = ctx.Error(err)
	}
	response.RespondJSON(ctx, "error", status, "Transaction rejected",
		SubmitResponse{Signature: tx.ID()}, detail)
}

// programErrorDetail describes err, including its program code when the
// failing program supplied one.
func programErrorDetail(err error) *response.ProgramErrorDetail {
	detail := &response.ProgramErrorDetail{Message: err.Error()}

	var ixErr *ledger.InstructionError
	if errors.As(err, &ixErr) {
		index := ixErr.Index
		detail.Instruction = &index
	}
	if code, ok := ledger.ErrorCodeOf(err); ok {
		detail.Code = code
	}

	var venueErr venues.Error
	var tokenErr token.Error
	switch {
	case errors.As(err, &venueErr):
		detail.Name = venueErr.Code.String()
	case errors.As(err, &tokenErr):
		detail.Name = tokenErr.Code.String()
	}
	return detail
}

func (c *Controller) GetTransaction(ctx *gin.Context) {
	var uri SignatureURI
	if err := ctx.ShouldBindUri(&uri); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid signature", nil, response.ValidationErrors(err))
		return
	}
	sig, _ := ledger.ParseSignature(uri.Signature)

	record, err := c.service.GetTransaction(ctx.Request.Context(), sig)
	if err != nil {
		c.respondLookupError(ctx, err, "Failed to get transaction")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Transaction retrieved successfully", record, nil)
}

func (c *Controller) GetAccount(ctx *gin.Context) {
	var uri AddressURI
	if err := ctx.ShouldBindUri(&uri); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid address", nil, response.ValidationErrors(err))
		return
	}

	account, err := c.service.GetAccount(ctx.Request.Context(), ledger.MustParsePubkey(uri.Address))
	if err != nil {
		c.respondLookupError(ctx, err, "Failed to get account")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Account retrieved successfully", account, nil)
}

func (c *Controller) GetTokenAccount(ctx *gin.Context) {
	var uri AddressURI
	if err := ctx.ShouldBindUri(&uri); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid address", nil, response.ValidationErrors(err))
		return
	}

	account, err := c.service.GetTokenAccount(ctx.Request.Context(), ledger.MustParsePubkey(uri.Address))
	if err != nil {
		c.respondLookupError(ctx, err, "Failed to get token account")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Token account retrieved successfully", account, nil)
}

func (c *Controller) GetPrograms(ctx *gin.Context) {
	response.RespondJSON(ctx, "success", http.StatusOK, "Programs retrieved successfully", c.service.Programs(), nil)
}

func (c *Controller) respondLookupError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ErrNotTokenAccount):
		response.RespondJSON(ctx, "error", http.StatusNotFound, message, nil, err.Error())
	default:
		_ = ctx.Error(err)
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, message, nil, err.Error())
	}
}
