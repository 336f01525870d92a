package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"settlecore/internal/auth"
	"settlecore/internal/fees"
	"settlecore/internal/ledger"
	"settlecore/internal/reveal"
	"settlecore/internal/rules"
	"settlecore/internal/selector"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps domain errors onto HTTP statuses: validation 400, state
// conflicts 409, authorization 403, timelock 425, missing prior state 404.
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rules.ErrEmptyRule),
		errors.Is(err, rules.ErrWeightSumInvalid),
		errors.Is(err, rules.ErrIndexOutOfRange),
		errors.Is(err, ledger.ErrInvalidCommitment),
		errors.Is(err, fees.ErrInvalidFeeBps),
		errors.Is(err, fees.ErrNegativeAmount),
		errors.Is(err, reveal.ErrBadHex32),
		errors.Is(err, reveal.ErrBadRandom),
		errors.Is(err, reveal.ErrAmountTooWide):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ledger.ErrCommitmentExists),
		errors.Is(err, reveal.ErrAlreadyFinalized),
		errors.Is(err, fees.ErrNoPendingUpdate):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, auth.ErrUnauthorized):
		Error(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, fees.ErrTimelockNotExpired):
		Error(c, http.StatusTooEarly, err.Error(), nil)
	case errors.Is(err, reveal.ErrNoMatchingCommitment),
		errors.Is(err, selector.ErrRuleNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
