package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"settlecore/internal/auth"
	"settlecore/internal/fees"
	"settlecore/internal/models"
	"settlecore/internal/reveal"
)

// InvocationReader is the read path for finalized records.
type InvocationReader interface {
	GetInvocation(ctx context.Context, invocationID string) (*models.Invocation, error)
}

type InvocationHandler struct {
	Finalizer *reveal.Finalizer
	Reader    InvocationReader
}

func (h *InvocationHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/invocations")
	group.POST("/:id/reveal", h.reveal)
	group.GET("/:id", h.get)
	group.POST("/verify", h.verify)
}

type revealRequest struct {
	RuleID      uint64 `json:"rule_id"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	RandomValue string `json:"random_value"`
	Salt        string `json:"salt"`
}

type invocationView struct {
	InvocationID string `json:"invocation_id"`
	RuleID       uint64 `json:"rule_id"`
	Asset        string `json:"asset"`
	Amount       string `json:"amount"`
	OutcomeIndex int    `json:"outcome_index"`
	FeeCharged   string `json:"fee_charged"`
	Finalized    bool   `json:"finalized"`
	FinalizedAt  string `json:"finalized_at"`
}

func (h *InvocationHandler) reveal(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	in, err := parseInvocationFields(invocationFields{
		InvocationID: c.Param("id"),
		RuleID:       req.RuleID,
		Asset:        req.Asset,
		Amount:       req.Amount,
		RandomValue:  req.RandomValue,
		Salt:         req.Salt,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	record, err := h.Finalizer.RevealWithAmount(c.Request.Context(), auth.Caller(c), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, viewInvocation(record), nil)
}

func (h *InvocationHandler) get(c *gin.Context) {
	id := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Param("id")), "0x"))
	item, err := h.Reader.GetInvocation(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "invocation not finalized", nil)
		return
	}
	Ok(c, viewInvocation(item), nil)
}

type verifyRequest struct {
	invocationFields
	Commitment string `json:"commitment"`
}

func (h *InvocationHandler) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	in, err := parseInvocationFields(req.invocationFields)
	if err != nil {
		Fail(c, err)
		return
	}
	ok, err := h.Finalizer.VerifyInvocationInputs(c.Request.Context(), in, req.Commitment)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"verified": ok}, nil)
}

func viewInvocation(item *models.Invocation) invocationView {
	return invocationView{
		InvocationID: item.InvocationID,
		RuleID:       item.RuleID,
		Asset:        item.Asset,
		Amount:       item.Amount.String(),
		OutcomeIndex: item.OutcomeIndex,
		FeeCharged:   item.FeeCharged.String(),
		Finalized:    item.Finalized,
		FinalizedAt:  item.FinalizedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func parseInvocationFields(req invocationFields) (reveal.Input, error) {
	invocationID, err := reveal.ParseHex32(req.InvocationID)
	if err != nil {
		return reveal.Input{}, err
	}
	salt, err := reveal.ParseHex32(req.Salt)
	if err != nil {
		return reveal.Input{}, err
	}
	randomValue, err := reveal.ParseRandom(req.RandomValue)
	if err != nil {
		return reveal.Input{}, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || amount.IsNegative() || !amount.IsInteger() {
		return reveal.Input{}, fees.ErrNegativeAmount
	}
	return reveal.Input{
		InvocationID: invocationID,
		RuleID:       req.RuleID,
		Asset:        strings.TrimSpace(req.Asset),
		Amount:       amount,
		RandomValue:  randomValue,
		Salt:         salt,
	}, nil
}
