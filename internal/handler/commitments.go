package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"settlecore/internal/auth"
	"settlecore/internal/ledger"
	"settlecore/internal/reveal"
)

type CommitmentHandler struct {
	Ledger    *ledger.Service
	Finalizer *reveal.Finalizer
}

func (h *CommitmentHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/commitments")
	group.POST("", h.commit)
	group.GET("/:hash", h.isCommitted)
	group.POST("/compute", h.compute)
}

type commitRequest struct {
	Hash string `json:"hash"`
}

func (h *CommitmentHandler) commit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Ledger.Commit(c.Request.Context(), auth.Caller(c), req.Hash); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"committed": true}, nil)
}

func (h *CommitmentHandler) isCommitted(c *gin.Context) {
	ok, err := h.Ledger.IsCommitted(c.Request.Context(), c.Param("hash"))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"committed": ok}, nil)
}

// invocationFields is the shared pre-image shape used by compute, verify and
// reveal requests.
type invocationFields struct {
	InvocationID string `json:"invocation_id"`
	RuleID       uint64 `json:"rule_id"`
	Asset        string `json:"asset"`
	Amount       string `json:"amount"`
	RandomValue  string `json:"random_value"`
	Salt         string `json:"salt"`
}

func (h *CommitmentHandler) compute(c *gin.Context) {
	var req invocationFields
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	in, err := parseInvocationFields(req)
	if err != nil {
		Fail(c, err)
		return
	}
	commitment, err := reveal.ComputeCommitment(
		h.Finalizer.Authority, in.InvocationID, in.RuleID, in.Asset, in.Amount, in.RandomValue, in.Salt)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"commitment": commitment}, nil)
}
