package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"settlecore/internal/auth"
	"settlecore/internal/fees"
)

type FeeHandler struct {
	Fees *fees.Engine
}

func (h *FeeHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/fees")
	group.GET("/quote", h.quote)
	group.POST("/quote", h.emitQuote)
	group.GET("/config", h.config)
	group.POST("/updates", h.schedule)
	group.POST("/updates/execute", h.execute)
}

func (h *FeeHandler) quote(c *gin.Context) {
	amount, ok := parseAmount(c, c.Query("amount"))
	if !ok {
		return
	}
	fee, err := h.Fees.QuoteFee(amount)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"amount": amount.String(), "fee": fee.String()}, nil)
}

type emitQuoteRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

func (h *FeeHandler) emitQuote(c *gin.Context) {
	var req emitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}
	fee, err := h.Fees.EmitFeeQuote(c.Request.Context(), auth.Caller(c), strings.TrimSpace(req.Asset), amount)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"asset": req.Asset, "amount": amount.String(), "fee": fee.String()}, nil)
}

func (h *FeeHandler) config(c *gin.Context) {
	cfg := h.Fees.Config()
	data := gin.H{
		"fee_bps":              cfg.FeeBps,
		"fee_cap":              cfg.FeeCap.String(),
		"fee_recipient":        cfg.FeeRecipient,
		"update_delay_seconds": cfg.UpdateDelaySeconds,
	}
	if pending := h.Fees.PendingUpdate(); pending != nil {
		data["pending"] = gin.H{
			"new_fee_bps":       pending.NewFeeBps,
			"new_fee_cap":       pending.NewFeeCap.String(),
			"new_fee_recipient": pending.NewFeeRecipient,
			"eta":               pending.ETA,
		}
	}
	Ok(c, data, nil)
}

type scheduleRequest struct {
	NewFeeBps       int64  `json:"new_fee_bps"`
	NewFeeCap       string `json:"new_fee_cap"`
	NewFeeRecipient string `json:"new_fee_recipient"`
}

func (h *FeeHandler) schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	newCap, err := decimal.NewFromString(strings.TrimSpace(req.NewFeeCap))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid new_fee_cap", nil)
		return
	}
	pending, err := h.Fees.ScheduleFeeUpdate(
		c.Request.Context(), auth.Caller(c), req.NewFeeBps, newCap, strings.TrimSpace(req.NewFeeRecipient))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"eta": pending.ETA}, nil)
}

func (h *FeeHandler) execute(c *gin.Context) {
	cfg, err := h.Fees.ExecuteFeeUpdate(c.Request.Context(), auth.Caller(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{
		"fee_bps":       cfg.FeeBps,
		"fee_cap":       cfg.FeeCap.String(),
		"fee_recipient": cfg.FeeRecipient,
	}, nil)
}

func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid amount", nil)
		return decimal.Zero, false
	}
	return amount, true
}
