package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"settlecore/internal/auth"
	"settlecore/internal/models"
	"settlecore/internal/reveal"
	"settlecore/internal/rules"
	"settlecore/internal/selector"
)

// OutcomeLister is the read path for the pick endpoint.
type OutcomeLister interface {
	ListRuleOutcomes(ctx context.Context, ruleID uint64) ([]models.RuleOutcome, error)
}

type RuleHandler struct {
	Rules    *rules.Service
	Outcomes OutcomeLister
}

func (h *RuleHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/rules")
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.GET("/:id/outcomes/:index", h.getOutcome)
	group.GET("/:id/outcome-count", h.outcomeCount)
	group.GET("/:id/pick", h.pick)
}

type outcomeSpec struct {
	Kind      int32  `json:"kind"`
	WeightBps int64  `json:"weight_bps"`
	Param     string `json:"param"`
}

type createRuleRequest struct {
	Outcomes []outcomeSpec `json:"outcomes"`
}

type outcomeView struct {
	Index     int    `json:"index"`
	Kind      int32  `json:"kind"`
	WeightBps int64  `json:"weight_bps"`
	Param     string `json:"param"`
}

func (h *RuleHandler) create(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	outcomes := make([]models.RuleOutcome, 0, len(req.Outcomes))
	for _, o := range req.Outcomes {
		param := decimal.Zero
		if strings.TrimSpace(o.Param) != "" {
			v, err := decimal.NewFromString(strings.TrimSpace(o.Param))
			if err != nil {
				Error(c, http.StatusBadRequest, "invalid outcome param", nil)
				return
			}
			param = v
		}
		outcomes = append(outcomes, models.RuleOutcome{
			Kind:      o.Kind,
			WeightBps: o.WeightBps,
			Param:     param,
		})
	}

	ruleID, err := h.Rules.CreateRule(c.Request.Context(), auth.Caller(c), outcomes)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"rule_id": ruleID}, nil)
}

func (h *RuleHandler) get(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	item, err := h.Rules.Rule(c.Request.Context(), ruleID)
	if err != nil {
		Fail(c, err)
		return
	}
	views := make([]outcomeView, 0, len(item.Outcomes))
	for _, o := range item.Outcomes {
		views = append(views, outcomeView{
			Index:     o.Idx,
			Kind:      o.Kind,
			WeightBps: o.WeightBps,
			Param:     o.Param.String(),
		})
	}
	Ok(c, gin.H{
		"rule_id":    item.ID,
		"creator":    item.Creator,
		"created_at": item.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		"outcomes":   views,
	}, nil)
}

func (h *RuleHandler) getOutcome(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		Error(c, http.StatusBadRequest, "invalid outcome index", nil)
		return
	}
	item, err := h.Rules.GetOutcome(c.Request.Context(), ruleID, index)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, outcomeView{
		Index:     item.Idx,
		Kind:      item.Kind,
		WeightBps: item.WeightBps,
		Param:     item.Param.String(),
	}, nil)
}

func (h *RuleHandler) outcomeCount(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	count, err := h.Rules.OutcomeCount(c.Request.Context(), ruleID)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"rule_id": ruleID, "outcome_count": count}, nil)
}

func (h *RuleHandler) pick(c *gin.Context) {
	ruleID, ok := parseRuleID(c)
	if !ok {
		return
	}
	randomValue, err := reveal.ParseRandom(c.Query("random"))
	if err != nil {
		Fail(c, err)
		return
	}
	outcomes, err := h.Outcomes.ListRuleOutcomes(c.Request.Context(), ruleID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	index, err := selector.PickOutcome(outcomes, randomValue)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"rule_id": ruleID, "outcome_index": index}, nil)
}

func parseRuleID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid rule id", nil)
		return 0, false
	}
	return id, true
}
