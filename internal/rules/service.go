// Package rules owns the immutable weighted-outcome rule definitions.
package rules

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"settlecore/internal/events"
	"settlecore/internal/models"
	"settlecore/internal/selector"
)

var (
	ErrEmptyRule        = errors.New("rule has no outcomes")
	ErrWeightSumInvalid = errors.New("outcome weights must sum to 10000 bps")
	ErrIndexOutOfRange  = errors.New("outcome index out of range")
)

// Store is the persistence subset the rule service consumes.
type Store interface {
	CreateRule(ctx context.Context, item *models.Rule) error
	GetRule(ctx context.Context, id uint64) (*models.Rule, error)
	GetRuleOutcome(ctx context.Context, ruleID uint64, idx int) (*models.RuleOutcome, error)
	CountRuleOutcomes(ctx context.Context, ruleID uint64) (int64, error)
}

type Service struct {
	Store  Store
	Logger *zap.Logger
	Sink   events.Sink
}

// CreateRule validates the outcome sequence, stores it verbatim and returns
// the newly assigned sequential rule id.
func (s *Service) CreateRule(ctx context.Context, creator string, outcomes []models.RuleOutcome) (uint64, error) {
	if len(outcomes) == 0 {
		return 0, ErrEmptyRule
	}
	var sum int64
	for _, o := range outcomes {
		if o.WeightBps < 0 || o.WeightBps > selector.WeightScale {
			return 0, fmt.Errorf("%w: weight %d outside [0,%d]", ErrWeightSumInvalid, o.WeightBps, selector.WeightScale)
		}
		sum += o.WeightBps
	}
	if sum != selector.WeightScale {
		return 0, fmt.Errorf("%w: got %d", ErrWeightSumInvalid, sum)
	}

	item := &models.Rule{
		Creator:  creator,
		Outcomes: make([]models.RuleOutcome, len(outcomes)),
	}
	for i, o := range outcomes {
		item.Outcomes[i] = models.RuleOutcome{
			Idx:       i,
			Kind:      o.Kind,
			WeightBps: o.WeightBps,
			Param:     o.Param,
		}
	}
	if err := s.Store.CreateRule(ctx, item); err != nil {
		return 0, fmt.Errorf("create rule: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("rule created",
			zap.Uint64("rule_id", item.ID),
			zap.String("creator", creator),
			zap.Int("outcomes", len(outcomes)),
		)
	}
	if s.Sink != nil {
		s.Sink.Emit(ctx, events.Event{
			Type:    events.TypeRuleCreated,
			Payload: events.RuleCreated{RuleID: item.ID, Creator: creator},
		})
	}
	return item.ID, nil
}

// Rule returns a full definition with its ordered outcome sequence.
func (s *Service) Rule(ctx context.Context, id uint64) (*models.Rule, error) {
	item, err := s.Store.GetRule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	if item == nil {
		return nil, selector.ErrRuleNotFound
	}
	return item, nil
}

// GetOutcome returns one outcome of a rule by position. An unknown rule id
// has zero outcomes, so it surfaces as an out-of-range index.
func (s *Service) GetOutcome(ctx context.Context, ruleID uint64, idx int) (*models.RuleOutcome, error) {
	if idx < 0 {
		return nil, ErrIndexOutOfRange
	}
	item, err := s.Store.GetRuleOutcome(ctx, ruleID, idx)
	if err != nil {
		return nil, fmt.Errorf("get outcome: %w", err)
	}
	if item == nil {
		return nil, ErrIndexOutOfRange
	}
	return item, nil
}

// OutcomeCount returns the outcome count of a rule, 0 for unknown rule ids.
func (s *Service) OutcomeCount(ctx context.Context, ruleID uint64) (int64, error) {
	count, err := s.Store.CountRuleOutcomes(ctx, ruleID)
	if err != nil {
		return 0, fmt.Errorf("outcome count: %w", err)
	}
	return count, nil
}
