package repository

import (
	"context"

	"gorm.io/gorm"

	"settlecore/internal/models"
)

// Repository is the persistence surface of the settlement core. The gorm
// implementation lives in repository/gorm; services declare the narrow
// subset they consume so tests can supply small fakes.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Rule store.
	CreateRule(ctx context.Context, item *models.Rule) error
	GetRule(ctx context.Context, id uint64) (*models.Rule, error)
	ListRuleOutcomes(ctx context.Context, ruleID uint64) ([]models.RuleOutcome, error)
	GetRuleOutcome(ctx context.Context, ruleID uint64, idx int) (*models.RuleOutcome, error)
	CountRuleOutcomes(ctx context.Context, ruleID uint64) (int64, error)
	CountRules(ctx context.Context) (int64, error)

	// Commitment ledger.
	InsertCommitment(ctx context.Context, item *models.Commitment) error
	HasCommitment(ctx context.Context, hash string) (bool, error)
	CountCommitments(ctx context.Context) (int64, error)

	// Invocations.
	InsertInvocationTx(ctx context.Context, tx *gorm.DB, item *models.Invocation) error
	GetInvocation(ctx context.Context, invocationID string) (*models.Invocation, error)
	CountInvocations(ctx context.Context) (int64, error)

	// Fee state singletons.
	GetFeeState(ctx context.Context) (*models.FeeState, error)
	SaveFeeState(ctx context.Context, item *models.FeeState) error
	GetPendingFeeUpdate(ctx context.Context) (*models.PendingFeeUpdate, error)
	SavePendingFeeUpdate(ctx context.Context, item *models.PendingFeeUpdate) error
	DeletePendingFeeUpdate(ctx context.Context) error

	// Event stream.
	AppendEvent(ctx context.Context, item *models.LedgerEvent) error
	AppendEventTx(ctx context.Context, tx *gorm.DB, item *models.LedgerEvent) error
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]models.LedgerEvent, error)
}
