// Package reveal finalizes invocations: it checks the revealed fields
// against the commitment ledger, selects the outcome, charges the fee and
// writes the single permanent record per invocation identifier.
package reveal

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"settlecore/internal/auth"
	"settlecore/internal/events"
	"settlecore/internal/ledger"
	"settlecore/internal/models"
	"settlecore/internal/selector"
)

var (
	ErrAlreadyFinalized     = errors.New("invocation already finalized")
	ErrNoMatchingCommitment = errors.New("no matching commitment")
)

// Store is the persistence subset the finalizer consumes.
type Store interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	HasCommitment(ctx context.Context, hash string) (bool, error)
	GetInvocation(ctx context.Context, invocationID string) (*models.Invocation, error)
	InsertInvocationTx(ctx context.Context, tx *gorm.DB, item *models.Invocation) error
	AppendEventTx(ctx context.Context, tx *gorm.DB, item *models.LedgerEvent) error
	ListRuleOutcomes(ctx context.Context, ruleID uint64) ([]models.RuleOutcome, error)
}

// FeeQuoter is satisfied by the fee engine.
type FeeQuoter interface {
	QuoteFee(amount decimal.Decimal) (decimal.Decimal, error)
}

type Finalizer struct {
	Store  Store
	Fees   FeeQuoter
	Logger *zap.Logger
	// Sink receives the reveal events after the transaction commits. The
	// canonical ledger rows are appended inside the transaction itself, so
	// wire live sinks (log, websocket) here, not the store sink.
	Sink      events.Sink
	Authority string
}

// Input is the full pre-image the authority discloses at reveal time.
type Input struct {
	InvocationID [32]byte
	RuleID       uint64
	Asset        string
	Amount       decimal.Decimal
	RandomValue  *big.Int
	Salt         [32]byte
}

// RevealWithAmount finalizes an invocation at most once. The record and its
// two ledger events commit in one transaction, so a failed reveal leaves no
// trace: a concurrent retry of the same identifier loses on the primary key
// and reports ErrAlreadyFinalized without emitting anything.
func (f *Finalizer) RevealWithAmount(ctx context.Context, caller string, in Input) (*models.Invocation, error) {
	if caller != f.Authority {
		return nil, auth.ErrUnauthorized
	}

	invocationID := hex.EncodeToString(in.InvocationID[:])
	existing, err := f.Store.GetInvocation(ctx, invocationID)
	if err != nil {
		return nil, fmt.Errorf("invocation lookup: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyFinalized
	}

	commitment, err := ComputeCommitment(f.Authority, in.InvocationID, in.RuleID, in.Asset, in.Amount, in.RandomValue, in.Salt)
	if err != nil {
		return nil, err
	}
	committed, err := f.Store.HasCommitment(ctx, commitment)
	if err != nil {
		return nil, fmt.Errorf("commitment lookup: %w", err)
	}
	if !committed {
		return nil, ErrNoMatchingCommitment
	}

	outcomes, err := f.Store.ListRuleOutcomes(ctx, in.RuleID)
	if err != nil {
		return nil, fmt.Errorf("rule outcomes: %w", err)
	}
	outcomeIndex, err := selector.PickOutcomeLogged(outcomes, in.RandomValue, f.Logger)
	if err != nil {
		return nil, err
	}
	feeCharged, err := f.Fees.QuoteFee(in.Amount)
	if err != nil {
		return nil, err
	}

	record := &models.Invocation{
		InvocationID: invocationID,
		RuleID:       in.RuleID,
		Asset:        in.Asset,
		Amount:       in.Amount,
		OutcomeIndex: outcomeIndex,
		FeeCharged:   feeCharged,
		Finalized:    true,
		FinalizedAt:  time.Now().UTC(),
	}
	// The random value becomes public with the Revealed event: the reveal
	// half of commit-reveal.
	revealed := events.Event{
		Type: events.TypeRevealed,
		Payload: events.Revealed{
			Authority:    f.Authority,
			InvocationID: invocationID,
			RandomValue:  in.RandomValue.String(),
			Commitment:   commitment,
		},
	}
	finalized := events.Event{
		Type: events.TypeOutcomeFinalized,
		Payload: events.OutcomeFinalized{
			InvocationID: invocationID,
			RuleID:       in.RuleID,
			Asset:        in.Asset,
			Amount:       in.Amount,
			OutcomeIndex: outcomeIndex,
			FeeCharged:   feeCharged,
		},
	}

	err = f.Store.InTx(ctx, func(tx *gorm.DB) error {
		if err := f.Store.InsertInvocationTx(ctx, tx, record); err != nil {
			return err
		}
		for _, ev := range []events.Event{revealed, finalized} {
			row, err := events.Record(ev)
			if err != nil {
				return err
			}
			if err := f.Store.AppendEventTx(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyFinalized
		}
		return nil, fmt.Errorf("finalize invocation: %w", err)
	}

	if f.Logger != nil {
		f.Logger.Info("invocation finalized",
			zap.String("invocation_id", invocationID),
			zap.Uint64("rule_id", in.RuleID),
			zap.String("asset", in.Asset),
			zap.Int("outcome_index", outcomeIndex),
			zap.String("fee_charged", feeCharged.String()),
		)
	}
	if f.Sink != nil {
		f.Sink.Emit(ctx, revealed)
		f.Sink.Emit(ctx, finalized)
	}
	return record, nil
}

// VerifyInvocationInputs recomputes the commitment from claimed fields and
// reports whether it equals the claimed hash and was actually committed.
// Read-only audit helper; never mutates state.
func (f *Finalizer) VerifyInvocationInputs(ctx context.Context, in Input, claimedHash string) (bool, error) {
	claimed, err := ledger.NormalizeHash(claimedHash)
	if err != nil {
		return false, nil
	}
	computed, err := ComputeCommitment(f.Authority, in.InvocationID, in.RuleID, in.Asset, in.Amount, in.RandomValue, in.Salt)
	if err != nil {
		return false, err
	}
	if computed != claimed {
		return false, nil
	}
	committed, err := f.Store.HasCommitment(ctx, computed)
	if err != nil {
		return false, fmt.Errorf("commitment lookup: %w", err)
	}
	return committed, nil
}
