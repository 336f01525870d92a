// Package fees computes the capped bps fee charged at finalization and
// governs the fee parameters through a two-phase timelock.
package fees

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"settlecore/internal/auth"
	"settlecore/internal/events"
	"settlecore/internal/models"
	"settlecore/internal/selector"
)

var (
	ErrNoPendingUpdate    = errors.New("no pending fee update")
	ErrTimelockNotExpired = errors.New("timelock not expired")
	ErrInvalidFeeBps      = errors.New("fee bps outside [0,10000]")
	ErrNegativeAmount     = errors.New("amount must be a non-negative integer")
)

// Config is the live fee configuration. Read by every quote, replaced
// atomically by ExecuteFeeUpdate.
type Config struct {
	FeeBps             int64
	FeeCap             decimal.Decimal
	FeeRecipient       string
	UpdateDelaySeconds int64
}

// Pending is a scheduled, not yet executed, configuration change.
type Pending struct {
	NewFeeBps       int64
	NewFeeCap       decimal.Decimal
	NewFeeRecipient string
	ETA             time.Time
}

// Store is the persistence subset the engine consumes.
type Store interface {
	GetFeeState(ctx context.Context) (*models.FeeState, error)
	SaveFeeState(ctx context.Context, item *models.FeeState) error
	GetPendingFeeUpdate(ctx context.Context) (*models.PendingFeeUpdate, error)
	SavePendingFeeUpdate(ctx context.Context, item *models.PendingFeeUpdate) error
	DeletePendingFeeUpdate(ctx context.Context) error
}

// Engine holds the fee configuration in memory so quotes stay pure and
// cheap; governance mutations persist through Store before taking effect.
type Engine struct {
	Store     Store
	Logger    *zap.Logger
	Sink      events.Sink
	Authority string

	// Now is swappable for timelock tests; defaults to time.Now.
	Now func() time.Time

	mu      sync.RWMutex
	cfg     Config
	pending *Pending
}

// Load initializes the engine from the persisted singleton, seeding it from
// defaults on first run.
func (e *Engine) Load(ctx context.Context, defaults Config) error {
	state, err := e.Store.GetFeeState(ctx)
	if err != nil {
		return fmt.Errorf("load fee state: %w", err)
	}
	if state == nil {
		state = &models.FeeState{
			FeeBps:             defaults.FeeBps,
			FeeCap:             defaults.FeeCap,
			FeeRecipient:       defaults.FeeRecipient,
			UpdateDelaySeconds: defaults.UpdateDelaySeconds,
		}
		if err := e.Store.SaveFeeState(ctx, state); err != nil {
			return fmt.Errorf("seed fee state: %w", err)
		}
	}
	pendingRow, err := e.Store.GetPendingFeeUpdate(ctx)
	if err != nil {
		return fmt.Errorf("load pending fee update: %w", err)
	}

	e.mu.Lock()
	e.cfg = Config{
		FeeBps:             state.FeeBps,
		FeeCap:             state.FeeCap,
		FeeRecipient:       state.FeeRecipient,
		UpdateDelaySeconds: state.UpdateDelaySeconds,
	}
	e.pending = nil
	if pendingRow != nil {
		e.pending = &Pending{
			NewFeeBps:       pendingRow.NewFeeBps,
			NewFeeCap:       pendingRow.NewFeeCap,
			NewFeeRecipient: pendingRow.NewFeeRecipient,
			ETA:             pendingRow.ETA,
		}
	}
	e.mu.Unlock()
	return nil
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// Config returns the live configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// PendingUpdate returns the scheduled change, nil when none exists.
func (e *Engine) PendingUpdate() *Pending {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pending == nil {
		return nil
	}
	p := *e.pending
	return &p
}

// QuoteFee computes min(floor(amount*feeBps/10000), feeCap). Integer floor
// division, cap applied after the proportional computation.
func (e *Engine) QuoteFee(amount decimal.Decimal) (decimal.Decimal, error) {
	cfg := e.Config()
	return Quote(cfg, amount)
}

// Quote is the pure fee computation against an explicit configuration.
func Quote(cfg Config, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() || !amount.IsInteger() {
		return decimal.Zero, ErrNegativeAmount
	}
	fee := amount.
		Mul(decimal.NewFromInt(cfg.FeeBps)).
		Div(decimal.NewFromInt(selector.WeightScale)).
		Floor()
	if fee.GreaterThan(cfg.FeeCap) {
		fee = cfg.FeeCap
	}
	return fee, nil
}

// EmitFeeQuote is QuoteFee plus a FeeQuoted event; asset is carried for
// downstream interpretation only.
func (e *Engine) EmitFeeQuote(ctx context.Context, caller, asset string, amount decimal.Decimal) (decimal.Decimal, error) {
	fee, err := e.QuoteFee(amount)
	if err != nil {
		return decimal.Zero, err
	}
	if e.Sink != nil {
		e.Sink.Emit(ctx, events.Event{
			Type: events.TypeFeeQuoted,
			Payload: events.FeeQuoted{
				Caller: caller,
				Asset:  asset,
				Amount: amount,
				Fee:    fee,
			},
		})
	}
	return fee, nil
}

// ScheduleFeeUpdate proposes a configuration change that becomes executable
// at now + UpdateDelaySeconds. A previously scheduled update, matured or
// not, is overwritten: last schedule wins.
func (e *Engine) ScheduleFeeUpdate(ctx context.Context, caller string, newFeeBps int64, newFeeCap decimal.Decimal, newFeeRecipient string) (Pending, error) {
	if caller != e.Authority {
		return Pending{}, auth.ErrUnauthorized
	}
	if newFeeBps < 0 || newFeeBps > selector.WeightScale {
		return Pending{}, ErrInvalidFeeBps
	}
	if newFeeCap.IsNegative() {
		return Pending{}, fmt.Errorf("%w: fee cap negative", ErrInvalidFeeBps)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	eta := e.now().Add(time.Duration(e.cfg.UpdateDelaySeconds) * time.Second)
	pending := Pending{
		NewFeeBps:       newFeeBps,
		NewFeeCap:       newFeeCap,
		NewFeeRecipient: newFeeRecipient,
		ETA:             eta,
	}
	err := e.Store.SavePendingFeeUpdate(ctx, &models.PendingFeeUpdate{
		NewFeeBps:       newFeeBps,
		NewFeeCap:       newFeeCap,
		NewFeeRecipient: newFeeRecipient,
		ETA:             eta,
	})
	if err != nil {
		return Pending{}, fmt.Errorf("save pending fee update: %w", err)
	}
	e.pending = &pending

	if e.Logger != nil {
		e.Logger.Info("fee update scheduled",
			zap.Int64("new_fee_bps", newFeeBps),
			zap.String("new_fee_cap", newFeeCap.String()),
			zap.String("new_fee_recipient", newFeeRecipient),
			zap.Time("eta", eta),
		)
	}
	if e.Sink != nil {
		e.Sink.Emit(ctx, events.Event{
			Type: events.TypeFeeUpdateScheduled,
			Payload: events.FeeUpdateScheduled{
				NewFeeBps:       newFeeBps,
				NewFeeCap:       newFeeCap,
				NewFeeRecipient: newFeeRecipient,
				ETA:             eta,
			},
		})
	}
	return pending, nil
}

// ExecuteFeeUpdate applies the pending change once its timelock has expired
// and clears the pending record.
func (e *Engine) ExecuteFeeUpdate(ctx context.Context, caller string) (Config, error) {
	if caller != e.Authority {
		return Config{}, auth.ErrUnauthorized
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil {
		return Config{}, ErrNoPendingUpdate
	}
	if e.now().Before(e.pending.ETA) {
		return Config{}, ErrTimelockNotExpired
	}

	next := Config{
		FeeBps:             e.pending.NewFeeBps,
		FeeCap:             e.pending.NewFeeCap,
		FeeRecipient:       e.pending.NewFeeRecipient,
		UpdateDelaySeconds: e.cfg.UpdateDelaySeconds,
	}
	err := e.Store.SaveFeeState(ctx, &models.FeeState{
		FeeBps:             next.FeeBps,
		FeeCap:             next.FeeCap,
		FeeRecipient:       next.FeeRecipient,
		UpdateDelaySeconds: next.UpdateDelaySeconds,
	})
	if err != nil {
		return Config{}, fmt.Errorf("save fee state: %w", err)
	}
	if err := e.Store.DeletePendingFeeUpdate(ctx); err != nil {
		return Config{}, fmt.Errorf("clear pending fee update: %w", err)
	}
	e.cfg = next
	e.pending = nil

	if e.Logger != nil {
		e.Logger.Info("fee update executed",
			zap.Int64("fee_bps", next.FeeBps),
			zap.String("fee_cap", next.FeeCap.String()),
			zap.String("fee_recipient", next.FeeRecipient),
		)
	}
	if e.Sink != nil {
		e.Sink.Emit(ctx, events.Event{
			Type: events.TypeFeeUpdateExecuted,
			Payload: events.FeeUpdateExecuted{
				FeeBps:       next.FeeBps,
				FeeCap:       next.FeeCap,
				FeeRecipient: next.FeeRecipient,
			},
		})
	}
	return next, nil
}
