// Package stats logs a periodic snapshot of ledger growth so operators can
// watch the core without querying the database.
package stats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"settlecore/internal/fees"
)

// Store is the count subset the heartbeat reads.
type Store interface {
	CountRules(ctx context.Context) (int64, error)
	CountCommitments(ctx context.Context) (int64, error)
	CountInvocations(ctx context.Context) (int64, error)
}

type Heartbeat struct {
	Store  Store
	Fees   *fees.Engine
	Logger *zap.Logger
}

func (h *Heartbeat) Run(ctx context.Context) {
	if h == nil || h.Store == nil || h.Logger == nil {
		return
	}
	rules, err := h.Store.CountRules(ctx)
	if err != nil {
		h.Logger.Warn("stats: count rules failed", zap.Error(err))
		return
	}
	commitments, err := h.Store.CountCommitments(ctx)
	if err != nil {
		h.Logger.Warn("stats: count commitments failed", zap.Error(err))
		return
	}
	invocations, err := h.Store.CountInvocations(ctx)
	if err != nil {
		h.Logger.Warn("stats: count invocations failed", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.Int64("rules", rules),
		zap.Int64("commitments", commitments),
		zap.Int64("invocations", invocations),
	}
	if h.Fees != nil {
		cfg := h.Fees.Config()
		fields = append(fields,
			zap.Int64("fee_bps", cfg.FeeBps),
			zap.String("fee_cap", cfg.FeeCap.String()),
		)
		if pending := h.Fees.PendingUpdate(); pending != nil {
			fields = append(fields,
				zap.Time("pending_fee_eta", pending.ETA),
				zap.Bool("pending_fee_matured", !time.Now().UTC().Before(pending.ETA)),
			)
		}
	}
	h.Logger.Info("ledger heartbeat", fields...)
}
