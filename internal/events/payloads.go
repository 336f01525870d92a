package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type RuleCreated struct {
	RuleID  uint64 `json:"rule_id"`
	Creator string `json:"creator"`
}

type Committed struct {
	Committer string `json:"committer"`
	Hash      string `json:"hash"`
}

type Revealed struct {
	Authority    string `json:"authority"`
	InvocationID string `json:"invocation_id"`
	RandomValue  string `json:"random_value"`
	Commitment   string `json:"commitment"`
}

type FeeQuoted struct {
	Caller string          `json:"caller"`
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
}

type FeeUpdateScheduled struct {
	NewFeeBps       int64           `json:"new_fee_bps"`
	NewFeeCap       decimal.Decimal `json:"new_fee_cap"`
	NewFeeRecipient string          `json:"new_fee_recipient"`
	ETA             time.Time       `json:"eta"`
}

type FeeUpdateExecuted struct {
	FeeBps       int64           `json:"fee_bps"`
	FeeCap       decimal.Decimal `json:"fee_cap"`
	FeeRecipient string          `json:"fee_recipient"`
}

type OutcomeFinalized struct {
	InvocationID string          `json:"invocation_id"`
	RuleID       uint64          `json:"rule_id"`
	Asset        string          `json:"asset"`
	Amount       decimal.Decimal `json:"amount"`
	OutcomeIndex int             `json:"outcome_index"`
	FeeCharged   decimal.Decimal `json:"fee_charged"`
}
