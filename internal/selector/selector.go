// Package selector maps a committed random value onto a rule's weighted
// outcome bins. Selection is a pure function of the outcome sequence and the
// random value, so any replayer recomputes the same index.
package selector

import (
	"errors"
	"math/big"

	"go.uber.org/zap"

	"settlecore/internal/models"
)

// WeightScale is the required weight sum of every rule: 10,000 basis points.
const WeightScale = 10000

// ErrRuleNotFound is returned when the outcome sequence is empty, which is
// how an unknown rule id presents.
var ErrRuleNotFound = errors.New("rule not found")

var weightScaleBig = big.NewInt(WeightScale)

// PickOutcome reduces randomValue mod 10,000 and returns the index of the
// first outcome whose cumulative weight strictly exceeds the reduced value.
// Outcome order defines the bins: [0,w0), [w0,w0+w1), and so on.
func PickOutcome(outcomes []models.RuleOutcome, randomValue *big.Int) (int, error) {
	return pickOutcome(outcomes, randomValue, nil)
}

// PickOutcomeLogged is PickOutcome with a logger for the defensive branch.
func PickOutcomeLogged(outcomes []models.RuleOutcome, randomValue *big.Int, logger *zap.Logger) (int, error) {
	return pickOutcome(outcomes, randomValue, logger)
}

func pickOutcome(outcomes []models.RuleOutcome, randomValue *big.Int, logger *zap.Logger) (int, error) {
	if len(outcomes) == 0 {
		return 0, ErrRuleNotFound
	}
	if randomValue == nil {
		randomValue = new(big.Int)
	}

	r := new(big.Int).Mod(randomValue, weightScaleBig).Int64()

	var cumulative int64
	for i, o := range outcomes {
		cumulative += o.WeightBps
		if cumulative > r {
			return i, nil
		}
	}

	// Unreachable while the creation-time weight-sum invariant holds; if the
	// stored weights no longer sum to 10,000 the last bin absorbs the rest.
	if logger != nil {
		logger.Warn("outcome weights below scale, falling back to last index",
			zap.Int64("cumulative", cumulative),
			zap.Int64("reduced_random", r),
		)
	}
	return len(outcomes) - 1, nil
}
