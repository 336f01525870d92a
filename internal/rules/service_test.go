package rules

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"settlecore/internal/events"
	"settlecore/internal/models"
	"settlecore/internal/selector"
)

type fakeStore struct {
	nextID uint64
	rules  map[uint64]*models.Rule
}

func newFakeStore() *fakeStore {
	return &fakeStore{rules: map[uint64]*models.Rule{}}
}

func (f *fakeStore) CreateRule(_ context.Context, item *models.Rule) error {
	f.nextID++
	item.ID = f.nextID
	cp := *item
	f.rules[item.ID] = &cp
	return nil
}

func (f *fakeStore) GetRule(_ context.Context, id uint64) (*models.Rule, error) {
	return f.rules[id], nil
}

func (f *fakeStore) GetRuleOutcome(_ context.Context, ruleID uint64, idx int) (*models.RuleOutcome, error) {
	item, ok := f.rules[ruleID]
	if !ok || idx >= len(item.Outcomes) {
		return nil, nil
	}
	o := item.Outcomes[idx]
	return &o, nil
}

func (f *fakeStore) CountRuleOutcomes(_ context.Context, ruleID uint64) (int64, error) {
	item, ok := f.rules[ruleID]
	if !ok {
		return 0, nil
	}
	return int64(len(item.Outcomes)), nil
}

func newService() (*Service, *fakeStore, *events.Recorder) {
	store := newFakeStore()
	recorder := &events.Recorder{}
	return &Service{Store: store, Sink: recorder}, store, recorder
}

func weighted(weights ...int64) []models.RuleOutcome {
	out := make([]models.RuleOutcome, len(weights))
	for i, w := range weights {
		out[i] = models.RuleOutcome{Kind: int32(i), WeightBps: w, Param: decimal.NewFromInt(int64(i) * 10)}
	}
	return out
}

func TestCreateRule_SequentialIDs(t *testing.T) {
	svc, _, recorder := newService()

	first, err := svc.CreateRule(context.Background(), "alice", weighted(8500, 1500))
	require.NoError(t, err)
	require.EqualValues(t, 1, first)

	second, err := svc.CreateRule(context.Background(), "bob", weighted(10000))
	require.NoError(t, err)
	require.EqualValues(t, 2, second)

	created := recorder.ByType(events.TypeRuleCreated)
	require.Len(t, created, 2)
	payload := created[0].Payload.(events.RuleCreated)
	require.EqualValues(t, 1, payload.RuleID)
	require.Equal(t, "alice", payload.Creator)
}

func TestCreateRule_Empty(t *testing.T) {
	svc, _, recorder := newService()
	_, err := svc.CreateRule(context.Background(), "alice", nil)
	require.ErrorIs(t, err, ErrEmptyRule)
	require.Empty(t, recorder.Events())
}

func TestCreateRule_WeightSum(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.CreateRule(context.Background(), "alice", weighted(8500, 1499))
	require.ErrorIs(t, err, ErrWeightSumInvalid)

	_, err = svc.CreateRule(context.Background(), "alice", weighted(8500, 1501))
	require.ErrorIs(t, err, ErrWeightSumInvalid)

	_, err = svc.CreateRule(context.Background(), "alice", weighted(12000, -2000))
	require.ErrorIs(t, err, ErrWeightSumInvalid)
}

func TestCreateRule_PreservesOrder(t *testing.T) {
	svc, store, _ := newService()

	id, err := svc.CreateRule(context.Background(), "alice", weighted(2500, 2500, 5000))
	require.NoError(t, err)

	seq := store.rules[id].Outcomes
	require.Len(t, seq, 3)
	for i, o := range seq {
		require.Equal(t, i, o.Idx)
		require.EqualValues(t, int32(i), o.Kind)
	}
}

func TestRule_ReturnsFullDefinition(t *testing.T) {
	svc, _, _ := newService()

	id, err := svc.CreateRule(context.Background(), "alice", weighted(8500, 1500))
	require.NoError(t, err)

	item, err := svc.Rule(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "alice", item.Creator)
	require.Len(t, item.Outcomes, 2)
	require.EqualValues(t, 8500, item.Outcomes[0].WeightBps)

	_, err = svc.Rule(context.Background(), 999)
	require.ErrorIs(t, err, selector.ErrRuleNotFound)
}

func TestGetOutcome_IndexOutOfRange(t *testing.T) {
	svc, _, _ := newService()

	id, err := svc.CreateRule(context.Background(), "alice", weighted(10000))
	require.NoError(t, err)

	item, err := svc.GetOutcome(context.Background(), id, 0)
	require.NoError(t, err)
	require.EqualValues(t, 10000, item.WeightBps)

	_, err = svc.GetOutcome(context.Background(), id, 1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	// Unknown rule ids have count 0, any index is out of range.
	_, err = svc.GetOutcome(context.Background(), 999, 0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestOutcomeCount_UnknownRuleIsZero(t *testing.T) {
	svc, _, _ := newService()
	count, err := svc.OutcomeCount(context.Background(), 42)
	require.NoError(t, err)
	require.Zero(t, count)
}
