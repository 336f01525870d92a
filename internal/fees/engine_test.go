package fees

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"settlecore/internal/auth"
	"settlecore/internal/events"
	"settlecore/internal/models"
)

type fakeStore struct {
	state   *models.FeeState
	pending *models.PendingFeeUpdate
}

func (f *fakeStore) GetFeeState(context.Context) (*models.FeeState, error) {
	return f.state, nil
}

func (f *fakeStore) SaveFeeState(_ context.Context, item *models.FeeState) error {
	cp := *item
	f.state = &cp
	return nil
}

func (f *fakeStore) GetPendingFeeUpdate(context.Context) (*models.PendingFeeUpdate, error) {
	return f.pending, nil
}

func (f *fakeStore) SavePendingFeeUpdate(_ context.Context, item *models.PendingFeeUpdate) error {
	cp := *item
	f.pending = &cp
	return nil
}

func (f *fakeStore) DeletePendingFeeUpdate(context.Context) error {
	f.pending = nil
	return nil
}

func newEngine(t *testing.T, cfg Config, now func() time.Time) (*Engine, *fakeStore, *events.Recorder) {
	t.Helper()
	store := &fakeStore{}
	recorder := &events.Recorder{}
	e := &Engine{
		Store:     store,
		Sink:      recorder,
		Authority: "authority-1",
		Now:       now,
	}
	require.NoError(t, e.Load(context.Background(), cfg))
	return e, store, recorder
}

func TestQuote_FloorAndCap(t *testing.T) {
	cfg := Config{FeeBps: 40, FeeCap: decimal.NewFromInt(5_000_000)}

	fee, err := Quote(cfg, decimal.NewFromInt(120_000_000))
	require.NoError(t, err)
	require.True(t, fee.Equal(decimal.NewFromInt(480_000)), "fee=%s", fee)

	fee, err = Quote(cfg, decimal.NewFromInt(2_000_000_000))
	require.NoError(t, err)
	require.True(t, fee.Equal(decimal.NewFromInt(5_000_000)), "fee=%s", fee)
}

func TestQuote_FloorsRemainder(t *testing.T) {
	cfg := Config{FeeBps: 33, FeeCap: decimal.NewFromInt(1_000_000)}
	// 9999 * 33 / 10000 = 32.9967 -> 32
	fee, err := Quote(cfg, decimal.NewFromInt(9999))
	require.NoError(t, err)
	require.True(t, fee.Equal(decimal.NewFromInt(32)), "fee=%s", fee)
}

func TestQuote_ZeroBps(t *testing.T) {
	cfg := Config{FeeBps: 0, FeeCap: decimal.NewFromInt(100)}
	fee, err := Quote(cfg, decimal.NewFromInt(1_000_000))
	require.NoError(t, err)
	require.True(t, fee.IsZero())
}

func TestQuote_RejectsBadAmounts(t *testing.T) {
	cfg := Config{FeeBps: 40, FeeCap: decimal.NewFromInt(100)}
	_, err := Quote(cfg, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrNegativeAmount)
	_, err = Quote(cfg, decimal.NewFromFloat(1.5))
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestQuote_MonotonicInAmount(t *testing.T) {
	cfg := Config{FeeBps: 250, FeeCap: decimal.NewFromInt(90)}
	prev := decimal.Zero
	for amount := int64(0); amount <= 5000; amount += 37 {
		fee, err := Quote(cfg, decimal.NewFromInt(amount))
		require.NoError(t, err)
		require.True(t, fee.GreaterThanOrEqual(prev), "amount=%d fee=%s prev=%s", amount, fee, prev)
		require.True(t, fee.LessThanOrEqual(cfg.FeeCap))
		prev = fee
	}
}

func TestScheduleFeeUpdate_Timelock(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	e, store, recorder := newEngine(t, Config{
		FeeBps:             40,
		FeeCap:             decimal.NewFromInt(5_000_000),
		FeeRecipient:       "treasury",
		UpdateDelaySeconds: 3600,
	}, func() time.Time { return now })

	pending, err := e.ScheduleFeeUpdate(context.Background(), "authority-1", 80, decimal.NewFromInt(9_000_000), "treasury-2")
	require.NoError(t, err)
	require.True(t, pending.ETA.Equal(base.Add(time.Hour)))
	require.NotNil(t, store.pending)

	// Before eta the execute must be rejected and nothing applied.
	_, err = e.ExecuteFeeUpdate(context.Background(), "authority-1")
	require.ErrorIs(t, err, ErrTimelockNotExpired)
	require.EqualValues(t, 40, e.Config().FeeBps)

	now = base.Add(time.Hour)
	cfg, err := e.ExecuteFeeUpdate(context.Background(), "authority-1")
	require.NoError(t, err)
	require.EqualValues(t, 80, cfg.FeeBps)
	require.Equal(t, "treasury-2", cfg.FeeRecipient)
	require.Nil(t, store.pending)
	require.Nil(t, e.PendingUpdate())
	require.EqualValues(t, 3600, cfg.UpdateDelaySeconds)

	// The pending record is consumed exactly once.
	_, err = e.ExecuteFeeUpdate(context.Background(), "authority-1")
	require.ErrorIs(t, err, ErrNoPendingUpdate)

	require.Len(t, recorder.ByType(events.TypeFeeUpdateScheduled), 1)
	require.Len(t, recorder.ByType(events.TypeFeeUpdateExecuted), 1)
}

func TestScheduleFeeUpdate_LastScheduleWins(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	e, _, _ := newEngine(t, Config{UpdateDelaySeconds: 60}, func() time.Time { return now })

	_, err := e.ScheduleFeeUpdate(context.Background(), "authority-1", 10, decimal.NewFromInt(1), "a")
	require.NoError(t, err)

	now = base.Add(30 * time.Second)
	_, err = e.ScheduleFeeUpdate(context.Background(), "authority-1", 20, decimal.NewFromInt(2), "b")
	require.NoError(t, err)

	pending := e.PendingUpdate()
	require.NotNil(t, pending)
	require.EqualValues(t, 20, pending.NewFeeBps)
	require.True(t, pending.ETA.Equal(base.Add(90*time.Second)))

	now = base.Add(90 * time.Second)
	cfg, err := e.ExecuteFeeUpdate(context.Background(), "authority-1")
	require.NoError(t, err)
	require.EqualValues(t, 20, cfg.FeeBps)
}

func TestFeeGovernance_Unauthorized(t *testing.T) {
	e, _, _ := newEngine(t, Config{UpdateDelaySeconds: 60}, nil)

	_, err := e.ScheduleFeeUpdate(context.Background(), "someone-else", 10, decimal.NewFromInt(1), "a")
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = e.ExecuteFeeUpdate(context.Background(), "someone-else")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestScheduleFeeUpdate_ValidatesBps(t *testing.T) {
	e, _, _ := newEngine(t, Config{UpdateDelaySeconds: 60}, nil)
	_, err := e.ScheduleFeeUpdate(context.Background(), "authority-1", 10001, decimal.NewFromInt(1), "a")
	require.ErrorIs(t, err, ErrInvalidFeeBps)
}

func TestEmitFeeQuote_Event(t *testing.T) {
	e, _, recorder := newEngine(t, Config{FeeBps: 100, FeeCap: decimal.NewFromInt(1000)}, nil)

	fee, err := e.EmitFeeQuote(context.Background(), "caller-1", "USDC", decimal.NewFromInt(50_000))
	require.NoError(t, err)
	require.True(t, fee.Equal(decimal.NewFromInt(500)))

	quoted := recorder.ByType(events.TypeFeeQuoted)
	require.Len(t, quoted, 1)
	payload := quoted[0].Payload.(events.FeeQuoted)
	require.Equal(t, "caller-1", payload.Caller)
	require.Equal(t, "USDC", payload.Asset)
	require.True(t, payload.Fee.Equal(fee))
}
