package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"settlecore/internal/events"
	"settlecore/internal/models"
)

type fakeStore struct {
	hashes map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: map[string]string{}}
}

func (f *fakeStore) InsertCommitment(_ context.Context, item *models.Commitment) error {
	if _, ok := f.hashes[item.Hash]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.hashes[item.Hash] = item.Committer
	return nil
}

func (f *fakeStore) HasCommitment(_ context.Context, hash string) (bool, error) {
	_, ok := f.hashes[hash]
	return ok, nil
}

const sampleHash = "a3f1c6e8b2d4f0a1c3e5b7d9f1a3c5e7b9d1f3a5c7e9b1d3f5a7c9e1b3d5f7a9"

func TestCommit_RecordsAndEmits(t *testing.T) {
	store := newFakeStore()
	recorder := &events.Recorder{}
	svc := &Service{Store: store, Sink: recorder}

	require.NoError(t, svc.Commit(context.Background(), "alice", sampleHash))

	ok, err := svc.IsCommitted(context.Background(), sampleHash)
	require.NoError(t, err)
	require.True(t, ok)

	committed := recorder.ByType(events.TypeCommitted)
	require.Len(t, committed, 1)
	payload := committed[0].Payload.(events.Committed)
	require.Equal(t, "alice", payload.Committer)
	require.Equal(t, sampleHash, payload.Hash)
}

func TestCommit_Duplicate(t *testing.T) {
	svc := &Service{Store: newFakeStore()}

	require.NoError(t, svc.Commit(context.Background(), "alice", sampleHash))
	err := svc.Commit(context.Background(), "bob", sampleHash)
	require.ErrorIs(t, err, ErrCommitmentExists)
}

func TestCommit_NormalizesHash(t *testing.T) {
	svc := &Service{Store: newFakeStore()}

	require.NoError(t, svc.Commit(context.Background(), "alice", "0x"+strings.ToUpper(sampleHash)))

	ok, err := svc.IsCommitted(context.Background(), sampleHash)
	require.NoError(t, err)
	require.True(t, ok)

	// Same value under a different spelling is still a duplicate.
	err = svc.Commit(context.Background(), "alice", sampleHash)
	require.ErrorIs(t, err, ErrCommitmentExists)
}

func TestCommit_RejectsMalformedHash(t *testing.T) {
	svc := &Service{Store: newFakeStore()}

	for _, bad := range []string{"", "abc", strings.Repeat("g", 64), sampleHash + "00"} {
		err := svc.Commit(context.Background(), "alice", bad)
		require.ErrorIs(t, err, ErrInvalidCommitment, "hash=%q", bad)
	}
}

func TestIsCommitted_AbsentAndMalformed(t *testing.T) {
	svc := &Service{Store: newFakeStore()}

	ok, err := svc.IsCommitted(context.Background(), sampleHash)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.IsCommitted(context.Background(), "not-a-hash")
	require.NoError(t, err)
	require.False(t, ok)
}
