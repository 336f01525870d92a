// Package ledger records published commitment hashes. The set is append-only:
// a hash stays present forever, including after the reveal that consumed it,
// so finalizations can be re-verified at any later time.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"settlecore/internal/events"
	"settlecore/internal/models"
)

var (
	ErrCommitmentExists  = errors.New("commitment already recorded")
	ErrInvalidCommitment = errors.New("commitment must be a 32-byte hex hash")
)

var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Store is the persistence subset the ledger consumes.
type Store interface {
	InsertCommitment(ctx context.Context, item *models.Commitment) error
	HasCommitment(ctx context.Context, hash string) (bool, error)
}

type Service struct {
	Store  Store
	Logger *zap.Logger
	Sink   events.Sink
}

// NormalizeHash lowercases and validates a caller-supplied hash.
func NormalizeHash(hash string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(hash), "0x")))
	if !hashPattern.MatchString(h) {
		return "", ErrInvalidCommitment
	}
	return h, nil
}

// Commit records a commitment hash. Any caller may publish; there is no
// ownership link between a commitment and its future revealer.
func (s *Service) Commit(ctx context.Context, committer, hash string) error {
	h, err := NormalizeHash(hash)
	if err != nil {
		return err
	}
	err = s.Store.InsertCommitment(ctx, &models.Commitment{
		Hash:      h,
		Committer: committer,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCommitmentExists
		}
		return fmt.Errorf("insert commitment: %w", err)
	}

	if s.Logger != nil {
		s.Logger.Info("commitment recorded",
			zap.String("committer", committer),
			zap.String("hash", h),
		)
	}
	if s.Sink != nil {
		s.Sink.Emit(ctx, events.Event{
			Type:    events.TypeCommitted,
			Payload: events.Committed{Committer: committer, Hash: h},
		})
	}
	return nil
}

// IsCommitted reports membership. Malformed hashes are simply not present.
func (s *Service) IsCommitted(ctx context.Context, hash string) (bool, error) {
	h, err := NormalizeHash(hash)
	if err != nil {
		return false, nil
	}
	ok, err := s.Store.HasCommitment(ctx, h)
	if err != nil {
		return false, fmt.Errorf("commitment lookup: %w", err)
	}
	return ok, nil
}
