package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"settlecore/internal/models"
	"settlecore/internal/repository"
)

// Singleton row id for fee_state / pending_fee_updates.
const singletonID = 1

var _ repository.Repository = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Rule store -------------------------------------------------------------

func (s *Store) CreateRule(ctx context.Context, item *models.Rule) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetRule(ctx context.Context, id uint64) (*models.Rule, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Rule
	err := s.db.WithContext(ctx).
		Model(&models.Rule{}).
		Preload("Outcomes", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx asc")
		}).
		Where("id = ?", id).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListRuleOutcomes(ctx context.Context, ruleID uint64) ([]models.RuleOutcome, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.RuleOutcome
	err := s.db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Order("idx asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetRuleOutcome(ctx context.Context, ruleID uint64, idx int) (*models.RuleOutcome, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.RuleOutcome
	err := s.db.WithContext(ctx).
		Where("rule_id = ? AND idx = ?", ruleID, idx).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CountRuleOutcomes(ctx context.Context, ruleID uint64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RuleOutcome{}).
		Where("rule_id = ?", ruleID).
		Count(&count).Error
	return count, err
}

func (s *Store) CountRules(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Rule{}).Count(&count).Error
	return count, err
}

// --- Commitment ledger ------------------------------------------------------

func (s *Store) InsertCommitment(ctx context.Context, item *models.Commitment) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Hash = strings.ToLower(strings.TrimSpace(item.Hash))
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) HasCommitment(ctx context.Context, hash string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Commitment{}).
		Where("hash = ?", strings.ToLower(strings.TrimSpace(hash))).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CountCommitments(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Commitment{}).Count(&count).Error
	return count, err
}

// --- Invocations ------------------------------------------------------------

func (s *Store) InsertInvocationTx(ctx context.Context, tx *gorm.DB, item *models.Invocation) error {
	if tx == nil || item == nil {
		return nil
	}
	item.InvocationID = strings.ToLower(strings.TrimSpace(item.InvocationID))
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) GetInvocation(ctx context.Context, invocationID string) (*models.Invocation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Invocation
	err := s.db.WithContext(ctx).
		Where("invocation_id = ?", strings.ToLower(strings.TrimSpace(invocationID))).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CountInvocations(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Invocation{}).Count(&count).Error
	return count, err
}

// --- Fee state --------------------------------------------------------------

func (s *Store) GetFeeState(ctx context.Context) (*models.FeeState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.FeeState
	err := s.db.WithContext(ctx).Where("id = ?", singletonID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveFeeState(ctx context.Context, item *models.FeeState) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.ID = singletonID
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetPendingFeeUpdate(ctx context.Context) (*models.PendingFeeUpdate, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PendingFeeUpdate
	err := s.db.WithContext(ctx).Where("id = ?", singletonID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SavePendingFeeUpdate(ctx context.Context, item *models.PendingFeeUpdate) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.ID = singletonID
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) DeletePendingFeeUpdate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("id = ?", singletonID).
		Delete(&models.PendingFeeUpdate{}).Error
}

// --- Event stream -----------------------------------------------------------

func (s *Store) AppendEvent(ctx context.Context, item *models.LedgerEvent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) AppendEventTx(ctx context.Context, tx *gorm.DB, item *models.LedgerEvent) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]models.LedgerEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.LedgerEvent
	err := s.db.WithContext(ctx).
		Where("seq > ?", afterSeq).
		Order("seq asc").
		Limit(normalizeLimit(limit, 200)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}
