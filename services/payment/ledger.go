package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gamifylearn/gamification-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("payment transaction not found")

// LedgerService records payment attempts in the relational ledger
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// RecordPending stores a new pending transaction
func (s *LedgerService) RecordPending(ctx context.Context, tx *model.PaymentTransaction) error {
	tx.Status = model.PaymentStatusPending
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

// FindByTxRef loads a transaction by its merchant reference
func (s *LedgerService) FindByTxRef(ctx context.Context, txRef string) (*model.PaymentTransaction, error) {
	var tx model.PaymentTransaction
	err := s.db.WithContext(ctx).Where("tx_ref = ?", txRef).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return &tx, nil
}

// MarkResult stores the verified gateway outcome
func (s *LedgerService) MarkResult(ctx context.Context, txRef, status, gatewayID string, raw []byte) error {
	updates := map[string]interface{}{
		"status":                 status,
		"gateway_transaction_id": gatewayID,
		"updated_at":             time.Now(),
	}
	if len(raw) > 0 {
		updates["gateway_response"] = datatypes.JSON(raw)
	}

	result := s.db.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("tx_ref = ?", txRef).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// ExpireStalePending fails pending transactions older than the given age
func (s *LedgerService) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, time.Now().Add(-olderThan)).
		Update("status", model.PaymentStatusFailed)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire pending payments: %w", result.Error)
	}
	return result.RowsAffected, nil
}
