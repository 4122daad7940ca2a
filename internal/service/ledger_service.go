package service

import (
	"database/sql"
	"fmt"
	"log/slog"

	"studystake/internal/models"
	"studystake/internal/repository"
)

// LedgerService appends balance-affecting events and keeps the cached
// balance on the user row in sync. It is only ever driven by settlement
// transitions; nothing else writes to the ledger.
type LedgerService struct {
	db         *sql.DB
	ledgerRepo *repository.LedgerRepository
	userRepo   *repository.UserRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *sql.DB, ledgerRepo *repository.LedgerRepository, userRepo *repository.UserRepository) *LedgerService {
	return &LedgerService{
		db:         db,
		ledgerRepo: ledgerRepo,
		userRepo:   userRepo,
	}
}

// RecordTx appends one ledger entry for a user whose row the caller has
// already locked in tx. The amount is clamped so the balance never goes
// below zero; the entry stores the clamped amount so balance_after always
// equals the previous balance_after plus amount. The user's in-memory
// balance is advanced so several entries can stack within one transaction.
func (s *LedgerService) RecordTx(tx *sql.Tx, user *models.User, taskID *uint, kind string, amount int, note string) (*models.LedgerEntry, error) {
	effective := ClampToZero(user.TokenBalance, amount)
	if effective != amount {
		slog.Warn("Ledger debit clamped to available balance",
			"user_id", user.ID, "kind", kind, "requested", amount, "applied", effective)
	}

	entry := &models.LedgerEntry{
		UserID:       user.ID,
		TaskID:       taskID,
		Kind:         kind,
		Amount:       effective,
		BalanceAfter: user.TokenBalance + effective,
		Note:         note,
	}

	if err := s.ledgerRepo.InsertTx(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := s.userRepo.UpdateBalanceTx(tx, user.ID, entry.BalanceAfter); err != nil {
		return nil, fmt.Errorf("failed to update cached balance: %w", err)
	}

	user.TokenBalance = entry.BalanceAfter
	return entry, nil
}

// Grant credits a user outside any review transition, e.g. the initial
// token grant when an account enters the review economy.
func (s *LedgerService) Grant(userID uint, amount int, note string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("grant amount must be positive")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackUnlessDone(tx)

	user, err := s.userRepo.GetForUpdateTx(tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	entry, err := s.RecordTx(tx, user, nil, models.LedgerInitialGrant, amount, note)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit grant: %w", err)
	}
	return entry, nil
}

// rollbackUnlessDone rolls a transaction back unless it was committed
func rollbackUnlessDone(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Error("Failed to rollback transaction", "error", err)
	}
}
