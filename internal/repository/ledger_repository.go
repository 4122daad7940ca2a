package repository

import (
	"database/sql"

	"studystake/internal/models"
)

// LedgerRepository handles database operations for the token ledger.
// Entries are append-only: there are no update or delete methods.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InsertTx appends a ledger entry inside tx
func (r *LedgerRepository) InsertTx(tx *sql.Tx, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO token_ledger (user_id, task_id, kind, amount, balance_after, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return tx.QueryRow(
		query,
		entry.UserID,
		entry.TaskID,
		entry.Kind,
		entry.Amount,
		entry.BalanceAfter,
		entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// ListByUser retrieves a user's ledger entries, oldest first
func (r *LedgerRepository) ListByUser(userID uint) ([]models.LedgerEntry, error) {
	query := `
		SELECT id, user_id, task_id, kind, amount, balance_after, note, created_at
		FROM token_ledger
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Initialize with empty slice instead of nil to avoid JSON null
	entries := []models.LedgerEntry{}
	for rows.Next() {
		var entry models.LedgerEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.TaskID,
			&entry.Kind,
			&entry.Amount,
			&entry.BalanceAfter,
			&entry.Note,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
