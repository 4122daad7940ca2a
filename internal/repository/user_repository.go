package repository

import (
	"database/sql"

	"studystake/internal/models"
)

const userColumns = `id, email, name, token_balance, reputation, reviews_given,
	upvotes_received, downvotes_received, downvotes_lost, downvotes_defended,
	tokens_lost, created_at, updated_at`

// StatsDelta carries increments for the peer review stat counters
type StatsDelta struct {
	ReviewsGiven      int
	UpvotesReceived   int
	DownvotesReceived int
	DownvotesLost     int
	DownvotesDefended int
	TokensLost        int
}

// UserRepository handles database operations for users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (email, name, token_balance, reputation)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query, user.Email, user.Name, user.TokenBalance, user.Reputation).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(query, id))
}

// GetForUpdateTx retrieves a user inside tx, taking a row lock. All balance
// and stats mutations for a transition go through this lock; callers lock
// multiple users in ascending id order.
func (r *UserRepository) GetForUpdateTx(tx *sql.Tx, id uint) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(tx.QueryRow(query, id))
}

// UpdateBalanceTx sets the cached token balance inside tx
func (r *UserRepository) UpdateBalanceTx(tx *sql.Tx, id uint, balance int) error {
	query := `UPDATE users SET token_balance = $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.Exec(query, balance, id)
	return err
}

// UpdateReputationTx sets the reputation score inside tx
func (r *UserRepository) UpdateReputationTx(tx *sql.Tx, id uint, reputation int) error {
	query := `UPDATE users SET reputation = $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.Exec(query, reputation, id)
	return err
}

// ApplyStatsTx increments the stat counters inside tx
func (r *UserRepository) ApplyStatsTx(tx *sql.Tx, id uint, d StatsDelta) error {
	query := `
		UPDATE users SET
			reviews_given = reviews_given + $1,
			upvotes_received = upvotes_received + $2,
			downvotes_received = downvotes_received + $3,
			downvotes_lost = downvotes_lost + $4,
			downvotes_defended = downvotes_defended + $5,
			tokens_lost = tokens_lost + $6,
			updated_at = NOW()
		WHERE id = $7
	`
	_, err := tx.Exec(query,
		d.ReviewsGiven,
		d.UpvotesReceived,
		d.DownvotesReceived,
		d.DownvotesLost,
		d.DownvotesDefended,
		d.TokensLost,
		id,
	)
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.TokenBalance,
		&user.Reputation,
		&user.ReviewsGiven,
		&user.UpvotesReceived,
		&user.DownvotesReceived,
		&user.DownvotesLost,
		&user.DownvotesDefended,
		&user.TokensLost,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
