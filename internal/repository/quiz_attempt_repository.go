package repository

import (
	"database/sql"

	"studystake/internal/models"
)

// QuizAttemptRepository reads quiz attempts written by the quiz subsystem
type QuizAttemptRepository struct {
	db *sql.DB
}

// NewQuizAttemptRepository creates a new quiz attempt repository
func NewQuizAttemptRepository(db *sql.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{db: db}
}

// Create inserts a new quiz attempt (used by fixtures and the quiz flow)
func (r *QuizAttemptRepository) Create(attempt *models.QuizAttempt) error {
	query := `
		INSERT INTO quiz_attempts (user_id, task_id, status, questions, artifact_ref, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		query,
		attempt.UserID,
		attempt.TaskID,
		attempt.Status,
		attempt.Questions,
		attempt.ArtifactRef,
		attempt.SubmittedAt,
	).Scan(&attempt.ID, &attempt.CreatedAt)
}

// GetLatestSubmitted retrieves the most recent submitted attempt for a
// user and task, or nil when none exists.
func (r *QuizAttemptRepository) GetLatestSubmitted(userID, taskID uint) (*models.QuizAttempt, error) {
	query := `
		SELECT id, user_id, task_id, status, questions, artifact_ref, submitted_at, created_at
		FROM quiz_attempts
		WHERE user_id = $1 AND task_id = $2 AND status = 'submitted'
		ORDER BY submitted_at DESC
		LIMIT 1
	`
	return scanAttempt(r.db.QueryRow(query, userID, taskID))
}

// GetByID retrieves a quiz attempt by id
func (r *QuizAttemptRepository) GetByID(id uint) (*models.QuizAttempt, error) {
	query := `
		SELECT id, user_id, task_id, status, questions, artifact_ref, submitted_at, created_at
		FROM quiz_attempts
		WHERE id = $1
	`
	return scanAttempt(r.db.QueryRow(query, id))
}

func scanAttempt(row *sql.Row) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := row.Scan(
		&attempt.ID,
		&attempt.UserID,
		&attempt.TaskID,
		&attempt.Status,
		&attempt.Questions,
		&attempt.ArtifactRef,
		&attempt.SubmittedAt,
		&attempt.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
