package repository

import (
	"database/sql"

	"studystake/internal/models"
)

const peerReviewColumns = `id, reviewer_id, reviewee_id, task_id, course_id, attempt_id,
	artifact_ref, vote_type, wager, reason, remark_check_status, remark_check_reasoning,
	remark_checked_at, dispute_status, ai_decision, ai_reasoning, ai_confidence,
	ai_reviewed_at, settled, tokens_transferred, created_at, updated_at`

// PeerReviewRepository handles database operations for peer reviews
type PeerReviewRepository struct {
	db *sql.DB
}

// NewPeerReviewRepository creates a new peer review repository
func NewPeerReviewRepository(db *sql.DB) *PeerReviewRepository {
	return &PeerReviewRepository{db: db}
}

// CreateTx inserts a new peer review inside tx. The unique constraint on
// (reviewer_id, task_id) is the authority on duplicates.
func (r *PeerReviewRepository) CreateTx(tx *sql.Tx, review *models.PeerReview) error {
	query := `
		INSERT INTO peer_reviews (
			reviewer_id, reviewee_id, task_id, course_id, attempt_id,
			artifact_ref, vote_type, wager, dispute_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return tx.QueryRow(
		query,
		review.ReviewerID,
		review.RevieweeID,
		review.TaskID,
		review.CourseID,
		review.AttemptID,
		review.ArtifactRef,
		review.VoteType,
		review.Wager,
		review.DisputeStatus,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

// GetByID retrieves a peer review by id
func (r *PeerReviewRepository) GetByID(id uint) (*models.PeerReview, error) {
	query := `SELECT ` + peerReviewColumns + ` FROM peer_reviews WHERE id = $1`
	return scanPeerReview(r.db.QueryRow(query, id))
}

// GetByReviewerAndTask retrieves the review one reviewer holds for a task
func (r *PeerReviewRepository) GetByReviewerAndTask(reviewerID, taskID uint) (*models.PeerReview, error) {
	query := `SELECT ` + peerReviewColumns + ` FROM peer_reviews WHERE reviewer_id = $1 AND task_id = $2`
	return scanPeerReview(r.db.QueryRow(query, reviewerID, taskID))
}

// GetForUpdateTx retrieves a peer review inside tx, taking a row lock.
// Concurrent transitions on the same review serialize on this lock.
func (r *PeerReviewRepository) GetForUpdateTx(tx *sql.Tx, id uint) (*models.PeerReview, error) {
	query := `SELECT ` + peerReviewColumns + ` FROM peer_reviews WHERE id = $1 FOR UPDATE`
	return scanPeerReview(tx.QueryRow(query, id))
}

// SaveTx writes all mutable settlement fields inside tx
func (r *PeerReviewRepository) SaveTx(tx *sql.Tx, review *models.PeerReview) error {
	query := `
		UPDATE peer_reviews SET
			vote_type = $1,
			reason = $2,
			remark_check_status = $3,
			remark_check_reasoning = $4,
			remark_checked_at = $5,
			dispute_status = $6,
			ai_decision = $7,
			ai_reasoning = $8,
			ai_confidence = $9,
			ai_reviewed_at = $10,
			settled = $11,
			tokens_transferred = $12,
			updated_at = NOW()
		WHERE id = $13
	`
	_, err := tx.Exec(
		query,
		review.VoteType,
		review.Reason,
		review.RemarkCheckStatus,
		review.RemarkCheckReasoning,
		review.RemarkCheckedAt,
		review.DisputeStatus,
		review.AIDecision,
		review.AIReasoning,
		review.AIConfidence,
		review.AIReviewedAt,
		review.Settled,
		review.TokensTransferred,
		review.ID,
	)
	return err
}

// ListByReviewer retrieves all reviews a user has given
func (r *PeerReviewRepository) ListByReviewer(reviewerID uint) ([]models.PeerReview, error) {
	query := `SELECT ` + peerReviewColumns + ` FROM peer_reviews WHERE reviewer_id = $1 ORDER BY created_at DESC`
	return r.list(query, reviewerID)
}

// ListByReviewee retrieves all reviews a user has received
func (r *PeerReviewRepository) ListByReviewee(revieweeID uint) ([]models.PeerReview, error) {
	query := `SELECT ` + peerReviewColumns + ` FROM peer_reviews WHERE reviewee_id = $1 ORDER BY created_at DESC`
	return r.list(query, revieweeID)
}

func (r *PeerReviewRepository) list(query string, arg any) ([]models.PeerReview, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Initialize with empty slice instead of nil to avoid JSON null
	reviews := []models.PeerReview{}
	for rows.Next() {
		var review models.PeerReview
		if err := scanPeerReviewRow(rows, &review); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}

func scanPeerReview(row *sql.Row) (*models.PeerReview, error) {
	var review models.PeerReview
	err := row.Scan(
		&review.ID,
		&review.ReviewerID,
		&review.RevieweeID,
		&review.TaskID,
		&review.CourseID,
		&review.AttemptID,
		&review.ArtifactRef,
		&review.VoteType,
		&review.Wager,
		&review.Reason,
		&review.RemarkCheckStatus,
		&review.RemarkCheckReasoning,
		&review.RemarkCheckedAt,
		&review.DisputeStatus,
		&review.AIDecision,
		&review.AIReasoning,
		&review.AIConfidence,
		&review.AIReviewedAt,
		&review.Settled,
		&review.TokensTransferred,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func scanPeerReviewRow(rows *sql.Rows, review *models.PeerReview) error {
	return rows.Scan(
		&review.ID,
		&review.ReviewerID,
		&review.RevieweeID,
		&review.TaskID,
		&review.CourseID,
		&review.AttemptID,
		&review.ArtifactRef,
		&review.VoteType,
		&review.Wager,
		&review.Reason,
		&review.RemarkCheckStatus,
		&review.RemarkCheckReasoning,
		&review.RemarkCheckedAt,
		&review.DisputeStatus,
		&review.AIDecision,
		&review.AIReasoning,
		&review.AIConfidence,
		&review.AIReviewedAt,
		&review.Settled,
		&review.TokensTransferred,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
}
