package repository

import (
	"database/sql"

	"studystake/internal/models"
)

const proficiencyColumns = `id, user_id, course_id, upvotes_received, downvotes_received,
	downvotes_lost, downvotes_defended, score, updated_at`

// ProficiencyRepository handles database operations for course proficiency
type ProficiencyRepository struct {
	db *sql.DB
}

// NewProficiencyRepository creates a new proficiency repository
func NewProficiencyRepository(db *sql.DB) *ProficiencyRepository {
	return &ProficiencyRepository{db: db}
}

// GetOrCreateForUpdateTx returns the locked proficiency row for a user and
// course, creating it lazily on the first event for the pair.
func (r *ProficiencyRepository) GetOrCreateForUpdateTx(tx *sql.Tx, userID, courseID uint) (*models.CourseProficiency, error) {
	insert := `
		INSERT INTO course_proficiency (user_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`
	if _, err := tx.Exec(insert, userID, courseID); err != nil {
		return nil, err
	}

	query := `SELECT ` + proficiencyColumns + `
		FROM course_proficiency
		WHERE user_id = $1 AND course_id = $2
		FOR UPDATE`
	return scanProficiency(tx.QueryRow(query, userID, courseID))
}

// SaveTx writes the counters and derived score inside tx
func (r *ProficiencyRepository) SaveTx(tx *sql.Tx, p *models.CourseProficiency) error {
	query := `
		UPDATE course_proficiency SET
			upvotes_received = $1,
			downvotes_received = $2,
			downvotes_lost = $3,
			downvotes_defended = $4,
			score = $5,
			updated_at = NOW()
		WHERE id = $6
	`
	_, err := tx.Exec(
		query,
		p.UpvotesReceived,
		p.DownvotesReceived,
		p.DownvotesLost,
		p.DownvotesDefended,
		p.Score,
		p.ID,
	)
	return err
}

// GetByUserAndCourse retrieves a proficiency record, or nil when the user
// has no review events in the course yet.
func (r *ProficiencyRepository) GetByUserAndCourse(userID, courseID uint) (*models.CourseProficiency, error) {
	query := `SELECT ` + proficiencyColumns + ` FROM course_proficiency WHERE user_id = $1 AND course_id = $2`
	return scanProficiency(r.db.QueryRow(query, userID, courseID))
}

func scanProficiency(row *sql.Row) (*models.CourseProficiency, error) {
	var p models.CourseProficiency
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.CourseID,
		&p.UpvotesReceived,
		&p.DownvotesReceived,
		&p.DownvotesLost,
		&p.DownvotesDefended,
		&p.Score,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
