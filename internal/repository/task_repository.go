package repository

import (
	"database/sql"

	"studystake/internal/models"
)

// TaskRepository handles database operations for study tasks
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task
func (r *TaskRepository) Create(task *models.Task) error {
	query := `
		INSERT INTO tasks (title, topic, course_id, token_stake, reward)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRow(query, task.Title, task.Topic, task.CourseID, task.TokenStake, task.Reward).
		Scan(&task.ID, &task.CreatedAt)
}

// GetByID retrieves a task by id
func (r *TaskRepository) GetByID(id uint) (*models.Task, error) {
	var task models.Task
	query := `
		SELECT id, title, topic, course_id, token_stake, reward, created_at
		FROM tasks
		WHERE id = $1
	`
	err := r.db.QueryRow(query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Topic,
		&task.CourseID,
		&task.TokenStake,
		&task.Reward,
		&task.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}
