package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"studystake/internal/models"
	"studystake/internal/repository"
)

// Fixtures holds test data for review lifecycle tests
type Fixtures struct {
	DB       *sql.DB
	Reviewer *models.User
	Reviewee *models.User
	Task     *models.Task
	Attempt  *models.QuizAttempt
}

// SetupFixtures creates a reviewer with tokens, a reviewee with a submitted
// solution, and the task connecting them
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	fixtures := &Fixtures{DB: db}

	// Emails are unique per call so several fixture sets can share one
	// database
	suffix := uuid.NewString()[:8]
	fixtures.Reviewer = CreateUser(t, db, fmt.Sprintf("reviewer-%s@test.com", suffix), "Test Reviewer", 100, 20)
	fixtures.Reviewee = CreateUser(t, db, fmt.Sprintf("reviewee-%s@test.com", suffix), "Test Reviewee", 100, 20)
	fixtures.Task = CreateTask(t, db, "Binary search trees", "data-structures", 1, 8, 12)
	fixtures.Attempt = CreateSubmittedAttempt(t, db, fixtures.Reviewee.ID, fixtures.Task.ID)

	return fixtures
}

// CreateUser inserts a user with the given balance and reputation
func CreateUser(t *testing.T, db *sql.DB, email, name string, balance, reputation int) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		Name:         name,
		TokenBalance: balance,
		Reputation:   reputation,
	}
	if err := repository.NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}

	return user
}

// CreateTask inserts a task
func CreateTask(t *testing.T, db *sql.DB, title, topic string, courseID uint, stake, reward int) *models.Task {
	t.Helper()

	task := &models.Task{
		Title:      title,
		Topic:      topic,
		CourseID:   courseID,
		TokenStake: stake,
		Reward:     reward,
	}
	if err := repository.NewTaskRepository(db).Create(task); err != nil {
		t.Fatalf("Failed to create task %s: %v", title, err)
	}

	return task
}

// CreateSubmittedAttempt inserts a submitted quiz attempt with a small
// question set and a unique artifact reference
func CreateSubmittedAttempt(t *testing.T, db *sql.DB, userID, taskID uint) *models.QuizAttempt {
	t.Helper()

	now := time.Now()
	attempt := &models.QuizAttempt{
		UserID:      userID,
		TaskID:      taskID,
		Status:      models.AttemptSubmitted,
		Questions:   []byte(`[{"question":"What is the height of a balanced BST with 7 nodes?","answer":"3"}]`),
		ArtifactRef: fmt.Sprintf("artifacts/%s", uuid.NewString()),
		SubmittedAt: &now,
	}
	if err := repository.NewQuizAttemptRepository(db).Create(attempt); err != nil {
		t.Fatalf("Failed to create quiz attempt: %v", err)
	}

	return attempt
}

// UserBalance reads the cached token balance directly
func UserBalance(t *testing.T, db *sql.DB, userID uint) int {
	t.Helper()

	var balance int
	if err := db.QueryRow("SELECT token_balance FROM users WHERE id = $1", userID).Scan(&balance); err != nil {
		t.Fatalf("Failed to read balance for user %d: %v", userID, err)
	}
	return balance
}

// LedgerBalanceAfter reads the newest ledger entry's running balance, or
// -1 when the user has no entries
func LedgerBalanceAfter(t *testing.T, db *sql.DB, userID uint) int {
	t.Helper()

	var balance int
	err := db.QueryRow(
		"SELECT balance_after FROM token_ledger WHERE user_id = $1 ORDER BY id DESC LIMIT 1",
		userID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return -1
	}
	if err != nil {
		t.Fatalf("Failed to read ledger for user %d: %v", userID, err)
	}
	return balance
}

// Cleanup removes all test data
func (f *Fixtures) Cleanup(t *testing.T) {
	t.Helper()

	// Cleanup is handled by container termination
	// Data is not persisted between tests
}
