package models

import (
	"encoding/json"
	"time"
)

// Vote types for a peer review
const (
	VotePending  = "pending"
	VoteUpvote   = "upvote"
	VoteDownvote = "downvote"
)

// Remark check statuses
const (
	RemarkUnchecked = "unchecked"
	RemarkPassed    = "passed"
	RemarkRejected  = "rejected"
)

// Dispute statuses for a downvoted review
const (
	DisputeNone            = "none"
	DisputePendingResponse = "pending_response"
	DisputeRemarkRejected  = "remark_rejected"
	DisputeAgreed          = "agreed"
	DisputeAIReviewing     = "ai_reviewing"
	DisputeDownvoterWins   = "resolved_downvoter_wins"
	DisputeRevieweeWins    = "resolved_reviewee_wins"
)

// Arbitration decisions. Anything else coming back from the oracle is a
// contract violation and is rejected, never coerced.
const (
	DecisionDownvoterCorrect = "downvoter_correct"
	DecisionRevieweeCorrect  = "reviewee_correct"
)

// Ledger entry kinds
const (
	LedgerInitialGrant    = "initial_grant"
	LedgerPeerWager       = "peer_wager"
	LedgerPeerWagerRefund = "peer_wager_refund"
	LedgerPeerPenalty     = "peer_penalty"
	LedgerSpamPenalty     = "spam_penalty"
	LedgerWagerForfeit    = "wager_forfeit"
)

// Quiz attempt statuses (owned by the quiz subsystem; read-only here)
const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
)

// User is the engine's projection of a platform user: the cached token
// balance, reputation, and the peer review stat counters.
type User struct {
	ID                uint      `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	TokenBalance      int       `json:"token_balance"`
	Reputation        int       `json:"reputation"`
	ReviewsGiven      int       `json:"reviews_given"`
	UpvotesReceived   int       `json:"upvotes_received"`
	DownvotesReceived int       `json:"downvotes_received"`
	DownvotesLost     int       `json:"downvotes_lost"`
	DownvotesDefended int       `json:"downvotes_defended"`
	TokensLost        int       `json:"tokens_lost"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Task is study task metadata consumed by the review engine
type Task struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Topic      string    `json:"topic"`
	CourseID   uint      `json:"course_id"`
	TokenStake int       `json:"token_stake"`
	Reward     int       `json:"reward"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuizAttempt is a user's attempt at a task's quiz, including the submitted
// artifact reference. Written by the quiz subsystem; the review engine only
// reads submitted attempts.
type QuizAttempt struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"user_id"`
	TaskID      uint            `json:"task_id"`
	Status      string          `json:"status"`
	Questions   json.RawMessage `json:"questions"`
	ArtifactRef string          `json:"artifact_ref"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PeerReview is one reviewer's paid audit of a peer's submission for a task.
// Exactly one exists per (reviewer, task). Once Settled is true the record
// is immutable.
type PeerReview struct {
	ID          uint   `json:"id"`
	ReviewerID  uint   `json:"reviewer_id"`
	RevieweeID  uint   `json:"reviewee_id"`
	TaskID      uint   `json:"task_id"`
	CourseID    uint   `json:"course_id"`
	AttemptID   uint   `json:"attempt_id"`
	ArtifactRef string `json:"artifact_ref"`
	VoteType    string `json:"vote_type"`
	Wager       int    `json:"wager"`
	Reason      string `json:"reason,omitempty"`

	RemarkCheckStatus    string     `json:"remark_check_status"`
	RemarkCheckReasoning string     `json:"remark_check_reasoning,omitempty"`
	RemarkCheckedAt      *time.Time `json:"remark_checked_at,omitempty"`

	DisputeStatus string     `json:"dispute_status"`
	AIDecision    *string    `json:"ai_decision,omitempty"`
	AIReasoning   string     `json:"ai_reasoning,omitempty"`
	AIConfidence  *float64   `json:"ai_confidence,omitempty"`
	AIReviewedAt  *time.Time `json:"ai_reviewed_at,omitempty"`

	Settled           bool      `json:"settled"`
	TokensTransferred int       `json:"tokens_transferred"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LedgerEntry is one append-only, balance-affecting event for a user.
// Amount is signed and already clamped: BalanceAfter always equals the
// previous BalanceAfter plus Amount.
type LedgerEntry struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	TaskID       *uint     `json:"task_id,omitempty"`
	Kind         string    `json:"kind"`
	Amount       int       `json:"amount"`
	BalanceAfter int       `json:"balance_after"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CourseProficiency aggregates a user's review outcomes within one course.
// Created lazily on the first event for the (user, course) pair.
type CourseProficiency struct {
	ID                uint      `json:"id"`
	UserID            uint      `json:"user_id"`
	CourseID          uint      `json:"course_id"`
	UpvotesReceived   int       `json:"upvotes_received"`
	DownvotesReceived int       `json:"downvotes_received"`
	DownvotesLost     int       `json:"downvotes_lost"`
	DownvotesDefended int       `json:"downvotes_defended"`
	Score             int       `json:"score"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RemarkVerdict is the moderation oracle's judgment of a downvote remark
type RemarkVerdict struct {
	Verdict   string `json:"verdict"` // "pass" or "reject"
	Reasoning string `json:"reasoning"`
}

// AIVerdict is the judgment oracle's decision on a contested downvote
type AIVerdict struct {
	Decision   string  `json:"decision"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}
