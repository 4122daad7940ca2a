package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"studystake/internal/apperrors"
	"studystake/internal/config"
	"studystake/internal/metrics"
	"studystake/internal/models"
	"studystake/internal/repository"
)

// Respond actions
const (
	ActionAgree    = "agree"
	ActionDisagree = "disagree"
)

const arbiterFallbackReasoning = "Arbitration oracle unavailable; defaulting to the benefit of the doubt for the reviewee."

// ReviewService drives the peer review lifecycle: unlock, vote, dispute
// response, and settlement. It is the only writer of the token ledger and
// the reputation/proficiency state. Every transition runs as one database
// transaction; the peer review row and every participating user row are
// locked for its duration, user rows always in ascending id order.
type ReviewService struct {
	db              *sql.DB
	reviewRepo      *repository.PeerReviewRepository
	userRepo        *repository.UserRepository
	taskRepo        *repository.TaskRepository
	attemptRepo     *repository.QuizAttemptRepository
	proficiencyRepo *repository.ProficiencyRepository
	ledger          *LedgerService
	moderation      *ModerationService
	arbiter         *ArbiterService
	metrics         *metrics.Metrics
	cfg             config.ReviewConfig
}

// NewReviewService creates a new review service
func NewReviewService(
	db *sql.DB,
	reviewRepo *repository.PeerReviewRepository,
	userRepo *repository.UserRepository,
	taskRepo *repository.TaskRepository,
	attemptRepo *repository.QuizAttemptRepository,
	proficiencyRepo *repository.ProficiencyRepository,
	ledger *LedgerService,
	moderation *ModerationService,
	arbiter *ArbiterService,
	m *metrics.Metrics,
	cfg config.ReviewConfig,
) *ReviewService {
	return &ReviewService{
		db:              db,
		reviewRepo:      reviewRepo,
		userRepo:        userRepo,
		taskRepo:        taskRepo,
		attemptRepo:     attemptRepo,
		proficiencyRepo: proficiencyRepo,
		ledger:          ledger,
		moderation:      moderation,
		arbiter:         arbiter,
		metrics:         m,
		cfg:             cfg,
	}
}

// Unlock stakes a wager to open a peer's submitted solution for review.
// The wager is debited immediately and held in escrow until the vote
// settles.
func (s *ReviewService) Unlock(reviewerID, revieweeID, taskID uint, wager int) (*models.PeerReview, error) {
	if reviewerID == revieweeID {
		return nil, apperrors.InvalidArgument("cannot review your own submission")
	}
	if wager < 1 {
		return nil, apperrors.InvalidArgument("wager must be at least 1 token")
	}

	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, apperrors.NotFound("task not found")
	}

	attempt, err := s.attemptRepo.GetLatestSubmitted(revieweeID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if attempt == nil {
		return nil, apperrors.NotFound("the reviewee has no submitted solution for this task")
	}

	existing, err := s.reviewRepo.GetByReviewerAndTask(reviewerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing review: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("you already hold a review for this task")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackUnlessDone(tx)

	reviewer, err := s.userRepo.GetForUpdateTx(tx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock reviewer: %w", err)
	}
	if reviewer == nil {
		return nil, apperrors.NotFound("reviewer not found")
	}
	if reviewer.TokenBalance < wager {
		return nil, apperrors.InsufficientFunds(
			fmt.Sprintf("balance %d is below the wager of %d", reviewer.TokenBalance, wager))
	}

	taskRef := taskID
	_, err = s.ledger.RecordTx(tx, reviewer, &taskRef, models.LedgerPeerWager, -wager,
		fmt.Sprintf("wager to unlock submission for task %d", taskID))
	if err != nil {
		return nil, err
	}

	review := &models.PeerReview{
		ReviewerID:        reviewerID,
		RevieweeID:        revieweeID,
		TaskID:            taskID,
		CourseID:          task.CourseID,
		AttemptID:         attempt.ID,
		ArtifactRef:       attempt.ArtifactRef,
		VoteType:          models.VotePending,
		Wager:             wager,
		RemarkCheckStatus: models.RemarkUnchecked,
		DisputeStatus:     models.DisputeNone,
	}
	if err := s.reviewRepo.CreateTx(tx, review); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("you already hold a review for this task")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit unlock: %w", err)
	}

	slog.Info("Submission unlocked for review",
		"review_id", review.ID, "reviewer_id", reviewerID, "task_id", taskID, "wager", wager)
	return review, nil
}

// CastVote settles an upvote immediately, or runs a downvote through the
// remark quality gate and, when the remark passes, leaves the review
// awaiting the reviewee's response with the wager still escrowed.
func (s *ReviewService) CastVote(ctx context.Context, reviewID, reviewerID uint, voteType, reason string) (*models.PeerReview, error) {
	review, err := s.loadReviewFor(reviewID, reviewerID, roleReviewer)
	if err != nil {
		return nil, err
	}
	if review.Settled || review.VoteType != models.VotePending {
		return nil, apperrors.Conflict("a vote was already cast on this review")
	}

	switch voteType {
	case models.VoteUpvote:
		return s.settleUpvote(review)
	case models.VoteDownvote:
		if len(strings.TrimSpace(reason)) < s.cfg.MinReasonLength {
			return nil, apperrors.InvalidArgument(
				fmt.Sprintf("a downvote reason of at least %d characters is required", s.cfg.MinReasonLength))
		}
		return s.castDownvote(ctx, review, reason)
	default:
		return nil, apperrors.InvalidArgument("vote type must be upvote or downvote")
	}
}

// settleUpvote refunds the wager and credits the reviewee. Net cost for
// the reviewer is zero.
func (s *ReviewService) settleUpvote(review *models.PeerReview) (*models.PeerReview, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackUnlessDone(tx)

	review, err = s.lockPending(tx, review.ID)
	if err != nil {
		return nil, err
	}

	reviewer, reviewee, err := s.lockParticipants(tx, review.ReviewerID, review.RevieweeID)
	if err != nil {
		return nil, err
	}

	taskRef := review.TaskID
	_, err = s.ledger.RecordTx(tx, reviewer, &taskRef, models.LedgerPeerWagerRefund, review.Wager,
		"wager refunded on upvote")
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.ApplyStatsTx(tx, reviewer.ID, repository.StatsDelta{ReviewsGiven: 1}); err != nil {
		return nil, fmt.Errorf("failed to update reviewer stats: %w", err)
	}
	if err := s.userRepo.ApplyStatsTx(tx, reviewee.ID, repository.StatsDelta{UpvotesReceived: 1}); err != nil {
		return nil, fmt.Errorf("failed to update reviewee stats: %w", err)
	}
	newRep := ApplyReputationDelta(reviewee.Reputation, upvoteReputationGain)
	if err := s.userRepo.UpdateReputationTx(tx, reviewee.ID, newRep); err != nil {
		return nil, fmt.Errorf("failed to update reputation: %w", err)
	}
	if err := s.bumpProficiencyTx(tx, reviewee.ID, review.CourseID, repository.StatsDelta{UpvotesReceived: 1}); err != nil {
		return nil, err
	}

	review.VoteType = models.VoteUpvote
	review.Settled = true
	review.TokensTransferred = 0
	if err := s.reviewRepo.SaveTx(tx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit upvote: %w", err)
	}

	s.metrics.ReviewsSettled.WithLabelValues("upvote").Inc()
	slog.Info("Review settled as upvote", "review_id", review.ID, "reviewee_id", review.RevieweeID)
	return review, nil
}

// castDownvote runs the remark through the moderation gate first. A
// rejected remark costs the reviewer the wager plus the spam penalty and
// settles immediately; a passed remark opens the dispute window.
func (s *ReviewService) castDownvote(ctx context.Context, review *models.PeerReview, reason string) (*models.PeerReview, error) {
	task, err := s.taskRepo.GetByID(review.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, apperrors.NotFound("task not found")
	}

	start := time.Now()
	verdict, fellBack := s.moderation.CheckRemark(ctx, reason, RemarkContext{
		TaskTitle: task.Title,
		TaskTopic: task.Topic,
	})
	s.metrics.ObserveOracle("moderation", start, fellBack)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackUnlessDone(tx)

	review, err = s.lockPending(tx, review.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	review.VoteType = models.VoteDownvote
	review.Reason = reason
	review.RemarkCheckReasoning = verdict.Reasoning
	review.RemarkCheckedAt = &now

	if verdict.Verdict == "reject" {
		reviewer, err := s.userRepo.GetForUpdateTx(tx, review.ReviewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock reviewer: %w", err)
		}

		// The escrowed wager is never returned and the spam penalty comes
		// on top, clamped at a zero balance. Both are sinks.
		taskRef := review.TaskID
		entry, err := s.ledger.RecordTx(tx, reviewer, &taskRef, models.LedgerSpamPenalty, -s.cfg.SpamPenalty,
			"penalty for a downvote remark rejected as spam/abuse")
		if err != nil {
			return nil, err
		}
		penalty := -entry.Amount

		lost := review.Wager + penalty
		if err := s.userRepo.ApplyStatsTx(tx, reviewer.ID, repository.StatsDelta{TokensLost: lost}); err != nil {
			return nil, fmt.Errorf("failed to update reviewer stats: %w", err)
		}

		review.RemarkCheckStatus = models.RemarkRejected
		review.DisputeStatus = models.DisputeRemarkRejected
		review.Settled = true
		review.TokensTransferred = lost
		if err := s.reviewRepo.SaveTx(tx, review); err != nil {
			return nil, fmt.Errorf("failed to save review: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit downvote rejection: %w", err)
		}

		s.metrics.ReviewsSettled.WithLabelValues("remark_rejected").Inc()
		s.metrics.TokensSunk.Add(float64(lost))
		slog.Info("Downvote remark rejected as spam",
			"review_id", review.ID, "reviewer_id", review.ReviewerID, "tokens_lost", lost)
		return review, nil
	}

	reviewee, err := s.userRepo.GetForUpdateTx(tx, review.RevieweeID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock reviewee: %w", err)
	}
	if err := s.userRepo.ApplyStatsTx(tx, reviewee.ID, repository.StatsDelta{DownvotesReceived: 1}); err != nil {
		return nil, fmt.Errorf("failed to update reviewee stats: %w", err)
	}
	if err := s.bumpProficiencyTx(tx, reviewee.ID, review.CourseID, repository.StatsDelta{DownvotesReceived: 1}); err != nil {
		return nil, err
	}

	// Wager stays escrowed until the reviewee responds
	review.RemarkCheckStatus = models.RemarkPassed
	review.DisputeStatus = models.DisputePendingResponse
	if err := s.reviewRepo.SaveTx(tx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit downvote: %w", err)
	}

	slog.Info("Downvote pending reviewee response",
		"review_id", review.ID, "reviewee_id", review.RevieweeID)
	return review, nil
}

// RespondToDownvote lets the reviewee concede the downvote or escalate it
// to arbitration.
func (s *ReviewService) RespondToDownvote(ctx context.Context, reviewID, revieweeID uint, action string) (*models.PeerReview, error) {
	if action != ActionAgree && action != ActionDisagree {
		return nil, apperrors.InvalidArgument("action must be agree or disagree")
	}

	review, err := s.loadReviewFor(reviewID, revieweeID, roleReviewee)
	if err != nil {
		return nil, err
	}
	if review.DisputeStatus != models.DisputePendingResponse {
		return nil, apperrors.Conflict("review is not awaiting a response")
	}

	task, err := s.taskRepo.GetByID(review.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, apperrors.NotFound("task not found")
	}

	if action == ActionAgree {
		return s.settleAgreed(review, task)
	}
	return s.arbitrate(ctx, review, task)
}

// settleAgreed concedes the downvote: the reviewee forfeits the task's
// stake, the reviewer gets the wager back.
func (s *ReviewService) settleAgreed(review *models.PeerReview, task *models.Task) (*models.PeerReview, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackUnlessDone(tx)

	review, err = s.lockInDispute(tx, review.ID, models.DisputePendingResponse)
	if err != nil {
		return nil, err
	}

	reviewer, reviewee, err := s.lockParticipants(tx, review.ReviewerID, review.RevieweeID)
	if err != nil {
		return nil, err
	}

	taskRef := review.TaskID
	entry, err := s.ledger.RecordTx(tx, reviewee, &taskRef, models.LedgerPeerPenalty, -task.TokenStake,
		"stake forfeited after conceding a downvote")
	if err != nil {
		return nil, err
	}
	forfeited := -entry.Amount

	_, err = s.ledger.RecordTx(tx, reviewer, &taskRef, models.LedgerPeerWagerRefund, review.Wager,
		"wager refunded after the reviewee conceded")
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.ApplyStatsTx(tx, reviewee.ID, repository.StatsDelta{DownvotesLost: 1, TokensLost: forfeited}); err != nil {
		return nil, fmt.Errorf("failed to update reviewee stats: %w", err)
	}
	if err := s.bumpProficiencyTx(tx, reviewee.ID, review.CourseID, repository.StatsDelta{DownvotesLost: 1}); err != nil {
		return nil, err
	}

	review.DisputeStatus = models.DisputeAgreed
	review.Settled = true
	review.TokensTransferred = forfeited
	if err := s.reviewRepo.SaveTx(tx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit concession: %w", err)
	}

	s.metrics.ReviewsSettled.WithLabelValues("agreed").Inc()
	s.metrics.TokensSunk.Add(float64(forfeited))
	slog.Info("Downvote conceded", "review_id", review.ID, "tokens_forfeited", forfeited)
	return review, nil
}

// arbitrate escalates the dispute to the judgment oracle. The review moves
// to the visible ai_reviewing state first; the oracle is consulted outside
// any transaction; settlement re-checks the state under lock so a verdict
// is applied exactly once.
func (s *ReviewService) arbitrate(ctx context.Context, review *models.PeerReview, task *models.Task) (*models.PeerReview, error) {
	attempt, err := s.attemptRepo.GetByID(review.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt == nil {
		return nil, apperrors.NotFound("the reviewed submission no longer exists")
	}

	if err := s.markAIReviewing(review); err != nil {
		return nil, err
	}

	start := time.Now()
	verdict, err := s.arbiter.Arbitrate(ctx, attempt.Questions, review.ArtifactRef, review.Reason, ArbitrationContext{
		TaskTitle: task.Title,
		TaskTopic: task.Topic,
	})
	s.metrics.ObserveOracle("arbiter", start, err != nil)
	if err != nil {
		// Benefit of the doubt: an unreachable or contract-violating
		// oracle must not cost the reviewee anything.
		slog.Error("Arbitration fell back to the default verdict", "review_id", review.ID, "error", err)
		verdict = &models.AIVerdict{
			Decision:   models.DecisionRevieweeCorrect,
			Reasoning:  arbiterFallbackReasoning,
			Confidence: 0,
		}
	}

	return s.settleVerdict(review.ID, task, verdict)
}

// markAIReviewing publishes the intermediate arbitration state
func (s *ReviewService) markAIReviewing(review *models.PeerReview) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackUnlessDone(tx)

	locked, err := s.lockInDispute(tx, review.ID, models.DisputePendingResponse)
	if err != nil {
		return err
	}

	locked.DisputeStatus = models.DisputeAIReviewing
	if err := s.reviewRepo.SaveTx(tx, locked); err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit arbitration start: %w", err)
	}

	review.DisputeStatus = models.DisputeAIReviewing
	return nil
}

// settleVerdict applies an arbitration verdict exactly once
func (s *ReviewService) settleVerdict(reviewID uint, task *models.Task, verdict *models.AIVerdict) (*models.PeerReview, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackUnlessDone(tx)

	review, err := s.lockInDispute(tx, reviewID, models.DisputeAIReviewing)
	if err != nil {
		return nil, err
	}

	reviewer, reviewee, err := s.lockParticipants(tx, review.ReviewerID, review.RevieweeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	decision := verdict.Decision
	confidence := verdict.Confidence
	review.AIDecision = &decision
	review.AIReasoning = verdict.Reasoning
	review.AIConfidence = &confidence
	review.AIReviewedAt = &now
	review.Settled = true

	taskRef := review.TaskID
	var outcome string
	var sunk int

	if decision == models.DecisionDownvoterCorrect {
		_, err = s.ledger.RecordTx(tx, reviewer, &taskRef, models.LedgerPeerWagerRefund, review.Wager,
			"wager refunded after winning the dispute")
		if err != nil {
			return nil, err
		}

		entry, err := s.ledger.RecordTx(tx, reviewee, &taskRef, models.LedgerPeerPenalty, -task.Reward,
			"reward forfeited after losing the dispute")
		if err != nil {
			return nil, err
		}
		sunk = -entry.Amount

		newRep := ApplyReputationDelta(reviewee.Reputation, -DisputeReputationPenalty(reviewee.Reputation))
		if err := s.userRepo.UpdateReputationTx(tx, reviewee.ID, newRep); err != nil {
			return nil, fmt.Errorf("failed to update reputation: %w", err)
		}
		if err := s.userRepo.ApplyStatsTx(tx, reviewee.ID, repository.StatsDelta{DownvotesLost: 1, TokensLost: sunk}); err != nil {
			return nil, fmt.Errorf("failed to update reviewee stats: %w", err)
		}
		if err := s.bumpProficiencyTx(tx, reviewee.ID, review.CourseID, repository.StatsDelta{DownvotesLost: 1}); err != nil {
			return nil, err
		}

		review.DisputeStatus = models.DisputeDownvoterWins
		review.TokensTransferred = sunk
		outcome = "downvoter_wins"
	} else {
		// The wager was escrowed at unlock and is simply never returned;
		// the zero-delta entry records the forfeiture for audit.
		_, err = s.ledger.RecordTx(tx, reviewer, &taskRef, models.LedgerWagerForfeit, 0,
			fmt.Sprintf("wager of %d forfeited after losing the dispute", review.Wager))
		if err != nil {
			return nil, err
		}
		sunk = review.Wager

		if err := s.userRepo.ApplyStatsTx(tx, reviewer.ID, repository.StatsDelta{TokensLost: review.Wager}); err != nil {
			return nil, fmt.Errorf("failed to update reviewer stats: %w", err)
		}
		if err := s.userRepo.ApplyStatsTx(tx, reviewee.ID, repository.StatsDelta{DownvotesDefended: 1}); err != nil {
			return nil, fmt.Errorf("failed to update reviewee stats: %w", err)
		}
		if err := s.bumpProficiencyTx(tx, reviewee.ID, review.CourseID, repository.StatsDelta{DownvotesDefended: 1}); err != nil {
			return nil, err
		}

		review.DisputeStatus = models.DisputeRevieweeWins
		review.TokensTransferred = review.Wager
		outcome = "reviewee_wins"
	}

	if err := s.reviewRepo.SaveTx(tx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit verdict: %w", err)
	}

	s.metrics.ReviewsSettled.WithLabelValues(outcome).Inc()
	s.metrics.TokensSunk.Add(float64(sunk))
	slog.Info("Dispute settled by arbitration",
		"review_id", review.ID, "decision", decision, "confidence", confidence, "tokens_sunk", sunk)
	return review, nil
}

// GetReview returns a review to one of its two participants
func (s *ReviewService) GetReview(reviewID, callerID uint) (*models.PeerReview, error) {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, apperrors.NotFound("review not found")
	}
	if review.ReviewerID != callerID && review.RevieweeID != callerID {
		return nil, apperrors.Conflict("you are not a participant in this review")
	}
	return review, nil
}

// Helpers

type participantRole int

const (
	roleReviewer participantRole = iota
	roleReviewee
)

// loadReviewFor fetches a review and checks the caller holds the role
func (s *ReviewService) loadReviewFor(reviewID, userID uint, role participantRole) (*models.PeerReview, error) {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, apperrors.NotFound("review not found")
	}

	switch role {
	case roleReviewer:
		if review.ReviewerID != userID {
			return nil, apperrors.Conflict("only the reviewer may vote on this review")
		}
	case roleReviewee:
		if review.RevieweeID != userID {
			return nil, apperrors.Conflict("only the reviewee may respond to this review")
		}
	}
	return review, nil
}

// lockPending re-reads a review under lock and verifies it still awaits a
// vote. Concurrent votes on the same review serialize here; the loser sees
// the already-advanced state and gets a conflict.
func (s *ReviewService) lockPending(tx *sql.Tx, reviewID uint) (*models.PeerReview, error) {
	review, err := s.reviewRepo.GetForUpdateTx(tx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock review: %w", err)
	}
	if review == nil {
		return nil, apperrors.NotFound("review not found")
	}
	if review.Settled || review.VoteType != models.VotePending {
		return nil, apperrors.Conflict("a vote was already cast on this review")
	}
	return review, nil
}

// lockInDispute re-reads a review under lock and verifies the expected
// dispute state
func (s *ReviewService) lockInDispute(tx *sql.Tx, reviewID uint, expected string) (*models.PeerReview, error) {
	review, err := s.reviewRepo.GetForUpdateTx(tx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock review: %w", err)
	}
	if review == nil {
		return nil, apperrors.NotFound("review not found")
	}
	if review.Settled || review.DisputeStatus != expected {
		return nil, apperrors.Conflict("review is not in the required dispute state")
	}
	return review, nil
}

// lockParticipants locks both user rows in ascending id order so that two
// transitions sharing a participant cannot deadlock
func (s *ReviewService) lockParticipants(tx *sql.Tx, reviewerID, revieweeID uint) (reviewer, reviewee *models.User, err error) {
	first, second := reviewerID, revieweeID
	if second < first {
		first, second = second, first
	}

	users := make(map[uint]*models.User, 2)
	for _, id := range []uint{first, second} {
		user, err := s.userRepo.GetForUpdateTx(tx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to lock user %d: %w", id, err)
		}
		if user == nil {
			return nil, nil, apperrors.NotFound(fmt.Sprintf("user %d not found", id))
		}
		users[id] = user
	}

	return users[reviewerID], users[revieweeID], nil
}

// bumpProficiencyTx applies outcome counters to the lazily created course
// proficiency record and recomputes its score
func (s *ReviewService) bumpProficiencyTx(tx *sql.Tx, userID, courseID uint, d repository.StatsDelta) error {
	p, err := s.proficiencyRepo.GetOrCreateForUpdateTx(tx, userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to load course proficiency: %w", err)
	}

	p.UpvotesReceived += d.UpvotesReceived
	p.DownvotesReceived += d.DownvotesReceived
	p.DownvotesLost += d.DownvotesLost
	p.DownvotesDefended += d.DownvotesDefended
	p.Score = ProficiencyScore(p.UpvotesReceived, p.DownvotesDefended, p.DownvotesLost)

	if err := s.proficiencyRepo.SaveTx(tx, p); err != nil {
		return fmt.Errorf("failed to save course proficiency: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
