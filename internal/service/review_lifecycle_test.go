package service

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"studystake/internal/apperrors"
	"studystake/internal/config"
	"studystake/internal/metrics"
	"studystake/internal/models"
	"studystake/internal/repository"
	"studystake/internal/testutil"
)

const validReason = "the proof in step 3 assumes the input is sorted, but nothing guarantees that"

// newTestEngine wires a review service against the given oracle endpoints
func newTestEngine(db *sql.DB, moderationURL, arbiterURL string) *ReviewService {
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	return NewReviewService(
		db,
		repository.NewPeerReviewRepository(db),
		userRepo,
		repository.NewTaskRepository(db),
		repository.NewQuizAttemptRepository(db),
		repository.NewProficiencyRepository(db),
		NewLedgerService(db, ledgerRepo, userRepo),
		NewModerationService(&config.OracleConfig{
			BaseURL: moderationURL, Model: "m", Enabled: true, Timeout: 2 * time.Second,
		}),
		NewArbiterService(&config.OracleConfig{
			BaseURL: arbiterURL, Model: "m", Enabled: true, Timeout: 2 * time.Second,
		}),
		metrics.New(prometheus.NewRegistry()),
		config.ReviewConfig{SpamPenalty: 10, MinReasonLength: 10, InitialGrant: 50},
	)
}

func getUser(t *testing.T, db *sql.DB, id uint) *models.User {
	t.Helper()
	user, err := repository.NewUserRepository(db).GetByID(id)
	if err != nil {
		t.Fatalf("Failed to get user %d: %v", id, err)
	}
	if user == nil {
		t.Fatalf("User %d not found", id)
	}
	return user
}

func TestReviewLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}

	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)
	db := containers.DB

	passModeration := fakeOllama(t, `{"verdict":"pass","reasoning":"substantive critique"}`)
	defer passModeration.Close()
	rejectModeration := fakeOllama(t, `{"verdict":"reject","reasoning":"pure insult"}`)
	defer rejectModeration.Close()

	t.Run("UpvoteIsNetZero", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		svc := newTestEngine(db, passModeration.URL, passModeration.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		if got := testutil.UserBalance(t, db, f.Reviewer.ID); got != 95 {
			t.Errorf("Expected 95 after unlock, got %d", got)
		}

		review, err = svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteUpvote, "")
		if err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}

		if !review.Settled {
			t.Error("Upvote should settle the review")
		}
		if review.TokensTransferred != 0 {
			t.Errorf("Upvote should transfer no tokens, got %d", review.TokensTransferred)
		}
		if got := testutil.UserBalance(t, db, f.Reviewer.ID); got != 100 {
			t.Errorf("Expected wager back to 100, got %d", got)
		}

		reviewee := getUser(t, db, f.Reviewee.ID)
		if reviewee.Reputation != 22 {
			t.Errorf("Expected reputation 22, got %d", reviewee.Reputation)
		}
		if reviewee.UpvotesReceived != 1 {
			t.Errorf("Expected 1 upvote received, got %d", reviewee.UpvotesReceived)
		}
		reviewer := getUser(t, db, f.Reviewer.ID)
		if reviewer.ReviewsGiven != 1 {
			t.Errorf("Expected 1 review given, got %d", reviewer.ReviewsGiven)
		}

		// Ledger running sum matches the cached balance
		if got := testutil.LedgerBalanceAfter(t, db, f.Reviewer.ID); got != 100 {
			t.Errorf("Ledger balance_after should be 100, got %d", got)
		}
	})

	t.Run("UnlockValidation", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		svc := newTestEngine(db, passModeration.URL, passModeration.URL)

		if _, err := svc.Unlock(f.Reviewee.ID, f.Reviewee.ID, f.Task.ID, 5); !apperrors.IsKind(err, apperrors.KindInvalidArgument) {
			t.Errorf("Self-review should be InvalidArgument, got %v", err)
		}
		if _, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 0); !apperrors.IsKind(err, apperrors.KindInvalidArgument) {
			t.Errorf("Zero wager should be InvalidArgument, got %v", err)
		}
		if _, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, 99999, 5); !apperrors.IsKind(err, apperrors.KindNotFound) {
			t.Errorf("Unknown task should be NotFound, got %v", err)
		}
		if _, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 500); !apperrors.IsKind(err, apperrors.KindInsufficientFunds) {
			t.Errorf("Oversized wager should be InsufficientFunds, got %v", err)
		}

		// No submitted attempt for the reviewer's own account
		if _, err := svc.Unlock(f.Reviewee.ID, f.Reviewer.ID, f.Task.ID, 5); !apperrors.IsKind(err, apperrors.KindNotFound) {
			t.Errorf("Missing submission should be NotFound, got %v", err)
		}

		if _, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5); err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		if _, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5); !apperrors.IsKind(err, apperrors.KindConflict) {
			t.Errorf("Duplicate unlock should be Conflict, got %v", err)
		}
	})

	t.Run("ShortDownvoteReasonRejected", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		svc := newTestEngine(db, passModeration.URL, passModeration.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}

		_, err = svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteDownvote, "bad")
		if !apperrors.IsKind(err, apperrors.KindInvalidArgument) {
			t.Fatalf("Three-char reason should be InvalidArgument, got %v", err)
		}

		// The wager stays escrowed and the review stays open
		if got := testutil.UserBalance(t, db, f.Reviewer.ID); got != 95 {
			t.Errorf("Balance should stay at 95, got %d", got)
		}
		fresh, _ := svc.GetReview(review.ID, f.Reviewer.ID)
		if fresh.VoteType != models.VotePending {
			t.Errorf("Review should still be pending, got %q", fresh.VoteType)
		}
	})

	t.Run("SpamRemarkCostsWagerAndPenalty", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		svc := newTestEngine(db, rejectModeration.URL, passModeration.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}

		review, err = svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteDownvote, "your solution is complete garbage")
		if err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}

		if review.RemarkCheckStatus != models.RemarkRejected {
			t.Errorf("Expected remark rejected, got %q", review.RemarkCheckStatus)
		}
		if review.DisputeStatus != models.DisputeRemarkRejected {
			t.Errorf("Expected dispute status remark_rejected, got %q", review.DisputeStatus)
		}
		if !review.Settled {
			t.Error("A rejected remark should settle the review")
		}
		if review.TokensTransferred != 15 {
			t.Errorf("Expected 15 tokens sunk (wager 5 + penalty 10), got %d", review.TokensTransferred)
		}
		if got := testutil.UserBalance(t, db, f.Reviewer.ID); got != 85 {
			t.Errorf("Expected balance 85, got %d", got)
		}
		reviewer := getUser(t, db, f.Reviewer.ID)
		if reviewer.TokensLost != 15 {
			t.Errorf("Expected tokens_lost 15, got %d", reviewer.TokensLost)
		}

		// The reviewee never learns about a rejected remark
		reviewee := getUser(t, db, f.Reviewee.ID)
		if reviewee.DownvotesReceived != 0 {
			t.Errorf("Reviewee should have no downvote recorded, got %d", reviewee.DownvotesReceived)
		}
	})

	t.Run("SpamPenaltyClampsAtZero", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		poor := testutil.CreateUser(t, db, "poor-"+t.Name()+"@test.com", "Poor Reviewer", 7, 0)
		svc := newTestEngine(db, rejectModeration.URL, passModeration.URL)

		review, err := svc.Unlock(poor.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}

		review, err = svc.CastVote(context.Background(), review.ID, poor.ID, models.VoteDownvote, "this is total nonsense, delete it")
		if err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}

		// Balance was 2 after the wager; the 10-token penalty truncates to 2
		if got := testutil.UserBalance(t, db, poor.ID); got != 0 {
			t.Errorf("Expected balance clamped to 0, got %d", got)
		}
		if review.TokensTransferred != 7 {
			t.Errorf("Expected 7 tokens sunk (wager 5 + clamped penalty 2), got %d", review.TokensTransferred)
		}
		if got := testutil.LedgerBalanceAfter(t, db, poor.ID); got != 0 {
			t.Errorf("Ledger balance_after should be 0, got %d", got)
		}
	})

	t.Run("AgreeForfeitsTaskStake", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		svc := newTestEngine(db, passModeration.URL, passModeration.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		review, err = svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteDownvote, validReason)
		if err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}
		if review.DisputeStatus != models.DisputePendingResponse {
			t.Fatalf("Expected pending_response, got %q", review.DisputeStatus)
		}
		if review.Settled {
			t.Fatal("A passed downvote should not settle before the response")
		}
		reviewee := getUser(t, db, f.Reviewee.ID)
		if reviewee.DownvotesReceived != 1 {
			t.Errorf("Expected 1 downvote received, got %d", reviewee.DownvotesReceived)
		}

		// Only the reviewee may respond
		if _, err := svc.RespondToDownvote(context.Background(), review.ID, f.Reviewer.ID, ActionAgree); !apperrors.IsKind(err, apperrors.KindConflict) {
			t.Errorf("Reviewer responding should be Conflict, got %v", err)
		}

		review, err = svc.RespondToDownvote(context.Background(), review.ID, f.Reviewee.ID, ActionAgree)
		if err != nil {
			t.Fatalf("RespondToDownvote failed: %v", err)
		}

		if review.DisputeStatus != models.DisputeAgreed {
			t.Errorf("Expected agreed, got %q", review.DisputeStatus)
		}
		if review.TokensTransferred != 8 {
			t.Errorf("Expected forfeit of task stake 8, got %d", review.TokensTransferred)
		}
		if got := testutil.UserBalance(t, db, f.Reviewee.ID); got != 92 {
			t.Errorf("Expected reviewee balance 92, got %d", got)
		}
		if got := testutil.UserBalance(t, db, f.Reviewer.ID); got != 100 {
			t.Errorf("Expected reviewer refunded to 100, got %d", got)
		}
		reviewee = getUser(t, db, f.Reviewee.ID)
		if reviewee.DownvotesLost != 1 {
			t.Errorf("Expected 1 downvote lost, got %d", reviewee.DownvotesLost)
		}

		// Terminal states cannot be responded to again
		if _, err := svc.RespondToDownvote(context.Background(), review.ID, f.Reviewee.ID, ActionAgree); !apperrors.IsKind(err, apperrors.KindConflict) {
			t.Errorf("Double response should be Conflict, got %v", err)
		}
	})

	t.Run("DisagreeDownvoterWins", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		downvoterWins := fakeOllama(t, `{"decision":"downvoter_correct","reasoning":"the remark is right","confidence":0.85}`)
		defer downvoterWins.Close()
		svc := newTestEngine(db, passModeration.URL, downvoterWins.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		if _, err := svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteDownvote, validReason); err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}

		review, err = svc.RespondToDownvote(context.Background(), review.ID, f.Reviewee.ID, ActionDisagree)
		if err != nil {
			t.Fatalf("RespondToDownvote failed: %v", err)
		}

		if review.DisputeStatus != models.DisputeDownvoterWins {
			t.Errorf("Expected resolved_downvoter_wins, got %q", review.DisputeStatus)
		}
		if review.AIDecision == nil || *review.AIDecision != models.DecisionDownvoterCorrect {
			t.Errorf("Expected AI decision downvoter_correct, got %v", review.AIDecision)
		}
		if review.AIConfidence == nil || *review.AIConfidence != 0.85 {
			t.Errorf("Expected confidence 0.85, got %v", review.AIConfidence)
		}
		// Reviewer gets the wager back; the reviewee loses the task reward
		if got := testutil.UserBalance(t, db, f.Reviewer.ID); got != 100 {
			t.Errorf("Expected reviewer balance 100, got %d", got)
		}
		if got := testutil.UserBalance(t, db, f.Reviewee.ID); got != 88 {
			t.Errorf("Expected reviewee balance 88 (lost reward 12), got %d", got)
		}
		// Reputation drops by ceil(5 + 2*sqrt(20)) = 14, floored at 0
		reviewee := getUser(t, db, f.Reviewee.ID)
		if reviewee.Reputation != 6 {
			t.Errorf("Expected reputation 6, got %d", reviewee.Reputation)
		}
		if reviewee.DownvotesLost != 1 {
			t.Errorf("Expected 1 downvote lost, got %d", reviewee.DownvotesLost)
		}
	})

	t.Run("DisagreeRevieweeWins", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		revieweeWins := fakeOllama(t, `{"decision":"reviewee_correct","reasoning":"the remark misreads the solution","confidence":0.7}`)
		defer revieweeWins.Close()
		svc := newTestEngine(db, passModeration.URL, revieweeWins.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		if _, err := svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteDownvote, validReason); err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}

		review, err = svc.RespondToDownvote(context.Background(), review.ID, f.Reviewee.ID, ActionDisagree)
		if err != nil {
			t.Fatalf("RespondToDownvote failed: %v", err)
		}

		if review.DisputeStatus != models.DisputeRevieweeWins {
			t.Errorf("Expected resolved_reviewee_wins, got %q", review.DisputeStatus)
		}
		// The reviewer forfeits the escrowed wager; the reviewee is untouched
		if got := testutil.UserBalance(t, db, f.Reviewer.ID); got != 95 {
			t.Errorf("Expected reviewer balance 95, got %d", got)
		}
		if got := testutil.UserBalance(t, db, f.Reviewee.ID); got != 100 {
			t.Errorf("Expected reviewee balance 100, got %d", got)
		}
		if review.TokensTransferred != 5 {
			t.Errorf("Expected forfeited wager 5, got %d", review.TokensTransferred)
		}

		reviewee := getUser(t, db, f.Reviewee.ID)
		if reviewee.Reputation != 20 {
			t.Errorf("Defended dispute should not cost reputation, got %d", reviewee.Reputation)
		}
		if reviewee.DownvotesDefended != 1 {
			t.Errorf("Expected 1 downvote defended, got %d", reviewee.DownvotesDefended)
		}
		reviewer := getUser(t, db, f.Reviewer.ID)
		if reviewer.TokensLost != 5 {
			t.Errorf("Expected reviewer tokens_lost 5, got %d", reviewer.TokensLost)
		}
	})

	t.Run("ArbiterDownDefaultsToReviewee", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		deadArbiter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(5 * time.Second)
		}))
		defer deadArbiter.Close()
		svc := newTestEngine(db, passModeration.URL, deadArbiter.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		if _, err := svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteDownvote, validReason); err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}

		review, err = svc.RespondToDownvote(context.Background(), review.ID, f.Reviewee.ID, ActionDisagree)
		if err != nil {
			t.Fatalf("RespondToDownvote failed: %v", err)
		}

		if review.DisputeStatus != models.DisputeRevieweeWins {
			t.Errorf("Oracle failure must favor the reviewee, got %q", review.DisputeStatus)
		}
		if review.AIDecision == nil || *review.AIDecision != models.DecisionRevieweeCorrect {
			t.Errorf("Expected fallback decision reviewee_correct, got %v", review.AIDecision)
		}
		if review.AIConfidence == nil || *review.AIConfidence != 0 {
			t.Errorf("Fallback verdict should carry confidence 0, got %v", review.AIConfidence)
		}
		if got := testutil.UserBalance(t, db, f.Reviewee.ID); got != 100 {
			t.Errorf("The reviewee must not lose tokens on an oracle failure, got balance %d", got)
		}
	})

	t.Run("ProficiencyTracksOutcomes", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		svc := newTestEngine(db, passModeration.URL, passModeration.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}
		if _, err := svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteUpvote, ""); err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}

		p, err := repository.NewProficiencyRepository(db).GetByUserAndCourse(f.Reviewee.ID, f.Task.CourseID)
		if err != nil {
			t.Fatalf("Failed to get proficiency: %v", err)
		}
		if p == nil {
			t.Fatal("Proficiency record should have been created lazily")
		}
		if p.UpvotesReceived != 1 || p.Score != 2 {
			t.Errorf("Expected 1 upvote / score 2, got %d / %d", p.UpvotesReceived, p.Score)
		}
	})

	t.Run("VoteOwnershipAndIdempotence", func(t *testing.T) {
		f := testutil.SetupFixtures(t, db)
		svc := newTestEngine(db, passModeration.URL, passModeration.URL)

		review, err := svc.Unlock(f.Reviewer.ID, f.Reviewee.ID, f.Task.ID, 5)
		if err != nil {
			t.Fatalf("Unlock failed: %v", err)
		}

		if _, err := svc.CastVote(context.Background(), review.ID, f.Reviewee.ID, models.VoteUpvote, ""); !apperrors.IsKind(err, apperrors.KindConflict) {
			t.Errorf("Non-reviewer voting should be Conflict, got %v", err)
		}
		if _, err := svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, "sideways", ""); !apperrors.IsKind(err, apperrors.KindInvalidArgument) {
			t.Errorf("Unknown vote type should be InvalidArgument, got %v", err)
		}
		if _, err := svc.CastVote(context.Background(), 99999, f.Reviewer.ID, models.VoteUpvote, ""); !apperrors.IsKind(err, apperrors.KindNotFound) {
			t.Errorf("Unknown review should be NotFound, got %v", err)
		}

		if _, err := svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteUpvote, ""); err != nil {
			t.Fatalf("CastVote failed: %v", err)
		}
		if _, err := svc.CastVote(context.Background(), review.ID, f.Reviewer.ID, models.VoteUpvote, ""); !apperrors.IsKind(err, apperrors.KindConflict) {
			t.Errorf("Second vote should be Conflict, got %v", err)
		}
	})

	t.Run("InitialGrant", func(t *testing.T) {
		user := testutil.CreateUser(t, db, "grantee-"+strings.ReplaceAll(t.Name(), "/", "-")+"@test.com", "Grantee", 0, 0)
		userRepo := repository.NewUserRepository(db)
		ledger := NewLedgerService(db, repository.NewLedgerRepository(db), userRepo)

		entry, err := ledger.Grant(user.ID, 50, "welcome grant")
		if err != nil {
			t.Fatalf("Grant failed: %v", err)
		}
		if entry.Kind != models.LedgerInitialGrant || entry.BalanceAfter != 50 {
			t.Errorf("Unexpected grant entry: %+v", entry)
		}
		if got := testutil.UserBalance(t, db, user.ID); got != 50 {
			t.Errorf("Expected balance 50, got %d", got)
		}

		if _, err := ledger.Grant(user.ID, 0, "nothing"); err == nil {
			t.Error("Zero grant should fail")
		}
	})
}
