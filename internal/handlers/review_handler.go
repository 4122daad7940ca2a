package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"studystake/internal/middleware"
	"studystake/internal/repository"
	"studystake/internal/service"
)

// ReviewHandler handles peer review HTTP requests
type ReviewHandler struct {
	reviewService *service.ReviewService
	reviewRepo    *repository.PeerReviewRepository
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *service.ReviewService, reviewRepo *repository.PeerReviewRepository) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		reviewRepo:    reviewRepo,
	}
}

// UnlockRequest is the payload for opening a peer's submission for review
type UnlockRequest struct {
	RevieweeID uint `json:"reviewee_id" validate:"required"`
	TaskID     uint `json:"task_id" validate:"required"`
	Wager      int  `json:"wager" validate:"required,min=1"`
}

// VoteRequest is the payload for casting a vote on an unlocked review
type VoteRequest struct {
	VoteType string `json:"vote_type" validate:"required,oneof=upvote downvote"`
	Reason   string `json:"reason" validate:"max=2000"`
}

// RespondRequest is the reviewee's answer to a downvote
type RespondRequest struct {
	Action string `json:"action" validate:"required,oneof=agree disagree"`
}

// Unlock stakes tokens to open a peer's submission for review
// @Summary Unlock a submission for review
// @Description Stake a wager to view a peer's submitted solution and gain the right to vote on it
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UnlockRequest true "Reviewee, task and wager"
// @Success 201 {object} models.PeerReview "Review created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 402 {object} map[string]string "Insufficient token balance"
// @Failure 404 {object} map[string]string "Task or submission not found"
// @Failure 409 {object} map[string]string "Review already exists"
// @Router /reviews/unlock [post]
func (h *ReviewHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviewService.Unlock(userID, req.RevieweeID, req.TaskID, req.Wager)
	if err != nil {
		slog.Warn("Unlock rejected", "user_id", userID, "task_id", req.TaskID, "error", err)
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, review)
}

// Vote casts the reviewer's vote on an unlocked review
// @Summary Cast a vote
// @Description Upvote settles immediately and refunds the wager; a downvote needs a substantive reason and runs through the remark quality gate
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body VoteRequest true "Vote type and downvote reason"
// @Success 200 {object} models.PeerReview "Updated review"
// @Failure 400 {object} map[string]string "Invalid vote or reason too short"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 409 {object} map[string]string "Vote already cast or caller is not the reviewer"
// @Router /reviews/{id}/vote [post]
func (h *ReviewHandler) Vote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reviewID, err := extractPathID(r.URL.Path, ReviewsAPIBasePath+"/")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidReviewID)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviewService.CastVote(r.Context(), reviewID, userID, req.VoteType, req.Reason)
	if err != nil {
		slog.Warn("Vote rejected", "review_id", reviewID, "user_id", userID, "error", err)
		respondWithAppError(w, err)
		return
	}

	JSONResponse(w, review)
}

// Respond records the reviewee's agree/disagree answer to a downvote
// @Summary Respond to a downvote
// @Description Agree concedes the downvote and forfeits the task stake; disagree escalates the dispute to AI arbitration
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body RespondRequest true "agree or disagree"
// @Success 200 {object} models.PeerReview "Settled review"
// @Failure 400 {object} map[string]string "Invalid action"
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 409 {object} map[string]string "Review is not awaiting a response"
// @Router /reviews/{id}/respond [post]
func (h *ReviewHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reviewID, err := extractPathID(r.URL.Path, ReviewsAPIBasePath+"/")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidReviewID)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviewService.RespondToDownvote(r.Context(), reviewID, userID, req.Action)
	if err != nil {
		slog.Warn("Downvote response rejected", "review_id", reviewID, "user_id", userID, "error", err)
		respondWithAppError(w, err)
		return
	}

	JSONResponse(w, review)
}

// Get returns a single review to one of its participants
// @Summary Get a review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} models.PeerReview
// @Failure 404 {object} map[string]string "Review not found"
// @Failure 409 {object} map[string]string "Caller is not a participant"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reviewID, err := extractPathID(r.URL.Path, ReviewsAPIBasePath+"/")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidReviewID)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	review, err := h.reviewService.GetReview(reviewID, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	JSONResponse(w, review)
}

// ListGiven returns the reviews the caller has performed
// @Summary List reviews given
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PeerReview
// @Router /reviews/given [get]
func (h *ReviewHandler) ListGiven(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	reviews, err := h.reviewRepo.ListByReviewer(userID)
	if err != nil {
		slog.Error("Failed to list given reviews", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list reviews")
		return
	}

	JSONResponse(w, reviews)
}

// ListReceived returns the reviews of the caller's submissions
// @Summary List reviews received
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PeerReview
// @Router /reviews/received [get]
func (h *ReviewHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	reviews, err := h.reviewRepo.ListByReviewee(userID)
	if err != nil {
		slog.Error("Failed to list received reviews", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list reviews")
		return
	}

	JSONResponse(w, reviews)
}
