package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"studystake/internal/middleware"
	"studystake/internal/repository"
)

// LedgerHandler serves the caller's token ledger and proficiency read views
type LedgerHandler struct {
	ledgerRepo      *repository.LedgerRepository
	userRepo        *repository.UserRepository
	proficiencyRepo *repository.ProficiencyRepository
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(
	ledgerRepo *repository.LedgerRepository,
	userRepo *repository.UserRepository,
	proficiencyRepo *repository.ProficiencyRepository,
) *LedgerHandler {
	return &LedgerHandler{
		ledgerRepo:      ledgerRepo,
		userRepo:        userRepo,
		proficiencyRepo: proficiencyRepo,
	}
}

// GetLedger returns the caller's full token ledger, oldest first
// @Summary Get token ledger
// @Description Every balance-affecting event for the authenticated user, in insertion order
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Balance and entries"
// @Router /ledger [get]
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	user, err := h.userRepo.GetByID(userID)
	if err != nil {
		slog.Error("Failed to get user", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	entries, err := h.ledgerRepo.ListByUser(userID)
	if err != nil {
		slog.Error("Failed to list ledger entries", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list ledger entries")
		return
	}

	JSONResponse(w, map[string]interface{}{
		"balance":    user.TokenBalance,
		"reputation": user.Reputation,
		"entries":    entries,
	})
}

// GetProficiency returns the caller's proficiency for one course
// @Summary Get course proficiency
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param courseId query int true "Course ID"
// @Success 200 {object} models.CourseProficiency
// @Failure 400 {object} map[string]string "Missing or invalid courseId"
// @Failure 404 {object} map[string]string "No proficiency record yet"
// @Router /proficiency [get]
func (h *LedgerHandler) GetProficiency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	courseID, err := strconv.ParseUint(r.URL.Query().Get("courseId"), 10, 32)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "A numeric courseId query parameter is required")
		return
	}

	proficiency, err := h.proficiencyRepo.GetByUserAndCourse(userID, uint(courseID))
	if err != nil {
		slog.Error("Failed to get proficiency", "user_id", userID, "course_id", courseID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to get proficiency")
		return
	}
	if proficiency == nil {
		respondWithError(w, http.StatusNotFound, "No proficiency recorded for this course yet")
		return
	}

	JSONResponse(w, proficiency)
}
