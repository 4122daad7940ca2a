package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"studystake/internal/config"
	"studystake/internal/models"
)

const moderationFallbackReasoning = "Moderation oracle unavailable; remark accepted by default."

// RemarkContext gives the moderation oracle the task the remark refers to
type RemarkContext struct {
	TaskTitle string
	TaskTopic string
}

// ModerationService asks an external oracle whether a downvote remark is
// legitimate academic critique or spam/abuse. It is purely advisory and
// writes no state. Any failure defaults to pass: a legitimate downvote
// must never be discarded because the oracle was down.
type ModerationService struct {
	baseURL string
	model   string
	enabled bool
	client  *http.Client
}

// NewModerationService creates a new moderation service
func NewModerationService(cfg *config.OracleConfig) *ModerationService {
	return &ModerationService{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		enabled: cfg.Enabled,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// CheckRemark classifies a downvote remark. It never returns an error; the
// second return value reports whether the pass verdict is a fallback.
func (s *ModerationService) CheckRemark(ctx context.Context, remark string, rctx RemarkContext) (*models.RemarkVerdict, bool) {
	if !s.enabled {
		return &models.RemarkVerdict{Verdict: "pass", Reasoning: moderationFallbackReasoning}, true
	}

	raw, err := generate(ctx, s.client, s.baseURL, s.model, s.buildPrompt(remark, rctx))
	if err != nil {
		slog.Error("Moderation oracle call failed", "error", err)
		return &models.RemarkVerdict{Verdict: "pass", Reasoning: moderationFallbackReasoning}, true
	}

	var verdict models.RemarkVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		slog.Error("Moderation oracle returned malformed verdict", "error", err, "raw", raw)
		return &models.RemarkVerdict{Verdict: "pass", Reasoning: moderationFallbackReasoning}, true
	}

	switch verdict.Verdict {
	case "pass", "reject":
		return &verdict, false
	default:
		slog.Error("Moderation oracle returned unknown verdict", "verdict", verdict.Verdict)
		return &models.RemarkVerdict{Verdict: "pass", Reasoning: moderationFallbackReasoning}, true
	}
}

func (s *ModerationService) buildPrompt(remark string, rctx RemarkContext) string {
	var sb strings.Builder
	sb.WriteString("You moderate peer review remarks on a study platform. ")
	sb.WriteString("Decide whether the following downvote remark is a legitimate academic critique ")
	sb.WriteString("of a submitted solution, or spam/abuse (insults, gibberish, off-topic content, ")
	sb.WriteString("or a remark with no relation to the solution). ")
	sb.WriteString("When in doubt, let the critique through. ")
	sb.WriteString(`Answer ONLY with JSON of the form {"verdict":"pass"|"reject","reasoning":"..."}.`)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Task: %s (topic: %s)\n", rctx.TaskTitle, rctx.TaskTopic))
	sb.WriteString(fmt.Sprintf("Remark: %s\n", remark))
	return sb.String()
}
