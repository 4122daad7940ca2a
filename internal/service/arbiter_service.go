package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"studystake/internal/apperrors"
	"studystake/internal/config"
	"studystake/internal/models"
)

// ArbitrationContext gives the judgment oracle the task under dispute
type ArbitrationContext struct {
	TaskTitle string
	TaskTopic string
}

// ArbiterService asks an external judgment oracle to decide a contested
// downvote. Unlike the moderation gate it holds no internal default: a
// failed or contract-violating call surfaces as OracleUnavailable and the
// caller applies the benefit-of-doubt policy.
type ArbiterService struct {
	baseURL string
	model   string
	enabled bool
	client  *http.Client
}

// NewArbiterService creates a new arbiter service
func NewArbiterService(cfg *config.OracleConfig) *ArbiterService {
	return &ArbiterService{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		enabled: cfg.Enabled,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Arbitrate decides whether the downvoter or the reviewee is correct.
// The decision is validated strictly against the two allowed values; a
// confidence outside [0,1] is clamped to 0.5 rather than rejected.
func (s *ArbiterService) Arbitrate(ctx context.Context, questions json.RawMessage, artifactRef, remark string, actx ArbitrationContext) (*models.AIVerdict, error) {
	if !s.enabled {
		return nil, apperrors.OracleUnavailable("arbitration oracle disabled", nil)
	}

	raw, err := generate(ctx, s.client, s.baseURL, s.model, s.buildPrompt(questions, artifactRef, remark, actx))
	if err != nil {
		return nil, apperrors.OracleUnavailable("arbitration oracle call failed", err)
	}

	var verdict models.AIVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, apperrors.OracleUnavailable("arbitration oracle returned malformed verdict", err)
	}

	switch verdict.Decision {
	case models.DecisionDownvoterCorrect, models.DecisionRevieweeCorrect:
	default:
		return nil, apperrors.OracleUnavailable(
			fmt.Sprintf("arbitration oracle violated the decision contract: %q", verdict.Decision), nil)
	}

	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		verdict.Confidence = 0.5
	}

	return &verdict, nil
}

func (s *ArbiterService) buildPrompt(questions json.RawMessage, artifactRef, remark string, actx ArbitrationContext) string {
	var sb strings.Builder
	sb.WriteString("You arbitrate a dispute on a study platform. A reviewer downvoted a peer's ")
	sb.WriteString("submitted solution with the remark below; the author disagrees. ")
	sb.WriteString("Given the quiz questions and the submitted solution reference, decide who is correct. ")
	sb.WriteString(`Answer ONLY with JSON of the form `)
	sb.WriteString(`{"decision":"downvoter_correct"|"reviewee_correct","reasoning":"...","confidence":0.0-1.0}.`)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Task: %s (topic: %s)\n", actx.TaskTitle, actx.TaskTopic))
	sb.WriteString(fmt.Sprintf("Quiz questions: %s\n", string(questions)))
	sb.WriteString(fmt.Sprintf("Submitted solution: %s\n", artifactRef))
	sb.WriteString(fmt.Sprintf("Downvote remark: %s\n", remark))
	return sb.String()
}
