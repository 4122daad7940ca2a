package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studystake/internal/apperrors"
	"studystake/internal/config"
	"studystake/internal/models"
)

func arbiterFor(url string, timeout time.Duration) *ArbiterService {
	return NewArbiterService(&config.OracleConfig{
		BaseURL: url,
		Model:   "test-model",
		Enabled: true,
		Timeout: timeout,
	})
}

var testQuestions = []byte(`[{"question":"q1","answer":"a1"}]`)

func TestArbitrateDownvoterCorrect(t *testing.T) {
	srv := fakeOllama(t, `{"decision":"downvoter_correct","reasoning":"the proof skips the inductive step","confidence":0.9}`)
	defer srv.Close()

	svc := arbiterFor(srv.URL, 5*time.Second)
	verdict, err := svc.Arbitrate(context.Background(), testQuestions, "artifacts/abc", "step 2 is wrong", ArbitrationContext{})
	if err != nil {
		t.Fatalf("Arbitrate failed: %v", err)
	}

	if verdict.Decision != models.DecisionDownvoterCorrect {
		t.Errorf("Expected downvoter_correct, got %q", verdict.Decision)
	}
	if verdict.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %v", verdict.Confidence)
	}
}

func TestArbitrateRevieweeCorrect(t *testing.T) {
	srv := fakeOllama(t, `{"decision":"reviewee_correct","reasoning":"the remark misreads the solution","confidence":0.75}`)
	defer srv.Close()

	svc := arbiterFor(srv.URL, 5*time.Second)
	verdict, err := svc.Arbitrate(context.Background(), testQuestions, "artifacts/abc", "wrong answer", ArbitrationContext{})
	if err != nil {
		t.Fatalf("Arbitrate failed: %v", err)
	}

	if verdict.Decision != models.DecisionRevieweeCorrect {
		t.Errorf("Expected reviewee_correct, got %q", verdict.Decision)
	}
}

func TestArbitrateConfidenceClamp(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"above one", `{"decision":"downvoter_correct","reasoning":"r","confidence":1.4}`, 0.5},
		{"negative", `{"decision":"downvoter_correct","reasoning":"r","confidence":-0.2}`, 0.5},
		{"boundary zero", `{"decision":"downvoter_correct","reasoning":"r","confidence":0}`, 0},
		{"boundary one", `{"decision":"downvoter_correct","reasoning":"r","confidence":1}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeOllama(t, tt.response)
			defer srv.Close()

			svc := arbiterFor(srv.URL, 5*time.Second)
			verdict, err := svc.Arbitrate(context.Background(), testQuestions, "a", "r", ArbitrationContext{})
			if err != nil {
				t.Fatalf("Arbitrate failed: %v", err)
			}
			if verdict.Confidence != tt.want {
				t.Errorf("Expected confidence %v, got %v", tt.want, verdict.Confidence)
			}
		})
	}
}

func TestArbitrateContractViolation(t *testing.T) {
	srv := fakeOllama(t, `{"decision":"both_wrong","reasoning":"r","confidence":0.5}`)
	defer srv.Close()

	svc := arbiterFor(srv.URL, 5*time.Second)
	_, err := svc.Arbitrate(context.Background(), testQuestions, "a", "r", ArbitrationContext{})
	if err == nil {
		t.Fatal("An out-of-contract decision must fail")
	}
	if !apperrors.IsKind(err, apperrors.KindOracleUnavailable) {
		t.Errorf("Expected OracleUnavailable, got %v", err)
	}
}

func TestArbitrateMalformedOutput(t *testing.T) {
	srv := fakeOllama(t, "the downvoter is probably right")
	defer srv.Close()

	svc := arbiterFor(srv.URL, 5*time.Second)
	_, err := svc.Arbitrate(context.Background(), testQuestions, "a", "r", ArbitrationContext{})
	if err == nil {
		t.Fatal("Malformed output must fail")
	}
	if !apperrors.IsKind(err, apperrors.KindOracleUnavailable) {
		t.Errorf("Expected OracleUnavailable, got %v", err)
	}
}

func TestArbitrateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	svc := arbiterFor(srv.URL, 50*time.Millisecond)
	_, err := svc.Arbitrate(context.Background(), testQuestions, "a", "r", ArbitrationContext{})
	if err == nil {
		t.Fatal("A timed-out oracle must fail")
	}
	if !apperrors.IsKind(err, apperrors.KindOracleUnavailable) {
		t.Errorf("Expected OracleUnavailable, got %v", err)
	}
}

func TestArbitrateDisabled(t *testing.T) {
	svc := NewArbiterService(&config.OracleConfig{Enabled: false, Timeout: time.Second})
	_, err := svc.Arbitrate(context.Background(), testQuestions, "a", "r", ArbitrationContext{})
	if err == nil {
		t.Fatal("A disabled oracle must fail")
	}
	if !apperrors.IsKind(err, apperrors.KindOracleUnavailable) {
		t.Errorf("Expected OracleUnavailable, got %v", err)
	}
}
