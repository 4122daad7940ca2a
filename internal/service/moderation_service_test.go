package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studystake/internal/config"
)

func fakeOllama(t *testing.T, response string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode oracle request: %v", err)
		}
		if req.Stream {
			t.Error("Oracle requests should not stream")
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: response, Done: true})
	}))
}

func moderationFor(url string, timeout time.Duration) *ModerationService {
	return NewModerationService(&config.OracleConfig{
		BaseURL: url,
		Model:   "test-model",
		Enabled: true,
		Timeout: timeout,
	})
}

func TestCheckRemarkPass(t *testing.T) {
	srv := fakeOllama(t, `{"verdict":"pass","reasoning":"substantive critique of the proof"}`)
	defer srv.Close()

	svc := moderationFor(srv.URL, 5*time.Second)
	verdict, fellBack := svc.CheckRemark(context.Background(), "Step 3 assumes the tree is balanced", RemarkContext{TaskTitle: "BST", TaskTopic: "trees"})

	if fellBack {
		t.Error("A clean pass should not count as fallback")
	}
	if verdict.Verdict != "pass" {
		t.Errorf("Expected pass, got %q", verdict.Verdict)
	}
	if verdict.Reasoning == "" {
		t.Error("Reasoning should be carried through")
	}
}

func TestCheckRemarkReject(t *testing.T) {
	srv := fakeOllama(t, `{"verdict":"reject","reasoning":"the remark is an insult"}`)
	defer srv.Close()

	svc := moderationFor(srv.URL, 5*time.Second)
	verdict, fellBack := svc.CheckRemark(context.Background(), "your solution is garbage", RemarkContext{})

	if fellBack {
		t.Error("A clean reject should not count as fallback")
	}
	if verdict.Verdict != "reject" {
		t.Errorf("Expected reject, got %q", verdict.Verdict)
	}
}

func TestCheckRemarkOracleDownDefaultsToPass(t *testing.T) {
	srv := fakeOllama(t, "")
	srv.Close() // oracle unreachable

	svc := moderationFor(srv.URL, 1*time.Second)
	verdict, fellBack := svc.CheckRemark(context.Background(), "the loop never terminates", RemarkContext{})

	if !fellBack {
		t.Error("An unreachable oracle must report fallback")
	}
	if verdict.Verdict != "pass" {
		t.Errorf("Unreachable oracle must default to pass, got %q", verdict.Verdict)
	}
}

func TestCheckRemarkGarbageDefaultsToPass(t *testing.T) {
	srv := fakeOllama(t, "not json at all")
	defer srv.Close()

	svc := moderationFor(srv.URL, 5*time.Second)
	verdict, fellBack := svc.CheckRemark(context.Background(), "off by one in the base case", RemarkContext{})

	if !fellBack {
		t.Error("Malformed output must report fallback")
	}
	if verdict.Verdict != "pass" {
		t.Errorf("Malformed output must default to pass, got %q", verdict.Verdict)
	}
}

func TestCheckRemarkUnknownVerdictDefaultsToPass(t *testing.T) {
	srv := fakeOllama(t, `{"verdict":"maybe","reasoning":"unsure"}`)
	defer srv.Close()

	svc := moderationFor(srv.URL, 5*time.Second)
	verdict, fellBack := svc.CheckRemark(context.Background(), "wrong complexity bound", RemarkContext{})

	if !fellBack {
		t.Error("An out-of-contract verdict must report fallback")
	}
	if verdict.Verdict != "pass" {
		t.Errorf("Out-of-contract verdict must default to pass, got %q", verdict.Verdict)
	}
}

func TestCheckRemarkTimeoutDefaultsToPass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	svc := moderationFor(srv.URL, 50*time.Millisecond)
	verdict, fellBack := svc.CheckRemark(context.Background(), "missing null check", RemarkContext{})

	if !fellBack {
		t.Error("A timed-out oracle must report fallback")
	}
	if verdict.Verdict != "pass" {
		t.Errorf("Timed-out oracle must default to pass, got %q", verdict.Verdict)
	}
}

func TestCheckRemarkDisabled(t *testing.T) {
	svc := NewModerationService(&config.OracleConfig{Enabled: false, Timeout: time.Second})
	verdict, fellBack := svc.CheckRemark(context.Background(), "anything", RemarkContext{})

	if !fellBack {
		t.Error("A disabled oracle must report fallback")
	}
	if verdict.Verdict != "pass" {
		t.Errorf("Disabled oracle must default to pass, got %q", verdict.Verdict)
	}
}
