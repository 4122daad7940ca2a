package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studystake/internal/auth"
	"studystake/internal/config"
	"studystake/internal/models"
)

// AuthHelper provides JWT token generation for tests
type AuthHelper struct {
	service *auth.Service
}

// NewAuthHelper creates a new auth helper using the shared test secret
func NewAuthHelper() *AuthHelper {
	return &AuthHelper{
		service: auth.NewService(&config.JWTConfig{
			Secret:     "test-secret-key-for-testing-only",
			Expiration: time.Hour,
		}),
	}
}

// AddAuthHeader adds an authorization header to the request
func (h *AuthHelper) AddAuthHeader(t *testing.T, req *http.Request, user *models.User) {
	t.Helper()

	token, err := h.service.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
}

// CreateAuthenticatedRequest creates a request with auth header
func (h *AuthHelper) CreateAuthenticatedRequest(t *testing.T, method, url string, body io.Reader, user *models.User) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	h.AddAuthHeader(t, req, user)
	return req
}

// TestResponse holds response data for assertions
type TestResponse struct {
	*httptest.ResponseRecorder
}

// NewTestResponse creates a new test response recorder
func NewTestResponse() *TestResponse {
	return &TestResponse{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

// AssertStatus asserts the HTTP status code
func (r *TestResponse) AssertStatus(t *testing.T, expected int) {
	t.Helper()

	if r.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, r.Code, r.Body.String())
	}
}
