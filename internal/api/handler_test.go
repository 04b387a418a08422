// internal/api/handler_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "scholarship-matcher/internal/common/errors"
	"scholarship-matcher/internal/common/logger"
	"scholarship-matcher/internal/models"
	"scholarship-matcher/internal/notify"
	"scholarship-matcher/internal/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type stubSearcher struct {
	mu       sync.Mutex
	calls    int
	profile  *models.ApplicantProfile
	response *models.MatchResponse
	err      error
}

func (s *stubSearcher) Search(ctx context.Context, profile *models.ApplicantProfile) (*models.MatchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.profile = profile
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	matches []models.MatchResult
	err     error
}

func (n *recordingNotifier) NotifyDeadlines(ctx context.Context, profile *models.ApplicantProfile, matches []models.MatchResult) (*notify.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matches = matches
	return &notify.Result{Status: notify.StatusSent}, n.err
}

// ==========================
// Test Helper Functions
// ==========================

const validProfile = `{
	"academic": {"gpa": 3.6, "gradeLevel": "undergraduate", "fieldOfStudy": "Computer Science", "graduationYear": 2027},
	"demographics": {"state": "CA", "country": "US"},
	"skills": ["leadership"],
	"interests": ["stem"]
}`

func createTestResponse() *models.MatchResponse {
	return &models.MatchResponse{
		Matches: []models.MatchResult{{
			Scholarship:       models.ScholarshipRecord{ID: "s1", Name: "STEM Excellence"},
			MatchScore:        80,
			Reasons:           []string{"Excellent overall match for your profile"},
			Urgency:           models.UrgencyHigh,
			DaysUntilDeadline: 12,
		}},
		Processing: models.ProcessingSummary{TotalProcessed: 3, ProcessingTimeMs: 2, ModelUsed: "weighted-axis-v1"},
	}
}

func newTestHandler(t *testing.T, searcher Searcher, limit int, opts ...Option) *Handler {
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: limit, Window: time.Minute})
	opts = append(opts, WithGatherer(prometheus.NewRegistry()))
	h := NewHandler(Config{}, searcher, limiter, logger.NewTestLogger(t), opts...)
	h.newID = func() string { return "req-1" }
	return h
}

func postSearch(h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, SearchPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Search
// ==========================

func TestSearch_Success(t *testing.T) {
	searcher := &stubSearcher{response: createTestResponse()}
	h := newTestHandler(t, searcher, 25).Routes()

	rec := postSearch(h, `{"userProfile": `+validProfile+`}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "25", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "24", rec.Header().Get("X-RateLimit-Remaining"))

	var body struct {
		Success bool                  `json:"success"`
		Data    *models.MatchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Matches, 1)
	assert.Equal(t, 80, body.Data.Matches[0].MatchScore)
	assert.Equal(t, 3, body.Data.Processing.TotalProcessed)

	require.NotNil(t, searcher.profile)
	assert.Equal(t, 3.6, searcher.profile.Academic.GPA)
	assert.Equal(t, models.GradeUndergraduate, searcher.profile.Academic.GradeLevel)
	assert.Equal(t, []string{"leadership"}, searcher.profile.Skills)
}

func TestSearch_Preflight(t *testing.T) {
	searcher := &stubSearcher{response: createTestResponse()}
	h := newTestHandler(t, searcher, 1).Routes()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodOptions, SearchPath, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	assert.Zero(t, searcher.calls)
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &stubSearcher{}, 25).Routes()

	req := httptest.NewRequest(http.MethodGet, SearchPath, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", decodeError(t, rec).Error)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSearch_RateLimited(t *testing.T) {
	searcher := &stubSearcher{response: createTestResponse()}
	h := newTestHandler(t, searcher, 2).Routes()
	headers := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}

	for i := 0; i < 2; i++ {
		rec := postSearch(h, `{"userProfile": `+validProfile+`}`, headers)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postSearch(h, `{"userProfile": `+validProfile+`}`, headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", decodeError(t, rec).Error)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, searcher.calls)

	other := postSearch(h, `{"userProfile": `+validProfile+`}`, map[string]string{"X-Forwarded-For": "198.51.100.2"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestSearch_RejectedBeforeBodyIsRead(t *testing.T) {
	searcher := &stubSearcher{response: createTestResponse()}
	h := newTestHandler(t, searcher, 1).Routes()

	require.Equal(t, http.StatusBadRequest, postSearch(h, `not json`, nil).Code)
	rec := postSearch(h, `not json`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
		fields  []string
	}{
		{"missing profile", `{}`, "User profile is required", nil},
		{"null profile", `{"userProfile": null}`, "User profile is required", nil},
		{"malformed json", `{"userProfile": `, "Invalid request body", nil},
		{"missing academic", `{"userProfile": {"skills": []}}`, "Invalid user profile", []string{"academic"}},
		{
			"gpa out of range",
			`{"userProfile": {"academic": {"gpa": 5.2, "gradeLevel": "graduate", "fieldOfStudy": "Math"}}}`,
			"Invalid user profile",
			[]string{"academic.gpa"},
		},
		{
			"unknown grade level",
			`{"userProfile": {"academic": {"gpa": 3.2, "gradeLevel": "sophomore", "fieldOfStudy": "Math"}}}`,
			"Invalid user profile",
			[]string{"academic.gradeLevel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &stubSearcher{response: createTestResponse()}
			h := newTestHandler(t, searcher, 25).Routes()

			rec := postSearch(h, tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Error)
			if tt.fields != nil {
				assert.Equal(t, tt.fields, body.Fields)
			}
			assert.Zero(t, searcher.calls)
		})
	}
}

func TestSearch_BodyTooLarge(t *testing.T) {
	searcher := &stubSearcher{response: createTestResponse()}
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: 5, Window: time.Minute})
	h := NewHandler(Config{MaxBodyBytes: 64}, searcher, limiter, logger.NewTestLogger(t)).Routes()

	rec := postSearch(h, `{"userProfile": `+validProfile+`}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, searcher.calls)

	body := decodeError(t, rec)
	assert.Equal(t, "Request body exceeds 64 bytes", body.Error)
	assert.Equal(t, "INVALID_INPUT", body.Code)
}

func TestSearch_RequestIDSanitized(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		echoed   bool
	}{
		{"plain id", "req-42", true},
		{"uuid", "5f0c6b1e-8d1a-4c1e-9d7b-2f0a3c9e1b77", true},
		{"dotted with colon", "edge.1:abc_2", true},
		{"too long", strings.Repeat("a", 129), false},
		{"header injection", "abc\r\nSet-Cookie: x=1", false},
		{"spaces", "hello world", false},
		{"markup", "<script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubSearcher{response: createTestResponse()}, 25).Routes()

			rec := postSearch(h, `{"userProfile": `+validProfile+`}`, map[string]string{"X-Request-ID": tt.incoming})

			got := rec.Header().Get("X-Request-ID")
			require.NotEmpty(t, got)
			if tt.echoed {
				assert.Equal(t, tt.incoming, got)
			} else {
				assert.NotEqual(t, tt.incoming, got)
				assert.LessOrEqual(t, len(got), 128)
			}
		})
	}
}

func TestSearch_InternalFailureHidesDetails(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"catalog", apperrors.NewCatalogUnavailableError("postgres", errors.New("dial tcp 10.0.0.5:5432: refused"))},
		{"malformed record", apperrors.NewMalformedRecordError("s9", "deadline missing")},
		{"plain error", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubSearcher{err: tt.err}, 25).Routes()

			rec := postSearch(h, `{"userProfile": `+validProfile+`}`, nil)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "Internal server error", body.Error)
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
			assert.NotContains(t, rec.Body.String(), "s9")
		})
	}
}

func TestSearch_NotifiesWhenContactPresent(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("ses throttled")}
	handler := newTestHandler(t, &stubSearcher{response: createTestResponse()}, 25, WithNotifier(notifier))

	profile := `{"academic": {"gpa": 3.6, "gradeLevel": "undergraduate", "fieldOfStudy": "CS"}, "contact": {"email": "a@example.com"}}`
	rec := postSearch(handler.Routes(), `{"userProfile": `+profile+`}`, nil)
	handler.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.matches, 1)
	assert.Equal(t, "s1", notifier.matches[0].Scholarship.ID)
}

func TestSearch_SkipsNotifierWithoutContact(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := newTestHandler(t, &stubSearcher{response: createTestResponse()}, 25, WithNotifier(notifier))

	rec := postSearch(handler.Routes(), `{"userProfile": `+validProfile+`}`, nil)
	handler.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, notifier.matches)
}

// ==========================
// Client identity & CORS
// ==========================

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		remote    string
		trust     bool
		expected  string
	}{
		{"first forwarded hop", " 203.0.113.7 , 10.0.0.1", "192.0.2.1:5555", false, "203.0.113.7"},
		{"no header", "", "192.0.2.1:5555", false, "unknown"},
		{"empty first hop", " ,10.0.0.1", "192.0.2.1:5555", false, "unknown"},
		{"trusted remote addr", "", "192.0.2.1:5555", true, "192.0.2.1"},
		{"trusted remote without port", "", "192.0.2.1", true, "192.0.2.1"},
		{"header wins over remote", "198.51.100.9", "192.0.2.1:5555", true, "198.51.100.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(Config{TrustRemoteAddr: tt.trust}, nil, nil, nil)
			req := httptest.NewRequest(http.MethodPost, SearchPath, nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.expected, h.clientKey(req))
		})
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	h := NewHandler(Config{AllowedOrigins: []string{"https://app.example.org"}}, &stubSearcher{}, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, SearchPath, nil)
	req.Header.Set("Origin", "https://app.example.org")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodOptions, SearchPath, nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
