// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "scholarship-matcher/internal/common/errors"
	"scholarship-matcher/internal/common/logger"
	"scholarship-matcher/internal/common/metrics"
	"scholarship-matcher/internal/common/validation"
	"scholarship-matcher/internal/models"
	"scholarship-matcher/internal/notify"
	"scholarship-matcher/internal/ratelimit"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	SearchPath = "/api/scholarships/search"

	headerRequestID = "X-Request-ID"

	maxRequestIDLen = 128
	unknownClient   = "unknown"

	defaultMaxBodyBytes  = 1 << 20
	defaultNotifyTimeout = 10 * time.Second
)

// Searcher runs one match pass for a validated profile.
type Searcher interface {
	Search(ctx context.Context, profile *models.ApplicantProfile) (*models.MatchResponse, error)
}

// DeadlineNotifier is called after a successful search, off the request path.
type DeadlineNotifier interface {
	NotifyDeadlines(ctx context.Context, profile *models.ApplicantProfile, matches []models.MatchResult) (*notify.Result, error)
}

// CheckFunc reports whether a dependency is ready to serve.
type CheckFunc func(ctx context.Context) error

type Config struct {
	MaxBodyBytes    int64
	TrustRemoteAddr bool
	AllowedOrigins  []string
	NotifyTimeout   time.Duration
}

type Handler struct {
	config    Config
	searcher  Searcher
	limiter   *ratelimit.Limiter
	notifier  DeadlineNotifier
	checks    map[string]CheckFunc
	gatherer  prometheus.Gatherer
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	newID     func() string
	notifyWG  sync.WaitGroup
	checkTime func() time.Time
}

type Option func(*Handler)

// WithNotifier enables deadline alerts after successful searches.
func WithNotifier(n DeadlineNotifier) Option {
	return func(h *Handler) {
		h.notifier = n
	}
}

// WithReadinessCheck adds a named check to /ready.
func WithReadinessCheck(name string, check CheckFunc) Option {
	return func(h *Handler) {
		h.checks[name] = check
	}
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.gatherer = g
	}
}

func NewHandler(config Config, searcher Searcher, limiter *ratelimit.Limiter, log logger.Logger, opts ...Option) *Handler {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = defaultNotifyTimeout
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Config{})
	}
	h := &Handler{
		config:    config,
		searcher:  searcher,
		limiter:   limiter,
		checks:    make(map[string]CheckFunc),
		gatherer:  prometheus.DefaultGatherer,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
		newID:     func() string { return uuid.New().String() },
		checkTime: time.Now,
	}
	h.errors = apperrors.NewErrorHandler(h.logger)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the service mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(SearchPath, h.Search)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ready", h.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Wait blocks until in-flight deadline alerts have finished.
func (h *Handler) Wait() {
	h.notifyWG.Wait()
}

type searchBody struct {
	UserProfile json.RawMessage `json:"userProfile"`
}

// Search serves POST /api/scholarships/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get(headerRequestID)
	if !validRequestID(requestID) {
		requestID = h.newID()
	}
	w.Header().Set(headerRequestID, requestID)
	h.setCORS(w, r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	metrics.SearchRequestsActive.Inc()
	defer metrics.SearchRequestsActive.Dec()

	clientKey := h.clientKey(r)
	log := h.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"clientKey": clientKey,
	})

	resp, err := h.search(w, r, clientKey)
	outcome := "success"
	if err != nil {
		outcome = strings.ToLower(string(apperrors.CodeOf(err)))
		h.errors.HandleHTTPError(w, r, err)
	} else {
		writeJSON(w, http.StatusOK, models.SearchResponse{Success: true, Data: resp})
	}

	elapsed := time.Since(start)
	metrics.SearchRequests.WithLabelValues(outcome).Inc()
	metrics.SearchRequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	fields := map[string]interface{}{
		"outcome":    outcome,
		"durationMs": elapsed.Milliseconds(),
	}
	if resp != nil {
		fields["matches"] = len(resp.Matches)
		fields["totalProcessed"] = resp.Processing.TotalProcessed
	}
	log.Info("search request handled", fields)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, clientKey string) (*models.MatchResponse, error) {
	if r.Method != http.MethodPost {
		return nil, apperrors.NewMethodNotAllowedError(r.Method)
	}

	decision := h.limiter.Decide(clientKey)
	setRateLimitHeaders(w, decision)
	if !decision.Allowed {
		metrics.RateLimitRejections.Inc()
		return nil, apperrors.NewRateLimitedError(clientKey, decision.RetryAfter)
	}

	profile, err := h.decodeProfile(w, r)
	if err != nil {
		return nil, err
	}

	resp, err := h.searcher.Search(r.Context(), profile)
	if err != nil {
		return nil, err
	}

	h.notify(profile, resp.Matches)
	return resp, nil
}

func (h *Handler) decodeProfile(w http.ResponseWriter, r *http.Request) (*models.ApplicantProfile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)

	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewInvalidBodyError(fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), err.Error())
		}
		return nil, apperrors.NewInvalidBodyError("Invalid request body", err.Error())
	}
	if len(body.UserProfile) == 0 || string(body.UserProfile) == "null" {
		return nil, apperrors.NewMissingProfileError()
	}

	result, err := validation.ValidateProfile(body.UserProfile)
	if err != nil {
		return nil, apperrors.NewInternalFailureError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidInputError(result.Summary()).WithMetadata("fields", result.Fields())
	}

	var profile models.ApplicantProfile
	if err := json.Unmarshal(body.UserProfile, &profile); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &profile, nil
}

func (h *Handler) notify(profile *models.ApplicantProfile, matches []models.MatchResult) {
	if h.notifier == nil || profile.Contact == nil {
		return
	}
	h.notifyWG.Add(1)
	go func() {
		defer h.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.config.NotifyTimeout)
		defer cancel()
		if _, err := h.notifier.NotifyDeadlines(ctx, profile, matches); err != nil {
			h.logger.Warn("deadline alert not delivered", map[string]interface{}{"error": err.Error()})
		}
	}()
}

// clientKey uses the first X-Forwarded-For hop. Without one the key is
// "unknown" unless the connection address is trusted.
func (h *Handler) clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if key := strings.TrimSpace(first); key != "" {
			return key
		}
	}
	if h.config.TrustRemoteAddr && r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return unknownClient
}

// validRequestID accepts caller IDs of up to maxRequestIDLen characters from
// [A-Za-z0-9._:-].
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

func (h *Handler) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := "*"
	if len(h.config.AllowedOrigins) > 0 && !contains(h.config.AllowedOrigins, "*") {
		origin = ""
		if reqOrigin := r.Header.Get("Origin"); contains(h.config.AllowedOrigins, reqOrigin) {
			origin = reqOrigin
		}
		w.Header().Add("Vary", "Origin")
	}
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
