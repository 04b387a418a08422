// internal/matching/matcher.go
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"scholarship-matcher/internal/common/errors"
	"scholarship-matcher/internal/common/logger"
	"scholarship-matcher/internal/common/metrics"
	"scholarship-matcher/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultModelUsed = "weighted-axis-v1"

// Source supplies the catalog for Search. The matcher never depends on how
// the catalog is obtained.
type Source interface {
	Fetch(ctx context.Context) ([]models.ScholarshipRecord, error)
	Name() string
}

// Recorder receives one call per match pass.
type Recorder interface {
	RecordMatch(ctx context.Context, outcome string, duration time.Duration, returned int)
}

type Config struct {
	// SkipInvalidRecords leaves malformed records out and counts them in
	// Skipped instead of failing the whole pass.
	SkipInvalidRecords bool
	// IncludeExpired keeps records whose deadline has passed. They classify
	// as high urgency.
	IncludeExpired bool
	// MaxResults caps the ranked list. Zero means no cap.
	MaxResults int
	ModelUsed  string
}

func DefaultConfig() Config {
	return Config{
		IncludeExpired: true,
		ModelUsed:      DefaultModelUsed,
	}
}

type Matcher struct {
	config   Config
	source   Source
	logger   logger.Logger
	tracer   trace.Tracer
	recorder Recorder
	now      func() time.Time
}

type Option func(*Matcher)

func WithClock(now func() time.Time) Option {
	return func(m *Matcher) { m.now = now }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(m *Matcher) { m.tracer = tracer }
}

func WithRecorder(r Recorder) Option {
	return func(m *Matcher) { m.recorder = r }
}

// NewMatcher builds a matcher. source may be nil when only Match is used.
func NewMatcher(config Config, source Source, log logger.Logger, opts ...Option) *Matcher {
	if config.ModelUsed == "" {
		config.ModelUsed = DefaultModelUsed
	}
	if config.MaxResults < 0 {
		config.MaxResults = 0
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	m := &Matcher{
		config: config,
		source: source,
		logger: log.WithFields(map[string]interface{}{"component": "matcher"}),
		tracer: otel.Tracer("scholarship-matcher/matching"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Search fetches the current catalog from the source and matches profile
// against it.
func (m *Matcher) Search(ctx context.Context, profile *models.ApplicantProfile) (*models.MatchResponse, error) {
	if profile == nil {
		return nil, errors.NewMissingProfileError()
	}
	if m.source == nil {
		return nil, errors.NewCatalogUnavailableError("none", fmt.Errorf("no catalog source configured"))
	}

	catalog, err := m.source.Fetch(ctx)
	if err != nil {
		metrics.CatalogFetchErrors.WithLabelValues(m.source.Name()).Inc()
		m.logger.Error("catalog fetch failed", map[string]interface{}{
			"provider": m.source.Name(),
			"error":    err,
		})
		return nil, errors.NewCatalogUnavailableError(m.source.Name(), err)
	}

	resp, err := m.Match(ctx, profile, catalog)
	if err != nil {
		return nil, err
	}
	resp.Processing.Provider = m.source.Name()
	return resp, nil
}

// Match scores every record of catalog against profile and returns the
// results scoring above MinScore, best first. Ties keep catalog order.
func (m *Matcher) Match(ctx context.Context, profile *models.ApplicantProfile, catalog []models.ScholarshipRecord) (*models.MatchResponse, error) {
	if profile == nil {
		return nil, errors.NewMissingProfileError()
	}

	ctx, span := m.tracer.Start(ctx, "matching.Match", trace.WithAttributes(
		attribute.Int("catalog.size", len(catalog)),
	))
	defer span.End()

	start := m.now()
	now := start.UTC()

	results := make([]models.MatchResult, 0, len(catalog))
	skipped := 0

	for i := range catalog {
		record := &catalog[i]

		if err := ValidateRecord(record); err != nil {
			if !m.config.SkipInvalidRecords {
				m.finish(ctx, span, "error", start, 0)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				m.logger.Error("malformed catalog record", map[string]interface{}{
					"index":    i,
					"recordId": record.ID,
					"error":    err,
				})
				return nil, err
			}
			skipped++
			metrics.RecordsSkipped.WithLabelValues("malformed").Inc()
			m.logger.Warn("skipping malformed catalog record", map[string]interface{}{
				"index":    i,
				"recordId": record.ID,
				"error":    err,
			})
			continue
		}

		days := DaysUntil(record.ApplicationDeadline, now)
		if days < 0 && !m.config.IncludeExpired {
			metrics.RecordsSkipped.WithLabelValues("expired").Inc()
			continue
		}

		score := Score(profile, record)
		if score <= MinScore {
			continue
		}

		results = append(results, models.MatchResult{
			Scholarship:       *record,
			MatchScore:        score,
			Reasons:           Explain(profile, record, score),
			Urgency:           ClassifyDays(days),
			DaysUntilDeadline: days,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	if m.config.MaxResults > 0 && len(results) > m.config.MaxResults {
		results = results[:m.config.MaxResults]
	}

	elapsed := m.finish(ctx, span, "success", start, len(results))
	span.SetAttributes(
		attribute.Int("matches.returned", len(results)),
		attribute.Int("records.skipped", skipped),
	)

	m.logger.Info("match pass completed", map[string]interface{}{
		"totalProcessed": len(catalog),
		"matches":        len(results),
		"skipped":        skipped,
		"durationMs":     elapsed.Milliseconds(),
	})

	return &models.MatchResponse{
		Matches: results,
		Processing: models.ProcessingSummary{
			TotalProcessed:   len(catalog),
			ProcessingTimeMs: elapsed.Milliseconds(),
			ModelUsed:        m.config.ModelUsed,
			Skipped:          skipped,
		},
	}, nil
}

func (m *Matcher) finish(ctx context.Context, span trace.Span, outcome string, start time.Time, returned int) time.Duration {
	elapsed := m.now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	metrics.MatchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == "success" {
		metrics.MatchesReturned.Observe(float64(returned))
	}
	if m.recorder != nil {
		m.recorder.RecordMatch(ctx, outcome, elapsed, returned)
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	return elapsed
}

// ValidateRecord rejects records the scorer cannot interpret.
func ValidateRecord(record *models.ScholarshipRecord) error {
	switch {
	case record.ID == "":
		return errors.NewMalformedRecordError("", "missing id")
	case record.ApplicationDeadline.IsZero():
		return errors.NewMalformedRecordError(record.ID, "missing applicationDeadline")
	case record.AwardAmount.Min > record.AwardAmount.Max:
		return errors.NewMalformedRecordError(record.ID, "awardAmount.min exceeds awardAmount.max")
	}
	if gpa := record.EligibilityCriteria.MinGPA; gpa != nil && (math.IsNaN(*gpa) || *gpa < 0) {
		return errors.NewMalformedRecordError(record.ID, "minGPA must be a non-negative number")
	}
	return nil
}
