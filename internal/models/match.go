// internal/models/match.go
package models

// Urgency is a coarse deadline tier.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Rank orders tiers so that a higher rank is more urgent.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	}
	return 0
}

// MatchResult is produced fresh for each request and never persisted.
type MatchResult struct {
	Scholarship       ScholarshipRecord `json:"scholarship"`
	MatchScore        int               `json:"matchScore"`
	Reasons           []string          `json:"reasons"`
	Urgency           Urgency           `json:"urgency"`
	DaysUntilDeadline int               `json:"daysUntilDeadline"`
}

type ProcessingSummary struct {
	TotalProcessed   int    `json:"totalProcessed"`
	ProcessingTimeMs int64  `json:"processingTime"`
	ModelUsed        string `json:"modelUsed,omitempty"`
	Skipped          int    `json:"skipped,omitempty"`
	Provider         string `json:"provider,omitempty"`
}

type MatchResponse struct {
	Matches    []MatchResult     `json:"matches"`
	Processing ProcessingSummary `json:"processing"`
}

// SearchRequest is the body of POST /api/scholarships/search.
type SearchRequest struct {
	UserProfile *ApplicantProfile `json:"userProfile"`
}

// SearchResponse wraps a successful search.
type SearchResponse struct {
	Success bool           `json:"success"`
	Data    *MatchResponse `json:"data"`
}
