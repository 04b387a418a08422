// internal/matching/urgency.go
package matching

import (
	"math"
	"time"

	"scholarship-matcher/internal/models"
)

const (
	highUrgencyDays   = 30
	mediumUrgencyDays = 90

	day = 24 * time.Hour
)

// DaysUntil is ceil((deadline - now) / 1 day). It goes negative once the
// deadline has passed.
func DaysUntil(deadline models.Date, now time.Time) int {
	diff := deadline.Time.Sub(now)
	return int(math.Ceil(float64(diff) / float64(day)))
}

// Classify maps a deadline to an urgency tier relative to now.
func Classify(deadline models.Date, now time.Time) models.Urgency {
	return ClassifyDays(DaysUntil(deadline, now))
}

// ClassifyDays is Classify on a precomputed day count. Past deadlines
// (negative counts) are high.
func ClassifyDays(days int) models.Urgency {
	switch {
	case days <= highUrgencyDays:
		return models.UrgencyHigh
	case days <= mediumUrgencyDays:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}
