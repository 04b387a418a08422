// internal/matching/reasons.go
package matching

import (
	"fmt"
	"strconv"

	"scholarship-matcher/internal/models"
)

const (
	excellentThreshold = 80
	goodThreshold      = 60

	reasonExcellent = "Excellent overall match for your profile"
	reasonGood      = "Good match based on your qualifications"
	reasonFallback  = "Basic eligibility match"
)

// Explain lists, in GPA, grade level, field order, the eligibility axes the
// profile satisfies, followed by a closing remark keyed on score. The result
// is never empty.
func Explain(profile *models.ApplicantProfile, scholarship *models.ScholarshipRecord, score int) []string {
	criteria := scholarship.EligibilityCriteria
	reasons := make([]string, 0, 4)

	if meetsGPA(profile, criteria) {
		reasons = append(reasons, fmt.Sprintf("Meets GPA requirement (%s >= %s)",
			formatGPA(profile.Academic.GPA), formatGPA(*criteria.MinGPA)))
	}

	if matchesGradeLevel(profile, criteria) {
		reasons = append(reasons, "Matches academic level: "+string(profile.Academic.GradeLevel))
	}

	if criteria.HasFieldsOfStudy() && matchesField(profile, criteria) {
		reasons = append(reasons, "Relevant to field of study: "+profile.Academic.FieldOfStudy)
	}

	switch {
	case score >= excellentThreshold:
		reasons = append(reasons, reasonExcellent)
	case score >= goodThreshold:
		reasons = append(reasons, reasonGood)
	}

	if len(reasons) == 0 {
		return []string{reasonFallback}
	}
	return reasons
}

// formatGPA prints the shortest decimal that round-trips: 3.6, 3, 3.75.
func formatGPA(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
