// internal/matching/scorer.go
package matching

import (
	"strings"

	"scholarship-matcher/internal/models"
)

// MinScore is the inclusion threshold: results must score strictly above it.
const MinScore = 30

const (
	maxScore = 100

	gpaFloorPoints   = 30
	gpaBonusPoints   = 10
	gpaBonusMargin   = 0.5
	noGPAFloorPoints = 25

	gradeLevelPoints = 25

	fieldMatchPoints        = 25
	noFieldConstraintPoints = 15

	affinityPoints = 15
)

// Score rates how well profile fits scholarship on a 0-100 scale. It is a
// pure function of its inputs.
func Score(profile *models.ApplicantProfile, scholarship *models.ScholarshipRecord) int {
	criteria := scholarship.EligibilityCriteria
	score := 0

	if criteria.HasMinGPA() {
		if meetsGPA(profile, criteria) {
			score += gpaFloorPoints
		}
		if profile.Academic.GPA >= *criteria.MinGPA+gpaBonusMargin {
			score += gpaBonusPoints
		}
	} else {
		score += noGPAFloorPoints
	}

	if matchesGradeLevel(profile, criteria) {
		score += gradeLevelPoints
	}

	if criteria.HasFieldsOfStudy() {
		if matchesField(profile, criteria) {
			score += fieldMatchPoints
		}
	} else {
		score += noFieldConstraintPoints
	}

	if hasAffinity(profile, scholarship.Tags) {
		score += affinityPoints
	}

	return clamp(score, 0, maxScore)
}

func meetsGPA(profile *models.ApplicantProfile, criteria models.EligibilityCriteria) bool {
	return criteria.HasMinGPA() && profile.Academic.GPA >= *criteria.MinGPA
}

func matchesGradeLevel(profile *models.ApplicantProfile, criteria models.EligibilityCriteria) bool {
	for _, level := range criteria.GradeLevels {
		if level == profile.Academic.GradeLevel {
			return true
		}
	}
	return false
}

// matchesField is a case-insensitive substring test in both directions, so
// "Computer Science" matches "Computer Science and Engineering" and the
// reverse. An empty field of study matches nothing.
func matchesField(profile *models.ApplicantProfile, criteria models.EligibilityCriteria) bool {
	mine := normalize(profile.Academic.FieldOfStudy)
	if mine == "" {
		return false
	}
	for _, field := range criteria.FieldsOfStudy {
		theirs := normalize(field)
		if theirs == "" {
			continue
		}
		if strings.Contains(theirs, mine) || strings.Contains(mine, theirs) {
			return true
		}
	}
	return false
}

// hasAffinity reports whether any skill or interest contains one of the tags.
func hasAffinity(profile *models.ApplicantProfile, tags []string) bool {
	for _, tag := range tags {
		tag = normalize(tag)
		if tag == "" {
			continue
		}
		for _, s := range profile.Skills {
			if strings.Contains(normalize(s), tag) {
				return true
			}
		}
		for _, s := range profile.Interests {
			if strings.Contains(normalize(s), tag) {
				return true
			}
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
