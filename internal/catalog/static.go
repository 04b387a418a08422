// internal/catalog/static.go
package catalog

import (
	"context"
	"fmt"
	"time"

	"scholarship-matcher/internal/models"
	"scholarship-matcher/pkg/registry"
)

const ProviderStatic = "static"

// StaticProvider serves a fixed in-memory catalog: either the built-in
// sample records or the contents of a seed file read at construction.
type StaticProvider struct {
	seeded []models.ScholarshipRecord
	now    func() time.Time
}

// NewStaticProvider loads seedFile when set; otherwise Fetch returns the
// built-in records.
func NewStaticProvider(seedFile string, now func() time.Time) (*StaticProvider, error) {
	if now == nil {
		now = time.Now
	}
	p := &StaticProvider{now: now}
	if seedFile == "" {
		return p, nil
	}
	file, err := registry.LoadCatalog(seedFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog seed %s: %w", seedFile, err)
	}
	p.seeded = file.Scholarships
	return p, nil
}

func (p *StaticProvider) Name() string { return ProviderStatic }

func (p *StaticProvider) Fetch(ctx context.Context) ([]models.ScholarshipRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.seeded != nil {
		out := make([]models.ScholarshipRecord, len(p.seeded))
		copy(out, p.seeded)
		return out, nil
	}
	return sampleScholarships(p.now().UTC()), nil
}

func floor(v float64) *float64 { return &v }

// sampleScholarships are stamped as synced at now, every call.
func sampleScholarships(now time.Time) []models.ScholarshipRecord {
	return []models.ScholarshipRecord{
		{
			ID:          "merit-excellence-2025",
			Name:        "Academic Excellence Scholarship",
			Provider:    "National Education Foundation",
			Description: "Merit-based scholarship recognizing outstanding academic achievement and leadership potential.",
			AwardAmount: models.AwardAmount{Min: 1000, Max: 5000, Type: "one-time"},
			EligibilityCriteria: models.EligibilityCriteria{
				MinGPA:      floor(3.5),
				GradeLevels: []models.GradeLevel{models.GradeUndergraduate, models.GradeGraduate},
			},
			ApplicationDeadline: models.NewDate(2025, time.December, 31),
			ApplicationLink:     "https://example.com/apply/academic-excellence",
			Requirements:        []string{"Personal Essay", "Official Transcripts", "Two Recommendation Letters"},
			Tags:                []string{"merit-based", "academic", "leadership"},
			Source: models.Source{
				Name:       "College Scorecard Integration",
				URL:        "https://collegescorecard.ed.gov",
				LastSynced: now,
			},
			LastUpdated: now,
		},
		{
			ID:          "stem-innovation-2025",
			Name:        "STEM Innovation Grant",
			Provider:    "Technology Education Council",
			Description: "Supporting the next generation of innovators in Science, Technology, Engineering, and Mathematics.",
			AwardAmount: models.AwardAmount{Min: 2500, Max: 10000, Type: "renewable"},
			EligibilityCriteria: models.EligibilityCriteria{
				MinGPA:        floor(3.0),
				GradeLevels:   []models.GradeLevel{models.GradeUndergraduate},
				FieldsOfStudy: []string{"Computer Science", "Engineering", "Mathematics", "Physics"},
			},
			ApplicationDeadline: models.NewDate(2025, time.November, 15),
			ApplicationLink:     "https://example.com/apply/stem-innovation",
			Requirements:        []string{"STEM Project Portfolio", "Academic Transcripts", "Faculty Recommendation"},
			Tags:                []string{"stem", "technology", "innovation", "renewable"},
			Source: models.Source{
				Name:       "CareerOneStop Integration",
				URL:        "https://www.careeronestop.org",
				LastSynced: now,
			},
			LastUpdated: now,
		},
		{
			ID:          "diversity-inclusion-2025",
			Name:        "Diversity & Inclusion Excellence Award",
			Provider:    "Equal Opportunity Education Fund",
			Description: "Celebrating diversity and promoting inclusion in higher education.",
			AwardAmount: models.AwardAmount{Min: 1500, Max: 7500, Type: "one-time"},
			EligibilityCriteria: models.EligibilityCriteria{
				MinGPA:      floor(2.8),
				GradeLevels: []models.GradeLevel{models.GradeUndergraduate, models.GradeGraduate},
			},
			ApplicationDeadline: models.NewDate(2025, time.October, 30),
			ApplicationLink:     "https://example.com/apply/diversity-inclusion",
			Requirements:        []string{"Diversity Essay", "Community Service Record", "Academic Transcripts"},
			Tags:                []string{"diversity", "inclusion", "community-service"},
			Source: models.Source{
				Name:       "Federal Student Aid",
				URL:        "https://studentaid.gov",
				LastSynced: now,
			},
			LastUpdated: now,
		},
	}
}
