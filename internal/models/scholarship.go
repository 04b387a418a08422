// internal/models/scholarship.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ScholarshipRecord is read-only reference data from a catalog provider.
type ScholarshipRecord struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Provider            string              `json:"provider"`
	Description         string              `json:"description"`
	AwardAmount         AwardAmount         `json:"awardAmount"`
	EligibilityCriteria EligibilityCriteria `json:"eligibilityCriteria"`
	ApplicationDeadline Date                `json:"applicationDeadline"`
	ApplicationLink     string              `json:"applicationLink"`
	Requirements        []string            `json:"requirements"`
	Tags                []string            `json:"tags"`
	Source              Source              `json:"source"`
	LastUpdated         time.Time           `json:"lastUpdated"`
}

type AwardAmount struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Type string  `json:"type"` // one-time, renewable, ...
}

// Source is provenance metadata. The matcher passes it through untouched.
type Source struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	LastSynced time.Time `json:"lastSynced"`
}

// EligibilityCriteria is a sparse set of constraints. A nil field means
// "no constraint on this axis"; a non-nil empty slice means the axis is
// present but lists nothing, which nobody satisfies.
type EligibilityCriteria struct {
	MinGPA        *float64     `json:"minGPA,omitempty"`
	GradeLevels   []GradeLevel `json:"gradeLevel"`
	FieldsOfStudy []string     `json:"fieldOfStudy"`
}

// HasMinGPA reports a GPA floor. A zero floor constrains nothing and is
// treated as absent.
func (c EligibilityCriteria) HasMinGPA() bool {
	return c.MinGPA != nil && *c.MinGPA > 0
}

func (c EligibilityCriteria) HasGradeLevels() bool {
	return c.GradeLevels != nil
}

func (c EligibilityCriteria) HasFieldsOfStudy() bool {
	return c.FieldsOfStudy != nil
}

// MarshalJSON omits absent axes and keeps present-but-empty ones as [].
func (c EligibilityCriteria) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 3)
	if c.MinGPA != nil {
		out["minGPA"] = *c.MinGPA
	}
	if c.GradeLevels != nil {
		out["gradeLevel"] = c.GradeLevels
	}
	if c.FieldsOfStudy != nil {
		out["fieldOfStudy"] = c.FieldsOfStudy
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts null for the whole object and for each axis.
func (c *EligibilityCriteria) UnmarshalJSON(data []byte) error {
	*c = EligibilityCriteria{}
	if string(data) == "null" {
		return nil
	}
	var raw struct {
		MinGPA        *float64         `json:"minGPA"`
		GradeLevels   *json.RawMessage `json:"gradeLevel"`
		FieldsOfStudy *json.RawMessage `json:"fieldOfStudy"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("eligibilityCriteria: %w", err)
	}
	c.MinGPA = raw.MinGPA
	if raw.GradeLevels != nil && string(*raw.GradeLevels) != "null" {
		levels := []GradeLevel{}
		if err := json.Unmarshal(*raw.GradeLevels, &levels); err != nil {
			return fmt.Errorf("eligibilityCriteria.gradeLevel: %w", err)
		}
		c.GradeLevels = levels
	}
	if raw.FieldsOfStudy != nil && string(*raw.FieldsOfStudy) != "null" {
		fields := []string{}
		if err := json.Unmarshal(*raw.FieldsOfStudy, &fields); err != nil {
			return fmt.Errorf("eligibilityCriteria.fieldOfStudy: %w", err)
		}
		c.FieldsOfStudy = fields
	}
	return nil
}

const dateLayout = "2006-01-02"

// Date is a calendar date pinned to midnight UTC.
type Date struct {
	time.Time
}

// NewDate builds the Date for year, month and day at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return NewDate(t.UTC().Date()), nil
}

// MustParseDate is ParseDate for literals.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
