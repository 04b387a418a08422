// internal/models/profile.go
package models

// GradeLevel is the applicant's current stage of study.
type GradeLevel string

const (
	GradeHighSchool    GradeLevel = "high-school"
	GradeUndergraduate GradeLevel = "undergraduate"
	GradeGraduate      GradeLevel = "graduate"
	GradePostgraduate  GradeLevel = "postgraduate"
)

// GradeLevels lists every accepted grade level in display order.
var GradeLevels = []GradeLevel{GradeHighSchool, GradeUndergraduate, GradeGraduate, GradePostgraduate}

func (g GradeLevel) Valid() bool {
	for _, known := range GradeLevels {
		if g == known {
			return true
		}
	}
	return false
}

// ApplicantProfile is the input of one match operation. The matcher never
// mutates it.
type ApplicantProfile struct {
	Academic      AcademicProfile `json:"academic"`
	Demographics  Demographics    `json:"demographics"`
	Skills        []string        `json:"skills"`
	Interests     []string        `json:"interests"`
	FinancialNeed FinancialNeed   `json:"financialNeed"`
	Contact       *Contact        `json:"contact,omitempty"`
}

type AcademicProfile struct {
	GPA            float64    `json:"gpa"`
	GradeLevel     GradeLevel `json:"gradeLevel"`
	FieldOfStudy   string     `json:"fieldOfStudy"`
	GraduationYear int        `json:"graduationYear"`
	Achievements   []string   `json:"academicAchievements"`
}

type Demographics struct {
	State   string `json:"state"`
	Country string `json:"country"`
}

type FinancialNeed struct {
	HasFinancialAid bool `json:"hasFinancialAid"`
}

// Contact is optional and only read by the deadline notifier.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
