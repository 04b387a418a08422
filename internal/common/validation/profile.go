package validation

import (
	"sync"

	"scholarship-matcher/internal/models"
)

// ProfileSchema describes an acceptable userProfile.
func ProfileSchema() map[string]interface{} {
	gradeLevels := make([]interface{}, 0, len(models.GradeLevels))
	for _, g := range models.GradeLevels {
		gradeLevels = append(gradeLevels, string(g))
	}
	stringList := map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "string"},
	}

	return map[string]interface{}{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []interface{}{"academic"},
		"properties": map[string]interface{}{
			"academic": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"gpa", "gradeLevel", "fieldOfStudy"},
				"properties": map[string]interface{}{
					"gpa": map[string]interface{}{
						"type":    "number",
						"minimum": 0,
						"maximum": 4,
					},
					"gradeLevel": map[string]interface{}{
						"type": "string",
						"enum": gradeLevels,
					},
					"fieldOfStudy": map[string]interface{}{
						"type":      "string",
						"maxLength": 200,
					},
					"graduationYear": map[string]interface{}{
						"type":    "integer",
						"minimum": 1900,
						"maximum": 2100,
					},
					"academicAchievements": stringList,
				},
			},
			"demographics": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"state":   map[string]interface{}{"type": "string"},
					"country": map[string]interface{}{"type": "string"},
				},
			},
			"skills":    stringList,
			"interests": stringList,
			"financialNeed": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"hasFinancialAid": map[string]interface{}{"type": "boolean"},
				},
			},
			"contact": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"email": map[string]interface{}{"type": "string", "format": "email"},
					"phone": map[string]interface{}{"type": "string", "pattern": `^\+[1-9][0-9]{6,14}$`},
				},
			},
		},
	}
}

var (
	profileOnce      sync.Once
	profileValidator *Validator
	profileErr       error
)

// ProfileValidator returns the shared validator for ProfileSchema.
func ProfileValidator() (*Validator, error) {
	profileOnce.Do(func() {
		profileValidator, profileErr = NewValidator(ProfileSchema())
	})
	return profileValidator, profileErr
}

// ValidateProfile checks a raw userProfile document.
func ValidateProfile(raw []byte) (*ValidationResult, error) {
	v, err := ProfileValidator()
	if err != nil {
		return nil, err
	}
	return v.ValidateJSON(raw)
}
