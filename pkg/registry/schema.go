// pkg/registry/schema.go
package registry

import "scholarship-matcher/internal/models"

// CatalogFile is the on-disk layout of a scholarship seed file.
type CatalogFile struct {
	Version      string                     `json:"version"`
	LastUpdated  string                     `json:"lastUpdated"`
	Scholarships []models.ScholarshipRecord `json:"scholarships"`
}
