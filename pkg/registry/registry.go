// pkg/registry/registry.go
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"scholarship-matcher/internal/models"
)

// LoadCatalog reads a seed file. The file may hold a CatalogFile object or a
// bare array of records.
func LoadCatalog(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes the same layouts LoadCatalog accepts.
func ParseCatalog(data []byte) (*CatalogFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	if data[0] == '[' {
		var records []models.ScholarshipRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode catalog array: %w", err)
		}
		return &CatalogFile{Scholarships: records}, nil
	}

	var file CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if file.Scholarships == nil {
		file.Scholarships = []models.ScholarshipRecord{}
	}
	return &file, nil
}
